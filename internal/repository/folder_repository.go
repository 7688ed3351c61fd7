package repository

import (
	"context"

	"eventmaster/internal/domain"
	"eventmaster/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// folderRepository handles folder operations with PostgreSQL
type folderRepository struct {
	db *database.PostgresDB
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(db *database.PostgresDB) FolderRepository {
	return &folderRepository{db: db}
}

func (r *folderRepository) Create(ctx context.Context, folder *domain.Folder) error {
	if folder.ID == "" {
		folder.ID = uuid.NewString()
	}

	query := `
		INSERT INTO folders (id, user_id, name, color)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.Pool.QueryRow(ctx, query, folder.ID, folder.UserID, folder.Name, folder.Color).Scan(&folder.CreatedAt)
	return wrap(err, "create folder")
}

func (r *folderRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Folder, error) {
	query := `SELECT id, user_id, name, color, created_at FROM folders WHERE id = $1 AND user_id = $2`

	folder := &domain.Folder{}
	err := r.db.GetReadPool().QueryRow(ctx, query, id, userID).Scan(
		&folder.ID, &folder.UserID, &folder.Name, &folder.Color, &folder.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, wrap(err, "get folder")
	}
	return folder, nil
}

func (r *folderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Folder, error) {
	query := `SELECT id, user_id, name, color, created_at FROM folders WHERE user_id = $1 ORDER BY name`

	rows, err := r.db.GetReadPool().Query(ctx, query, userID)
	if err != nil {
		return nil, wrap(err, "query folders")
	}
	defer rows.Close()

	var folders []*domain.Folder
	for rows.Next() {
		folder := &domain.Folder{}
		if err := rows.Scan(&folder.ID, &folder.UserID, &folder.Name, &folder.Color, &folder.CreatedAt); err != nil {
			return nil, wrap(err, "scan folder row")
		}
		folders = append(folders, folder)
	}
	return folders, wrap(rows.Err(), "iterate folder rows")
}
