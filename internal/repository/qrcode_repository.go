package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"eventmaster/internal/domain"
	"eventmaster/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const qrSelect = `
	SELECT q.id, q.code, q.name, q.type, q.user_id, q.event_id, q.guest_id, q.folder_id,
	       q.data, q.scanned, q.scanned_at, q.created_at,
	       e.id, e.name, e.date, e.location, e.description,
	       f.id, f.name, f.color
	FROM qr_codes q
	LEFT JOIN events e ON e.id = q.event_id
	LEFT JOIN folders f ON f.id = q.folder_id
`

// qrCodeRepository handles QR code operations with PostgreSQL
type qrCodeRepository struct {
	db *database.PostgresDB
}

// NewQRCodeRepository creates a new QR code repository
func NewQRCodeRepository(db *database.PostgresDB) QRCodeRepository {
	return &qrCodeRepository{db: db}
}

// Create inserts a QR code
func (r *qrCodeRepository) Create(ctx context.Context, qr *domain.QRCode) error {
	if qr.ID == "" {
		qr.ID = uuid.NewString()
	}

	data, err := json.Marshal(qr.Data)
	if err != nil {
		return fmt.Errorf("failed to encode qr data: %w", err)
	}

	query := `
		INSERT INTO qr_codes (id, code, name, type, user_id, event_id, guest_id, folder_id, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	err = r.db.Pool.QueryRow(ctx, query,
		qr.ID,
		qr.Code,
		qr.Name,
		string(qr.Type),
		qr.UserID,
		qr.EventID,
		qr.GuestID,
		qr.FolderID,
		data,
	).Scan(&qr.CreatedAt)

	return wrap(err, "create qr code")
}

// CodeExists probes the QR code namespace
func (r *qrCodeRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM qr_codes WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, wrap(err, "probe qr code")
	}
	return exists, nil
}

// GetByIDForUser retrieves a QR code owned by userID
func (r *qrCodeRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.QRCode, error) {
	return r.getOne(ctx, "get qr code", qrSelect+` WHERE q.id = $1 AND q.user_id = $2`, id, userID)
}

// GetByCode retrieves a QR code by its public code
func (r *qrCodeRepository) GetByCode(ctx context.Context, code string) (*domain.QRCode, error) {
	return r.getOne(ctx, "get qr code by code", qrSelect+` WHERE q.code = $1`, code)
}

func (r *qrCodeRepository) getOne(ctx context.Context, op, query string, args ...any) (*domain.QRCode, error) {
	qr, err := scanQRCode(r.db.GetReadPool().QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, wrap(err, op)
	}
	return qr, nil
}

// List retrieves the user's QR codes, newest first
func (r *qrCodeRepository) List(ctx context.Context, userID string, filter domain.QRCodeFilter) ([]*domain.QRCode, error) {
	w := &whereBuilder{}
	w.Add("q.user_id = ?", userID)
	if filter.FolderID != "" {
		w.Add("q.folder_id = ?", filter.FolderID)
	}
	if filter.EventID != "" {
		w.Add("q.event_id = ?", filter.EventID)
	}

	return r.query(ctx, "list qr codes", qrSelect+w.SQL()+` ORDER BY q.created_at DESC`, w.Args()...)
}

// ListByIDsForUser retrieves the subset of ids owned by userID
func (r *qrCodeRepository) ListByIDsForUser(ctx context.Context, userID string, ids []string) ([]*domain.QRCode, error) {
	return r.query(ctx, "list qr codes by ids", qrSelect+` WHERE q.user_id = $1 AND q.id = ANY($2)`, userID, ids)
}

func (r *qrCodeRepository) query(ctx context.Context, op, query string, args ...any) ([]*domain.QRCode, error) {
	rows, err := r.db.GetReadPool().Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(err, op)
	}
	defer rows.Close()

	var codes []*domain.QRCode
	for rows.Next() {
		qr, err := scanQRCode(rows)
		if err != nil {
			return nil, wrap(err, "scan qr code row")
		}
		codes = append(codes, qr)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(err, op)
	}
	return codes, nil
}

// DeleteByIDs deletes the user's QR codes among ids
func (r *qrCodeRepository) DeleteByIDs(ctx context.Context, userID string, ids []string) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM qr_codes WHERE user_id = $1 AND id = ANY($2)`, userID, ids)
	if err != nil {
		return 0, wrap(err, "delete qr codes")
	}
	return tag.RowsAffected(), nil
}

func scanQRCode(row pgx.Row) (*domain.QRCode, error) {
	var (
		qr   domain.QRCode
		data []byte

		eventID, eventName, eventLocation, eventDescription *string
		eventDate                                           *time.Time
		folderID, folderName, folderColor                   *string
	)

	err := row.Scan(
		&qr.ID,
		&qr.Code,
		&qr.Name,
		&qr.Type,
		&qr.UserID,
		&qr.EventID,
		&qr.GuestID,
		&qr.FolderID,
		&data,
		&qr.Scanned,
		&qr.ScannedAt,
		&qr.CreatedAt,
		&eventID, &eventName, &eventDate, &eventLocation, &eventDescription,
		&folderID, &folderName, &folderColor,
	)
	if err != nil {
		return nil, err
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &qr.Data); err != nil {
			return nil, fmt.Errorf("decode qr data: %w", err)
		}
	}

	if eventID != nil {
		qr.Event = &domain.EventSummary{
			ID:          *eventID,
			Name:        deref(eventName),
			Location:    deref(eventLocation),
			Description: deref(eventDescription),
		}
		if eventDate != nil {
			qr.Event.Date = *eventDate
		}
	}
	if folderID != nil {
		qr.Folder = &domain.FolderSummary{ID: *folderID, Name: deref(folderName), Color: deref(folderColor)}
	}

	return &qr, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
