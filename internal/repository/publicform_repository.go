package repository

import (
	"context"
	"time"

	"eventmaster/internal/domain"
	"eventmaster/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const formSelect = `
	SELECT f.id, f.token, f.user_id, f.event_id, f.title, f.description, f.is_active,
	       f.expires_at, f.max_submissions, f.current_submissions,
	       f.require_email, f.require_phone, f.allow_duplicate_email,
	       f.created_at, f.updated_at,
	       e.name, e.date, e.location, e.description
	FROM public_forms f
	JOIN events e ON e.id = f.event_id
`

// publicFormRepository handles public form operations with PostgreSQL
type publicFormRepository struct {
	db *database.PostgresDB
}

// NewPublicFormRepository creates a new public form repository
func NewPublicFormRepository(db *database.PostgresDB) PublicFormRepository {
	return &publicFormRepository{db: db}
}

// Create inserts a form
func (r *publicFormRepository) Create(ctx context.Context, form *domain.PublicForm) error {
	if form.ID == "" {
		form.ID = uuid.NewString()
	}

	query := `
		INSERT INTO public_forms (
			id, token, user_id, event_id, title, description, is_active,
			expires_at, max_submissions, require_email, require_phone, allow_duplicate_email
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING current_submissions, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		form.ID,
		form.Token,
		form.UserID,
		form.EventID,
		form.Title,
		form.Description,
		form.IsActive,
		form.ExpiresAt,
		form.MaxSubmissions,
		form.RequireEmail,
		form.RequirePhone,
		form.AllowDuplicateEmail,
	).Scan(&form.CurrentSubmissions, &form.CreatedAt, &form.UpdatedAt)

	return wrap(err, "create public form")
}

// TokenExists probes the form token namespace
func (r *publicFormRepository) TokenExists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM public_forms WHERE token = $1)`, token).Scan(&exists)
	if err != nil {
		return false, wrap(err, "probe form token")
	}
	return exists, nil
}

// GetByToken reads from the primary so the cap check sees the latest counter
func (r *publicFormRepository) GetByToken(ctx context.Context, token string) (*domain.PublicForm, error) {
	form, err := scanForm(r.db.Pool.QueryRow(ctx, formSelect+` WHERE f.token = $1`, token))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, wrap(err, "get public form by token")
	}
	return form, nil
}

// GetByIDForUser retrieves a form owned by userID
func (r *publicFormRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.PublicForm, error) {
	form, err := scanForm(r.db.Pool.QueryRow(ctx, formSelect+` WHERE f.id = $1 AND f.user_id = $2`, id, userID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, wrap(err, "get public form")
	}
	return form, nil
}

// ListByEvent retrieves the user's forms, optionally for one event
func (r *publicFormRepository) ListByEvent(ctx context.Context, userID, eventID string) ([]*domain.PublicForm, error) {
	w := &whereBuilder{}
	w.Add("f.user_id = ?", userID)
	if eventID != "" {
		w.Add("f.event_id = ?", eventID)
	}

	rows, err := r.db.GetReadPool().Query(ctx, formSelect+w.SQL()+` ORDER BY f.created_at DESC`, w.Args()...)
	if err != nil {
		return nil, wrap(err, "list public forms")
	}
	defer rows.Close()

	var forms []*domain.PublicForm
	for rows.Next() {
		form, err := scanForm(rows)
		if err != nil {
			return nil, wrap(err, "scan public form row")
		}
		forms = append(forms, form)
	}
	return forms, wrap(rows.Err(), "iterate public form rows")
}

// Update persists the mutable fields of a form
func (r *publicFormRepository) Update(ctx context.Context, form *domain.PublicForm) error {
	query := `
		UPDATE public_forms
		SET title = $3, description = $4, is_active = $5, expires_at = $6, max_submissions = $7,
		    require_email = $8, require_phone = $9, allow_duplicate_email = $10, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING current_submissions, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		form.ID,
		form.UserID,
		form.Title,
		form.Description,
		form.IsActive,
		form.ExpiresAt,
		form.MaxSubmissions,
		form.RequireEmail,
		form.RequirePhone,
		form.AllowDuplicateEmail,
	).Scan(&form.CurrentSubmissions, &form.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil
	}
	return wrap(err, "update public form")
}

// Delete removes a form
func (r *publicFormRepository) Delete(ctx context.Context, id, userID string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM public_forms WHERE id = $1 AND user_id = $2`, id, userID)
	return wrap(err, "delete public form")
}

func scanForm(row pgx.Row) (*domain.PublicForm, error) {
	var (
		form  domain.PublicForm
		event domain.EventSummary
		date  time.Time
	)

	err := row.Scan(
		&form.ID,
		&form.Token,
		&form.UserID,
		&form.EventID,
		&form.Title,
		&form.Description,
		&form.IsActive,
		&form.ExpiresAt,
		&form.MaxSubmissions,
		&form.CurrentSubmissions,
		&form.RequireEmail,
		&form.RequirePhone,
		&form.AllowDuplicateEmail,
		&form.CreatedAt,
		&form.UpdatedAt,
		&event.Name,
		&date,
		&event.Location,
		&event.Description,
	)
	if err != nil {
		return nil, err
	}

	event.ID = form.EventID
	event.Date = date
	form.Event = &event
	return &form, nil
}
