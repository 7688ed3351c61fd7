package repository

import (
	"context"
	"strings"

	"eventmaster/internal/domain"
	"eventmaster/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const guestColumns = `id, user_id, event_id, first_name, last_name, email, phone, status, confirmed_at, created_at`

// guestRepository handles guest operations with PostgreSQL
type guestRepository struct {
	db *database.PostgresDB
}

// NewGuestRepository creates a new guest repository
func NewGuestRepository(db *database.PostgresDB) GuestRepository {
	return &guestRepository{db: db}
}

const insertGuestQuery = `
	INSERT INTO guests (id, user_id, event_id, first_name, last_name, email, phone, status, confirmed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING created_at
`

// Create inserts a guest
func (r *guestRepository) Create(ctx context.Context, guest *domain.Guest) error {
	return insertGuest(ctx, r.db.Pool, guest)
}

// insertGuest runs on the pool or inside a submission transaction
func insertGuest(ctx context.Context, q querier, guest *domain.Guest) error {
	if guest.ID == "" {
		guest.ID = uuid.NewString()
	}
	if guest.Status == "" {
		guest.Status = domain.GuestStatusPending
	}

	err := q.QueryRow(ctx, insertGuestQuery,
		guest.ID,
		guest.UserID,
		guest.EventID,
		guest.FirstName,
		guest.LastName,
		guest.Email,
		guest.Phone,
		string(guest.Status),
		guest.ConfirmedAt,
	).Scan(&guest.CreatedAt)

	return wrap(err, "create guest")
}

// GetByIDForUser retrieves a guest owned by userID
func (r *guestRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Guest, error) {
	query := `SELECT ` + guestColumns + ` FROM guests WHERE id = $1 AND user_id = $2`
	return r.getOne(ctx, "get guest", query, id, userID)
}

// Duplicate lookups return the newest match: the anti-spam window is measured from it
const (
	findGuestByEmailQuery = `SELECT ` + guestColumns + ` FROM guests
		WHERE event_id = $1 AND lower(email) = $2 ORDER BY created_at DESC LIMIT 1`
	findGuestByPhoneQuery = `SELECT ` + guestColumns + ` FROM guests
		WHERE event_id = $1 AND phone = $2 ORDER BY created_at DESC LIMIT 1`
)

// FindByEmail retrieves the newest guest of an event with the given email,
// case-insensitively. Forms allowing duplicate emails can hold several.
func (r *guestRepository) FindByEmail(ctx context.Context, eventID, email string) (*domain.Guest, error) {
	return r.getOne(ctx, "find guest by email", findGuestByEmailQuery, eventID, strings.ToLower(email))
}

// FindByPhone retrieves the guest of an event with the given E.164 phone
func (r *guestRepository) FindByPhone(ctx context.Context, eventID, phone string) (*domain.Guest, error) {
	return r.getOne(ctx, "find guest by phone", findGuestByPhoneQuery, eventID, phone)
}

// Duplicate checks read from the primary so a guest committed a moment ago
// is never missed on a lagging replica.
func (r *guestRepository) getOne(ctx context.Context, op, query string, args ...any) (*domain.Guest, error) {
	guest, err := scanGuest(r.db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, wrap(err, op)
	}
	return guest, nil
}

// ListByEvent retrieves a page of an event's guests, newest first
func (r *guestRepository) ListByEvent(ctx context.Context, eventID string, filter domain.GuestFilter) ([]*domain.Guest, int, error) {
	w := &whereBuilder{}
	w.Add("event_id = ?", eventID)
	if filter.Status != "" {
		w.Add("status = ?", string(filter.Status))
	}
	w.Search(filter.Search, "first_name", "last_name", "email", "phone")

	pool := r.db.GetReadPool()

	var total int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM guests`+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, wrap(err, "count guests")
	}

	page := filter.Page.Normalize()
	limitClause, args := w.Paginate(page.Limit, page.Offset())
	query := `SELECT ` + guestColumns + ` FROM guests` + w.SQL() + ` ORDER BY created_at DESC, id` + limitClause

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, wrap(err, "query guests")
	}
	defer rows.Close()

	guests := make([]*domain.Guest, 0, page.Limit)
	for rows.Next() {
		guest, err := scanGuest(rows)
		if err != nil {
			return nil, 0, wrap(err, "scan guest row")
		}
		guests = append(guests, guest)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrap(err, "iterate guest rows")
	}

	return guests, total, nil
}

func scanGuest(row pgx.Row) (*domain.Guest, error) {
	guest := &domain.Guest{}
	err := row.Scan(
		&guest.ID,
		&guest.UserID,
		&guest.EventID,
		&guest.FirstName,
		&guest.LastName,
		&guest.Email,
		&guest.Phone,
		&guest.Status,
		&guest.ConfirmedAt,
		&guest.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return guest, nil
}
