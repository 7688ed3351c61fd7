package repository

import (
	"context"
	"time"

	"eventmaster/internal/domain"
	"eventmaster/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const eventColumns = `id, user_id, name, description, location, date, status, created_at, updated_at`

// eventRepository handles event operations with PostgreSQL
type eventRepository struct {
	db *database.PostgresDB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *database.PostgresDB) EventRepository {
	return &eventRepository{db: db}
}

// Create inserts a new event
func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Status == "" {
		event.Status = domain.EventStatusUpcoming
	}

	query := `
		INSERT INTO events (id, user_id, name, description, location, date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		event.ID,
		event.UserID,
		event.Name,
		event.Description,
		event.Location,
		event.Date,
		string(event.Status),
	).Scan(&event.CreatedAt, &event.UpdatedAt)

	return wrap(err, "create event")
}

// GetByIDForUser retrieves an event owned by userID
func (r *eventRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND user_id = $2`

	event, err := scanEvent(r.db.GetReadPool().QueryRow(ctx, query, id, userID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, wrap(err, "get event")
	}
	return event, nil
}

// List retrieves a page of the user's events, soonest first
func (r *eventRepository) List(ctx context.Context, userID string, filter domain.EventFilter) ([]*domain.Event, int, error) {
	w := &whereBuilder{}
	w.Add("user_id = ?", userID)
	addEventStatus(w, filter.Status, time.Now())
	w.Search(filter.Search, "name", "location")

	pool := r.db.GetReadPool()

	var total int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM events`+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, wrap(err, "count events")
	}

	page := filter.Page.Normalize()
	limitClause, args := w.Paginate(page.Limit, page.Offset())
	query := `SELECT ` + eventColumns + ` FROM events` + w.SQL() + ` ORDER BY date ASC, created_at ASC` + limitClause

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, wrap(err, "query events")
	}
	defer rows.Close()

	events := make([]*domain.Event, 0, page.Limit)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, 0, wrap(err, "scan event row")
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrap(err, "iterate event rows")
	}

	return events, total, nil
}

// addEventStatus translates a computed status into date predicates.
// Only cancellation is stored.
func addEventStatus(w *whereBuilder, status domain.EventStatus, now time.Time) {
	ongoingSince := now.Add(-domain.EventOngoingWindow)
	switch status {
	case domain.EventStatusCancelled:
		w.Add("status = ?", string(domain.EventStatusCancelled))
	case domain.EventStatusUpcoming:
		w.Add("status <> ? AND date > ?", string(domain.EventStatusCancelled), now)
	case domain.EventStatusOngoing:
		w.Add("status <> ? AND date <= ? AND date > ?", string(domain.EventStatusCancelled), now, ongoingSince)
	case domain.EventStatusCompleted:
		w.Add("status <> ? AND date <= ?", string(domain.EventStatusCancelled), ongoingSince)
	}
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	event := &domain.Event{}
	err := row.Scan(
		&event.ID,
		&event.UserID,
		&event.Name,
		&event.Description,
		&event.Location,
		&event.Date,
		&event.Status,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return event, nil
}
