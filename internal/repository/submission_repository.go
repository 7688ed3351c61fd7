package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"eventmaster/internal/domain"
	"eventmaster/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// submissionRepository handles form submission operations with PostgreSQL
type submissionRepository struct {
	db *database.PostgresDB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *database.PostgresDB) SubmissionRepository {
	return &submissionRepository{db: db}
}

// Commit records the submission and its guest atomically
func (r *submissionRepository) Commit(ctx context.Context, sub *domain.FormSubmission, guest *domain.Guest) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}

	data, err := json.Marshal(sub.Data)
	if err != nil {
		return fmt.Errorf("failed to encode submission data: %w", err)
	}

	// Begin and commit failures come back from WithTx unclassified
	err = r.db.WithTx(ctx, func(tx pgx.Tx) error {
		sub.Status = domain.SubmissionStatusPending
		err := tx.QueryRow(ctx, `
			INSERT INTO form_submissions (id, form_id, data, ip_address, user_agent, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at
		`, sub.ID, sub.FormID, data, sub.IPAddress, sub.UserAgent, string(sub.Status)).Scan(&sub.CreatedAt)
		if err != nil {
			return wrap(err, "create form submission")
		}

		if err := insertGuest(ctx, tx, guest); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE form_submissions SET guest_id = $2, status = $3 WHERE id = $1
		`, sub.ID, guest.ID, string(domain.SubmissionStatusProcessed))
		if err != nil {
			return wrap(err, "link form submission")
		}

		tag, err := tx.Exec(ctx, `
			UPDATE public_forms
			SET current_submissions = current_submissions + 1, updated_at = now()
			WHERE id = $1 AND (max_submissions IS NULL OR current_submissions < max_submissions)
		`, sub.FormID)
		if err != nil {
			return wrap(err, "increment form submissions")
		}
		if tag.RowsAffected() == 0 {
			return ErrFormFull
		}

		sub.Status = domain.SubmissionStatusProcessed
		sub.GuestID = &guest.ID
		return nil
	})
	return wrap(err, "commit form submission")
}

// ListByForm retrieves a page of a form's submissions, newest first
func (r *submissionRepository) ListByForm(ctx context.Context, formID string, page domain.Page) ([]*domain.FormSubmission, int, error) {
	pool := r.db.GetReadPool()

	var total int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM form_submissions WHERE form_id = $1`, formID).Scan(&total); err != nil {
		return nil, 0, wrap(err, "count form submissions")
	}

	page = page.Normalize()
	rows, err := pool.Query(ctx, `
		SELECT id, form_id, data, ip_address, user_agent, status, guest_id, created_at
		FROM form_submissions
		WHERE form_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, formID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, wrap(err, "query form submissions")
	}
	defer rows.Close()

	subs := make([]*domain.FormSubmission, 0, page.Limit)
	for rows.Next() {
		var (
			sub  domain.FormSubmission
			data []byte
		)
		if err := rows.Scan(&sub.ID, &sub.FormID, &data, &sub.IPAddress, &sub.UserAgent, &sub.Status, &sub.GuestID, &sub.CreatedAt); err != nil {
			return nil, 0, wrap(err, "scan form submission row")
		}
		if err := json.Unmarshal(data, &sub.Data); err != nil {
			return nil, 0, fmt.Errorf("decode submission data: %w", err)
		}
		subs = append(subs, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrap(err, "iterate form submission rows")
	}

	return subs, total, nil
}
