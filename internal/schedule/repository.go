package schedule

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const sessionDetailColumns = `
	s.id, s.class_type_id, s.instructor_id, s.starts_at, s.ends_at,
	s.capacity, s.location, s.status, s.registration_opens, s.registration_closes, s.created_at,
	ct.name AS class_type_name,
	ct.cancellation_cutoff_hours,
	i.name AS instructor_name`

// ListSessions returns SCHEDULED sessions matching the filter in one query,
// joined with class type and instructor for display. Ordered by start time.
func (r *repository) ListSessions(ctx context.Context, f Filter) ([]SessionWithDetails, error) {
	query := `
		SELECT ` + sessionDetailColumns + `
		FROM sessions s
		JOIN class_types ct ON s.class_type_id = ct.id
		JOIN instructors i ON s.instructor_id = i.id
		WHERE s.status = 'scheduled'
	`
	args := []interface{}{}

	if f.From != nil {
		args = append(args, *f.From)
		query += fmt.Sprintf(" AND s.starts_at >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += fmt.Sprintf(" AND s.starts_at <= $%d", len(args))
	}
	if f.ClassTypeID != nil {
		args = append(args, *f.ClassTypeID)
		query += fmt.Sprintf(" AND s.class_type_id = $%d", len(args))
	}
	if f.InstructorID != nil {
		args = append(args, *f.InstructorID)
		query += fmt.Sprintf(" AND s.instructor_id = $%d", len(args))
	}

	query += " ORDER BY s.starts_at ASC"

	var sessions []SessionWithDetails
	err := r.db.SelectContext(ctx, &sessions, query, args...)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *repository) GetSessionByID(ctx context.Context, id int) (*SessionWithDetails, error) {
	query := `
		SELECT ` + sessionDetailColumns + `
		FROM sessions s
		JOIN class_types ct ON s.class_type_id = ct.id
		JOIN instructors i ON s.instructor_id = i.id
		WHERE s.id = $1
	`

	var session SessionWithDetails
	err := r.db.GetContext(ctx, &session, query, id)
	if err != nil {
		return nil, err
	}

	return &session, nil
}

// GetSessionForUpdateTx locks the session row for the remainder of the
// caller's transaction. Concurrent reservations against the same session
// serialize on this lock; different sessions never contend.
func (r *repository) GetSessionForUpdateTx(ctx context.Context, tx *sqlx.Tx, id int) (*Session, error) {
	query := `
		SELECT id, class_type_id, instructor_id, starts_at, ends_at,
		       capacity, location, status, registration_opens, registration_closes, created_at
		FROM sessions
		WHERE id = $1
		FOR UPDATE
	`

	var session Session
	err := tx.GetContext(ctx, &session, query, id)
	if err != nil {
		return nil, err
	}

	return &session, nil
}

func (r *repository) UpdateCapacityTx(ctx context.Context, tx *sqlx.Tx, sessionID, capacity int) (*Session, error) {
	query := `
		UPDATE sessions
		SET capacity = $2
		WHERE id = $1
		RETURNING id, class_type_id, instructor_id, starts_at, ends_at,
		          capacity, location, status, registration_opens, registration_closes, created_at
	`

	var session Session
	err := tx.GetContext(ctx, &session, query, sessionID, capacity)
	if err != nil {
		return nil, err
	}

	return &session, nil
}
