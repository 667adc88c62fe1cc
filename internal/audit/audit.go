package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	ActionBookingCreated   = "booking_created"
	ActionBookingCancelled = "booking_cancelled"
	ActionCapacityChanged  = "session_capacity_changed"
)

type Entry struct {
	ID         int             `db:"id" json:"id"`
	ActorID    int             `db:"actor_id" json:"actor_id"`
	Action     string          `db:"action" json:"action"`
	EntityType string          `db:"entity_type" json:"entity_type"`
	EntityID   int             `db:"entity_id" json:"entity_id"`
	Details    json.RawMessage `db:"details" json:"details"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

type Repository interface {
	InsertTx(ctx context.Context, tx *sqlx.Tx, actorID int, action, entityType string, entityID int, details interface{}) error
}

type repository struct{}

func NewRepository() Repository {
	return &repository{}
}

// InsertTx appends an entry inside the caller's transaction so audit and
// state commit or abort together.
func (r *repository) InsertTx(ctx context.Context, tx *sqlx.Tx, actorID int, action, entityType string, entityID int, details interface{}) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO audit_log (actor_id, action, entity_type, entity_id, details)
		 VALUES ($1, $2, $3, $4, $5)`,
		actorID, action, entityType, entityID, payload,
	)
	return err
}
