package schedule

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	ListSessions(ctx context.Context, f Filter) ([]SessionWithDetails, error)
	GetSessionByID(ctx context.Context, id int) (*SessionWithDetails, error)
	GetSessionForUpdateTx(ctx context.Context, tx *sqlx.Tx, id int) (*Session, error)
	UpdateCapacityTx(ctx context.Context, tx *sqlx.Tx, sessionID, capacity int) (*Session, error)
}
