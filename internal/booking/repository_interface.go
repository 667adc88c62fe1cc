package booking

import (
	"context"
	"time"

	"github.com/adamswbrown/gymproject-sub000/internal/schedule"

	"github.com/jmoiron/sqlx"
)

// Repository persists bookings. Methods with a Tx suffix run inside the
// caller's transaction so counts and writes share one isolation scope.
type Repository interface {
	CountConfirmedTx(ctx context.Context, tx *sqlx.Tx, sessionID int) (int, error)
	CountConfirmedBatch(ctx context.Context, sessionIDs []int) (map[int]int, error)
	GetByPairTx(ctx context.Context, tx *sqlx.Tx, sessionID, userID int) (*Booking, error)
	InsertTx(ctx context.Context, tx *sqlx.Tx, sessionID, userID int, now time.Time) (*Booking, error)
	ReactivateTx(ctx context.Context, tx *sqlx.Tx, bookingID int, now time.Time) (*Booking, error)
	CancelTx(ctx context.Context, tx *sqlx.Tx, bookingID int, now time.Time) (*Booking, error)
	GetWithDetailsTx(ctx context.Context, tx *sqlx.Tx, bookingID int) (*BookingWithDetails, error)
	GetUserBookings(ctx context.Context, userID int) ([]BookingWithDetails, error)
}

// SessionStore is the slice of the session read store the engine needs:
// a locked session row to serialize admission against.
type SessionStore interface {
	GetSessionForUpdateTx(ctx context.Context, tx *sqlx.Tx, id int) (*schedule.Session, error)
}
