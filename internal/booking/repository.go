package booking

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const bookingColumns = `id, session_id, user_id, status, booked_at, cancelled_at`

func (r *repository) CountConfirmedTx(ctx context.Context, tx *sqlx.Tx, sessionID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE session_id = $1 AND status = 'confirmed'
	`

	var count int
	err := tx.GetContext(ctx, &count, query, sessionID)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// CountConfirmedBatch counts confirmed bookings for all the given sessions
// in one grouped query. Sessions with no confirmed bookings are absent from
// the result; callers treat absence as zero.
func (r *repository) CountConfirmedBatch(ctx context.Context, sessionIDs []int) (map[int]int, error) {
	counts := make(map[int]int, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT session_id, COUNT(*) AS confirmed
		FROM bookings
		WHERE status = 'confirmed' AND session_id = ANY($1)
		GROUP BY session_id
	`

	rows, err := r.db.QueryxContext(ctx, query, pq.Array(sessionIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var sessionID, confirmed int
		if err := rows.Scan(&sessionID, &confirmed); err != nil {
			return nil, err
		}
		counts[sessionID] = confirmed
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

func (r *repository) GetByPairTx(ctx context.Context, tx *sqlx.Tx, sessionID, userID int) (*Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE session_id = $1 AND user_id = $2
	`

	var booking Booking
	err := tx.GetContext(ctx, &booking, query, sessionID, userID)
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

func (r *repository) InsertTx(ctx context.Context, tx *sqlx.Tx, sessionID, userID int, now time.Time) (*Booking, error) {
	query := `
		INSERT INTO bookings (session_id, user_id, status, booked_at)
		VALUES ($1, $2, 'confirmed', $3)
		RETURNING ` + bookingColumns + `
	`

	var booking Booking
	err := tx.GetContext(ctx, &booking, query, sessionID, userID, now)
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

// ReactivateTx flips a cancelled row back to confirmed, resetting booked_at
// and clearing cancelled_at. The row is reused; no second row is created.
func (r *repository) ReactivateTx(ctx context.Context, tx *sqlx.Tx, bookingID int, now time.Time) (*Booking, error) {
	query := `
		UPDATE bookings
		SET status = 'confirmed', booked_at = $2, cancelled_at = NULL
		WHERE id = $1
		RETURNING ` + bookingColumns + `
	`

	var booking Booking
	err := tx.GetContext(ctx, &booking, query, bookingID, now)
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

func (r *repository) CancelTx(ctx context.Context, tx *sqlx.Tx, bookingID int, now time.Time) (*Booking, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', cancelled_at = $2
		WHERE id = $1
		RETURNING ` + bookingColumns + `
	`

	var booking Booking
	err := tx.GetContext(ctx, &booking, query, bookingID, now)
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

const bookingDetailQuery = `
	SELECT
		b.id, b.session_id, b.user_id, b.status, b.booked_at, b.cancelled_at,
		s.starts_at AS session_starts_at,
		s.ends_at AS session_ends_at,
		s.location,
		ct.name AS class_type_name,
		ct.cancellation_cutoff_hours,
		i.name AS instructor_name
	FROM bookings b
	JOIN sessions s ON b.session_id = s.id
	JOIN class_types ct ON s.class_type_id = ct.id
	JOIN instructors i ON s.instructor_id = i.id
`

func (r *repository) GetWithDetailsTx(ctx context.Context, tx *sqlx.Tx, bookingID int) (*BookingWithDetails, error) {
	query := bookingDetailQuery + ` WHERE b.id = $1`

	var booking BookingWithDetails
	err := tx.GetContext(ctx, &booking, query, bookingID)
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

func (r *repository) GetUserBookings(ctx context.Context, userID int) ([]BookingWithDetails, error) {
	query := bookingDetailQuery + ` WHERE b.user_id = $1 ORDER BY s.starts_at DESC`

	var bookings []BookingWithDetails
	err := r.db.SelectContext(ctx, &bookings, query, userID)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}
