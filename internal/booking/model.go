package booking

import "time"

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Booking is one member's claim on a seat. Exactly one row exists per
// (session_id, user_id) pair; cancel/reserve cycles flip the status on the
// same row instead of appending new ones.
type Booking struct {
	ID          int        `db:"id" json:"id"`
	SessionID   int        `db:"session_id" json:"session_id"`
	UserID      int        `db:"user_id" json:"user_id"`
	Status      string     `db:"status" json:"status"`
	BookedAt    time.Time  `db:"booked_at" json:"booked_at"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

type BookingWithDetails struct {
	Booking
	SessionStartsAt         time.Time `db:"session_starts_at" json:"session_starts_at"`
	SessionEndsAt           time.Time `db:"session_ends_at" json:"session_ends_at"`
	Location                string    `db:"location" json:"location"`
	ClassTypeName           string    `db:"class_type_name" json:"class_type_name"`
	CancellationCutoffHours *int      `db:"cancellation_cutoff_hours" json:"cancellation_cutoff_hours,omitempty"`
	InstructorName          string    `db:"instructor_name" json:"instructor_name"`
}
