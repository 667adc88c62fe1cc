package schedule

import "time"

const (
	SessionStatusScheduled = "scheduled"
	SessionStatusCancelled = "cancelled"
)

type ClassType struct {
	ID                      int       `db:"id" json:"id"`
	Name                    string    `db:"name" json:"name"`
	CancellationCutoffHours *int      `db:"cancellation_cutoff_hours" json:"cancellation_cutoff_hours,omitempty"`
	CreatedAt               time.Time `db:"created_at" json:"created_at"`
}

type Instructor struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Session struct {
	ID                 int        `db:"id" json:"id"`
	ClassTypeID        int        `db:"class_type_id" json:"class_type_id"`
	InstructorID       int        `db:"instructor_id" json:"instructor_id"`
	StartsAt           time.Time  `db:"starts_at" json:"starts_at"`
	EndsAt             time.Time  `db:"ends_at" json:"ends_at"`
	Capacity           int        `db:"capacity" json:"capacity"`
	Location           string     `db:"location" json:"location"`
	Status             string     `db:"status" json:"status"`
	RegistrationOpens  *time.Time `db:"registration_opens" json:"registration_opens,omitempty"`
	RegistrationCloses *time.Time `db:"registration_closes" json:"registration_closes,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
}

type SessionWithDetails struct {
	Session
	ClassTypeName           string `db:"class_type_name" json:"class_type_name"`
	CancellationCutoffHours *int   `db:"cancellation_cutoff_hours" json:"cancellation_cutoff_hours,omitempty"`
	InstructorName          string `db:"instructor_name" json:"instructor_name"`
}

// Ref is the id+name pair embedded in schedule entries for display.
type Ref struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Entry is one session in the schedule response, with its availability
// snapshot. Counts may lag concurrent bookings slightly; the reservation
// path is the enforcement point, this view is advisory.
type Entry struct {
	ID                      int       `json:"id"`
	StartsAt                time.Time `json:"starts_at"`
	EndsAt                  time.Time `json:"ends_at"`
	Location                string    `json:"location"`
	ClassType               Ref       `json:"class_type"`
	Instructor              Ref       `json:"instructor"`
	Capacity                int       `json:"capacity"`
	ConfirmedCount          int       `json:"confirmed_count"`
	RemainingCapacity       int       `json:"remaining_capacity"`
	RegistrationOpen        bool      `json:"registration_open"`
	RegistrationCloseReason string    `json:"registration_close_reason,omitempty"`
}

// Filter narrows the schedule query. Nil fields are ignored.
type Filter struct {
	From         *time.Time
	To           *time.Time
	ClassTypeID  *int
	InstructorID *int
}

type UpdateCapacityRequest struct {
	Capacity int `json:"capacity" binding:"required,min=1" validate:"required,min=1"`
}
