package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/adamswbrown/gymproject-sub000/internal/audit"
	"github.com/adamswbrown/gymproject-sub000/internal/clock"
	"github.com/adamswbrown/gymproject-sub000/internal/db"

	"github.com/jmoiron/sqlx"
)

var ErrSessionNotFound = errors.New("session not found")

// CapacityBelowConfirmedError rejects a capacity reduction that would leave
// more confirmed bookings than seats.
type CapacityBelowConfirmedError struct {
	Confirmed int
	Requested int
}

func (e *CapacityBelowConfirmedError) Error() string {
	return fmt.Sprintf("capacity %d is below %d confirmed bookings", e.Requested, e.Confirmed)
}

// CapacityCounter answers confirmed-booking counts. The batch form must be
// a single round-trip; ids with no confirmed bookings are absent from the
// result and count as zero.
type CapacityCounter interface {
	CountConfirmedTx(ctx context.Context, tx *sqlx.Tx, sessionID int) (int, error)
	CountConfirmedBatch(ctx context.Context, sessionIDs []int) (map[int]int, error)
}

type Service interface {
	GetSchedule(ctx context.Context, f Filter) ([]Entry, error)
	UpdateSessionCapacity(ctx context.Context, actorID, sessionID, capacity int) (*Session, error)
}

type service struct {
	db          *sqlx.DB
	sessionRepo Repository
	counter     CapacityCounter
	auditRepo   audit.Repository
	clk         clock.Clock
}

func NewService(database *sqlx.DB, sessionRepo Repository, counter CapacityCounter, auditRepo audit.Repository, clk clock.Clock) Service {
	return &service{
		db:          database,
		sessionRepo: sessionRepo,
		counter:     counter,
		auditRepo:   auditRepo,
		clk:         clk,
	}
}

// GetSchedule fetches matching sessions in one query and their confirmed
// counts in one batched query, regardless of how many sessions are in the
// window. The read is deliberately non-transactional.
func (s *service) GetSchedule(ctx context.Context, f Filter) ([]Entry, error) {
	sessions, err := s.sessionRepo.ListSessions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	counts := map[int]int{}
	if len(sessions) > 0 {
		ids := make([]int, 0, len(sessions))
		for _, sess := range sessions {
			ids = append(ids, sess.ID)
		}

		counts, err = s.counter.CountConfirmedBatch(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to count confirmed bookings: %w", err)
		}
	}

	now := s.clk.Now()
	entries := make([]Entry, 0, len(sessions))
	for _, sess := range sessions {
		confirmed := counts[sess.ID]
		remaining := sess.Capacity - confirmed
		if remaining < 0 {
			remaining = 0
		}

		open, reason := registrationState(&sess.Session, now)

		entries = append(entries, Entry{
			ID:                      sess.ID,
			StartsAt:                sess.StartsAt,
			EndsAt:                  sess.EndsAt,
			Location:                sess.Location,
			ClassType:               Ref{ID: sess.ClassTypeID, Name: sess.ClassTypeName},
			Instructor:              Ref{ID: sess.InstructorID, Name: sess.InstructorName},
			Capacity:                sess.Capacity,
			ConfirmedCount:          confirmed,
			RemainingCapacity:       remaining,
			RegistrationOpen:        open,
			RegistrationCloseReason: reason,
		})
	}

	return entries, nil
}

// UpdateSessionCapacity changes a session's capacity under the same row
// lock the reservation path takes, so the capacity can never drop below
// the number of currently confirmed bookings.
func (s *service) UpdateSessionCapacity(ctx context.Context, actorID, sessionID, capacity int) (*Session, error) {
	var updated *Session

	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		sess, err := s.sessionRepo.GetSessionForUpdateTx(ctx, tx, sessionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrSessionNotFound
			}
			return err
		}

		confirmed, err := s.counter.CountConfirmedTx(ctx, tx, sessionID)
		if err != nil {
			return err
		}

		if capacity < confirmed {
			return &CapacityBelowConfirmedError{Confirmed: confirmed, Requested: capacity}
		}

		updated, err = s.sessionRepo.UpdateCapacityTx(ctx, tx, sessionID, capacity)
		if err != nil {
			return err
		}

		return s.auditRepo.InsertTx(ctx, tx, actorID, audit.ActionCapacityChanged, "session", sessionID, map[string]interface{}{
			"old_capacity": sess.Capacity,
			"new_capacity": capacity,
		})
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// registrationState applies the same window rule the reservation path
// enforces, so the schedule view and the engine never disagree on whether
// a session is open.
func registrationState(s *Session, now time.Time) (bool, string) {
	if s.Status != SessionStatusScheduled {
		return false, "class has been cancelled"
	}
	if s.RegistrationOpens != nil && now.Before(*s.RegistrationOpens) {
		return false, "registration not yet open"
	}
	if s.RegistrationCloses != nil && now.After(*s.RegistrationCloses) {
		return false, "registration closed"
	}
	return true, ""
}
