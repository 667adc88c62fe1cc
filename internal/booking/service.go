package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/adamswbrown/gymproject-sub000/internal/audit"
	"github.com/adamswbrown/gymproject-sub000/internal/clock"
	"github.com/adamswbrown/gymproject-sub000/internal/db"
	"github.com/adamswbrown/gymproject-sub000/internal/schedule"

	"github.com/jmoiron/sqlx"
)

// Service is the sole authority for creating and cancelling bookings.
// Every invariant check and write within one call shares one transaction;
// admission is first-committed-wins.
type Service interface {
	Reserve(ctx context.Context, userID, sessionID int) (*BookingWithDetails, error)
	Cancel(ctx context.Context, userID, bookingID int) (*BookingWithDetails, error)
	ListUserBookings(ctx context.Context, userID int) ([]BookingWithDetails, error)
}

type service struct {
	db          *sqlx.DB
	bookingRepo Repository
	sessions    SessionStore
	auditRepo   audit.Repository
	clk         clock.Clock
}

func NewService(database *sqlx.DB, bookingRepo Repository, sessions SessionStore, auditRepo audit.Repository, clk clock.Clock) Service {
	return &service{
		db:          database,
		bookingRepo: bookingRepo,
		sessions:    sessions,
		auditRepo:   auditRepo,
		clk:         clk,
	}
}

// Reserve books a seat for userID in sessionID, or re-activates the user's
// cancelled booking. The session row is locked first, so the capacity count
// and the insert/update cannot interleave with a concurrent reserve on the
// same session: the loser of the lock re-reads a count that already
// includes the winner.
func (s *service) Reserve(ctx context.Context, userID, sessionID int) (*BookingWithDetails, error) {
	var result *BookingWithDetails

	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		sess, err := s.sessions.GetSessionForUpdateTx(ctx, tx, sessionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errNotFound("session not found")
			}
			return err
		}

		now := s.clk.Now()
		if sess.Status != schedule.SessionStatusScheduled {
			return errRegistrationClosed("class has been cancelled")
		}
		if sess.RegistrationOpens != nil && now.Before(*sess.RegistrationOpens) {
			return errRegistrationClosed("registration not yet open")
		}
		if sess.RegistrationCloses != nil && now.After(*sess.RegistrationCloses) {
			return errRegistrationClosed("registration closed")
		}

		confirmed, err := s.bookingRepo.CountConfirmedTx(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if confirmed >= sess.Capacity {
			return errCapacityFull(sess.Capacity)
		}

		var booking *Booking
		existing, err := s.bookingRepo.GetByPairTx(ctx, tx, sessionID, userID)
		switch {
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return err
		case err == nil && existing.Status == StatusConfirmed:
			return errDuplicateBooking()
		case err == nil:
			booking, err = s.bookingRepo.ReactivateTx(ctx, tx, existing.ID, now)
		default:
			booking, err = s.bookingRepo.InsertTx(ctx, tx, sessionID, userID, now)
		}
		if err != nil {
			return err
		}

		err = s.auditRepo.InsertTx(ctx, tx, userID, audit.ActionBookingCreated, "booking", booking.ID, map[string]interface{}{
			"session_id": sessionID,
		})
		if err != nil {
			return err
		}

		result, err = s.bookingRepo.GetWithDetailsTx(ctx, tx, booking.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Cancel cancels the user's booking. Cancelling an already-cancelled
// booking is a successful no-op, so retried requests are always safe.
func (s *service) Cancel(ctx context.Context, userID, bookingID int) (*BookingWithDetails, error) {
	var result *BookingWithDetails

	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		booking, err := s.bookingRepo.GetWithDetailsTx(ctx, tx, bookingID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errNotFound("booking not found")
			}
			return err
		}

		if booking.UserID != userID {
			return errForbidden("you can only cancel your own bookings")
		}

		if booking.Status == StatusCancelled {
			result = booking
			return nil
		}

		now := s.clk.Now()
		if booking.CancellationCutoffHours != nil {
			cutoff := booking.SessionStartsAt.Add(-time.Duration(*booking.CancellationCutoffHours) * time.Hour)
			if now.After(cutoff) {
				return errCancellationCutoffPassed(cutoff, now)
			}
		}

		cancelled, err := s.bookingRepo.CancelTx(ctx, tx, bookingID, now)
		if err != nil {
			return err
		}

		err = s.auditRepo.InsertTx(ctx, tx, userID, audit.ActionBookingCancelled, "booking", bookingID, map[string]interface{}{
			"session_id": booking.SessionID,
		})
		if err != nil {
			return err
		}

		booking.Status = cancelled.Status
		booking.CancelledAt = cancelled.CancelledAt
		result = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *service) ListUserBookings(ctx context.Context, userID int) ([]BookingWithDetails, error) {
	return s.bookingRepo.GetUserBookings(ctx, userID)
}
