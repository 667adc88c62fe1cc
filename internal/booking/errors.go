package booking

import (
	"errors"
	"time"
)

// Code identifies a business rejection. The set is closed and stable:
// callers key user-facing behavior off it ("full" offers other times,
// "duplicate" is a no-op, "closed" explains the window).
type Code string

const (
	CodeNotFound                 Code = "not_found"
	CodeForbidden                Code = "forbidden"
	CodeRegistrationClosed       Code = "registration_closed"
	CodeCapacityFull             Code = "capacity_full"
	CodeDuplicateBooking         Code = "duplicate_booking"
	CodeCancellationCutoffPassed Code = "cancellation_cutoff_passed"
)

// Error is a business-rule rejection, not a system fault. Details carry
// enough structure for the caller to explain itself without a second query.
type Error struct {
	Code    Code                   `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// AsError unwraps err into a *Error when it is a business rejection.
func AsError(err error) (*Error, bool) {
	var bookingErr *Error
	if errors.As(err, &bookingErr) {
		return bookingErr, true
	}
	return nil, false
}

func errNotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

func errForbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message}
}

func errRegistrationClosed(message string) *Error {
	return &Error{Code: CodeRegistrationClosed, Message: message}
}

func errCapacityFull(capacity int) *Error {
	return &Error{
		Code:    CodeCapacityFull,
		Message: "class is full",
		Details: map[string]interface{}{
			"available": 0,
			"capacity":  capacity,
		},
	}
}

func errDuplicateBooking() *Error {
	return &Error{Code: CodeDuplicateBooking, Message: "you already have a booking for this class"}
}

func errCancellationCutoffPassed(cutoff, now time.Time) *Error {
	return &Error{
		Code:    CodeCancellationCutoffPassed,
		Message: "the cancellation window for this class has passed",
		Details: map[string]interface{}{
			"cutoff_time":  cutoff,
			"current_time": now,
		},
	}
}
