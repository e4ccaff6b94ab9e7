package meal

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrCutoffExceeded      = errors.New("submission cutoff exceeded")
	ErrTooEarly            = errors.New("report not yet available")
	ErrDuplicateSubmission = errors.New("attendance already submitted")
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
)

// ValidationError reports a missing or malformed required field.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalidf builds a ValidationError.
func Invalidf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// CutoffError rejects a submission for a date whose window has closed.
type CutoffError struct {
	Meal   Type
	Cutoff TimeOfDay
	Date   string
	Now    time.Time
}

func (e *CutoffError) Error() string {
	if e.Date != "" && e.Date < e.Now.Format(DateLayout) {
		return fmt.Sprintf("%s attendance closed for %s.", e.Meal.Title(), e.Date)
	}
	return fmt.Sprintf("%s attendance closed for today. Must be submitted before %s.", e.Meal.Title(), e.Cutoff.Kitchen())
}

func (e *CutoffError) Is(target error) bool { return target == ErrCutoffExceeded }

// DuplicateError reports an existing record for (meal, user, date).
type DuplicateError struct {
	Meal   Type
	UserID string
	Date   string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("You already submitted %s attendance for this date.", e.Meal)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicateSubmission }

// TooEarlyError withholds a report until its threshold.
type TooEarlyError struct {
	Meal  Type
	After TimeOfDay
	Now   time.Time
}

func (e *TooEarlyError) Error() string {
	return fmt.Sprintf("%s report available after %s (%s).", e.Meal.Title(), e.After.Kitchen(), e.Now.Format("MST"))
}

func (e *TooEarlyError) Is(target error) bool { return target == ErrTooEarly }

// CutoffPendingError rejects a default-fill for a date whose submission
// window is still open.
type CutoffPendingError struct {
	Meal   Type
	Cutoff TimeOfDay
	Date   string
	Now    time.Time
}

func (e *CutoffPendingError) Error() string {
	if e.Date == e.Now.Format(DateLayout) {
		return fmt.Sprintf("%s attendance for %s is open until %s.", e.Meal.Title(), e.Date, e.Cutoff.Kitchen())
	}
	return fmt.Sprintf("%s attendance for %s is still open.", e.Meal.Title(), e.Date)
}

func (e *CutoffPendingError) Is(target error) bool { return target == ErrTooEarly }

// ServerTime extracts the time a timing error was evaluated at.
func ServerTime(err error) (time.Time, bool) {
	var ce *CutoffError
	if errors.As(err, &ce) {
		return ce.Now, true
	}
	var te *TooEarlyError
	if errors.As(err, &te) {
		return te.Now, true
	}
	var pe *CutoffPendingError
	if errors.As(err, &pe) {
		return pe.Now, true
	}
	return time.Time{}, false
}
