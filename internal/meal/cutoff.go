package meal

import "time"

// CheckSubmission decides whether a write for (m, date) is allowed at now.
// date must already be normalized. Future dates are always open; today is
// open strictly before the meal's cutoff; past dates are closed.
func (s Schedule) CheckSubmission(m Type, date string, now time.Time) error {
	if date == "" {
		return Invalidf("Date is required")
	}
	w, err := s.Window(m)
	if err != nil {
		return err
	}
	now = now.In(s.location())
	today := now.Format(DateLayout)
	if date > today {
		return nil
	}
	if date == today && w.Cutoff.pendingAt(now) {
		return nil
	}
	return &CutoffError{Meal: m, Cutoff: w.Cutoff, Date: date, Now: now}
}

// CheckReport gates the aggregate report on the meal's report threshold.
func (s Schedule) CheckReport(m Type, now time.Time) error {
	w, err := s.Window(m)
	if err != nil {
		return err
	}
	now = now.In(s.location())
	if w.ReportAfter.pendingAt(now) {
		return &TooEarlyError{Meal: m, After: w.ReportAfter, Now: now}
	}
	return nil
}

// CheckFill allows a default-fill for date only once submissions for it
// are closed: past dates, or today from the cutoff on.
func (s Schedule) CheckFill(m Type, date string, now time.Time) error {
	if date == "" {
		return Invalidf("Date is required")
	}
	w, err := s.Window(m)
	if err != nil {
		return err
	}
	now = now.In(s.location())
	today := now.Format(DateLayout)
	if date < today || (date == today && !w.Cutoff.pendingAt(now)) {
		return nil
	}
	return &CutoffPendingError{Meal: m, Cutoff: w.Cutoff, Date: date, Now: now}
}
