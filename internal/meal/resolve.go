package meal

import "strings"

// Status is the effective attendance for a user on a date.
type Status string

const (
	Yes        Status = "Yes"
	No         Status = "No"
	NoResponse Status = "no response"
)

// Stored submission values.
const (
	SubmitYes = "yes"
	SubmitNo  = "no"
)

// ValidateSubmission accepts only the two stored status values.
func ValidateSubmission(status string) error {
	if status != SubmitYes && status != SubmitNo {
		return Invalidf("Status must be 'yes' or 'no'")
	}
	return nil
}

// DefaultPolicy is the status reported when no record exists.
type DefaultPolicy struct {
	Name    string
	Missing Status
}

var (
	// AssumeAttending is used for catering reports: silence counts as Yes.
	AssumeAttending = DefaultPolicy{Name: "assume-attending", Missing: Yes}
	// Unanswered is used when a user looks up their own record.
	Unanswered = DefaultPolicy{Name: "unanswered", Missing: NoResponse}
)

// Resolve maps zero-or-one stored status to an effective status. Anything
// other than a case-insensitive "no" resolves to Yes.
func (p DefaultPolicy) Resolve(stored string, found bool) Status {
	if !found {
		return p.Missing
	}
	if strings.EqualFold(stored, SubmitNo) {
		return No
	}
	return Yes
}
