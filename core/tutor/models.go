package tutor

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/findmytutor/findmytutor/core"
)

var errInvalidPair = errors.New("assignment must be a [label, timestamp] pair")

type Tutor struct {
	ID               string       `json:"_id"`
	Name             string       `json:"name"`
	Experience       int          `json:"experience"`
	DateJoined       time.Time    `json:"dateJoined"` // UTC midnight
	Qualification    string       `json:"qualification"`
	AssignedTuitions []Assignment `json:"assignedTuitions"`
	CreatedAt        time.Time    `json:"createdAt"` // UTC
	UpdatedAt        time.Time    `json:"updatedAt"` // UTC
}

// LatestAssignment returns the LAST element of the assignment sequence.
// The sequence is append-only, so position, not timestamp, defines "latest".
func (t Tutor) LatestAssignment() (Assignment, bool) {
	if n := len(t.AssignedTuitions); n > 0 {
		return t.AssignedTuitions[n-1], true
	}
	return Assignment{}, false
}

func (t Tutor) HasAssignments() bool {
	return len(t.AssignedTuitions) > 0
}

// Profile holds the tutor fields editable through Update.
type Profile struct {
	Name          string
	Experience    int
	DateJoined    time.Time
	Qualification string
}

// Assignment is one (label, timestamp) pair.
// It is encoded as a two-element array: ["label", "2024-01-15T10:00:00.000Z"].
type Assignment struct {
	Label string
	Date  time.Time
}

func NewAssignment(label string, date time.Time) Assignment {
	return Assignment{Label: label, Date: date.UTC()}
}

func (a Assignment) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{a.Label, core.FormatISO(a.Date)})
}

func (a *Assignment) UnmarshalJSON(data []byte) error {
	var pair []interface{}
	if err := json.Unmarshal(data, &pair); err != nil || len(pair) != 2 {
		return errInvalidPair
	}
	label, ok := pair[0].(string)
	if !ok {
		return errInvalidPair
	}
	ts, ok := pair[1].(string)
	if !ok {
		return errInvalidPair
	}
	date, err := core.ParseTimestamp(ts)
	if err != nil {
		return errors.Wrap(errInvalidPair, err.Error())
	}
	a.Label = label
	a.Date = date
	return nil
}

// RemoveAt returns a copy of seq without the element at index.
// Removal is done by rewriting the remainder with Service.BulkReplace.
func RemoveAt(seq []Assignment, index int) ([]Assignment, error) {
	if index < 0 || index >= len(seq) {
		return nil, ErrIndexOutOfRange
	}
	rest := make([]Assignment, 0, len(seq)-1)
	rest = append(rest, seq[:index]...)
	return append(rest, seq[index+1:]...), nil
}

type (
	NewTutor struct {
		Name             string       `json:"name" validate:"required,notblank"`
		Experience       json.Number  `json:"experience" validate:"required"`
		DateJoined       string       `json:"dateJoined" validate:"required,date"`
		Qualification    string       `json:"qualification" validate:"required,notblank"`
		AssignedTuitions []Assignment `json:"assignedTuitions"`
	}

	UpdateTutor struct {
		Name          string      `json:"name" validate:"required,notblank"`
		Experience    json.Number `json:"experience" validate:"required"`
		DateJoined    string      `json:"dateJoined" validate:"required,date"`
		Qualification string      `json:"qualification" validate:"required,notblank"`
	}

	NewAssignmentRequest struct {
		TutorID string `json:"tutorId" validate:"required"`
		Tuition string `json:"tuition" validate:"required,notblank"`
		Date    string `json:"date" validate:"omitempty,timestamp"`
	}

	ReplaceAssignments struct {
		ID               string        `json:"id" validate:"required"`
		AssignedTuitions *[]Assignment `json:"assignedTuitions" validate:"required"`
	}

	QueryFilter struct {
		Search string
	}
)

func (nt NewTutor) profile() (Profile, error) {
	return toProfile(nt.Name, nt.Experience, nt.DateJoined, nt.Qualification)
}

func (ut UpdateTutor) profile() (Profile, error) {
	return toProfile(ut.Name, ut.Experience, ut.DateJoined, ut.Qualification)
}

func toProfile(name string, experience json.Number, dateJoined, qualification string) (Profile, error) {
	years, err := parseExperience(experience)
	if err != nil {
		return Profile{}, err
	}
	joined, err := core.ParseDate(dateJoined)
	if err != nil {
		return Profile{}, core.NewFieldValidationError("dateJoined", dateJoinedText)
	}
	return Profile{
		Name:          name,
		Experience:    years,
		DateJoined:    joined,
		Qualification: qualification,
	}, nil
}

func parseExperience(n json.Number) (int, error) {
	years, err := n.Int64()
	if err != nil || years < 0 {
		return 0, core.NewFieldValidationError("experience", experienceText)
	}
	return int(years), nil
}

func jsonNumber(s string) json.Number {
	return json.Number(core.CleanString(s))
}

// Timestamp returns the requested assignment time; zero means "now".
func (na NewAssignmentRequest) Timestamp() time.Time {
	if na.Date == "" {
		return time.Time{}
	}
	t, _ := core.ParseTimestamp(na.Date)
	return t
}

func (f *QueryFilter) Clean() {
	f.Search = core.CleanString(f.Search)
}

// Matches does a case-insensitive substring match on Name or Qualification.
func (f QueryFilter) Matches(t Tutor) bool {
	if f.Search == "" {
		return true
	}
	term := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(t.Name), term) ||
		strings.Contains(strings.ToLower(t.Qualification), term)
}
