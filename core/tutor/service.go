package tutor

import (
	"context"
	"sort"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/findmytutor/findmytutor/core"
)

var (
	// errors
	ErrNotFound        = errors.New("tutor not found")
	ErrIndexOutOfRange = errors.New("assignment index out of range")
	ErrInvalidSequence = errors.New("assignedTuitions must be a sequence of [label, timestamp] pairs")

	// OrderingFields are the fields List can be sorted by.
	OrderingFields = map[string]bool{
		"name":          true,
		"experience":    true,
		"dateJoined":    true,
		"qualification": true,
		"createdAt":     true,
		"updatedAt":     true,
	}

	byCreatedAt = core.DBOrdering{Field: "createdAt"}
)

type (
	// Repository persists tutors. Implementations must return ErrNotFound for unknown ids,
	// malformed ones included, and stamp UpdatedAt on every write.
	// PushAssignment and SetAssignments must each be a single atomic document update.
	Repository interface {
		CreateTutor(ctx context.Context, t Tutor) (Tutor, error)
		// QueryTutors applies filter and sorts by orderings, in priority order.
		QueryTutors(ctx context.Context, filter QueryFilter, orderings []core.DBOrdering) ([]Tutor, error)
		GetTutor(ctx context.Context, id string) (Tutor, error)
		UpdateTutor(ctx context.Context, id string, p Profile) (Tutor, error)
		DeleteTutor(ctx context.Context, id string) error
		PushAssignment(ctx context.Context, id string, a Assignment) (Tutor, error)
		SetAssignments(ctx context.Context, id string, seq []Assignment) (Tutor, error)
	}

	ServiceInterface interface {
		List(ctx context.Context, filter QueryFilter, orderings []core.DBOrdering) ([]Tutor, error)
		ListAssigned(ctx context.Context) ([]Tutor, error)
		Get(ctx context.Context, id string) (Tutor, error)
		Create(ctx context.Context, nt NewTutor) (Tutor, error)
		Update(ctx context.Context, id string, ut UpdateTutor) (Tutor, error)
		Delete(ctx context.Context, id string) error
		Append(ctx context.Context, id, label string, at time.Time) (Tutor, error)
		BulkReplace(ctx context.Context, id string, seq []Assignment) (Tutor, error)
	}

	Service struct {
		repo Repository
		now  func() time.Time
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
	).CheckAndPanic()
	return &Service{repo: repo, now: time.Now}
}

// List returns the tutors matching filter, newest first unless orderings say otherwise.
// Ties left by orderings are broken by createdAt, newest first.
func (svc *Service) List(ctx context.Context, filter QueryFilter, orderings []core.DBOrdering) ([]Tutor, error) {
	for _, ord := range orderings {
		if !OrderingFields[ord.Field] {
			return nil, core.NewFieldValidationError("ordering", "unknown field: "+ord.Field)
		}
	}
	filter.Clean()
	tutors, err := svc.repo.QueryTutors(ctx, filter, withTiebreak(orderings))
	if err != nil {
		return nil, errors.Wrap(err, "querying tutors")
	}
	return normalizeAll(tutors), nil
}

func withTiebreak(orderings []core.DBOrdering) []core.DBOrdering {
	for _, ord := range orderings {
		if ord.Field == byCreatedAt.Field {
			return orderings
		}
	}
	out := make([]core.DBOrdering, 0, len(orderings)+1)
	return append(append(out, orderings...), byCreatedAt)
}

// ListAssigned returns the tutors holding at least one assignment,
// ordered by the timestamp of their LAST assignment, most recent first.
func (svc *Service) ListAssigned(ctx context.Context) ([]Tutor, error) {
	tutors, err := svc.List(ctx, QueryFilter{}, nil)
	if err != nil {
		return nil, err
	}

	assigned := make([]Tutor, 0, len(tutors))
	for _, t := range tutors {
		if t.HasAssignments() {
			assigned = append(assigned, t)
		}
	}
	sort.SliceStable(assigned, func(i, j int) bool {
		a, _ := assigned[i].LatestAssignment()
		b, _ := assigned[j].LatestAssignment()
		return a.Date.After(b.Date)
	})
	return assigned, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Tutor, error) {
	t, err := svc.repo.GetTutor(ctx, id)
	if err != nil {
		return Tutor{}, errors.Wrap(err, "getting tutor")
	}
	return normalize(t), nil
}

// Create expects nt to be validated.
func (svc *Service) Create(ctx context.Context, nt NewTutor) (Tutor, error) {
	p, err := nt.profile()
	if err != nil {
		return Tutor{}, err
	}
	seq := nt.AssignedTuitions
	if seq == nil {
		seq = []Assignment{}
	}

	now := svc.now().UTC()
	t, err := svc.repo.CreateTutor(ctx, Tutor{
		Name:             p.Name,
		Experience:       p.Experience,
		DateJoined:       p.DateJoined,
		Qualification:    p.Qualification,
		AssignedTuitions: seq,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return Tutor{}, errors.Wrap(err, "creating tutor")
	}
	return normalize(t), nil
}

// Update overwrites the profile fields only; assignedTuitions is left untouched.
func (svc *Service) Update(ctx context.Context, id string, ut UpdateTutor) (Tutor, error) {
	p, err := ut.profile()
	if err != nil {
		return Tutor{}, err
	}
	t, err := svc.repo.UpdateTutor(ctx, id, p)
	if err != nil {
		return Tutor{}, errors.Wrap(err, "updating tutor")
	}
	return normalize(t), nil
}

// Delete does not cascade to anything the tutor referenced.
func (svc *Service) Delete(ctx context.Context, id string) error {
	return errors.Wrap(svc.repo.DeleteTutor(ctx, id), "deleting tutor")
}

// Append adds (label, at) at the end of the tutor's assignments. A zero `at` means now.
// The sequence is never re-sorted.
func (svc *Service) Append(ctx context.Context, id, label string, at time.Time) (Tutor, error) {
	label = core.CleanString(label)
	if label == "" {
		return Tutor{}, core.NewFieldValidationError("tuition", "this field is required")
	}
	if at.IsZero() {
		at = svc.now()
	}
	t, err := svc.repo.PushAssignment(ctx, id, NewAssignment(label, at))
	if err != nil {
		return Tutor{}, errors.Wrap(err, "appending assignment")
	}
	return normalize(t), nil
}

// BulkReplace swaps the whole assignment sequence for seq in one write.
// Concurrent replaces are not merged: the last write wins.
func (svc *Service) BulkReplace(ctx context.Context, id string, seq []Assignment) (Tutor, error) {
	if seq == nil {
		return Tutor{}, core.NewValidationError(ErrInvalidSequence,
			core.FieldError{Field: "assignedTuitions", Error: ErrInvalidSequence.Error()})
	}
	normalized := make([]Assignment, len(seq))
	for i, a := range seq {
		normalized[i] = NewAssignment(a.Label, a.Date)
	}
	t, err := svc.repo.SetAssignments(ctx, id, normalized)
	if err != nil {
		return Tutor{}, errors.Wrap(err, "replacing assignments")
	}
	return normalize(t), nil
}

// Remove drops the assignment at index and rewrites the remainder.
func (svc *Service) Remove(ctx context.Context, id string, index int) (Tutor, error) {
	t, err := svc.Get(ctx, id)
	if err != nil {
		return Tutor{}, err
	}
	rest, err := RemoveAt(t.AssignedTuitions, index)
	if err != nil {
		return Tutor{}, core.NewFieldValidationError("index", err.Error())
	}
	return svc.BulkReplace(ctx, id, rest)
}

func normalize(t Tutor) Tutor {
	if t.AssignedTuitions == nil {
		t.AssignedTuitions = []Assignment{}
	}
	return t
}

func normalizeAll(tutors []Tutor) []Tutor {
	if tutors == nil {
		return []Tutor{}
	}
	for i := range tutors {
		tutors[i] = normalize(tutors[i])
	}
	return tutors
}
