package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/findmytutor/findmytutor/core"
	"github.com/findmytutor/findmytutor/core/tutor"
)

type tutorRepository struct {
	db  *tutorTable
	now func() time.Time
}

func NewTutorRepository(db *DB) tutor.Repository {
	return &tutorRepository{db: db.tutor, now: time.Now}
}

func copyTutor(t tutor.Tutor) tutor.Tutor {
	seq := make([]tutor.Assignment, len(t.AssignedTuitions))
	copy(seq, t.AssignedTuitions)
	t.AssignedTuitions = seq
	return t
}

func (repo *tutorRepository) CreateTutor(_ context.Context, t tutor.Tutor) (tutor.Tutor, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.seq++
	t.ID = primitive.NewObjectID().Hex()
	repo.db.table[t.ID] = &tutorRow{seq: repo.db.seq, tutor: copyTutor(t)}
	return copyTutor(t), nil
}

func (repo *tutorRepository) QueryTutors(_ context.Context, filter tutor.QueryFilter, orderings []core.DBOrdering) ([]tutor.Tutor, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rows := make([]*tutorRow, 0, len(repo.db.table))
	for _, row := range repo.db.table {
		if filter.Matches(row.tutor) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		for _, ord := range orderings {
			c := compareField(rows[i].tutor, rows[j].tutor, ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return rows[i].seq > rows[j].seq
	})

	tutors := make([]tutor.Tutor, 0, len(rows))
	for _, row := range rows {
		tutors = append(tutors, copyTutor(row.tutor))
	}
	return tutors, nil
}

func compareField(a, b tutor.Tutor, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "qualification":
		return strings.Compare(a.Qualification, b.Qualification)
	case "experience":
		return a.Experience - b.Experience
	case "dateJoined":
		return compareTime(a.DateJoined, b.DateJoined)
	case "createdAt":
		return compareTime(a.CreatedAt, b.CreatedAt)
	case "updatedAt":
		return compareTime(a.UpdatedAt, b.UpdatedAt)
	}
	return 0
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func (repo *tutorRepository) GetTutor(_ context.Context, id string) (tutor.Tutor, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if row, ok := repo.db.table[id]; ok {
		return copyTutor(row.tutor), nil
	}
	return tutor.Tutor{}, tutor.ErrNotFound
}

func (repo *tutorRepository) UpdateTutor(_ context.Context, id string, p tutor.Profile) (tutor.Tutor, error) {
	return repo.update(id, func(t *tutor.Tutor) {
		t.Name = p.Name
		t.Experience = p.Experience
		t.DateJoined = p.DateJoined
		t.Qualification = p.Qualification
	})
}

func (repo *tutorRepository) DeleteTutor(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return tutor.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *tutorRepository) PushAssignment(_ context.Context, id string, a tutor.Assignment) (tutor.Tutor, error) {
	return repo.update(id, func(t *tutor.Tutor) {
		t.AssignedTuitions = append(t.AssignedTuitions, a)
	})
}

func (repo *tutorRepository) SetAssignments(_ context.Context, id string, seq []tutor.Assignment) (tutor.Tutor, error) {
	return repo.update(id, func(t *tutor.Tutor) {
		t.AssignedTuitions = make([]tutor.Assignment, len(seq))
		copy(t.AssignedTuitions, seq)
	})
}

// update applies fn under the write lock, like a single-document update.
func (repo *tutorRepository) update(id string, fn func(t *tutor.Tutor)) (tutor.Tutor, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	row, ok := repo.db.table[id]
	if !ok {
		return tutor.Tutor{}, tutor.ErrNotFound
	}
	fn(&row.tutor)
	row.tutor.UpdatedAt = repo.now().UTC()
	return copyTutor(row.tutor), nil
}
