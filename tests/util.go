package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/findmytutor/findmytutor/core/tutor"
	inmemdb "github.com/findmytutor/findmytutor/storage/database/inmem"
)

// ResetDB empties the in-memory database between tests.
func ResetDB(t *testing.T, db *inmemdb.DB) {
	t.Helper()
	db.Reset()
}

// CreateTutor stores a tutor directly through repo. dateJoined is YYYY-MM-DD.
func CreateTutor(
	t *testing.T,
	repo tutor.Repository,
	name string,
	experience int,
	dateJoined, qualification string,
	assignments []tutor.Assignment,
	createdAt ...time.Time,
) tutor.Tutor {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	joined, err := time.Parse("2006-01-02", dateJoined)
	if err != nil {
		t.Fatalf("createTutor() failed: %v", err)
	}
	if assignments == nil {
		assignments = []tutor.Assignment{}
	}

	tu, err := repo.CreateTutor(context.Background(), tutor.Tutor{
		Name:             name,
		Experience:       experience,
		DateJoined:       joined,
		Qualification:    qualification,
		AssignedTuitions: assignments,
		CreatedAt:        tstamp,
		UpdatedAt:        tstamp,
	})
	if err != nil {
		t.Fatalf("createTutor() failed: %v", err)
	}
	return tu
}
