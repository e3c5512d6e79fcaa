package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/findmytutor/findmytutor/core/tutor"
	"github.com/findmytutor/findmytutor/tests"
)

func Test_assignmentApi_query(t *testing.T) {
	testutil.ResetDB(t, db)

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// latest is the LAST element (B, t0) even though A is more recent
	ana := testutil.CreateTutor(t, tutorRepo, "Ana", 1, "2024-01-01", "BSc", []tutor.Assignment{
		tutor.NewAssignment("A", t2),
		tutor.NewAssignment("B", t0),
	}, t1)
	ben := testutil.CreateTutor(t, tutorRepo, "Ben", 2, "2024-01-01", "BSc", []tutor.Assignment{
		tutor.NewAssignment("C", t1),
	}, t2)
	testutil.CreateTutor(t, tutorRepo, "Cid", 3, "2024-01-01", "BSc", nil, t2.Add(time.Hour))

	runTests(t, app, []httpTest{
		{
			name: "assigned only, last assignment desc", method: http.MethodGet, path: "/api/assign-tuition",
			wantData: marchallList(t, ben, ana), ordered: true,
		},
		{
			name: "legacy tuition lookup retired", method: http.MethodGet, path: "/api/assign-tuition/65a4f0c2e4b0a1b2c3d4e5f6",
			wantCode: http.StatusGone, wantData: marchallObj(t, httpErr{Error: "tuition records have been retired; assignments live on the tutor"}),
		},
	})
}

func Test_assignmentApi_append(t *testing.T) {
	testutil.ResetDB(t, db)
	token := getToken(t)

	jane := testutil.CreateTutor(t, tutorRepo, "Jane", 3, "2023-05-01", "MSc", nil, t1)
	missing := "65a4f0c2e4b0a1b2c3d4e5f6"

	runTests(t, app, []httpTest{
		{
			name: "missing fields", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"tutorId": "this field is required", "tuition": "this field is required"}),
		},
		{
			name: "invalid date", body: marchallObj(t, map[string]string{"tutorId": jane.ID, "tuition": "Math", "date": "yesterday"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"date": "date must be an ISO 8601 timestamp"}),
		},
		{
			name: "unknown tutor", body: marchallObj(t, map[string]string{"tutorId": missing, "tuition": "Math"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Tutor not found"}),
		},
	}, withMethodPathToken(http.MethodPost, "/api/assign-tuition", token))

	_, err := tutorRepo.GetTutor(context.Background(), missing)
	assert.Equal(t, tutor.ErrNotFound, err, "no write for unknown tutor")

	t.Run("appended in call order", func(t *testing.T) {
		bodies := [][]byte{
			marchallObj(t, map[string]string{"tutorId": jane.ID, "tuition": "Physics", "date": "2024-02-01T15:30:05.000Z"}),
			marchallObj(t, map[string]string{"tutorId": jane.ID, "tuition": "Math", "date": "2024-01-15T10:00"}),
		}
		var last tutor.Tutor
		for _, body := range bodies {
			req, rec := newAuthRequest(http.MethodPost, "/api/assign-tuition", token, body)
			app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			last = decodeTutor(t, rec.Body.Bytes())
		}
		assert.Equal(t, []tutor.Assignment{
			{Label: "Physics", Date: t2},
			{Label: "Math", Date: t1},
		}, last.AssignedTuitions)
	})

	t.Run("date defaults to now", func(t *testing.T) {
		before := time.Now().Add(-time.Second)
		req, rec := newAuthRequest(http.MethodPost, "/api/assign-tuition", token,
			marchallObj(t, map[string]string{"tutorId": jane.ID, "tuition": "Chemistry"}))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		latest, ok := decodeTutor(t, rec.Body.Bytes()).LatestAssignment()
		require.True(t, ok)
		assert.Equal(t, "Chemistry", latest.Label)
		assert.True(t, latest.Date.After(before), "date = %v", latest.Date)
	})
}

func Test_assignmentApi_replace(t *testing.T) {
	testutil.ResetDB(t, db)
	token := getToken(t)

	jane := testutil.CreateTutor(t, tutorRepo, "Jane", 3, "2023-05-01", "MSc", []tutor.Assignment{
		tutor.NewAssignment("Math", t1),
	}, t1)

	runTests(t, app, []httpTest{
		{
			name: "missing sequence", body: marchallObj(t, map[string]string{"id": jane.ID}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"assignedTuitions": "this field is required"}),
		},
		{
			name: "unknown tutor", body: []byte(`{"id":"65a4f0c2e4b0a1b2c3d4e5f6","assignedTuitions":[]}`),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "Tutor not found"}),
		},
	}, withMethodPathToken(http.MethodPut, "/api/assign-tuition", token))

	for name, body := range map[string]string{
		"not a sequence": `{"id":"` + jane.ID + `","assignedTuitions":"Math"}`,
		"not pairs":      `{"id":"` + jane.ID + `","assignedTuitions":["Math"]}`,
		"bad timestamp":  `{"id":"` + jane.ID + `","assignedTuitions":[["Math","soon"]]}`,
	} {
		body := body
		t.Run(name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, "/api/assign-tuition", token, []byte(body))
			app.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	t.Run("replaced exactly", func(t *testing.T) {
		body := []byte(`{"id":"` + jane.ID + `","assignedTuitions":[["Physics","2024-02-01T15:30:05.000Z"],["Math","2024-01-15T10:00:00.000Z"],["Math","2024-01-15T10:00:00.000Z"]]}`)
		req, rec := newAuthRequest(http.MethodPut, "/api/assign-tuition", token, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		assert.Equal(t, []tutor.Assignment{
			{Label: "Physics", Date: t2},
			{Label: "Math", Date: t1},
			{Label: "Math", Date: t1},
		}, decodeTutor(t, rec.Body.Bytes()).AssignedTuitions)
	})

	t.Run("replaced with empty", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/api/assign-tuition", token, []byte(`{"id":"`+jane.ID+`","assignedTuitions":[]}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"assignedTuitions":[]`)
	})
}
