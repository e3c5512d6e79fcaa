package mongorepos

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/findmytutor/findmytutor/core/tutor"
)

func TestTutorDoc_toTutor(t *testing.T) {
	oid := primitive.NewObjectID()
	legacyRef := primitive.NewObjectID()
	at := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	raw, err := bson.Marshal(bson.M{
		"_id":        oid,
		"name":       "Jane",
		"experience": 3,
		"assignedTuitions": bson.A{
			bson.A{"Math", "2024-01-15T10:00:00.000Z"},
			bson.A{"Physics", primitive.NewDateTimeFromTime(at)},
			legacyRef,
			"free text",
			bson.A{"no date"},
			42,
			nil,
			bson.A{},
		},
	})
	require.NoError(t, err)

	var doc tutorDoc
	require.NoError(t, bson.Unmarshal(raw, &doc))

	got, dropped := doc.toTutor()
	assert.Equal(t, oid.Hex(), got.ID)
	assert.Equal(t, "Jane", got.Name)
	assert.Equal(t, 3, got.Experience)
	assert.Equal(t, []tutor.Assignment{
		{Label: "Math", Date: at},
		{Label: "Physics", Date: at},
		{Label: legacyRef.Hex()},
		{Label: "free text"},
		{Label: "no date"},
		{Label: "42"},
	}, got.AssignedTuitions)
	assert.Equal(t, 2, dropped)
}

func TestTutorDoc_experience(t *testing.T) {
	tests := []struct {
		name   string
		stored interface{}
		want   int
	}{
		{name: "int32", stored: int32(4), want: 4},
		{name: "int64", stored: int64(7), want: 7},
		{name: "whole double", stored: 5.0, want: 5},
		{name: "fractional double", stored: 2.5, want: 2},
		{name: "NaN", stored: math.NaN(), want: 0},
		{name: "negative", stored: -3, want: 0},
		{name: "infinity", stored: math.Inf(1), want: math.MaxInt32},
		{name: "numeric string", stored: " 6 ", want: 6},
		{name: "text", stored: "ten", want: 0},
		{name: "null", stored: nil, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := bson.Marshal(bson.M{"name": "Jane", "experience": tt.stored})
			require.NoError(t, err)

			var doc tutorDoc
			require.NoError(t, bson.Unmarshal(raw, &doc))
			got, _ := doc.toTutor()
			assert.Equal(t, tt.want, got.Experience)
		})
	}

	t.Run("missing", func(t *testing.T) {
		raw, err := bson.Marshal(bson.M{"name": "Jane"})
		require.NoError(t, err)

		var doc tutorDoc
		require.NoError(t, bson.Unmarshal(raw, &doc))
		got, _ := doc.toTutor()
		assert.Equal(t, 0, got.Experience)
	})
}

func TestToPairs(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	pairs := toPairs([]tutor.Assignment{tutor.NewAssignment("Math", at)})
	assert.Equal(t, bson.A{bson.A{"Math", "2024-01-15T10:00:00.000Z"}}, pairs)
	assert.Equal(t, bson.A{}, toPairs(nil))
}

func TestObjectID(t *testing.T) {
	_, err := objectID("not-hex")
	assert.Equal(t, tutor.ErrNotFound, err)

	oid := primitive.NewObjectID()
	got, err := objectID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)
}
