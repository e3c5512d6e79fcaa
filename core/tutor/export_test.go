package tutor

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportFixture() []Tutor {
	return []Tutor{
		{
			Name:          `Jane "JJ" Doe`,
			Experience:    3,
			DateJoined:    time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
			Qualification: "MSc, Math",
			AssignedTuitions: []Assignment{
				{Label: `Math, "grade 5"`, Date: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
				{Label: "Physics", Date: time.Date(2024, 2, 1, 15, 30, 5, 0, time.UTC)},
			},
		},
		{
			Name:             "Bob",
			Experience:       0,
			DateJoined:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Qualification:    "BSc",
			AssignedTuitions: []Assignment{},
		},
	}
}

func assertText(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  1,
	})
	t.Errorf("output mismatch:\n%s", diff)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, exportFixture(), time.UTC))

	want := strings.Join([]string{
		"Name,Experience (years),Date Joined,Qualification,Assigned Tuitions",
		`"Jane ""JJ"" Doe",3,2023-05-01,"MSc, Math","Math, ""grade 5"" (1/15/2024, 10:00:00 AM); Physics (2/1/2024, 3:30:05 PM)"`,
		`"Bob",0,2024-01-01,"BSc",""`,
	}, "\n")
	assertText(t, want, buf.String())
}

func TestWriteCSV_empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, time.UTC))
	assertText(t, "Name,Experience (years),Date Joined,Qualification,Assigned Tuitions", buf.String())
}

func TestFormatAssignments_location(t *testing.T) {
	lagos := time.FixedZone("WAT", 3600)
	seq := []Assignment{{Label: "Math", Date: time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC)}}

	assert.Equal(t, "Math (1/15/2024, 11:30:00 PM)", FormatAssignments(seq, nil))
	assert.Equal(t, "Math (1/16/2024, 12:30:00 AM)", FormatAssignments(seq, lagos))
}

func TestWriteXLSX_roundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, exportFixture(), time.UTC))

	rows, err := ReadXLSX(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, `Jane "JJ" Doe`, rows[0].Name)
	assert.Equal(t, "3", rows[0].Experience.String())
	assert.Equal(t, "2023-05-01", rows[0].DateJoined)
	assert.Equal(t, "MSc, Math", rows[0].Qualification)
	assert.Equal(t, "Bob", rows[1].Name)
	assert.Equal(t, "0", rows[1].Experience.String())
}

func TestParseExportFormat(t *testing.T) {
	for in, want := range map[string]ExportFormat{"": FormatCSV, "csv": FormatCSV, " XLSX ": FormatXLSX} {
		got, err := ParseExportFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseExportFormat("pdf")
	assert.Equal(t, ErrUnknownFormat, err)

	assert.Equal(t, "tutors_data.xlsx", FormatXLSX.Filename())
}
