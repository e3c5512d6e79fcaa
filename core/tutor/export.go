package tutor

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/findmytutor/findmytutor/core"
)

type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"

	// LocalizedLayout mirrors the en-US Date.toLocaleString() rendering.
	LocalizedLayout = "1/2/2006, 3:04:05 PM"

	exportSheet = "Tutors"
)

var (
	ExportHeaders = []string{"Name", "Experience (years)", "Date Joined", "Qualification", "Assigned Tuitions"}

	ErrUnknownFormat = errors.New("unknown export format")
)

// ParseExportFormat defaults to CSV for an empty value.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(core.CleanString(s, true)) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", ErrUnknownFormat
}

func (f ExportFormat) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

func (f ExportFormat) Filename() string {
	return "tutors_data." + string(f)
}

// Export writes tutors to w in the given format. Assignment dates are rendered in loc.
func Export(w io.Writer, format ExportFormat, tutors []Tutor, loc *time.Location) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, tutors, loc)
	case FormatXLSX:
		return WriteXLSX(w, tutors, loc)
	}
	return ErrUnknownFormat
}

// WriteCSV writes the admin CSV export. Text columns are always quoted with embedded
// quotes doubled; experience and date joined are written bare; lines end with "\n".
func WriteCSV(w io.Writer, tutors []Tutor, loc *time.Location) error {
	lines := make([]string, 0, len(tutors)+1)
	lines = append(lines, strings.Join(ExportHeaders, ","))
	for _, t := range tutors {
		lines = append(lines, strings.Join([]string{
			quote(escapeQuotes(t.Name)),
			strconv.Itoa(t.Experience),
			formatDate(t.DateJoined),
			quote(escapeQuotes(t.Qualification)),
			quote(escapeQuotes(FormatAssignments(t.AssignedTuitions, loc))),
		}, ","))
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return errors.Wrap(err, "writing csv")
}

// WriteXLSX writes the same columns as WriteCSV to a single-sheet workbook.
func WriteXLSX(w io.Writer, tutors []Tutor, loc *time.Location) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	header := make([]interface{}, len(ExportHeaders))
	for i, h := range ExportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}

	for i, t := range tutors {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "computing cell name")
		}
		row := []interface{}{
			t.Name,
			t.Experience,
			formatDate(t.DateJoined),
			t.Qualification,
			FormatAssignments(t.AssignedTuitions, loc),
		}
		if err = f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return errors.Wrapf(err, "writing row %d", i+2)
		}
	}
	return errors.Wrap(f.Write(w), "writing xlsx")
}

// FormatAssignments renders `label (localized time)` entries joined by "; ".
func FormatAssignments(seq []Assignment, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	parts := make([]string, 0, len(seq))
	for _, a := range seq {
		parts = append(parts, a.Label+" ("+a.Date.In(loc).Format(LocalizedLayout)+")")
	}
	return strings.Join(parts, "; ")
}

// ReadXLSX parses a workbook laid out like WriteXLSX output into tutors to create.
// The first sheet is read and its first row skipped; rows missing a name are ignored.
func ReadXLSX(r io.Reader) ([]NewTutor, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening xlsx")
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook does not contain any sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading rows of sheet %s", sheet)
	}

	tutors := make([]NewTutor, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		cols := make([]string, len(ExportHeaders))
		copy(cols, row)
		if core.CleanString(cols[0]) == "" {
			continue
		}
		tutors = append(tutors, NewTutor{
			Name:          cols[0],
			Experience:    jsonNumber(cols[1]),
			DateJoined:    cols[2],
			Qualification: cols[3],
		})
	}
	return tutors, nil
}

func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}

func quote(s string) string {
	return `"` + s + `"`
}
