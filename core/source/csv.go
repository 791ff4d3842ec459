package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gaurav-prasanna/mdzip/core"
)

// Columns names the CSV header fields a reader looks for.
type Columns struct {
	Title   string
	Body    string
	Section string // optional; empty disables sections
}

// DefaultColumns returns the column names of the article export format.
func DefaultColumns() Columns {
	return Columns{
		Title:   "article_title",
		Body:    "article_body",
		Section: "section",
	}
}

// CSVReader turns CSV rows into Records.
type CSVReader struct {
	Columns Columns
}

// NewCSVReader creates a CSVReader for the given columns.
func NewCSVReader(cols Columns) *CSVReader {
	return &CSVReader{Columns: cols}
}

// Read parses data and returns one Record per row. The header must carry
// the title and body columns; the section column is used when present.
// Nothing is returned unless every row parses.
func (r *CSVReader) Read(data []byte) ([]core.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: CSV file has no content", core.ErrEmptyInput)
	}

	text, err := DecodeText(data)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: CSV file has no header", core.ErrEmptyInput)
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w: %w", core.ErrMalformedInput, err)
	}

	titleIdx, bodyIdx, sectionIdx, err := r.locate(header)
	if err != nil {
		return nil, err
	}

	var records []core.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w: %w", core.ErrMalformedInput, err)
		}
		records = append(records, core.Record{
			Title:   field(row, titleIdx),
			Body:    field(row, bodyIdx),
			Section: field(row, sectionIdx),
			Index:   len(records) + 1,
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: CSV file has no rows", core.ErrEmptyInput)
	}
	return records, nil
}

// locate maps the configured column names to header positions.
func (r *CSVReader) locate(header []string) (title, body, section int, err error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}

	var (
		missing []string
		ok      bool
	)
	title, ok = positions[r.Columns.Title]
	if !ok {
		missing = append(missing, r.Columns.Title)
	}
	body, ok = positions[r.Columns.Body]
	if !ok {
		missing = append(missing, r.Columns.Body)
	}
	if len(missing) > 0 {
		return 0, 0, 0, fmt.Errorf("%w: CSV must contain %s", core.ErrMissingColumns, quoteAll(missing))
	}

	section = -1
	if r.Columns.Section != "" {
		if i, ok := positions[r.Columns.Section]; ok {
			section = i
		}
	}
	return title, body, section, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return strings.Join(quoted, " and ")
}
