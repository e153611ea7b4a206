package site

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tphakala/hubheight/internal/errors"
)

// table is a CSV file with a header row, columns looked up by name
type table struct {
	columns map[string]int
	rows    [][]string
}

func readTable(r io.Reader, component string, required ...string) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.New(err).
			Component(component).
			Category(errors.CategoryFileParsing).
			Build()
	}
	if len(records) == 0 {
		return nil, errors.Newf("empty table").
			Component(component).
			Category(errors.CategoryReferenceData).
			Build()
	}

	t := &table{columns: make(map[string]int), rows: records[1:]}
	for i, name := range records[0] {
		t.columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}

	for _, name := range required {
		if !t.has(name) {
			return nil, errors.Newf("missing column %q", name).
				Component(component).
				Category(errors.CategoryReferenceData).
				Build()
		}
	}
	return t, nil
}

func (t *table) has(names ...string) bool {
	for _, n := range names {
		if _, ok := t.columns[n]; ok {
			return true
		}
	}
	return false
}

// get returns the first present column of names, "" when absent
func (t *table) get(row []string, names ...string) string {
	for _, n := range names {
		if i, ok := t.columns[n]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
	}
	return ""
}

func (t *table) float(row []string, name string) (float64, error) {
	s := t.get(row, name)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", name, err)
	}
	return v, nil
}

// timestampLayouts are tried in order. Layouts without an offset are UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	time.DateTime,
	"02/01/2006 15:04:05",
}

// ParseTimestamp parses a photo timestamp, returning it in UTC
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
