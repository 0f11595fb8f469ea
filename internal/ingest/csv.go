package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// record is one CSV row addressed by header name
type record struct {
	fields []string
	index  map[string]int
}

func (r record) get(field string) string {
	if i, ok := r.index[field]; ok && i < len(r.fields) {
		return strings.TrimSpace(r.fields[i])
	}
	return ""
}

func (r record) getInt(field string, fallback int) int {
	if v, ok := r.lookupInt(field); ok {
		return v
	}
	return fallback
}

func (r record) lookupInt(field string) (int, bool) {
	v, err := strconv.Atoi(r.get(field))
	return v, err == nil
}

func (r record) getFloat(field string, fallback float64) float64 {
	v, err := strconv.ParseFloat(r.get(field), 64)
	if err != nil {
		return fallback
	}
	return v
}

func makeIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		idx[h] = i
	}
	return idx
}

// readCSV streams rows to fn. Columns are resolved from the header and every
// name in required must be present. Rows the reader cannot parse are counted
// and skipped.
func readCSV(r io.Reader, required []string, fn func(record) bool) (skipped int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("missing header row")
		}
		return 0, fmt.Errorf("failed to read header: %w", err)
	}

	index := makeIndex(header)
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return 0, fmt.Errorf("missing required column %q", col)
		}
	}

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return skipped, nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return skipped, fmt.Errorf("failed to read row: %w", err)
		}
		if !fn(record{fields: fields, index: index}) {
			skipped++
		}
	}
}
