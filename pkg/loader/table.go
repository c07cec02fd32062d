package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// table reads a headed CSV file by column name.
type table struct {
	file  string
	r     *csv.Reader
	cols  map[string]int
	empty bool
}

// openTable reads the header and checks the required columns. A file with
// no header at all is an empty table.
func openTable(file string, rd io.Reader, required ...string) (*table, error) {
	r := csv.NewReader(rd)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	t := &table{file: file, r: r, cols: make(map[string]int)}
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		t.empty = true
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read header: %w", file, err)
	}

	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		t.cols[strings.TrimSpace(col)] = i
	}
	for _, col := range required {
		if _, ok := t.cols[col]; !ok {
			return nil, &MissingColumnError{File: file, Column: col}
		}
	}
	return t, nil
}

// next returns the next record and its line number, or io.EOF.
func (t *table) next() ([]string, int, error) {
	if t.empty {
		return nil, 0, io.EOF
	}
	record, err := t.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, io.EOF
		}
		return nil, 0, fmt.Errorf("%s: %w", t.file, err)
	}
	line, _ := t.r.FieldPos(0)
	return record, line, nil
}

func (t *table) field(record []string, column string) string {
	i := t.cols[column]
	if i >= len(record) {
		return ""
	}
	return record[i]
}

func (t *table) int64(record []string, line int, column string) (int64, error) {
	raw := t.field(record, column)
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, &ParseError{File: t.file, Line: line, Column: column, Value: raw, Err: err}
	}
	return v, nil
}
