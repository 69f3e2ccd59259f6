// Package dataset reads and writes the pipeline's flat CSV artifacts: the
// raw per-entity extracts, the wide feature table, and the training splits.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gcedu/attrition-pipeline/internal/validator"
)

// ErrMissingColumn is returned when a required column is absent from a header.
var ErrMissingColumn = errors.New("missing required column")

// Table is a named rectangular result as it is written to disk.
type Table interface {
	Name() string
	Header() []string
	Len() int
	Row(i int) []string
}

type table[T any] struct {
	name   string
	header []string
	rows   []T
	encode func(T) []string
}

// NewTable wraps typed rows as a Table using encode for each row.
func NewTable[T any](name string, header []string, rows []T, encode func(T) []string) Table {
	return &table[T]{name: name, header: header, rows: rows, encode: encode}
}

func (t *table[T]) Name() string       { return t.name }
func (t *table[T]) Header() []string   { return t.header }
func (t *table[T]) Len() int           { return len(t.rows) }
func (t *table[T]) Row(i int) []string { return t.encode(t.rows[i]) }

// WriteCSV writes the header and every row of t to w.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return fmt.Errorf("write %s header: %w", t.Name(), err)
	}
	for i := 0; i < t.Len(); i++ {
		if err := cw.Write(t.Row(i)); err != nil {
			return fmt.Errorf("write %s row %d: %w", t.Name(), i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes t to dir/<name>.csv, creating dir if needed, and returns
// the file path.
func WriteFile(dir string, t Table) (string, error) {
	return WriteFileAs(filepath.Join(dir, t.Name()+".csv"), t)
}

// WriteFileAs writes t to path. The file is written next to path first and
// renamed into place so readers never see a partial artifact.
func WriteFileAs(path string, t Table) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, t); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename into %s: %w", path, err)
	}
	return path, nil
}

// LoadStats counts what happened to the rows of one input table.
type LoadStats struct {
	Table   string `json:"table"`
	Read    int    `json:"read"`
	Kept    int    `json:"kept"`
	Skipped int    `json:"skipped"`
	// FirstError is the reason the first skipped row was rejected.
	FirstError string `json:"first_error,omitempty"`
}

func (s *LoadStats) skip(line int, err error) {
	s.Skipped++
	if s.FirstError == "" {
		s.FirstError = fmt.Sprintf("line %d: %v", line, err)
	}
}

// record is one CSV row addressed by column name.
type record struct {
	index  map[string]int
	values []string
}

func (r record) str(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

func (r record) num(col string) (float64, error) {
	v, err := strconv.ParseFloat(r.str(col), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", col, err)
	}
	return v, nil
}

// integer accepts integral floats ("3.0") as written by dataframe tools.
func (r record) integer(col string) (int, error) {
	s := r.str(col)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("%s: not an integer: %q", col, s)
	}
	return int(f), nil
}

// readCSV decodes every row of rd. Rows that fail to decode or validate are
// skipped and counted; a header missing one of required fails the read.
func readCSV[T any](rd io.Reader, name string, required []string, decode func(record) (T, error)) ([]T, LoadStats, error) {
	stats := LoadStats{Table: name}
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, fmt.Errorf("%s: empty file: %w", name, ErrMissingColumn)
		}
		return nil, stats, fmt.Errorf("%s: read header: %w", name, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, stats, fmt.Errorf("%s: %w: %s", name, ErrMissingColumn, col)
		}
	}

	var out []T
	line := 1
	for {
		values, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				stats.Read++
				stats.skip(line, err)
				continue
			}
			return nil, stats, fmt.Errorf("%s: read line %d: %w", name, line, err)
		}
		stats.Read++

		v, err := decode(record{index: index, values: values})
		if err != nil {
			stats.skip(line, err)
			continue
		}
		if err := validator.Struct(v); err != nil {
			stats.skip(line, errors.New(validator.Describe(err)))
			continue
		}
		out = append(out, v)
		stats.Kept++
	}
	return out, stats, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
