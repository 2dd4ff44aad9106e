// Package dataset holds tabular listing data loaded from CSV.
//
// Every cell is kept as the exact string read from the source, so columns the
// cleaning step does not touch are written back unchanged.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Table is an immutable, string-typed tabular dataset. Operations that change
// rows or columns return a new Table.
//
// A table with no data rows only carries its header: the dataframe refuses to
// hold zero rows. names is always the header as read; the dataframe renames
// empty and duplicate headers, so columns are addressed by position in it.
type Table struct {
	names []string
	df    *dataframe.DataFrame
}

func loadOptions() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		// No cell is ever reinterpreted as missing; blanks stay blank.
		dataframe.NaNValues(nil),
	}
}

// Read loads a CSV stream with a header row.
func Read(r io.Reader) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return FromRecords(records)
}

// ReadFile loads the CSV file at path.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return t, nil
}

// FromRecords builds a Table from a header row followed by data rows.
func FromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, &ParseError{Err: errors.New("no header row")}
	}
	names := append([]string(nil), records[0]...)
	if len(records) == 1 {
		return &Table{names: names}, nil
	}

	df := dataframe.LoadRecords(records, loadOptions()...)
	if df.Err != nil {
		return nil, &ParseError{Err: df.Err}
	}
	return &Table{names: names, df: &df}, nil
}

func (t *Table) derive(df dataframe.DataFrame) *Table {
	return &Table{names: t.names, df: &df}
}

// Names returns the column names in source order.
func (t *Table) Names() []string {
	return append([]string(nil), t.names...)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t.df == nil {
		return 0
	}
	return t.df.Nrow()
}

// Has reports whether the table has the named column.
func (t *Table) Has(col string) bool {
	return t.index(col) >= 0
}

// index returns the position of the first column named col, or -1.
func (t *Table) index(col string) int {
	for i, n := range t.names {
		if n == col {
			return i
		}
	}
	return -1
}

// frameName returns the dataframe's name for the column at position i.
func (t *Table) frameName(i int) string {
	return t.df.Names()[i]
}

// Require returns a MissingColumnError for the first absent column.
func (t *Table) Require(cols ...string) error {
	for _, c := range cols {
		if !t.Has(c) {
			return &MissingColumnError{Column: c}
		}
	}
	return nil
}

// Column returns a copy of the raw cell values of col. With duplicate
// headers the first column of that name is used.
func (t *Table) Column(col string) ([]string, error) {
	i := t.index(col)
	if i < 0 {
		return nil, &MissingColumnError{Column: col}
	}
	if t.df == nil {
		return []string{}, nil
	}
	return t.df.Col(t.frameName(i)).Records(), nil
}

// Select keeps the rows whose mask entry is true.
func (t *Table) Select(mask []bool) (*Table, error) {
	if len(mask) != t.Len() {
		return nil, fmt.Errorf("dataset: select: mask has %d entries for %d rows", len(mask), t.Len())
	}

	kept := 0
	for _, keep := range mask {
		if keep {
			kept++
		}
	}
	if kept == 0 {
		return &Table{names: t.names}, nil
	}

	df := t.df.Subset(mask)
	if df.Err != nil {
		return nil, fmt.Errorf("dataset: select: %w", df.Err)
	}
	return t.derive(df), nil
}

// Filter keeps the rows whose value in col satisfies keep.
func (t *Table) Filter(col string, keep func(string) bool) (*Table, error) {
	vals, err := t.Column(col)
	if err != nil {
		return nil, err
	}
	mask := make([]bool, len(vals))
	for i, v := range vals {
		mask[i] = keep(v)
	}
	return t.Select(mask)
}

// Replace returns a copy of the table with col holding values.
func (t *Table) Replace(col string, values []string) (*Table, error) {
	i := t.index(col)
	if i < 0 {
		return nil, &MissingColumnError{Column: col}
	}
	if len(values) != t.Len() {
		return nil, fmt.Errorf("dataset: replace %q: got %d values for %d rows", col, len(values), t.Len())
	}
	if t.df == nil {
		return &Table{names: t.names}, nil
	}

	df := t.df.Mutate(series.New(values, series.String, t.frameName(i)))
	if df.Err != nil {
		return nil, fmt.Errorf("dataset: replace %q: %w", col, df.Err)
	}
	return t.derive(df), nil
}

// Records returns the header followed by every row.
func (t *Table) Records() [][]string {
	if t.df == nil {
		return [][]string{t.Names()}
	}
	records := t.df.Records()
	records[0] = t.Names()
	return records
}

// Write serialises the table as CSV with a header row and no index column.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("dataset: write csv: %w", err)
	}
	return nil
}

// WriteFile writes the table to path. The data goes to a temporary file in the
// same directory first, so path only ever holds a complete file.
func (t *Table) WriteFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("dataset: create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("dataset: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := t.Write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("dataset: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("dataset: rename %q: %w", path, err)
	}
	return nil
}
