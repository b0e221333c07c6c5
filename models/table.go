package models

import (
	"fmt"
	"math"
	"strconv"
)

// ColumnKind distinguishes numeric columns from free-text ones.
type ColumnKind int

const (
	Numeric ColumnKind = iota
	Text
)

// Table is a small column-oriented frame. Numeric cells use NaN for missing
// values. Tables are treated as immutable once built: accessors hand out copies.
type Table struct {
	rows    int
	names   []string
	kinds   map[string]ColumnKind
	numeric map[string][]float64
	text    map[string][]string
}

// NewTable creates an empty table that will hold rows rows.
func NewTable(rows int) *Table {
	return &Table{
		rows:    rows,
		kinds:   make(map[string]ColumnKind),
		numeric: make(map[string][]float64),
		text:    make(map[string][]string),
	}
}

// AddNumeric appends a numeric column.
func (t *Table) AddNumeric(name string, values []float64) error {
	if err := t.checkNew(name, len(values)); err != nil {
		return err
	}
	t.names = append(t.names, name)
	t.kinds[name] = Numeric
	t.numeric[name] = append([]float64(nil), values...)
	return nil
}

// AddText appends a text column.
func (t *Table) AddText(name string, values []string) error {
	if err := t.checkNew(name, len(values)); err != nil {
		return err
	}
	t.names = append(t.names, name)
	t.kinds[name] = Text
	t.text[name] = append([]string(nil), values...)
	return nil
}

func (t *Table) checkNew(name string, n int) error {
	if _, exists := t.kinds[name]; exists {
		return fmt.Errorf("table: duplicate column %q", name)
	}
	if n != t.rows {
		return fmt.Errorf("table: column %q has %d values, table has %d rows", name, n, t.rows)
	}
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Columns returns the column names in insertion order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.names...)
}

// Kind returns the kind of column name.
func (t *Table) Kind(name string) (ColumnKind, bool) {
	k, ok := t.kinds[name]
	return k, ok
}

// IsNumeric reports whether name exists and is numeric.
func (t *Table) IsNumeric(name string) bool {
	k, ok := t.kinds[name]
	return ok && k == Numeric
}

// Numeric returns a copy of the numeric column name.
func (t *Table) Numeric(name string) ([]float64, error) {
	k, ok := t.kinds[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	if k != Numeric {
		return nil, fmt.Errorf("%w: %q", ErrNonNumericColumn, name)
	}
	return append([]float64(nil), t.numeric[name]...), nil
}

// Text returns a copy of the text column name.
func (t *Table) Text(name string) ([]string, error) {
	k, ok := t.kinds[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	if k != Text {
		return nil, fmt.Errorf("table: column %q is not text", name)
	}
	return append([]string(nil), t.text[name]...), nil
}

// Filter returns a new table with the rows where keep is true.
func (t *Table) Filter(keep []bool) (*Table, error) {
	if len(keep) != t.rows {
		return nil, fmt.Errorf("table: filter mask has %d entries, table has %d rows", len(keep), t.rows)
	}
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}

	out := NewTable(n)
	for _, name := range t.names {
		out.names = append(out.names, name)
		out.kinds[name] = t.kinds[name]
		switch t.kinds[name] {
		case Numeric:
			col := make([]float64, 0, n)
			for i, v := range t.numeric[name] {
				if keep[i] {
					col = append(col, v)
				}
			}
			out.numeric[name] = col
		case Text:
			col := make([]string, 0, n)
			for i, v := range t.text[name] {
				if keep[i] {
					col = append(col, v)
				}
			}
			out.text[name] = col
		}
	}
	return out, nil
}

// Select returns a new table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	out := NewTable(t.rows)
	for _, name := range names {
		k, ok := t.kinds[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		var err error
		if k == Numeric {
			err = out.AddNumeric(name, t.numeric[name])
		} else {
			err = out.AddText(name, t.text[name])
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Cell formats the value at row/column for export. Missing numerics render empty.
func (t *Table) Cell(row int, name string) string {
	switch t.kinds[name] {
	case Numeric:
		v := t.numeric[name][row]
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return t.text[name][row]
	}
}

// Value returns the raw cell value: float64 for numeric columns, string otherwise.
func (t *Table) Value(row int, name string) any {
	if t.kinds[name] == Numeric {
		return t.numeric[name][row]
	}
	return t.text[name][row]
}
