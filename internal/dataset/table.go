package dataset

import (
	"fmt"
)

// Table is an immutable rectangular batch of feature rows. Column names are
// part of the identity of a table: two tables with the same cells but
// different column layout are different datasets.
type Table struct {
	columns []string
	rows    []Vector
}

func NewTable(columns []string, rows []Vector) (*Table, error) {
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), len(columns))
		}
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{columns: cols, rows: rows}, nil
}

// FromColumns assembles a table out of column-major data. Every column must
// have the same length.
func FromColumns(columns []string, data [][]float64) (*Table, error) {
	if len(columns) != len(data) {
		return nil, fmt.Errorf("have %d column names for %d columns", len(columns), len(data))
	}
	n := 0
	if len(data) > 0 {
		n = len(data[0])
	}
	for i, col := range data {
		if len(col) != n {
			return nil, fmt.Errorf("column %q has %d values, want %d", columns[i], len(col), n)
		}
	}
	rows := make([]Vector, n)
	for i := 0; i < n; i++ {
		row := make(Vector, len(data))
		for j := range data {
			row[j] = data[j][i]
		}
		rows[i] = row
	}
	return NewTable(columns, rows)
}

func (t *Table) NumRows() int {
	return len(t.rows)
}

func (t *Table) NumCols() int {
	return len(t.columns)
}

func (t *Table) Columns() []string {
	cols := make([]string, len(t.columns))
	copy(cols, t.columns)
	return cols
}

func (t *Table) Row(i int) Vector {
	return t.rows[i]
}

func (t *Table) Rows() []Vector {
	return t.rows
}

// Select returns a view over the given rows, in the given order. Row data is
// shared with the parent table.
func (t *Table) Select(idx []int) *Table {
	rows := make([]Vector, 0, len(idx))
	for _, i := range idx {
		rows = append(rows, t.rows[i])
	}
	return &Table{columns: t.columns, rows: rows}
}
