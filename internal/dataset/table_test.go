package dataset

import "testing"

func TestNewTable_WidthCheck(t *testing.T) {
	if _, err := NewTable([]string{"a", "b"}, []Vector{{1, 2}, {3}}); err == nil {
		t.Fatal("ragged rows were accepted")
	}
}

func TestFromColumns(t *testing.T) {
	table, err := FromColumns([]string{"a", "b"}, [][]float64{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatalf("FromColumns: %v", err)
	}
	if table.NumRows() != 2 || table.NumCols() != 2 {
		t.Fatalf("table is %dx%d, want 2x2", table.NumRows(), table.NumCols())
	}
	if !table.Row(0).Equal(Vector{1, 3}) || !table.Row(1).Equal(Vector{2, 4}) {
		t.Fatalf("rows = %v", table.Rows())
	}

	if _, err := FromColumns([]string{"a"}, [][]float64{{1}, {2}}); err == nil {
		t.Fatal("column count mismatch was accepted")
	}
	if _, err := FromColumns([]string{"a", "b"}, [][]float64{{1, 2}, {3}}); err == nil {
		t.Fatal("ragged columns were accepted")
	}
}

func TestTableSelect(t *testing.T) {
	table, err := NewTable([]string{"a"}, []Vector{{0}, {1}, {2}, {3}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	sub := table.Select([]int{3, 1})
	if sub.NumRows() != 2 || sub.Row(0)[0] != 3 || sub.Row(1)[0] != 1 {
		t.Fatalf("Select = %v, want rows 3 and 1 in that order", sub.Rows())
	}
	if sub.NumCols() != 1 || sub.Columns()[0] != "a" {
		t.Fatal("Select lost the column layout")
	}
}

func TestColumnSelectKeepsLevels(t *testing.T) {
	y := NewCategoricalColumn([]string{"a", "b", "c", "a"})
	sub := y.Select([]int{0, 3})
	levels := sub.Levels()
	if len(levels) != 3 {
		t.Fatalf("subset declares %d levels, want the parent's 3", len(levels))
	}
	if sub.Len() != 2 || sub.Label(0) != "a" || sub.Label(1) != "a" {
		t.Fatalf("subset labels = %v", sub.Labels())
	}
}

func TestColumnConcat(t *testing.T) {
	a := NewNumericColumn([]float64{1, 2})
	b := NewNumericColumn([]float64{3})
	c, err := a.Concat(b)
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	want := []float64{1, 2, 3}
	for i, v := range c.Values() {
		if v != want[i] {
			t.Fatalf("Concat = %v, want %v", c.Values(), want)
		}
	}

	if _, err := a.Concat(NewCategoricalColumn([]string{"x"})); err == nil {
		t.Fatal("kind mismatch was accepted")
	}
}

func TestParseColumn(t *testing.T) {
	if c := ParseColumn([]string{"1", "2.5"}); c.Kind() != ColumnNumeric {
		t.Fatalf("numeric values parsed as %s", c.Kind())
	}
	c := ParseColumn([]string{"1", "spam"})
	if c.Kind() != ColumnCategorical {
		t.Fatalf("mixed values parsed as %s", c.Kind())
	}
	if len(c.Levels()) != 2 {
		t.Fatalf("levels = %v", c.Levels())
	}
}
