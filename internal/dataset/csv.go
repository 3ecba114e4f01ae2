package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// LoadCSV reads a headered CSV file and splits it into a feature table and
// the named target column. Every non-target column must be numeric.
func LoadCSV(path, target string) (*Table, Column, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Column{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, Column{}, fmt.Errorf("read dataset: %w", err)
	}
	if len(records) < 2 {
		return nil, Column{}, fmt.Errorf("dataset %s has no data rows", path)
	}

	header := records[0]
	targetIdx := -1
	for i, name := range header {
		if name == target {
			targetIdx = i
			break
		}
	}
	if targetIdx < 0 {
		return nil, Column{}, fmt.Errorf("target column %q not found in %s", target, path)
	}

	columns := make([]string, 0, len(header)-1)
	for i, name := range header {
		if i != targetIdx {
			columns = append(columns, name)
		}
	}

	rows := make([]Vector, 0, len(records)-1)
	raw := make([]string, 0, len(records)-1)
	for lineNo, record := range records[1:] {
		if len(record) != len(header) {
			return nil, Column{}, fmt.Errorf("line %d has %d fields, want %d", lineNo+2, len(record), len(header))
		}
		row := make(Vector, 0, len(columns))
		for i, field := range record {
			if i == targetIdx {
				raw = append(raw, field)
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, Column{}, fmt.Errorf("line %d, column %q: %w", lineNo+2, header[i], err)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}

	table, err := NewTable(columns, rows)
	if err != nil {
		return nil, Column{}, err
	}
	return table, ParseColumn(raw), nil
}
