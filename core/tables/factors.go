package tables

import (
	"strings"

	"auto-rating/core/determinism"
)

// FactorTable is one loaded CSV table as read, before parsing
type FactorTable struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// FactorTables returns the names of the loaded tables in sorted order
func (s *Set) FactorTables() []string {
	return determinism.SortedKeys(s.raw)
}

// FactorTable returns a copy of the named table. The ".csv" suffix is optional.
func (s *Set) FactorTable(name string) (FactorTable, bool) {
	t, ok := s.raw[strings.TrimSuffix(name, ".csv")]
	if !ok {
		return FactorTable{}, false
	}
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = append([]string(nil), r...)
	}
	return FactorTable{
		Name:    t.Name,
		Columns: append([]string(nil), t.Columns...),
		Rows:    rows,
	}, true
}
