package descriptives

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Frame is a small columnar table, the shape nodes report their
// categorical and numerical summaries in.
//
// On the wire a Frame is a JSON object from column name to a
// row-index-to-cell object, for example
//
//	{"variable": {"0": "gender", "1": "gender"}, "value": {"0": "male", "1": "nan"}, "count": {"0": 42, "1": 3}}
//
// and is often carried doubly encoded, as a JSON string holding that
// object. UnmarshalJSON accepts both spellings; MarshalJSON always
// writes the string-encoded form, so stored snapshots round-trip.
type Frame struct {
	columns map[string][]any
	n       int
}

// NewFrame builds a Frame from columns. All columns should share a length;
// shorter ones read as empty cells.
func NewFrame(columns map[string][]any) Frame {
	n := 0
	for _, cells := range columns {
		if n < len(cells) {
			n = len(cells)
		}
	}
	return Frame{columns: columns, n: n}
}

// Len is the number of rows.
func (f Frame) Len() int {
	return f.n
}

// Columns lists the column names, sorted.
func (f Frame) Columns() []string {
	names := make([]string, 0, len(f.columns))
	for name := range f.columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String reads a cell as text. Missing cells and non-text cells read as "".
func (f Frame) String(column string, row int) string {
	cells, ok := f.columns[column]
	if !ok || row < 0 || len(cells) <= row {
		return ""
	}
	s, ok := cells[row].(string)
	if !ok {
		return ""
	}
	return s
}

// Number reads a cell as a number.
//
// Numeric text cells are parsed; anything else reads as 0.
func (f Frame) Number(column string, row int) float64 {
	cells, ok := f.columns[column]
	if !ok || row < 0 || len(cells) <= row {
		return 0
	}
	switch v := cells[row].(type) {
	case float64:
		return v
	case json.Number:
		n, _ := v.Float64()
		return n
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// UniqueStrings lists the distinct text values of a column, in row order.
func (f Frame) UniqueStrings(column string) []string {
	seen := map[string]bool{}
	unique := []string{}
	for row := 0; row < f.n; row++ {
		v := f.String(column, row)
		if seen[v] {
			continue
		}
		seen[v] = true
		unique = append(unique, v)
	}
	return unique
}

// FilterRows returns a Frame keeping only the rows pred accepts.
func (f Frame) FilterRows(pred func(row int) bool) Frame {
	kept := []int{}
	for row := 0; row < f.n; row++ {
		if pred(row) {
			kept = append(kept, row)
		}
	}

	columns := map[string][]any{}
	for name, cells := range f.columns {
		filtered := make([]any, 0, len(kept))
		for _, row := range kept {
			if row < len(cells) {
				filtered = append(filtered, cells[row])
			} else {
				filtered = append(filtered, nil)
			}
		}
		columns[name] = filtered
	}
	return Frame{columns: columns, n: len(kept)}
}

func (f *Frame) UnmarshalJSON(b []byte) error {
	// unwrap the string-encoded spelling first.
	if 0 < len(b) && b[0] == '"' {
		inner := ""
		if err := json.Unmarshal(b, &inner); err != nil {
			return err
		}
		b = []byte(inner)
	}

	indexed := map[string]map[string]any{}
	if err := json.Unmarshal(b, &indexed); err != nil {
		return fmt.Errorf("not a columnar table: %w", err)
	}

	columns := map[string][]any{}
	n := 0
	for name, cells := range indexed {
		maxIndex := -1
		byIndex := map[int]any{}
		for key, cell := range cells {
			index, err := strconv.Atoi(key)
			if err != nil {
				return fmt.Errorf("row index %q of column %q is not an integer: %w", key, name, err)
			}
			byIndex[index] = cell
			if maxIndex < index {
				maxIndex = index
			}
		}

		ordered := make([]any, maxIndex+1)
		for index, cell := range byIndex {
			ordered[index] = cell
		}
		columns[name] = ordered
		if n < len(ordered) {
			n = len(ordered)
		}
	}

	f.columns = columns
	f.n = n
	return nil
}

func (f Frame) MarshalJSON() ([]byte, error) {
	indexed := map[string]map[string]any{}
	for name, cells := range f.columns {
		byIndex := map[string]any{}
		for index, cell := range cells {
			byIndex[strconv.Itoa(index)] = cell
		}
		indexed[name] = byIndex
	}

	inner, err := json.Marshal(indexed)
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(inner))
}
