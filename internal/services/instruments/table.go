// Package instruments reads and writes the instrument spreadsheet: one header
// row followed by one row per convertible bond.
package instruments

import (
	"fmt"
	"strings"

	"github.com/guregu/null/v5"
)

// IndexColumn is the header of a leftover index column written by
// spreadsheet tools that export the row index; it is dropped on load.
const IndexColumn = "Unnamed: 0"

// Table is a spreadsheet held as text cells. Every row has len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string

	// columns whose number-like cells must be written back as text
	textColumns map[string]bool
}

// NewTable creates a table, padding or trimming rows to the header width
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{Header: append([]string(nil), header...)}
	for _, r := range rows {
		t.Rows = append(t.Rows, fitRow(r, len(header)))
	}
	return t
}

func fitRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

// ColumnIndex returns the position of the named column, or -1
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// EnsureColumn appends an empty column when name is missing and returns its index
func (t *Table) EnsureColumn(name string) int {
	if idx := t.ColumnIndex(name); idx >= 0 {
		return idx
	}
	t.Header = append(t.Header, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}
	return len(t.Header) - 1
}

// DropColumn removes the named column. It reports whether the column existed.
func (t *Table) DropColumn(name string) bool {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return false
	}
	delete(t.textColumns, strings.TrimSpace(t.Header[idx]))
	t.Header = append(t.Header[:idx:idx], t.Header[idx+1:]...)
	for i, r := range t.Rows {
		t.Rows[i] = append(r[:idx:idx], r[idx+1:]...)
	}
	return true
}

// MarkText records that the named column holds text even where it looks numeric
func (t *Table) MarkText(name string) {
	if t.textColumns == nil {
		t.textColumns = make(map[string]bool)
	}
	t.textColumns[strings.TrimSpace(name)] = true
}

// IsText reports whether the named column was marked with MarkText
func (t *Table) IsText(name string) bool {
	return t.textColumns[strings.TrimSpace(name)]
}

// DropIndexColumn removes a leading unnamed index column. It reports whether
// one was removed.
func (t *Table) DropIndexColumn() bool {
	if len(t.Header) == 0 {
		return false
	}
	first := strings.TrimSpace(t.Header[0])
	if first != IndexColumn && first != "" {
		return false
	}
	return t.DropColumn(t.Header[0])
}

// Get returns the trimmed cell value, or "" when the column is missing
func (t *Table) Get(row int, column int) string {
	if column < 0 || row < 0 || row >= len(t.Rows) || column >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][column])
}

// Set writes a cell value
func (t *Table) Set(row int, column int, value string) {
	if column < 0 || row < 0 || row >= len(t.Rows) || column >= len(t.Rows[row]) {
		return
	}
	t.Rows[row][column] = value
}

// ReplaceValue replaces every cell exactly equal to from
func (t *Table) ReplaceValue(from, to string) int {
	n := 0
	for _, r := range t.Rows {
		for j := range r {
			if r[j] == from {
				r[j] = to
				n++
			}
		}
	}
	return n
}

// RenameColumns renames header cells found in names
func (t *Table) RenameColumns(names map[string]string) {
	for i, h := range t.Header {
		from := strings.TrimSpace(h)
		if to, ok := names[from]; ok {
			t.Header[i] = to
			if t.IsText(from) {
				delete(t.textColumns, from)
				t.MarkText(to)
			}
		}
	}
}

// Columns holds the resolved column positions used by the augment run
type Columns struct {
	Code   int
	Name   int
	Reason int
	Date   int
	Price  int
}

// ColumnNames names the columns to resolve
type ColumnNames struct {
	Code   string
	Name   string
	Reason string
	Date   string
	Price  string
}

// ResolveColumns finds the input columns and adds the output columns if missing
func (t *Table) ResolveColumns(names ColumnNames) (Columns, error) {
	cols := Columns{
		Code:   t.ColumnIndex(names.Code),
		Name:   t.ColumnIndex(names.Name),
		Reason: t.ColumnIndex(names.Reason),
	}

	var missing []string
	if cols.Code < 0 {
		missing = append(missing, names.Code)
	}
	if cols.Name < 0 {
		missing = append(missing, names.Name)
	}
	if cols.Reason < 0 {
		missing = append(missing, names.Reason)
	}
	if len(missing) > 0 {
		return Columns{}, fmt.Errorf("instrument table is missing columns: %s", strings.Join(missing, ", "))
	}

	cols.Date = t.EnsureColumn(names.Date)
	cols.Price = t.EnsureColumn(names.Price)
	return cols, nil
}

// InstrumentRow is one instrument read from the table
type InstrumentRow struct {
	Index           int
	Code            string
	Name            string
	DelistReason    string
	RedemptionDate  null.String
	RedemptionPrice null.String
}

// InstrumentRows reads every row. Existing output cells are carried over.
func (t *Table) InstrumentRows(cols Columns) []InstrumentRow {
	rows := make([]InstrumentRow, 0, len(t.Rows))
	for i := range t.Rows {
		row := InstrumentRow{
			Index:        i,
			Code:         t.Get(i, cols.Code),
			Name:         t.Get(i, cols.Name),
			DelistReason: t.Get(i, cols.Reason),
		}
		if v := t.Get(i, cols.Date); v != "" {
			row.RedemptionDate = null.StringFrom(v)
		}
		if v := t.Get(i, cols.Price); v != "" {
			row.RedemptionPrice = null.StringFrom(v)
		}
		rows = append(rows, row)
	}
	return rows
}

// Apply writes the row's output fields back. Invalid fields leave the cell as is.
func (t *Table) Apply(row InstrumentRow, cols Columns) {
	if row.RedemptionDate.Valid {
		t.Set(row.Index, cols.Date, row.RedemptionDate.String)
	}
	if row.RedemptionPrice.Valid {
		t.Set(row.Index, cols.Price, row.RedemptionPrice.String)
	}
}
