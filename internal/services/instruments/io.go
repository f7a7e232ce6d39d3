package instruments

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the worksheet name used for input and output workbooks
const DefaultSheet = "jsl"

const utf8BOM = "\ufeff"

// CheckFormat reports an error unless path has an extension Load and Save handle
func CheckFormat(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".csv":
		return nil
	default:
		return fmt.Errorf("unsupported table format %q (want .xlsx, .xlsm or .csv)", filepath.Ext(path))
	}
}

// Load reads a table from an .xlsx, .xlsm or .csv file. For workbooks the
// named sheet is used when present, otherwise the first sheet. Workbook
// columns holding numbers stored as text are marked as text columns so Save
// writes them back as text.
func Load(path string, sheet string) (*Table, error) {
	if err := CheckFormat(path); err != nil {
		return nil, err
	}

	var (
		records  [][]string
		textCols map[int]bool
		err      error
	)

	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		records, err = readCSV(path)
	} else {
		records, textCols, err = readWorkbook(path, sheet)
	}
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("table %s has no header row", path)
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}
	table := NewTable(header, records[1:])
	for j := range textCols {
		if j < len(header) {
			table.MarkText(header[j])
		}
	}
	return table, nil
}

func readWorkbook(path string, sheet string) ([][]string, map[int]bool, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	if sheet == "" || !slices.Contains(sheets, sheet) {
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s of %s: %w", sheet, path, err)
	}

	textCols, err := numericTextColumns(f, sheet, rows)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read cell types of %s: %w", path, err)
	}
	return rows, textCols, nil
}

// numericTextColumns finds the columns where a number-like value is stored
// as a string cell. Only number-like cells are type checked.
func numericTextColumns(f *excelize.File, sheet string, rows [][]string) (map[int]bool, error) {
	textCols := make(map[int]bool)
	for i := 1; i < len(rows); i++ {
		for j, v := range rows[i] {
			if textCols[j] || !isNumber(v) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			cellType, err := f.GetCellType(sheet, cell)
			if err != nil {
				return nil, err
			}
			if cellType == excelize.CellTypeSharedString || cellType == excelize.CellTypeInlineString {
				textCols[j] = true
			}
		}
	}
	return textCols, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv %s: %w", path, err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], utf8BOM)
	}
	return records, nil
}

// Save writes the table to an .xlsx, .xlsm or .csv file. In workbooks, cells
// that parse as numbers are stored as numbers except in textColumns, in
// columns the table marks as text and when the value has a leading zero.
func Save(t *Table, path string, sheet string, textColumns ...string) error {
	if err := CheckFormat(path); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return writeCSV(t, path)
	}
	return writeWorkbook(t, path, sheet, textColumns)
}

func writeWorkbook(t *Table, path string, sheet string, textColumns []string) error {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet %s: %w", sheet, err)
	}

	text := make(map[int]bool, len(textColumns))
	for _, name := range textColumns {
		if idx := t.ColumnIndex(name); idx >= 0 {
			text[idx] = true
		}
	}
	for j, name := range t.Header {
		if t.IsText(name) {
			text[j] = true
		}
	}

	if err := writeRow(f, sheet, 1, stringCells(t.Header)); err != nil {
		return err
	}
	for i, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = cellValue(v, text[j])
		}
		if err := writeRow(f, sheet, i+2, cells); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

func stringCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// cellValue stores numeric-looking text as a number so spreadsheet formulas
// work. Codes such as "002258" stay text.
func cellValue(v string, text bool) interface{} {
	if text || v == "" || hasLeadingZero(v) {
		return v
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
		return n
	}
	return v
}

func isNumber(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}

// hasLeadingZero reports a digit string like "0123" that a number would shorten
func hasLeadingZero(v string) bool {
	v = strings.TrimSpace(v)
	return len(v) > 1 && v[0] == '0' && v[1] >= '0' && v[1] <= '9'
}

func writeCSV(t *Table, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	// BOM so spreadsheet tools detect UTF-8 Chinese headers
	if _, err := file.WriteString(utf8BOM); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

// OutputPath derives the augmented output path from an input path: the last
// "in" in the file name becomes "au" (2025_01_02_in.xlsx -> 2025_01_02_au.xlsx).
// Names without "in" get an "_au" suffix. Macros are not carried over, so an
// .xlsm input gives an .xlsx output.
func OutputPath(input string) string {
	dir, base := filepath.Split(input)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if strings.EqualFold(ext, ".xlsm") {
		ext = ".xlsx"
	}

	if idx := strings.LastIndex(stem, "in"); idx >= 0 {
		stem = stem[:idx] + "au" + stem[idx+2:]
	} else {
		stem += "_au"
	}
	return dir + stem + ext
}
