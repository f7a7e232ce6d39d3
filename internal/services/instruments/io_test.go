package instruments

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSaveLoad_Workbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2025_01_02_au.xlsx")
	table := NewTable(
		[]string{"代码", "名称", "最后交易价格", "强赎时间", "强赎价格"},
		[][]string{
			{"128046", "利尔转债", "131.2", "2021-01-16", "128.66"},
			{"110030", "格力转债", "0", "", ""},
		},
	)

	require.NoError(t, Save(table, path, "jsl", "代码"))

	loaded, err := Load(path, "jsl")
	require.NoError(t, err)
	assert.Equal(t, table.Header, loaded.Header)
	assert.Equal(t, "128046", loaded.Get(0, 0))
	assert.Equal(t, "利尔转债", loaded.Get(0, 1))
	assert.Equal(t, "2021-01-16", loaded.Get(0, 3))
	assert.Equal(t, "128.66", loaded.Get(0, 4))
	assert.Equal(t, "", loaded.Get(1, 3))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"jsl"}, f.GetSheetList())

	codeType, err := f.GetCellType("jsl", "A2")
	require.NoError(t, err)
	priceType, err := f.GetCellType("jsl", "E2")
	require.NoError(t, err)
	assert.NotEqual(t, codeType, priceType)
}

func TestLoad_WorkbookFallsBackToFirstSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.xlsx")
	table := NewTable([]string{"代码"}, [][]string{{"128046"}})
	require.NoError(t, Save(table, path, "other", "代码"))

	loaded, err := Load(path, "jsl")
	require.NoError(t, err)
	assert.Equal(t, "128046", loaded.Get(0, 0))
}

func TestSaveLoad_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "bonds_au.csv")
	table := NewTable(
		[]string{"代码", "名称", "退市原因"},
		[][]string{{"002046", "利尔转债", "强赎"}, {"110030", "格力,转债", "到期"}},
	)

	require.NoError(t, Save(table, path, ""))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), utf8BOM))

	loaded, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, table.Header, loaded.Header)
	assert.Equal(t, table.Rows, loaded.Rows)
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	_, err := Load("bonds.json", "")
	require.Error(t, err)
	assert.Error(t, Save(NewTable(nil, nil), filepath.Join(t.TempDir(), "x.json"), ""))
}

func TestCheckFormat(t *testing.T) {
	assert.NoError(t, CheckFormat("a.xlsx"))
	assert.NoError(t, CheckFormat("a.XLSM"))
	assert.NoError(t, CheckFormat("a.csv"))
	assert.Error(t, CheckFormat("a.xls"))
	assert.Error(t, CheckFormat("a"))
}

func stringCellTypes() []excelize.CellType {
	return []excelize.CellType{excelize.CellTypeSharedString, excelize.CellTypeInlineString}
}

func TestSaveLoad_TextCodesSurviveSecondSave(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "2025_01_02_in.xlsx")
	outPath := filepath.Join(dir, "2025_01_02_au.xlsx")

	// Written the way the delisted download writes it
	table := NewTable(
		[]string{"代码", "名称", "正股代码", "转股价"},
		[][]string{
			{"128046", "利尔转债", "002258", "9.08"},
			{"113008", "电气转债", "601727", "7.15"},
		},
	)
	require.NoError(t, Save(table, inPath, "jsl", "代码", "正股代码"))

	loaded, err := Load(inPath, "jsl")
	require.NoError(t, err)
	assert.True(t, loaded.IsText("代码"))
	assert.True(t, loaded.IsText("正股代码"))
	assert.False(t, loaded.IsText("转股价"))

	// Saved again naming only the code column, as augment does
	require.NoError(t, Save(loaded, outPath, "jsl", "代码"))

	again, err := Load(outPath, "jsl")
	require.NoError(t, err)
	assert.Equal(t, "002258", again.Get(0, 2))
	assert.Equal(t, "601727", again.Get(1, 2))
	assert.Equal(t, "9.08", again.Get(0, 3))

	f, err := excelize.OpenFile(outPath)
	require.NoError(t, err)
	defer f.Close()

	stockType, err := f.GetCellType("jsl", "C3")
	require.NoError(t, err)
	assert.Contains(t, stringCellTypes(), stockType)

	priceType, err := f.GetCellType("jsl", "D2")
	require.NoError(t, err)
	assert.NotContains(t, stringCellTypes(), priceType)
}

func TestSave_LeadingZeroStaysText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "from_csv.xlsx")
	table := NewTable([]string{"正股代码", "价格"}, [][]string{{"000001", "0.5"}, {"0", "10"}})

	require.NoError(t, Save(table, path, "jsl"))

	loaded, err := Load(path, "jsl")
	require.NoError(t, err)
	assert.Equal(t, "000001", loaded.Get(0, 0))
	assert.Equal(t, "0.5", loaded.Get(0, 1))
	assert.Equal(t, "0", loaded.Get(1, 0))
}

func TestSaveLoad_MacroWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2025_01_02_in.xlsm")
	table := NewTable([]string{"代码", "强赎价格"}, [][]string{{"128046", "128.66"}})

	require.NoError(t, Save(table, path, "jsl", "代码"))

	loaded, err := Load(path, "jsl")
	require.NoError(t, err)
	assert.Equal(t, "128046", loaded.Get(0, 0))
	assert.Equal(t, "128.66", loaded.Get(0, 1))

	out := OutputPath(path)
	assert.Equal(t, ".xlsx", filepath.Ext(out))
	require.NoError(t, Save(loaded, out, "jsl", "代码"))
}

func TestLoad_EmptyCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := Load(path, "")
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.xlsx"), "jsl")
	require.Error(t, err)
}
