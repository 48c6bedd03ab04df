package xlsx

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ledger/internal/core"
)

func readRows(t *testing.T, buf *bytes.Buffer, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{sheet}, f.GetSheetList())
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestRenderExpenses(t *testing.T) {
	entries := []core.Entry{{
		ID:   "e1",
		Kind: core.Expense,
		Payload: core.Payload{
			Amount:      core.NewAmount(42.5),
			Source:      "Market",
			Category:    "Food",
			Icon:        "🛒",
			Description: "groceries",
			Date:        core.NewDate(2024, 3, 9),
		},
	}}

	var buf bytes.Buffer
	require.NoError(t, New().Render(&buf, core.Expense, entries))

	rows := readRows(t, &buf, "Expenses")
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Amount", "Source", "Category", "Icon", "Description", "Date"}, rows[0])
	assert.Equal(t, []string{"42.5", "Market", "Food", "🛒", "groceries", "2024-03-09"}, rows[1])
}

func TestRenderIncomeHasNoCategory(t *testing.T) {
	var bad core.Amount
	require.NoError(t, json.Unmarshal([]byte(`"n/a"`), &bad))
	entries := []core.Entry{
		{ID: "i1", Kind: core.Income, Payload: core.Payload{Amount: core.NewAmount(1000), Source: "Salary", Date: core.NewDate(2024, 1, 31)}},
		{ID: "i2", Kind: core.Income, Payload: core.Payload{Amount: bad, Source: "Unknown"}},
	}

	var buf bytes.Buffer
	require.NoError(t, New().Render(&buf, core.Income, entries))

	rows := readRows(t, &buf, "Income")
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Amount", "Source", "Icon", "Description", "Date"}, rows[0])
	assert.Equal(t, "1000", rows[1][0])
	assert.Equal(t, "2024-01-31", rows[1][4])
	assert.Equal(t, `"n/a"`, rows[2][0])
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New().Render(&buf, core.Income, nil))
	rows := readRows(t, &buf, "Income")
	assert.Len(t, rows, 1)
}
