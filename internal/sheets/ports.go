package sheets

import (
	"io"

	"ledger/internal/core"
)

// Ports for outbound adapters.
type (
	// Renderer writes one kind's decrypted entries as a document.
	Renderer interface {
		Render(w io.Writer, kind core.Kind, entries []core.Entry) error
		ContentType() string
	}
)

// Column is one exported field.
type Column struct {
	Header string
	Width  float64
	Value  func(e core.Entry) any
}

// Columns lists the exported fields for kind. Only expenses carry a category.
func Columns(kind core.Kind) []Column {
	cols := []Column{
		{Header: "Amount", Width: 12, Value: amountValue},
		{Header: "Source", Width: 24, Value: func(e core.Entry) any { return e.Source }},
	}
	if kind == core.Expense {
		cols = append(cols, Column{Header: "Category", Width: 18, Value: func(e core.Entry) any { return e.Category }})
	}
	return append(cols,
		Column{Header: "Icon", Width: 8, Value: func(e core.Entry) any { return e.Icon }},
		Column{Header: "Description", Width: 36, Value: func(e core.Entry) any { return e.Description }},
		Column{Header: "Date", Width: 12, Value: dateValue},
	)
}

// SheetName is the worksheet title for kind.
func SheetName(kind core.Kind) string {
	if kind == core.Expense {
		return "Expenses"
	}
	return "Income"
}

// FileName is the download name for kind.
func FileName(kind core.Kind) string {
	if kind == core.Expense {
		return "expenses.xlsx"
	}
	return "income.xlsx"
}

func amountValue(e core.Entry) any {
	if e.Amount.Valid {
		return e.Amount.Value
	}
	raw, err := e.Amount.MarshalJSON()
	if err != nil || string(raw) == "null" {
		return ""
	}
	return string(raw)
}

func dateValue(e core.Entry) any {
	if e.Date.IsZero() {
		return ""
	}
	return e.Date.Format("2006-01-02")
}
