package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"ledger/internal/core"
	"ledger/internal/sheets"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Renderer writes entries to a single-sheet workbook.
type Renderer struct{}

func New() *Renderer {
	return &Renderer{}
}

func (r *Renderer) ContentType() string {
	return ContentType
}

func (r *Renderer) Render(w io.Writer, kind core.Kind, entries []core.Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheets.SheetName(kind)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	cols := sheets.Columns(kind)
	for i, col := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col.Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, col.Width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	for row, e := range entries {
		for i, col := range cols {
			cell, err := excelize.CoordinatesToCellName(i+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, col.Value(e)); err != nil {
				return fmt.Errorf("write row %d: %w", row+2, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
