package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	tableStyle  = "TableStyleMedium2"
	minColWidth = 8.0
	maxColWidth = 80.0
	colWidthPad = 2.0
)

// Path returns the workbook path for label, "<prefix> <label>.xlsx".
func Path(prefix, label string) string {
	return prefix + " " + label + ".xlsx"
}

// Writer writes tables to xlsx workbooks.
type Writer struct {
	logger logrus.FieldLogger
}

func NewWriter(logger logrus.FieldLogger) *Writer {
	return &Writer{logger: logger}
}

// WriteIfNonEmpty writes table as a sheet of the workbook at path and reports whether
// anything was written. An empty table produces nothing. When the workbook already
// exists the sheet is added to it, replacing a sheet of the same name.
func (w *Writer) WriteIfNonEmpty(path string, table Table) (bool, error) {
	if table.Empty() {
		return false, nil
	}

	f, created, err := openOrCreate(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if err := prepareSheet(f, table.Sheet, created); err != nil {
		return false, fmt.Errorf("prepare sheet %s in %s: %w", table.Sheet, path, err)
	}
	if err := writeTable(f, table); err != nil {
		return false, fmt.Errorf("write table %s to %s: %w", table.Name, path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create folder for %s: %w", path, err)
	}
	if err := f.SaveAs(path); err != nil {
		return false, fmt.Errorf("save workbook %s: %w", path, err)
	}

	w.logger.WithFields(logrus.Fields{"path": path, "sheet": table.Sheet, "rows": len(table.Rows)}).Info("Wrote worksheet")
	return true, nil
}

func openOrCreate(path string) (*excelize.File, bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, false, fmt.Errorf("open workbook %s: %w", path, err)
		}
		return f, false, nil
	case errors.Is(err, os.ErrNotExist):
		return excelize.NewFile(), true, nil
	default:
		return nil, false, fmt.Errorf("stat workbook %s: %w", path, err)
	}
}

// prepareSheet leaves an empty sheet named sheet in f. A new workbook comes with a
// default sheet which is renamed rather than left behind.
func prepareSheet(f *excelize.File, sheet string, created bool) error {
	if created {
		return f.SetSheetName(f.GetSheetName(0), sheet)
	}

	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	if idx < 0 {
		_, err := f.NewSheet(sheet)
		return err
	}

	// table names are workbook-wide and outlive DeleteSheet
	tables, err := f.GetTables(sheet)
	if err != nil {
		return err
	}
	for _, table := range tables {
		if err := f.DeleteTable(table.Name); err != nil {
			return err
		}
	}

	// the replacement is created first, a workbook cannot lose its last sheet
	const replacement = "replacement"
	if _, err := f.NewSheet(replacement); err != nil {
		return err
	}
	if err := f.DeleteSheet(sheet); err != nil {
		return err
	}
	return f.SetSheetName(replacement, sheet)
}

func writeTable(f *excelize.File, table Table) error {
	header := make([]any, len(table.Columns))
	widths := make([]float64, len(table.Columns))
	for i, column := range table.Columns {
		header[i] = column
		widths[i] = cellWidth(column)
	}
	if err := f.SetSheetRow(table.Sheet, "A1", &header); err != nil {
		return err
	}

	for r, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(table.Sheet, cell, &values); err != nil {
			return err
		}
		for c, value := range row {
			if c < len(widths) {
				widths[c] = max(widths[c], cellWidth(value))
			}
		}
	}

	lastCell, err := excelize.CoordinatesToCellName(len(table.Columns), len(table.Rows)+1)
	if err != nil {
		return err
	}
	showRowStripes := true
	if err := f.AddTable(table.Sheet, &excelize.Table{
		Range:          "A1:" + lastCell,
		Name:           table.Name,
		StyleName:      tableStyle,
		ShowRowStripes: &showRowStripes,
	}); err != nil {
		return err
	}

	for i, width := range widths {
		column, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(table.Sheet, column, column, min(width+colWidthPad, maxColWidth)); err != nil {
			return err
		}
	}

	return f.SetPanes(table.Sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// cellWidth approximates the rendered width of value in characters.
func cellWidth(value any) float64 {
	var text string
	switch v := value.(type) {
	case string:
		text = v
	case time.Time:
		text = "2006-01-02 15:04"
	default:
		text = fmt.Sprint(v)
	}
	return max(float64(utf8.RuneCountInString(text)), minColWidth)
}

// timeCell leaves unset directory timestamps blank instead of writing year 1.
func timeCell(t time.Time) any {
	if t.IsZero() {
		return ""
	}
	return t
}
