// Package export selects and formats transactions for CSV/XLSX download.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"expense-tracker/internal/models"
	"expense-tracker/internal/util"

	"github.com/xuri/excelize/v2"
)

const (
	RangeAll      = "all"
	RangeLast30   = "last30"
	RangeLast90   = "last90"
	RangeThisYear = "thisYear"
	RangeCustom   = "custom"

	dateLayout = "2006-01-02"
	sheetName  = "Transactions"
)

// Header is the column order of every export.
var Header = []string{"Date", "Type", "Amount", "Category", "Note", "Tags", "Created At"}

// Options select which transactions are exported.
type Options struct {
	Range string // all, last30, last90, thisYear, custom
	Start string // YYYY-MM-DD, custom only
	End   string // YYYY-MM-DD, custom only
	Type  string // all, income, expense
}

// Validate normalises empty fields and checks the combination.
func (o *Options) Validate() error {
	if o.Range == "" {
		o.Range = RangeAll
	}
	if o.Type == "" {
		o.Type = "all"
	}
	switch o.Range {
	case RangeAll, RangeLast30, RangeLast90, RangeThisYear:
	case RangeCustom:
		if o.Start == "" || o.End == "" {
			return errors.New("custom range needs start and end")
		}
		start, err := time.Parse(dateLayout, o.Start)
		if err != nil {
			return fmt.Errorf("invalid start date: %w", err)
		}
		end, err := time.Parse(dateLayout, o.End)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
		if end.Before(start) {
			return errors.New("end date is before start date")
		}
	default:
		return fmt.Errorf("unknown range %q", o.Range)
	}
	switch o.Type {
	case "all", models.TypeIncome, models.TypeExpense:
	default:
		return fmt.Errorf("unknown type %q", o.Type)
	}
	return nil
}

// Filter returns the transactions matching opts, keeping their order.
// Dates are compared as YYYY-MM-DD strings, so malformed dates only appear in "all".
func Filter(txs []models.Transaction, opts Options, now time.Time) []models.Transaction {
	from, to := bounds(opts, now)
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if opts.Type != "" && opts.Type != "all" && tx.Type != opts.Type {
			continue
		}
		if from != "" && tx.Date < from {
			continue
		}
		if to != "" && tx.Date > to {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func bounds(opts Options, now time.Time) (from, to string) {
	today := now.Format(dateLayout)
	switch opts.Range {
	case RangeLast30:
		return now.AddDate(0, 0, -30).Format(dateLayout), today
	case RangeLast90:
		return now.AddDate(0, 0, -90).Format(dateLayout), today
	case RangeThisYear:
		return fmt.Sprintf("%d-01-01", now.Year()), fmt.Sprintf("%d-12-31", now.Year())
	case RangeCustom:
		return opts.Start, opts.End
	}
	return "", ""
}

// Rows renders transactions as string rows matching Header.
func Rows(txs []models.Transaction, categories map[uint]string) [][]string {
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		name, ok := categories[tx.CategoryID]
		if !ok {
			name = "Unknown"
		}
		rows = append(rows, []string{
			tx.Date,
			tx.Type,
			tx.Amount.StringFixed(2),
			name,
			tx.Note,
			strings.Join(util.SplitTags(tx.Tags), ", "),
			tx.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows
}

// WriteCSV writes a UTF-8 BOM, the header and rows.
func WriteCSV(w io.Writer, rows [][]string) error {
	// UTF-8 BOM（让 Excel 正确识别非 ASCII 字符）
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteXLSX writes a single sheet workbook. Amounts are stored as numbers.
func WriteXLSX(w io.Writer, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			var err error
			if c == 2 {
				err = f.SetCellFloat(sheetName, cell, parseAmount(v), 2, 64)
			} else {
				err = f.SetCellStr(sheetName, cell, v)
			}
			if err != nil {
				return err
			}
		}
	}

	// 设置列宽
	widths := []float64{12, 10, 12, 20, 30, 20, 22}
	for i, wd := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, wd); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func parseAmount(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// FileName returns "transactions_<range>_<date>.<ext>".
func FileName(opts Options, now time.Time, ext string) string {
	return fmt.Sprintf("transactions_%s_%s.%s", opts.Range, now.Format("20060102"), ext)
}
