package report

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// WriteLedgerCSV writes the ledger to path.
func WriteLedgerCSV(path string, l Ledger) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteLedger(f, l)
}

func WriteLedger(out io.Writer, l Ledger) error {
	w := csv.NewWriter(out)

	header := []string{"index", "step", "year", "money_type", "destitution", "mean"}
	for _, label := range l.Labels {
		header = append(header, "p"+label)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range l.Rows {
		row := []string{
			strconv.Itoa(r.Index),
			strconv.Itoa(r.Step),
			fmtFloat(r.Year),
			string(l.MoneyType),
			fmtFloat(r.Destitution),
			fmtMoney(r.Mean),
		}
		for _, label := range l.Labels {
			row = append(row, fmtMoney(r.Percentiles[label]))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteScheduleCSV writes the densified schedules to path.
func WriteScheduleCSV(path string, rows []ScheduleRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteSchedule(f, rows)
}

func WriteSchedule(out io.Writer, rows []ScheduleRow) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"step", "year", "cashflow", "bonds", "stocks", "cash"}); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{
			strconv.Itoa(r.Step),
			fmtFloat(r.Year),
			fmtMoney(r.Cashflow),
			fmtFloat(r.Bonds),
			fmtFloat(r.Stocks),
			fmtFloat(r.Cash),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

// fmtMoney rounds half away from zero to cents.
func fmtMoney(x float64) string {
	return decimal.NewFromFloat(x).Round(2).StringFixed(2)
}
