// Package report writes simulation results and schedules as CSV.
package report

import (
	"math"

	"wealth-planner/internal/model"
	"wealth-planner/internal/series"
)

// LedgerRow is one time step of a simulation result for one money type.
// This is the file people open in a spreadsheet to see "what happened".
type LedgerRow struct {
	Index       int
	Step        int
	Year        float64
	Destitution float64
	Mean        float64
	// Percentiles is keyed by canonical label ("5", "50", ...).
	Percentiles map[string]float64
}

// Ledger is a result flattened for one money type.
type Ledger struct {
	MoneyType model.MoneyType
	Labels    []string
	Rows      []LedgerRow
}

// BuildLedger flattens res. Steps are converted back to editor units with
// stepsPerUnit.
func BuildLedger(res *model.SimulationResult, mt model.MoneyType, stepsPerUnit int) Ledger {
	if stepsPerUnit < 1 {
		stepsPerUnit = 1
	}
	l := Ledger{MoneyType: mt}
	if res == nil {
		return l
	}
	l.Labels = res.Money(mt).Labels()
	l.Rows = make([]LedgerRow, 0, res.Len())
	for i := 0; i < res.Len(); i++ {
		v, _ := res.At(i, mt)
		l.Rows = append(l.Rows, LedgerRow{
			Index:       i,
			Step:        int(math.Round(v.Timestep * float64(stepsPerUnit))),
			Year:        v.Timestep,
			Destitution: v.Destitution,
			Mean:        v.Mean,
			Percentiles: v.Percentiles,
		})
	}
	return l
}

// ScheduleRow is one step of the densified cashflow and allocation schedules.
type ScheduleRow struct {
	Step     int
	Year     float64
	Cashflow float64
	Bonds    float64
	Stocks   float64
	Cash     float64
}

// BuildSchedule samples both schedules every `every` steps, the way the
// simulation service interpolates them.
func BuildSchedule(cashflow series.Series[float64], weights series.Series[model.Weights], every, stepsPerUnit int) []ScheduleRow {
	if stepsPerUnit < 1 {
		stepsPerUnit = 1
	}
	dense := cashflow.Densify(every)
	out := make([]ScheduleRow, len(dense))
	for i, p := range dense {
		w := weights.ValueAt(float64(p.Step))
		out[i] = ScheduleRow{
			Step:     p.Step,
			Year:     float64(p.Step) / float64(stepsPerUnit),
			Cashflow: p.Value,
			Bonds:    w.Bonds,
			Stocks:   w.Stocks,
			Cash:     w.Cash(),
		}
	}
	return out
}
