package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyType selects which wealth series is displayed.
// Keep these values stable; they are part of the API.
type MoneyType string

const (
	MoneyNominal MoneyType = "nominal"
	MoneyReal    MoneyType = "real"
)

func ParseMoneyType(s string) (MoneyType, error) {
	switch MoneyType(strings.ToLower(strings.TrimSpace(s))) {
	case MoneyNominal:
		return MoneyNominal, nil
	case MoneyReal:
		return MoneyReal, nil
	}
	return "", &ValidationError{Field: "money_type", Message: fmt.Sprintf("unknown value %q, expected real or nominal", s)}
}

// Scale is the wealth axis scale.
type Scale string

const (
	ScaleLinear Scale = "linear"
	ScaleLog    Scale = "log"
)

func ParseScale(s string) (Scale, error) {
	switch Scale(strings.ToLower(strings.TrimSpace(s))) {
	case ScaleLinear:
		return ScaleLinear, nil
	case ScaleLog:
		return ScaleLog, nil
	}
	return "", &ValidationError{Field: "scale", Message: fmt.Sprintf("unknown value %q, expected linear or log", s)}
}

// MoneySeries is the wealth distribution for one money type.
// Percentiles is keyed by the label the service used ("5.0", "50", ...).
type MoneySeries struct {
	Mean        []float64            `json:"mean"`
	Percentiles map[string][]float64 `json:"percentiles"`
	FinalMean   float64              `json:"final_mean"`
	FinalMedian float64              `json:"final_median"`
	FinalStd    float64              `json:"final_std"`
	FinalMin    float64              `json:"final_min"`
	FinalMax    float64              `json:"final_max"`
}

// SimulationResult matches the JSON shape returned by the simulation service.
// Timesteps are in service units (years).
type SimulationResult struct {
	Timesteps                 []float64   `json:"timesteps"`
	Destitution               []float64   `json:"destitution"`
	Real                      MoneySeries `json:"real"`
	Nominal                   MoneySeries `json:"nominal"`
	SimulationTime            float64     `json:"simulation_time"`
	SimulationTimePerTimestep float64     `json:"simulation_time_per_timestep"`
	SimulationTimePerPath     float64     `json:"simulation_time_per_path"`
	TotalParameters           int64       `json:"total_parameters"`
	DestitutionArea           float64     `json:"destitution_area"`
}

// Money returns the series for mt.
func (r *SimulationResult) Money(mt MoneyType) MoneySeries {
	if mt == MoneyNominal {
		return r.Nominal
	}
	return r.Real
}

// Len is the number of time steps in the result.
func (r *SimulationResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Timesteps)
}

// StepView is the slice of a result at one time step.
type StepView struct {
	Timestep    float64            `json:"timestep"`
	Destitution float64            `json:"destitution"`
	Mean        float64            `json:"mean"`
	Percentiles map[string]float64 `json:"percentiles"`
}

// At returns the view at index i for money type mt. Labels are canonical
// (see PercentileLabel).
func (r *SimulationResult) At(i int, mt MoneyType) (StepView, bool) {
	if r == nil || i < 0 || i >= len(r.Timesteps) {
		return StepView{}, false
	}
	ms := r.Money(mt)
	v := StepView{
		Timestep:    r.Timesteps[i],
		Destitution: at(r.Destitution, i),
		Mean:        at(ms.Mean, i),
		Percentiles: make(map[string]float64, len(ms.Percentiles)),
	}
	for label, vals := range ms.Percentiles {
		v.Percentiles[CanonicalLabel(label)] = at(vals, i)
	}
	return v, true
}

// Percentile looks up the series for percentile p regardless of how the
// service formatted the key ("5", "5.0", "5.00").
func (ms MoneySeries) Percentile(p float64) ([]float64, bool) {
	want := decimal.NewFromFloat(p)
	for label, vals := range ms.Percentiles {
		d, err := decimal.NewFromString(strings.TrimSpace(label))
		if err != nil {
			continue
		}
		if d.Equal(want) {
			return vals, true
		}
	}
	return nil, false
}

// Labels returns the percentile labels sorted numerically, canonicalized.
func (ms MoneySeries) Labels() []string {
	type lv struct {
		label string
		d     decimal.Decimal
	}
	out := make([]lv, 0, len(ms.Percentiles))
	for label := range ms.Percentiles {
		d, err := decimal.NewFromString(strings.TrimSpace(label))
		if err != nil {
			continue
		}
		out = append(out, lv{label: d.String(), d: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].d.LessThan(out[j].d) })
	labels := make([]string, len(out))
	for i, x := range out {
		labels[i] = x.label
	}
	return labels
}

// PercentileLabel formats p the way labels are exposed by this module: "5",
// "50", "97.5".
func PercentileLabel(p float64) string {
	return decimal.NewFromFloat(p).String()
}

// CanonicalLabel rewrites a service label into PercentileLabel form. Labels
// that are not numbers are returned unchanged.
func CanonicalLabel(label string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(label))
	if err != nil {
		return label
	}
	return d.String()
}

func at(xs []float64, i int) float64 {
	if i < 0 || i >= len(xs) {
		return 0
	}
	return xs[i]
}
