package model

import (
	"fmt"
	"math"
)

// DefaultPercentiles are requested when a plan does not name its own.
var DefaultPercentiles = []float64{5, 25, 50, 75, 95}

// AssetValues holds one number per asset class.
// Units: fraction per year (0.01 = 1%).
type AssetValues struct {
	Cash   float64 `json:"cash" yaml:"cash"`
	Bonds  float64 `json:"bonds" yaml:"bonds"`
	Stocks float64 `json:"stocks" yaml:"stocks"`
}

// ReturnOverrides replaces the service's expected returns per asset.
// A nil field means "use the service default".
type ReturnOverrides struct {
	Cash   *float64 `json:"cash,omitempty" yaml:"cash,omitempty"`
	Bonds  *float64 `json:"bonds,omitempty" yaml:"bonds,omitempty"`
	Stocks *float64 `json:"stocks,omitempty" yaml:"stocks,omitempty"`
}

// SimulationParams is the scalar configuration of a plan.
// Iterations, InitialWealth and Inflation are required; they are pointers so
// that "absent" can be told apart from zero.
// Units:
// - Horizon: steps (months)
// - Inflation, AssetCosts, AssetReturns: fraction per year
type SimulationParams struct {
	Iterations    *int            `json:"iterations,omitempty" yaml:"iterations,omitempty"`
	InitialWealth *float64        `json:"initial_wealth,omitempty" yaml:"initial_wealth,omitempty"`
	Inflation     *float64        `json:"inflation,omitempty" yaml:"inflation,omitempty"`
	AssetCosts    AssetValues     `json:"asset_costs" yaml:"asset_costs"`
	AssetReturns  ReturnOverrides `json:"asset_returns" yaml:"asset_returns"`
	Percentiles   []float64       `json:"percentiles,omitempty" yaml:"percentiles,omitempty"`
	Horizon       int             `json:"horizon" yaml:"horizon"`
}

// Validate checks required fields and ranges. The first problem found is
// returned as a *ValidationError.
func (p SimulationParams) Validate() error {
	if p.Iterations == nil {
		return &ValidationError{Field: "iterations", Message: "is required"}
	}
	if *p.Iterations < 1 {
		return &ValidationError{Field: "iterations", Message: "must be >= 1"}
	}
	if p.InitialWealth == nil {
		return &ValidationError{Field: "initial_wealth", Message: "is required"}
	}
	if *p.InitialWealth < 0 || !finite(*p.InitialWealth) {
		return &ValidationError{Field: "initial_wealth", Message: "must be a finite number >= 0"}
	}
	if p.Inflation == nil {
		return &ValidationError{Field: "inflation", Message: "is required"}
	}
	if *p.Inflation < 0 || !finite(*p.Inflation) {
		return &ValidationError{Field: "inflation", Message: "must be a finite number >= 0"}
	}
	if p.Horizon < 1 {
		return &ValidationError{Field: "horizon", Message: "must be >= 1 step"}
	}
	costs := []struct {
		name string
		v    float64
	}{
		{"asset_costs.cash", p.AssetCosts.Cash},
		{"asset_costs.bonds", p.AssetCosts.Bonds},
		{"asset_costs.stocks", p.AssetCosts.Stocks},
	}
	for _, c := range costs {
		if c.v < 0 || c.v > 1 || !finite(c.v) {
			return &ValidationError{Field: c.name, Message: "must be in [0, 1]"}
		}
	}
	returns := []struct {
		name string
		v    *float64
	}{
		{"asset_returns.cash", p.AssetReturns.Cash},
		{"asset_returns.bonds", p.AssetReturns.Bonds},
		{"asset_returns.stocks", p.AssetReturns.Stocks},
	}
	for _, r := range returns {
		if r.v != nil && (*r.v < 0 || *r.v > 1 || !finite(*r.v)) {
			return &ValidationError{Field: r.name, Message: "must be in [0, 1]"}
		}
	}
	for _, pc := range p.Percentiles {
		if pc < 0 || pc > 100 || !finite(pc) {
			return &ValidationError{Field: "percentiles", Message: fmt.Sprintf("%v is outside [0, 100]", pc)}
		}
	}
	return nil
}

// PercentilesOrDefault returns the requested percentiles, falling back to
// DefaultPercentiles.
func (p SimulationParams) PercentilesOrDefault() []float64 {
	if len(p.Percentiles) == 0 {
		return append([]float64(nil), DefaultPercentiles...)
	}
	return append([]float64(nil), p.Percentiles...)
}

// Clone returns a deep copy so callers can hand params across goroutines.
func (p SimulationParams) Clone() SimulationParams {
	out := p
	if p.Iterations != nil {
		v := *p.Iterations
		out.Iterations = &v
	}
	if p.InitialWealth != nil {
		v := *p.InitialWealth
		out.InitialWealth = &v
	}
	if p.Inflation != nil {
		v := *p.Inflation
		out.Inflation = &v
	}
	out.AssetReturns = ReturnOverrides{
		Cash:   clonePtr(p.AssetReturns.Cash),
		Bonds:  clonePtr(p.AssetReturns.Bonds),
		Stocks: clonePtr(p.AssetReturns.Stocks),
	}
	out.Percentiles = append([]float64(nil), p.Percentiles...)
	return out
}

// Merge overlays the set fields of override onto p.
func (p SimulationParams) Merge(override SimulationParams) SimulationParams {
	out := p.Clone()
	if override.Iterations != nil {
		v := *override.Iterations
		out.Iterations = &v
	}
	if override.InitialWealth != nil {
		v := *override.InitialWealth
		out.InitialWealth = &v
	}
	if override.Inflation != nil {
		v := *override.Inflation
		out.Inflation = &v
	}
	if override.AssetCosts != (AssetValues{}) {
		out.AssetCosts = override.AssetCosts
	}
	if override.AssetReturns.Cash != nil {
		out.AssetReturns.Cash = clonePtr(override.AssetReturns.Cash)
	}
	if override.AssetReturns.Bonds != nil {
		out.AssetReturns.Bonds = clonePtr(override.AssetReturns.Bonds)
	}
	if override.AssetReturns.Stocks != nil {
		out.AssetReturns.Stocks = clonePtr(override.AssetReturns.Stocks)
	}
	if len(override.Percentiles) > 0 {
		out.Percentiles = append([]float64(nil), override.Percentiles...)
	}
	if override.Horizon != 0 {
		out.Horizon = override.Horizon
	}
	return out
}

// Int and Float return pointers for literal params.
func Int(v int) *int { return &v }

func Float(v float64) *float64 { return &v }

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
