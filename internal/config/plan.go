package config

import (
	"fmt"
	"os"

	"wealth-planner/internal/model"
	"wealth-planner/internal/series"

	"gopkg.in/yaml.v3"
)

// PlanConfig describes a starting plan: both schedules, their editing
// limits, and the scalar simulation parameters.
//
// Steps are editor steps (months). HorizonYears * StepsPerYear is the
// horizon in steps.
type PlanConfig struct {
	Name         string                 `yaml:"name" json:"name"`
	Description  string                 `yaml:"description,omitempty" json:"description,omitempty"`
	HorizonYears int                    `yaml:"horizon_years" json:"horizon_years"`
	StepsPerYear int                    `yaml:"steps_per_year" json:"steps_per_year"`
	Snap         int                    `yaml:"snap" json:"snap"`
	MaxInflow    *float64               `yaml:"max_inflow,omitempty" json:"max_inflow,omitempty"`
	MaxOutflow   *float64               `yaml:"max_outflow,omitempty" json:"max_outflow,omitempty"`
	Cashflow     []CashflowPoint        `yaml:"cashflow,omitempty" json:"cashflow,omitempty"`
	Weights      []WeightsPoint         `yaml:"weights,omitempty" json:"weights,omitempty"`
	Params       model.SimulationParams `yaml:"params" json:"params"`
	MoneyType    string                 `yaml:"money_type,omitempty" json:"money_type,omitempty"`
	Scale        string                 `yaml:"scale,omitempty" json:"scale,omitempty"`
}

type CashflowPoint struct {
	Step  int     `yaml:"step" json:"step"`
	Value float64 `yaml:"value" json:"value"`
}

type WeightsPoint struct {
	Step   int     `yaml:"step" json:"step"`
	Bonds  float64 `yaml:"bonds" json:"bonds"`
	Stocks float64 `yaml:"stocks" json:"stocks"`
}

// DefaultPlan is the plan a new session starts from: save 5200 a year for
// 30 years, then spend 40000 a year for 30 more, 30/70 bonds/stocks
// throughout.
func DefaultPlan() PlanConfig {
	return PlanConfig{
		Name:         "default",
		HorizonYears: 60,
		StepsPerYear: 12,
		Snap:         12,
		MaxInflow:    model.Float(30000),
		MaxOutflow:   model.Float(-120000),
		Cashflow: []CashflowPoint{
			{Step: 0, Value: 5200},
			{Step: 360, Value: 5200},
			{Step: 361, Value: -40000},
			{Step: 720, Value: -40000},
		},
		Weights: []WeightsPoint{
			{Step: 0, Bonds: 0.3, Stocks: 0.7},
			{Step: 360, Bonds: 0.3, Stocks: 0.7},
			{Step: 720, Bonds: 0.3, Stocks: 0.7},
		},
		Params: model.SimulationParams{
			Iterations:    model.Int(1000),
			InitialWealth: model.Float(50000),
			Inflation:     model.Float(0.02),
			AssetCosts:    model.AssetValues{Cash: 0, Bonds: 0.002, Stocks: 0.004},
			Percentiles:   append([]float64(nil), model.DefaultPercentiles...),
		},
		MoneyType: string(model.MoneyReal),
		Scale:     string(model.ScaleLinear),
	}
}

// Horizon is the plan length in steps.
func (p PlanConfig) Horizon() int {
	return p.HorizonYears * p.StepsPerYear
}

// SimulationParams returns the scalar params with Horizon filled in.
func (p PlanConfig) SimulationParams() model.SimulationParams {
	out := p.Params.Clone()
	out.Horizon = p.Horizon()
	return out
}

// CashflowSeries returns the cashflow breakpoints as series points.
func (p PlanConfig) CashflowSeries() []series.Point[float64] {
	out := make([]series.Point[float64], len(p.Cashflow))
	for i, c := range p.Cashflow {
		out[i] = series.Point[float64]{Step: c.Step, Value: c.Value}
	}
	return out
}

// WeightsSeries returns the allocation breakpoints as series points.
func (p PlanConfig) WeightsSeries() []series.Point[model.Weights] {
	out := make([]series.Point[model.Weights], len(p.Weights))
	for i, w := range p.Weights {
		out[i] = series.Point[model.Weights]{Step: w.Step, Value: model.Weights{Bonds: w.Bonds, Stocks: w.Stocks}}
	}
	return out
}

// Validate checks the plan the same way a session would on creation.
func (p PlanConfig) Validate() error {
	if p.HorizonYears < 1 {
		return &model.ValidationError{Field: "horizon_years", Message: "must be >= 1"}
	}
	if p.StepsPerYear < 1 {
		return &model.ValidationError{Field: "steps_per_year", Message: "must be >= 1"}
	}
	if p.Snap < 1 {
		return &model.ValidationError{Field: "snap", Message: "must be >= 1"}
	}
	if p.MaxInflow == nil || *p.MaxInflow < 0 {
		return &model.ValidationError{Field: "max_inflow", Message: "is required and must be >= 0"}
	}
	if p.MaxOutflow == nil || *p.MaxOutflow > 0 {
		return &model.ValidationError{Field: "max_outflow", Message: "is required and must be <= 0"}
	}
	if err := p.SimulationParams().Validate(); err != nil {
		return err
	}
	// Schedules that end before or after the horizon are rescaled when a
	// session is built, so only their shape is checked here.
	if _, err := series.FromPoints[float64](series.Bounded{Min: *p.MaxOutflow, Max: *p.MaxInflow}, p.Snap, p.CashflowSeries()); err != nil {
		return fmt.Errorf("cashflow: %w", err)
	}
	if _, err := series.FromPoints[model.Weights](series.Allocation{}, p.Snap, p.WeightsSeries()); err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	if p.MoneyType != "" {
		if _, err := model.ParseMoneyType(p.MoneyType); err != nil {
			return err
		}
	}
	if p.Scale != "" {
		if _, err := model.ParseScale(p.Scale); err != nil {
			return err
		}
	}
	return nil
}

type planFileWrapper struct {
	Plan PlanConfig `yaml:"plan"`
}

// LoadPlanFile reads a plan preset. The file holds a top-level "plan" key.
func LoadPlanFile(path string) (PlanConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return PlanConfig{}, err
	}
	var w planFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return PlanConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return w.Plan, nil
}

// MergePlan overlays set fields from override onto base. Schedules are
// replaced whole, never merged point by point.
func MergePlan(base, override PlanConfig) PlanConfig {
	out := base
	out.Cashflow = append([]CashflowPoint(nil), base.Cashflow...)
	out.Weights = append([]WeightsPoint(nil), base.Weights...)
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.Description != "" {
		out.Description = override.Description
	}
	if override.HorizonYears != 0 {
		out.HorizonYears = override.HorizonYears
	}
	if override.StepsPerYear != 0 {
		out.StepsPerYear = override.StepsPerYear
	}
	if override.Snap != 0 {
		out.Snap = override.Snap
	}
	if override.MaxInflow != nil {
		out.MaxInflow = model.Float(*override.MaxInflow)
	}
	if override.MaxOutflow != nil {
		out.MaxOutflow = model.Float(*override.MaxOutflow)
	}
	if len(override.Cashflow) > 0 {
		out.Cashflow = append([]CashflowPoint(nil), override.Cashflow...)
	}
	if len(override.Weights) > 0 {
		out.Weights = append([]WeightsPoint(nil), override.Weights...)
	}
	out.Params = base.Params.Merge(override.Params)
	if override.MoneyType != "" {
		out.MoneyType = override.MoneyType
	}
	if override.Scale != "" {
		out.Scale = override.Scale
	}
	return out
}
