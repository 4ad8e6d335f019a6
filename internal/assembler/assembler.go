// Package assembler turns the current schedules and scalar parameters into
// the simulation service's request body.
package assembler

import (
	"fmt"

	"wealth-planner/internal/model"
	"wealth-planner/internal/series"
)

// DefaultStepsPerUnit is the number of editor steps (months) per service
// step (years).
const DefaultStepsPerUnit = 12

// Layout describes how editor steps map to service steps.
type Layout struct {
	StepsPerUnit int
}

// DefaultLayout is monthly editing against an annual service.
func DefaultLayout() Layout {
	return Layout{StepsPerUnit: DefaultStepsPerUnit}
}

func (l Layout) divisor() float64 {
	if l.StepsPerUnit < 1 {
		return DefaultStepsPerUnit
	}
	return float64(l.StepsPerUnit)
}

// ToUnits converts an editor step to service units.
func (l Layout) ToUnits(step int) float64 {
	return float64(step) / l.divisor()
}

// Build assembles a request. It is pure and deterministic. Params are
// validated first; an error means no request was produced.
func Build(cashflow []series.Point[float64], weights []series.Point[model.Weights], params model.SimulationParams, layout Layout) (*model.SimulationRequest, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(cashflow) < 2 {
		return nil, &model.ValidationError{Field: "savings_rates", Message: "need at least two breakpoints"}
	}
	if len(weights) < 2 {
		return nil, &model.ValidationError{Field: "weights", Message: "need at least two breakpoints"}
	}

	req := &model.SimulationRequest{
		NumberOfSimulations:       *params.Iterations,
		EndStep:                   layout.ToUnits(params.Horizon),
		InitialWealth:             *params.InitialWealth,
		Inflation:                 *params.Inflation,
		AssetCosts:                params.AssetCosts,
		AssetReturns:              params.Clone().AssetReturns,
		SavingsRates:              make([]model.CashflowPoint, 0, len(cashflow)),
		Weights:                   make([]model.WeightsPoint, 0, len(weights)),
		StepSize:                  model.StepSizeAnnual,
		SimulationType:            model.SimulationCholesky,
		WeightsInterpolation:      model.InterpolationLinear,
		SavingsRatesInterpolation: model.InterpolationLinear,
		Percentiles:               params.PercentilesOrDefault(),
	}
	for _, p := range cashflow {
		req.SavingsRates = append(req.SavingsRates, model.CashflowPoint{
			Step:  layout.ToUnits(p.Step),
			Value: p.Value,
		})
	}
	for _, p := range weights {
		if !p.Value.Valid() {
			return nil, &model.ValidationError{
				Field:   "weights",
				Message: fmt.Sprintf("invalid allocation at step %d", p.Step),
			}
		}
		req.Weights = append(req.Weights, model.WeightsPoint{
			Step:   layout.ToUnits(p.Step),
			Bonds:  p.Value.Bonds,
			Stocks: p.Value.Stocks,
		})
	}
	return req, nil
}
