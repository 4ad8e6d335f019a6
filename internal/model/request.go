package model

// Wire tags understood by the simulation service.
const (
	StepSizeAnnual      = "annual"
	SimulationCholesky  = "cholesky"
	InterpolationLinear = "linear"
	InterpolationFFill  = "ffill"
)

// CashflowPoint is one savings-rate breakpoint in service units.
type CashflowPoint struct {
	Step  float64 `json:"step"`
	Value float64 `json:"value"`
}

// WeightsPoint is one allocation breakpoint in service units.
type WeightsPoint struct {
	Step   float64 `json:"step"`
	Bonds  float64 `json:"bonds"`
	Stocks float64 `json:"stocks"`
}

// SimulationRequest is the JSON body POSTed to the simulation service.
type SimulationRequest struct {
	NumberOfSimulations       int             `json:"number_of_simulations"`
	EndStep                   float64         `json:"end_step"`
	InitialWealth             float64         `json:"initial_wealth"`
	Inflation                 float64         `json:"inflation"`
	AssetCosts                AssetValues     `json:"asset_costs"`
	AssetReturns              ReturnOverrides `json:"asset_returns"`
	SavingsRates              []CashflowPoint `json:"savings_rates"`
	Weights                   []WeightsPoint  `json:"weights"`
	StepSize                  string          `json:"step_size"`
	SimulationType            string          `json:"simulation_type"`
	WeightsInterpolation      string          `json:"weights_interpolation"`
	SavingsRatesInterpolation string          `json:"savings_rates_interpolation"`
	Percentiles               []float64       `json:"percentiles"`
}
