package session

import (
	"wealth-planner/internal/editor"
	"wealth-planner/internal/model"
	"wealth-planner/internal/results"
	"wealth-planner/internal/series"
)

// Event types. Result-side types match results.Update kinds.
const (
	EventChange  = "change"
	EventResult  = "result"
	EventError   = "error"
	EventDisplay = "display"
	EventClosed  = "closed"
)

// Event is pushed to session subscribers. Change events carry a snapshot of
// the editable state; result, error and display events carry the result
// view.
type Event struct {
	Type       string        `json:"type"`
	Editor     string        `json:"editor,omitempty"`
	Op         string        `json:"op,omitempty"`
	Generation uint64        `json:"generation,omitempty"`
	Error      string        `json:"error,omitempty"`
	Snapshot   *Snapshot     `json:"snapshot,omitempty"`
	View       *results.View `json:"view,omitempty"`
}

type WeightsPoint struct {
	Step   int     `json:"step"`
	Bonds  float64 `json:"bonds"`
	Stocks float64 `json:"stocks"`
	Cash   float64 `json:"cash"`
}

type Snapshot struct {
	ID             string                         `json:"id"`
	Plan           string                         `json:"plan"`
	Horizon        int                            `json:"horizon"`
	HorizonYears   float64                        `json:"horizon_years"`
	StepsPerUnit   int                            `json:"steps_per_unit"`
	Snap           int                            `json:"snap"`
	MaxInflow      float64                        `json:"max_inflow"`
	MaxOutflow     float64                        `json:"max_outflow"`
	Cashflow       []series.Point[float64]        `json:"cashflow"`
	Weights        []WeightsPoint                 `json:"weights"`
	Params         model.SimulationParams         `json:"params"`
	Gestures       map[string]editor.GestureState `json:"gestures"`
	LastGeneration uint64                         `json:"last_generation"`
	MoneyType      model.MoneyType                `json:"money_type"`
	Scale          model.Scale                    `json:"scale"`
}
