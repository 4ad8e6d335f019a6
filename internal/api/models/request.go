package models

import "wealth-planner/internal/model"

// CreateSessionRequest represents a request to open an editing session
type CreateSessionRequest struct {
	// Plan is a preset id from the plan directory; empty uses the default plan.
	Plan string `json:"plan"`
	// AutoSimulate overrides the server default when set.
	AutoSimulate *bool `json:"auto_simulate,omitempty"`
}

// PointRequest inserts a breakpoint at Step
type PointRequest struct {
	Step *int `json:"step" binding:"required"`
}

// CashflowValueRequest sets a cashflow breakpoint value, either numerically
// or from dialog text
type CashflowValueRequest struct {
	Value *float64 `json:"value,omitempty"`
	Text  string   `json:"text,omitempty"`
}

// BoundsRequest replaces the cashflow value limits
type BoundsRequest struct {
	MaxInflow  *float64 `json:"max_inflow" binding:"required"`
	MaxOutflow *float64 `json:"max_outflow" binding:"required"`
}

// Drag phases
const (
	PhaseBegin   = "begin"
	PhaseMove    = "move"
	PhaseEnd     = "end"
	PhaseCancel  = "cancel"
	PhaseSegment = "segment"
)

// CashflowDragRequest carries one phase of a cashflow drag gesture.
//
// begin:   start a point drag at Step
// segment: start a segment drag at X
// move:    NewStep + Value for a point drag, Delta for a segment drag
// end, cancel: no fields
type CashflowDragRequest struct {
	Phase   string   `json:"phase" binding:"required"`
	Step    int      `json:"step"`
	X       float64  `json:"x"`
	NewStep *int     `json:"new_step,omitempty"`
	Value   *float64 `json:"value,omitempty"`
	Delta   *float64 `json:"delta,omitempty"`
}

// WeightsPointRequest sets a weights breakpoint exactly
type WeightsPointRequest struct {
	Bonds  *float64 `json:"bonds" binding:"required"`
	Stocks *float64 `json:"stocks" binding:"required"`
}

// WeightsDragRequest carries one phase of a weights drag gesture. Handle is
// read on begin; NewStep and Boundary are required on move.
type WeightsDragRequest struct {
	Phase    string   `json:"phase" binding:"required"`
	Step     int      `json:"step"`
	Handle   string   `json:"handle"`
	NewStep  *int     `json:"new_step,omitempty"`
	Boundary *float64 `json:"boundary,omitempty"`
}

// ParamsRequest overlays scalar simulation parameters
type ParamsRequest = model.SimulationParams

// HorizonRequest changes the plan length
type HorizonRequest struct {
	Years int `json:"years" binding:"required"`
}

// DisplayRequest switches the result view
type DisplayRequest struct {
	MoneyType string `json:"money_type"`
	Scale     string `json:"scale"`
}
