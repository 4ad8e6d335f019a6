package series

import (
	"math"

	"wealth-planner/internal/model"
)

// Domain defines the legal values of a series and how values between two
// breakpoints are interpolated.
type Domain[V any] interface {
	// Lerp returns a + (b-a)*t, component-wise.
	Lerp(a, b V, t float64) V
	// Clamp projects v onto the legal range.
	Clamp(v V) V
	// Valid reports whether v is inside the legal range.
	Valid(v V) bool
}

// Bounded is the scalar domain [Min, Max]. Cashflow series use
// Min = max outflow (<= 0) and Max = max inflow (>= 0).
type Bounded struct {
	Min float64
	Max float64
}

func (b Bounded) Lerp(x, y, t float64) float64 {
	return x + (y-x)*t
}

func (b Bounded) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return math.Max(b.Min, math.Min(b.Max, 0))
	}
	return math.Max(b.Min, math.Min(b.Max, v))
}

func (b Bounded) Valid(v float64) bool {
	return !math.IsNaN(v) && v >= b.Min && v <= b.Max
}

// Allocation is the bonds/stocks/cash triangle.
type Allocation struct{}

func (Allocation) Lerp(a, b model.Weights, t float64) model.Weights {
	return model.Weights{
		Bonds:  a.Bonds + (b.Bonds-a.Bonds)*t,
		Stocks: a.Stocks + (b.Stocks-a.Stocks)*t,
	}
}

func (Allocation) Clamp(w model.Weights) model.Weights {
	return w.Clamp()
}

func (Allocation) Valid(w model.Weights) bool {
	return w.Valid()
}
