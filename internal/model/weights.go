package model

import "math"

// WeightsTolerance absorbs float error when checking the split invariant.
const WeightsTolerance = 1e-9

// Weights is a three-way allocation with two free components.
// Cash is implied: 1 - Bonds - Stocks.
type Weights struct {
	Bonds  float64 `json:"bonds" yaml:"bonds"`
	Stocks float64 `json:"stocks" yaml:"stocks"`
}

func (w Weights) Cash() float64 {
	return 1 - w.Bonds - w.Stocks
}

// Total is the bonds+stocks boundary drawn on top of the bonds band.
func (w Weights) Total() float64 {
	return w.Bonds + w.Stocks
}

// Valid reports whether bonds >= 0, stocks >= 0 and bonds+stocks <= 1.
func (w Weights) Valid() bool {
	if math.IsNaN(w.Bonds) || math.IsNaN(w.Stocks) {
		return false
	}
	return w.Bonds >= -WeightsTolerance &&
		w.Stocks >= -WeightsTolerance &&
		w.Bonds+w.Stocks <= 1+WeightsTolerance
}

// Clamp projects w onto the legal triangle: bonds first into [0,1], then
// stocks into [0, 1-bonds].
func (w Weights) Clamp() Weights {
	b := clampRange(w.Bonds, 0, 1)
	s := clampRange(w.Stocks, 0, 1-b)
	return Weights{Bonds: b, Stocks: s}
}

func clampRange(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
