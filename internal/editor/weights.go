package editor

import (
	"fmt"
	"strings"

	"wealth-planner/internal/model"
	"wealth-planner/internal/series"
)

// Handle identifies which boundary of the stacked allocation chart is being
// dragged.
type Handle string

const (
	// HandleBonds is the top of the bonds band. Dragging it trades bonds
	// against stocks; the bonds+stocks total stays fixed.
	HandleBonds Handle = "bonds"
	// HandleStocks is the top of the stocks band (bonds+stocks). Dragging it
	// trades stocks against cash; bonds stay fixed.
	HandleStocks Handle = "stocks"
)

func ParseHandle(s string) (Handle, error) {
	switch Handle(strings.ToLower(strings.TrimSpace(s))) {
	case HandleBonds:
		return HandleBonds, nil
	case HandleStocks:
		return HandleStocks, nil
	}
	return "", &model.ValidationError{Field: "handle", Message: fmt.Sprintf("unknown handle %q, expected bonds or stocks", s)}
}

// Weights edits the allocation glide path.
type Weights struct {
	base[model.Weights]

	handle   Handle
	origin   model.Weights
	boundMin float64
	boundMax float64
}

func NewWeights(snap int, pts []series.Point[model.Weights], bus *Bus) (*Weights, error) {
	s, err := series.FromPoints[model.Weights](series.Allocation{}, snap, pts)
	if err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}
	return &Weights{base: newBase(NameWeights, s, bus)}, nil
}

// AddBreakpointAt inserts a breakpoint whose bonds and stocks are both
// interpolated with the same fraction, which keeps the split valid.
func (w *Weights) AddBreakpointAt(step int) (series.Point[model.Weights], error) {
	return w.add(step)
}

func (w *Weights) RemoveBreakpointAt(step int) error {
	return w.remove(step)
}

// BeginDrag starts dragging handle h of the breakpoint at step. The range the
// boundary may move in is fixed here:
//   - stocks handle: [bonds, 1]
//   - bonds handle:  [0, bonds+stocks]
func (w *Weights) BeginDrag(step int, h Handle) error {
	h, err := ParseHandle(string(h))
	if err != nil {
		return w.reject(err)
	}
	d, err := w.beginPoint(step)
	if err != nil {
		return err
	}
	w.handle = h
	w.origin = d.Origin().Value
	switch h {
	case HandleStocks:
		w.boundMin, w.boundMax = w.origin.Bonds, 1
	case HandleBonds:
		w.boundMin, w.boundMax = 0, w.origin.Total()
	}
	return nil
}

// DragTo moves the dragged handle to newStep and the given boundary level.
func (w *Weights) DragTo(newStep int, boundary float64) (series.Point[model.Weights], error) {
	return w.movePoint(newStep, w.adjust(boundary))
}

// adjust computes the new weights for a boundary level: the component the
// handle does not own is held fixed and the other is recomputed as
// boundary - fixed.
func (w *Weights) adjust(boundary float64) model.Weights {
	y := boundary
	if y < w.boundMin {
		y = w.boundMin
	}
	if y > w.boundMax {
		y = w.boundMax
	}
	switch w.handle {
	case HandleStocks:
		return model.Weights{Bonds: w.origin.Bonds, Stocks: y - w.origin.Bonds}
	default:
		return model.Weights{Bonds: y, Stocks: w.origin.Total() - y}
	}
}

// DragPoint is a complete gesture in one call.
func (w *Weights) DragPoint(step int, h Handle, newStep int, boundary float64) (series.Point[model.Weights], error) {
	if err := w.BeginDrag(step, h); err != nil {
		return series.Point[model.Weights]{}, err
	}
	p, err := w.DragTo(newStep, boundary)
	if err != nil {
		w.CancelDrag()
		return series.Point[model.Weights]{}, err
	}
	return p, w.EndDrag()
}

// SetPointExact replaces the weights at step. Unlike drags, out-of-range
// input is rejected instead of clamped.
func (w *Weights) SetPointExact(step int, v model.Weights) (series.Point[model.Weights], error) {
	if err := w.requireIdle("set", step); err != nil {
		return series.Point[model.Weights]{}, err
	}
	if !v.Valid() {
		return series.Point[model.Weights]{}, w.reject(&model.ValidationError{
			Field:   "weights",
			Message: fmt.Sprintf("bonds=%v stocks=%v must be >= 0 and sum to at most 1", v.Bonds, v.Stocks),
		})
	}
	next, p, err := w.series.SetValue(step, v)
	if err != nil {
		return series.Point[model.Weights]{}, w.reject(err)
	}
	w.series = next
	w.emit("set")
	return p, nil
}

// Rescale moves the series to a new horizon without emitting.
func (w *Weights) Rescale(horizon int) error {
	return w.rescale(horizon)
}
