package editor

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"wealth-planner/internal/model"
	"wealth-planner/internal/series"
)

// Cashflow edits the savings/spending schedule: a scalar series clamped to
// [maxOutflow, maxInflow].
type Cashflow struct {
	base[float64]

	bounds series.Bounded

	// segment drag state (shift+drag on a line segment)
	segLeft, segRight int
	segInit           [2]float64
}

// NewCashflow wraps the given breakpoints. Values outside the bounds are
// rejected rather than clamped.
func NewCashflow(maxInflow, maxOutflow float64, snap int, pts []series.Point[float64], bus *Bus) (*Cashflow, error) {
	b, err := cashflowBounds(maxInflow, maxOutflow)
	if err != nil {
		return nil, err
	}
	s, err := series.FromPoints[float64](b, snap, pts)
	if err != nil {
		return nil, fmt.Errorf("cashflow: %w", err)
	}
	return &Cashflow{base: newBase(NameCashflow, s, bus), bounds: b}, nil
}

func cashflowBounds(maxInflow, maxOutflow float64) (series.Bounded, error) {
	if maxOutflow > 0 {
		return series.Bounded{}, &model.ValidationError{Field: "max_outflow", Message: "must be <= 0"}
	}
	if maxInflow < 0 {
		return series.Bounded{}, &model.ValidationError{Field: "max_inflow", Message: "must be >= 0"}
	}
	return series.Bounded{Min: maxOutflow, Max: maxInflow}, nil
}

// Bounds returns (maxInflow, maxOutflow).
func (c *Cashflow) Bounds() (maxInflow, maxOutflow float64) {
	return c.bounds.Max, c.bounds.Min
}

// AddPointAt inserts a breakpoint at step, valued by interpolation of its
// neighbors so the drawn line does not change shape.
func (c *Cashflow) AddPointAt(step int) (series.Point[float64], error) {
	return c.add(step)
}

// RemovePointAt deletes an interior breakpoint.
func (c *Cashflow) RemovePointAt(step int) error {
	return c.remove(step)
}

// BeginDrag starts dragging the breakpoint at step.
func (c *Cashflow) BeginDrag(step int) error {
	_, err := c.beginPoint(step)
	return err
}

// DragTo moves the dragged point. The applied step and value are returned.
func (c *Cashflow) DragTo(newStep int, value float64) (series.Point[float64], error) {
	return c.movePoint(newStep, value)
}

// DragPoint is a complete gesture in one call: begin, move, end.
func (c *Cashflow) DragPoint(step, newStep int, value float64) (series.Point[float64], error) {
	if err := c.BeginDrag(step); err != nil {
		return series.Point[float64]{}, err
	}
	p, err := c.DragTo(newStep, value)
	if err != nil {
		c.CancelDrag()
		return series.Point[float64]{}, err
	}
	return p, c.EndDrag()
}

// BeginSegmentDrag starts a vertical drag of the line segment under step x.
// Both breakpoints bracketing x move together.
func (c *Cashflow) BeginSegmentDrag(x float64) error {
	if err := c.requireIdle("segment drag", int(x)); err != nil {
		return err
	}
	left, right, ok := c.series.Bracket(x)
	if !ok {
		return c.reject(&model.InvariantViolation{Op: "segment drag", Step: int(x), Reason: "not between two breakpoints"})
	}
	pts := c.series.Points()
	c.state = GestureDragging
	c.before = c.series
	c.dragOp = "segment"
	c.segLeft, c.segRight = pts[left].Step, pts[right].Step
	c.segInit = [2]float64{pts[left].Value, pts[right].Value}
	return nil
}

// DragSegmentBy offsets both segment endpoints by delta from their values at
// gesture start; each is clamped independently.
func (c *Cashflow) DragSegmentBy(delta float64) ([2]series.Point[float64], error) {
	var out [2]series.Point[float64]
	if c.state != GestureDragging || c.dragOp != "segment" {
		return out, c.reject(&model.InvariantViolation{Op: "segment drag", Reason: "no segment drag in progress"})
	}
	next, l, err := c.series.SetValue(c.segLeft, c.segInit[0]+delta)
	if err != nil {
		return out, c.reject(err)
	}
	next, r, err := next.SetValue(c.segRight, c.segInit[1]+delta)
	if err != nil {
		return out, c.reject(err)
	}
	c.series = next
	out[0], out[1] = l, r
	return out, nil
}

// SetPointValueExact sets the value at step (direct numeric entry). The
// value is clamped into the bounds.
func (c *Cashflow) SetPointValueExact(step int, value float64) (series.Point[float64], error) {
	if err := c.requireIdle("set", step); err != nil {
		return series.Point[float64]{}, err
	}
	next, p, err := c.series.SetValue(step, value)
	if err != nil {
		return series.Point[float64]{}, c.reject(err)
	}
	c.series = next
	c.emit("set")
	return p, nil
}

// SetPointValueText parses dialog input and applies it like
// SetPointValueExact. Malformed input is a ValidationError.
func (c *Cashflow) SetPointValueText(step int, text string) (series.Point[float64], error) {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return series.Point[float64]{}, c.reject(&model.ValidationError{Field: "value", Message: fmt.Sprintf("%q is not a number", text)})
	}
	return c.SetPointValueExact(step, d.InexactFloat64())
}

// SetBounds changes the legal value range and re-clamps every breakpoint.
func (c *Cashflow) SetBounds(maxInflow, maxOutflow float64) error {
	if err := c.requireIdle("bounds", 0); err != nil {
		return err
	}
	b, err := cashflowBounds(maxInflow, maxOutflow)
	if err != nil {
		return c.reject(err)
	}
	c.bounds = b
	c.series = c.series.WithDomain(b)
	c.emit("bounds")
	return nil
}

// Rescale moves the series to a new horizon without emitting.
func (c *Cashflow) Rescale(horizon int) error {
	return c.rescale(horizon)
}
