package series

import "wealth-planner/internal/model"

// Drag holds the state captured when a point drag starts. The step bounds
// come from the neighbors at that moment and are not recomputed while the
// gesture runs.
type Drag[V any] struct {
	index   int
	origin  Point[V]
	minStep int
	maxStep int
}

// StartDrag captures the drag bounds for the breakpoint at step. Endpoints
// are pinned to their step; interior points may move within
// [prev+1, next-1].
func (s Series[V]) StartDrag(step int) (*Drag[V], error) {
	i, ok := s.Index(step)
	if !ok {
		return nil, &model.InvariantViolation{Op: "drag", Step: step, Reason: "point not found"}
	}
	d := &Drag[V]{index: i, origin: s.points[i]}
	switch i {
	case 0:
		d.minStep, d.maxStep = 0, 0
	case len(s.points) - 1:
		d.minStep, d.maxStep = s.Horizon(), s.Horizon()
	default:
		d.minStep = s.points[i-1].Step + 1
		d.maxStep = s.points[i+1].Step - 1
	}
	return d, nil
}

// Origin is the breakpoint as it was when the drag started.
func (d *Drag[V]) Origin() Point[V] { return d.origin }

// Index is the position of the dragged breakpoint. It cannot change during a
// drag because the point cannot pass its neighbors.
func (d *Drag[V]) Index() int { return d.index }

// Bounds returns the inclusive step range the point may occupy.
func (d *Drag[V]) Bounds() (min, max int) { return d.minStep, d.maxStep }

// Apply moves the dragged point: the step is snapped to the series' snap
// granularity and then clamped to the captured bounds; the value is clamped
// into the domain. It returns the new series and the point as applied.
func (d *Drag[V]) Apply(s Series[V], newStep int, v V) (Series[V], Point[V]) {
	if d.index >= len(s.points) {
		return s, d.origin
	}
	step := snapTo(newStep, s.snap)
	if step < d.minStep {
		step = d.minStep
	}
	if step > d.maxStep {
		step = d.maxStep
	}
	out := s.clone()
	out.points[d.index] = Point[V]{Step: step, Value: s.domain.Clamp(v)}
	return out, out.points[d.index]
}
