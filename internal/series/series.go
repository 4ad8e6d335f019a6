// Package series implements sparse, step-indexed breakpoint sequences.
//
// A Series is a value: every mutation returns a new Series and leaves the
// receiver untouched, so a rejected edit can never leave a half-applied
// state behind.
//
// Invariants held by every Series:
//   - at least two points, the first at step 0 and the last at Horizon()
//   - steps strictly increasing
//   - every value accepted by the series' Domain
package series

import (
	"fmt"
	"math"
	"sort"

	"wealth-planner/internal/model"
)

// Point is one breakpoint.
type Point[V any] struct {
	Step  int `json:"step"`
	Value V   `json:"value"`
}

type Series[V any] struct {
	points []Point[V]
	domain Domain[V]
	snap   int
}

// New creates a two-point series spanning [0, horizon].
func New[V any](d Domain[V], horizon, snap int, first, last V) (Series[V], error) {
	return FromPoints(d, snap, []Point[V]{{Step: 0, Value: first}, {Step: horizon, Value: last}})
}

// FromPoints builds a series from arbitrary points. Points are sorted by
// step; the horizon is the largest step. Existing points are not held to the
// snap spacing, only new insertions are.
func FromPoints[V any](d Domain[V], snap int, pts []Point[V]) (Series[V], error) {
	if d == nil {
		return Series[V]{}, &model.ValidationError{Field: "domain", Message: "is required"}
	}
	if snap < 1 {
		return Series[V]{}, &model.ValidationError{Field: "snap", Message: "must be >= 1"}
	}
	if len(pts) < 2 {
		return Series[V]{}, &model.ValidationError{Field: "points", Message: "need at least two breakpoints"}
	}
	sorted := make([]Point[V], len(pts))
	copy(sorted, pts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Step < sorted[j].Step })

	if sorted[0].Step != 0 {
		return Series[V]{}, &model.ValidationError{Field: "points", Message: fmt.Sprintf("first breakpoint must be at step 0, got %d", sorted[0].Step)}
	}
	for i, p := range sorted {
		if i > 0 && p.Step == sorted[i-1].Step {
			return Series[V]{}, &model.ValidationError{Field: "points", Message: fmt.Sprintf("duplicate step %d", p.Step)}
		}
		if !d.Valid(p.Value) {
			return Series[V]{}, &model.ValidationError{Field: "points", Message: fmt.Sprintf("value at step %d is out of range", p.Step)}
		}
	}
	return Series[V]{points: sorted, domain: d, snap: snap}, nil
}

func (s Series[V]) Len() int { return len(s.points) }

// Horizon is the step of the last breakpoint.
func (s Series[V]) Horizon() int {
	if len(s.points) == 0 {
		return 0
	}
	return s.points[len(s.points)-1].Step
}

// Snap is the snap granularity in steps.
func (s Series[V]) Snap() int { return s.snap }

func (s Series[V]) Domain() Domain[V] { return s.domain }

// Points returns a copy of the breakpoints, for drawing and export.
func (s Series[V]) Points() []Point[V] {
	out := make([]Point[V], len(s.points))
	copy(out, s.points)
	return out
}

// Steps returns the breakpoint steps in order.
func (s Series[V]) Steps() []int {
	out := make([]int, len(s.points))
	for i, p := range s.points {
		out[i] = p.Step
	}
	return out
}

// Index returns the position of the breakpoint at step.
func (s Series[V]) Index(step int) (int, bool) {
	i := sort.Search(len(s.points), func(i int) bool { return s.points[i].Step >= step })
	if i < len(s.points) && s.points[i].Step == step {
		return i, true
	}
	return i, false
}

// Get returns the breakpoint at step.
func (s Series[V]) Get(step int) (Point[V], bool) {
	i, ok := s.Index(step)
	if !ok {
		return Point[V]{}, false
	}
	return s.points[i], true
}

// Bracket returns the breakpoints immediately left and right of x, where x
// lies strictly between them. ok is false if x is on a breakpoint or outside
// the series.
func (s Series[V]) Bracket(x float64) (left, right int, ok bool) {
	if len(s.points) < 2 || x <= float64(s.points[0].Step) || x >= float64(s.Horizon()) {
		return 0, 0, false
	}
	i := sort.Search(len(s.points), func(i int) bool { return float64(s.points[i].Step) >= x })
	if float64(s.points[i].Step) == x {
		return 0, 0, false
	}
	return i - 1, i, true
}

// IsEndpoint reports whether step is the first or last breakpoint.
func (s Series[V]) IsEndpoint(step int) bool {
	return len(s.points) > 0 && (step == s.points[0].Step || step == s.Horizon())
}

// ValueAt linearly interpolates the schedule at step. Outside the series the
// nearest endpoint value is returned.
func (s Series[V]) ValueAt(step float64) V {
	var zero V
	if len(s.points) == 0 {
		return zero
	}
	if step <= float64(s.points[0].Step) {
		return s.points[0].Value
	}
	last := s.points[len(s.points)-1]
	if step >= float64(last.Step) {
		return last.Value
	}
	i := sort.Search(len(s.points), func(i int) bool { return float64(s.points[i].Step) >= step })
	right := s.points[i]
	if float64(right.Step) == step {
		return right.Value
	}
	left := s.points[i-1]
	t := (step - float64(left.Step)) / float64(right.Step-left.Step)
	return s.domain.Lerp(left.Value, right.Value, t)
}

// Densify expands the series to one point every `every` steps from 0 to the
// horizon, always including the horizon itself.
func (s Series[V]) Densify(every int) []Point[V] {
	if every < 1 {
		every = 1
	}
	h := s.Horizon()
	out := make([]Point[V], 0, h/every+2)
	for step := 0; step < h; step += every {
		out = append(out, Point[V]{Step: step, Value: s.ValueAt(float64(step))})
	}
	return append(out, Point[V]{Step: h, Value: s.ValueAt(float64(h))})
}

// Insert adds a breakpoint at step, valued by linear interpolation of its
// neighbors. It is rejected if step is already taken, is not strictly inside
// the series, or would sit closer than Snap() to either neighbor.
func (s Series[V]) Insert(step int) (Series[V], Point[V], error) {
	if step <= 0 || step >= s.Horizon() {
		return s, Point[V]{}, &model.InvariantViolation{Op: "insert", Step: step, Reason: fmt.Sprintf("outside (0, %d)", s.Horizon())}
	}
	i, exists := s.Index(step)
	if exists {
		return s, Point[V]{}, &model.InvariantViolation{Op: "insert", Step: step, Reason: "point already exists"}
	}
	prev, next := s.points[i-1], s.points[i]
	if step-prev.Step < s.snap || next.Step-step < s.snap {
		return s, Point[V]{}, &model.InvariantViolation{Op: "insert", Step: step, Reason: fmt.Sprintf("point too close to neighbors %d and %d", prev.Step, next.Step)}
	}

	t := float64(step-prev.Step) / float64(next.Step-prev.Step)
	v := s.domain.Clamp(s.domain.Lerp(prev.Value, next.Value, t))
	if !s.domain.Valid(v) {
		return s, Point[V]{}, &model.InvariantViolation{Op: "insert", Step: step, Reason: "interpolated value out of range"}
	}
	p := Point[V]{Step: step, Value: v}

	out := s.withCapacity(len(s.points) + 1)
	out.points = append(out.points, s.points[:i]...)
	out.points = append(out.points, p)
	out.points = append(out.points, s.points[i:]...)
	return out, p, nil
}

// Remove deletes the breakpoint at step. Endpoints cannot be removed.
func (s Series[V]) Remove(step int) (Series[V], error) {
	i, ok := s.Index(step)
	if !ok {
		return s, &model.InvariantViolation{Op: "remove", Step: step, Reason: "point not found"}
	}
	if i == 0 || i == len(s.points)-1 {
		return s, &model.InvariantViolation{Op: "remove", Step: step, Reason: "cannot remove first or last point"}
	}
	out := s.withCapacity(len(s.points) - 1)
	out.points = append(out.points, s.points[:i]...)
	out.points = append(out.points, s.points[i+1:]...)
	return out, nil
}

// SetValue replaces the value at step, clamped into the domain.
func (s Series[V]) SetValue(step int, v V) (Series[V], Point[V], error) {
	i, ok := s.Index(step)
	if !ok {
		return s, Point[V]{}, &model.InvariantViolation{Op: "set", Step: step, Reason: "point not found"}
	}
	out := s.clone()
	out.points[i].Value = s.domain.Clamp(v)
	return out, out.points[i], nil
}

// MapValues rewrites every value with fn; results are clamped.
func (s Series[V]) MapValues(fn func(Point[V]) V) Series[V] {
	out := s.clone()
	for i, p := range out.points {
		out.points[i].Value = s.domain.Clamp(fn(p))
	}
	return out
}

// WithDomain switches the legal range and re-clamps every value into it.
func (s Series[V]) WithDomain(d Domain[V]) Series[V] {
	out := s.clone()
	out.domain = d
	for i, p := range out.points {
		out.points[i].Value = d.Clamp(p.Value)
	}
	return out
}

// Rescale moves the series to a new horizon. Breakpoints at or past the new
// horizon are dropped; if any were dropped, the first of them comes back
// relabeled to the new horizon so the tail value is preserved. Otherwise the
// last breakpoint is relabeled. Rescale is idempotent.
func (s Series[V]) Rescale(horizon int) (Series[V], error) {
	if horizon < 1 {
		return s, &model.ValidationError{Field: "horizon", Message: "must be >= 1 step"}
	}
	out := s.withCapacity(len(s.points))
	var dropped []Point[V]
	for _, p := range s.points {
		if p.Step < horizon {
			out.points = append(out.points, p)
		} else {
			dropped = append(dropped, p)
		}
	}
	if len(dropped) > 0 {
		out.points = append(out.points, dropped[0])
	}
	out.points[len(out.points)-1].Step = horizon
	return out, nil
}

// MoveTo is a one-shot drag: bounds are taken from the current neighbors.
func (s Series[V]) MoveTo(step, newStep int, v V) (Series[V], Point[V], error) {
	d, err := s.StartDrag(step)
	if err != nil {
		return s, Point[V]{}, err
	}
	out, p := d.Apply(s, newStep, v)
	return out, p, nil
}

func (s Series[V]) clone() Series[V] {
	out := s
	out.points = make([]Point[V], len(s.points))
	copy(out.points, s.points)
	return out
}

func (s Series[V]) withCapacity(n int) Series[V] {
	out := s
	out.points = make([]Point[V], 0, n)
	return out
}

// snapTo rounds step to the nearest multiple of snap, halves rounding up.
func snapTo(step, snap int) int {
	if snap <= 1 {
		return step
	}
	return int(math.Floor(float64(step)/float64(snap)+0.5)) * snap
}
