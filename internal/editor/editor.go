// Package editor holds the controllers that turn rendering-layer gestures into
// breakpoint series edits.
//
// Controllers are not safe for concurrent use; the owner (a session)
// serializes calls the way a UI event loop would.
package editor

import (
	"fmt"
	"log"

	"wealth-planner/internal/model"
	"wealth-planner/internal/series"
	"wealth-planner/internal/signal"
)

// Editor names, used in Change events.
const (
	NameCashflow = "cashflow"
	NameWeights  = "weights"
)

// Change is emitted on the bus once per committed edit.
type Change struct {
	Editor string `json:"editor"`
	Op     string `json:"op"`
}

// Bus carries recompute notifications from controllers to subscribers.
type Bus = signal.Signal[Change]

// GestureState is the per-controller drag state machine: idle -> dragging -> idle.
type GestureState string

const (
	GestureIdle     GestureState = "idle"
	GestureDragging GestureState = "dragging"
)

// base is the part of a controller shared by both editors: the current
// series, the bus and the point-drag gesture.
type base[V any] struct {
	name   string
	series series.Series[V]
	bus    *Bus

	state  GestureState
	before series.Series[V]
	drag   *series.Drag[V]
	dragOp string
}

func newBase[V any](name string, s series.Series[V], bus *Bus) base[V] {
	return base[V]{name: name, series: s, bus: bus, state: GestureIdle}
}

func (b *base[V]) emit(op string) {
	if b.bus != nil {
		b.bus.Emit(Change{Editor: b.name, Op: op})
	}
}

func (b *base[V]) reject(err error) error {
	log.Printf("%s editor: %v", b.name, err)
	return err
}

// requireIdle rejects structural edits while a gesture is running.
func (b *base[V]) requireIdle(op string, step int) error {
	if b.state != GestureIdle {
		return b.reject(&model.InvariantViolation{Op: op, Step: step, Reason: "gesture in progress"})
	}
	return nil
}

func (b *base[V]) add(step int) (series.Point[V], error) {
	if err := b.requireIdle("insert", step); err != nil {
		return series.Point[V]{}, err
	}
	next, p, err := b.series.Insert(step)
	if err != nil {
		return series.Point[V]{}, b.reject(err)
	}
	b.series = next
	b.emit("insert")
	return p, nil
}

func (b *base[V]) remove(step int) error {
	if err := b.requireIdle("remove", step); err != nil {
		return err
	}
	next, err := b.series.Remove(step)
	if err != nil {
		return b.reject(err)
	}
	b.series = next
	b.emit("remove")
	return nil
}

// rescale does not emit: a horizon change touches both editors and the
// session emits once for it.
func (b *base[V]) rescale(horizon int) error {
	if err := b.requireIdle("rescale", horizon); err != nil {
		return err
	}
	next, err := b.series.Rescale(horizon)
	if err != nil {
		return b.reject(err)
	}
	b.series = next
	return nil
}

// beginPoint enters the dragging state. Neighbor bounds are captured here.
func (b *base[V]) beginPoint(step int) (*series.Drag[V], error) {
	if err := b.requireIdle("drag", step); err != nil {
		return nil, err
	}
	d, err := b.series.StartDrag(step)
	if err != nil {
		return nil, b.reject(err)
	}
	b.state = GestureDragging
	b.before = b.series
	b.drag = d
	b.dragOp = "drag"
	return d, nil
}

func (b *base[V]) movePoint(newStep int, v V) (series.Point[V], error) {
	if b.state != GestureDragging || b.drag == nil {
		return series.Point[V]{}, b.reject(&model.InvariantViolation{Op: "drag", Step: newStep, Reason: "no point drag in progress"})
	}
	next, p := b.drag.Apply(b.series, newStep, v)
	b.series = next
	return p, nil
}

// EndDrag commits the running gesture and emits exactly once.
func (b *base[V]) EndDrag() error {
	if b.state != GestureDragging {
		return b.reject(&model.InvariantViolation{Op: "end drag", Reason: "no gesture in progress"})
	}
	op := b.dragOp
	b.clearGesture()
	b.emit(op)
	return nil
}

// CancelDrag abandons the running gesture and restores the series as it was
// when the gesture started. Nothing is emitted.
func (b *base[V]) CancelDrag() {
	if b.state != GestureDragging {
		return
	}
	b.series = b.before
	b.clearGesture()
}

func (b *base[V]) clearGesture() {
	b.state = GestureIdle
	b.drag = nil
	b.dragOp = ""
	b.before = series.Series[V]{}
}

// State reports the gesture state.
func (b *base[V]) State() GestureState { return b.state }

// Series returns the current series. Series values are immutable, so the
// result is a safe read-only snapshot.
func (b *base[V]) Series() series.Series[V] { return b.series }

// Points returns a copy of the breakpoints.
func (b *base[V]) Points() []series.Point[V] { return b.series.Points() }

func (b *base[V]) String() string {
	return fmt.Sprintf("%s%v", b.name, b.series.Steps())
}
