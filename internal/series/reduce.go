package series

import "fmt"

// Op is one edit of a series. Reduce applies it.
type Op[V any] interface {
	apply(s Series[V]) (Series[V], error)
	fmt.Stringer
}

type InsertOp[V any] struct{ Step int }

type RemoveOp[V any] struct{ Step int }

type SetValueOp[V any] struct {
	Step  int
	Value V
}

type MoveOp[V any] struct {
	Step    int
	NewStep int
	Value   V
}

type RescaleOp[V any] struct{ Horizon int }

func (o InsertOp[V]) apply(s Series[V]) (Series[V], error) {
	out, _, err := s.Insert(o.Step)
	return out, err
}

func (o RemoveOp[V]) apply(s Series[V]) (Series[V], error) {
	return s.Remove(o.Step)
}

func (o SetValueOp[V]) apply(s Series[V]) (Series[V], error) {
	out, _, err := s.SetValue(o.Step, o.Value)
	return out, err
}

func (o MoveOp[V]) apply(s Series[V]) (Series[V], error) {
	out, _, err := s.MoveTo(o.Step, o.NewStep, o.Value)
	return out, err
}

func (o RescaleOp[V]) apply(s Series[V]) (Series[V], error) {
	return s.Rescale(o.Horizon)
}

func (o InsertOp[V]) String() string   { return fmt.Sprintf("insert(%d)", o.Step) }
func (o RemoveOp[V]) String() string   { return fmt.Sprintf("remove(%d)", o.Step) }
func (o SetValueOp[V]) String() string { return fmt.Sprintf("set(%d, %v)", o.Step, o.Value) }
func (o MoveOp[V]) String() string {
	return fmt.Sprintf("move(%d -> %d, %v)", o.Step, o.NewStep, o.Value)
}
func (o RescaleOp[V]) String() string { return fmt.Sprintf("rescale(%d)", o.Horizon) }

// Reduce is the pure transition (series, op) -> series'. On error the input
// series is returned unchanged.
func Reduce[V any](s Series[V], op Op[V]) (Series[V], error) {
	out, err := op.apply(s)
	if err != nil {
		return s, err
	}
	return out, nil
}

// ReduceAll folds ops over s, skipping rejected ops. It returns the final
// series and the errors of the rejected ops, in order.
func ReduceAll[V any](s Series[V], ops ...Op[V]) (Series[V], []error) {
	var errs []error
	for _, op := range ops {
		next, err := Reduce(s, op)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", op, err))
			continue
		}
		s = next
	}
	return s, errs
}
