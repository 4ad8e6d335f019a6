package analysis

import (
	"context"
	"errors"
	"testing"

	"wealth-planner/internal/model"
)

// scriptedSim fails for the wealth values listed in errs and otherwise
// returns a result whose area is the request's initial wealth.
type scriptedSim struct {
	errs  map[float64]error
	order []float64
}

func (s *scriptedSim) Simulate(ctx context.Context, req *model.SimulationRequest) (*model.SimulationResult, error) {
	s.order = append(s.order, req.InitialWealth)
	if err := s.errs[req.InitialWealth]; err != nil {
		return nil, err
	}
	return res(req.InitialWealth, 0, 0, 0), nil
}

func TestSimulatePlans(t *testing.T) {
	sim := &scriptedSim{errs: map[float64]error{
		2: &model.TransportError{StatusCode: 422, Code: "REQUEST_REJECTED", Message: "bad"},
	}}
	reqs := map[string]*model.SimulationRequest{
		"c": {InitialWealth: 3},
		"a": {InitialWealth: 1},
		"b": {InitialWealth: 2},
	}
	results, failed, err := SimulatePlans(context.Background(), sim, reqs)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || len(failed) != 1 || failed["b"] == nil {
		t.Fatalf("results = %v, failed = %v", results, failed)
	}
	if want := []float64{1, 2, 3}; len(sim.order) != 3 || sim.order[0] != want[0] || sim.order[2] != want[2] {
		t.Fatalf("order = %v, want name order", sim.order)
	}
	ranked := RankPlans(results, model.MoneyReal)
	if ranked[0].Name != "a" || ranked[1].Name != "c" {
		t.Fatalf("ranked = %+v", ranked)
	}
}

func TestSimulatePlans_UnreachableAborts(t *testing.T) {
	unreachable := &model.TransportError{Code: "UNREACHABLE", Message: "down"}
	sim := &scriptedSim{errs: map[float64]error{1: unreachable}}
	reqs := map[string]*model.SimulationRequest{
		"a": {InitialWealth: 1},
		"b": {InitialWealth: 2},
	}
	_, _, err := SimulatePlans(context.Background(), sim, reqs)
	if !errors.Is(err, unreachable) {
		t.Fatalf("err = %v", err)
	}
	if len(sim.order) != 1 {
		t.Fatalf("kept going after an unreachable service: %v", sim.order)
	}
}
