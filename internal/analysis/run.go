package analysis

import (
	"context"
	"errors"
	"log"
	"sort"

	"wealth-planner/internal/model"
)

// Simulator runs one request against the simulation service.
type Simulator interface {
	Simulate(ctx context.Context, req *model.SimulationRequest) (*model.SimulationResult, error)
}

// SimulatePlans runs each named request in name order, one at a time.
// A plan whose request is rejected is recorded in failed and skipped; an
// unreachable or busy service aborts the run with that error.
func SimulatePlans(ctx context.Context, sim Simulator, reqs map[string]*model.SimulationRequest) (results map[string]*model.SimulationResult, failed map[string]error, err error) {
	names := make([]string, 0, len(reqs))
	for name := range reqs {
		names = append(names, name)
	}
	sort.Strings(names)

	results = make(map[string]*model.SimulationResult, len(reqs))
	failed = make(map[string]error)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return results, failed, err
		}
		res, err := sim.Simulate(ctx, reqs[name])
		if err != nil {
			if fatal(err) {
				return results, failed, err
			}
			log.Printf("[Analysis] plan %s failed: %v", name, err)
			failed[name] = err
			continue
		}
		results[name] = res
	}
	return results, failed, nil
}

func fatal(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te *model.TransportError
	if errors.As(err, &te) {
		return te.Code == "UNREACHABLE" || te.Code == "SERVICE_BUSY"
	}
	return false
}
