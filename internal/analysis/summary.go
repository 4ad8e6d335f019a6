package analysis

import (
	"math"

	"wealth-planner/internal/model"
)

// Summary is a plan-level digest of one simulation result, used for
// ranking and for the one-line CLI report.
type Summary struct {
	Name      string
	MoneyType model.MoneyType

	Count int

	FinalMean   float64
	FinalMedian float64
	FinalStd    float64
	FinalMin    float64
	FinalMax    float64
	FinalP05    float64
	FinalP95    float64

	// DestitutionArea is the time-weighted mean probability of having run
	// out of money.
	DestitutionArea  float64
	FinalDestitution float64
	MaxDestitution   float64
	// FirstDestitutionYear is the first timestep with non-zero destitution,
	// or -1 if wealth never ran out in any path.
	FirstDestitutionYear float64
	// SuccessProbability is 1 - FinalDestitution.
	SuccessProbability float64
}

func Summarize(name string, res *model.SimulationResult, mt model.MoneyType) Summary {
	s := Summary{Name: name, MoneyType: mt, FirstDestitutionYear: -1}
	if res == nil || res.Len() == 0 {
		return s
	}
	ms := res.Money(mt)
	s.Count = res.Len()
	s.FinalMean = ms.FinalMean
	s.FinalMedian = ms.FinalMedian
	s.FinalStd = ms.FinalStd
	s.FinalMin = ms.FinalMin
	s.FinalMax = ms.FinalMax
	if p, ok := ms.Percentile(5); ok && len(p) > 0 {
		s.FinalP05 = p[len(p)-1]
	}
	if p, ok := ms.Percentile(95); ok && len(p) > 0 {
		s.FinalP95 = p[len(p)-1]
	}

	for i, d := range res.Destitution {
		if d > s.MaxDestitution {
			s.MaxDestitution = d
		}
		if d > 0 && s.FirstDestitutionYear < 0 && i < len(res.Timesteps) {
			s.FirstDestitutionYear = res.Timesteps[i]
		}
	}
	if n := len(res.Destitution); n > 0 {
		s.FinalDestitution = res.Destitution[n-1]
	}
	s.SuccessProbability = 1 - s.FinalDestitution

	s.DestitutionArea = res.DestitutionArea
	if s.DestitutionArea == 0 {
		s.DestitutionArea = DestitutionArea(res.Timesteps, res.Destitution)
	}
	return s
}

// DestitutionArea weights each step's destitution probability by the time
// since the previous step and divides by the total time. The first step has
// no width.
func DestitutionArea(timesteps, destitution []float64) float64 {
	n := len(timesteps)
	if len(destitution) < n {
		n = len(destitution)
	}
	var num, den float64
	for i := 1; i < n; i++ {
		dt := timesteps[i] - timesteps[i-1]
		if math.IsNaN(dt) {
			continue
		}
		num += destitution[i] * dt
		den += dt
	}
	if den == 0 {
		return 0
	}
	return num / den
}
