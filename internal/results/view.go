package results

import (
	"math"

	"wealth-planner/internal/model"
)

// View is the result as the wealth and destitution charts draw it: one money
// type, steps in editor units, and a y-axis range for the chosen scale.
type View struct {
	Generation      uint64               `json:"generation"`
	MoneyType       model.MoneyType      `json:"money_type"`
	Scale           model.Scale          `json:"scale"`
	Steps           []int                `json:"steps"`
	Destitution     []float64            `json:"destitution"`
	Mean            []float64            `json:"mean"`
	Percentiles     map[string][]float64 `json:"percentiles"`
	Labels          []string             `json:"labels"`
	YMin            float64              `json:"y_min"`
	YMax            float64              `json:"y_max"`
	FinalMean       float64              `json:"final_mean"`
	FinalMedian     float64              `json:"final_median"`
	FinalStd        float64              `json:"final_std"`
	FinalMin        float64              `json:"final_min"`
	FinalMax        float64              `json:"final_max"`
	DestitutionArea float64              `json:"destitution_area"`
	SimulationTime  float64              `json:"simulation_time"`
	Error           string               `json:"error,omitempty"`
}

// headroom above the largest percentile value
const yPadding = 1.05

// View renders the stored result. ok is false when no result has arrived
// yet; the returned View still carries the display mode and any error.
func (s *Store) View(stepsPerUnit int) (View, bool) {
	s.mu.RLock()
	res, gen, mt, scale, lastErr := s.result, s.applied, s.moneyType, s.scale, s.lastErr
	s.mu.RUnlock()

	v := View{Generation: gen, MoneyType: mt, Scale: scale}
	if lastErr != nil {
		v.Error = lastErr.Error()
	}
	if res == nil {
		return v, false
	}
	if stepsPerUnit < 1 {
		stepsPerUnit = 1
	}

	ms := res.Money(mt)
	v.Steps = make([]int, len(res.Timesteps))
	for i, ts := range res.Timesteps {
		v.Steps[i] = int(math.Round(ts * float64(stepsPerUnit)))
	}
	v.Destitution = append([]float64(nil), res.Destitution...)
	v.Mean = append([]float64(nil), ms.Mean...)
	v.Percentiles = make(map[string][]float64, len(ms.Percentiles))
	for label, vals := range ms.Percentiles {
		v.Percentiles[model.CanonicalLabel(label)] = append([]float64(nil), vals...)
	}
	v.Labels = ms.Labels()
	v.FinalMean, v.FinalMedian, v.FinalStd = ms.FinalMean, ms.FinalMedian, ms.FinalStd
	v.FinalMin, v.FinalMax = ms.FinalMin, ms.FinalMax
	v.DestitutionArea = res.DestitutionArea
	v.SimulationTime = res.SimulationTime
	v.YMin, v.YMax = yRange(v.Percentiles, scale)
	return v, true
}

// yRange is [0, max*1.05] on a linear axis. A log axis cannot show zero, so
// its floor is the smallest positive value.
func yRange(percentiles map[string][]float64, scale model.Scale) (float64, float64) {
	maxY := 0.0
	minPos := math.Inf(1)
	for _, vals := range percentiles {
		for _, x := range vals {
			if x > maxY {
				maxY = x
			}
			if x > 0 && x < minPos {
				minPos = x
			}
		}
	}
	if scale != model.ScaleLog {
		return 0, maxY * yPadding
	}
	if math.IsInf(minPos, 1) {
		return 1, 10
	}
	return minPos, maxY * yPadding
}
