package analysis

import (
	"sort"

	"wealth-planner/internal/model"
)

type RankedPlan struct {
	Rank int
	Summary
}

// RankPlans summarizes each named result and sorts by DestitutionArea
// ascending (safest first). Ties go to the higher final median, then name.
func RankPlans(byName map[string]*model.SimulationResult, mt model.MoneyType) []RankedPlan {
	out := make([]RankedPlan, 0, len(byName))
	for name, res := range byName {
		out = append(out, RankedPlan{Summary: Summarize(name, res, mt)})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DestitutionArea != b.DestitutionArea {
			return a.DestitutionArea < b.DestitutionArea
		}
		if a.FinalMedian != b.FinalMedian {
			return a.FinalMedian > b.FinalMedian
		}
		return a.Name < b.Name
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
