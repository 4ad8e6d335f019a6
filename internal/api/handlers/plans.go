package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"wealth-planner/internal/analysis"
	"wealth-planner/internal/api/models"
	"wealth-planner/internal/data"
	"wealth-planner/internal/model"
	"wealth-planner/internal/session"

	"github.com/gin-gonic/gin"
)

// PlanHandler handles preset plan requests
type PlanHandler struct {
	planDir string
	sim     analysis.Simulator
}

// NewPlanHandler creates a new plan handler. sim may be nil, in which case
// ranking is unavailable.
func NewPlanHandler(planDir string, sim analysis.Simulator) *PlanHandler {
	return &PlanHandler{planDir: planDir, sim: sim}
}

// ListPlans handles GET /api/v1/plans
func (h *PlanHandler) ListPlans(c *gin.Context) {
	entries, err := data.ListPlans(h.planDir)
	if err != nil {
		log.Printf("PlanHandler: ListPlans failed: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "PLANS_LOAD_ERROR",
				Message: err.Error(),
			},
		})
		return
	}
	plans := make([]models.PlanInfo, len(entries))
	for i, e := range entries {
		plans[i] = models.PlanInfo{ID: e.ID, Name: e.Name, Description: e.Description}
	}
	c.JSON(http.StatusOK, models.PlanListResponse{Plans: plans})
}

// RankPlans handles GET /api/v1/plans/rank?ids=a,b&money=real&limit=10.
// Every listed preset (all presets when ids is empty) is simulated in turn
// and ranked by destitution area, safest first.
func (h *PlanHandler) RankPlans(c *gin.Context) {
	if h.sim == nil {
		respondError(c, session.ErrNoSimulator)
		return
	}
	mt := model.MoneyReal
	if v := c.Query("money"); v != "" {
		parsed, err := model.ParseMoneyType(v)
		if err != nil {
			respondError(c, err)
			return
		}
		mt = parsed
	}
	limit := 10
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			badRequest(c, fmt.Errorf("limit must be a positive integer"))
			return
		}
		limit = n
	}

	var ids []string
	if v := strings.TrimSpace(c.Query("ids")); v != "" {
		for _, id := range strings.Split(v, ",") {
			ids = append(ids, strings.TrimSpace(id))
		}
	} else {
		entries, err := data.ListPlans(h.planDir)
		if err != nil {
			respondError(c, err)
			return
		}
		for _, e := range entries {
			ids = append(ids, e.ID)
		}
	}
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "PLANS_REQUIRED",
				Message: "no preset plans to rank",
			},
		})
		return
	}

	reqs := make(map[string]*model.SimulationRequest, len(ids))
	for _, id := range ids {
		plan, err := data.LoadPlan(h.planDir, id)
		if err != nil {
			respondError(c, err)
			return
		}
		req, err := session.BuildRequest(plan)
		if err != nil {
			respondError(c, fmt.Errorf("plan %s: %w", id, err))
			return
		}
		reqs[id] = req
	}

	results, failed, err := analysis.SimulatePlans(c.Request.Context(), h.sim, reqs)
	if err != nil {
		respondError(c, err)
		return
	}

	ranked := analysis.RankPlans(results, mt)
	if limit > len(ranked) {
		limit = len(ranked)
	}
	ranked = ranked[:limit]

	resp := models.RankResponse{MoneyType: string(mt), Rankings: make([]models.PlanRanking, len(ranked))}
	for i, r := range ranked {
		resp.Rankings[i] = models.PlanRanking{
			Rank:                 r.Rank,
			Plan:                 r.Name,
			DestitutionArea:      r.DestitutionArea,
			SuccessProbability:   r.SuccessProbability,
			FirstDestitutionYear: r.FirstDestitutionYear,
			FinalMedian:          r.FinalMedian,
			FinalP05:             r.FinalP05,
			FinalP95:             r.FinalP95,
		}
	}
	if len(failed) > 0 {
		resp.Failed = make(map[string]string, len(failed))
		for id, err := range failed {
			resp.Failed[id] = err.Error()
		}
	}
	c.JSON(http.StatusOK, resp)
}
