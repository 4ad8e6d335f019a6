package models

import (
	"time"

	"wealth-planner/internal/dispatch"
	"wealth-planner/internal/results"
	"wealth-planner/internal/session"
)

// SessionResponse represents an editing session and its current state
type SessionResponse struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	State     session.Snapshot `json:"state"`
	Dispatch  dispatch.Stats   `json:"dispatch"`
}

// SessionListResponse lists open session IDs, oldest first
type SessionListResponse struct {
	Sessions []string `json:"sessions"`
}

// EditResponse is returned by every committed edit
type EditResponse struct {
	Status string           `json:"status"`
	Point  interface{}      `json:"point,omitempty"`
	State  session.Snapshot `json:"state"`
}

// SimulateResponse acknowledges a submitted simulation
type SimulateResponse struct {
	Status     string `json:"status"`
	Generation uint64 `json:"generation"`
}

// ResultResponse carries the current result view
type ResultResponse struct {
	Status string       `json:"status"` // "pending", "ready", "error"
	Busy   bool         `json:"busy"`
	View   results.View `json:"view"`
}

// PlanInfo describes a preset plan
type PlanInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PlanListResponse lists preset plans
type PlanListResponse struct {
	Plans []PlanInfo `json:"plans"`
}

// PlanRanking is one preset plan's place in a ranking
type PlanRanking struct {
	Rank                 int     `json:"rank"`
	Plan                 string  `json:"plan"`
	DestitutionArea      float64 `json:"destitution_area"`
	SuccessProbability   float64 `json:"success_probability"`
	FirstDestitutionYear float64 `json:"first_destitution_year"`
	FinalMedian          float64 `json:"final_median"`
	FinalP05             float64 `json:"final_p05"`
	FinalP95             float64 `json:"final_p95"`
}

// RankResponse represents the response from ranking preset plans
type RankResponse struct {
	MoneyType string            `json:"money_type"`
	Rankings  []PlanRanking     `json:"rankings"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
