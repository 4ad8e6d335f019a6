package handlers

import (
	"net/http"

	"wealth-planner/internal/api/models"
	"wealth-planner/internal/model"

	"github.com/gin-gonic/gin"
)

// SetParams handles PUT /api/v1/sessions/:id/params. Only the fields present
// in the body change.
func (h *SessionHandler) SetParams(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var req models.ParamsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.SetParams(req); err != nil {
		respondError(c, err)
		return
	}
	edited(c, s, nil)
}

// SetHorizon handles PUT /api/v1/sessions/:id/horizon
func (h *SessionHandler) SetHorizon(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var req models.HorizonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.SetHorizon(req.Years); err != nil {
		respondError(c, err)
		return
	}
	edited(c, s, nil)
}

// GetRequest handles GET /api/v1/sessions/:id/request: the body the next
// simulation would send, without sending it.
func (h *SessionHandler) GetRequest(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	req, err := s.Request()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// Simulate handles POST /api/v1/sessions/:id/simulate. The result arrives
// asynchronously on the event stream and at GET .../result.
func (h *SessionHandler) Simulate(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	gen, err := s.Simulate()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, models.SimulateResponse{Status: "submitted", Generation: gen})
}

// GetResult handles GET /api/v1/sessions/:id/result
func (h *SessionHandler) GetResult(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	view, ready := s.View()
	status := "pending"
	switch {
	case view.Error != "":
		status = "error"
	case ready:
		status = "ready"
	}
	c.JSON(http.StatusOK, models.ResultResponse{Status: status, Busy: s.Busy(), View: view})
}

// SetDisplay handles PUT /api/v1/sessions/:id/display. Empty fields keep
// their current value.
func (h *SessionHandler) SetDisplay(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var req models.DisplayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.SetDisplay(model.MoneyType(req.MoneyType), model.Scale(req.Scale)); err != nil {
		respondError(c, err)
		return
	}
	h.GetResult(c)
}
