package handlers

import (
	"fmt"

	"wealth-planner/internal/api/models"
	"wealth-planner/internal/editor"
	"wealth-planner/internal/model"
	"wealth-planner/internal/series"

	"github.com/gin-gonic/gin"
)

// AddWeightsPoint handles POST /api/v1/sessions/:id/weights/points
func (h *SessionHandler) AddWeightsPoint(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var req models.PointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var p series.Point[model.Weights]
	err := s.EditWeights(func(e *editor.Weights) error {
		var err error
		p, err = e.AddBreakpointAt(*req.Step)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	edited(c, s, p)
}

// RemoveWeightsPoint handles DELETE /api/v1/sessions/:id/weights/points/:step
func (h *SessionHandler) RemoveWeightsPoint(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	step, ok := stepParam(c)
	if !ok {
		return
	}
	if err := s.EditWeights(func(e *editor.Weights) error { return e.RemoveBreakpointAt(step) }); err != nil {
		respondError(c, err)
		return
	}
	edited(c, s, nil)
}

// SetWeightsPoint handles PUT /api/v1/sessions/:id/weights/points/:step
func (h *SessionHandler) SetWeightsPoint(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	step, ok := stepParam(c)
	if !ok {
		return
	}
	var req models.WeightsPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var p series.Point[model.Weights]
	err := s.EditWeights(func(e *editor.Weights) error {
		var err error
		p, err = e.SetPointExact(step, model.Weights{Bonds: *req.Bonds, Stocks: *req.Stocks})
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	edited(c, s, p)
}

// DragWeights handles POST /api/v1/sessions/:id/weights/drag. "begin" needs
// step and handle; "move" needs new_step and boundary.
func (h *SessionHandler) DragWeights(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var req models.WeightsDragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !validPhase(req.Phase) || req.Phase == models.PhaseSegment {
		badRequest(c, fmt.Errorf("unknown phase %q", req.Phase))
		return
	}
	if req.Phase == models.PhaseMove && (req.NewStep == nil || req.Boundary == nil) {
		badRequest(c, fmt.Errorf("move needs new_step and boundary"))
		return
	}
	var handle editor.Handle
	if req.Phase == models.PhaseBegin {
		var err error
		if handle, err = editor.ParseHandle(req.Handle); err != nil {
			respondError(c, err)
			return
		}
	}

	var point interface{}
	err := s.EditWeights(func(e *editor.Weights) error {
		switch req.Phase {
		case models.PhaseBegin:
			return e.BeginDrag(req.Step, handle)
		case models.PhaseMove:
			p, err := e.DragTo(*req.NewStep, *req.Boundary)
			point = p
			return err
		case models.PhaseEnd:
			return e.EndDrag()
		default:
			e.CancelDrag()
			return nil
		}
	})
	if err != nil {
		respondError(c, err)
		return
	}
	edited(c, s, point)
}
