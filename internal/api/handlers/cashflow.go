package handlers

import (
	"fmt"

	"wealth-planner/internal/api/models"
	"wealth-planner/internal/editor"
	"wealth-planner/internal/series"

	"github.com/gin-gonic/gin"
)

// AddCashflowPoint handles POST /api/v1/sessions/:id/cashflow/points
func (h *SessionHandler) AddCashflowPoint(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var req models.PointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var p series.Point[float64]
	err := s.EditCashflow(func(e *editor.Cashflow) error {
		var err error
		p, err = e.AddPointAt(*req.Step)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	edited(c, s, p)
}

// RemoveCashflowPoint handles DELETE /api/v1/sessions/:id/cashflow/points/:step
func (h *SessionHandler) RemoveCashflowPoint(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	step, ok := stepParam(c)
	if !ok {
		return
	}
	if err := s.EditCashflow(func(e *editor.Cashflow) error { return e.RemovePointAt(step) }); err != nil {
		respondError(c, err)
		return
	}
	edited(c, s, nil)
}

// SetCashflowValue handles PUT /api/v1/sessions/:id/cashflow/points/:step.
// Either a number or dialog text is accepted; text wins when both are set.
func (h *SessionHandler) SetCashflowValue(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	step, ok := stepParam(c)
	if !ok {
		return
	}
	var req models.CashflowValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Value == nil && req.Text == "" {
		badRequest(c, fmt.Errorf("one of value or text is required"))
		return
	}
	var p series.Point[float64]
	err := s.EditCashflow(func(e *editor.Cashflow) error {
		var err error
		if req.Text != "" {
			p, err = e.SetPointValueText(step, req.Text)
		} else {
			p, err = e.SetPointValueExact(step, *req.Value)
		}
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	edited(c, s, p)
}

// SetCashflowBounds handles PUT /api/v1/sessions/:id/cashflow/bounds
func (h *SessionHandler) SetCashflowBounds(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var req models.BoundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	err := s.EditCashflow(func(e *editor.Cashflow) error {
		return e.SetBounds(*req.MaxInflow, *req.MaxOutflow)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	edited(c, s, nil)
}

// DragCashflow handles POST /api/v1/sessions/:id/cashflow/drag. Each call is
// one phase of a gesture; the edit is committed (and announced) on "end".
func (h *SessionHandler) DragCashflow(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var req models.CashflowDragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !validPhase(req.Phase) {
		badRequest(c, fmt.Errorf("unknown phase %q", req.Phase))
		return
	}
	if req.Phase == models.PhaseMove && req.Delta == nil && (req.NewStep == nil || req.Value == nil) {
		badRequest(c, fmt.Errorf("move needs delta, or new_step and value"))
		return
	}

	var point interface{}
	err := s.EditCashflow(func(e *editor.Cashflow) error {
		switch req.Phase {
		case models.PhaseBegin:
			return e.BeginDrag(req.Step)
		case models.PhaseSegment:
			return e.BeginSegmentDrag(req.X)
		case models.PhaseMove:
			if req.Delta != nil {
				pts, err := e.DragSegmentBy(*req.Delta)
				point = pts
				return err
			}
			p, err := e.DragTo(*req.NewStep, *req.Value)
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

func validPhase(phase string) bool {
	switch phase {
	case models.PhaseBegin, models.PhaseSegment, models.PhaseMove, models.PhaseEnd, models.PhaseCancel:
		return true
	}
	return false
}
