package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"wealth-planner/internal/api/models"
	"wealth-planner/internal/config"
	"wealth-planner/internal/data"
	"wealth-planner/internal/session"

	"github.com/gin-gonic/gin"
)

// SessionHandler handles editing-session requests: lifecycle, both schedule
// editors, params, simulation and the event stream
type SessionHandler struct {
	sessions *session.Manager
	planDir  string
	// base plan for sessions created without a preset
	defaultPlan config.PlanConfig
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.Manager, planDir string, defaultPlan config.PlanConfig) *SessionHandler {
	log.Printf("SessionHandler: plan directory %s", planDir)
	return &SessionHandler{sessions: sessions, planDir: planDir, defaultPlan: defaultPlan}
}

// CreateSession handles POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req models.CreateSessionRequest
	// an empty body means "default plan"
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	plan := h.defaultPlan
	if req.Plan != "" {
		p, err := data.LoadPlan(h.planDir, req.Plan)
		if err != nil {
			respondError(c, err)
			return
		}
		plan = p
	}

	opts := h.sessions.Options()
	if req.AutoSimulate != nil {
		opts.AutoSimulate = *req.AutoSimulate
	}
	s, err := h.sessions.CreateWithOptions(plan, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("SessionHandler: created session %s (plan %q, auto=%v)", s.ID, plan.Name, opts.AutoSimulate)
	c.JSON(http.StatusCreated, sessionResponse(s))
}

// ListSessions handles GET /api/v1/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, models.SessionListResponse{Sessions: h.sessions.IDs()})
}

// GetSession handles GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionResponse(s))
}

// DeleteSession handles DELETE /api/v1/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	if !h.sessions.Delete(id) {
		notFound(c, id)
		return
	}
	c.Status(http.StatusNoContent)
}

// lookup resolves :id, answering 404 itself when the session is unknown.
func (h *SessionHandler) lookup(c *gin.Context) (*session.Session, bool) {
	id := c.Param("id")
	s, ok := h.sessions.Get(id)
	if !ok {
		notFound(c, id)
		return nil, false
	}
	return s, true
}

func notFound(c *gin.Context, id string) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "SESSION_NOT_FOUND",
			Message: fmt.Sprintf("session %s not found", id),
		},
	})
}

func sessionResponse(s *session.Session) models.SessionResponse {
	return models.SessionResponse{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		State:     s.Snapshot(),
		Dispatch:  s.DispatchStats(),
	}
}

func edited(c *gin.Context, s *session.Session, point interface{}) {
	c.JSON(http.StatusOK, models.EditResponse{Status: "ok", Point: point, State: s.Snapshot()})
}

// stepParam parses the :step path segment.
func stepParam(c *gin.Context) (int, bool) {
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_STEP",
				Message: fmt.Sprintf("step %q is not an integer", c.Param("step")),
			},
		})
		return 0, false
	}
	return step, true
}
