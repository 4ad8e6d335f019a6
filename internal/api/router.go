// Package api wires the HTTP handlers for editing sessions into a gin
// engine.
package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"wealth-planner/internal/analysis"
	"wealth-planner/internal/api/handlers"
	"wealth-planner/internal/api/middleware"
	"wealth-planner/internal/config"
	"wealth-planner/internal/session"

	"github.com/gin-gonic/gin"
)

type Options struct {
	Sessions       *session.Manager
	Simulator      analysis.Simulator
	DefaultPlan    config.PlanConfig
	PlanDir        string
	StaticDir      string
	AllowedOrigins []string
	// ServiceStatus probes the simulation service. Nil reports "unknown".
	ServiceStatus func(ctx context.Context) (string, error)
}

// NewRouter builds the engine with middleware, API routes and, when
// StaticDir exists, the single-page frontend.
func NewRouter(opts Options) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(opts.AllowedOrigins))

	sessions := handlers.NewSessionHandler(opts.Sessions, opts.PlanDir, opts.DefaultPlan)
	plans := handlers.NewPlanHandler(opts.PlanDir, opts.Simulator)

	router.GET("/health", func(c *gin.Context) {
		status := "unknown"
		if opts.ServiceStatus != nil {
			s, err := opts.ServiceStatus(c.Request.Context())
			if err != nil {
				status = "unreachable"
			} else {
				status = s
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"simulation": status,
			"sessions":   opts.Sessions.Len(),
		})
	})

	api := router.Group("/api/v1")
	{
		api.GET("/plans", plans.ListPlans)
		api.GET("/plans/rank", plans.RankPlans)

		api.GET("/sessions", sessions.ListSessions)
		api.POST("/sessions", sessions.CreateSession)

		s := api.Group("/sessions/:id")
		s.GET("", sessions.GetSession)
		s.DELETE("", sessions.DeleteSession)
		s.GET("/events", sessions.Events)

		s.POST("/cashflow/points", sessions.AddCashflowPoint)
		s.DELETE("/cashflow/points/:step", sessions.RemoveCashflowPoint)
		s.PUT("/cashflow/points/:step", sessions.SetCashflowValue)
		s.PUT("/cashflow/bounds", sessions.SetCashflowBounds)
		s.POST("/cashflow/drag", sessions.DragCashflow)

		s.POST("/weights/points", sessions.AddWeightsPoint)
		s.DELETE("/weights/points/:step", sessions.RemoveWeightsPoint)
		s.PUT("/weights/points/:step", sessions.SetWeightsPoint)
		s.POST("/weights/drag", sessions.DragWeights)

		s.PUT("/params", sessions.SetParams)
		s.PUT("/horizon", sessions.SetHorizon)
		s.GET("/request", sessions.GetRequest)
		s.POST("/simulate", sessions.Simulate)
		s.GET("/result", sessions.GetResult)
		s.PUT("/display", sessions.SetDisplay)
	}

	serveStatic(router, opts.StaticDir)
	return router
}

func serveStatic(router *gin.Engine, staticDir string) {
	if staticDir == "" {
		router.NoRoute(notFound)
		return
	}
	if _, err := os.Stat(staticDir); err != nil {
		log.Printf("Static directory %s not found, skipping static file serving", staticDir)
		router.NoRoute(notFound)
		return
	}
	router.Static("/assets", filepath.Join(staticDir, "assets"))
	router.StaticFile("/favicon.ico", filepath.Join(staticDir, "favicon.ico"))
	index := filepath.Join(staticDir, "index.html")
	// SPA routing: every non-API path gets index.html
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			notFound(c)
			return
		}
		c.File(index)
	})
	log.Printf("Serving static files from %s", staticDir)
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
}
