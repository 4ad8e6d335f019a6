package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"wealth-planner/internal/api"
	"wealth-planner/internal/config"
	"wealth-planner/internal/session"
	"wealth-planner/internal/simclient"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("CONFIG_FILE"), "Path to YAML config (optional)")
	autoSimulate := flag.Bool("auto", true, "Simulate after every committed edit")
	flag.Parse()

	// .env is optional; real environment variables win
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("Failed to load config %s: %v", *cfgPath, err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	timeout, _ := cfg.Simulation.TimeoutDuration()
	client := simclient.New(cfg.Simulation.URL, timeout)
	if cfg.Simulation.Cache {
		ttl, _ := cfg.Simulation.CacheTTLDuration()
		client.Cache = simclient.NewResponseCache(ttl)
		defer client.Cache.Close()
		log.Printf("Simulation response cache enabled (ttl=%s)", ttl)
	}
	log.Printf("Simulation service at %s (timeout=%s)", client.BaseURL, timeout)

	if info, err := os.Stat(cfg.Server.PlanDir); err == nil && info.IsDir() {
		log.Printf("Plan directory found: %s", cfg.Server.PlanDir)
	} else {
		log.Printf("Plan directory not found at: %s (error: %v)", cfg.Server.PlanDir, err)
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	sessions := session.NewManager(session.Options{Simulator: client, AutoSimulate: *autoSimulate})
	defer sessions.Close()

	router := api.NewRouter(api.Options{
		Sessions:       sessions,
		Simulator:      client,
		DefaultPlan:    cfg.Plan,
		PlanDir:        cfg.Server.PlanDir,
		StaticDir:      staticDir(cfg.Server.StaticDir),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ServiceStatus:  client.Health,
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Starting API server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func staticDir(dir string) string {
	if dir == "" {
		return "./web/dist"
	}
	return dir
}
