package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"wealth-planner/internal/model"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load the plan from a separate YAML (e.g. examples/plans/*.yaml).
	// If both PlanFile and Plan are provided, Plan overrides PlanFile.
	PlanFile   string           `yaml:"plan_file"`
	Plan       PlanConfig       `yaml:"plan"`
	Server     ServerConfig     `yaml:"server"`
	Simulation SimulationConfig `yaml:"simulation"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	Env            string   `yaml:"env"`
	StaticDir      string   `yaml:"static_dir"`
	PlanDir        string   `yaml:"plan_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type SimulationConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
	// Response memoization. Development only: results are Monte Carlo samples.
	Cache    bool   `yaml:"cache"`
	CacheTTL string `yaml:"cache_ttl"`
}

// Defaults applied when the config leaves a field empty.
const (
	DefaultPort     = "8080"
	DefaultPlanDir  = "examples/plans"
	DefaultTimeout  = 60 * time.Second
	DefaultCacheTTL = time.Hour
)

// Default returns a config holding only the default plan.
func Default() *Config {
	c := &Config{Plan: DefaultPlan()}
	c.applyDefaults()
	return c
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it or fill
// in defaults. Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	// If plan_file is set, load it and merge in any explicit overrides from c.Plan.
	if c.PlanFile != "" {
		planPath := resolveRelative(path, c.PlanFile)
		loaded, err := LoadPlanFile(planPath)
		if err != nil {
			return nil, err
		}
		c.Plan = MergePlan(loaded, c.Plan)
	}
	return &c, nil
}

// resolveRelative prefers interpreting rel as relative to the config file
// directory, falling back to the path as given (relative to cwd).
func resolveRelative(configPath, rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	cand := filepath.Join(filepath.Dir(configPath), rel)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return rel
}

// ApplyEnv overlays environment variables: API_PORT, API_ENV, STATIC_DIR,
// PLAN_DIR, SIMULATION_URL and ENABLE_SIMULATION_CACHE.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("API_PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("API_ENV"); v != "" {
		c.Server.Env = v
	}
	if v := os.Getenv("STATIC_DIR"); v != "" {
		c.Server.StaticDir = v
	}
	if v := os.Getenv("PLAN_DIR"); v != "" {
		c.Server.PlanDir = v
	}
	if v := os.Getenv("SIMULATION_URL"); v != "" {
		c.Simulation.URL = v
	}
	if v := os.Getenv("ENABLE_SIMULATION_CACHE"); v != "" {
		c.Simulation.Cache = v == "true"
	}
	// The memo cache is never enabled in production.
	if c.Server.Env == "production" {
		c.Simulation.Cache = false
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.Server.PlanDir == "" {
		c.Server.PlanDir = DefaultPlanDir
	}
	c.Plan = MergePlan(DefaultPlan(), c.Plan)
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if _, err := c.Simulation.TimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.Simulation.CacheTTLDuration(); err != nil {
		return err
	}
	if err := c.Plan.Validate(); err != nil {
		return fmt.Errorf("plan config invalid: %w", err)
	}
	return nil
}

// TimeoutDuration parses Timeout, defaulting to DefaultTimeout.
func (s SimulationConfig) TimeoutDuration() (time.Duration, error) {
	return parseDuration("simulation.timeout", s.Timeout, DefaultTimeout)
}

// CacheTTLDuration parses CacheTTL, defaulting to DefaultCacheTTL.
func (s SimulationConfig) CacheTTLDuration() (time.Duration, error) {
	return parseDuration("simulation.cache_ttl", s.CacheTTL, DefaultCacheTTL)
}

func parseDuration(field, s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, &model.ValidationError{Field: field, Message: fmt.Sprintf("invalid duration %q", s)}
	}
	return d, nil
}
