package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wealth-planner/internal/model"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultPlanIsValid(t *testing.T) {
	p := DefaultPlan()
	if err := p.Validate(); err != nil {
		t.Fatalf("default plan invalid: %v", err)
	}
	if p.Horizon() != 720 {
		t.Fatalf("horizon = %d, want 720", p.Horizon())
	}
	if p.SimulationParams().Horizon != 720 {
		t.Fatal("SimulationParams does not carry the horizon")
	}
}

func TestLoad_PlanFileMergedWithOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plans/base.yaml", `
plan:
  name: base
  horizon_years: 40
  cashflow:
    - { step: 0, value: 1000 }
    - { step: 480, value: -2000 }
  weights:
    - { step: 0, bonds: 0.5, stocks: 0.5 }
    - { step: 480, bonds: 0.5, stocks: 0.5 }
  params:
    iterations: 200
    initial_wealth: 1000
`)
	cfgPath := writeFile(t, dir, "config.yaml", `
plan_file: plans/base.yaml
plan:
  params:
    initial_wealth: 2500
server:
  port: "9090"
simulation:
  timeout: 5s
`)

	c, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Plan.Name != "base" || c.Plan.HorizonYears != 40 || c.Plan.Horizon() != 480 {
		t.Fatalf("plan = %+v", c.Plan)
	}
	if *c.Plan.Params.Iterations != 200 {
		t.Errorf("iterations = %d, want 200 from the plan file", *c.Plan.Params.Iterations)
	}
	if *c.Plan.Params.InitialWealth != 2500 {
		t.Errorf("initial wealth = %v, want the 2500 override", *c.Plan.Params.InitialWealth)
	}
	if *c.Plan.Params.Inflation != 0.02 {
		t.Errorf("inflation = %v, want default 0.02", *c.Plan.Params.Inflation)
	}
	if c.Plan.Snap != 12 || *c.Plan.MaxInflow != 30000 {
		t.Errorf("defaults not applied: snap %d inflow %v", c.Plan.Snap, *c.Plan.MaxInflow)
	}
	if c.Server.Port != "9090" || c.Server.PlanDir != DefaultPlanDir {
		t.Errorf("server = %+v", c.Server)
	}
	if d, _ := c.Simulation.TimeoutDuration(); d != 5*time.Second {
		t.Errorf("timeout = %v", d)
	}
	if d, _ := c.Simulation.CacheTTLDuration(); d != DefaultCacheTTL {
		t.Errorf("cache ttl = %v", d)
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"bad timeout", "simulation:\n  timeout: soon\n"},
		{"positive outflow", "plan:\n  max_outflow: 10\n"},
		{"weights over one", "plan:\n  weights:\n    - { step: 0, bonds: 0.6, stocks: 0.6 }\n    - { step: 720, bonds: 0.1, stocks: 0.1 }\n"},
		{"unknown money type", "plan:\n  money_type: gold\n"},
		{"negative iterations", "plan:\n  params:\n    iterations: -1\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, dir, tc.name+".yaml", tc.body)
			if _, err := Load(path); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestLoad_MissingPlanFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "plan_file: nowhere.yaml\n")
	_, err := LoadUnchecked(path)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want not-exist", err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("API_PORT", "7000")
	t.Setenv("SIMULATION_URL", "http://sim:5000")
	t.Setenv("ENABLE_SIMULATION_CACHE", "true")
	t.Setenv("API_ENV", "production")

	c := Default()
	c.ApplyEnv()
	if c.Server.Port != "7000" || c.Simulation.URL != "http://sim:5000" {
		t.Fatalf("env not applied: %+v %+v", c.Server, c.Simulation)
	}
	if c.Simulation.Cache {
		t.Fatal("cache must stay off in production")
	}
}

func TestMergePlan_SchedulesReplacedWhole(t *testing.T) {
	base := DefaultPlan()
	out := MergePlan(base, PlanConfig{Cashflow: []CashflowPoint{{Step: 0, Value: 1}, {Step: 720, Value: 2}}})
	if len(out.Cashflow) != 2 || len(out.Weights) != 3 {
		t.Fatalf("cashflow %d points, weights %d points", len(out.Cashflow), len(out.Weights))
	}
	out.Weights[0].Bonds = 0.9
	if base.Weights[0].Bonds != 0.3 {
		t.Fatal("MergePlan aliases the base schedule")
	}
	if out.MoneyType != string(model.MoneyReal) {
		t.Fatalf("money type = %q", out.MoneyType)
	}
}

func TestExamplePlansLoad(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("..", "..", "examples", "plans", "*.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 {
		t.Skip("no example plans")
	}
	for _, path := range matches {
		p, err := LoadPlanFile(path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if err := MergePlan(DefaultPlan(), p).Validate(); err != nil {
			t.Errorf("%s: %v", path, err)
		}
	}
}
