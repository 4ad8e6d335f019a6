package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"wealth-planner/internal/analysis"
	"wealth-planner/internal/config"
	"wealth-planner/internal/data"
	"wealth-planner/internal/model"
	"wealth-planner/internal/report"
	"wealth-planner/internal/session"
	"wealth-planner/internal/simclient"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	_ = godotenv.Load()

	switch os.Args[1] {
	case "request":
		cmdRequest(os.Args[2:])
	case "simulate":
		cmdSimulate(os.Args[2:])
	case "schedule":
		cmdSchedule(os.Args[2:])
	case "render":
		cmdRender(os.Args[2:])
	case "health":
		cmdHealth(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli request  --config examples/config.yaml")
	fmt.Println("  cli simulate --config examples/config.yaml --out results/result.csv [--money real] [--save results/result.json]")
	fmt.Println("  cli schedule --config examples/config.yaml --out results/schedule.csv [--every 12]")
	fmt.Println("  cli render   --result results/result.json --out results/result.csv [--money nominal]")
	fmt.Println("  cli health   [--url http://127.0.0.1:5000]")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - request prints the JSON body the simulation service would receive")
	fmt.Println("  - SIMULATION_URL overrides the service URL from the config")
}

// loadConfig reads path (or the default plan when empty) and applies the
// environment.
func loadConfig(path string) *config.Config {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	return cfg
}

func cmdRequest(args []string) {
	fs := flag.NewFlagSet("request", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (default plan if empty)")
	_ = fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	req, err := session.BuildRequest(cfg.Plan)
	if err != nil {
		panic(err)
	}
	raw, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		panic(err)
	}
	fmt.Println(string(raw))
}

func cmdSimulate(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (default plan if empty)")
	outPath := fs.String("out", "results/result.csv", "Output CSV path")
	money := fs.String("money", "", "Money type for the ledger: real or nominal (default from plan)")
	savePath := fs.String("save", "", "Optional: also save request+result JSON here")
	_ = fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	mt := moneyType(*money, cfg.Plan.MoneyType)

	req, err := session.BuildRequest(cfg.Plan)
	if err != nil {
		panic(err)
	}
	timeout, _ := cfg.Simulation.TimeoutDuration()
	client := simclient.New(cfg.Simulation.URL, timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	res, err := client.Simulate(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulation failed: %v\n", err)
		os.Exit(1)
	}

	ledger := report.BuildLedger(res, mt, cfg.Plan.StepsPerYear)
	if err := report.WriteLedgerCSV(*outPath, ledger); err != nil {
		panic(err)
	}
	if *savePath != "" {
		if err := data.SaveResult(*savePath, &data.SavedResult{Plan: cfg.Plan.Name, Request: req, Result: res}); err != nil {
			panic(err)
		}
		fmt.Printf("Saved result to %s\n", *savePath)
	}

	fmt.Printf("Wrote %d rows to %s\n", len(ledger.Rows), *outPath)
	printSummary(analysis.Summarize(cfg.Plan.Name, res, mt))
}

func cmdSchedule(args []string) {
	fs := flag.NewFlagSet("schedule", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (default plan if empty)")
	outPath := fs.String("out", "results/schedule.csv", "Output CSV path")
	every := fs.Int("every", 0, "Row spacing in steps (default: one row per year)")
	_ = fs.Parse(args)

	cfg := loadConfig(*cfgPath)
	s, err := session.New(cfg.Plan, session.Options{})
	if err != nil {
		panic(err)
	}
	defer s.Close()

	n := *every
	if n <= 0 {
		n = cfg.Plan.StepsPerYear
	}
	cashflow, weights := s.Schedules()
	rows := report.BuildSchedule(cashflow, weights, n, cfg.Plan.StepsPerYear)
	if err := report.WriteScheduleCSV(*outPath, rows); err != nil {
		panic(err)
	}
	fmt.Printf("Wrote %d rows to %s\n", len(rows), *outPath)
}

func cmdRender(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	resultPath := fs.String("result", "results/result.json", "Saved result JSON (or a raw service response)")
	outPath := fs.String("out", "results/result.csv", "Output CSV path")
	money := fs.String("money", "real", "Money type: real or nominal")
	stepsPerYear := fs.Int("steps-per-year", 12, "Editor steps per service step")
	_ = fs.Parse(args)

	saved, err := data.LoadResult(*resultPath)
	if err != nil {
		panic(err)
	}
	mt := moneyType(*money, "")
	ledger := report.BuildLedger(saved.Result, mt, *stepsPerYear)
	if err := report.WriteLedgerCSV(*outPath, ledger); err != nil {
		panic(err)
	}
	fmt.Printf("Wrote %d rows to %s\n", len(ledger.Rows), *outPath)
	printSummary(analysis.Summarize(saved.Plan, saved.Result, mt))
}

func cmdHealth(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	url := fs.String("url", os.Getenv("SIMULATION_URL"), "Simulation service URL")
	_ = fs.Parse(args)

	client := simclient.New(*url, 5*time.Second)
	status, err := client.Health(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", client.BaseURL, err)
		os.Exit(1)
	}
	fmt.Printf("%s: %s\n", client.BaseURL, status)
}

func moneyType(flagValue, planValue string) model.MoneyType {
	v := flagValue
	if v == "" {
		v = planValue
	}
	if v == "" {
		return model.MoneyReal
	}
	mt, err := model.ParseMoneyType(v)
	if err != nil {
		panic(err)
	}
	return mt
}

func printSummary(s analysis.Summary) {
	first := "never"
	if s.FirstDestitutionYear >= 0 {
		first = fmt.Sprintf("year %.1f", s.FirstDestitutionYear)
	}
	fmt.Printf("Plan %q (%s): final median=%.0f p05=%.0f p95=%.0f\n", s.Name, s.MoneyType, s.FinalMedian, s.FinalP05, s.FinalP95)
	fmt.Printf("Destitution area=%.4f final=%.1f%% first=%s success=%.1f%%\n",
		s.DestitutionArea, s.FinalDestitution*100, first, s.SuccessProbability*100)
}
