package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"wealth-planner/internal/analysis"
	"wealth-planner/internal/data"
	"wealth-planner/internal/model"
	"wealth-planner/internal/session"
	"wealth-planner/internal/simclient"

	"github.com/joho/godotenv"
)

// run-plans simulates every preset in a plan directory and prints them
// ranked by destitution area, safest first.
func main() {
	_ = godotenv.Load()
	var (
		dir     = flag.String("dir", "examples/plans", "Plan preset directory")
		ids     = flag.String("plans", "", "Comma-separated preset IDs (default: all)")
		url     = flag.String("url", os.Getenv("SIMULATION_URL"), "Simulation service URL")
		money   = flag.String("money", "real", "Money type: real or nominal")
		timeout = flag.Duration("timeout", 2*time.Minute, "Per-plan request timeout")
		saveDir = flag.String("save", "", "Optional: directory to save each result as <id>.json")
	)
	flag.Parse()

	mt, err := model.ParseMoneyType(*money)
	if err != nil {
		log.Fatal(err)
	}

	var selected []string
	if *ids != "" {
		for _, id := range strings.Split(*ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				selected = append(selected, id)
			}
		}
	} else {
		entries, err := data.ListPlans(*dir)
		if err != nil {
			log.Fatalf("Failed to list plans: %v", err)
		}
		for _, e := range entries {
			selected = append(selected, e.ID)
		}
	}
	if len(selected) == 0 {
		log.Fatalf("No plans found in %s", *dir)
	}

	reqs := make(map[string]*model.SimulationRequest, len(selected))
	names := make(map[string]string, len(selected))
	for _, id := range selected {
		plan, err := data.LoadPlan(*dir, id)
		if err != nil {
			log.Fatalf("Failed to load plan %s: %v", id, err)
		}
		req, err := session.BuildRequest(plan)
		if err != nil {
			log.Fatalf("Plan %s is invalid: %v", id, err)
		}
		reqs[id] = req
		names[id] = plan.Name
	}

	client := simclient.New(*url, *timeout)
	fmt.Printf("Simulating %d plans against %s\n", len(reqs), client.BaseURL)

	results, failed, err := analysis.SimulatePlans(context.Background(), client, reqs)
	if err != nil {
		log.Fatalf("Simulation service failed: %v", err)
	}

	if *saveDir != "" {
		for id, res := range results {
			path := filepath.Join(*saveDir, id+".json")
			if err := data.SaveResult(path, &data.SavedResult{Plan: names[id], Request: reqs[id], Result: res}); err != nil {
				log.Printf("Failed to save %s: %v", id, err)
			}
		}
	}

	ranked := analysis.RankPlans(results, mt)
	fmt.Printf("%-4s %-20s %-10s %-9s %-10s %-14s %-14s\n", "rank", "plan", "area", "success", "ruin from", "median", "p05/p95")
	for _, r := range ranked {
		first := "-"
		if r.FirstDestitutionYear >= 0 {
			first = fmt.Sprintf("yr %.1f", r.FirstDestitutionYear)
		}
		fmt.Printf(
			"%-4d %-20s %-10.4f %-9s %-10s %-14.0f %.0f/%.0f\n",
			r.Rank,
			r.Name,
			r.DestitutionArea,
			fmt.Sprintf("%.1f%%", r.SuccessProbability*100),
			first,
			r.FinalMedian,
			r.FinalP05,
			r.FinalP95,
		)
	}

	if len(failed) > 0 {
		ids := make([]string, 0, len(failed))
		for id := range failed {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		fmt.Println("\nfailed:")
		for _, id := range ids {
			fmt.Printf("  %s: %v\n", id, failed[id])
		}
		os.Exit(1)
	}
}
