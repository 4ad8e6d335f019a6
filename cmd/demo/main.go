package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"wealth-planner/internal/config"
	"wealth-planner/internal/editor"
	"wealth-planner/internal/model"
	"wealth-planner/internal/report"
	"wealth-planner/internal/session"
	"wealth-planner/internal/simclient"

	"github.com/goccy/go-json"
)

// Demo:
// - Open a session on the default plan (or --config)
// - Walk both editors through a few edits, printing the schedules
// - Print the request that would be sent, and optionally send it
func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	simulate := flag.Bool("simulate", false, "Send the final request to the simulation service")
	url := flag.String("url", os.Getenv("SIMULATION_URL"), "Simulation service URL")
	outCSV := flag.String("out", "", "Optional path to write the result ledger CSV (e.g. results/demo.csv)")
	flag.Parse()

	plan := config.DefaultPlan()
	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			panic(err)
		}
		plan = cfg.Plan
	}

	opts := session.Options{}
	if *simulate {
		opts.Simulator = simclient.New(*url, 2*time.Minute)
	}
	s, err := session.New(plan, opts)
	if err != nil {
		panic(err)
	}
	defer s.Close()

	s.Events().Subscribe(func(ev session.Event) {
		switch ev.Type {
		case session.EventChange:
			fmt.Printf("  event: %s/%s\n", ev.Editor, ev.Op)
		case session.EventError:
			fmt.Printf("  event: simulation %d failed: %s\n", ev.Generation, ev.Error)
		default:
			fmt.Printf("  event: %s (generation %d)\n", ev.Type, ev.Generation)
		}
	})

	fmt.Printf("Plan %q: %d years, %d steps\n", plan.Name, plan.HorizonYears, plan.Horizon())
	printSchedules(s)

	step("Insert a cashflow breakpoint halfway through saving (value is interpolated)")
	show(s.EditCashflow(func(c *editor.Cashflow) error {
		p, err := c.AddPointAt(180)
		if err == nil {
			fmt.Printf("  inserted %+v\n", p)
		}
		return err
	}))

	step("Try to insert 4 steps from that point (too close, rejected)")
	show(s.EditCashflow(func(c *editor.Cashflow) error {
		_, err := c.AddPointAt(184)
		return err
	}))

	step("Try to remove the first breakpoint (endpoints are fixed, rejected)")
	show(s.EditCashflow(func(c *editor.Cashflow) error { return c.RemovePointAt(0) }))

	step("Drag the 180 breakpoint toward step 200 at 9000 (snaps to 204, one change on release)")
	show(s.EditCashflow(func(c *editor.Cashflow) error {
		if err := c.BeginDrag(180); err != nil {
			return err
		}
		for _, st := range []int{185, 190, 200} {
			if _, err := c.DragTo(st, 9000); err != nil {
				c.CancelDrag()
				return err
			}
		}
		return c.EndDrag()
	}))

	step("Type a value into the dialog for the breakpoint at 204")
	show(s.EditCashflow(func(c *editor.Cashflow) error {
		_, err := c.SetPointValueText(204, "7500.50")
		return err
	}))

	step("Shift the retirement segment down by 5000")
	show(s.EditCashflow(func(c *editor.Cashflow) error {
		if err := c.BeginSegmentDrag(540); err != nil {
			return err
		}
		if _, err := c.DragSegmentBy(-5000); err != nil {
			c.CancelDrag()
			return err
		}
		return c.EndDrag()
	}))

	step("At step 360 move the bonds boundary to 0.2, then the stocks boundary to 0.9 (10% cash)")
	show(s.EditWeights(func(w *editor.Weights) error {
		_, err := w.DragPoint(360, editor.HandleBonds, 360, 0.2)
		if err != nil {
			return err
		}
		_, err = w.DragPoint(360, editor.HandleStocks, 360, 0.9)
		return err
	}))

	step("Shorten the plan to 50 years")
	show(s.SetHorizon(50))
	printSchedules(s)

	req, err := s.Request()
	if err != nil {
		panic(err)
	}
	raw, _ := json.MarshalIndent(req, "", "  ")
	fmt.Println("\nRequest:")
	fmt.Println(string(raw))

	if !*simulate {
		return
	}
	step("Simulate")
	if _, err := s.Simulate(); err != nil {
		panic(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		panic(err)
	}
	view, ok := s.View()
	if !ok {
		fmt.Printf("No result: %s\n", view.Error)
		os.Exit(1)
	}
	fmt.Printf("Final median %.0f (%s), destitution area %.4f, simulated in %.2fs\n",
		view.FinalMedian, view.MoneyType, view.DestitutionArea, view.SimulationTime)

	if *outCSV != "" {
		res, _ := s.Result()
		ledger := report.BuildLedger(res, model.MoneyReal, plan.StepsPerYear)
		if err := report.WriteLedgerCSV(*outCSV, ledger); err != nil {
			panic(err)
		}
		fmt.Printf("Wrote %d rows to %s\n", len(ledger.Rows), *outCSV)
	}
}

func step(title string) {
	fmt.Printf("\n== %s\n", title)
}

func show(err error) {
	if err != nil {
		fmt.Printf("  rejected: %v\n", err)
	}
}

func printSchedules(s *session.Session) {
	snap := s.Snapshot()
	fmt.Println("  cashflow:")
	for _, p := range snap.Cashflow {
		fmt.Printf("    step %4d  year %5.1f  %10.2f\n", p.Step, float64(p.Step)/float64(snap.StepsPerUnit), p.Value)
	}
	fmt.Println("  weights:")
	for _, w := range snap.Weights {
		fmt.Printf("    step %4d  bonds %.2f  stocks %.2f  cash %.2f\n", w.Step, w.Bonds, w.Stocks, w.Cash)
	}
}
