// Package session is the explicit per-user editing context: both schedule
// editors, the scalar parameters, the result store and the dispatcher that
// feeds it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"wealth-planner/internal/assembler"
	"wealth-planner/internal/config"
	"wealth-planner/internal/dispatch"
	"wealth-planner/internal/editor"
	"wealth-planner/internal/model"
	"wealth-planner/internal/results"
	"wealth-planner/internal/series"
	"wealth-planner/internal/signal"
)

// ErrNoSimulator is returned by Simulate when the session was built without
// a simulation backend.
var ErrNoSimulator = errors.New("no simulation service configured")

// ErrClosed is returned by every operation on a closed session.
var ErrClosed = errors.New("session closed")

// Editor names used in change events that do not come from a series editor.
const (
	sourceParams  = "params"
	sourceSession = "session"
)

type Options struct {
	// Simulator runs requests. Nil disables Simulate.
	Simulator dispatch.Simulator
	// AutoSimulate submits a request after every committed edit.
	AutoSimulate bool
}

// Session serializes all edits behind one mutex, standing in for a UI event
// loop. Subscribers to Events must not block and must not call back into the
// session.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	plan     string
	params   model.SimulationParams
	layout   assembler.Layout
	bus      *editor.Bus
	cashflow *editor.Cashflow
	weights  *editor.Weights
	store    *results.Store
	disp     *dispatch.Dispatcher
	auto     bool
	lastGen  uint64
	closed   bool

	events *signal.Signal[Event]
}

// New builds a session from a plan. Schedules are rescaled to the plan
// horizon when their last breakpoint is elsewhere.
func New(plan config.PlanConfig, opts Options) (*Session, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	bus := signal.New[editor.Change]()

	cash, err := editor.NewCashflow(*plan.MaxInflow, *plan.MaxOutflow, plan.Snap, plan.CashflowSeries(), bus)
	if err != nil {
		return nil, err
	}
	w, err := editor.NewWeights(plan.Snap, plan.WeightsSeries(), bus)
	if err != nil {
		return nil, err
	}
	if err := cash.Rescale(plan.Horizon()); err != nil {
		return nil, err
	}
	if err := w.Rescale(plan.Horizon()); err != nil {
		return nil, err
	}

	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		plan:      plan.Name,
		params:    plan.SimulationParams(),
		layout:    assembler.Layout{StepsPerUnit: plan.StepsPerYear},
		bus:       bus,
		cashflow:  cash,
		weights:   w,
		store:     results.NewStore(model.MoneyType(plan.MoneyType), model.Scale(plan.Scale)),
		auto:      opts.AutoSimulate,
		events:    signal.New[Event](),
	}
	if opts.Simulator != nil {
		s.disp = dispatch.New(opts.Simulator, s.store)
	}
	bus.Subscribe(s.onChange)
	s.store.Updates().Subscribe(s.onResult)

	log.Printf("[Session] Created %s from plan %q (horizon=%d steps)", s.ID, s.plan, plan.Horizon())
	return s, nil
}

// Events streams changes and results.
func (s *Session) Events() *signal.Signal[Event] { return s.events }

// onChange runs synchronously inside an edit, with s.mu held.
func (s *Session) onChange(c editor.Change) {
	ev := Event{Type: EventChange, Editor: c.Editor, Op: c.Op}
	snap := s.snapshotLocked()
	ev.Snapshot = &snap
	s.events.Emit(ev)

	if s.auto && s.disp != nil {
		if _, err := s.submitLocked(); err != nil {
			log.Printf("[Session] %s: auto-simulate skipped: %v", s.ID, err)
		}
	}
}

// onResult runs on the dispatcher goroutine or inside SetDisplay.
func (s *Session) onResult(u results.Update) {
	ev := Event{Type: u.Kind, Generation: u.Generation, Error: u.Error}
	if v, ok := s.store.View(s.stepsPerUnit()); ok || u.Kind == EventError {
		ev.View = &v
	}
	s.events.Emit(ev)
}

func (s *Session) stepsPerUnit() int {
	// layout is fixed after New, so no lock is needed
	return s.layout.StepsPerUnit
}

// EditCashflow runs fn against the cashflow editor under the session lock.
// Controller errors are returned as they are.
func (s *Session) EditCashflow(fn func(c *editor.Cashflow) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return fn(s.cashflow)
}

// EditWeights runs fn against the weights editor under the session lock.
func (s *Session) EditWeights(fn func(w *editor.Weights) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return fn(s.weights)
}

// SetParams overlays the set fields of override onto the current scalar
// parameters. The horizon is changed only through SetHorizon.
func (s *Session) SetParams(override model.SimulationParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	next := s.params.Merge(override)
	next.Horizon = s.params.Horizon
	if err := next.Validate(); err != nil {
		return err
	}
	s.params = next
	s.bus.Emit(editor.Change{Editor: sourceParams, Op: "set"})
	return nil
}

// SetHorizon rescales both schedules to years * steps-per-year and emits a
// single change. It is rejected while either editor is mid-gesture.
func (s *Session) SetHorizon(years int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if years < 1 {
		return &model.ValidationError{Field: "years", Message: "must be >= 1"}
	}
	if s.cashflow.State() != editor.GestureIdle || s.weights.State() != editor.GestureIdle {
		return &model.InvariantViolation{Op: "horizon", Step: years, Reason: "gesture in progress"}
	}
	h := years * s.layout.StepsPerUnit
	if err := s.cashflow.Rescale(h); err != nil {
		return err
	}
	if err := s.weights.Rescale(h); err != nil {
		return err
	}
	s.params.Horizon = h
	s.bus.Emit(editor.Change{Editor: sourceSession, Op: "horizon"})
	return nil
}

// Request assembles the request the current state would send.
func (s *Session) Request() (*model.SimulationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestLocked()
}

func (s *Session) requestLocked() (*model.SimulationRequest, error) {
	return assembler.Build(s.cashflow.Points(), s.weights.Points(), s.params, s.layout)
}

// Simulate assembles and submits a request, returning its generation.
func (s *Session) Simulate() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if s.disp == nil {
		return 0, ErrNoSimulator
	}
	return s.submitLocked()
}

func (s *Session) submitLocked() (uint64, error) {
	req, err := s.requestLocked()
	if err != nil {
		return 0, err
	}
	gen, err := s.disp.Submit(req)
	if err != nil {
		return 0, err
	}
	s.lastGen = gen
	return gen, nil
}

// SetDisplay switches the money type and/or axis scale of the result view.
func (s *Session) SetDisplay(mt model.MoneyType, scale model.Scale) error {
	return s.store.SetDisplay(mt, scale)
}

// View returns the current result view; ok is false before the first result.
func (s *Session) View() (results.View, bool) {
	return s.store.View(s.stepsPerUnit())
}

// Result returns the raw stored result and its generation.
func (s *Session) Result() (*model.SimulationResult, uint64) {
	return s.store.Result()
}

// Wait blocks until no simulation is in flight or pending. Sessions without
// a simulator return at once.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	d := s.disp
	s.mu.Unlock()
	if d == nil {
		return nil
	}
	return d.Wait(ctx)
}

// Busy reports whether a simulation is in flight or pending.
func (s *Session) Busy() bool {
	s.mu.Lock()
	d := s.disp
	s.mu.Unlock()
	return d != nil && d.Busy()
}

// DispatchStats reports dispatcher counters; zero without a simulator.
func (s *Session) DispatchStats() dispatch.Stats {
	s.mu.Lock()
	d := s.disp
	s.mu.Unlock()
	if d == nil {
		return dispatch.Stats{}
	}
	return d.Stats()
}

// Schedules returns both series as they are now. Series values are
// immutable, so they are safe to use after the lock is released.
func (s *Session) Schedules() (series.Series[float64], series.Series[model.Weights]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cashflow.Series(), s.weights.Series()
}

// Snapshot is a read-only copy of the editable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	maxIn, maxOut := s.cashflow.Bounds()
	cash := s.cashflow.Series()
	mt, scale := s.store.Display()
	snap := Snapshot{
		ID:           s.ID,
		Plan:         s.plan,
		Horizon:      cash.Horizon(),
		HorizonYears: s.layout.ToUnits(cash.Horizon()),
		StepsPerUnit: s.layout.StepsPerUnit,
		Snap:         cash.Snap(),
		MaxInflow:    maxIn,
		MaxOutflow:   maxOut,
		Cashflow:     cash.Points(),
		Weights:      weightsView(s.weights.Points()),
		Params:       s.params.Clone(),
		Gestures: map[string]editor.GestureState{
			editor.NameCashflow: s.cashflow.State(),
			editor.NameWeights:  s.weights.State(),
		},
		LastGeneration: s.lastGen,
		MoneyType:      mt,
		Scale:          scale,
	}
	return snap
}

func weightsView(pts []series.Point[model.Weights]) []WeightsPoint {
	out := make([]WeightsPoint, len(pts))
	for i, p := range pts {
		out[i] = WeightsPoint{Step: p.Step, Bonds: p.Value.Bonds, Stocks: p.Value.Stocks, Cash: p.Value.Cash()}
	}
	return out
}

// Close stops the dispatcher and drops all subscribers.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	d := s.disp
	s.mu.Unlock()

	if d != nil {
		d.Close()
	}
	s.bus.Clear()
	s.store.Updates().Clear()
	s.events.Emit(Event{Type: EventClosed})
	s.events.Clear()
	log.Printf("[Session] Closed %s", s.ID)
}

func (s *Session) String() string {
	return fmt.Sprintf("session(%s, plan=%s)", s.ID, s.plan)
}

// BuildRequest assembles the request a fresh session for plan would send,
// without keeping the session.
func BuildRequest(plan config.PlanConfig) (*model.SimulationRequest, error) {
	s, err := New(plan, Options{})
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Request()
}
