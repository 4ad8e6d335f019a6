// Package dispatch sends simulation requests one at a time.
//
// At most one request is in flight. Submitting while busy parks the request
// as pending, replacing any request already parked there; an in-flight
// request is never cancelled. When a request completes while a newer one is
// pending, its response is dropped instead of applied.
package dispatch

import (
	"context"
	"errors"
	"log"
	"sync"

	"wealth-planner/internal/model"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("dispatcher closed")

// Simulator runs one simulation. *simclient.Client implements it.
type Simulator interface {
	Simulate(ctx context.Context, req *model.SimulationRequest) (*model.SimulationResult, error)
}

// Sink receives completed requests. *results.Store implements it.
type Sink interface {
	Apply(gen uint64, res *model.SimulationResult) bool
	Fail(gen uint64, err error) bool
}

// Stats counts what happened to submitted requests.
type Stats struct {
	Submitted  uint64 `json:"submitted"`
	Sent       uint64 `json:"sent"`
	Superseded uint64 `json:"superseded"`
	Discarded  uint64 `json:"discarded"`
	Applied    uint64 `json:"applied"`
	Failed     uint64 `json:"failed"`
}

type job struct {
	gen uint64
	req *model.SimulationRequest
}

type Dispatcher struct {
	sim  Simulator
	sink Sink

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	gen      uint64
	inFlight bool
	pending  *job
	idle     chan struct{}
	closed   bool
	stats    Stats
	wg       sync.WaitGroup
}

func New(sim Simulator, sink Sink) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	return &Dispatcher{sim: sim, sink: sink, ctx: ctx, cancel: cancel, idle: idle}
}

// Submit queues req and returns its generation. Generations increase with
// every call.
func (d *Dispatcher) Submit(req *model.SimulationRequest) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrClosed
	}
	d.gen++
	d.stats.Submitted++
	j := &job{gen: d.gen, req: req}

	if d.inFlight {
		if d.pending != nil {
			log.Printf("[Dispatch] gen=%d supersedes pending gen=%d", j.gen, d.pending.gen)
			d.stats.Superseded++
		}
		d.pending = j
		return j.gen, nil
	}

	d.inFlight = true
	d.idle = make(chan struct{})
	d.wg.Add(1)
	go d.run(j)
	return j.gen, nil
}

func (d *Dispatcher) run(j *job) {
	defer d.wg.Done()
	for j != nil {
		d.mu.Lock()
		d.stats.Sent++
		d.mu.Unlock()

		log.Printf("[Dispatch] Sending gen=%d", j.gen)
		res, err := d.sim.Simulate(d.ctx, j.req)
		d.complete(j, res, err)
		j = d.next()
	}
}

func (d *Dispatcher) complete(j *job, res *model.SimulationResult, err error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	newer := d.pending != nil
	if newer {
		d.stats.Discarded++
	}
	d.mu.Unlock()

	if newer {
		log.Printf("[Dispatch] Dropping response for gen=%d, newer request pending", j.gen)
		return
	}
	if err != nil {
		var te *model.TransportError
		if !errors.As(err, &te) {
			err = &model.TransportError{Code: "SIMULATION_FAILED", Message: "simulation failed", Err: err}
		}
		if d.sink.Fail(j.gen, err) {
			d.count(func(s *Stats) { s.Failed++ })
		}
		return
	}
	if d.sink.Apply(j.gen, res) {
		d.count(func(s *Stats) { s.Applied++ })
	}
}

// next takes the pending request, or marks the dispatcher idle.
func (d *Dispatcher) next() *job {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil && !d.closed {
		j := d.pending
		d.pending = nil
		return j
	}
	d.pending = nil
	d.inFlight = false
	close(d.idle)
	return nil
}

func (d *Dispatcher) count(fn func(*Stats)) {
	d.mu.Lock()
	fn(&d.stats)
	d.mu.Unlock()
}

// Wait blocks until nothing is in flight or pending.
func (d *Dispatcher) Wait(ctx context.Context) error {
	d.mu.Lock()
	idle := d.idle
	d.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Busy reports whether a request is in flight.
func (d *Dispatcher) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFlight
}

// Generation is the last generation handed out by Submit.
func (d *Dispatcher) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}

func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Close drops any pending request, cancels the in-flight call and waits for
// the worker to exit.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.pending = nil
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}
