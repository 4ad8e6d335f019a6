// Package results holds the latest simulation result and the active display
// mode for a session.
package results

import (
	"fmt"
	"log"
	"sync"

	"wealth-planner/internal/model"
	"wealth-planner/internal/signal"
)

// Update is emitted whenever the stored state changes.
type Update struct {
	Generation uint64 `json:"generation"`
	// Kind is "result", "error" or "display".
	Kind  string `json:"kind"`
	Error string `json:"error,omitempty"`
}

// Store is safe for concurrent use. Results are replaced wholesale and only
// by a newer generation than the one currently shown, so a slow response to
// an old request can never overwrite a newer one.
type Store struct {
	mu        sync.RWMutex
	result    *model.SimulationResult
	applied   uint64
	lastErr   error
	errGen    uint64
	moneyType model.MoneyType
	scale     model.Scale

	updates *signal.Signal[Update]
}

func NewStore(mt model.MoneyType, scale model.Scale) *Store {
	if parsed, err := model.ParseMoneyType(string(mt)); err == nil {
		mt = parsed
	} else {
		mt = model.MoneyReal
	}
	if parsed, err := model.ParseScale(string(scale)); err == nil {
		scale = parsed
	} else {
		scale = model.ScaleLinear
	}
	return &Store{moneyType: mt, scale: scale, updates: signal.New[Update]()}
}

// Updates is the change feed. Handlers run on the goroutine that changed the
// store, after the store lock is released.
func (s *Store) Updates() *signal.Signal[Update] { return s.updates }

// Apply installs res as the result of request generation gen. It returns
// false and leaves the store untouched when gen is not newer than the
// generation already shown.
func (s *Store) Apply(gen uint64, res *model.SimulationResult) bool {
	if res == nil {
		return false
	}
	s.mu.Lock()
	if gen <= s.applied {
		cur := s.applied
		s.mu.Unlock()
		log.Printf("[Results] Discarding stale result gen=%d (showing gen=%d)", gen, cur)
		return false
	}
	s.result = res
	s.applied = gen
	if s.errGen <= gen {
		s.lastErr = nil
	}
	s.mu.Unlock()

	s.updates.Emit(Update{Generation: gen, Kind: "result"})
	return true
}

// Fail records a transport failure for generation gen. The prior result is
// kept. Failures older than the shown result are ignored.
func (s *Store) Fail(gen uint64, err error) bool {
	if err == nil {
		return false
	}
	s.mu.Lock()
	if gen <= s.applied || gen < s.errGen {
		s.mu.Unlock()
		return false
	}
	s.lastErr = err
	s.errGen = gen
	s.mu.Unlock()

	log.Printf("[Results] Simulation gen=%d failed: %v", gen, err)
	s.updates.Emit(Update{Generation: gen, Kind: "error", Error: err.Error()})
	return true
}

// Result returns the shown result and its generation. The result must be
// treated as read-only.
func (s *Store) Result() (*model.SimulationResult, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result, s.applied
}

// Err is the last recorded failure newer than the shown result.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// SetDisplay switches money type and axis scale. Empty arguments keep the
// current setting.
func (s *Store) SetDisplay(mt model.MoneyType, scale model.Scale) error {
	if mt != "" {
		parsed, err := model.ParseMoneyType(string(mt))
		if err != nil {
			return err
		}
		mt = parsed
	}
	if scale != "" {
		parsed, err := model.ParseScale(string(scale))
		if err != nil {
			return err
		}
		scale = parsed
	}
	s.mu.Lock()
	if mt != "" {
		s.moneyType = mt
	}
	if scale != "" {
		s.scale = scale
	}
	gen := s.applied
	s.mu.Unlock()

	s.updates.Emit(Update{Generation: gen, Kind: "display"})
	return nil
}

// Display returns the current money type and scale.
func (s *Store) Display() (model.MoneyType, model.Scale) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.moneyType, s.scale
}

func (s *Store) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("results(gen=%d, %s, %s)", s.applied, s.moneyType, s.scale)
}
