package domain

import (
	"fmt"
	"sync"

	apperrors "worklens/internal/platform/errors"
)

type ReactorState string

const (
	ReactorIdle    ReactorState = "idle"
	ReactorRunning ReactorState = "running"
)

// ReactorGuard admits one tool loop at a time and bounds its iterations.
type ReactorGuard struct {
	mu        sync.Mutex
	state     ReactorState
	iteration int
	max       int
}

func NewReactorGuard(maxIterations int) *ReactorGuard {
	if maxIterations < 1 {
		maxIterations = 1
	}
	return &ReactorGuard{state: ReactorIdle, max: maxIterations}
}

func (g *ReactorGuard) Begin() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == ReactorRunning {
		return apperrors.ErrReactorBusy
	}
	g.state = ReactorRunning
	g.iteration = 0
	return nil
}

// Next starts another model round.
func (g *ReactorGuard) Next() (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.iteration >= g.max {
		return g.iteration, fmt.Errorf("%w: after %d rounds", apperrors.ErrToolLoopExhausted, g.iteration)
	}
	g.iteration++
	return g.iteration, nil
}

func (g *ReactorGuard) Finish() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = ReactorIdle
}

func (g *ReactorGuard) State() ReactorState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}
