package domain

import (
	"sync"
	"time"

	apperrors "worklens/internal/platform/errors"
)

const SchemaVersion = 1

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseCapturing  Phase = "capturing"
	PhaseStopping   Phase = "stopping"
	PhaseFinalizing Phase = "finalizing"
)

type ActiveSession struct {
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
	Prompt    string    `json:"prompt,omitempty"`
}

// Lifecycle moves the pipeline through idle, capturing, stopping and
// finalizing. It holds the session being captured.
type Lifecycle struct {
	mu      sync.Mutex
	phase   Phase
	current ActiveSession
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{phase: PhaseIdle}
}

func (l *Lifecycle) Phase() Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase
}

func (l *Lifecycle) Current() (ActiveSession, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current, l.phase != PhaseIdle
}

func (l *Lifecycle) Begin(session ActiveSession) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase != PhaseIdle {
		return apperrors.ErrPipelineBusy
	}
	l.phase = PhaseCapturing
	l.current = session
	return nil
}

func (l *Lifecycle) Stop() (ActiveSession, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase != PhaseCapturing {
		return ActiveSession{}, apperrors.ErrNotCapturing
	}
	l.phase = PhaseStopping
	return l.current, nil
}

func (l *Lifecycle) Finalizing() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase == PhaseStopping {
		l.phase = PhaseFinalizing
	}
}

func (l *Lifecycle) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.phase = PhaseIdle
	l.current = ActiveSession{}
}

type ReportEntry struct {
	Type     string
	Start    time.Time
	End      time.Time
	Response string
}

// Report is the closing summary of one capture session.
type Report struct {
	SessionID string
	StartedAt time.Time
	EndedAt   time.Time
	Prompt    string
	Summary   string
	Entries   []ReportEntry
}

func (r Report) Duration() time.Duration {
	if r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// EntriesOf returns the entries of one analysis type in their original order.
func (r Report) EntriesOf(kind string) []ReportEntry {
	out := []ReportEntry{}
	for _, entry := range r.Entries {
		if entry.Type == kind {
			out = append(out, entry)
		}
	}
	return out
}
