package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"worklens/internal/modules/capture/domain"
	captureout "worklens/internal/modules/capture/port/out"
	"worklens/internal/platform/clock"
	"worklens/internal/platform/eventbus"
)

const RecentCapacity = 30

type Snapshot struct {
	Sessions []domain.WindowSession
	Counts   domain.Counts
	TakenAt  time.Time
}

// SessionTracker owns the open window session, the sessions closed since
// the last snapshot and a ring of recently closed sessions. All methods are
// safe for concurrent use.
type SessionTracker struct {
	mu      sync.Mutex
	clock   clock.Clock
	rules   domain.PrivacyRules
	current *domain.WindowSession
	pending []domain.WindowSession
	recent  []domain.WindowSession
	persist bool
	totals  domain.Counts

	pressed   map[string]struct{}
	hotkeys   map[eventbus.EventType][]string
	latched   map[eventbus.EventType]bool
	publisher captureout.HotkeyPublisher
}

func NewSessionTracker(clock clock.Clock, hotkeys map[eventbus.EventType][]string, publisher captureout.HotkeyPublisher) *SessionTracker {
	return &SessionTracker{
		clock:     clock,
		pressed:   map[string]struct{}{},
		hotkeys:   hotkeys,
		latched:   map[eventbus.EventType]bool{},
		publisher: publisher,
	}
}

func (t *SessionTracker) SetRules(rules domain.PrivacyRules) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules = rules.Clone()
	if t.current != nil && t.rules.IsPrivate(t.current.Window) {
		t.current.Private = true
		t.current.KeyEvents = nil
	}
}

func (t *SessionTracker) Rules() domain.PrivacyRules {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rules.Clone()
}

// SetPersistence controls whether closed sessions queue up for the next
// snapshot. Turning it off drops the queue.
func (t *SessionTracker) SetPersistence(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.persist = enabled
	if !enabled {
		t.pending = nil
	}
}

func (t *SessionTracker) FocusChanged(window domain.WindowInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()
	t.closeCurrentLocked(now)
	t.current = domain.NewWindowSession(window, now, t.rules.IsPrivate(window))
}

func (t *SessionTracker) closeCurrentLocked(now time.Time) {
	if t.current == nil {
		return
	}
	t.current.End(now)
	closed := *t.current
	t.current = nil
	t.remember(closed)
	if t.persist {
		t.pending = append(t.pending, closed)
	}
}

func (t *SessionTracker) remember(closed domain.WindowSession) {
	t.recent = append(t.recent, closed)
	if len(t.recent) > RecentCapacity {
		t.recent = slices.Delete(t.recent, 0, len(t.recent)-RecentCapacity)
	}
}

// Record applies one input event to the open session and the running
// totals. Events that arrive before any focus only count towards totals.
func (t *SessionTracker) Record(ctx context.Context, event domain.InputEvent) error {
	t.mu.Lock()
	if event.At.IsZero() {
		event.At = t.clock.Now()
	}
	if t.current != nil {
		if err := t.current.AddEvent(event); err != nil {
			t.mu.Unlock()
			return err
		}
	}
	switch event.Kind {
	case domain.InputKey:
		if event.Action == domain.KeyPress {
			t.totals.Keys++
		}
	case domain.InputClick:
		t.totals.Clicks++
	case domain.InputScroll:
		t.totals.Scrolls++
	}
	fired := t.trackHotkeysLocked(event)
	t.mu.Unlock()

	if t.publisher != nil {
		for _, hotkey := range fired {
			t.publisher.Broadcast(ctx, eventbus.HotkeyEvent{Timestamp: event.At, Type: hotkey})
		}
	}
	return nil
}

func (t *SessionTracker) trackHotkeysLocked(event domain.InputEvent) []eventbus.EventType {
	if event.Kind != domain.InputKey {
		return nil
	}
	switch event.Action {
	case domain.KeyPress:
		t.pressed[event.Key] = struct{}{}
	case domain.KeyRelease:
		delete(t.pressed, event.Key)
	}
	fired := []eventbus.EventType{}
	for hotkey, combo := range t.hotkeys {
		if len(combo) == 0 {
			continue
		}
		all := true
		for _, key := range combo {
			if _, ok := t.pressed[key]; !ok {
				all = false
				break
			}
		}
		if all && !t.latched[hotkey] {
			fired = append(fired, hotkey)
		}
		t.latched[hotkey] = all
	}
	return fired
}

// Snapshot closes the open session, returns every session since the last
// snapshot with privacy redaction applied, resets the totals and reopens a
// session on the same window.
func (t *SessionTracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()

	var reopen *domain.WindowInfo
	sessions := slices.Clone(t.pending)
	if t.current != nil {
		window := t.current.Window
		reopen = &window
		t.current.End(now)
		closed := *t.current
		sessions = append(sessions, closed)
		t.remember(closed)
		t.current = nil
	}
	for i := range sessions {
		sessions[i] = sessions[i].Redacted(t.rules)
	}

	out := Snapshot{Sessions: sessions, Counts: t.totals, TakenAt: now}
	t.pending = nil
	t.totals = domain.Counts{}
	if reopen != nil {
		t.current = domain.NewWindowSession(*reopen, now, t.rules.IsPrivate(*reopen))
	}
	return out
}

// RecentSessions returns closed sessions that ended within the last
// duration, oldest first.
func (t *SessionTracker) RecentSessions(within time.Duration) []domain.WindowSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.clock.Now().Add(-within)
	out := []domain.WindowSession{}
	for _, session := range t.recent {
		if !session.EndTime.Before(cutoff) {
			out = append(out, session.Redacted(t.rules))
		}
	}
	return out
}

func (t *SessionTracker) Current() (domain.WindowSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return domain.WindowSession{}, false
	}
	return t.current.Redacted(t.rules), true
}
