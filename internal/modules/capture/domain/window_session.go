package domain

import (
	"time"

	apperrors "worklens/internal/platform/errors"
)

type WindowInfo struct {
	Class string
	Title string
}

type InputKind string

const (
	InputKey    InputKind = "key"
	InputClick  InputKind = "click"
	InputScroll InputKind = "scroll"
)

type KeyAction string

const (
	KeyPress   KeyAction = "press"
	KeyRelease KeyAction = "release"
)

type InputEvent struct {
	Kind   InputKind
	Key    string
	Action KeyAction
	Button string
	Amount int
	At     time.Time
}

type KeyEvent struct {
	Key    string
	Action KeyAction
	At     time.Time
}

type Counts struct {
	Keys    int
	Clicks  int
	Scrolls int
}

func (c Counts) Add(other Counts) Counts {
	return Counts{Keys: c.Keys + other.Keys, Clicks: c.Clicks + other.Clicks, Scrolls: c.Scrolls + other.Scrolls}
}

func (c Counts) Empty() bool {
	return c.Keys == 0 && c.Clicks == 0 && c.Scrolls == 0
}

// WindowSession is one continuous span of focus on a single window.
// Key details are not retained while Private is set; counts always are.
type WindowSession struct {
	Window          WindowInfo
	StartTime       time.Time
	EndTime         time.Time
	KeyEvents       []KeyEvent
	Counts          Counts
	Private         bool
	PrivacyFiltered bool
}

func NewWindowSession(window WindowInfo, start time.Time, private bool) *WindowSession {
	return &WindowSession{Window: window, StartTime: start, Private: private}
}

func (s *WindowSession) Open() bool {
	return s.EndTime.IsZero()
}

func (s *WindowSession) AddEvent(event InputEvent) error {
	if !s.Open() {
		return apperrors.ErrSessionClosed
	}
	switch event.Kind {
	case InputKey:
		if event.Action == KeyPress {
			s.Counts.Keys++
		}
		if !s.Private {
			s.KeyEvents = append(s.KeyEvents, KeyEvent{Key: event.Key, Action: event.Action, At: event.At})
		}
	case InputClick:
		s.Counts.Clicks++
	case InputScroll:
		s.Counts.Scrolls++
	default:
		return apperrors.ErrInvalidInput
	}
	return nil
}

// End freezes the session. Ending an already closed session keeps the
// first end time.
func (s *WindowSession) End(at time.Time) {
	if !s.Open() {
		return
	}
	if at.Before(s.StartTime) {
		at = s.StartTime
	}
	s.EndTime = at
}

func (s *WindowSession) Duration(now time.Time) time.Duration {
	end := s.EndTime
	if s.Open() {
		end = now
	}
	if end.Before(s.StartTime) {
		return 0
	}
	return end.Sub(s.StartTime)
}

// Redacted returns a copy with key details removed when the session was
// private or matches rules now.
func (s WindowSession) Redacted(rules PrivacyRules) WindowSession {
	if !s.Private && !rules.IsPrivate(s.Window) {
		s.KeyEvents = append([]KeyEvent(nil), s.KeyEvents...)
		return s
	}
	s.KeyEvents = []KeyEvent{}
	s.PrivacyFiltered = true
	return s
}
