package eventbus

import "time"

type EventType string

const (
	ActivityStored              EventType = "ACTIVITY_STORED"
	AnalysisStored              EventType = "ANALYSIS_STORED"
	AnalysisMediumTermAvailable EventType = "ANALYSIS_MEDIUM_TERM_AVAILABLE"
	HotkeySpeak                 EventType = "HOTKEY_SPEAK"
)

// Event is anything that can be routed by topic.
type Event interface {
	Topic() string
}

// ActivityEvent travels on the pipeline bus. Timestamp is the end of the
// produced item: capture time for snapshots, window end for analyses.
type ActivityEvent struct {
	SessionID string
	Timestamp time.Time
	Type      EventType
	Data      any
}

func (e ActivityEvent) Topic() string {
	return string(e.Type)
}

type HotkeyEvent struct {
	Timestamp time.Time
	Type      EventType
}

func (e HotkeyEvent) Topic() string {
	return string(e.Type)
}
