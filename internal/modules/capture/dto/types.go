package dto

import "time"

type FocusInput struct {
	Class string
	Title string
}

type InputEvent struct {
	Kind   string
	Key    string
	Action string
	Button string
	Amount int
}

type KeyEventRecord struct {
	Key       string    `json:"key"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionRecord is the serialized form of a window session as stored in
// snapshots and passed to analysis.
type SessionRecord struct {
	WindowClass     string           `json:"window_class"`
	WindowTitle     string           `json:"window_title"`
	StartTime       time.Time        `json:"start_time"`
	EndTime         time.Time        `json:"end_time"`
	Duration        float64          `json:"duration"`
	KeyEvents       []KeyEventRecord `json:"key_events"`
	KeyCount        int              `json:"key_count"`
	ClickCount      int              `json:"click_count"`
	ScrollCount     int              `json:"scroll_count"`
	PrivacyFiltered bool             `json:"privacy_filtered"`
}

type Counts struct {
	Keys    int `json:"keys"`
	Clicks  int `json:"clicks"`
	Scrolls int `json:"scrolls"`
}

type SnapshotOutput struct {
	Sessions   []SessionRecord
	Counts     Counts
	Screenshot []byte
	CapturedAt time.Time
}

type PrivacyRuleInput struct {
	Pattern   string
	Temporary bool
}

type PrivacyRulesOutput struct {
	AlwaysPrivate  []string
	CurrentPrivate []string
}
