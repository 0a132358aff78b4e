package dto

import "time"

type TrackInput struct {
	SessionID string
	StartedAt time.Time
}

// TriggerInput carries the bus event that may complete a window.
type TriggerInput struct {
	SessionID string
	At        time.Time
}

type FinalizeInput struct {
	SessionID string
	Prompt    string
}

// ListInput selects analyses of a session. Type is optional. With a Limit
// the most recent matches are kept; results are always oldest first.
type ListInput struct {
	SessionID string
	Type      string
	Until     time.Time
	Limit     int
}

type RecordOutput struct {
	ID                string    `json:"id"`
	SessionID         string    `json:"session_id"`
	Start             time.Time `json:"start_timestamp"`
	End               time.Time `json:"end_timestamp"`
	Type              string    `json:"analysis_type"`
	SourceActivityIDs []string  `json:"source_activity_ids"`
	Response          string    `json:"llm_response"`
	CreatedAt         time.Time `json:"created_at"`
}
