package dto

import (
	"time"

	capturedto "worklens/internal/modules/capture/dto"
)

type StartInput struct {
	SessionID string
}

type SnapshotOutput struct {
	ID             string
	SessionID      string
	CapturedAt     time.Time
	Screenshot     []byte
	WindowSessions []capturedto.SessionRecord
	Totals         capturedto.Counts
}

type WindowInput struct {
	SessionID string
	After     time.Time
	Until     time.Time
}

type SessionSummary struct {
	SessionID string
	FirstAt   time.Time
	LastAt    time.Time
	Snapshots int
}
