package domain

import (
	"fmt"
	"time"

	capturedto "worklens/internal/modules/capture/dto"
	apperrors "worklens/internal/platform/errors"
)

// IDLayout is fixed width so a session's ids sort in capture order.
const IDLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Snapshot is the raw activity persisted on every capture tick.
type Snapshot struct {
	ID             string
	SessionID      string
	CapturedAt     time.Time
	Screenshot     []byte
	WindowSessions []capturedto.SessionRecord
	Totals         capturedto.Counts
}

// SnapshotID scopes the capture time to its session, so two sessions
// capturing at the same instant keep separate snapshots.
func SnapshotID(sessionID string, capturedAt time.Time) string {
	return sessionID + "/" + capturedAt.UTC().Format(IDLayout)
}

func (s Snapshot) Validate() error {
	if s.SessionID == "" {
		return fmt.Errorf("%w: snapshot session id is required", apperrors.ErrInvalidInput)
	}
	if s.CapturedAt.IsZero() {
		return fmt.Errorf("%w: snapshot capture time is required", apperrors.ErrInvalidInput)
	}
	if s.ID != SnapshotID(s.SessionID, s.CapturedAt) {
		return fmt.Errorf("%w: snapshot id %q does not match session and capture time", apperrors.ErrInvalidInput, s.ID)
	}
	if s.Totals.Keys < 0 || s.Totals.Clicks < 0 || s.Totals.Scrolls < 0 {
		return fmt.Errorf("%w: negative totals", apperrors.ErrInvalidInput)
	}
	for idx, session := range s.WindowSessions {
		if !session.EndTime.IsZero() && session.EndTime.Before(session.StartTime) {
			return fmt.Errorf("%w: window session %d ends before it starts", apperrors.ErrInvalidInput, idx)
		}
		if session.Duration < 0 {
			return fmt.Errorf("%w: window session %d has negative duration", apperrors.ErrInvalidInput, idx)
		}
	}
	return nil
}

func (s Snapshot) HasActivity() bool {
	return len(s.WindowSessions) > 0
}
