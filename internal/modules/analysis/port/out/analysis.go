package out

import (
	"context"
	"time"

	activitydto "worklens/internal/modules/activity/dto"
	"worklens/internal/modules/analysis/domain"
	"worklens/internal/platform/eventbus"
)

type SnapshotReader interface {
	// Window returns snapshots captured in (after, until], oldest first.
	Window(ctx context.Context, sessionID string, after, until time.Time) ([]activitydto.SnapshotOutput, error)
	Session(ctx context.Context, sessionID string) ([]activitydto.SnapshotOutput, error)
	LatestSessionID(ctx context.Context) (string, error)
}

// RecordQuery filters by session. A zero Type or Until matches any;
// Until is inclusive on the record start.
type RecordQuery struct {
	SessionID string
	Type      domain.Type
	Until     time.Time
	Limit     int
}

type RecordStore interface {
	Upsert(ctx context.Context, record domain.Record) error
	// Find returns the newest Limit matches, oldest first.
	Find(ctx context.Context, query RecordQuery) ([]domain.Record, error)
}

type Prompt struct {
	System      string
	User        string
	Temperature float64
	Images      [][]byte
}

type Model interface {
	Analyze(ctx context.Context, prompt Prompt) (string, error)
}

type Publisher interface {
	Broadcast(ctx context.Context, event eventbus.ActivityEvent)
}
