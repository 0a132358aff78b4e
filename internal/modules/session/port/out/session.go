package out

import (
	"context"
	"time"

	"worklens/internal/modules/session/domain"
)

type ReportStore interface {
	Save(ctx context.Context, report domain.Report) (string, error)
}

type ActiveSessionStore interface {
	SaveActive(ctx context.Context, session domain.ActiveSession) error
	LoadActive(ctx context.Context) (domain.ActiveSession, error)
	ClearActive(ctx context.Context) error
}

// Recorder starts and stops periodic activity capture. Stop runs one last
// capture before returning.
type Recorder interface {
	Start(ctx context.Context, sessionID string) error
	Stop(ctx context.Context) error
}

type Analyzer interface {
	Track(ctx context.Context, sessionID string, startedAt time.Time) error
	Untrack(ctx context.Context, sessionID string) error
	// Finalize writes the final analysis and returns it together with the
	// session's earlier analyses.
	Finalize(ctx context.Context, sessionID, prompt string) (domain.Report, error)
}

type Drainer interface {
	Drain(ctx context.Context) error
}
