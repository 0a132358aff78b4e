package out

import (
	"context"
	"fmt"
	"time"

	"worklens/internal/modules/activity/domain"
	activityout "worklens/internal/modules/activity/port/out"
	capturedto "worklens/internal/modules/capture/dto"
	"worklens/internal/platform/entitystore"
	apperrors "worklens/internal/platform/errors"
)

const snapshotsCollection = "snapshots"

type snapshotDocument struct {
	ID             string                     `json:"id"`
	SessionID      string                     `json:"session_id"`
	StartNS        int64                      `json:"start_ns"`
	CapturedAt     time.Time                  `json:"captured_at"`
	Screenshot     []byte                     `json:"screenshot,omitempty"`
	WindowSessions []capturedto.SessionRecord `json:"window_sessions"`
	Totals         capturedto.Counts          `json:"totals"`
}

type SQLiteSnapshotStore struct {
	store *entitystore.Store
}

func NewSQLiteSnapshotStore(store *entitystore.Store) activityout.SnapshotStore {
	return &SQLiteSnapshotStore{store: store}
}

func (s *SQLiteSnapshotStore) Upsert(ctx context.Context, snapshot domain.Snapshot) error {
	if _, err := s.store.Upsert(ctx, snapshotsCollection, snapshot.ID, toDocument(snapshot)); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// Range returns the session's snapshots captured in (after, until], oldest first.
func (s *SQLiteSnapshotStore) Range(ctx context.Context, sessionID string, after, until time.Time) ([]domain.Snapshot, error) {
	return s.query(ctx, entitystore.Query{
		Where: []entitystore.Condition{
			entitystore.Where("session_id", entitystore.Eq, sessionID),
			entitystore.Where("start_ns", entitystore.Gt, after),
			entitystore.Where("start_ns", entitystore.Lte, until),
		},
		SortBy: "start_ns",
	})
}

func (s *SQLiteSnapshotStore) BySession(ctx context.Context, sessionID string) ([]domain.Snapshot, error) {
	return s.query(ctx, entitystore.Query{
		Where:  []entitystore.Condition{entitystore.Where("session_id", entitystore.Eq, sessionID)},
		SortBy: "start_ns",
	})
}

func (s *SQLiteSnapshotStore) Latest(ctx context.Context) (domain.Snapshot, error) {
	snapshots, err := s.query(ctx, entitystore.Query{SortBy: "start_ns", Order: entitystore.Desc, Limit: 1})
	if err != nil {
		return domain.Snapshot{}, err
	}
	if len(snapshots) == 0 {
		return domain.Snapshot{}, fmt.Errorf("%w: no snapshots recorded", apperrors.ErrNotFound)
	}
	return snapshots[0], nil
}

func (s *SQLiteSnapshotStore) query(ctx context.Context, q entitystore.Query) ([]domain.Snapshot, error) {
	docs, err := entitystore.QueryAs[snapshotDocument](ctx, s.store, snapshotsCollection, q)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	out := make([]domain.Snapshot, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fromDocument(doc))
	}
	return out, nil
}

func toDocument(s domain.Snapshot) snapshotDocument {
	sessions := s.WindowSessions
	if sessions == nil {
		sessions = []capturedto.SessionRecord{}
	}
	return snapshotDocument{
		ID:             s.ID,
		SessionID:      s.SessionID,
		StartNS:        s.CapturedAt.UTC().UnixNano(),
		CapturedAt:     s.CapturedAt.UTC(),
		Screenshot:     s.Screenshot,
		WindowSessions: sessions,
		Totals:         s.Totals,
	}
}

func fromDocument(doc snapshotDocument) domain.Snapshot {
	return domain.Snapshot{
		ID:             doc.ID,
		SessionID:      doc.SessionID,
		CapturedAt:     doc.CapturedAt.UTC(),
		Screenshot:     doc.Screenshot,
		WindowSessions: doc.WindowSessions,
		Totals:         doc.Totals,
	}
}
