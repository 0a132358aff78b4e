package service_test

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	activitydto "worklens/internal/modules/activity/dto"
	"worklens/internal/modules/analysis/domain"
	analysisout "worklens/internal/modules/analysis/port/out"
	capturedto "worklens/internal/modules/capture/dto"
	apperrors "worklens/internal/platform/errors"
	"worklens/internal/platform/eventbus"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type snapshotLog struct {
	mu        sync.Mutex
	snapshots []activitydto.SnapshotOutput
}

func (l *snapshotLog) add(sessionID string, at time.Time, title string) activitydto.SnapshotOutput {
	l.mu.Lock()
	defer l.mu.Unlock()
	snapshot := activitydto.SnapshotOutput{
		ID:         at.UTC().Format("2006-01-02T15:04:05.000000000Z07:00"),
		SessionID:  sessionID,
		CapturedAt: at,
		WindowSessions: []capturedto.SessionRecord{{
			WindowClass: "code", WindowTitle: title, StartTime: at.Add(-10 * time.Second), EndTime: at, Duration: 10, KeyCount: 1,
			KeyEvents: []capturedto.KeyEventRecord{{Key: "x", Action: "press"}},
		}},
		Totals: capturedto.Counts{Keys: 1},
	}
	l.snapshots = append(l.snapshots, snapshot)
	return snapshot
}

func (l *snapshotLog) Window(_ context.Context, sessionID string, after, until time.Time) ([]activitydto.SnapshotOutput, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []activitydto.SnapshotOutput{}
	for _, s := range l.snapshots {
		if s.SessionID == sessionID && s.CapturedAt.After(after) && !s.CapturedAt.After(until) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (l *snapshotLog) Session(_ context.Context, sessionID string) ([]activitydto.SnapshotOutput, error) {
	return l.Window(context.Background(), sessionID, time.Time{}, epoch.Add(100*time.Hour))
}

func (l *snapshotLog) LatestSessionID(context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.snapshots) == 0 {
		return "", apperrors.ErrNotFound
	}
	return l.snapshots[len(l.snapshots)-1].SessionID, nil
}

type recordStore struct {
	mu      sync.Mutex
	records map[string]domain.Record
}

func newRecordStore() *recordStore {
	return &recordStore{records: map[string]domain.Record{}}
}

func (s *recordStore) Upsert(_ context.Context, record domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
	return nil
}

func (s *recordStore) Find(_ context.Context, q analysisout.RecordQuery) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Record{}
	for _, r := range s.records {
		if r.SessionID != q.SessionID || (q.Type != "" && r.Type != q.Type) || (!q.Until.IsZero() && r.Start.After(q.Until)) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out, nil
}

func (s *recordStore) ofType(t domain.Type) []domain.Record {
	all, _ := s.Find(context.Background(), analysisout.RecordQuery{SessionID: "s1", Type: t})
	return all
}

type scriptedModel struct {
	mu      sync.Mutex
	prompts []analysisout.Prompt
	fail    bool
}

func (m *scriptedModel) Analyze(_ context.Context, prompt analysisout.Prompt) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.fail {
		return "", apperrors.ErrModelConnection
	}
	return "analysis " + strings.Repeat("#", len(m.prompts)), nil
}

func (m *scriptedModel) last() analysisout.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prompts[len(m.prompts)-1]
}

type publisher struct {
	mu     sync.Mutex
	events []eventbus.ActivityEvent
}

func (p *publisher) Broadcast(_ context.Context, e eventbus.ActivityEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *publisher) count(t eventbus.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(slices.DeleteFunc(slices.Clone(p.events), func(e eventbus.ActivityEvent) bool { return e.Type != t }))
}
