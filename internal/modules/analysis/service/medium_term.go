package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"worklens/internal/modules/analysis/domain"
	analysisout "worklens/internal/modules/analysis/port/out"
	"worklens/internal/platform/clock"
	apperrors "worklens/internal/platform/errors"
	"worklens/internal/platform/eventbus"

	"go.uber.org/zap"
)

// MediumTermAnalyzer summarizes every RepeatInterval short-term analyses.
type MediumTermAnalyzer struct {
	settings  Settings
	reader    analysisout.SnapshotReader
	store     analysisout.RecordStore
	model     analysisout.Model
	publisher analysisout.Publisher
	clock     clock.Clock
	logger    *zap.Logger

	mu       sync.Mutex
	counters map[string]*domain.CascadeCounter
}

func NewMediumTermAnalyzer(settings Settings, reader analysisout.SnapshotReader, store analysisout.RecordStore, model analysisout.Model, publisher analysisout.Publisher, clock clock.Clock, logger *zap.Logger) *MediumTermAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediumTermAnalyzer{
		settings:  settings,
		reader:    reader,
		store:     store,
		model:     model,
		publisher: publisher,
		clock:     clock,
		logger:    logger.Named("medium_term"),
		counters:  map[string]*domain.CascadeCounter{},
	}
}

func (a *MediumTermAnalyzer) Track(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counters[sessionID] = domain.NewCascadeCounter(a.settings.RepeatInterval)
}

func (a *MediumTermAnalyzer) Untrack(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.counters, sessionID)
}

func (a *MediumTermAnalyzer) counter(sessionID string) *domain.CascadeCounter {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counters[sessionID]
}

// Handle counts one stored short-term analysis and runs the summary when
// the counter fires.
func (a *MediumTermAnalyzer) Handle(ctx context.Context, sessionID string, at time.Time) (domain.Record, bool, error) {
	counter := a.counter(sessionID)
	if counter == nil || !counter.Increment() {
		return domain.Record{}, false, nil
	}
	from := at.Add(-a.settings.MediumWindow())
	logger := a.logger.With(zap.String("session_id", sessionID), zap.Time("from", from), zap.Time("to", at))

	snapshots, err := a.reader.Window(ctx, sessionID, from, at)
	if err != nil {
		return domain.Record{}, false, fmt.Errorf("read medium-term window: %w", err)
	}
	if len(snapshots) == 0 {
		logger.Debug("empty medium-term window")
		return domain.Record{}, false, nil
	}
	data := collect(snapshots)

	recent, err := a.store.Find(ctx, analysisout.RecordQuery{
		SessionID: sessionID,
		Type:      domain.TypeRegular,
		Until:     at,
		Limit:     a.settings.RepeatInterval,
	})
	if err != nil {
		return domain.Record{}, false, fmt.Errorf("read recent analyses: %w", err)
	}
	specials, err := a.store.Find(ctx, analysisout.RecordQuery{
		SessionID: sessionID,
		Type:      domain.TypeSpecial,
		Until:     at,
		Limit:     1,
	})
	if err != nil {
		return domain.Record{}, false, fmt.Errorf("read previous summary: %w", err)
	}
	latestSpecial := ""
	if len(specials) > 0 {
		latestSpecial = specials[0].Response
	}

	system, user, err := renderPair("medium", mediumPrompt{
		WindowSeconds: int(a.settings.ShortWindow / time.Second),
		FullSeconds:   int(a.settings.MediumWindow() / time.Second),
		Narrative:     domain.Narrative(data.sessions),
		Totals:        data.totals,
		Recent:        responses(recent),
		LatestSpecial: latestSpecial,
	})
	if err != nil {
		return domain.Record{}, false, err
	}
	response, err := a.model.Analyze(ctx, analysisout.Prompt{System: system, User: user, Temperature: a.settings.Temperature})
	if err != nil {
		logger.Warn("medium-term analysis failed", zap.Error(err))
		return domain.Record{}, false, fmt.Errorf("%w: medium-term window: %w", apperrors.ErrAnalysis, err)
	}

	record, err := domain.NewRecord(sessionID, data.first, data.last, domain.TypeSpecial, data.ids, response, a.clock.Now())
	if err != nil {
		return domain.Record{}, false, err
	}
	if err := a.store.Upsert(ctx, record); err != nil {
		return domain.Record{}, false, fmt.Errorf("store medium-term analysis: %w", err)
	}
	a.publisher.Broadcast(ctx, eventbus.ActivityEvent{
		SessionID: sessionID,
		Timestamp: at,
		Type:      eventbus.AnalysisMediumTermAvailable,
		Data:      ToOutput(record),
	})
	logger.Info("medium-term analysis stored", zap.String("analysis_id", record.ID))
	return record, true, nil
}
