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

const priorRegularContext = 3

// ShortTermAnalyzer describes each ShortWindow of captured activity once.
type ShortTermAnalyzer struct {
	settings  Settings
	reader    analysisout.SnapshotReader
	store     analysisout.RecordStore
	model     analysisout.Model
	publisher analysisout.Publisher
	clock     clock.Clock
	logger    *zap.Logger

	mu      sync.Mutex
	cursors map[string]*domain.WindowCursor
}

func NewShortTermAnalyzer(settings Settings, reader analysisout.SnapshotReader, store analysisout.RecordStore, model analysisout.Model, publisher analysisout.Publisher, clock clock.Clock, logger *zap.Logger) *ShortTermAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShortTermAnalyzer{
		settings:  settings,
		reader:    reader,
		store:     store,
		model:     model,
		publisher: publisher,
		clock:     clock,
		logger:    logger.Named("short_term"),
		cursors:   map[string]*domain.WindowCursor{},
	}
}

func (a *ShortTermAnalyzer) Track(sessionID string, startedAt time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cursors[sessionID] = domain.NewWindowCursor(startedAt, a.settings.ShortWindow)
}

func (a *ShortTermAnalyzer) Untrack(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.cursors, sessionID)
}

func (a *ShortTermAnalyzer) cursor(sessionID string) *domain.WindowCursor {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cursors[sessionID]
}

// Handle reacts to a stored snapshot at time at. It returns false when no
// window was due, the session is not tracked or the window held no data.
func (a *ShortTermAnalyzer) Handle(ctx context.Context, sessionID string, at time.Time) (domain.Record, bool, error) {
	cursor := a.cursor(sessionID)
	if cursor == nil {
		return domain.Record{}, false, nil
	}
	from, to, ok := cursor.Claim(at)
	if !ok {
		return domain.Record{}, false, nil
	}
	logger := a.logger.With(zap.String("session_id", sessionID), zap.Time("from", from), zap.Time("to", to))

	snapshots, err := a.reader.Window(ctx, sessionID, from, to)
	if err != nil {
		return domain.Record{}, false, fmt.Errorf("read short-term window: %w", err)
	}
	if len(snapshots) == 0 {
		logger.Debug("empty short-term window")
		return domain.Record{}, false, nil
	}
	data := collect(snapshots)

	prior, err := a.store.Find(ctx, analysisout.RecordQuery{
		SessionID: sessionID,
		Type:      domain.TypeRegular,
		Until:     data.first,
		Limit:     priorRegularContext,
	})
	if err != nil {
		return domain.Record{}, false, fmt.Errorf("read prior analyses: %w", err)
	}

	var images [][]byte
	if shot := snapshots[0].Screenshot; len(shot) > 0 {
		images = append(images, shot)
	}
	system, user, err := renderPair("short", shortPrompt{
		WindowSeconds:       int(a.settings.ShortWindow / time.Second),
		Narrative:           domain.Narrative(data.sessions),
		Totals:              data.totals,
		Previous:            responses(prior),
		ScreenshotAvailable: len(images) > 0,
	})
	if err != nil {
		return domain.Record{}, false, err
	}
	response, err := a.model.Analyze(ctx, analysisout.Prompt{
		System:      system,
		User:        user,
		Temperature: a.settings.Temperature,
		Images:      images,
	})
	if err != nil {
		logger.Warn("short-term analysis failed", zap.Error(err))
		return domain.Record{}, false, fmt.Errorf("%w: short-term window: %w", apperrors.ErrAnalysis, err)
	}

	record, err := domain.NewRecord(sessionID, data.first, data.last, domain.TypeRegular, data.ids, response, a.clock.Now())
	if err != nil {
		return domain.Record{}, false, err
	}
	if err := a.store.Upsert(ctx, record); err != nil {
		return domain.Record{}, false, fmt.Errorf("store short-term analysis: %w", err)
	}
	a.publisher.Broadcast(ctx, eventbus.ActivityEvent{
		SessionID: sessionID,
		Timestamp: to,
		Type:      eventbus.AnalysisStored,
		Data:      ToOutput(record),
	})
	logger.Info("short-term analysis stored", zap.String("analysis_id", record.ID), zap.Int("snapshots", len(data.ids)))
	return record, true, nil
}
