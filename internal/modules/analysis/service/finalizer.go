package service

import (
	"context"
	"fmt"
	"time"

	"worklens/internal/modules/analysis/domain"
	analysisout "worklens/internal/modules/analysis/port/out"
	"worklens/internal/platform/clock"
	apperrors "worklens/internal/platform/errors"

	"go.uber.org/zap"
)

type SessionFinalizer struct {
	settings Settings
	reader   analysisout.SnapshotReader
	store    analysisout.RecordStore
	model    analysisout.Model
	clock    clock.Clock
	logger   *zap.Logger
}

func NewSessionFinalizer(settings Settings, reader analysisout.SnapshotReader, store analysisout.RecordStore, model analysisout.Model, clock clock.Clock, logger *zap.Logger) *SessionFinalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionFinalizer{settings: settings, reader: reader, store: store, model: model, clock: clock, logger: logger.Named("finalizer")}
}

// Finalize writes the closing analysis of a session. An empty sessionID
// selects the most recent session that has snapshots.
func (f *SessionFinalizer) Finalize(ctx context.Context, sessionID, customPrompt string) (domain.Record, error) {
	if sessionID == "" {
		latest, err := f.reader.LatestSessionID(ctx)
		if err != nil {
			return domain.Record{}, fmt.Errorf("resolve latest session: %w", err)
		}
		sessionID = latest
	}
	snapshots, err := f.reader.Session(ctx, sessionID)
	if err != nil {
		return domain.Record{}, fmt.Errorf("read session snapshots: %w", err)
	}
	if len(snapshots) == 0 {
		return domain.Record{}, fmt.Errorf("%w: session %s has no snapshots", apperrors.ErrNotFound, sessionID)
	}
	data := collect(snapshots)

	analyses, granularity, err := f.sources(ctx, sessionID)
	if err != nil {
		return domain.Record{}, err
	}
	system, user, err := renderPair("session", sessionPrompt{
		SessionSeconds: data.last.Sub(data.first).Seconds(),
		Granularity:    granularity,
		Analyses:       responses(analyses),
		CustomPrompt:   customPrompt,
	})
	if err != nil {
		return domain.Record{}, err
	}
	response, err := f.model.Analyze(ctx, analysisout.Prompt{System: system, User: user, Temperature: f.settings.Temperature})
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: session %s: %w", apperrors.ErrAnalysis, sessionID, err)
	}
	record, err := domain.NewRecord(sessionID, data.first, data.last, domain.TypeFinal, data.ids, response, f.clock.Now())
	if err != nil {
		return domain.Record{}, err
	}
	if err := f.store.Upsert(ctx, record); err != nil {
		return domain.Record{}, fmt.Errorf("store final analysis: %w", err)
	}
	f.logger.Info("session finalized",
		zap.String("session_id", sessionID),
		zap.Int("analyses", len(analyses)),
		zap.Duration("duration", data.last.Sub(data.first)),
	)
	return record, nil
}

// sources prefers medium-term summaries once there are enough of them and
// otherwise falls back to every non-final analysis of the session.
func (f *SessionFinalizer) sources(ctx context.Context, sessionID string) ([]domain.Record, string, error) {
	specials, err := f.store.Find(ctx, analysisout.RecordQuery{SessionID: sessionID, Type: domain.TypeSpecial})
	if err != nil {
		return nil, "", fmt.Errorf("read session summaries: %w", err)
	}
	if len(specials) >= f.settings.RepeatInterval {
		return specials, humanSpan(f.settings.MediumWindow()), nil
	}
	all, err := f.store.Find(ctx, analysisout.RecordQuery{SessionID: sessionID})
	if err != nil {
		return nil, "", fmt.Errorf("read session analyses: %w", err)
	}
	out := make([]domain.Record, 0, len(all))
	for _, record := range all {
		if record.Type != domain.TypeFinal {
			out = append(out, record)
		}
	}
	return out, humanSpan(f.settings.ShortWindow), nil
}

func humanSpan(d time.Duration) string {
	unit, n := "second", int(d/time.Second)
	if d >= time.Minute && d%time.Minute == 0 {
		unit, n = "minute", int(d/time.Minute)
	}
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
