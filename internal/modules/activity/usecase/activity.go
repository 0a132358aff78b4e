package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"worklens/internal/modules/activity/domain"
	activitydto "worklens/internal/modules/activity/dto"
	activityin "worklens/internal/modules/activity/port/in"
	activityout "worklens/internal/modules/activity/port/out"
	"worklens/internal/modules/activity/service"
	apperrors "worklens/internal/platform/errors"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Interactor struct {
	recorder *service.Recorder
	source   activityout.CaptureSource
	store    activityout.SnapshotStore
	interval time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	scheduler *cron.Cron
	runCtx    context.Context
	cancelRun context.CancelFunc
	sessionID string
}

func NewInteractor(recorder *service.Recorder, source activityout.CaptureSource, store activityout.SnapshotStore, interval time.Duration, logger *zap.Logger) activityin.Usecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interactor{recorder: recorder, source: source, store: store, interval: interval, logger: logger}
}

// Start schedules a capture tick every interval. Ticks run detached from
// ctx cancellation; Stop ends them.
func (i *Interactor) Start(ctx context.Context, input activitydto.StartInput) error {
	if input.SessionID == "" {
		return fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.scheduler != nil {
		return apperrors.ErrPipelineBusy
	}
	if err := i.source.SetPersistence(ctx, true); err != nil {
		return fmt.Errorf("%w: enable persistence: %v", apperrors.ErrCapture, err)
	}

	logger := cronLogger{sugar: i.logger.Named("scheduler").Sugar()}
	scheduler := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger)))
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sessionID := input.SessionID
	if _, err := scheduler.AddFunc(fmt.Sprintf("@every %s", i.interval), func() { i.tick(runCtx, sessionID) }); err != nil {
		cancel()
		return fmt.Errorf("schedule capture: %w", err)
	}
	scheduler.Start()
	i.scheduler = scheduler
	i.runCtx = runCtx
	i.cancelRun = cancel
	i.sessionID = sessionID
	i.logger.Info("capture started", zap.String("session_id", sessionID), zap.Duration("interval", i.interval))
	return nil
}

// Stop waits for a running tick, records one final snapshot so the open
// window session is kept, and turns persistence off.
func (i *Interactor) Stop(ctx context.Context) error {
	i.mu.Lock()
	scheduler := i.scheduler
	sessionID := i.sessionID
	runCtx := i.runCtx
	cancel := i.cancelRun
	i.scheduler = nil
	i.mu.Unlock()
	if scheduler == nil {
		return apperrors.ErrNotCapturing
	}

	stopped := scheduler.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		cancel()
		return fmt.Errorf("stop capture: %w", ctx.Err())
	}
	i.tick(runCtx, sessionID)
	cancel()
	if err := i.source.SetPersistence(ctx, false); err != nil {
		i.logger.Warn("disable persistence failed", zap.Error(err))
	}
	i.logger.Info("capture stopped", zap.String("session_id", sessionID))
	return nil
}

func (i *Interactor) Flush(ctx context.Context) (activitydto.SnapshotOutput, error) {
	i.mu.Lock()
	sessionID := i.sessionID
	running := i.scheduler != nil
	i.mu.Unlock()
	if !running {
		return activitydto.SnapshotOutput{}, apperrors.ErrNotCapturing
	}
	snapshot, err := i.recorder.Tick(ctx, sessionID)
	if err != nil {
		return activitydto.SnapshotOutput{}, err
	}
	return service.ToOutput(snapshot), nil
}

func (i *Interactor) Running() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.scheduler != nil
}

func (i *Interactor) tick(ctx context.Context, sessionID string) {
	snapshot, err := i.recorder.Tick(ctx, sessionID)
	if err != nil {
		i.logger.Error("capture tick failed", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	i.logger.Debug("snapshot stored",
		zap.String("session_id", sessionID),
		zap.String("snapshot_id", snapshot.ID),
		zap.Int("window_sessions", len(snapshot.WindowSessions)),
	)
}

func (i *Interactor) ListWindow(ctx context.Context, input activitydto.WindowInput) ([]activitydto.SnapshotOutput, error) {
	if input.SessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	if !input.Until.After(input.After) {
		return []activitydto.SnapshotOutput{}, nil
	}
	snapshots, err := i.store.Range(ctx, input.SessionID, input.After, input.Until)
	if err != nil {
		return nil, err
	}
	return toOutputs(snapshots), nil
}

func (i *Interactor) ListSession(ctx context.Context, sessionID string) ([]activitydto.SnapshotOutput, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	snapshots, err := i.store.BySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return toOutputs(snapshots), nil
}

func (i *Interactor) LatestSession(ctx context.Context) (activitydto.SessionSummary, error) {
	latest, err := i.store.Latest(ctx)
	if err != nil {
		return activitydto.SessionSummary{}, err
	}
	snapshots, err := i.store.BySession(ctx, latest.SessionID)
	if err != nil {
		return activitydto.SessionSummary{}, err
	}
	if len(snapshots) == 0 {
		return activitydto.SessionSummary{}, errors.Join(apperrors.ErrNotFound, fmt.Errorf("session %s has no snapshots", latest.SessionID))
	}
	return activitydto.SessionSummary{
		SessionID: latest.SessionID,
		FirstAt:   snapshots[0].CapturedAt,
		LastAt:    snapshots[len(snapshots)-1].CapturedAt,
		Snapshots: len(snapshots),
	}, nil
}

func toOutputs(snapshots []domain.Snapshot) []activitydto.SnapshotOutput {
	out := make([]activitydto.SnapshotOutput, 0, len(snapshots))
	for _, snapshot := range snapshots {
		out = append(out, service.ToOutput(snapshot))
	}
	return out
}

type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
