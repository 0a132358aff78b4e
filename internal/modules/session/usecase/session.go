package usecase

import (
	"context"
	"errors"

	"worklens/internal/modules/session/domain"
	sessiondto "worklens/internal/modules/session/dto"
	sessionin "worklens/internal/modules/session/port/in"
	sessionout "worklens/internal/modules/session/port/out"
	"worklens/internal/modules/session/service"
	apperrors "worklens/internal/platform/errors"

	"go.uber.org/zap"
)

type Interactor struct {
	svc         *service.SessionService
	lifecycle   *domain.Lifecycle
	recorder    sessionout.Recorder
	analyzer    sessionout.Analyzer
	drainer     sessionout.Drainer
	activeStore sessionout.ActiveSessionStore
	logger      *zap.Logger
}

func NewInteractor(
	svc *service.SessionService,
	recorder sessionout.Recorder,
	analyzer sessionout.Analyzer,
	drainer sessionout.Drainer,
	activeStore sessionout.ActiveSessionStore,
	logger *zap.Logger,
) sessionin.Usecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interactor{
		svc:         svc,
		lifecycle:   domain.NewLifecycle(),
		recorder:    recorder,
		analyzer:    analyzer,
		drainer:     drainer,
		activeStore: activeStore,
		logger:      logger.Named("session"),
	}
}

func (i *Interactor) Start(ctx context.Context, input sessiondto.StartInput) (sessiondto.StartOutput, error) {
	active := i.svc.Start(ctx, input.Prompt)
	if err := i.lifecycle.Begin(active); err != nil {
		return sessiondto.StartOutput{}, err
	}
	logger := i.logger.With(zap.String("session_id", active.SessionID))

	if err := i.analyzer.Track(ctx, active.SessionID, active.StartedAt); err != nil {
		i.lifecycle.Reset()
		return sessiondto.StartOutput{}, err
	}
	if err := i.recorder.Start(ctx, active.SessionID); err != nil {
		_ = i.analyzer.Untrack(ctx, active.SessionID)
		i.lifecycle.Reset()
		return sessiondto.StartOutput{}, err
	}
	if i.activeStore != nil {
		if stale, err := i.activeStore.LoadActive(ctx); err == nil {
			logger.Warn("replacing stale active session", zap.String("stale_session_id", stale.SessionID))
		}
		if err := i.activeStore.SaveActive(ctx, active); err != nil {
			logger.Warn("persist active session", zap.Error(err))
		}
	}
	logger.Info("capture started")
	return sessiondto.StartOutput{SessionID: active.SessionID, StartedAt: active.StartedAt}, nil
}

// Stop ends capture, waits for queued analyses and writes the final
// report. The pipeline is idle again when Stop returns, even on error.
func (i *Interactor) Stop(ctx context.Context, input sessiondto.StopInput) (sessiondto.ReportOutput, error) {
	active, err := i.lifecycle.Stop()
	if err != nil {
		return sessiondto.ReportOutput{}, err
	}
	defer i.lifecycle.Reset()
	logger := i.logger.With(zap.String("session_id", active.SessionID))

	if err := i.recorder.Stop(ctx); err != nil {
		logger.Warn("stop recorder", zap.Error(err))
	}
	if err := i.drainer.Drain(ctx); err != nil {
		logger.Warn("drain pending analyses", zap.Error(err))
	}
	i.lifecycle.Finalizing()

	prompt := input.Prompt
	if prompt == "" {
		prompt = active.Prompt
	}
	report, path, finalizeErr := i.svc.Finalize(ctx, active.SessionID, prompt)
	if err := i.analyzer.Untrack(ctx, active.SessionID); err != nil {
		logger.Warn("untrack session", zap.Error(err))
	}
	if i.activeStore != nil {
		if err := i.activeStore.ClearActive(ctx); err != nil {
			logger.Warn("clear active session", zap.Error(err))
		}
	}
	if finalizeErr != nil {
		logger.Error("finalize session", zap.Error(finalizeErr))
		return sessiondto.ReportOutput{SessionID: active.SessionID}, finalizeErr
	}
	logger.Info("session finalized", zap.String("report", path), zap.Duration("duration", report.Duration()))
	return toReportOutput(report, path), nil
}

func (i *Interactor) Finalize(ctx context.Context, input sessiondto.FinalizeInput) (sessiondto.ReportOutput, error) {
	if current, ok := i.lifecycle.Current(); ok && (input.SessionID == "" || input.SessionID == current.SessionID) {
		return sessiondto.ReportOutput{}, apperrors.ErrPipelineBusy
	}
	report, path, err := i.svc.Finalize(ctx, input.SessionID, input.Prompt)
	if err != nil {
		return sessiondto.ReportOutput{}, err
	}
	return toReportOutput(report, path), nil
}

func (i *Interactor) GetActive(ctx context.Context) (sessiondto.ActiveSessionOutput, error) {
	if current, ok := i.lifecycle.Current(); ok {
		return sessiondto.ActiveSessionOutput{SessionID: current.SessionID, StartedAt: current.StartedAt, Phase: string(i.lifecycle.Phase())}, nil
	}
	if i.activeStore == nil {
		return sessiondto.ActiveSessionOutput{}, apperrors.ErrNoActiveSession
	}
	active, err := i.activeStore.LoadActive(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoActiveSession) {
			return sessiondto.ActiveSessionOutput{}, apperrors.ErrNoActiveSession
		}
		return sessiondto.ActiveSessionOutput{}, err
	}
	// Another process owns this session; its exact phase is not visible here.
	return sessiondto.ActiveSessionOutput{SessionID: active.SessionID, StartedAt: active.StartedAt, Phase: string(domain.PhaseCapturing)}, nil
}

func toReportOutput(report domain.Report, path string) sessiondto.ReportOutput {
	return sessiondto.ReportOutput{
		SessionID: report.SessionID,
		Path:      path,
		StartedAt: report.StartedAt,
		EndedAt:   report.EndedAt,
		Duration:  report.Duration(),
		Summary:   report.Summary,
		Analyses:  len(report.Entries),
	}
}
