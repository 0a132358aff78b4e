package service

import (
	"context"
	"fmt"

	"worklens/internal/modules/session/domain"
	sessionout "worklens/internal/modules/session/port/out"
	"worklens/internal/platform/clock"
	"worklens/internal/platform/id"
)

type SessionService struct {
	clock    clock.Clock
	idGen    id.Generator
	analyzer sessionout.Analyzer
	reports  sessionout.ReportStore
}

func NewSessionService(clock clock.Clock, idGen id.Generator, analyzer sessionout.Analyzer, reports sessionout.ReportStore) *SessionService {
	return &SessionService{clock: clock, idGen: idGen, analyzer: analyzer, reports: reports}
}

func (s *SessionService) Start(_ context.Context, prompt string) domain.ActiveSession {
	return domain.ActiveSession{
		SessionID: s.idGen.New(),
		StartedAt: s.clock.Now().UTC(),
		Prompt:    prompt,
	}
}

// Finalize runs the final analysis and writes the session report.
func (s *SessionService) Finalize(ctx context.Context, sessionID, prompt string) (domain.Report, string, error) {
	report, err := s.analyzer.Finalize(ctx, sessionID, prompt)
	if err != nil {
		return domain.Report{}, "", fmt.Errorf("finalize session: %w", err)
	}
	report.Prompt = prompt
	path, err := s.reports.Save(ctx, report)
	if err != nil {
		return report, "", fmt.Errorf("save session report: %w", err)
	}
	return report, path, nil
}
