package out

import (
	"context"
	"fmt"
	"time"

	analysisdto "worklens/internal/modules/analysis/dto"
	analysisin "worklens/internal/modules/analysis/port/in"
	"worklens/internal/modules/session/domain"
	sessionout "worklens/internal/modules/session/port/out"
)

// AnalysisPipeline drives the analysis module for the session lifecycle.
type AnalysisPipeline struct {
	analyses analysisin.Usecase
}

func NewAnalysisPipeline(analyses analysisin.Usecase) sessionout.Analyzer {
	return AnalysisPipeline{analyses: analyses}
}

func (p AnalysisPipeline) Track(ctx context.Context, sessionID string, startedAt time.Time) error {
	return p.analyses.Track(ctx, analysisdto.TrackInput{SessionID: sessionID, StartedAt: startedAt})
}

func (p AnalysisPipeline) Untrack(ctx context.Context, sessionID string) error {
	return p.analyses.Untrack(ctx, sessionID)
}

func (p AnalysisPipeline) Finalize(ctx context.Context, sessionID, prompt string) (domain.Report, error) {
	final, err := p.analyses.Finalize(ctx, analysisdto.FinalizeInput{SessionID: sessionID, Prompt: prompt})
	if err != nil {
		return domain.Report{}, err
	}
	records, err := p.analyses.List(ctx, analysisdto.ListInput{SessionID: final.SessionID})
	if err != nil {
		return domain.Report{}, fmt.Errorf("list session analyses: %w", err)
	}
	report := domain.Report{
		SessionID: final.SessionID,
		StartedAt: final.Start,
		EndedAt:   final.End,
		Summary:   final.Response,
	}
	for _, record := range records {
		if record.Type == "final" {
			continue
		}
		report.Entries = append(report.Entries, domain.ReportEntry{
			Type:     record.Type,
			Start:    record.Start,
			End:      record.End,
			Response: record.Response,
		})
	}
	return report, nil
}
