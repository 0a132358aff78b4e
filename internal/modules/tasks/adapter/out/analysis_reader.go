package out

import (
	"context"

	analysisdto "worklens/internal/modules/analysis/dto"
	analysisin "worklens/internal/modules/analysis/port/in"
	tasksout "worklens/internal/modules/tasks/port/out"
)

// AnalysisReader reads the analysis history through the analysis module's
// input port.
type AnalysisReader struct {
	analyses analysisin.Usecase
}

func NewAnalysisReader(analyses analysisin.Usecase) tasksout.AnalysisReader {
	return AnalysisReader{analyses: analyses}
}

func (r AnalysisReader) LatestSummary(ctx context.Context, sessionID string) (string, bool, error) {
	records, err := r.analyses.List(ctx, analysisdto.ListInput{SessionID: sessionID, Type: "special", Limit: 1})
	if err != nil {
		return "", false, err
	}
	if len(records) == 0 {
		return "", false, nil
	}
	return records[len(records)-1].Response, true, nil
}

func (r AnalysisReader) RecentObservations(ctx context.Context, sessionID string, limit int) ([]string, error) {
	records, err := r.analyses.List(ctx, analysisdto.ListInput{SessionID: sessionID, Type: "regular", Limit: limit})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(records))
	for _, record := range records {
		out = append(out, record.Response)
	}
	return out, nil
}
