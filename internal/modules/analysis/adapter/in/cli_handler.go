package in

import (
	"context"

	analysisdto "worklens/internal/modules/analysis/dto"
	analysisin "worklens/internal/modules/analysis/port/in"
)

type CLIHandler struct {
	usecase analysisin.Usecase
}

func NewCLIHandler(usecase analysisin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context, sessionID, analysisType string, limit int) ([]analysisdto.RecordOutput, error) {
	return h.usecase.List(ctx, analysisdto.ListInput{SessionID: sessionID, Type: analysisType, Limit: limit})
}

func (h CLIHandler) Finalize(ctx context.Context, sessionID, prompt string) (analysisdto.RecordOutput, error) {
	return h.usecase.Finalize(ctx, analysisdto.FinalizeInput{SessionID: sessionID, Prompt: prompt})
}
