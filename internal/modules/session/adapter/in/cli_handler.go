package in

import (
	"context"

	sessiondto "worklens/internal/modules/session/dto"
	sessionin "worklens/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context, prompt string) (sessiondto.StartOutput, error) {
	return h.usecase.Start(ctx, sessiondto.StartInput{Prompt: prompt})
}

func (h CLIHandler) Stop(ctx context.Context, prompt string) (sessiondto.ReportOutput, error) {
	return h.usecase.Stop(ctx, sessiondto.StopInput{Prompt: prompt})
}

func (h CLIHandler) Finalize(ctx context.Context, sessionID, prompt string) (sessiondto.ReportOutput, error) {
	return h.usecase.Finalize(ctx, sessiondto.FinalizeInput{SessionID: sessionID, Prompt: prompt})
}

func (h CLIHandler) GetActive(ctx context.Context) (sessiondto.ActiveSessionOutput, error) {
	return h.usecase.GetActive(ctx)
}
