package in

import (
	"context"

	capturedto "worklens/internal/modules/capture/dto"
	capturein "worklens/internal/modules/capture/port/in"
)

type CLIHandler struct {
	usecase capturein.Usecase
}

func NewCLIHandler(usecase capturein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) ListPrivacy(ctx context.Context) (capturedto.PrivacyRulesOutput, error) {
	return h.usecase.ListPrivacyRules(ctx)
}

func (h CLIHandler) AddPrivacy(ctx context.Context, pattern string, temporary bool) (capturedto.PrivacyRulesOutput, error) {
	return h.usecase.AddPrivacyRule(ctx, capturedto.PrivacyRuleInput{Pattern: pattern, Temporary: temporary})
}

func (h CLIHandler) RemovePrivacy(ctx context.Context, pattern string, temporary bool) (capturedto.PrivacyRulesOutput, error) {
	return h.usecase.RemovePrivacyRule(ctx, capturedto.PrivacyRuleInput{Pattern: pattern, Temporary: temporary})
}
