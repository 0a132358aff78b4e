package in

import (
	"context"
	"time"

	"worklens/internal/modules/capture/dto"
)

type Usecase interface {
	FocusChanged(ctx context.Context, input dto.FocusInput) error
	RecordInput(ctx context.Context, input dto.InputEvent) error
	Snapshot(ctx context.Context) (dto.SnapshotOutput, error)
	RedactSnapshot(ctx context.Context, snapshot dto.SnapshotOutput) dto.SnapshotOutput
	RecentSessions(ctx context.Context, within time.Duration) ([]dto.SessionRecord, error)
	SetPersistence(ctx context.Context, enabled bool) error
	ListPrivacyRules(ctx context.Context) (dto.PrivacyRulesOutput, error)
	AddPrivacyRule(ctx context.Context, input dto.PrivacyRuleInput) (dto.PrivacyRulesOutput, error)
	RemovePrivacyRule(ctx context.Context, input dto.PrivacyRuleInput) (dto.PrivacyRulesOutput, error)
	ReloadPrivacyRules(ctx context.Context) error
}
