package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"worklens/internal/modules/capture/domain"
	capturedto "worklens/internal/modules/capture/dto"
	capturein "worklens/internal/modules/capture/port/in"
	captureout "worklens/internal/modules/capture/port/out"
	"worklens/internal/modules/capture/service"
	apperrors "worklens/internal/platform/errors"

	"go.uber.org/zap"
)

type Interactor struct {
	tracker       *service.SessionTracker
	screenshotter captureout.Screenshotter
	privacy       captureout.PrivacyStore
	logger        *zap.Logger
}

func NewInteractor(tracker *service.SessionTracker, screenshotter captureout.Screenshotter, privacy captureout.PrivacyStore, logger *zap.Logger) capturein.Usecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interactor{tracker: tracker, screenshotter: screenshotter, privacy: privacy, logger: logger}
}

func (i *Interactor) FocusChanged(_ context.Context, input capturedto.FocusInput) error {
	i.tracker.FocusChanged(domain.WindowInfo{Class: input.Class, Title: input.Title})
	return nil
}

func (i *Interactor) RecordInput(ctx context.Context, input capturedto.InputEvent) error {
	event := domain.InputEvent{
		Kind:   domain.InputKind(input.Kind),
		Key:    input.Key,
		Action: domain.KeyAction(input.Action),
		Button: input.Button,
		Amount: input.Amount,
	}
	switch event.Kind {
	case domain.InputKey:
		if event.Key == "" {
			return fmt.Errorf("%w: key event without key", apperrors.ErrInvalidInput)
		}
		if event.Action == "" {
			event.Action = domain.KeyPress
		}
		if event.Action != domain.KeyPress && event.Action != domain.KeyRelease {
			return fmt.Errorf("%w: key action %q", apperrors.ErrInvalidInput, input.Action)
		}
	case domain.InputClick, domain.InputScroll:
	default:
		return fmt.Errorf("%w: input kind %q", apperrors.ErrInvalidInput, input.Kind)
	}
	return i.tracker.Record(ctx, event)
}

// Snapshot drains the tracker. A failed screenshot is logged and the
// snapshot is returned without one. No screenshot is taken while the
// focused window, or the last one drained, is private.
func (i *Interactor) Snapshot(ctx context.Context) (capturedto.SnapshotOutput, error) {
	snap := i.tracker.Snapshot()
	out := capturedto.SnapshotOutput{
		Sessions:   toRecords(snap.Sessions, snap.TakenAt),
		Counts:     capturedto.Counts{Keys: snap.Counts.Keys, Clicks: snap.Counts.Clicks, Scrolls: snap.Counts.Scrolls},
		CapturedAt: snap.TakenAt,
	}
	private := endsPrivate(out.Sessions)
	if current, ok := i.tracker.Current(); ok && current.PrivacyFiltered {
		private = true
	}
	if private {
		i.logger.Debug("screenshot skipped for private window")
	} else if i.screenshotter != nil {
		png, err := i.screenshotter.Capture(ctx)
		if err != nil {
			i.logger.Warn("screenshot failed", zap.Error(err))
		} else {
			out.Screenshot = png
		}
	}
	return out, nil
}

// RedactSnapshot applies the current privacy rules to a snapshot taken
// outside this process. Matching sessions lose their key events and a
// snapshot ending on one loses its screenshot.
func (i *Interactor) RedactSnapshot(_ context.Context, snapshot capturedto.SnapshotOutput) capturedto.SnapshotOutput {
	rules := i.tracker.Rules()
	sessions := make([]capturedto.SessionRecord, 0, len(snapshot.Sessions))
	for _, record := range snapshot.Sessions {
		if record.PrivacyFiltered || rules.IsPrivate(domain.WindowInfo{Class: record.WindowClass, Title: record.WindowTitle}) {
			record.KeyEvents = []capturedto.KeyEventRecord{}
			record.PrivacyFiltered = true
		}
		sessions = append(sessions, record)
	}
	snapshot.Sessions = sessions
	if endsPrivate(sessions) {
		snapshot.Screenshot = nil
	}
	return snapshot
}

func endsPrivate(records []capturedto.SessionRecord) bool {
	return len(records) > 0 && records[len(records)-1].PrivacyFiltered
}

func (i *Interactor) RecentSessions(_ context.Context, within time.Duration) ([]capturedto.SessionRecord, error) {
	if within <= 0 {
		return nil, fmt.Errorf("%w: window must be positive", apperrors.ErrInvalidInput)
	}
	sessions := i.tracker.RecentSessions(within)
	now := time.Time{}
	if len(sessions) > 0 {
		now = sessions[len(sessions)-1].EndTime
	}
	return toRecords(sessions, now), nil
}

func (i *Interactor) SetPersistence(_ context.Context, enabled bool) error {
	i.tracker.SetPersistence(enabled)
	return nil
}

func (i *Interactor) ListPrivacyRules(_ context.Context) (capturedto.PrivacyRulesOutput, error) {
	return toRulesOutput(i.tracker.Rules()), nil
}

func (i *Interactor) AddPrivacyRule(ctx context.Context, input capturedto.PrivacyRuleInput) (capturedto.PrivacyRulesOutput, error) {
	pattern := strings.TrimSpace(input.Pattern)
	if pattern == "" {
		return capturedto.PrivacyRulesOutput{}, fmt.Errorf("%w: pattern is required", apperrors.ErrInvalidInput)
	}
	rules := i.tracker.Rules().Add(pattern, input.Temporary)
	if err := i.persist(ctx, rules, input.Temporary); err != nil {
		return capturedto.PrivacyRulesOutput{}, err
	}
	i.tracker.SetRules(rules)
	return toRulesOutput(rules), nil
}

func (i *Interactor) RemovePrivacyRule(ctx context.Context, input capturedto.PrivacyRuleInput) (capturedto.PrivacyRulesOutput, error) {
	rules, removed := i.tracker.Rules().Remove(strings.TrimSpace(input.Pattern), input.Temporary)
	if !removed {
		return capturedto.PrivacyRulesOutput{}, fmt.Errorf("%w: privacy rule %q", apperrors.ErrNotFound, input.Pattern)
	}
	if err := i.persist(ctx, rules, input.Temporary); err != nil {
		return capturedto.PrivacyRulesOutput{}, err
	}
	i.tracker.SetRules(rules)
	return toRulesOutput(rules), nil
}

// ReloadPrivacyRules replaces the permanent rules with the stored ones and
// keeps the temporary ones.
func (i *Interactor) ReloadPrivacyRules(ctx context.Context) error {
	if i.privacy == nil {
		return nil
	}
	always, err := i.privacy.Load(ctx)
	if err != nil {
		return err
	}
	current := i.tracker.Rules()
	i.tracker.SetRules(domain.PrivacyRules{AlwaysPrivate: always, CurrentPrivate: current.CurrentPrivate})
	i.logger.Info("privacy rules loaded", zap.Int("always_private", len(always)), zap.Int("current_private", len(current.CurrentPrivate)))
	return nil
}

func (i *Interactor) persist(ctx context.Context, rules domain.PrivacyRules, temporary bool) error {
	if temporary || i.privacy == nil {
		return nil
	}
	return i.privacy.Save(ctx, rules.AlwaysPrivate)
}

func toRecords(sessions []domain.WindowSession, now time.Time) []capturedto.SessionRecord {
	out := make([]capturedto.SessionRecord, 0, len(sessions))
	for _, session := range sessions {
		keys := make([]capturedto.KeyEventRecord, 0, len(session.KeyEvents))
		for _, key := range session.KeyEvents {
			keys = append(keys, capturedto.KeyEventRecord{Key: key.Key, Action: string(key.Action), Timestamp: key.At})
		}
		out = append(out, capturedto.SessionRecord{
			WindowClass:     session.Window.Class,
			WindowTitle:     session.Window.Title,
			StartTime:       session.StartTime,
			EndTime:         session.EndTime,
			Duration:        session.Duration(now).Seconds(),
			KeyEvents:       keys,
			KeyCount:        session.Counts.Keys,
			ClickCount:      session.Counts.Clicks,
			ScrollCount:     session.Counts.Scrolls,
			PrivacyFiltered: session.PrivacyFiltered,
		})
	}
	return out
}

func toRulesOutput(rules domain.PrivacyRules) capturedto.PrivacyRulesOutput {
	return capturedto.PrivacyRulesOutput{AlwaysPrivate: rules.AlwaysPrivate, CurrentPrivate: rules.CurrentPrivate}
}
