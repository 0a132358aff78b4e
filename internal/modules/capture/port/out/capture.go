package out

import (
	"context"

	"worklens/internal/platform/eventbus"
)

// Screenshotter returns a PNG of the active display.
type Screenshotter interface {
	Capture(ctx context.Context) ([]byte, error)
}

// PrivacyStore persists the permanent privacy patterns.
type PrivacyStore interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, alwaysPrivate []string) error
}

type HotkeyPublisher interface {
	Broadcast(ctx context.Context, event eventbus.HotkeyEvent)
}
