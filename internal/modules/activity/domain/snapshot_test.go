package domain

import (
	"errors"
	"testing"
	"time"

	capturedto "worklens/internal/modules/capture/dto"
	apperrors "worklens/internal/platform/errors"
)

func TestSnapshotIDIsFixedWidth(t *testing.T) {
	t.Parallel()
	a := SnapshotID("s1", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	b := SnapshotID("s1", time.Date(2026, 3, 2, 9, 0, 0, 500, time.UTC))
	if len(a) != len(b) || !(a < b) {
		t.Fatalf("ids must be fixed width and ordered: %q %q", a, b)
	}
	if other := SnapshotID("s2", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)); other == a {
		t.Fatalf("sessions capturing at the same instant share id %q", a)
	}
}

func TestSnapshotValidate(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	valid := Snapshot{ID: SnapshotID("s1", at), SessionID: "s1", CapturedAt: at}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid snapshot rejected: %v", err)
	}
	cases := map[string]Snapshot{
		"session":  {ID: SnapshotID("", at), CapturedAt: at},
		"time":     {ID: "x", SessionID: "s1"},
		"id":       {ID: "other", SessionID: "s1", CapturedAt: at},
		"foreign":  {ID: SnapshotID("s2", at), SessionID: "s1", CapturedAt: at},
		"totals":   {ID: SnapshotID("s1", at), SessionID: "s1", CapturedAt: at, Totals: capturedto.Counts{Keys: -1}},
		"interval": {ID: SnapshotID("s1", at), SessionID: "s1", CapturedAt: at, WindowSessions: []capturedto.SessionRecord{{StartTime: at, EndTime: at.Add(-time.Second)}}},
	}
	for name, snap := range cases {
		if err := snap.Validate(); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("%s: expected invalid input, got %v", name, err)
		}
	}
}
