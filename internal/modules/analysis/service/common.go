package service

import (
	"time"

	activitydto "worklens/internal/modules/activity/dto"
	"worklens/internal/modules/analysis/domain"
	analysisdto "worklens/internal/modules/analysis/dto"
	capturedto "worklens/internal/modules/capture/dto"
)

// Settings are the windowing parameters shared by the analyzers.
type Settings struct {
	ShortWindow    time.Duration
	RepeatInterval int
	Temperature    float64
}

func (s Settings) MediumWindow() time.Duration {
	return s.ShortWindow * time.Duration(s.RepeatInterval)
}

type window struct {
	sessions []capturedto.SessionRecord
	totals   capturedto.Counts
	ids      []string
	first    time.Time
	last     time.Time
}

func collect(snapshots []activitydto.SnapshotOutput) window {
	w := window{}
	counts := make([]capturedto.Counts, 0, len(snapshots))
	for _, snapshot := range snapshots {
		w.sessions = append(w.sessions, snapshot.WindowSessions...)
		counts = append(counts, snapshot.Totals)
		w.ids = append(w.ids, snapshot.ID)
	}
	w.totals = domain.Totals(counts)
	if len(snapshots) > 0 {
		w.first = snapshots[0].CapturedAt
		w.last = snapshots[len(snapshots)-1].CapturedAt
	}
	return w
}

func responses(records []domain.Record) []string {
	out := make([]string, 0, len(records))
	for _, record := range records {
		out = append(out, record.Response)
	}
	return out
}

func ToOutput(r domain.Record) analysisdto.RecordOutput {
	return analysisdto.RecordOutput{
		ID:                r.ID,
		SessionID:         r.SessionID,
		Start:             r.Start,
		End:               r.End,
		Type:              string(r.Type),
		SourceActivityIDs: append([]string(nil), r.SourceActivityIDs...),
		Response:          r.Response,
		CreatedAt:         r.CreatedAt,
	}
}
