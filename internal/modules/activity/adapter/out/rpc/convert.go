package rpc

import capturedto "worklens/internal/modules/capture/dto"

func FromSessionRecords(records []capturedto.SessionRecord) []WindowSession {
	out := make([]WindowSession, 0, len(records))
	for _, record := range records {
		keys := make([]KeyEvent, 0, len(record.KeyEvents))
		for _, key := range record.KeyEvents {
			keys = append(keys, KeyEvent{Key: key.Key, Action: key.Action, Timestamp: key.Timestamp})
		}
		out = append(out, WindowSession{
			WindowClass:     record.WindowClass,
			WindowTitle:     record.WindowTitle,
			StartTime:       record.StartTime,
			EndTime:         record.EndTime,
			Duration:        record.Duration,
			KeyEvents:       keys,
			KeyCount:        record.KeyCount,
			ClickCount:      record.ClickCount,
			ScrollCount:     record.ScrollCount,
			PrivacyFiltered: record.PrivacyFiltered,
		})
	}
	return out
}

func ToSessionRecords(sessions []WindowSession) []capturedto.SessionRecord {
	out := make([]capturedto.SessionRecord, 0, len(sessions))
	for _, session := range sessions {
		keys := make([]capturedto.KeyEventRecord, 0, len(session.KeyEvents))
		for _, key := range session.KeyEvents {
			keys = append(keys, capturedto.KeyEventRecord{Key: key.Key, Action: key.Action, Timestamp: key.Timestamp})
		}
		out = append(out, capturedto.SessionRecord{
			WindowClass:     session.WindowClass,
			WindowTitle:     session.WindowTitle,
			StartTime:       session.StartTime,
			EndTime:         session.EndTime,
			Duration:        session.Duration,
			KeyEvents:       keys,
			KeyCount:        session.KeyCount,
			ClickCount:      session.ClickCount,
			ScrollCount:     session.ScrollCount,
			PrivacyFiltered: session.PrivacyFiltered,
		})
	}
	return out
}

func ToSnapshotOutput(resp *SnapshotResponse) capturedto.SnapshotOutput {
	return capturedto.SnapshotOutput{
		Sessions:   ToSessionRecords(resp.Sessions),
		Counts:     capturedto.Counts{Keys: resp.Keys, Clicks: resp.Clicks, Scrolls: resp.Scrolls},
		Screenshot: resp.Screenshot,
		CapturedAt: resp.CapturedAt,
	}
}

func FromSnapshotOutput(snapshot capturedto.SnapshotOutput) *SnapshotResponse {
	return &SnapshotResponse{
		Sessions:   FromSessionRecords(snapshot.Sessions),
		Keys:       snapshot.Counts.Keys,
		Clicks:     snapshot.Counts.Clicks,
		Scrolls:    snapshot.Counts.Scrolls,
		Screenshot: snapshot.Screenshot,
		CapturedAt: snapshot.CapturedAt,
	}
}
