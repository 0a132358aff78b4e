package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "worklens/internal/platform/errors"
)

type Type string

const (
	TypeRegular Type = "regular"
	TypeSpecial Type = "special"
	TypeFinal   Type = "final"
)

func ParseType(raw string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(raw))); t {
	case TypeRegular, TypeSpecial, TypeFinal:
		return t, nil
	default:
		return "", fmt.Errorf("%w: analysis type %q", apperrors.ErrInvalidInput, raw)
	}
}

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Record is one model response over a span of raw snapshots.
type Record struct {
	ID                string
	SessionID         string
	Start             time.Time
	End               time.Time
	Type              Type
	SourceActivityIDs []string
	Response          string
	CreatedAt         time.Time
}

// RecordID identifies a record by session, start and type, so a second
// analysis of the same window replaces the first.
func RecordID(sessionID string, start time.Time, t Type) string {
	return sessionID + "/" + string(t) + "/" + start.UTC().Format(timeLayout)
}

func NewRecord(sessionID string, start, end time.Time, t Type, sources []string, response string, createdAt time.Time) (Record, error) {
	record := Record{
		ID:                RecordID(sessionID, start, t),
		SessionID:         sessionID,
		Start:             start.UTC(),
		End:               end.UTC(),
		Type:              t,
		SourceActivityIDs: append([]string(nil), sources...),
		Response:          response,
		CreatedAt:         createdAt.UTC(),
	}
	if err := record.Validate(); err != nil {
		return Record{}, err
	}
	return record, nil
}

func (r Record) Validate() error {
	if r.SessionID == "" {
		return fmt.Errorf("%w: analysis session id is required", apperrors.ErrInvalidInput)
	}
	if _, err := ParseType(string(r.Type)); err != nil {
		return err
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: analysis window is required", apperrors.ErrInvalidInput)
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: analysis ends before it starts", apperrors.ErrInvalidInput)
	}
	if r.ID != RecordID(r.SessionID, r.Start, r.Type) {
		return fmt.Errorf("%w: analysis id %q does not match its key", apperrors.ErrInvalidInput, r.ID)
	}
	return nil
}
