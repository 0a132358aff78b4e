package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"worklens/internal/modules/session/domain"
	sessionout "worklens/internal/modules/session/port/out"
	apperrors "worklens/internal/platform/errors"
)

const trackingFile = "tracking.json"

// FileActiveSessionStore remembers which capture session is being tracked
// so the dashboard and a later `worklens stop` can find it. The pointer
// file is replaced atomically.
type FileActiveSessionStore struct {
	path string
}

func NewFileActiveSessionStore(dataDir string) sessionout.ActiveSessionStore {
	return &FileActiveSessionStore{path: filepath.Join(dataDir, trackingFile)}
}

func (s *FileActiveSessionStore) SaveActive(_ context.Context, session domain.ActiveSession) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: prepare data dir for tracked session: %v", apperrors.ErrStorage, err)
	}
	payload, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tracked session %s: %w", session.SessionID, err)
	}
	staged := s.path + ".tmp"
	if err := os.WriteFile(staged, payload, 0o644); err != nil {
		return fmt.Errorf("%w: stage tracked session %s: %v", apperrors.ErrStorage, session.SessionID, err)
	}
	if err := os.Rename(staged, s.path); err != nil {
		return fmt.Errorf("%w: publish tracked session %s: %v", apperrors.ErrStorage, session.SessionID, err)
	}
	return nil
}

// LoadActive treats a missing or empty pointer as an idle pipeline.
func (s *FileActiveSessionStore) LoadActive(_ context.Context) (domain.ActiveSession, error) {
	payload, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return domain.ActiveSession{}, apperrors.ErrNoActiveSession
	case err != nil:
		return domain.ActiveSession{}, fmt.Errorf("%w: load tracked session from %s: %v", apperrors.ErrStorage, s.path, err)
	}
	var tracked domain.ActiveSession
	if err := json.Unmarshal(payload, &tracked); err != nil {
		return domain.ActiveSession{}, fmt.Errorf("%w: %s is not a tracked session: %v", apperrors.ErrStorage, s.path, err)
	}
	if tracked.SessionID == "" {
		return domain.ActiveSession{}, apperrors.ErrNoActiveSession
	}
	return tracked, nil
}

func (s *FileActiveSessionStore) ClearActive(_ context.Context) error {
	err := os.Remove(s.path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("%w: forget tracked session: %v", apperrors.ErrStorage, err)
}
