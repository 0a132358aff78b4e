package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	captureout "worklens/internal/modules/capture/port/out"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const reloadDebounce = 100 * time.Millisecond

type privacyFile struct {
	AlwaysPrivate []string `yaml:"always_private"`
}

// FilePrivacyStore keeps the permanent privacy patterns in a YAML file.
type FilePrivacyStore struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

func NewFilePrivacyStore(path string, logger *zap.Logger) *FilePrivacyStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilePrivacyStore{path: path, logger: logger}
}

var _ captureout.PrivacyStore = (*FilePrivacyStore)(nil)

func (s *FilePrivacyStore) Load(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read privacy rules: %w", err)
	}
	file := privacyFile{}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode privacy rules: %w", err)
	}
	if file.AlwaysPrivate == nil {
		file.AlwaysPrivate = []string{}
	}
	return file.AlwaysPrivate, nil
}

func (s *FilePrivacyStore) Save(_ context.Context, alwaysPrivate []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create privacy dir: %w", err)
	}
	raw, err := yaml.Marshal(privacyFile{AlwaysPrivate: alwaysPrivate})
	if err != nil {
		return fmt.Errorf("encode privacy rules: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write privacy rules: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace privacy rules: %w", err)
	}
	return nil
}

// Watch calls onChange after the privacy file changes on disk. Bursts of
// writes are collapsed into one call. It returns when ctx is done.
func (s *FilePrivacyStore) Watch(ctx context.Context, onChange func(context.Context)) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create privacy dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create privacy watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()
	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, func() {
				if ctx.Err() == nil {
					onChange(ctx)
				}
			})
			timerMu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("privacy watcher error", zap.Error(err))
		}
	}
}
