package lifecycle

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

const promptFlagFile = "push-prompt-shown"

// StateStore persists the one-shot prompt flag across restarts. The flag
// is a plain file so a crash between write and prompt still counts the
// prompt as shown.
type StateStore struct {
	mu  sync.Mutex
	dir string
}

func NewStateStore(dir string) *StateStore {
	return &StateStore{dir: dir}
}

func (s *StateStore) PromptShown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := os.Stat(filepath.Join(s.dir, promptFlagFile))
	return err == nil
}

func (s *StateStore) MarkPromptShown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	stamp := time.Now().UTC().Format(time.RFC3339)
	return os.WriteFile(filepath.Join(s.dir, promptFlagFile), []byte(stamp+"\n"), 0o644)
}
