package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// StateStore persists the dashboard message ID so the bot edits the same
// message across restarts instead of flooding the channel.
type StateStore struct {
	path string
}

type persistedState struct {
	MessageID int `json:"message_id"`
}

// NewStateStore creates a store backed by a JSON file under dataDir.
func NewStateStore(dataDir string) *StateStore {
	return &StateStore{path: filepath.Join(dataDir, "dashboard_message_id.json")}
}

// Load reads the persisted message ID. A missing file is a fresh install
// and returns 0 without error.
func (s *StateStore) Load() (int, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read dashboard state: %w", err)
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return 0, fmt.Errorf("parse dashboard state: %w", err)
	}
	return state.MessageID, nil
}

// Save writes the message ID through a temporary file and a rename so a
// crash mid-write never leaves a torn state file.
func (s *StateStore) Save(messageID int) error {
	data, err := json.Marshal(persistedState{MessageID: messageID})
	if err != nil {
		return fmt.Errorf("marshal dashboard state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write dashboard state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace dashboard state: %w", err)
	}
	return nil
}
