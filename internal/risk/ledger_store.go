package risk

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// FileStore persists the ledger's State as JSON at a fixed path. A
// missing or corrupt file resets to zeros for today rather than
// failing startup.
type FileStore struct {
	path   string
	logger *logrus.Logger
}

func NewFileStore(path string, logger *logrus.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

func (f *FileStore) Load() State {
	data, err := os.ReadFile(f.path)
	if err != nil {
		f.logger.WithField("path", f.path).Info("no existing ledger stats file, starting from zero")
		return State{Date: today()}
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		f.logger.WithError(err).WithField("path", f.path).Warn("ledger stats file is corrupt, resetting to zero")
		return State{Date: today()}
	}
	return state
}

func (f *FileStore) Save(state State) {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		f.logger.WithError(err).Error("failed to create ledger stats directory")
		return
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		f.logger.WithError(err).Error("failed to marshal ledger stats")
		return
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		f.logger.WithError(err).Error("failed to write ledger stats file")
	}
}
