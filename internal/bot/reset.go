package bot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"
)

// resetRequested reports whether persisted state should be cleared. The
// sentinel file is consumed when present.
func (m *Monitor) resetRequested() (bool, error) {
	reset := m.reset
	if m.reset {
		m.logInfo("reset flag set, clearing bot state")
	}

	path := m.cfg.ResetFile
	if path == "" {
		return reset, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return reset, nil
		}
		return false, fmt.Errorf("check reset file: %w", err)
	}

	m.logInfo("reset file found, clearing bot state", zap.String("path", path))
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		m.logWarn("could not remove reset file", zap.String("path", path), zap.Error(err))
	}
	return true, nil
}
