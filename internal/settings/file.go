package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Open loads the preferences kept at path. A missing file yields the
// defaults; the file is written on the first change.
func Open(path string, logger logrus.FieldLogger) (*Store, error) {
	if logger == nil {
		logger = discardLogger()
	}
	logger = logger.WithFields(logrus.Fields{"component": "settings", "path": path})

	snap, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if snap.DefaultTimerMinutes <= 0 {
		logger.WithField("value", snap.DefaultTimerMinutes).Warn("invalid default timer minutes in settings file, using default")
		snap.DefaultTimerMinutes = DefaultTimerMinutes
	}

	return newStore(snap, func(s Snapshot) error {
		return writeFile(path, s)
	}, logger), nil
}

func readFile(path string) (Snapshot, error) {
	snap := Defaults()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return snap, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read settings: %w", err)
	}
	// Keys absent from the file keep their defaults.
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return snap, nil
}

// writeFile replaces path atomically: the data is synced to a temporary
// file in the same directory which is then renamed over the old one.
func writeFile(path string, s Snapshot) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
