package devconfig

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ccarrizosa/EspSensor/internal/errors"
	"github.com/ccarrizosa/EspSensor/internal/logger"
)

const (
	defaultDirPerm  = 0o755
	defaultFilePerm = 0o600
)

// Store persists the provisioned configuration across power cycles.
type Store interface {
	// Load returns the stored configuration. found is false when none has
	// been written yet, which is not an error.
	Load() (cfg Config, found bool, err error)
	Save(Config) error
	Clear() error
}

type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (Config, bool, error) {
	errFactory := errors.New()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug().Str("path", s.path).Msg("No stored configuration")
			return Config{}, false, nil
		}
		return Config{}, false, errFactory.Wrap(ErrStorageUnavailable, err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, false, errFactory.Wrap(ErrParseFailed, err)
	}

	return cfg, true, nil
}

func (s *FileStore) Save(cfg Config) error {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return errFactory.Wrap(ErrSaveFailed, err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errFactory.Wrap(ErrSaveFailed, err)
	}
	raw = append(raw, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), defaultDirPerm); err != nil {
		return errFactory.Wrap(ErrSaveFailed, err)
	}

	// Write-then-rename so a power loss mid-save cannot corrupt the stored
	// configuration.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, defaultFilePerm); err != nil {
		return errFactory.Wrap(ErrSaveFailed, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return errFactory.Wrap(ErrSaveFailed, err)
	}

	logger.Debug().Str("path", s.path).Msg("Configuration saved")
	return nil
}

func (s *FileStore) Clear() error {
	errFactory := errors.New()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errFactory.Wrap(ErrClearFailed, err)
	}

	logger.Info().Str("path", s.path).Msg("Stored configuration cleared")
	return nil
}
