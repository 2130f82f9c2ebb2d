package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Manager владеет загруженным конфигом. После New конфиг не меняется.
type Manager struct {
	cfg  *Config
	path string
}

// New читает конфиг по пути. Если файла нет, записывает конфиг по умолчанию и работает с ним.
func New(path string) (*Manager, error) {
	m := &Manager{path: path}

	cfg, err := m.readParseValidate(path)
	switch {
	case err == nil:
		m.cfg = cfg
	case errors.Is(err, os.ErrNotExist):
		m.cfg = Default()
		if err := m.save(); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	ApplyEnv(m.cfg)
	return m, nil
}

func (m *Manager) Get() *Config {
	return m.cfg
}

func (m *Manager) readParseValidate(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("no config path provided")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open/read config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	if err := m.validate(cfg); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return cfg, nil
}

func (m *Manager) save() error {
	if m.path == "" {
		return errors.New("no config file loaded")
	}
	if m.cfg == nil {
		return errors.New("no config to save")
	}

	data, err := json.MarshalIndent(m.cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return m.writeAtomic(m.path, data, 0600)
}

func (m *Manager) writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", base, time.Now().UnixNano()))

	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
