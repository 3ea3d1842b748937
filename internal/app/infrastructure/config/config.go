package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Переменные окружения с секретами. Значения из окружения не записываются в файл конфига.
const (
	EnvTwitchOAuth       = "CHATCORE_TWITCH_OAUTH"
	EnvTwitchClientID    = "CHATCORE_TWITCH_CLIENT_ID"
	EnvTwitchAccessToken = "CHATCORE_TWITCH_ACCESS_TOKEN"
	EnvAuthToken         = "CHATCORE_AUTH_TOKEN"
	EnvStoreDSN          = "CHATCORE_STORE_DSN"
)

// envOverride помнит значение из файла для поля, подмененного переменной окружения.
type envOverride struct {
	field    func(cfg *Config) *string
	value    string
	original string
}

type Manager struct {
	mu   sync.RWMutex
	cfg  *Config
	path string

	memory    bool
	overrides []envOverride
}

func New(path string) (*Manager, error) {
	m := &Manager{path: path}

	var err error
	m.cfg, err = m.readParseValidate(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if errors.Is(err, os.ErrNotExist) {
		m.cfg = m.GetDefault()
		data, err := json.MarshalIndent(m.cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal config: %w", err)
		}

		if err := m.writeAtomic(path, data, 0644); err != nil {
			return nil, fmt.Errorf("write config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	m.applyEnv()

	return m, nil
}

// NewInMemory оборачивает готовый конфиг без файла: Update валидирует, но ничего не пишет.
func NewInMemory(cfg *Config) (*Manager, error) {
	if cfg == nil {
		cfg = Default()
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return &Manager{cfg: cfg, memory: true}, nil
}

// Get возвращает текущий снимок конфига. Снимок не меняется после выдачи: Update подменяет его целиком.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.cfg
}

func (m *Manager) Update(modify func(cfg *Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg == nil {
		return errors.New("no config loaded")
	}

	next, err := m.cfg.Clone()
	if err != nil {
		return fmt.Errorf("snapshot config: %w", err)
	}

	modify(next)

	if err := m.validate(next); err != nil {
		return fmt.Errorf("invalid config update: %w", err)
	}

	if err := m.save(next); err != nil {
		return err
	}
	m.cfg = next
	return nil
}

// Clone делает глубокую копию через JSON, карты и срезы не разделяются с исходником.
func (c *Config) Clone() (*Config, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}

	out := &Config{}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Manager) applyEnv() {
	bind := func(env string, field func(cfg *Config) *string) {
		v := os.Getenv(env)
		if v == "" {
			return
		}
		target := field(m.cfg)
		m.overrides = append(m.overrides, envOverride{field: field, value: v, original: *target})
		*target = v
	}

	bind(EnvTwitchOAuth, func(cfg *Config) *string { return &cfg.Twitch.OAuth })
	bind(EnvTwitchClientID, func(cfg *Config) *string { return &cfg.Twitch.ClientID })
	bind(EnvTwitchAccessToken, func(cfg *Config) *string { return &cfg.Twitch.AccessToken })
	bind(EnvAuthToken, func(cfg *Config) *string { return &cfg.App.AuthToken })
	bind(EnvStoreDSN, func(cfg *Config) *string { return &cfg.App.Store.DSN })
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

func (m *Manager) save(cfg *Config) error {
	if m.memory {
		return nil
	}
	if m.path == "" {
		return errors.New("no config file loaded")
	}

	// секреты из окружения в файл не попадают: пишем значения, которые были в файле
	out := cfg
	if len(m.overrides) > 0 {
		var err error
		if out, err = cfg.Clone(); err != nil {
			return fmt.Errorf("snapshot config: %w", err)
		}
		for _, o := range m.overrides {
			if target := o.field(out); *target == o.value {
				*target = o.original
			}
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return m.writeAtomic(m.path, data, 0644)
}

func (m *Manager) writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", base, time.Now().UnixNano()))

	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
