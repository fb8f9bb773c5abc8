package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// reloadDelay coalesces the burst of events an editor save produces.
const reloadDelay = 300 * time.Millisecond

// Manager keeps a Config in sync with one file on disk. The format follows
// the extension: .yaml and .yml are YAML, anything else is JSON.
type Manager struct {
	path   string
	logger *zap.Logger

	mu       sync.RWMutex
	cfg      Config
	onChange func(Config)
	watching bool

	// set while Update writes the file so the watcher skips our own event
	writing atomic.Bool
}

type managerOptions struct {
	path    string
	initial *Config
	logger  *zap.Logger
}

type ManagerOption func(*managerOptions)

func WithConfigPath(path string) ManagerOption {
	return func(o *managerOptions) {
		o.path = strings.TrimSpace(path)
	}
}

// WithInitialConfig is written when the file does not exist yet.
func WithInitialConfig(cfg *Config) ManagerOption {
	return func(o *managerOptions) {
		o.initial = cfg
	}
}

func WithLogger(logger *zap.Logger) ManagerOption {
	return func(o *managerOptions) {
		o.logger = logger
	}
}

// NewManager opens the config file, creating it from the initial config (or
// the defaults rooted at the file's directory) when it is missing.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	o := managerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.path == "" {
		return nil, errors.New("config manager: path is required")
	}
	m := &Manager{
		path:   o.path,
		logger: zap.NewNop(),
	}
	if o.logger != nil {
		m.logger = o.logger
	}

	cfg, err := readConfig(o.path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		if o.initial != nil {
			cfg = *o.initial
		} else {
			cfg = *DefaultConfigWithRoot(filepath.Dir(o.path))
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if err := writeConfig(o.path, cfg); err != nil {
			return nil, err
		}
		m.logger.Info("config file created", zap.String("path", o.path))
	default:
		return nil, err
	}

	m.cfg = cfg
	return m, nil
}

func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func (m *Manager) Path() string {
	return m.path
}

// Update validates cfg and replaces the file with it. The file is rewritten
// even when its contents already match.
func (m *Manager) Update(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.writing.Store(true)
	err := writeConfig(m.path, cfg)
	time.AfterFunc(reloadDelay, func() { m.writing.Store(false) })
	if err != nil {
		return err
	}
	m.set(cfg)
	return nil
}

// Watch calls onChange with every valid config written to the file by
// someone else. Invalid edits are logged and ignored. Watching stops with ctx.
func (m *Manager) Watch(ctx context.Context, onChange func(Config)) error {
	m.mu.Lock()
	m.onChange = onChange
	if m.watching {
		m.mu.Unlock()
		return nil
	}
	m.watching = true
	m.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		// editors replace the file, so watch the directory
		if err = watcher.Add(filepath.Dir(m.path)); err != nil {
			watcher.Close()
		}
	}
	if err != nil {
		m.mu.Lock()
		m.watching = false
		m.mu.Unlock()
		return fmt.Errorf("watch %s: %w", m.path, err)
	}

	go m.watch(ctx, watcher)
	return nil
}

func (m *Manager) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()
	defer func() {
		m.mu.Lock()
		m.watching = false
		m.mu.Unlock()
	}()

	var pending *time.Timer
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()

	target := filepath.Clean(m.path)
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("config watcher error", zap.Error(err))
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != target || !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) {
				continue
			}
			if m.writing.Load() {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(reloadDelay, m.reload)
		}
	}
}

func (m *Manager) reload() {
	cfg, err := readConfig(m.path)
	if err != nil {
		m.logger.Warn("config reload skipped", zap.String("path", m.path), zap.Error(err))
		return
	}
	if err := cfg.Validate(); err != nil {
		m.logger.Warn("config reload rejected", zap.String("path", m.path), zap.Error(err))
		return
	}
	if reflect.DeepEqual(m.Get(), cfg) {
		return
	}
	m.set(cfg)
}

func (m *Manager) set(cfg Config) {
	m.mu.Lock()
	m.cfg = cfg
	cb := m.onChange
	m.mu.Unlock()

	if cb != nil {
		cb(cfg)
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// readConfig returns an error wrapping os.ErrNotExist when the file is missing.
func readConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// writeConfig replaces path atomically through a temp file in the same dir.
func writeConfig(path string, cfg Config) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(&cfg)
	} else {
		data, err = json.MarshalIndent(&cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".momentum-config-*")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace config %s: %w", path, err)
	}
	return nil
}
