package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerCreatesFileFromDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	mgr, err := NewManager(WithConfigPath(path))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if got := mgr.Get().ResultsDir; got != filepath.Join(dir, "results") {
		t.Fatalf("expected results dir under %s, got %s", dir, got)
	}
}

func TestManagerRequiresPath(t *testing.T) {
	_, err := NewManager()
	require.Error(t, err)
}

func TestManagerInitialConfigOnlyForNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "momentum.yaml")
	first := DefaultConfigWithRoot(t.TempDir())
	first.QuickThinkLLM = "first-model"
	_, err := NewManager(WithConfigPath(path), WithInitialConfig(first))
	require.NoError(t, err)

	second := DefaultConfigWithRoot(t.TempDir())
	second.QuickThinkLLM = "second-model"
	mgr, err := NewManager(WithConfigPath(path), WithInitialConfig(second))
	require.NoError(t, err)
	assert.Equal(t, "first-model", mgr.Get().QuickThinkLLM, "existing file wins over the initial config")
}

func TestManagerUpdateOverwritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "momentum.yaml")
	mgr, err := NewManager(WithConfigPath(path))
	require.NoError(t, err)

	cfg := mgr.Get()
	cfg.LLMProvider = ProviderOpenAI
	cfg.QuickThinkLLM = "gpt-4o-mini"
	cfg.MaxRecurLimit = 12
	cfg.DataflowsURL = "http://localhost:9000"
	require.NoError(t, mgr.Update(cfg))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "quick_think_llm: gpt-4o-mini")

	reopened, err := NewManager(WithConfigPath(path))
	require.NoError(t, err)
	got := reopened.Get()
	assert.Equal(t, ProviderOpenAI, got.LLMProvider)
	assert.Equal(t, 12, got.MaxRecurLimit)
	assert.Equal(t, "http://localhost:9000", got.DataflowsURL)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestManagerRejectsInvalidUpdate(t *testing.T) {
	mgr, err := NewManager(WithConfigPath(filepath.Join(t.TempDir(), "config.json")))
	require.NoError(t, err)

	cfg := mgr.Get()
	cfg.LLMProvider = "anthropic"
	err = mgr.Update(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported llm provider")
	assert.Equal(t, ProviderDeepSeek, mgr.Get().LLMProvider)
}

func TestManagerRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := NewManager(WithConfigPath(path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config")
}

func TestManagerWatchReloads(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigPath(filepath.Join(dir, "config.json")))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan Config, 1)
	if err := mgr.Watch(ctx, func(cfg Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	cfg := mgr.Get()
	cfg.QuickThinkLLM = "edited-by-hand"
	if err := writeConfig(mgr.Path(), cfg); err != nil {
		t.Fatalf("writeConfig: %v", err)
	}

	select {
	case got := <-reloaded:
		assert.Equal(t, "edited-by-hand", got.QuickThinkLLM)
	case <-time.After(3 * time.Second):
		t.Fatalf("watcher did not fire on config change")
	}
	assert.Equal(t, "edited-by-hand", mgr.Get().QuickThinkLLM)
}
