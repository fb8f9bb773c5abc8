package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigWithRoot(t *testing.T) {
	cfg := DefaultConfigWithRoot("/srv/momentum")
	assert.Equal(t, filepath.Join("/srv/momentum", "results"), cfg.ResultsDir)
	assert.Equal(t, ProviderDeepSeek, cfg.LLMProvider)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("QUICK_THINK_LLM", "gpt-4o-mini")
	t.Setenv("MAX_RECURSION_LIMIT", "7")
	t.Setenv("MAX_TOKENS", "not-a-number")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DATAFLOWS_URL", "http://dataflows:8080")
	t.Setenv("MOMENTUM_DEBUG", "true")

	cfg := DefaultConfigWithRoot(t.TempDir())
	cfg.loadFromEnv()

	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.QuickThinkLLM)
	assert.Equal(t, 7, cfg.MaxRecurLimit)
	assert.Equal(t, 8192, cfg.MaxTokens, "unparsable values keep the default")
	assert.Equal(t, "sk-test", cfg.APIKey())
	assert.Equal(t, "http://dataflows:8080", cfg.DataflowsURL)
	assert.True(t, cfg.Debug)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown provider", mutate: func(c *Config) { c.LLMProvider = "bard" }, wantErr: "unsupported llm provider"},
		{name: "empty model", mutate: func(c *Config) { c.QuickThinkLLM = " " }, wantErr: "quick_think_llm"},
		{name: "zero recursion", mutate: func(c *Config) { c.MaxRecurLimit = 0 }, wantErr: "max_recursion_limit"},
		{name: "negative timeout", mutate: func(c *Config) { c.DataflowsTimeoutSec = -1 }, wantErr: "dataflows_timeout_sec"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfigWithRoot(t.TempDir())
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := DefaultConfigWithRoot(filepath.Join(t.TempDir(), "root"))
	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.ResultsDir)
}

func TestApplyEnvOverridesOnFileConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DEEPSEEK_API_KEY", "from-env")
	t.Setenv("DATAFLOWS_URL", "http://dataflows.local")

	cfg := DefaultConfigWithRoot(t.TempDir())
	cfg.QuickThinkLLM = "from-file"
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "from-env", cfg.APIKey())
	assert.Equal(t, "http://dataflows.local", cfg.DataflowsURL)
	assert.Equal(t, "from-file", cfg.QuickThinkLLM)
}
