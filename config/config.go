package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
)

type Config struct {
	ProjectDir string `json:"project_dir" yaml:"project_dir"`
	ResultsDir string `json:"results_dir" yaml:"results_dir"`

	LLMProvider   string `json:"llm_provider" yaml:"llm_provider"`
	QuickThinkLLM string `json:"quick_think_llm" yaml:"quick_think_llm"`
	BackendURL    string `json:"backend_url" yaml:"backend_url"`
	MaxTokens     int    `json:"max_tokens" yaml:"max_tokens"`
	MaxRecurLimit int    `json:"max_recursion_limit" yaml:"max_recursion_limit"`
	Debug         bool   `json:"debug" yaml:"debug"`

	// Eino Debug configuration
	EinoDebugEnabled bool `json:"eino_debug_enabled" yaml:"eino_debug_enabled"`
	EinoDebugPort    int  `json:"eino_debug_port" yaml:"eino_debug_port"`

	// AI Model API Keys
	OpenAIAPIKey   string `json:"openai_api_key" yaml:"openai_api_key"`
	DeepSeekAPIKey string `json:"deepseek_api_key" yaml:"deepseek_api_key"`

	// External data service serving get_stock_data / get_indicators
	DataflowsURL        string `json:"dataflows_url" yaml:"dataflows_url"`
	DataflowsTimeoutSec int    `json:"dataflows_timeout_sec" yaml:"dataflows_timeout_sec"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()
	cfg := DefaultConfigWithRoot(currentDir)

	// Load environment variables from .env file
	_ = godotenv.Load()

	// Override with environment variables if they exist
	cfg.loadFromEnv()

	return cfg
}

// DefaultConfigWithRoot returns the built-in defaults with directories under root.
func DefaultConfigWithRoot(root string) *Config {
	return &Config{
		ProjectDir: root,
		ResultsDir: filepath.Join(root, "results"),

		LLMProvider:   ProviderDeepSeek,
		QuickThinkLLM: "deepseek-chat",
		BackendURL:    "https://api.deepseek.com/v1",
		MaxTokens:     8192,
		MaxRecurLimit: 40,
		Debug:         false,

		EinoDebugEnabled: false,
		EinoDebugPort:    52538,

		DataflowsTimeoutSec: 30,
	}
}

// ApplyEnvOverrides layers .env and process environment values over c.
// Used after loading a config file so secrets can stay out of the file.
func (c *Config) ApplyEnvOverrides() {
	_ = godotenv.Load()
	c.loadFromEnv()
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("RESULTS_DIR"); val != "" {
		c.ResultsDir = val
	}

	if val := os.Getenv("LLM_PROVIDER"); val != "" {
		c.LLMProvider = strings.ToLower(val)
	}
	if val := os.Getenv("QUICK_THINK_LLM"); val != "" {
		c.QuickThinkLLM = val
	}
	if val := os.Getenv("BACKEND_URL"); val != "" {
		c.BackendURL = val
	}
	if val := os.Getenv("MAX_TOKENS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.MaxTokens = v
		}
	}
	if val := os.Getenv("MAX_RECURSION_LIMIT"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.MaxRecurLimit = v
		}
	}

	if val := os.Getenv("MOMENTUM_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}

	if val := os.Getenv("EINO_DEBUG_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.EinoDebugEnabled = enabled
		}
	}
	if val := os.Getenv("EINO_DEBUG_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.EinoDebugPort = port
		}
	}

	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}
	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		c.DeepSeekAPIKey = val
	}

	if val := os.Getenv("DATAFLOWS_URL"); val != "" {
		c.DataflowsURL = val
	}
	if val := os.Getenv("DATAFLOWS_TIMEOUT_SEC"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.DataflowsTimeoutSec = v
		}
	}
}

func (c *Config) Validate() error {
	var errs []error
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderDeepSeek:
	default:
		errs = append(errs, fmt.Errorf("unsupported llm provider %q", c.LLMProvider))
	}
	if strings.TrimSpace(c.QuickThinkLLM) == "" {
		errs = append(errs, errors.New("quick_think_llm must not be empty"))
	}
	if c.MaxRecurLimit <= 0 {
		errs = append(errs, fmt.Errorf("max_recursion_limit must be positive, got %d", c.MaxRecurLimit))
	}
	if c.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("max_tokens must not be negative, got %d", c.MaxTokens))
	}
	if c.DataflowsTimeoutSec < 0 {
		errs = append(errs, fmt.Errorf("dataflows_timeout_sec must not be negative, got %d", c.DataflowsTimeoutSec))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// APIKey returns the key of the configured provider.
func (c *Config) APIKey() string {
	switch c.LLMProvider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderDeepSeek:
		return c.DeepSeekAPIKey
	}
	return ""
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ProjectDir, c.ResultsDir}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
