// Package config loads the process configuration from defaults, an optional
// YAML file and the environment.
//
// Provider settings keep their conventional variable names (LLM_PROVIDER,
// OPENAI_API_KEY, AZURE_OPENAI_ENDPOINT, ...). Every key can also be set with
// the AGENTLOOP_ prefix, e.g. AGENTLOOP_SERVER_ADDR or AGENTLOOP_AGENT_MAX_STEPS.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hupe1980/agentloop/logging"
)

// EnvPrefix prefixes every configuration environment variable.
const EnvPrefix = "AGENTLOOP"

// Config is the full process configuration.
type Config struct {
	LLM    LLMConfig    `mapstructure:"llm"`
	Agent  AgentConfig  `mapstructure:"agent"`
	Server ServerConfig `mapstructure:"server"`
	Quotes QuotesConfig `mapstructure:"quotes"`
	Tools  ToolsConfig  `mapstructure:"tools"`
	Log    LogConfig    `mapstructure:"log"`
}

// LLMConfig selects and configures the model provider.
type LLMConfig struct {
	Provider    string          `mapstructure:"provider"`
	Temperature float64         `mapstructure:"temperature"`
	OpenAI      OpenAIConfig    `mapstructure:"openai"`
	Azure       AzureConfig     `mapstructure:"azure"`
	Ollama      OllamaConfig    `mapstructure:"ollama"`
	Anthropic   AnthropicConfig `mapstructure:"anthropic"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type AzureConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Endpoint   string `mapstructure:"endpoint"`
	Deployment string `mapstructure:"deployment"`
	APIVersion string `mapstructure:"api_version"`
}

type OllamaConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

// AgentConfig tunes the orchestration loop.
type AgentConfig struct {
	// MaxSteps bounds node invocations per run; 0 means unbounded.
	MaxSteps           int  `mapstructure:"max_steps"`
	ToolParallelism    int  `mapstructure:"tool_parallelism"`
	RecordAllToolNames bool `mapstructure:"record_all_tool_names"`
	MaxConcurrentRuns  int  `mapstructure:"max_concurrent_runs"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// QuotesConfig selects the market quote source.
type QuotesConfig struct {
	// Source is "static" (offline) or "yahoo".
	Source       string        `mapstructure:"source"`
	YahooBaseURL string        `mapstructure:"yahoo_base_url"`
	CacheSize    int           `mapstructure:"cache_size"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// ToolsConfig selects where the agent's tools come from.
type ToolsConfig struct {
	// Source is "local" (in-process banking tools) or "mcp" (a remote tool
	// server discovered per run).
	Source string    `mapstructure:"source"`
	MCP    MCPConfig `mapstructure:"mcp"`
}

// MCPConfig configures the MCP client and the mcp-serve command.
type MCPConfig struct {
	// URL is the SSE endpoint the client connects to.
	URL string `mapstructure:"url"`
	// Addr is the listen address of mcp-serve.
	Addr           string        `mapstructure:"addr"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// legacyEnv maps keys to the provider variable names used without prefix.
var legacyEnv = map[string]string{
	"llm.provider":          "LLM_PROVIDER",
	"llm.openai.api_key":    "OPENAI_API_KEY",
	"llm.openai.model":      "OPENAI_MODEL",
	"llm.openai.base_url":   "OPENAI_BASE_URL",
	"llm.azure.api_key":     "AZURE_OPENAI_API_KEY",
	"llm.azure.endpoint":    "AZURE_OPENAI_ENDPOINT",
	"llm.azure.deployment":  "AZURE_OPENAI_DEPLOYMENT_NAME",
	"llm.azure.api_version": "AZURE_OPENAI_API_VERSION",
	"llm.ollama.base_url":   "OLLAMA_BASE_URL",
	"llm.ollama.model":      "OLLAMA_MODEL",
	"llm.anthropic.api_key": "ANTHROPIC_API_KEY",
	"llm.anthropic.model":   "ANTHROPIC_MODEL",
	"tools.mcp.url":         "MCP_SERVER_URL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "azure_openai")
	v.SetDefault("llm.temperature", 0.8)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", "gpt-4")
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.azure.api_key", "")
	v.SetDefault("llm.azure.endpoint", "")
	v.SetDefault("llm.azure.deployment", "")
	v.SetDefault("llm.azure.api_version", "2024-02-15-preview")
	v.SetDefault("llm.ollama.base_url", "http://localhost:11434")
	v.SetDefault("llm.ollama.model", "llama2")
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", "claude-3-5-sonnet-latest")
	v.SetDefault("llm.anthropic.max_tokens", 4096)

	v.SetDefault("agent.max_steps", 0)
	v.SetDefault("agent.tool_parallelism", 4)
	v.SetDefault("agent.record_all_tool_names", false)
	v.SetDefault("agent.max_concurrent_runs", 10)

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.request_timeout", 0)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("quotes.source", "static")
	v.SetDefault("quotes.yahoo_base_url", "")
	v.SetDefault("quotes.cache_size", 128)
	v.SetDefault("quotes.cache_ttl", time.Minute)

	v.SetDefault("tools.source", "local")
	v.SetDefault("tools.mcp.url", "http://localhost:8001/sse")
	v.SetDefault("tools.mcp.addr", ":8001")
	v.SetDefault("tools.mcp.connect_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// New returns a viper instance with defaults and environment bindings.
func New() (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return v, nil
}

// Load reads the configuration. path names an optional config file; an empty
// path uses defaults and the environment only.
func Load(path string) (*Config, error) {
	v, err := New()
	if err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.Tools.Source = strings.ToLower(strings.TrimSpace(cfg.Tools.Source))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature must be within [0, 2], got %v", c.LLM.Temperature))
	}
	if c.Agent.MaxSteps < 0 {
		errs = append(errs, fmt.Errorf("agent.max_steps must not be negative, got %d", c.Agent.MaxSteps))
	}
	if c.Agent.ToolParallelism < 1 {
		errs = append(errs, fmt.Errorf("agent.tool_parallelism must be at least 1, got %d", c.Agent.ToolParallelism))
	}
	if c.Agent.MaxConcurrentRuns < 0 {
		errs = append(errs, fmt.Errorf("agent.max_concurrent_runs must not be negative, got %d", c.Agent.MaxConcurrentRuns))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.RequestTimeout < 0 {
		errs = append(errs, errors.New("server.request_timeout must not be negative"))
	}
	switch c.Quotes.Source {
	case "static", "yahoo":
	default:
		errs = append(errs, fmt.Errorf("quotes.source must be static or yahoo, got %q", c.Quotes.Source))
	}
	switch c.Tools.Source {
	case "local":
	case "mcp":
		if c.Tools.MCP.URL == "" {
			errs = append(errs, errors.New("tools.mcp.url is required when tools.source is mcp"))
		}
	default:
		errs = append(errs, fmt.Errorf("tools.source must be local or mcp, got %q", c.Tools.Source))
	}
	if c.Tools.MCP.ConnectTimeout < 0 {
		errs = append(errs, errors.New("tools.mcp.connect_timeout must not be negative"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
