package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "azure_openai", cfg.LLM.Provider)
	assert.Equal(t, 0.8, cfg.LLM.Temperature)
	assert.Equal(t, "gpt-4", cfg.LLM.OpenAI.Model)
	assert.Equal(t, "2024-02-15-preview", cfg.LLM.Azure.APIVersion)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.Ollama.BaseURL)
	assert.Equal(t, "llama2", cfg.LLM.Ollama.Model)

	assert.Zero(t, cfg.Agent.MaxSteps)
	assert.Equal(t, 4, cfg.Agent.ToolParallelism)
	assert.False(t, cfg.Agent.RecordAllToolNames)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)

	assert.Equal(t, "static", cfg.Quotes.Source)
	assert.Equal(t, time.Minute, cfg.Quotes.CacheTTL)
	assert.Equal(t, "local", cfg.Tools.Source)
	assert.Equal(t, "http://localhost:8001/sse", cfg.Tools.MCP.URL)
	assert.Equal(t, ":8001", cfg.Tools.MCP.Addr)
	assert.Equal(t, 10*time.Second, cfg.Tools.MCP.ConnectTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ProviderEnvNames(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "Ollama")
	t.Setenv("OLLAMA_MODEL", "llama3.1")
	t.Setenv("AZURE_OPENAI_DEPLOYMENT_NAME", "gpt-4o")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3.1", cfg.LLM.Ollama.Model)
	assert.Equal(t, "gpt-4o", cfg.LLM.Azure.Deployment)
}

func TestLoad_PrefixedEnv(t *testing.T) {
	t.Setenv("AGENTLOOP_AGENT_MAX_STEPS", "25")
	t.Setenv("AGENTLOOP_SERVER_ADDR", ":9090")
	t.Setenv("AGENTLOOP_SERVER_REQUEST_TIMEOUT", "45s")
	t.Setenv("AGENTLOOP_AGENT_RECORD_ALL_TOOL_NAMES", "true")
	// the prefixed name wins over the conventional one
	t.Setenv("AGENTLOOP_LLM_PROVIDER", "anthropic")
	t.Setenv("LLM_PROVIDER", "openai")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Agent.MaxSteps)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 45*time.Second, cfg.Server.RequestTimeout)
	assert.True(t, cfg.Agent.RecordAllToolNames)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
}

func TestLoad_MCPEnv(t *testing.T) {
	t.Setenv("AGENTLOOP_TOOLS_SOURCE", "MCP")
	t.Setenv("MCP_SERVER_URL", "http://tools.internal:8001/sse")
	t.Setenv("AGENTLOOP_TOOLS_MCP_CONNECT_TIMEOUT", "3s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mcp", cfg.Tools.Source)
	assert.Equal(t, "http://tools.internal:8001/sse", cfg.Tools.MCP.URL)
	assert.Equal(t, 3*time.Second, cfg.Tools.MCP.ConnectTimeout)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentloop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: mock
  temperature: 0
agent:
  max_steps: 40
  tool_parallelism: 2
quotes:
  source: yahoo
  cache_ttl: 5m
log:
  level: debug
  format: text
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Zero(t, cfg.LLM.Temperature)
	assert.Equal(t, 40, cfg.Agent.MaxSteps)
	assert.Equal(t, 2, cfg.Agent.ToolParallelism)
	assert.Equal(t, "yahoo", cfg.Quotes.Source)
	assert.Equal(t, 5*time.Minute, cfg.Quotes.CacheTTL)
	assert.Equal(t, "text", cfg.Log.Format)
	// untouched keys keep their defaults
	assert.Equal(t, ":8000", cfg.Server.Addr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.LLM.Temperature = 3
	cfg.Agent.MaxSteps = -1
	cfg.Agent.ToolParallelism = 0
	cfg.Quotes.Source = "bloomberg"
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"
	cfg.Tools.Source = "grpc"

	err = cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"llm.temperature", "agent.max_steps", "agent.tool_parallelism", "quotes.source", "tools.source", "log.level", "log.format"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate_MCPRequiresURL(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Tools.Source = "mcp"
	cfg.Tools.MCP.URL = ""
	assert.ErrorContains(t, cfg.Validate(), "tools.mcp.url is required")
}
