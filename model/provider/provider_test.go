package provider

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloop/internal/config"
	"github.com/hupe1980/agentloop/model"
)

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Error(string, ...any) {}
func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func azureConfig() config.LLMConfig {
	return config.LLMConfig{
		Provider:    AzureOpenAI,
		Temperature: 0.8,
		Azure: config.AzureConfig{
			APIKey:     "key",
			Endpoint:   "https://example.openai.azure.com",
			Deployment: "gpt-4o",
			APIVersion: "2024-02-15-preview",
		},
	}
}

func TestNew_Providers(t *testing.T) {
	tests := []struct {
		name         string
		cfg          config.LLMConfig
		wantProvider string
		wantModel    string
	}{
		{"azure", azureConfig(), "azure_openai", "gpt-4o"},
		{"default is azure", func() config.LLMConfig { c := azureConfig(); c.Provider = ""; return c }(), "azure_openai", "gpt-4o"},
		{"openai", config.LLMConfig{Provider: "OpenAI", OpenAI: config.OpenAIConfig{APIKey: "sk", Model: "gpt-4o-mini"}}, "openai", "gpt-4o-mini"},
		{"ollama", config.LLMConfig{Provider: "ollama", Ollama: config.OllamaConfig{BaseURL: "http://localhost:11434", Model: "llama2"}}, "ollama", "llama2"},
		{"anthropic", config.LLMConfig{Provider: "anthropic", Anthropic: config.AnthropicConfig{APIKey: "k", Model: "claude-3-5-haiku-latest"}}, "anthropic", "claude-3-5-haiku-latest"},
		{"mock", config.LLMConfig{Provider: "mock"}, "mock", "mock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.cfg)
			require.NoError(t, err)
			info := m.Info()
			assert.Equal(t, tt.wantProvider, info.Provider)
			assert.Equal(t, tt.wantModel, info.Name)
		})
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{AzureOpenAI, "AZURE_OPENAI_DEPLOYMENT_NAME"},
		{OpenAI, "OPENAI_API_KEY"},
		{Anthropic, "ANTHROPIC_API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			_, err := New(config.LLMConfig{Provider: tt.provider})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNew_UnknownFallsBack(t *testing.T) {
	log := &recordingLogger{}
	cfg := azureConfig()
	cfg.Provider = "gemini"

	m, err := New(cfg, WithLogger(log))
	require.NoError(t, err)
	assert.Equal(t, "azure_openai", m.Info().Provider)
	assert.Equal(t, []string{"llm.provider.unknown"}, log.warns)
}

func TestNew_MockIsScripted(t *testing.T) {
	m, err := New(config.LLMConfig{Provider: Mock})
	require.NoError(t, err)
	_, ok := m.(*model.MockModel)
	assert.True(t, ok)
}
