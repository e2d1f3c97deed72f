// Package provider builds the configured model.Model.
package provider

import (
	"errors"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/agentloop/internal/config"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/model/anthropic"
	"github.com/hupe1980/agentloop/model/openai"
)

// Provider names accepted in llm.provider / LLM_PROVIDER.
const (
	AzureOpenAI = "azure_openai"
	OpenAI      = "openai"
	Ollama      = "ollama"
	Anthropic   = "anthropic"
	Mock        = "mock"
)

// Default is used when no provider is configured or the name is unknown.
const Default = AzureOpenAI

// Names lists the supported providers.
func Names() []string {
	return []string{AzureOpenAI, OpenAI, Ollama, Anthropic, Mock}
}

type Options struct {
	Logger logging.Logger
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// New creates the model selected by cfg.Provider. An unknown provider logs a
// warning and falls back to Default.
func New(cfg config.LLMConfig, optFns ...func(o *Options)) (model.Model, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	log := logging.OrNoOp(opts.Logger)

	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if name == "" {
		name = Default
	}
	log.Info("llm.provider.init", "provider", name)

	switch name {
	case AzureOpenAI:
		return newAzure(cfg, log)
	case OpenAI:
		return newOpenAI(cfg, log)
	case Ollama:
		return newOllama(cfg, log)
	case Anthropic:
		return newAnthropic(cfg, log)
	case Mock:
		return model.NewMockModel("mock", Mock), nil
	default:
		log.Warn("llm.provider.unknown", "provider", name, "fallback", Default)
		return newAzure(cfg, log)
	}
}

func newAzure(cfg config.LLMConfig, log logging.Logger) (model.Model, error) {
	az := cfg.Azure
	if az.APIKey == "" || az.Endpoint == "" || az.Deployment == "" {
		return nil, errors.New("azure OpenAI requires: AZURE_OPENAI_API_KEY, AZURE_OPENAI_ENDPOINT, and AZURE_OPENAI_DEPLOYMENT_NAME")
	}
	log.Info("llm.provider.azure", "deployment", az.Deployment, "api_version", az.APIVersion)
	return openai.NewAzureModel(az.Endpoint, az.APIVersion, az.APIKey, az.Deployment, withTemperature(cfg.Temperature)), nil
}

func newOpenAI(cfg config.LLMConfig, log logging.Logger) (model.Model, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, errors.New("OpenAI requires: OPENAI_API_KEY")
	}
	clientOpts := []option.RequestOption{option.WithAPIKey(cfg.OpenAI.APIKey)}
	if cfg.OpenAI.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	client := oai.NewClient(clientOpts...)

	log.Info("llm.provider.openai", "model", cfg.OpenAI.Model)
	return openai.NewModelFromClient(&client, withTemperature(cfg.Temperature), func(o *openai.Options) {
		if cfg.OpenAI.Model != "" {
			o.Model = cfg.OpenAI.Model
		}
	}), nil
}

func newOllama(cfg config.LLMConfig, log logging.Logger) (model.Model, error) {
	log.Info("llm.provider.ollama", "model", cfg.Ollama.Model, "base_url", cfg.Ollama.BaseURL)
	return openai.NewOllamaModel(cfg.Ollama.BaseURL, cfg.Ollama.Model, withTemperature(cfg.Temperature)), nil
}

func newAnthropic(cfg config.LLMConfig, log logging.Logger) (model.Model, error) {
	if cfg.Anthropic.APIKey == "" {
		return nil, errors.New("anthropic requires: ANTHROPIC_API_KEY")
	}
	log.Info("llm.provider.anthropic", "model", cfg.Anthropic.Model)
	return anthropic.NewModel(func(o *anthropic.Options) {
		o.APIKey = cfg.Anthropic.APIKey
		o.Temperature = cfg.Temperature
		if cfg.Anthropic.Model != "" {
			o.Model = anthropicsdk.Model(cfg.Anthropic.Model)
		}
		if cfg.Anthropic.MaxTokens > 0 {
			o.MaxTokens = cfg.Anthropic.MaxTokens
		}
	}), nil
}

func withTemperature(t float64) func(o *openai.Options) {
	return func(o *openai.Options) { o.Temperature = t }
}
