package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hupe1980/agentloop/agent"
	"github.com/hupe1980/agentloop/bank"
	"github.com/hupe1980/agentloop/internal/config"
	"github.com/hupe1980/agentloop/internal/metrics"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/mcp"
	"github.com/hupe1980/agentloop/model/provider"
	"github.com/hupe1980/agentloop/runner"
	"github.com/hupe1980/agentloop/tool"
)

// app is the wired object graph shared by the subcommands.
type app struct {
	cfg      *config.Config
	log      *logging.StructuredLogger
	registry *prometheus.Registry
	catalogs runner.CatalogSource
	runner   *runner.Runner
}

func newApp(cfg *config.Config, log *logging.StructuredLogger) (*app, error) {
	llm, err := provider.New(cfg.LLM, provider.WithLogger(log.WithComponent("provider")))
	if err != nil {
		return nil, err
	}

	catalogs, err := newCatalogSource(cfg, log)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.MustNew(registry)

	r, err := runner.New(llm, catalogs,
		runner.WithLogger(log),
		runner.WithMaxConcurrentRuns(cfg.Agent.MaxConcurrentRuns),
		runner.WithObserver(m),
		runner.WithAgentOptions(
			agent.WithMaxSteps(cfg.Agent.MaxSteps),
			agent.WithToolParallelism(cfg.Agent.ToolParallelism),
			agent.WithRecordAllToolNames(cfg.Agent.RecordAllToolNames),
			agent.WithObserver(m),
			agent.WithToolObserver(m),
		),
	)
	if err != nil {
		return nil, err
	}

	log.Info("app.ready",
		"provider", llm.Info().Provider,
		"model", llm.Info().Name,
		"tools", cfg.Tools.Source,
		"quotes", cfg.Quotes.Source,
	)
	return &app{cfg: cfg, log: log, registry: registry, catalogs: catalogs, runner: r}, nil
}

// newCatalogSource serves the in-process banking tools or discovers tools
// from an MCP server once per run.
func newCatalogSource(cfg *config.Config, log *logging.StructuredLogger) (runner.CatalogSource, error) {
	switch cfg.Tools.Source {
	case "", "local":
		catalog, err := newBankCatalog(cfg, log)
		if err != nil {
			return nil, err
		}
		return runner.StaticCatalog(catalog), nil
	case "mcp":
		src := mcp.NewSource(cfg.Tools.MCP.URL, func(o *mcp.SourceOptions) {
			o.ConnectTimeout = cfg.Tools.MCP.ConnectTimeout
			o.Logger = log
		})
		return src.Catalog, nil
	default:
		return nil, fmt.Errorf("unknown tools source %q", cfg.Tools.Source)
	}
}

func newBankCatalog(cfg *config.Config, log *logging.StructuredLogger) (*tool.Catalog, error) {
	quotes, err := newQuoteSource(cfg.Quotes)
	if err != nil {
		return nil, err
	}
	return bank.NewCatalog(bank.NewStore(), quotes,
		bank.WithLogger(log.WithComponent("bank")),
		bank.WithQuoteParallelism(cfg.Agent.ToolParallelism),
	)
}

func newQuoteSource(cfg config.QuotesConfig) (bank.QuoteSource, error) {
	switch cfg.Source {
	case "", "static":
		return bank.NewStaticQuotes(), nil
	case "yahoo":
		yahoo := bank.NewYahooQuotes(func(o *bank.YahooOptions) {
			if cfg.YahooBaseURL != "" {
				o.BaseURL = cfg.YahooBaseURL
			}
		})
		return bank.NewCachedQuotes(yahoo, cfg.CacheSize, cfg.CacheTTL), nil
	default:
		return nil, fmt.Errorf("unknown quote source %q", cfg.Source)
	}
}
