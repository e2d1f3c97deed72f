package main

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentloop/internal/config"
	"github.com/hupe1980/agentloop/logging"
)

type rootFlags struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
	provider   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "agentloop",
		Short: "Plan, execute and reflect banking assistant",
		Long: `agentloop answers banking questions with a plan-execute-reflect loop.

Configuration is read from an optional config file and the environment
(AGENTLOOP_* variables, plus the provider variables such as LLM_PROVIDER,
OPENAI_API_KEY or AZURE_OPENAI_ENDPOINT). A .env file is loaded first.

Examples:
  agentloop serve --addr :8000
  agentloop chat "What is my checking balance?" --customer C002
  agentloop graph
  agentloop tools
  agentloop mcp-serve --addr :8001`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "config file (yaml, json or toml)")
	pf.StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before configuration")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "log format: json or text")
	pf.StringVar(&flags.provider, "provider", "", "LLM provider override")

	cmd.AddCommand(
		newServeCmd(flags),
		newChatCmd(flags),
		newGraphCmd(flags),
		newToolsCmd(flags),
		newMCPServeCmd(flags),
	)
	return cmd
}

// load reads the environment and configuration and applies flag overrides.
func (f *rootFlags) load(cmd *cobra.Command) (*config.Config, *logging.StructuredLogger, error) {
	if f.envFile != "" {
		if err := godotenv.Load(f.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, err
		}
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}
	if f.provider != "" {
		cfg.LLM.Provider = strings.ToLower(f.provider)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	log := logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	return cfg, log, nil
}
