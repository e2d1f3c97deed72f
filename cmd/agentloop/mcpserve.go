package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentloop/mcp"
)

func newMCPServeCmd(flags *rootFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "mcp-serve",
		Short: "Serve the banking tools over MCP (HTTP+SSE)",
		Long: `mcp-serve publishes the in-process banking tools as an MCP server.

Agents started with tools.source=mcp (AGENTLOOP_TOOLS_SOURCE=mcp) discover
them at tools.mcp.url, by default http://localhost:8001/sse.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Tools.MCP.Addr = addr
			}
			catalog, err := newBankCatalog(cfg, log)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(catalog, func(o *mcp.ServerOptions) {
				o.Logger = log
				o.ShutdownTimeout = cfg.Server.ShutdownTimeout
			})
			return srv.ListenAndServe(cmd.Context(), cfg.Tools.MCP.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides tools.mcp.addr)")
	return cmd
}
