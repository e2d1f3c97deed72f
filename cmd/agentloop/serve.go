package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentloop/server"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	var debug bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}

			srv := server.New(a.runner,
				server.WithLogger(log),
				server.WithRequestTimeout(cfg.Server.RequestTimeout),
				server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
				server.WithCORSOrigins(cfg.Server.CORSOrigins...),
				server.WithGatherer(a.registry),
				server.WithCatalog(a.catalogs),
				server.WithDebug(debug),
			)
			return srv.ListenAndServe(cmd.Context(), cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&debug, "debug", false, "gin debug mode")
	return cmd
}
