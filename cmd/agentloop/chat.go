package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentloop/runner"
)

func newChatCmd(flags *rootFlags) *cobra.Command {
	var customer string

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Run one request and print its events as NDJSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := flags.load(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			req := runner.Request{
				Message:    strings.Join(args, " "),
				CustomerID: customer,
			}
			return runner.WriteNDJSON(cmd.OutOrStdout(), a.runner.Stream(cmd.Context(), req))
		},
	}
	cmd.Flags().StringVar(&customer, "customer", runner.DefaultCustomerID, "customer id")
	return cmd
}
