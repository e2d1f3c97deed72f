package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGraphCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the agent topology as a Mermaid flowchart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := flags.load(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			diagram, err := a.runner.Mermaid()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), diagram)
			return err
		},
	}
}
