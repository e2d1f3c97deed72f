// Command agentloop runs the banking assistant as an HTTP server streaming
// NDJSON events or as a one-shot chat from the terminal. mcp-serve publishes
// the banking tools to agents configured with tools.source=mcp.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
