// Command igpctl runs the seismic ETL operations from a terminal: a one-shot
// ingest or list against the configured table, or an offline normalization of
// a saved ArcGIS response.
//
// Configuration is read from the same environment variables as the service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "igpctl <command>",
		Short:         "Operator CLI for the IGP seismic event ETL",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddGroup(
		&cobra.Group{ID: "store", Title: "Store Commands:"},
		&cobra.Group{ID: "offline", Title: "Offline Commands:"},
	)
	root.AddCommand(newIngestCmd(), newListCmd(), newNormalizeCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
