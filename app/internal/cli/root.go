// Package cli implements netpulsectl, the command-line client for a running netpulse server.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"netpulse/app/internal/apiclient"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time
var version = "dev"

type rootOptions struct {
	server  string
	timeout time.Duration
}

// NewRootCmd builds the netpulsectl command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "netpulsectl",
		Short: "Control a netpulse latency monitor",
		Long: `netpulsectl starts and stops monitoring sessions, sets latency alert
thresholds and shows live status of a running netpulse server.

The server address comes from --server or the NETPULSE_URL environment variable.

Examples:
  netpulsectl start 8.8.8.8 1.1.1.1
  netpulsectl threshold 8.8.8.8 100
  netpulsectl status`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultServer := os.Getenv("NETPULSE_URL")
	if defaultServer == "" {
		defaultServer = apiclient.DefaultBaseURL
	}
	root.PersistentFlags().StringVar(&opts.server, "server", defaultServer, "netpulse server URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "request timeout")

	root.AddCommand(
		newStartCmd(opts),
		newStopCmd(opts),
		newThresholdCmd(opts),
		newStatusCmd(opts),
		newLogsCmd(opts),
		newCheckCmd(opts),
	)
	return root
}

func (o *rootOptions) client() *apiclient.Client {
	return apiclient.New(o.server, nil)
}

func (o *rootOptions) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}

// Execute runs the CLI and exits non-zero on failure
func Execute() {
	root := NewRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}
