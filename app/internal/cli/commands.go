package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"netpulse/app/internal/models"

	"github.com/spf13/cobra"
)

func newStartCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start <ip>...",
		Short: "Start monitoring one or more servers",
		Long: `Validate each address and start polling it on the server's interval.

Examples:
  netpulsectl start 8.8.8.8
  netpulsectl start 8.8.8.8 1.1.1.1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			c := opts.client()

			var failed int
			for _, ip := range args {
				view, err := c.Start(ctx, ip)
				if err != nil {
					failed++
					cmd.PrintErrf("%s %s: %v\n", errorStyle.Render(symbolFail), ip, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s monitoring %s%s\n", successStyle.Render(symbolOK), view.Identifier, locationSuffix(view.Location.City, view.Location.Country))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d server(s) could not be started", failed, len(args))
			}
			return nil
		},
	}
}

func newStopCmd(opts *rootOptions) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "stop [ip]...",
		Short: "Stop monitoring servers",
		Long: `Stop monitoring the given servers, or every server with --all.
Stopping a server that is not monitored is not an error.

Examples:
  netpulsectl stop 8.8.8.8
  netpulsectl stop --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return errors.New("give one or more addresses or --all")
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()
			c := opts.client()

			if all {
				n, err := c.StopAll(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s stopped %d session(s)\n", successStyle.Render(symbolOK), n)
				return nil
			}
			for _, ip := range args {
				if err := c.Stop(ctx, ip); err != nil {
					return fmt.Errorf("stop %s: %w", ip, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s stopped %s\n", successStyle.Render(symbolOK), ip)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "stop every session")
	return cmd
}

func newThresholdCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "threshold <ip> <ms|off>",
		Short: "Set or clear the latency alert threshold",
		Long: `Set the latency threshold in milliseconds above which a sample raises an alert.
Use "off" to clear it. The change applies from the next sample onward.

Examples:
  netpulsectl threshold 8.8.8.8 100
  netpulsectl threshold 8.8.8.8 off`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := parseThreshold(args[1])
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			view, err := opts.client().SetThreshold(ctx, args[0], ms)
			if err != nil {
				return err
			}
			if view.Threshold == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s threshold cleared for %s\n", successStyle.Render(symbolOK), view.Identifier)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s threshold for %s set to %s\n", successStyle.Render(symbolOK), view.Identifier, formatMs(*view.Threshold))
			}
			return nil
		},
	}
}

// parseThreshold accepts a non-negative number of milliseconds or "off"
func parseThreshold(s string) (*float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none", "clear":
		return nil, nil
	}
	ms, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "ms"), 64)
	if err != nil || ms < 0 {
		return nil, fmt.Errorf("invalid threshold %q: want milliseconds >= 0 or off", s)
	}
	return &ms, nil
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status [ip]",
		Short: "Show monitored servers",
		Long: `Show latency statistics, uptime and alert counts for every monitored server,
or for one server when an address is given.

Examples:
  netpulsectl status
  netpulsectl status 8.8.8.8 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()
			c := opts.client()

			var views []models.SessionView
			if len(args) == 1 {
				view, err := c.Session(ctx, args[0])
				if err != nil {
					return err
				}
				views = append(views, view)
			} else {
				var err error
				if views, err = c.Sessions(ctx); err != nil {
					return err
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(views)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSessions(views))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output in JSON format")
	return cmd
}

func newLogsCmd(opts *rootOptions) *cobra.Command {
	var (
		limit      int
		identifier string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the activity journal",
		Long: `Show the newest activity journal entries: sessions started and stopped,
reachability changes and threshold alerts.

Examples:
  netpulsectl logs
  netpulsectl logs --identifier 8.8.8.8 --limit 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			logs, err := opts.client().Logs(ctx, limit, identifier)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderLogs(logs))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "number of entries")
	cmd.Flags().StringVar(&identifier, "identifier", "", "only entries for this server")
	return cmd
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <ip>",
		Short: "Probe a server once without monitoring it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			res, err := opts.client().Check(ctx, args[0])
			if err != nil {
				return err
			}
			if !res.IsUp {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s is down\n", errorStyle.Render(symbolFail), res.Server)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s is up, %s\n", successStyle.Render(symbolOK), res.Server, formatMs(res.Latency))
			return nil
		},
	}
}

func locationSuffix(city, country string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{city, country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
