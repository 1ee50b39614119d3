package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaborage/bridgekit/app"
)

// NewStatusCommand creates the status command
func NewStatusCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Run the application health probes",
		Long: `Builds the application from configuration and runs every health probe.

The command fails when a critical probe reports unhealthy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
				return printStatus(cmd, a.Health(ctx))
			})
		},
	}
}

func printStatus(cmd *cobra.Command, statuses []app.HealthStatus) error {
	out := cmd.OutOrStdout()
	var failed []string
	for _, s := range statuses {
		fmt.Fprintf(out, "%-12s %-10s %s\n", s.Name, s.Status, formatDetails(s.Details))
		if s.Err != nil {
			fmt.Fprintf(out, "%-12s error: %v\n", "", s.Err)
		}
		if s.Critical && s.Status == "unhealthy" {
			failed = append(failed, s.Name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("critical checks failed: %s", strings.Join(failed, ", "))
	}
	return nil
}
