package commands

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/gaborage/bridgekit/app"
	"github.com/gaborage/bridgekit/permissions"
)

// NewPermissionsCommand creates the permissions command and its check and request subcommands
func NewPermissionsCommand(g *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "Check or request OS permissions",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "check <permission>...",
			Short:   "Report whether permissions are granted",
			Example: "  bridgectl permissions check camera microphone",
			Args:    cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ps, err := parsePermissions(args)
				if err != nil {
					return err
				}
				return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
					granted, err := a.Permissions().CheckAll(ctx, ps...)
					if err != nil {
						return err
					}
					printGrants(cmd.OutOrStdout(), granted)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "request <permission>...",
			Short: "Ask the OS to grant permissions",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ps, err := parsePermissions(args)
				if err != nil {
					return err
				}
				return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
					// Requests may open OS prompts, so they run one at a time.
					granted := make(map[permissions.Permission]bool, len(ps))
					for _, p := range ps {
						ok, err := a.Permissions().Request(ctx, p)
						if err != nil {
							return err
						}
						granted[p] = ok
					}
					printGrants(cmd.OutOrStdout(), granted)
					return nil
				})
			},
		},
	)
	return cmd
}

func parsePermissions(names []string) ([]permissions.Permission, error) {
	out := make([]permissions.Permission, 0, len(names))
	for _, name := range names {
		p, err := permissions.Parse(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func printGrants(w io.Writer, granted map[permissions.Permission]bool) {
	for _, p := range slices.Sorted(maps.Keys(granted)) {
		state := "denied"
		if granted[p] {
			state = "granted"
		}
		fmt.Fprintf(w, "%-18s %s\n", p, state)
	}
}
