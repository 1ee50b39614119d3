package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gaborage/bridgekit/app"
)

// NewFFmpegCommand creates the ffmpeg command and its version and run subcommands
func NewFFmpegCommand(g *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ffmpeg",
		Short: "Run the configured ffmpeg binary",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print the ffmpeg version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
					v, err := a.FFmpeg().Version(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "ffmpeg %s\n", v)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:     "run -- <ffmpeg args>...",
			Short:   "Run ffmpeg with the given arguments",
			Example: "  bridgectl ffmpeg run -- -i in.mov -c:v libx264 out.mp4",
			Args:    cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
					res, err := a.FFmpeg().Run(ctx, args...)
					if err != nil {
						return err
					}
					_, _ = cmd.OutOrStdout().Write(res.Stdout)
					_, _ = cmd.ErrOrStderr().Write(res.Stderr)
					fmt.Fprintf(cmd.ErrOrStderr(), "run %s finished in %s\n", res.RunID, res.Duration)
					return nil
				})
			},
		},
	)
	return cmd
}
