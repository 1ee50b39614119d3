// Package commands implements the bridgectl subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaborage/bridgekit/app"
	"github.com/gaborage/bridgekit/config"
)

// AppFactory builds the application a command runs against.
type AppFactory func(configFiles []string) (*app.App, error)

// GlobalOptions holds flags shared by every subcommand
type GlobalOptions struct {
	ConfigFiles []string
	Factory     AppFactory
}

// DefaultAppFactory loads the given YAML files plus BRIDGE_ environment overrides.
func DefaultAppFactory(configFiles []string) (*app.App, error) {
	return app.NewWithOptions(&app.Options{
		ConfigLoader: func() (*config.Config, error) {
			return config.Load(config.Options{Files: configFiles})
		},
	})
}

// NewRootCommand assembles the bridgectl command tree.
func NewRootCommand(version string, factory AppFactory) *cobra.Command {
	if factory == nil {
		factory = DefaultAppFactory
	}
	g := &GlobalOptions{Factory: factory}

	rootCmd := &cobra.Command{
		Use:   "bridgectl",
		Short: "Drive the bridgekit REST client and platform services",
		Long: `bridgectl exposes the bridgekit runtime from the command line.

It sends REST calls through the configured client, checks OS permissions,
posts desktop notifications and runs ffmpeg.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringSliceVarP(&g.ConfigFiles, "config", "c", []string{"config.yaml"}, "YAML configuration files, loaded in order")

	rootCmd.AddCommand(
		NewStatusCommand(g),
		NewRequestCommand(g),
		NewNotifyCommand(g),
		NewPermissionsCommand(g),
		NewFFmpegCommand(g),
		NewVersionCommand(version),
	)
	return rootCmd
}

// withApp builds the application, runs fn and shuts the application down.
func withApp(cmd *cobra.Command, g *GlobalOptions, fn func(ctx context.Context, a *app.App) error) (err error) {
	a, err := g.Factory(g.ConfigFiles)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if shutdownErr := a.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			err = errors.Join(err, shutdownErr)
		}
	}()
	return fn(ctx, a)
}

func formatDetails(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	parts := make([]string, 0, len(details))
	for _, k := range slices.Sorted(maps.Keys(details)) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return strings.Join(parts, " ")
}
