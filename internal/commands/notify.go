package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gaborage/bridgekit/app"
	"github.com/gaborage/bridgekit/notification"
)

// NewNotifyCommand creates the notify command
func NewNotifyCommand(g *GlobalOptions) *cobra.Command {
	n := &notification.Notification{}

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Post a desktop notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
				if err := a.Notifications().Notify(ctx, *n); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "notification sent")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&n.Title, "title", "t", "", "Notification title")
	cmd.Flags().StringVarP(&n.Body, "body", "b", "", "Notification body")
	cmd.Flags().StringVar(&n.Icon, "icon", "", "Icon path, overriding configuration")
	cmd.Flags().BoolVar(&n.Urgent, "urgent", false, "Play the alert sound")

	return cmd
}
