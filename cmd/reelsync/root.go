package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "reelsync",
		Short:         "Reconcile rendered project assets and derive thumbnails",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newReconcileCommand(),
		newThumbnailsCommand(),
		newSignCommand(),
	)

	return cmd
}
