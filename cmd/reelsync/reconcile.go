package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"northpier.systems/reelsync/internal/batch"
	"northpier.systems/reelsync/internal/reconcile"
)

func newReconcileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <project-id>",
		Short: "Align a project's scene rows and config with the rendered objects in the bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			engine := reconcile.NewEngine(a.dbc, a.store, a.store, slog.Default())
			runner := batch.NewRunner(a.dbc, slog.Default())

			summary := runner.RunReconcile(ctx, engine, args[0])
			return summary.Err()
		},
	}
}
