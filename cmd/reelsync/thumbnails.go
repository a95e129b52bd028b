package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"northpier.systems/reelsync/internal/batch"
	"northpier.systems/reelsync/internal/config"
	"northpier.systems/reelsync/internal/thumbnail"
	"northpier.systems/reelsync/pkg/ffmpeg"
)

func newThumbnailsCommand() *cobra.Command {
	var projectID string
	var dryRun bool
	var force bool

	cmd := &cobra.Command{
		Use:   "thumbnails",
		Short: "Derive preview thumbnails for projects with finished videos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			worker := thumbnail.NewWorker(a.dbc, a.store, thumbnail.NewExtractor(newToolRunner(a.conf)))
			worker.DownloadTimeout = a.conf.DownloadTimeout()
			worker.ExtractTimeout = a.conf.ExtractTimeout()

			runner := batch.NewRunner(a.dbc, slog.Default())
			summary := runner.RunThumbnails(ctx, worker, thumbnail.Options{DryRun: dryRun, Force: force}, projectID)
			return summary.Err()
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "process a single project id")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "extract frames but skip upload and persistence")
	cmd.Flags().BoolVar(&force, "force", false, "regenerate thumbnails that already exist")

	return cmd
}

func newToolRunner(conf *config.Config) *ffmpeg.Runner {
	return &ffmpeg.Runner{
		FFmpegPath:  conf.FFmpegPath,
		FFprobePath: conf.FFprobePath,
	}
}
