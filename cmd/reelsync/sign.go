package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"northpier.systems/reelsync/internal/config"
	"northpier.systems/reelsync/internal/storage"
)

func newSignCommand() *cobra.Command {
	var put bool
	var ttl time.Duration
	var contentType string

	cmd := &cobra.Command{
		Use:   "sign <key>",
		Short: "Mint a presigned URL for an object key",
		Long: `Mint a verb-scoped presigned URL for an object key. Read grants are the
default; --put mints an upload grant bound to the given content type.
Lifetimes beyond seven days are clamped to seven days.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			conf, err := config.LoadConfig(ctx)
			if err != nil {
				return err
			}
			store, err := storage.New(ctx, *conf)
			if err != nil {
				return err
			}

			var signed string
			if put {
				signed, err = store.SignPutURL(ctx, args[0], contentType, ttl)
			} else {
				signed, err = store.SignGetURL(ctx, args[0], ttl)
			}
			if err != nil {
				return err
			}

			fmt.Println(signed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&put, "put", false, "mint an upload grant instead of a read grant")
	cmd.Flags().DurationVar(&ttl, "ttl", storage.MaxSignTTL, "requested lifetime, clamped to the seven day ceiling")
	cmd.Flags().StringVar(&contentType, "content-type", "", "content type a --put grant is bound to")

	return cmd
}
