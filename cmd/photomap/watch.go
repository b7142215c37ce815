package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"photomap/internal/api"
	"photomap/internal/config"
)

func newWatchCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow gallery and marker updates as images are added",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				err := client.Stream(cmd.Context(), func(ev api.ProjectionEvent) error {
					if *jsonOutput {
						return writeStreamJSON(ev)
					}
					return writePlain("revision %d at %s: %d images, %d markers\n",
						ev.Revision, ev.RefreshedAt, len(ev.Gallery), len(ev.Markers))
				})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
}
