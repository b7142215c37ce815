package main

import (
	"github.com/spf13/cobra"

	"photomap/internal/api"
	"photomap/internal/config"
)

func newListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded images in capture order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				images, err := client.ListImages(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(images)
				}
				if plain {
					return writeImageList(images)
				}
				if len(images) == 0 {
					return writePlain("No images recorded.\n")
				}
				return writePlain("%s\n", imageTable(images, shouldColorize(stdout)))
			})
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "one line per image instead of a table")
	return cmd
}
