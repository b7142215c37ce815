package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"photomap/internal/api"
	"photomap/internal/config"
)

func newAddCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <uri> [<uri>...]",
		Short: "Record newly captured images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				created := make([]api.ImageResponse, 0, len(args))
				for _, uri := range args {
					resp, err := client.CreateImage(cmd.Context(), uri)
					if err != nil {
						return fmt.Errorf("add %s: %w", uri, err)
					}
					if resp.ViewStale {
						fmt.Fprintf(os.Stderr, "warning: image %d saved but the view could not be refreshed; run: photomap refresh\n", resp.ID)
					}
					created = append(created, resp)
				}

				if *jsonOutput {
					if len(created) == 1 {
						return writeJSON(created[0])
					}
					return writeJSON(created)
				}
				return writeImageList(created)
			})
		},
	}
	return cmd
}
