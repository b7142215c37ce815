package main

import (
	"github.com/spf13/cobra"

	"photomap/internal/api"
	"photomap/internal/config"
)

func newGalleryCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "gallery",
		Short: "Print the gallery list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Gallery(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				for _, item := range resp.Gallery {
					if err := writePlain("%s\n", item.URI); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newMarkersCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "markers",
		Short: "Print the map markers for geotagged images",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Markers(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				if len(resp.Markers) == 0 {
					return writePlain("No geotagged images.\n")
				}
				return writePlain("%s\n", markerTable(resp.Markers, shouldColorize(stdout)))
			})
		},
	}
}

func newRefreshCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the gallery and markers from the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Refresh(cmd.Context())
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writePlain("revision %d: %d images, %d markers\n", resp.Revision, resp.GalleryCount, resp.MarkerCount)
			})
		},
	}
}
