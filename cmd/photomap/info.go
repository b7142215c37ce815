package main

import (
	"github.com/spf13/cobra"

	"photomap/internal/api"
	"photomap/internal/config"
)

func newInfoCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show database and view info",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.GetInfo(cmd.Context())
				if err != nil {
					return err
				}

				if *jsonOutput {
					return writeJSON(resp)
				}

				_ = writePlain("db_path: %s\n", resp.DBPath)
				_ = writePlain("schema_version: %d\n", resp.SchemaVersion)
				_ = writePlain("total_images: %d\n", resp.TotalImages)
				_ = writePlain("geotagged_images: %d\n", resp.GeotaggedImages)
				_ = writePlain("projection_revision: %d\n", resp.ProjectionRevision)
				if resp.LocationSource != "" {
					_ = writePlain("location_source: %s\n", resp.LocationSource)
				}
				return nil
			})
		},
	}
	return cmd
}
