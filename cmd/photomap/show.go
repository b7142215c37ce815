package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"photomap/internal/api"
	"photomap/internal/config"
)

func newShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one image record",
		Args:  requireImageID,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := parseImageID(args[0])
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.GetImage(cmd.Context(), id)
				if api.IsNotFound(err) {
					return fmt.Errorf("image %d does not exist: %w", id, err)
				}
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writeImageDetail(resp)
			})
		},
	}

	return cmd
}

func requireImageID(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one image id")
	}
	_, err := parseImageID(args[0])
	return err
}

func parseImageID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid image id %q (want a positive integer)", raw)
	}
	return id, nil
}
