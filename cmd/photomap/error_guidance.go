package main

import (
	"context"
	"errors"
	"net"

	"photomap/internal/api"
	"photomap/internal/store"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "resource_exhausted":
			lines = append(lines, "hint: retry shortly or reduce concurrent ingest and watch clients.")
		case "write_failed":
			lines = append(lines, "hint: the image was not recorded; check free disk space and permissions on PHOTOMAP_DB.")
		case "read_failed":
			lines = append(lines, "hint: the store could not be read; run: photomap refresh once the database is reachable.")
		case "storage_unavailable":
			lines = append(lines, "hint: the server could not open its database; check PHOTOMAP_DB and server logs.")
		}
		if apiErr.Temporary() {
			lines = append(lines, "hint: this failure is usually transient; retry the command.")
		}
		if apiErr.Code == "" {
			lines = append(lines, "hint: verify PHOTOMAP_API_URL points to a photomap server.")
		}
		if apiErr.Status >= 500 {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, store.ErrStorageUnavailable) {
		lines = append(lines, "hint: stop any running photomap server using this database, or point PHOTOMAP_DB elsewhere.")
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase PHOTOMAP_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a photomap server is running at PHOTOMAP_API_URL.",
			"hint: start local server manually with: photomap srv",
			"hint: you can increase PHOTOMAP_HTTP_TIMEOUT for slower environments.",
		)
		return uniqueLines(lines)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
