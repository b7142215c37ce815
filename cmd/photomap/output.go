package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"photomap/internal/api"
	"photomap/internal/format"
	"photomap/internal/view"
)

var (
	outputFormatter format.Formatter = format.JSONFormatter{Indent: "  "}
	streamFormatter format.Formatter = format.JSONFormatter{}
)

var stdout io.Writer = os.Stdout

func writeJSON(payload any) error {
	return outputFormatter.Write(stdout, payload)
}

// writeStreamJSON emits one compact line per event.
func writeStreamJSON(payload any) error {
	return streamFormatter.Write(stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(stdout, format, args...)
	return err
}

func writeImageList(images []api.ImageResponse) error {
	for _, image := range images {
		if err := writePlain("%s\n", formatImageLine(image)); err != nil {
			return err
		}
	}
	return nil
}

func writeImageDetail(image api.ImageResponse) error {
	lines := []string{
		fmt.Sprintf("id: %d", image.ID),
		fmt.Sprintf("uri: %s", image.URI),
		fmt.Sprintf("timestamp: %s", image.Timestamp),
	}
	if image.Latitude != nil && image.Longitude != nil {
		lines = append(lines,
			fmt.Sprintf("latitude: %s", formatCoordinate(*image.Latitude)),
			fmt.Sprintf("longitude: %s", formatCoordinate(*image.Longitude)),
		)
	} else {
		lines = append(lines, "location: none")
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func formatImageLine(image api.ImageResponse) string {
	return fmt.Sprintf("#%d %s %s %s", image.ID, image.Timestamp, formatLocation(image.Latitude, image.Longitude), image.URI)
}

func formatLocation(lat, lon *float64) string {
	if lat == nil || lon == nil {
		return "(no location)"
	}
	return fmt.Sprintf("(%s, %s)", formatCoordinate(*lat), formatCoordinate(*lon))
}

func formatCoordinate(value float64) string {
	return strconv.FormatFloat(value, 'f', 6, 64)
}

func imageTable(images []api.ImageResponse, colorize bool) string {
	rows := make([][]string, 0, len(images))
	for _, image := range images {
		lat, lon := "", ""
		if image.Latitude != nil && image.Longitude != nil {
			lat = formatCoordinate(*image.Latitude)
			lon = formatCoordinate(*image.Longitude)
		}
		rows = append(rows, []string{strconv.FormatInt(image.ID, 10), image.Timestamp, lat, lon, image.URI})
	}
	return renderTable(
		[]string{"ID", "Captured", "Latitude", "Longitude", "URI"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft},
		colorize,
	)
}

func markerTable(markers []view.Marker, colorize bool) string {
	rows := make([][]string, 0, len(markers))
	for _, m := range markers {
		rows = append(rows, []string{
			strconv.FormatInt(m.ID, 10),
			formatCoordinate(m.Latitude),
			formatCoordinate(m.Longitude),
			m.URI,
		})
	}
	return renderTable(
		[]string{"ID", "Latitude", "Longitude", "URI"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
		colorize,
	)
}
