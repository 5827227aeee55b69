// Package heatmap turns a CSV of geocoded samples into a standalone HTML
// page that renders them as a Leaflet heat layer.
package heatmap

import (
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMissingColumns = errors.New("csv must have latitude and longitude columns")
	ErrNoRows         = errors.New("csv has no data rows")
)

// Point is one weighted sample.
type Point struct {
	Lat    float64
	Lon    float64
	Weight float64
}

// Parse reads a CSV whose header names latitude and longitude columns and
// optionally a pollution column used as the weight.  Header names are
// matched case-insensitively; other columns are ignored.  Rows without a
// pollution value get weight 1.
func Parse(r io.Reader) ([]Point, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	lat, lon, weight := -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "latitude":
			lat = i
		case "longitude":
			lon = i
		case "pollution":
			weight = i
		}
	}
	if lat < 0 || lon < 0 {
		return nil, ErrMissingColumns
	}

	var pts []Point
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if blank(rec) {
			continue
		}
		p := Point{Weight: 1}
		if p.Lat, err = field(rec, lat); err != nil {
			return nil, fmt.Errorf("line %d: latitude: %w", line, err)
		}
		if p.Lon, err = field(rec, lon); err != nil {
			return nil, fmt.Errorf("line %d: longitude: %w", line, err)
		}
		if weight >= 0 && weight < len(rec) && strings.TrimSpace(rec[weight]) != "" {
			if p.Weight, err = field(rec, weight); err != nil {
				return nil, fmt.Errorf("line %d: pollution: %w", line, err)
			}
		}
		pts = append(pts, p)
	}
	if len(pts) == 0 {
		return nil, ErrNoRows
	}
	return pts, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func field(rec []string, i int) (float64, error) {
	if i >= len(rec) {
		return 0, errors.New("missing value")
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", rec[i])
	}
	return v, nil
}

// Center returns the mean latitude and longitude of pts.
func Center(pts []Point) (lat, lon float64) {
	if len(pts) == 0 {
		return 0, 0
	}
	for _, p := range pts {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(pts))
	return lat / n, lon / n
}

// ZoomLevel picks an initial zoom from the larger of the latitude and
// longitude spans: tighter clusters get a closer view.
func ZoomLevel(pts []Point) int {
	if len(pts) == 0 {
		return 10
	}
	minLat, maxLat := pts[0].Lat, pts[0].Lat
	minLon, maxLon := pts[0].Lon, pts[0].Lon
	for _, p := range pts[1:] {
		minLat, maxLat = min(minLat, p.Lat), max(maxLat, p.Lat)
		minLon, maxLon = min(minLon, p.Lon), max(maxLon, p.Lon)
	}
	span := max(maxLat-minLat, maxLon-minLon)
	switch {
	case span < 0.02:
		return 15
	case span < 0.05:
		return 14
	case span < 0.1:
		return 13
	case span < 0.2:
		return 12
	case span < 0.5:
		return 11
	}
	return 10
}

var page = template.Must(template.New("heatmap").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Pollution heatmap</title>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<script src="https://unpkg.com/leaflet.heat@0.2.0/dist/leaflet-heat.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView([{{.Lat}}, {{.Lon}}], {{.Zoom}});
L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
  maxZoom: 19,
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
L.heatLayer({{.Points}}).addTo(map);
</script>
</body>
</html>
`))

// Render writes the heatmap page for pts to w.
func Render(w io.Writer, pts []Point) error {
	lat, lon := Center(pts)
	data := make([][3]float64, len(pts))
	for i, p := range pts {
		data[i] = [3]float64{p.Lat, p.Lon, p.Weight}
	}
	return page.Execute(w, struct {
		Lat, Lon float64
		Zoom     int
		Points   [][3]float64
	}{lat, lon, ZoomLevel(pts), data})
}
