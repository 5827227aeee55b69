package heatmap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	in := "Latitude, longitude,pollution,note\n42.40,-76.50,3.5,a\n42.42,-76.52,,b\n\n"
	pts, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, Point{Lat: 42.40, Lon: -76.50, Weight: 3.5}, pts[0])
	assert.Equal(t, 1.0, pts[1].Weight, "missing pollution defaults to 1")
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(strings.NewReader("lat,lon\n1,2\n"))
	assert.ErrorIs(t, err, ErrMissingColumns)

	_, err = Parse(strings.NewReader("latitude,longitude\n"))
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = Parse(strings.NewReader("latitude,longitude\nnorth,2\n"))
	assert.ErrorContains(t, err, "line 2: latitude")

	_, err = Parse(strings.NewReader("latitude,longitude,pollution\n1,2,3\nNaN,Inf,1\n"))
	assert.ErrorContains(t, err, "line 3: latitude")
	_, err = Parse(strings.NewReader("latitude,longitude\n1,+Inf\n"))
	assert.ErrorContains(t, err, "line 2: longitude")
	_, err = Parse(strings.NewReader("latitude,longitude,pollution\n1,2,-inf\n"))
	assert.ErrorContains(t, err, "line 2: pollution")
}

func TestZoomLevel(t *testing.T) {
	cases := []struct {
		span float64
		want int
	}{
		{0.01, 15}, {0.03, 14}, {0.07, 13}, {0.15, 12}, {0.3, 11}, {0.5, 10}, {2, 10},
	}
	for _, tc := range cases {
		pts := []Point{{Lat: 10, Lon: 20}, {Lat: 10 + tc.span/2, Lon: 20 + tc.span}}
		assert.Equal(t, tc.want, ZoomLevel(pts), "span %v", tc.span)
	}
	assert.Equal(t, 15, ZoomLevel([]Point{{Lat: 1, Lon: 1}}))
}

func TestCenter(t *testing.T) {
	lat, lon := Center([]Point{{Lat: 1, Lon: 10}, {Lat: 3, Lon: 20}})
	assert.InDelta(t, 2.0, lat, 1e-9)
	assert.InDelta(t, 15.0, lon, 1e-9)
}

func TestRender(t *testing.T) {
	var b strings.Builder
	require.NoError(t, Render(&b, []Point{{Lat: 1, Lon: 10, Weight: 2}, {Lat: 1.01, Lon: 10.01, Weight: 1}}))
	out := b.String()
	assert.Contains(t, out, "leaflet-heat.js")
	assert.Contains(t, out, "L.heatLayer([[1,10,2],[1.01,10.01,1]])")
	assert.Regexp(t, `setView\(\[\s*1\.00\d*\s*,\s*10\.00\d*\s*\],\s*15\s*\)`, out)
}
