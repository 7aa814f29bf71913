package geo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"civic311-be/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubBoundaries struct {
	boundary *models.GeoBoundary
	err      error
}

func (s stubBoundaries) LatestBoundary(context.Context) (*models.GeoBoundary, error) {
	return s.boundary, s.err
}

const square = `{"type":"Polygon","coordinates":[[[-74.0,40.0],[-73.0,40.0],[-73.0,41.0],[-74.0,41.0],[-74.0,40.0]]]}`

func f(v float64) *float64 { return &v }

func checker(src BoundarySource) *Checker {
	return NewChecker(src, zap.NewNop())
}

func TestAdmitWithoutCoordinates(t *testing.T) {
	c := checker(stubBoundaries{boundary: &models.GeoBoundary{GeoJSON: square}})
	assert.True(t, c.Admit(context.Background(), nil, nil))
	assert.True(t, c.Admit(context.Background(), f(10), nil))
	assert.True(t, c.Admit(context.Background(), nil, f(10)))
}

func TestAdmitWithoutBoundary(t *testing.T) {
	c := checker(stubBoundaries{err: fmt.Errorf("%w: geo boundary", models.ErrNotFound)})
	assert.True(t, c.Admit(context.Background(), f(0), f(0)))
}

func TestAdmitContainment(t *testing.T) {
	c := checker(stubBoundaries{boundary: &models.GeoBoundary{ID: 1, GeoJSON: square}})
	assert.True(t, c.Admit(context.Background(), f(40.5), f(-73.5)))
	assert.False(t, c.Admit(context.Background(), f(10), f(10)))
	// latitude and longitude must not be swapped
	assert.False(t, c.Admit(context.Background(), f(-73.5), f(40.5)))
}

func TestAdmitFailsOpen(t *testing.T) {
	tests := map[string]stubBoundaries{
		"store error":      {err: errors.New("connection reset")},
		"invalid json":     {boundary: &models.GeoBoundary{GeoJSON: "{not json"}},
		"point geometry":   {boundary: &models.GeoBoundary{GeoJSON: `{"type":"Point","coordinates":[1,2]}`}},
		"empty collection": {boundary: &models.GeoBoundary{GeoJSON: `{"type":"FeatureCollection","features":[]}`}},
		"ringless polygon": {boundary: &models.GeoBoundary{GeoJSON: `{"type":"Polygon","coordinates":[]}`}},
		"empty multi":      {boundary: &models.GeoBoundary{GeoJSON: `{"type":"MultiPolygon","coordinates":[[]]}`}},
		"short ring":       {boundary: &models.GeoBoundary{GeoJSON: `{"type":"Polygon","coordinates":[[[0,0],[1,1],[0,0]]]}`}},
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			assert.True(t, checker(src).Admit(context.Background(), f(10), f(10)))
		})
	}
}

func TestDecodeAreaShapes(t *testing.T) {
	feature := `{"type":"Feature","properties":{"name":"City"},"geometry":` + square + `}`
	collection := `{"type":"FeatureCollection","features":[` + feature + `]}`
	multi := `{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,1],[0,0]]],[[[-74.0,40.0],[-73.0,40.0],[-73.0,41.0],[-74.0,41.0],[-74.0,40.0]]]]}`

	for name, raw := range map[string]string{"polygon": square, "feature": feature, "collection": collection, "multipolygon": multi} {
		t.Run(name, func(t *testing.T) {
			area, err := DecodeArea(raw)
			require.NoError(t, err)
			assert.NotEmpty(t, area)
		})
	}

	area, err := DecodeArea(multi)
	require.NoError(t, err)
	assert.Len(t, area, 2)
}

func TestDecodeAreaRejectsDegeneratePolygons(t *testing.T) {
	for name, raw := range map[string]string{
		"no rings":       `{"type":"Polygon","coordinates":[]}`,
		"empty polygon":  `{"type":"MultiPolygon","coordinates":[[]]}`,
		"empty ring":     `{"type":"Polygon","coordinates":[[]]}`,
		"three position": `{"type":"Polygon","coordinates":[[[0,0],[1,0],[0,0]]]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeArea(raw)
			assert.Error(t, err)
		})
	}
}
