// Package geo decides whether a submitted location lies inside the active
// jurisdiction boundary.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"civic311-be/metrics"
	"civic311-be/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"
)

// BoundarySource yields the active boundary, or models.ErrNotFound.
type BoundarySource interface {
	LatestBoundary(ctx context.Context) (*models.GeoBoundary, error)
}

type Checker struct {
	boundaries BoundarySource
	logger     *zap.Logger
}

func NewChecker(boundaries BoundarySource, logger *zap.Logger) *Checker {
	return &Checker{boundaries: boundaries, logger: logger.Named("geofence")}
}

// Admit reports whether (lat, lon) may be submitted. Missing coordinates, a
// missing boundary and any lookup or decode failure all admit.
func (c *Checker) Admit(ctx context.Context, lat, lon *float64) bool {
	if lat == nil || lon == nil {
		return true
	}

	boundary, err := c.boundaries.LatestBoundary(ctx)
	if errors.Is(err, models.ErrNotFound) {
		return true
	}
	if err != nil {
		c.failOpen("boundary lookup failed", err)
		return true
	}

	area, err := DecodeArea(boundary.GeoJSON)
	if err != nil {
		c.failOpen("boundary geometry unusable", err, zap.Int64("boundary_id", boundary.ID))
		return true
	}

	inside := Contains(area, orb.Point{*lon, *lat})
	if inside {
		metrics.GeofenceDecisions.WithLabelValues("admit").Inc()
	} else {
		metrics.GeofenceDecisions.WithLabelValues("reject").Inc()
	}
	return inside
}

func (c *Checker) failOpen(msg string, err error, fields ...zap.Field) {
	metrics.GeofenceDecisions.WithLabelValues("fail_open").Inc()
	c.logger.Warn(msg+", admitting", append(fields, zap.Error(err))...)
}

// DecodeArea parses a Polygon, MultiPolygon, Feature or FeatureCollection
// into one MultiPolygon. Any other geometry is an error.
func DecodeArea(raw string) (orb.MultiPolygon, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(raw), &head); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	var geoms []orb.Geometry
	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("decode feature collection: %w", err)
		}
		for _, f := range fc.Features {
			geoms = append(geoms, f.Geometry)
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("decode feature: %w", err)
		}
		geoms = append(geoms, f.Geometry)
	default:
		g, err := geojson.UnmarshalGeometry([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("decode geometry: %w", err)
		}
		geoms = append(geoms, g.Geometry())
	}

	var area orb.MultiPolygon
	for _, g := range geoms {
		switch g := g.(type) {
		case orb.Polygon:
			area = append(area, g)
		case orb.MultiPolygon:
			area = append(area, g...)
		default:
			return nil, fmt.Errorf("unsupported boundary geometry %T", g)
		}
	}
	if len(area) == 0 {
		return nil, errors.New("boundary has no polygons")
	}
	for i, poly := range area {
		if len(poly) == 0 {
			return nil, fmt.Errorf("polygon %d has no rings", i)
		}
		for j, ring := range poly {
			if len(ring) < 4 {
				return nil, fmt.Errorf("polygon %d ring %d needs at least 4 positions, got %d", i, j, len(ring))
			}
		}
	}
	return area, nil
}

// Contains is a planar point-in-polygon test; p is (lon, lat).
func Contains(area orb.MultiPolygon, p orb.Point) bool {
	return planar.MultiPolygonContains(area, p)
}
