// Package geo decodes route geometry and renders it on a character canvas,
// and resolves the user's position.
package geo

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-polyline"
)

// ErrNoPoints is returned when there is no geometry to work with.
var ErrNoPoints = errors.New("geo: no points")

// DecodePolyline decodes an encoded polyline into points. Trailing bytes the
// decoder could not consume are an error.
func DecodePolyline(encoded string) (orb.LineString, error) {
	if encoded == "" {
		return nil, ErrNoPoints
	}
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("decode polyline: %d trailing bytes", len(rest))
	}

	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		// polyline coordinates are lat,lng; orb points are lng,lat.
		ls = append(ls, orb.Point{c[1], c[0]})
	}
	return ls, nil
}

// Fit returns the smallest bound containing every point.
func Fit(points ...orb.Point) (orb.Bound, error) {
	if len(points) == 0 {
		return orb.Bound{}, ErrNoPoints
	}
	return orb.LineString(points).Bound(), nil
}
