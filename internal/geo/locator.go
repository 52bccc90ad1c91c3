package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"travelapp/internal/logging"
)

// ErrUnavailable means a locator has no position to offer.
var ErrUnavailable = errors.New("geo: position unavailable")

// Locator resolves the user's current position.
type Locator interface {
	Locate(ctx context.Context) (orb.Point, error)
}

// ParseLatLng parses "lat,lng".
func ParseLatLng(s string) (orb.Point, error) {
	latStr, lngStr, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return orb.Point{}, fmt.Errorf("parse %q: want lat,lng", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("parse latitude %q: %w", latStr, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("parse longitude %q: %w", lngStr, err)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return orb.Point{}, fmt.Errorf("parse %q: out of range", s)
	}
	return orb.Point{lng, lat}, nil
}

// FormatLatLng renders p as "lat,lng".
func FormatLatLng(p orb.Point) string {
	return strconv.FormatFloat(p.Lat(), 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon(), 'f', -1, 64)
}

// StaticLocator always returns the same point.
type StaticLocator struct {
	Point orb.Point
}

func (s StaticLocator) Locate(context.Context) (orb.Point, error) {
	return s.Point, nil
}

// IPLocator asks an IP geolocation service where this machine is.
// It understands both {"lat","lon"} and {"latitude","longitude"} replies.
type IPLocator struct {
	client *resty.Client
	url    string
}

// NewIPLocator builds a locator for the lookup endpoint at url.
func NewIPLocator(url string) *IPLocator {
	return &IPLocator{client: resty.New(), url: url}
}

func (l *IPLocator) Locate(ctx context.Context) (orb.Point, error) {
	if l.url == "" {
		return orb.Point{}, ErrUnavailable
	}
	resp, err := l.client.R().SetContext(ctx).Get(l.url)
	if err != nil {
		return orb.Point{}, fmt.Errorf("ip lookup: %w", err)
	}
	if resp.IsError() {
		return orb.Point{}, fmt.Errorf("ip lookup: %s", resp.Status())
	}

	var body struct {
		Lat       *float64 `json:"lat"`
		Lon       *float64 `json:"lon"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return orb.Point{}, fmt.Errorf("ip lookup: decode: %w", err)
	}
	switch {
	case body.Lat != nil && body.Lon != nil:
		return orb.Point{*body.Lon, *body.Lat}, nil
	case body.Latitude != nil && body.Longitude != nil:
		return orb.Point{*body.Longitude, *body.Latitude}, nil
	}
	return orb.Point{}, fmt.Errorf("ip lookup: %w", ErrUnavailable)
}

// ChainLocator tries each locator in order and returns the first success.
type ChainLocator []Locator

func (c ChainLocator) Locate(ctx context.Context) (orb.Point, error) {
	var errs []error
	for _, l := range c {
		p, err := l.Locate(ctx)
		if err == nil {
			return p, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return orb.Point{}, ErrUnavailable
	}
	return orb.Point{}, errors.Join(errs...)
}

// Fix is the outcome of a bounded position lookup.
type Fix struct {
	Point    orb.Point
	Fallback bool
	// Err is why the fallback was used.
	Err error
}

// Resolve runs loc with a timeout and substitutes fallback on any failure.
func Resolve(ctx context.Context, loc Locator, timeout time.Duration, fallback orb.Point) Fix {
	if loc == nil {
		return Fix{Point: fallback, Fallback: true, Err: ErrUnavailable}
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		p   orb.Point
		err error
	}
	ch := make(chan result, 1)
	go func() {
		p, err := loc.Locate(ctx)
		ch <- result{p, err}
	}()

	var r result
	select {
	case r = <-ch:
	case <-ctx.Done():
		r.err = ctx.Err()
	}
	if r.err != nil {
		logging.For(logging.CategorySearch).Warn("geolocation failed, using fallback",
			zap.Error(r.err), zap.String("fallback", FormatLatLng(fallback)))
		return Fix{Point: fallback, Fallback: true, Err: r.err}
	}
	return Fix{Point: r.p}
}
