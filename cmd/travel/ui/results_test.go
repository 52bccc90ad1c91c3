package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelapp/internal/geo"
	"travelapp/internal/trip"
)

func sampleRecommendation() *trip.Recommendation {
	rating := 4.5
	return &trip.Recommendation{
		Destination:    "Lembang",
		ReturnTripPlan: "oleh-oleh",
		MainRoute: &trip.Directions{Routes: []trip.Route{{
			Summary:          "Jl. Setiabudi",
			Copyrights:       "Map data ©2026",
			Warnings:         []string{"Toll road ahead"},
			OverviewPolyline: trip.Polyline{Points: samplePolyline},
			Legs: []trip.Leg{{
				StartAddress: "Bandung",
				EndAddress:   "Lembang",
				Distance:     trip.TextValue{Text: "16 km", Value: 16000},
				Duration:     trip.TextValue{Text: "40 mins", Value: 2400},
			}},
		}}},
		SuggestedStops: map[string][]trip.Place{
			"kuliner": {{Name: "Warung Sunda", Address: "Jl. Raya", Rating: &rating}},
			"kosong":  nil,
		},
		ReturnTripShop: &trip.ShopResults{Results: []trip.Place{{Name: "Toko Kue"}}},
	}
}

func TestTripMarkdown(t *testing.T) {
	md := TripMarkdown(sampleRecommendation())

	for _, want := range []string{
		"# Trip to Lembang",
		"- **From:** Bandung",
		"- **Distance:** 16 km",
		"- **Via:** Jl. Setiabudi",
		"### kuliner",
		"1. **Warung Sunda**, Jl. Raya (rating 4.5)",
		`## Shop Recommendations for "oleh-oleh"`,
		"1. **Toko Kue**\n",
		"> Toll road ahead",
		"_Map data ©2026_",
	} {
		assert.Contains(t, md, want)
	}
	assert.NotContains(t, md, "kosong")
	assert.NotContains(t, md, "## Your request")
}

func TestTripMarkdown_NoRoute(t *testing.T) {
	assert.Empty(t, TripMarkdown(nil))
	assert.Empty(t, TripMarkdown(&trip.Recommendation{Destination: "Lembang", MainRoute: &trip.Directions{}}))
}

func TestTripMarkdown_FallsBackToInterpretation(t *testing.T) {
	rec := sampleRecommendation()
	rec.Destination = ""
	rec.Interpretation = &trip.Interpretation{Destination: "Tangkuban Perahu", Waypoints: []string{"Lembang"}}

	md := TripMarkdown(rec)
	assert.Contains(t, md, "# Trip to Tangkuban Perahu")
	assert.Contains(t, md, "- **Stops along the way:** Lembang")
}

func TestRouteMap(t *testing.T) {
	out, err := RouteMap(sampleRecommendation(), 20, 8)
	require.NoError(t, err)
	assert.Contains(t, out, "A")
	assert.Contains(t, out, "B")
	assert.LessOrEqual(t, len(strings.Split(out, "\n")), 8)

	_, err = RouteMap(&trip.Recommendation{}, 20, 8)
	assert.ErrorIs(t, err, geo.ErrNoPoints)
}
