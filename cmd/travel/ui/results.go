package ui

import (
	"fmt"
	"strings"

	"travelapp/internal/geo"
	"travelapp/internal/trip"
)

const (
	MsgTripLoading   = "Loading your trip..."
	MsgNoTripData    = "No recommendation data available."
	MsgNewSearchHint = "Press esc to start a new search."
	shopTitleFmt     = "Shop Recommendations for %q"
)

// TripMarkdown renders a recommendation as markdown. Sections without data
// are left out. It returns "" when the recommendation has no usable route.
func TripMarkdown(rec *trip.Recommendation) string {
	route := rec.PrimaryRoute()
	if route == nil {
		return ""
	}

	var b strings.Builder
	title := rec.Destination
	if title == "" && rec.Interpretation != nil {
		title = rec.Interpretation.Destination
	}
	if title != "" {
		fmt.Fprintf(&b, "# Trip to %s\n\n", title)
	} else {
		b.WriteString("# Your trip\n\n")
	}

	if leg := rec.FirstLeg(); leg != nil {
		b.WriteString("## Route\n\n")
		bullet(&b, "From", leg.StartAddress)
		bullet(&b, "To", leg.EndAddress)
		bullet(&b, "Distance", leg.Distance.Text)
		bullet(&b, "Duration", leg.Duration.Text)
		bullet(&b, "Via", route.Summary)
		b.WriteString("\n")
	}

	if in := rec.Interpretation; in != nil && (in.Destination != "" || len(in.Waypoints) > 0 || in.Notes != "") {
		b.WriteString("## Your request\n\n")
		bullet(&b, "Destination", in.Destination)
		bullet(&b, "Stops along the way", strings.Join(in.Waypoints, ", "))
		if in.Notes != "" {
			b.WriteString("\n" + in.Notes + "\n")
		}
		b.WriteString("\n")
	}

	if groups := rec.StopGroups(); len(groups) > 0 {
		b.WriteString("## Suggested stops\n\n")
		for _, g := range groups {
			fmt.Fprintf(&b, "### %s\n\n", g)
			places(&b, rec.SuggestedStops[g])
		}
	}

	if shops := rec.Shops(); len(shops) > 0 {
		plan := rec.ReturnTripPlan
		if plan == "" && rec.Interpretation != nil {
			plan = rec.Interpretation.ReturnTripPlan
		}
		fmt.Fprintf(&b, "## "+shopTitleFmt+"\n\n", plan)
		places(&b, shops)
	}

	for _, w := range route.Warnings {
		fmt.Fprintf(&b, "> %s\n", w)
	}
	if route.Copyrights != "" {
		fmt.Fprintf(&b, "\n_%s_\n", route.Copyrights)
	}
	return b.String()
}

func bullet(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "- **%s:** %s\n", label, value)
}

func places(b *strings.Builder, ps []trip.Place) {
	for i, p := range ps {
		fmt.Fprintf(b, "%d. **%s**", i+1, p.Name)
		if p.Address != "" {
			fmt.Fprintf(b, ", %s", p.Address)
		}
		if p.Rating != nil {
			fmt.Fprintf(b, " (rating %.1f)", *p.Rating)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// RouteMap draws the overview polyline of the primary route on a width x
// height canvas.
func RouteMap(rec *trip.Recommendation, width, height int) (string, error) {
	route := rec.PrimaryRoute()
	if route == nil {
		return "", geo.ErrNoPoints
	}
	c, _, err := geo.RenderRoute(route.OverviewPolyline.Points, width, height)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}
