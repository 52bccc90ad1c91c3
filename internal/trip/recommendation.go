package trip

import (
	"encoding/json"
	"sort"
)

// Recommendation is the response of the trip-planning endpoint.
type Recommendation struct {
	Destination    string             `json:"destination"`
	ReturnTripPlan string             `json:"return_trip_plan,omitempty"`
	MainRoute      *Directions        `json:"main_route,omitempty"`
	Interpretation *Interpretation    `json:"interpretation,omitempty"`
	SuggestedStops map[string][]Place `json:"suggested_stops,omitempty"`
	ReturnTripShop *ShopResults       `json:"return_trip_shop,omitempty"`
}

// Directions mirrors a directions API result.
type Directions struct {
	GeocodedWaypoints []GeocodedWaypoint `json:"geocoded_waypoints,omitempty"`
	Routes            []Route            `json:"routes"`
	Status            string             `json:"status,omitempty"`
}

type GeocodedWaypoint struct {
	GeocoderStatus string   `json:"geocoder_status,omitempty"`
	PlaceID        string   `json:"place_id,omitempty"`
	Types          []string `json:"types,omitempty"`
}

type Route struct {
	Summary          string   `json:"summary,omitempty"`
	Copyrights       string   `json:"copyrights,omitempty"`
	Legs             []Leg    `json:"legs"`
	OverviewPolyline Polyline `json:"overview_polyline"`
	Warnings         []string `json:"warnings,omitempty"`
}

type Polyline struct {
	Points string `json:"points"`
}

type Leg struct {
	Distance      TextValue `json:"distance"`
	Duration      TextValue `json:"duration"`
	StartAddress  string    `json:"start_address,omitempty"`
	EndAddress    string    `json:"end_address,omitempty"`
	StartLocation *LatLng   `json:"start_location,omitempty"`
	EndLocation   *LatLng   `json:"end_location,omitempty"`
	Steps         []Step    `json:"steps,omitempty"`
}

type Step struct {
	Distance         TextValue `json:"distance"`
	Duration         TextValue `json:"duration"`
	HTMLInstructions string    `json:"html_instructions,omitempty"`
}

// TextValue is a display string plus its raw value (meters or seconds).
type TextValue struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Interpretation is the planner's reading of the free-text prompt.
type Interpretation struct {
	Destination    string   `json:"destination,omitempty"`
	Waypoints      []string `json:"waypoints,omitempty"`
	ReturnTripPlan string   `json:"return_trip_plan,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

type ShopResults struct {
	Results []Place `json:"results"`
	Status  string  `json:"status,omitempty"`
}

// Place is a suggested stop or shop. The planner emits place_id or id, and
// address or vicinity, depending on where the place came from.
type Place struct {
	ID      string   `json:"place_id,omitempty"`
	Name    string   `json:"name"`
	Address string   `json:"address,omitempty"`
	Rating  *float64 `json:"rating,omitempty"`
}

func (p *Place) UnmarshalJSON(b []byte) error {
	var raw struct {
		PlaceID  string          `json:"place_id"`
		ID       json.RawMessage `json:"id"`
		Name     string          `json:"name"`
		Address  string          `json:"address"`
		Vicinity string          `json:"vicinity"`
		Rating   *float64        `json:"rating"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	p.ID = raw.PlaceID
	if p.ID == "" && len(raw.ID) > 0 {
		var s string
		if err := json.Unmarshal(raw.ID, &s); err == nil {
			p.ID = s
		} else {
			p.ID = string(raw.ID)
		}
	}
	p.Name = raw.Name
	p.Address = raw.Address
	if p.Address == "" {
		p.Address = raw.Vicinity
	}
	p.Rating = raw.Rating
	return nil
}

// PrimaryRoute returns the first route, or nil when the recommendation has
// no usable route data.
func (r *Recommendation) PrimaryRoute() *Route {
	if r == nil || r.MainRoute == nil || len(r.MainRoute.Routes) == 0 {
		return nil
	}
	return &r.MainRoute.Routes[0]
}

// FirstLeg returns the first leg of the primary route, or nil.
func (r *Recommendation) FirstLeg() *Leg {
	route := r.PrimaryRoute()
	if route == nil || len(route.Legs) == 0 {
		return nil
	}
	return &route.Legs[0]
}

// StopGroups returns the non-empty suggested stop groups in name order.
func (r *Recommendation) StopGroups() []string {
	if r == nil {
		return nil
	}
	groups := make([]string, 0, len(r.SuggestedStops))
	for name, places := range r.SuggestedStops {
		if len(places) > 0 {
			groups = append(groups, name)
		}
	}
	sort.Strings(groups)
	return groups
}

// Shops returns the return-trip shop suggestions, if any.
func (r *Recommendation) Shops() []Place {
	if r == nil || r.ReturnTripShop == nil {
		return nil
	}
	return r.ReturnTripShop.Results
}
