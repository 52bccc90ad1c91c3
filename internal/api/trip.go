package api

import (
	"context"
	"net/http"

	"travelapp/internal/trip"
)

type planRequest struct {
	Query  string `json:"query"`
	Origin string `json:"origin"`
}

// PlanTrip asks the planner for a recommendation. origin is "lat,lng".
func (c *Client) PlanTrip(ctx context.Context, query, origin string) (*trip.Recommendation, error) {
	var out trip.Recommendation
	if err := c.do(ctx, http.MethodPost, "/plan-trip", planRequest{Query: query, Origin: origin}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
