package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ID accepts either a JSON string or number and keeps its text form.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

func (id ID) String() string { return string(id) }

// Marker is a point of interest managed by admins. Fields the client does
// not know about are kept so an update sends back the server's full record.
type Marker struct {
	ID          ID       `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Kategori    string   `json:"kategori,omitempty"`
	CategoryID  ID       `json:"category_id,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`

	raw map[string]json.RawMessage
}

type markerFields Marker

func (m *Marker) UnmarshalJSON(b []byte) error {
	var f markerFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*m = Marker(f)
	m.raw = raw
	return nil
}

// MarshalJSON writes the record as received, with the known fields replaced
// by their current values.
func (m Marker) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(markerFields(m))
	if err != nil {
		return nil, err
	}
	if len(m.raw) == 0 {
		return known, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(m.raw)+len(fields))
	for k, v := range m.raw {
		out[k] = v
	}
	for k, v := range fields {
		if k == "id" {
			// Keep the server's id encoding (number or string).
			if _, ok := m.raw["id"]; ok {
				continue
			}
		}
		out[k] = v
	}
	return json.Marshal(out)
}

// Category is a marker category.
type Category struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// NewMarker is the body of a create request.
type NewMarker struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	CategoryID  ID      `json:"category_id,omitempty"`
}

func markerPath(id ID) string {
	return "/markers/" + url.PathEscape(string(id))
}

// ListMarkers fetches every marker.
func (c *Client) ListMarkers(ctx context.Context) ([]Marker, error) {
	var out []Marker
	if err := c.do(ctx, http.MethodGet, "/markers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateMarker adds a marker and returns the created record.
func (c *Client) CreateMarker(ctx context.Context, m NewMarker) (*Marker, error) {
	var out Marker
	if err := c.do(ctx, http.MethodPost, "/markers", m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMarker replaces the full record.
func (c *Client) UpdateMarker(ctx context.Context, m Marker) (*Marker, error) {
	if m.ID == "" {
		return nil, fmt.Errorf("update marker: missing id")
	}
	var out Marker
	if err := c.do(ctx, http.MethodPut, markerPath(m.ID), m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMarker removes a marker.
func (c *Client) DeleteMarker(ctx context.Context, id ID) error {
	return c.do(ctx, http.MethodDelete, markerPath(id), nil, nil)
}

// ListCategories fetches marker categories.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.do(ctx, http.MethodGet, "/marker/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FormatCoord renders a coordinate the way the planning endpoint expects.
func FormatCoord(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}
