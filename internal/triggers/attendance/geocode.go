// internal/triggers/attendance/geocode.go
package attendance

import (
	"context"
	"fmt"
	"net/url"

	"hrms-dispatch/internal/common/config"
	commonhttp "hrms-dispatch/internal/common/http"
)

// Geocoder resolves coordinates to a display address through a
// Nominatim-style reverse endpoint.
type Geocoder struct {
	client *commonhttp.Client
	cfg    config.GeocodeConfig
}

func NewGeocoder(client *commonhttp.Client, cfg config.GeocodeConfig) *Geocoder {
	return &Geocoder{client: client, cfg: cfg}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
}

func (g *Geocoder) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lng))
	if g.cfg.APIKey != "" {
		q.Set("key", g.cfg.APIKey)
	}

	var resp reverseResponse
	endpoint := g.cfg.BaseURL + "/reverse?" + q.Encode()
	if err := g.client.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	if resp.DisplayName == "" {
		return "", fmt.Errorf("reverse geocode: empty result")
	}
	return resp.DisplayName, nil
}
