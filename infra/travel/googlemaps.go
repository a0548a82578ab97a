// Package travel provides live routing and shared-cache adapters for the
// core travel estimator.
package travel

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/dispatchlab/fieldsched/core/model"
	coretravel "github.com/dispatchlab/fieldsched/core/travel"
)

// GoogleRouter resolves travel via the Google Maps Distance Matrix API.
type GoogleRouter struct {
	client *maps.Client
}

// NewGoogleRouter creates a router with the given API key.
func NewGoogleRouter(apiKey string) (*GoogleRouter, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &GoogleRouter{client: client}, nil
}

// Route implements coretravel.Router using driving mode.
func (r *GoogleRouter) Route(ctx context.Context, origin, dest model.Location) (coretravel.Estimate, error) {
	req := &maps.DistanceMatrixRequest{
		Origins:      []string{fmt.Sprintf("%f,%f", origin.Lat, origin.Lng)},
		Destinations: []string{fmt.Sprintf("%f,%f", dest.Lat, dest.Lng)},
		Mode:         maps.TravelModeDriving,
	}
	resp, err := r.client.DistanceMatrix(ctx, req)
	if err != nil {
		return coretravel.Estimate{}, fmt.Errorf("distance matrix: %w", err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return coretravel.Estimate{}, fmt.Errorf("distance matrix: empty response")
	}
	el := resp.Rows[0].Elements[0]
	if el.Status != "OK" {
		return coretravel.Estimate{}, fmt.Errorf("distance matrix: element status %s", el.Status)
	}
	return coretravel.Estimate{
		DistanceKm: float64(el.Distance.Meters) / 1000,
		Minutes:    int(el.Duration.Minutes() + 0.5),
		Source:     model.TravelLive,
	}, nil
}
