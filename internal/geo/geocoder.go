package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ogura/location-service/internal/domain"
	"github.com/ogura/location-service/pkg/httpclient"
)

// NominatimGeocoder implements ReverseGeocoder against a Nominatim-compatible
// endpoint.
type NominatimGeocoder struct {
	client  HTTPDoer
	baseURL string
	logger  *slog.Logger
}

// NewNominatimGeocoder creates a reverse geocoding client.
func NewNominatimGeocoder(client HTTPDoer, baseURL string, logger *slog.Logger) *NominatimGeocoder {
	return &NominatimGeocoder{
		client:  client,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Reverse resolves a place from GPS coordinates. Nominatim names the city
// field differently depending on settlement size, so the city is collapsed
// through a fallback chain: city, town, village, suburb, county.
func (g *NominatimGeocoder) Reverse(ctx context.Context, lat, lon float64) (*domain.GeoPlace, error) {
	type nominatimAddress struct {
		City     string `json:"city"`
		Town     string `json:"town"`
		Village  string `json:"village"`
		Suburb   string `json:"suburb"`
		County   string `json:"county"`
		State    string `json:"state"`
		Postcode string `json:"postcode"`
		Country  string `json:"country"`
	}
	type nominatimResponse struct {
		Address nominatimAddress `json:"address"`
		Error   string           `json:"error"`
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create reverse geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "reverse geocode")
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode reverse geocode response: %w", err)
	}

	if body.Error != "" {
		return nil, fmt.Errorf("reverse geocode failed: %s", body.Error)
	}

	city := firstNonEmpty(
		body.Address.City,
		body.Address.Town,
		body.Address.Village,
		body.Address.Suburb,
		body.Address.County,
	)
	if city == "" {
		return nil, fmt.Errorf("reverse geocode returned no usable place for %.4f,%.4f", lat, lon)
	}

	g.logger.DebugContext(ctx, "reverse geocode resolved",
		slog.String("city", city),
		slog.String("state", body.Address.State),
	)

	return &domain.GeoPlace{
		City:    city,
		State:   body.Address.State,
		Country: body.Address.Country,
		Pincode: body.Address.Postcode,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
