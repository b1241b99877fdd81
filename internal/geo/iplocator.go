package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ogura/location-service/internal/domain"
	"github.com/ogura/location-service/pkg/httpclient"
)

// IPAPILocator implements IPLocator against an ipapi.co-compatible endpoint.
type IPAPILocator struct {
	client  HTTPDoer
	baseURL string
	logger  *slog.Logger
}

// NewIPAPILocator creates an IP geolocation client.
func NewIPAPILocator(client HTTPDoer, baseURL string, logger *slog.Logger) *IPAPILocator {
	return &IPAPILocator{
		client:  client,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Locate resolves a coarse location for the given IP address.
func (l *IPAPILocator) Locate(ctx context.Context, ip string) (*domain.GeoPlace, error) {
	type ipapiResponse struct {
		City        string `json:"city"`
		Region      string `json:"region"`
		CountryName string `json:"country_name"`
		Postal      string `json:"postal"`
		Error       bool   `json:"error"`
		Reason      string `json:"reason"`
	}

	url := l.baseURL + "/" + ip + "/json/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create ip geolocation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call ip geolocation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "ip geolocation")
	}

	var body ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode ip geolocation response: %w", err)
	}

	if body.Error {
		return nil, fmt.Errorf("ip geolocation rejected %q: %s", ip, body.Reason)
	}
	if body.City == "" {
		return nil, fmt.Errorf("ip geolocation returned no city for %q", ip)
	}

	l.logger.DebugContext(ctx, "ip geolocation resolved",
		slog.String("city", body.City),
		slog.String("region", body.Region),
	)

	return &domain.GeoPlace{
		City:    body.City,
		State:   body.Region,
		Country: body.CountryName,
		Pincode: body.Postal,
	}, nil
}
