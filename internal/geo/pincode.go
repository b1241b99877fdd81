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

// PostalPincodeResolver implements PincodeResolver against an
// api.postalpincode.in-compatible endpoint.
type PostalPincodeResolver struct {
	client  HTTPDoer
	baseURL string
	logger  *slog.Logger
}

// NewPostalPincodeResolver creates a pincode lookup client.
func NewPostalPincodeResolver(client HTTPDoer, baseURL string, logger *slog.Logger) *PostalPincodeResolver {
	return &PostalPincodeResolver{
		client:  client,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Resolve looks up city/state/country for a 6-digit pincode. The caller
// validates the pincode format before calling.
func (p *PostalPincodeResolver) Resolve(ctx context.Context, pincode string) (*domain.GeoPlace, error) {
	type postOffice struct {
		District string `json:"District"`
		State    string `json:"State"`
		Country  string `json:"Country"`
	}
	type pincodeEntry struct {
		Status     string       `json:"Status"`
		Message    string       `json:"Message"`
		PostOffice []postOffice `json:"PostOffice"`
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/pincode/"+pincode, nil)
	if err != nil {
		return nil, fmt.Errorf("create pincode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call pincode lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "pincode lookup")
	}

	var entries []pincodeEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode pincode response: %w", err)
	}

	if len(entries) == 0 || entries[0].Status != "Success" || len(entries[0].PostOffice) == 0 {
		msg := "no records found"
		if len(entries) > 0 && entries[0].Message != "" {
			msg = entries[0].Message
		}
		return nil, fmt.Errorf("pincode %s not found: %s", pincode, msg)
	}

	office := entries[0].PostOffice[0]

	p.logger.DebugContext(ctx, "pincode resolved",
		slog.String("pincode", pincode),
		slog.String("city", office.District),
	)

	return &domain.GeoPlace{
		City:    office.District,
		State:   office.State,
		Country: office.Country,
		Pincode: pincode,
	}, nil
}
