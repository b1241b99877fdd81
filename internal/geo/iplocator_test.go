package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogura/location-service/pkg/httpclient"
	"github.com/ogura/location-service/pkg/logger"
)

func testClient() *httpclient.Client {
	return httpclient.New(httpclient.Config{
		Timeout:         5 * time.Second,
		MaxRetries:      0,
		RetryWaitMin:    time.Millisecond,
		RetryWaitMax:    time.Millisecond,
		MaxConnsPerHost: 10,
	})
}

var discardLogger = logger.NewWithWriter("test", "error", discardWriter{})

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestIPAPILocator_Locate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/103.27.9.44/json/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"city":"Mumbai","region":"Maharashtra","country_name":"India","postal":"400001"}`))
	}))
	defer srv.Close()

	locator := NewIPAPILocator(testClient(), srv.URL, discardLogger)

	place, err := locator.Locate(context.Background(), "103.27.9.44")
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", place.City)
	assert.Equal(t, "Maharashtra", place.State)
	assert.Equal(t, "India", place.Country)
	assert.Equal(t, "400001", place.Pincode)
}

func TestIPAPILocator_Locate_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":true,"reason":"Reserved IP Address"}`))
	}))
	defer srv.Close()

	locator := NewIPAPILocator(testClient(), srv.URL, discardLogger)

	place, err := locator.Locate(context.Background(), "127.0.0.1")
	assert.Nil(t, place)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Reserved IP Address")
}

func TestIPAPILocator_Locate_NoCity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"country_name":"India"}`))
	}))
	defer srv.Close()

	locator := NewIPAPILocator(testClient(), srv.URL, discardLogger)

	place, err := locator.Locate(context.Background(), "1.2.3.4")
	assert.Nil(t, place)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no city")
}

func TestIPAPILocator_Locate_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	locator := NewIPAPILocator(testClient(), srv.URL, discardLogger)

	place, err := locator.Locate(context.Background(), "1.2.3.4")
	assert.Nil(t, place)
	assert.Error(t, err)
}
