package yelp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kyb-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:directories/yelp")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v3/businesses/search", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.Equal(t, "Levain Bakery", r.URL.Query().Get("term"))
		require.Equal(t, "New York City", r.URL.Query().Get("location"))
		require.Equal(t, "1", r.URL.Query().Get("limit"))

		w.Write([]byte(`{
			"businesses": [{
				"name": "Levain Bakery",
				"rating": 4.5,
				"review_count": 12040,
				"location": {"display_address": ["167 W 74th St", "New York, NY 10023"]}
			}]
		}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL, ApiKey: "test-key"})
	business, err := client.Search(context.Background(), "Levain Bakery", "New York City")
	if err != nil {
		t.Fatal(err)
	}

	require.NotNil(t, business)
	require.Equal(t, "Levain Bakery", business.Name)
	require.Equal(t, 4.5, business.Rating)
	require.Equal(t, int64(12040), business.ReviewCount)
	require.Equal(t, "167 W 74th St New York, NY 10023", business.Address)
}

func TestSearchNoResults(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:directories/yelp")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"businesses": []}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL, ApiKey: "test-key"})
	business, err := client.Search(context.Background(), "no such place", "Nowhere")
	require.NoError(t, err)
	require.Nil(t, business)
}

func TestSearchNon2xx(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:directories/yelp")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL, ApiKey: "test-key"})
	business, err := client.Search(context.Background(), "anything", "anywhere")
	require.Error(t, err)
	require.Nil(t, business)
}

func TestSearchMalformedPayload(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:directories/yelp")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL, ApiKey: "test-key"})
	business, err := client.Search(context.Background(), "anything", "anywhere")
	require.Error(t, err)
	require.Nil(t, business)
}

func TestSearchCancelled(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:directories/yelp")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*50)
	defer cancel()

	client := NewClient(ClientOptions{BaseUrl: server.URL, ApiKey: "test-key"})
	business, err := client.Search(ctx, "anything", "anywhere")
	require.Error(t, err)
	require.Nil(t, business)
}
