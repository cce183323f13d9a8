package gmaps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"kyb-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:directories/gmaps")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/maps/api/place/textsearch/json":
			require.Equal(t, "Levain Bakery in New York City", r.URL.Query().Get("query"))
			require.Equal(t, "test-key", r.URL.Query().Get("key"))
			w.Write([]byte(`{"status": "OK", "results": [{"place_id": "place-123"}]}`))
		case "/maps/api/place/details/json":
			require.Equal(t, "place-123", r.URL.Query().Get("place_id"))
			w.Write([]byte(`{
				"status": "OK",
				"result": {
					"name": "Levain Bakery",
					"formatted_address": "167 W 74th St, New York, NY 10023",
					"formatted_phone_number": "(917) 464-3769",
					"rating": 4.7,
					"user_ratings_total": 9000,
					"website": "https://levainbakery.com/",
					"opening_hours": {"weekday_text": ["Monday: 8AM-7PM", "Tuesday: 8AM-7PM"]}
				}
			}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL, ApiKey: "test-key"})
	place, err := client.Lookup(context.Background(), "Levain Bakery", "New York City")
	if err != nil {
		t.Fatal(err)
	}

	require.NotNil(t, place)
	require.Equal(t, "Levain Bakery", place.Name)
	require.Equal(t, int64(9000), place.TotalRatings)
	require.Equal(t, 4.7, place.Rating)
	require.Equal(t, "(917) 464-3769", place.Phone)
	require.Equal(t, []string{"Monday: 8AM-7PM", "Tuesday: 8AM-7PM"}, place.OpeningHours)
}

func TestLookupNoSearchResults(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:directories/gmaps")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL, ApiKey: "test-key"})
	place, err := client.Lookup(context.Background(), "no such place", "Nowhere")
	require.NoError(t, err)
	require.Nil(t, place)
}

func TestLookupDetailsNotOk(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:directories/gmaps")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/maps/api/place/textsearch/json":
			w.Write([]byte(`{"status": "OK", "results": [{"place_id": "place-123"}]}`))
		case "/maps/api/place/details/json":
			w.Write([]byte(`{"status": "NOT_FOUND"}`))
		}
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL, ApiKey: "test-key"})
	place, err := client.Lookup(context.Background(), "anything", "anywhere")
	require.NoError(t, err)
	require.Nil(t, place)
}

func TestLookupNon2xx(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:directories/gmaps")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL, ApiKey: "test-key"})
	place, err := client.Lookup(context.Background(), "anything", "anywhere")
	require.Error(t, err)
	require.Nil(t, place)
}
