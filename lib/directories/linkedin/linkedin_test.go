package linkedin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"kyb-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, company string) *httptest.Server {
	logins := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/uas/authenticate":
			require.Equal(t, http.MethodPost, r.Method)
			r.ParseForm()
			logins++
			// the session is established once and reused
			require.Equal(t, 1, logins)
			w.WriteHeader(http.StatusOK)
		case "/voyager/api/search/companies":
			w.Write([]byte(`{"elements": [{"urn_id": "urn-42", "name": "Levain Bakery"}]}`))
		case "/voyager/api/companies/urn-42":
			w.Write([]byte(company))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
}

func TestLookup(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:directories/linkedin")
	defer cleanup()

	server := newTestServer(t, `{
		"name": "Levain Bakery",
		"vanityName": "levain-bakery",
		"description": "Oversized cookies.",
		"websiteUrl": "https://levainbakery.com",
		"companyIndustries": [{"localizedName": "Food & Beverages"}],
		"staffCountRange": {"start": 201},
		"followerCount": 5200,
		"foundedOn": {"year": 1995},
		"confirmedLocations": [{"line1": "167 W 74th St"}, {"line1": "351 Amsterdam Ave"}],
		"specialities": ["cookies", "bread"]
	}`)
	defer server.Close()

	client, err := NewClient(ClientOptions{
		BaseUrl:  server.URL,
		Username: "user@example.com",
		Password: "hunter2",
	})
	if err != nil {
		t.Fatal(err)
	}

	company, err := client.Lookup(context.Background(), "Levain Bakery")
	if err != nil {
		t.Fatal(err)
	}

	require.NotNil(t, company)
	require.Equal(t, "Levain Bakery", company.Name)
	require.Equal(t, "Food & Beverages", company.Industry)
	require.NotNil(t, company.CompanySize)
	require.Equal(t, int64(201), *company.CompanySize)
	require.Equal(t, int64(5200), company.Followers)
	require.Equal(t, int64(1995), company.FoundedYear)
	require.Equal(t, []string{"167 W 74th St", "351 Amsterdam Ave"}, company.Locations)
	require.Equal(t, []string{"cookies", "bread"}, company.Specialties)

	// second lookup reuses the session, the server asserts on login count
	_, err = client.Lookup(context.Background(), "Levain Bakery")
	require.NoError(t, err)
}

func TestLookupUnknownHeadcount(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:directories/linkedin")
	defer cleanup()

	server := newTestServer(t, `{"name": "Levain Bakery"}`)
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseUrl: server.URL, Username: "u", Password: "p"})
	if err != nil {
		t.Fatal(err)
	}

	company, err := client.Lookup(context.Background(), "Levain Bakery")
	require.NoError(t, err)
	require.NotNil(t, company)
	require.Nil(t, company.CompanySize)
}

func TestLookupNoResults(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:directories/linkedin")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/uas/authenticate":
			w.WriteHeader(http.StatusOK)
		case "/voyager/api/search/companies":
			w.Write([]byte(`{"elements": []}`))
		}
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseUrl: server.URL, Username: "u", Password: "p"})
	if err != nil {
		t.Fatal(err)
	}

	company, err := client.Lookup(context.Background(), "no such company")
	require.NoError(t, err)
	require.Nil(t, company)
}

func TestLookupBadCredentials(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:directories/linkedin")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseUrl: server.URL, Username: "u", Password: "wrong"})
	if err != nil {
		t.Fatal(err)
	}

	company, err := client.Lookup(context.Background(), "anything")
	require.ErrorIs(t, err, LoginFailed)
	require.Nil(t, company)
}
