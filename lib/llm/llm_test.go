package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"kyb-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestComplete(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/llm")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "claude-3-5-sonnet-20240620", req.Model)
		require.Len(t, req.Messages, 1)
		require.Equal(t, "user", req.Messages[0].Role)
		require.Equal(t, "Describe this business.", req.Messages[0].Content)

		w.Write([]byte(`{
			"content": [
				{"type": "text", "text": "A bakery "},
				{"type": "tool_use", "id": "x"},
				{"type": "text", "text": "in Manhattan."}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{
		BaseUrl: server.URL,
		ApiKey:  "test-key",
		Model:   "claude-3-5-sonnet-20240620",
	})
	out, err := client.Complete(context.Background(), "Describe this business.")
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "A bakery in Manhattan.", out)
}

func TestCompleteErrorStatus(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/llm")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL, ApiKey: "test-key"})
	_, err := client.Complete(context.Background(), "Describe this business.")
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}
