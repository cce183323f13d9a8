package kyb

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"kyb-backend/lib/obsstore"
)

type newEntityRequest struct {
	Url string `json:"url"`
}

type newEntityResponse struct {
	Result *obsstore.Observation `json:"result"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// RegisterRoutes mounts the service's http surface on a mux. The
// dashboard is served from another origin, so responses carry
// permissive CORS headers.
func RegisterRoutes(mux *http.ServeMux, service Service) {
	mux.HandleFunc("/new_entity", func(w http.ResponseWriter, r *http.Request) {
		setCorsHeaders(w)

		switch r.Method {
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)
			return
		case http.MethodPost:
		default:
			writeJson(w, http.StatusMethodNotAllowed, errorResponse{Detail: "method not allowed"})
			return
		}

		var req newEntityRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			writeJson(w, http.StatusBadRequest, errorResponse{Detail: "invalid request body"})
			return
		}
		parsed, err := url.ParseRequestURI(req.Url)
		if err != nil || parsed.Host == "" {
			writeJson(w, http.StatusBadRequest, errorResponse{Detail: "a valid url is required"})
			return
		}

		obs, err := service.Research(r.Context(), req.Url)
		if err != nil {
			slog.ErrorContext(r.Context(), "research failed", "url", req.Url, "err", err)
			writeJson(w, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
			return
		}

		writeJson(w, http.StatusOK, newEntityResponse{Result: obs})
	})
}

func setCorsHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "*")
	w.Header().Set("Access-Control-Allow-Headers", "*")
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}
