// Package handler contains the HTTP handlers of the gateway API. Each handler
// declares the narrow service interface it needs so the package never depends
// on concrete service implementations.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/evmarket/evmarketd/internal/domain"
	"github.com/evmarket/evmarketd/internal/server/middleware"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain sentinel errors to HTTP statuses. Unknown
// errors become 502: this gateway mostly relays upstream failures, so a
// generic failure is a bad-gateway condition rather than an internal one.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "upstream rate limit")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrInvalidListing):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrSettlementFailed):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusBadGateway, fallback)
	}
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// parsePage extracts page/limit pagination from the query string.
// Defaults: page=1, limit=10 (max 100).
func parsePage(r *http.Request) (page, limit int) {
	q := r.URL.Query()

	page = 1
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}

	limit = 10
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// pathParam extracts a named path parameter from the request using Go 1.22+
// built-in routing (http.Request.PathValue).
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}

// session returns the authenticated session for the request. Protected routes
// always carry one; a miss means the route was registered without the session
// middleware, which is a wiring bug.
func session(w http.ResponseWriter, r *http.Request) (domain.Session, bool) {
	s, ok := middleware.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session")
	}
	return s, ok
}

// listingTypeParam parses the {listingType} path segment. The API accepts the
// lowercase path forms used by the upstream ("vehicles", "batteries") as well
// as the enum names.
func listingTypeParam(r *http.Request) (domain.ListingType, bool) {
	switch pathParam(r, "listingType") {
	case "vehicles", "vehicle", "VEHICLE":
		return domain.ListingTypeVehicle, true
	case "batteries", "battery", "BATTERY":
		return domain.ListingTypeBattery, true
	}
	return "", false
}
