package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/peterldowns/testy/check"

	"github.com/evmarket/evmarketd/internal/domain"
)

func TestListingTypeParam(t *testing.T) {
	cases := []struct {
		segment string
		want    domain.ListingType
		ok      bool
	}{
		{"vehicles", domain.ListingTypeVehicle, true},
		{"vehicle", domain.ListingTypeVehicle, true},
		{"VEHICLE", domain.ListingTypeVehicle, true},
		{"batteries", domain.ListingTypeBattery, true},
		{"battery", domain.ListingTypeBattery, true},
		{"BATTERY", domain.ListingTypeBattery, true},
		{"scooters", "", false},
	}

	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/api/auctions/"+tc.segment+"/x", nil)
		req.SetPathValue("listingType", tc.segment)

		got, ok := listingTypeParam(req)
		check.Equal(t, tc.ok, ok)
		check.Equal(t, tc.want, got)
	}
}

func TestParsePageDefaultsAndClamp(t *testing.T) {
	cases := []struct {
		query     string
		wantPage  int
		wantLimit int
	}{
		{"", 1, 10},
		{"?page=3&limit=25", 3, 25},
		{"?page=0&limit=-2", 1, 10},
		{"?limit=500", 1, 100},
		{"?page=abc&limit=xyz", 1, 10},
	}

	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/api/vehicles"+tc.query, nil)
		page, limit := parsePage(req)
		check.Equal(t, tc.wantPage, page)
		check.Equal(t, tc.wantLimit, limit)
	}
}

func TestWriteServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrSessionExpired, http.StatusUnauthorized},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{domain.ErrAlreadyExists, http.StatusConflict},
		{domain.ErrInvalidListing, http.StatusBadRequest},
		{domain.ErrSettlementFailed, http.StatusConflict},
		{fmt.Errorf("upstream exploded"), http.StatusBadGateway},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeServiceError(rec, fmt.Errorf("wrapped: %w", tc.err), "fallback")
		check.Equal(t, tc.want, rec.Code)
	}
}
