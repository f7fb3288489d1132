package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/peterldowns/testy/check"

	"github.com/evmarket/evmarketd/internal/domain"
	"github.com/evmarket/evmarketd/internal/platform/evmarket"
)

// vehiclePage is one upstream catalog page keyed by page number.
type vehiclePage struct {
	vehicles []map[string]any
}

func catalogUpstream(t *testing.T, pages map[int]vehiclePage, totalPages int) (*httptest.Server, *int) {
	t.Helper()
	var mu sync.Mutex
	requests := 0

	mux := http.NewServeMux()
	mux.HandleFunc("GET /vehicles/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		p := pages[page]
		json.NewEncoder(w).Encode(map[string]any{
			"message": "OK",
			"data": map[string]any{
				"vehicles":     p.vehicles,
				"page":         page,
				"limit":        len(p.vehicles),
				"totalPages":   totalPages,
				"totalResults": totalPages * 2,
			},
		})
	})
	mux.HandleFunc("GET /vehicles/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &requests
}

func vehicle(id, status string) map[string]any {
	return map[string]any{"id": id, "title": "EV " + id, "status": status}
}

func TestBrowseVehiclesScansAcrossPages(t *testing.T) {
	upstream, requests := catalogUpstream(t, map[int]vehiclePage{
		1: {vehicles: []map[string]any{vehicle("v1", "AVAILABLE"), vehicle("v2", "SOLD")}},
		2: {vehicles: []map[string]any{vehicle("v3", "PENDING"), vehicle("v4", "AVAILABLE")}},
		3: {vehicles: []map[string]any{vehicle("v5", "AVAILABLE"), vehicle("v6", "AVAILABLE")}},
	}, 3)
	svc := NewCatalogService(evmarket.NewClient(upstream.URL), 2, 5, discardLogger())

	out, err := svc.BrowseVehicles(context.Background(), 1)
	check.Nil(t, err)
	check.Equal(t, 2, len(out.Items))
	check.Equal(t, "v1", out.Items[0].ID)
	check.Equal(t, "v4", out.Items[1].ID)
	// The page filled on upstream page 2; the third page was never fetched.
	check.Equal(t, 2, out.Page)
	check.Equal(t, 2, *requests)
}

func TestBrowseVehiclesStopsAtLastPage(t *testing.T) {
	upstream, requests := catalogUpstream(t, map[int]vehiclePage{
		1: {vehicles: []map[string]any{vehicle("v1", "SOLD"), vehicle("v2", "SOLD")}},
		2: {vehicles: []map[string]any{vehicle("v3", "AVAILABLE"), vehicle("v4", "SOLD")}},
	}, 2)
	svc := NewCatalogService(evmarket.NewClient(upstream.URL), 3, 10, discardLogger())

	out, err := svc.BrowseVehicles(context.Background(), 1)
	check.Nil(t, err)
	check.Equal(t, 1, len(out.Items))
	check.Equal(t, "v3", out.Items[0].ID)
	// Scan stops at the upstream's last page, not at the scan bound.
	check.Equal(t, 2, *requests)
}

func TestBrowseVehiclesRespectsScanBound(t *testing.T) {
	pages := make(map[int]vehiclePage)
	for i := 1; i <= 10; i++ {
		pages[i] = vehiclePage{vehicles: []map[string]any{
			vehicle("v"+strconv.Itoa(i), "SOLD"),
		}}
	}
	upstream, requests := catalogUpstream(t, pages, 10)
	svc := NewCatalogService(evmarket.NewClient(upstream.URL), 2, 3, discardLogger())

	out, err := svc.BrowseVehicles(context.Background(), 1)
	check.Nil(t, err)
	check.Equal(t, 0, len(out.Items))
	check.Equal(t, 3, *requests)
}

func TestGetVehicleNotFound(t *testing.T) {
	upstream, _ := catalogUpstream(t, nil, 0)
	svc := NewCatalogService(evmarket.NewClient(upstream.URL), 2, 3, discardLogger())

	_, err := svc.GetVehicle(context.Background(), "missing")
	check.True(t, errors.Is(err, domain.ErrNotFound))
}
