package evmarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/evmarket/evmarketd/internal/domain"
)

// GetVehicles returns one page of the public vehicle catalog.
func (c *Client) GetVehicles(ctx context.Context, page, limit int) (domain.Page[domain.Vehicle], error) {
	body, err := c.doGet(ctx, "", "/vehicles/?"+pageParams(page, limit))
	if err != nil {
		return domain.Page[domain.Vehicle]{}, fmt.Errorf("evmarket: get vehicles: %w", err)
	}
	return decodeVehiclePage(body)
}

// GetVehicle returns a single vehicle listing by id.
func (c *Client) GetVehicle(ctx context.Context, id string) (domain.Vehicle, error) {
	body, err := c.doGet(ctx, "", "/vehicles/"+url.PathEscape(id))
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("evmarket: get vehicle %s: %w", id, err)
	}

	var resp envelope[apiVehicle]
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Vehicle{}, fmt.Errorf("evmarket: decode vehicle: %w", err)
	}
	return resp.Data.toDomain(), nil
}

// GetBatteries returns one page of the public battery catalog.
func (c *Client) GetBatteries(ctx context.Context, page, limit int) (domain.Page[domain.Battery], error) {
	body, err := c.doGet(ctx, "", "/batteries/?"+pageParams(page, limit))
	if err != nil {
		return domain.Page[domain.Battery]{}, fmt.Errorf("evmarket: get batteries: %w", err)
	}
	return decodeBatteryPage(body)
}

// GetBattery returns a single battery listing by id.
func (c *Client) GetBattery(ctx context.Context, id string) (domain.Battery, error) {
	body, err := c.doGet(ctx, "", "/batteries/"+url.PathEscape(id))
	if err != nil {
		return domain.Battery{}, fmt.Errorf("evmarket: get battery %s: %w", id, err)
	}

	var resp envelope[apiBattery]
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Battery{}, fmt.Errorf("evmarket: decode battery: %w", err)
	}
	return resp.Data.toDomain(), nil
}

func pageParams(page, limit int) string {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))
	return params.Encode()
}

func decodeVehiclePage(body []byte) (domain.Page[domain.Vehicle], error) {
	var resp envelope[apiPagedVehicles]
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Page[domain.Vehicle]{}, fmt.Errorf("evmarket: decode vehicles: %w", err)
	}
	out := domain.Page[domain.Vehicle]{
		Items:        make([]domain.Vehicle, 0, len(resp.Data.Vehicles)),
		Page:         resp.Data.Page,
		Limit:        resp.Data.Limit,
		TotalPages:   resp.Data.TotalPages,
		TotalResults: resp.Data.TotalResults,
	}
	for i := range resp.Data.Vehicles {
		out.Items = append(out.Items, resp.Data.Vehicles[i].toDomain())
	}
	return out, nil
}

func decodeBatteryPage(body []byte) (domain.Page[domain.Battery], error) {
	var resp envelope[apiPagedBatteries]
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Page[domain.Battery]{}, fmt.Errorf("evmarket: decode batteries: %w", err)
	}
	out := domain.Page[domain.Battery]{
		Items:        make([]domain.Battery, 0, len(resp.Data.Batteries)),
		Page:         resp.Data.Page,
		Limit:        resp.Data.Limit,
		TotalPages:   resp.Data.TotalPages,
		TotalResults: resp.Data.TotalResults,
	}
	for i := range resp.Data.Batteries {
		out.Items = append(out.Items, resp.Data.Batteries[i].toDomain())
	}
	return out, nil
}
