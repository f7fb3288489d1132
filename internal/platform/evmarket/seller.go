package evmarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/evmarket/evmarketd/internal/domain"
)

// GetMyVehicles returns the authenticated seller's vehicle listings.
func (c *Client) GetMyVehicles(ctx context.Context, token string, page, limit int) (domain.Page[domain.Vehicle], error) {
	body, err := c.doGet(ctx, token, "/users/me/vehicles?"+pageParams(page, limit))
	if err != nil {
		return domain.Page[domain.Vehicle]{}, fmt.Errorf("evmarket: get my vehicles: %w", err)
	}
	return decodeVehiclePage(body)
}

// GetMyBatteries returns the authenticated seller's battery listings.
func (c *Client) GetMyBatteries(ctx context.Context, token string, page, limit int) (domain.Page[domain.Battery], error) {
	body, err := c.doGet(ctx, token, "/users/me/batteries?"+pageParams(page, limit))
	if err != nil {
		return domain.Page[domain.Battery]{}, fmt.Errorf("evmarket: get my batteries: %w", err)
	}
	return decodeBatteryPage(body)
}

// UpdateBattery patches mutable fields of one battery listing.
func (c *Client) UpdateBattery(ctx context.Context, token, id string, fields map[string]any) (domain.Battery, error) {
	body, err := c.doJSON(ctx, "PATCH", token, "/batteries/"+url.PathEscape(id), fields)
	if err != nil {
		return domain.Battery{}, fmt.Errorf("evmarket: update battery %s: %w", id, err)
	}

	var resp envelope[apiBattery]
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Battery{}, fmt.Errorf("evmarket: decode battery: %w", err)
	}
	return resp.Data.toDomain(), nil
}

// CreateVehicle submits a new vehicle listing as multipart/form-data. When
// auction is true, the draft goes to the auction creation endpoint instead of
// the fixed-price one.
func (c *Client) CreateVehicle(ctx context.Context, token string, draft domain.ListingDraft, auction bool) (string, error) {
	path := "/vehicles/"
	if auction {
		path = "/auctions/vehicles/"
	}

	fields := draftFields(draft)
	fields["model"] = draft.Model
	fields["mileage"] = strconv.Itoa(draft.Mileage)

	return c.postListingForm(ctx, token, path, fields, draft)
}

// CreateBattery submits a new battery listing as multipart/form-data.
func (c *Client) CreateBattery(ctx context.Context, token string, draft domain.ListingDraft, auction bool) (string, error) {
	path := "/batteries/"
	if auction {
		path = "/auctions/batteries/"
	}

	fields := draftFields(draft)
	fields["capacity"] = strconv.FormatFloat(draft.CapacityKWh, 'f', -1, 64)
	fields["health"] = strconv.Itoa(draft.HealthPercent)

	return c.postListingForm(ctx, token, path, fields, draft)
}

// draftFields flattens the parts common to both listing kinds. Nested
// specifications become bracketed form keys, e.g.
// "specifications[warranty][basic]"; single-level categories use one bracket.
func draftFields(draft domain.ListingDraft) map[string]string {
	fields := map[string]string{
		"title":       draft.Title,
		"description": draft.Description,
		"price":       strconv.FormatInt(draft.Price, 10),
		"status":      draft.Status,
		"brand":       draft.Brand,
		"year":        strconv.Itoa(draft.Year),
	}
	if draft.IsAuction {
		fields["isAuction"] = "true"
		fields["startingPrice"] = strconv.FormatInt(draft.StartingPrice, 10)
		if draft.BidIncrement > 0 {
			fields["bidIncrement"] = strconv.FormatInt(draft.BidIncrement, 10)
		}
		if draft.DepositAmount > 0 {
			fields["depositAmount"] = strconv.FormatInt(draft.DepositAmount, 10)
		}
	}
	for category, kv := range draft.Specifications {
		for key, value := range kv {
			if value == "" {
				continue
			}
			if category == "" {
				fields["specifications["+key+"]"] = value
			} else {
				fields["specifications["+category+"]["+key+"]"] = value
			}
		}
	}
	return fields
}

func (c *Client) postListingForm(ctx context.Context, token, path string, fields map[string]string, draft domain.ListingDraft) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	// Deterministic field order keeps request logs and recorded fixtures
	// stable across runs.
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return "", fmt.Errorf("evmarket: write form field %s: %w", k, err)
		}
	}

	for _, img := range draft.Images {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, img.FileName))
		contentType := img.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		hdr.Set("Content-Type", contentType)
		part, err := w.CreatePart(hdr)
		if err != nil {
			return "", fmt.Errorf("evmarket: create image part: %w", err)
		}
		if _, err := part.Write(img.Data); err != nil {
			return "", fmt.Errorf("evmarket: write image part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("evmarket: finalize form: %w", err)
	}

	body, err := c.do(ctx, "POST", token, path, &buf, w.FormDataContentType())
	if err != nil {
		return "", fmt.Errorf("evmarket: create listing: %w", err)
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		// Some creation endpoints answer with a bare string body.
		return strings.TrimSpace(string(body)), nil
	}
	return resp.Message, nil
}
