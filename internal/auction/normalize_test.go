package auction

import (
	"testing"

	"github.com/peterldowns/testy/check"

	"github.com/evmarket/evmarketd/internal/jsonval"
	"github.com/evmarket/evmarketd/internal/platform/evmarket"
)

func mustParse(t *testing.T, raw string) jsonval.Value {
	t.Helper()
	v, err := jsonval.Parse([]byte(raw))
	check.Nil(t, err)
	return v
}

func TestNormalizeListRootShapes(t *testing.T) {
	record := `{"listingId": "lst-1", "title": "Nissan Leaf 2021", "startingPrice": 12000}`

	asArray := mustParse(t, `[`+record+`]`)
	asAuctionsKey := mustParse(t, `{"auctions": [`+record+`]}`)
	asNestedWrapper := mustParse(t, `{"wrapper": {"auctions": [`+record+`]}}`)

	a := NormalizeList(asArray)
	b := NormalizeList(asAuctionsKey)
	c := NormalizeList(asNestedWrapper)

	check.Equal(t, 1, len(a))
	check.Equal(t, a, b)
	check.Equal(t, a, c)
	check.Equal(t, "lst-1", a[0].ListingID)
	check.Equal(t, "Nissan Leaf 2021", a[0].Title)
	check.NotNil(t, a[0].StartingPrice)
	check.Equal(t, int64(12000), *a[0].StartingPrice)
}

func TestNormalizeListScansValuesForFirstArray(t *testing.T) {
	root := mustParse(t, `{"meta": {"count": 1}, "results": [{"listingId": "lst-9"}]}`)

	out := NormalizeList(root)
	check.Equal(t, 1, len(out))
	check.Equal(t, "lst-9", out[0].ListingID)
}

func TestNormalizeListEmptyAndUnusableRoots(t *testing.T) {
	check.Equal(t, 0, len(NormalizeList(jsonval.Null())))
	check.Equal(t, 0, len(NormalizeList(mustParse(t, `"just a string"`))))
	check.Equal(t, 0, len(NormalizeList(mustParse(t, `{"count": 3, "ok": true}`))))
}

func TestNormalizeListDropsUnresolvableElements(t *testing.T) {
	root := mustParse(t, `[
		{"listingId": "lst-1"},
		{"title": "no id anywhere", "listing": {}, "metadata": {}},
		"not an object",
		42,
		{"listing_id": "lst-2"},
		{"id": "lst-3"}
	]`)

	out := NormalizeList(root)
	check.Equal(t, 3, len(out))
	check.Equal(t, "lst-1", out[0].ListingID)
	check.Equal(t, "lst-2", out[1].ListingID)
	check.Equal(t, "lst-3", out[2].ListingID)
}

func TestNormalizeListPreservesInputOrder(t *testing.T) {
	root := mustParse(t, `[{"listingId": "c"}, {"listingId": "a"}, {"listingId": "b"}]`)

	out := NormalizeList(root)
	check.Equal(t, 3, len(out))
	check.Equal(t, "c", out[0].ListingID)
	check.Equal(t, "a", out[1].ListingID)
	check.Equal(t, "b", out[2].ListingID)
}

func TestNormalizeListNestedFallbacks(t *testing.T) {
	root := mustParse(t, `[{
		"listingId": "lst-5",
		"listing": {
			"title": "VinFast VF8",
			"images": ["https://cdn.example.com/vf8.jpg"],
			"starting_price": "45000.50"
		},
		"metadata": {
			"currentBid": 46000.9,
			"deposit_amount": 500,
			"auctionEndsAt": "2026-09-30T12:00:00Z"
		}
	}]`)

	out := NormalizeList(root)
	check.Equal(t, 1, len(out))

	s := out[0]
	check.Equal(t, "VinFast VF8", s.Title)
	check.Equal(t, "https://cdn.example.com/vf8.jpg", s.ImageURL)
	check.Equal(t, "unknown", s.ListingType)
	check.NotNil(t, s.StartingPrice)
	check.Equal(t, int64(45000), *s.StartingPrice)
	check.NotNil(t, s.CurrentBid)
	check.Equal(t, int64(46000), *s.CurrentBid)
	check.NotNil(t, s.DepositAmount)
	check.Equal(t, int64(500), *s.DepositAmount)
	check.Equal(t, "2026-09-30T12:00:00Z", s.AuctionEndsAt)
}

func TestNormalizeListNullNeverShadows(t *testing.T) {
	root := mustParse(t, `[{
		"listingId": "lst-7",
		"title": null,
		"listing": {"title": "Model X"}
	}]`)

	out := NormalizeList(root)
	check.Equal(t, 1, len(out))
	check.Equal(t, "Model X", out[0].Title)
}

func TestNormalizeListQuotedNullIsAbsent(t *testing.T) {
	root := mustParse(t, `[{
		"listingId": "lst-8",
		"title": "null",
		"metadata": {"title": "Kona Electric"}
	}]`)

	out := NormalizeList(root)
	check.Equal(t, 1, len(out))
	check.Equal(t, "Kona Electric", out[0].Title)
}

func TestNormalizeListTopLevelWinsOverNested(t *testing.T) {
	root := mustParse(t, `[{
		"listingId": "top",
		"title": "top title",
		"startingPrice": 100,
		"listing": {"listingId": "nested", "title": "nested title", "startingPrice": 999},
		"metadata": {"listingId": "meta"}
	}]`)

	out := NormalizeList(root)
	check.Equal(t, 1, len(out))
	check.Equal(t, "top", out[0].ListingID)
	check.Equal(t, "top title", out[0].Title)
	check.Equal(t, int64(100), *out[0].StartingPrice)
}

func TestNormalizeListNumericCoercion(t *testing.T) {
	root := mustParse(t, `[
		{"listingId": "a", "startingPrice": "1500.75"},
		{"listingId": "b", "startingPrice": 1500.9},
		{"listingId": "c", "startingPrice": 1500}
	]`)

	out := NormalizeList(root)
	check.Equal(t, 3, len(out))
	for _, s := range out {
		check.NotNil(t, s.StartingPrice)
		check.Equal(t, int64(1500), *s.StartingPrice)
	}
}

func TestNormalizeListImageSynonyms(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"images array", `{"listingId": "x", "images": ["a.jpg", "b.jpg"]}`, "a.jpg"},
		{"thumbnail string", `{"listingId": "x", "thumbnail": "t.jpg"}`, "t.jpg"},
		{"singular image", `{"listingId": "x", "image": "i.jpg"}`, "i.jpg"},
		{"coverImage", `{"listingId": "x", "coverImage": "c.jpg"}`, "c.jpg"},
		{"empty array falls through", `{"listingId": "x", "images": [], "thumbnail": "t.jpg"}`, "t.jpg"},
		{"image object first member", `{"listingId": "x", "image": {"url": "o.jpg", "width": 640}}`, "o.jpg"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := NormalizeList(mustParse(t, `[`+tc.raw+`]`))
			check.Equal(t, 1, len(out))
			check.Equal(t, tc.want, out[0].ImageURL)
		})
	}
}

func TestNormalizeDetailMetadataOnlyListingID(t *testing.T) {
	detail := evmarket.AuctionDetail{
		Metadata: jsonval.Object(
			jsonval.Member{Key: "listingId", Value: jsonval.String("meta-id")},
		),
	}

	s := NormalizeDetail(detail)
	check.Equal(t, "meta-id", s.ListingID)
}

func TestNormalizeDetailTopLevelWinsOverMetadata(t *testing.T) {
	detail := evmarket.AuctionDetail{
		ListingID: "top-id",
		Metadata: jsonval.Object(
			jsonval.Member{Key: "listingId", Value: jsonval.String("meta-id")},
		),
	}

	s := NormalizeDetail(detail)
	check.Equal(t, "top-id", s.ListingID)
}

func TestNormalizeDetailFallbackOrder(t *testing.T) {
	price := int64(30000)
	detail := evmarket.AuctionDetail{
		ID:            "rec-1",
		StartingPrice: &price,
		Listing: jsonval.Object(
			jsonval.Member{Key: "id", Value: jsonval.String("listing-id")},
			jsonval.Member{Key: "name", Value: jsonval.String("Ioniq 5")},
			jsonval.Member{Key: "images", Value: jsonval.Array(jsonval.String("ioniq.jpg"))},
		),
		Metadata: jsonval.Object(
			jsonval.Member{Key: "listingType", Value: jsonval.String("VEHICLE")},
			jsonval.Member{Key: "currentBid", Value: jsonval.String("31000.2")},
			jsonval.Member{Key: "deposit", Value: jsonval.Int(1000)},
			jsonval.Member{Key: "endsAt", Value: jsonval.String("2026-10-01T00:00:00Z")},
		),
	}

	s := NormalizeDetail(detail)
	check.Equal(t, "rec-1", s.ID)
	check.Equal(t, "listing-id", s.ListingID) // listing blob beats explicit id
	check.Equal(t, "VEHICLE", s.ListingType)
	check.Equal(t, "Ioniq 5", s.Title)
	check.Equal(t, "ioniq.jpg", s.ImageURL)
	check.Equal(t, int64(30000), *s.StartingPrice)
	check.Equal(t, int64(31000), *s.CurrentBid)
	check.Equal(t, int64(1000), *s.DepositAmount)
	check.Equal(t, "2026-10-01T00:00:00Z", s.AuctionEndsAt)
}

func TestNormalizeDetailDefaults(t *testing.T) {
	s := NormalizeDetail(evmarket.AuctionDetail{})
	check.Equal(t, "", s.ListingID)
	check.Equal(t, "unknown", s.ListingType)
	check.Equal(t, "", s.Title)
	check.Nil(t, s.StartingPrice)
	check.Nil(t, s.CurrentBid)
	check.Nil(t, s.DepositAmount)
}

func TestNormalizeDetailExplicitImageList(t *testing.T) {
	detail := evmarket.AuctionDetail{
		ListingID: "x",
		Images:    []string{"", "first.jpg"},
		Image:     "single.jpg",
	}

	s := NormalizeDetail(detail)
	check.Equal(t, "first.jpg", s.ImageURL)
}

func TestNormalizeDetailNonObjectBlobsIgnored(t *testing.T) {
	detail := evmarket.AuctionDetail{
		ID:       "only-id",
		Listing:  jsonval.String("not an object"),
		Metadata: jsonval.Array(jsonval.Int(1)),
	}

	s := NormalizeDetail(detail)
	check.Equal(t, "only-id", s.ListingID)
	check.Equal(t, "unknown", s.ListingType)
}
