// Package auction flattens the upstream's loosely shaped auction payloads
// into canonical domain.AuctionSummary records. The same logical field may
// arrive at the top level, inside a nested "listing" object, or inside a
// nested "metadata" object, under several key spellings; resolution walks an
// ordered probe chain and the first hit wins.
package auction

import (
	"github.com/evmarket/evmarketd/internal/domain"
	"github.com/evmarket/evmarketd/internal/jsonval"
	"github.com/evmarket/evmarketd/internal/platform/evmarket"
)

// NormalizeList flattens a live-auctions payload of unknown shape into
// summaries. The root may be an array, an object with an "auctions" array, or
// an object whose values must be scanned for the first embedded array (or
// object holding an "auctions" array). Elements that are not objects, or that
// yield no listing id from any source, are dropped without complaint; output
// order follows input order.
func NormalizeList(root jsonval.Value) []domain.AuctionSummary {
	candidates := extractAuctionArray(root)

	out := make([]domain.AuctionSummary, 0, len(candidates))
	for _, elem := range candidates {
		if summary, ok := summarizeElement(elem); ok {
			out = append(out, summary)
		}
	}
	return out
}

// NormalizeDetail resolves a typed detail response into a summary. Explicit
// DTO fields take priority, then the listing blob, then the metadata blob,
// then the field's default. A blank or null explicit field never shadows a
// nested value.
func NormalizeDetail(d evmarket.AuctionDetail) domain.AuctionSummary {
	listing := objectOrEmpty(d.Listing)
	metadata := objectOrEmpty(d.Metadata)

	listingID := firstString(
		literal(d.ListingID),
		probeString(listing, "listingId", "id"),
		probeString(metadata, "listingId", "id"),
		literal(d.ID),
	)

	listingType := firstString(
		literal(d.ListingType),
		probeString(listing, "listingType"),
		probeString(metadata, "listingType"),
	)
	if listingType == "" {
		listingType = "unknown"
	}

	imageURL := firstString(
		firstOf(d.Images),
		literal(d.Image),
		probeImage(listing, "images", "thumbnail", "image", "coverImage"),
		probeImage(metadata, "images", "thumbnail", "image", "coverImage"),
	)

	return domain.AuctionSummary{
		ID:          d.ID,
		ListingID:   listingID,
		ListingType: listingType,
		Title: firstString(
			literal(d.Title),
			probeString(listing, "title", "name"),
			probeString(metadata, "title", "name"),
		),
		ImageURL: imageURL,
		StartingPrice: firstInt(
			explicit(d.StartingPrice),
			probeInt(listing, "startingPrice", "price"),
			probeInt(metadata, "startingPrice", "price"),
		),
		CurrentBid: firstInt(
			explicit(d.CurrentBid),
			probeInt(metadata, "currentBid"),
		),
		DepositAmount: firstInt(
			explicit(d.DepositAmount),
			probeInt(metadata, "depositAmount", "deposit"),
		),
		AuctionStartsAt: firstString(
			literal(d.AuctionStartsAt),
			probeString(metadata, "auctionStartsAt", "startsAt", "startAt"),
		),
		AuctionEndsAt: firstString(
			literal(d.AuctionEndsAt),
			probeString(metadata, "auctionEndsAt", "endsAt", "endAt"),
		),
	}
}

// extractAuctionArray locates the candidate record list inside a root value
// of unknown shape.
func extractAuctionArray(root jsonval.Value) []jsonval.Value {
	switch root.Kind() {
	case jsonval.KindArray:
		return root.Elements()
	case jsonval.KindObject:
		if auctions, ok := root.Get("auctions"); ok && auctions.Kind() == jsonval.KindArray {
			return auctions.Elements()
		}
		// No direct "auctions" key: take the first member value that is an
		// array, or an object wrapping an "auctions" array.
		for _, m := range root.Members() {
			switch m.Value.Kind() {
			case jsonval.KindArray:
				return m.Value.Elements()
			case jsonval.KindObject:
				if auctions, ok := m.Value.Get("auctions"); ok && auctions.Kind() == jsonval.KindArray {
					return auctions.Elements()
				}
			}
		}
	}
	return nil
}

// summarizeElement resolves one raw list element. The top-level object itself
// is probed first with an extended synonym set (snake_case variants included),
// then its own listing/metadata sub-objects.
func summarizeElement(elem jsonval.Value) (domain.AuctionSummary, bool) {
	if elem.Kind() != jsonval.KindObject {
		return domain.AuctionSummary{}, false
	}

	listingID := firstString(
		probeString(elem, "listingId", "listing_id", "listingID", "id"),
	)
	if listingID == "" {
		return domain.AuctionSummary{}, false
	}

	listing := objectMember(elem, "listing")
	metadata := objectMember(elem, "metadata")

	listingType := firstString(
		probeString(elem, "listingType", "listing_type", "listingTYPE"),
		probeString(listing, "listingType", "listing_type"),
	)
	if listingType == "" {
		listingType = "unknown"
	}

	return domain.AuctionSummary{
		ID:          firstString(probeString(elem, "id", "_id")),
		ListingID:   listingID,
		ListingType: listingType,
		Title: firstString(
			probeString(elem, "title", "name", "listingTitle"),
			probeString(listing, "title", "name"),
			probeString(metadata, "title", "name"),
		),
		ImageURL: firstString(
			probeImage(elem, "images", "thumbnail", "image", "coverImage"),
			probeImage(listing, "images", "thumbnail", "image", "coverImage"),
			probeImage(metadata, "images", "thumbnail", "image", "coverImage"),
		),
		StartingPrice: firstInt(
			probeInt(elem, "startingPrice", "starting_price", "price"),
			probeInt(listing, "startingPrice", "starting_price", "price"),
			probeInt(metadata, "startingPrice", "starting_price", "price"),
		),
		CurrentBid: firstInt(
			probeInt(elem, "currentBid", "current_bid"),
			probeInt(metadata, "currentBid", "current_bid"),
		),
		DepositAmount: firstInt(
			probeInt(elem, "depositAmount", "deposit_amount"),
			probeInt(listing, "depositAmount", "deposit_amount"),
			probeInt(metadata, "depositAmount", "deposit_amount"),
		),
		AuctionStartsAt: firstString(
			probeString(elem, "auctionStartsAt", "startsAt", "startAt"),
			probeString(metadata, "auctionStartsAt", "startsAt", "startAt"),
		),
		AuctionEndsAt: firstString(
			probeString(elem, "auctionEndsAt", "endsAt", "endAt"),
			probeString(metadata, "auctionEndsAt", "endsAt", "endAt"),
		),
	}, true
}

// --------------------------------------------------------------------------
// Probe combinators
//
// Each field is an ordered list of lazy probes evaluated short-circuit, so a
// new fallback source is one more line rather than a deeper conditional.
// --------------------------------------------------------------------------

type stringProbe func() (string, bool)
type intProbe func() (int64, bool)

func firstString(probes ...stringProbe) string {
	for _, p := range probes {
		if s, ok := p(); ok {
			return s
		}
	}
	return ""
}

func firstInt(probes ...intProbe) *int64 {
	for _, p := range probes {
		if n, ok := p(); ok {
			return &n
		}
	}
	return nil
}

// literal treats a plain DTO string as a probe; blank means absent.
func literal(s string) stringProbe {
	return func() (string, bool) {
		if s == "" {
			return "", false
		}
		return s, true
	}
}

// explicit treats an optional DTO numeric field as a probe.
func explicit(n *int64) intProbe {
	return func() (int64, bool) {
		if n == nil {
			return 0, false
		}
		return *n, true
	}
}

// firstOf probes the first non-blank entry of an explicit image list.
func firstOf(items []string) stringProbe {
	return func() (string, bool) {
		for _, s := range items {
			if s != "" {
				return s, true
			}
		}
		return "", false
	}
}

// probeString returns the first key whose value is a non-blank scalar. JSON
// null and the quoted literal "null" count as absent.
func probeString(obj jsonval.Value, keys ...string) stringProbe {
	return func() (string, bool) {
		for _, key := range keys {
			v, ok := obj.Get(key)
			if !ok {
				continue
			}
			if s, ok := v.NonBlankText(); ok {
				return s, true
			}
		}
		return "", false
	}
}

// probeInt returns the first key whose value coerces to an integer: an exact
// int, a float truncated toward zero, or a numeric string parsed then
// truncated.
func probeInt(obj jsonval.Value, keys ...string) intProbe {
	return func() (int64, bool) {
		for _, key := range keys {
			v, ok := obj.Get(key)
			if !ok {
				continue
			}
			if n, ok := v.IntValue(); ok {
				return n, true
			}
		}
		return 0, false
	}
}

// probeImage resolves image-ish keys: an array yields its first element's
// string value, a scalar yields itself, and an object yields its own first
// non-blank scalar member. A probe that misses falls through to the next key.
func probeImage(obj jsonval.Value, keys ...string) stringProbe {
	return func() (string, bool) {
		for _, key := range keys {
			v, ok := obj.Get(key)
			if !ok {
				continue
			}
			switch v.Kind() {
			case jsonval.KindArray:
				if elems := v.Elements(); len(elems) > 0 {
					if s, ok := elems[0].NonBlankText(); ok {
						return s, true
					}
				}
			case jsonval.KindString, jsonval.KindNumber:
				if s, ok := v.NonBlankText(); ok {
					return s, true
				}
			case jsonval.KindObject:
				for _, m := range v.Members() {
					if s, ok := m.Value.NonBlankText(); ok {
						return s, true
					}
				}
			}
		}
		return "", false
	}
}

func objectOrEmpty(v jsonval.Value) jsonval.Value {
	if v.Kind() == jsonval.KindObject {
		return v
	}
	return jsonval.Value{}
}

func objectMember(obj jsonval.Value, key string) jsonval.Value {
	v, ok := obj.Get(key)
	if !ok {
		return jsonval.Value{}
	}
	return objectOrEmpty(v)
}
