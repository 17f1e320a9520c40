package ebay

import (
	"strconv"

	domain "github.com/pricegrid/gtin-price-compare/pkg/types"
)

// toOffers converts Browse API item summaries into domain offers.
// Items whose price fails to parse to a strictly positive value are
// dropped, and the result is capped at limit.
func toOffers(
	items []ItemSummary,
	mkt Marketplace,
	limit int,
	locale string,
) []domain.Offer {
	offers := make([]domain.Offer, 0, len(items))
	for i := range items {
		o, ok := toOffer(&items[i], mkt, locale)
		if !ok {
			continue
		}
		offers = append(offers, o)
		if limit > 0 && len(offers) >= limit {
			break
		}
	}
	return offers
}

func toOffer(item *ItemSummary, mkt Marketplace, locale string) (domain.Offer, bool) {
	price, err := strconv.ParseFloat(item.Price.Value, 64)
	if err != nil || price <= 0 {
		return domain.Offer{}, false
	}

	o := domain.Offer{
		Title:    item.Title,
		Price:    price,
		Currency: item.Price.Currency,
		URL:      item.ItemWebURL,
		Source:   domain.SourceEbay,
		Locale:   locale,
	}

	if o.Currency == "" {
		o.Currency = mkt.Currency
	}

	if item.Image != nil && item.Image.ImageURL != "" {
		o.ImageURL = item.Image.ImageURL
	}

	return o, true
}
