package ebay

import "strings"

// Marketplace identifies an eBay site and its pricing currency.
type Marketplace struct {
	ID       string
	Currency string
}

var marketplaces = map[string]Marketplace{
	"US": {ID: "EBAY_US", Currency: "USD"},
	"GB": {ID: "EBAY_GB", Currency: "GBP"},
	"DE": {ID: "EBAY_DE", Currency: "EUR"},
	"FR": {ID: "EBAY_FR", Currency: "EUR"},
	"IT": {ID: "EBAY_IT", Currency: "EUR"},
	"ES": {ID: "EBAY_ES", Currency: "EUR"},
	"CA": {ID: "EBAY_CA", Currency: "CAD"},
	"AU": {ID: "EBAY_AU", Currency: "AUD"},
}

// MarketplaceFor maps an ISO country code to an eBay marketplace.
// Unknown or empty codes fall back to the US site.
func MarketplaceFor(locale string) Marketplace {
	if m, ok := marketplaces[strings.ToUpper(locale)]; ok {
		return m
	}
	return marketplaces["US"]
}
