package amazon

import "strings"

var domains = map[string]string{
	"US": "amazon.com",
	"GB": "amazon.co.uk",
	"DE": "amazon.de",
	"FR": "amazon.fr",
	"IT": "amazon.it",
	"ES": "amazon.es",
	"CA": "amazon.ca",
	"AU": "amazon.com.au",
}

// DomainFor maps an ISO country code to an Amazon retail domain.
// Unknown or empty codes fall back to amazon.com.
func DomainFor(locale string) string {
	if d, ok := domains[strings.ToUpper(locale)]; ok {
		return d
	}
	return domains["US"]
}
