package connector

import "errors"

var ErrNoMarketplaceBound = errors.New("connector: no marketplace bound to backend")

// Marketplace is an immutable descriptor of an Amazon marketplace the
// connector knows how to talk to.
type Marketplace struct {
	// ID is the MWS marketplace identifier (e.g. A1PA6795UKMFR9)
	ID string
	// Name is the marketplace display name
	Name string
	// CountryCode matches the backend region values ("de", "fr", ...)
	CountryCode string
	// Currency is the ISO currency the marketplace trades in
	Currency string
	// LanguageCode is the default content language tag
	LanguageCode string
}

// Catalogue lists the marketplaces supported by the connector, keyed by
// country code. European marketplaces share the EU MWS endpoint; the US
// entry uses the North America one.
var Catalogue = []Marketplace{
	{ID: "A1PA6795UKMFR9", Name: "Amazon.de", CountryCode: "de", Currency: "EUR", LanguageCode: "de_DE"},
	{ID: "A13V1IB3VIYZZH", Name: "Amazon.fr", CountryCode: "fr", Currency: "EUR", LanguageCode: "fr_FR"},
	{ID: "A1RKKUPIHCS9HS", Name: "Amazon.es", CountryCode: "es", Currency: "EUR", LanguageCode: "es_ES"},
	{ID: "APJ6JRA9NG5V4", Name: "Amazon.it", CountryCode: "it", Currency: "EUR", LanguageCode: "it_IT"},
	{ID: "A1F83G8C2ARO7P", Name: "Amazon.co.uk", CountryCode: "gb", Currency: "GBP", LanguageCode: "en_GB"},
	{ID: "A1805IZSGTT6HS", Name: "Amazon.nl", CountryCode: "nl", Currency: "EUR", LanguageCode: "nl_NL"},
	{ID: "ATVPDKIKX0DER", Name: "Amazon.com", CountryCode: "us", Currency: "USD", LanguageCode: "en_US"},
}

// regionEndpoints maps backend regions to MWS endpoint hosts. Validation of
// Backend.Region checks membership here.
var regionEndpoints = map[string]string{
	"de": "mws-eu.amazonservices.com",
	"fr": "mws-eu.amazonservices.com",
	"es": "mws-eu.amazonservices.com",
	"it": "mws-eu.amazonservices.com",
	"gb": "mws-eu.amazonservices.com",
	"nl": "mws-eu.amazonservices.com",
	"us": "mws.amazonservices.com",
}

// EndpointHost returns the MWS host for a region.
func EndpointHost(region string) (string, bool) {
	host, ok := regionEndpoints[region]
	return host, ok
}

// MarketplaceByID looks up a catalogue entry by MWS marketplace ID.
func MarketplaceByID(id string) (Marketplace, bool) {
	for _, m := range Catalogue {
		if m.ID == id {
			return m, true
		}
	}
	return Marketplace{}, false
}

// MarketplaceByCountry looks up a catalogue entry by country code.
func MarketplaceByCountry(code string) (Marketplace, bool) {
	for _, m := range Catalogue {
		if m.CountryCode == code {
			return m, true
		}
	}
	return Marketplace{}, false
}
