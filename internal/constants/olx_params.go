package constants

// Site defaults. They can be overridden through configuration but are never mutated at runtime.
const (
	OlxBaseURL = "https://www.olx.pl"
	// FeaturedOffersPerPage is the number of promoted slots opening every result page.
	FeaturedOffersPerPage = 3
	OlxTimezone           = "Europe/Warsaw"
	SourceName            = "olx"
)

// OlxWhitelistedDomains returns the hosts whose listing URLs are accepted.
func OlxWhitelistedDomains() []string {
	return []string{"olx.pl", "www.olx.pl"}
}

// Category path segments
const (
	CategoryRealEstate = "nieruchomosci"
	CategoryFlats      = "mieszkania"
	CategoryHouses     = "domy"
	DealRent           = "wynajem"
	DealSale           = "sprzedaz"
)
