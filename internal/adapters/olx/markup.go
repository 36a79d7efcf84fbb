package olx

import "olx-parser-service/internal/core/domain"

// Page markup the crawler and extractor depend on. Site redesigns only touch this block.
const (
	// result pages
	offerSelector        = ".offer"
	offerAnchorSelector  = "a.linkWithHash"
	emptyResultsSelector = ".emptynew"
	pageCountMarker      = "page_count"

	// listing pages
	titleSelector        = ".offerbody h1"
	posterNameSelector   = ".offerbody h4"
	regionSelector       = ".offerbody .show-map-link"
	mapContainerSelector = ".mapcontainer"
	latAttr              = "data-lat"
	lonAttr              = "data-lon"
	detailsItemSelector  = ".offerbody .item"
	descriptionSelector  = "#textContent"
	imageSelector        = ".offerbody .bigImage"
	dateAddedSelector    = ".offer-titlebox__details em"
	rentLabel            = "Czynsz"

	trackingMarker  = "pageView"
	targetingMarker = "GPT.targeting"
)

// Keys inside the embedded payloads
const (
	trackingAdID     = "ad_id"
	trackingPrice    = "ad_price"
	trackingCurrency = "price_currency"

	targetingRooms           = "rooms"
	targetingFloor           = "floor_select"
	targetingBuiltType       = "builttype"
	targetingFurniture       = "furniture"
	targetingPrivateBusiness = "private_business"
	targetingAdsCount        = "ads_count"
)

// siteFilterNames maps filter keys to the bracketed names the site expects after "search".
var siteFilterNames = map[domain.FilterKey]string{
	domain.FilterPriceFrom:   "[filter_float_price:from]",
	domain.FilterPriceTo:     "[filter_float_price:to]",
	domain.FilterSurfaceFrom: "[filter_float_m:from]",
	domain.FilterSurfaceTo:   "[filter_float_m:to]",
	domain.FilterRooms:       "[filter_enum_rooms][0]",
	domain.FilterFurniture:   "[filter_enum_furniture][0]",
	domain.FilterFloor:       "[filter_enum_floor_select][0]",
	domain.FilterBuiltType:   "[filter_enum_builttype][0]",
}

var roomWords = []string{"one", "two", "three", "four"}

// roomNumbers is the inverse of roomWords as used by the targeting payload.
var roomNumbers = map[string]int{
	"one":   1,
	"two":   2,
	"three": 3,
	"four":  4,
}

const (
	maxRooms      = 4
	minFloor      = -1
	maxFloor      = 10
	floorAboveMax = 11
	// floorAttic is accepted as is although it lies above maxFloor.
	floorAttic = 17
)

// polishMonths maps genitive month names to month numbers.
var polishMonths = map[string]int{
	"stycznia":     1,
	"lutego":       2,
	"marca":        3,
	"kwietnia":     4,
	"maja":         5,
	"czerwca":      6,
	"lipca":        7,
	"sierpnia":     8,
	"września":     9,
	"wrzesnia":     9,
	"października": 10,
	"pazdziernika": 10,
	"listopada":    11,
	"grudnia":      12,
}
