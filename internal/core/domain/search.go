package domain

// FilterKey names one of the supported search-narrowing filters
type FilterKey string

const (
	FilterPriceFrom   FilterKey = "price_from"
	FilterPriceTo     FilterKey = "price_to"
	FilterSurfaceFrom FilterKey = "surface_from"
	FilterSurfaceTo   FilterKey = "surface_to"
	FilterRooms       FilterKey = "rooms"
	FilterFurniture   FilterKey = "furniture"
	FilterFloor       FilterKey = "floor"
	FilterBuiltType   FilterKey = "built_type"
)

// Built types accepted by the built_type filter
const (
	BuiltTypeBlok            = "blok"
	BuiltTypeKamienica       = "kamienica"
	BuiltTypeSzeregowiec     = "szeregowiec"
	BuiltTypeApartamentowiec = "apartamentowiec"
	BuiltTypeWolnostojacy    = "wolnostojacy"
	BuiltTypeLoft            = "loft"
)

// BuiltTypes returns the accepted built_type values in their canonical order.
func BuiltTypes() []string {
	return []string{
		BuiltTypeBlok,
		BuiltTypeKamienica,
		BuiltTypeSzeregowiec,
		BuiltTypeApartamentowiec,
		BuiltTypeWolnostojacy,
		BuiltTypeLoft,
	}
}

// IsValidBuiltType reports whether v is one of the accepted built types.
func IsValidBuiltType(v string) bool {
	for _, bt := range BuiltTypes() {
		if bt == v {
			return true
		}
	}
	return false
}

// SearchFilter is one key/value pair narrowing a search.
// Value is loosely typed because filters arrive from JSON, YAML and Go code alike;
// the URL builder validates and converts it.
type SearchFilter struct {
	Key   FilterKey `json:"key" yaml:"key"`
	Value any       `json:"value" yaml:"value"`
}

func PriceFrom(v int) SearchFilter       { return SearchFilter{Key: FilterPriceFrom, Value: v} }
func PriceTo(v int) SearchFilter         { return SearchFilter{Key: FilterPriceTo, Value: v} }
func SurfaceFrom(v float64) SearchFilter { return SearchFilter{Key: FilterSurfaceFrom, Value: v} }
func SurfaceTo(v float64) SearchFilter   { return SearchFilter{Key: FilterSurfaceTo, Value: v} }
func Rooms(v int) SearchFilter           { return SearchFilter{Key: FilterRooms, Value: v} }
func Furniture(v bool) SearchFilter      { return SearchFilter{Key: FilterFurniture, Value: v} }
func Floor(v int) SearchFilter           { return SearchFilter{Key: FilterFloor, Value: v} }
func BuiltType(v string) SearchFilter    { return SearchFilter{Key: FilterBuiltType, Value: v} }

// SearchQuery describes one category/region/filter search.
// It is built by the caller and never mutated by the crawler.
type SearchQuery struct {
	MainCategory   string         `json:"main_category,omitempty" yaml:"main_category"`
	SubCategory    string         `json:"sub_category,omitempty" yaml:"sub_category"`
	DetailCategory string         `json:"detail_category,omitempty" yaml:"detail_category"`
	Region         string         `json:"region,omitempty" yaml:"region"`
	SearchQuery    string         `json:"search_query,omitempty" yaml:"search_query"`
	Filters        []SearchFilter `json:"filters,omitempty" yaml:"filters"`
	// OverrideURL replaces the category/region path but still receives filters and page.
	OverrideURL string `json:"url,omitempty" yaml:"url"`
}

// HasCategory reports whether any category level is set.
func (q SearchQuery) HasCategory() bool {
	return q.MainCategory != "" || q.SubCategory != "" || q.DetailCategory != ""
}

// NamedSearch is a SearchQuery with a stable name used for bookkeeping.
type NamedSearch struct {
	Name  string      `json:"name" yaml:"name"`
	Query SearchQuery `json:"query" yaml:"query"`
}

// FilterRejection records a filter dropped by the URL builder.
type FilterRejection struct {
	Key    FilterKey `json:"key"`
	Value  any       `json:"value"`
	Reason string    `json:"reason"`
}
