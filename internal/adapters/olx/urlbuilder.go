package olx

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"olx-parser-service/internal/core/domain"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var polishCharacters = strings.NewReplacer(
	"ą", "a", "ć", "c", "ę", "e", "ł", "l", "ń", "n",
	"ó", "o", "ś", "s", "ż", "z", "ź", "z",
)

// URLBuilder turns a SearchQuery into result page URLs. It holds no mutable state.
type URLBuilder struct {
	baseURL string
}

func NewURLBuilder(baseURL string) *URLBuilder {
	return &URLBuilder{baseURL: strings.TrimRight(baseURL, "/")}
}

// BuildSearchURL returns the URL of the given result page. Pages below 2 get no page parameter.
// Filters that fail validation are left out of the URL and reported back.
func (b *URLBuilder) BuildSearchURL(query domain.SearchQuery, page int) (string, []domain.FilterRejection) {
	var sb strings.Builder
	sb.WriteString(b.searchPath(query))

	var rejected []domain.FilterRejection
	for _, f := range query.Filters {
		param, err := BuildFilterParam(f.Key, f.Value)
		if err != nil {
			rejected = append(rejected, domain.FilterRejection{Key: f.Key, Value: f.Value, Reason: err.Error()})
			continue
		}
		sb.WriteString(param)
		sb.WriteString("&")
	}

	if page > 1 {
		sb.WriteString("page=")
		sb.WriteString(strconv.Itoa(page))
	}
	return sb.String(), rejected
}

// searchPath returns everything up to and including the "?" that opens the query string.
func (b *URLBuilder) searchPath(query domain.SearchQuery) string {
	if override := strings.TrimSpace(query.OverrideURL); override != "" {
		switch {
		case !strings.Contains(override, "?"):
			return override + "?"
		case strings.HasSuffix(override, "?"), strings.HasSuffix(override, "&"):
			return override
		default:
			return override + "&"
		}
	}

	if query.SearchQuery != "" && !query.HasCategory() && query.Region == "" {
		return b.baseURL + "/oferty/q-" + querySlug(query.SearchQuery) + "/?"
	}

	segments := []string{b.baseURL}
	for _, category := range []string{query.MainCategory, query.SubCategory, query.DetailCategory} {
		if category = strings.Trim(strings.TrimSpace(category), "/"); category != "" {
			segments = append(segments, url.PathEscape(category))
		}
	}
	if slug := RegionSlug(query.Region); slug != "" {
		segments = append(segments, url.PathEscape(slug))
	}
	if query.SearchQuery != "" {
		segments = append(segments, "q-"+querySlug(query.SearchQuery))
	}
	segments = append(segments, "?")
	return strings.Join(segments, "/")
}

// RegionSlug lower-cases the region, folds Polish diacritics to ASCII and joins words with "-".
func RegionSlug(region string) string {
	// a Caser keeps state, so one is created per call
	lowered := cases.Lower(language.Polish).String(region)
	return strings.Join(strings.Fields(polishCharacters.Replace(lowered)), "-")
}

func querySlug(q string) string {
	return url.PathEscape(strings.Join(strings.Fields(q), "-"))
}

// BuildFilterParam encodes one filter as "search[...]=value" with the key percent-encoded.
// Invalid values are reported with an error wrapping domain.ErrFilterRejected.
func BuildFilterParam(key domain.FilterKey, value any) (string, error) {
	name, ok := siteFilterNames[key]
	if !ok {
		return "", fmt.Errorf("%w: unknown filter %q", domain.ErrFilterRejected, key)
	}
	encoded, err := encodeFilterValue(key, value)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrFilterRejected, key, err)
	}
	return url.QueryEscape("search"+name) + "=" + url.QueryEscape(encoded), nil
}

func encodeFilterValue(key domain.FilterKey, value any) (string, error) {
	switch key {
	case domain.FilterPriceFrom, domain.FilterPriceTo:
		n, err := toInt(value)
		if err != nil {
			return "", err
		}
		if n < 0 {
			return "", fmt.Errorf("price %d is negative", n)
		}
		return strconv.FormatInt(n, 10), nil

	case domain.FilterSurfaceFrom, domain.FilterSurfaceTo:
		f, err := toFloat(value)
		if err != nil {
			return "", err
		}
		if f < 0 {
			return "", fmt.Errorf("surface %v is negative", f)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil

	case domain.FilterRooms:
		n, err := toInt(value)
		if err != nil {
			return "", err
		}
		if n < 1 {
			return "", fmt.Errorf("room count %d has no site value", n)
		}
		if n > maxRooms {
			n = maxRooms
		}
		return roomWords[n-1], nil

	case domain.FilterFurniture:
		furnished, err := toBool(value)
		if err != nil {
			return "", err
		}
		if furnished {
			return "yes", nil
		}
		return "no", nil

	case domain.FilterFloor:
		n, err := toInt(value)
		if err != nil {
			return "", err
		}
		if n < minFloor {
			return "", fmt.Errorf("floor %d is below %d", n, minFloor)
		}
		if n > maxFloor && n != floorAttic {
			n = floorAboveMax
		}
		return "floor_" + strconv.FormatInt(n, 10), nil

	case domain.FilterBuiltType:
		s, ok := value.(string)
		if !ok || !domain.IsValidBuiltType(s) {
			return "", fmt.Errorf("built type %v is not one of %s", value, strings.Join(domain.BuiltTypes(), ", "))
		}
		return s, nil
	}
	return "", fmt.Errorf("unsupported filter %q", key)
}

func toInt(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("value %d is out of range", v)
		}
		return int64(v), nil
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("value %q is not a number", v.String())
		}
		return floatToInt(f)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not an integer", v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("value %v (%T) is not an integer", value, value)
}

func floatToInt(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("value %v is not an integer", f)
	}
	return int64(f), nil
}

func toFloat(value any) (float64, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("value %q is not a number", v.String())
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", "."), 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not a number", v)
		}
		f = parsed
	default:
		n, err := toInt(value)
		if err != nil {
			return 0, fmt.Errorf("value %v (%T) is not a number", value, value)
		}
		f = float64(n)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("value %v is not a finite number", f)
	}
	return f, nil
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "yes":
			return true, nil
		case "no":
			return false, nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("value %q is not a boolean", v)
		}
		return b, nil
	}
	return false, fmt.Errorf("value %v (%T) is not a boolean", value, value)
}
