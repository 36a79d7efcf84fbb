package olx

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// findPayload decodes the JSON object following marker in the first matching script.
func findPayload(scripts *goquery.Selection, marker string) (map[string]any, bool) {
	var payload map[string]any
	found := false
	scripts.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, marker) {
			return true
		}
		raw, ok := extractJSONObject(text, marker)
		if !ok {
			return true
		}
		decoder := json.NewDecoder(strings.NewReader(raw))
		decoder.UseNumber()
		if err := decoder.Decode(&payload); err != nil {
			return true
		}
		found = true
		return false
	})
	return payload, found
}

// extractJSONObject returns the brace-balanced object starting at the first "{" after marker.
// Braces inside string literals are ignored.
func extractJSONObject(text, marker string) (string, bool) {
	idx := strings.Index(text, marker)
	if idx < 0 {
		return "", false
	}
	start := strings.IndexByte(text[idx+len(marker):], '{')
	if start < 0 {
		return "", false
	}
	start += idx + len(marker)

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// parsePageCount reads the page count from the script carrying pageCountMarker.
// The value follows the last ":" of the comma-separated part holding the marker.
func parsePageCount(doc *goquery.Document) (int, bool) {
	count, found := 0, false
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, pageCountMarker) {
			return true
		}
		for _, part := range strings.Split(text, ",") {
			if !strings.Contains(part, pageCountMarker) {
				continue
			}
			segments := strings.Split(part, ":")
			n, err := strconv.Atoi(digitsOnly(segments[len(segments)-1]))
			if err != nil {
				return true
			}
			count, found = n, true
			return false
		}
		return true
	})
	return count, found
}

type trackingPayload struct {
	adID     string
	price    *int64
	currency *string
}

func parseTrackingPayload(doc *goquery.Document) (trackingPayload, bool) {
	payload, ok := findPayload(doc.Find("head script"), trackingMarker)
	if !ok {
		return trackingPayload{}, false
	}
	id, ok := payloadString(payload, trackingAdID)
	if !ok {
		return trackingPayload{}, false
	}

	tracking := trackingPayload{adID: id}
	if raw, ok := payloadString(payload, trackingPrice); ok {
		tracking.price = cleanPrice(raw)
	}
	if currency, ok := payloadString(payload, trackingCurrency); ok {
		tracking.currency = &currency
	}
	return tracking, true
}

// parseTargetingPayload returns the ad targeting attributes, or nil when the page has none.
func parseTargetingPayload(doc *goquery.Document) map[string]any {
	payload, ok := findPayload(doc.Find("script"), targetingMarker)
	if !ok {
		return nil
	}
	return payload
}

// payloadString returns the value under key as text. Lists yield their first non-empty element.
func payloadString(payload map[string]any, key string) (string, bool) {
	v, ok := payload[key]
	if !ok {
		return "", false
	}
	s := valueToString(v)
	return s, s != ""
}

// valueToString renders a decoded JSON value. Empty strings, "-" and null count as missing.
func valueToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		v = strings.TrimSpace(v)
		if v == "-" {
			return ""
		}
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		for _, item := range v {
			if s := valueToString(item); s != "" {
				return s
			}
		}
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

var priceNoise = regexp.MustCompile(`[^\d.,]`)

// cleanPrice parses a price like "2 500,00 zł" into whole units.
func cleanPrice(raw string) *int64 {
	cleaned := strings.ReplaceAll(priceNoise.ReplaceAllString(raw, ""), ",", ".")
	if cleaned == "" {
		return nil
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	n := int64(price)
	return &n
}

func digitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
