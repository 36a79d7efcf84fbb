package olx

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// "12:34, 5 lipca 2017"
var addedDatePattern = regexp.MustCompile(`(\d{1,2}):(\d{2}),?\s+(\d{1,2})\s+(\p{L}+)\s+(\d{4})`)

// parseDateAdded returns the cleaned "added" text and, when it parses, its epoch seconds.
// The mobile layout puts extra nodes before the date, in which case it is the fifth node.
func parseDateAdded(doc *goquery.Document, loc *time.Location) (string, *int64) {
	em := doc.Find(dateAddedSelector).First()
	if em.Length() == 0 {
		return "", nil
	}
	nodes := em.Contents()
	idx := 0
	if nodes.Length() > 4 {
		idx = 4
	}
	text := cleanDateText(nodes.Eq(idx).Text())
	if text == "" {
		return "", nil
	}
	t, ok := parsePolishDate(text, loc)
	if !ok {
		return text, nil
	}
	ts := t.Unix()
	return text, &ts
}

func cleanDateText(raw string) string {
	s := cleanText(raw)
	s = strings.TrimSpace(strings.TrimPrefix(s, "Dodane"))
	s = strings.TrimPrefix(s, "o ")
	return strings.TrimSpace(strings.TrimSuffix(s, ","))
}

// parsePolishDate parses "HH:MM, D month YYYY" with a genitive Polish month name.
func parsePolishDate(text string, loc *time.Location) (time.Time, bool) {
	m := addedDatePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	month, ok := polishMonths[strings.ToLower(m[4])]
	if !ok {
		return time.Time{}, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	year, _ := strconv.Atoi(m[5])
	if hour > 23 || minute > 59 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc), true
}
