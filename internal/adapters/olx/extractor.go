package olx

import (
	"context"
	"olx-parser-service/internal/contextkeys"
	"olx-parser-service/internal/core/domain"
	"olx-parser-service/internal/core/port"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Extractor turns listing pages into ListingRecords.
type Extractor struct {
	fetcher  port.ContentFetcherPort
	location *time.Location
}

func NewExtractor(fetcher port.ContentFetcherPort, location *time.Location) *Extractor {
	if location == nil {
		location = time.UTC
	}
	return &Extractor{fetcher: fetcher, location: location}
}

// Extract returns nil without an error when the listing is unavailable: the page failed
// to load, has no tracking payload or no poster name. An error is only returned when
// ctx is done.
func (e *Extractor) Extract(ctx context.Context, listingURL string) (*domain.ListingRecord, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "OlxExtractor", "url": listingURL})

	doc, err := fetchDocument(ctx, e.fetcher, listingURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn("Listing page unavailable", port.Fields{"error": err.Error()})
		return nil, nil
	}

	record, reason := e.parseListing(doc, listingURL)
	if record == nil {
		logger.Info("Listing skipped", port.Fields{"reason": reason})
		return nil, nil
	}
	logger.Debug("Listing extracted", port.Fields{"listing_id": record.ListingID})
	return record, nil
}

// ExtractMany extracts every URL in order and keeps the ones that are available.
func (e *Extractor) ExtractMany(ctx context.Context, urls []string) []domain.ListingRecord {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "OlxExtractor"})

	records := make([]domain.ListingRecord, 0, len(urls))
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			continue
		}
		record, err := e.Extract(ctx, u)
		if err != nil {
			logger.Warn("Listing extraction interrupted", port.Fields{"url": u, "error": err.Error()})
			continue
		}
		if record != nil {
			records = append(records, *record)
		}
	}
	logger.Info("Batch extraction finished", port.Fields{"requested": len(urls), "extracted": len(records)})
	return records
}

// parseListing returns nil and the reason when the page does not describe an active listing.
func (e *Extractor) parseListing(doc *goquery.Document, listingURL string) (*domain.ListingRecord, string) {
	tracking, ok := parseTrackingPayload(doc)
	if !ok {
		return nil, "tracking payload missing"
	}
	poster := cleanText(doc.Find(posterNameSelector).First().Text())
	if poster == "" {
		return nil, "poster name missing"
	}

	record := &domain.ListingRecord{
		ListingID:   tracking.adID,
		URL:         listingURL,
		Title:       cleanText(doc.Find(titleSelector).First().Text()),
		Price:       tracking.price,
		Currency:    tracking.currency,
		PosterName:  poster,
		Description: cleanText(doc.Find(descriptionSelector).First().Text()),
		GPS:         parseGPS(doc),
		Images:      parseImages(doc),
	}
	record.City, record.Voivodeship, record.District = parseRegion(doc)
	record.Surface, record.AdditionalRent = parseDetailItems(doc)
	record.DateAddedText, record.DateAdded = parseDateAdded(doc, e.location)
	applyTargeting(record, parseTargetingPayload(doc))
	return record, ""
}

// parseRegion splits "City, Voivodeship, District". The district is optional.
func parseRegion(doc *goquery.Document) (city, voivodeship string, district *string) {
	parts := strings.Split(cleanText(doc.Find(regionSelector).First().Text()), ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	city = parts[0]
	if len(parts) > 1 {
		voivodeship = parts[1]
	}
	if len(parts) > 2 && parts[2] != "" {
		district = &parts[2]
	}
	return city, voivodeship, district
}

func parseGPS(doc *goquery.Document) *domain.GPS {
	container := doc.Find(mapContainerSelector).First()
	latRaw, okLat := container.Attr(latAttr)
	lonRaw, okLon := container.Attr(lonAttr)
	if !okLat || !okLon {
		return nil
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return nil
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonRaw), 64)
	if err != nil {
		return nil
	}
	return &domain.GPS{Lat: lat, Lon: lon}
}

// "49,5 m²", "1 200 m2", or "m<sup>2</sup>" which reads as "m2"
var surfacePattern = regexp.MustCompile(`(\d[\d \x{00a0}]*(?:[.,]\d+)?)\s*m\s*(?:²|2)`)

func parseDetailItems(doc *goquery.Document) (surface *float64, rent *int64) {
	doc.Find(detailsItemSelector).Each(func(_ int, item *goquery.Selection) {
		text := item.Text()
		if rent == nil && strings.Contains(text, rentLabel) {
			if n, err := strconv.ParseInt(digitsOnly(text), 10, 64); err == nil {
				rent = &n
			}
			return
		}
		if surface == nil {
			surface = parseSurface(text)
		}
	})
	return surface, rent
}

func parseSurface(text string) *float64 {
	m := surfacePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	number := strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(m[1])
	v, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseImages(doc *goquery.Document) []string {
	var images []string
	doc.Find(imageSelector).Each(func(_ int, img *goquery.Selection) {
		if src := strings.TrimSpace(img.AttrOr("src", "")); src != "" {
			images = append(images, src)
		}
	})
	return images
}

// applyTargeting copies the optional attributes of the targeting payload.
// Values outside the known tables are left unset.
func applyTargeting(record *domain.ListingRecord, targeting map[string]any) {
	if v, ok := payloadString(targeting, targetingRooms); ok {
		if n, known := roomNumbers[v]; known {
			record.Rooms = &n
		}
	}
	if v, ok := payloadString(targeting, targetingFloor); ok {
		if n, err := strconv.Atoi(strings.TrimPrefix(v, "floor_")); err == nil {
			record.Floor = &n
		}
	}
	if v, ok := payloadString(targeting, targetingBuiltType); ok {
		record.BuiltType = &v
	}
	if v, ok := payloadString(targeting, targetingFurniture); ok {
		furnished := v == "yes"
		record.Furniture = &furnished
	}
	if v, ok := payloadString(targeting, targetingPrivateBusiness); ok {
		record.PrivateBusiness = &v
	}
}
