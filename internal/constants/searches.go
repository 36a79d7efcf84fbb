package constants

import (
	"fmt"
	"olx-parser-service/internal/core/domain"
	"os"

	"gopkg.in/yaml.v3"
)

type searchesFile struct {
	Searches []domain.NamedSearch `yaml:"searches"`
}

// DefaultPredefinedSearches returns the searches crawled when no searches file is configured.
func DefaultPredefinedSearches() []domain.NamedSearch {
	return []domain.NamedSearch{
		{
			Name: "gdansk_flats_rent",
			Query: domain.SearchQuery{
				MainCategory:   CategoryRealEstate,
				SubCategory:    CategoryFlats,
				DetailCategory: DealRent,
				Region:         "Gdańsk",
				Filters: []domain.SearchFilter{
					domain.PriceFrom(2000),
				},
			},
		},
	}
}

// LoadPredefinedSearches reads searches from a YAML file of the form
//
//	searches:
//	  - name: gdansk_flats_rent
//	    query:
//	      main_category: nieruchomosci
//	      region: Gdańsk
//	      filters:
//	        - {key: price_from, value: 2000}
func LoadPredefinedSearches(path string) ([]domain.NamedSearch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read searches file: %w", err)
	}

	var file searchesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse searches file: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Searches))
	for i, s := range file.Searches {
		if s.Name == "" {
			return nil, fmt.Errorf("search #%d has no name", i+1)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("duplicate search name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}

	if len(file.Searches) == 0 {
		return nil, fmt.Errorf("searches file %s contains no searches", path)
	}
	return file.Searches, nil
}

// FindSearch looks a search up by name.
func FindSearch(searches []domain.NamedSearch, name string) (domain.NamedSearch, bool) {
	for _, s := range searches {
		if s.Name == name {
			return s, true
		}
	}
	return domain.NamedSearch{}, false
}
