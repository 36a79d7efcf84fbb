package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"olx-parser-service/internal/constants"
	"olx-parser-service/internal/contextkeys"
	"olx-parser-service/internal/contracts"
	"olx-parser-service/internal/core/domain"
	"olx-parser-service/internal/core/port"
	usecases_port "olx-parser-service/internal/core/port/usecases"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// SearchURLBuilder renders the result page URL of a search.
type SearchURLBuilder interface {
	SearchURL(query domain.SearchQuery, page int) (string, []domain.FilterRejection)
}

type ParserHandlers struct {
	appName    string
	searches   []domain.NamedSearch
	urls       SearchURLBuilder
	lastRunUC  usecases_port.GetLastRunUseCase
	startCrawl usecases_port.StartCrawlPort
}

func NewParserHandlers(
	appName string,
	searches []domain.NamedSearch,
	urls SearchURLBuilder,
	lastRunUC usecases_port.GetLastRunUseCase,
	startCrawl usecases_port.StartCrawlPort,
) *ParserHandlers {
	return &ParserHandlers{
		appName:    appName,
		searches:   searches,
		urls:       urls,
		lastRunUC:  lastRunUC,
		startCrawl: startCrawl,
	}
}

// HandleHealth - GET /api/v1/health
func (h *ParserHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, HealthDTO{Status: "ok", App: h.appName})
}

// HandleListSearches - GET /api/v1/searches
func (h *ParserHandlers) HandleListSearches(w http.ResponseWriter, r *http.Request) {
	searches := h.searches
	if searches == nil {
		searches = []domain.NamedSearch{}
	}
	RespondWithJSON(w, http.StatusOK, searches)
}

// HandleLastRun - GET /api/v1/searches/{name}/last-run
func (h *ParserHandlers) HandleLastRun(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleLastRun", "search": name})

	run, err := h.lastRunUC.Execute(r.Context(), name)
	if err != nil {
		logger.Error("Failed to load last run", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to load last run")
		return
	}
	if run == nil {
		WriteJSONError(w, http.StatusNotFound, fmt.Sprintf("No runs recorded for search '%s'", name))
		return
	}

	RespondWithJSON(w, http.StatusOK, run)
}

// HandleSearchURL - POST /api/v1/search-url?page=N
func (h *ParserHandlers) HandleSearchURL(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			WriteJSONError(w, http.StatusBadRequest, "Query parameter 'page' must be a positive integer")
			return
		}
		page = p
	}

	var query domain.SearchQuery
	if status, msg := decodeValidated(r, contracts.TypeSearchQuery, &query); status != 0 {
		WriteJSONError(w, status, msg)
		return
	}

	url, rejected := h.urls.SearchURL(query, page)
	if rejected == nil {
		rejected = []domain.FilterRejection{}
	}
	RespondWithJSON(w, http.StatusOK, SearchURLResponseDTO{URL: url, RejectedFilters: rejected})
}

// HandleStartCrawl - POST /api/v1/crawls
func (h *ParserHandlers) HandleStartCrawl(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleStartCrawl"})

	var req CrawlRequestDTO
	if status, msg := decodeValidated(r, contracts.TypeCrawlRequest, &req); status != 0 {
		WriteJSONError(w, status, msg)
		return
	}

	search := domain.NamedSearch{Name: req.Name}
	if req.Query != nil {
		search.Query = *req.Query
	} else {
		predefined, ok := constants.FindSearch(h.searches, req.Name)
		if !ok {
			WriteJSONError(w, http.StatusNotFound, fmt.Sprintf("Unknown search '%s'", req.Name))
			return
		}
		search = predefined
	}

	// the crawl outlives the request
	runID, err := h.startCrawl.Execute(context.WithoutCancel(r.Context()), search)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSearch) {
			WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("Failed to start crawl", err, port.Fields{"search": search.Name})
		WriteJSONError(w, http.StatusInternalServerError, "Failed to start crawl")
		return
	}

	RespondWithJSON(w, http.StatusAccepted, CrawlStartedDTO{RunID: runID.String()})
}

// decodeValidated reads the body, checks it against the named schema and decodes it into dst.
// A zero status means success.
func decodeValidated(r *http.Request, schemaType string, dst interface{}) (int, string) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return http.StatusBadRequest, fmt.Sprintf("Failed to read request body: %v", err)
	}
	if len(body) == 0 {
		return http.StatusBadRequest, "Request body is empty"
	}
	if err := contracts.Validate(schemaType, contracts.Version1, body); err != nil {
		return http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err)
	}
	return 0, ""
}
