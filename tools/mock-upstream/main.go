// Package main implements a mock upstream server for local development.
// It simulates the eBay OAuth token endpoint, the eBay Browse API, and the
// ASIN Data API with canned responses from a JSON fixture, so the full
// compare pipeline can run without real marketplace credentials.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

type fixture struct {
	EbayItems     []json.RawMessage `json:"ebay_items"`
	AmazonResults []json.RawMessage `json:"amazon_results"`
}

type browseAPIResponse struct {
	ItemSummaries []json.RawMessage `json:"itemSummaries"`
	Total         int               `json:"total"`
	Limit         int               `json:"limit"`
}

type titledItem struct {
	Title string `json:"title"`
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "tools/mock-upstream/testdata/fixture.json", "path to response fixture")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fx, err := loadFixture(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture",
		"ebay_items", len(fx.EbayItems),
		"amazon_results", len(fx.AmazonResults),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /identity/v1/oauth2/token", tokenHandler(logger))
	mux.HandleFunc("GET /buy/browse/v1/item_summary/search", browseHandler(logger, fx.EbayItems))
	mux.HandleFunc("GET /request", asinDataHandler(logger, fx.AmazonResults))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock upstream server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return &fx, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func tokenHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Validate Basic Auth header is present (don't verify creds).
		if _, _, ok := r.BasicAuth(); !ok {
			logger.Warn("token request missing Basic Auth header")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
			json.NewEncoder(w).Encode(map[string]string{
				"error":             "invalid_client",
				"error_description": "client authentication failed",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "mock-token-v1-" + strconv.FormatInt(int64(os.Getpid()), 16),
			"expires_in":   7200,
			"token_type":   "Application Access Token",
		})
		logger.Info("issued mock token")
	}
}

type indexedItem struct {
	raw   json.RawMessage
	title string
}

// indexTitles pre-parses item titles for substring filtering.
func indexTitles(raw []json.RawMessage) []indexedItem {
	items := make([]indexedItem, 0, len(raw))
	for _, r := range raw {
		var t titledItem
		//nolint:errcheck,gosec // fixture data is trusted; title extraction is best-effort
		json.Unmarshal(r, &t)
		items = append(items, indexedItem{raw: r, title: strings.ToLower(t.Title)})
	}
	return items
}

func browseHandler(logger *slog.Logger, ebayItems []json.RawMessage) http.HandlerFunc {
	items := indexTitles(ebayItems)

	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		q := strings.ToLower(r.URL.Query().Get("q"))
		limit := 50
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
			limit = v
		}

		// A GTIN query matches everything; the fixture stands in for
		// whatever the real API would return. A title query filters by
		// substring so relevance scenarios can be simulated.
		matched := make([]json.RawMessage, 0, len(items))
		for _, item := range items {
			if q == "" || isNumericQuery(q) || strings.Contains(item.title, q) {
				matched = append(matched, item.raw)
			}
		}

		total := len(matched)
		if len(matched) > limit {
			matched = matched[:limit]
		}

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		json.NewEncoder(w).Encode(browseAPIResponse{
			ItemSummaries: matched,
			Total:         total,
			Limit:         limit,
		})
		logger.Info("browse search", "query", q, "matched", total, "returned", len(matched))
	}
}

func asinDataHandler(logger *slog.Logger, amazonResults []json.RawMessage) http.HandlerFunc {
	items := indexTitles(amazonResults)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Query().Get("api_key") == "" {
			//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
			json.NewEncoder(w).Encode(map[string]any{
				"request_info": map[string]any{
					"success": false,
					"message": "Missing or invalid api_key parameter",
				},
			})
			return
		}

		term := strings.ToLower(r.URL.Query().Get("search_term"))
		matched := make([]json.RawMessage, 0, len(items))
		for _, item := range items {
			if term == "" || isNumericQuery(term) || strings.Contains(item.title, term) {
				matched = append(matched, item.raw)
			}
		}

		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		json.NewEncoder(w).Encode(map[string]any{
			"request_info":   map[string]any{"success": true},
			"search_results": matched,
		})
		logger.Info("asin data search",
			"term", term,
			"domain", r.URL.Query().Get("amazon_domain"),
			"returned", len(matched),
		)
	}
}

func isNumericQuery(q string) bool {
	for _, r := range q {
		if r < '0' || r > '9' {
			return false
		}
	}
	return q != ""
}
