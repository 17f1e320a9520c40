// Package domain defines the core business types for gtin-price-compare.
package domain

import (
	"time"
)

// Source identifies the marketplace an offer came from.
type Source string

// Marketplace source constants.
const (
	SourceEbay   Source = "ebay"
	SourceAmazon Source = "amazon"
)

// Status classifies the outcome of an aggregation.
type Status string

// Aggregation status constants.
const (
	StatusSuccess   Status = "success"
	StatusNoResults Status = "no_results"
)

// FailureReason classifies why an aggregation produced no usable offers.
type FailureReason string

// Failure reason constants.
const (
	ReasonKeywordMismatch FailureReason = "keyword_mismatch"
	ReasonNoAPIs          FailureReason = "no_apis"
	ReasonAPIFailure      FailureReason = "api_failure"
	ReasonNoResults       FailureReason = "no_results"
)

// DefaultLocale is used when a query does not carry a country code.
const DefaultLocale = "US"

// ProductQuery describes a single price comparison request.
// Treated as immutable once constructed.
type ProductQuery struct {
	Identifier     string `json:"identifier"`                // GTIN / UPC / EAN
	Locale         string `json:"locale,omitempty"`          // ISO country code, default "US"
	ReferenceTitle string `json:"reference_title,omitempty"` // known product title, may be empty
}

// Normalize returns a copy with defaults filled in, leaving the original
// untouched.
func (q ProductQuery) Normalize() ProductQuery {
	if q.Locale == "" {
		q.Locale = DefaultLocale
	}
	return q
}

// Offer is a single marketplace's priced listing for a product.
// Never mutated after creation.
type Offer struct {
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency"`
	URL         string   `json:"url"`
	ImageURL    string   `json:"image_url,omitempty"`
	Source      Source   `json:"source"`
	Locale      string   `json:"locale"`
	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`
	Prime       bool     `json:"prime,omitempty"`
}

// AggregateResult is the structured outcome of a compare call.
//
// Invariant: if Status is StatusSuccess, OverallBest equals AllMatching[0]
// and AllMatching is non-empty and sorted by price ascending. If Status is
// StatusNoResults, AllMatching is empty and Reason is set.
type AggregateResult struct {
	Status         Status            `json:"status"`
	Reason         FailureReason     `json:"reason,omitempty"`
	OverallBest    *Offer            `json:"overall_best,omitempty"`
	BestBySource   map[Source]*Offer `json:"best_by_source"`
	AllMatching    []Offer           `json:"all_matching"`
	CountsBySource map[Source]int    `json:"counts_by_source"`
	Errors         map[Source]string `json:"errors,omitempty"`
	Locale         string            `json:"locale"`
	Cached         bool              `json:"cached"`
}

// BestFor returns the cheapest matching offer for a source, or nil.
func (r *AggregateResult) BestFor(s Source) *Offer {
	if r.BestBySource == nil {
		return nil
	}
	return r.BestBySource[s]
}

// FailureRecord captures a lookup that produced no usable offers.
// A repeat failure for the same identifier within the dedup window updates
// the existing record and increments AttemptCount instead of creating a
// new one.
type FailureRecord struct {
	ID           string            `json:"id"            db:"id"`
	Identifier   string            `json:"identifier"    db:"identifier"`
	Locale       string            `json:"locale"        db:"locale"`
	Timestamp    time.Time         `json:"timestamp"     db:"timestamp"`
	Errors       map[Source]string `json:"errors"        db:"errors"`
	Reason       FailureReason     `json:"reason"        db:"reason"`
	AttemptCount int               `json:"attempt_count" db:"attempt_count"`
}

// CacheStats summarizes the result cache for operators.
type CacheStats struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Expired int `json:"expired"`
}
