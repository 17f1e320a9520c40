package amazon

import "encoding/json"

// searchAPIResponse is the ASIN Data API type=search response envelope.
type searchAPIResponse struct {
	RequestInfo   RequestInfo    `json:"request_info"`
	SearchResults []SearchResult `json:"search_results"`
}

// RequestInfo reports whether the upstream accepted the request. The API
// returns 200 with success=false on quota and key errors.
type RequestInfo struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SearchResult is a single product in a search response.
type SearchResult struct {
	ASIN         string          `json:"asin"`
	Title        string          `json:"title"`
	Link         string          `json:"link"`
	Image        string          `json:"image"`
	Rating       float64         `json:"rating"`
	RatingsTotal int             `json:"ratings_total"`
	Prime        bool            `json:"prime"`
	Price        json.RawMessage `json:"price,omitempty"`
	PriceUpper   json.RawMessage `json:"price_upper,omitempty"`
	PriceLower   json.RawMessage `json:"price_lower,omitempty"`
	CurrentPrice json.RawMessage `json:"current_price,omitempty"`
}

// priceObject is the structured form a price field may take.
type priceObject struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
	Raw      string  `json:"raw"`
}
