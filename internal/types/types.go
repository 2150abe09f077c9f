package types

import (
	"time"

	"talentsearch/internal/filter"
)

// PageSize is the number of candidate ids in one result page.
const PageSize = 10

// SearchRequest is a submitted natural-language search and its cached
// generation output.
type SearchRequest struct {
	SearchID        string       `json:"searchId"`
	OwnerID         string       `json:"ownerId"`
	RawInputText    string       `json:"rawInputText"`
	GeneratedFilter *filter.Node `json:"generatedFilter,omitempty"`
	Criteria        []string     `json:"criteria,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// HasGeneration reports whether a filter has been generated for the search.
func (r *SearchRequest) HasGeneration() bool {
	return r.GeneratedFilter != nil
}

// ResultPage is a frozen page of candidate ids for one search.
type ResultPage struct {
	SearchID     string   `json:"searchId"`
	PageIndex    int      `json:"pageIndex"`
	CandidateIDs []string `json:"candidateIds"`
	// Source names the layer the page was served from. It is not persisted.
	Source string `json:"-"`
}

// Page sources reported in metrics and logs.
const (
	PageSourceDatabase = "page_cache"
	PageSourceRedis    = "redis"
	PageSourceComputed = "computed"
)

// PageResult is returned to callers of ExecuteSearchPage.
type PageResult struct {
	NextPageIndex int      `json:"nextPageIndex"`
	Results       []string `json:"results"`
}

// GeneratedQuery is the decoded output of the criteria/filter generator.
type GeneratedQuery struct {
	Criteria []string     `json:"criteria"`
	Filter   *filter.Node `json:"filter"`
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	TotalTokens  int64 `json:"totalTokens"`
}

// CreateSearchInput is the payload for creating a search.
type CreateSearchInput struct {
	OwnerID string `json:"ownerId"`
	Query   string `json:"query"`
}

// CreateSearchOutput is returned after a search is created.
type CreateSearchOutput struct {
	SearchID string `json:"searchId"`
}

// SearchPageInput is the payload for fetching one result page.
type SearchPageInput struct {
	SearchID  string `json:"searchId"`
	PageIndex int    `json:"pageIndex"`
}

// FilterCheckOutput is the offline validation report for a filter document.
type FilterCheckOutput struct {
	Expression string `json:"expression"`
	Depth      int    `json:"depth"`
	Atoms      int    `json:"atoms"`
	SQL        string `json:"sql"`
	Args       []any  `json:"args"`
}
