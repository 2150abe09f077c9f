package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"talentsearch/internal/types"
)

// PageStore persists frozen result pages in search_result_pages.
type PageStore struct {
	db DB
}

// NewPageStore creates a PageStore backed by db.
func NewPageStore(db DB) *PageStore {
	return &PageStore{db: db}
}

// GetPage returns the cached page, or found=false when it has not been
// computed yet.
func (s *PageStore) GetPage(ctx context.Context, searchID string, pageIndex int) (*types.ResultPage, bool, error) {
	query := `
		SELECT candidate_ids
		FROM search_result_pages
		WHERE search_id = $1 AND page_index = $2
	`

	var ids []string
	err := s.db.QueryRow(ctx, query, searchID, pageIndex).Scan(&ids)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get result page: %w", err)
	}

	return &types.ResultPage{
		SearchID:     searchID,
		PageIndex:    pageIndex,
		CandidateIDs: nonNil(ids),
		Source:       types.PageSourceDatabase,
	}, true, nil
}

// PutPage stores a page unless one already exists for the same key, and
// returns whichever page is stored. The first writer wins, so concurrent
// callers all observe the same ids.
func (s *PageStore) PutPage(ctx context.Context, page types.ResultPage) (*types.ResultPage, error) {
	query := `
		INSERT INTO search_result_pages (search_id, page_index, candidate_ids)
		VALUES ($1, $2, $3)
		ON CONFLICT (search_id, page_index)
		DO UPDATE SET candidate_ids = search_result_pages.candidate_ids
		RETURNING candidate_ids
	`

	var stored []string
	err := s.db.QueryRow(ctx, query, page.SearchID, page.PageIndex, nonNil(page.CandidateIDs)).Scan(&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to store result page: %w", err)
	}

	return &types.ResultPage{
		SearchID:     page.SearchID,
		PageIndex:    page.PageIndex,
		CandidateIDs: nonNil(stored),
		Source:       page.Source,
	}, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
