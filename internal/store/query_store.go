package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	talentErrors "talentsearch/internal/errors"
	"talentsearch/internal/filter"
	"talentsearch/internal/types"
)

// QueryStore persists search requests and their generated filters in the
// search_requests table.
type QueryStore struct {
	db DB
}

// NewQueryStore creates a QueryStore backed by db.
func NewQueryStore(db DB) *QueryStore {
	return &QueryStore{db: db}
}

// CreateSearch stores a new search request and returns it with its id set.
func (s *QueryStore) CreateSearch(ctx context.Context, ownerID, rawInputText string) (*types.SearchRequest, error) {
	req := &types.SearchRequest{
		SearchID:     uuid.NewString(),
		OwnerID:      ownerID,
		RawInputText: rawInputText,
	}

	query := `
		INSERT INTO search_requests (search_id, owner_id, raw_input_text)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query, req.SearchID, ownerID, rawInputText).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	return req, nil
}

// GetSearch loads a search request. A missing row or a row without input
// text is reported as a not_found AppError.
func (s *QueryStore) GetSearch(ctx context.Context, searchID string) (*types.SearchRequest, error) {
	query := `
		SELECT search_id, owner_id, raw_input_text, generated_filter, criteria, created_at, updated_at
		FROM search_requests
		WHERE search_id = $1
	`

	var (
		req          types.SearchRequest
		filterJSON   []byte
		criteriaJSON []byte
	)
	err := s.db.QueryRow(ctx, query, searchID).Scan(
		&req.SearchID,
		&req.OwnerID,
		&req.RawInputText,
		&filterJSON,
		&criteriaJSON,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(searchID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get search request: %w", err)
	}
	if strings.TrimSpace(req.RawInputText) == "" {
		return nil, notFound(searchID)
	}

	if len(filterJSON) > 0 {
		node, err := filter.Parse(filterJSON)
		if err != nil {
			return nil, talentErrors.NewFilterRejectedError(talentErrors.ErrCodeMalformedFilter,
				"cached filter could not be decoded", err).
				WithContext("search_id", searchID)
		}
		req.GeneratedFilter = node
	}
	if len(criteriaJSON) > 0 {
		if err := json.Unmarshal(criteriaJSON, &req.Criteria); err != nil {
			return nil, fmt.Errorf("failed to decode cached criteria: %w", err)
		}
	}

	return &req, nil
}

// SaveGeneration records the generated filter and criteria for a search.
// Concurrent writers race and the last write wins.
func (s *QueryStore) SaveGeneration(ctx context.Context, searchID string, expr *filter.Node, criteria []string) error {
	if expr == nil {
		return fmt.Errorf("cannot save empty filter for search %s", searchID)
	}

	filterJSON, err := json.Marshal(expr)
	if err != nil {
		return fmt.Errorf("failed to encode filter: %w", err)
	}
	criteriaJSON, err := json.Marshal(criteria)
	if err != nil {
		return fmt.Errorf("failed to encode criteria: %w", err)
	}

	query := `
		UPDATE search_requests
		SET generated_filter = $2::jsonb, criteria = $3::jsonb, updated_at = now()
		WHERE search_id = $1
	`
	tag, err := s.db.Exec(ctx, query, searchID, string(filterJSON), string(criteriaJSON))
	if err != nil {
		return fmt.Errorf("failed to save generated filter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(searchID)
	}
	return nil
}

func notFound(searchID string) error {
	return talentErrors.NewNotFoundError(talentErrors.ErrCodeSearchNotFound,
		"search request not found", nil).
		WithContext("search_id", searchID)
}
