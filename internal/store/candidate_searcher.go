package store

import (
	"context"
	"fmt"

	"talentsearch/internal/filter"
	"talentsearch/internal/types"
)

const candidateSearchQuery = `
		SELECT c.id::text
		FROM candidates c
		LEFT JOIN experiences e ON e.candidate_id = c.id
		LEFT JOIN companies co ON co.id = e.company_id
		LEFT JOIN educations ed ON ed.candidate_id = c.id
		LEFT JOIN publications p ON p.candidate_id = c.id
		WHERE %s
		GROUP BY c.id
		ORDER BY c.id ASC
		LIMIT $%d OFFSET $%d
	`

// CandidateSearcher runs validated filters against the candidate tables
// and returns one page of matching candidate ids.
type CandidateSearcher struct {
	db       DB
	pageSize int
}

// NewCandidateSearcher creates a searcher returning types.PageSize ids per page.
func NewCandidateSearcher(db DB) *CandidateSearcher {
	return &CandidateSearcher{db: db, pageSize: types.PageSize}
}

// BuildQuery renders the page query for expr and returns it with its
// arguments. Only compiled column names and placeholders reach the text.
func (s *CandidateSearcher) BuildQuery(expr *filter.Validated, pageIndex int) (string, []any) {
	compiled := expr.Compile(1)
	limitParam := compiled.NextParam(1)

	query := fmt.Sprintf(candidateSearchQuery, compiled.SQL, limitParam, limitParam+1)
	args := append(compiled.Args, s.pageSize, pageIndex*s.pageSize)
	return query, args
}

// SearchPage returns the candidate ids on pageIndex. An empty slice means
// the page is past the end of the results.
func (s *CandidateSearcher) SearchPage(ctx context.Context, expr *filter.Validated, pageIndex int) ([]string, error) {
	if expr == nil {
		return nil, fmt.Errorf("search requires a validated filter")
	}
	if pageIndex < 0 {
		return nil, fmt.Errorf("invalid page index %d", pageIndex)
	}

	query, args := s.BuildQuery(expr, pageIndex)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0, s.pageSize)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan candidate id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read candidate rows: %w", err)
	}

	return ids, nil
}
