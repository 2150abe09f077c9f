package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	talentErrors "talentsearch/internal/errors"
	"talentsearch/internal/filter"
	"talentsearch/internal/types"
)

// Bounds on the criteria list returned with a generated filter.
const (
	MinCriteria        = 1
	MaxCriteria        = 6
	MaxCriterionLength = 30
)

// generatedQueryDocument is the exact shape the model must return.
type generatedQueryDocument struct {
	Criteria []string        `json:"criteria"`
	Filter   json.RawMessage `json:"filter"`
}

// DecodeGeneratedQuery strictly decodes a model response. Missing, extra or
// mistyped fields and out-of-bounds criteria are generation_parse errors.
// The filter is only decoded here; allow-list checks belong to the
// filter validator.
func DecodeGeneratedQuery(data []byte) (*types.GeneratedQuery, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc generatedQueryDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, malformed("response is not a valid criteria/filter object", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, malformed("unexpected data after response object", nil)
	}

	if doc.Criteria == nil {
		return nil, malformed("response is missing criteria", nil)
	}
	if len(doc.Filter) == 0 || string(doc.Filter) == "null" {
		return nil, malformed("response is missing filter", nil)
	}

	criteria, err := checkCriteria(doc.Criteria)
	if err != nil {
		return nil, err
	}

	node, err := filter.Parse(doc.Filter)
	if err != nil {
		return nil, malformed("filter does not match the expression grammar", err)
	}

	return &types.GeneratedQuery{Criteria: criteria, Filter: node}, nil
}

func checkCriteria(raw []string) ([]string, error) {
	if len(raw) < MinCriteria || len(raw) > MaxCriteria {
		return nil, outOfBounds(fmt.Sprintf("expected %d to %d criteria, got %d", MinCriteria, MaxCriteria, len(raw)))
	}

	seen := make(map[string]struct{}, len(raw))
	criteria := make([]string, 0, len(raw))
	for i, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, outOfBounds(fmt.Sprintf("criterion %d is empty", i))
		}
		if n := utf8.RuneCountInString(c); n > MaxCriterionLength {
			return nil, outOfBounds(fmt.Sprintf("criterion %d has %d characters, limit is %d", i, n, MaxCriterionLength))
		}
		if _, dup := seen[c]; dup {
			return nil, outOfBounds(fmt.Sprintf("criterion %q is repeated", c))
		}
		seen[c] = struct{}{}
		criteria = append(criteria, c)
	}
	return criteria, nil
}

func malformed(message string, cause error) error {
	return talentErrors.NewGenerationParseError(talentErrors.ErrCodeMalformedResponse, message, cause)
}

func outOfBounds(message string) error {
	return talentErrors.NewGenerationParseError(talentErrors.ErrCodeCriteriaOutOfBounds, message, nil)
}
