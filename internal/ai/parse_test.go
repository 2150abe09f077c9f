package ai

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	talentErrors "talentsearch/internal/errors"
	"talentsearch/internal/filter"
)

const kakaoResponse = `{"criteria":["카카오 근무 경험"],"filter":{"op":"or","args":[
	{"field":"company_name","operator":"contains","value":"카카오"},
	{"field":"company_name","operator":"contains","value":"kakao"}]}}`

func TestDecodeGeneratedQuery(t *testing.T) {
	got, err := DecodeGeneratedQuery([]byte(kakaoResponse))
	require.NoError(t, err)

	assert.Equal(t, []string{"카카오 근무 경험"}, got.Criteria)
	require.True(t, got.Filter.IsGroup())
	assert.Equal(t, filter.OpOr, got.Filter.Op)
	require.Len(t, got.Filter.Args, 2)
	assert.Equal(t, filter.FieldCompanyName, got.Filter.Args[1].Field)
	assert.Equal(t, "kakao", got.Filter.Args[1].Value)
}

func TestDecodeGeneratedQueryTrimsCriteria(t *testing.T) {
	got, err := DecodeGeneratedQuery([]byte(`{"criteria":["  Go developer "],"filter":{"field":"role","operator":"contains","value":"go"}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Go developer"}, got.Criteria)
}

func TestDecodeGeneratedQueryRejects(t *testing.T) {
	atom := `{"field":"role","operator":"contains","value":"go"}`
	thirtyOne := strings.Repeat("가", 31)
	thirty := strings.Repeat("가", 30)

	tests := []struct {
		name     string
		response string
		code     string
	}{
		{"not json", `criteria: go`, talentErrors.ErrCodeMalformedResponse},
		{"markdown fenced", "```json\n{\"criteria\":[\"a\"],\"filter\":" + atom + "}\n```", talentErrors.ErrCodeMalformedResponse},
		{"unknown top-level key", `{"criteria":["a"],"filter":` + atom + `,"sql":"1=1"}`, talentErrors.ErrCodeMalformedResponse},
		{"unknown filter key", `{"criteria":["a"],"filter":{"field":"role","operator":"contains","value":"go","raw":"x"}}`, talentErrors.ErrCodeMalformedResponse},
		{"missing criteria", `{"filter":` + atom + `}`, talentErrors.ErrCodeMalformedResponse},
		{"missing filter", `{"criteria":["a"]}`, talentErrors.ErrCodeMalformedResponse},
		{"null filter", `{"criteria":["a"],"filter":null}`, talentErrors.ErrCodeMalformedResponse},
		{"criteria wrong type", `{"criteria":"a","filter":` + atom + `}`, talentErrors.ErrCodeMalformedResponse},
		{"trailing data", `{"criteria":["a"],"filter":` + atom + `} {}`, talentErrors.ErrCodeMalformedResponse},
		{"no criteria", `{"criteria":[],"filter":` + atom + `}`, talentErrors.ErrCodeCriteriaOutOfBounds},
		{"seven criteria", `{"criteria":["a","b","c","d","e","f","g"],"filter":` + atom + `}`, talentErrors.ErrCodeCriteriaOutOfBounds},
		{"criterion too long", `{"criteria":["` + thirtyOne + `"],"filter":` + atom + `}`, talentErrors.ErrCodeCriteriaOutOfBounds},
		{"blank criterion", `{"criteria":["  "],"filter":` + atom + `}`, talentErrors.ErrCodeCriteriaOutOfBounds},
		{"duplicate criteria", `{"criteria":["a","a"],"filter":` + atom + `}`, talentErrors.ErrCodeCriteriaOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeGeneratedQuery([]byte(tt.response))
			require.Error(t, err)
			assert.ErrorIs(t, err, talentErrors.ErrGenerationParse)

			var appErr *talentErrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.code, appErr.Code)
		})
	}

	t.Run("thirty characters is accepted", func(t *testing.T) {
		_, err := DecodeGeneratedQuery([]byte(`{"criteria":["` + thirty + `"],"filter":` + atom + `}`))
		assert.NoError(t, err)
	})

	t.Run("six criteria is accepted", func(t *testing.T) {
		_, err := DecodeGeneratedQuery([]byte(`{"criteria":["a","b","c","d","e","f"],"filter":` + atom + `}`))
		assert.NoError(t, err)
	})
}

func TestDecodeGeneratedQueryLeavesAllowListToValidator(t *testing.T) {
	// Grammar-valid but disallowed fields decode fine; the validator rejects them.
	got, err := DecodeGeneratedQuery([]byte(`{"criteria":["a"],"filter":{"field":"salary","operator":"contains","value":"1"}}`))
	require.NoError(t, err)

	_, err = filter.NewValidator(filter.Limits{}).Validate(got.Filter)
	assert.ErrorIs(t, err, talentErrors.ErrFilterRejected)
}
