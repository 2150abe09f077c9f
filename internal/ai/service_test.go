package ai

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	talentErrors "talentsearch/internal/errors"
	"talentsearch/internal/filter"
	"talentsearch/internal/types"
)

var testLogger = talentErrors.NewLogger(slog.LevelError)

type fakeProvider struct {
	query  *types.GeneratedQuery
	usage  *types.TokenUsage
	err    error
	inputs []string
}

func (f *fakeProvider) GenerateFilter(_ context.Context, rawInputText string) (*types.GeneratedQuery, *types.TokenUsage, error) {
	f.inputs = append(f.inputs, rawInputText)
	return f.query, f.usage, f.err
}

func (f *fakeProvider) GetModelInfo(context.Context) *ModelInfo {
	return &ModelInfo{Name: "fake", Available: true}
}

func (f *fakeProvider) Close() error { return nil }

func TestServiceGenerate(t *testing.T) {
	provider := &fakeProvider{
		query: &types.GeneratedQuery{
			Criteria: []string{"Worked at Kakao"},
			Filter:   filter.Contains(filter.FieldCompanyName, "kakao"),
		},
		usage: &types.TokenUsage{TotalTokens: 42},
	}
	svc := NewServiceWithProvider(provider, nil, testLogger)

	got, usage, err := svc.Generate(context.Background(), "  카카오에서 일한적 있는 사람 ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Worked at Kakao"}, got.Criteria)
	assert.Equal(t, int64(42), usage.TotalTokens)
	assert.Equal(t, []string{"카카오에서 일한적 있는 사람"}, provider.inputs)
}

func TestServiceGenerateErrors(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		input    string
		want     error
	}{
		{
			name:     "empty input",
			provider: &fakeProvider{},
			input:    "   ",
			want:     nil,
		},
		{
			name:     "parse error passes through",
			provider: &fakeProvider{err: talentErrors.NewGenerationParseError(talentErrors.ErrCodeMalformedResponse, "bad", nil)},
			input:    "x",
			want:     talentErrors.ErrGenerationParse,
		},
		{
			name:     "untyped error becomes unavailable",
			provider: &fakeProvider{err: errors.New("socket closed")},
			input:    "x",
			want:     talentErrors.ErrGenerationUnavailable,
		},
		{
			name:     "missing filter is a parse error",
			provider: &fakeProvider{query: &types.GeneratedQuery{Criteria: []string{"a"}}},
			input:    "x",
			want:     talentErrors.ErrGenerationParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewServiceWithProvider(tt.provider, nil, testLogger)
			_, _, err := svc.Generate(context.Background(), tt.input)
			require.Error(t, err)
			if tt.want == nil {
				assert.True(t, talentErrors.IsType(err, talentErrors.ErrorTypeValidation))
				assert.Empty(t, tt.provider.inputs)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestServiceCircuitBreakerStatsWithoutBreakers(t *testing.T) {
	svc := NewServiceWithProvider(&fakeProvider{}, nil, testLogger)
	assert.Equal(t, map[string]any{"enabled": false}, svc.CircuitBreakerStats())
	assert.True(t, svc.GetModelInfo(context.Background()).Available)
}
