package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"talentsearch/internal/config"
	talentErrors "talentsearch/internal/errors"
	"talentsearch/internal/filter"
)

func testOperationConfig(maxRetries int) *config.OperationAIConfig {
	timeout := 5 * time.Second
	temperature := float32(0)
	useSystemPrompts := true
	return &config.OperationAIConfig{
		Provider:         "gemini",
		Model:            "test-model",
		APIKey:           "test-key",
		Timeout:          &timeout,
		MaxRetries:       &maxRetries,
		Temperature:      &temperature,
		UseSystemPrompts: &useSystemPrompts,
	}
}

func geminiBody(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]}}],
		"usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":8,"totalTokenCount":20}}`, text)
}

func newTestProvider(t *testing.T, maxRetries int, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	provider, err := newGeminiProvider(testOperationConfig(maxRetries), "parse", testLogger, &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL + "/"},
	})
	require.NoError(t, err)
	return provider
}

func TestGeminiProviderGenerateFilter(t *testing.T) {
	var requestBody string
	provider := newTestProvider(t, 0, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requestBody = string(body)
		assert.Contains(t, r.URL.Path, "test-model:generateContent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, geminiBody(kakaoResponse))
	})

	got, usage, err := provider.GenerateFilter(context.Background(), "카카오에서 일한적 있는 사람")
	require.NoError(t, err)

	assert.Equal(t, []string{"카카오 근무 경험"}, got.Criteria)
	assert.Equal(t, filter.OpOr, got.Filter.Op)
	require.NotNil(t, usage)
	assert.Equal(t, int64(20), usage.TotalTokens)

	assert.Contains(t, requestBody, "카카오에서 일한적 있는 사람")
	assert.Contains(t, requestBody, "systemInstruction")
	assert.Contains(t, requestBody, "responseSchema")
}

func TestGeminiProviderMalformedResponse(t *testing.T) {
	provider := newTestProvider(t, 0, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, geminiBody(`{"criteria":["a"],"filter":{"field":"bio","operator":"contains","value":"x"},"note":"extra"}`))
	})

	_, usage, err := provider.GenerateFilter(context.Background(), "anyone")
	assert.ErrorIs(t, err, talentErrors.ErrGenerationParse)
	assert.NotNil(t, usage)
}

func TestGeminiProviderEmptyResponse(t *testing.T) {
	provider := newTestProvider(t, 0, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	})

	_, _, err := provider.GenerateFilter(context.Background(), "anyone")
	assert.ErrorIs(t, err, talentErrors.ErrGenerationParse)
}

func TestGeminiProviderUpstreamFailure(t *testing.T) {
	var calls atomic.Int32
	provider := newTestProvider(t, 2, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"bad request","status":"INVALID_ARGUMENT"}}`)
	})

	_, _, err := provider.GenerateFilter(context.Background(), "anyone")
	assert.ErrorIs(t, err, talentErrors.ErrGenerationUnavailable)
	assert.Equal(t, int32(1), calls.Load(), "client errors are not retried")
}

func TestGeminiProviderRetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	provider := newTestProvider(t, 1, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`)
			return
		}
		_, _ = io.WriteString(w, geminiBody(kakaoResponse))
	})

	got, _, err := provider.GenerateFilter(context.Background(), "카카오")
	require.NoError(t, err)
	assert.NotNil(t, got.Filter)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGeminiProviderTimeout(t *testing.T) {
	provider := newTestProvider(t, 0, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := provider.GenerateFilter(ctx, "anyone")
	require.Error(t, err)
	assert.ErrorIs(t, err, talentErrors.ErrGenerationUnavailable)

	var appErr *talentErrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, talentErrors.ErrCodeGenerationTimeout, appErr.Code)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, false},
		{"wrapped cancel", fmt.Errorf("call: %w", context.Canceled), false},
		{"googleapi 429", &googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{"googleapi 400", &googleapi.Error{Code: http.StatusBadRequest}, false},
		{"genai 503", genai.APIError{Code: http.StatusServiceUnavailable}, true},
		{"genai 403", genai.APIError{Code: http.StatusForbidden}, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransient(tt.err))
		})
	}
}

func TestRetryDelay(t *testing.T) {
	for attempt, base := range map[int]time.Duration{1: time.Second, 2: 2 * time.Second, 4: 8 * time.Second} {
		d := retryDelay(attempt)
		assert.GreaterOrEqual(t, d, base)
		assert.LessOrEqual(t, d, base+base/10)
	}
	assert.Equal(t, maxRetryDelay, retryDelay(6))
	assert.Equal(t, maxRetryDelay, retryDelay(40))
}

func TestGeminiProviderBreakerStats(t *testing.T) {
	cfg := testOperationConfig(0)
	cfg.CircuitBreaker = testBreakerConfig()
	provider, err := newGeminiProvider(cfg, "parse", testLogger, &genai.ClientConfig{APIKey: "k", Backend: genai.BackendGeminiAPI})
	require.NoError(t, err)

	stats := provider.GetCircuitBreakerStats()
	assert.Equal(t, "generation-parse", stats["generation"].(map[string]any)["name"])
	assert.Equal(t, "model-parse", stats["model"].(map[string]any)["name"])
	assert.Equal(t, true, stats["overall_healthy"])
}

func TestBuildParseSchema(t *testing.T) {
	g := &GeminiProvider{config: testOperationConfig(0)}
	cfg := g.buildParseSchema()

	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	require.NotNil(t, cfg.Temperature)
	assert.Equal(t, float32(0), *cfg.Temperature)

	schema := cfg.ResponseSchema
	assert.ElementsMatch(t, []string{"criteria", "filter"}, schema.Required)
	assert.Equal(t, int64(MaxCriteria), *schema.Properties["criteria"].MaxItems)
}

func TestBuildParseSchemaFollowsMaxFilterDepth(t *testing.T) {
	tests := []struct {
		name     string
		maxDepth int
		want     int
	}{
		{"unset uses default", 0, filter.DefaultMaxDepth},
		{"atoms only", 1, 1},
		{"shallow", 3, 3},
		{"default", filter.DefaultMaxDepth, filter.DefaultMaxDepth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opCfg := testOperationConfig(0)
			opCfg.MaxFilterDepth = tt.maxDepth
			g := &GeminiProvider{config: opCfg}

			// Count nesting of the filter schema
			depth := 0
			for node := g.buildParseSchema().ResponseSchema.Properties["filter"]; node != nil; depth++ {
				assert.Equal(t, filter.Fields(), node.Properties["field"].Enum)
				args, ok := node.Properties["args"]
				if !ok {
					node = nil
					continue
				}
				node = args.Items
			}
			assert.Equal(t, tt.want, depth)
		})
	}
}

func TestGetPromptsForParse(t *testing.T) {
	g := &GeminiProvider{config: testOperationConfig(0)}

	system, user := g.getPromptsForParse("ML researchers")
	assert.Equal(t, DefaultSystemPrompts.ParseQuery, system)
	assert.True(t, strings.HasSuffix(user, "ML researchers"))

	g.config.CustomPrompts.UserPrompts.ParseQuery = "Q=%s"
	_, user = g.getPromptsForParse("x")
	assert.Equal(t, "Q=x", user)
}

func TestResolvePrompt(t *testing.T) {
	assert.Equal(t, "file", resolvePrompt("file", "config", "default"))
	assert.Equal(t, "config", resolvePrompt("", "config", "default"))
	assert.Equal(t, "default", resolvePrompt("", "", "default"))
}

func TestExtractTokenUsage(t *testing.T) {
	assert.Nil(t, extractTokenUsage(nil))
	assert.Nil(t, extractTokenUsage(&genai.GenerateContentResponse{}))

	usage := extractTokenUsage(&genai.GenerateContentResponse{
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     3,
			CandidatesTokenCount: 4,
			TotalTokenCount:      7,
		},
	})
	require.NotNil(t, usage)
	assert.Equal(t, int64(7), usage.TotalTokens)
}
