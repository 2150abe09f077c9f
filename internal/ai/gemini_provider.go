package ai

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"time"

	"talentsearch/internal/config"
	talentErrors "talentsearch/internal/errors"
	"talentsearch/internal/filter"
	"talentsearch/internal/types"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const modelCheckTimeout = 10 * time.Second

// GeminiProvider generates filters with the Gemini API. Completion calls go
// through a circuit breaker around a retry loop; model probes have a breaker
// of their own.
type GeminiProvider struct {
	client *genai.Client
	config *config.OperationAIConfig
	logger *talentErrors.Logger

	generation *breaker[*genai.GenerateContentResponse]
	models     *breaker[*genai.Model]
}

var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a provider for one operation type
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *talentErrors.Logger) (*GeminiProvider, error) {
	return newGeminiProvider(cfg, operationType, logger, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
}

func newGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *talentErrors.Logger, clientConfig *genai.ClientConfig) (*GeminiProvider, error) {
	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, talentErrors.NewAIError(talentErrors.ErrCodeAIServiceFailed, "Failed to create Gemini client", err)
	}

	breakerCfg := cfg.CircuitBreaker
	return &GeminiProvider{
		client:     client,
		config:     cfg,
		logger:     logger,
		generation: newBreaker[*genai.GenerateContentResponse](generationBreakerName(operationType), breakerCfg, generationRule(breakerCfg), logger),
		models:     newBreaker[*genai.Model](modelBreakerName(operationType), breakerCfg, modelCheckRule, logger),
	}, nil
}

// ModelInfo describes the configured model as reported by the provider
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo probes the configured model. Failures are reported in the
// result, never returned.
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Name: g.config.Model}

	ctx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.models.execute(func() (*genai.Model, error) {
		return g.client.Models.Get(ctx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		info.Error = fmt.Sprintf("model check failed: %v", err)
		g.logger.Warn("Model availability check failed", "model", g.config.Model, "error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = model.DisplayName
	info.Version = model.Version
	return info
}

// GenerateFilter sends one completion request and decodes the criteria and
// filter from it. Transport failures come back as generation_unavailable;
// decoding owns the generation_parse kinds.
func (g *GeminiProvider) GenerateFilter(ctx context.Context, rawInputText string) (*types.GeneratedQuery, *types.TokenUsage, error) {
	ctx, span := otel.Tracer("talentsearch.ai.gemini").Start(ctx, "gemini.parse_query")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Int("input.query_length", len(rawInputText)),
	)

	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	systemPrompt, userPrompt := g.getPromptsForParse(rawInputText)
	request := g.buildParseSchema()
	if *g.config.UseSystemPrompts && systemPrompt != "" {
		request.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	response, err := g.generation.execute(func() (*genai.GenerateContentResponse, error) {
		return withRetry(ctx, g.logger, "parse_query", *g.config.MaxRetries, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), request)
		})
	})
	if err != nil {
		return nil, nil, fail(classifyGenerationError(ctx, err))
	}

	usage := extractTokenUsage(response)
	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}

	text := response.Text()
	if text == "" {
		return nil, usage, fail(talentErrors.NewGenerationParseError(talentErrors.ErrCodeMalformedResponse,
			"completion service returned an empty response", nil))
	}

	generated, err := DecodeGeneratedQuery([]byte(text))
	if err != nil {
		return nil, usage, fail(err)
	}

	span.SetAttributes(attribute.Int("output.criteria_count", len(generated.Criteria)))
	return generated, usage, nil
}

// classifyGenerationError maps a failed completion call to the
// generation_unavailable kind, keeping timeouts distinguishable
func classifyGenerationError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return talentErrors.NewGenerationUnavailableError(talentErrors.ErrCodeGenerationTimeout,
			"completion service timed out", err)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return talentErrors.NewGenerationUnavailableError(talentErrors.ErrCodeGenerationFailed,
			"completion service circuit breaker is open", err)
	default:
		return talentErrors.NewGenerationUnavailableError(talentErrors.ErrCodeGenerationFailed,
			"completion service call failed", err)
	}
}

// GetCircuitBreakerStats reports both breakers
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"generation":      g.generation.stats(),
		"model":           g.models.stats(),
		"overall_healthy": g.generation.healthy() && g.models.healthy(),
	}
}

// Close is a no-op; the genai client keeps no open resources
func (g *GeminiProvider) Close() error {
	return nil
}

// buildParseSchema asks for JSON matching {criteria, filter}
func (g *GeminiProvider) buildParseSchema() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      g.config.Temperature,
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"criteria": {
					Type:     genai.TypeArray,
					Items:    &genai.Schema{Type: genai.TypeString, MaxLength: genai.Ptr[int64](MaxCriterionLength)},
					MinItems: genai.Ptr[int64](MinCriteria),
					MaxItems: genai.Ptr[int64](MaxCriteria),
				},
				"filter": filterSchema(cmp.Or(g.config.MaxFilterDepth, filter.DefaultMaxDepth)),
			},
			Required:         []string{"criteria", "filter"},
			PropertyOrdering: []string{"criteria", "filter"},
		},
	}
}

// filterSchema describes a filter node nested at most depth levels. The
// schema language has no recursion, so each level is spelled out.
func filterSchema(depth int) *genai.Schema {
	s := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"field":    {Type: genai.TypeString, Enum: filter.Fields()},
			"operator": {Type: genai.TypeString, Enum: []string{filter.OperatorContains}},
			"value":    {Type: genai.TypeString},
		},
	}
	if depth > 1 {
		s.Properties["op"] = &genai.Schema{Type: genai.TypeString, Enum: []string{filter.OpAnd, filter.OpOr}}
		s.Properties["args"] = &genai.Schema{Type: genai.TypeArray, Items: filterSchema(depth - 1)}
	}
	return s
}

// getPromptsForParse resolves both prompts and fills the user template
func (g *GeminiProvider) getPromptsForParse(rawInputText string) (system, user string) {
	loaded := config.GetPromptsForOperation(config.OperationParse)
	configured := g.config.CustomPrompts

	system = resolvePrompt(loaded.SystemPrompts.ParseQuery, configured.SystemPrompts.ParseQuery, DefaultSystemPrompts.ParseQuery)
	user = resolvePrompt(loaded.UserPrompts.ParseQuery, configured.UserPrompts.ParseQuery, DefaultUserPrompts.ParseQuery)
	return system, fmt.Sprintf(user, rawInputText)
}

func extractTokenUsage(result *genai.GenerateContentResponse) *types.TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}
	return &types.TokenUsage{
		InputTokens:  int64(result.UsageMetadata.PromptTokenCount),
		OutputTokens: int64(result.UsageMetadata.CandidatesTokenCount),
		TotalTokens:  int64(result.UsageMetadata.TotalTokenCount),
	}
}

// resolvePrompt returns the first non-empty prompt: file, then config, then built-in
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	for _, p := range []string{loadedFromFile, fromConfig} {
		if p != "" {
			return p
		}
	}
	return fromDefault
}
