package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"talentsearch/internal/config"
	talentErrors "talentsearch/internal/errors"
	"talentsearch/internal/filter"
	"talentsearch/internal/types"
)

// Dependencies are the collaborators of a Service. Recorder may be nil.
type Dependencies struct {
	Queries   QueryCache
	Pages     PageCache
	Generator Generator
	Executor  Executor
	Recorder  Recorder
	Logger    *talentErrors.Logger
}

// Service serves result pages for natural-language searches. It holds no
// locks: concurrent callers may both generate or execute, and the caches
// decide which result is kept.
type Service struct {
	queries   QueryCache
	pages     PageCache
	generator Generator
	executor  Executor
	validator *filter.Validator
	recorder  Recorder
	logger    *talentErrors.Logger
	cfg       config.SearchConfig
}

// NewService wires a Service. Zero values in cfg fall back to the defaults
// for deadlines and filter limits.
func NewService(deps Dependencies, cfg config.SearchConfig) *Service {
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 30 * time.Second
	}
	if cfg.ExecutionTimeout <= 0 {
		cfg.ExecutionTimeout = 10 * time.Second
	}
	cfg.PageSize = types.PageSize

	recorder := deps.Recorder
	if recorder == nil {
		recorder = noopRecorder{}
	}

	return &Service{
		queries:   deps.Queries,
		pages:     deps.Pages,
		generator: deps.Generator,
		executor:  deps.Executor,
		validator: NewValidator(cfg),
		recorder:  recorder,
		logger:    deps.Logger,
		cfg:       cfg,
	}
}

// NewValidator builds the filter validator for the configured limits.
func NewValidator(cfg config.SearchConfig) *filter.Validator {
	return filter.NewValidator(filter.Limits{
		MaxDepth:         cfg.MaxDepth,
		MaxAtoms:         cfg.MaxAtoms,
		MaxLiteralLength: cfg.MaxLiteralLength,
	})
}

// Validator returns the filter validator the service enforces.
func (s *Service) Validator() *filter.Validator {
	return s.validator
}

// Settings returns the effective search settings.
func (s *Service) Settings() config.SearchConfig {
	return s.cfg
}

// CreateSearch records a new search for ownerID. Generation is deferred
// until the first page is requested.
func (s *Service) CreateSearch(ctx context.Context, ownerID, rawInputText string) (*types.SearchRequest, error) {
	ownerID = strings.TrimSpace(ownerID)
	text := strings.TrimSpace(rawInputText)

	if ownerID == "" {
		return nil, s.fail(ctx, talentErrors.NewValidationError(talentErrors.ErrCodeInvalidRequest,
			"owner id is required", nil))
	}
	if text == "" {
		return nil, s.fail(ctx, talentErrors.NewValidationError(talentErrors.ErrCodeEmptyQuery,
			"search text is required", nil))
	}
	if s.cfg.MaxInputLength > 0 && utf8.RuneCountInString(text) > s.cfg.MaxInputLength {
		return nil, s.fail(ctx, talentErrors.NewValidationError(talentErrors.ErrCodeInvalidRequest,
			fmt.Sprintf("search text exceeds %d characters", s.cfg.MaxInputLength), nil))
	}

	req, err := s.queries.CreateSearch(ctx, ownerID, text)
	if err != nil {
		return nil, s.fail(ctx, s.storageError(err, talentErrors.ErrCodeCacheWriteFailed, "failed to create search"))
	}

	s.logger.Info("Search created", "search_id", req.SearchID, "owner_id", ownerID)
	return req, nil
}

// GetSearch returns a stored search with its criteria and filter, if any.
func (s *Service) GetSearch(ctx context.Context, searchID string) (*types.SearchRequest, error) {
	if err := s.checkSearchID(searchID); err != nil {
		return nil, s.fail(ctx, err)
	}
	req, err := s.queries.GetSearch(ctx, searchID)
	if err != nil {
		return nil, s.fail(ctx, s.storageError(err, talentErrors.ErrCodeCacheReadFailed, "failed to load search"))
	}
	return req, nil
}

// ExecuteSearchPage returns page pageIndex of the search's results.
//
// A cached page is returned as is. Otherwise the cached filter is used, or
// one is generated and cached, and the page is computed and cached. Pages
// are frozen: once written, every later call returns the same ids.
func (s *Service) ExecuteSearchPage(ctx context.Context, searchID string, pageIndex int) (*types.PageResult, error) {
	if err := s.checkSearchID(searchID); err != nil {
		return nil, s.fail(ctx, err)
	}
	if err := s.checkPageIndex(pageIndex); err != nil {
		return nil, s.fail(ctx, err)
	}

	logger := s.logger.With("search_id", searchID, "page_index", pageIndex)

	page, found, err := s.pages.GetPage(ctx, searchID, pageIndex)
	if err != nil {
		return nil, s.fail(ctx, s.storageError(err, talentErrors.ErrCodeCacheReadFailed, "failed to read result page"))
	}
	if found {
		logger.Debug("Serving cached result page", "source", page.Source)
		s.recorder.RecordPageServed(ctx, page.Source)
		return pageResult(pageIndex, page.CandidateIDs), nil
	}

	req, err := s.queries.GetSearch(ctx, searchID)
	if err != nil {
		return nil, s.fail(ctx, s.storageError(err, talentErrors.ErrCodeCacheReadFailed, "failed to load search"))
	}

	validated, err := s.resolveFilter(ctx, req, logger)
	if err != nil {
		return nil, s.fail(ctx, err)
	}

	ids, err := s.execute(ctx, validated, pageIndex)
	if err != nil {
		return nil, s.fail(ctx, err)
	}

	stored, err := s.pages.PutPage(ctx, types.ResultPage{
		SearchID:     searchID,
		PageIndex:    pageIndex,
		CandidateIDs: ids,
		Source:       types.PageSourceComputed,
	})
	if err != nil {
		return nil, s.fail(ctx, s.storageError(err, talentErrors.ErrCodeCacheWriteFailed, "failed to store result page"))
	}

	logger.Info("Computed result page", "results", len(stored.CandidateIDs))
	s.recorder.RecordPageServed(ctx, types.PageSourceComputed)
	return pageResult(pageIndex, stored.CandidateIDs), nil
}

// resolveFilter returns the validated filter for req, generating and
// caching one on first use. Cached filters are validated again so a bad
// row can never reach the executor.
func (s *Service) resolveFilter(ctx context.Context, req *types.SearchRequest, logger *talentErrors.Logger) (*filter.Validated, error) {
	if req.HasGeneration() {
		validated, err := s.validator.Validate(req.GeneratedFilter)
		if err != nil {
			logger.Warn("Cached filter failed validation", "error", err)
			return nil, err
		}
		return validated, nil
	}

	generated, err := s.generate(ctx, req.RawInputText)
	if err != nil {
		return nil, err
	}

	validated, err := s.validator.Validate(generated.Filter)
	if err != nil {
		logger.Warn("Generated filter rejected", "error", err, "filter", generated.Filter.String())
		return nil, err
	}

	if err := s.queries.SaveGeneration(ctx, req.SearchID, validated.Expression(), generated.Criteria); err != nil {
		return nil, s.storageError(err, talentErrors.ErrCodeCacheWriteFailed, "failed to cache generated filter")
	}

	logger.Info("Generated search filter",
		"criteria", generated.Criteria,
		"atoms", validated.Atoms(),
		"depth", validated.Depth())
	return validated, nil
}

func (s *Service) generate(ctx context.Context, rawInputText string) (*types.GeneratedQuery, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	start := time.Now()
	generated, usage, err := s.generator.Generate(genCtx, rawInputText)
	if err != nil && errors.Is(genCtx.Err(), context.DeadlineExceeded) &&
		!talentErrors.IsType(err, talentErrors.ErrorTypeGenerationParse) {
		err = talentErrors.NewGenerationUnavailableError(talentErrors.ErrCodeGenerationTimeout,
			fmt.Sprintf("generation did not finish within %s", s.cfg.GenerationTimeout), err)
	}
	s.recorder.RecordGeneration(ctx, time.Since(start), usage, err)

	if err != nil {
		switch talentErrors.TypeOf(err) {
		case talentErrors.ErrorTypeGenerationUnavailable, talentErrors.ErrorTypeGenerationParse, talentErrors.ErrorTypeValidation:
			return nil, err
		default:
			return nil, talentErrors.NewGenerationUnavailableError(talentErrors.ErrCodeGenerationFailed,
				"criteria generation failed", err)
		}
	}
	return generated, nil
}

func (s *Service) execute(ctx context.Context, validated *filter.Validated, pageIndex int) ([]string, error) {
	execCtx, cancel := context.WithTimeout(ctx, s.cfg.ExecutionTimeout)
	defer cancel()

	start := time.Now()
	ids, err := s.executor.SearchPage(execCtx, validated, pageIndex)
	if err != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			err = talentErrors.NewSearchExecutionError(talentErrors.ErrCodeExecutionTimeout,
				fmt.Sprintf("search did not finish within %s", s.cfg.ExecutionTimeout), err)
		} else {
			err = talentErrors.NewSearchExecutionError(talentErrors.ErrCodeExecutionFailed,
				"candidate search failed", err)
		}
	}
	s.recorder.RecordExecution(ctx, time.Since(start), err)

	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// storageError keeps typed errors from the stores and lifts driver errors
// into search_execution errors.
func (s *Service) storageError(err error, code, message string) error {
	if talentErrors.TypeOf(err) != "" {
		return err
	}
	return talentErrors.NewSearchExecutionError(code, message, err)
}

func (s *Service) checkSearchID(searchID string) error {
	if strings.TrimSpace(searchID) == "" {
		return talentErrors.NewValidationError(talentErrors.ErrCodeInvalidRequest, "search id is required", nil)
	}
	return nil
}

func (s *Service) checkPageIndex(pageIndex int) error {
	if pageIndex < 0 {
		return talentErrors.NewValidationError(talentErrors.ErrCodeInvalidPageIndex,
			fmt.Sprintf("page index must not be negative, got %d", pageIndex), nil)
	}
	// Offsets are computed as pageIndex*PageSize and must fit a 32-bit
	// integer whatever the configured limit.
	if pageIndex > math.MaxInt32/types.PageSize {
		return talentErrors.NewValidationError(talentErrors.ErrCodeInvalidPageIndex,
			fmt.Sprintf("page index %d is out of range", pageIndex), nil)
	}
	if s.cfg.MaxPageIndex > 0 && pageIndex > s.cfg.MaxPageIndex {
		return talentErrors.NewValidationError(talentErrors.ErrCodeInvalidPageIndex,
			fmt.Sprintf("page index %d exceeds the limit of %d", pageIndex, s.cfg.MaxPageIndex), nil)
	}
	return nil
}

// fail records the error kind and returns err unchanged.
func (s *Service) fail(ctx context.Context, err error) error {
	var appErr *talentErrors.AppError
	if errors.As(err, &appErr) {
		s.recorder.RecordError(ctx, appErr.Type, appErr.Code)
	} else {
		s.recorder.RecordError(ctx, talentErrors.ErrorTypeInternal, "")
	}
	return err
}

func pageResult(pageIndex int, ids []string) *types.PageResult {
	if ids == nil {
		ids = []string{}
	}
	return &types.PageResult{NextPageIndex: pageIndex + 1, Results: ids}
}
