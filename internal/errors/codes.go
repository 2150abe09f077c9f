package errors

// General codes
const (
	ErrCodeFileNotFound    = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable = "FILE_NOT_READABLE"
	ErrCodeInvalidFormat   = "INVALID_FORMAT"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeInvalidConfig   = "INVALID_CONFIG"
	ErrCodeAIServiceFailed = "AI_SERVICE_FAILED"
)

// Search pipeline codes, grouped by the kind they are used with
const (
	// not_found
	ErrCodeSearchNotFound = "SEARCH_NOT_FOUND"

	// validation
	ErrCodeEmptyQuery       = "EMPTY_QUERY"
	ErrCodeInvalidPageIndex = "INVALID_PAGE_INDEX"

	// generation_unavailable
	ErrCodeGenerationFailed  = "GENERATION_FAILED"
	ErrCodeGenerationTimeout = "GENERATION_TIMEOUT"

	// generation_parse
	ErrCodeMalformedResponse   = "MALFORMED_RESPONSE"
	ErrCodeCriteriaOutOfBounds = "CRITERIA_OUT_OF_BOUNDS"

	// filter_rejected
	ErrCodeFieldNotAllowed    = "FIELD_NOT_ALLOWED"
	ErrCodeOperatorNotAllowed = "OPERATOR_NOT_ALLOWED"
	ErrCodeFilterTooDeep      = "FILTER_TOO_DEEP"
	ErrCodeFilterTooLarge     = "FILTER_TOO_LARGE"
	ErrCodeMalformedFilter    = "MALFORMED_FILTER"
	ErrCodeInvalidLiteral     = "INVALID_LITERAL"

	// search_execution
	ErrCodeExecutionFailed  = "EXECUTION_FAILED"
	ErrCodeExecutionTimeout = "EXECUTION_TIMEOUT"
	ErrCodeCacheWriteFailed = "CACHE_WRITE_FAILED"
	ErrCodeCacheReadFailed  = "CACHE_READ_FAILED"
)
