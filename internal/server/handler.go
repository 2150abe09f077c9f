package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	talentErrors "talentsearch/internal/errors"
	"talentsearch/internal/search"
	"talentsearch/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// createSearchHandler handles POST /search
func (s *Server) createSearchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := s.om.Tracer("talentsearch.api").Start(r.Context(), "api.search.create")
		defer span.End()

		var req CreateSearchRequest
		if err := parseJSONRequest(r, &req); err != nil {
			s.rejectRequest(w, span, "Invalid request body", err)
			return
		}

		span.SetAttributes(
			attribute.Int("request.query_length", len(req.Query)),
			attribute.String("operation", "create_search"),
		)

		created, err := s.deps.Search.CreateSearch(ctx, req.OwnerID, req.Query)
		if err != nil {
			s.writeServiceError(w, span, "Failed to create search", err)
			return
		}

		span.SetAttributes(attribute.String("search.id", created.SearchID))
		writeJSON(w, span, http.StatusCreated, types.CreateSearchOutput{SearchID: created.SearchID})
	}
}

// searchPageHandler handles POST /search/page
func (s *Server) searchPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := s.om.Tracer("talentsearch.api").Start(r.Context(), "api.search.page")
		defer span.End()

		var req SearchPageRequest
		if err := parseJSONRequest(r, &req); err != nil {
			s.rejectRequest(w, span, "Invalid request body", err)
			return
		}
		if strings.TrimSpace(req.SearchID) == "" {
			s.rejectRequest(w, span, "Missing search id", errors.New("searchId field is required"))
			return
		}
		if req.PageIndex == nil {
			s.rejectRequest(w, span, "Missing page index", errors.New("pageIndex field is required"))
			return
		}

		span.SetAttributes(
			attribute.String("search.id", req.SearchID),
			attribute.Int("search.page_index", *req.PageIndex),
			attribute.String("operation", "execute_search_page"),
		)

		result, err := s.deps.Search.ExecuteSearchPage(ctx, req.SearchID, *req.PageIndex)
		if err != nil {
			s.writeServiceError(w, span, "Failed to execute search", err)
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("response.results", len(result.Results)),
		)
		writeJSON(w, span, http.StatusOK, result)
	}
}

// getSearchHandler handles GET /search/{searchID}
func (s *Server) getSearchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := s.om.Tracer("talentsearch.api").Start(r.Context(), "api.search.get")
		defer span.End()

		searchID := r.PathValue("searchID")
		span.SetAttributes(attribute.String("search.id", searchID))

		req, err := s.deps.Search.GetSearch(ctx, searchID)
		if err != nil {
			s.writeServiceError(w, span, "Failed to load search", err)
			return
		}
		writeJSON(w, span, http.StatusOK, req)
	}
}

// checkFilterHandler handles POST /filter/check
func (s *Server) checkFilterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := s.om.Tracer("talentsearch.api").Start(r.Context(), "api.filter.check")
		defer span.End()

		body, err := readJSONBody(r)
		if err != nil {
			s.rejectRequest(w, span, "Invalid request body", err)
			return
		}

		out, err := search.CheckFilter(s.deps.Validator, body)
		if err != nil {
			s.writeServiceError(w, span, "Filter rejected", err)
			return
		}

		span.SetAttributes(
			attribute.Int("filter.atoms", out.Atoms),
			attribute.Int("filter.depth", out.Depth),
		)
		writeJSON(w, span, http.StatusOK, out)
	}
}

// statusForError maps error kinds to HTTP status codes
func statusForError(err error) int {
	switch talentErrors.TypeOf(err) {
	case talentErrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case talentErrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case talentErrors.ErrorTypeFilterRejected:
		return http.StatusUnprocessableEntity
	case talentErrors.ErrorTypeGenerationParse:
		return http.StatusBadGateway
	case talentErrors.ErrorTypeGenerationUnavailable, talentErrors.ErrorTypeSearchExecution:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, span trace.Span, title string, err error) {
	status := statusForError(err)
	kind := talentErrors.TypeOf(err)

	span.RecordError(err)
	span.SetAttributes(attribute.String("error.type", string(kind)))

	response := ErrorResponse{Error: title, Message: err.Error(), Kind: string(kind)}
	var appErr *talentErrors.AppError
	if errors.As(err, &appErr) {
		response.Code = appErr.Code
		response.Message = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, title)
	} else {
		s.Logger.Debug(title, "kind", kind, "error", err)
	}
	writeJSON(w, span, status, response)
}

func (s *Server) rejectRequest(w http.ResponseWriter, span trace.Span, title string, err error) {
	span.RecordError(err)
	span.SetAttributes(attribute.String("error.type", string(talentErrors.ErrorTypeValidation)))
	writeErrorResponse(w, title, err.Error(), http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, span trace.Span, status int, v any) {
	span.SetAttributes(attribute.Int("http.response.status_code", status))
	encodeJSON(w, status, v)
}

// readJSONBody reads a JSON request body without decoding it
func readJSONBody(r *http.Request) ([]byte, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return nil, errors.New("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, errors.New("request body too large")
		}
		return nil, err
	}
	return body, nil
}
