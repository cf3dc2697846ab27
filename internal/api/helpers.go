package api

import (
	"encoding/json/v2"
	"net/http"
	"strconv"

	apperrors "github.com/vojaudio/voj-server/internal/errors"
	"github.com/vojaudio/voj-server/internal/store"
)

// decodeBody parses a JSON request body into dst and validates it.
func (s *Server) decodeBody(r *http.Request, dst any) error {
	if err := json.UnmarshalRead(r.Body, dst); err != nil {
		return apperrors.Validation("invalid JSON body").WithCause(err)
	}
	return s.validator.Validate(dst)
}

// parsePaginationParams extracts page/size query parameters, falling back to
// defaults for missing or malformed values.
func parsePaginationParams(r *http.Request) store.PaginationParams {
	params := store.DefaultPaginationParams()

	if v := r.URL.Query().Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			params.Page = page
		}
	}
	if v := r.URL.Query().Get("size"); v != "" {
		if size, err := strconv.Atoi(v); err == nil && size > 0 {
			params.Size = size
		}
	}

	params.Validate()
	return params
}
