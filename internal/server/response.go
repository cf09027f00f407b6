package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/limaJavier/timetableplus/internal/store"
	"github.com/limaJavier/timetableplus/pkg/csp"
	"github.com/limaJavier/timetableplus/pkg/input"
	"github.com/limaJavier/timetableplus/pkg/model"

	"github.com/gin-gonic/gin"
)

// Envelope is the body of every JSON response
type Envelope struct {
	Data  any            `json:"data,omitempty"`
	Error *APIError      `json:"error,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Field   string `json:"field,omitempty"`
	Cell    string `json:"cell,omitempty"`
}

func respond(c *gin.Context, status int, data any, meta map[string]any) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, Envelope{Data: data, Meta: meta})
}

func respondError(c *gin.Context, err error) {
	apiError := fromError(err)
	c.Header("Cache-Control", "no-store")
	c.AbortWithStatusJSON(apiError.Status, Envelope{Error: apiError})
}

func fromError(err error) *APIError {
	var (
		validationError *input.ValidationError
		conflict        *model.DomainConflictError
		unknownSubject  *model.UnknownSubjectError
	)

	switch {
	case errors.As(err, &validationError):
		field := validationError.Record
		if validationError.Field != "" {
			field += "." + validationError.Field
		}
		return &APIError{Code: "VALIDATION_ERROR", Message: err.Error(), Status: http.StatusBadRequest, Field: field, Cell: validationError.Cell}
	case errors.As(err, &unknownSubject):
		return &APIError{Code: "VALIDATION_ERROR", Message: err.Error(), Status: http.StatusBadRequest, Field: unknownSubject.Participant}
	case errors.As(err, &conflict):
		return &APIError{Code: "DOMAIN_CONFLICT", Message: err.Error(), Status: http.StatusConflict, Field: conflict.Subject}
	case errors.Is(err, model.ErrInfeasible):
		return &APIError{Code: "INFEASIBLE", Message: err.Error(), Status: http.StatusUnprocessableEntity}
	case errors.Is(err, csp.ErrStepBudget), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &APIError{Code: "SEARCH_TIMEOUT", Message: err.Error(), Status: http.StatusGatewayTimeout}
	case errors.Is(err, store.ErrNotFound):
		return &APIError{Code: "NOT_FOUND", Message: err.Error(), Status: http.StatusNotFound}
	case errors.Is(err, errBadRequest):
		return &APIError{Code: "BAD_REQUEST", Message: err.Error(), Status: http.StatusBadRequest}
	case errors.Is(err, errNoHistory):
		return &APIError{Code: "UNAVAILABLE", Message: err.Error(), Status: http.StatusServiceUnavailable}
	default:
		return &APIError{Code: "INTERNAL_ERROR", Message: "internal server error", Status: http.StatusInternalServerError}
	}
}
