package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/glanzwerk/beleg/internal/customer/domain"
	documentdomain "github.com/glanzwerk/beleg/internal/document/domain"
	settingsdomain "github.com/glanzwerk/beleg/internal/settings/domain"
	vehicledomain "github.com/glanzwerk/beleg/internal/vehicle/domain"
	workrecorddomain "github.com/glanzwerk/beleg/internal/workrecord/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, documentdomain.ErrInvalidID),
		errors.Is(err, documentdomain.ErrInvalidDocType),
		errors.Is(err, documentdomain.ErrInvalidTitle),
		errors.Is(err, documentdomain.ErrInvalidQty),
		errors.Is(err, documentdomain.ErrInvalidVatRate),
		errors.Is(err, documentdomain.ErrInvalidDiscount),
		errors.Is(err, documentdomain.ErrInvalidPosition),
		errors.Is(err, documentdomain.ErrInvalidSelection):
		return true
	case errors.Is(err, customerdomain.ErrInvalidName),
		errors.Is(err, customerdomain.ErrInvalidRate),
		errors.Is(err, customerdomain.ErrInvalidID):
		return true
	case errors.Is(err, vehicledomain.ErrInvalidCustomer),
		errors.Is(err, vehicledomain.ErrInvalidMake),
		errors.Is(err, vehicledomain.ErrInvalidID):
		return true
	case errors.Is(err, workrecorddomain.ErrInvalidID),
		errors.Is(err, workrecorddomain.ErrInvalidCategory),
		errors.Is(err, workrecorddomain.ErrInvalidSeconds):
		return true
	case errors.Is(err, settingsdomain.ErrInvalidRate),
		errors.Is(err, settingsdomain.ErrInvalidMinutes):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, documentdomain.ErrNotFound),
		errors.Is(err, documentdomain.ErrLineNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, vehicledomain.ErrNotFound),
		errors.Is(err, workrecorddomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, documentdomain.ErrImmutableDocument),
		errors.Is(err, documentdomain.ErrInvalidTransition),
		errors.Is(err, workrecorddomain.ErrAlreadyBilled):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, documentdomain.ErrImmutableDocument):
		return "document is immutable"
	case errors.Is(err, documentdomain.ErrInvalidTransition):
		return "invalid state transition"
	case errors.Is(err, workrecorddomain.ErrAlreadyBilled):
		return "work record already billed"
	default:
		return "conflict"
	}
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}
