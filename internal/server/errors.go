package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	billingsvc "github.com/smallbiznis/courier/internal/billing"
	entitlementdomain "github.com/smallbiznis/courier/internal/entitlement/domain"
	groupdomain "github.com/smallbiznis/courier/internal/group/domain"
	messagedomain "github.com/smallbiznis/courier/internal/message/domain"
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

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid_request")
)

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
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isForbiddenError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: err.Error(),
		}
	case errors.Is(err, groupdomain.ErrAlreadyMember):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, billingsvc.ErrPaymentFailed):
		return http.StatusPaymentRequired, errorPayload{
			Type:    "payment_failed",
			Message: "payment failed",
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
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, entitlementdomain.ErrInvalidUser),
		errors.Is(err, entitlementdomain.ErrInvalidFeature),
		errors.Is(err, entitlementdomain.ErrInvalidDuration),
		errors.Is(err, groupdomain.ErrInvalidUser),
		errors.Is(err, groupdomain.ErrInvalidName),
		errors.Is(err, messagedomain.ErrInvalidUser),
		errors.Is(err, messagedomain.ErrInvalidRecipient),
		errors.Is(err, messagedomain.ErrSelfSend),
		errors.Is(err, messagedomain.ErrEmptyContent),
		errors.Is(err, messagedomain.ErrContentTooLong),
		errors.Is(err, messagedomain.ErrReceiverNotFound),
		errors.Is(err, billingsvc.ErrInvalidMonths),
		errors.Is(err, billingsvc.ErrInvalidFeature):
		return true
	default:
		return false
	}
}

func isForbiddenError(err error) bool {
	switch {
	case errors.Is(err, groupdomain.ErrFeatureRequired),
		errors.Is(err, groupdomain.ErrForbidden),
		errors.Is(err, messagedomain.ErrNotGroupMember),
		errors.Is(err, messagedomain.ErrVoiceNotEntitled),
		errors.Is(err, messagedomain.ErrFileNotEntitled),
		errors.Is(err, messagedomain.ErrGroupChatNotEntitled):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, groupdomain.ErrNotFound),
		errors.Is(err, groupdomain.ErrMemberNotFound),
		errors.Is(err, groupdomain.ErrUserNotFound):
		return true
	default:
		return false
	}
}
