package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/cotiza/internal/auth/domain"
	"github.com/smallbiznis/cotiza/internal/authorization"
	catalogdomain "github.com/smallbiznis/cotiza/internal/catalog/domain"
	orderdomain "github.com/smallbiznis/cotiza/internal/order/domain"
	quotedomain "github.com/smallbiznis/cotiza/internal/quote/domain"
	"github.com/smallbiznis/cotiza/internal/quote/pricing"
	reportdomain "github.com/smallbiznis/cotiza/internal/report/domain"
	storagedomain "github.com/smallbiznis/cotiza/internal/storage/domain"
	templatedomain "github.com/smallbiznis/cotiza/internal/template/domain"
	"gorm.io/gorm"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware turns errors pushed through AbortWithError into
// one JSON error response after the handler chain finishes.
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
	return ErrInvalidRequest
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isForbiddenError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, quotedomain.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrInvalidCost),
		errors.Is(err, pricing.ErrInvalidMargin),
		errors.Is(err, pricing.ErrSlotMismatch),
		errors.Is(err, quotedomain.ErrInvalidTaxPct),
		errors.Is(err, quotedomain.ErrKindMismatch),
		errors.Is(err, quotedomain.ErrInactiveSubject),
		errors.Is(err, quotedomain.ErrNoActiveSlots),
		errors.Is(err, quotedomain.ErrInvalidStatus),
		errors.Is(err, orderdomain.ErrNoItems),
		errors.Is(err, orderdomain.ErrEvidenceRequired),
		errors.Is(err, orderdomain.ErrReasonRequired),
		errors.Is(err, orderdomain.ErrInactiveProduct),
		errors.Is(err, catalogdomain.ErrInvalidKind),
		errors.Is(err, catalogdomain.ErrInvalidName),
		errors.Is(err, catalogdomain.ErrInvalidSKU),
		errors.Is(err, catalogdomain.ErrInvalidCode),
		errors.Is(err, catalogdomain.ErrInvalidCost),
		errors.Is(err, templatedomain.ErrInvalidSlot),
		errors.Is(err, templatedomain.ErrInvalidName),
		errors.Is(err, templatedomain.ErrInvalidAccent),
		errors.Is(err, authdomain.ErrInvalidRole),
		errors.Is(err, storagedomain.ErrEmptyBlob),
		errors.Is(err, storagedomain.ErrBlobTooLarge),
		errors.Is(err, reportdomain.ErrInvalidRange):
		return true
	default:
		return false
	}
}

func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionNotFound),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked):
		return true
	default:
		return false
	}
}

func isForbiddenError(err error) bool {
	switch {
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, quotedomain.ErrPermissionDenied),
		errors.Is(err, orderdomain.ErrPermissionDenied),
		errors.Is(err, authdomain.ErrUserDisabled):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, quotedomain.ErrNotFound),
		errors.Is(err, quotedomain.ErrItemNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrItemNotFound),
		errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, catalogdomain.ErrCategoryNotFound),
		errors.Is(err, templatedomain.ErrNotFound),
		errors.Is(err, storagedomain.ErrBlobNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, quotedomain.ErrInvalidState),
		errors.Is(err, quotedomain.ErrSendInProgress),
		errors.Is(err, quotedomain.ErrDocsNotFailed),
		errors.Is(err, orderdomain.ErrInvalidState),
		errors.Is(err, orderdomain.ErrItemResolved),
		errors.Is(err, catalogdomain.ErrDuplicateEntry),
		errors.Is(err, catalogdomain.ErrCategoryInUse),
		errors.Is(err, templatedomain.ErrSlotTaken),
		errors.Is(err, authdomain.ErrUserExists):
		return true
	default:
		return false
	}
}
