package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ErrorInfo is a parsed error ready for the response helpers.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts a raw error into a code and a safe message.
// Driver details never reach the client.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "An internal error occurred",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	// 1. GORM errors
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// 2. PostgreSQL constraint errors

	// 2-1. Unique constraint violation (23505)
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStr)
	}

	// 2-2. Foreign key constraint violation (23503)
	if strings.Contains(errStrLower, "foreign key constraint") {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: "A referenced record does not exist",
		}
	}

	// 2-3. Not null constraint violation (23502)
	if strings.Contains(errStrLower, "null value") && strings.Contains(errStrLower, "violates not-null constraint") {
		return ErrorInfo{
			Code:    ValidationInvalidInput,
			Message: "A required field is missing",
		}
	}

	// 3. Network errors
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "Failed to reach an external service. Please try again later",
		}
	}

	// 4. Fallback
	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

// RespondWithParsedError parses a raw database error and writes the matching
// response. Use it on write paths where constraint violations are expected.
func RespondWithParsedError(c *gin.Context, err error, context string) {
	info := ParseError(err, context)
	RespondWithError(c, statusForCode(info.Code), info.Code, info.Message)
}

func statusForCode(code string) int {
	switch code {
	case ResourceNotFound:
		return http.StatusNotFound
	case ResourceAlreadyExists, AuthEmailAlreadyExists:
		return http.StatusConflict
	case ValidationInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func parseDuplicateKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "email") || strings.Contains(errLower, "idx_users_email") {
		return ErrorInfo{
			Code:    AuthEmailAlreadyExists,
			Message: "Email is already in use",
		}
	}

	if strings.Contains(errLower, "order_id") || strings.Contains(errLower, "idx_checkout_sessions_order_id") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "Order id is already in use",
		}
	}

	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "The record already exists",
	}
}

func getNotFoundMessage(context string) string {
	switch context {
	case "user":
		return "User not found"
	case "product":
		return "Product not found"
	case "category":
		return "Category not found"
	case "purchase":
		return "Purchase not found"
	case "order":
		return "Order not found"
	case "rating":
		return "Rating not found"
	default:
		return "Resource not found"
	}
}

func getDefaultErrorMessage(context string) string {
	switch context {
	case "create":
		return "Failed to create the record"
	case "update":
		return "Failed to update the record"
	case "delete":
		return "Failed to delete the record"
	default:
		return "An internal error occurred. Please try again later"
	}
}
