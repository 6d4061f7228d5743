package middleware

import (
	"errors"
	"net/http"

	"github.com/ggonzalesd/UniTable/shared/apperrors"
	"github.com/ggonzalesd/UniTable/shared/validation"
	"github.com/gin-gonic/gin"
)

type BadRequestErrorResponse struct {
	Message string                 `json:"message"`
	Details []apperrors.FieldError `json:"details"`
}

// ValidateRequest checks the `validate` tags of a bound request body.
func ValidateRequest(obj any) []apperrors.FieldError {
	return validation.Struct(obj)
}

func RespondWithValidationError(c *gin.Context, validationErrors []apperrors.FieldError) {
	c.JSON(http.StatusBadRequest, BadRequestErrorResponse{
		Message: "Invalid request data",
		Details: validationErrors,
	})
}

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"message": message,
	})
}

// RespondWithAppError writes err with the status of its kind. General errors
// never expose their cause.
func RespondWithAppError(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		RespondWithError(c, http.StatusInternalServerError, "internal service error")
		return
	}

	switch appErr.Kind {
	case apperrors.KindValidation:
		details := appErr.Details
		if details == nil {
			details = []apperrors.FieldError{}
		}
		c.JSON(http.StatusBadRequest, BadRequestErrorResponse{Message: appErr.Message, Details: details})
	case apperrors.KindConflict:
		RespondWithError(c, http.StatusConflict, appErr.Message)
	case apperrors.KindNotFound:
		RespondWithError(c, http.StatusNotFound, appErr.Message)
	case apperrors.KindAuth:
		RespondWithError(c, http.StatusUnauthorized, appErr.Message)
	default:
		RespondWithError(c, http.StatusInternalServerError, appErr.Message)
	}
}
