package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/spigell/interview-analyzer/internal/ai"
)

// HTTPStatus returns the HTTP status code for an error returned by the
// evaluation or generation layer.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case ai.IsValidationError(err):
		return http.StatusBadRequest
	case ai.IsProviderError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// extractValidationErrors formats the first validator failure.
func extractValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		if ve.Param() != "" {
			return fmt.Sprintf("validation error: %s - %s=%s", ve.Field(), ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
	}
	return "validation error: invalid request"
}
