package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/ersonp/kin-core/internal/domain/entities"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
}

var statusByCode = map[string]int{
	entities.CodeInvalidInput:         http.StatusBadRequest,
	entities.CodeNotFound:             http.StatusNotFound,
	entities.CodeSelfLoop:             http.StatusUnprocessableEntity,
	entities.CodeCrossFamilyReference: http.StatusUnprocessableEntity,
	entities.CodeDuplicateEdge:        http.StatusConflict,
	entities.CodeConflictingKind:      http.StatusConflict,
	entities.CodeContention:           http.StatusConflict,
}

// StatusFor returns the HTTP status for an engine error code.
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeError maps err to its status and error body. Internal errors are
// logged and reported without details.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	code := entities.ErrorCode(err)
	status := StatusFor(code)

	msg := err.Error()
	if code == entities.CodeInternal {
		logger.Error("request failed",
			"request_id", c.GetString(requestIDKey),
			"route", c.FullPath(),
			"error", err,
		)
		msg = "internal error"
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     msg,
		Code:      code,
		Retryable: entities.IsRetryable(err),
	})
}

// bindError reports a malformed or invalid request body.
func bindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error: describeBindError(err),
		Code:  entities.CodeInvalidInput,
	})
}

func describeBindError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body: " + err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s exceeds %s characters", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
