package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library-manager/internal/database"
)

// ErrorResponse is the standard error body for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"` // machine-readable error kind
}

// MessageResponse is returned by endpoints that have nothing else to say.
type MessageResponse struct {
	Message string `json:"message"`
}

// statusFor maps a database error kind to its HTTP status.
func statusFor(kind database.Kind) int {
	switch kind {
	case database.KindNotFound, database.KindNoData:
		return http.StatusNotFound
	case database.KindConflict, database.KindInvalidReference, database.KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError sends the response matching err's kind. Errors without a kind
// are logged and reported as a generic 500.
func respondError(c *gin.Context, err error, context string) {
	var dbErr *database.Error
	if !errors.As(err, &dbErr) {
		respondInternalError(c, err, context)
		return
	}
	c.JSON(statusFor(dbErr.Kind), ErrorResponse{Error: dbErr.Message, Code: string(dbErr.Kind)})
}

// respondInternalError logs the error and sends a 500 without exposing it.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Error("Internal error", "context", context, "error", err, "request_id", GetRequestID(c))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "internal"})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: string(database.KindInvalid)})
}

func respondNotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: message, Code: string(database.KindNotFound)})
}

// parseIDParam extracts an unsigned integer ID from URL parameters,
// responding with 400 when it is malformed.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parseOptionalUintQuery returns 0 when the parameter is absent.
func parseOptionalUintQuery(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}

func parseIntQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

// Pagination is read from skip/limit query parameters.
type Pagination struct {
	Offset int
	Limit  int
}

func parsePagination(c *gin.Context, defaultLimit int) (Pagination, bool) {
	offset, ok := parseIntQuery(c, "skip", 0)
	if !ok {
		return Pagination{}, false
	}
	limit, ok := parseIntQuery(c, "limit", defaultLimit)
	if !ok {
		return Pagination{}, false
	}
	return Pagination{Offset: offset, Limit: limit}, true
}

// bindJSON decodes the request body, responding with 400 on malformed input.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}
