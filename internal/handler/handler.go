package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"abbey/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// MessageResponse is returned by mutations that have nothing else to report.
type MessageResponse struct {
	Message string `json:"message" example:"Friend removed successfully"`
}

// Handler serves the REST API on top of the services.
type Handler struct {
	auth    *service.AuthService
	users   *service.UserService
	friends *service.FriendService
	follows *service.FollowService
	log     *zap.Logger
}

func New(auth *service.AuthService, users *service.UserService, friends *service.FriendService, follows *service.FollowService, log *zap.Logger) *Handler {
	return &Handler{auth: auth, users: users, friends: friends, follows: follows, log: log}
}

var kindStatus = map[service.Kind]int{
	service.KindInvalid:      http.StatusBadRequest,
	service.KindUnauthorized: http.StatusUnauthorized,
	service.KindForbidden:    http.StatusForbidden,
	service.KindNotFound:     http.StatusNotFound,
	service.KindConflict:     http.StatusConflict,
}

// respondError writes err to the client. Anything that is not a service
// error is logged and hidden behind fallback.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	if e, ok := service.AsError(err); ok {
		if status, ok := kindStatus[e.Kind]; ok {
			c.JSON(status, gin.H{"error": e.Message})
			return
		}
	}

	h.log.Error(fallback,
		zap.Error(err),
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}

// parseID accepts only the canonical 36 character form.
func parseID(raw string) (uuid.UUID, bool) {
	if len(raw) != 36 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// bindErrorMessage maps a failed bind of a single-id body to a client
// message: a value of the wrong JSON type is invalid, anything else (empty or
// malformed body) means the id was not supplied.
func bindErrorMessage(err error, required, invalid string) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return invalid
	}
	return required
}

// pathID reads a UUID path parameter, answering 400 with msg when it is
// malformed.
func pathID(c *gin.Context, param, msg string) (uuid.UUID, bool) {
	id, ok := parseID(c.Param(param))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
	}
	return id, ok
}
