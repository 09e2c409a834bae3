package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errNotFound           = errors.New("not found")
	errForbidden          = errors.New("access denied")
	errInvalidTransition  = errors.New("invalid status transition")
	errLocked             = errors.New("record can no longer be modified")
	errConflict           = errors.New("conflict")
	errDuplicateEmail     = errors.New("email already registered")
	errInvalidCredentials = errors.New("invalid email or password")
)

// validationError is a client input problem (400). Detail is echoed as "error".
type validationError struct {
	message string
	detail  string
}

func (e *validationError) Error() string {
	if e.detail == "" {
		return e.message
	}
	return e.message + ": " + e.detail
}

func invalid(message string) error {
	return &validationError{message: message}
}

func invalidInput(err error) error {
	return &validationError{message: "validation failed", detail: err.Error()}
}

// respondError maps err to a status code and writes {message, error?}.
// Unclassified errors are logged and answered with a generic 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	var vErr *validationError
	switch {
	case errors.As(err, &vErr):
		body := gin.H{"message": vErr.message}
		if vErr.detail != "" {
			body["error"] = vErr.detail
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, body)
	case errors.Is(err, errDuplicateEmail), errors.Is(err, gorm.ErrDuplicatedKey):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, errInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
	case errors.Is(err, errForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": err.Error()})
	case errors.Is(err, errNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "not found"})
	case errors.Is(err, errInvalidTransition), errors.Is(err, errLocked), errors.Is(err, errConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": err.Error()})
	default:
		h.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}

func message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}
