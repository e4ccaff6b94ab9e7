package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mealattendance/internal/meal"
	"mealattendance/internal/users"
)

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, meal.ErrValidation),
		errors.Is(err, meal.ErrCutoffExceeded),
		errors.Is(err, meal.ErrTooEarly),
		errors.Is(err, meal.ErrDuplicateSubmission),
		errors.Is(err, users.ErrWeakPassword),
		errors.Is(err, users.ErrInvalidToken):
		return http.StatusBadRequest
	case errors.Is(err, users.ErrInvalidCredentials), errors.Is(err, meal.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, users.ErrNotVerified):
		return http.StatusForbidden
	case errors.Is(err, users.ErrUserNotFound), errors.Is(err, meal.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, users.ErrEmailExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {success:false, message}. Timing errors also echo the
// server's wall-clock time; internal errors are logged and masked.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		slog.Error("request error", "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(status, gin.H{"success": false, "message": "Server error"})
		return
	}
	body := gin.H{"success": false, "message": err.Error()}
	if now, ok := meal.ServerTime(err); ok {
		body["currentServerTime"] = now.Format("15:04")
	}
	c.AbortWithStatusJSON(status, body)
}
