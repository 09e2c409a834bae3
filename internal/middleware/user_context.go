package middleware

import (
	"errors"
	"net/http"

	"managemint/internal/access"
	"managemint/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	currentUserKey = "CurrentUser"
	resourceKey    = "Resource"
)

// CurrentUser returns the user stored by Authenticate, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// SetCurrentUser is used by Authenticate and by tests that bypass it.
func SetCurrentUser(c *gin.Context, u *models.User) {
	c.Set(currentUserKey, u)
}

// LoadOwned loads the T named by the :id path parameter and admits the
// request only if the caller is an admin or one of the record's owners.
// Absent record → 404, foreign record → 403.
func LoadOwned[T any, PT interface {
	*T
	models.Owned
}](db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			abortJSON(c, http.StatusNotFound, "not found")
			return
		}

		rec := PT(new(T))
		if err := db.WithContext(c.Request.Context()).First(rec, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abortJSON(c, http.StatusNotFound, "not found")
				return
			}
			log.Error("load resource", zap.String("path", c.FullPath()), zap.Error(err))
			abortJSON(c, http.StatusInternalServerError, "internal server error")
			return
		}

		if !access.CanAccess(CurrentUser(c), rec) {
			abortJSON(c, http.StatusForbidden, "access denied")
			return
		}

		c.Set(resourceKey, rec)
		c.Next()
	}
}

// Resource returns the record stored by LoadOwned.
func Resource[T any](c *gin.Context) *T {
	v, ok := c.Get(resourceKey)
	if !ok {
		return nil
	}
	r, _ := v.(*T)
	return r
}
