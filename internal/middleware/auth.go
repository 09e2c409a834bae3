package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"managemint/internal/auth"
	"managemint/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SessionTokenKey is where login stores the access token in the session cookie.
const SessionTokenKey = "token"

// Authenticate resolves the bearer token to a user, stores it in the context
// and refreshes the user's last_active timestamp.
func Authenticate(db *gorm.DB, tokens *auth.TokenIssuer, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			abortJSON(c, http.StatusUnauthorized, "authentication required")
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		userID, _ := claims.UserID()

		ctx := c.Request.Context()
		var user models.User
		if err := db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abortJSON(c, http.StatusUnauthorized, "user no longer exists")
				return
			}
			log.Error("load current user", zap.Error(err))
			abortJSON(c, http.StatusInternalServerError, "internal server error")
			return
		}

		now := time.Now().UTC()
		if err := db.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", user.ID).
			UpdateColumn("last_active", now).Error; err != nil {
			log.Warn("update last_active", zap.String("user_id", user.ID.String()), zap.Error(err))
		} else {
			user.LastActive = &now
		}

		c.Set(currentUserKey, &user)
		c.Next()
	}
}

// bearerToken takes the token from the Authorization header, falling back to
// the session cookie written at login.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return ""
	}
	tok, _ := sessions.Default(c).Get(SessionTokenKey).(string)
	return tok
}

func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := map[models.UserRole]struct{}{}
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abortJSON(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if _, ok := roleSet[user.Role]; !ok {
			abortJSON(c, http.StatusForbidden, "access denied")
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}

// RequireMarketer admits marketers and admins.
func RequireMarketer() gin.HandlerFunc {
	return RequireRole(models.RoleMarketer, models.RoleAdmin)
}

func abortJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}
