package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"managemint/internal/auth"
	"managemint/internal/middleware"
	"managemint/internal/models"
	"managemint/internal/notify"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const resetTokenTTL = time.Hour

type registerRequest struct {
	Name     string          `json:"name" binding:"required,max=255"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=8,max=72"`
	Role     models.UserRole `json:"role" binding:"omitempty,oneof=user marketer"`
	Phone    string          `json:"phone" binding:"max=50"`
}

type tokenResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expiresIn"`
	User      *models.User `json:"user"`
}

// session returns the cookie session when the router installed one.
func session(c *gin.Context) sessions.Session {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return nil
	}
	return sessions.Default(c)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// emailTaken reports whether a user other than except already uses email.
func (h *Handler) emailTaken(c *gin.Context, email string, except uuid.UUID) (bool, error) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.User{}).Where("email = ?", email)
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Register creates a self-service account. Only user and marketer roles are
// open to registration; marketer is the default.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		h.respondError(c, invalid("name must not be blank"))
		return
	}
	if req.Role == "" {
		req.Role = models.RoleMarketer
	}
	email := normalizeEmail(req.Email)

	taken, err := h.emailTaken(c, email, uuid.Nil)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if taken {
		h.respondError(c, errDuplicateEmail)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
		Phone:        req.Phone,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = errDuplicateEmail
		}
		h.respondError(c, err)
		return
	}
	middleware.SetCurrentUser(c, &user)
	h.audit(c, "user", user.ID, "register", "registered as "+string(user.Role))

	h.issueToken(c, http.StatusCreated, &user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}

	var user models.User
	err := h.db.WithContext(c.Request.Context()).Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		h.respondError(c, errInvalidCredentials)
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		h.respondError(c, errInvalidCredentials)
		return
	}

	now := time.Now().UTC()
	if err := h.db.WithContext(c.Request.Context()).Model(&user).UpdateColumn("last_active", now).Error; err != nil {
		h.log.Warn("update last_active", zap.String("user_id", user.ID.String()), zap.Error(err))
	} else {
		user.LastActive = &now
	}

	h.issueToken(c, http.StatusOK, &user)
}

// issueToken signs a token for user, stores it in the session cookie and
// writes {token, expiresIn, user}.
func (h *Handler) issueToken(c *gin.Context, status int, user *models.User) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if sess := session(c); sess != nil {
		sess.Set(middleware.SessionTokenKey, token)
		if err := sess.Save(); err != nil {
			h.log.Warn("save session", zap.Error(err))
		}
	}
	c.JSON(status, tokenResponse{
		Token:     token,
		ExpiresIn: int64(h.tokens.TTL() / time.Second),
		User:      user,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	if sess := session(c); sess != nil {
		sess.Clear()
		sess.Options(sessions.Options{Path: "/", MaxAge: -1})
		_ = sess.Save()
	}
	message(c, http.StatusOK, "logged out")
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword answers 200 whether or not the address is known. For a
// known address it stores the hash of a fresh reset token and mails the link.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	const reply = "if the address is registered, a reset link has been sent"

	var user models.User
	err := h.db.WithContext(c.Request.Context()).Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		message(c, http.StatusOK, reply)
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, hash, err := auth.NewResetToken()
	if err != nil {
		h.respondError(c, err)
		return
	}
	expiry := time.Now().UTC().Add(resetTokenTTL)
	if err := h.db.WithContext(c.Request.Context()).Model(&user).UpdateColumns(map[string]any{
		"reset_token_hash":   hash,
		"reset_token_expiry": expiry,
	}).Error; err != nil {
		h.respondError(c, err)
		return
	}

	link := strings.TrimRight(h.frontendURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
	if err := h.notifier.Send(c.Request.Context(), notify.PasswordReset(&user, link)); err != nil {
		h.respondError(c, err)
		return
	}
	message(c, http.StatusOK, reply)
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}

	var user models.User
	err := h.db.WithContext(c.Request.Context()).
		Where("reset_token_hash = ? AND reset_token_expiry > ?", auth.HashToken(req.Token), time.Now().UTC()).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		h.respondError(c, invalid("invalid or expired reset token"))
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.setPassword(c, &user, req.Password); err != nil {
		h.respondError(c, err)
		return
	}
	middleware.SetCurrentUser(c, &user)
	h.audit(c, "user", user.ID, "reset_password", "")
	message(c, http.StatusOK, "password updated")
}

// setPassword stores a new hash and clears any pending reset token.
func (h *Handler) setPassword(c *gin.Context, user *models.User, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return h.db.WithContext(c.Request.Context()).Model(user).UpdateColumns(map[string]any{
		"password_hash":        hash,
		"must_change_password": false,
		"reset_token_hash":     "",
		"reset_token_expiry":   nil,
		"updated_at":           time.Now().UTC(),
	}).Error
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

type updateMeRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Phone       *string `json:"phone" binding:"omitempty,max=50"`
	Designation *string `json:"designation" binding:"omitempty,max=100"`
	Department  *string `json:"department" binding:"omitempty,max=100"`
}

func (r updateMeRequest) validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return invalid("name must not be blank")
	}
	return nil
}

func (r updateMeRequest) apply(u *models.User) {
	if r.Name != nil {
		u.Name = strings.TrimSpace(*r.Name)
	}
	if r.Phone != nil {
		u.Phone = *r.Phone
	}
	if r.Designation != nil {
		u.Designation = *r.Designation
	}
	if r.Department != nil {
		u.Department = *r.Department
	}
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var req updateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	if err := req.validate(); err != nil {
		h.respondError(c, err)
		return
	}
	user := middleware.CurrentUser(c)
	req.apply(user)
	if err := h.save(c, user); err != nil {
		h.respondError(c, err)
		return
	}
	h.audit(c, "user", user.ID, "update", "profile updated")
	c.JSON(http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=72"`
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	user := middleware.CurrentUser(c)
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		h.respondError(c, invalid("current password is incorrect"))
		return
	}
	if err := h.setPassword(c, user, req.NewPassword); err != nil {
		h.respondError(c, err)
		return
	}
	h.audit(c, "user", user.ID, "change_password", "")
	message(c, http.StatusOK, "password updated")
}
