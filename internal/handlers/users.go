package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"managemint/internal/auth"
	"managemint/internal/middleware"
	"managemint/internal/models"
	"managemint/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

//
// LIST / GET
//

func (h *Handler) ListUsers(c *gin.Context) {
	q, err := bindList(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	q.Status = ""

	db := h.db.WithContext(c.Request.Context()).Model(&models.User{})
	if role := c.Query("role"); role != "" {
		db = db.Where("role = ?", role)
	}
	db = search(c, db, "name")

	users := []models.User{}
	if err := q.apply(db, "created_at").Order("name asc").Find(&users).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// ListMarketers is the picker list for assigning records to a marketer.
func (h *Handler) ListMarketers(c *gin.Context) {
	users := []models.User{}
	err := h.db.WithContext(c.Request.Context()).
		Where("role = ?", models.RoleMarketer).
		Order("name asc").
		Find(&users).Error
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.Resource[models.User](c))
}

//
// INVITE
//

type inviteUserRequest struct {
	Name        string          `json:"name" binding:"required,max=255"`
	Email       string          `json:"email" binding:"required,email"`
	Role        models.UserRole `json:"role" binding:"required,oneof=user marketer admin"`
	Phone       string          `json:"phone" binding:"max=50"`
	Designation string          `json:"designation" binding:"max=100"`
	Department  string          `json:"department" binding:"max=100"`
}

// InviteUser creates an account with a temporary password and mails it to
// the invitee. The account is only kept if the mail went out.
func (h *Handler) InviteUser(c *gin.Context) {
	var req inviteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		h.respondError(c, invalid("name must not be blank"))
		return
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

	temp, err := auth.TemporaryPassword()
	if err != nil {
		h.respondError(c, err)
		return
	}
	hash, err := auth.HashPassword(temp)
	if err != nil {
		h.respondError(c, err)
		return
	}

	user := models.User{
		Name:               strings.TrimSpace(req.Name),
		Email:              email,
		PasswordHash:       hash,
		Role:               req.Role,
		Phone:              req.Phone,
		Designation:        req.Designation,
		Department:         req.Department,
		MustChangePassword: true,
	}
	loginURL := strings.TrimRight(h.frontendURL, "/") + "/login"

	ctx := c.Request.Context()
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errDuplicateEmail
			}
			return err
		}
		if err := h.notifier.Send(ctx, notify.Invitation(&user, temp, loginURL)); err != nil {
			return fmt.Errorf("send invitation: %w", err)
		}
		return nil
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.audit(c, "user", user.ID, "invite", "invited "+user.Email+" as "+string(user.Role))
	c.JSON(http.StatusCreated, user)
}

//
// UPDATE / DELETE
//

type updateUserRequest struct {
	updateMeRequest
	Email *string          `json:"email" binding:"omitempty,email"`
	Role  *models.UserRole `json:"role" binding:"omitempty,oneof=user marketer admin"`
}

func (h *Handler) UpdateUser(c *gin.Context) {
	user := middleware.Resource[models.User](c)

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	if err := req.validate(); err != nil {
		h.respondError(c, err)
		return
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		taken, err := h.emailTaken(c, email, user.ID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		if taken {
			h.respondError(c, errDuplicateEmail)
			return
		}
		user.Email = email
	}
	if req.Role != nil {
		if user.ID == middleware.CurrentUser(c).ID && *req.Role != models.RoleAdmin {
			h.respondError(c, fmt.Errorf("%w: you cannot remove your own admin role", errConflict))
			return
		}
		user.Role = *req.Role
	}
	req.apply(user)

	if err := h.save(c, user); err != nil {
		h.respondError(c, err)
		return
	}
	h.audit(c, "user", user.ID, "update", "user updated by admin")
	c.JSON(http.StatusOK, user)
}

// userReferences lists the tables whose rows keep a user from being deleted.
var userReferences = []struct {
	table string
	where string
}{
	{"consultants", "marketer_id = ?"},
	{"clients", "marketer_id = ?"},
	{"vendors", "marketer_id = ?"},
	{"ips", "marketer_id = ?"},
	{"offers", "user_id = ? OR marketer_id = ?"},
	{"timesheets", "user_id = ?"},
	{"meetings", "organizer_id = ?"},
	{"calls", "user_id = ?"},
}

// DeleteUser removes an account that no longer owns any records. Meeting
// invitations are dropped with it.
func (h *Handler) DeleteUser(c *gin.Context) {
	user := middleware.Resource[models.User](c)
	if user.ID == middleware.CurrentUser(c).ID {
		h.respondError(c, fmt.Errorf("%w: you cannot delete your own account", errConflict))
		return
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		for _, ref := range userReferences {
			args := make([]any, strings.Count(ref.where, "?"))
			for i := range args {
				args[i] = user.ID
			}
			var n int64
			if err := tx.Table(ref.table).Where(ref.where, args...).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: user still owns %d %s", errConflict, n, ref.table)
			}
		}
		if err := tx.Exec("DELETE FROM meeting_participants WHERE user_id = ?", user.ID).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.audit(c, "user", user.ID, "delete", "deleted "+user.Email)
	message(c, http.StatusOK, "user deleted")
}

//
// STATS
//

type roleStat struct {
	Role  string `json:"role"`
	Count int64  `json:"count"`
}

type userStatsResponse struct {
	Total       int64      `json:"total"`
	ActiveSince time.Time  `json:"activeSince"`
	Active      int64      `json:"active"`
	ByRole      []roleStat `json:"byRole"`
}

// UserStats counts users per role and those active in the last 24 hours.
func (h *Handler) UserStats(c *gin.Context) {
	db := h.db.WithContext(c.Request.Context())
	out := userStatsResponse{
		ActiveSince: time.Now().UTC().Add(-24 * time.Hour),
		ByRole:      []roleStat{},
	}

	if err := db.Model(&models.User{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Order("role").
		Scan(&out.ByRole).Error; err != nil {
		h.respondError(c, err)
		return
	}
	for _, r := range out.ByRole {
		out.Total += r.Count
	}

	if err := db.Model(&models.User{}).
		Where("last_active >= ?", out.ActiveSince).
		Count(&out.Active).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
