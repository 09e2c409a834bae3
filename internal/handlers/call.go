package handlers

import (
	"net/http"
	"strings"
	"time"

	"managemint/internal/middleware"
	"managemint/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type callRequest struct {
	ConsultantID    *uuid.UUID            `json:"consultantId"`
	ContactName     *string               `json:"contactName" binding:"omitempty,min=1,max=255"`
	Phone           *string               `json:"phone" binding:"omitempty,max=50"`
	Direction       *models.CallDirection `json:"direction" binding:"omitempty,oneof=inbound outbound"`
	Status          *models.CallStatus    `json:"status" binding:"omitempty,oneof=completed missed scheduled"`
	StartedAt       *time.Time            `json:"startedAt"`
	DurationMinutes *int                  `json:"durationMinutes" binding:"omitempty,min=0,max=1440"`
	Notes           *string               `json:"notes"`
}

func (r callRequest) apply(m *models.Call) error {
	if r.ContactName != nil {
		m.ContactName = strings.TrimSpace(*r.ContactName)
	}
	if r.Phone != nil {
		m.Phone = *r.Phone
	}
	if r.Direction != nil {
		m.Direction = *r.Direction
	}
	if r.Status != nil {
		m.Status = *r.Status
	}
	if r.StartedAt != nil {
		m.StartedAt = r.StartedAt.UTC()
	}
	if r.DurationMinutes != nil {
		m.DurationMinutes = *r.DurationMinutes
	}
	if r.Notes != nil {
		m.Notes = *r.Notes
	}
	if m.ContactName == "" {
		return invalid("contactName is required")
	}
	return nil
}

func (h *Handler) ListCalls(c *gin.Context) {
	q, err := bindList(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	db, err := filterIDs(c, h.scoped(c, &models.Call{}),
		idFilter{"consultantId", "consultant_id"},
		idFilter{"userId", "user_id"},
	)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if dir := c.Query("direction"); dir != "" {
		db = db.Where("direction = ?", dir)
	}

	calls := []models.Call{}
	if err := q.apply(search(c, db, "contact_name"), "started_at").Order("started_at desc").Find(&calls).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, calls)
}

func (h *Handler) GetCall(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.Resource[models.Call](c))
}

func (h *Handler) CreateCall(c *gin.Context) {
	var req callRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	if _, err := checkRef[models.Consultant](h, c, req.ConsultantID, "consultantId"); err != nil {
		h.respondError(c, err)
		return
	}

	call := models.Call{
		UserID:       middleware.CurrentUser(c).ID,
		ConsultantID: optionalRef(req.ConsultantID),
		Direction:    models.CallOutbound,
		Status:       models.CallCompleted,
		StartedAt:    time.Now().UTC(),
	}
	if err := req.apply(&call); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&call).Error; err != nil {
		h.respondError(c, err)
		return
	}

	h.audit(c, "call", call.ID, "create", string(call.Direction)+" call with "+call.ContactName)
	c.JSON(http.StatusCreated, call)
}

func (h *Handler) UpdateCall(c *gin.Context) {
	call := middleware.Resource[models.Call](c)

	var req callRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	if req.ConsultantID != nil {
		if _, err := checkRef[models.Consultant](h, c, req.ConsultantID, "consultantId"); err != nil {
			h.respondError(c, err)
			return
		}
		call.ConsultantID = optionalRef(req.ConsultantID)
	}
	if err := req.apply(call); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.save(c, call); err != nil {
		h.respondError(c, err)
		return
	}
	h.audit(c, "call", call.ID, "update", "call with "+call.ContactName)
	c.JSON(http.StatusOK, call)
}

func (h *Handler) DeleteCall(c *gin.Context) {
	call := middleware.Resource[models.Call](c)
	if err := h.db.WithContext(c.Request.Context()).Delete(call).Error; err != nil {
		h.respondError(c, err)
		return
	}
	h.audit(c, "call", call.ID, "delete", "call with "+call.ContactName)
	message(c, http.StatusOK, "call deleted")
}

// CallStats summarises the caller's calls over the last 24 hours.
func (h *Handler) CallStats(c *gin.Context) {
	stats, err := h.groupStats(c, &models.Call{}, "started_at", "duration_minutes", 24*time.Hour)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
