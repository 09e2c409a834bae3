package handlers

import (
	"net/http"
	"strings"

	"managemint/internal/middleware"
	"managemint/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type pocRequest struct {
	ClientID *uuid.UUID      `json:"clientId"`
	Name     *string         `json:"name" binding:"omitempty,min=1,max=255"`
	Email    *string         `json:"email" binding:"omitempty,email"`
	Phone    *string         `json:"phone" binding:"omitempty,max=50"`
	Type     *models.POCType `json:"type" binding:"omitempty,oneof=Billing Time-sheet Recruiter Other"`
	Notes    *string         `json:"notes"`
}

func (r pocRequest) apply(p *models.POC) {
	if r.Name != nil {
		p.Name = strings.TrimSpace(*r.Name)
	}
	if r.Email != nil {
		p.Email = strings.TrimSpace(*r.Email)
	}
	if r.Phone != nil {
		p.Phone = *r.Phone
	}
	if r.Type != nil {
		p.Type = *r.Type
	}
	if r.Notes != nil {
		p.Notes = *r.Notes
	}
}

func (h *Handler) ListPOCs(c *gin.Context) {
	q, err := bindList(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	db, err := filterIDs(c, h.scoped(c, &models.POC{}), idFilter{"clientId", "client_id"})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if t := c.Query("type"); t != "" {
		db = db.Where("type = ?", t)
	}
	db = search(c, db, "name")

	pocs := []models.POC{}
	if err := q.apply(db, "created_at").Order("name asc").Find(&pocs).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pocs)
}

func (h *Handler) GetPOC(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.Resource[models.POC](c))
}

// CreatePOC adds a contact to a client the caller owns. The contact is
// owned by the client's marketer.
func (h *Handler) CreatePOC(c *gin.Context) {
	var req pocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		h.respondError(c, invalid("name is required"))
		return
	}
	client, err := requireRef[models.Client](h, c, req.ClientID, "clientId")
	if err != nil {
		h.respondError(c, err)
		return
	}

	poc := models.POC{ClientID: client.ID, MarketerID: client.MarketerID, Type: models.POCOther}
	req.apply(&poc)
	if err := h.db.WithContext(c.Request.Context()).Create(&poc).Error; err != nil {
		h.respondError(c, err)
		return
	}

	h.audit(c, "poc", poc.ID, "create", "created contact "+poc.Name+" for "+client.Name)
	c.JSON(http.StatusCreated, poc)
}

func (h *Handler) UpdatePOC(c *gin.Context) {
	poc := middleware.Resource[models.POC](c)

	var req pocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		h.respondError(c, invalid("name must not be empty"))
		return
	}
	moved := false
	if req.ClientID != nil && *req.ClientID != poc.ClientID {
		client, err := requireRef[models.Client](h, c, req.ClientID, "clientId")
		if err != nil {
			h.respondError(c, err)
			return
		}
		poc.ClientID, poc.MarketerID = client.ID, client.MarketerID
		moved = true
	}
	req.apply(poc)

	// a moved contact is unlinked from the old client's submissions
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if moved {
			if err := tx.Model(&models.Submission{}).
				Where("poc_id = ? AND client_id <> ?", poc.ID, poc.ClientID).
				UpdateColumn("poc_id", nil).Error; err != nil {
				return err
			}
		}
		return tx.Omit(clause.Associations).Save(poc).Error
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.audit(c, "poc", poc.ID, "update", "updated contact "+poc.Name)
	c.JSON(http.StatusOK, poc)
}

// DeletePOC removes the contact and unlinks it from submissions.
func (h *Handler) DeletePOC(c *gin.Context) {
	poc := middleware.Resource[models.POC](c)

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Submission{}).
			Where("poc_id = ?", poc.ID).
			UpdateColumn("poc_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(poc).Error
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.audit(c, "poc", poc.ID, "delete", "deleted contact "+poc.Name)
	message(c, http.StatusOK, "poc deleted")
}
