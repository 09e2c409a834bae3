package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"managemint/internal/middleware"
	"managemint/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type clientRequest struct {
	MarketerID   *uuid.UUID `json:"marketerId"`
	Name         *string    `json:"name" binding:"omitempty,min=1,max=255"`
	Industry     *string    `json:"industry" binding:"omitempty,max=100"`
	Website      *string    `json:"website" binding:"omitempty,max=255"`
	Address      *string    `json:"address" binding:"omitempty,max=500"`
	ContactEmail *string    `json:"contactEmail" binding:"omitempty,email"`
	ContactPhone *string    `json:"contactPhone" binding:"omitempty,max=50"`
	Notes        *string    `json:"notes"`
}

func (r clientRequest) apply(m *models.Client) {
	if r.Name != nil {
		m.Name = strings.TrimSpace(*r.Name)
	}
	if r.Industry != nil {
		m.Industry = *r.Industry
	}
	if r.Website != nil {
		m.Website = *r.Website
	}
	if r.Address != nil {
		m.Address = *r.Address
	}
	if r.ContactEmail != nil {
		m.ContactEmail = strings.TrimSpace(*r.ContactEmail)
	}
	if r.ContactPhone != nil {
		m.ContactPhone = *r.ContactPhone
	}
	if r.Notes != nil {
		m.Notes = *r.Notes
	}
}

//
// LIST / CREATE
//

func (h *Handler) ListClients(c *gin.Context) {
	q, err := bindList(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	db, err := filterIDs(c, h.scoped(c, &models.Client{}), idFilter{"marketerId", "marketer_id"})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if industry := c.Query("industry"); industry != "" {
		db = db.Where("industry = ?", industry)
	}
	db = search(c, db, "name")

	clients := []models.Client{}
	if err := q.apply(db, "created_at").Order("name asc").Find(&clients).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

// clientNameTaken checks the owner's clients for the same name, ignoring case.
func (h *Handler) clientNameTaken(c *gin.Context, owner uuid.UUID, name string, except uuid.UUID) (bool, error) {
	var count int64
	err := h.db.WithContext(c.Request.Context()).Model(&models.Client{}).
		Where("marketer_id = ? AND LOWER(name) = LOWER(?) AND id <> ?", owner, name, except).
		Count(&count).Error
	return count > 0, err
}

func (h *Handler) CreateClient(c *gin.Context) {
	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		h.respondError(c, invalid("name is required"))
		return
	}
	owner, err := h.ownerID(c, req.MarketerID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	client := models.Client{MarketerID: owner}
	req.apply(&client)

	taken, err := h.clientNameTaken(c, owner, client.Name, uuid.Nil)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if taken {
		h.respondError(c, invalid("a client with this name already exists"))
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&client).Error; err != nil {
		h.respondError(c, err)
		return
	}

	h.audit(c, "client", client.ID, "create", "created client "+client.Name)
	c.JSON(http.StatusCreated, client)
}

//
// DETAIL / UPDATE / DELETE
//

// GetClient returns the client with its points of contact.
func (h *Handler) GetClient(c *gin.Context) {
	client := middleware.Resource[models.Client](c)
	if err := h.db.WithContext(c.Request.Context()).
		Where("client_id = ?", client.ID).
		Order("name asc").
		Find(&client.POCs).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *Handler) UpdateClient(c *gin.Context) {
	client := middleware.Resource[models.Client](c)

	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		h.respondError(c, invalid("name must not be empty"))
		return
	}
	if req.MarketerID != nil && *req.MarketerID != client.MarketerID {
		owner, err := h.ownerID(c, req.MarketerID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		client.MarketerID = owner
	}
	req.apply(client)

	taken, err := h.clientNameTaken(c, client.MarketerID, client.Name, client.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if taken {
		h.respondError(c, invalid("a client with this name already exists"))
		return
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("POCs").Save(client).Error; err != nil {
			return err
		}
		return tx.Model(&models.POC{}).
			Where("client_id = ?", client.ID).
			UpdateColumn("marketer_id", client.MarketerID).Error
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.audit(c, "client", client.ID, "update", "updated client "+client.Name)
	c.JSON(http.StatusOK, client)
}

// DeleteClient removes a client and its POCs. Clients that still have
// submissions or assessments are kept.
func (h *Handler) DeleteClient(c *gin.Context) {
	client := middleware.Resource[models.Client](c)

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Submission{}, &models.Assessment{}} {
			var n int64
			if err := tx.Model(model).Where("client_id = ?", client.ID).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: client still has submissions or assessments", errConflict)
			}
		}

		pocs := tx.Model(&models.POC{}).Select("id").Where("client_id = ?", client.ID)
		if err := tx.Model(&models.Submission{}).
			Where("poc_id IN (?)", pocs).
			UpdateColumn("poc_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Offer{}).
			Where("client_id = ?", client.ID).
			UpdateColumn("client_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("client_id = ?", client.ID).Delete(&models.POC{}).Error; err != nil {
			return err
		}
		return tx.Delete(client).Error
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.audit(c, "client", client.ID, "delete", "deleted client "+client.Name)
	message(c, http.StatusOK, "client deleted")
}

// ListClientPOCs returns the points of contact of one client.
func (h *Handler) ListClientPOCs(c *gin.Context) {
	client := middleware.Resource[models.Client](c)
	pocs := []models.POC{}
	if err := h.db.WithContext(c.Request.Context()).
		Where("client_id = ?", client.ID).
		Order("name asc").
		Find(&pocs).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pocs)
}
