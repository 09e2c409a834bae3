package handlers

import (
	"net/http"
	"strings"

	"managemint/internal/middleware"
	"managemint/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// partnerRequest is the body for vendors and implementation partners,
// which share the same shape.
type partnerRequest struct {
	MarketerID   *uuid.UUID `json:"marketerId"`
	Name         *string    `json:"name" binding:"omitempty,min=1,max=255"`
	Website      *string    `json:"website" binding:"omitempty,max=255"`
	ContactName  *string    `json:"contactName" binding:"omitempty,max=255"`
	ContactEmail *string    `json:"contactEmail" binding:"omitempty,email"`
	ContactPhone *string    `json:"contactPhone" binding:"omitempty,max=50"`
	Notes        *string    `json:"notes"`
}

func (r partnerRequest) validate(create bool) error {
	if create && r.Name == nil {
		return invalid("name is required")
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return invalid("name must not be empty")
	}
	return nil
}

func (r partnerRequest) apply(name, website, contactName, contactEmail, contactPhone, notes *string) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(name, r.Name)
	set(website, r.Website)
	set(contactName, r.ContactName)
	set(contactEmail, r.ContactEmail)
	set(contactPhone, r.ContactPhone)
	if r.Notes != nil {
		*notes = *r.Notes
	}
}

func (r partnerRequest) applyVendor(v *models.Vendor) {
	r.apply(&v.Name, &v.Website, &v.ContactName, &v.ContactEmail, &v.ContactPhone, &v.Notes)
}

func (r partnerRequest) applyIP(p *models.IP) {
	r.apply(&p.Name, &p.Website, &p.ContactName, &p.ContactEmail, &p.ContactPhone, &p.Notes)
}

// bindPartner binds the body and resolves a requested owner change.
func (h *Handler) bindPartner(c *gin.Context, create bool, current uuid.UUID) (partnerRequest, uuid.UUID, error) {
	var req partnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, current, invalidInput(err)
	}
	if err := req.validate(create); err != nil {
		return req, current, err
	}
	if !create && (req.MarketerID == nil || *req.MarketerID == current) {
		return req, current, nil
	}
	owner, err := h.ownerID(c, req.MarketerID)
	return req, owner, err
}

//
// VENDORS
//

func (h *Handler) ListVendors(c *gin.Context) {
	q, err := bindList(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	db, err := filterIDs(c, h.scoped(c, &models.Vendor{}), idFilter{"marketerId", "marketer_id"})
	if err != nil {
		h.respondError(c, err)
		return
	}
	vendors := []models.Vendor{}
	if err := q.apply(search(c, db, "name"), "created_at").Order("name asc").Find(&vendors).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vendors)
}

func (h *Handler) GetVendor(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.Resource[models.Vendor](c))
}

func (h *Handler) CreateVendor(c *gin.Context) {
	req, owner, err := h.bindPartner(c, true, uuid.Nil)
	if err != nil {
		h.respondError(c, err)
		return
	}
	vendor := models.Vendor{MarketerID: owner}
	req.applyVendor(&vendor)
	if err := h.db.WithContext(c.Request.Context()).Create(&vendor).Error; err != nil {
		h.respondError(c, err)
		return
	}
	h.audit(c, "vendor", vendor.ID, "create", "created vendor "+vendor.Name)
	c.JSON(http.StatusCreated, vendor)
}

func (h *Handler) UpdateVendor(c *gin.Context) {
	vendor := middleware.Resource[models.Vendor](c)
	req, owner, err := h.bindPartner(c, false, vendor.MarketerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	vendor.MarketerID = owner
	req.applyVendor(vendor)
	if err := h.save(c, vendor); err != nil {
		h.respondError(c, err)
		return
	}
	h.audit(c, "vendor", vendor.ID, "update", "updated vendor "+vendor.Name)
	c.JSON(http.StatusOK, vendor)
}

// DeleteVendor removes the vendor and unlinks it from submissions.
func (h *Handler) DeleteVendor(c *gin.Context) {
	vendor := middleware.Resource[models.Vendor](c)
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Submission{}).
			Where("vendor_id = ?", vendor.ID).
			UpdateColumn("vendor_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(vendor).Error
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.audit(c, "vendor", vendor.ID, "delete", "deleted vendor "+vendor.Name)
	message(c, http.StatusOK, "vendor deleted")
}

//
// IMPLEMENTATION PARTNERS
//

func (h *Handler) ListIPs(c *gin.Context) {
	q, err := bindList(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	db, err := filterIDs(c, h.scoped(c, &models.IP{}), idFilter{"marketerId", "marketer_id"})
	if err != nil {
		h.respondError(c, err)
		return
	}
	ips := []models.IP{}
	if err := q.apply(search(c, db, "name"), "created_at").Order("name asc").Find(&ips).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ips)
}

func (h *Handler) GetIP(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.Resource[models.IP](c))
}

func (h *Handler) CreateIP(c *gin.Context) {
	req, owner, err := h.bindPartner(c, true, uuid.Nil)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ip := models.IP{MarketerID: owner}
	req.applyIP(&ip)
	if err := h.db.WithContext(c.Request.Context()).Create(&ip).Error; err != nil {
		h.respondError(c, err)
		return
	}
	h.audit(c, "ip", ip.ID, "create", "created implementation partner "+ip.Name)
	c.JSON(http.StatusCreated, ip)
}

func (h *Handler) UpdateIP(c *gin.Context) {
	ip := middleware.Resource[models.IP](c)
	req, owner, err := h.bindPartner(c, false, ip.MarketerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ip.MarketerID = owner
	req.applyIP(ip)
	if err := h.save(c, ip); err != nil {
		h.respondError(c, err)
		return
	}
	h.audit(c, "ip", ip.ID, "update", "updated implementation partner "+ip.Name)
	c.JSON(http.StatusOK, ip)
}

// DeleteIP removes the partner and unlinks it from submissions.
func (h *Handler) DeleteIP(c *gin.Context) {
	ip := middleware.Resource[models.IP](c)
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Submission{}).
			Where("ip_id = ?", ip.ID).
			UpdateColumn("ip_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(ip).Error
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.audit(c, "ip", ip.ID, "delete", "deleted implementation partner "+ip.Name)
	message(c, http.StatusOK, "implementation partner deleted")
}
