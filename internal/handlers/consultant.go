package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"managemint/internal/middleware"
	"managemint/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type consultantRequest struct {
	MarketerID      *uuid.UUID               `json:"marketerId"`
	Name            *string                  `json:"name" binding:"omitempty,min=1,max=255"`
	Email           *string                  `json:"email" binding:"omitempty,email"`
	Phone           *string                  `json:"phone" binding:"omitempty,max=50"`
	Technology      *string                  `json:"technology" binding:"omitempty,max=255"`
	ExperienceYears *int                     `json:"experienceYears" binding:"omitempty,min=0,max=70"`
	Location        *string                  `json:"location" binding:"omitempty,max=255"`
	VisaStatus      *string                  `json:"visaStatus" binding:"omitempty,max=100"`
	Rate            *string                  `json:"rate" binding:"omitempty,max=50"`
	Status          *models.ConsultantStatus `json:"status" binding:"omitempty,oneof=Marketing Submitted Assessment Offered Placed"`
	Notes           *string                  `json:"notes"`
}

func (r consultantRequest) apply(m *models.Consultant) {
	if r.Name != nil {
		m.Name = strings.TrimSpace(*r.Name)
	}
	if r.Email != nil {
		m.Email = strings.TrimSpace(*r.Email)
	}
	if r.Phone != nil {
		m.Phone = *r.Phone
	}
	if r.Technology != nil {
		m.Technology = *r.Technology
	}
	if r.ExperienceYears != nil {
		m.ExperienceYears = *r.ExperienceYears
	}
	if r.Location != nil {
		m.Location = *r.Location
	}
	if r.VisaStatus != nil {
		m.VisaStatus = *r.VisaStatus
	}
	if r.Rate != nil {
		m.Rate = *r.Rate
	}
	if r.Status != nil {
		m.Status = *r.Status
	}
	if r.Notes != nil {
		m.Notes = *r.Notes
	}
}

func (h *Handler) ListConsultants(c *gin.Context) {
	q, err := bindList(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	db, err := filterIDs(c, h.scoped(c, &models.Consultant{}), idFilter{"marketerId", "marketer_id"})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if tech := strings.TrimSpace(c.Query("technology")); tech != "" {
		db = db.Where("LOWER(technology) LIKE ?", "%"+strings.ToLower(tech)+"%")
	}
	db = search(c, db, "name")

	consultants := []models.Consultant{}
	if err := q.apply(db, "created_at").Order("created_at desc").Find(&consultants).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, consultants)
}

func (h *Handler) GetConsultant(c *gin.Context) {
	consultant := middleware.Resource[models.Consultant](c)
	var profile models.Profile
	err := h.db.WithContext(c.Request.Context()).Where("consultant_id = ?", consultant.ID).First(&profile).Error
	switch {
	case err == nil:
		consultant.Profile = &profile
	case !errors.Is(err, gorm.ErrRecordNotFound):
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, consultant)
}

// CreateConsultant stores a new consultant in the Marketing stage unless a
// status is given.
func (h *Handler) CreateConsultant(c *gin.Context) {
	var req consultantRequest
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

	consultant := models.Consultant{MarketerID: owner, Status: models.ConsultantMarketing}
	req.apply(&consultant)
	if err := h.db.WithContext(c.Request.Context()).Create(&consultant).Error; err != nil {
		h.respondError(c, err)
		return
	}

	h.audit(c, "consultant", consultant.ID, "create", "created consultant "+consultant.Name)
	c.JSON(http.StatusCreated, consultant)
}

func (h *Handler) UpdateConsultant(c *gin.Context) {
	consultant := middleware.Resource[models.Consultant](c)

	var req consultantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		h.respondError(c, invalid("name must not be empty"))
		return
	}
	previous := consultant.Status

	owner := consultant.MarketerID
	if req.MarketerID != nil && *req.MarketerID != consultant.MarketerID {
		var err error
		if owner, err = h.ownerID(c, req.MarketerID); err != nil {
			h.respondError(c, err)
			return
		}
	}
	req.apply(consultant)

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if owner != consultant.MarketerID {
			if err := reassignConsultant(tx, consultant, owner); err != nil {
				return err
			}
		}
		return tx.Omit(clause.Associations).Save(consultant).Error
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	details := "updated consultant " + consultant.Name
	if consultant.Status != previous {
		details += ": " + string(previous) + " -> " + string(consultant.Status)
	}
	h.audit(c, "consultant", consultant.ID, "update", details)
	c.JSON(http.StatusOK, consultant)
}

// reassignConsultant moves the consultant and its pipeline records to another marketer.
func reassignConsultant(tx *gorm.DB, consultant *models.Consultant, owner uuid.UUID) error {
	for _, model := range []any{&models.Profile{}, &models.Submission{}, &models.Assessment{}} {
		if err := tx.Model(model).
			Where("consultant_id = ?", consultant.ID).
			UpdateColumn("marketer_id", owner).Error; err != nil {
			return err
		}
	}
	consultant.MarketerID = owner
	return nil
}

// DeleteConsultant removes the consultant with its profile, submissions and
// assessments. Calls that mention it are kept and unlinked.
func (h *Handler) DeleteConsultant(c *gin.Context) {
	consultant := middleware.Resource[models.Consultant](c)

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		submissions := tx.Model(&models.Submission{}).Select("id").Where("consultant_id = ?", consultant.ID)
		if err := tx.Model(&models.Assessment{}).
			Where("submission_id IN (?)", submissions).
			UpdateColumn("submission_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Call{}).
			Where("consultant_id = ?", consultant.ID).
			UpdateColumn("consultant_id", nil).Error; err != nil {
			return err
		}
		for _, model := range []any{&models.Assessment{}, &models.Submission{}, &models.Profile{}} {
			if err := tx.Where("consultant_id = ?", consultant.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(consultant).Error
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.audit(c, "consultant", consultant.ID, "delete", "deleted consultant "+consultant.Name)
	message(c, http.StatusOK, "consultant deleted")
}

func (h *Handler) ConsultantStats(c *gin.Context) {
	stats, err := h.groupStats(c, &models.Consultant{}, "created_at", "", 30*24*time.Hour)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

//
// PROFILE
//

type profileRequest struct {
	Summary        *string `json:"summary"`
	Skills         *string `json:"skills"`
	Education      *string `json:"education"`
	Certifications *string `json:"certifications"`
	ResumeURL      *string `json:"resumeUrl" binding:"omitempty,url,max=500"`
	LinkedInURL    *string `json:"linkedinUrl" binding:"omitempty,url,max=500"`
}

func (r profileRequest) apply(p *models.Profile) {
	if r.Summary != nil {
		p.Summary = *r.Summary
	}
	if r.Skills != nil {
		p.Skills = *r.Skills
	}
	if r.Education != nil {
		p.Education = *r.Education
	}
	if r.Certifications != nil {
		p.Certifications = *r.Certifications
	}
	if r.ResumeURL != nil {
		p.ResumeURL = *r.ResumeURL
	}
	if r.LinkedInURL != nil {
		p.LinkedInURL = *r.LinkedInURL
	}
}

func (h *Handler) GetProfile(c *gin.Context) {
	consultant := middleware.Resource[models.Consultant](c)
	var profile models.Profile
	if err := h.db.WithContext(c.Request.Context()).Where("consultant_id = ?", consultant.ID).First(&profile).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// PutProfile creates the consultant's profile or merges into the existing one.
func (h *Handler) PutProfile(c *gin.Context) {
	consultant := middleware.Resource[models.Consultant](c)

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}

	var profile models.Profile
	err := h.db.WithContext(c.Request.Context()).Where("consultant_id = ?", consultant.ID).First(&profile).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		h.respondError(c, err)
		return
	}

	profile.ConsultantID = consultant.ID
	profile.MarketerID = consultant.MarketerID
	req.apply(&profile)
	if err := h.save(c, &profile); err != nil {
		h.respondError(c, err)
		return
	}

	status, action := http.StatusOK, "update"
	if created {
		status, action = http.StatusCreated, "create"
	}
	h.audit(c, "profile", profile.ID, action, "profile of "+consultant.Name)
	c.JSON(status, profile)
}
