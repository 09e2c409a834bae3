package handlers

import (
	"net/http"
	"strings"
	"time"

	"managemint/internal/middleware"
	"managemint/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Optional references (vendorId, ipId, pocId, submissionId) are cleared on
// update by sending the nil UUID.

type submissionRequest struct {
	ConsultantID *uuid.UUID               `json:"consultantId"`
	ClientID     *uuid.UUID               `json:"clientId"`
	VendorID     *uuid.UUID               `json:"vendorId"`
	IPID         *uuid.UUID               `json:"ipId"`
	POCID        *uuid.UUID               `json:"pocId"`
	JobTitle     *string                  `json:"jobTitle" binding:"omitempty,min=1,max=255"`
	Rate         *string                  `json:"rate" binding:"omitempty,max=50"`
	SubmittedAt  *time.Time               `json:"submittedAt"`
	Status       *models.SubmissionStatus `json:"status" binding:"omitempty,oneof=Pending Accepted Rejected"`
	Notes        *string                  `json:"notes"`
}

// optionalRef returns the id to store for an optional reference.
func optionalRef(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	v := *id
	return &v
}

// resolve validates the references present in the request and copies them,
// with the scalar fields, into s.
func (r submissionRequest) resolve(h *Handler, c *gin.Context, s *models.Submission) error {
	if r.ConsultantID != nil {
		consultant, err := requireRef[models.Consultant](h, c, r.ConsultantID, "consultantId")
		if err != nil {
			return err
		}
		s.ConsultantID, s.MarketerID = consultant.ID, consultant.MarketerID
	}
	if r.ClientID != nil {
		client, err := requireRef[models.Client](h, c, r.ClientID, "clientId")
		if err != nil {
			return err
		}
		s.ClientID = client.ID
	}
	if r.VendorID != nil {
		if _, err := checkRef[models.Vendor](h, c, r.VendorID, "vendorId"); err != nil {
			return err
		}
		s.VendorID = optionalRef(r.VendorID)
	}
	if r.IPID != nil {
		if _, err := checkRef[models.IP](h, c, r.IPID, "ipId"); err != nil {
			return err
		}
		s.IPID = optionalRef(r.IPID)
	}
	if r.POCID != nil {
		poc, err := checkRef[models.POC](h, c, r.POCID, "pocId")
		if err != nil {
			return err
		}
		s.POCID = optionalRef(r.POCID)
		if poc != nil && poc.ClientID != s.ClientID {
			return invalid("pocId does not belong to the submission's client")
		}
	} else if r.ClientID != nil && s.POCID != nil {
		var poc models.POC
		if err := h.db.WithContext(c.Request.Context()).First(&poc, "id = ?", *s.POCID).Error; err != nil {
			return err
		}
		if poc.ClientID != s.ClientID {
			return invalid("the current pocId belongs to another client; send pocId with clientId")
		}
	}

	if r.JobTitle != nil {
		s.JobTitle = strings.TrimSpace(*r.JobTitle)
	}
	if r.Rate != nil {
		s.Rate = *r.Rate
	}
	if r.SubmittedAt != nil {
		s.SubmittedAt = r.SubmittedAt.UTC()
	}
	if r.Status != nil {
		s.Status = *r.Status
	}
	if r.Notes != nil {
		s.Notes = *r.Notes
	}
	return nil
}

func (h *Handler) ListSubmissions(c *gin.Context) {
	q, err := bindList(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	db, err := filterIDs(c, h.scoped(c, &models.Submission{}),
		idFilter{"consultantId", "consultant_id"},
		idFilter{"clientId", "client_id"},
		idFilter{"vendorId", "vendor_id"},
		idFilter{"ipId", "ip_id"},
		idFilter{"pocId", "poc_id"},
		idFilter{"marketerId", "marketer_id"},
	)
	if err != nil {
		h.respondError(c, err)
		return
	}

	submissions := []models.Submission{}
	if err := q.apply(search(c, db, "job_title"), "submitted_at").Order("submitted_at desc").Find(&submissions).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, submissions)
}

func (h *Handler) GetSubmission(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.Resource[models.Submission](c))
}

// CreateSubmission records a consultant submitted to a client. The
// submission belongs to the consultant's marketer.
func (h *Handler) CreateSubmission(c *gin.Context) {
	var req submissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	switch {
	case req.ConsultantID == nil:
		h.respondError(c, invalid("consultantId is required"))
		return
	case req.ClientID == nil:
		h.respondError(c, invalid("clientId is required"))
		return
	case req.JobTitle == nil || strings.TrimSpace(*req.JobTitle) == "":
		h.respondError(c, invalid("jobTitle is required"))
		return
	}

	submission := models.Submission{
		SubmittedAt: time.Now().UTC(),
		Status:      models.SubmissionPending,
	}
	if err := req.resolve(h, c, &submission); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&submission).Error; err != nil {
		h.respondError(c, err)
		return
	}

	h.audit(c, "submission", submission.ID, "create", "submitted for "+submission.JobTitle)
	c.JSON(http.StatusCreated, submission)
}

func (h *Handler) UpdateSubmission(c *gin.Context) {
	submission := middleware.Resource[models.Submission](c)

	var req submissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	if req.JobTitle != nil && strings.TrimSpace(*req.JobTitle) == "" {
		h.respondError(c, invalid("jobTitle must not be empty"))
		return
	}
	previous := submission.Status
	if err := req.resolve(h, c, submission); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.save(c, submission); err != nil {
		h.respondError(c, err)
		return
	}

	details := "updated submission " + submission.JobTitle
	if submission.Status != previous {
		details += ": " + string(previous) + " -> " + string(submission.Status)
	}
	h.audit(c, "submission", submission.ID, "update", details)
	c.JSON(http.StatusOK, submission)
}

// DeleteSubmission removes the submission; assessments that pointed at it are kept.
func (h *Handler) DeleteSubmission(c *gin.Context) {
	submission := middleware.Resource[models.Submission](c)
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Assessment{}).
			Where("submission_id = ?", submission.ID).
			UpdateColumn("submission_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(submission).Error
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.audit(c, "submission", submission.ID, "delete", "deleted submission "+submission.JobTitle)
	message(c, http.StatusOK, "submission deleted")
}

func (h *Handler) SubmissionStats(c *gin.Context) {
	stats, err := h.groupStats(c, &models.Submission{}, "submitted_at", "", 30*24*time.Hour)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
