package handlers

import (
	"net/http"
	"time"

	"managemint/internal/middleware"
	"managemint/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type assessmentRequest struct {
	ConsultantID *uuid.UUID               `json:"consultantId"`
	ClientID     *uuid.UUID               `json:"clientId"`
	SubmissionID *uuid.UUID               `json:"submissionId"`
	Type         *models.AssessmentType   `json:"type" binding:"omitempty,oneof=Interview 'Technical Test' 'Coding Challenge'"`
	ScheduledAt  *time.Time               `json:"scheduledAt"`
	Status       *models.AssessmentStatus `json:"status" binding:"omitempty,oneof=Pending Completed Cancelled"`
	Feedback     *string                  `json:"feedback"`
}

func (r assessmentRequest) resolve(h *Handler, c *gin.Context, a *models.Assessment) error {
	if r.ConsultantID != nil {
		consultant, err := requireRef[models.Consultant](h, c, r.ConsultantID, "consultantId")
		if err != nil {
			return err
		}
		a.ConsultantID, a.MarketerID = consultant.ID, consultant.MarketerID
	}
	if r.ClientID != nil {
		client, err := requireRef[models.Client](h, c, r.ClientID, "clientId")
		if err != nil {
			return err
		}
		a.ClientID = client.ID
	}
	if r.SubmissionID != nil {
		submission, err := checkRef[models.Submission](h, c, r.SubmissionID, "submissionId")
		if err != nil {
			return err
		}
		a.SubmissionID = optionalRef(r.SubmissionID)
		if submission != nil && submission.ConsultantID != a.ConsultantID {
			return invalid("submissionId belongs to another consultant")
		}
	} else if r.ConsultantID != nil && a.SubmissionID != nil {
		var submission models.Submission
		if err := h.db.WithContext(c.Request.Context()).First(&submission, "id = ?", *a.SubmissionID).Error; err != nil {
			return err
		}
		if submission.ConsultantID != a.ConsultantID {
			return invalid("the current submissionId belongs to another consultant; send submissionId with consultantId")
		}
	}

	if r.Type != nil {
		a.Type = *r.Type
	}
	if r.ScheduledAt != nil {
		t := r.ScheduledAt.UTC()
		a.ScheduledAt = &t
	}
	if r.Status != nil {
		a.Status = *r.Status
	}
	if r.Feedback != nil {
		a.Feedback = *r.Feedback
	}
	return nil
}

func (h *Handler) ListAssessments(c *gin.Context) {
	q, err := bindList(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	db, err := filterIDs(c, h.scoped(c, &models.Assessment{}),
		idFilter{"consultantId", "consultant_id"},
		idFilter{"clientId", "client_id"},
		idFilter{"submissionId", "submission_id"},
		idFilter{"marketerId", "marketer_id"},
	)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if t := c.Query("type"); t != "" {
		db = db.Where("type = ?", t)
	}

	assessments := []models.Assessment{}
	if err := q.apply(db, "scheduled_at").Order("scheduled_at desc").Find(&assessments).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assessments)
}

func (h *Handler) GetAssessment(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.Resource[models.Assessment](c))
}

func (h *Handler) CreateAssessment(c *gin.Context) {
	var req assessmentRequest
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
	case req.Type == nil:
		h.respondError(c, invalid("type is required"))
		return
	}

	assessment := models.Assessment{Status: models.AssessmentPending}
	if err := req.resolve(h, c, &assessment); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&assessment).Error; err != nil {
		h.respondError(c, err)
		return
	}

	h.audit(c, "assessment", assessment.ID, "create", "scheduled "+string(assessment.Type))
	c.JSON(http.StatusCreated, assessment)
}

func (h *Handler) UpdateAssessment(c *gin.Context) {
	assessment := middleware.Resource[models.Assessment](c)

	var req assessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	previous := assessment.Status
	if err := req.resolve(h, c, assessment); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.save(c, assessment); err != nil {
		h.respondError(c, err)
		return
	}

	details := "updated " + string(assessment.Type)
	if assessment.Status != previous {
		details += ": " + string(previous) + " -> " + string(assessment.Status)
	}
	h.audit(c, "assessment", assessment.ID, "update", details)
	c.JSON(http.StatusOK, assessment)
}

func (h *Handler) DeleteAssessment(c *gin.Context) {
	assessment := middleware.Resource[models.Assessment](c)
	if err := h.db.WithContext(c.Request.Context()).Delete(assessment).Error; err != nil {
		h.respondError(c, err)
		return
	}
	h.audit(c, "assessment", assessment.ID, "delete", "deleted "+string(assessment.Type))
	message(c, http.StatusOK, "assessment deleted")
}
