package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"managemint/internal/middleware"
	"managemint/internal/models"
	"managemint/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var pendingOnly = []string{string(models.TimesheetPending)}

type timesheetRequest struct {
	OfferID   *uuid.UUID `json:"offerId"`
	WeekStart *time.Time `json:"weekStart"`
	Hours     *float64   `json:"hours" binding:"omitempty,min=0,max=168"`
	Notes     *string    `json:"notes"`
}

// offerFor checks that the offer exists and is the caller's own placement.
func (h *Handler) offerFor(c *gin.Context, id *uuid.UUID, owner uuid.UUID) error {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	var offer models.Offer
	if err := h.db.WithContext(c.Request.Context()).First(&offer, "id = ?", *id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("offerId does not exist")
		}
		return err
	}
	if offer.UserID != owner {
		return invalid("offerId is not an offer made to the timesheet's owner")
	}
	return nil
}

func (h *Handler) ListTimesheets(c *gin.Context) {
	q, err := bindList(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	db, err := filterIDs(c, h.scoped(c, &models.Timesheet{}),
		idFilter{"userId", "user_id"},
		idFilter{"offerId", "offer_id"},
	)
	if err != nil {
		h.respondError(c, err)
		return
	}

	timesheets := []models.Timesheet{}
	if err := q.apply(db, "week_start").Order("week_start desc").Find(&timesheets).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, timesheets)
}

// ListPendingTimesheets is the review queue. Marketers see the pending
// timesheets logged against offers they manage; admins see all of them.
func (h *Handler) ListPendingTimesheets(c *gin.Context) {
	user := middleware.CurrentUser(c)
	db := h.db.WithContext(c.Request.Context()).Where("status = ?", string(models.TimesheetPending))
	if !user.IsAdmin() {
		managed := h.db.Model(&models.Offer{}).Select("id").Where("marketer_id = ?", user.ID)
		db = db.Where("offer_id IN (?)", managed)
	}

	timesheets := []models.Timesheet{}
	if err := db.Order("week_start asc").Limit(maxListLimit).Find(&timesheets).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, timesheets)
}

func (h *Handler) GetTimesheet(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.Resource[models.Timesheet](c))
}

// CreateTimesheet logs a pending week of hours for the caller.
func (h *Handler) CreateTimesheet(c *gin.Context) {
	var req timesheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	if req.WeekStart == nil || req.Hours == nil {
		h.respondError(c, invalid("weekStart and hours are required"))
		return
	}
	user := middleware.CurrentUser(c)
	if err := h.offerFor(c, req.OfferID, user.ID); err != nil {
		h.respondError(c, err)
		return
	}

	ts := models.Timesheet{
		UserID:    user.ID,
		OfferID:   optionalRef(req.OfferID),
		WeekStart: req.WeekStart.UTC(),
		Hours:     *req.Hours,
		Status:    models.TimesheetPending,
	}
	if req.Notes != nil {
		ts.Notes = *req.Notes
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&ts).Error; err != nil {
		h.respondError(c, err)
		return
	}

	h.audit(c, "timesheet", ts.ID, "create", fmt.Sprintf("%.2f hours for week of %s", ts.Hours, ts.WeekStart.Format("2006-01-02")))
	c.JSON(http.StatusCreated, ts)
}

// UpdateTimesheet changes a timesheet only while it is pending.
func (h *Handler) UpdateTimesheet(c *gin.Context) {
	ts := middleware.Resource[models.Timesheet](c)

	var req timesheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	if ts.Status != models.TimesheetPending {
		h.respondError(c, fmt.Errorf("%w: timesheet is %s", errLocked, ts.Status))
		return
	}

	set := map[string]any{}
	if req.OfferID != nil {
		if err := h.offerFor(c, req.OfferID, ts.UserID); err != nil {
			h.respondError(c, err)
			return
		}
		set["offer_id"] = optionalRef(req.OfferID)
	}
	if req.WeekStart != nil {
		set["week_start"] = req.WeekStart.UTC()
	}
	if req.Hours != nil {
		set["hours"] = *req.Hours
	}
	if req.Notes != nil {
		set["notes"] = *req.Notes
	}

	if err := h.updateIfStatus(c, &models.Timesheet{}, ts.ID, pendingOnly, set, errLocked); err != nil {
		h.respondError(c, err)
		return
	}
	h.audit(c, "timesheet", ts.ID, "update", "")
	h.respondTimesheet(c, ts.ID)
}

// DeleteTimesheet lets owners withdraw pending timesheets. Admins may delete any.
func (h *Handler) DeleteTimesheet(c *gin.Context) {
	ts := middleware.Resource[models.Timesheet](c)
	db := h.db.WithContext(c.Request.Context()).Where("id = ?", ts.ID)
	if !middleware.CurrentUser(c).IsAdmin() {
		db = db.Where("status = ?", string(models.TimesheetPending))
	}

	res := db.Delete(&models.Timesheet{})
	if res.Error != nil {
		h.respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		h.respondError(c, fmt.Errorf("%w: only pending timesheets can be deleted", errLocked))
		return
	}
	h.audit(c, "timesheet", ts.ID, "delete", "")
	message(c, http.StatusOK, "timesheet deleted")
}

type reviewRequest struct {
	Status  models.TimesheetStatus `json:"status" binding:"required,oneof=approved rejected"`
	Comment string                 `json:"comment"`
}

// ReviewTimesheet approves or rejects a pending timesheet, stamping the
// reviewer and time. Marketers may review timesheets for offers they manage.
func (h *Handler) ReviewTimesheet(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respondError(c, errNotFound)
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}

	var ts models.Timesheet
	if err := h.db.WithContext(c.Request.Context()).First(&ts, "id = ?", id).Error; err != nil {
		h.respondError(c, err)
		return
	}
	reviewer := middleware.CurrentUser(c)
	if err := h.canReview(c, reviewer, &ts); err != nil {
		h.respondError(c, err)
		return
	}

	err = h.transition(c, &models.Timesheet{}, ts.ID, pendingOnly, map[string]any{
		"status":         string(req.Status),
		"reviewed_by_id": reviewer.ID,
		"reviewed_at":    time.Now().UTC(),
		"review_comment": req.Comment,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.db.WithContext(c.Request.Context()).First(&ts, "id = ?", id).Error; err != nil {
		h.respondError(c, err)
		return
	}
	h.audit(c, "timesheet", ts.ID, "review", string(ts.Status))

	var owner models.User
	if err := h.db.WithContext(c.Request.Context()).First(&owner, "id = ?", ts.UserID).Error; err != nil {
		h.log.Warn("timesheet owner", zap.String("timesheet_id", ts.ID.String()), zap.Error(err))
	} else {
		h.notifier.Dispatch(notify.TimesheetReviewed(&ts, &owner))
	}
	c.JSON(http.StatusOK, ts)
}

func (h *Handler) canReview(c *gin.Context, reviewer *models.User, ts *models.Timesheet) error {
	if reviewer.IsAdmin() {
		return nil
	}
	if ts.UserID == reviewer.ID {
		return fmt.Errorf("%w: you cannot review your own timesheet", errForbidden)
	}
	if ts.OfferID == nil {
		return fmt.Errorf("%w: only admins can review timesheets without an offer", errForbidden)
	}
	var n int64
	if err := h.db.WithContext(c.Request.Context()).Model(&models.Offer{}).
		Where("id = ? AND marketer_id = ?", *ts.OfferID, reviewer.ID).
		Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: the timesheet's offer is managed by another marketer", errForbidden)
	}
	return nil
}

func (h *Handler) respondTimesheet(c *gin.Context, id uuid.UUID) {
	var ts models.Timesheet
	if err := h.db.WithContext(c.Request.Context()).First(&ts, "id = ?", id).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ts)
}

func (h *Handler) TimesheetStats(c *gin.Context) {
	stats, err := h.groupStats(c, &models.Timesheet{}, "week_start", "hours", 30*24*time.Hour)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
