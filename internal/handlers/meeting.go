package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"managemint/internal/access"
	"managemint/internal/middleware"
	"managemint/internal/models"
	"managemint/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type meetingRequest struct {
	Title          *string      `json:"title" binding:"omitempty,min=1,max=255"`
	Description    *string      `json:"description"`
	Location       *string      `json:"location" binding:"omitempty,max=500"`
	StartTime      *time.Time   `json:"startTime"`
	EndTime        *time.Time   `json:"endTime"`
	ParticipantIDs *[]uuid.UUID `json:"participantIds" binding:"omitempty,max=100"`
}

func (r meetingRequest) apply(m *models.Meeting) error {
	if r.Title != nil {
		m.Title = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		m.Description = *r.Description
	}
	if r.Location != nil {
		m.Location = *r.Location
	}
	if r.StartTime != nil {
		m.StartTime = r.StartTime.UTC()
	}
	if r.EndTime != nil {
		m.EndTime = r.EndTime.UTC()
	}

	switch {
	case m.Title == "":
		return invalid("title is required")
	case m.StartTime.IsZero() || m.EndTime.IsZero():
		return invalid("startTime and endTime are required")
	case !m.EndTime.After(m.StartTime):
		return invalid("endTime must be after startTime")
	}
	return nil
}

// participants loads the invited users. The organizer is never a participant.
func (h *Handler) participants(c *gin.Context, ids []uuid.UUID, organizer uuid.UUID) ([]models.User, error) {
	seen := map[uuid.UUID]struct{}{organizer: {}}
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return []models.User{}, nil
	}

	users := []models.User{}
	if err := h.db.WithContext(c.Request.Context()).Where("id IN ?", unique).Find(&users).Error; err != nil {
		return nil, err
	}
	if len(users) != len(unique) {
		return nil, invalid("participantIds contains unknown users")
	}
	return users, nil
}

// visibleMeetings limits a meeting query to meetings the caller organizes
// or takes part in.
func visibleMeetings(u *models.User, db *gorm.DB) *gorm.DB {
	if u.IsAdmin() {
		return db
	}
	invited := db.Session(&gorm.Session{NewDB: true}).
		Table("meeting_participants").Select("meeting_id").Where("user_id = ?", u.ID)
	return db.Where("organizer_id = ? OR id IN (?)", u.ID, invited)
}

func (h *Handler) loadMeeting(c *gin.Context, id uuid.UUID) (*models.Meeting, error) {
	var m models.Meeting
	if err := h.db.WithContext(c.Request.Context()).Preload("Participants").First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (h *Handler) ListMeetings(c *gin.Context) {
	q, err := bindList(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	db := visibleMeetings(middleware.CurrentUser(c), h.db.WithContext(c.Request.Context()).Model(&models.Meeting{}))
	if upcoming := c.Query("upcoming"); upcoming == "1" || upcoming == "true" {
		db = db.Where("start_time >= ?", time.Now().UTC())
	}

	meetings := []models.Meeting{}
	if err := q.apply(db, "start_time").Preload("Participants").Order("start_time asc").Find(&meetings).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meetings)
}

// GetMeeting is open to the organizer, the participants and admins.
func (h *Handler) GetMeeting(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respondError(c, errNotFound)
		return
	}
	m, err := h.loadMeeting(c, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	user := middleware.CurrentUser(c)
	if !access.CanAccess(user, m) && !isParticipant(m, user.ID) {
		h.respondError(c, errForbidden)
		return
	}
	c.JSON(http.StatusOK, m)
}

func isParticipant(m *models.Meeting, userID uuid.UUID) bool {
	for _, p := range m.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// CreateMeeting schedules a meeting organized by the caller and invites
// the participants by mail.
func (h *Handler) CreateMeeting(c *gin.Context) {
	var req meetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	user := middleware.CurrentUser(c)
	meeting := models.Meeting{OrganizerID: user.ID, Status: models.MeetingScheduled}
	if err := req.apply(&meeting); err != nil {
		h.respondError(c, err)
		return
	}
	var ids []uuid.UUID
	if req.ParticipantIDs != nil {
		ids = *req.ParticipantIDs
	}
	people, err := h.participants(c, ids, user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	meeting.Participants = people

	if err := h.db.WithContext(c.Request.Context()).Omit("Participants.*").Create(&meeting).Error; err != nil {
		h.respondError(c, err)
		return
	}

	h.audit(c, "meeting", meeting.ID, "create", fmt.Sprintf("scheduled %q with %d participants", meeting.Title, len(people)))
	for i := range people {
		h.notifier.Dispatch(notify.MeetingScheduled(&meeting, &people[i]))
	}
	c.JSON(http.StatusCreated, meeting)
}

// UpdateMeeting edits a scheduled meeting. A participant list in the body
// replaces the current one; newly added participants are invited.
func (h *Handler) UpdateMeeting(c *gin.Context) {
	current := middleware.Resource[models.Meeting](c)
	if current.Status != models.MeetingScheduled {
		h.respondError(c, fmt.Errorf("%w: meeting is %s", errLocked, current.Status))
		return
	}

	var req meetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	meeting, err := h.loadMeeting(c, current.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := req.apply(meeting); err != nil {
		h.respondError(c, err)
		return
	}

	var people, added []models.User
	if req.ParticipantIDs != nil {
		if people, err = h.participants(c, *req.ParticipantIDs, meeting.OrganizerID); err != nil {
			h.respondError(c, err)
			return
		}
		for _, p := range people {
			if !isParticipant(meeting, p.ID) {
				added = append(added, p)
			}
		}
	}

	meeting.Normalize()
	meeting.UpdatedAt = time.Now().UTC()
	set := map[string]any{
		"title":            meeting.Title,
		"description":      meeting.Description,
		"location":         meeting.Location,
		"start_time":       meeting.StartTime,
		"end_time":         meeting.EndTime,
		"duration_minutes": meeting.DurationMinutes,
		"updated_at":       meeting.UpdatedAt,
	}
	scheduled := []string{string(models.MeetingScheduled)}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Meeting{}).
			Where("id = ? AND status IN ?", meeting.ID, scheduled).
			UpdateColumns(set)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errLocked
		}
		if req.ParticipantIDs == nil {
			return nil
		}
		if err := tx.Exec("DELETE FROM meeting_participants WHERE meeting_id = ?", meeting.ID).Error; err != nil {
			return err
		}
		if len(people) == 0 {
			return nil
		}
		rows := make([]map[string]any, 0, len(people))
		for _, p := range people {
			rows = append(rows, map[string]any{"meeting_id": meeting.ID, "user_id": p.ID})
		}
		return tx.Table("meeting_participants").Create(&rows).Error
	})
	if errors.Is(err, errLocked) {
		err = h.statusMismatch(c, &models.Meeting{}, meeting.ID, scheduled, errLocked)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	if req.ParticipantIDs != nil {
		meeting.Participants = people
	}

	h.audit(c, "meeting", meeting.ID, "update", "updated "+meeting.Title)
	for i := range added {
		h.notifier.Dispatch(notify.MeetingScheduled(meeting, &added[i]))
	}
	c.JSON(http.StatusOK, meeting)
}

func (h *Handler) DeleteMeeting(c *gin.Context) {
	meeting := middleware.Resource[models.Meeting](c)
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM meeting_participants WHERE meeting_id = ?", meeting.ID).Error; err != nil {
			return err
		}
		return tx.Delete(meeting).Error
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.audit(c, "meeting", meeting.ID, "delete", "deleted "+meeting.Title)
	message(c, http.StatusOK, "meeting deleted")
}

func (h *Handler) CancelMeeting(c *gin.Context) {
	h.transitionMeeting(c, models.MeetingCancelled)
}

func (h *Handler) CompleteMeeting(c *gin.Context) {
	h.transitionMeeting(c, models.MeetingCompleted)
}

// transitionMeeting closes a scheduled meeting.
func (h *Handler) transitionMeeting(c *gin.Context, to models.MeetingStatus) {
	meeting := middleware.Resource[models.Meeting](c)
	from := []string{string(models.MeetingScheduled)}
	if err := h.transition(c, &models.Meeting{}, meeting.ID, from, map[string]any{"status": string(to)}); err != nil {
		h.respondError(c, err)
		return
	}
	updated, err := h.loadMeeting(c, meeting.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.audit(c, "meeting", meeting.ID, "status_change", string(models.MeetingScheduled)+" -> "+string(to))
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) MeetingStats(c *gin.Context) {
	stats, err := h.groupStats(c, &models.Meeting{}, "start_time", "duration_minutes", 30*24*time.Hour)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
