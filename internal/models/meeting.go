package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MeetingStatus string

const (
	MeetingScheduled MeetingStatus = "scheduled"
	MeetingCompleted MeetingStatus = "completed"
	MeetingCancelled MeetingStatus = "cancelled"
)

type Meeting struct {
	Base
	OrganizerID uuid.UUID `gorm:"type:uuid;not null;index" json:"organizerId"`

	Title           string        `gorm:"size:255;not null" json:"title"`
	Description     string        `gorm:"type:text" json:"description"`
	Location        string        `gorm:"size:500" json:"location"`
	StartTime       time.Time     `gorm:"index" json:"startTime"`
	EndTime         time.Time     `json:"endTime"`
	DurationMinutes int           `gorm:"not null" json:"durationMinutes"`
	Status          MeetingStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	Participants []User `gorm:"many2many:meeting_participants;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
}

// BeforeSave keeps the stored duration in step with the time window.
func (m *Meeting) BeforeSave(tx *gorm.DB) error {
	m.Normalize()
	return nil
}

// Normalize moves the window to UTC and recomputes DurationMinutes.
func (m *Meeting) Normalize() {
	m.StartTime = m.StartTime.UTC()
	m.EndTime = m.EndTime.UTC()
	m.DurationMinutes = 0
	if m.EndTime.After(m.StartTime) {
		m.DurationMinutes = int(m.EndTime.Sub(m.StartTime) / time.Minute)
	}
}

func (m Meeting) OwnerIDs() []uuid.UUID { return []uuid.UUID{m.OrganizerID} }
func (Meeting) OwnerColumns() []string  { return []string{"organizer_id"} }

type CallStatus string
type CallDirection string

const (
	CallCompleted CallStatus = "completed"
	CallMissed    CallStatus = "missed"
	CallScheduled CallStatus = "scheduled"

	CallInbound  CallDirection = "inbound"
	CallOutbound CallDirection = "outbound"
)

// Call is a logged phone call, usually with a consultant or a client contact.
type Call struct {
	Base
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	ConsultantID *uuid.UUID `gorm:"type:uuid;index" json:"consultantId"`

	ContactName     string        `gorm:"size:255;not null" json:"contactName"`
	Phone           string        `gorm:"size:50" json:"phone"`
	Direction       CallDirection `gorm:"type:varchar(10);not null" json:"direction"`
	Status          CallStatus    `gorm:"type:varchar(20);not null;index" json:"status"`
	StartedAt       time.Time     `gorm:"index" json:"startedAt"`
	DurationMinutes int           `gorm:"not null" json:"durationMinutes"`
	Notes           string        `gorm:"type:text" json:"notes"`
}

func (c Call) OwnerIDs() []uuid.UUID { return []uuid.UUID{c.UserID} }
func (Call) OwnerColumns() []string  { return []string{"user_id"} }
