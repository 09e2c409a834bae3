package models

import (
	"time"

	"github.com/google/uuid"
)

type TimesheetStatus string

const (
	TimesheetPending  TimesheetStatus = "pending"
	TimesheetApproved TimesheetStatus = "approved"
	TimesheetRejected TimesheetStatus = "rejected"
)

// Timesheet is one week of hours; editable by its owner only while pending.
type Timesheet struct {
	Base
	UserID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	OfferID *uuid.UUID `gorm:"type:uuid;index" json:"offerId"`

	WeekStart time.Time       `gorm:"index" json:"weekStart"`
	Hours     float64         `gorm:"not null" json:"hours"`
	Notes     string          `gorm:"type:text" json:"notes"`
	Status    TimesheetStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	ReviewedByID  *uuid.UUID `gorm:"type:uuid" json:"reviewedById"`
	ReviewedAt    *time.Time `json:"reviewedAt"`
	ReviewComment string     `gorm:"type:text" json:"reviewComment"`
}

func (t Timesheet) OwnerIDs() []uuid.UUID { return []uuid.UUID{t.UserID} }
func (Timesheet) OwnerColumns() []string  { return []string{"user_id"} }
