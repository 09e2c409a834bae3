package models

import (
	"time"

	"github.com/google/uuid"
)

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "Pending"
	SubmissionAccepted SubmissionStatus = "Accepted"
	SubmissionRejected SubmissionStatus = "Rejected"
)

type Submission struct {
	Base
	ConsultantID uuid.UUID  `gorm:"type:uuid;not null;index" json:"consultantId"`
	ClientID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"clientId"`
	VendorID     *uuid.UUID `gorm:"type:uuid;index" json:"vendorId"`
	IPID         *uuid.UUID `gorm:"column:ip_id;type:uuid;index" json:"ipId"`
	POCID        *uuid.UUID `gorm:"column:poc_id;type:uuid;index" json:"pocId"`
	MarketerID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"marketerId"`

	JobTitle    string           `gorm:"size:255;not null" json:"jobTitle"`
	Rate        string           `gorm:"size:50" json:"rate"`
	SubmittedAt time.Time        `json:"submittedAt"`
	Status      SubmissionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Notes       string           `gorm:"type:text" json:"notes"`
}

func (s Submission) OwnerIDs() []uuid.UUID { return []uuid.UUID{s.MarketerID} }
func (Submission) OwnerColumns() []string  { return []string{"marketer_id"} }

type AssessmentStatus string
type AssessmentType string

const (
	AssessmentPending   AssessmentStatus = "Pending"
	AssessmentCompleted AssessmentStatus = "Completed"
	AssessmentCancelled AssessmentStatus = "Cancelled"

	AssessmentInterview       AssessmentType = "Interview"
	AssessmentTechnicalTest   AssessmentType = "Technical Test"
	AssessmentCodingChallenge AssessmentType = "Coding Challenge"
)

type Assessment struct {
	Base
	ConsultantID uuid.UUID  `gorm:"type:uuid;not null;index" json:"consultantId"`
	ClientID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"clientId"`
	SubmissionID *uuid.UUID `gorm:"type:uuid;index" json:"submissionId"`
	MarketerID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"marketerId"`

	Type        AssessmentType   `gorm:"type:varchar(30);not null" json:"type"`
	ScheduledAt *time.Time       `json:"scheduledAt"`
	Status      AssessmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Feedback    string           `gorm:"type:text" json:"feedback"`
}

func (a Assessment) OwnerIDs() []uuid.UUID { return []uuid.UUID{a.MarketerID} }
func (Assessment) OwnerColumns() []string  { return []string{"marketer_id"} }
