package models

import (
	"github.com/google/uuid"
)

type ConsultantStatus string

// pipeline stages; any stage may follow any other
const (
	ConsultantMarketing  ConsultantStatus = "Marketing"
	ConsultantSubmitted  ConsultantStatus = "Submitted"
	ConsultantAssessment ConsultantStatus = "Assessment"
	ConsultantOffered    ConsultantStatus = "Offered"
	ConsultantPlaced     ConsultantStatus = "Placed"
)

type Consultant struct {
	Base
	MarketerID uuid.UUID `gorm:"type:uuid;not null;index" json:"marketerId"`

	Name            string           `gorm:"size:255;not null" json:"name"`
	Email           string           `gorm:"size:255" json:"email"`
	Phone           string           `gorm:"size:50" json:"phone"`
	Technology      string           `gorm:"size:255" json:"technology"`
	ExperienceYears int              `json:"experienceYears"`
	Location        string           `gorm:"size:255" json:"location"`
	VisaStatus      string           `gorm:"size:100" json:"visaStatus"`
	Rate            string           `gorm:"size:50" json:"rate"`
	Status          ConsultantStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Notes           string           `gorm:"type:text" json:"notes"`

	Profile *Profile `gorm:"constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

func (c Consultant) OwnerIDs() []uuid.UUID { return []uuid.UUID{c.MarketerID} }
func (Consultant) OwnerColumns() []string  { return []string{"marketer_id"} }

// Profile is the consultant's resume data; at most one per consultant.
type Profile struct {
	Base
	ConsultantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"consultantId"`
	MarketerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"marketerId"`

	Summary        string `gorm:"type:text" json:"summary"`
	Skills         string `gorm:"type:text" json:"skills"`
	Education      string `gorm:"type:text" json:"education"`
	Certifications string `gorm:"type:text" json:"certifications"`
	ResumeURL      string `gorm:"size:500" json:"resumeUrl"`
	LinkedInURL    string `gorm:"size:500" json:"linkedinUrl"`
}

func (p Profile) OwnerIDs() []uuid.UUID { return []uuid.UUID{p.MarketerID} }
func (Profile) OwnerColumns() []string  { return []string{"marketer_id"} }
