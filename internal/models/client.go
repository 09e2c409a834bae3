package models

import "github.com/google/uuid"

type Client struct {
	Base
	MarketerID uuid.UUID `gorm:"type:uuid;not null;index" json:"marketerId"`

	Name         string `gorm:"size:255;not null" json:"name"`
	Industry     string `gorm:"size:100" json:"industry"`
	Website      string `gorm:"size:255" json:"website"`
	Address      string `gorm:"size:500" json:"address"`
	ContactEmail string `gorm:"size:255" json:"contactEmail"`
	ContactPhone string `gorm:"size:50" json:"contactPhone"`
	Notes        string `gorm:"type:text" json:"notes"`

	POCs []POC `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"pocs,omitempty"`
}

func (c Client) OwnerIDs() []uuid.UUID { return []uuid.UUID{c.MarketerID} }
func (Client) OwnerColumns() []string  { return []string{"marketer_id"} }

type POCType string

const (
	POCBilling   POCType = "Billing"
	POCTimesheet POCType = "Time-sheet"
	POCRecruiter POCType = "Recruiter"
	POCOther     POCType = "Other"
)

// POC is a point of contact at a client.
type POC struct {
	Base
	ClientID   uuid.UUID `gorm:"type:uuid;not null;index" json:"clientId"`
	MarketerID uuid.UUID `gorm:"type:uuid;not null;index" json:"marketerId"`

	Name  string  `gorm:"size:255;not null" json:"name"`
	Email string  `gorm:"size:255" json:"email"`
	Phone string  `gorm:"size:50" json:"phone"`
	Type  POCType `gorm:"type:varchar(20);not null" json:"type"`
	Notes string  `gorm:"type:text" json:"notes"`
}

func (POC) TableName() string { return "pocs" }

func (p POC) OwnerIDs() []uuid.UUID { return []uuid.UUID{p.MarketerID} }
func (POC) OwnerColumns() []string  { return []string{"marketer_id"} }
