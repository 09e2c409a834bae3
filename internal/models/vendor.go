package models

import "github.com/google/uuid"

// Vendor is the staffing layer between the agency and the client.
type Vendor struct {
	Base
	MarketerID uuid.UUID `gorm:"type:uuid;not null;index" json:"marketerId"`

	Name         string `gorm:"size:255;not null" json:"name"`
	Website      string `gorm:"size:255" json:"website"`
	ContactName  string `gorm:"size:255" json:"contactName"`
	ContactEmail string `gorm:"size:255" json:"contactEmail"`
	ContactPhone string `gorm:"size:50" json:"contactPhone"`
	Notes        string `gorm:"type:text" json:"notes"`
}

func (v Vendor) OwnerIDs() []uuid.UUID { return []uuid.UUID{v.MarketerID} }
func (Vendor) OwnerColumns() []string  { return []string{"marketer_id"} }

// IP is an implementation partner, the prime contractor a submission may go through.
type IP struct {
	Base
	MarketerID uuid.UUID `gorm:"type:uuid;not null;index" json:"marketerId"`

	Name         string `gorm:"size:255;not null" json:"name"`
	Website      string `gorm:"size:255" json:"website"`
	ContactName  string `gorm:"size:255" json:"contactName"`
	ContactEmail string `gorm:"size:255" json:"contactEmail"`
	ContactPhone string `gorm:"size:50" json:"contactPhone"`
	Notes        string `gorm:"type:text" json:"notes"`
}

func (IP) TableName() string { return "ips" }

func (p IP) OwnerIDs() []uuid.UUID { return []uuid.UUID{p.MarketerID} }
func (IP) OwnerColumns() []string  { return []string{"marketer_id"} }
