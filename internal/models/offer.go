package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	OfferPending   OfferStatus = "pending"
	OfferAccepted  OfferStatus = "accepted"
	OfferRejected  OfferStatus = "rejected"
	OfferOngoing   OfferStatus = "ongoing"
	OfferCompleted OfferStatus = "completed"
)

// Offer places an in-house engineer (UserID) on an engagement run by a marketer.
type Offer struct {
	Base
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	MarketerID uuid.UUID  `gorm:"type:uuid;not null;index" json:"marketerId"`
	ClientID   *uuid.UUID `gorm:"type:uuid;index" json:"clientId"`

	Position    string          `gorm:"size:255;not null" json:"position"`
	Value       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"value"`
	Currency    string          `gorm:"size:3;not null" json:"currency"`
	ValidFrom   time.Time       `json:"validFrom"`
	ValidUntil  time.Time       `json:"validUntil"`
	Status      OfferStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	RespondedAt *time.Time      `json:"respondedAt"`
	Notes       string          `gorm:"type:text" json:"notes"`
}

func (o Offer) OwnerIDs() []uuid.UUID { return []uuid.UUID{o.UserID, o.MarketerID} }
func (Offer) OwnerColumns() []string  { return []string{"user_id", "marketer_id"} }
