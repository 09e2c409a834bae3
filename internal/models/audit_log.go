package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	UserID uuid.UUID `gorm:"type:uuid;index" json:"userId"`

	Entity   string    `gorm:"size:50;not null;index" json:"entity"` // "consultant", "offer", ...
	EntityID uuid.UUID `gorm:"type:uuid;index" json:"entityId"`
	Action   string    `gorm:"size:50;not null" json:"action"` // "create", "status_change", ...
	Details  string    `gorm:"type:text" json:"details"`
}
