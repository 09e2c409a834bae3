package database

import (
	"context"

	"managemint/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateAuditLog appends one journal record.
func CreateAuditLog(ctx context.Context, db *gorm.DB, userID uuid.UUID, entity string, entityID uuid.UUID, action, details string) error {
	if db == nil {
		return nil
	}
	record := models.AuditLog{
		ID:       uuid.New(),
		UserID:   userID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  details,
	}
	return db.WithContext(ctx).Create(&record).Error
}
