package handlers

import (
	"net/http"

	"managemint/internal/models"

	"github.com/gin-gonic/gin"
)

const auditLimit = 200

type auditEntry struct {
	models.AuditLog
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}

// ListAuditLogs returns the newest audit records with the acting user's
// name. Admin only.
func (h *Handler) ListAuditLogs(c *gin.Context) {
	q, err := bindList(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	q.Status = ""
	if q.Limit == 0 {
		q.Limit = auditLimit
	}

	db := h.db.WithContext(c.Request.Context()).
		Table("audit_logs").
		Select("audit_logs.*, COALESCE(users.name, '') AS user_name, COALESCE(users.email, '') AS user_email").
		Joins("LEFT JOIN users ON users.id = audit_logs.user_id")
	db, err = filterIDs(c, db,
		idFilter{"entityId", "audit_logs.entity_id"},
		idFilter{"userId", "audit_logs.user_id"},
	)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if entity := c.Query("entity"); entity != "" {
		db = db.Where("audit_logs.entity = ?", entity)
	}
	if action := c.Query("action"); action != "" {
		db = db.Where("audit_logs.action = ?", action)
	}

	logs := []auditEntry{}
	if err := q.apply(db, "audit_logs.created_at").Order("audit_logs.created_at desc").Scan(&logs).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
