package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"managemint/internal/access"
	"managemint/internal/database"
	"managemint/internal/middleware"
	"managemint/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// listQuery holds the filters every list endpoint accepts.
type listQuery struct {
	Status string    `form:"status"`
	From   time.Time `form:"from" time_format:"2006-01-02" time_utc:"1"`
	To     time.Time `form:"to" time_format:"2006-01-02" time_utc:"1"`
	Limit  int       `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int       `form:"offset" binding:"omitempty,min=0"`
}

func bindList(c *gin.Context) (listQuery, error) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return q, invalidInput(err)
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return q, invalid("to must not be before from")
	}
	return q, nil
}

// apply adds the status, date range and paging filters. to is inclusive.
func (q listQuery) apply(db *gorm.DB, dateColumn string) *gorm.DB {
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if !q.From.IsZero() {
		db = db.Where(dateColumn+" >= ?", q.From)
	}
	if !q.To.IsZero() {
		db = db.Where(dateColumn+" < ?", q.To.AddDate(0, 0, 1))
	}
	limit := q.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	return db.Limit(limit).Offset(q.Offset)
}

// queryUUID applies "column = ?" when the query parameter is present.
func queryUUID(c *gin.Context, db *gorm.DB, param, column string) (*gorm.DB, error) {
	raw := c.Query(param)
	if raw == "" {
		return db, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, invalid("invalid " + param)
	}
	return db.Where(column+" = ?", id), nil
}

// scoped starts a query on model's table limited to the caller's records.
func (h *Handler) scoped(c *gin.Context, model models.Owned) *gorm.DB {
	return h.db.WithContext(c.Request.Context()).Model(model).
		Scopes(access.Scope(middleware.CurrentUser(c), model))
}

type idFilter struct {
	param  string
	column string
}

func filterIDs(c *gin.Context, db *gorm.DB, filters ...idFilter) (*gorm.DB, error) {
	var err error
	for _, f := range filters {
		if db, err = queryUUID(c, db, f.param, f.column); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// search matches a case-insensitive substring of column.
func search(c *gin.Context, db *gorm.DB, column string) *gorm.DB {
	q := strings.TrimSpace(c.Query("search"))
	if q == "" {
		return db
	}
	return db.Where("LOWER("+column+") LIKE ?", "%"+strings.ToLower(q)+"%")
}

// save writes every column of rec without touching its associations.
func (h *Handler) save(c *gin.Context, rec any) error {
	return h.db.WithContext(c.Request.Context()).Omit(clause.Associations).Save(rec).Error
}

// checkRef verifies that a referenced record exists and is visible to the
// caller. A nil id is accepted (optional reference).
func checkRef[T any, PT interface {
	*T
	models.Owned
}](h *Handler, c *gin.Context, id *uuid.UUID, field string) (PT, error) {
	if id == nil || *id == uuid.Nil {
		return nil, nil
	}
	rec := PT(new(T))
	if err := h.db.WithContext(c.Request.Context()).First(rec, "id = ?", *id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid(field + " does not exist")
		}
		return nil, err
	}
	if !access.CanAccess(middleware.CurrentUser(c), rec) {
		return nil, fmt.Errorf("%w: %s belongs to another account", errForbidden, field)
	}
	return rec, nil
}

// requireRef is checkRef for mandatory references.
func requireRef[T any, PT interface {
	*T
	models.Owned
}](h *Handler, c *gin.Context, id *uuid.UUID, field string) (PT, error) {
	if id == nil || *id == uuid.Nil {
		return nil, invalid(field + " is required")
	}
	return checkRef[T, PT](h, c, id, field)
}

// ownerID picks the owning marketer for a new record. Admins may assign any
// marketer; everyone else owns what they create.
func (h *Handler) ownerID(c *gin.Context, requested *uuid.UUID) (uuid.UUID, error) {
	user := middleware.CurrentUser(c)
	if requested == nil || *requested == uuid.Nil || *requested == user.ID {
		return user.ID, nil
	}
	if !user.IsAdmin() {
		return uuid.Nil, fmt.Errorf("%w: only admins can assign records to another marketer", errForbidden)
	}
	var owner models.User
	if err := h.db.WithContext(c.Request.Context()).First(&owner, "id = ?", *requested).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, invalid("marketerId does not exist")
		}
		return uuid.Nil, err
	}
	if !owner.HasRole(models.RoleMarketer, models.RoleAdmin) {
		return uuid.Nil, invalid("marketerId is not a marketer")
	}
	return owner.ID, nil
}

// updateIfStatus applies set to the record id only while its status is one
// of from. When nothing matches it re-reads the row: absent gives
// errNotFound, present in another status gives mismatch.
func (h *Handler) updateIfStatus(c *gin.Context, model any, id uuid.UUID, from []string, set map[string]any, mismatch error) error {
	set["updated_at"] = time.Now().UTC()
	res := h.db.WithContext(c.Request.Context()).Model(model).
		Where("id = ? AND status IN ?", id, from).
		UpdateColumns(set)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return h.statusMismatch(c, model, id, from, mismatch)
}

// statusMismatch explains a guarded update that matched no row.
func (h *Handler) statusMismatch(c *gin.Context, model any, id uuid.UUID, from []string, mismatch error) error {
	var n int64
	if err := h.db.WithContext(c.Request.Context()).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return errNotFound
	}
	return fmt.Errorf("%w: status must be one of %v", mismatch, from)
}

// transition is a status change guarded by the current status.
func (h *Handler) transition(c *gin.Context, model any, id uuid.UUID, from []string, set map[string]any) error {
	return h.updateIfStatus(c, model, id, from, set, errInvalidTransition)
}

// audit records a state change. Failures are logged and never fail the request.
func (h *Handler) audit(c *gin.Context, entity string, entityID uuid.UUID, action, details string) {
	var userID uuid.UUID
	if u := middleware.CurrentUser(c); u != nil {
		userID = u.ID
	}
	if err := database.CreateAuditLog(c.Request.Context(), h.db, userID, entity, entityID, action, details); err != nil {
		h.log.Warn("write audit log", zap.String("entity", entity), zap.String("action", action), zap.Error(err))
	}
}

// statusStat is one row of a grouped statistics query.
type statusStat struct {
	Status string  `json:"status"`
	Count  int64   `json:"count"`
	Total  float64 `json:"total"`
}

type statsResponse struct {
	Since    time.Time    `json:"since"`
	Window   string       `json:"window"`
	Count    int64        `json:"count"`
	Total    float64      `json:"total"`
	ByStatus []statusStat `json:"byStatus"`
}

// groupStats counts rows and sums sumExpr per status for the caller's rows
// whose dateColumn falls within the last window. sumExpr is trusted SQL.
func (h *Handler) groupStats(c *gin.Context, model models.Owned, dateColumn, sumExpr string, window time.Duration) (*statsResponse, error) {
	since := time.Now().UTC().Add(-window)
	if sumExpr == "" {
		sumExpr = "0"
	}
	rows := []statusStat{}
	err := h.db.WithContext(c.Request.Context()).Model(model).
		Scopes(access.Scope(middleware.CurrentUser(c), model)).
		Select("status, COUNT(*) AS count, COALESCE(SUM("+sumExpr+"), 0) AS total").
		Where(dateColumn+" >= ?", since).
		Group("status").
		Order("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := &statsResponse{Since: since, Window: window.String(), ByStatus: rows}
	for _, r := range rows {
		out.Count += r.Count
		out.Total += r.Total
	}
	return out, nil
}
