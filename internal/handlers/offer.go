package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"managemint/internal/middleware"
	"managemint/internal/models"
	"managemint/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type offerRequest struct {
	UserID     *uuid.UUID       `json:"userId"`
	MarketerID *uuid.UUID       `json:"marketerId"`
	ClientID   *uuid.UUID       `json:"clientId"`
	Position   *string          `json:"position" binding:"omitempty,min=1,max=255"`
	Value      *decimal.Decimal `json:"value"`
	Currency   *string          `json:"currency" binding:"omitempty,len=3,alpha"`
	ValidFrom  *time.Time       `json:"validFrom"`
	ValidUntil *time.Time       `json:"validUntil"`
	Notes      *string          `json:"notes"`
}

// apply copies the scalar fields and checks the resulting offer.
func (r offerRequest) apply(o *models.Offer) error {
	if r.Position != nil {
		o.Position = strings.TrimSpace(*r.Position)
	}
	if r.Value != nil {
		o.Value = r.Value.Round(2)
	}
	if r.Currency != nil {
		o.Currency = strings.ToUpper(*r.Currency)
	}
	if r.ValidFrom != nil {
		o.ValidFrom = r.ValidFrom.UTC()
	}
	if r.ValidUntil != nil {
		o.ValidUntil = r.ValidUntil.UTC()
	}
	if r.Notes != nil {
		o.Notes = *r.Notes
	}

	switch {
	case o.Position == "":
		return invalid("position is required")
	case o.Value.IsNegative():
		return invalid("value must not be negative")
	case !o.ValidFrom.IsZero() && !o.ValidUntil.IsZero() && o.ValidUntil.Before(o.ValidFrom):
		return invalid("validUntil must not be before validFrom")
	}
	return nil
}

// engineer loads the in-house engineer an offer is made to.
func (h *Handler) engineer(c *gin.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := h.db.WithContext(c.Request.Context()).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid("userId does not exist")
		}
		return nil, err
	}
	if u.Role != models.RoleUser {
		return nil, invalid("offers can only be made to in-house engineers")
	}
	return &u, nil
}

//
// LIST / CRUD
//

func (h *Handler) ListOffers(c *gin.Context) {
	q, err := bindList(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	db, err := filterIDs(c, h.scoped(c, &models.Offer{}),
		idFilter{"userId", "user_id"},
		idFilter{"marketerId", "marketer_id"},
		idFilter{"clientId", "client_id"},
	)
	if err != nil {
		h.respondError(c, err)
		return
	}

	offers := []models.Offer{}
	if err := q.apply(search(c, db, "position"), "created_at").Order("created_at desc").Find(&offers).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offers)
}

func (h *Handler) GetOffer(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.Resource[models.Offer](c))
}

// CreateOffer makes a pending offer to an engineer and lets them know.
func (h *Handler) CreateOffer(c *gin.Context) {
	var req offerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	if req.UserID == nil {
		h.respondError(c, invalid("userId is required"))
		return
	}
	if req.Value == nil {
		h.respondError(c, invalid("value is required"))
		return
	}
	engineer, err := h.engineer(c, *req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	owner, err := h.ownerID(c, req.MarketerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if _, err := checkRef[models.Client](h, c, req.ClientID, "clientId"); err != nil {
		h.respondError(c, err)
		return
	}

	offer := models.Offer{
		UserID:     engineer.ID,
		MarketerID: owner,
		ClientID:   optionalRef(req.ClientID),
		Currency:   "USD",
		Status:     models.OfferPending,
	}
	if err := req.apply(&offer); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&offer).Error; err != nil {
		h.respondError(c, err)
		return
	}

	h.audit(c, "offer", offer.ID, "create", fmt.Sprintf("offered %s to %s", offer.Position, engineer.Email))
	h.notifier.Dispatch(notify.OfferCreated(&offer, engineer))
	c.JSON(http.StatusCreated, offer)
}

// UpdateOffer edits an offer while it is still pending. The engineer it is
// addressed to cannot edit it.
func (h *Handler) UpdateOffer(c *gin.Context) {
	offer := middleware.Resource[models.Offer](c)
	user := middleware.CurrentUser(c)
	if !user.IsAdmin() && offer.MarketerID != user.ID {
		h.respondError(c, fmt.Errorf("%w: only the offer's marketer can edit it", errForbidden))
		return
	}

	var req offerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, invalidInput(err))
		return
	}
	if req.UserID != nil && *req.UserID != offer.UserID {
		h.respondError(c, invalid("the engineer of an offer cannot be changed"))
		return
	}
	if req.MarketerID != nil && *req.MarketerID != offer.MarketerID {
		owner, err := h.ownerID(c, req.MarketerID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		offer.MarketerID = owner
	}
	if req.ClientID != nil {
		if _, err := checkRef[models.Client](h, c, req.ClientID, "clientId"); err != nil {
			h.respondError(c, err)
			return
		}
		offer.ClientID = optionalRef(req.ClientID)
	}
	if err := req.apply(offer); err != nil {
		h.respondError(c, err)
		return
	}

	err := h.updateIfStatus(c, &models.Offer{}, offer.ID, []string{string(models.OfferPending)}, map[string]any{
		"marketer_id": offer.MarketerID,
		"client_id":   offer.ClientID,
		"position":    offer.Position,
		"value":       offer.Value,
		"currency":    offer.Currency,
		"valid_from":  offer.ValidFrom,
		"valid_until": offer.ValidUntil,
		"notes":       offer.Notes,
	}, errLocked)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.audit(c, "offer", offer.ID, "update", "updated offer "+offer.Position)
	h.respondOffer(c, offer.ID)
}

// DeleteOffer removes the offer; timesheets logged against it are kept.
func (h *Handler) DeleteOffer(c *gin.Context) {
	offer := middleware.Resource[models.Offer](c)
	user := middleware.CurrentUser(c)
	if !user.IsAdmin() && offer.MarketerID != user.ID {
		h.respondError(c, fmt.Errorf("%w: only the offer's marketer can delete it", errForbidden))
		return
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Timesheet{}).
			Where("offer_id = ?", offer.ID).
			UpdateColumn("offer_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(offer).Error
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.audit(c, "offer", offer.ID, "delete", "deleted offer "+offer.Position)
	message(c, http.StatusOK, "offer deleted")
}

func (h *Handler) respondOffer(c *gin.Context, id uuid.UUID) {
	var offer models.Offer
	if err := h.db.WithContext(c.Request.Context()).First(&offer, "id = ?", id).Error; err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

//
// STATUS TRANSITIONS
//

// offerAction describes one offer transition: who may perform it, the
// status it requires and the status it leads to.
type offerAction struct {
	name    string
	by      func(o *models.Offer) uuid.UUID
	from    models.OfferStatus
	to      models.OfferStatus
	respond bool // stamp responded_at
}

var (
	acceptOffer   = offerAction{"accept", offerEngineer, models.OfferPending, models.OfferAccepted, true}
	rejectOffer   = offerAction{"reject", offerEngineer, models.OfferPending, models.OfferRejected, true}
	startOffer    = offerAction{"start", offerMarketer, models.OfferAccepted, models.OfferOngoing, false}
	completeOffer = offerAction{"complete", offerMarketer, models.OfferOngoing, models.OfferCompleted, false}
)

func offerEngineer(o *models.Offer) uuid.UUID { return o.UserID }
func offerMarketer(o *models.Offer) uuid.UUID { return o.MarketerID }

func (h *Handler) AcceptOffer(c *gin.Context)   { h.transitionOffer(c, acceptOffer) }
func (h *Handler) RejectOffer(c *gin.Context)   { h.transitionOffer(c, rejectOffer) }
func (h *Handler) StartOffer(c *gin.Context)    { h.transitionOffer(c, startOffer) }
func (h *Handler) CompleteOffer(c *gin.Context) { h.transitionOffer(c, completeOffer) }

func (h *Handler) transitionOffer(c *gin.Context, action offerAction) {
	offer := middleware.Resource[models.Offer](c)
	user := middleware.CurrentUser(c)
	if !user.IsAdmin() && action.by(offer) != user.ID {
		h.respondError(c, fmt.Errorf("%w: you cannot %s this offer", errForbidden, action.name))
		return
	}

	set := map[string]any{"status": string(action.to)}
	if action.respond {
		set["responded_at"] = time.Now().UTC()
	}
	if err := h.transition(c, &models.Offer{}, offer.ID, []string{string(action.from)}, set); err != nil {
		h.respondError(c, err)
		return
	}

	var updated models.Offer
	if err := h.db.WithContext(c.Request.Context()).First(&updated, "id = ?", offer.ID).Error; err != nil {
		h.respondError(c, err)
		return
	}
	h.audit(c, "offer", offer.ID, "status_change", string(action.from)+" -> "+string(action.to))
	h.notifyOfferStatus(c, &updated, user)
	c.JSON(http.StatusOK, updated)
}

// notifyOfferStatus tells the other side of the offer about a status change.
func (h *Handler) notifyOfferStatus(c *gin.Context, offer *models.Offer, actor *models.User) {
	recipientID := offer.MarketerID
	if actor.ID == offer.MarketerID {
		recipientID = offer.UserID
	}
	var recipient models.User
	if err := h.db.WithContext(c.Request.Context()).First(&recipient, "id = ?", recipientID).Error; err != nil {
		h.log.Warn("offer notification recipient", zap.String("offer_id", offer.ID.String()), zap.Error(err))
		return
	}
	h.notifier.Dispatch(notify.OfferStatusChanged(offer, &recipient))
}

func (h *Handler) OfferStats(c *gin.Context) {
	stats, err := h.groupStats(c, &models.Offer{}, "created_at", "value", 30*24*time.Hour)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
