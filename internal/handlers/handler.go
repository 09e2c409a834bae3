package handlers

import (
	"managemint/internal/auth"
	"managemint/internal/notify"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler serves every REST resource. All state lives in the database;
// the struct only carries shared collaborators.
type Handler struct {
	db          *gorm.DB
	log         *zap.Logger
	notifier    *notify.Notifier
	tokens      *auth.TokenIssuer
	frontendURL string
}

type Options struct {
	DB          *gorm.DB
	Logger      *zap.Logger
	Notifier    *notify.Notifier
	Tokens      *auth.TokenIssuer
	FrontendURL string
}

func New(opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		db:          opts.DB,
		log:         log,
		notifier:    opts.Notifier,
		tokens:      opts.Tokens,
		frontendURL: opts.FrontendURL,
	}
}
