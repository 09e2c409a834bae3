package server

import (
	"net/http"

	"managemint/internal/auth"
	"managemint/internal/handlers"
	"managemint/internal/middleware"
	"managemint/internal/models"
	"managemint/internal/notify"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Options struct {
	DB            *gorm.DB
	Logger        *zap.Logger
	Notifier      *notify.Notifier
	Tokens        *auth.TokenIssuer
	SessionSecret string
	FrontendURL   string
	SecureCookie  bool
}

// NewRouter wires every route and wraps the engine in the CORS handler.
func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	db := opts.DB

	r := gin.New()
	r.Use(middleware.RequestLogger(log), middleware.Recovery(log))

	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.Tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("managemint_session", store))

	h := handlers.New(handlers.Options{
		DB:          db,
		Logger:      log,
		Notifier:    opts.Notifier,
		Tokens:      opts.Tokens,
		FrontendURL: opts.FrontendURL,
	})

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// AUTH
	public := r.Group("/auth")
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)
	public.POST("/logout", h.Logout)
	public.POST("/forgot-password", h.ForgotPassword)
	public.POST("/reset-password", h.ResetPassword)

	authed := r.Group("/")
	authed.Use(middleware.Authenticate(db, opts.Tokens, log))

	authed.GET("/auth/me", h.Me)
	authed.PUT("/auth/me", h.UpdateMe)
	authed.PUT("/auth/me/password", h.ChangePassword)

	marketer := middleware.RequireMarketer()
	admin := middleware.RequireAdmin()

	// USERS
	authed.GET("/marketers", marketer, h.ListMarketers)
	authed.GET("/users", admin, h.ListUsers)
	authed.GET("/users/stats", admin, h.UserStats)
	authed.POST("/users/invite", admin, h.InviteUser)
	authed.GET("/users/:id", middleware.LoadOwned[models.User](db, log), h.GetUser)
	authed.PUT("/users/:id", admin, middleware.LoadOwned[models.User](db, log), h.UpdateUser)
	authed.PATCH("/users/:id", admin, middleware.LoadOwned[models.User](db, log), h.UpdateUser)
	authed.DELETE("/users/:id", admin, middleware.LoadOwned[models.User](db, log), h.DeleteUser)

	// CONSULTANTS
	consultant := middleware.LoadOwned[models.Consultant](db, log)
	authed.GET("/consultants", marketer, h.ListConsultants)
	authed.GET("/consultants/stats", marketer, h.ConsultantStats)
	authed.POST("/consultants", marketer, h.CreateConsultant)
	authed.GET("/consultants/:id", marketer, consultant, h.GetConsultant)
	authed.PUT("/consultants/:id", marketer, consultant, h.UpdateConsultant)
	authed.PATCH("/consultants/:id", marketer, consultant, h.UpdateConsultant)
	authed.DELETE("/consultants/:id", marketer, consultant, h.DeleteConsultant)
	authed.GET("/consultants/:id/profile", marketer, consultant, h.GetProfile)
	authed.PUT("/consultants/:id/profile", marketer, consultant, h.PutProfile)

	// CLIENTS / POCS
	client := middleware.LoadOwned[models.Client](db, log)
	authed.GET("/clients", marketer, h.ListClients)
	authed.POST("/clients", marketer, h.CreateClient)
	authed.GET("/clients/:id", marketer, client, h.GetClient)
	authed.PUT("/clients/:id", marketer, client, h.UpdateClient)
	authed.PATCH("/clients/:id", marketer, client, h.UpdateClient)
	authed.DELETE("/clients/:id", marketer, client, h.DeleteClient)
	authed.GET("/clients/:id/pocs", marketer, client, h.ListClientPOCs)

	poc := middleware.LoadOwned[models.POC](db, log)
	authed.GET("/pocs", marketer, h.ListPOCs)
	authed.POST("/pocs", marketer, h.CreatePOC)
	authed.GET("/pocs/:id", marketer, poc, h.GetPOC)
	authed.PUT("/pocs/:id", marketer, poc, h.UpdatePOC)
	authed.PATCH("/pocs/:id", marketer, poc, h.UpdatePOC)
	authed.DELETE("/pocs/:id", marketer, poc, h.DeletePOC)

	// VENDORS / IMPLEMENTATION PARTNERS
	vendor := middleware.LoadOwned[models.Vendor](db, log)
	authed.GET("/vendors", marketer, h.ListVendors)
	authed.POST("/vendors", marketer, h.CreateVendor)
	authed.GET("/vendors/:id", marketer, vendor, h.GetVendor)
	authed.PUT("/vendors/:id", marketer, vendor, h.UpdateVendor)
	authed.PATCH("/vendors/:id", marketer, vendor, h.UpdateVendor)
	authed.DELETE("/vendors/:id", marketer, vendor, h.DeleteVendor)

	ip := middleware.LoadOwned[models.IP](db, log)
	authed.GET("/ips", marketer, h.ListIPs)
	authed.POST("/ips", marketer, h.CreateIP)
	authed.GET("/ips/:id", marketer, ip, h.GetIP)
	authed.PUT("/ips/:id", marketer, ip, h.UpdateIP)
	authed.PATCH("/ips/:id", marketer, ip, h.UpdateIP)
	authed.DELETE("/ips/:id", marketer, ip, h.DeleteIP)

	// SUBMISSIONS / ASSESSMENTS
	submission := middleware.LoadOwned[models.Submission](db, log)
	authed.GET("/submissions", marketer, h.ListSubmissions)
	authed.GET("/submissions/stats", marketer, h.SubmissionStats)
	authed.POST("/submissions", marketer, h.CreateSubmission)
	authed.GET("/submissions/:id", marketer, submission, h.GetSubmission)
	authed.PUT("/submissions/:id", marketer, submission, h.UpdateSubmission)
	authed.PATCH("/submissions/:id", marketer, submission, h.UpdateSubmission)
	authed.DELETE("/submissions/:id", marketer, submission, h.DeleteSubmission)

	assessment := middleware.LoadOwned[models.Assessment](db, log)
	authed.GET("/assessments", marketer, h.ListAssessments)
	authed.POST("/assessments", marketer, h.CreateAssessment)
	authed.GET("/assessments/:id", marketer, assessment, h.GetAssessment)
	authed.PUT("/assessments/:id", marketer, assessment, h.UpdateAssessment)
	authed.PATCH("/assessments/:id", marketer, assessment, h.UpdateAssessment)
	authed.DELETE("/assessments/:id", marketer, assessment, h.DeleteAssessment)

	// OFFERS
	// engineers see and answer their own offers; marketers manage them
	offer := middleware.LoadOwned[models.Offer](db, log)
	authed.GET("/offers", h.ListOffers)
	authed.GET("/offers/stats", h.OfferStats)
	authed.POST("/offers", marketer, h.CreateOffer)
	authed.GET("/offers/:id", offer, h.GetOffer)
	authed.PUT("/offers/:id", marketer, offer, h.UpdateOffer)
	authed.PATCH("/offers/:id", marketer, offer, h.UpdateOffer)
	authed.DELETE("/offers/:id", marketer, offer, h.DeleteOffer)
	authed.POST("/offers/:id/accept", offer, h.AcceptOffer)
	authed.POST("/offers/:id/reject", offer, h.RejectOffer)
	authed.POST("/offers/:id/start", marketer, offer, h.StartOffer)
	authed.POST("/offers/:id/complete", marketer, offer, h.CompleteOffer)

	// TIMESHEETS
	timesheet := middleware.LoadOwned[models.Timesheet](db, log)
	authed.GET("/timesheets", h.ListTimesheets)
	authed.GET("/timesheets/stats", h.TimesheetStats)
	authed.GET("/timesheets/pending", marketer, h.ListPendingTimesheets)
	authed.POST("/timesheets", h.CreateTimesheet)
	authed.GET("/timesheets/:id", timesheet, h.GetTimesheet)
	authed.PUT("/timesheets/:id", timesheet, h.UpdateTimesheet)
	authed.PATCH("/timesheets/:id", timesheet, h.UpdateTimesheet)
	authed.DELETE("/timesheets/:id", timesheet, h.DeleteTimesheet)
	authed.PATCH("/timesheets/:id/review", marketer, h.ReviewTimesheet)

	// MEETINGS / CALLS
	meeting := middleware.LoadOwned[models.Meeting](db, log)
	authed.GET("/meetings", h.ListMeetings)
	authed.GET("/meetings/stats", h.MeetingStats)
	authed.POST("/meetings", h.CreateMeeting)
	authed.GET("/meetings/:id", h.GetMeeting)
	authed.PUT("/meetings/:id", meeting, h.UpdateMeeting)
	authed.PATCH("/meetings/:id", meeting, h.UpdateMeeting)
	authed.DELETE("/meetings/:id", meeting, h.DeleteMeeting)
	authed.POST("/meetings/:id/cancel", meeting, h.CancelMeeting)
	authed.POST("/meetings/:id/complete", meeting, h.CompleteMeeting)

	call := middleware.LoadOwned[models.Call](db, log)
	authed.GET("/calls", h.ListCalls)
	authed.GET("/calls/stats", h.CallStats)
	authed.POST("/calls", h.CreateCall)
	authed.GET("/calls/:id", call, h.GetCall)
	authed.PUT("/calls/:id", call, h.UpdateCall)
	authed.PATCH("/calls/:id", call, h.UpdateCall)
	authed.DELETE("/calls/:id", call, h.DeleteCall)

	// AUDIT
	authed.GET("/audit-logs", admin, h.ListAuditLogs)

	return cors.New(cors.Options{
		AllowedOrigins:   []string{opts.FrontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           600,
	}).Handler(r)
}
