package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"letting-compliance/internal/aml"
	"letting-compliance/internal/common/logger"
	"letting-compliance/internal/dashboard"
	"letting-compliance/internal/models"
	"letting-compliance/internal/notification"
)

type DashboardService interface {
	Overview(ctx context.Context, userID string) (dashboard.Overview, error)
}

type Inbox interface {
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type NotificationSearcher interface {
	Search(ctx context.Context, userID, query string, limit int) ([]models.Notification, error)
}

type AMLService interface {
	RunScreening(ctx context.Context, in aml.RunScreeningInput) (models.AMLScreening, error)
	ReviewMatch(ctx context.Context, in aml.ReviewMatchInput) (aml.ReviewResult, error)
	CompleteEDD(ctx context.Context, in aml.CompleteEDDInput) (models.AMLScreening, error)
}

type ScreeningReader interface {
	GetScreening(ctx context.Context, userID, screeningID string) (models.AMLScreening, error)
}

type AssessmentUpdater interface {
	UpdateItemStatus(ctx context.Context, ownerID, assessmentID, itemID string, status models.RepairItemStatus, now time.Time) (models.RepairingStandardAssessment, error)
}

type PreferenceUpdater interface {
	UpdatePreferences(ctx context.Context, userID string, prefs models.NotificationPreferences) (models.UserContact, error)
}

type NotificationChecker interface {
	RunNotificationChecksAt(ctx context.Context, now time.Time) notification.Result
}

// Deps are the services behind the routes. Search may be nil when the
// search index is disabled.
type Deps struct {
	Dashboard   DashboardService
	Inbox       Inbox
	Search      NotificationSearcher
	AML         AMLService
	Screenings  ScreeningReader
	Assessments AssessmentUpdater
	Checks      NotificationChecker
	Preferences PreferenceUpdater
}

type Options struct {
	CronSecret string
	// Ready reports whether backing stores are reachable.
	Ready func(ctx context.Context) error
}

type Handler struct {
	deps   Deps
	opts   Options
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(deps Deps, opts Options, log logger.Logger) *Handler {
	return &Handler{
		deps:   deps,
		opts:   opts,
		logger: log.WithFields(map[string]interface{}{"component": "api"}),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Router builds the gin engine with the RPC, cron, health and metrics routes.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	r.GET("/health", h.health)
	r.GET("/ready", h.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1", h.identity())
	{
		v1.GET("/dashboard", h.getDashboard)

		v1.GET("/notifications", h.listNotifications)
		v1.GET("/notifications/unread-count", h.unreadCount)
		v1.GET("/notifications/search", h.searchNotifications)
		v1.POST("/notifications/read-all", h.markAllRead)
		v1.POST("/notifications/:id/read", h.markRead)
		v1.PUT("/notifications/preferences", h.updatePreferences)

		v1.GET("/aml/screenings/:id", h.getScreening)
		v1.POST("/aml/screenings/:id/run", h.runScreening)
		v1.POST("/aml/screenings/:id/edd", h.completeEDD)
		v1.POST("/aml/matches/:id/review", h.reviewMatch)

		v1.PUT("/assessments/:id/items/:itemId", h.updateRepairItem)
	}

	cron := r.Group("/internal/cron", h.cronAuth())
	cron.POST("/notification-checks", h.runNotificationChecks)

	return r
}
