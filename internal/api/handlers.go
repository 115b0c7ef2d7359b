package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"letting-compliance/internal/aml"
	apperrors "letting-compliance/internal/common/errors"
	"letting-compliance/internal/common/validation"
	"letting-compliance/internal/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ready(c *gin.Context) {
	if h.opts.Ready != nil {
		if err := h.opts.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *Handler) getDashboard(c *gin.Context) {
	overview, err := h.deps.Dashboard.Overview(c.Request.Context(), userID(c))
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func queryLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxListLimit {
		return 0, apperrors.NewValidationError("limit must be between 1 and 200", "limit: "+raw)
	}
	return n, nil
}

func (h *Handler) listNotifications(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		h.abort(c, err)
		return
	}
	unreadOnly := c.Query("unread") == "true"

	items, err := h.deps.Inbox.ListByUser(c.Request.Context(), userID(c), unreadOnly, limit)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

func (h *Handler) unreadCount(c *gin.Context) {
	n, err := h.deps.Inbox.CountUnread(c.Request.Context(), userID(c))
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}

func (h *Handler) searchNotifications(c *gin.Context) {
	if h.deps.Search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errorBody{Code: "SEARCH_DISABLED", Message: "Notification search is not enabled"}})
		return
	}
	q := c.Query("q")
	if q == "" {
		h.abort(c, apperrors.NewValidationError("q is required", ""))
		return
	}
	limit, err := queryLimit(c)
	if err != nil {
		h.abort(c, err)
		return
	}

	items, err := h.deps.Search.Search(c.Request.Context(), userID(c), q, limit)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

func (h *Handler) markRead(c *gin.Context) {
	if err := h.deps.Inbox.MarkRead(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) markAllRead(c *gin.Context) {
	n, err := h.deps.Inbox.MarkAllRead(c.Request.Context(), userID(c))
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": n})
}

type updatePreferencesRequest struct {
	EmailNotifications *bool `json:"emailNotifications" validate:"required"`
	SMSNotifications   *bool `json:"smsNotifications" validate:"required"`
}

func (h *Handler) updatePreferences(c *gin.Context) {
	var req updatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abort(c, apperrors.NewValidationError("Invalid request body", err.Error()))
		return
	}
	if err := validation.Struct(req); err != nil {
		h.abort(c, err)
		return
	}

	contact, err := h.deps.Preferences.UpdatePreferences(c.Request.Context(), userID(c), models.NotificationPreferences{
		EmailNotifications: *req.EmailNotifications,
		SMSNotifications:   *req.SMSNotifications,
	})
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NotificationPreferences{
		EmailNotifications: contact.EmailNotifications,
		SMSNotifications:   contact.SMSNotifications,
	})
}

func (h *Handler) getScreening(c *gin.Context) {
	screening, err := h.deps.Screenings.GetScreening(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, screening)
}

func (h *Handler) runScreening(c *gin.Context) {
	screening, err := h.deps.AML.RunScreening(c.Request.Context(), aml.RunScreeningInput{
		UserID:      userID(c),
		ScreeningID: c.Param("id"),
	})
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, screening)
}

type reviewMatchRequest struct {
	Decision models.MatchDecision `json:"decision"`
	Notes    string               `json:"notes"`
}

func (h *Handler) reviewMatch(c *gin.Context) {
	var req reviewMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abort(c, apperrors.NewValidationError("Invalid request body", err.Error()))
		return
	}

	result, err := h.deps.AML.ReviewMatch(c.Request.Context(), aml.ReviewMatchInput{
		UserID:   userID(c),
		MatchID:  c.Param("id"),
		Decision: req.Decision,
		Notes:    req.Notes,
	})
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type completeEDDRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) completeEDD(c *gin.Context) {
	var req completeEDDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abort(c, apperrors.NewValidationError("Invalid request body", err.Error()))
		return
	}

	screening, err := h.deps.AML.CompleteEDD(c.Request.Context(), aml.CompleteEDDInput{
		UserID:      userID(c),
		ScreeningID: c.Param("id"),
		Notes:       req.Notes,
	})
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, screening)
}

type updateRepairItemRequest struct {
	Status models.RepairItemStatus `json:"status" validate:"required,oneof=pending compliant non_compliant in_progress completed"`
}

func (h *Handler) updateRepairItem(c *gin.Context) {
	var req updateRepairItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abort(c, apperrors.NewValidationError("Invalid request body", err.Error()))
		return
	}
	if err := validation.Struct(req); err != nil {
		h.abort(c, err)
		return
	}

	assessment, err := h.deps.Assessments.UpdateItemStatus(c.Request.Context(), userID(c), c.Param("id"), c.Param("itemId"), req.Status, h.now())
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}

// runNotificationChecks accepts an optional RFC 3339 asOf query parameter
// so a missed day can be replayed.
func (h *Handler) runNotificationChecks(c *gin.Context) {
	now := h.now()
	if raw := c.Query("asOf"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.abort(c, apperrors.NewValidationError("asOf must be an RFC 3339 timestamp", err.Error()))
			return
		}
		now = t
	}

	result := h.deps.Checks.RunNotificationChecksAt(c.Request.Context(), now)
	h.logger.Info("notification checks complete", map[string]interface{}{
		"totalNotifications": result.TotalNotifications,
		"success":            result.Success,
	})

	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	c.JSON(status, result)
}
