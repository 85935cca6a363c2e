package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/friendcircle/backend/internal/models"
	"github.com/anonto42/friendcircle/backend/internal/repositories"
)

// NotificationHandler serves the caller's notification ledger. Every query is
// scoped to the authenticated receiver.
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
	now                    func() time.Time
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
		now:                    time.Now,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/grouped", h.GetGroupedNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.DELETE("/notifications", h.DeleteAll)
	g.DELETE("/notifications/:id", h.Delete)
}

// EnrichedNotification includes actor info
type EnrichedNotification struct {
	models.Notification
	Actor models.UserCompact `json:"actor"`
}

// enricher resolves senders once per request.
type enricher struct {
	h     *NotificationHandler
	c     echo.Context
	cache map[string]models.UserCompact
}

func (h *NotificationHandler) newEnricher(c echo.Context) *enricher {
	return &enricher{h: h, c: c, cache: make(map[string]models.UserCompact)}
}

func (e *enricher) enrich(notifications []models.Notification) []EnrichedNotification {
	enriched := make([]EnrichedNotification, len(notifications))
	for i, n := range notifications {
		enriched[i] = EnrichedNotification{Notification: n}
		if actor, ok := e.cache[n.SenderID]; ok {
			enriched[i].Actor = actor
			continue
		}
		user, err := e.h.userRepository.GetUserByID(e.c.Request().Context(), n.SenderID)
		if err == nil {
			compact := user.ToCompact()
			e.cache[n.SenderID] = compact
			enriched[i].Actor = compact
		}
	}
	return enriched
}

// GetNotifications returns paginated notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	page, limit := pageParams(c, 20)

	notifications, total, err := h.notificationRepository.GetByReceiverID(c.Request().Context(), userID, page, limit)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": h.newEnricher(c).enrich(notifications),
		},
		"meta": pageMeta(page, limit, total),
	})
}

// GetGroupedNotifications returns notifications grouped by time period
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	grouped, err := h.notificationRepository.GetGrouped(ctx, userID, h.now())
	if err != nil {
		return toHTTPError(err)
	}
	unreadCount, err := h.notificationRepository.GetUnreadCount(ctx, userID)
	if err != nil {
		return toHTTPError(err)
	}

	e := h.newEnricher(c)
	return success(c, http.StatusOK, echo.Map{
		"notifications": echo.Map{
			"today":     e.enrich(grouped.Today),
			"yesterday": e.enrich(grouped.Yesterday),
			"thisWeek":  e.enrich(grouped.ThisWeek),
			"older":     e.enrich(grouped.Older),
		},
		"unreadCount": unreadCount,
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	count, err := h.notificationRepository.GetUnreadCount(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	notifID, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.notificationRepository.MarkAsRead(c.Request().Context(), notifID, userID); err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, echo.Map{"success": true})
}

// MarkAllAsRead marks all of the caller's notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	n, err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, echo.Map{"updated": n})
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	notifID, err := parseUintParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.notificationRepository.Delete(c.Request().Context(), notifID, userID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *NotificationHandler) DeleteAll(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	n, err := h.notificationRepository.DeleteAll(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}
	return success(c, http.StatusOK, echo.Map{"deleted": n})
}
