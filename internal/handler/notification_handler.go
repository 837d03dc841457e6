package handler

import (
	"net/http"
	"strconv"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/internal/websocket"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
	hub                 *websocket.Hub
}

func NewNotificationHandler(notificationService service.NotificationService, hub *websocket.Hub) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, hub: hub}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/notifications")
	group.Use(middleware.RequireAuth())
	{
		group.GET("", h.ListNotifications)
		group.POST("/mark-all-read", h.MarkAllRead)
	}

	// Live push; the token travels as a query parameter because browsers
	// cannot set headers on websocket upgrades.
	router.GET("/ws/notifications", h.Subscribe)
}

// ListNotifications returns the caller's notification feed
// @Summary      List notifications
// @Description  Returns the caller's notifications newest first, with the unread count
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        limit  query     int  false  "Maximum number of rows (default 50)"
// @Success      200    {object}  response.Response{data=service.NotificationFeed}
// @Router       /api/notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	feed, err := h.notificationService.List(c.Request.Context(), actor.ID.String(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, feed))
}

// MarkAllRead flips every unread notification of the caller
// @Summary      Mark all notifications read
// @Description  Marks every notification of the caller as read; safe to repeat
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/notifications/mark-all-read [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkAllRead(c.Request.Context(), actor.ID.String()); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Notifications marked as read"))
}

// Subscribe upgrades the connection for live notification push
func (h *NotificationHandler) Subscribe(c *gin.Context) {
	websocket.ServeWs(h.hub, c, middleware.GetJWTSecret())
}
