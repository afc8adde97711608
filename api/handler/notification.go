package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskshare/api/transport"
	"github.com/fastygo/taskshare/pkg/httpcontext"
	notificationUC "github.com/fastygo/taskshare/usecase/notification"
)

type NotificationHandler struct {
	baseHandler
	uc *notificationUC.UseCase
}

func NewNotificationHandler(uc *notificationUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List the caller's notifications, newest first
// @Tags notifications
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) List(ctx *fasthttp.RequestCtx) {
	p, ok := h.principal(ctx)
	if !ok {
		return
	}
	limit := parseInt(string(ctx.QueryArgs().Peek("limit")), notificationUC.DefaultLimit)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	items, err := h.uc.ListNotifications(stdCtx, p.ID, limit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	unread, err := h.uc.GetUnreadCount(stdCtx, p.ID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NotificationList{Notifications: items, UnreadCount: unread})
}

// @Summary Mark notifications as read
// @Tags notifications
// @Router /api/v1/notifications/mark-read [post]
func (h *NotificationHandler) MarkRead(ctx *fasthttp.RequestCtx) {
	p, ok := h.principal(ctx)
	if !ok {
		return
	}
	// An empty body marks nothing and still answers with the unread count.
	var req transport.MarkReadRequest
	if len(ctx.PostBody()) > 0 && !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	unread, err := h.uc.MarkAsRead(stdCtx, p.ID, notificationUC.ParseIDs(req.IDs))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.UnreadCount{UnreadCount: unread})
}

// @Summary Mark every notification as read
// @Tags notifications
// @Router /api/v1/notifications/mark-all-read [post]
func (h *NotificationHandler) MarkAllRead(ctx *fasthttp.RequestCtx) {
	p, ok := h.principal(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	unread, err := h.uc.MarkAllAsRead(stdCtx, p.ID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.UnreadCount{UnreadCount: unread})
}
