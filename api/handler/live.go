package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskshare/domain"
	"github.com/fastygo/taskshare/internal/middleware"
	"github.com/fastygo/taskshare/internal/services/realtime"
	"github.com/fastygo/taskshare/pkg/httpcontext"
	"github.com/fastygo/taskshare/pkg/logger"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxInboundSize = 4096
)

// UnreadCounter supplies the count pushed to a session when it joins.
type UnreadCounter interface {
	GetUnreadCount(ctx context.Context, userID int64) (int, error)
}

// LiveHandler upgrades authenticated requests to websocket sessions bound to
// the caller's group on the hub.
type LiveHandler struct {
	baseHandler
	hub          *realtime.Hub
	tokens       middleware.TokenParser
	unread       UnreadCounter
	writeTimeout time.Duration
	upgrader     websocket.FastHTTPUpgrader
}

func NewLiveHandler(
	hub *realtime.Hub,
	tokens middleware.TokenParser,
	unread UnreadCounter,
	allowedOrigin string,
	writeTimeout time.Duration,
	adapter *httpcontext.Adapter,
	logger *zap.Logger,
) *LiveHandler {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	h := &LiveHandler{
		baseHandler:  newBaseHandler(adapter, logger),
		hub:          hub,
		tokens:       tokens,
		unread:       unread,
		writeTimeout: writeTimeout,
	}
	h.upgrader = websocket.FastHTTPUpgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// Browsers pass the token as the second protocol: ["bearer", token].
		Subprotocols: []string{"bearer"},
		CheckOrigin: func(ctx *fasthttp.RequestCtx) bool {
			origin := string(ctx.Request.Header.Peek("Origin"))
			return origin == "" || allowedOrigin == "" || allowedOrigin == "*" || origin == allowedOrigin
		},
	}
	return h
}

// @Summary Open the live notification channel
// @Tags realtime
// @Router /ws [get]
func (h *LiveHandler) Serve(ctx *fasthttp.RequestCtx) {
	principal, err := middleware.Authenticate(ctx, h.tokens)
	if err != nil {
		middleware.Unauthorized(ctx)
		return
	}

	// The request context is recycled once the connection is hijacked.
	sessionCtx, cancel := h.detached(ctx)
	log := logger.WithRequestID(sessionCtx, h.logger).With(zap.Int64("user_id", principal.ID))

	err = h.upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
		defer cancel()
		h.session(sessionCtx, conn, principal.ID, log)
	})
	if err != nil {
		cancel()
		log.Debug("websocket upgrade failed", zap.Error(err))
		if ctx.Response.StatusCode() == http.StatusOK {
			ctx.SetStatusCode(http.StatusBadRequest)
		}
	}
}

func (h *LiveHandler) detached(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Detached(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h *LiveHandler) session(ctx context.Context, conn *websocket.Conn, userID int64, log *zap.Logger) {
	defer conn.Close()

	client := h.hub.Join(userID)
	if client == nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(h.writeTimeout))
		return
	}
	defer h.hub.Leave(client)
	log.Info("live session opened", zap.Int("sessions", h.hub.ConnectionCount(userID)))

	if h.unread != nil {
		count, err := h.unread.GetUnreadCount(ctx, userID)
		if err != nil {
			log.Warn("initial unread count failed", zap.Error(err))
		} else {
			_ = h.hub.Deliver(client, domain.EventSync, domain.SyncEvent{UnreadCount: count})
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.readPump(conn)
	}()

	h.writePump(conn, client, done, log)
	log.Info("live session closed", zap.Int64("dropped_events", client.Dropped()))
}

// readPump discards inbound frames and returns when the peer goes away.
func (h *LiveHandler) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxInboundSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *LiveHandler) writePump(conn *websocket.Conn, client *realtime.Client, done <-chan struct{}, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-client.Send():
			_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Debug("live write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
