package handler

import (
	"context"
	"time"

	"mindmetric/internal/logger"
	"mindmetric/internal/service"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsStatusInterval = 5 * time.Second
)

// WSHandler pushes live session progress over a WebSocket. The stream is
// fire-and-forget: clients that never connect lose nothing, the REST
// endpoints remain the source of truth.
type WSHandler struct {
	sessionService service.SessionService
	authService    service.AuthService
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(sessionService service.SessionService, authService service.AuthService) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		authService:    authService,
	}
}

// Upgrade gates the route to WebSocket upgrade requests.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Serve returns the connection handler for GET /ws/test/:sessionId.
// Browsers cannot set headers on WebSocket requests, so credentials arrive
// as query parameters: token for authenticated users, anon_token otherwise.
func (h *WSHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		sessionID := conn.Params("sessionId")

		userID := ""
		if token := conn.Query("token"); token != "" {
			claims, err := h.authService.ValidateAccessToken(token)
			if err != nil {
				h.closeWith(conn, websocket.ClosePolicyViolation, "invalid token")
				return
			}
			userID = claims.UserID
		}
		anonToken := conn.Query("anon_token")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Reject unknown or foreign sessions before streaming anything.
		if _, err := h.sessionService.GetStatus(ctx, sessionID, userID, anonToken); err != nil {
			h.closeWith(conn, websocket.ClosePolicyViolation, "session unavailable")
			return
		}

		go h.readPump(conn, cancel)
		h.writePump(ctx, conn, sessionID, userID, anonToken)
	})
}

// readPump drains client frames and keeps the read deadline fresh on pongs.
func (h *WSHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WSHandler) writePump(ctx context.Context, conn *websocket.Conn, sessionID, userID, anonToken string) {
	statusTicker := time.NewTicker(wsStatusInterval)
	pingTicker := time.NewTicker(wsPingPeriod)
	defer func() {
		statusTicker.Stop()
		pingTicker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pingTicker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-statusTicker.C:
			status, err := h.sessionService.GetStatus(ctx, sessionID, userID, anonToken)
			if err != nil {
				logger.Get().Debug("websocket status fetch failed",
					zap.String("session_id", sessionID), zap.Error(err))
				h.closeWith(conn, websocket.CloseNormalClosure, "session ended")
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(status); err != nil {
				return
			}
			if status.Session.Status != "started" && status.Session.Status != "in_progress" {
				h.closeWith(conn, websocket.CloseNormalClosure, "session ended")
				return
			}
		}
	}
}

func (h *WSHandler) closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	_ = conn.Close()
}
