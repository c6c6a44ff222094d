package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/tutor-portal/internal/metrics"
	"github.com/stemsi/tutor-portal/internal/middleware"
	"github.com/stemsi/tutor-portal/internal/model"
	"github.com/stemsi/tutor-portal/internal/response"
	ws "github.com/stemsi/tutor-portal/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// SessionProvider resolves the signed-in student's session.
// *service.SessionService implements it.
type SessionProvider interface {
	Snapshot(ctx context.Context, account *model.Account) (*model.Session, error)
	Observe(ctx context.Context, account *model.Account, jti string) (<-chan *model.Session, error)
}

// SessionHandler serves the session snapshot and its live stream.
type SessionHandler struct {
	auth     Authenticator
	sessions SessionProvider
	metrics  *metrics.Metrics
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(auth Authenticator, sessions SessionProvider, m *metrics.Metrics, log zerolog.Logger, allowedOrigins []string) *SessionHandler {
	return &SessionHandler{
		auth:     auth,
		sessions: sessions,
		metrics:  m,
		log:      log.With().Str("component", "session_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// GetSession godoc
// GET /api/v1/student/session
// Returns the account, profile and owner-scoped collections. A student
// without a profile yet gets loading=true.
func (h *SessionHandler) GetSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	account, err := h.auth.Account(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	sess, err := h.sessions.Snapshot(c.Request.Context(), account)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, sess)
}

// SessionStream godoc
// WS /ws/v1/student/session/stream?token=...
// Pushes a session event on every change until the client leaves or the
// token signs out.
func (h *SessionHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	account, err := h.auth.Account(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	wsLog := h.log.With().Str("uid", account.UID).Logger()
	wsLog.Info().Msg("Session stream connected")

	h.metrics.LiveSessions.Inc()
	defer h.metrics.LiveSessions.Dec()

	// The request context is not cancelled by a WebSocket close, so the
	// reader cancels this one.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := h.sessions.Observe(ctx, account, claims.ID)
	if err != nil {
		wsLog.Error().Err(err).Msg("Observe session failed")
		_ = conn.WriteError("session unavailable")
		return
	}

	go h.readLoop(conn, cancel, wsLog)

	for sess := range stream {
		if err := conn.WriteTyped(ws.SessionResponse{Event: ws.EventSession, Session: sess}); err != nil {
			wsLog.Debug().Err(err).Msg("Write failed, closing stream")
			return
		}
	}

	if ctx.Err() == nil {
		// The stream ended on its own: the session signed out.
		_ = conn.WriteTyped(ws.SignedOutResponse{Event: ws.EventSignedOut})
		_ = conn.CloseNormal("signed out")
		wsLog.Info().Msg("Session signed out")
		return
	}
	wsLog.Info().Msg("Session stream disconnected")
}

// readLoop answers pings and cancels the stream when the client goes away.
func (h *SessionHandler) readLoop(conn *ws.Conn, cancel context.CancelFunc, log zerolog.Logger) {
	defer cancel()
	for {
		var msg ws.RequestEnvelope
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			_ = conn.WriteError("unknown action: " + string(msg.Action))
		}
	}
}
