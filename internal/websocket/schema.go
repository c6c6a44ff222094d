package websocket

import "github.com/stemsi/tutor-portal/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSession   Event = "session"
	EventSignedOut Event = "signed_out"
	EventPong      Event = "pong"
	EventError     Event = "error"
)

// SessionResponse carries the current session state. A new one is sent
// whenever any part of the session changes.
type SessionResponse struct {
	Event   Event          `json:"event"`
	Session *model.Session `json:"session"`
}

type SignedOutResponse struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
