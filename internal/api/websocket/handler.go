package websocket

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/maumercado/anticaptcha-go/internal/logger"
)

// Handler upgrades /ws requests into event stream clients
type Handler struct {
	hub       *Hub
	origins   map[string]bool
	anyOrigin bool
	upgrader  websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. With no allowed origins only
// same-origin requests are upgraded; "*" allows every origin.
func NewHandler(hub *Hub, allowedOrigins ...string) *Handler {
	h := &Handler{
		hub:     hub,
		origins: make(map[string]bool, len(allowedOrigins)),
	}
	for _, o := range allowedOrigins {
		if o == "*" {
			h.anyOrigin = true
			continue
		}
		h.origins[strings.ToLower(strings.TrimSuffix(o, "/"))] = true
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.anyOrigin {
		return true
	}
	if h.origins[strings.ToLower(origin)] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// ServeWS handles WebSocket upgrade requests. New clients are subscribed
// to every event type.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return
	}

	client := NewClient(h.hub, conn)
	client.SubscribeAll()

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	logger.Info().
		Str("client_id", client.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket client connected")
}
