package observer

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP connections to the state-change websocket stream,
// authenticating each connection before it joins the Hub.
type Handler struct {
	hub  *Hub
	auth Authenticator
}

// NewHandler constructs a Handler bound to a Hub and Authenticator.
func NewHandler(hub *Hub, auth Authenticator) *Handler {
	return &Handler{hub: hub, auth: auth}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	subject, err := h.auth.Authenticate(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("observer websocket upgrade failed")
		return
	}

	client := NewClient(uuid.NewString(), subject, h.hub, conn)
	h.hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}
