package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/devaloi/agora/internal/client"
	"github.com/devaloi/agora/internal/hub"
	"github.com/devaloi/agora/internal/logging"
	"github.com/devaloi/agora/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades to a realtime connection. Anonymous viewers are allowed;
// a token, when sent, tags the connection with its user.
func ServeWS(h *hub.Hub, buffer int, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			l := logging.Ctx(r.Context())
			l.Warn().Err(err).Msg("ws upgrade")
			return
		}

		var userID string
		if u, ok := middleware.CurrentUser(r.Context()); ok {
			userID = u.ID
		}

		c := client.New(h, conn, userID, buffer, logger)
		c.Logger().Info().Msg("client connected")
		go c.WritePump()
		go c.ReadPump()
	}
}
