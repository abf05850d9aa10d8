package server

import (
	"net/http"

	"github.com/Heidric/workify/internal/lib/jwt"
	"github.com/Heidric/workify/internal/ws"
)

func (s *Server) notificationsWSHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok {
		UnauthorizedError(w)
		return
	}

	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already answered the request.
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	client := ws.NewClient(conn, claims.ID)
	s.wsHub.Join(ws.UserRoom(claims.ID), client)

	go client.WritePump()
	go client.ReadPump()
}
