package server

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"luckybit/infrastructure/ws"
)

const wsReadLimit = 512

func newUpgrader(allowedHosts []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedHosts) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, host := range allowedHosts {
				if origin == host {
					return true
				}
			}
			return false
		},
	}
}

// serveWS upgrades the connection and attaches it to the account's live feed
func (h *Handler) serveWS(upgrader *websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := strconv.ParseInt(r.URL.Query().Get("account"), 10, 64)
		if err != nil || accountID <= 0 {
			respondError(w, http.StatusBadRequest, "invalid account query parameter")
			return
		}

		account, err := h.accounts.GetByID(r.Context(), accountID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		if account == nil {
			respondError(w, http.StatusNotFound, "account not found")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithError(err).Debug("Websocket upgrade failed")
			return
		}

		client := h.hub.Register(accountID, conn)
		go h.readPump(conn, client)
	}
}

// readPump consumes inbound frames so control messages are processed and
// tears the connection down when the peer goes away
func (h *Handler) readPump(conn *websocket.Conn, client *ws.Client) {
	defer h.hub.Unregister(client)

	conn.SetReadLimit(wsReadLimit)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
