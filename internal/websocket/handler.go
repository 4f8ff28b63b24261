package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades screens to a change-notification stream. With no
// originPatterns any origin is accepted, which suits a household LAN.
func HandleWebSocket(hub *Hub, originPatterns ...string) http.HandlerFunc {
	opts := &ws.AcceptOptions{OriginPatterns: originPatterns}
	if len(originPatterns) == 0 {
		opts.InsecureSkipVerify = true
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, opts)
		if err != nil {
			hub.logger.Warn("accept websocket", "error", err, "remote", r.RemoteAddr)
			return
		}
		NewClient(hub, conn).Run(r.Context())
	}
}
