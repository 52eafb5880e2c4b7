package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"
)

// Handler upgrades the request and runs the connection until it closes.
// Authentication happens in middleware before the upgrade.
func (h *Hub) Handler(originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns:     originPatterns,
			InsecureSkipVerify: len(originPatterns) == 0,
		})
		if err != nil {
			h.logger.Warn("accept failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		defer conn.CloseNow()

		h.logger.Debug("client connected", "clients", h.ClientCount()+1)
		NewClient(h, conn).Run(r.Context())
		conn.Close(ws.StatusNormalClosure, "")
	}
}
