// Package wsconn is the default realtime transport adapter, implementing
// transport.Upgrader and transport.Conn over github.com/gorilla/websocket.
package wsconn

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/primus/primacron/transport"
)

const (
	readBufferSize  = 2048
	writeBufferSize = 2048
)

// Upgrader negotiates the WebSocket handshake with an origin-checking
// policy supplied by the caller (typically driven by node configuration).
type Upgrader struct {
	inner websocket.Upgrader
}

// New builds an Upgrader. checkOrigin is invoked for every upgrade request;
// a nil checkOrigin falls back to gorilla/websocket's own default, which
// rejects cross-origin requests.
func New(checkOrigin func(*http.Request) bool) *Upgrader {
	return &Upgrader{
		inner: websocket.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Upgrade implements transport.Upgrader.
func (u *Upgrader) Upgrade(w http.ResponseWriter, r *http.Request, responseHeader http.Header) (transport.Conn, error) {
	conn, err := u.inner.Upgrade(w, r, responseHeader)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn}, nil
}

// Conn adapts *websocket.Conn to transport.Conn. gorilla/websocket's method
// set already matches transport.Conn field-for-field except RemoteAddr,
// which returns a net.Addr rather than a string.
type Conn struct {
	*websocket.Conn
}

// RemoteAddr implements transport.Conn.
func (c *Conn) RemoteAddr() string {
	if addr := c.Conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// CheckOriginAllowlist builds a transport.Upgrader-compatible origin check
// from a configured prefix allowlist, mirroring the gateway's CORS policy so
// the realtime transport and the plain HTTP front door agree on which
// browser origins are trusted. An empty Origin header (non-browser clients,
// direct socket tooling) is always allowed.
func CheckOriginAllowlist(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, prefix := range allowed {
			if prefix != "" && len(origin) >= len(prefix) && origin[:len(prefix)] == prefix {
				return true
			}
		}
		return false
	}
}
