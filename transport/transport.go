// Package transport defines the seam between the gateway's core and the
// underlying realtime transport (WebSocket framing, long-polling, handshake
// negotiation). The core depends only on these interfaces; concrete
// negotiation lives in a transport-specific adapter package such as
// transport/wsconn.
package transport

import (
	"net/http"
	"strings"
	"time"
)

// Message type constants, matching the values gorilla/websocket and the
// broader WebSocket ecosystem use so adapters can pass them straight
// through without translation.
const (
	TextMessage   = 1
	BinaryMessage = 2
	CloseMessage  = 8
	PingMessage   = 9
	PongMessage   = 10
)

// Conn is one established, bidirectional realtime connection to a client.
// Its method set mirrors *websocket.Conn deliberately: the default adapter
// in transport/wsconn wraps one without any shimming.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	RemoteAddr() string
}

// Upgrader negotiates the realtime transport's handshake for one HTTP
// request, producing an established Conn. The realtime transport
// negotiation itself (framing, handshake details) is explicitly out of the
// core's scope; this interface is the seam an external adapter fills.
type Upgrader interface {
	Upgrade(w http.ResponseWriter, r *http.Request, responseHeader http.Header) (Conn, error)
}

// IsUpgradeRequest reports whether r is attempting a WebSocket (or
// equivalent) protocol upgrade, used by the HTTP front door to recognize a
// realtime-transport request on a path it does not otherwise route.
func IsUpgradeRequest(r *http.Request) bool {
	return headerContainsToken(r.Header.Get("Connection"), "upgrade") &&
		r.Header.Get("Upgrade") != ""
}

func headerContainsToken(header, token string) bool {
	if header == "" {
		return false
	}
	for _, part := range strings.Split(header, ",") {
		if strings.EqualFold(strings.TrimSpace(part), token) {
			return true
		}
	}
	return false
}
