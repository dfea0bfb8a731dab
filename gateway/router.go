package gateway

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/primus/primacron/logger"
	"github.com/primus/primacron/transport"
)

// Router is the HTTP Front Door (§4.9): it classifies every inbound HTTP
// request into transport hand-off, broadcast delivery, redirect, or a
// canned 400.
type Router struct {
	endpointPath  string
	broadcastPath string
	redirectURL   string
	allowedOrigin func(*http.Request) bool

	upgrader transport.Upgrader
	manager  *Manager
	handler  *Connector

	broadcast http.Handler

	log *zap.SugaredLogger
}

// RouterConfig collects Router's construction parameters.
type RouterConfig struct {
	EndpointPath  string
	BroadcastPath string
	RedirectURL   string
	Upgrader      transport.Upgrader
	Manager       *Manager
	Broadcast     http.Handler
	Log           *zap.SugaredLogger
}

// NewRouter builds a Router from cfg.
func NewRouter(cfg RouterConfig) *Router {
	log := cfg.Log
	if log == nil {
		log = logger.Logger
	}
	return &Router{
		endpointPath:  cfg.EndpointPath,
		broadcastPath: cfg.BroadcastPath,
		redirectURL:   cfg.RedirectURL,
		upgrader:      cfg.Upgrader,
		manager:       cfg.Manager,
		broadcast:     cfg.Broadcast,
		handler:       &Connector{manager: cfg.Manager, upgrader: cfg.Upgrader, log: log},
		log:           log,
	}
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.corsHeaders(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.URL.Path == "/healthz" {
		rt.HandleHealth(w, r)
		return
	}

	isUpgrade := transport.IsUpgradeRequest(r)

	if r.URL.Path == rt.endpointPath && r.URL.Query().Get("account") != "" {
		rt.handler.Handle(w, r)
		return
	}

	if isUpgrade {
		// A WebSocket upgrade cannot be HTTP-redirected; fail the handshake
		// without a response body instead.
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if r.Method == http.MethodPut && r.URL.Path == rt.broadcastPath {
		rt.broadcast.ServeHTTP(w, r)
		return
	}

	if rt.redirectURL != "" {
		http.Redirect(w, r, rt.redirectURL, http.StatusMovedPermanently)
		return
	}

	http.Error(w, `{"status":400,"type":"bad request"}`, http.StatusBadRequest)
}

func (rt *Router) corsHeaders(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	if rt.allowedOrigin != nil && !rt.allowedOrigin(r) {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// WithAllowedOrigin restricts CORS headers to the given origin predicate,
// reusing the one applied to the WebSocket upgrader so REST-style browser
// clients and live connections are governed by the same allowlist.
func (rt *Router) WithAllowedOrigin(f func(*http.Request) bool) *Router {
	rt.allowedOrigin = f
	return rt
}

// Connector performs the realtime transport hand-off: upgrade, bootstrap,
// and the readPump/writePump goroutines.
type Connector struct {
	manager  *Manager
	upgrader transport.Upgrader
	log      *zap.SugaredLogger
}

func (conn *Connector) Handle(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account")
	socket, err := conn.upgrader.Upgrade(w, r, nil)
	if err != nil {
		conn.log.Warnw("transport upgrade failed", logger.FieldAccount, account, logger.FieldError, err)
		return
	}

	c := conn.manager.Bootstrap(r.Context(), r, account, socket)

	go conn.writePump(c)
	go conn.readPump(c)
}

func (conn *Connector) readPump(c *Connection) {
	defer conn.manager.Close(context.Background(), c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if !isExpectedCloseError(err) {
				conn.log.Debugw("read pump closing", logger.FieldConnectionID, c.ID, logger.FieldError, err)
			}
			return
		}
		conn.manager.HandleInbound(c, message)
	}
}

func (conn *Connector) writePump(c *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(transport.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(transport.TextMessage, payload); err != nil {
				conn.log.Debugw("write pump error", logger.FieldConnectionID, c.ID, logger.FieldError, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(transport.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func isExpectedCloseError(err error) bool {
	return strings.Contains(err.Error(), "close") || strings.Contains(err.Error(), "EOF")
}
