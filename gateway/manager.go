package gateway

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/primus/primacron/codec"
	"github.com/primus/primacron/errors"
	"github.com/primus/primacron/logger"
	"github.com/primus/primacron/peer"
	"github.com/primus/primacron/session"
	"github.com/primus/primacron/transport"
	"github.com/primus/primacron/validate"
)

// Manager is the Connection Manager: it owns every locally-attached
// connection, indexed by connection id and, additionally, by
// (account, session) for session-scoped lookup. Both indexes are
// protected by the same lock; a connection's tail list is protected
// separately by the connection itself so Tail Fan-out and registry
// lookups never contend.
type Manager struct {
	mu        sync.RWMutex
	byID      map[string]*Connection
	bySession map[string]*Connection

	directory   *session.Directory
	pipeline    *validate.Pipeline
	broadcaster *peer.Broadcaster
	codec       codec.Codec
	idGen       IDGenerator
	nodeURL     string

	log *zap.SugaredLogger
}

// NewManager builds a Manager wired to directory for session registration,
// pipeline for validation, and broadcaster for Tail Fan-out delivery.
// nodeURL is this node's externally reachable address, recorded in every
// session entry this node registers.
func NewManager(directory *session.Directory, pipeline *validate.Pipeline, broadcaster *peer.Broadcaster, c codec.Codec, nodeURL string, idGen IDGenerator, log *zap.SugaredLogger) *Manager {
	if log == nil {
		log = logger.Logger
	}
	if idGen == nil {
		idGen = DefaultIDGenerator
	}
	if c == nil {
		c = codec.JSON()
	}
	return &Manager{
		byID:        make(map[string]*Connection),
		bySession:   make(map[string]*Connection),
		directory:   directory,
		pipeline:    pipeline,
		broadcaster: broadcaster,
		codec:       c,
		idGen:       idGen,
		nodeURL:     nodeURL,
		log:         log,
	}
}

func sessionIndexKey(account, session string) string { return account + "::" + session }

// Bootstrap runs the Session Bootstrap sequence (§4.6): generate a session
// id, register the connection in both local indexes and in the session
// directory, and seed the connection's tail with whatever tailgators are
// already registered. r must already carry its fully-parsed query state —
// on net/http that is true the moment the handler is invoked, so unlike the
// source this is modeled on, no scheduler-tick deferral is required here.
func (m *Manager) Bootstrap(ctx context.Context, r *http.Request, account string, conn transport.Conn) *Connection {
	connID := randomConnID()
	sessionID := m.idGen(r)

	c := newConnection(connID, account, conn)
	c.setSession(sessionID)

	m.mu.Lock()
	m.byID[connID] = c
	m.bySession[sessionIndexKey(account, sessionID)] = c
	m.mu.Unlock()

	tailgators, err := m.directory.Register(ctx, account, sessionID, connID, m.nodeURL)
	if err != nil {
		m.log.Warnw("session directory register failed",
			logger.FieldAccount, account, logger.FieldSessionID, sessionID, logger.FieldError, err)
	}
	c.setTail(tailgators)

	return c
}

// Close removes c from both indexes, unregisters its session entry, and
// closes its transport. Safe to call more than once.
func (m *Manager) Close(ctx context.Context, c *Connection) {
	m.mu.Lock()
	delete(m.byID, c.ID)
	delete(m.bySession, sessionIndexKey(c.Account, c.Session()))
	m.mu.Unlock()

	if err := m.directory.Unregister(ctx, c.Account, c.Session(), c.ID); err != nil {
		m.log.Warnw("session directory unregister failed",
			logger.FieldConnectionID, c.ID, logger.FieldError, err)
	}
	c.close()
}

// byConnID looks up a locally-attached connection by id.
func (m *Manager) byConnID(id string) (*Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.byID[id]
	return c, ok
}

// ConnectionCount returns the number of connections currently attached to
// this node. Used by the health endpoint.
func (m *Manager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

// Dispatch implements peer.ConnectionRouter: it is the inbound side of the
// Inbound Broadcast Handler, classifying message by its runtime type per
// §4.4.
func (m *Manager) Dispatch(connID string, message interface{}) bool {
	c, ok := m.byConnID(connID)
	if !ok {
		return false
	}

	switch v := message.(type) {
	case string:
		// "pipe" delivery: the raw validated payload, written verbatim.
		c.writeRaw([]byte(v))
	case []interface{}:
		// "tail" delivery: grow this connection's follower list.
		for _, item := range v {
			addr, ok := item.(string)
			if !ok {
				continue
			}
			c.addTailIfAbsent(addr)
		}
	default:
		encoded, err := m.codec.Encode(message)
		if err != nil {
			m.log.Warnw("failed encoding dispatched broadcast message",
				logger.FieldConnectionID, connID, logger.FieldError, err)
			return true
		}
		c.writeRaw(encoded)
	}
	return true
}

// HandleInbound implements the Connection Manager's inbound client message
// handling (§4.5).
func (m *Manager) HandleInbound(c *Connection, raw []byte) {
	rawStr := string(raw)
	user := c.User()

	var decoded interface{}
	if err := m.codec.Decode(raw, &decoded); err != nil {
		m.pipeline.EmitError(errors.KindCodec, "", rawStr, user, err)
		return
	}

	obj, ok := decoded.(map[string]interface{})
	if !ok {
		m.pipeline.EmitError(errors.KindShape, "", rawStr, user, errors.Newf("inbound message root must be a JSON object"))
		return
	}

	if eventValue, hasEvent := obj["event"]; hasEvent {
		event, _ := eventValue.(string)
		var args []interface{}
		if a, ok := obj["args"].([]interface{}); ok {
			args = a
		}
		m.pipeline.Emit(event, args, user, rawStr)
		return
	}

	m.pipeline.Emit("message", []interface{}{obj}, user, rawStr)
}
