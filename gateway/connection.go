// Package gateway implements the per-node connection lifecycle: the
// Connection Manager, Session Bootstrap, Tail Fan-out, and the HTTP Front
// Door that ties the realtime transport and the peer broadcast endpoint
// together into one listening node.
package gateway

import (
	"sync"
	"time"

	"github.com/primus/primacron/transport"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 2 * 1024 * 1024
	sendQueueSize  = 256
)

// User is the per-message identity snapshot handed to validators. ID is set
// to the connection id; the source this gateway is modeled on assigns this
// field to the record itself, almost certainly a copy-paste typo for the id
// parameter, and that bug is not reproduced here.
type User struct {
	ID      string
	Account string
	Session string
}

// Connection is one locally-attached client. It is exclusively owned by
// Manager and destroyed on transport close; tail is never shared across
// connections and is protected by this connection's own lock so that Tail
// Fan-out never has to contend with Manager's registry lock.
type Connection struct {
	ID      string
	Account string

	conn transport.Conn
	send chan []byte

	mu      sync.Mutex
	session string
	tail    []string

	closeOnce sync.Once
	closed    chan struct{}
}

func newConnection(id, account string, conn transport.Conn) *Connection {
	return &Connection{
		ID:      id,
		Account: account,
		conn:    conn,
		send:    make(chan []byte, sendQueueSize),
		closed:  make(chan struct{}),
	}
}

// Session returns the bootstrap-assigned session id.
func (c *Connection) Session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Connection) setSession(session string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = session
}

// User returns a validator-facing identity snapshot for this connection.
func (c *Connection) User() User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return User{ID: c.ID, Account: c.Account, Session: c.session}
}

// Tail returns a copy of the connection's current tailgator address list.
func (c *Connection) Tail() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.tail))
	copy(out, c.tail)
	return out
}

func (c *Connection) setTail(tail []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tail = tail
}

// addTailIfAbsent appends addr to tail unless already present.
func (c *Connection) addTailIfAbsent(addr string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.tail {
		if existing == addr {
			return false
		}
	}
	c.tail = append(c.tail, addr)
	return true
}

// writeRaw enqueues a frame for the write pump. A full queue drops the
// frame rather than block whatever triggered the write — a slow client
// must not stall peer delivery or local broadcast.
func (c *Connection) writeRaw(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	case <-c.closed:
		return false
	default:
		return false
	}
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		close(c.send)
		c.conn.Close()
	})
}
