package gateway

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/primus/primacron/logger"
)

// ShutdownTimeout bounds how long Node.Shutdown waits for in-flight
// connections and the tail fan-out loop to drain before forcing a return.
const ShutdownTimeout = 30 * time.Second

// State is a Node's lifecycle state.
type State int32

const (
	StateRunning State = iota
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Node owns one gateway's listening HTTP server, its Connection Manager,
// and the Tail Fan-out loop, and coordinates their shutdown.
type Node struct {
	httpServer *http.Server
	manager    *Manager

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	state atomic.Int32
	log   *zap.SugaredLogger
}

// NewNode builds a Node that will listen on addr, routing through handler,
// and running manager's tail fan-out loop for its lifetime.
func NewNode(addr string, handler http.Handler, manager *Manager, log *zap.SugaredLogger) *Node {
	if log == nil {
		log = logger.Logger
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Node{
		httpServer: &http.Server{Addr: addr, Handler: handler},
		manager:    manager,
		ctx:        ctx,
		cancel:     cancel,
		log:        log,
	}
}

func (n *Node) getState() State { return State(n.state.Load()) }
func (n *Node) setState(s State) { n.state.Store(int32(s)) }

// Run starts the HTTP listener and the tail fan-out loop, and blocks until
// the listener stops (via Shutdown or an unrecoverable listen error).
func (n *Node) Run() error {
	n.setState(StateRunning)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.manager.RunTailFanout(n.ctx)
	}()

	n.log.Infow("node listening", "address", n.httpServer.Addr)
	err := n.httpServer.ListenAndServe()
	if err != nil && errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting new connections, cancels the tail fan-out loop,
// and waits up to ShutdownTimeout for both to finish.
func (n *Node) Shutdown(ctx context.Context) error {
	n.setState(StateDraining)

	shutdownCtx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()

	err := n.httpServer.Shutdown(shutdownCtx)
	n.cancel()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(ShutdownTimeout):
		n.log.Warnw("shutdown timed out waiting for background goroutines", "timeout", ShutdownTimeout)
	}

	n.setState(StateStopped)
	return err
}
