package gateway

import (
	"context"

	"github.com/primus/primacron/logger"
	"github.com/primus/primacron/session"
	"github.com/primus/primacron/validate"
)

// RunTailFanout consumes the validation pipeline's stream channel and, for
// every validated event, delivers the originating connection's raw payload
// to each of its tailgators via Peer Broadcaster (§4.8). It blocks until ctx
// is cancelled or the stream channel closes, and is meant to run in its own
// goroutine for the lifetime of a Node.
func (m *Manager) RunTailFanout(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-m.pipeline.Stream():
			if !ok {
				return
			}
			m.fanoutOne(ctx, ev)
		}
	}
}

func (m *Manager) fanoutOne(ctx context.Context, ev validate.StreamEvent) {
	user, ok := ev.User.(User)
	if !ok {
		return
	}

	c, ok := m.byConnID(user.ID)
	if !ok {
		return
	}

	for _, addr := range c.Tail() {
		if addr == "" {
			continue
		}
		peerAddr, err := session.ParseAddress(addr)
		if err != nil {
			m.log.Warnw("malformed tailgator address, dropping",
				logger.FieldConnectionID, user.ID, "tailgator_address", addr, logger.FieldError, err)
			continue
		}

		if _, err := m.broadcaster.Send(ctx, peerAddr.NodeURL, peerAddr.ConnID, ev.Raw); err != nil {
			m.log.Warnw("tail fan-out delivery failed",
				logger.FieldConnectionID, user.ID, logger.FieldPeerURL, peerAddr.NodeURL, logger.FieldError, err)
		}
	}
}
