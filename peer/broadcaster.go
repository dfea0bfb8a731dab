// Package peer implements node-to-node message delivery: the outbound
// Peer Broadcaster that issues an HTTP PUT to another node's broadcast
// endpoint, and the inbound handler that other nodes' PUTs land on.
package peer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/primus/primacron/errors"
	"github.com/primus/primacron/logger"
)

// Envelope is the inter-node broadcast wire format: exactly two required
// keys, id naming the target connection on the receiving node and message
// carrying an arbitrary JSON value.
type Envelope struct {
	ID      string      `json:"id"`
	Message interface{} `json:"message"`
}

// Result is the outcome of a successful (HTTP 200) Send.
type Result struct {
	StatusCode int
	Body       []byte
}

// SendError describes a non-200 response or a transport failure. A zero
// StatusCode means the request never reached the peer (DNS, connect,
// timeout).
type SendError struct {
	StatusCode int
	Body       []byte
	Cause      error
}

func (e *SendError) Error() string {
	if e.StatusCode == 0 {
		return "peer broadcast transport failure: " + e.Cause.Error()
	}
	return "peer broadcast rejected with status " + http.StatusText(e.StatusCode)
}

func (e *SendError) Unwrap() error { return e.Cause }

// Broadcaster performs node-to-node delivery over HTTP PUT. No retries are
// attempted at this layer; callers decide whether a failed Send should be
// retried or surfaced.
type Broadcaster struct {
	client *http.Client
	path   string
	log    *zap.SugaredLogger
}

// New builds a Broadcaster that PUTs to path (e.g. "/primacron/broadcast")
// on whatever peer URL Send is called with, using client (or a default
// client with a 10s timeout if nil).
func New(path string, client *http.Client, log *zap.SugaredLogger) *Broadcaster {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = logger.Logger
	}
	return &Broadcaster{client: client, path: path, log: log}
}

// Send PUTs {"id": connID, "message": message} to peerURL+path. A 200
// response yields a Result; any other status or a transport failure yields
// a *SendError.
func (b *Broadcaster) Send(ctx context.Context, peerURL, connID string, message interface{}) (*Result, error) {
	body, err := json.Marshal(Envelope{ID: connID, Message: message})
	if err != nil {
		return nil, errors.WithKind(errors.Wrap(err, "encode broadcast envelope"), errors.KindCodec)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, peerURL+b.path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.WithKind(errors.Wrap(err, "build broadcast request"), errors.KindPeerDelivery)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, errors.WithKind(&SendError{Cause: err}, errors.KindPeerDelivery)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		b.log.Warnw("peer broadcast rejected", "peer_url", peerURL, "connection_id", connID, "status", resp.StatusCode)
		return nil, errors.WithKind(&SendError{StatusCode: resp.StatusCode, Body: respBody}, errors.KindPeerDelivery)
	}

	return &Result{StatusCode: resp.StatusCode, Body: respBody}, nil
}
