package peer

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/primus/primacron/codec"
	"github.com/primus/primacron/errors"
	"github.com/primus/primacron/logger"
	"github.com/primus/primacron/validate"
)

// ConnectionRouter dispatches an inbound broadcast message to a local
// connection by id. found reports whether that connection id is currently
// attached to this node; it is implemented by the gateway's Connection
// Manager and passed in here to avoid an import cycle.
type ConnectionRouter interface {
	Dispatch(connID string, message interface{}) (found bool)
}

type cannedResponse struct {
	status int
	body   []byte
}

func newCannedResponse(status int, kind, description string) cannedResponse {
	body, err := json.Marshal(map[string]interface{}{
		"status":      status,
		"type":        kind,
		"description": description,
	})
	if err != nil {
		panic("peer: canned response must marshal: " + err.Error())
	}
	return cannedResponse{status: status, body: body}
}

// Handler implements the Inbound Broadcast Handler: the HTTP PUT endpoint
// one node exposes for every other node's Peer Broadcaster to deliver
// through.
type Handler struct {
	router    ConnectionRouter
	codec     codec.Codec
	pipeline  *validate.Pipeline
	poweredBy string
	log       *zap.SugaredLogger

	respBroken  cannedResponse
	respInvalid cannedResponse
	respUnknown cannedResponse
	respSending cannedResponse
}

// NewHandler builds a Handler dispatching decoded messages to router,
// decoding bodies with c, and reporting decode/shape failures on pipeline.
// poweredBy is the literal value of the X-Powered-By header on every
// response this handler writes.
func NewHandler(router ConnectionRouter, c codec.Codec, pipeline *validate.Pipeline, poweredBy string, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = logger.Logger
	}
	return &Handler{
		router:      router,
		codec:       c,
		pipeline:    pipeline,
		poweredBy:   poweredBy,
		log:         log,
		respBroken:  newCannedResponse(http.StatusBadRequest, "broken", "request body failed to decode"),
		respInvalid: newCannedResponse(http.StatusBadRequest, "invalid", "request body was not a {id, message} object"),
		respUnknown: newCannedResponse(http.StatusNotFound, "unknown socket", "no local connection with that id"),
		respSending: newCannedResponse(http.StatusOK, "sending", "message dispatched to local connection"),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Powered-By", h.poweredBy)

	if r.Method != http.MethodPut {
		h.write(w, h.respInvalid)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Warnw("failed reading broadcast body", "error", err)
		h.emitInvalid(errors.KindCodec, string(raw), err)
		h.write(w, h.respBroken)
		return
	}

	var decoded interface{}
	if err := h.codec.Decode(raw, &decoded); err != nil {
		h.emitInvalid(errors.KindCodec, string(raw), err)
		h.write(w, h.respBroken)
		return
	}

	obj, ok := decoded.(map[string]interface{})
	if !ok {
		h.emitInvalid(errors.KindShape, string(raw), errors.Newf("broadcast body root must be a JSON object"))
		h.write(w, h.respInvalid)
		return
	}

	idValue, hasID := obj["id"]
	message, hasMessage := obj["message"]
	if !hasID || !hasMessage {
		h.emitInvalid(errors.KindShape, string(raw), errors.Newf("broadcast body missing required id/message keys"))
		h.write(w, h.respInvalid)
		return
	}

	connID, ok := idValue.(string)
	if !ok {
		h.emitInvalid(errors.KindShape, string(raw), errors.Newf("broadcast id must be a string"))
		h.write(w, h.respInvalid)
		return
	}

	if found := h.router.Dispatch(connID, message); !found {
		// No error event: a migrated session producing a 404 here is the
		// common case, not a failure.
		h.write(w, h.respUnknown)
		return
	}

	h.write(w, h.respSending)
}

func (h *Handler) emitInvalid(kind errors.Kind, raw string, err error) {
	if h.pipeline == nil {
		return
	}
	h.pipeline.EmitError(kind, "", raw, nil, err)
}

func (h *Handler) write(w http.ResponseWriter, resp cannedResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	w.Write(resp.body)
}
