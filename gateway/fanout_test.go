package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/primus/primacron/validate"
)

func TestFanout_DeliversRawToTailgators(t *testing.T) {
	received := make(chan string, 1)
	peerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var envelope map[string]interface{}
		json.NewDecoder(r.Body).Decode(&envelope)
		if msg, ok := envelope["message"].(string); ok {
			received <- msg
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer peerSrv.Close()

	m := newTestManager(t, fixedIDGen("S1"))
	req := httptest.NewRequest(http.MethodGet, "/stream/?account=foo", nil)
	c := m.Bootstrap(context.Background(), req, "foo", newFakeConn())
	c.setTail([]string{peerSrv.URL + "@peer-conn"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.RunTailFanout(ctx)

	m.pipeline.Register("foo", validate.ValidatorFunc(func(args validate.Args, done validate.Completion) {
		done(nil, true, args.Data...)
	}))
	m.HandleInbound(c, []byte(`{"event":"foo","args":["hi"]}`))

	select {
	case msg := <-received:
		require.Equal(t, `{"event":"foo","args":["hi"]}`, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("expected tail fan-out delivery to peer")
	}
}
