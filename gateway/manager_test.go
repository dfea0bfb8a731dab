package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/primus/primacron/codec"
	"github.com/primus/primacron/directory"
	"github.com/primus/primacron/peer"
	"github.com/primus/primacron/session"
	"github.com/primus/primacron/validate"
)

type fakeConn struct {
	written chan []byte
}

func newFakeConn() *fakeConn { return &fakeConn{written: make(chan []byte, 16)} }

func (f *fakeConn) ReadMessage() (int, []byte, error)   { select {} }
func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.written <- data
	return nil
}
func (f *fakeConn) Close() error                         { return nil }
func (f *fakeConn) SetReadDeadline(time.Time) error       { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error      { return nil }
func (f *fakeConn) SetReadLimit(int64)                    {}
func (f *fakeConn) SetPongHandler(func(string) error)     {}
func (f *fakeConn) RemoteAddr() string                    { return "fake" }

func fixedIDGen(id string) IDGenerator {
	return func(r *http.Request) string { return id }
}

func newTestManager(t *testing.T, idGen IDGenerator) *Manager {
	t.Helper()
	dirClient := directory.NewMemoryClient()
	sessionDir := session.New(dirClient, "ns", 900*time.Second, nil)
	pipeline := validate.New(nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	broadcaster := peer.New("/primacron/broadcast", srv.Client(), nil)

	return NewManager(sessionDir, pipeline, broadcaster, codec.JSON(), "http://localhost", idGen, nil)
}

func TestBootstrap_RegistersAndEmptyTail(t *testing.T) {
	m := newTestManager(t, fixedIDGen("S1"))
	req := httptest.NewRequest(http.MethodGet, "/stream/?account=foo", nil)

	c := m.Bootstrap(context.Background(), req, "foo", newFakeConn())

	require.Empty(t, c.Tail())

	addr, ok, err := m.directory.Lookup(context.Background(), "foo", "S1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "http://localhost", addr.NodeURL)
	require.Equal(t, c.ID, addr.ConnID)
}

func TestBootstrap_PicksUpExistingTailgators(t *testing.T) {
	m := newTestManager(t, fixedIDGen("S2"))
	require.NoError(t, m.directory.AddTailgator(context.Background(), "foo", "S2", "http://localhost@momoa"))

	req := httptest.NewRequest(http.MethodGet, "/stream/?account=foo", nil)
	c := m.Bootstrap(context.Background(), req, "foo", newFakeConn())

	require.Equal(t, []string{"http://localhost@momoa"}, c.Tail())
}

func TestClose_RemovesSessionEntry(t *testing.T) {
	m := newTestManager(t, fixedIDGen("S1"))
	req := httptest.NewRequest(http.MethodGet, "/stream/?account=foo", nil)
	c := m.Bootstrap(context.Background(), req, "foo", newFakeConn())

	m.Close(context.Background(), c)

	_, ok, err := m.directory.Lookup(context.Background(), "foo", "S1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDispatch_StringDeliversRaw(t *testing.T) {
	m := newTestManager(t, fixedIDGen("S1"))
	req := httptest.NewRequest(http.MethodGet, "/stream/?account=foo", nil)
	conn := newFakeConn()
	c := m.Bootstrap(context.Background(), req, "foo", conn)
	go (&Connector{manager: m, log: m.log}).writePump(c)

	found := m.Dispatch(c.ID, "hi")
	require.True(t, found)

	select {
	case payload := <-conn.written:
		require.Equal(t, "hi", string(payload))
	case <-time.After(time.Second):
		t.Fatal("expected a write")
	}
}

func TestDispatch_UnknownConnection(t *testing.T) {
	m := newTestManager(t, fixedIDGen("S1"))
	require.False(t, m.Dispatch("nobody", "hi"))
}

func TestDispatch_ArrayGrowsTail(t *testing.T) {
	m := newTestManager(t, fixedIDGen("S1"))
	req := httptest.NewRequest(http.MethodGet, "/stream/?account=foo", nil)
	c := m.Bootstrap(context.Background(), req, "foo", newFakeConn())

	found := m.Dispatch(c.ID, []interface{}{"http://localhost@momoa"})
	require.True(t, found)
	require.Equal(t, []string{"http://localhost@momoa"}, c.Tail())
}

func TestHandleInbound_EventShaped(t *testing.T) {
	m := newTestManager(t, fixedIDGen("S1"))
	req := httptest.NewRequest(http.MethodGet, "/stream/?account=foo", nil)
	c := m.Bootstrap(context.Background(), req, "foo", newFakeConn())

	m.pipeline.Register("foo", validate.ValidatorFunc(func(args validate.Args, done validate.Completion) {
		done(nil, true, args.Data...)
	}))

	m.HandleInbound(c, []byte(`{"event":"foo","args":["bar"]}`))

	select {
	case ev := <-m.pipeline.Stream():
		require.Equal(t, "foo", ev.Event)
		require.Equal(t, []interface{}{"bar"}, ev.Data)
	case <-time.After(time.Second):
		t.Fatal("expected a stream event")
	}
}

func TestHandleInbound_DecodeFailure(t *testing.T) {
	m := newTestManager(t, fixedIDGen("S1"))
	req := httptest.NewRequest(http.MethodGet, "/stream/?account=foo", nil)
	c := m.Bootstrap(context.Background(), req, "foo", newFakeConn())

	m.HandleInbound(c, []byte(`not json`))

	select {
	case ev := <-m.pipeline.Errors():
		require.Equal(t, "not json", ev.Raw)
	case <-time.After(time.Second):
		t.Fatal("expected an error event")
	}
}
