package peer

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/primus/primacron/codec"
	"github.com/primus/primacron/validate"
)

type fakeRouter struct {
	known map[string]interface{}
}

func (f *fakeRouter) Dispatch(connID string, message interface{}) bool {
	_, found := f.known[connID]
	if found {
		f.known[connID] = message
	}
	return found
}

func TestInboundHandler_Success(t *testing.T) {
	router := &fakeRouter{known: map[string]interface{}{"X": nil}}
	h := NewHandler(router, codec.JSON(), nil, "primacron/dev", nil)

	body, _ := json.Marshal(map[string]interface{}{"id": "X", "message": "hi"})
	req := httptest.NewRequest(http.MethodPut, "/primacron/broadcast", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "primacron/dev", rec.Header().Get("X-Powered-By"))
	require.Equal(t, "hi", router.known["X"])

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	require.Equal(t, "sending", decoded["type"])
}

func TestInboundHandler_UnknownSocket(t *testing.T) {
	router := &fakeRouter{known: map[string]interface{}{}}
	pipeline := validate.New(nil)
	h := NewHandler(router, codec.JSON(), pipeline, "primacron/dev", nil)

	body, _ := json.Marshal(map[string]interface{}{"id": "foobar", "message": "hi"})
	req := httptest.NewRequest(http.MethodPut, "/primacron/broadcast", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	select {
	case <-pipeline.Errors():
		t.Fatal("no error event should be emitted for an unknown socket")
	default:
	}
}

func TestInboundHandler_Invalid(t *testing.T) {
	router := &fakeRouter{known: map[string]interface{}{}}
	pipeline := validate.New(nil)
	h := NewHandler(router, codec.JSON(), pipeline, "primacron/dev", nil)

	req := httptest.NewRequest(http.MethodPut, "/primacron/broadcast", bytes.NewReader([]byte(`{json:foo}`)))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	select {
	case ev := <-pipeline.Errors():
		require.Equal(t, `{json:foo}`, ev.Raw)
	default:
		t.Fatal("expected an error::invalid event")
	}
}
