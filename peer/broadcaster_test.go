package peer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSend_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":200,"type":"sending"}`))
	}))
	defer srv.Close()

	b := New("/primacron/broadcast", srv.Client(), nil)
	result, err := b.Send(context.Background(), srv.URL, "X", "hi")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, result.StatusCode)
}

func TestSend_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":404,"type":"unknown socket"}`))
	}))
	defer srv.Close()

	b := New("/primacron/broadcast", srv.Client(), nil)
	_, err := b.Send(context.Background(), srv.URL, "foobar", "hi")
	require.Error(t, err)

	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	require.Equal(t, http.StatusNotFound, sendErr.StatusCode)
}

func TestSend_TransportFailure(t *testing.T) {
	b := New("/primacron/broadcast", nil, nil)
	_, err := b.Send(context.Background(), "http://127.0.0.1:0", "X", "hi")
	require.Error(t, err)

	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	require.Equal(t, 0, sendErr.StatusCode)
}
