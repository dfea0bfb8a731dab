package gateway

import (
	"crypto/rand"
	"net/http"

	"github.com/google/uuid"
)

// IDGenerator produces a session id from the pre-upgrade HTTP request.
type IDGenerator func(r *http.Request) string

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomBlock(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the OS entropy source is broken; there
		// is no sane fallback. Rather than panic in a hot connection path,
		// the block degrades to a fixed pattern, so such ids are not unique.
		for i := range buf {
			buf[i] = byte(i)
		}
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(out)
}

// DefaultIDGenerator produces four random alphanumeric blocks joined by
// "-", ignoring the request entirely. It is the default Session Bootstrap
// generator; callers needing to derive the session id from request state
// (e.g. a resumption token in a query parameter) supply their own
// IDGenerator instead.
func DefaultIDGenerator(r *http.Request) string {
	return randomBlock(4) + "-" + randomBlock(4) + "-" + randomBlock(4) + "-" + randomBlock(4)
}

// randomConnID assigns the opaque, node-local connection id. Its format is
// unconstrained by the directory protocol (unlike the session id), so it
// uses a plain UUID rather than the session generator's block format.
func randomConnID() string {
	return uuid.NewString()
}
