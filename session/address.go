package session

import (
	"strings"

	"github.com/primus/primacron/errors"
)

// Address identifies one connection cluster-wide: the node that owns it and
// the connection id opaque to every other node.
type Address struct {
	NodeURL string
	ConnID  string
}

// String renders the address in its directory-stored form, "nodeURL@connId".
func (a Address) String() string {
	return a.NodeURL + "@" + a.ConnID
}

// IsZero reports whether a is the empty address.
func (a Address) IsZero() bool {
	return a.NodeURL == "" && a.ConnID == ""
}

// ParseAddress splits a directory value on the first "@": everything before
// is the node URL for peer HTTP, everything after is the opaque connection
// id. Splitting on the first "@" keeps any later "@" inside the connection
// id; a node URL that itself contains "@" (userinfo) is cut at that "@".
func ParseAddress(value string) (Address, error) {
	idx := strings.IndexByte(value, '@')
	if idx < 0 {
		return Address{}, errors.Newf("malformed session address %q: missing '@'", value)
	}
	return Address{
		NodeURL: value[:idx],
		ConnID:  value[idx+1:],
	}, nil
}
