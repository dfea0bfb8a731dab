package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONRoundTrip(t *testing.T) {
	c := JSON()

	data, err := c.Encode(map[string]interface{}{"event": "foo", "args": []interface{}{"bar"}})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, c.Decode(data, &decoded))
	require.Equal(t, "foo", decoded["event"])
}

func TestJSONDecodeInvalid(t *testing.T) {
	c := JSON()
	var decoded interface{}
	err := c.Decode([]byte("{json:foo}"), &decoded)
	require.Error(t, err)
}
