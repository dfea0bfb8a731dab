// Package codec defines the pluggable payload encoding seam the gateway's
// core depends on but does not implement a specific wire format for.
package codec

import "encoding/json"

// Codec encodes and decodes application payloads carried over the realtime
// transport and the peer broadcast protocol. The core only depends on this
// interface; the concrete format (JSON, msgpack, ...) is an external
// collaborator passed to the gateway's constructors. JSON is the only
// implementation here, and gateway.New always wires it: the "encode"/"decode"
// configuration options are loaded but do not select a codec.
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte, v interface{}) error
}

// JSON returns the default codec, backed by encoding/json.
func JSON() Codec { return jsonCodec{} }

type jsonCodec struct{}

func (jsonCodec) Encode(v interface{}) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Decode(data []byte, v interface{}) error { return json.Unmarshal(data, v) }
