// Package api defines the splitledger.v1 RPC surface: request and response
// messages, Connect handler constructors, and typed clients.
//
// Messages are plain Go structs carried as JSON. Handlers and clients install
// Codec automatically, so callers only pass their own options.
package api

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// Codec marshals messages as JSON. It is registered under the "json" name,
// replacing Connect's protobuf JSON codec for these services.
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (Codec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
}
