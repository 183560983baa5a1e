package transport

import (
	"encoding/json"
	"fmt"
	"mime"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes request bodies and decodes response bodies.
type Codec interface {
	Name() string
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type jsonCodec struct{}

func (jsonCodec) Name() string                       { return "json" }
func (jsonCodec) ContentType() string                { return "application/json" }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

type msgpackCodec struct{}

func (msgpackCodec) Name() string                       { return "msgpack" }
func (msgpackCodec) ContentType() string                { return "application/msgpack" }
func (msgpackCodec) Marshal(v any) ([]byte, error)      { return msgpack.Marshal(v) }
func (msgpackCodec) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }

// Built-in codecs.
var (
	JSON    Codec = jsonCodec{}
	MsgPack Codec = msgpackCodec{}
)

// CodecByName returns the codec registered under name ("json" or
// "msgpack").
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSON, nil
	case "msgpack":
		return MsgPack, nil
	}
	return nil, fmt.Errorf("transport: unknown codec %q", name)
}

// codecForContentType picks a decoder for a response Content-Type, or nil
// when the body should be kept as text.
func codecForContentType(ct string) Codec {
	media, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return nil
	}
	switch {
	case media == "application/json" || strings.HasSuffix(media, "+json"):
		return JSON
	case media == "application/msgpack" || media == "application/x-msgpack":
		return MsgPack
	}
	return nil
}
