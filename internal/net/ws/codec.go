package ws

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/golang/snappy"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes frames in both directions of a connection. Clients pick one
// with the codec query parameter; JSON is the default.
type Codec interface {
	Name() string
	MessageType() int // websocket.TextMessage or websocket.BinaryMessage
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

const DefaultCodec = "json"

var codecs = map[string]Codec{}

func init() {
	registerCodec(jsonCodec{})
	registerCodec(msgpackCodec{})
	registerCodec(snappyCodec{})
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		panic(fmt.Sprintf("ws: zstd encoder: %v", err))
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("ws: zstd decoder: %v", err))
	}
	registerCodec(zstdCodec{enc: enc, dec: dec})
}

func registerCodec(c Codec) {
	codecs[c.Name()] = c
}

// CodecByName returns a registered codec. An empty name selects JSON.
func CodecByName(name string) (Codec, error) {
	if name == "" {
		name = DefaultCodec
	}
	c, ok := codecs[name]
	if !ok {
		return nil, fmt.Errorf("ws: unknown codec %q", name)
	}
	return c, nil
}

// CodecNames returns the registered codec names, sorted.
func CodecNames() []string {
	names := make([]string, 0, len(codecs))
	for n := range codecs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type jsonCodec struct{}

func (jsonCodec) Name() string                    { return "json" }
func (jsonCodec) MessageType() int                { return websocket.TextMessage }
func (jsonCodec) Encode(v any) ([]byte, error)    { return json.Marshal(v) }
func (jsonCodec) Decode(data []byte, v any) error { return json.Unmarshal(data, v) }

// msgpackCodec reuses the json struct tags so both codecs agree on field
// names.
type msgpackCodec struct{}

func (msgpackCodec) Name() string     { return "msgpack" }
func (msgpackCodec) MessageType() int { return websocket.BinaryMessage }

func (msgpackCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) Decode(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

// snappyCodec is JSON compressed with the snappy block format.
type snappyCodec struct{}

func (snappyCodec) Name() string     { return "snappy" }
func (snappyCodec) MessageType() int { return websocket.BinaryMessage }

func (snappyCodec) Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, raw), nil
}

func (snappyCodec) Decode(data []byte, v any) error {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// zstdCodec is JSON compressed with zstd. EncodeAll and DecodeAll are safe
// for concurrent use, so one encoder and decoder serve every connection.
type zstdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func (zstdCodec) Name() string     { return "zstd" }
func (zstdCodec) MessageType() int { return websocket.BinaryMessage }

func (c zstdCodec) Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return c.enc.EncodeAll(raw, nil), nil
}

func (c zstdCodec) Decode(data []byte, v any) error {
	raw, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
