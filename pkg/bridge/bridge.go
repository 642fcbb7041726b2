// Package bridge converts gram values to and from the representations the
// CLI and HTTP API exchange with other programs: JSON documents, msgpack
// documents and raw gram bytes.
package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/TheGoldLab/mxgram/pkg/gram"
	"github.com/vmihailenco/msgpack/v5"
)

// Encoder converts between a value and one byte representation
type Encoder interface {
	Name() string
	ContentType() string
	Encode(v gram.Value) ([]byte, error)
	Decode(data []byte) (gram.Value, error)
}

// JSON carries values as Document JSON, indented unless Compact is set
type JSON struct {
	Stringifier gram.Stringifier
	Compact     bool
}

func (JSON) Name() string        { return "json" }
func (JSON) ContentType() string { return "application/json" }

func (e JSON) Encode(v gram.Value) ([]byte, error) {
	doc, err := ToDocument(v, e.Stringifier)
	if err != nil {
		return nil, err
	}
	if e.Compact {
		return json.Marshal(doc)
	}
	return json.MarshalIndent(doc, "", "  ")
}

func (e JSON) Decode(data []byte) (gram.Value, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return FromDocument(&doc, e.Stringifier)
}

// Msgpack carries values as msgpack encoded Documents
type Msgpack struct {
	Stringifier gram.Stringifier
}

func (Msgpack) Name() string        { return "msgpack" }
func (Msgpack) ContentType() string { return "application/msgpack" }

func (e Msgpack) Encode(v gram.Value) ([]byte, error) {
	doc, err := ToDocument(v, e.Stringifier)
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(doc)
}

func (e Msgpack) Decode(data []byte) (gram.Value, error) {
	var doc Document
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return FromDocument(&doc, e.Stringifier)
}

// Gram carries values in the gram wire format itself
type Gram struct {
	Codec *gram.Codec
}

func (Gram) Name() string        { return "gram" }
func (Gram) ContentType() string { return "application/octet-stream" }

func (e Gram) Encode(v gram.Value) ([]byte, error) { return e.codec().Marshal(v) }

func (e Gram) Decode(data []byte) (gram.Value, error) { return e.codec().Unmarshal(data) }

func (e Gram) codec() *gram.Codec {
	if e.Codec == nil {
		return gram.Default
	}
	return e.Codec
}

// Lookup returns the encoder registered under name, sharing the codec's
// callable policy.
func Lookup(name string, codec *gram.Codec) (Encoder, error) {
	s := stringifierOf(codec)
	switch name {
	case "json":
		return JSON{Stringifier: s}, nil
	case "msgpack":
		return Msgpack{Stringifier: s}, nil
	case "gram":
		return Gram{Codec: codec}, nil
	}
	return nil, fmt.Errorf("bridge: unknown format %q (known: %v)", name, Names())
}

// Names lists the registered encoder names
func Names() []string {
	return []string{"gram", "json", "msgpack"}
}

func stringifierOf(codec *gram.Codec) gram.Stringifier {
	if codec == nil {
		return gram.SourceStringifier{}
	}
	return codec.Stringifier()
}
