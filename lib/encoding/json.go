package encoding

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSONCodec writes frames as plain JSON objects. Numbers decode as
// json.Number so integers survive the round trip.
type JSONCodec struct{}

var _ Codec = JSONCodec{}

// Encode marshals the wire map of v.
func (JSONCodec) Encode(v Encodable) ([]byte, error) {
	return json.Marshal(v.WireEncode())
}

// Decode unmarshals frame into a map and hands it to v.
func (JSONCodec) Decode(frame []byte, v Decodable) error {
	dec := json.NewDecoder(bytes.NewReader(frame))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return ErrInvalidFormat
	}
	return v.WireDecode(data)
}

// New returns the codec named by mode: "json", "signed" or "sealed".
func New(mode string, key []byte) (Codec, error) {
	switch mode {
	case "", "json":
		return JSONCodec{}, nil
	case ModeSigned.String():
		return NewEncoder(key, ModeSigned)
	case ModeSealed.String():
		return NewEncoder(key, ModeSealed)
	default:
		return nil, &UnknownModeError{Mode: mode}
	}
}

// UnknownModeError reports a codec name New does not recognise.
type UnknownModeError struct {
	Mode string
}

func (e *UnknownModeError) Error() string {
	return fmt.Sprintf("unknown codec mode %q", e.Mode)
}
