package hxbridge

import (
	"errors"
	"fmt"

	"github.com/pthm/hxbridge/lib/encoding"
)

// Codec is an alias for encoding.Codec for convenience.
type Codec = encoding.Codec

// NewCodec returns the frame codec named by mode ("json", "signed",
// "sealed"). Signed and sealed codecs need the same key on both sides.
func NewCodec(mode string, key []byte) (Codec, error) {
	codec, err := encoding.New(mode, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return codec, nil
}

// EncodeMessage turns an envelope into a transport frame.
func EncodeMessage(codec Codec, msg Message) ([]byte, error) {
	return codec.Encode(msg)
}

// DecodeMessage turns a transport frame back into an envelope. Codec
// errors are mapped onto the hxbridge sentinels.
func DecodeMessage(codec Codec, frame []byte) (Message, error) {
	var msg Message
	if err := codec.Decode(frame, &msg); err != nil {
		return Message{}, wrapEncodingError(err)
	}
	return msg, nil
}

// wrapEncodingError wraps encoding package errors with hxbridge sentinel errors.
func wrapEncodingError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, encoding.ErrInvalidFormat) {
		return ErrInvalidFormat
	}
	if errors.Is(err, encoding.ErrSignatureInvalid) {
		return ErrSignatureInvalid
	}
	if errors.Is(err, encoding.ErrDecryptFailed) {
		return ErrDecryptFailed
	}
	return err
}
