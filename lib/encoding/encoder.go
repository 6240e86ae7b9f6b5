package encoding

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Errors returned while decoding frames.
var (
	ErrInvalidFormat    = errors.New("invalid frame format")
	ErrSignatureInvalid = errors.New("signature verification failed")
	ErrDecryptFailed    = errors.New("frame decryption failed")
)

// Mode selects how an Encoder protects frames.
type Mode uint8

const (
	// ModeSigned packs with msgpack and appends a truncated HMAC-SHA256.
	// Frames are readable by anyone but tamper-evident.
	ModeSigned Mode = iota + 1

	// ModeSealed packs with msgpack and seals with AES-256-GCM.
	ModeSealed
)

// String returns the mode name used in configuration.
func (m Mode) String() string {
	switch m {
	case ModeSigned:
		return "signed"
	case ModeSealed:
		return "sealed"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

const macSize = 16

// frame tags; the first byte of every frame identifies its mode.
const (
	tagSigned byte = 's'
	tagSealed byte = 'x'
)

// Encodable is implemented by types that flatten themselves to a map for
// the wire.
type Encodable interface {
	WireEncode() map[string]any
}

// Decodable is implemented by types that rebuild themselves from a wire
// map.
type Decodable interface {
	WireDecode(map[string]any) error
}

// Codec turns values into transport frames and back.
type Codec interface {
	Encode(v Encodable) ([]byte, error)
	Decode(frame []byte, v Decodable) error
}

// Encoder is the msgpack Codec. Both peers must share the key.
type Encoder struct {
	key  []byte
	gcm  cipher.AEAD
	mode Mode
}

var _ Codec = (*Encoder)(nil)

// NewEncoder creates an encoder for the given key and mode.
// Keys shorter than 32 bytes are stretched with SHA-256.
func NewEncoder(key []byte, mode Mode) (*Encoder, error) {
	if mode != ModeSigned && mode != ModeSealed {
		return nil, fmt.Errorf("unknown encoder mode %d", mode)
	}
	if len(key) < 32 {
		h := sha256.Sum256(key)
		key = h[:]
	}

	block, err := aes.NewCipher(key[:32])
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Encoder{
		key:  key,
		gcm:  gcm,
		mode: mode,
	}, nil
}

// Mode returns the protection mode of the encoder.
func (e *Encoder) Mode() Mode {
	return e.mode
}

// Encode packs v and protects it according to the encoder mode.
func (e *Encoder) Encode(v Encodable) ([]byte, error) {
	packed, err := msgpack.Marshal(v.WireEncode())
	if err != nil {
		return nil, err
	}

	if e.mode == ModeSealed {
		return e.seal(packed)
	}
	return e.sign(packed), nil
}

// Decode verifies or opens frame and hands the unpacked map to v.
// Frames in the other mode are rejected with ErrInvalidFormat.
func (e *Encoder) Decode(frame []byte, v Decodable) error {
	if len(frame) == 0 {
		return ErrInvalidFormat
	}

	var packed []byte
	var err error
	switch {
	case frame[0] == tagSigned && e.mode == ModeSigned:
		packed, err = e.verify(frame[1:])
	case frame[0] == tagSealed && e.mode == ModeSealed:
		packed, err = e.open(frame[1:])
	default:
		return ErrInvalidFormat
	}
	if err != nil {
		return err
	}

	var data map[string]any
	if err := msgpack.Unmarshal(packed, &data); err != nil {
		return ErrInvalidFormat
	}
	return v.WireDecode(data)
}

// sign produces tag || payload || mac.
func (e *Encoder) sign(data []byte) []byte {
	mac := hmac.New(sha256.New, e.key)
	mac.Write(data)

	out := make([]byte, 0, 1+len(data)+macSize)
	out = append(out, tagSigned)
	out = append(out, data...)
	return append(out, mac.Sum(nil)[:macSize]...)
}

func (e *Encoder) verify(body []byte) ([]byte, error) {
	if len(body) < macSize {
		return nil, ErrInvalidFormat
	}
	data, sig := body[:len(body)-macSize], body[len(body)-macSize:]

	mac := hmac.New(sha256.New, e.key)
	mac.Write(data)
	if !hmac.Equal(sig, mac.Sum(nil)[:macSize]) {
		return nil, ErrSignatureInvalid
	}
	return data, nil
}

// seal produces tag || nonce || ciphertext.
func (e *Encoder) seal(data []byte) ([]byte, error) {
	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, 1+len(nonce)+len(data)+e.gcm.Overhead())
	out = append(out, tagSealed)
	out = append(out, nonce...)
	return e.gcm.Seal(out, nonce, data, nil), nil
}

func (e *Encoder) open(body []byte) ([]byte, error) {
	if len(body) < e.gcm.NonceSize() {
		return nil, ErrInvalidFormat
	}
	nonce, ciphertext := body[:e.gcm.NonceSize()], body[e.gcm.NonceSize():]

	plain, err := e.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plain, nil
}
