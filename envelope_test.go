package hxbridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage(CommandComponentEvent, "t1", ActionComponentUpdate, []int{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if string(msg.Data) != "[1,2]" {
		t.Errorf("Data = %s", msg.Data)
	}

	raw := json.RawMessage(`{"a":1}`)
	msg, _ = NewMessage(CommandComponentEvent, "t1", ActionSetData, raw)
	if !bytes.Equal(msg.Data, raw) {
		t.Errorf("raw Data = %s, want passthrough", msg.Data)
	}

	msg, _ = NewMessage(CommandPanelDispose, "", "", nil)
	if !msg.Broadcast() || msg.Data != nil {
		t.Errorf("broadcast = %+v", msg)
	}
	if msg.String() != "panel-dispose" {
		t.Errorf("String() = %q", msg.String())
	}

	if _, err := NewMessage(CommandComponentEvent, "t1", ActionComponentUpdate, make(chan int)); err == nil {
		t.Error("NewMessage(chan) should fail")
	}
}

func TestMessageString(t *testing.T) {
	msg := Message{Command: CommandUserAction, ComponentID: "src", Action: "selectionChanged"}
	if got := msg.String(); got != "user-action src/selectionChanged" {
		t.Errorf("String() = %q", got)
	}
}

// A payload must reach the surface exactly as the host serialized it,
// whatever codec carries the frame.
func TestCodecsPreservePayload(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	payload := map[string]any{
		"rows":  []any{map[string]any{"a": 1}, map[string]any{"a": 2.5}},
		"empty": []any{},
		"name":  "ünïcode <tag>",
	}
	msg, err := NewMessage(CommandComponentEvent, "t1", ActionComponentUpdate, payload)
	if err != nil {
		t.Fatal(err)
	}

	for _, mode := range []string{"json", "signed", "sealed"} {
		t.Run(mode, func(t *testing.T) {
			codec, err := NewCodec(mode, key)
			if err != nil {
				t.Fatalf("NewCodec() error = %v", err)
			}
			frame, err := EncodeMessage(codec, msg)
			if err != nil {
				t.Fatalf("EncodeMessage() error = %v", err)
			}
			got, err := DecodeMessage(codec, frame)
			if err != nil {
				t.Fatalf("DecodeMessage() error = %v", err)
			}
			if got.Command != msg.Command || got.ComponentID != msg.ComponentID || got.Action != msg.Action {
				t.Errorf("header = %s, want %s", got, msg)
			}
			var want, have any
			_ = json.Unmarshal(msg.Data, &want)
			if err := json.Unmarshal(got.Data, &have); err != nil {
				t.Fatalf("decoded data not JSON: %v", err)
			}
			wb, _ := json.Marshal(want)
			hb, _ := json.Marshal(have)
			if !bytes.Equal(wb, hb) {
				t.Errorf("Data = %s, want %s", hb, wb)
			}
		})
	}
}

func TestCodecsPreserveNullPayload(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	msg, err := NewMessage(CommandComponentEvent, "t1", ActionComponentUpdate, []int(nil))
	if err != nil {
		t.Fatal(err)
	}
	if string(msg.Data) != "null" {
		t.Fatalf("Data = %q, want null", msg.Data)
	}

	for _, mode := range []string{"json", "signed", "sealed"} {
		t.Run(mode, func(t *testing.T) {
			codec, err := NewCodec(mode, key)
			if err != nil {
				t.Fatalf("NewCodec() error = %v", err)
			}
			frame, err := EncodeMessage(codec, msg)
			if err != nil {
				t.Fatalf("EncodeMessage() error = %v", err)
			}
			got, err := DecodeMessage(codec, frame)
			if err != nil {
				t.Fatalf("DecodeMessage() error = %v", err)
			}
			if string(got.Data) != "null" {
				t.Errorf("Data = %q, want null", got.Data)
			}
			var rows []int
			if err := json.Unmarshal(got.Data, &rows); err != nil || rows != nil {
				t.Errorf("Unmarshal = %v, %v; want nil, nil", rows, err)
			}
		})
	}

	// A broadcast has no data key at all and must stay empty.
	codec, _ := NewCodec("json", nil)
	frame, err := EncodeMessage(codec, Message{Command: CommandPanelDispose})
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeMessage(codec, frame)
	if err != nil {
		t.Fatal(err)
	}
	if got.Data != nil {
		t.Errorf("broadcast Data = %q, want none", got.Data)
	}
}

func TestDecodeMessageErrors(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	signed, _ := NewCodec("signed", key)
	sealed, _ := NewCodec("sealed", key)
	msg := Message{Command: CommandSurfaceReady}

	frame, err := EncodeMessage(signed, msg)
	if err != nil {
		t.Fatal(err)
	}
	frame[len(frame)-1] ^= 0xff
	if _, err := DecodeMessage(signed, frame); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("tampered signed frame error = %v, want ErrSignatureInvalid", err)
	}

	frame, _ = EncodeMessage(sealed, msg)
	frame[len(frame)-1] ^= 0xff
	if _, err := DecodeMessage(sealed, frame); !errors.Is(err, ErrDecryptFailed) {
		t.Errorf("tampered sealed frame error = %v, want ErrDecryptFailed", err)
	}

	if _, err := DecodeMessage(signed, []byte("garbage")); !IsDecodeError(err) {
		t.Errorf("garbage error = %v, want decode error", err)
	}
}

func TestNewCodecUnknownMode(t *testing.T) {
	if _, err := NewCodec("rot13", nil); !IsConfigError(err) {
		t.Errorf("NewCodec(rot13) error = %v, want ErrInvalidConfig", err)
	}
}

func TestWireDecodeRequiresCommand(t *testing.T) {
	var m Message
	if err := m.WireDecode(map[string]any{"componentId": "x"}); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("WireDecode() error = %v, want ErrInvalidFormat", err)
	}
}
