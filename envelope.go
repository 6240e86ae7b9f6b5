package hxbridge

import (
	"encoding/json"
	"fmt"
)

// Command separates host/surface coordination envelopes from
// component-addressed ones.
type Command string

const (
	// CommandComponentEvent carries host state to one surface instance.
	CommandComponentEvent Command = "component-event"

	// CommandComponentError carries an ErrorPayload to one surface instance.
	CommandComponentError Command = "component-error"

	// CommandUserAction carries user input from a surface instance to the host.
	CommandUserAction Command = "user-action"

	// CommandSurfaceReady is sent by the surface once its document is loaded.
	CommandSurfaceReady Command = "surface-ready"

	// CommandPanelDispose tells the surface to tear down every instance.
	CommandPanelDispose Command = "panel-dispose"

	// CommandNotice carries an in-panel Notice to the surface.
	CommandNotice Command = "notice"
)

// Message is the envelope for all host/surface traffic. It is the only
// channel between the two sides.
//
// ComponentID is empty for broadcast commands. Data holds the JSON form of
// the payload so it survives any Codec unchanged.
type Message struct {
	Command     Command         `json:"command"`
	ComponentID string          `json:"componentId,omitempty"`
	Action      Action          `json:"action,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// NewMessage builds an envelope, marshalling data to JSON.
// A nil data leaves Data empty.
func NewMessage(cmd Command, componentID string, action Action, data any) (Message, error) {
	msg := Message{Command: cmd, ComponentID: componentID, Action: action}
	if data == nil {
		return msg, nil
	}
	if raw, ok := data.(json.RawMessage); ok {
		msg.Data = raw
		return msg, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("hxbridge: marshal %s payload for %q: %w", cmd, componentID, err)
	}
	msg.Data = raw
	return msg, nil
}

// Broadcast reports whether the envelope is addressed to no component.
func (m Message) Broadcast() bool {
	return m.ComponentID == ""
}

// Decode unmarshals Data into v.
func (m Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// String is used in logs.
func (m Message) String() string {
	if m.Broadcast() {
		return string(m.Command)
	}
	return fmt.Sprintf("%s %s/%s", m.Command, m.ComponentID, m.Action)
}

// WireEncode implements encoding.Encodable.
func (m Message) WireEncode() map[string]any {
	out := map[string]any{"command": string(m.Command)}
	if m.ComponentID != "" {
		out["componentId"] = m.ComponentID
	}
	if m.Action != "" {
		out["action"] = string(m.Action)
	}
	if len(m.Data) > 0 {
		out["data"] = m.Data
	}
	return out
}

// WireDecode implements encoding.Decodable.
func (m *Message) WireDecode(data map[string]any) error {
	cmd, ok := data["command"].(string)
	if !ok || cmd == "" {
		return fmt.Errorf("%w: envelope without command", ErrInvalidFormat)
	}
	*m = Message{Command: Command(cmd)}
	if id, ok := data["componentId"].(string); ok {
		m.ComponentID = id
	}
	if action, ok := data["action"].(string); ok {
		m.Action = Action(action)
	}

	v, present := data["data"]
	switch v := v.(type) {
	case nil:
		if present {
			m.Data = json.RawMessage("null")
		}
	case []byte:
		m.Data = json.RawMessage(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("%w: envelope data: %v", ErrInvalidFormat, err)
		}
		m.Data = raw
	}
	return nil
}

// Severity grades an ErrorPayload.
type Severity string

const (
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// ErrorPayload is the data of a component-error envelope.
type ErrorPayload struct {
	Message  string         `json:"message"`
	Severity Severity       `json:"severity"`
	Context  map[string]any `json:"context,omitempty"`
}
