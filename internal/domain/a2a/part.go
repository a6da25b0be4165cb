package a2a

import (
	"encoding/json"
	"fmt"
)

// PartKind discriminates the closed set of message part variants.
type PartKind string

const (
	PartKindText PartKind = "text"
	PartKindFile PartKind = "file"
	PartKindData PartKind = "data"
)

// Part is a message content fragment. The set of implementations is closed:
// TextPart, FilePart, and DataPart.
type Part interface {
	Kind() PartKind
}

// TextPart carries plain text content.
type TextPart struct {
	Text string `json:"text"`
}

// Kind returns PartKindText.
func (TextPart) Kind() PartKind { return PartKindText }

// FilePart references a file by name and either inline bytes or a URI.
type FilePart struct {
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Bytes    string `json:"bytes,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// Kind returns PartKindFile.
func (FilePart) Kind() PartKind { return PartKindFile }

// DataPart carries structured data.
type DataPart struct {
	Data     map[string]any `json:"data"`
	MimeType string         `json:"mimeType,omitempty"`
}

// Kind returns PartKindData.
func (DataPart) Kind() PartKind { return PartKindData }

// partEnvelope is the wire form of a part: the variant fields flattened
// alongside the "kind" discriminant.
type partEnvelope struct {
	Kind     PartKind       `json:"kind"`
	Text     string         `json:"text,omitempty"`
	Name     string         `json:"name,omitempty"`
	MimeType string         `json:"mimeType,omitempty"`
	Bytes    string         `json:"bytes,omitempty"`
	URI      string         `json:"uri,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// MarshalPart serializes a part with its kind discriminant.
func MarshalPart(p Part) ([]byte, error) {
	env := partEnvelope{Kind: p.Kind()}
	switch v := p.(type) {
	case TextPart:
		env.Text = v.Text
	case FilePart:
		env.Name = v.Name
		env.MimeType = v.MimeType
		env.Bytes = v.Bytes
		env.URI = v.URI
	case DataPart:
		env.Data = v.Data
		env.MimeType = v.MimeType
	default:
		return nil, fmt.Errorf("unknown part type %T", p)
	}
	return json.Marshal(env)
}

// UnmarshalPart deserializes a part, selecting the variant by the "kind"
// discriminant. Unknown kinds are an error rather than a silent fallback.
func UnmarshalPart(data []byte) (Part, error) {
	var env partEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode part: %w", err)
	}
	switch env.Kind {
	case PartKindText:
		return TextPart{Text: env.Text}, nil
	case PartKindFile:
		return FilePart{Name: env.Name, MimeType: env.MimeType, Bytes: env.Bytes, URI: env.URI}, nil
	case PartKindData:
		return DataPart{Data: env.Data, MimeType: env.MimeType}, nil
	default:
		return nil, fmt.Errorf("unknown part kind %q", env.Kind)
	}
}

// messageWire mirrors Message with parts in envelope form.
type messageWire struct {
	MessageID string            `json:"messageId"`
	Role      string            `json:"role,omitempty"`
	Parts     []json.RawMessage `json:"parts"`
	TaskID    string            `json:"taskId,omitempty"`
	ContextID string            `json:"contextId,omitempty"`
	Metadata  map[string]any    `json:"metadata,omitempty"`
}

// MarshalJSON implements json.Marshaler, encoding parts with their kind
// discriminants.
func (m Message) MarshalJSON() ([]byte, error) {
	wire := messageWire{
		MessageID: m.MessageID,
		Role:      m.Role,
		Parts:     make([]json.RawMessage, 0, len(m.Parts)),
		TaskID:    m.TaskID,
		ContextID: m.ContextID,
		Metadata:  m.Metadata,
	}
	for _, p := range m.Parts {
		raw, err := MarshalPart(p)
		if err != nil {
			return nil, err
		}
		wire.Parts = append(wire.Parts, raw)
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Message) UnmarshalJSON(data []byte) error {
	var wire messageWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	parts := make([]Part, 0, len(wire.Parts))
	for _, raw := range wire.Parts {
		p, err := UnmarshalPart(raw)
		if err != nil {
			return err
		}
		parts = append(parts, p)
	}
	*m = Message{
		MessageID: wire.MessageID,
		Role:      wire.Role,
		Parts:     parts,
		TaskID:    wire.TaskID,
		ContextID: wire.ContextID,
		Metadata:  wire.Metadata,
	}
	return nil
}
