// Package schema owns the interface contract shared by both sides of the
// boundary: message shapes, field numbering, method signatures, and the
// compatibility gate that keeps published tags append-only.
package schema

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"

	logs "github.com/inchori/raftify/internal/logging"
)

// Kind identifies a field's declared type.
type Kind uint8

const (
	KindInt32 Kind = iota + 1
	KindInt64
	KindBool
	KindString
	KindBytes
	KindMessage
)

func (k Kind) String() string {
	switch k {
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindMessage:
		return "message"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind maps a schema-file type name to a Kind.
func ParseKind(name string) (Kind, bool) {
	switch name {
	case "int32":
		return KindInt32, true
	case "int64":
		return KindInt64, true
	case "bool":
		return KindBool, true
	case "string":
		return KindString, true
	case "bytes":
		return KindBytes, true
	case "message":
		return KindMessage, true
	default:
		return 0, false
	}
}

// FieldDef declares one field of a message. MessageType names the nested
// message definition when Kind is KindMessage.
type FieldDef struct {
	Tag         int
	Name        string
	Kind        Kind
	MessageType string
	Repeated    bool
	Optional    bool
}

// MessageDef is an immutable published message shape.
type MessageDef struct {
	Name   string
	Fields []FieldDef
}

// Field looks up a field by tag.
func (m MessageDef) Field(tag int) (FieldDef, bool) {
	for _, f := range m.Fields {
		if f.Tag == tag {
			return f, true
		}
	}
	return FieldDef{}, false
}

// FieldByName looks up a field by name.
func (m MessageDef) FieldByName(name string) (FieldDef, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// MethodDef binds a method name to its input and output message names.
type MethodDef struct {
	Name   string
	Input  string
	Output string
}

// Schema is a named, versioned set of message and method definitions.
type Schema struct {
	Name     string
	Version  *semver.Version
	Messages []MessageDef
	Methods  []MethodDef

	messageIndex map[string]int
	methodIndex  map[string]int
}

// New validates the definitions and builds an indexed Schema.
func New(name, version string, messages []MessageDef, methods []MethodDef) (*Schema, error) {
	if name == "" {
		return nil, ValidationError{Reason: "missing schema name"}
	}
	ver, err := semver.NewVersion(version)
	if err != nil {
		return nil, ValidationError{Reason: fmt.Sprintf("invalid version %q: %v", version, err)}
	}
	s := &Schema{
		Name:         name,
		Version:      ver,
		Messages:     messages,
		Methods:      methods,
		messageIndex: make(map[string]int, len(messages)),
		methodIndex:  make(map[string]int, len(methods)),
	}
	for i, m := range messages {
		if m.Name == "" {
			return nil, ValidationError{Reason: "message missing name"}
		}
		if _, dup := s.messageIndex[m.Name]; dup {
			return nil, ValidationError{Message: m.Name, Reason: "duplicate message name"}
		}
		s.messageIndex[m.Name] = i
		if err := validateFields(m); err != nil {
			return nil, err
		}
	}
	for _, m := range messages {
		for _, f := range m.Fields {
			if f.Kind != KindMessage {
				continue
			}
			if _, ok := s.messageIndex[f.MessageType]; !ok {
				return nil, ValidationError{
					Message: m.Name,
					Tag:     f.Tag,
					Reason:  fmt.Sprintf("unresolved message type %q", f.MessageType),
				}
			}
		}
	}
	for i, md := range methods {
		if md.Name == "" {
			return nil, ValidationError{Reason: "method missing name"}
		}
		if _, dup := s.methodIndex[md.Name]; dup {
			return nil, ValidationError{Reason: fmt.Sprintf("duplicate method name %q", md.Name)}
		}
		if _, ok := s.messageIndex[md.Input]; !ok {
			return nil, ValidationError{Reason: fmt.Sprintf("method %q input %q not defined", md.Name, md.Input)}
		}
		if _, ok := s.messageIndex[md.Output]; !ok {
			return nil, ValidationError{Reason: fmt.Sprintf("method %q output %q not defined", md.Name, md.Output)}
		}
		s.methodIndex[md.Name] = i
	}
	logs.Debugf("schema.New name=%s version=%s messages=%d methods=%d",
		name, ver, len(messages), len(methods))
	return s, nil
}

func validateFields(m MessageDef) error {
	seenTags := make(map[int]struct{}, len(m.Fields))
	seenNames := make(map[string]struct{}, len(m.Fields))
	for _, f := range m.Fields {
		if f.Tag < 1 {
			return ValidationError{Message: m.Name, Tag: f.Tag, Reason: "tag must be positive"}
		}
		if f.Name == "" {
			return ValidationError{Message: m.Name, Tag: f.Tag, Reason: "field missing name"}
		}
		if _, dup := seenTags[f.Tag]; dup {
			return ValidationError{Message: m.Name, Tag: f.Tag, Reason: "duplicate tag"}
		}
		if _, dup := seenNames[f.Name]; dup {
			return ValidationError{Message: m.Name, Tag: f.Tag, Reason: "duplicate field name"}
		}
		if f.Kind == KindMessage && f.MessageType == "" {
			return ValidationError{Message: m.Name, Tag: f.Tag, Reason: "message field missing message_type"}
		}
		if f.Kind != KindMessage && f.MessageType != "" {
			return ValidationError{Message: m.Name, Tag: f.Tag, Reason: "message_type set on non-message field"}
		}
		seenTags[f.Tag] = struct{}{}
		seenNames[f.Name] = struct{}{}
	}
	return nil
}

// Resolve returns the message definition for name.
func (s *Schema) Resolve(name string) (MessageDef, error) {
	i, ok := s.messageIndex[name]
	if !ok {
		return MessageDef{}, &Error{Kind: ErrorUnknownType, Detail: fmt.Sprintf("message %q not defined", name)}
	}
	return s.Messages[i], nil
}

// Method returns the method definition for name.
func (s *Schema) Method(name string) (MethodDef, error) {
	i, ok := s.methodIndex[name]
	if !ok {
		return MethodDef{}, &Error{Kind: ErrorUnknownType, Detail: fmt.Sprintf("method %q not defined", name)}
	}
	return s.Methods[i], nil
}

// MethodNames lists defined methods in sorted order.
func (s *Schema) MethodNames() []string {
	names := make([]string, 0, len(s.methodIndex))
	for name := range s.methodIndex {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
