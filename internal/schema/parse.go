package schema

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Schema file layout. The file is the contract: it carries everything either
// side of the boundary needs and parses without Go tooling.
type fileSchema struct {
	Name     string        `toml:"name"`
	Version  string        `toml:"version"`
	Messages []fileMessage `toml:"message"`
	Methods  []fileMethod  `toml:"method"`
}

type fileMessage struct {
	Name   string      `toml:"name"`
	Fields []fileField `toml:"field"`
}

type fileField struct {
	Tag         int    `toml:"tag"`
	Name        string `toml:"name"`
	Type        string `toml:"type"`
	MessageType string `toml:"message_type"`
	Repeated    bool   `toml:"repeated"`
	Optional    bool   `toml:"optional"`
}

type fileMethod struct {
	Name   string `toml:"name"`
	Input  string `toml:"input"`
	Output string `toml:"output"`
}

// LoadFile parses and validates a TOML schema file.
func LoadFile(path string) (*Schema, error) {
	var raw fileSchema
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("schema load failed (%s): %w", path, err)
	}
	return fromFile(raw)
}

// Parse parses and validates schema file content.
func Parse(data []byte) (*Schema, error) {
	var raw fileSchema
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("schema parse failed: %w", err)
	}
	return fromFile(raw)
}

func fromFile(raw fileSchema) (*Schema, error) {
	messages := make([]MessageDef, 0, len(raw.Messages))
	for _, rm := range raw.Messages {
		fields := make([]FieldDef, 0, len(rm.Fields))
		for _, rf := range rm.Fields {
			typeName := rf.Type
			messageType := rf.MessageType
			if typeName == "" && messageType != "" {
				typeName = "message"
			}
			kind, ok := ParseKind(typeName)
			if !ok {
				return nil, ValidationError{
					Message: rm.Name,
					Tag:     rf.Tag,
					Reason:  fmt.Sprintf("unknown type %q", rf.Type),
				}
			}
			fields = append(fields, FieldDef{
				Tag:         rf.Tag,
				Name:        rf.Name,
				Kind:        kind,
				MessageType: messageType,
				Repeated:    rf.Repeated,
				Optional:    rf.Optional,
			})
		}
		messages = append(messages, MessageDef{Name: rm.Name, Fields: fields})
	}
	methods := make([]MethodDef, 0, len(raw.Methods))
	for _, rm := range raw.Methods {
		methods = append(methods, MethodDef{Name: rm.Name, Input: rm.Input, Output: rm.Output})
	}
	return New(raw.Name, raw.Version, messages, methods)
}
