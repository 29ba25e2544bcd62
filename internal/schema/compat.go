package schema

import (
	"fmt"

	logs "github.com/inchori/raftify/internal/logging"
)

// Compatible reports whether new can replace old without breaking published
// consumers. Every old field must keep its tag, kind, repeated-ness, and
// message type; an optional field must stay optional; messages and methods are
// never removed or re-signed. Additions are always allowed. The result is nil
// or an *Error with ErrorIncompatibleChange.
func Compatible(old, new *Schema) error {
	if old.Name != new.Name {
		return incompatible("schema renamed from %q to %q", old.Name, new.Name)
	}
	if new.Version.LessThan(old.Version) {
		return incompatible("version regressed from %s to %s", old.Version, new.Version)
	}
	for _, oldMsg := range old.Messages {
		newMsg, err := new.Resolve(oldMsg.Name)
		if err != nil {
			return incompatible("message %q removed", oldMsg.Name)
		}
		if err := compatibleMessage(oldMsg, newMsg); err != nil {
			return err
		}
	}
	for _, oldMethod := range old.Methods {
		newMethod, err := new.Method(oldMethod.Name)
		if err != nil {
			return incompatible("method %q removed", oldMethod.Name)
		}
		if newMethod.Input != oldMethod.Input || newMethod.Output != oldMethod.Output {
			return incompatible("method %q signature changed from (%s)->%s to (%s)->%s",
				oldMethod.Name, oldMethod.Input, oldMethod.Output,
				newMethod.Input, newMethod.Output)
		}
	}
	logs.Debugf("schema.Compatible ok old=%s new=%s", old.Version, new.Version)
	return nil
}

func compatibleMessage(old, new MessageDef) error {
	for _, oldField := range old.Fields {
		newField, ok := new.Field(oldField.Tag)
		if !ok {
			return incompatible("message %q tag %d removed", old.Name, oldField.Tag)
		}
		if newField.Kind != oldField.Kind || newField.MessageType != oldField.MessageType {
			return incompatible("message %q tag %d retyped from %s to %s",
				old.Name, oldField.Tag, fieldType(oldField), fieldType(newField))
		}
		if newField.Repeated != oldField.Repeated {
			return incompatible("message %q tag %d repeated flag changed", old.Name, oldField.Tag)
		}
		if oldField.Optional && !newField.Optional {
			return incompatible("message %q tag %d optional tightened to required", old.Name, oldField.Tag)
		}
	}
	return nil
}

func fieldType(f FieldDef) string {
	if f.Kind == KindMessage {
		return f.MessageType
	}
	return f.Kind.String()
}

func incompatible(format string, args ...any) error {
	detail := fmt.Sprintf(format, args...)
	logs.Errf("schema.Compatible %s", detail)
	return &Error{Kind: ErrorIncompatibleChange, Detail: detail}
}
