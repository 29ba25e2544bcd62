package schema

import (
	"errors"
	"testing"

	"github.com/inchori/raftify/internal/testutil/testlog"
)

func testSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := New("raftify", "1.0.0",
		[]MessageDef{
			{Name: "Point", Fields: []FieldDef{
				{Tag: 1, Name: "x", Kind: KindInt32},
				{Tag: 2, Name: "y", Kind: KindInt32},
			}},
			{Name: "Sum", Fields: []FieldDef{
				{Tag: 1, Name: "total", Kind: KindInt32},
			}},
		},
		[]MethodDef{
			{Name: "sum", Input: "Point", Output: "Sum"},
		},
	)
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}
	return s
}

func TestResolveKnownMessage(t *testing.T) {
	testlog.Start(t)
	s := testSchema(t)
	def, err := s.Resolve("Point")
	if err != nil {
		t.Fatalf("resolve Point: %v", err)
	}
	if def.Name != "Point" || len(def.Fields) != 2 {
		t.Fatalf("unexpected definition: %+v", def)
	}
}

func TestResolveUnknownType(t *testing.T) {
	testlog.Start(t)
	s := testSchema(t)
	_, err := s.Resolve("Vector")
	if err == nil {
		t.Fatalf("expected error")
	}
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if se.Kind != ErrorUnknownType {
		t.Fatalf("unexpected kind: %v", se.Kind)
	}
}

func TestMethodLookup(t *testing.T) {
	testlog.Start(t)
	s := testSchema(t)
	md, err := s.Method("sum")
	if err != nil {
		t.Fatalf("method sum: %v", err)
	}
	if md.Input != "Point" || md.Output != "Sum" {
		t.Fatalf("unexpected method: %+v", md)
	}
	if _, err := s.Method("mul"); err == nil {
		t.Fatalf("expected error for unknown method")
	}
}

func TestNewRejectsDuplicateTag(t *testing.T) {
	testlog.Start(t)
	_, err := New("raftify", "1.0.0", []MessageDef{
		{Name: "Bad", Fields: []FieldDef{
			{Tag: 1, Name: "a", Kind: KindInt32},
			{Tag: 1, Name: "b", Kind: KindInt32},
		}},
	}, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	ve, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.Message != "Bad" || ve.Tag != 1 || ve.Reason != "duplicate tag" {
		t.Fatalf("unexpected validation error: %+v", ve)
	}
}

func TestNewRejectsUnresolvedMessageField(t *testing.T) {
	testlog.Start(t)
	_, err := New("raftify", "1.0.0", []MessageDef{
		{Name: "Wrap", Fields: []FieldDef{
			{Tag: 1, Name: "inner", Kind: KindMessage, MessageType: "Missing"},
		}},
	}, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewRejectsUnresolvedMethodMessages(t *testing.T) {
	testlog.Start(t)
	_, err := New("raftify", "1.0.0", []MessageDef{
		{Name: "Point", Fields: []FieldDef{{Tag: 1, Name: "x", Kind: KindInt32}}},
	}, []MethodDef{
		{Name: "sum", Input: "Point", Output: "Sum"},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewRejectsInvalidVersion(t *testing.T) {
	testlog.Start(t)
	_, err := New("raftify", "not-a-version", nil, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestMethodNamesSorted(t *testing.T) {
	testlog.Start(t)
	s, err := New("raftify", "1.0.0",
		[]MessageDef{{Name: "Blob", Fields: []FieldDef{{Tag: 1, Name: "data", Kind: KindBytes}}}},
		[]MethodDef{
			{Name: "echo", Input: "Blob", Output: "Blob"},
			{Name: "drop", Input: "Blob", Output: "Blob"},
		},
	)
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}
	names := s.MethodNames()
	if len(names) != 2 || names[0] != "drop" || names[1] != "echo" {
		t.Fatalf("unexpected names: %v", names)
	}
}
