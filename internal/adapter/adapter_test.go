package adapter

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/inchori/raftify/internal/codec"
	"github.com/inchori/raftify/internal/core"
	"github.com/inchori/raftify/internal/schema"
	"github.com/inchori/raftify/internal/testutil/testlog"
)

func newBoundary(t *testing.T) (*Adapter, *core.Demo, *schema.Schema) {
	t.Helper()
	sch, err := core.DemoSchema()
	if err != nil {
		t.Fatalf("demo schema: %v", err)
	}
	demo, err := core.NewDemo()
	if err != nil {
		t.Fatalf("new demo: %v", err)
	}
	return New(sch, demo.Surface), demo, sch
}

func encodeFor(t *testing.T, sch *schema.Schema, message string, v *codec.Value) []byte {
	t.Helper()
	def, err := sch.Resolve(message)
	if err != nil {
		t.Fatalf("resolve %s: %v", message, err)
	}
	b, err := codec.Encode(v, def, sch)
	if err != nil {
		t.Fatalf("encode %s: %v", message, err)
	}
	return b
}

func assertFailure(t *testing.T, err error, kind FailureKind) *Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected failure %v", kind)
	}
	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *Error, got %T (%v)", err, err)
	}
	if ae.Kind != kind {
		t.Fatalf("expected kind %v, got %v (%v)", kind, ae.Kind, ae)
	}
	return ae
}

func TestInvokeSum(t *testing.T) {
	testlog.Start(t)
	a, _, sch := newBoundary(t)
	in := encodeFor(t, sch, "Point",
		codec.NewValue("Point").SetInt32(core.TagPointX, 3).SetInt32(core.TagPointY, 4))
	out, err := a.Invoke(context.Background(), "sum", in)
	if err != nil {
		t.Fatalf("invoke sum: %v", err)
	}
	want := encodeFor(t, sch, "Sum", codec.NewValue("Sum").SetInt32(core.TagSumTotal, 7))
	if !bytes.Equal(out, want) {
		t.Fatalf("unexpected output: %x want %x", out, want)
	}
}

func TestInvokeUnknownMethod(t *testing.T) {
	testlog.Start(t)
	a, _, _ := newBoundary(t)
	err := func() error {
		_, err := a.Invoke(context.Background(), "mul", nil)
		return err
	}()
	assertFailure(t, err, UnknownMethod)
}

func TestInvokeRejectsBadPayloadBeforeDispatch(t *testing.T) {
	testlog.Start(t)
	a, _, sch := newBoundary(t)
	good := encodeFor(t, sch, "Point",
		codec.NewValue("Point").SetInt32(core.TagPointX, 3).SetInt32(core.TagPointY, 4))
	_, err := a.Invoke(context.Background(), "sum", good[:len(good)-1])
	ae := assertFailure(t, err, Decode)

	var de *codec.DecodeError
	if !errors.As(ae, &de) {
		t.Fatalf("decode detail lost: %v", ae)
	}
	if de.Reason != codec.Truncated {
		t.Fatalf("expected truncated, got %v", de.Reason)
	}
}

func TestInvokePreservesCoreErrorKindAndMessage(t *testing.T) {
	testlog.Start(t)
	a, _, sch := newBoundary(t)
	in := encodeFor(t, sch, "QueryRequest", codec.NewValue("QueryRequest").
		SetString(core.TagQueryKey, "missing").
		SetBool(core.TagQueryStrict, true))
	_, err := a.Invoke(context.Background(), "query", in)
	ae := assertFailure(t, err, Core)

	var ce *core.Error
	if !errors.As(ae, &ce) {
		t.Fatalf("core detail lost: %v", ae)
	}
	if ce.Kind != core.NotFound {
		t.Fatalf("expected NotFound, got %v", ce.Kind)
	}
	if ce.Message != `key "missing" not found` {
		t.Fatalf("message rewritten: %q", ce.Message)
	}
}

func TestInvokeHandleExpired(t *testing.T) {
	testlog.Start(t)
	a, _, sch := newBoundary(t)

	open, err := a.Invoke(context.Background(), "snapshot_open",
		encodeFor(t, sch, "SnapshotOpenRequest", codec.NewValue("SnapshotOpenRequest")))
	if err != nil {
		t.Fatalf("snapshot_open: %v", err)
	}
	def, _ := sch.Resolve("SnapshotOpenResponse")
	opened, err := codec.Decode(open, def, sch)
	if err != nil {
		t.Fatalf("decode open response: %v", err)
	}
	handle, _ := opened.String(core.TagSnapshotHandle)

	if _, err := a.Invoke(context.Background(), "snapshot_close",
		encodeFor(t, sch, "SnapshotCloseRequest",
			codec.NewValue("SnapshotCloseRequest").SetString(core.TagSnapshotHandle, handle))); err != nil {
		t.Fatalf("snapshot_close: %v", err)
	}

	_, err = a.Invoke(context.Background(), "snapshot_read",
		encodeFor(t, sch, "SnapshotReadRequest", codec.NewValue("SnapshotReadRequest").
			SetString(core.TagSnapshotHandle, handle).
			SetInt64(core.TagSnapshotOffset, 0)))
	assertFailure(t, err, HandleExpired)
}

func TestInvokeMatchesDirectCall(t *testing.T) {
	testlog.Start(t)
	a, demo, sch := newBoundary(t)
	inVal := codec.NewValue("Point").SetInt32(core.TagPointX, 21).SetInt32(core.TagPointY, -4)
	in := encodeFor(t, sch, "Point", inVal)

	viaAdapter, err := a.Invoke(context.Background(), "sum", in)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}

	direct, err := demo.Surface.Call(context.Background(), "sum", inVal)
	if err != nil {
		t.Fatalf("direct call: %v", err)
	}
	directBytes := encodeFor(t, sch, "Sum", direct)

	if !bytes.Equal(viaAdapter, directBytes) {
		t.Fatalf("tier mismatch: adapter=%x direct=%x", viaAdapter, directBytes)
	}
}

func TestInvokeForwardCompatiblePayload(t *testing.T) {
	testlog.Start(t)
	a, _, sch := newBoundary(t)
	in := encodeFor(t, sch, "Point",
		codec.NewValue("Point").SetInt32(core.TagPointX, 1).SetInt32(core.TagPointY, 2))
	// Simulate a newer client appending an unknown optional field.
	in = append(in, 0x48, 0x02) // tag 9 varint

	out, err := a.Invoke(context.Background(), "sum", in)
	if err != nil {
		t.Fatalf("invoke with unknown tag: %v", err)
	}
	want := encodeFor(t, sch, "Sum", codec.NewValue("Sum").SetInt32(core.TagSumTotal, 3))
	if !bytes.Equal(out, want) {
		t.Fatalf("unexpected output: %x", out)
	}
}

func TestInvokeConcurrentHandleUse(t *testing.T) {
	testlog.Start(t)
	a, _, sch := newBoundary(t)

	if _, err := a.Invoke(context.Background(), "propose",
		encodeFor(t, sch, "ProposeRequest", codec.NewValue("ProposeRequest").
			SetString(core.TagProposeKey, "k").
			SetBytes(core.TagProposeValue, []byte{1}))); err != nil {
		t.Fatalf("propose: %v", err)
	}
	open, err := a.Invoke(context.Background(), "snapshot_open",
		encodeFor(t, sch, "SnapshotOpenRequest", codec.NewValue("SnapshotOpenRequest")))
	if err != nil {
		t.Fatalf("snapshot_open: %v", err)
	}
	def, _ := sch.Resolve("SnapshotOpenResponse")
	opened, _ := codec.Decode(open, def, sch)
	handle, _ := opened.String(core.TagSnapshotHandle)

	done := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			_, err := a.Invoke(context.Background(), "snapshot_read",
				encodeFor(t, sch, "SnapshotReadRequest", codec.NewValue("SnapshotReadRequest").
					SetString(core.TagSnapshotHandle, handle).
					SetInt64(core.TagSnapshotOffset, 0)))
			done <- err
		}()
	}
	for i := 0; i < 4; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent read: %v", err)
		}
	}
}
