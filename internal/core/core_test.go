package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/inchori/raftify/internal/codec"
	"github.com/inchori/raftify/internal/testutil/testlog"
)

func newDemo(t *testing.T) *Demo {
	t.Helper()
	d, err := NewDemo()
	if err != nil {
		t.Fatalf("new demo: %v", err)
	}
	return d
}

func call(t *testing.T, d *Demo, method string, in *codec.Value) *codec.Value {
	t.Helper()
	out, err := d.Surface.Call(context.Background(), method, in)
	if err != nil {
		t.Fatalf("call %s: %v", method, err)
	}
	return out
}

func callErr(t *testing.T, d *Demo, method string, in *codec.Value) error {
	t.Helper()
	_, err := d.Surface.Call(context.Background(), method, in)
	if err == nil {
		t.Fatalf("call %s: expected error", method)
	}
	return err
}

func assertKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *Error, got %T (%v)", err, err)
	}
	if ce.Kind != kind {
		t.Fatalf("expected kind %v, got %v (%s)", kind, ce.Kind, ce.Message)
	}
}

func TestSum(t *testing.T) {
	testlog.Start(t)
	d := newDemo(t)
	in := codec.NewValue("Point").SetInt32(TagPointX, 3).SetInt32(TagPointY, 4)
	out := call(t, d, "sum", in)
	total, ok := out.Int32(TagSumTotal)
	if !ok || total != 7 {
		t.Fatalf("unexpected total: %d ok=%t", total, ok)
	}
}

func TestSumMissingFieldInvalidArgument(t *testing.T) {
	testlog.Start(t)
	d := newDemo(t)
	in := codec.NewValue("Point").SetInt32(TagPointX, 3)
	assertKind(t, callErr(t, d, "sum", in), InvalidArgument)
}

func TestUnknownMethodNotFound(t *testing.T) {
	testlog.Start(t)
	d := newDemo(t)
	assertKind(t, callErr(t, d, "mul", codec.NewValue("Point")), NotFound)
}

func TestCallCancelledContext(t *testing.T) {
	testlog.Start(t)
	d := newDemo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Surface.Call(ctx, "sum",
		codec.NewValue("Point").SetInt32(TagPointX, 1).SetInt32(TagPointY, 2))
	assertKind(t, err, Internal)
}

func TestRegisterDuplicateRejected(t *testing.T) {
	testlog.Start(t)
	d := newDemo(t)
	err := d.Surface.Register("sum", MethodInfo{Handler: d.sum})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestProposeQueryTotalOrder(t *testing.T) {
	testlog.Start(t)
	d := newDemo(t)
	for i, key := range []string{"a", "b", "a"} {
		in := codec.NewValue("ProposeRequest").
			SetString(TagProposeKey, key).
			SetBytes(TagProposeValue, []byte{byte(i)})
		out := call(t, d, "propose", in)
		index, ok := out.Int64(TagProposeIndex)
		if !ok || index != int64(i)+1 {
			t.Fatalf("unexpected index %d at %d", index, i)
		}
	}
	out := call(t, d, "query", codec.NewValue("QueryRequest").SetString(TagQueryKey, "a"))
	found, _ := out.Bool(TagQueryFound)
	value, _ := out.BytesAt(TagQueryValue)
	if !found || len(value) != 1 || value[0] != 2 {
		t.Fatalf("unexpected query result found=%t value=%v", found, value)
	}
}

func TestQueryMissingKeyBehavior(t *testing.T) {
	testlog.Start(t)
	d := newDemo(t)
	out := call(t, d, "query", codec.NewValue("QueryRequest").SetString(TagQueryKey, "nope"))
	found, _ := out.Bool(TagQueryFound)
	if found {
		t.Fatalf("expected not found")
	}
	if out.Has(TagQueryValue) {
		t.Fatalf("value must be absent, not defaulted")
	}

	strict := codec.NewValue("QueryRequest").
		SetString(TagQueryKey, "nope").
		SetBool(TagQueryStrict, true)
	assertKind(t, callErr(t, d, "query", strict), NotFound)
}

func TestMembershipLifecycle(t *testing.T) {
	testlog.Start(t)
	d := newDemo(t)
	for _, id := range []string{"node-2", "node-1"} {
		call(t, d, "add_member", codec.NewValue("MemberRequest").SetString(TagMemberID, id))
	}
	out := call(t, d, "members", codec.NewValue("MembersRequest"))
	ids := out.GetAll(TagMembersIDs)
	if len(ids) != 2 || ids[0].Str != "node-1" || ids[1].Str != "node-2" {
		t.Fatalf("unexpected members: %+v", ids)
	}

	dupErr := callErr(t, d, "add_member",
		codec.NewValue("MemberRequest").SetString(TagMemberID, "node-1"))
	assertKind(t, dupErr, InvalidArgument)

	call(t, d, "remove_member", codec.NewValue("MemberRequest").SetString(TagMemberID, "node-1"))
	missingErr := callErr(t, d, "remove_member",
		codec.NewValue("MemberRequest").SetString(TagMemberID, "node-1"))
	assertKind(t, missingErr, NotFound)
}

func TestMembershipCapacityExhausted(t *testing.T) {
	testlog.Start(t)
	d, err := NewDemoWithState(NewState(2))
	if err != nil {
		t.Fatalf("new demo: %v", err)
	}
	call(t, d, "add_member", codec.NewValue("MemberRequest").SetString(TagMemberID, "a"))
	call(t, d, "add_member", codec.NewValue("MemberRequest").SetString(TagMemberID, "b"))
	full := callErr(t, d, "add_member",
		codec.NewValue("MemberRequest").SetString(TagMemberID, "c"))
	assertKind(t, full, ResourceExhausted)
}

func TestSnapshotLifecycle(t *testing.T) {
	testlog.Start(t)
	d := newDemo(t)
	call(t, d, "propose", codec.NewValue("ProposeRequest").
		SetString(TagProposeKey, "k").
		SetBytes(TagProposeValue, []byte{0xAB}))

	open := call(t, d, "snapshot_open", codec.NewValue("SnapshotOpenRequest"))
	handle, ok := open.String(TagSnapshotHandle)
	if !ok || handle == "" {
		t.Fatalf("missing handle")
	}

	read := call(t, d, "snapshot_read", codec.NewValue("SnapshotReadRequest").
		SetString(TagSnapshotHandle, handle).
		SetInt64(TagSnapshotOffset, 0))
	data, _ := read.BytesAt(TagSnapshotData)
	eof, _ := read.Bool(TagSnapshotEOF)
	if string(data) != "k=ab\n" || !eof {
		t.Fatalf("unexpected read: %q eof=%t", data, eof)
	}

	closed := call(t, d, "snapshot_close", codec.NewValue("SnapshotCloseRequest").
		SetString(TagSnapshotHandle, handle))
	released, _ := closed.Bool(TagSnapshotReleased)
	if !released {
		t.Fatalf("expected release")
	}

	// Closing again is an idempotent no-op.
	closed = call(t, d, "snapshot_close", codec.NewValue("SnapshotCloseRequest").
		SetString(TagSnapshotHandle, handle))
	released, _ = closed.Bool(TagSnapshotReleased)
	if released {
		t.Fatalf("second close must report already released")
	}

	// Reading after release fails with a handle error, never garbage.
	err := callErr(t, d, "snapshot_read", codec.NewValue("SnapshotReadRequest").
		SetString(TagSnapshotHandle, handle).
		SetInt64(TagSnapshotOffset, 0))
	var he *HandleError
	if !errors.As(err, &he) {
		t.Fatalf("expected *HandleError, got %T (%v)", err, err)
	}
}

func TestSnapshotChunkedRead(t *testing.T) {
	testlog.Start(t)
	d := newDemo(t)
	call(t, d, "propose", codec.NewValue("ProposeRequest").
		SetString(TagProposeKey, "key").
		SetBytes(TagProposeValue, []byte{1, 2, 3, 4}))

	open := call(t, d, "snapshot_open", codec.NewValue("SnapshotOpenRequest"))
	handle, _ := open.String(TagSnapshotHandle)

	var got []byte
	offset := int64(0)
	for {
		read := call(t, d, "snapshot_read", codec.NewValue("SnapshotReadRequest").
			SetString(TagSnapshotHandle, handle).
			SetInt64(TagSnapshotOffset, offset).
			SetInt64(TagSnapshotLimit, 3))
		data, _ := read.BytesAt(TagSnapshotData)
		got = append(got, data...)
		offset += int64(len(data))
		if eof, _ := read.Bool(TagSnapshotEOF); eof {
			break
		}
	}
	if string(got) != "key=01020304\n" {
		t.Fatalf("unexpected snapshot content: %q", got)
	}
}

func TestConcurrentProposesObserveTotalOrder(t *testing.T) {
	testlog.Start(t)
	d := newDemo(t)
	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	indexes := make([][]int64, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				in := codec.NewValue("ProposeRequest").
					SetString(TagProposeKey, "k").
					SetBytes(TagProposeValue, []byte{byte(w)})
				out, err := d.Surface.Call(context.Background(), "propose", in)
				if err != nil {
					t.Errorf("propose: %v", err)
					return
				}
				index, _ := out.Int64(TagProposeIndex)
				indexes[w] = append(indexes[w], index)
			}
		}(w)
	}
	wg.Wait()

	seen := make(map[int64]struct{})
	for _, worker := range indexes {
		for _, index := range worker {
			if _, dup := seen[index]; dup {
				t.Fatalf("duplicate index %d", index)
			}
			seen[index] = struct{}{}
		}
	}
	if len(seen) != workers*perWorker {
		t.Fatalf("expected %d distinct indexes, got %d", workers*perWorker, len(seen))
	}
}

func TestDemoSchemaMatchesSurface(t *testing.T) {
	testlog.Start(t)
	d := newDemo(t)
	s, err := DemoSchema()
	if err != nil {
		t.Fatalf("demo schema: %v", err)
	}
	for _, name := range s.MethodNames() {
		if _, ok := d.Surface.Lookup(name); !ok {
			t.Fatalf("schema method %q not registered on surface", name)
		}
	}
	for _, name := range d.Surface.Methods() {
		if _, err := s.Method(name); err != nil {
			t.Fatalf("surface method %q not in schema: %v", name, err)
		}
	}
}
