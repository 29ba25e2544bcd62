package core

import (
	"context"
	_ "embed"

	"github.com/inchori/raftify/internal/codec"
	"github.com/inchori/raftify/internal/schema"
)

//go:embed demo_schema.toml
var demoSchemaTOML []byte

// DemoSchema parses the embedded contract the demo surface is built against.
// The same file is the one shipped to binding generators.
func DemoSchema() (*schema.Schema, error) {
	return schema.Parse(demoSchemaTOML)
}

// Field tags from the demo schema contract.
const (
	TagPointX   = 1
	TagPointY   = 2
	TagSumTotal = 1

	TagBlobData = 1

	TagProposeKey   = 1
	TagProposeValue = 2
	TagProposeIndex = 1

	TagQueryKey    = 1
	TagQueryStrict = 2
	TagQueryValue  = 1
	TagQueryFound  = 2

	TagMembersIDs = 1
	TagMemberID   = 1
	TagMemberOK   = 1

	TagSnapshotHandle   = 1
	TagSnapshotOffset   = 2
	TagSnapshotLimit    = 3
	TagSnapshotData     = 1
	TagSnapshotEOF      = 2
	TagSnapshotReleased = 1
)

// Demo is the reference native core: enough surface to exercise every
// boundary contract (stateless calls, serialized shared state, failure kinds,
// handle-backed resources).
type Demo struct {
	Surface   *Surface
	state     *State
	snapshots *snapshotStore
}

// NewDemo builds the demo surface with an empty state.
func NewDemo() (*Demo, error) {
	return NewDemoWithState(NewState(0))
}

// NewDemoWithState builds the demo surface around st.
func NewDemoWithState(st *State) (*Demo, error) {
	d := &Demo{
		Surface:   NewSurface(),
		state:     st,
		snapshots: newSnapshotStore(),
	}
	regs := []struct {
		name string
		info MethodInfo
	}{
		{"sum", MethodInfo{Handler: d.sum}},
		{"echo", MethodInfo{Handler: d.echo}},
		{"propose", MethodInfo{Handler: d.propose, SharedState: true}},
		{"query", MethodInfo{Handler: d.query, SharedState: true}},
		{"members", MethodInfo{Handler: d.members, SharedState: true}},
		{"add_member", MethodInfo{Handler: d.addMember, SharedState: true}},
		{"remove_member", MethodInfo{Handler: d.removeMember, SharedState: true}},
		{"snapshot_open", MethodInfo{Handler: d.snapshotOpen, SharedState: true}},
		{"snapshot_read", MethodInfo{Handler: d.snapshotRead, SharedState: true}},
		{"snapshot_close", MethodInfo{Handler: d.snapshotClose, SharedState: true}},
	}
	for _, r := range regs {
		if err := d.Surface.Register(r.name, r.info); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// sum adds the two coordinates. Stateless.
func (d *Demo) sum(_ context.Context, in *codec.Value) (*codec.Value, error) {
	x, ok := in.Int32(TagPointX)
	if !ok {
		return nil, Errorf(InvalidArgument, "missing field x")
	}
	y, ok := in.Int32(TagPointY)
	if !ok {
		return nil, Errorf(InvalidArgument, "missing field y")
	}
	return codec.NewValue("Sum").SetInt32(TagSumTotal, x+y), nil
}

// echo returns its payload unchanged. Stateless.
func (d *Demo) echo(_ context.Context, in *codec.Value) (*codec.Value, error) {
	data, ok := in.BytesAt(TagBlobData)
	if !ok {
		return nil, Errorf(InvalidArgument, "missing field data")
	}
	out := make([]byte, len(data))
	copy(out, data)
	return codec.NewValue("Blob").SetBytes(TagBlobData, out), nil
}

// propose appends to the shared log; mutates shared state.
func (d *Demo) propose(_ context.Context, in *codec.Value) (*codec.Value, error) {
	key, ok := in.String(TagProposeKey)
	if !ok || key == "" {
		return nil, Errorf(InvalidArgument, "missing or empty key")
	}
	value, ok := in.BytesAt(TagProposeValue)
	if !ok {
		return nil, Errorf(InvalidArgument, "missing field value")
	}
	index := d.state.Propose(key, value)
	return codec.NewValue("ProposeResponse").SetInt64(TagProposeIndex, index), nil
}

// query reads the shared key/value view; reads shared state.
func (d *Demo) query(_ context.Context, in *codec.Value) (*codec.Value, error) {
	key, ok := in.String(TagQueryKey)
	if !ok || key == "" {
		return nil, Errorf(InvalidArgument, "missing or empty key")
	}
	strict, _ := in.Bool(TagQueryStrict)
	value, found := d.state.Query(key)
	if !found && strict {
		return nil, Errorf(NotFound, "key %q not found", key)
	}
	out := codec.NewValue("QueryResponse").SetBool(TagQueryFound, found)
	if found {
		out.SetBytes(TagQueryValue, value)
	}
	return out, nil
}

// members snapshots membership; reads shared state.
func (d *Demo) members(_ context.Context, in *codec.Value) (*codec.Value, error) {
	out := codec.NewValue("MembersResponse")
	for _, id := range d.state.Members() {
		out.Append(TagMembersIDs, codec.StringScalar(id))
	}
	return out, nil
}

// addMember admits a member; mutates shared state.
func (d *Demo) addMember(_ context.Context, in *codec.Value) (*codec.Value, error) {
	id, ok := in.String(TagMemberID)
	if !ok || id == "" {
		return nil, Errorf(InvalidArgument, "missing or empty id")
	}
	if err := d.state.AddMember(id); err != nil {
		return nil, err
	}
	return codec.NewValue("MemberResponse").SetBool(TagMemberOK, true), nil
}

// removeMember drops a member; mutates shared state.
func (d *Demo) removeMember(_ context.Context, in *codec.Value) (*codec.Value, error) {
	id, ok := in.String(TagMemberID)
	if !ok || id == "" {
		return nil, Errorf(InvalidArgument, "missing or empty id")
	}
	if err := d.state.RemoveMember(id); err != nil {
		return nil, err
	}
	return codec.NewValue("MemberResponse").SetBool(TagMemberOK, true), nil
}

// snapshotOpen captures the current state under a fresh handle id; reads
// shared state.
func (d *Demo) snapshotOpen(_ context.Context, in *codec.Value) (*codec.Value, error) {
	id := d.snapshots.Open(d.state.SnapshotBytes())
	return codec.NewValue("SnapshotOpenResponse").SetString(TagSnapshotHandle, id), nil
}

// snapshotRead reads from an open snapshot; touches the snapshot store.
func (d *Demo) snapshotRead(_ context.Context, in *codec.Value) (*codec.Value, error) {
	id, ok := in.String(TagSnapshotHandle)
	if !ok || id == "" {
		return nil, Errorf(InvalidArgument, "missing or empty handle")
	}
	offset, ok := in.Int64(TagSnapshotOffset)
	if !ok {
		return nil, Errorf(InvalidArgument, "missing field offset")
	}
	limit, _ := in.Int64(TagSnapshotLimit)
	data, eof, err := d.snapshots.Read(id, offset, limit)
	if err != nil {
		return nil, err
	}
	return codec.NewValue("SnapshotReadResponse").
		SetBytes(TagSnapshotData, data).
		SetBool(TagSnapshotEOF, eof), nil
}

// snapshotClose signals release intent for a handle; touches the snapshot
// store. Idempotent.
func (d *Demo) snapshotClose(_ context.Context, in *codec.Value) (*codec.Value, error) {
	id, ok := in.String(TagSnapshotHandle)
	if !ok || id == "" {
		return nil, Errorf(InvalidArgument, "missing or empty handle")
	}
	released := d.snapshots.Release(id)
	return codec.NewValue("SnapshotCloseResponse").SetBool(TagSnapshotReleased, released), nil
}
