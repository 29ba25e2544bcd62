package core

import (
	"fmt"
	"sort"
	"sync"

	logs "github.com/inchori/raftify/internal/logging"
)

// DefaultMemberCapacity bounds the demo membership set.
const DefaultMemberCapacity = 7

type logEntry struct {
	Index int64
	Key   string
	Value []byte
}

// State is the shared domain state behind the demo surface: an append-only
// proposal log with a materialized key/value view, plus a bounded membership
// set. One mutex serializes every access so concurrent callers observe a
// single total order of mutations.
type State struct {
	mu        sync.Mutex
	entries   []logEntry
	kv        map[string][]byte
	members   map[string]struct{}
	memberCap int
}

func NewState(memberCap int, seedMembers ...string) *State {
	if memberCap <= 0 {
		memberCap = DefaultMemberCapacity
	}
	st := &State{
		kv:        make(map[string][]byte),
		members:   make(map[string]struct{}),
		memberCap: memberCap,
	}
	for _, id := range seedMembers {
		st.members[id] = struct{}{}
	}
	return st
}

// Propose appends an entry and returns its index in the total order.
func (st *State) Propose(key string, value []byte) int64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	index := int64(len(st.entries)) + 1
	stored := make([]byte, len(value))
	copy(stored, value)
	st.entries = append(st.entries, logEntry{Index: index, Key: key, Value: stored})
	st.kv[key] = stored
	logs.Debugf("core.Propose key=%s index=%d", key, index)
	return index
}

// Query returns the latest value for key. The returned slice is a copy.
func (st *State) Query(key string) ([]byte, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	v, ok := st.kv[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true
}

// Members returns the membership snapshot in sorted order.
func (st *State) Members() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	ids := make([]string, 0, len(st.members))
	for id := range st.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AddMember admits id into the membership set.
func (st *State) AddMember(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, exists := st.members[id]; exists {
		return Errorf(InvalidArgument, "member %q already present", id)
	}
	if len(st.members) >= st.memberCap {
		return Errorf(ResourceExhausted, "membership at capacity %d", st.memberCap)
	}
	st.members[id] = struct{}{}
	logs.Infof("core.AddMember id=%s size=%d", id, len(st.members))
	return nil
}

// RemoveMember drops id from the membership set.
func (st *State) RemoveMember(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, exists := st.members[id]; !exists {
		return Errorf(NotFound, "member %q not present", id)
	}
	delete(st.members, id)
	logs.Infof("core.RemoveMember id=%s size=%d", id, len(st.members))
	return nil
}

// SnapshotBytes serializes the current key/value view deterministically:
// sorted keys, one "key=hex\n" line each.
func (st *State) SnapshotBytes() []byte {
	st.mu.Lock()
	defer st.mu.Unlock()
	keys := make([]string, 0, len(st.kv))
	for k := range st.kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]byte, 0, 64)
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%x\n", k, st.kv[k])...)
	}
	return out
}
