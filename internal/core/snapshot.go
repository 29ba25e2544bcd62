package core

import (
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"

	logs "github.com/inchori/raftify/internal/logging"
)

// snapshot is one native resource backing a binding handle. Released
// snapshots stay in the store so later use fails with HandleError instead of
// looking like an unknown id.
type snapshot struct {
	mu       sync.Mutex
	data     []byte
	released bool
}

// snapshotStore tracks open snapshots by opaque id. Handles referencing these
// ids are not thread-affine; the store is safe from any goroutine.
type snapshotStore struct {
	m *xsync.Map[string, *snapshot]
}

func newSnapshotStore() *snapshotStore {
	return &snapshotStore{m: xsync.NewMap[string, *snapshot]()}
}

// Open captures data under a fresh id.
func (ss *snapshotStore) Open(data []byte) string {
	id := uuid.NewString()
	ss.m.Store(id, &snapshot{data: data})
	logs.Debugf("core.snapshot open id=%s bytes=%d", id, len(data))
	return id
}

// Read returns up to limit bytes starting at offset plus an eof flag.
// limit <= 0 means the rest of the data.
func (ss *snapshotStore) Read(id string, offset, limit int64) ([]byte, bool, error) {
	snap, ok := ss.m.Load(id)
	if !ok {
		return nil, false, &HandleError{ID: id}
	}
	snap.mu.Lock()
	defer snap.mu.Unlock()
	if snap.released {
		return nil, false, &HandleError{ID: id}
	}
	size := int64(len(snap.data))
	if offset < 0 || offset > size {
		return nil, false, Errorf(InvalidArgument, "offset %d out of range [0,%d]", offset, size)
	}
	end := size
	if limit > 0 && offset+limit < size {
		end = offset + limit
	}
	out := make([]byte, end-offset)
	copy(out, snap.data[offset:end])
	return out, end == size, nil
}

// Release marks id released. Idempotent: releasing an already-released or
// unknown id reports false without failing, since dropping a handle is an
// intent, not a synchronous destructor.
func (ss *snapshotStore) Release(id string) bool {
	snap, ok := ss.m.Load(id)
	if !ok {
		return false
	}
	snap.mu.Lock()
	defer snap.mu.Unlock()
	if snap.released {
		return false
	}
	snap.released = true
	snap.data = nil
	logs.Debugf("core.snapshot release id=%s", id)
	return true
}
