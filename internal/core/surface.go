// Package core is the native side of the boundary. It exposes a method
// surface operating purely on decoded values; wire bytes never enter this
// package. All state shared across calls lives behind explicit locks and each
// method documents whether it touches that state.
package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/inchori/raftify/internal/codec"
	logs "github.com/inchori/raftify/internal/logging"
)

// Handler is one exposed method. Inputs arrive decoded; the result is handed
// back to the caller with copy-out semantics, the core keeps no reference.
type Handler func(ctx context.Context, in *codec.Value) (*codec.Value, error)

// MethodInfo carries a handler plus its shared-state contract.
type MethodInfo struct {
	Handler Handler
	// SharedState is true when the method reads or mutates state shared
	// across calls. Such methods serialize internally; callers never lock.
	SharedState bool
}

// Surface is the registered method set of the native core.
type Surface struct {
	mu      sync.RWMutex
	methods map[string]MethodInfo
}

func NewSurface() *Surface {
	return &Surface{methods: make(map[string]MethodInfo)}
}

// Register adds a method. Re-registering a name is a programming error.
func (s *Surface) Register(name string, info MethodInfo) error {
	if name == "" || info.Handler == nil {
		return fmt.Errorf("core: invalid registration for %q", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.methods[name]; dup {
		return fmt.Errorf("core: method %q already registered", name)
	}
	s.methods[name] = info
	logs.Debugf("core.Register method=%s shared_state=%t", name, info.SharedState)
	return nil
}

// Lookup returns the method registered under name.
func (s *Surface) Lookup(name string) (MethodInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.methods[name]
	return info, ok
}

// Methods lists registered method names in sorted order.
func (s *Surface) Methods() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.methods))
	for name := range s.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call invokes a method directly, honoring ctx cancellation before dispatch.
func (s *Surface) Call(ctx context.Context, name string, in *codec.Value) (*codec.Value, error) {
	info, ok := s.Lookup(name)
	if !ok {
		return nil, Errorf(NotFound, "method %q not registered", name)
	}
	if err := ctx.Err(); err != nil {
		return nil, Errorf(Internal, "call cancelled: %v", err)
	}
	return info.Handler(ctx, in)
}
