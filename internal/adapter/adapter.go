// Package adapter is the host-runtime side of the boundary. Its single entry
// point takes a method name and encoded payload, validates both against the
// schema before any dispatch, and carries failures across the boundary
// without dropping their kind or message.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inchori/raftify/internal/codec"
	"github.com/inchori/raftify/internal/core"
	logs "github.com/inchori/raftify/internal/logging"
	"github.com/inchori/raftify/internal/observability"
	"github.com/inchori/raftify/internal/schema"
)

// Adapter binds a schema to a native core surface.
type Adapter struct {
	schema  *schema.Schema
	surface *core.Surface
}

func New(sch *schema.Schema, surface *core.Surface) *Adapter {
	return &Adapter{schema: sch, surface: surface}
}

// Invoke is the entire surface a host runtime needs: dispatch by method name
// over encoded bytes. The boundary validates before dispatching; the native
// surface never sees an unknown method or an undecodable payload.
func (a *Adapter) Invoke(ctx context.Context, method string, payload []byte) ([]byte, error) {
	start := time.Now()
	out, err := a.invoke(ctx, method, payload)
	observability.RecordInvoke(method, invokeOutcome(err), time.Since(start))
	return out, err
}

func (a *Adapter) invoke(ctx context.Context, method string, payload []byte) ([]byte, error) {
	md, err := a.schema.Method(method)
	if err != nil {
		logs.Warnf("adapter.Invoke unknown method=%s", method)
		return nil, &Error{Kind: UnknownMethod, Method: method, Err: err}
	}
	info, ok := a.surface.Lookup(method)
	if !ok {
		logs.Errf("adapter.Invoke method=%s in schema but not on surface", method)
		return nil, &Error{
			Kind:   UnknownMethod,
			Method: method,
			Err:    fmt.Errorf("method %q not registered on native surface", method),
		}
	}

	inputDef, err := a.schema.Resolve(md.Input)
	if err != nil {
		return nil, &Error{Kind: UnknownMethod, Method: method, Err: err}
	}
	in, err := codec.Decode(payload, inputDef, a.schema)
	if err != nil {
		logs.Warnf("adapter.Invoke method=%s decode failed: %v", method, err)
		return nil, &Error{Kind: Decode, Method: method, Err: err}
	}

	result, err := info.Handler(ctx, in)
	if err != nil {
		return nil, a.translate(method, err)
	}

	outputDef, err := a.schema.Resolve(md.Output)
	if err != nil {
		return nil, &Error{Kind: Core, Method: method, Err: core.Errorf(core.Internal, "output type: %v", err)}
	}
	encoded, err := codec.Encode(result, outputDef, a.schema)
	if err != nil {
		logs.Errf("adapter.Invoke method=%s result encode failed: %v", method, err)
		return nil, &Error{Kind: Core, Method: method, Err: core.Errorf(core.Internal, "result encode: %v", err)}
	}
	return encoded, nil
}

// translate maps a native failure into the boundary taxonomy. Core kind and
// message ride along unchanged.
func (a *Adapter) translate(method string, err error) error {
	var he *core.HandleError
	if errors.As(err, &he) {
		return &Error{Kind: HandleExpired, Method: method, Err: err}
	}
	var ce *core.Error
	if errors.As(err, &ce) {
		return &Error{Kind: Core, Method: method, Err: ce}
	}
	// A handler returning anything else is a native bug; surface it as an
	// internal core failure rather than hiding it.
	return &Error{Kind: Core, Method: method, Err: core.Errorf(core.Internal, "%v", err)}
}

func invokeOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind.String()
	}
	return "error"
}
