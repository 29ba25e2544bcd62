package harness

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/inchori/raftify/internal/adapter"
	"github.com/inchori/raftify/internal/codec"
	"github.com/inchori/raftify/internal/core"
	logs "github.com/inchori/raftify/internal/logging"
	"github.com/inchori/raftify/internal/observability"
	"github.com/inchori/raftify/internal/schema"
)

// Tier selects which boundary path to exercise.
type Tier uint8

const (
	TierUnit Tier = iota + 1
	TierBinding
	TierAll
)

func (t Tier) String() string {
	switch t {
	case TierUnit:
		return "unit"
	case TierBinding:
		return "binding"
	case TierAll:
		return "all"
	default:
		return fmt.Sprintf("tier(%d)", uint8(t))
	}
}

// ParseTier maps a CLI tier name.
func ParseTier(raw string) (Tier, error) {
	switch raw {
	case "unit":
		return TierUnit, nil
	case "binding":
		return TierBinding, nil
	case "", "all":
		return TierAll, nil
	default:
		return 0, fmt.Errorf("harness: unknown tier %q (supported: unit, binding, all)", raw)
	}
}

// Outcome classifies one vector run.
type Outcome uint8

const (
	Pass Outcome = iota + 1
	// ExpectMismatch: a tier produced a result that differs from the
	// vector's expectation.
	ExpectMismatch
	// TierDisagreement: the direct core path and the adapter path disagree
	// with each other. This isolates the fault to the boundary itself and is
	// reported distinctly from an expectation mismatch.
	TierDisagreement
	// RunError: the vector could not be executed at all (bad literal,
	// unresolvable method).
	RunError
)

func (o Outcome) String() string {
	switch o {
	case Pass:
		return "pass"
	case ExpectMismatch:
		return "expect_mismatch"
	case TierDisagreement:
		return "tier_disagreement"
	case RunError:
		return "run_error"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// observation is what one tier produced: encoded bytes or a failure kind.
type observation struct {
	bytes   []byte
	failure string
}

func (o observation) String() string {
	if o.failure != "" {
		return "fail:" + o.failure
	}
	return "ok:" + hex.EncodeToString(o.bytes)
}

func (o observation) equal(p observation) bool {
	return o.failure == p.failure && bytes.Equal(o.bytes, p.bytes)
}

// Result is the outcome of one vector.
type Result struct {
	Vector   string
	Method   string
	Outcome  Outcome
	Expected string
	Unit     string
	Binding  string
	Detail   string
}

// Report aggregates a run.
type Report struct {
	Tier    Tier
	Results []Result
}

// Passed reports whether every vector passed.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if res.Outcome != Pass {
			return false
		}
	}
	return true
}

// Failing returns the non-passing results.
func (r *Report) Failing() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Outcome != Pass {
			out = append(out, res)
		}
	}
	return out
}

// Runner executes vectors against a schema-bound core and adapter. When a
// vector set mutates state, back each tier with its own core instance: the
// runner replays the same sequence through both paths, and a shared instance
// would see every mutation twice.
type Runner struct {
	schema  *schema.Schema
	surface *core.Surface
	adapter *adapter.Adapter
}

func NewRunner(sch *schema.Schema, surface *core.Surface, ad *adapter.Adapter) *Runner {
	return &Runner{schema: sch, surface: surface, adapter: ad}
}

// Run executes vectors in order. Vectors may depend on state built by
// earlier vectors in the same file, so order is part of the contract.
func (r *Runner) Run(ctx context.Context, vectors []Vector, tier Tier) *Report {
	report := &Report{Tier: tier}
	for _, v := range vectors {
		res := r.runVector(ctx, v, tier)
		observability.RecordVectorResult(tier.String(), res.Outcome.String())
		if res.Outcome != Pass {
			logs.Warnf("harness vector=%s outcome=%s detail=%s", res.Vector, res.Outcome, res.Detail)
		}
		report.Results = append(report.Results, res)
	}
	logs.Infof("harness run tier=%s vectors=%d passed=%t", tier, len(vectors), report.Passed())
	return report
}

func (r *Runner) runVector(ctx context.Context, v Vector, tier Tier) Result {
	res := Result{Vector: v.Name, Method: v.Method}

	input, err := v.inputBytes(r.schema)
	if err != nil {
		res.Outcome = RunError
		res.Detail = err.Error()
		return res
	}

	expected := observation{failure: v.ExpectFailure}
	if v.ExpectFailure == "" {
		eb, err := v.expectedBytes(r.schema)
		if err != nil {
			res.Outcome = RunError
			res.Detail = err.Error()
			return res
		}
		expected.bytes = eb
	}
	res.Expected = expected.String()

	var unit, binding observation
	runUnit := tier == TierUnit || tier == TierAll
	runBinding := tier == TierBinding || tier == TierAll
	if runUnit {
		unit = r.runUnit(ctx, v.Method, input)
		res.Unit = unit.String()
	}
	if runBinding {
		binding = r.runBinding(ctx, v.Method, input)
		res.Binding = binding.String()
	}

	if runUnit && runBinding && !unit.equal(binding) {
		res.Outcome = TierDisagreement
		res.Detail = fmt.Sprintf("unit=%s binding=%s", unit, binding)
		return res
	}
	if runUnit && !unit.equal(expected) {
		res.Outcome = ExpectMismatch
		res.Detail = fmt.Sprintf("unit=%s expected=%s", unit, expected)
		return res
	}
	if runBinding && !binding.equal(expected) {
		res.Outcome = ExpectMismatch
		res.Detail = fmt.Sprintf("binding=%s expected=%s", binding, expected)
		return res
	}
	res.Outcome = Pass
	return res
}

// runUnit exercises the native surface directly: decode here, dispatch,
// encode here. This is the path a native caller takes.
func (r *Runner) runUnit(ctx context.Context, method string, input []byte) observation {
	md, err := r.schema.Method(method)
	if err != nil {
		return observation{failure: "unknown_method"}
	}
	inputDef, err := r.schema.Resolve(md.Input)
	if err != nil {
		return observation{failure: "unknown_method"}
	}
	in, err := codec.Decode(input, inputDef, r.schema)
	if err != nil {
		return failureOf(err)
	}
	out, err := r.surface.Call(ctx, method, in)
	if err != nil {
		return failureOf(err)
	}
	outputDef, err := r.schema.Resolve(md.Output)
	if err != nil {
		return observation{failure: "internal"}
	}
	encoded, err := codec.Encode(out, outputDef, r.schema)
	if err != nil {
		return observation{failure: "internal"}
	}
	return observation{bytes: encoded}
}

// runBinding exercises the full adapter path with the same payload.
func (r *Runner) runBinding(ctx context.Context, method string, input []byte) observation {
	out, err := r.adapter.Invoke(ctx, method, input)
	if err != nil {
		return failureOf(err)
	}
	return observation{bytes: out}
}

// failureOf renders any boundary error as its taxonomy kind so results from
// both tiers compare on equal terms.
func failureOf(err error) observation {
	var ae *adapter.Error
	if errors.As(err, &ae) {
		switch ae.Kind {
		case adapter.UnknownMethod:
			return observation{failure: "unknown_method"}
		case adapter.HandleExpired:
			return observation{failure: "handle_expired"}
		}
		if ae.Err != nil {
			return failureOf(ae.Err)
		}
		return observation{failure: ae.Kind.String()}
	}
	var de *codec.DecodeError
	if errors.As(err, &de) {
		return observation{failure: de.Reason.String()}
	}
	var he *core.HandleError
	if errors.As(err, &he) {
		return observation{failure: "handle_expired"}
	}
	var ce *core.Error
	if errors.As(err, &ce) {
		return observation{failure: ce.Kind.String()}
	}
	return observation{failure: "internal"}
}
