// Package harness drives conformance vectors against both sides of the
// boundary: the native surface directly (unit tier) and the full binding
// adapter path (binding tier). A vector passes only when both tiers match the
// expectation and each other.
package harness

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/inchori/raftify/internal/codec"
	logs "github.com/inchori/raftify/internal/logging"
	"github.com/inchori/raftify/internal/schema"
)

// Vector is one immutable conformance case. Input is either a literal (field
// name keyed, resolved against the method's input message) or RawInput hex
// for deliberately malformed payloads. Exactly one of Expect/ExpectFailure is
// set.
type Vector struct {
	Name          string
	Method        string
	Input         map[string]any
	RawInput      string
	Expect        map[string]any
	ExpectFailure string
}

type vectorFile struct {
	Vectors []fileVector `toml:"vector"`
}

type fileVector struct {
	Name          string         `toml:"name"`
	Method        string         `toml:"method"`
	Input         map[string]any `toml:"input"`
	RawInput      string         `toml:"raw_input"`
	Expect        map[string]any `toml:"expect"`
	ExpectFailure string         `toml:"expect_failure"`
}

// Failure kind names accepted in expect_failure.
var failureKinds = map[string]struct{}{
	"invalid_argument":   {},
	"not_found":          {},
	"internal":           {},
	"resource_exhausted": {},
	"truncated":          {},
	"unknown_tag":        {},
	"type_mismatch":      {},
	"unknown_method":     {},
	"handle_expired":     {},
}

// LoadFile parses one vector file.
func LoadFile(path string) ([]Vector, error) {
	var raw vectorFile
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("vectors load failed (%s): %w", path, err)
	}
	vectors := make([]Vector, 0, len(raw.Vectors))
	for i, rv := range raw.Vectors {
		v := Vector{
			Name:          rv.Name,
			Method:        rv.Method,
			Input:         rv.Input,
			RawInput:      rv.RawInput,
			Expect:        rv.Expect,
			ExpectFailure: rv.ExpectFailure,
		}
		if err := v.validate(); err != nil {
			return nil, fmt.Errorf("vectors file %s entry %d: %w", path, i, err)
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}

// LoadDir loads every *.toml vector file under dir in name order.
func LoadDir(dir string) ([]Vector, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("vectors dir read failed (%s): %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	var vectors []Vector
	for _, name := range names {
		vs, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vs...)
	}
	logs.Infof("harness.LoadDir dir=%s files=%d vectors=%d", dir, len(names), len(vectors))
	return vectors, nil
}

func (v Vector) validate() error {
	if v.Name == "" {
		return fmt.Errorf("vector missing name")
	}
	if v.Method == "" {
		return fmt.Errorf("vector %q missing method", v.Name)
	}
	if v.Input != nil && v.RawInput != "" {
		return fmt.Errorf("vector %q sets both input and raw_input", v.Name)
	}
	if v.Input == nil && v.RawInput == "" {
		return fmt.Errorf("vector %q missing input", v.Name)
	}
	if v.ExpectFailure != "" && v.Expect != nil {
		return fmt.Errorf("vector %q sets both expect and expect_failure", v.Name)
	}
	if v.ExpectFailure == "" && v.Expect == nil {
		return fmt.Errorf("vector %q missing expectation", v.Name)
	}
	if v.ExpectFailure != "" {
		if _, ok := failureKinds[v.ExpectFailure]; !ok {
			return fmt.Errorf("vector %q unknown failure kind %q", v.Name, v.ExpectFailure)
		}
	}
	return nil
}

// inputBytes produces the encoded input payload for the vector.
func (v Vector) inputBytes(sch *schema.Schema) ([]byte, error) {
	if v.RawInput != "" {
		b, err := hex.DecodeString(strings.TrimSpace(v.RawInput))
		if err != nil {
			return nil, fmt.Errorf("vector %q raw_input: %w", v.Name, err)
		}
		return b, nil
	}
	md, err := sch.Method(v.Method)
	if err != nil {
		return nil, err
	}
	def, err := sch.Resolve(md.Input)
	if err != nil {
		return nil, err
	}
	val, err := literalValue(v.Input, def, sch)
	if err != nil {
		return nil, fmt.Errorf("vector %q input: %w", v.Name, err)
	}
	return codec.Encode(val, def, sch)
}

// expectedBytes produces the encoded expected output, when the vector
// expects success.
func (v Vector) expectedBytes(sch *schema.Schema) ([]byte, error) {
	md, err := sch.Method(v.Method)
	if err != nil {
		return nil, err
	}
	def, err := sch.Resolve(md.Output)
	if err != nil {
		return nil, err
	}
	val, err := literalValue(v.Expect, def, sch)
	if err != nil {
		return nil, fmt.Errorf("vector %q expect: %w", v.Name, err)
	}
	return codec.Encode(val, def, sch)
}

// literalValue builds a codec value from a field-name-keyed TOML literal.
func literalValue(lit map[string]any, def schema.MessageDef, sch *schema.Schema) (*codec.Value, error) {
	v := codec.NewValue(def.Name)
	for name, raw := range lit {
		fd, ok := def.FieldByName(name)
		if !ok {
			return nil, fmt.Errorf("message %s has no field %q", def.Name, name)
		}
		if fd.Repeated {
			items, ok := raw.([]any)
			if !ok {
				items = []any{raw}
			}
			for _, item := range items {
				s, err := literalScalar(item, fd, sch)
				if err != nil {
					return nil, err
				}
				v.Append(fd.Tag, s)
			}
			continue
		}
		s, err := literalScalar(raw, fd, sch)
		if err != nil {
			return nil, err
		}
		v.Set(fd.Tag, s)
	}
	return v, nil
}

func literalScalar(raw any, fd schema.FieldDef, sch *schema.Schema) (codec.Scalar, error) {
	switch fd.Kind {
	case schema.KindInt32:
		n, ok := raw.(int64)
		if !ok {
			return codec.Scalar{}, fmt.Errorf("field %q wants int32, got %T", fd.Name, raw)
		}
		return codec.Int32Scalar(int32(n)), nil
	case schema.KindInt64:
		n, ok := raw.(int64)
		if !ok {
			return codec.Scalar{}, fmt.Errorf("field %q wants int64, got %T", fd.Name, raw)
		}
		return codec.Int64Scalar(n), nil
	case schema.KindBool:
		b, ok := raw.(bool)
		if !ok {
			return codec.Scalar{}, fmt.Errorf("field %q wants bool, got %T", fd.Name, raw)
		}
		return codec.BoolScalar(b), nil
	case schema.KindString:
		s, ok := raw.(string)
		if !ok {
			return codec.Scalar{}, fmt.Errorf("field %q wants string, got %T", fd.Name, raw)
		}
		return codec.StringScalar(s), nil
	case schema.KindBytes:
		// Bytes are written as hex strings in vector files.
		s, ok := raw.(string)
		if !ok {
			return codec.Scalar{}, fmt.Errorf("field %q wants hex bytes, got %T", fd.Name, raw)
		}
		b, err := hex.DecodeString(s)
		if err != nil {
			return codec.Scalar{}, fmt.Errorf("field %q hex: %w", fd.Name, err)
		}
		return codec.BytesScalar(b), nil
	case schema.KindMessage:
		m, ok := raw.(map[string]any)
		if !ok {
			return codec.Scalar{}, fmt.Errorf("field %q wants table, got %T", fd.Name, raw)
		}
		nestedDef, err := sch.Resolve(fd.MessageType)
		if err != nil {
			return codec.Scalar{}, err
		}
		nested, err := literalValue(m, nestedDef, sch)
		if err != nil {
			return codec.Scalar{}, err
		}
		return codec.MessageScalar(nested), nil
	default:
		return codec.Scalar{}, fmt.Errorf("field %q has unsupported kind", fd.Name)
	}
}
