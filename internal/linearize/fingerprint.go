package linearize

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// fingerprintDomain separates program digests from any other hashed
// artifact. The version suffix enables future layout migration.
const fingerprintDomain = "exprc/program/v1"

// Fingerprint returns a stable hex digest identifying the compiled program.
//
// Two programs with identical instruction streams fingerprint identically
// regardless of the tree they were compiled from, so consumers may key
// kernel or plan caches on the digest. The rendering is canonical JSON:
// object keys sorted, strings NFC-normalized, no HTML escaping, and float
// literal payloads rendered as raw bit patterns rather than decimal text
// (decimal formatting is not canonical; bit patterns are).
func (p *Program) Fingerprint() string {
	refs := make([]any, len(p.dataReferences))
	for i, ref := range p.dataReferences {
		m := map[string]any{
			"kind":  ref.Kind.String(),
			"type":  ref.Type.String(),
			"index": ref.Index,
		}
		if ref.Kind == Column {
			m["side"] = ref.Side.String()
		}
		refs[i] = m
	}

	ops := make([]any, len(p.operators))
	for i, op := range p.operators {
		ops[i] = op.String()
	}

	sources := make([]any, len(p.operatorSourceIndices))
	for i, idx := range p.operatorSourceIndices {
		sources[i] = idx
	}

	lits := make([]any, len(p.literals))
	for i, lit := range p.literals {
		lits[i] = map[string]any{
			"type": lit.Type().String(),
			"bits": fmt.Sprintf("0x%016x", lit.Bits()),
		}
	}

	canonical, err := marshalCanonical(map[string]any{
		"data_references":         refs,
		"operators":               ops,
		"operator_source_indices": sources,
		"literals":                lits,
		"root_type":               p.rootType.String(),
		"peak_intermediate_count": p.peak,
	})
	if err != nil {
		// The dump above contains only strings, ints, maps, and slices,
		// all of which marshalCanonical accepts.
		panic(fmt.Sprintf("program fingerprint: %v", err))
	}

	h := sha256.New()
	h.Write([]byte(fingerprintDomain))
	h.Write([]byte{0x00}) // null separator prevents domain/data ambiguity
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil))
}

// marshalCanonical renders a value tree of strings, ints, bools, []any,
// and map[string]any as canonical JSON: keys sorted, strings NFC
// normalized, no HTML escaping, floats and nulls forbidden.
func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return marshalCanonicalString(val)
	case int:
		return []byte(fmt.Sprintf("%d", val)), nil
	case int64:
		return []byte(fmt.Sprintf("%d", val)), nil
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			data, err := marshalCanonical(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			buf.Write(data)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyData, err := marshalCanonicalString(k)
			if err != nil {
				return nil, err
			}
			buf.Write(keyData)
			buf.WriteByte(':')
			data, err := marshalCanonical(val[k])
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			buf.Write(data)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// marshalCanonicalString produces a canonical JSON string: NFC normalized
// at the serialization boundary, with HTML escaping disabled.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds a trailing newline, remove it.
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}
	return result, nil
}
