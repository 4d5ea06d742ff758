package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Params is an insertion-ordered set of request parameters. Keys are unique;
// setting an existing key replaces its value and keeps its position. The zero
// value is empty and ready to use, and a nil *Params reads as empty.
type Params struct {
	om *orderedmap.OrderedMap[string, any]
}

// NewParams returns an empty parameter set.
func NewParams() *Params {
	return &Params{om: orderedmap.New[string, any]()}
}

// ParamsFromMap builds a parameter set from m with keys in sorted order.
func ParamsFromMap(m map[string]any) *Params {
	p := NewParams()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		p.Set(k, m[k])
	}
	return p
}

// Set stores value under key and returns p for chaining.
func (p *Params) Set(key string, value any) *Params {
	if p.om == nil {
		p.om = orderedmap.New[string, any]()
	}
	p.om.Set(key, value)
	return p
}

// Get returns the value stored under key.
func (p *Params) Get(key string) (any, bool) {
	if p == nil || p.om == nil {
		return nil, false
	}
	return p.om.Get(key)
}

// Len returns the number of keys.
func (p *Params) Len() int {
	if p == nil || p.om == nil {
		return 0
	}
	return p.om.Len()
}

// Keys returns the keys in insertion order.
func (p *Params) Keys() []string {
	keys := make([]string, 0, p.Len())
	p.Each(func(k string, _ any) {
		keys = append(keys, k)
	})
	return keys
}

// Each calls fn for every pair in insertion order.
func (p *Params) Each(fn func(key string, value any)) {
	if p == nil || p.om == nil {
		return
	}
	for pair := p.om.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Clone returns a deep copy. Nested maps, slices and parameter sets are
// copied; scalar values are shared.
func (p *Params) Clone() *Params {
	out := NewParams()
	p.Each(func(k string, v any) {
		out.Set(k, cloneValue(v))
	})
	return out
}

// ToMap returns the parameters as a plain map, losing order.
func (p *Params) ToMap() map[string]any {
	out := make(map[string]any, p.Len())
	p.Each(func(k string, v any) {
		if nested, ok := v.(*Params); ok {
			v = nested.ToMap()
		}
		out[k] = v
	})
	return out
}

// MarshalJSON encodes the parameters as a JSON object in insertion order.
func (p *Params) MarshalJSON() ([]byte, error) {
	if p == nil || p.om == nil {
		return []byte("{}"), nil
	}
	return p.om.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, keeping the order of its top-level keys.
// Numbers decode to json.Number so the body is sent back exactly as read.
func (p *Params) UnmarshalJSON(data []byte) error {
	om := orderedmap.New[string, any]()
	if trimmed := bytes.TrimSpace(data); !bytes.Equal(trimmed, []byte("null")) {
		raw := orderedmap.New[string, json.RawMessage]()
		if err := raw.UnmarshalJSON(trimmed); err != nil {
			return err
		}
		for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
			var v any
			if err := decodeJSON(string(pair.Value), &v); err != nil {
				return fmt.Errorf("param %q: %w", pair.Key, err)
			}
			om.Set(pair.Key, v)
		}
	}
	p.om = om
	return nil
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Params:
		return t.Clone()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = cloneValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = cloneValue(inner)
		}
		return out
	case []string:
		return slices.Clone(t)
	default:
		return v
	}
}

// stringValue renders a parameter value the way it appears in a query string.
// Strings pass through unchanged; structured values are JSON-encoded.
func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(t)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
