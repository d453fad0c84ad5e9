package directory

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the JSON type held by a Value.
type Kind int

// Value kinds, covering the whole JSON type system.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

// Value is a tagged representation of an arbitrary upstream JSON payload.
// The directory schema is not contractually stable, so everything that walks
// a payload does it over this type instead of type-switching on interface{}.
type Value struct {
	Kind Kind
	Bool bool
	Num  float64
	Str  string
	List []Value
	Map  map[string]Value
}

// UnmarshalJSON decodes any JSON document into a Value tree.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	*v = fromAny(raw)
	return nil
}

// MarshalJSON re-serializes the Value tree, with map keys sorted for
// determinism. Used to preserve raw payloads for audit.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.Bool)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindString:
		return json.Marshal(v.Str)
	case KindList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	case KindMap:
		var b strings.Builder
		b.WriteByte('{')
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			vb, err := json.Marshal(v.Map[k])
			if err != nil {
				return nil, err
			}
			b.Write(kb)
			b.WriteByte(':')
			b.Write(vb)
		}
		b.WriteByte('}')
		return []byte(b.String()), nil
	}
	return nil, fmt.Errorf("unknown value kind %d", v.Kind)
}

func fromAny(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return Value{Kind: KindNull}
	case bool:
		return Value{Kind: KindBool, Bool: t}
	case float64:
		return Value{Kind: KindNumber, Num: t}
	case string:
		return Value{Kind: KindString, Str: t}
	case []any:
		list := make([]Value, 0, len(t))
		for _, item := range t {
			list = append(list, fromAny(item))
		}
		return Value{Kind: KindList, List: list}
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			m[k] = fromAny(item)
		}
		return Value{Kind: KindMap, Map: m}
	}
	return Value{Kind: KindNull}
}

// Field returns the named map entry, or false when v is not a map or the key
// is absent.
func (v Value) Field(key string) (Value, bool) {
	if v.Kind != KindMap {
		return Value{}, false
	}
	f, ok := v.Map[key]
	return f, ok
}

// Text returns the value rendered as a string: strings verbatim, numbers in
// their shortest form, everything else empty.
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return ""
}

// FieldText returns the named field rendered via Text.
func (v Value) FieldText(key string) string {
	f, ok := v.Field(key)
	if !ok {
		return ""
	}
	return f.Text()
}

// WalkStrings visits every string in the tree in a deterministic order:
// list elements in order, map entries by sorted key.
func WalkStrings(v Value, visit func(s string)) {
	switch v.Kind {
	case KindString:
		visit(v.Str)
	case KindList:
		for _, item := range v.List {
			WalkStrings(item, visit)
		}
	case KindMap:
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			WalkStrings(v.Map[k], visit)
		}
	}
}
