package jwtx

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned when a compact token cannot be decoded.
var ErrMalformed = errors.New("jwtx: malformed token")

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// Value is a decoded claim value. Callers switch on Kind or use the typed
// accessors, which report whether the value holds that variant.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	arr  []Value
	obj  map[string]Value
}

// ValueOf converts a JSON-decoded Go value into a Value. Unknown types
// become KindNull.
func ValueOf(v any) Value {
	switch t := v.(type) {
	case string:
		return Value{kind: KindString, str: t}
	case float64:
		return Value{kind: KindNumber, num: t}
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{kind: KindString, str: t.String()}
		}
		return Value{kind: KindNumber, num: f}
	case int:
		return Value{kind: KindNumber, num: float64(t)}
	case int64:
		return Value{kind: KindNumber, num: float64(t)}
	case bool:
		return Value{kind: KindBool, b: t}
	case []any:
		arr := make([]Value, len(t))
		for i, item := range t {
			arr[i] = ValueOf(item)
		}
		return Value{kind: KindArray, arr: arr}
	case []string:
		arr := make([]Value, len(t))
		for i, item := range t {
			arr[i] = Value{kind: KindString, str: item}
		}
		return Value{kind: KindArray, arr: arr}
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, item := range t {
			obj[k] = ValueOf(item)
		}
		return Value{kind: KindObject, obj: obj}
	default:
		return Value{}
	}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) String() (string, bool) { return v.str, v.kind == KindString }

func (v Value) Number() (float64, bool) { return v.num, v.kind == KindNumber }

func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) Array() ([]Value, bool) { return v.arr, v.kind == KindArray }

func (v Value) Object() (map[string]Value, bool) { return v.obj, v.kind == KindObject }

// Strings returns the string members of an array value. Non-string members
// are skipped; ok is false when the value is not an array.
func (v Value) Strings() ([]string, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	out := make([]string, 0, len(v.arr))
	for _, item := range v.arr {
		if s, ok := item.String(); ok {
			out = append(out, s)
		}
	}
	return out, true
}

// Interface converts the value back into plain Go types.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = ValueOf(raw)
	return nil
}

// Claims is the decoded payload of a compact token.
type Claims map[string]Value

// Get returns the claim named key, if present.
func (c Claims) Get(key string) (Value, bool) {
	v, ok := c[key]
	return v, ok
}

// String returns a string claim or "" when absent or not a string.
func (c Claims) String(key string) string {
	s, _ := c[key].String()
	return s
}

// Strings returns a string-array claim or nil.
func (c Claims) Strings(key string) []string {
	s, _ := c[key].Strings()
	return s
}

// Keys returns the claim names in sorted order.
func (c Claims) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Decode parses the payload of a compact token WITHOUT verifying its
// signature. Only use it on tokens received directly from the token endpoint
// over TLS, or after a Verifier has accepted them.
func Decode(raw string) (Claims, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformed)
	}

	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, mc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	claims := make(Claims, len(mc))
	for k, v := range mc {
		claims[k] = ValueOf(v)
	}
	return claims, nil
}
