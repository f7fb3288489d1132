// Package jsonval provides a small tagged-variant JSON value type used when
// the upstream marketplace API returns payloads whose shape cannot be relied
// upon. Unlike map[string]any, object members keep their original order, which
// matters when callers scan an object's values for the first embedded array.
package jsonval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Member is a single key/value pair of a JSON object, in document order.
type Member struct {
	Key   string
	Value Value
}

// Value is one JSON value. The zero value is JSON null.
type Value struct {
	kind    Kind
	str     string // string content, or the raw literal for numbers
	boolean bool
	arr     []Value
	members []Member
	index   map[string]int
}

// Constructors, used by tests and by code that synthesizes payloads.

func Null() Value            { return Value{} }
func Bool(b bool) Value      { return Value{kind: KindBool, boolean: b} }
func String(s string) Value  { return Value{kind: KindString, str: s} }
func Number(lit string) Value { return Value{kind: KindNumber, str: lit} }

// Int returns a Value holding the given integer.
func Int(n int64) Value { return Number(strconv.FormatInt(n, 10)) }

// Array returns a Value holding the given elements.
func Array(elems ...Value) Value {
	return Value{kind: KindArray, arr: elems}
}

// Object returns a Value holding the given members in order.
func Object(members ...Member) Value {
	v := Value{kind: KindObject, members: members, index: make(map[string]int, len(members))}
	for i, m := range members {
		if _, dup := v.index[m.Key]; !dup {
			v.index[m.Key] = i
		}
	}
	return v
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is JSON null (or the zero Value).
func (v Value) IsNull() bool { return v.kind == KindNull }

// Get looks up a member of an object value. It returns false for non-objects
// and missing keys.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	i, ok := v.index[key]
	if !ok {
		return Value{}, false
	}
	return v.members[i].Value, true
}

// Members returns the object members in document order, or nil for
// non-objects.
func (v Value) Members() []Member {
	if v.kind != KindObject {
		return nil
	}
	return v.members
}

// Elements returns the array elements, or nil for non-arrays.
func (v Value) Elements() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Text renders a scalar value as a string: the content of a string, the
// literal of a number, or "true"/"false" for a bool. It returns false for
// null, arrays, and objects.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindString, KindNumber:
		return v.str, true
	case KindBool:
		return strconv.FormatBool(v.boolean), true
	default:
		return "", false
	}
}

// IntValue coerces a scalar to an integer. Numbers parse exactly when
// integral; fractional numbers and numeric strings are parsed as floats and
// truncated toward zero. The truncation matches the behavior observed from
// the upstream API, where amounts arrive as ints, floats, or quoted decimals.
func (v Value) IntValue() (int64, bool) {
	switch v.kind {
	case KindNumber, KindString:
		if n, err := strconv.ParseInt(v.str, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(v.str, 64); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}

// Parse decodes raw JSON into a Value.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, fmt.Errorf("jsonval: parse: %w", err)
	}
	return v, nil
}

// UnmarshalJSON implements json.Unmarshaler so a Value can sit directly in an
// API DTO field.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalJSON implements json.Marshaler for round-tripping values through
// handler responses.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return []byte(strconv.FormatBool(v.boolean)), nil
	case KindNumber:
		return []byte(v.str), nil
	case KindString:
		return json.Marshal(v.str)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindObject:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(m.Key)
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')
			b, err := m.Value.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("jsonval: unknown kind %d", v.kind)
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t.String()), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			var elems []Value
			for dec.More() {
				e, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				elems = append(elems, e)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Value{}, err
			}
			return Array(elems...), nil
		case '{':
			var members []Member
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is %T, not string", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				members = append(members, Member{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Value{}, err
			}
			return Object(members...), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

// blankOrNullLiteral reports whether a scalar's text should be treated as
// absent: empty, whitespace-only, or the literal word "null" (the upstream
// occasionally serializes nulls as quoted strings).
func blankOrNullLiteral(s string) bool {
	trimmed := strings.TrimSpace(s)
	return trimmed == "" || strings.EqualFold(trimmed, "null")
}

// NonBlankText returns the scalar text of v unless it is blank or a quoted
// "null" literal.
func (v Value) NonBlankText() (string, bool) {
	s, ok := v.Text()
	if !ok || blankOrNullLiteral(s) {
		return "", false
	}
	return s, true
}
