// Package props models the type-specific rendering metadata carried by a
// block. The value space is deliberately narrow: strings, numbers, booleans
// and nested mappings. Anything else a client sends is rejected rather than
// stored opaquely.
package props

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Kind discriminates the value union.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindMap
)

// Value is one entry of a props mapping.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	m    Props
}

// Props is the property mapping stored on a block.
type Props map[string]Value

func String(s string) Value  { return Value{kind: KindString, str: s} }
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Map(m Props) Value      { return Value{kind: KindMap, m: m} }

func (v Value) Kind() Kind { return v.kind }

// String returns the string payload; zero value for other kinds.
func (v Value) String() string { return v.str }

// Number returns the numeric payload; zero value for other kinds.
func (v Value) Number() float64 { return v.num }

// Bool returns the boolean payload; zero value for other kinds.
func (v Value) Bool() bool { return v.b }

// Map returns the nested mapping; nil for other kinds.
func (v Value) Map() Props { return v.m }

// MarshalJSON encodes the underlying payload directly.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindMap:
		if v.m == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.m)
	}
	return nil, fmt.Errorf("props: unknown kind %d", v.kind)
}

// UnmarshalJSON decodes a string, number, boolean or nested object.
// Arrays are not part of the union and fail decoding.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	val, ok, err := fromInterface(raw)
	if err != nil {
		return err
	}
	if !ok {
		// Bare null. Mappings drop null entries before reaching here;
		// a standalone null has no meaningful representation.
		return fmt.Errorf("props: null is not a valid value")
	}
	*v = val
	return nil
}

func fromInterface(raw interface{}) (Value, bool, error) {
	switch t := raw.(type) {
	case nil:
		return Value{}, false, nil
	case string:
		return String(t), true, nil
	case float64:
		return Number(t), true, nil
	case bool:
		return Bool(t), true, nil
	case map[string]interface{}:
		m := make(Props, len(t))
		for k, rv := range t {
			val, ok, err := fromInterface(rv)
			if err != nil {
				return Value{}, false, err
			}
			if !ok {
				continue // drop null entries
			}
			m[k] = val
		}
		return Map(m), true, nil
	default:
		return Value{}, false, fmt.Errorf("props: unsupported value type %T", raw)
	}
}

// UnmarshalJSON decodes a JSON object into a props mapping, dropping null
// entries at the top level.
func (p *Props) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m := make(Props, len(raw))
	for k, rv := range raw {
		val, ok, err := fromInterface(rv)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		m[k] = val
	}
	*p = m
	return nil
}

// Value implements driver.Valuer so props persist as a JSON column.
// A nil mapping persists as SQL NULL.
func (p Props) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner. NULL scans to a nil mapping; callers
// normalize to an empty mapping on output.
func (p *Props) Scan(src interface{}) error {
	if src == nil {
		*p = nil
		return nil
	}
	var data []byte
	switch t := src.(type) {
	case []byte:
		data = t
	case string:
		data = []byte(t)
	default:
		return fmt.Errorf("props: cannot scan %T", src)
	}
	if len(data) == 0 {
		*p = nil
		return nil
	}
	return json.Unmarshal(data, p)
}
