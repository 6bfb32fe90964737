package searchapi

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
)

type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindObject
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		panic("unknown value kind:" + fmt.Sprint(int(k)))
	}
}

// Value is the closed set of values an attribute may carry.
// The zero Value is null.
type Value struct {
	kind   ValueKind
	str    string
	num    float64
	b      bool
	items  []Value
	fields *Attributes
}

func Null() Value {
	return Value{kind: KindNull}
}

func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number holds a float64, so integers are exact only within ±2^53.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

func List(items ...Value) Value {
	return Value{kind: KindList, items: slices.Clone(items)}
}

// Object wraps a nested attribute collection. A nil collection is an empty object.
func Object(fields *Attributes) Value {
	if fields == nil {
		fields = NewAttributes()
	}
	return Value{kind: KindObject, fields: fields}
}

func (v Value) Kind() ValueKind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

func (v Value) Str() string {
	return v.str
}

func (v Value) Num() float64 {
	return v.num
}

func (v Value) Boolean() bool {
	return v.b
}

func (v Value) Items() []Value {
	return v.items
}

func (v Value) Fields() *Attributes {
	if v.kind == KindObject && v.fields == nil {
		return NewAttributes()
	}
	return v.fields
}

// Equal reports deep equality. List order and object field order are significant.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindList:
		return slices.EqualFunc(v.items, o.items, Value.Equal)
	case KindObject:
		return v.Fields().Equal(o.Fields())
	default:
		return false
	}
}

// Any converts the value into plain go values: nil, string, float64, bool, []any and map[string]any.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindList:
		res := make([]any, 0, len(v.items))
		for _, item := range v.items {
			res = append(res, item.Any())
		}
		return res
	case KindObject:
		return v.Fields().Map()
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return fmt.Sprintf("%q", v.str)
	case KindObject:
		return fmt.Sprint(v.Fields().Map())
	default:
		return fmt.Sprint(v.Any())
	}
}

// maxExactInt is the largest integer a float64 holds without rounding
const maxExactInt = 1 << 53

func exactInt(i int64) (Value, error) {
	if i > maxExactInt || i < -maxExactInt {
		return Value{}, fmt.Errorf("%w: integer %d is not exact as a number", ErrUnsupportedValue, i)
	}
	return Number(float64(i)), nil
}

func exactUint(u uint64) (Value, error) {
	if u > maxExactInt {
		return Value{}, fmt.Errorf("%w: integer %d is not exact as a number", ErrUnsupportedValue, u)
	}
	return Number(float64(u)), nil
}

// FromAny converts plain go values into a Value.
// Integers beyond ±2^53 are rejected since a Number would round them.
// Map keys are sorted since go maps carry no order.
func FromAny(in any) (Value, error) {
	switch t := in.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Attributes:
		return Object(t), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return checkedNumber(t)
	case float32:
		return checkedNumber(float64(t))
	case int:
		return exactInt(int64(t))
	case int8:
		return Number(float64(t)), nil
	case int16:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case int64:
		return exactInt(t)
	case uint:
		return exactUint(uint64(t))
	case uint8:
		return Number(float64(t)), nil
	case uint16:
		return Number(float64(t)), nil
	case uint32:
		return Number(float64(t)), nil
	case uint64:
		return exactUint(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
		}
		return checkedNumber(f)
	case []string:
		items := make([]Value, 0, len(t))
		for _, s := range t {
			items = append(items, String(s))
		}
		return Value{kind: KindList, items: items}, nil
	case []any:
		items := make([]Value, 0, len(t))
		for _, e := range t {
			item, err := FromAny(e)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return Value{kind: KindList, items: items}, nil
	case map[string]any:
		fields := NewAttributes()
		for _, k := range slices.Sorted(maps.Keys(t)) {
			item, err := FromAny(t[k])
			if err != nil {
				return Value{}, err
			}
			fields.Set(k, item)
		}
		return Object(fields), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, in)
	}
}

func checkedNumber(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("%w: non-finite number", ErrUnsupportedValue)
	}
	return Number(f), nil
}
