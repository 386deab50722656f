// Package style implements the value-typed option algebra the search engine
// operates on: a Value is a tagged sum of bool/int/string/nested style, a
// Style is an ordered mapping from option name to Value, and Merge/Diff/
// Signature give the pure operations the engine needs to stay correct.
package style

import (
	"fmt"
	"strconv"
)

// Kind tags the dynamic type carried by a Value.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindString
	KindStyle
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindStyle:
		return "style"
	default:
		return "unknown"
	}
}

// Value is the tagged variant every option assignment is stored as. Only the
// field matching Kind is meaningful; the zero Value is the boolean false.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Str   string
	Style Style
}

// BoolValue constructs a boolean Value.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// IntValue constructs an integer Value.
func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }

// StrValue constructs a string Value.
func StrValue(s string) Value { return Value{Kind: KindString, Str: s} }

// StyleValue constructs a nested-style Value.
func StyleValue(s Style) Value { return Value{Kind: KindStyle, Style: s} }

// Equal reports whether two values have the same kind and content. Nested
// styles compare by Signature so key order never affects equality.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindBool:
		return v.Bool == o.Bool
	case KindInt:
		return v.Int == o.Int
	case KindString:
		return v.Str == o.Str
	case KindStyle:
		return v.Style.Signature() == o.Style.Signature()
	default:
		return false
	}
}

// Text renders a Value the way the normalized signature and inline style
// text require: booleans as true/false, integers in decimal, strings
// verbatim, nested styles in braces.
func (v Value) Text() string {
	switch v.Kind {
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindString:
		return v.Str
	case KindStyle:
		return "{" + v.Style.Signature() + "}"
	default:
		return ""
	}
}

// Typeconv normalizes a loosely-typed value (as produced by a YAML-flow
// parse or a CLI flag) into a Value, applying "true"/"false" string
// conversion to bool and decimal-literal string conversion to int the way a
// single conversion function should, per the "Dynamic option values" design
// note: normalization belongs in one place.
func Typeconv(raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case bool:
		return BoolValue(t), nil
	case int:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case Style:
		return StyleValue(t), nil
	case string:
		switch t {
		case "true":
			return BoolValue(true), nil
		case "false":
			return BoolValue(false), nil
		}
		if i, err := strconv.ParseInt(t, 10, 64); err == nil {
			return IntValue(i), nil
		}
		return StrValue(t), nil
	default:
		return Value{}, fmt.Errorf("style: cannot convert %T to a Value", raw)
	}
}
