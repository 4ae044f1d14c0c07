// Package step reads and writes ISO 10303-21 ("STEP Part 21") exchange
// files: a HEADER section of schema metadata followed by a DATA section of
// numbered entity instances.
package step

import (
	"strconv"
	"strings"
)

// Kind identifies the type of a parameter value
type Kind int

const (
	KindUnset   Kind = iota // $
	KindDerived             // *
	KindInt
	KindReal
	KindString
	KindEnum   // .NAME.
	KindRef    // #123
	KindList   // (a,b,c)
	KindTyped  // NAME(value), e.g. LENGTH_MEASURE(1.E-07)
	KindBinary // "0123"
)

// Value is one parameter of an entity instance
type Value struct {
	Kind Kind
	Int  int64
	Real float64
	Str  string // string text, enum name, typed-parameter name or binary digits
	Ref  int
	List []Value
}

// Unset returns the $ placeholder
func Unset() Value { return Value{Kind: KindUnset} }

// Derived returns the * placeholder
func Derived() Value { return Value{Kind: KindDerived} }

// Int returns an integer value
func Int(i int64) Value { return Value{Kind: KindInt, Int: i} }

// Real returns a real value
func Real(f float64) Value { return Value{Kind: KindReal, Real: f} }

// String returns a string value
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Enum returns an enumeration value such as .MILLI.
func Enum(s string) Value { return Value{Kind: KindEnum, Str: strings.ToUpper(s)} }

// Bool returns the logical enumeration .T. or .F.
func Bool(b bool) Value {
	if b {
		return Enum("T")
	}
	return Enum("F")
}

// Ref returns a reference to entity #id
func Ref(id int) Value { return Value{Kind: KindRef, Ref: id} }

// List returns an aggregate value
func List(values ...Value) Value {
	if values == nil {
		values = []Value{}
	}
	return Value{Kind: KindList, List: values}
}

// Typed returns a typed parameter such as LENGTH_MEASURE(1.E-07)
func Typed(name string, v Value) Value {
	return Value{Kind: KindTyped, Str: strings.ToUpper(name), List: []Value{v}}
}

// Reals is a shorthand for a list of reals
func Reals(fs ...float64) Value {
	values := make([]Value, len(fs))
	for i, f := range fs {
		values[i] = Real(f)
	}
	return List(values...)
}

// Ints is a shorthand for a list of integers
func Ints(is ...int64) Value {
	values := make([]Value, len(is))
	for i, n := range is {
		values[i] = Int(n)
	}
	return List(values...)
}

// Refs is a shorthand for a list of references
func Refs(ids ...int) Value {
	values := make([]Value, len(ids))
	for i, id := range ids {
		values[i] = Ref(id)
	}
	return List(values...)
}

// AsFloat returns the numeric value of an int or real parameter
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindReal:
		return v.Real, true
	case KindInt:
		return float64(v.Int), true
	case KindTyped:
		if len(v.List) == 1 {
			return v.List[0].AsFloat()
		}
	}
	return 0, false
}

// AsInt returns the value of an integer parameter
func (v Value) AsInt() (int64, bool) {
	if v.Kind == KindInt {
		return v.Int, true
	}
	return 0, false
}

// AsRef returns the referenced entity id
func (v Value) AsRef() (int, bool) {
	if v.Kind == KindRef {
		return v.Ref, true
	}
	return 0, false
}

// AsString returns the text of a string parameter
func (v Value) AsString() (string, bool) {
	if v.Kind == KindString {
		return v.Str, true
	}
	return "", false
}

// AsList returns the members of an aggregate
func (v Value) AsList() ([]Value, bool) {
	if v.Kind == KindList {
		return v.List, true
	}
	return nil, false
}

// String renders the value in Part 21 syntax
func (v Value) String() string {
	var sb strings.Builder
	writeValue(&sb, v)
	return sb.String()
}

func writeValue(sb *strings.Builder, v Value) {
	switch v.Kind {
	case KindUnset:
		sb.WriteByte('$')
	case KindDerived:
		sb.WriteByte('*')
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.Int, 10))
	case KindReal:
		sb.WriteString(formatReal(v.Real))
	case KindString:
		sb.WriteString(quote(v.Str))
	case KindEnum:
		sb.WriteByte('.')
		sb.WriteString(v.Str)
		sb.WriteByte('.')
	case KindRef:
		sb.WriteByte('#')
		sb.WriteString(strconv.Itoa(v.Ref))
	case KindBinary:
		sb.WriteByte('"')
		sb.WriteString(v.Str)
		sb.WriteByte('"')
	case KindList:
		sb.WriteByte('(')
		for i, item := range v.List {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeValue(sb, item)
		}
		sb.WriteByte(')')
	case KindTyped:
		sb.WriteString(v.Str)
		sb.WriteByte('(')
		for i, item := range v.List {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeValue(sb, item)
		}
		sb.WriteByte(')')
	}
}

// formatReal renders a float with the mandatory decimal point: 1 -> 1.,
// 1e-07 -> 1.E-07
func formatReal(f float64) string {
	s := strconv.FormatFloat(f, 'G', -1, 64)
	if strings.ContainsAny(s, ".NI") { // already has a point, or NaN/Inf
		return s
	}
	if i := strings.IndexByte(s, 'E'); i >= 0 {
		return s[:i] + "." + s[i:]
	}
	return s + "."
}

// quote encodes a string literal. Apostrophes and backslashes are doubled
// and characters outside printable ASCII use the \X2\ hex escape.
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	var wide []rune
	flush := func() {
		if len(wide) == 0 {
			return
		}
		sb.WriteString(`\X2\`)
		for _, r := range wide {
			if r > 0xFFFF {
				r = '?'
			}
			sb.WriteString(strings.ToUpper(strconv.FormatInt(int64(r)|0x10000, 16)[1:]))
		}
		sb.WriteString(`\X0\`)
		wide = wide[:0]
	}
	for _, r := range s {
		if r < 0x20 || r > 0x7E {
			wide = append(wide, r)
			continue
		}
		flush()
		switch r {
		case '\'':
			sb.WriteString("''")
		case '\\':
			sb.WriteString(`\\`)
		default:
			sb.WriteRune(r)
		}
	}
	flush()
	sb.WriteByte('\'')
	return sb.String()
}
