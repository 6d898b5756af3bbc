package csv2jsonl

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Mode selects how field text is typed.
type Mode uint8

const (
	// InferTypes turns empty fields into null and round-trip safe numerals into
	// numbers.
	InferTypes Mode = iota
	// NoInference emits every field as a string.
	NoInference
)

func (m Mode) String() string {
	if m == NoInference {
		return "none"
	}
	return "infer"
}

// Kind tags a Value.
type Kind uint8

const (
	KindString Kind = iota
	KindNull
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	default:
		return "string"
	}
}

// Value is a typed cell. For numbers Text holds the JSON literal, which is
// byte-identical to the source field.
type Value struct {
	Kind Kind
	Text string
}

// Null is the value of an empty field under InferTypes.
var Null = Value{Kind: KindNull}

// String returns a string value.
func String(s string) Value {
	return Value{Kind: KindString, Text: s}
}

// Infer types a single field. It depends only on its arguments.
func Infer(field string, mode Mode) Value {
	if mode == NoInference {
		return String(field)
	}
	if field == "" {
		return Null
	}
	if lit, ok := parseNumber(field); ok && canonicalNumber(lit) == field {
		return Value{Kind: KindNumber, Text: field}
	}
	return String(field)
}

// Object is a row of typed values in header order.
type Object struct {
	Keys   []string
	Values []Value
}

// InferRow types every field of row. The returned Object reuses dst's backing
// storage when it is large enough.
func InferRow(dst Object, row Row, mode Mode) Object {
	dst.Keys = row.Columns
	if cap(dst.Values) < len(row.Fields) {
		dst.Values = make([]Value, len(row.Fields))
	}
	dst.Values = dst.Values[:len(row.Fields)]
	for i, field := range row.Fields {
		dst.Values[i] = Infer(field, mode)
	}
	return dst
}

// parseNumber reports whether field holds a JSON number and returns the
// literal as the JSON decoder saw it.
func parseNumber(field string) (string, bool) {
	if c := field[0]; c != '-' && (c < '0' || c > '9') {
		return "", false
	}
	var n json.Number
	if err := json.Unmarshal([]byte(field), &n); err != nil {
		return "", false
	}
	return n.String(), true
}

// canonicalNumber renders a JSON number literal the way this package writes
// numbers: plain base-10 integers when they fit 64 bits, otherwise the
// shortest decimal that parses back to the same float64, always with a
// fractional part and never in exponent form. The empty string means the
// literal has no finite rendering.
func canonicalNumber(lit string) string {
	if !strings.ContainsAny(lit, ".eE") {
		if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return strconv.FormatInt(i, 10)
		}
		if u, err := strconv.ParseUint(lit, 10, 64); err == nil {
			return strconv.FormatUint(u, 10)
		}
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return ""
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
