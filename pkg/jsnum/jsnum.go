// Package jsnum holds the number conversions shared by the folder and the
// interpreter.
package jsnum

import (
	"math"
	"strconv"
	"strings"
)

// ToString converts f the way scripts print numbers.
func ToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0" // -0 too
	}
	abs := math.Abs(f)
	if abs < 1e-6 || abs >= 1e21 {
		return cleanExponent(strconv.FormatFloat(f, 'e', -1, 64))
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// cleanExponent strips leading zeros from the exponent Go prints, so
// 1.5e-07 becomes 1.5e-7.
func cleanExponent(s string) string {
	i := strings.IndexAny(s, "eE")
	if i < 0 || i+1 >= len(s) {
		return s
	}
	sign := s[i+1]
	if sign != '+' && sign != '-' {
		return s
	}
	j := i + 2
	for j < len(s)-1 && s[j] == '0' {
		j++
	}
	return s[:i+1] + string(sign) + s[j:]
}

// Parse converts a string to a number: surrounding white space is
// ignored, the empty string is 0, 0x introduces hex, and anything that
// is not a numeric literal is NaN.
func Parse(s string) float64 {
	str := strings.TrimSpace(s)
	if str == "" {
		return 0
	}

	if len(str) > 2 && str[0] == '0' && (str[1] == 'x' || str[1] == 'X') {
		v := 0.0
		for i := 2; i < len(str); i++ {
			d := hexDigit(str[i])
			if d < 0 {
				return math.NaN()
			}
			v = v*16 + float64(d)
		}
		return v
	}

	switch str {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	// ParseFloat also takes inf, nan, hex floats and underscores, none of
	// which are numeric literals here.
	for i := 0; i < len(str); i++ {
		c := str[i]
		if !(c >= '0' && c <= '9') && c != '.' && c != 'e' && c != 'E' && c != '+' && c != '-' {
			return math.NaN()
		}
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}

func hexDigit(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

// ToUint32 wraps f modulo 2^32.
func ToUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	m := math.Mod(math.Trunc(f), 1<<32)
	if m < 0 {
		m += 1 << 32
	}
	return uint32(m)
}

// ToInt32 wraps f into the signed 32-bit range.
func ToInt32(f float64) int32 {
	return int32(ToUint32(f))
}

// Truthy reports whether f converts to true.
func Truthy(f float64) bool {
	return f != 0 && !math.IsNaN(f)
}

// ArithOp selects a binary numeric operation.
type ArithOp int

const (
	Add ArithOp = iota
	Sub
	Mul
	Div
	Mod
	Lsh
	Rsh
	Ursh
	BitOr
	BitXor
	BitAnd
)

// Arith applies op to d and d2 with IEEE semantics for division and
// remainder by zero.
func Arith(op ArithOp, d, d2 float64) float64 {
	switch op {
	case Add:
		return d + d2
	case Sub:
		return d - d2
	case Mul:
		return d * d2
	case Div:
		if d2 == 0 {
			if d == 0 || math.IsNaN(d) || math.IsNaN(d2) {
				return math.NaN()
			}
			if math.Signbit(d) != math.Signbit(d2) {
				return math.Inf(-1)
			}
			return math.Inf(1)
		}
		return d / d2
	case Mod:
		if d2 == 0 {
			return math.NaN()
		}
		return math.Mod(d, d2)
	case Lsh:
		return float64(ToInt32(d) << (ToUint32(d2) & 31))
	case Rsh:
		return float64(ToInt32(d) >> (ToUint32(d2) & 31))
	case Ursh:
		return float64(ToUint32(d) >> (ToUint32(d2) & 31))
	case BitOr:
		return float64(ToInt32(d) | ToInt32(d2))
	case BitXor:
		return float64(ToInt32(d) ^ ToInt32(d2))
	case BitAnd:
		return float64(ToInt32(d) & ToInt32(d2))
	}
	return math.NaN()
}
