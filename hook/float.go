package hook

import (
	"math/bits"
)

// 64-bit packed decimal float used by the float_* host apis.
//
// Layout inside an int64 (valid encodings are always >= 0):
//
//	bit  62      sign, 1 = positive
//	bits 54..61  exponent, biased by +97
//	bits 0..53   mantissa, normalized to [10^15, 10^16) for nonzero values
//
// Canonical zero is all bits clear. The value INVALID_FLOAT (-10024) is
// reserved and never a valid encoding.
const (
	minMantissa  uint64 = 1000000000000000 // 10^15
	maxMantissa  uint64 = 9999999999999999 // 10^16 - 1
	minExponent  int32  = -96
	maxExponent  int32  = 80
	exponentBias int32  = 97

	floatSignBit = int64(1) << 62
)

var pow10 = [...]uint64{
	1, 10, 100, 1000, 10000, 100000, 1000000, 10000000, 100000000,
	1000000000, 10000000000, 100000000000, 1000000000000, 10000000000000,
	100000000000000, 1000000000000000, 10000000000000000,
}

func floatEncode(negative bool, exponent int32, mantissa uint64) int64 {
	if mantissa == 0 {
		return 0
	}
	f := int64(mantissa) | (int64(exponent+exponentBias) << 54)
	if !negative {
		f |= floatSignBit
	}
	return f
}

func floatDecode(f int64) (negative bool, exponent int32, mantissa uint64, ok bool) {
	if f == 0 {
		return false, 0, 0, true
	}
	if f < 0 {
		return false, 0, 0, false
	}
	mantissa = uint64(f) & ((1 << 54) - 1)
	exponent = int32((f>>54)&0xFF) - exponentBias
	negative = f&floatSignBit == 0
	if mantissa < minMantissa || mantissa > maxMantissa {
		return false, 0, 0, false
	}
	if exponent < minExponent || exponent > maxExponent {
		return false, 0, 0, false
	}
	return negative, exponent, mantissa, true
}

// floatNormalize shifts a raw mantissa/exponent pair into canonical form.
// A mantissa that decays to zero yields canonical zero.
func floatNormalize(negative bool, exponent int64, mantissa uint64) int64 {
	if mantissa == 0 {
		return 0
	}
	for mantissa < minMantissa {
		if exponent <= int64(minExponent)-16 {
			return 0
		}
		mantissa *= 10
		exponent--
	}
	for mantissa > maxMantissa {
		mantissa /= 10
		exponent++
	}
	if mantissa == 0 {
		return 0
	}
	if exponent < int64(minExponent) {
		return 0 // underflow collapses to canonical zero
	}
	if exponent > int64(maxExponent) {
		return OVERFLOW
	}
	return floatEncode(negative, int32(exponent), mantissa)
}

// FloatSet builds a float from a raw exponent and signed mantissa.
func FloatSet(exponent int32, mantissa int64) int64 {
	if mantissa == 0 {
		return 0
	}
	if exponent > maxExponent+15 {
		return EXPONENT_OVERSIZED
	}
	if exponent < minExponent-15 {
		return EXPONENT_UNDERSIZED
	}
	negative := mantissa < 0
	m := uint64(mantissa)
	if negative {
		m = uint64(-mantissa)
	}
	r := floatNormalize(negative, int64(exponent), m)
	if r == OVERFLOW {
		return INVALID_FLOAT
	}
	return r
}

// FloatOne is the canonical encoding of 1.
func FloatOne() int64 {
	return floatEncode(false, -15, minMantissa)
}

func FloatExponent(f int64) int64 {
	_, exp, _, ok := floatDecode(f)
	if !ok {
		return INVALID_FLOAT
	}
	if f == 0 {
		return 0
	}
	return int64(exp)
}

func FloatMantissa(f int64) int64 {
	_, _, mant, ok := floatDecode(f)
	if !ok {
		return INVALID_FLOAT
	}
	return int64(mant)
}

// FloatSign returns 1 for negative floats, 0 otherwise.
func FloatSign(f int64) int64 {
	neg, _, _, ok := floatDecode(f)
	if !ok {
		return INVALID_FLOAT
	}
	if neg {
		return 1
	}
	return 0
}

func FloatExponentSet(f int64, exponent int32) int64 {
	neg, _, mant, ok := floatDecode(f)
	if !ok {
		return INVALID_FLOAT
	}
	if f == 0 {
		return 0
	}
	if exponent > maxExponent {
		return EXPONENT_OVERSIZED
	}
	if exponent < minExponent {
		return EXPONENT_UNDERSIZED
	}
	return floatEncode(neg, exponent, mant)
}

func FloatMantissaSet(f int64, mantissa int64) int64 {
	neg, exp, _, ok := floatDecode(f)
	if !ok {
		return INVALID_FLOAT
	}
	if mantissa == 0 {
		return 0
	}
	m := uint64(mantissa)
	if mantissa < 0 {
		neg = true
		m = uint64(-mantissa)
	}
	if m > maxMantissa {
		return MANTISSA_OVERSIZED
	}
	if m < minMantissa {
		return MANTISSA_UNDERSIZED
	}
	return floatEncode(neg, exp, m)
}

func FloatSignSet(f int64, negative uint32) int64 {
	_, exp, mant, ok := floatDecode(f)
	if !ok {
		return INVALID_FLOAT
	}
	if f == 0 {
		return 0
	}
	return floatEncode(negative != 0, exp, mant)
}

func FloatNegate(f int64) int64 {
	neg, exp, mant, ok := floatDecode(f)
	if !ok {
		return INVALID_FLOAT
	}
	if f == 0 {
		return 0
	}
	return floatEncode(!neg, exp, mant)
}

// FloatCompare evaluates the relation selected by mode between f1 and f2,
// returning 1 when it holds and 0 when it does not.
func FloatCompare(f1, f2 int64, mode uint32) int64 {
	if mode == 0 || mode > (COMPARE_EQUAL|COMPARE_LESS|COMPARE_GREATER) ||
		mode == (COMPARE_EQUAL|COMPARE_LESS|COMPARE_GREATER) {
		return INVALID_ARGUMENT
	}
	c, ok := floatCmp(f1, f2)
	if !ok {
		return INVALID_FLOAT
	}
	switch {
	case c == 0 && mode&COMPARE_EQUAL != 0:
		return 1
	case c < 0 && mode&COMPARE_LESS != 0:
		return 1
	case c > 0 && mode&COMPARE_GREATER != 0:
		return 1
	}
	return 0
}

func floatCmp(f1, f2 int64) (int, bool) {
	n1, e1, m1, ok1 := floatDecode(f1)
	n2, e2, m2, ok2 := floatDecode(f2)
	if !ok1 || !ok2 {
		return 0, false
	}
	if f1 == f2 {
		return 0, true
	}
	if f1 == 0 {
		if n2 {
			return 1, true
		}
		return -1, true
	}
	if f2 == 0 {
		if n1 {
			return -1, true
		}
		return 1, true
	}
	if n1 != n2 {
		if n1 {
			return -1, true
		}
		return 1, true
	}
	// same sign, both nonzero: compare magnitude, then flip for negatives
	mag := 0
	if e1 != e2 {
		if e1 < e2 {
			mag = -1
		} else {
			mag = 1
		}
	} else if m1 < m2 {
		mag = -1
	} else if m1 > m2 {
		mag = 1
	}
	if n1 {
		mag = -mag
	}
	return mag, true
}

// FloatSum adds two floats by aligning exponents in decimal.
func FloatSum(f1, f2 int64) int64 {
	n1, e1, m1, ok1 := floatDecode(f1)
	n2, e2, m2, ok2 := floatDecode(f2)
	if !ok1 || !ok2 {
		return INVALID_FLOAT
	}
	if f1 == 0 {
		return f2
	}
	if f2 == 0 {
		return f1
	}
	// order so that e1 >= e2
	if e1 < e2 {
		n1, n2 = n2, n1
		e1, e2 = e2, e1
		m1, m2 = m2, m1
	}
	diff := e1 - e2
	if diff > 16 {
		return floatEncode(n1, e1, m1)
	}
	m2 /= pow10[diff]
	if m2 == 0 {
		return floatEncode(n1, e1, m1)
	}
	if n1 == n2 {
		return floatNormalize(n1, int64(e1), m1+m2)
	}
	if m1 == m2 {
		return 0
	}
	if m1 > m2 {
		return floatNormalize(n1, int64(e1), m1-m2)
	}
	return floatNormalize(n2, int64(e1), m2-m1)
}

// FloatMultiply multiplies two floats. Multiplication by zero yields
// canonical zero.
func FloatMultiply(f1, f2 int64) int64 {
	n1, e1, m1, ok1 := floatDecode(f1)
	n2, e2, m2, ok2 := floatDecode(f2)
	if !ok1 || !ok2 {
		return INVALID_FLOAT
	}
	if f1 == 0 || f2 == 0 {
		return 0
	}
	hi, lo := bits.Mul64(m1, m2)
	// product is in [10^30, 10^32); divide by 10^15 to land near the window
	q, _ := bits.Div64(hi, lo, pow10[15])
	return floatNormalize(n1 != n2, int64(e1)+int64(e2)+15, q)
}

// FloatDivide computes f1/f2.
func FloatDivide(f1, f2 int64) int64 {
	n1, e1, m1, ok1 := floatDecode(f1)
	n2, e2, m2, ok2 := floatDecode(f2)
	if !ok1 || !ok2 {
		return INVALID_FLOAT
	}
	if f2 == 0 {
		return DIVISION_BY_ZERO
	}
	if f1 == 0 {
		return 0
	}
	// scale the dividend by 10^16 so the quotient lands in [10^15, 10^17);
	// hi < 2^43 < m2, so the 128/64 division cannot trap
	hi, lo := bits.Mul64(m1, pow10[16])
	q, _ := bits.Div64(hi, lo, m2)
	return floatNormalize(n1 != n2, int64(e1)-int64(e2)-16, q)
}

// FloatInvert computes 1/f.
func FloatInvert(f int64) int64 {
	if f == 0 {
		return DIVISION_BY_ZERO
	}
	return FloatDivide(FloatOne(), f)
}

// FloatMulratio multiplies f by numerator/denominator, optionally rounding
// the mantissa up.
func FloatMulratio(f int64, roundUp uint32, numerator uint32, denominator uint32) int64 {
	neg, exp, mant, ok := floatDecode(f)
	if !ok {
		return INVALID_FLOAT
	}
	if denominator == 0 {
		return DIVISION_BY_ZERO
	}
	if f == 0 || numerator == 0 {
		return 0
	}
	hi, lo := bits.Mul64(mant, uint64(numerator))
	den := uint64(denominator)
	if roundUp != 0 {
		var carry uint64
		lo, carry = bits.Add64(lo, den-1, 0)
		hi += carry
	}
	if hi >= den {
		// quotient does not fit in 64 bits
		return OVERFLOW
	}
	q, _ := bits.Div64(hi, lo, den)
	return floatNormalize(neg, int64(exp), q)
}

// FloatInt converts f to an integer scaled by 10^decimalPlaces.
func FloatInt(f int64, decimalPlaces uint32, absolute uint32) int64 {
	neg, exp, mant, ok := floatDecode(f)
	if !ok {
		return INVALID_FLOAT
	}
	if decimalPlaces > 15 {
		return INVALID_ARGUMENT
	}
	if f == 0 {
		return 0
	}
	if neg && absolute == 0 {
		return CANT_RETURN_NEGATIVE
	}
	shift := int64(exp) + 15 + int64(decimalPlaces)
	if shift < 0 {
		return 0
	}
	if shift > 15 {
		return TOO_BIG
	}
	// mantissa carries 16 significant digits; drop the ones below the
	// requested precision
	drop := 15 - shift
	return int64(mant / pow10[drop])
}
