package segy

import (
	"math"
)

// IBMToIEEE converts a 32-bit IBM System/360 hexadecimal float to IEEE-754.
//
// The word is laid out as sign(1) | exponent(7, excess-64, base 16) | fraction(24),
// and its value is fraction/2^24 * 16^(exponent-64). A zero fraction decodes to 0
// regardless of sign and exponent.
func IBMToIEEE(word uint32) float32 {
	frac := word & 0x00ffffff
	if frac == 0 {
		return 0
	}
	exp := int((word >> 24) & 0x7f)
	v := math.Ldexp(float64(frac), 4*(exp-64)-24)
	if word&0x80000000 != 0 {
		v = -v
	}
	return float32(v)
}

// IEEEToIBM encodes an IEEE-754 value as an IBM hexadecimal float. Values
// outside the IBM range saturate; NaN encodes as 0.
func IEEEToIBM(f float32) uint32 {
	if f == 0 || f != f {
		return 0
	}
	var sign uint32
	a := float64(f)
	if a < 0 {
		sign = 0x80000000
		a = -a
	}

	fr, ex := math.Frexp(a) // a = fr * 2^ex, fr in [0.5,1)
	ex16 := (ex + 3) >> 2
	shift := 4*ex16 - ex
	frac := uint32(math.Round(math.Ldexp(fr, 24-shift)))
	if frac >= 1<<24 {
		frac >>= 4
		ex16++
	}

	biased := ex16 + 64
	switch {
	case biased > 127:
		return sign | 0x7fffffff
	case biased < 0:
		return 0
	}
	return sign | uint32(biased)<<24 | frac
}
