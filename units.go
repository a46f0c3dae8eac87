package blit

// Fixed-point length units.
//
// The GPU pipeline consumes positions in Px: signed device pixels with
// four sub-units per pixel. Layout code works in Dip: device-independent
// pixels with the same quarter-unit resolution. The two are related by a
// Fraction, an exact integer ratio derived from the current DPI scale
// and zoom. Because every conversion is integer multiply/divide, the
// same input always produces the same output at the same scale; no
// floating-point drift accumulates across frames.

// PxScale is the number of Px sub-units per device pixel.
const PxScale = 4

// Px is a length in device pixels, stored in quarter-pixel fixed point.
type Px int32

// UPx is an unsigned length in whole device pixels. Texture and atlas
// space is addressed in UPx: texel coordinates are exact integers.
type UPx uint32

// Dip is a length in device-independent pixels, stored in quarter-unit
// fixed point. One Dip unit is 1/384 inch at the reference density of
// 96 DIP per inch.
type Dip int32

// NewPx returns the Px length for a whole number of device pixels.
func NewPx(pixels int32) Px { return Px(pixels * PxScale) }

// NewDip returns the Dip length for a whole number of device-independent
// pixels.
func NewDip(pixels int32) Dip { return Dip(pixels * PxScale) }

// Unscaled returns the raw fixed-point value. This is the representation
// written into vertex buffers.
func (p Px) Unscaled() int32 { return int32(p) }

// Whole returns the length in whole pixels, rounding half away from zero.
func (p Px) Whole() int32 { return divRound(int64(p), PxScale) }

// Floor returns the largest whole-pixel Px not greater than p.
func (p Px) Floor() Px {
	if p >= 0 {
		return p &^ (PxScale - 1)
	}
	return -((-p + PxScale - 1) &^ (PxScale - 1))
}

// Ceil returns the smallest whole-pixel Px not less than p.
func (p Px) Ceil() Px { return -(-p).Floor() }

// ToUPx converts p to whole unsigned pixels, clamping negatives to zero
// and rounding half away from zero.
func (p Px) ToUPx() UPx {
	if p <= 0 {
		return 0
	}
	return UPx(divRound(int64(p), PxScale))
}

// ToPx converts a whole-pixel unsigned length into quarter-pixel Px.
func (u UPx) ToPx() Px { return Px(u) * PxScale }

// ToPx converts a logical length into device pixels using the scaling
// ratio. The conversion is exact integer arithmetic: d·num/den with
// round-half-away-from-zero.
func (d Dip) ToPx(scale Fraction) Px {
	return Px(divRound(int64(d)*int64(scale.Numerator), int64(scale.Denominator)))
}

// FromPx converts a device-pixel length back into logical units at the
// given scale. DipFromPx(d.ToPx(s), s) is within one fixed-point unit of
// d for any non-degenerate scale.
func DipFromPx(p Px, scale Fraction) Dip {
	return Dip(divRound(int64(p)*int64(scale.Denominator), int64(scale.Numerator)))
}

// divRound divides v by den, rounding half away from zero. den must be
// positive.
func divRound(v, den int64) int32 {
	if v >= 0 {
		return int32((v + den/2) / den)
	}
	return int32((v - den/2) / den)
}

// Fraction is an exact ratio of two integers. It represents the combined
// DPI scale and zoom factor applied to logical coordinates. The zero
// value is not valid; use NewFraction or FractionOf.
type Fraction struct {
	Numerator   int32
	Denominator int32
}

// One is the identity scaling ratio.
var One = Fraction{Numerator: 1, Denominator: 1}

// NewFraction returns the reduced fraction num/den. den must not be
// zero; the sign is normalized onto the numerator.
func NewFraction(num, den int32) Fraction {
	if den < 0 {
		num, den = -num, -den
	}
	if g := gcd(abs32(num), den); g > 1 {
		num /= g
		den /= g
	}
	return Fraction{Numerator: num, Denominator: den}
}

// maxFractionDenominator bounds the continued-fraction expansions in
// FractionOf and Mul. 1/4096 is far below the quarter-pixel resolution of
// Px, so the approximation error is never observable in converted
// coordinates, and the bound keeps every fraction within the field
// widths Packed encodes.
const maxFractionDenominator = 4096

// FractionOf returns the best rational approximation of v with a bounded
// denominator, computed by continued-fraction expansion. The result is
// deterministic: the same float always yields the same fraction.
func FractionOf(v float32) Fraction {
	if v <= 0 {
		return One
	}

	var num, den, prevNum, prevDen int64 = 1, 0, 0, 1
	remainder := float64(v)
	for den <= maxFractionDenominator {
		whole := int64(remainder)
		num, prevNum = whole*num+prevNum, num
		den, prevDen = whole*den+prevDen, den
		frac := remainder - float64(whole)
		if frac < 1e-9 {
			break
		}
		remainder = 1 / frac
	}
	if den > maxFractionDenominator {
		num, den = prevNum, prevDen
	}
	if num == 0 || den == 0 {
		return One
	}
	return NewFraction(int32(num), int32(den))
}

// Mul returns the reduced product of two fractions. Products whose
// reduced denominator would overflow the bounded form Packed encodes
// are renormalized to the best rational approximation within the
// bound, the same way FractionOf bounds its expansion.
func (f Fraction) Mul(other Fraction) Fraction {
	num := int64(f.Numerator) * int64(other.Numerator)
	den := int64(f.Denominator) * int64(other.Denominator)
	g := gcd64(abs64(num), den)
	if g > 1 {
		num /= g
		den /= g
	}
	if den <= maxFractionDenominator {
		return Fraction{Numerator: int32(num), Denominator: int32(den)}
	}
	return approximateRatio(num, den)
}

// approximateRatio returns the best rational approximation of num/den
// with a bounded denominator, by walking the continued-fraction
// convergents of the exact ratio. den must be positive.
func approximateRatio(num, den int64) Fraction {
	negative := num < 0
	n, d := abs64(num), den
	var hPrev2, hPrev int64 = 0, 1
	var kPrev2, kPrev int64 = 1, 0
	for d != 0 {
		whole := n / d
		h := whole*hPrev + hPrev2
		k := whole*kPrev + kPrev2
		if k > maxFractionDenominator {
			break
		}
		hPrev2, hPrev = hPrev, h
		kPrev2, kPrev = kPrev, k
		n, d = d, n%d
	}
	if kPrev == 0 || hPrev == 0 {
		return One
	}
	if negative {
		hPrev = -hPrev
	}
	return NewFraction(int32(hPrev), int32(kPrev))
}

// Inverse returns the reciprocal ratio.
func (f Fraction) Inverse() Fraction {
	return NewFraction(f.Denominator, f.Numerator)
}

// IsValid reports whether the fraction has a positive denominator and a
// non-zero numerator, i.e. whether it can scale coordinates in both
// directions.
func (f Fraction) IsValid() bool {
	return f.Denominator > 0 && f.Numerator != 0
}

// Packed returns the fraction packed into a single word for the shader
// uniform block: denominator in the high 16 bits, numerator in the low
// 16 bits.
func (f Fraction) Packed() uint32 {
	return uint32(f.Denominator)<<16 | uint32(f.Numerator)&0xFFFF
}

func gcd(a, b int32) int32 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func gcd64(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
