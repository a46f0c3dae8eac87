package blit

import "testing"

func TestPxRounding(t *testing.T) {
	tests := []struct {
		p     Px
		whole int32
		floor Px
		ceil  Px
	}{
		{0, 0, 0, 0},
		{NewPx(3), 3, NewPx(3), NewPx(3)},
		{13, 3, 12, 16},  // 3.25px
		{14, 4, 12, 16},  // 3.5px rounds away from zero
		{15, 4, 12, 16},  // 3.75px
		{-13, -3, -16, -12},
		{-14, -4, -16, -12},
		{-15, -4, -16, -12},
	}
	for _, tt := range tests {
		if got := tt.p.Whole(); got != tt.whole {
			t.Errorf("Px(%d).Whole() = %d, want %d", tt.p, got, tt.whole)
		}
		if got := tt.p.Floor(); got != tt.floor {
			t.Errorf("Px(%d).Floor() = %d, want %d", tt.p, got, tt.floor)
		}
		if got := tt.p.Ceil(); got != tt.ceil {
			t.Errorf("Px(%d).Ceil() = %d, want %d", tt.p, got, tt.ceil)
		}
	}
}

func TestPxUPxConversion(t *testing.T) {
	if got := Px(-20).ToUPx(); got != 0 {
		t.Fatalf("negative ToUPx = %d, want 0", got)
	}
	if got := NewPx(17).ToUPx(); got != 17 {
		t.Fatalf("ToUPx = %d, want 17", got)
	}
	if got := Px(14).ToUPx(); got != 4 {
		t.Fatalf("3.5px ToUPx = %d, want 4", got)
	}
	if got := UPx(17).ToPx(); got != NewPx(17) {
		t.Fatalf("UPx.ToPx = %d, want %d", got, NewPx(17))
	}
}

func TestDipConversionIsExact(t *testing.T) {
	scale := NewFraction(3, 2) // 150% DPI

	if got := NewDip(10).ToPx(scale); got != NewPx(15) {
		t.Fatalf("10dip at 3/2 = %v, want %v", got, NewPx(15))
	}
	// Repeated conversion of the same value never drifts.
	first := NewDip(7).ToPx(scale)
	for i := 0; i < 100; i++ {
		if got := NewDip(7).ToPx(scale); got != first {
			t.Fatalf("conversion drifted: %v != %v", got, first)
		}
	}
}

func TestDipRoundTripWithinOneUnit(t *testing.T) {
	scales := []Fraction{
		One,
		NewFraction(3, 2),
		NewFraction(2, 1),
		NewFraction(5, 4),
		NewFraction(4, 3),
	}
	for _, scale := range scales {
		for d := Dip(-200); d <= 200; d++ {
			back := DipFromPx(d.ToPx(scale), scale)
			diff := int32(back - d)
			if diff < -1 || diff > 1 {
				t.Fatalf("round trip of %d at %d/%d = %d", d, scale.Numerator, scale.Denominator, back)
			}
		}
	}
}

func TestDivRound(t *testing.T) {
	tests := []struct {
		v, den int64
		want   int32
	}{
		{7, 2, 4},
		{-7, 2, -4},
		{6, 4, 2},
		{-6, 4, -2},
		{5, 4, 1},
		{-5, 4, -1},
		{0, 4, 0},
	}
	for _, tt := range tests {
		if got := divRound(tt.v, tt.den); got != tt.want {
			t.Errorf("divRound(%d, %d) = %d, want %d", tt.v, tt.den, got, tt.want)
		}
	}
}

func TestNewFractionReduces(t *testing.T) {
	if got := NewFraction(6, 4); got != (Fraction{3, 2}) {
		t.Fatalf("NewFraction(6, 4) = %v", got)
	}
	if got := NewFraction(3, -2); got != (Fraction{-3, 2}) {
		t.Fatalf("NewFraction(3, -2) = %v", got)
	}
	if !NewFraction(1, 1).IsValid() {
		t.Fatal("identity not valid")
	}
	if (Fraction{}).IsValid() {
		t.Fatal("zero fraction valid")
	}
}

func TestFractionMul(t *testing.T) {
	got := NewFraction(3, 2).Mul(NewFraction(4, 3))
	if got != (Fraction{2, 1}) {
		t.Fatalf("3/2 * 4/3 = %v, want 2/1", got)
	}
	if got := One.Mul(One); got != One {
		t.Fatalf("1 * 1 = %v", got)
	}
}

func TestFractionMulBoundsDenominator(t *testing.T) {
	// Coprime denominators whose exact product denominator (2^21) would
	// overflow the 16-bit field Packed encodes.
	a := NewFraction(1365, 1024)
	b := NewFraction(2731, 2048)
	got := a.Mul(b)
	if got.Denominator <= 0 || got.Denominator > maxFractionDenominator {
		t.Fatalf("product denominator %d out of bounds", got.Denominator)
	}
	exact := (1365.0 * 2731.0) / (1024.0 * 2048.0)
	value := float64(got.Numerator) / float64(got.Denominator)
	if diff := value - exact; diff > 1.0/maxFractionDenominator || diff < -1.0/maxFractionDenominator {
		t.Fatalf("product %v = %v, want within 1/%d of %v", got, value, maxFractionDenominator, exact)
	}
	packed := got.Packed()
	if int32(packed>>16) != got.Denominator || int32(packed&0xFFFF) != got.Numerator {
		t.Fatalf("Packed %#x does not round-trip %v", packed, got)
	}

	// A negative factor keeps the sign on the numerator.
	neg := NewFraction(-1365, 1024).Mul(b)
	if neg.Numerator >= 0 || neg.Denominator <= 0 {
		t.Fatalf("negative product = %v", neg)
	}
}

func TestFractionInverse(t *testing.T) {
	if got := NewFraction(3, 2).Inverse(); got != (Fraction{2, 3}) {
		t.Fatalf("inverse = %v", got)
	}
}

func TestFractionOf(t *testing.T) {
	tests := []struct {
		v    float32
		want Fraction
	}{
		{1, One},
		{1.5, Fraction{3, 2}},
		{2, Fraction{2, 1}},
		{1.25, Fraction{5, 4}},
		{0.5, Fraction{1, 2}},
		{0, One},
		{-2, One},
	}
	for _, tt := range tests {
		if got := FractionOf(tt.v); got != tt.want {
			t.Errorf("FractionOf(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}

	// Deterministic: equal inputs give equal fractions.
	a, b := FractionOf(1.3333334), FractionOf(1.3333334)
	if a != b {
		t.Fatalf("FractionOf not deterministic: %v != %v", a, b)
	}
}

func TestFractionPacked(t *testing.T) {
	if got := NewFraction(3, 2).Packed(); got != 2<<16|3 {
		t.Fatalf("Packed = %#x", got)
	}
	if got := One.Packed(); got != 1<<16|1 {
		t.Fatalf("identity Packed = %#x", got)
	}
}
