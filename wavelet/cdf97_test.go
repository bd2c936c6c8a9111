package wavelet

import (
	"math"
	"math/rand"
	"testing"
)

func randomBuf(rng *rand.Rand, n int) []float64 {
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = rng.NormFloat64()
	}
	return buf
}

func maxAbsDiff(a, b []float64) float64 {
	var m float64
	for i := range a {
		if d := math.Abs(a[i] - b[i]); d > m {
			m = d
		}
	}
	return m
}

func TestDwt1DRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{1, 2, 9, 16, 17, 100, 257} {
		orig := randomBuf(rng, n)
		buf := append([]float64(nil), orig...)

		c := NewCDF97()
		if err := c.TakeData(buf, Dims{n, 1, 1}); err != nil {
			t.Fatalf("n=%d: TakeData: %v", n, err)
		}
		c.Dwt1D()
		c.Idwt1D()

		if d := maxAbsDiff(orig, c.ViewData()); d > 1e-9 {
			t.Errorf("n=%d: round-trip max abs diff = %v, want < 1e-9", n, d)
		}
	}
}

func TestDwt2DRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for _, dims := range []Dims{{16, 16, 1}, {17, 9, 1}, {32, 20, 1}, {9, 9, 1}} {
		orig := randomBuf(rng, dims.Total())
		buf := append([]float64(nil), orig...)

		c := NewCDF97()
		if err := c.TakeData(buf, dims); err != nil {
			t.Fatalf("dims=%v: TakeData: %v", dims, err)
		}
		c.Dwt2D()
		c.Idwt2D()

		if d := maxAbsDiff(orig, c.ViewData()); d > 1e-8 {
			t.Errorf("dims=%v: round-trip max abs diff = %v, want < 1e-8", dims, d)
		}
	}
}

func TestDwt3DRoundTripDyadic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	dims := Dims{16, 16, 16}
	if _, ok := CanUseDyadic(dims); !ok {
		t.Fatal("expected 16x16x16 to support a dyadic schedule")
	}

	orig := randomBuf(rng, dims.Total())
	buf := append([]float64(nil), orig...)

	c := NewCDF97()
	if err := c.TakeData(buf, dims); err != nil {
		t.Fatalf("TakeData: %v", err)
	}
	c.Dwt3D()
	c.Idwt3D()

	if d := maxAbsDiff(orig, c.ViewData()); d > 1e-7 {
		t.Errorf("round-trip max abs diff = %v, want < 1e-7", d)
	}
}

func TestDwt3DRoundTripWaveletPacket(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	dims := Dims{16, 16, 200} // Z axis transforms far deeper than X/Y: no shared dyadic depth
	if _, ok := CanUseDyadic(dims); ok {
		t.Fatal("expected this shape to fall back to wavelet-packet")
	}

	orig := randomBuf(rng, dims.Total())
	buf := append([]float64(nil), orig...)

	c := NewCDF97()
	if err := c.TakeData(buf, dims); err != nil {
		t.Fatalf("TakeData: %v", err)
	}
	c.Dwt3D()
	c.Idwt3D()

	if d := maxAbsDiff(orig, c.ViewData()); d > 1e-7 {
		t.Errorf("round-trip max abs diff = %v, want < 1e-7", d)
	}
}

func TestIdwt2DMultiRes(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	dims := Dims{64, 64, 1}
	orig := randomBuf(rng, dims.Total())
	buf := append([]float64(nil), orig...)

	c := NewCDF97()
	if err := c.TakeData(buf, dims); err != nil {
		t.Fatalf("TakeData: %v", err)
	}
	c.Dwt2D()

	levels := c.Idwt2DMultiRes()
	xy := NumOfXforms(min(dims.X, dims.Y))
	if len(levels) != xy {
		t.Fatalf("len(levels) = %d, want %d", len(levels), xy)
	}
	// The final (finest) step of the multi-res inverse should leave the
	// buffer fully reconstructed, same as a plain Idwt2D.
	if d := maxAbsDiff(orig, c.ViewData()); d > 1e-8 {
		t.Errorf("final multi-res level max abs diff = %v, want < 1e-8", d)
	}
}

func TestCalcApproxDetailLen(t *testing.T) {
	for _, tt := range []struct {
		orig, lev          int
		wantApprox, wantDetail int
	}{
		{10, 1, 5, 5},
		{9, 1, 5, 4},
		{10, 2, 3, 2},
	} {
		a, d := CalcApproxDetailLen(tt.orig, tt.lev)
		if a != tt.wantApprox || d != tt.wantDetail {
			t.Errorf("CalcApproxDetailLen(%d,%d) = (%d,%d), want (%d,%d)",
				tt.orig, tt.lev, a, d, tt.wantApprox, tt.wantDetail)
		}
	}
}

func TestNumOfXformsCap(t *testing.T) {
	if got := NumOfXforms(1 << 20); got != 6 {
		t.Errorf("NumOfXforms(2^20) = %d, want 6 (capped)", got)
	}
	if got := NumOfXforms(8); got != 0 {
		t.Errorf("NumOfXforms(8) = %d, want 0", got)
	}
}
