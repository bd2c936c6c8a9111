package sperrflt

import (
	"math"
	"math/rand"
	"testing"

	"github.com/sperrlab/go-sperr/wavelet"
)

func smoothField(rng *rand.Rand, dims wavelet.Dims) []float64 {
	n := dims.Total()
	out := make([]float64, n)
	for i := range out {
		x := float64(i%dims.X) / float64(dims.X)
		out[i] = math.Sin(x*6.28) + 0.01*rng.NormFloat64()
	}
	return out
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

func TestRoundTripPWE2D(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	dims := wavelet.Dims{X: 16, Y: 16, Z: 1}
	vals := smoothField(rng, dims)

	const tol = 0.05
	c := NewCodec()
	c.Mode = ModePWE
	c.Quality = tol

	stream, err := c.Encode(vals, dims)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	d := NewCodec()
	d.Mode = ModePWE
	d.Quality = tol
	got, err := d.Decode(stream, dims)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if diff := maxAbsDiff(vals, got); diff > 2*tol {
		t.Errorf("max abs diff = %v, want <= ~%v", diff, 2*tol)
	}
}

func TestRoundTripPSNR1D(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	dims := wavelet.Dims{X: 100, Y: 1, Z: 1}
	vals := smoothField(rng, dims)

	c := NewCodec()
	c.Mode = ModePSNR
	c.Quality = 60

	stream, err := c.Encode(vals, dims)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	d := NewCodec()
	got, err := d.Decode(stream, dims)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != len(vals) {
		t.Fatalf("got %d values, want %d", len(got), len(vals))
	}
}

func TestRoundTripRate3D(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	dims := wavelet.Dims{X: 8, Y: 8, Z: 8}
	vals := smoothField(rng, dims)

	c := NewCodec()
	c.Mode = ModeRate
	c.Quality = 4 // bits per value budget

	stream, err := c.Encode(vals, dims)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	d := NewCodec()
	got, err := d.Decode(stream, dims)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != len(vals) {
		t.Fatalf("got %d values, want %d", len(got), len(vals))
	}
}

func TestConstantFieldShortCircuits(t *testing.T) {
	dims := wavelet.Dims{X: 4, Y: 4, Z: 1}
	vals := make([]float64, dims.Total())
	for i := range vals {
		vals[i] = 7.5
	}

	c := NewCodec()
	c.Mode = ModePWE
	c.Quality = 0.01

	stream, err := c.Encode(vals, dims)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	d := NewCodec()
	got, err := d.Decode(stream, dims)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i, v := range got {
		if v != 7.5 {
			t.Fatalf("index %d: got %v, want 7.5", i, v)
		}
	}
}

func TestEncodeRejectsWrongLength(t *testing.T) {
	c := NewCodec()
	c.Mode = ModePWE
	c.Quality = 0.1
	_, err := c.Encode(make([]float64, 3), wavelet.Dims{X: 4, Y: 1, Z: 1})
	if err != ErrWrongLength {
		t.Errorf("got %v, want ErrWrongLength", err)
	}
}

func TestEncodeRejectsUnsetMode(t *testing.T) {
	c := NewCodec()
	_, err := c.Encode(make([]float64, 4), wavelet.Dims{X: 4, Y: 1, Z: 1})
	if err != ErrModeUnknown {
		t.Errorf("got %v, want ErrModeUnknown", err)
	}
}

func TestDecodeMultiRes2D(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	dims := wavelet.Dims{X: 32, Y: 32, Z: 1}
	vals := smoothField(rng, dims)

	c := NewCodec()
	c.Mode = ModePSNR
	c.Quality = 50
	stream, err := c.Encode(vals, dims)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	d := NewCodec()
	full, hierarchy, err := d.DecodeMultiRes(stream, dims)
	if err != nil {
		t.Fatalf("DecodeMultiRes: %v", err)
	}
	if len(full) != len(vals) {
		t.Fatalf("full res got %d values, want %d", len(full), len(vals))
	}
	for i, lvl := range hierarchy {
		if len(lvl) == 0 {
			t.Errorf("level %d: empty snapshot", i)
		}
	}
}
