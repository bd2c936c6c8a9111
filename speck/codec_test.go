package speck

import (
	"math/rand"
	"testing"

	"github.com/sperrlab/go-sperr/bitmask"
)

func randomCoeffs(rng *rand.Rand, n int, maxVal uint64) ([]uint64, *bitmask.Bitmask) {
	coeffs := make([]uint64, n)
	signs := bitmask.New(n)
	for i := range coeffs {
		coeffs[i] = uint64(rng.Int63n(int64(maxVal) + 1))
		if rng.Intn(2) == 0 {
			signs.WTrue(i)
		} else {
			signs.WFalse(i)
		}
	}
	return coeffs, signs
}

func coeffsEqual(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRoundTrip1D(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{1, 2, 9, 17, 100} {
		coeffs, signs := randomCoeffs(rng, n, 1<<20)
		enc := NewCoder1D[uint64](n)
		enc.TakeCoeffs(append([]uint64(nil), coeffs...), signs)
		stream := enc.Encode()

		dec := NewCoder1D[uint64](n)
		if err := dec.UseBitstream(stream); err != nil {
			t.Fatalf("n=%d: UseBitstream: %v", n, err)
		}
		dec.Decode()

		if !coeffsEqual(coeffs, dec.ViewCoeffs()) {
			t.Errorf("n=%d: decoded coeffs mismatch\nwant %v\ngot  %v", n, coeffs, dec.ViewCoeffs())
		}
		for i := 0; i < n; i++ {
			if signs.RBit(i) != dec.ViewSigns().RBit(i) {
				t.Errorf("n=%d: sign mismatch at %d", n, i)
			}
		}
	}
}

func TestRoundTrip2D(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for _, dims := range [][2]int{{16, 16}, {17, 9}, {5, 5}} {
		w, h := dims[0], dims[1]
		n := w * h
		coeffs, signs := randomCoeffs(rng, n, 1<<16)
		enc := NewCoder2D[uint64](w, h)
		enc.TakeCoeffs(append([]uint64(nil), coeffs...), signs)
		stream := enc.Encode()

		dec := NewCoder2D[uint64](w, h)
		if err := dec.UseBitstream(stream); err != nil {
			t.Fatalf("dims=%v: UseBitstream: %v", dims, err)
		}
		dec.Decode()

		if !coeffsEqual(coeffs, dec.ViewCoeffs()) {
			t.Errorf("dims=%v: decoded coeffs mismatch", dims)
		}
	}
}

func TestRoundTrip3D(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	w, h, d := 8, 8, 8
	n := w * h * d
	coeffs, signs := randomCoeffs(rng, n, 1<<16)
	enc := NewCoder3D[uint64](w, h, d)
	enc.TakeCoeffs(append([]uint64(nil), coeffs...), signs)
	stream := enc.Encode()

	dec := NewCoder3D[uint64](w, h, d)
	if err := dec.UseBitstream(stream); err != nil {
		t.Fatalf("UseBitstream: %v", err)
	}
	dec.Decode()

	if !coeffsEqual(coeffs, dec.ViewCoeffs()) {
		t.Errorf("decoded coeffs mismatch")
	}
}

func TestAllZeroCoefficients(t *testing.T) {
	n := 64
	coeffs := make([]uint64, n)
	signs := bitmask.New(n)

	enc := NewCoder1D[uint64](n)
	enc.TakeCoeffs(coeffs, signs)
	stream := enc.Encode()
	if len(stream) != HeaderSize {
		t.Fatalf("all-zero stream length = %d, want %d (header only)", len(stream), HeaderSize)
	}

	dec := NewCoder1D[uint64](n)
	if err := dec.UseBitstream(stream); err != nil {
		t.Fatalf("UseBitstream: %v", err)
	}
	dec.Decode()
	for i, v := range dec.ViewCoeffs() {
		if v != 0 {
			t.Fatalf("coeffs[%d] = %d, want 0", i, v)
		}
	}
}

func TestFixedBudgetTruncation(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	n := 256
	coeffs, signs := randomCoeffs(rng, n, 1<<20)

	enc := NewCoder1D[uint64](n)
	enc.TakeCoeffs(append([]uint64(nil), coeffs...), signs)
	fullStream := enc.Encode()

	enc2 := NewCoder1D[uint64](n)
	enc2.TakeCoeffs(append([]uint64(nil), coeffs...), signs)
	enc2.SetBudget(64)
	truncStream := enc2.Encode()

	if len(truncStream) >= len(fullStream) {
		t.Fatalf("truncated stream (%d bytes) not shorter than full stream (%d bytes)",
			len(truncStream), len(fullStream))
	}

	dec := NewCoder1D[uint64](n)
	if err := dec.UseBitstream(truncStream); err != nil {
		t.Fatalf("UseBitstream: %v", err)
	}
	dec.Decode() // Should not panic even on a partial bitstream.
}

func TestPartitionGeneralizesAcrossDims(t *testing.T) {
	// A 1D set of length 5 splits into two children covering all 5 elements.
	children, _ := partition(Set{LX: 5, LY: 1, LZ: 1}, false)
	total := 0
	for _, c := range children {
		total += c.NumElem()
	}
	if total != 5 || len(children) != 2 {
		t.Fatalf("1D partition: got %d children covering %d elements, want 2 covering 5", len(children), total)
	}

	// A 3D set splits into up to 8 children covering the whole volume.
	children, _ = partition(Set{LX: 3, LY: 3, LZ: 3}, false)
	total = 0
	for _, c := range children {
		total += c.NumElem()
	}
	if total != 27 {
		t.Fatalf("3D partition: children cover %d elements, want 27", total)
	}
}
