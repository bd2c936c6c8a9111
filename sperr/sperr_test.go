package sperr

import (
	"math"
	"math/rand"
	"testing"

	"github.com/sperrlab/go-sperr/wavelet"
)

func smoothField(rng *rand.Rand, n, width int) []float64 {
	out := make([]float64, n)
	for i := range out {
		x := float64(i%width) / float64(width)
		out[i] = math.Sin(x*6.28) + 0.01*rng.NormFloat64()
	}
	return out
}

func TestCompressDecompressSlice(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const dimx, dimy = 24, 24
	vals := smoothField(rng, dimx*dimy, dimx)

	const tol = 0.05
	stream, err := CompressSlice(vals, dimx, dimy, RatePWE, tol)
	if err != nil {
		t.Fatalf("CompressSlice: %v", err)
	}

	gotX, gotY, err := ParseSliceHeader(stream)
	if err != nil {
		t.Fatalf("ParseSliceHeader: %v", err)
	}
	if gotX != dimx || gotY != dimy {
		t.Fatalf("header dims = (%d,%d), want (%d,%d)", gotX, gotY, dimx, dimy)
	}

	got, gotX2, gotY2, err := DecompressSlice(stream)
	if err != nil {
		t.Fatalf("DecompressSlice: %v", err)
	}
	if gotX2 != dimx || gotY2 != dimy {
		t.Fatalf("decompressed dims = (%d,%d), want (%d,%d)", gotX2, gotY2, dimx, dimy)
	}

	var maxDiff float64
	for i := range vals {
		if d := math.Abs(vals[i] - got[i]); d > maxDiff {
			maxDiff = d
		}
	}
	if maxDiff > 2*tol {
		t.Errorf("max abs diff = %v, want <= ~%v", maxDiff, 2*tol)
	}
}

func TestCompressSliceRejectsBadInput(t *testing.T) {
	if _, err := CompressSlice(make([]float64, 4), 2, 2, Mode(0), 0.1); err != ErrModeRequired {
		t.Errorf("zero mode: got %v, want ErrModeRequired", err)
	}
	if _, err := CompressSlice(make([]float64, 4), 2, 2, RatePWE, 0); err != ErrQualityRequired {
		t.Errorf("zero quality: got %v, want ErrQualityRequired", err)
	}
}

func TestCompressDecompressVolumeAndTruncate(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	dims := wavelet.Dims{X: 16, Y: 16, Z: 16}
	vals := smoothField(rng, dims.Total(), dims.X)

	stream, err := CompressVolume(vals, dims, wavelet.Dims{X: 8, Y: 8, Z: 8}, RateBitrate, 4, 0)
	if err != nil {
		t.Fatalf("CompressVolume: %v", err)
	}

	got, gotDims, err := DecompressVolume(stream, 0)
	if err != nil {
		t.Fatalf("DecompressVolume: %v", err)
	}
	if gotDims != dims || len(got) != len(vals) {
		t.Fatalf("got dims %v len %d, want %v len %d", gotDims, len(got), dims, len(vals))
	}

	truncated, err := TruncateVolume(stream, 30)
	if err != nil {
		t.Fatalf("TruncateVolume: %v", err)
	}
	if len(truncated) >= len(stream) {
		t.Errorf("truncated length %d, want strictly less than %d", len(truncated), len(stream))
	}
	if _, _, err := DecompressVolume(truncated, 0); err != nil {
		t.Errorf("DecompressVolume(truncated): %v", err)
	}
}
