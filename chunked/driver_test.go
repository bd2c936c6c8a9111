package chunked

import (
	"math"
	"math/rand"
	"testing"

	"github.com/sperrlab/go-sperr/sperrflt"
	"github.com/sperrlab/go-sperr/wavelet"
)

func TestChunkVolumeCoversWholeVolume(t *testing.T) {
	for _, tc := range []struct {
		vol, chunk wavelet.Dims
	}{
		{wavelet.Dims{X: 64, Y: 64, Z: 64}, wavelet.Dims{X: 32, Y: 32, Z: 32}},
		{wavelet.Dims{X: 70, Y: 70, Z: 70}, wavelet.Dims{X: 32, Y: 32, Z: 32}},
		{wavelet.Dims{X: 10, Y: 10, Z: 1}, wavelet.Dims{X: 32, Y: 32, Z: 1}},
	} {
		chunks := ChunkVolume(tc.vol, tc.chunk)
		total := 0
		for _, c := range chunks {
			total += c.LX * c.LY * c.LZ
		}
		if total != tc.vol.Total() {
			t.Errorf("vol=%v chunk=%v: chunks cover %d elements, want %d", tc.vol, tc.chunk, total, tc.vol.Total())
		}
	}
}

func TestGatherScatterRoundTrip(t *testing.T) {
	dims := wavelet.Dims{X: 10, Y: 10, Z: 1}
	vol := make([]float64, dims.Total())
	for i := range vol {
		vol[i] = float64(i)
	}

	chunks := ChunkVolume(dims, wavelet.Dims{X: 4, Y: 4, Z: 1})
	out := make([]float64, dims.Total())
	for _, ci := range chunks {
		small := gatherChunk(vol, dims, ci)
		scatterChunk(out, dims, small, ci)
	}
	for i := range vol {
		if out[i] != vol[i] {
			t.Fatalf("index %d: got %v, want %v", i, out[i], vol[i])
		}
	}
}

func smoothVolume(rng *rand.Rand, dims wavelet.Dims) []float64 {
	out := make([]float64, dims.Total())
	for i := range out {
		x := float64(i%dims.X) / float64(dims.X)
		out[i] = math.Sin(x*6.28) + 0.01*rng.NormFloat64()
	}
	return out
}

func TestDriverRoundTripMultiChunk(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	dims := wavelet.Dims{X: 32, Y: 32, Z: 1}
	vol := smoothVolume(rng, dims)

	const tol = 0.05
	d := &Driver{
		Mode:      sperrflt.ModePWE,
		Quality:   tol,
		ChunkDims: wavelet.Dims{X: 16, Y: 16, Z: 1},
	}
	stream, err := d.Compress(vol, dims)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	got, gotDims, err := d.Decompress(stream)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if gotDims != dims {
		t.Fatalf("got dims %v, want %v", gotDims, dims)
	}
	var maxDiff float64
	for i := range vol {
		if d := math.Abs(vol[i] - got[i]); d > maxDiff {
			maxDiff = d
		}
	}
	if maxDiff > 2*tol {
		t.Errorf("max abs diff = %v, want <= ~%v", maxDiff, 2*tol)
	}
}

func TestDriverRoundTripSingleChunk(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	dims := wavelet.Dims{X: 8, Y: 8, Z: 8}
	vol := smoothVolume(rng, dims)

	d := &Driver{Mode: sperrflt.ModePSNR, Quality: 50}
	stream, err := d.Compress(vol, dims)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	got, gotDims, err := d.Decompress(stream)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if gotDims != dims || len(got) != len(vol) {
		t.Fatalf("got dims %v len %d, want %v len %d", gotDims, len(got), dims, len(vol))
	}
}

func TestTruncateShrinksAndStaysDecodable(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	dims := wavelet.Dims{X: 32, Y: 32, Z: 1}
	vol := smoothVolume(rng, dims)

	d := &Driver{
		Mode:      sperrflt.ModeRate,
		Quality:   8,
		ChunkDims: wavelet.Dims{X: 16, Y: 16, Z: 1},
	}
	stream, err := d.Compress(vol, dims)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	truncated, err := Truncate(stream, 25)
	if err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if len(truncated) >= len(stream) {
		t.Errorf("truncated length %d, want strictly less than %d", len(truncated), len(stream))
	}

	got, gotDims, err := d.Decompress(truncated)
	if err != nil {
		t.Fatalf("Decompress(truncated): %v", err)
	}
	if gotDims != dims || len(got) != len(vol) {
		t.Fatalf("got dims %v len %d, want %v len %d", gotDims, len(got), dims, len(vol))
	}
}

func TestDriverMultiResHierarchy(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	dims := wavelet.Dims{X: 32, Y: 32, Z: 1}
	vol := smoothVolume(rng, dims)

	d := &Driver{
		Mode:      sperrflt.ModePSNR,
		Quality:   50,
		ChunkDims: wavelet.Dims{X: 16, Y: 16, Z: 1},
	}
	stream, err := d.Compress(vol, dims)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	full, hierarchy, gotDims, err := d.DecompressMultiRes(stream)
	if err != nil {
		t.Fatalf("DecompressMultiRes: %v", err)
	}
	if gotDims != dims || len(full) != len(vol) {
		t.Fatalf("got dims %v len %d, want %v len %d", gotDims, len(full), dims, len(vol))
	}
	for lvl, lvlVals := range hierarchy {
		if len(lvlVals) == 0 {
			t.Errorf("level %d: empty hierarchy snapshot", lvl)
		}
	}
}
