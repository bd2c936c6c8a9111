// Package sperr is the public entry point: compress/decompress a single
// 2D slice directly through sperrflt, or a 3D volume through the
// chunked, concurrent driver, plus header inspection and progressive
// truncation. It mirrors the shape of a C ABI (fixed function list, one
// quality mode + value per call) but returns (result, error) the way Go
// callers expect instead of writing through output pointers.
package sperr

import (
	"encoding/binary"
	"errors"

	"github.com/sperrlab/go-sperr/chunked"
	"github.com/sperrlab/go-sperr/flags"
	"github.com/sperrlab/go-sperr/sperrflt"
	"github.com/sperrlab/go-sperr/wavelet"
)

// Mode selects the quality target a Quality value is interpreted under,
// matching the three modes accepted by every Compress* function. The
// zero value is intentionally invalid so a caller can't silently
// compress under the wrong target by forgetting to set it.
type Mode int

const (
	RateBitrate Mode = iota + 1
	RatePSNR
	RatePWE
)

// ErrModeRequired is returned when Mode isn't one of RateBitrate,
// RatePSNR, or RatePWE.
var ErrModeRequired = errors.New("sperr: mode must be RateBitrate, RatePSNR, or RatePWE")

func (m Mode) toFlt() (sperrflt.Mode, error) {
	switch m {
	case RateBitrate:
		return sperrflt.ModeRate, nil
	case RatePSNR:
		return sperrflt.ModePSNR, nil
	case RatePWE:
		return sperrflt.ModePWE, nil
	default:
		return sperrflt.ModeUnknown, ErrModeRequired
	}
}

// sliceHeaderSize is the fixed size of the small header CompressSlice
// prefixes onto its output: 1 version byte + 1 packed-boolean byte + 2
// x 4-byte dims.
const sliceHeaderSize = 10

// ErrQualityRequired and ErrShortHeader guard the facade's inputs.
var (
	ErrQualityRequired = errors.New("sperr: quality must be positive")
	ErrShortHeader     = errors.New("sperr: bitstream shorter than its own header")
)

// CompressSlice compresses one 2D slice of dimx-by-dimy values and
// returns a self-describing stream: a small header recording the slice
// dims, followed by the sperrflt-encoded body.
func CompressSlice(vals []float64, dimx, dimy int, mode Mode, quality float64) ([]byte, error) {
	fltMode, err := mode.toFlt()
	if err != nil {
		return nil, err
	}
	if quality <= 0 {
		return nil, ErrQualityRequired
	}

	dims := wavelet.Dims{X: dimx, Y: dimy, Z: 1}
	c := sperrflt.NewCodec()
	c.Mode = fltMode
	c.Quality = quality
	body, err := c.Encode(vals, dims)
	if err != nil {
		return nil, err
	}

	out := make([]byte, sliceHeaderSize+len(body))
	out[0] = chunked.ContainerVersion
	out[1] = flags.Pack8([8]bool{false, false, false, false, false, false, false, false})
	binary.LittleEndian.PutUint32(out[2:], uint32(dimx))
	binary.LittleEndian.PutUint32(out[6:], uint32(dimy))
	copy(out[sliceHeaderSize:], body)
	return out, nil
}

// DecompressSlice reverses CompressSlice.
func DecompressSlice(stream []byte) (vals []float64, dimx, dimy int, err error) {
	if len(stream) < sliceHeaderSize {
		return nil, 0, 0, ErrShortHeader
	}
	dimx = int(binary.LittleEndian.Uint32(stream[2:]))
	dimy = int(binary.LittleEndian.Uint32(stream[6:]))

	c := sperrflt.NewCodec()
	vals, err = c.Decode(stream[sliceHeaderSize:], wavelet.Dims{X: dimx, Y: dimy, Z: 1})
	if err != nil {
		return nil, 0, 0, err
	}
	return vals, dimx, dimy, nil
}

// ParseSliceHeader reads back a CompressSlice header's dims without
// decoding the body.
func ParseSliceHeader(stream []byte) (dimx, dimy int, err error) {
	if len(stream) < sliceHeaderSize {
		return 0, 0, ErrShortHeader
	}
	return int(binary.LittleEndian.Uint32(stream[2:])), int(binary.LittleEndian.Uint32(stream[6:])), nil
}

// CompressVolume compresses a 3D (or 2D/1D, via Z/Y pinned to 1) volume,
// splitting it into chunks close to chunkDims and encoding each
// concurrently across numWorkers goroutines (0 means GOMAXPROCS).
func CompressVolume(vals []float64, dims, chunkDims wavelet.Dims, mode Mode, quality float64, numWorkers int) ([]byte, error) {
	fltMode, err := mode.toFlt()
	if err != nil {
		return nil, err
	}
	if quality <= 0 {
		return nil, ErrQualityRequired
	}
	d := &chunked.Driver{
		Mode:       fltMode,
		Quality:    quality,
		ChunkDims:  chunkDims,
		NumWorkers: numWorkers,
	}
	return d.Compress(vals, dims)
}

// DecompressVolume reverses CompressVolume.
func DecompressVolume(stream []byte, numWorkers int) (vals []float64, dims wavelet.Dims, err error) {
	d := &chunked.Driver{NumWorkers: numWorkers}
	return d.Decompress(stream)
}

// DecompressVolumeMultiRes is DecompressVolume's multi-resolution
// variant.
func DecompressVolumeMultiRes(stream []byte, numWorkers int) (vals []float64, hierarchy [][]float64, dims wavelet.Dims, err error) {
	d := &chunked.Driver{NumWorkers: numWorkers}
	return d.DecompressMultiRes(stream)
}

// TruncateVolume shortens a CompressVolume stream to roughly pct
// percent of each chunk's size, keeping it decodable (at reduced
// fidelity) by DecompressVolume.
func TruncateVolume(stream []byte, pct int) ([]byte, error) {
	return chunked.Truncate(stream, pct)
}
