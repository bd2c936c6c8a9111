package sperrflt

import (
	"math"

	"github.com/sperrlab/go-sperr/bitmask"
	"github.com/sperrlab/go-sperr/speck"
)

// pickWidth returns which unsigned width is needed to hold maxInt.
type uintWidth int

const (
	width8 uintWidth = iota
	width16
	width32
	width64
)

func pickWidth(maxInt uint64) uintWidth {
	switch {
	case maxInt <= math.MaxUint8:
		return width8
	case maxInt <= math.MaxUint16:
		return width16
	case maxInt <= math.MaxUint32:
		return width32
	default:
		return width64
	}
}

func widthFromBitplanes(numBitplanes uint8) uintWidth {
	switch {
	case numBitplanes <= 8:
		return width8
	case numBitplanes <= 16:
		return width16
	case numBitplanes <= 32:
		return width32
	default:
		return width64
	}
}

// midtreadQuantize rounds each value in vals to the nearest multiple of
// q and returns the narrowest width that holds the largest magnitude,
// the magnitudes themselves (as uint64), and a parallel sign mask.
func midtreadQuantize(vals []float64, q float64) (uintWidth, []uint64, *bitmask.Bitmask) {
	n := len(vals)
	signs := bitmask.New(n)
	mags := make([]uint64, n)
	inv := 1.0 / q

	var maxMag uint64
	for i, v := range vals {
		ll := math.Round(v * inv)
		signs.WBit(i, ll >= 0)
		m := uint64(math.Abs(ll))
		mags[i] = m
		if m > maxMag {
			maxMag = m
		}
	}
	return pickWidth(maxMag), mags, signs
}

func narrow[T speck.Width](mags []uint64) []T {
	out := make([]T, len(mags))
	for i, m := range mags {
		out[i] = T(m)
	}
	return out
}

func widen[T speck.Width](vals []T) []uint64 {
	out := make([]uint64, len(vals))
	for i, v := range vals {
		out[i] = uint64(v)
	}
	return out
}

// midtreadInvQuantize reconstructs floating-point values from integer
// magnitudes, a sign mask, and the quantization step q.
func midtreadInvQuantize(mags []uint64, signs *bitmask.Bitmask, q float64) []float64 {
	out := make([]float64, len(mags))
	for i, m := range mags {
		v := q * float64(m)
		if !signs.RBit(i) {
			v = -v
		}
		out[i] = v
	}
	return out
}
