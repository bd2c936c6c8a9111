// Package outlier corrects the handful of coefficients a quantizer
// rounds past the caller's tolerance: each one is recorded as a
// (position, error) pair, quantized to an integer count of tolerance
// units, and entropy-coded as a dense all-zero-but-for-the-outliers
// array through the same SPECK machinery used for wavelet coefficients
// — the all-zero fast path and the significance bitmap make a mostly-
// zero array cheap without a bespoke sparse wire format.
package outlier

import (
	"errors"
	"math"

	"github.com/sperrlab/go-sperr/bitmask"
	"github.com/sperrlab/go-sperr/speck"
)

// Outlier is one coefficient whose quantized value, if left uncorrected,
// would miss the caller's tolerance by Err.
type Outlier struct {
	Pos int
	Err float64
}

// ErrNoOutliers and friends guard Encode's preconditions.
var (
	ErrNoOutliers    = errors.New("outlier: empty outlier list")
	ErrInvalidLength = errors.New("outlier: total length not set")
	ErrInvalidTol    = errors.New("outlier: tolerance must be positive")
	ErrOutOfRange    = errors.New("outlier: outlier position or magnitude out of range")
)

// Coder encodes/decodes a sparse list of per-coefficient corrections
// against a known array length and tolerance.
type Coder struct {
	totalLen int
	tol      float64
	los      []Outlier
}

// NewCoder constructs an empty Coder.
func NewCoder() *Coder { return &Coder{} }

// SetLength sets the length of the array the outliers index into.
func (c *Coder) SetLength(n int) { c.totalLen = n }

// SetTolerance sets the quantization granularity applied to outlier
// errors: each error is rounded to the nearest integer multiple of tol.
func (c *Coder) SetTolerance(tol float64) { c.tol = tol }

// AddOutlier appends one correction to the pending list.
func (c *Coder) AddOutlier(o Outlier) { c.los = append(c.los, o) }

// UseOutlierList replaces the pending list wholesale.
func (c *Coder) UseOutlierList(los []Outlier) { c.los = los }

// ViewOutlierList returns the current outlier list without copying.
func (c *Coder) ViewOutlierList() []Outlier { return c.los }

// Encode quantizes the outlier list and entropy-codes it, returning the
// encoded bitstream. The integer width used is the smallest of
// uint8/16/32/64 that can hold every quantized magnitude.
func (c *Coder) Encode() ([]byte, error) {
	if c.totalLen == 0 {
		return nil, ErrInvalidLength
	}
	if c.tol <= 0 {
		return nil, ErrInvalidTol
	}
	if len(c.los) == 0 {
		return nil, ErrNoOutliers
	}
	for _, o := range c.los {
		if o.Pos >= c.totalLen || math.Abs(o.Err) <= c.tol {
			return nil, ErrOutOfRange
		}
	}

	maxErr := 0.0
	for _, o := range c.los {
		if a := math.Abs(o.Err); a > maxErr {
			maxErr = a
		}
	}
	maxInt := uint64(math.Round(maxErr / c.tol))

	signs := bitmask.New(c.totalLen)
	signs.ResetTrue()

	switch {
	case maxInt <= math.MaxUint8:
		vals := make([]uint8, c.totalLen)
		quantizeInto(vals, signs, c.los, c.tol)
		enc := speck.NewCoder1D[uint8](c.totalLen)
		enc.TakeCoeffs(vals, signs)
		return enc.Encode(), nil
	case maxInt <= math.MaxUint16:
		vals := make([]uint16, c.totalLen)
		quantizeInto(vals, signs, c.los, c.tol)
		enc := speck.NewCoder1D[uint16](c.totalLen)
		enc.TakeCoeffs(vals, signs)
		return enc.Encode(), nil
	case maxInt <= math.MaxUint32:
		vals := make([]uint32, c.totalLen)
		quantizeInto(vals, signs, c.los, c.tol)
		enc := speck.NewCoder1D[uint32](c.totalLen)
		enc.TakeCoeffs(vals, signs)
		return enc.Encode(), nil
	default:
		vals := make([]uint64, c.totalLen)
		quantizeInto(vals, signs, c.los, c.tol)
		enc := speck.NewCoder1D[uint64](c.totalLen)
		enc.TakeCoeffs(vals, signs)
		return enc.Encode(), nil
	}
}

func quantizeInto[T speck.Width](vals []T, signs *bitmask.Bitmask, los []Outlier, tol float64) {
	inv := 1.0 / tol
	for _, o := range los {
		ll := math.Round(o.Err * inv)
		signs.WBit(o.Pos, ll >= 0)
		vals[o.Pos] = T(math.Abs(ll))
	}
}

// Decode parses a bitstream produced by Encode and returns the
// reconstructed outlier list. SetLength and SetTolerance must already be
// set to the values used when encoding.
func (c *Coder) Decode(stream []byte) ([]Outlier, error) {
	if c.totalLen == 0 {
		return nil, ErrInvalidLength
	}
	if c.tol <= 0 {
		return nil, ErrInvalidTol
	}
	if len(stream) < speck.HeaderSize {
		return nil, speck.ErrShortBuffer
	}
	numBitplanes := stream[0]

	switch {
	case numBitplanes <= 8:
		return decodeWidth[uint8](c, stream)
	case numBitplanes <= 16:
		return decodeWidth[uint16](c, stream)
	case numBitplanes <= 32:
		return decodeWidth[uint32](c, stream)
	default:
		return decodeWidth[uint64](c, stream)
	}
}

func decodeWidth[T speck.Width](c *Coder, stream []byte) ([]Outlier, error) {
	dec := speck.NewCoder1D[T](c.totalLen)
	if err := dec.UseBitstream(stream); err != nil {
		return nil, err
	}
	dec.Decode()
	vals := dec.ViewCoeffs()
	signs := dec.ViewSigns()

	var los []Outlier
	for i, v := range vals {
		switch v {
		case 0:
			continue
		case 1:
			los = append(los, Outlier{Pos: i, Err: 1.1})
		default:
			los = append(los, Outlier{Pos: i, Err: float64(v) - 0.25})
		}
	}
	sign := [2]float64{-1.0, 1.0}
	for i := range los {
		b := signs.RBit(los[i].Pos)
		idx := 0
		if b {
			idx = 1
		}
		los[i].Err *= c.tol * sign[idx]
	}
	c.los = los
	return los, nil
}
