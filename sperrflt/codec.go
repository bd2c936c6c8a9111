package sperrflt

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/sperrlab/go-sperr/bitmask"
	"github.com/sperrlab/go-sperr/conditioner"
	"github.com/sperrlab/go-sperr/outlier"
	"github.com/sperrlab/go-sperr/speck"
	"github.com/sperrlab/go-sperr/wavelet"
)

var (
	ErrWrongLength = errors.New("sperrflt: data length does not match dims")
	ErrShortBuffer = errors.New("sperrflt: bitstream shorter than conditioner header")
)

// Codec compresses or decompresses one chunk's worth of floating-point
// data under a single quality target.
type Codec struct {
	Mode    Mode
	Quality float64
}

// NewCodec returns a Codec; set Mode and Quality before calling Encode.
func NewCodec() *Codec { return &Codec{} }

func toSpeckDims(d wavelet.Dims) speck.Dims { return speck.Dims{X: d.X, Y: d.Y, Z: d.Z} }

func (c *Codec) transformForward(cdf *wavelet.CDF97) {
	dims := cdf.GetDims()
	switch {
	case dims.Z > 1:
		cdf.Dwt3D()
	case dims.Y > 1:
		cdf.Dwt2D()
	default:
		cdf.Dwt1D()
	}
}

// transformInverse undoes the forward transform. When multiRes is
// requested it returns the coarser-resolution snapshots it passed
// through on the way to full resolution (coarsest first); otherwise it
// returns nil.
func (c *Codec) transformInverse(cdf *wavelet.CDF97, multiRes bool) [][]float64 {
	dims := cdf.GetDims()
	switch {
	case dims.Z > 1:
		if multiRes {
			return cdf.Idwt3DMultiRes()
		}
		cdf.Idwt3D()
		return nil
	case dims.Y > 1:
		if multiRes {
			return cdf.Idwt2DMultiRes()
		}
		cdf.Idwt2D()
		return nil
	default:
		cdf.Idwt1D()
		return nil
	}
}

// estimateMSEMidtread estimates the mean squared quantization error a
// step of q would introduce on vals. Squared errors are summed per fixed
// 4096-element stride (plus a tail stride), the stride sums are added up,
// and the total is divided by len(vals).
func estimateMSEMidtread(vals []float64, q float64) float64 {
	const strideSize = 4096
	n := len(vals)
	numStrides := n / strideSize
	if numStrides == 0 {
		var sum float64
		for _, v := range vals {
			d := math.Remainder(v, q)
			sum += d * d
		}
		return sum / float64(n)
	}

	strideSums := make([]float64, numStrides+1)
	for i := 0; i < numStrides; i++ {
		var sum float64
		for _, v := range vals[i*strideSize : (i+1)*strideSize] {
			d := math.Remainder(v, q)
			sum += d * d
		}
		strideSums[i] = sum
	}
	var tail float64
	tailVals := vals[numStrides*strideSize:]
	for _, v := range tailVals {
		d := math.Remainder(v, q)
		tail += d * d
	}
	strideSums[numStrides] = tail

	var total float64
	for _, s := range strideSums {
		total += s
	}
	return total / float64(n)
}

func (c *Codec) estimateQ(vals []float64, param float64, highPrec bool) float64 {
	switch c.Mode {
	case ModePSNR:
		targetMSE := (param * param) * math.Pow(10.0, -c.Quality/10.0)
		q := 2.0 * math.Sqrt(targetMSE*3.0)
		for estimateMSEMidtread(vals, q) > targetMSE {
			q /= math.Exp2(0.25)
		}
		return q
	case ModePWE:
		return c.Quality * 1.5
	case ModeRate:
		if !highPrec {
			return param / float64(math.MaxUint32)
		}
		return param / 9007199254740991.0
	default:
		return 0
	}
}

func maxAbs(vals []float64) float64 {
	var m float64
	for _, v := range vals {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

func minMax(vals []float64) (lo, hi float64) {
	lo, hi = vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return
}

// Encode compresses vals (laid out according to dims) and returns the
// encoded chunk bitstream: a conditioner header, followed either by
// nothing (constant field) or by a SPECK stream and an optional
// trailing outlier stream.
func (c *Codec) Encode(vals []float64, dims wavelet.Dims) ([]byte, error) {
	if err := c.Mode.Validate(); err != nil {
		return nil, err
	}
	if len(vals) != dims.Total() {
		return nil, ErrWrongLength
	}

	cond := conditioner.New()
	work := append([]float64(nil), vals...)
	header := cond.Condition(work)
	if conditioner.IsConstant(header[0]) {
		return header[:], nil
	}

	var paramQ float64
	var valsOrig []float64
	switch c.Mode {
	case ModePWE:
		valsOrig = append([]float64(nil), work...)
	case ModePSNR:
		lo, hi := minMax(work)
		paramQ = hi - lo
	}

	cdf := wavelet.NewCDF97()
	if err := cdf.TakeData(work, dims); err != nil {
		return nil, err
	}
	c.transformForward(cdf)
	work = cdf.ReleaseData()

	if c.Mode == ModeRate {
		paramQ = maxAbs(work)
	}

	highPrec := false
	var speckStream []byte
	var outStream []byte
	hasOutlier := false

	for attempt := 0; attempt < 2; attempt++ {
		q := c.estimateQ(work, paramQ, highPrec)
		conditioner.SaveQ(&header, q)

		width, mags, signs := midtreadQuantize(work, q)

		if c.Mode == ModePWE {
			recon := midtreadInvQuantize(mags, signs, q)
			invCdf := wavelet.NewCDF97()
			if err := invCdf.TakeData(recon, dims); err != nil {
				return nil, err
			}
			c.transformInverse(invCdf, false)
			reconSpace := invCdf.ReleaseData()

			var los []outlier.Outlier
			for i, orig := range valsOrig {
				diff := orig - reconSpace[i]
				if math.Abs(diff) > c.Quality {
					los = append(los, outlier.Outlier{Pos: i, Err: diff})
				}
			}
			if len(los) > 0 {
				hasOutlier = true
				oc := outlier.NewCoder()
				oc.SetLength(len(valsOrig))
				oc.SetTolerance(c.Quality)
				oc.UseOutlierList(los)
				var err error
				outStream, err = oc.Encode()
				if err != nil {
					return nil, err
				}
			} else {
				hasOutlier = false
			}
		}

		var budget uint64
		if c.Mode == ModeRate {
			budget = uint64(c.Quality * float64(len(work)))
		}
		speckStream = encodeSpeck(width, toSpeckDims(dims), mags, signs, budget)

		if c.Mode == ModeRate && !highPrec && budget > 0 && uint64(len(speckStream))*8 < budget {
			highPrec = true
			continue
		}
		break
	}

	out := make([]byte, 0, len(header)+len(speckStream)+len(outStream))
	out = append(out, header[:]...)
	out = append(out, speckStream...)
	if hasOutlier {
		out = append(out, outStream...)
	}
	return out, nil
}

func maxMag(mags []uint64) uint64 {
	var m uint64
	for _, v := range mags {
		if v > m {
			m = v
		}
	}
	return m
}

func encodeSpeck(width uintWidth, dims speck.Dims, mags []uint64, signs *bitmask.Bitmask, budget uint64) []byte {
	switch width {
	case width8:
		c := speck.NewCodec[uint8]()
		c.SetDims(dims)
		if budget > 0 {
			c.SetBudget(budget)
		}
		c.TakeCoeffs(narrow[uint8](mags), signs)
		return c.Encode()
	case width16:
		c := speck.NewCodec[uint16]()
		c.SetDims(dims)
		if budget > 0 {
			c.SetBudget(budget)
		}
		c.TakeCoeffs(narrow[uint16](mags), signs)
		return c.Encode()
	case width32:
		c := speck.NewCodec[uint32]()
		c.SetDims(dims)
		if budget > 0 {
			c.SetBudget(budget)
		}
		c.TakeCoeffs(narrow[uint32](mags), signs)
		return c.Encode()
	default:
		c := speck.NewCodec[uint64]()
		c.SetDims(dims)
		if budget > 0 {
			c.SetBudget(budget)
		}
		c.TakeCoeffs(narrow[uint64](mags), signs)
		return c.Encode()
	}
}

func decodeSpeck(width uintWidth, dims speck.Dims, p []byte) (mags []uint64, signs *bitmask.Bitmask, consumed int, err error) {
	switch width {
	case width8:
		c := speck.NewCodec[uint8]()
		c.SetDims(dims)
		if err := c.UseBitstream(p); err != nil {
			return nil, nil, 0, err
		}
		c.Decode()
		return widen(c.ViewCoeffs()), c.ViewSigns(), speckStreamLen(p), nil
	case width16:
		c := speck.NewCodec[uint16]()
		c.SetDims(dims)
		if err := c.UseBitstream(p); err != nil {
			return nil, nil, 0, err
		}
		c.Decode()
		return widen(c.ViewCoeffs()), c.ViewSigns(), speckStreamLen(p), nil
	case width32:
		c := speck.NewCodec[uint32]()
		c.SetDims(dims)
		if err := c.UseBitstream(p); err != nil {
			return nil, nil, 0, err
		}
		c.Decode()
		return widen(c.ViewCoeffs()), c.ViewSigns(), speckStreamLen(p), nil
	default:
		c := speck.NewCodec[uint64]()
		c.SetDims(dims)
		if err := c.UseBitstream(p); err != nil {
			return nil, nil, 0, err
		}
		c.Decode()
		return widen(c.ViewCoeffs()), c.ViewSigns(), speckStreamLen(p), nil
	}
}

func speckStreamLen(p []byte) int {
	totalBits := binary.LittleEndian.Uint64(p[1:9])
	bitsInByte := totalBits / 8
	if totalBits%8 != 0 {
		bitsInByte++
	}
	return speck.HeaderSize + int(bitsInByte)
}

// Decode parses a chunk bitstream produced by Encode back into a flat
// float64 buffer.
func (c *Codec) Decode(stream []byte, dims wavelet.Dims) ([]float64, error) {
	vals, _, err := c.decode(stream, dims, false)
	return vals, err
}

// DecodeMultiRes is Decode's multi-resolution variant: when dims
// support a multi-resolution inverse (2D, or 3D with a dyadic
// transform schedule), hierarchy holds each coarser resolution
// snapshot, coarsest first.
func (c *Codec) DecodeMultiRes(stream []byte, dims wavelet.Dims) (vals []float64, hierarchy [][]float64, err error) {
	return c.decode(stream, dims, true)
}

func (c *Codec) decode(stream []byte, dims wavelet.Dims, multiRes bool) ([]float64, [][]float64, error) {
	if len(stream) < conditioner.HeaderSize {
		return nil, nil, ErrShortBuffer
	}
	var header conditioner.Header
	copy(header[:], stream[:conditioner.HeaderSize])
	cond := conditioner.New()

	if conditioner.IsConstant(header[0]) {
		vals := cond.InverseCondition(nil, header)
		return vals, nil, nil
	}

	q := conditioner.RetrieveQ(header)
	pos := conditioner.HeaderSize
	if len(stream) < pos+speck.HeaderSize {
		return nil, nil, ErrShortBuffer
	}
	width := widthFromBitplanes(stream[pos])

	mags, signs, consumed, err := decodeSpeck(width, toSpeckDims(dims), stream[pos:])
	if err != nil {
		return nil, nil, err
	}
	pos += consumed

	work := midtreadInvQuantize(mags, signs, q)

	cdf := wavelet.NewCDF97()
	if err := cdf.TakeData(work, dims); err != nil {
		return nil, nil, err
	}
	levels := c.transformInverse(cdf, multiRes)
	work = cdf.ReleaseData()

	if pos < len(stream) {
		oc := outlier.NewCoder()
		oc.SetLength(dims.Total())
		oc.SetTolerance(q / 1.5)
		if los, err := oc.Decode(stream[pos:]); err == nil {
			for _, o := range los {
				work[o.Pos] += o.Err
			}
		}
	}

	restored := cond.InverseCondition(work, header)

	var hierarchy [][]float64
	if multiRes && levels != nil {
		hierarchy = make([][]float64, len(levels))
		for i, lvl := range levels {
			hierarchy[i] = cond.InverseCondition(lvl, header)
		}
	}

	return restored, hierarchy, nil
}
