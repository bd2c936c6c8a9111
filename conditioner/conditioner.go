// Package conditioner prepares a raw floating-point array for the wavelet
// transform: it detects constant fields as a fast path, and otherwise
// removes the field's mean using a two-level striding summation to keep
// round-off error small on very large arrays. The 17-byte header it
// produces also carries a slot the SPECK-FLT orchestrator uses to stash
// its chosen quantization step size, so the two stay bundled together on
// the wire.
package conditioner

import (
	"encoding/binary"
	"math"

	"github.com/sperrlab/go-sperr/flags"
)

// HeaderSize is the fixed size, in bytes, of a conditioner header.
const HeaderSize = 17

// constantFieldBit is the index of the "is this a constant field?" flag
// within the header's packed meta byte.
const constantFieldBit = 7

// qOffset is the byte offset within the header where the caller's chosen
// quantization step size is stashed by SaveQ/RetrieveQ.
const qOffset = 9

// defaultNumStrides is the starting stride count for the two-level mean.
const defaultNumStrides = 2048

// maxNumStrides bounds the upward search in adjustStrides.
const maxNumStrides = 32768

// Header is the fixed-size metadata block condition produces and
// InverseCondition consumes.
type Header [HeaderSize]byte

// Conditioner holds the scratch stride buffer reused across Condition
// calls to avoid reallocating it per call.
type Conditioner struct {
	numStrides int
	strideBuf  []float64
}

// New returns a ready-to-use Conditioner.
func New() *Conditioner {
	return &Conditioner{}
}

// Condition removes large-scale structure from buf before it is handed to
// the wavelet transform. If buf is a constant field, Condition reports
// that in the header and leaves buf untouched — the caller should skip
// the wavelet/quantization/SPECK pipeline entirely in that case. Otherwise
// buf is modified in place to have its mean subtracted, and the header
// records that mean so InverseCondition can add it back.
func (c *Conditioner) Condition(buf []float64) Header {
	var meta [8]bool
	meta[0] = true // subtract mean

	if isConstant(buf) {
		meta[constantFieldBit] = true
		var h Header
		h[0] = flags.Pack8(meta)
		binary.LittleEndian.PutUint64(h[1:9], uint64(len(buf)))
		binary.LittleEndian.PutUint64(h[9:17], math.Float64bits(buf[0]))
		return h
	}

	c.adjustStrides(len(buf))
	mean := c.calcMean(buf)
	for i := range buf {
		buf[i] -= mean
	}

	var h Header
	h[0] = flags.Pack8(meta)
	binary.LittleEndian.PutUint64(h[1:9], math.Float64bits(mean))
	return h
}

// InverseCondition undoes Condition: for a constant-field header it
// resizes buf to the recorded length and fills it with the recorded
// value; otherwise it adds the recorded mean back into buf.
func (c *Conditioner) InverseCondition(buf []float64, h Header) []float64 {
	meta := flags.Unpack8(h[0])

	if meta[constantFieldBit] {
		nval := binary.LittleEndian.Uint64(h[1:9])
		val := math.Float64frombits(binary.LittleEndian.Uint64(h[9:17]))
		out := buf
		if cap(out) < int(nval) {
			out = make([]float64, nval)
		} else {
			out = out[:nval]
		}
		for i := range out {
			out[i] = val
		}
		return out
	}

	mean := math.Float64frombits(binary.LittleEndian.Uint64(h[1:9]))
	for i := range buf {
		buf[i] += mean
	}
	return buf
}

// IsConstant reports whether a header's meta byte marks its field as
// constant, without decoding the rest of the header.
func IsConstant(metaByte byte) bool {
	return flags.Unpack8(metaByte)[constantFieldBit]
}

// SaveQ stashes a quantization step size into a header at the slot
// reserved for it, alongside the mean. Must not be called on a
// constant-field header, whose bytes [9:17] already hold the field value.
func SaveQ(h *Header, q float64) {
	binary.LittleEndian.PutUint64(h[qOffset:qOffset+8], math.Float64bits(q))
}

// RetrieveQ reads back a quantization step size stashed by SaveQ.
func RetrieveQ(h Header) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(h[qOffset : qOffset+8]))
}

func isConstant(buf []float64) bool {
	if len(buf) == 0 {
		return true
	}
	v0 := buf[0]
	for _, v := range buf {
		if v != v0 {
			return false
		}
	}
	return true
}

// calcMean computes the mean of buf via two levels of summation: buf is
// split into numStrides contiguous strides, each stride is averaged
// independently, and the per-stride averages are themselves averaged.
// This keeps the running sum's magnitude bounded even for very large
// arrays, which a single flat accumulation would not.
func (c *Conditioner) calcMean(buf []float64) float64 {
	if cap(c.strideBuf) < c.numStrides {
		c.strideBuf = make([]float64, c.numStrides)
	} else {
		c.strideBuf = c.strideBuf[:c.numStrides]
	}

	strideSize := len(buf) / c.numStrides
	for s := 0; s < c.numStrides; s++ {
		begin := strideSize * s
		end := begin + strideSize
		var sum float64
		for _, v := range buf[begin:end] {
			sum += v
		}
		c.strideBuf[s] = sum / float64(strideSize)
	}

	var sum float64
	for _, v := range c.strideBuf {
		sum += v
	}
	return sum / float64(len(c.strideBuf))
}

// adjustStrides picks the first stride count that evenly divides length,
// searching upward from defaultNumStrides to maxNumStrides, then downward
// from defaultNumStrides to 1, which always divides evenly.
func (c *Conditioner) adjustStrides(length int) {
	c.numStrides = defaultNumStrides
	if length%c.numStrides == 0 {
		return
	}

	for num := c.numStrides; num <= maxNumStrides; num++ {
		if length%num == 0 {
			c.numStrides = num
			return
		}
	}

	for num := c.numStrides; num > 0; num-- {
		if length%num == 0 {
			c.numStrides = num
			return
		}
	}
}
