package speck

// AnyCodec erases a Codec's integer width behind a small closed sum
// type, so a caller that only learns the required width at runtime
// (after quantizing a chunk of wavelet coefficients, say) doesn't need a
// type switch at every call site. Unlike a type-erased interface{}, the
// set of widths is fixed and exhaustively handled here.
type AnyCodec struct {
	w8  *Codec[uint8]
	w16 *Codec[uint16]
	w32 *Codec[uint32]
	w64 *Codec[uint64]
}

// NewAnyCodec8/16/32/64 wrap a concrete Codec of the named width.
func NewAnyCodec8(c *Codec[uint8]) AnyCodec   { return AnyCodec{w8: c} }
func NewAnyCodec16(c *Codec[uint16]) AnyCodec { return AnyCodec{w16: c} }
func NewAnyCodec32(c *Codec[uint32]) AnyCodec { return AnyCodec{w32: c} }
func NewAnyCodec64(c *Codec[uint64]) AnyCodec { return AnyCodec{w64: c} }

// Encode dispatches to whichever concrete Codec this AnyCodec wraps.
func (a AnyCodec) Encode() []byte {
	switch {
	case a.w8 != nil:
		return a.w8.Encode()
	case a.w16 != nil:
		return a.w16.Encode()
	case a.w32 != nil:
		return a.w32.Encode()
	default:
		return a.w64.Encode()
	}
}

// Decode dispatches to whichever concrete Codec this AnyCodec wraps.
func (a AnyCodec) Decode() {
	switch {
	case a.w8 != nil:
		a.w8.Decode()
	case a.w16 != nil:
		a.w16.Decode()
	case a.w32 != nil:
		a.w32.Decode()
	default:
		a.w64.Decode()
	}
}

// UseBitstream dispatches to whichever concrete Codec this AnyCodec
// wraps.
func (a AnyCodec) UseBitstream(p []byte) error {
	switch {
	case a.w8 != nil:
		return a.w8.UseBitstream(p)
	case a.w16 != nil:
		return a.w16.UseBitstream(p)
	case a.w32 != nil:
		return a.w32.UseBitstream(p)
	default:
		return a.w64.UseBitstream(p)
	}
}
