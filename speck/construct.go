package speck

// NewCoder1D builds a Codec over a length-element 1D coefficient array.
// It is a thin convenience constructor: a Codec already handles 1D/2D/3D
// uniformly through Dims, since axes pinned to length 1 never partition.
func NewCoder1D[T Width](length int) *Codec[T] {
	c := NewCodec[T]()
	c.SetDims(Dims{X: length, Y: 1, Z: 1})
	return c
}

// NewCoder2D builds a Codec over a w*h 2D coefficient array, row-major
// with w the fast-varying axis.
func NewCoder2D[T Width](w, h int) *Codec[T] {
	c := NewCodec[T]()
	c.SetDims(Dims{X: w, Y: h, Z: 1})
	return c
}

// NewCoder3D builds a Codec over a w*h*d 3D coefficient volume, row-major
// with w fastest-varying and d slowest.
func NewCoder3D[T Width](w, h, d int) *Codec[T] {
	c := NewCodec[T]()
	c.SetDims(Dims{X: w, Y: h, Z: d})
	return c
}
