package speck

import (
	"encoding/binary"
	"errors"
	"math"
	"math/bits"

	"github.com/sperrlab/go-sperr/bitmask"
	"github.com/sperrlab/go-sperr/bitstream"
)

// Width is the set of unsigned integer types a Codec can carry. The
// coder itself is width-agnostic; the wavelet-coefficient pipeline and
// the outlier coder each instantiate the narrowest of the four widths
// that holds their largest quantized magnitude.
type Width interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// HeaderSize is the length, in bytes, of the fixed header every encoded
// bitstream carries: one byte recording how many bitplanes were coded,
// followed by a little-endian uint64 recording the total number of bits
// produced.
const HeaderSize = 9

// ErrShortBuffer is returned when a caller hands UseBitstream fewer than
// HeaderSize bytes.
var ErrShortBuffer = errors.New("speck: bitstream shorter than header")

// Dims gives the extents of the coefficient array a Codec operates over.
// Unused trailing axes (for 1D/2D use) are 1.
type Dims struct {
	X, Y, Z int
}

func (d Dims) total() int { return d.X * d.Y * d.Z }

// Codec runs the SPECK bitplane coder over a dense array of unsigned
// integer coefficients of width T, alongside a parallel sign bitmask.
// One Codec handles 1D, 2D and 3D layouts uniformly: axes with length 1
// simply never partition.
type Codec[T Width] struct {
	dims Dims
	twoD bool // true for a genuinely-2D array (Y>1, Z<=1): selects m_partition_S's hi-first child order

	coeffBuf []T
	signs    *bitmask.Bitmask

	lipMask *bitmask.Bitmask
	lspMask *bitmask.Bitmask
	lspNew  []int
	lis     [][]Set
	iSet    typeISet // the 2D-only complement set; permanently empty for 1D/3D

	bitBuf *bitstream.Bitstream

	threshold    T
	numBitplanes uint8
	totalBits    uint64
	availBits    uint64
	budget       uint64 // in bits; 0 means unbounded
}

// NewCodec constructs a Codec ready to have dims and coefficients set.
func NewCodec[T Width]() *Codec[T] {
	return &Codec[T]{bitBuf: bitstream.New(0)}
}

// SetDims sets the coefficient array's extents. Must be called before
// Encode/Decode.
func (c *Codec[T]) SetDims(dims Dims) {
	c.dims = dims
	c.twoD = dims.Y > 1 && dims.Z <= 1
}

// SetBudget caps the encoded bitstream at approximately bud bits (rounded
// up to a byte boundary), enabling fixed-rate truncation. A budget of 0
// means unbounded.
func (c *Codec[T]) SetBudget(bud uint64) {
	if bud == 0 {
		c.budget = math.MaxUint64
		return
	}
	for bud%8 != 0 {
		bud++
	}
	c.budget = bud
}

// TakeCoeffs hands the codec its coefficient buffer and parallel sign
// mask, both of which the codec takes ownership of.
func (c *Codec[T]) TakeCoeffs(coeffs []T, signs *bitmask.Bitmask) {
	c.coeffBuf = coeffs
	c.signs = signs
}

// ViewCoeffs returns the current coefficient buffer without transferring
// ownership.
func (c *Codec[T]) ViewCoeffs() []T { return c.coeffBuf }

// ReleaseCoeffs hands the coefficient buffer to the caller and clears the
// codec's own reference.
func (c *Codec[T]) ReleaseCoeffs() []T {
	out := c.coeffBuf
	c.coeffBuf = nil
	return out
}

// ViewSigns returns the sign bitmask without transferring ownership.
func (c *Codec[T]) ViewSigns() *bitmask.Bitmask { return c.signs }

func idxOf(dims Dims, s Set) int {
	return s.Z0*dims.X*dims.Y + s.Y0*dims.X + s.X0
}

func (c *Codec[T]) anySignificant(s Set) bool {
	for z := s.Z0; z < s.Z0+s.LZ; z++ {
		for y := s.Y0; y < s.Y0+s.LY; y++ {
			base := z*c.dims.X*c.dims.Y + y*c.dims.X
			for x := s.X0; x < s.X0+s.LX; x++ {
				if c.coeffBuf[base+x] >= c.threshold {
					return true
				}
			}
		}
	}
	return false
}

func (c *Codec[T]) resetLIS(depth int) {
	if cap(c.lis) < depth {
		c.lis = make([][]Set, depth)
	} else {
		c.lis = c.lis[:depth]
	}
	for i := range c.lis {
		c.lis[i] = c.lis[i][:0]
	}
}

// initializeLists seeds the LIS (and, for 2D, the typeI complement) with
// the coarsest root the wavelet transform actually produced, rather than
// eagerly decomposing the whole coefficient domain down to single
// elements: the bitplane march itself is what discovers which finer sets
// are significant, one shell at a time, as spec.md's deferred-subdivision
// design requires.
func (c *Codec[T]) initializeLists() {
	c.iSet = typeISet{}
	switch {
	case c.dims.Y <= 1 && c.dims.Z <= 1:
		c.initializeLists1D()
	case c.dims.Z <= 1:
		c.initializeLists2D()
	default:
		c.initializeLists3D()
	}
}

// initializeLists1D mirrors SPECK1D_INT::m_initialize_lists: a single
// split into two halves, both deposited in the LIS at the same level, no
// further eager descent.
func (c *Codec[T]) initializeLists1D() {
	c.resetLIS(numOfPartitions(c.dims.X) + 1)
	full := Set{LX: c.dims.X, LY: 1, LZ: 1}
	children, nextLevel := partition(full, false)
	c.lis[nextLevel] = append(c.lis[nextLevel], children...)
}

// initializeLists2D mirrors SPECK2D_INT::m_initialize_lists: the root set
// is the array's coarsest wavelet-approximation band (sized via
// numOfXforms, not numOfPartitions), and everything else starts out as
// the single typeI complement rather than as individually-listed sets.
func (c *Codec[T]) initializeLists2D() {
	c.resetLIS(numOfPartitions(c.dims.X) + numOfPartitions(c.dims.Y) + 1)

	xforms := numOfXforms(min(c.dims.X, c.dims.Y))
	approxX, _ := calcApproxDetailLen(c.dims.X, xforms)
	approxY, _ := calcApproxDetailLen(c.dims.Y, xforms)

	root := Set{LX: approxX, LY: approxY, LZ: 1, Level: xforms}
	c.lis[xforms] = append(c.lis[xforms], root)

	c.iSet = typeISet{startX: approxX, startY: approxY, level: xforms}
}

// initializeLists3D mirrors SPECK3D_INT::m_initialize_lists: the root
// descends eagerly (every intermediate sibling lands in the LIS, unlike
// 2D's lazy complement) but only as deep as each axis's own transform
// budget allows, not all the way to single elements. The X/Y axes share
// one budget (they always split together); Z has its own, so an
// anisotropic volume keeps splitting whichever axis group still has
// budget left after the other runs out.
func (c *Codec[T]) initializeLists3D() {
	depth := 1 + numOfPartitions(c.dims.X) + numOfPartitions(c.dims.Y) + numOfPartitions(c.dims.Z)
	c.resetLIS(depth)

	xyBudget := numOfXforms(min(c.dims.X, c.dims.Y))
	zBudget := numOfXforms(c.dims.Z)
	if d, ok := canUseDyadic3D(c.dims); ok {
		xyBudget, zBudget = d, d
	}

	big := Set{LX: c.dims.X, LY: c.dims.Y, LZ: c.dims.Z}
	level := 0
	for xyBudget > 0 || zBudget > 0 {
		splitXY := xyBudget > 0
		splitZ := zBudget > 0
		children, nextLevel := axisBudgetPartition(big, splitXY, splitZ)
		big = children[0]
		c.lis[nextLevel] = append(c.lis[nextLevel], children[1:]...)
		level = nextLevel
		if splitXY {
			xyBudget--
		}
		if splitZ {
			zBudget--
		}
	}
	// The remaining corner is the coefficient most likely to be
	// significant (it holds the DC/approximation term); process it first.
	c.lis[level] = append([]Set{big}, c.lis[level]...)
}

func (c *Codec[T]) cleanLIS() {
	for level := range c.lis {
		kept := c.lis[level][:0]
		for _, s := range c.lis[level] {
			if s.NumElem() != 0 {
				kept = append(kept, s)
			}
		}
		c.lis[level] = kept
	}
}

// Encode runs the full bitplane march over the coefficient buffer and
// returns the encoded bitstream (header included).
func (c *Codec[T]) Encode() []byte {
	c.initializeLists()
	n := c.dims.total()
	c.bitBuf.Reserve(n)
	c.bitBuf.Rewind()
	c.totalBits = 0

	c.lspMask = bitmask.New(n)
	c.lspNew = c.lspNew[:0]
	c.lipMask = bitmask.New(n)

	allZero := true
	var maxCoeff T
	for _, v := range c.coeffBuf {
		if v != 0 {
			allZero = false
		}
		if v > maxCoeff {
			maxCoeff = v
		}
	}
	if allZero {
		c.numBitplanes = 0
		return c.appendHeader(nil)
	}

	c.numBitplanes = 1
	c.threshold = 1
	for maxCoeff-c.threshold >= c.threshold {
		c.threshold *= 2
		c.numBitplanes++
	}

	budget := c.budget
	if budget == 0 {
		budget = math.MaxUint64
	}
	for bp := uint8(0); bp < c.numBitplanes; bp++ {
		c.sortingPassEncode()
		if uint64(c.bitBuf.WTell()) >= budget {
			break
		}
		c.refinementPassEncode()
		if uint64(c.bitBuf.WTell()) >= budget {
			break
		}
		c.threshold /= 2
		c.cleanLIS()
	}

	c.totalBits = uint64(c.bitBuf.WTell())
	c.bitBuf.Flush()

	bitsToPack := budget
	if c.totalBits < bitsToPack {
		bitsToPack = c.totalBits
	}
	return c.appendHeader(c.bitBuf.GetBitstream(int(bitsToPack)))
}

func (c *Codec[T]) appendHeader(body []byte) []byte {
	out := make([]byte, HeaderSize+len(body))
	out[0] = c.numBitplanes
	binary.LittleEndian.PutUint64(out[1:9], c.totalBits)
	copy(out[9:], body)
	return out
}

// UseBitstream parses a (possibly truncated, for progressive decode)
// encoded bitstream produced by Encode.
func (c *Codec[T]) UseBitstream(p []byte) error {
	if len(p) < HeaderSize {
		return ErrShortBuffer
	}
	c.numBitplanes = p[0]
	c.totalBits = binary.LittleEndian.Uint64(p[1:9])

	c.availBits = uint64(len(p)-HeaderSize) * 8
	if c.availBits < c.totalBits {
		c.bitBuf.Reserve(int(c.totalBits))
		c.bitBuf.Reset()
		c.bitBuf.ParseBitstream(p[HeaderSize:], int(c.availBits))
	} else {
		c.availBits = c.totalBits
		c.bitBuf.ParseBitstream(p[HeaderSize:], int(c.totalBits))
	}
	return nil
}

// Decode reconstructs the coefficient buffer and sign mask from a
// previously-parsed bitstream (see UseBitstream).
func (c *Codec[T]) Decode() {
	c.initializeLists()
	c.bitBuf.Rewind()

	n := c.dims.total()
	c.coeffBuf = make([]T, n)
	c.signs = bitmask.New(n)
	c.signs.ResetTrue()

	c.lspMask = bitmask.New(n)
	c.lspNew = c.lspNew[:0]
	c.lipMask = bitmask.New(n)

	if c.numBitplanes == 0 {
		return
	}

	c.threshold = 1
	for i := uint8(1); i < c.numBitplanes; i++ {
		c.threshold *= 2
	}

	for bp := uint8(0); bp < c.numBitplanes; bp++ {
		c.sortingPassDecode()
		if uint64(c.bitBuf.RTell()) >= c.availBits {
			break
		}
		c.refinementPassDecode()
		if uint64(c.bitBuf.RTell()) >= c.availBits {
			break
		}
		c.threshold /= 2
		c.cleanLIS()
	}

	if len(c.lspNew) > 0 {
		initVal := c.threshold + c.threshold - c.threshold/2 - 1
		for _, idx := range c.lspNew {
			c.coeffBuf[idx] = initVal
		}
	}
}

func (c *Codec[T]) sortingPassEncode() {
	bitsX64 := c.lipMask.Len() - c.lipMask.Len()%64
	for i := 0; i < bitsX64; i += 64 {
		value := c.lipMask.RLong(i)
		for value != 0 {
			j := bits.TrailingZeros64(value)
			var dummy int
			c.processP(i+j, &dummy, true)
			value &= value - 1
		}
	}
	for i := bitsX64; i < c.lipMask.Len(); i++ {
		if c.lipMask.RBit(i) {
			var dummy int
			c.processP(i, &dummy, true)
		}
	}
	for level := len(c.lis) - 1; level >= 0; level-- {
		for idx := 0; idx < len(c.lis[level]); idx++ {
			var dummy int
			c.processSEncode(level, idx, &dummy, true)
		}
	}

	// Third, process the sole typeI set (a no-op for 1D/3D, where it's
	// permanently empty).
	c.processTypeIEncode(true)
}

func (c *Codec[T]) sortingPassDecode() {
	bitsX64 := c.lipMask.Len() - c.lipMask.Len()%64
	for i := 0; i < bitsX64; i += 64 {
		value := c.lipMask.RLong(i)
		for value != 0 {
			j := bits.TrailingZeros64(value)
			var dummy int
			c.processPDecode(i+j, &dummy, true)
			value &= value - 1
		}
	}
	for i := bitsX64; i < c.lipMask.Len(); i++ {
		if c.lipMask.RBit(i) {
			var dummy int
			c.processPDecode(i, &dummy, true)
		}
	}
	for level := len(c.lis) - 1; level >= 0; level-- {
		for idx := 0; idx < len(c.lis[level]); idx++ {
			var dummy int
			c.processSDecode(level, idx, &dummy, true)
		}
	}

	c.processTypeIDecode(true)
}

func (c *Codec[T]) processSEncode(level, idx int, counter *int, output bool) {
	set := c.lis[level][idx]
	isSig := true
	if output {
		isSig = c.anySignificant(set)
		c.bitBuf.WBit(isSig)
	}
	if isSig {
		*counter++
		c.codeSEncode(level, idx)
		c.lis[level][idx] = Set{}
	}
}

func (c *Codec[T]) processSDecode(level, idx int, counter *int, read bool) {
	isSig := true
	if read {
		isSig = c.bitBuf.RBit()
	}
	if isSig {
		*counter++
		c.codeSDecode(level, idx)
		c.lis[level][idx] = Set{}
	}
}

func (c *Codec[T]) processP(idx int, counter *int, output bool) {
	isSig := true
	if output {
		isSig = c.coeffBuf[idx] >= c.threshold
		c.bitBuf.WBit(isSig)
	}
	if isSig {
		*counter++
		c.coeffBuf[idx] -= c.threshold
		c.bitBuf.WBit(c.signs.RBit(idx))
		c.lspNew = append(c.lspNew, idx)
		c.lipMask.WFalse(idx)
	}
}

func (c *Codec[T]) processPDecode(idx int, counter *int, read bool) {
	isSig := true
	if read {
		isSig = c.bitBuf.RBit()
	}
	if isSig {
		*counter++
		c.signs.WBit(idx, c.bitBuf.RBit())
		c.lspNew = append(c.lspNew, idx)
		c.lipMask.WFalse(idx)
	}
}

// codeSEncode/codeSDecode implement the tail-elision rule shared by every
// dimensionality: once a set is known significant, its children are
// coded in order, and the last child's own significance bit is skipped
// whenever no earlier sibling has already been found significant (the
// parent's significance guarantees that last child must be significant).
func (c *Codec[T]) codeSEncode(level, idx int) {
	set := c.lis[level][idx]
	children, nextLevel := partition(set, c.twoD)
	sigCounter := 0
	for i, child := range children {
		needDecide := sigCounter != 0 || i != len(children)-1
		if child.NumElem() == 1 {
			id := idxOf(c.dims, child)
			c.lipMask.WTrue(id)
			c.processP(id, &sigCounter, needDecide)
		} else {
			c.lis[nextLevel] = append(c.lis[nextLevel], child)
			newIdx := len(c.lis[nextLevel]) - 1
			c.processSEncode(nextLevel, newIdx, &sigCounter, needDecide)
		}
	}
}

func (c *Codec[T]) codeSDecode(level, idx int) {
	set := c.lis[level][idx]
	children, nextLevel := partition(set, c.twoD)
	sigCounter := 0
	for i, child := range children {
		needDecide := sigCounter != 0 || i != len(children)-1
		if child.NumElem() == 1 {
			id := idxOf(c.dims, child)
			c.lipMask.WTrue(id)
			c.processPDecode(id, &sigCounter, needDecide)
		} else {
			c.lis[nextLevel] = append(c.lis[nextLevel], child)
			newIdx := len(c.lis[nextLevel]) - 1
			c.processSDecode(nextLevel, newIdx, &sigCounter, needDecide)
		}
	}
}

// partitionTypeI peels one L-shaped shell off the complement set: the
// three rectangles bordering the current root along its detail edges
// (bottom-right, top-right, bottom-left), plus the shrunk complement that
// remains once those three are accounted for. Mirrors m_partition_I.
func (c *Codec[T]) partitionTypeI() (subsets [3]Set, shrunk typeISet) {
	approxX, detailX := calcApproxDetailLen(c.dims.X, c.iSet.level)
	approxY, detailY := calcApproxDetailLen(c.dims.Y, c.iSet.level)

	subsets[0] = Set{X0: approxX, Y0: approxY, LX: detailX, LY: detailY, LZ: 1, Level: c.iSet.level} // bottom-right
	subsets[1] = Set{X0: approxX, Y0: 0, LX: detailX, LY: approxY, LZ: 1, Level: c.iSet.level}        // top-right
	subsets[2] = Set{X0: 0, Y0: approxY, LX: approxX, LY: detailY, LZ: 1, Level: c.iSet.level}        // bottom-left

	shrunk = typeISet{
		startX: c.iSet.startX + detailX,
		startY: c.iSet.startY + detailY,
		level:  c.iSet.level - 1,
	}
	return
}

// decideTypeISignificant mirrors m_decide_I_significance: the complement
// region is always exactly two contiguous scans, the bottom rectangle
// (rows startY..end, every column) followed by the strip directly right
// of the missing top-left corner (rows 0..startY, columns startX..end).
func (c *Codec[T]) decideTypeISignificant() bool {
	for i := c.iSet.startY * c.dims.X; i < c.dims.X*c.dims.Y; i++ {
		if c.coeffBuf[i] >= c.threshold {
			return true
		}
	}
	for y := 0; y < c.iSet.startY; y++ {
		base := y * c.dims.X
		for x := c.iSet.startX; x < c.dims.X; x++ {
			if c.coeffBuf[base+x] >= c.threshold {
				return true
			}
		}
	}
	return false
}

// processTypeIEncode/processTypeIDecode and codeTypeIEncode/codeTypeIDecode
// mirror m_process_I/m_code_I's mutual recursion: each time the complement
// set is found significant, it's peeled into three regular type-S sets
// and replaced by its own shrunken remainder, which is immediately
// considered for the same bitplane (need_decide elided whenever none of
// the three peeled sets proved significant, since the parent's own
// significance then guarantees the remainder is).
func (c *Codec[T]) processTypeIEncode(needDecide bool) {
	if c.iSet.empty() {
		return
	}
	isSig := true
	if needDecide {
		isSig = c.decideTypeISignificant()
		c.bitBuf.WBit(isSig)
	}
	if isSig {
		c.codeTypeIEncode()
	}
}

func (c *Codec[T]) codeTypeIEncode() {
	subsets, shrunk := c.partitionTypeI()
	counter := 0
	for _, set := range subsets {
		if set.NumElem() == 0 {
			continue
		}
		c.lis[set.Level] = append(c.lis[set.Level], set)
		newIdx := len(c.lis[set.Level]) - 1
		c.processSEncode(set.Level, newIdx, &counter, true)
	}
	c.iSet = shrunk
	c.processTypeIEncode(counter != 0)
}

func (c *Codec[T]) processTypeIDecode(needDecide bool) {
	if c.iSet.empty() {
		return
	}
	isSig := true
	if needDecide {
		isSig = c.bitBuf.RBit()
	}
	if isSig {
		c.codeTypeIDecode()
	}
}

func (c *Codec[T]) codeTypeIDecode() {
	subsets, shrunk := c.partitionTypeI()
	counter := 0
	for _, set := range subsets {
		if set.NumElem() == 0 {
			continue
		}
		c.lis[set.Level] = append(c.lis[set.Level], set)
		newIdx := len(c.lis[set.Level]) - 1
		c.processSDecode(set.Level, newIdx, &counter, true)
	}
	c.iSet = shrunk
	c.processTypeIDecode(counter != 0)
}

func (c *Codec[T]) refinementPassEncode() {
	bitsX64 := c.lspMask.Len() - c.lspMask.Len()%64
	for i := 0; i < bitsX64; i += 64 {
		value := c.lspMask.RLong(i)
		for value != 0 {
			j := bits.TrailingZeros64(value)
			o1 := c.coeffBuf[i+j] >= c.threshold
			if o1 {
				c.coeffBuf[i+j] -= c.threshold
			}
			c.bitBuf.WBit(o1)
			value &= value - 1
		}
	}
	for i := bitsX64; i < c.lspMask.Len(); i++ {
		if c.lspMask.RBit(i) {
			o1 := c.coeffBuf[i] >= c.threshold
			if o1 {
				c.coeffBuf[i] -= c.threshold
			}
			c.bitBuf.WBit(o1)
		}
	}
	for _, idx := range c.lspNew {
		c.lspMask.WTrue(idx)
	}
	c.lspNew = c.lspNew[:0]
}

func (c *Codec[T]) refinementPassDecode() {
	bitsX64 := c.lspMask.Len() - c.lspMask.Len()%64
	readPos := uint64(c.bitBuf.RTell())

	if c.threshold >= 2 {
		halfT := c.threshold / 2
		for i := 0; i < bitsX64; i += 64 {
			value := c.lspMask.RLong(i)
			for value != 0 {
				j := bits.TrailingZeros64(value)
				if c.bitBuf.RBit() {
					c.coeffBuf[i+j] += halfT
				} else {
					c.coeffBuf[i+j] -= halfT
				}
				readPos++
				if readPos == c.availBits {
					c.finishRefinementDecode()
					return
				}
				value &= value - 1
			}
		}
		for i := bitsX64; i < c.lspMask.Len(); i++ {
			if c.lspMask.RBit(i) {
				if c.bitBuf.RBit() {
					c.coeffBuf[i] += halfT
				} else {
					c.coeffBuf[i] -= halfT
				}
				readPos++
				if readPos == c.availBits {
					c.finishRefinementDecode()
					return
				}
			}
		}
	} else {
		for i := 0; i < bitsX64; i += 64 {
			value := c.lspMask.RLong(i)
			for value != 0 {
				j := bits.TrailingZeros64(value)
				if c.bitBuf.RBit() {
					c.coeffBuf[i+j]++
				}
				readPos++
				if readPos == c.availBits {
					c.finishRefinementDecode()
					return
				}
				value &= value - 1
			}
		}
		for i := bitsX64; i < c.lspMask.Len(); i++ {
			if c.lspMask.RBit(i) {
				if c.bitBuf.RBit() {
					c.coeffBuf[i]++
				}
				readPos++
				if readPos == c.availBits {
					c.finishRefinementDecode()
					return
				}
			}
		}
	}
	c.finishRefinementDecode()
}

// finishRefinementDecode initializes every newly-significant coefficient
// found this bitplane to the middle of its [threshold, 2*threshold)
// interval (rounding to the lower of the two "middle" integers, which
// also happens to make threshold==1 resolve to exactly 1), then folds
// them into the persistent LSP mask. Called both at the natural end of
// the refinement pass and from the early-exit paths above when the
// bitstream runs out mid-pass.
func (c *Codec[T]) finishRefinementDecode() {
	initVal := c.threshold + c.threshold - c.threshold/2 - 1
	for _, idx := range c.lspNew {
		c.coeffBuf[idx] = initVal
	}
	for _, idx := range c.lspNew {
		c.lspMask.WTrue(idx)
	}
	c.lspNew = c.lspNew[:0]
}

