// Package speck implements the SPECK (Set Partitioning in hierarchical
// trees, adapted for bitplane coding of already-integerized wavelet
// coefficients) entropy coder: a bitplane-by-bitplane significance map
// coder that walks a quad/oct-tree of coefficient sets instead of coding
// each coefficient independently.
package speck

// Set is a rectangular (or, with one or two axes pinned to length 1, a
// line or plane) block of coefficients addressed by its origin and
// extents along up to three axes. The same type serves 1D, 2D and 3D
// partitioning: unused axes simply carry length 1 and never split.
type Set struct {
	X0, Y0, Z0 int
	LX, LY, LZ int
	Level      int
}

// NumElem returns how many coefficients the set covers.
func (s Set) NumElem() int { return s.LX * s.LY * s.LZ }

// typeISet is the 2D-only "complement" set: everything in the coefficient
// array outside the current root rectangle [0,startX)x[0,startY). Unlike a
// regular Set it is never pushed onto the LIS itself; it shrinks in place,
// one L-shaped shell at a time, each time it's found significant during a
// bitplane pass. 1D and 3D coding never populate it, so its zero value
// (level 0) reads as permanently empty.
type typeISet struct {
	startX, startY int
	level          int
}

func (i typeISet) empty() bool { return i.level <= 0 }

// splitLen divides a length into its two halves the way the bitplane
// coder's partitioning tree always does: the first half takes the extra
// element when the length is odd.
func splitLen(length int) (lo, hi int) {
	hi = length / 2
	lo = length - hi
	return
}

type axisSpan struct {
	off, length int
}

// orderedAxisSpans returns the lo/hi spans of a split axis in the order a
// partition's children should visit them. hiFirst matches the reference's
// 2D quadrant order (detail half before approximation half); every other
// dimensionality visits the approximation half first.
func orderedAxisSpans(lo, hi int, hiFirst bool) []axisSpan {
	if hi == 0 {
		return []axisSpan{{0, lo}}
	}
	if hiFirst {
		return []axisSpan{{lo, hi}, {0, lo}}
	}
	return []axisSpan{{0, lo}, {lo, hi}}
}

// partition splits a set into its children: every axis whose length is
// greater than one contributes a halving, so a 1D set yields up to 2
// children, a 2D set up to 4, and a 3D set up to 8.
//
// hiFirst selects the child ordering: the reference lays out a genuinely
// 2D set's quadrants as BR, BL, TR, TL (detail-before-approximation on
// both axes), but 1D and 3D sets are laid out approximation-first,
// x-fastest. Callers pass the codec's own twoD flag so a single function
// serves every dimensionality with the right order for each.
func partition(s Set, hiFirst bool) (children []Set, nextLevel int) {
	xlo, xhi := splitLen(s.LX)
	ylo, yhi := splitLen(s.LY)
	zlo, zhi := splitLen(s.LZ)

	nextLevel = s.Level
	if xhi > 0 {
		nextLevel++
	}
	if yhi > 0 {
		nextLevel++
	}
	if zhi > 0 {
		nextLevel++
	}

	for _, z := range orderedAxisSpans(zlo, zhi, hiFirst) {
		for _, y := range orderedAxisSpans(ylo, yhi, hiFirst) {
			for _, x := range orderedAxisSpans(xlo, xhi, hiFirst) {
				children = append(children, Set{
					X0: s.X0 + x.off, Y0: s.Y0 + y.off, Z0: s.Z0 + z.off,
					LX: x.length, LY: y.length, LZ: z.length,
					Level: nextLevel,
				})
			}
		}
	}
	return
}

// axisBudgetPartition splits a 3D set the way volumetric root-descent
// builds its initial LIS: the X/Y axes split together as long as xyActive,
// and Z splits independently as long as zActive, regardless of whether
// that axis's current length could still halve on its own. This lets one
// function cover the reference's three root-descent phases (all three
// axes together, then whichever of XY-only/Z-only still has budget left)
// without three separate partition routines. Ordering is always
// approximation-first, x-fastest, matching the 3D reference.
func axisBudgetPartition(s Set, xyActive, zActive bool) (children []Set, nextLevel int) {
	xlo, xhi := s.LX, 0
	ylo, yhi := s.LY, 0
	if xyActive {
		xlo, xhi = splitLen(s.LX)
		ylo, yhi = splitLen(s.LY)
	}
	zlo, zhi := s.LZ, 0
	if zActive {
		zlo, zhi = splitLen(s.LZ)
	}

	nextLevel = s.Level
	if xhi > 0 {
		nextLevel++
	}
	if yhi > 0 {
		nextLevel++
	}
	if zhi > 0 {
		nextLevel++
	}

	for _, z := range orderedAxisSpans(zlo, zhi, false) {
		for _, y := range orderedAxisSpans(ylo, yhi, false) {
			for _, x := range orderedAxisSpans(xlo, xhi, false) {
				children = append(children, Set{
					X0: s.X0 + x.off, Y0: s.Y0 + y.off, Z0: s.Z0 + z.off,
					LX: x.length, LY: y.length, LZ: z.length,
					Level: nextLevel,
				})
			}
		}
	}
	return
}

// numOfPartitions reports how many times a dimension of the given length
// can be halved before reaching a single element: the depth of the
// set-partitioning tree along that axis.
func numOfPartitions(length int) int {
	num := 0
	for length > 1 {
		num++
		length -= length / 2
	}
	return num
}

// numOfXforms and calcApproxDetailLen duplicate the wavelet package's
// transform-depth formulas: the root set a 2D/3D codec starts from is
// sized to the coefficient array's coarsest wavelet-approximation band,
// the same band the wavelet package itself computes, not to a single
// coefficient. Duplicated here rather than imported so the wavelet ->
// speck dependency stays one-directional; see DESIGN.md.
func numOfXforms(length int) int {
	num := 0
	for length >= 9 {
		num++
		length -= length / 2
	}
	if num > 6 {
		return 6
	}
	return num
}

func calcApproxDetailLen(origLen, lev int) (approxLen, detailLen int) {
	low, high := origLen, 0
	for i := 0; i < lev; i++ {
		high = low / 2
		low -= high
	}
	return low, high
}

// canUseDyadic3D duplicates wavelet.CanUseDyadic's depth-matching rule so
// the 3D root descent below mirrors exactly which transform depth the
// wavelet stage itself used.
func canUseDyadic3D(dims Dims) (int, bool) {
	if dims.Z < 2 || dims.Y < 2 {
		return 0, false
	}
	xy := numOfXforms(min(dims.X, dims.Y))
	z := numOfXforms(dims.Z)
	if xy == z || (xy >= 5 && z >= 5) {
		return min(xy, z), true
	}
	return 0, false
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
