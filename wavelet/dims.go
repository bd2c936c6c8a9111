// Package wavelet implements the CDF 9/7 biorthogonal lifting wavelet
// transform used to decorrelate a conditioned floating-point array before
// quantization: 1D/2D/3D forward and inverse transforms, a dyadic
// (equal-depth-on-every-axis) schedule and a wavelet-packet fallback for
// volumes whose axes can't all reach the same transform depth, and a
// multi-resolution inverse that also returns a copy of every coarser
// approximation it passes through.
package wavelet

// Dims holds the extents of a 1D, 2D, or 3D array; unused trailing
// dimensions are 1.
type Dims struct {
	X, Y, Z int
}

// Total returns the number of elements the dims describe.
func (d Dims) Total() int { return d.X * d.Y * d.Z }

// NumOfXforms returns how many levels of dyadic transform a dimension of
// the given length supports: nine is the shortest length worth
// transforming once, and six levels is the ceiling regardless of how long
// the dimension is.
func NumOfXforms(length int) int {
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

// NumOfPartitions returns how many times a dimension of the given length
// can be halved before reaching a single element — the depth of the
// SPECK set-partitioning tree along that axis.
func NumOfPartitions(length int) int {
	num := 0
	for length > 1 {
		num++
		length -= length / 2
	}
	return num
}

// CalcApproxDetailLen splits origLen into its approximation-band and
// detail-band lengths after lev levels of dyadic halving: each level
// halves the current approximation length, rounding the detail band down
// (so an odd length keeps its extra element on the approximation side).
func CalcApproxDetailLen(origLen, lev int) (approxLen, detailLen int) {
	low, high := origLen, 0
	for i := 0; i < lev; i++ {
		high = low / 2
		low -= high
	}
	return low, high
}

// CanUseDyadic reports whether a 3D volume's three axes can share a
// single transform depth (either because they all support the exact same
// number of levels, or because all three support at least five and the
// benefit of matching depth outweighs one extra level on whichever axis
// could go further). It returns false for 1D/2D inputs.
func CanUseDyadic(dims Dims) (int, bool) {
	if dims.Z < 2 || dims.Y < 2 {
		return 0, false
	}
	xy := NumOfXforms(min(dims.X, dims.Y))
	z := NumOfXforms(dims.Z)
	if xy == z || (xy >= 5 && z >= 5) {
		return min(xy, z), true
	}
	return 0, false
}

// CoarsenedResolutions lists the dimensions of every coarser resolution a
// multi-resolution inverse passes through, ordered from coarsest to finest
// (the finest entry is one transform level coarser than fullDims; fullDims
// itself is not listed).
func CoarsenedResolutions(fullDims Dims) []Dims {
	var resolutions []Dims
	if fullDims.Z > 1 {
		depth, ok := CanUseDyadic(fullDims)
		if !ok {
			return resolutions
		}
		resolutions = make([]Dims, 0, depth)
		for lev := depth; lev > 0; lev-- {
			x, _ := CalcApproxDetailLen(fullDims.X, lev)
			y, _ := CalcApproxDetailLen(fullDims.Y, lev)
			z, _ := CalcApproxDetailLen(fullDims.Z, lev)
			resolutions = append(resolutions, Dims{x, y, z})
		}
	} else {
		xy := NumOfXforms(min(fullDims.X, fullDims.Y))
		resolutions = make([]Dims, 0, xy)
		for lev := xy; lev > 0; lev-- {
			x, _ := CalcApproxDetailLen(fullDims.X, lev)
			y, _ := CalcApproxDetailLen(fullDims.Y, lev)
			resolutions = append(resolutions, Dims{x, y, 1})
		}
	}
	return resolutions
}

// CoarsenedResolutionsChunked is the chunked-driver variant of
// CoarsenedResolutions: when the volume dims are evenly divisible by the
// chunk dims, every chunk shares the same resolution ladder, so the
// ladder can be computed once per chunk shape and scaled up by the chunk
// grid's extents.
func CoarsenedResolutionsChunked(volDims, chunkDims Dims) []Dims {
	if volDims.X%chunkDims.X != 0 || volDims.Y%chunkDims.Y != 0 || volDims.Z%chunkDims.Z != 0 {
		return nil
	}
	nx := volDims.X / chunkDims.X
	ny := volDims.Y / chunkDims.Y
	nz := volDims.Z / chunkDims.Z

	resolutions := CoarsenedResolutions(chunkDims)
	for i := range resolutions {
		resolutions[i].X *= nx
		resolutions[i].Y *= ny
		resolutions[i].Z *= nz
	}
	return resolutions
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
