package wavelet

import "errors"

// ErrWrongLength is returned when a buffer handed to CDF97 doesn't match
// the element count its dims imply.
var ErrWrongLength = errors.New("wavelet: buffer length does not match dims")

// CDF97 applies the CDF 9/7 lifting transform to a 1D, 2D, or 3D array of
// float64s. It owns the array along with two scratch buffers sized for
// the largest row/column/z-run and the largest plane the current dims can
// produce, so repeated transforms on the same dims never reallocate.
type CDF97 struct {
	data     []float64
	dims     Dims
	qccBuf   []float64
	sliceBuf []float64
}

// NewCDF97 returns an empty transform; call TakeData before transforming.
func NewCDF97() *CDF97 {
	return &CDF97{}
}

// TakeData hands buf to the transform (ownership transfers to c; the
// caller should not keep using buf directly) and sizes the scratch
// buffers for dims.
func (c *CDF97) TakeData(buf []float64, dims Dims) error {
	if len(buf) != dims.Total() {
		return ErrWrongLength
	}
	c.data = buf
	c.dims = dims

	maxCol := max(max(dims.X, dims.Y), dims.Z)
	if need := maxCol * 2; need > len(c.qccBuf) {
		c.qccBuf = make([]float64, max(len(c.qccBuf), maxCol)*2)
	}
	maxSlice := max(max(dims.X*dims.Y, dims.X*dims.Z), dims.Y*dims.Z)
	if maxSlice > len(c.sliceBuf) {
		c.sliceBuf = make([]float64, max(len(c.sliceBuf)*2, maxSlice))
	}
	return nil
}

// ViewData returns the current data buffer without transferring
// ownership.
func (c *CDF97) ViewData() []float64 { return c.data }

// ReleaseData transfers ownership of the data buffer to the caller,
// leaving c without one.
func (c *CDF97) ReleaseData() []float64 {
	out := c.data
	c.data = nil
	return out
}

// GetDims returns the dims the transform is currently configured for.
func (c *CDF97) GetDims() Dims { return c.dims }

// Dwt1D applies the forward transform along the single dimension (dims.X
// is assumed to hold the full element count).
func (c *CDF97) Dwt1D() {
	n := NumOfXforms(c.dims.X)
	c.dwt1D(c.data, len(c.data), n)
}

// Idwt1D applies the inverse of Dwt1D.
func (c *CDF97) Idwt1D() {
	n := NumOfXforms(c.dims.X)
	c.idwt1D(c.data, len(c.data), n)
}

// Dwt2D applies the forward transform to the whole 2D plane.
func (c *CDF97) Dwt2D() {
	xy := NumOfXforms(min(c.dims.X, c.dims.Y))
	c.dwt2D(0, [2]int{c.dims.X, c.dims.Y}, xy)
}

// Idwt2D applies the inverse of Dwt2D.
func (c *CDF97) Idwt2D() {
	xy := NumOfXforms(min(c.dims.X, c.dims.Y))
	c.idwt2D(0, [2]int{c.dims.X, c.dims.Y}, xy)
}

// Idwt2DMultiRes undoes a 2D transform one level at a time, returning the
// approximation image at every coarser resolution (coarsest first) as
// the inverse progresses toward the full-resolution image, which remains
// in the transform's own data buffer when this returns.
func (c *CDF97) Idwt2DMultiRes() [][]float64 {
	xy := NumOfXforms(min(c.dims.X, c.dims.Y))
	var out [][]float64
	if xy == 0 {
		return out
	}
	out = make([][]float64, 0, xy)
	for lev := xy; lev > 0; lev-- {
		x, xd := CalcApproxDetailLen(c.dims.X, lev)
		y, yd := CalcApproxDetailLen(c.dims.Y, lev)
		out = append(out, c.subSlice(x, y))
		c.idwt2DOneLevel(0, [2]int{x + xd, y + yd})
	}
	return out
}

// Dwt3D applies the forward transform to the whole volume, using a dyadic
// schedule when all three axes can share one transform depth, and a
// wavelet-packet fallback (Z first, then every XY plane) otherwise.
func (c *CDF97) Dwt3D() {
	if depth, ok := CanUseDyadic(c.dims); ok {
		c.dwt3DDyadic(depth)
	} else {
		c.dwt3DWaveletPacket()
	}
}

// Idwt3D applies the inverse of Dwt3D.
func (c *CDF97) Idwt3D() {
	if depth, ok := CanUseDyadic(c.dims); ok {
		c.idwt3DDyadic(depth)
	} else {
		c.idwt3DWaveletPacket()
	}
}

// Idwt3DMultiRes undoes a dyadic 3D transform one level at a time,
// returning the approximation volume at every coarser resolution
// (coarsest first). If the volume couldn't use a dyadic schedule, it
// falls back to a single full wavelet-packet inverse and returns nil.
func (c *CDF97) Idwt3DMultiRes() [][]float64 {
	depth, ok := CanUseDyadic(c.dims)
	if !ok {
		c.dwt3DWaveletPacketInverse()
		return nil
	}
	out := make([][]float64, 0, depth)
	for lev := depth; lev > 0; lev-- {
		x, xd := CalcApproxDetailLen(c.dims.X, lev)
		y, yd := CalcApproxDetailLen(c.dims.Y, lev)
		z, zd := CalcApproxDetailLen(c.dims.Z, lev)
		buf := make([]float64, x*y*z)
		c.subVolume(x, y, z, buf)
		out = append(out, buf)
		c.idwt3DOneLevel([3]int{x + xd, y + yd, z + zd})
	}
	return out
}

// dwt1D runs numLev levels of forward 1D lifting on arr (arrLen elements
// starting at arr[0]).
func (c *CDF97) dwt1D(arr []float64, arrLen, numLev int) {
	for lev := 0; lev < numLev; lev++ {
		x, _ := CalcApproxDetailLen(arrLen, lev)
		c.dwt1DOneLevel(arr, x)
	}
}

// idwt1D is the exact inverse of dwt1D.
func (c *CDF97) idwt1D(arr []float64, arrLen, numLev int) {
	for lev := numLev; lev > 0; lev-- {
		x, _ := CalcApproxDetailLen(arrLen, lev-1)
		c.idwt1DOneLevel(arr, x)
	}
}

func (c *CDF97) dwt1DOneLevel(arr []float64, arrLen int) {
	copy(c.qccBuf[:arrLen], arr[:arrLen])
	if arrLen%2 == 0 {
		analysisEvenEven(c.qccBuf[:arrLen])
		gatherEven(c.qccBuf[:arrLen], arr[:arrLen])
	} else {
		analysisOddEven(c.qccBuf[:arrLen])
		gatherOdd(c.qccBuf[:arrLen], arr[:arrLen])
	}
}

func (c *CDF97) idwt1DOneLevel(arr []float64, arrLen int) {
	if arrLen%2 == 0 {
		scatterEven(arr[:arrLen], c.qccBuf[:arrLen])
		synthesisEvenEven(c.qccBuf[:arrLen])
	} else {
		scatterOdd(arr[:arrLen], c.qccBuf[:arrLen])
		synthesisOddEven(c.qccBuf[:arrLen])
	}
	copy(arr[:arrLen], c.qccBuf[:arrLen])
}

// dwt2D runs numLev levels of forward 2D lifting on the plane starting at
// offset within c.data.
func (c *CDF97) dwt2D(offset int, lenXY [2]int, numLev int) {
	for lev := 0; lev < numLev; lev++ {
		x, _ := CalcApproxDetailLen(lenXY[0], lev)
		y, _ := CalcApproxDetailLen(lenXY[1], lev)
		c.dwt2DOneLevel(offset, [2]int{x, y})
	}
}

func (c *CDF97) idwt2D(offset int, lenXY [2]int, numLev int) {
	for lev := numLev; lev > 0; lev-- {
		x, _ := CalcApproxDetailLen(lenXY[0], lev-1)
		y, _ := CalcApproxDetailLen(lenXY[1], lev-1)
		c.idwt2DOneLevel(offset, [2]int{x, y})
	}
}

// dwt2DOneLevel transforms the lenXY[0]-by-lenXY[1] sub-rectangle
// anchored at offset, rows first (along X) then columns (along Y). Rows
// and columns are always read/written at a stride of dims.X, the full
// plane width, since offset addresses a sub-rectangle of the larger
// buffer during multi-resolution work.
func (c *CDF97) dwt2DOneLevel(offset int, lenXY [2]int) {
	stride := c.dims.X
	maxLen := max(lenXY[0], lenXY[1])
	beg, beg2 := 0, maxLen

	if lenXY[0]%2 == 0 {
		for i := 0; i < lenXY[1]; i++ {
			pos := offset + i*stride
			copy(c.qccBuf[beg:beg+lenXY[0]], c.data[pos:pos+lenXY[0]])
			analysisEvenEven(c.qccBuf[beg : beg+lenXY[0]])
			gatherEven(c.qccBuf[beg:beg+lenXY[0]], c.data[pos:pos+lenXY[0]])
		}
	} else {
		for i := 0; i < lenXY[1]; i++ {
			pos := offset + i*stride
			copy(c.qccBuf[beg:beg+lenXY[0]], c.data[pos:pos+lenXY[0]])
			analysisOddEven(c.qccBuf[beg : beg+lenXY[0]])
			gatherOdd(c.qccBuf[beg:beg+lenXY[0]], c.data[pos:pos+lenXY[0]])
		}
	}

	if lenXY[1]%2 == 0 {
		for x := 0; x < lenXY[0]; x++ {
			for y := 0; y < lenXY[1]; y++ {
				c.qccBuf[y] = c.data[offset+y*stride+x]
			}
			analysisEvenEven(c.qccBuf[:lenXY[1]])
			gatherEven(c.qccBuf[:lenXY[1]], c.qccBuf[beg2:beg2+lenXY[1]])
			for y := 0; y < lenXY[1]; y++ {
				c.data[offset+y*stride+x] = c.qccBuf[beg2+y]
			}
		}
	} else {
		for x := 0; x < lenXY[0]; x++ {
			for y := 0; y < lenXY[1]; y++ {
				c.qccBuf[y] = c.data[offset+y*stride+x]
			}
			analysisOddEven(c.qccBuf[:lenXY[1]])
			gatherOdd(c.qccBuf[:lenXY[1]], c.qccBuf[beg2:beg2+lenXY[1]])
			for y := 0; y < lenXY[1]; y++ {
				c.data[offset+y*stride+x] = c.qccBuf[beg2+y]
			}
		}
	}
}

func (c *CDF97) idwt2DOneLevel(offset int, lenXY [2]int) {
	stride := c.dims.X
	maxLen := max(lenXY[0], lenXY[1])
	beg, beg2 := 0, maxLen

	if lenXY[1]%2 == 0 {
		for x := 0; x < lenXY[0]; x++ {
			for y := 0; y < lenXY[1]; y++ {
				c.qccBuf[y] = c.data[offset+y*stride+x]
			}
			scatterEven(c.qccBuf[beg:beg+lenXY[1]], c.qccBuf[beg2:beg2+lenXY[1]])
			synthesisEvenEven(c.qccBuf[beg2 : beg2+lenXY[1]])
			for y := 0; y < lenXY[1]; y++ {
				c.data[offset+y*stride+x] = c.qccBuf[beg2+y]
			}
		}
	} else {
		for x := 0; x < lenXY[0]; x++ {
			for y := 0; y < lenXY[1]; y++ {
				c.qccBuf[y] = c.data[offset+y*stride+x]
			}
			scatterOdd(c.qccBuf[beg:beg+lenXY[1]], c.qccBuf[beg2:beg2+lenXY[1]])
			synthesisOddEven(c.qccBuf[beg2 : beg2+lenXY[1]])
			for y := 0; y < lenXY[1]; y++ {
				c.data[offset+y*stride+x] = c.qccBuf[beg2+y]
			}
		}
	}

	if lenXY[0]%2 == 0 {
		for i := 0; i < lenXY[1]; i++ {
			pos := offset + i*stride
			scatterEven(c.data[pos:pos+lenXY[0]], c.qccBuf[beg:beg+lenXY[0]])
			synthesisEvenEven(c.qccBuf[beg : beg+lenXY[0]])
			copy(c.data[pos:pos+lenXY[0]], c.qccBuf[beg:beg+lenXY[0]])
		}
	} else {
		for i := 0; i < lenXY[1]; i++ {
			pos := offset + i*stride
			scatterOdd(c.data[pos:pos+lenXY[0]], c.qccBuf[beg:beg+lenXY[0]])
			synthesisOddEven(c.qccBuf[beg : beg+lenXY[0]])
			copy(c.data[pos:pos+lenXY[0]], c.qccBuf[beg:beg+lenXY[0]])
		}
	}
}

// dwt3DOneLevel transforms every XY plane of lenXYZ[2] planes, then lifts
// along Z. The Z-column step always addresses c.data from its absolute
// origin rather than the current sub-volume's offset, matching the
// dyadic schedule's use of this helper (which only ever operates on a
// shrinking corner anchored at the volume's own origin).
func (c *CDF97) dwt3DOneLevel(lenXYZ [3]int) {
	planeSizeXY := c.dims.X * c.dims.Y
	for z := 0; z < lenXYZ[2]; z++ {
		c.dwt2DOneLevel(planeSizeXY*z, [2]int{lenXYZ[0], lenXYZ[1]})
	}

	beg, beg2 := 0, lenXYZ[2]
	if lenXYZ[2]%2 == 0 {
		for y := 0; y < lenXYZ[1]; y++ {
			for x := 0; x < lenXYZ[0]; x++ {
				xyOffset := y*c.dims.X + x
				for z := 0; z < lenXYZ[2]; z++ {
					c.qccBuf[z] = c.data[z*planeSizeXY+xyOffset]
				}
				analysisEvenEven(c.qccBuf[:lenXYZ[2]])
				gatherEven(c.qccBuf[beg:beg+lenXYZ[2]], c.qccBuf[beg2:beg2+lenXYZ[2]])
				for z := 0; z < lenXYZ[2]; z++ {
					c.data[z*planeSizeXY+xyOffset] = c.qccBuf[beg2+z]
				}
			}
		}
	} else {
		for y := 0; y < lenXYZ[1]; y++ {
			for x := 0; x < lenXYZ[0]; x++ {
				xyOffset := y*c.dims.X + x
				for z := 0; z < lenXYZ[2]; z++ {
					c.qccBuf[z] = c.data[z*planeSizeXY+xyOffset]
				}
				analysisOddEven(c.qccBuf[:lenXYZ[2]])
				gatherOdd(c.qccBuf[beg:beg+lenXYZ[2]], c.qccBuf[beg2:beg2+lenXYZ[2]])
				for z := 0; z < lenXYZ[2]; z++ {
					c.data[z*planeSizeXY+xyOffset] = c.qccBuf[beg2+z]
				}
			}
		}
	}
}

func (c *CDF97) idwt3DOneLevel(lenXYZ [3]int) {
	planeSizeXY := c.dims.X * c.dims.Y
	beg, beg2 := 0, lenXYZ[2]

	if lenXYZ[2]%2 == 0 {
		for y := 0; y < lenXYZ[1]; y++ {
			for x := 0; x < lenXYZ[0]; x++ {
				xyOffset := y*c.dims.X + x
				for z := 0; z < lenXYZ[2]; z++ {
					c.qccBuf[z] = c.data[z*planeSizeXY+xyOffset]
				}
				scatterEven(c.qccBuf[beg:beg+lenXYZ[2]], c.qccBuf[beg2:beg2+lenXYZ[2]])
				synthesisEvenEven(c.qccBuf[beg2 : beg2+lenXYZ[2]])
				for z := 0; z < lenXYZ[2]; z++ {
					c.data[z*planeSizeXY+xyOffset] = c.qccBuf[beg2+z]
				}
			}
		}
	} else {
		for y := 0; y < lenXYZ[1]; y++ {
			for x := 0; x < lenXYZ[0]; x++ {
				xyOffset := y*c.dims.X + x
				for z := 0; z < lenXYZ[2]; z++ {
					c.qccBuf[z] = c.data[z*planeSizeXY+xyOffset]
				}
				scatterOdd(c.qccBuf[beg:beg+lenXYZ[2]], c.qccBuf[beg2:beg2+lenXYZ[2]])
				synthesisOddEven(c.qccBuf[beg2 : beg2+lenXYZ[2]])
				for z := 0; z < lenXYZ[2]; z++ {
					c.data[z*planeSizeXY+xyOffset] = c.qccBuf[beg2+z]
				}
			}
		}
	}

	for z := 0; z < lenXYZ[2]; z++ {
		c.idwt2DOneLevel(planeSizeXY*z, [2]int{lenXYZ[0], lenXYZ[1]})
	}
}

func (c *CDF97) dwt3DDyadic(numXforms int) {
	for lev := 0; lev < numXforms; lev++ {
		x, _ := CalcApproxDetailLen(c.dims.X, lev)
		y, _ := CalcApproxDetailLen(c.dims.Y, lev)
		z, _ := CalcApproxDetailLen(c.dims.Z, lev)
		c.dwt3DOneLevel([3]int{x, y, z})
	}
}

func (c *CDF97) idwt3DDyadic(numXforms int) {
	for lev := numXforms; lev > 0; lev-- {
		x, _ := CalcApproxDetailLen(c.dims.X, lev-1)
		y, _ := CalcApproxDetailLen(c.dims.Y, lev-1)
		z, _ := CalcApproxDetailLen(c.dims.Z, lev-1)
		c.idwt3DOneLevel([3]int{x, y, z})
	}
}

// dwt3DWaveletPacket is the fallback for volumes whose axes can't share a
// dyadic depth: it transforms every Z-run to full depth first, then every
// XY plane to full depth, so each axis reaches its own maximal level
// independent of the others.
func (c *CDF97) dwt3DWaveletPacket() {
	planeSizeXY := c.dims.X * c.dims.Y
	numXformsZ := NumOfXforms(c.dims.Z)

	for y := 0; y < c.dims.Y; y++ {
		yOffset := y * c.dims.X
		for z := 0; z < c.dims.Z; z++ {
			cubeStart := z*planeSizeXY + yOffset
			for x := 0; x < c.dims.X; x++ {
				c.sliceBuf[z+x*c.dims.Z] = c.data[cubeStart+x]
			}
		}
		for x := 0; x < c.dims.X; x++ {
			col := c.sliceBuf[x*c.dims.Z : x*c.dims.Z+c.dims.Z]
			c.dwt1D(col, c.dims.Z, numXformsZ)
		}
		for z := 0; z < c.dims.Z; z++ {
			cubeStart := z*planeSizeXY + yOffset
			for x := 0; x < c.dims.X; x++ {
				c.data[cubeStart+x] = c.sliceBuf[z+x*c.dims.Z]
			}
		}
	}

	numXformsXY := NumOfXforms(min(c.dims.X, c.dims.Y))
	for z := 0; z < c.dims.Z; z++ {
		c.dwt2D(planeSizeXY*z, [2]int{c.dims.X, c.dims.Y}, numXformsXY)
	}
}

func (c *CDF97) idwt3DWaveletPacket() { c.dwt3DWaveletPacketInverse() }

func (c *CDF97) dwt3DWaveletPacketInverse() {
	planeSizeXY := c.dims.X * c.dims.Y
	numXformsXY := NumOfXforms(min(c.dims.X, c.dims.Y))
	for z := 0; z < c.dims.Z; z++ {
		c.idwt2D(planeSizeXY*z, [2]int{c.dims.X, c.dims.Y}, numXformsXY)
	}

	numXformsZ := NumOfXforms(c.dims.Z)
	for y := 0; y < c.dims.Y; y++ {
		yOffset := y * c.dims.X
		for z := 0; z < c.dims.Z; z++ {
			cubeStart := z*planeSizeXY + yOffset
			for x := 0; x < c.dims.X; x++ {
				c.sliceBuf[z+x*c.dims.Z] = c.data[cubeStart+x]
			}
		}
		for x := 0; x < c.dims.X; x++ {
			col := c.sliceBuf[x*c.dims.Z : x*c.dims.Z+c.dims.Z]
			c.idwt1D(col, c.dims.Z, numXformsZ)
		}
		for z := 0; z < c.dims.Z; z++ {
			cubeStart := z*planeSizeXY + yOffset
			for x := 0; x < c.dims.X; x++ {
				c.data[cubeStart+x] = c.sliceBuf[z+x*c.dims.Z]
			}
		}
	}
}

// subSlice copies out the subW-by-subH top-left corner of the current 2D
// plane.
func (c *CDF97) subSlice(subW, subH int) []float64 {
	out := make([]float64, subW*subH)
	dst := 0
	for y := 0; y < subH; y++ {
		beg := y * c.dims.X
		copy(out[dst:dst+subW], c.data[beg:beg+subW])
		dst += subW
	}
	return out
}

// subVolume copies the subX-by-subY-by-subZ origin corner of the current
// volume into dst.
func (c *CDF97) subVolume(subX, subY, subZ int, dst []float64) {
	sliceLen := c.dims.X * c.dims.Y
	d := 0
	for z := 0; z < subZ; z++ {
		for y := 0; y < subY; y++ {
			beg := z*sliceLen + y*c.dims.X
			copy(dst[d:d+subX], c.data[beg:beg+subX])
			d += subX
		}
	}
}
