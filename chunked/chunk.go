// Package chunked splits a volume into independently compressible
// chunks, drives sperrflt.Codec over each one concurrently, and
// assembles/parses the self-describing container that holds the
// result: a small header followed by one SPECK-FLT stream per chunk.
package chunked

import "github.com/sperrlab/go-sperr/wavelet"

// ChunkInfo describes one chunk's placement within a volume: its
// origin and extent along each axis.
type ChunkInfo struct {
	X0, Y0, Z0 int
	LX, LY, LZ int
}

func (c ChunkInfo) dims() wavelet.Dims { return wavelet.Dims{X: c.LX, Y: c.LY, Z: c.LZ} }

// ChunkVolume divides a volume of vol dims into chunks close to
// chunkDims in size. Along each axis, a final partial segment shorter
// than half the requested chunk length gets folded into the
// second-to-last segment rather than left as its own tiny chunk; axes
// shorter than the requested chunk length collapse to a single chunk.
func ChunkVolume(vol, chunkDims wavelet.Dims) []ChunkInfo {
	volArr := [3]int{vol.X, vol.Y, vol.Z}
	chunkArr := [3]int{chunkDims.X, chunkDims.Y, chunkDims.Z}

	var nSegs [3]int
	for i := 0; i < 3; i++ {
		if chunkArr[i] < 1 {
			chunkArr[i] = 1
		}
		nSegs[i] = volArr[i] / chunkArr[i]
		if (volArr[i]%chunkArr[i]) > chunkArr[i]/2 {
			nSegs[i]++
		}
		if nSegs[i] == 0 {
			nSegs[i] = 1
		}
	}

	tics := func(axis int) []int {
		n := nSegs[axis]
		t := make([]int, n+1)
		for i := 0; i < n; i++ {
			t[i] = i * chunkArr[axis]
		}
		t[n] = volArr[axis]
		return t
	}
	xTics, yTics, zTics := tics(0), tics(1), tics(2)

	chunks := make([]ChunkInfo, 0, nSegs[0]*nSegs[1]*nSegs[2])
	for z := 0; z < nSegs[2]; z++ {
		for y := 0; y < nSegs[1]; y++ {
			for x := 0; x < nSegs[0]; x++ {
				chunks = append(chunks, ChunkInfo{
					X0: xTics[x], LX: xTics[x+1] - xTics[x],
					Y0: yTics[y], LY: yTics[y+1] - yTics[y],
					Z0: zTics[z], LZ: zTics[z+1] - zTics[z],
				})
			}
		}
	}
	return chunks
}

// gatherChunk copies one chunk's worth of values out of a full volume.
func gatherChunk(vol []float64, volDims wavelet.Dims, ci ChunkInfo) []float64 {
	out := make([]float64, ci.LX*ci.LY*ci.LZ)
	planeSize := volDims.X * volDims.Y
	idx := 0
	for z := ci.Z0; z < ci.Z0+ci.LZ; z++ {
		planeOff := z * planeSize
		for y := ci.Y0; y < ci.Y0+ci.LY; y++ {
			start := planeOff + y*volDims.X + ci.X0
			copy(out[idx:idx+ci.LX], vol[start:start+ci.LX])
			idx += ci.LX
		}
	}
	return out
}

// scatterChunk writes one decoded chunk back into its place in a full
// volume buffer.
func scatterChunk(vol []float64, volDims wavelet.Dims, small []float64, ci ChunkInfo) {
	planeSize := volDims.X * volDims.Y
	idx := 0
	for z := ci.Z0; z < ci.Z0+ci.LZ; z++ {
		planeOff := z * planeSize
		for y := ci.Y0; y < ci.Y0+ci.LY; y++ {
			start := planeOff + y*volDims.X + ci.X0
			copy(vol[start:start+ci.LX], small[idx:idx+ci.LX])
			idx += ci.LX
		}
	}
}
