package chunked

import (
	"encoding/binary"
	"errors"

	"github.com/sperrlab/go-sperr/flags"
	"github.com/sperrlab/go-sperr/wavelet"
)

// ContainerVersion is written into every container header's first byte,
// bumped whenever the header layout changes incompatibly.
const ContainerVersion = 1

// ErrVersionMismatch, ErrShortHeader and ErrTruncatedChunk guard
// ParseHeader and the driver's Decompress.
var (
	ErrVersionMismatch = errors.New("chunked: container version mismatch")
	ErrShortHeader     = errors.New("chunked: bitstream shorter than container header")
	ErrTruncatedChunk  = errors.New("chunked: bitstream shorter than a chunk length implies")
)

const is3DBit = 1
const multiChunkBit = 3

// header is the parsed form of a container's fixed-size preamble: a
// version byte, a packed-boolean flags byte, the full volume dims, the
// requested chunk dims (only meaningful when there's more than one
// chunk), and one encoded-length entry per chunk.
type header struct {
	is3D       bool
	multiChunk bool
	dims       wavelet.Dims
	chunkDims  wavelet.Dims
	chunkLens  []int
}

// packHeader assembles a container header for a volume of dims split into
// chunks of (at most) chunkDims, with each chunk's encoded stream length
// in chunkLens.
func packHeader(dims, chunkDims wavelet.Dims, chunkLens []int) []byte {
	numChunks := len(chunkLens)
	multi := numChunks > 1

	size := 1 + 1 + 12 + numChunks*4
	if multi {
		size += 6
	}
	buf := make([]byte, size)

	buf[0] = ContainerVersion
	b8 := [8]bool{false, dims.Z > 1, false, multi, false, false, false, false}
	buf[1] = flags.Pack8(b8)

	pos := 2
	binary.LittleEndian.PutUint32(buf[pos:], uint32(dims.X))
	binary.LittleEndian.PutUint32(buf[pos+4:], uint32(dims.Y))
	binary.LittleEndian.PutUint32(buf[pos+8:], uint32(dims.Z))
	pos += 12

	if multi {
		binary.LittleEndian.PutUint16(buf[pos:], uint16(chunkDims.X))
		binary.LittleEndian.PutUint16(buf[pos+2:], uint16(chunkDims.Y))
		binary.LittleEndian.PutUint16(buf[pos+4:], uint16(chunkDims.Z))
		pos += 6
	}

	for _, l := range chunkLens {
		binary.LittleEndian.PutUint32(buf[pos:], uint32(l))
		pos += 4
	}
	return buf
}

// parseHeader reads back a header written by packHeader. The chunk grid
// (and so the number of trailing length entries to read) is derivable
// from dims and chunkDims alone, so no external chunk count is needed:
// for a single-chunk container chunkDims equals dims, which ChunkVolume
// always resolves to exactly one chunk.
func parseHeader(buf []byte) (header, int, error) {
	var h header
	if len(buf) < 2 {
		return h, 0, ErrShortHeader
	}
	if buf[0] != ContainerVersion {
		return h, 0, ErrVersionMismatch
	}
	b8 := flags.Unpack8(buf[1])
	h.is3D = b8[is3DBit]
	h.multiChunk = b8[multiChunkBit]

	pos := 2
	if len(buf) < pos+12 {
		return h, 0, ErrShortHeader
	}
	h.dims = wavelet.Dims{
		X: int(binary.LittleEndian.Uint32(buf[pos:])),
		Y: int(binary.LittleEndian.Uint32(buf[pos+4:])),
		Z: int(binary.LittleEndian.Uint32(buf[pos+8:])),
	}
	pos += 12

	h.chunkDims = h.dims
	if h.multiChunk {
		if len(buf) < pos+6 {
			return h, 0, ErrShortHeader
		}
		h.chunkDims = wavelet.Dims{
			X: int(binary.LittleEndian.Uint16(buf[pos:])),
			Y: int(binary.LittleEndian.Uint16(buf[pos+2:])),
			Z: int(binary.LittleEndian.Uint16(buf[pos+4:])),
		}
		pos += 6
	}

	numChunks := len(ChunkVolume(h.dims, h.chunkDims))
	if len(buf) < pos+numChunks*4 {
		return h, 0, ErrShortHeader
	}
	h.chunkLens = make([]int, numChunks)
	for i := 0; i < numChunks; i++ {
		h.chunkLens[i] = int(binary.LittleEndian.Uint32(buf[pos+i*4:]))
	}
	pos += numChunks * 4

	return h, pos, nil
}
