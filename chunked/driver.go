package chunked

import (
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/sperrlab/go-sperr/sperrflt"
	"github.com/sperrlab/go-sperr/wavelet"
)

// ErrDimsMismatch and ErrNoChunks guard Driver's preconditions.
var (
	ErrDimsMismatch = errors.New("chunked: data length does not match dims")
	ErrNoChunks     = errors.New("chunked: chunk dims produced zero chunks")
)

// Driver splits a volume into chunks sized close to ChunkDims, and runs
// one sperrflt.Codec per chunk, in parallel, under a single quality
// target shared by every chunk.
type Driver struct {
	Mode      sperrflt.Mode
	Quality   float64
	ChunkDims wavelet.Dims

	// NumWorkers bounds how many chunks compress/decompress
	// concurrently; 0 means GOMAXPROCS.
	NumWorkers int
}

func (d *Driver) limit() int {
	if d.NumWorkers > 0 {
		return d.NumWorkers
	}
	return runtime.GOMAXPROCS(0)
}

// Compress splits vol (laid out according to dims) into chunks, encodes
// each one concurrently, and returns the assembled container.
func (d *Driver) Compress(vol []float64, dims wavelet.Dims) ([]byte, error) {
	if len(vol) != dims.Total() {
		return nil, ErrDimsMismatch
	}
	chunkDims := d.ChunkDims
	if chunkDims.X == 0 {
		chunkDims = dims
	}
	chunks := ChunkVolume(dims, chunkDims)
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}

	streams := make([][]byte, len(chunks))
	var g errgroup.Group
	g.SetLimit(d.limit())

	for i, ci := range chunks {
		i, ci := i, ci
		g.Go(func() error {
			chunkBuf := gatherChunk(vol, dims, ci)
			codec := sperrflt.NewCodec()
			codec.Mode = d.Mode
			codec.Quality = d.Quality
			stream, err := codec.Encode(chunkBuf, ci.dims())
			if err != nil {
				return err
			}
			streams[i] = stream
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lens := make([]int, len(streams))
	total := 0
	for i, s := range streams {
		lens[i] = len(s)
		total += len(s)
	}

	hdr := packHeader(dims, chunkDims, lens)
	out := make([]byte, 0, len(hdr)+total)
	out = append(out, hdr...)
	for _, s := range streams {
		out = append(out, s...)
	}
	return out, nil
}

// Decompress parses a container produced by Compress and reassembles
// the full volume.
func (d *Driver) Decompress(stream []byte) ([]float64, wavelet.Dims, error) {
	vol, _, dims, err := d.decompress(stream, false)
	return vol, dims, err
}

// DecompressMultiRes is Decompress's multi-resolution variant: hierarchy
// holds each coarser resolution of the full volume, coarsest first,
// scattered together from every chunk's own hierarchy.
func (d *Driver) DecompressMultiRes(stream []byte) (vol []float64, hierarchy [][]float64, dims wavelet.Dims, err error) {
	return d.decompress(stream, true)
}

func (d *Driver) decompress(stream []byte, multiRes bool) ([]float64, [][]float64, wavelet.Dims, error) {
	h, headerLen, err := parseHeader(stream)
	if err != nil {
		return nil, nil, wavelet.Dims{}, err
	}

	chunks := ChunkVolume(h.dims, h.chunkDims)
	if len(chunks) != len(h.chunkLens) {
		return nil, nil, wavelet.Dims{}, ErrNoChunks
	}

	offsets := make([]int, len(chunks)+1)
	offsets[0] = headerLen
	for i, l := range h.chunkLens {
		offsets[i+1] = offsets[i] + l
		if offsets[i+1] > len(stream) {
			return nil, nil, wavelet.Dims{}, ErrTruncatedChunk
		}
	}

	vol := make([]float64, h.dims.Total())

	var volRes, chunkRes []wavelet.Dims
	var hierarchy [][]float64
	var hierarchyChunks [][]ChunkInfo
	if multiRes {
		volRes = wavelet.CoarsenedResolutionsChunked(h.dims, h.chunkDims)
		chunkRes = wavelet.CoarsenedResolutions(h.chunkDims)
		hierarchy = make([][]float64, len(volRes))
		hierarchyChunks = make([][]ChunkInfo, len(volRes))
		for lvl, res := range volRes {
			hierarchy[lvl] = make([]float64, res.Total())
			hierarchyChunks[lvl] = ChunkVolume(res, chunkRes[lvl])
		}
	}

	var g errgroup.Group
	g.SetLimit(d.limit())

	for i, ci := range chunks {
		i, ci := i, ci
		g.Go(func() error {
			codec := sperrflt.NewCodec()
			chunkStream := stream[offsets[i]:offsets[i+1]]

			if multiRes {
				small, levels, err := codec.DecodeMultiRes(chunkStream, ci.dims())
				if err != nil {
					return err
				}
				scatterChunk(vol, h.dims, small, ci)
				for lvl, lvlVals := range levels {
					scatterChunk(hierarchy[lvl], volRes[lvl], lvlVals, hierarchyChunks[lvl][i])
				}
				return nil
			}

			small, err := codec.Decode(chunkStream, ci.dims())
			if err != nil {
				return err
			}
			scatterChunk(vol, h.dims, small, ci)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, wavelet.Dims{}, err
	}

	return vol, hierarchy, h.dims, nil
}
