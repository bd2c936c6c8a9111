package chunked

// minProgressiveChunkBytes is the floor below which Truncate will not
// shrink an individual chunk's stream further, regardless of pct: a
// stream this short is already close to its own header overhead, so
// cutting it more buys negligible space at the cost of losing the
// chunk outright on decode.
const minProgressiveChunkBytes = 128

// Truncate returns a shortened copy of a container produced by
// Driver.Compress, keeping roughly pct percent of each chunk's stream
// (front-loaded bits, since SPECK encodes coarse-to-fine): the coarsest
// structure of every chunk survives even at low pct, which is what
// makes the result progressively decodable by Driver.Decompress. pct
// values at or outside (0, 100) return an unmodified copy of stream.
func Truncate(stream []byte, pct int) ([]byte, error) {
	h, headerLen, err := parseHeader(stream)
	if err != nil {
		return nil, err
	}
	if pct <= 0 || pct >= 100 {
		out := make([]byte, len(stream))
		copy(out, stream)
		return out, nil
	}

	offsets := make([]int, len(h.chunkLens)+1)
	offsets[0] = headerLen
	for i, l := range h.chunkLens {
		offsets[i+1] = offsets[i] + l
	}

	newLens := make([]int, len(h.chunkLens))
	for i, l := range h.chunkLens {
		if l <= minProgressiveChunkBytes {
			newLens[i] = l
			continue
		}
		want := int(float64(pct) / 100.0 * float64(l))
		if want < minProgressiveChunkBytes {
			want = minProgressiveChunkBytes
		}
		if want > l {
			want = l
		}
		newLens[i] = want
	}

	newHeader := packHeader(h.dims, h.chunkDims, newLens)
	newHeader[1] |= 1 // mark this stream as a portion of a complete one
	out := make([]byte, 0, len(newHeader)+sumInts(newLens))
	out = append(out, newHeader...)
	for i, l := range newLens {
		out = append(out, stream[offsets[i]:offsets[i]+l]...)
	}
	return out, nil
}

func sumInts(vals []int) int {
	var s int
	for _, v := range vals {
		s += v
	}
	return s
}
