// Command sperr3d compresses or decompresses a 3D volume of raw,
// headerless float32/float64 values, chunked and run across multiple
// goroutines by the go-sperr chunked driver. Flag parsing and file I/O
// only: the algorithmic work lives in the sperr and chunked packages.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/sperrlab/go-sperr/floatio"
	"github.com/sperrlab/go-sperr/sperr"
	"github.com/sperrlab/go-sperr/wavelet"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("sperr3d", flag.ContinueOnError)

	compress := fs.Bool("c", false, "compress the input file")
	decompress := fs.Bool("d", false, "decompress the input bitstream")
	ftype := fs.Int("ftype", 32, "input float type: 32 or 64")
	dims := fs.String("dims", "", "nx ny nz, space separated")
	chunks := fs.String("chunks", "", "chunk nx ny nz, space separated (defaults to dims)")
	pwe := fs.Float64("pwe", 0, "point-wise error tolerance (mutually exclusive with --psnr/--bpp)")
	psnr := fs.Float64("psnr", 0, "target PSNR in dB (mutually exclusive with --pwe/--bpp)")
	bpp := fs.Float64("bpp", 0, "target bits per pixel (mutually exclusive with --pwe/--psnr)")
	input := fs.String("input", "", "input file path")
	bitstream := fs.String("bitstream", "", "output bitstream path (compress) or input bitstream path (decompress)")
	decompF := fs.String("decomp_f", "", "decompressed float32 output path")
	decompD := fs.String("decomp_d", "", "decompressed float64 output path")
	lowresF := fs.String("decomp_lowres_f", "", "multi-resolution float32 output path prefix")
	lowresD := fs.String("decomp_lowres_d", "", "multi-resolution float64 output path prefix")
	nthreads := fs.Int("nthreads", 0, "worker count, 0 = GOMAXPROCS")
	pct := fs.Int("trunc_pct", 0, "if > 0, progressively truncate to this percent of each chunk before decoding")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	switch {
	case *compress && *decompress:
		log.Println("sperr3d: -c and -d are mutually exclusive")
		return 1
	case *compress:
		return runCompress(*input, *bitstream, *ftype, *dims, *chunks, *pwe, *psnr, *bpp, *nthreads)
	case *decompress:
		return runDecompress(*bitstream, *decompF, *decompD, *lowresF, *lowresD, *nthreads, *pct)
	default:
		log.Println("sperr3d: one of -c or -d is required")
		return 1
	}
}

func runCompress(input, bitstreamPath string, ftype int, dimsStr, chunksStr string, pwe, psnr, bpp float64, nthreads int) int {
	dims, err := parseDims3D(dimsStr)
	if err != nil {
		log.Printf("sperr3d: %v", err)
		return 1
	}
	chunkDims := dims
	if chunksStr != "" {
		chunkDims, err = parseDims3D(chunksStr)
		if err != nil {
			log.Printf("sperr3d: %v", err)
			return 1
		}
	}

	mode, quality, err := pickMode(pwe, psnr, bpp)
	if err != nil {
		log.Printf("sperr3d: %v", err)
		return 1
	}

	vals, err := floatio.ReadFile(input, ftype, dims.Total())
	if err != nil {
		log.Printf("sperr3d: reading %s: %v", input, err)
		return 1
	}

	stream, err := sperr.CompressVolume(vals, dims, chunkDims, mode, quality, nthreads)
	if err != nil {
		log.Printf("sperr3d: compress: %v", err)
		return 1
	}

	if err := os.WriteFile(bitstreamPath, stream, 0o644); err != nil {
		log.Printf("sperr3d: writing %s: %v", bitstreamPath, err)
		return 1
	}
	return 0
}

func runDecompress(bitstreamPath, decompF, decompD, lowresF, lowresD string, nthreads, pct int) int {
	stream, err := os.ReadFile(bitstreamPath)
	if err != nil {
		log.Printf("sperr3d: reading %s: %v", bitstreamPath, err)
		return 1
	}

	if pct > 0 {
		stream, err = sperr.TruncateVolume(stream, pct)
		if err != nil {
			log.Printf("sperr3d: truncate: %v", err)
			return 1
		}
	}

	wantLowres := lowresF != "" || lowresD != ""
	if !wantLowres {
		vals, _, err := sperr.DecompressVolume(stream, nthreads)
		if err != nil {
			log.Printf("sperr3d: decompress: %v", err)
			return 1
		}
		return writeDecompressed(vals, decompF, decompD)
	}

	vals, hierarchy, _, err := sperr.DecompressVolumeMultiRes(stream, nthreads)
	if err != nil {
		log.Printf("sperr3d: decompress: %v", err)
		return 1
	}
	if code := writeDecompressed(vals, decompF, decompD); code != 0 {
		return code
	}
	for lvl, lvlVals := range hierarchy {
		if lowresF != "" {
			path := fmt.Sprintf("%s_level%d", lowresF, lvl)
			if err := floatio.WriteFile(path, lvlVals, 32); err != nil {
				log.Printf("sperr3d: writing %s: %v", path, err)
				return 1
			}
		}
		if lowresD != "" {
			path := fmt.Sprintf("%s_level%d", lowresD, lvl)
			if err := floatio.WriteFile(path, lvlVals, 64); err != nil {
				log.Printf("sperr3d: writing %s: %v", path, err)
				return 1
			}
		}
	}
	return 0
}

func writeDecompressed(vals []float64, decompF, decompD string) int {
	if decompF != "" {
		if err := floatio.WriteFile(decompF, vals, 32); err != nil {
			log.Printf("sperr3d: writing %s: %v", decompF, err)
			return 1
		}
	}
	if decompD != "" {
		if err := floatio.WriteFile(decompD, vals, 64); err != nil {
			log.Printf("sperr3d: writing %s: %v", decompD, err)
			return 1
		}
	}
	return 0
}

func pickMode(pwe, psnr, bpp float64) (sperr.Mode, float64, error) {
	set := 0
	var mode sperr.Mode
	var quality float64
	if pwe > 0 {
		set++
		mode, quality = sperr.RatePWE, pwe
	}
	if psnr > 0 {
		set++
		mode, quality = sperr.RatePSNR, psnr
	}
	if bpp > 0 {
		set++
		mode, quality = sperr.RateBitrate, bpp
	}
	if set != 1 {
		return 0, 0, fmt.Errorf("exactly one of --pwe, --psnr, --bpp is required")
	}
	return mode, quality, nil
}

func parseDims3D(s string) (wavelet.Dims, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return wavelet.Dims{}, fmt.Errorf("dims must be \"nx ny nz\", got %q", s)
	}
	var nx, ny, nz int
	if _, err := fmt.Sscanf(s, "%d %d %d", &nx, &ny, &nz); err != nil {
		return wavelet.Dims{}, fmt.Errorf("dims must be \"nx ny nz\": %w", err)
	}
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return wavelet.Dims{}, fmt.Errorf("dims must be positive")
	}
	return wavelet.Dims{X: nx, Y: ny, Z: nz}, nil
}
