// Command sperr2d compresses or decompresses a single 2D slice of raw,
// headerless float32/float64 values using the go-sperr core. It is a
// thin wrapper: flag parsing and file I/O only, matching spec.md's own
// framing of the CLI as informative rather than algorithmic.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sperrlab/go-sperr/floatio"
	"github.com/sperrlab/go-sperr/sperr"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("sperr2d", flag.ContinueOnError)

	compress := fs.Bool("c", false, "compress the input file")
	decompress := fs.Bool("d", false, "decompress the input bitstream")
	ftype := fs.Int("ftype", 32, "input float type: 32 or 64")
	dims := fs.String("dims", "", "nx ny, space separated")
	pwe := fs.Float64("pwe", 0, "point-wise error tolerance (mutually exclusive with --psnr/--bpp)")
	psnr := fs.Float64("psnr", 0, "target PSNR in dB (mutually exclusive with --pwe/--bpp)")
	bpp := fs.Float64("bpp", 0, "target bits per pixel (mutually exclusive with --pwe/--psnr)")
	input := fs.String("input", "", "input file path")
	bitstream := fs.String("bitstream", "", "output bitstream path (compress) or input bitstream path (decompress)")
	decompF := fs.String("decomp_f", "", "decompressed float32 output path")
	decompD := fs.String("decomp_d", "", "decompressed float64 output path")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	switch {
	case *compress && *decompress:
		log.Println("sperr2d: -c and -d are mutually exclusive")
		return 1
	case *compress:
		return runCompress(*input, *bitstream, *ftype, *dims, *pwe, *psnr, *bpp)
	case *decompress:
		return runDecompress(*bitstream, *decompF, *decompD)
	default:
		log.Println("sperr2d: one of -c or -d is required")
		return 1
	}
}

func runCompress(input, bitstreamPath string, ftype int, dimsStr string, pwe, psnr, bpp float64) int {
	nx, ny, err := parseDims2D(dimsStr)
	if err != nil {
		log.Printf("sperr2d: %v", err)
		return 1
	}

	mode, quality, err := pickMode(pwe, psnr, bpp)
	if err != nil {
		log.Printf("sperr2d: %v", err)
		return 1
	}

	vals, err := floatio.ReadFile(input, ftype, nx*ny)
	if err != nil {
		log.Printf("sperr2d: reading %s: %v", input, err)
		return 1
	}

	stream, err := sperr.CompressSlice(vals, nx, ny, mode, quality)
	if err != nil {
		log.Printf("sperr2d: compress: %v", err)
		return 1
	}

	if err := os.WriteFile(bitstreamPath, stream, 0o644); err != nil {
		log.Printf("sperr2d: writing %s: %v", bitstreamPath, err)
		return 1
	}
	return 0
}

func runDecompress(bitstreamPath, decompF, decompD string) int {
	stream, err := os.ReadFile(bitstreamPath)
	if err != nil {
		log.Printf("sperr2d: reading %s: %v", bitstreamPath, err)
		return 1
	}

	vals, _, _, err := sperr.DecompressSlice(stream)
	if err != nil {
		log.Printf("sperr2d: decompress: %v", err)
		return 1
	}

	if decompF != "" {
		if err := floatio.WriteFile(decompF, vals, 32); err != nil {
			log.Printf("sperr2d: writing %s: %v", decompF, err)
			return 1
		}
	}
	if decompD != "" {
		if err := floatio.WriteFile(decompD, vals, 64); err != nil {
			log.Printf("sperr2d: writing %s: %v", decompD, err)
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

func parseDims2D(s string) (nx, ny int, err error) {
	if _, err := fmt.Sscanf(s, "%d %d", &nx, &ny); err != nil {
		return 0, 0, fmt.Errorf("--dims must be \"nx ny\": %w", err)
	}
	if nx <= 0 || ny <= 0 {
		return 0, 0, fmt.Errorf("--dims must be positive")
	}
	return nx, ny, nil
}
