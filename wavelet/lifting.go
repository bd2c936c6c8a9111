package wavelet

// CDF 9/7 lifting coefficients. These five constants and their relation
// (epsilon is the scaling step's gain, invEpsilon its reciprocal) fully
// determine the biorthogonal 9/7 analysis/synthesis filter pair; they are
// the standard literature values for this wavelet, distinct from (if
// numerically close to) the JPEG 2000 Part-1 annex values, which round
// them differently for Annex-F's fixed-point path.
const (
	alpha      = -1.58615986717275
	beta       = -0.05297864003258
	gamma      = 0.88293362717904
	delta      = 0.44350482244527
	epsilon    = 1.14960430535816
	invEpsilon = 1.0 / epsilon
)

// analysisEvenEven performs one level of forward lifting on an
// even-length signal, in place: three predict/update sweeps (alpha, beta,
// gamma) followed by the delta/epsilon scaling sweep that separates low-
// and high-pass coefficients onto even and odd indices respectively.
func analysisEvenEven(signal []float64) {
	n := len(signal)

	for i := 1; i < n-2; i += 2 {
		signal[i] += alpha * (signal[i-1] + signal[i+1])
	}
	signal[n-1] += 2.0 * alpha * signal[n-2]

	signal[0] += 2.0 * beta * signal[1]
	for i := 2; i < n; i += 2 {
		signal[i] += beta * (signal[i+1] + signal[i-1])
	}

	for i := 1; i < n-2; i += 2 {
		signal[i] += gamma * (signal[i-1] + signal[i+1])
	}
	signal[n-1] += 2.0 * gamma * signal[n-2]

	signal[0] = epsilon * (signal[0] + 2.0*delta*signal[1])
	for i := 2; i < n; i += 2 {
		signal[i] = epsilon * (signal[i] + delta*(signal[i+1]+signal[i-1]))
	}

	for i := 1; i < n; i += 2 {
		signal[i] *= -invEpsilon
	}
}

// synthesisEvenEven is the exact inverse of analysisEvenEven.
func synthesisEvenEven(signal []float64) {
	n := len(signal)

	for i := 1; i < n; i += 2 {
		signal[i] *= -epsilon
	}

	signal[0] = signal[0]*invEpsilon - 2.0*delta*signal[1]
	for i := 2; i < n; i += 2 {
		signal[i] = signal[i]*invEpsilon - delta*(signal[i+1]+signal[i-1])
	}

	for i := 1; i < n-2; i += 2 {
		signal[i] -= gamma * (signal[i-1] + signal[i+1])
	}
	signal[n-1] -= 2.0 * gamma * signal[n-2]

	signal[0] -= 2.0 * beta * signal[1]
	for i := 2; i < n; i += 2 {
		signal[i] -= beta * (signal[i+1] + signal[i-1])
	}

	for i := 1; i < n-2; i += 2 {
		signal[i] -= alpha * (signal[i-1] + signal[i+1])
	}
	signal[n-1] -= 2.0 * alpha * signal[n-2]
}

// analysisOddEven is analysisEvenEven's counterpart for odd-length
// signals, where the last index is itself an even position and needs its
// own boundary treatment instead of sharing one with its predecessor.
func analysisOddEven(signal []float64) {
	n := len(signal)

	for i := 1; i < n-1; i += 2 {
		signal[i] += alpha * (signal[i-1] + signal[i+1])
	}

	signal[0] += 2.0 * beta * signal[1]
	for i := 2; i < n-2; i += 2 {
		signal[i] += beta * (signal[i+1] + signal[i-1])
	}
	signal[n-1] += 2.0 * beta * signal[n-2]

	for i := 1; i < n-1; i += 2 {
		signal[i] += gamma * (signal[i-1] + signal[i+1])
	}

	signal[0] = epsilon * (signal[0] + 2.0*delta*signal[1])
	for i := 2; i < n-2; i += 2 {
		signal[i] = epsilon * (signal[i] + delta*(signal[i+1]+signal[i-1]))
	}
	signal[n-1] = epsilon * (signal[n-1] + 2.0*delta*signal[n-2])

	for i := 1; i < n-1; i += 2 {
		signal[i] *= -invEpsilon
	}
}

// synthesisOddEven is the exact inverse of analysisOddEven.
func synthesisOddEven(signal []float64) {
	n := len(signal)

	for i := 1; i < n-1; i += 2 {
		signal[i] *= -epsilon
	}

	signal[0] = signal[0]*invEpsilon - 2.0*delta*signal[1]
	for i := 2; i < n-2; i += 2 {
		signal[i] = signal[i]*invEpsilon - delta*(signal[i+1]+signal[i-1])
	}
	signal[n-1] = signal[n-1]*invEpsilon - 2.0*delta*signal[n-2]

	for i := 1; i < n-1; i += 2 {
		signal[i] -= gamma * (signal[i-1] + signal[i+1])
	}

	signal[0] -= 2.0 * beta * signal[1]
	for i := 2; i < n-2; i += 2 {
		signal[i] -= beta * (signal[i+1] + signal[i-1])
	}
	signal[n-1] -= 2.0 * beta * signal[n-2]

	for i := 1; i < n-1; i += 2 {
		signal[i] -= alpha * (signal[i-1] + signal[i+1])
	}
}

// gatherEven de-interleaves an even-length lifted signal into [low|high]
// order: src[0], src[2], src[4], ... (the low-pass half) followed by
// src[1], src[3], src[5], ... (the high-pass half).
func gatherEven(src, dst []float64) {
	n := len(src)
	half := n / 2
	d := 0
	for i := 0; i < half; i++ {
		dst[d] = src[i*2]
		d++
	}
	for i := 0; i < half; i++ {
		dst[d] = src[i*2+1]
		d++
	}
}

// gatherOdd is gatherEven's counterpart for odd-length signals, where the
// low-pass half carries the one extra element.
func gatherOdd(src, dst []float64) {
	n := len(src)
	low := n/2 + 1
	high := n / 2
	d := 0
	for i := 0; i < low; i++ {
		dst[d] = src[i*2]
		d++
	}
	for i := 0; i < high; i++ {
		dst[d] = src[i*2+1]
		d++
	}
}

// scatterEven is the exact inverse of gatherEven: it re-interleaves a
// [low|high] ordered signal back into natural order.
func scatterEven(src, dst []float64) {
	n := len(src)
	half := n / 2
	s := 0
	for i := 0; i < half; i++ {
		dst[i*2] = src[s]
		s++
	}
	for i := 0; i < half; i++ {
		dst[i*2+1] = src[s]
		s++
	}
}

// scatterOdd is the exact inverse of gatherOdd.
func scatterOdd(src, dst []float64) {
	n := len(src)
	low := n/2 + 1
	high := n / 2
	s := 0
	for i := 0; i < low; i++ {
		dst[i*2] = src[s]
		s++
	}
	for i := 0; i < high; i++ {
		dst[i*2+1] = src[s]
		s++
	}
}
