package png

import "math"

// screenGamma is the fixed display gamma spec.md §4.5 pairs with the
// file's stored gAMA to build the correction LUT.
const screenGamma = 2.2

// buildGammaLUT returns a lookup table of depth entries (depth = 2^t, t
// the processing bit depth), mapping a linear sample index to its
// gamma-corrected value in the same range. fileGamma is gAMA/100000.
func buildGammaLUT(fileGamma float64, depth int) ([]uint16, error) {
	exponent := 1.0 / (fileGamma * screenGamma)
	if fileGamma == 0 || exponent == 0 {
		return nil, newErr(EGama)
	}

	max := float64(depth - 1)
	lut := make([]uint16, depth)
	for i := 0; i < depth; i++ {
		v := max * math.Pow(float64(i)/max, exponent)
		if v < 0 {
			v = 0
		}
		if v > max {
			v = max
		}
		lut[i] = uint16(v + 0.5)
	}
	return lut, nil
}
