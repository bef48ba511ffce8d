package mathx

import "golang.org/x/exp/constraints"

// Map rescales x from [inMin,inMax] to [outMin,outMax] with integer division
// (truncating, like the Arduino map()). Input outside the range is clamped.
// A degenerate input range returns outMin.
func Map[T constraints.Integer](x, inMin, inMax, outMin, outMax T) T {
	if inMax == inMin {
		return outMin
	}
	x = Clamp(x, inMin, inMax)
	return outMin + (x-inMin)*(outMax-outMin)/(inMax-inMin)
}

// MeanU16 returns the truncated integer mean of samples (0 for none).
func MeanU16(samples []uint16) uint16 {
	if len(samples) == 0 {
		return 0
	}
	var sum uint32
	for _, s := range samples {
		sum += uint32(s)
	}
	return uint16(sum / uint32(len(samples)))
}
