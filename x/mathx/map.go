package mathx

import "golang.org/x/exp/constraints"

// Map re-maps x from [inMin,inMax] to [outMin,outMax] using integer
// arithmetic in int64. Division truncates toward zero and the input is not
// clamped, so values outside the input span map outside the output span.
// A degenerate input span returns outMin.
func Map[T constraints.Integer](x, inMin, inMax, outMin, outMax T) T {
	if inMax == inMin {
		return outMin
	}
	num := (int64(x) - int64(inMin)) * (int64(outMax) - int64(outMin))
	return T(num/(int64(inMax)-int64(inMin)) + int64(outMin))
}
