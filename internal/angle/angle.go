// Package angle holds the radian helpers shared by angle-aware controllers.
package angle

import "math"

// Normalize wraps a into (-pi, pi].
func Normalize(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// Diff is the shortest signed rotation from b to a.
func Diff(a, b float64) float64 {
	return Normalize(a - b)
}

func FromDegrees(deg float64) float64 { return deg * math.Pi / 180 }

func ToDegrees(rad float64) float64 { return rad * 180 / math.Pi }
