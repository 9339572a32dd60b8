// Package pose evaluates yoga form from estimated body landmarks.
package pose

import (
	"math"

	"yoga-guide/internal/models"
)

// AngleBetween returns the interior angle at b, in degrees within [0, 180],
// formed by the rays b→a and b→c. It returns 0 when any point is missing;
// callers must read 0 as "unknown", not as a flat angle.
func AngleBetween(a, b, c *models.Keypoint) float64 {
	if a == nil || b == nil || c == nil {
		return 0
	}

	radians := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	angle := math.Abs(radians * 180.0 / math.Pi)

	// raw atan2 differences span (-360, 360)
	if angle > 180.0 {
		angle = 360 - angle
	}
	return angle
}
