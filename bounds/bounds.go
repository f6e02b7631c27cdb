// Package bounds derives distance bounds from the triangle inequality.
//
// For a query q and a cluster with center c and radius r, every owned item x
// satisfies Lower(d(q, c), r) <= d(q, x) <= Upper(d(q, c), r).
package bounds

// Lower returns max(0, centerDist - radius).
func Lower(centerDist, radius float64) float64 {
	return max(0, centerDist-radius)
}

// Upper returns centerDist + radius.
func Upper(centerDist, radius float64) float64 {
	return centerDist + radius
}

// Of returns both bounds.
func Of(centerDist, radius float64) (lower, upper float64) {
	return Lower(centerDist, radius), Upper(centerDist, radius)
}
