package tint

import "math"

// earthRadius is the sphere radius in meters used by the radar grid projection.
const earthRadius = 6370997.0

// cartesianToGeographic inverts the azimuthal equidistant projection centered
// on (lon0, lat0). x and y are meters east and north of the center; the
// result is in degrees with longitude in [-180, 180).
func cartesianToGeographic(x, y, lon0, lat0 float64) (lon, lat float64) {
	lon0r := lon0 * math.Pi / 180
	lat0r := lat0 * math.Pi / 180
	rho := math.Hypot(x, y)
	if rho == 0 {
		return lon0, lat0
	}
	c := rho / earthRadius
	sinC, cosC := math.Sincos(c)
	latR := math.Asin(cosC*math.Sin(lat0r) + y*sinC*math.Cos(lat0r)/rho)
	x1 := x * sinC
	x2 := rho*math.Cos(lat0r)*cosC - y*math.Sin(lat0r)*sinC
	lonR := lon0r + math.Atan2(x1, x2)

	lon = lonR * 180 / math.Pi
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	lon -= 180
	return lon, latR * 180 / math.Pi
}
