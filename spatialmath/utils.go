package spatialmath

import (
	"math"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
)

// spaceDelimitedStringToSlice splits up space-delimited numbers, such as the rows of a matrix
// pasted from a calibration tool. Unparseable fields become NaN.
func spaceDelimitedStringToSlice(s string) []float64 {
	var converted []float64
	slice := strings.Fields(strings.NewReplacer(",", " ", "[", " ", "]", " ").Replace(s))
	for _, value := range slice {
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			value = math.NaN()
		}
		converted = append(converted, value)
	}
	return converted
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon && math.Abs(a.Z-b.Z) < epsilon
}
