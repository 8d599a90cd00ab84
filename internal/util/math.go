package util

import (
	"golang.org/x/exp/constraints"
)

// Clamp limits value to the closed interval [min, max]
func Clamp[T constraints.Ordered](value T, min T, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Abs returns the absolute value of an integer
func Abs(value int) int {
	if value < 0 {
		return -value
	}
	return value
}
