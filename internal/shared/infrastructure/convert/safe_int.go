// Package convert holds checked integer conversions used when building queries.
package convert

import "fmt"

// Uint converts v, rejecting negative values.
func Uint(v int) (uint, error) {
	if v < 0 {
		return 0, fmt.Errorf("cannot convert negative int to uint: %d", v)
	}
	return uint(v), nil
}

// ClampUint converts v, mapping negative values to 0.
func ClampUint(v int) uint {
	if v < 0 {
		return 0
	}
	return uint(v)
}
