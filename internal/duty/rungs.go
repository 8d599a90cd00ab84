package duty

import "github.com/ecfan/ecfan/internal/util"

const (
	// DefaultTolerance is the distance in percentage points within which
	// an observed duty is considered to sit on a rung
	DefaultTolerance = 1
)

var (
	// AllowedDuties are the duty levels the fan is expected to settle at
	AllowedDuties = []int{0, 16, 30, 40, 65, 90, 100}
)

// IdentifyDuty snaps an observed duty to the first rung within tolerance.
// Values that are not close to any rung are returned unchanged, so unknown
// intermediate states are kept instead of being forced onto a wrong rung.
// The 0 rung only matches exactly, small non-zero readings are never treated as "off".
func IdentifyDuty(duty int, rungs []int, tolerance int) int {
	for _, rung := range rungs {
		if matchesRung(duty, rung, tolerance) {
			return rung
		}
	}
	return duty
}

func matchesRung(duty int, rung int, tolerance int) bool {
	if rung == 0 {
		return duty == 0
	}
	return util.Abs(duty-rung) <= tolerance
}
