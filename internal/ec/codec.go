package ec

import (
	"fmt"
	"math"
)

// ValidateDuty checks that percent is within [MinDuty, MaxDuty]
func ValidateDuty(percent int) error {
	if percent < MinDuty || percent > MaxDuty {
		return fmt.Errorf("%w: %d, must be within [%d..%d]", ErrInvalidDutyArgument, percent, MinDuty, MaxDuty)
	}
	return nil
}

// DutyToRaw converts a duty percentage to the byte value written to the EC.
// percent must already be validated.
func DutyToRaw(percent int) byte {
	return byte(math.Round(float64(percent) / 100 * 255))
}

// RawToDuty converts the raw fan duty register value to a percentage
func RawToDuty(raw byte) int {
	return int(math.Round(float64(raw) / 255 * 100))
}

// DecodeRpm combines the two tachometer registers into a fan speed in RPM.
// A combined value of 0 means the fan is not spinning.
func DecodeRpm(hi byte, lo byte) int {
	combined := int(hi)<<8 + int(lo)
	if combined <= 0 {
		return 0
	}
	return rpmDividend / combined
}
