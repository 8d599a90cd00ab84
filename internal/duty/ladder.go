package duty

import "fmt"

type Direction string

const (
	// DirectionAscending rules only ever raise the duty
	DirectionAscending Direction = "ascending"
	// DirectionDescending rules only ever lower the duty
	DirectionDescending Direction = "descending"
)

// Rule is a single step of the hysteresis ladder.
//
// An ascending rule fires if temp >= Temperature and duty < Duty,
// a descending rule fires if temp <= Temperature and duty >= Duty.
type Rule struct {
	Direction   Direction `json:"direction"`
	Temperature int       `json:"temperature"`
	Duty        int       `json:"duty"`
	Target      int       `json:"target"`
}

func (r Rule) Matches(temp int, duty int) bool {
	switch r.Direction {
	case DirectionAscending:
		return temp >= r.Temperature && duty < r.Duty
	case DirectionDescending:
		return temp <= r.Temperature && duty >= r.Duty
	}
	return false
}

func (r Rule) String() string {
	switch r.Direction {
	case DirectionAscending:
		return fmt.Sprintf("temp >= %d°C and duty < %d%% -> %d%%", r.Temperature, r.Duty, r.Target)
	case DirectionDescending:
		return fmt.Sprintf("temp <= %d°C and duty >= %d%% -> %d%%", r.Temperature, r.Duty, r.Target)
	}
	return fmt.Sprintf("unknown direction '%s'", r.Direction)
}

// Ladder is an ordered list of rules, the first matching rule wins.
type Ladder []Rule

// DefaultLadder raises the duty in steps as temperature climbs and only
// lowers it once the temperature dropped clearly below the raising threshold.
var DefaultLadder = Ladder{
	{Direction: DirectionAscending, Temperature: 85, Duty: 65, Target: 65},
	{Direction: DirectionAscending, Temperature: 75, Duty: 40, Target: 40},
	{Direction: DirectionAscending, Temperature: 65, Duty: 30, Target: 30},
	{Direction: DirectionAscending, Temperature: 55, Duty: 17, Target: 17},

	// duty is never negative, so this one is unconditional
	{Direction: DirectionDescending, Temperature: 50, Duty: 0, Target: 0},
	{Direction: DirectionDescending, Temperature: 60, Duty: 17, Target: 17},
	{Direction: DirectionDescending, Temperature: 70, Duty: 30, Target: 30},
	{Direction: DirectionDescending, Temperature: 80, Duty: 40, Target: 40},
	{Direction: DirectionDescending, Temperature: 85, Duty: 65, Target: 65},
}

// Evaluate returns the target of the first rule matching temp and duty.
func (l Ladder) Evaluate(temp int, duty int) (target int, ok bool) {
	for _, rule := range l {
		if rule.Matches(temp, duty) {
			return rule.Target, true
		}
	}
	return duty, false
}

// Steady applies the ladder repeatedly at a constant temperature, starting at duty,
// until no rule changes the duty anymore. The second return value is false
// if the ladder keeps switching between duties at this temperature.
func (l Ladder) Steady(temp int, duty int) (int, bool) {
	seen := map[int]bool{duty: true}
	for {
		target, ok := l.Evaluate(temp, duty)
		if !ok || target == duty {
			return duty, true
		}
		if seen[target] {
			return target, false
		}
		seen[target] = true
		duty = target
	}
}

// Targets returns all duties the ladder can switch to
func (l Ladder) Targets() []int {
	var result []int
	known := map[int]bool{}
	for _, rule := range l {
		if !known[rule.Target] {
			known[rule.Target] = true
			result = append(result, rule.Target)
		}
	}
	return result
}

// Sweep walks the given temperatures in order, starting at duty,
// and returns the duty the ladder settles at for each of them.
func (l Ladder) Sweep(temps []int, duty int) []int {
	result := make([]int, 0, len(temps))
	for _, temp := range temps {
		duty, _ = l.Steady(temp, duty)
		result = append(result, duty)
	}
	return result
}

// TemperatureRange returns the lowest and highest rule temperature.
func (l Ladder) TemperatureRange() (min int, max int) {
	for i, rule := range l {
		if i == 0 || rule.Temperature < min {
			min = rule.Temperature
		}
		if i == 0 || rule.Temperature > max {
			max = rule.Temperature
		}
	}
	return min, max
}
