package configuration

import (
	"fmt"
	"github.com/ecfan/ecfan/internal/duty"
	"github.com/mitchellh/mapstructure"
	"reflect"
	"strings"
)

var directionAliases = map[string]duty.Direction{
	"ascending":  duty.DirectionAscending,
	"asc":        duty.DirectionAscending,
	"up":         duty.DirectionAscending,
	"rising":     duty.DirectionAscending,
	"descending": duty.DirectionDescending,
	"desc":       duty.DirectionDescending,
	"down":       duty.DirectionDescending,
	"falling":    duty.DirectionDescending,
}

// ParseDirection converts a (case-insensitive) direction name or alias to a duty.Direction.
func ParseDirection(value string) (duty.Direction, error) {
	direction, ok := directionAliases[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return "", fmt.Errorf("unknown ladder direction '%s', use one of: ascending | descending", value)
	}
	return direction, nil
}

// directionHookFunc returns a mapstructure decode hook that accepts
// direction aliases like "up" or "falling" for duty.Direction values.
func directionHookFunc() mapstructure.DecodeHookFuncType {
	directionType := reflect.TypeOf(duty.Direction(""))

	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != directionType || f.Kind() != reflect.String {
			return data, nil
		}
		return ParseDirection(reflect.ValueOf(data).String())
	}
}
