package configuration

import (
	"errors"
	"fmt"
	"github.com/ecfan/ecfan/internal/duty"
	"github.com/ecfan/ecfan/internal/ec"
	"github.com/ecfan/ecfan/internal/ui"
	"github.com/ecfan/ecfan/internal/util"
	"github.com/looplab/tarjan"
	"golang.org/x/exp/slices"
	"strings"
)

func Validate(configPath string) error {
	return validateConfig(&CurrentConfig, configPath)
}

func validateConfig(config *Configuration, path string) error {
	err := validateSource(config)
	if err != nil {
		return err
	}
	err = validateControlLoop(config)
	if err != nil {
		return err
	}
	err = validateRungs(config)
	if err != nil {
		return err
	}
	err = validateLadder(config.GetLadder())
	if err != nil {
		return err
	}
	err = validateServers(config)
	if err != nil {
		return err
	}

	if len(path) > 0 {
		// the daemon writes to the EC based on this file
		if _, err := util.CheckFilePermissionsForExecution(path); err != nil {
			ui.Warning("Config file '%s' has unsafe permissions: %s", path, err)
		}
	}

	return nil
}

func validateSource(config *Configuration) error {
	supportedTypes := []string{ec.SourceTypePort, ec.SourceTypeDebugFs}
	if !slices.Contains(supportedTypes, config.Source) {
		return fmt.Errorf("unsupported source '%s', use one of: %s", config.Source, strings.Join(supportedTypes, " | "))
	}
	if config.Source == ec.SourceTypeDebugFs && len(config.DebugFsPath) <= 0 {
		return errors.New("source debugfs: no debugFsPath provided")
	}
	return nil
}

func validateControlLoop(config *Configuration) error {
	if config.PollInterval <= 0 {
		return fmt.Errorf("pollInterval must be positive, got %s", config.PollInterval)
	}
	if config.FallbackDuty <= ec.MinDuty || config.FallbackDuty > ec.MaxDuty {
		return fmt.Errorf("fallbackDuty must be in (%d, %d], got %d", ec.MinDuty, ec.MaxDuty, config.FallbackDuty)
	}
	if config.TemperatureWindowSize < 1 {
		return fmt.Errorf("temperatureWindowSize must be >= 1, got %d", config.TemperatureWindowSize)
	}
	if config.MinDutyChange < 0 {
		return fmt.Errorf("minDutyChange must not be negative, got %d", config.MinDutyChange)
	}
	if config.ZeroTransitionHold < 0 {
		return fmt.Errorf("zeroTransitionHold must not be negative, got %s", config.ZeroTransitionHold)
	}
	return nil
}

func validateRungs(config *Configuration) error {
	if config.DutyTolerance < 0 {
		return fmt.Errorf("dutyTolerance must not be negative, got %d", config.DutyTolerance)
	}
	for _, rung := range config.Rungs {
		if ec.ValidateDuty(rung) != nil {
			return fmt.Errorf("rung %d: duty must be in [%d, %d]", rung, ec.MinDuty, ec.MaxDuty)
		}
	}
	if !util.IsSorted(config.Rungs) {
		return fmt.Errorf("rungs must be sorted in increasing order without duplicates: %v", config.Rungs)
	}
	return nil
}

func validateLadder(ladder duty.Ladder) error {
	for i, rule := range ladder {
		if rule.Direction != duty.DirectionAscending && rule.Direction != duty.DirectionDescending {
			return fmt.Errorf("ladder rule %d: unknown direction '%s', use one of: ascending | descending", i+1, rule.Direction)
		}
		if ec.ValidateDuty(rule.Duty) != nil {
			return fmt.Errorf("ladder rule %d: duty must be in [%d, %d], got %d", i+1, ec.MinDuty, ec.MaxDuty, rule.Duty)
		}
		if ec.ValidateDuty(rule.Target) != nil {
			return fmt.Errorf("ladder rule %d: target must be in [%d, %d], got %d", i+1, ec.MinDuty, ec.MaxDuty, rule.Target)
		}
	}

	for _, temp := range criticalTemperatures(ladder) {
		err := validateNoLoops(temp, ladderGraph(ladder, temp))
		if err != nil {
			return err
		}
	}
	return nil
}

// criticalTemperatures returns one temperature of every interval in which
// all ladder rules keep their outcome
func criticalTemperatures(ladder duty.Ladder) []int {
	known := map[int]bool{}
	for _, rule := range ladder {
		for _, temp := range []int{rule.Temperature - 1, rule.Temperature, rule.Temperature + 1} {
			known[temp] = true
		}
	}
	return util.SortedKeys(known)
}

// ladderGraph connects every duty with the duty the ladder switches to at the given temperature
func ladderGraph(ladder duty.Ladder, temp int) map[interface{}][]interface{} {
	graph := make(map[interface{}][]interface{})
	for d := ec.MinDuty; d <= ec.MaxDuty; d++ {
		target, ok := ladder.Evaluate(temp, d)
		if ok && target != d {
			graph[d] = []interface{}{target}
		} else {
			graph[d] = []interface{}{}
		}
	}
	return graph
}

func validateNoLoops(temp int, graph map[interface{}][]interface{}) error {
	output := tarjan.Connections(graph)
	for _, items := range output {
		if len(items) > 1 {
			duties := make([]int, 0, len(items))
			for _, item := range items {
				duties = append(duties, item.(int))
			}
			slices.Sort(duties)
			return fmt.Errorf("ladder oscillates at %d°C between duties: %v", temp, duties)
		}
	}
	return nil
}

func validateServers(config *Configuration) error {
	if config.Api.Enabled && (config.Api.Port <= 0 || config.Api.Port > 65535) {
		return fmt.Errorf("api: invalid port %d", config.Api.Port)
	}
	if config.Statistics.Enabled && (config.Statistics.Port <= 0 || config.Statistics.Port > 65535) {
		return fmt.Errorf("statistics: invalid port %d", config.Statistics.Port)
	}
	if config.Api.Enabled && config.Statistics.Enabled && config.Api.Port == config.Statistics.Port {
		return fmt.Errorf("api and statistics cannot share port %d", config.Api.Port)
	}
	return nil
}
