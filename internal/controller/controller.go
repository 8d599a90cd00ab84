package controller

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/asecurityteam/rolling"
	"github.com/ecfan/ecfan/internal/configuration"
	"github.com/ecfan/ecfan/internal/duty"
	"github.com/ecfan/ecfan/internal/ec"
	"github.com/ecfan/ecfan/internal/persistence"
	"github.com/ecfan/ecfan/internal/ui"
	"github.com/ecfan/ecfan/internal/util"
)

var (
	ErrControllerStopped = errors.New("fan controller is not running")
)

// number of consecutive failed duty writes before the user is notified
const maxFailedWrites = 3

// DutyWriter is the write side of an ec.Transport.
type DutyWriter interface {
	WriteDuty(percent int) error
}

type FanController interface {
	Run(ctx context.Context) error
	UpdateFanSpeed() error

	GetId() string
	// GetStatus returns the most recently published status without waiting for the control loop.
	GetStatus() Status

	RequestExit()
	OverrideDuty(ctx context.Context, percent int) error
	ResumeAuto(ctx context.Context) error
	RequestStatus(ctx context.Context) (Status, error)
}

type Options struct {
	PollInterval time.Duration
	FallbackDuty int

	TemperatureWindowSize int
	MinDutyChange         int
	ZeroTransitionHold    time.Duration
	DryRun                bool
}

func OptionsFromConfig(config configuration.Configuration) Options {
	return Options{
		PollInterval:          config.PollInterval,
		FallbackDuty:          config.FallbackDuty,
		TemperatureWindowSize: config.TemperatureWindowSize,
		MinDutyChange:         config.MinDutyChange,
		ZeroTransitionHold:    config.ZeroTransitionHold,
		DryRun:                config.DryRun,
	}
}

type Statistics struct {
	AppliedWriteCount     int `json:"appliedWriteCount"`
	FailedWriteCount      int `json:"failedWriteCount"`
	SkippedCycleCount     int `json:"skippedCycleCount"`
	HandshakeTimeoutCount int `json:"handshakeTimeoutCount"`
}

type Status struct {
	Snapshot           ec.Snapshot `json:"snapshot"`
	SnapshotTime       time.Time   `json:"snapshotTime"`
	ControlTemperature int         `json:"controlTemperature"`
	// LastAppliedDuty is negative until the first duty was written
	LastAppliedDuty int        `json:"lastAppliedDuty"`
	AutoEnabled     bool       `json:"autoEnabled"`
	OverrideDuty    int        `json:"overrideDuty"`
	DryRun          bool       `json:"dryRun"`
	Statistics      Statistics `json:"statistics"`
}

type commandKind int

const (
	commandExit commandKind = iota
	commandOverride
	commandResumeAuto
	commandStatus
)

type command struct {
	kind   commandKind
	duty   int
	result chan commandResult
}

type commandResult struct {
	status Status
	err    error
}

type fanController struct {
	source      ec.TelemetrySource
	writer      DutyWriter
	persistence persistence.Persistence
	duty        *duty.Controller
	options     Options

	commands chan command
	done     chan struct{}
	now      func() time.Time

	// owned by the control loop
	snapshot           ec.Snapshot
	snapshotTime       time.Time
	controlTemperature int
	tempWindow         *rolling.PointPolicy
	tempWindowFilled   bool
	lastApplied        int
	lastZeroTransition time.Time
	autoEnabled        bool
	override           int
	statistics         Statistics
	failedWrites       int

	mu        sync.Mutex
	published Status
}

func NewFanController(
	source ec.TelemetrySource,
	writer DutyWriter,
	pers persistence.Persistence,
	dutyController *duty.Controller,
	options Options,
) FanController {
	if options.TemperatureWindowSize < 1 {
		options.TemperatureWindowSize = 1
	}
	f := &fanController{
		source:      source,
		writer:      writer,
		persistence: pers,
		duty:        dutyController,
		options:     options,
		commands:    make(chan command),
		done:        make(chan struct{}),
		now:         time.Now,
		tempWindow:  util.CreateRollingWindow(options.TemperatureWindowSize),
		lastApplied: -1,
		autoEnabled: true,
		override:    -1,
	}
	f.publish()
	return f
}

func (f *fanController) GetId() string {
	return f.source.GetId()
}

func (f *fanController) Run(ctx context.Context) error {
	defer close(f.done)
	defer f.applyFallback()

	ui.Info("Starting controller loop for source '%s' (poll interval: %s)", f.GetId(), f.options.PollInterval)
	if f.options.DryRun {
		ui.Warning("Dry run enabled, the fan duty will not be changed")
	}

	f.runCycle()

	tick := time.NewTicker(f.options.PollInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			ui.Info("Stopping controller loop for source '%s'...", f.GetId())
			return nil
		case cmd := <-f.commands:
			if exit := f.handleCommand(cmd); exit {
				ui.Info("Exit requested, stopping controller loop for source '%s'...", f.GetId())
				return nil
			}
		case <-tick.C:
			f.runCycle()
		}
	}
}

func (f *fanController) runCycle() {
	err := f.UpdateFanSpeed()
	if err != nil {
		ui.Warning("Error in control cycle of %s: %v", f.GetId(), err)
	}
}

// UpdateFanSpeed runs a single control cycle.
// A cycle whose telemetry could not be read is skipped, the previous duty stays in effect.
func (f *fanController) UpdateFanSpeed() error {
	defer f.publish()

	snapshot, err := f.source.Read()
	if err != nil {
		f.statistics.SkippedCycleCount++
		if errors.Is(err, ec.ErrHandshakeTimeout) {
			f.statistics.HandshakeTimeoutCount++
		}
		return fmt.Errorf("skipping cycle: %w", err)
	}
	if len(snapshot.Invalid) > 0 {
		f.statistics.HandshakeTimeoutCount++
		ui.Debug("Partial telemetry from %s, invalid fields: %v", f.GetId(), snapshot.Invalid)
	}
	f.snapshot = snapshot
	f.snapshotTime = f.now()
	f.saveState()

	temp, ok := f.updateControlTemperature(snapshot)
	if !ok || !snapshot.IsValid(ec.FieldFanDuty) {
		f.statistics.SkippedCycleCount++
		return nil
	}

	if !f.autoEnabled {
		// duty is overridden, keep monitoring only
		return nil
	}

	decision := f.duty.EvaluateTemperature(temp, snapshot.FanDuty, f.lastApplied)
	if !decision.IsChange() {
		return nil
	}
	target := decision.Duty()

	ladderTarget, _ := f.duty.LadderTarget(temp, snapshot.FanDuty)
	if !f.shouldApply(target, ladderTarget, snapshot.FanDuty) {
		return nil
	}

	ui.Debug("Temperature %d°C, duty %d%% (%d rpm) -> %d%%", temp, snapshot.FanDuty, snapshot.FanRpm, target)
	return f.setDuty(target, snapshot.FanDuty)
}

// updateControlTemperature adds the hotter valid component temperature of the snapshot
// to the moving window and returns the rounded window average.
func (f *fanController) updateControlTemperature(snapshot ec.Snapshot) (int, bool) {
	temp, ok := snapshot.ControlTemperature()
	if !ok {
		return 0, false
	}
	if !f.tempWindowFilled {
		util.FillWindow(f.tempWindow, f.options.TemperatureWindowSize, float64(temp))
		f.tempWindowFilled = true
	} else {
		f.tempWindow.Append(float64(temp))
	}
	f.controlTemperature = int(math.Round(util.GetWindowAvg(f.tempWindow)))
	return f.controlTemperature, true
}

// shouldApply filters a decided target. The minimum change is measured between
// the current duty and the ladder target, so ramp steps are never dropped.
func (f *fanController) shouldApply(target int, ladderTarget int, current int) bool {
	if target == f.lastApplied && !(target == 0 && current != 0) {
		return false
	}

	if f.options.MinDutyChange > 0 && target != 0 && current != 0 &&
		util.Abs(ladderTarget-current) <= f.options.MinDutyChange {
		ui.Debug("Ignoring duty change from %d%% to %d%%, below minimum change of %d", current, ladderTarget, f.options.MinDutyChange)
		return false
	}

	if f.options.ZeroTransitionHold > 0 && (target == 0) != (current == 0) && !f.lastZeroTransition.IsZero() {
		elapsed := f.now().Sub(f.lastZeroTransition)
		if elapsed < f.options.ZeroTransitionHold {
			ui.Debug("Holding duty %d%%, last transition from or to 0%% was %s ago", current, elapsed)
			return false
		}
	}

	return true
}

func (f *fanController) setDuty(target int, current int) error {
	if f.options.DryRun {
		ui.Info("Dry run: would set duty of %s from %d%% to %d%%", f.GetId(), current, target)
	} else {
		err := f.writer.WriteDuty(target)
		if err != nil {
			f.statistics.FailedWriteCount++
			if errors.Is(err, ec.ErrHandshakeTimeout) {
				f.statistics.HandshakeTimeoutCount++
			}
			f.failedWrites++
			if f.failedWrites == maxFailedWrites {
				ui.WarningAndNotify("Fan Duty Write Failed",
					"%d consecutive duty writes of %s failed, last error: %v", f.failedWrites, f.GetId(), err)
			}
			return fmt.Errorf("unable to set duty to %d%%: %w", target, err)
		}
		f.statistics.AppliedWriteCount++
		f.failedWrites = 0
	}

	if (target == 0) != (current == 0) {
		f.lastZeroTransition = f.now()
	}
	f.lastApplied = target
	f.saveState()
	return nil
}

func (f *fanController) applyFallback() {
	fallback := f.options.FallbackDuty
	if f.options.DryRun {
		ui.Info("Dry run: would set fallback duty of %d%%", fallback)
		return
	}

	ui.Info("Setting fallback duty of %d%%...", fallback)
	err := f.writer.WriteDuty(fallback)
	if err != nil {
		ui.ErrorAndNotify("Fallback Duty Failed",
			"Unable to set fallback duty of %d%%, make sure the fan is running: %v", fallback, err)
		return
	}
	f.statistics.AppliedWriteCount++
	f.lastApplied = fallback
	f.saveState()
	f.publish()
}

func (f *fanController) handleCommand(cmd command) (exit bool) {
	var result commandResult
	switch cmd.kind {
	case commandExit:
		exit = true
	case commandOverride:
		result.err = f.setDuty(cmd.duty, f.snapshot.FanDuty)
		if result.err == nil {
			ui.Info("Duty of %s overridden to %d%%, automatic control disabled", f.GetId(), cmd.duty)
			f.autoEnabled = false
			f.override = cmd.duty
		}
	case commandResumeAuto:
		ui.Info("Resuming automatic control of %s", f.GetId())
		f.autoEnabled = true
		f.override = -1
	case commandStatus:
	}

	f.saveState()
	f.publish()
	result.status = f.GetStatus()
	if cmd.result != nil {
		cmd.result <- result
	}
	return exit
}

func (f *fanController) saveState() {
	if f.persistence == nil {
		return
	}
	err := f.persistence.SaveControllerState(f.GetId(), persistence.ControllerState{
		Snapshot:        f.snapshot,
		LastAppliedDuty: f.lastApplied,
		AutoEnabled:     f.autoEnabled,
		UpdatedAt:       f.snapshotTime,
	})
	if err != nil {
		ui.Warning("Unable to save controller state of %s: %v", f.GetId(), err)
	}
}

func (f *fanController) publish() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = Status{
		Snapshot:           f.snapshot,
		SnapshotTime:       f.snapshotTime,
		ControlTemperature: f.controlTemperature,
		LastAppliedDuty:    f.lastApplied,
		AutoEnabled:        f.autoEnabled,
		OverrideDuty:       f.override,
		DryRun:             f.options.DryRun,
		Statistics:         f.statistics,
	}
	f.published.Snapshot.Invalid = append([]ec.Field(nil), f.snapshot.Invalid...)
}

func (f *fanController) GetStatus() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.published
}

func (f *fanController) send(ctx context.Context, cmd command) (Status, error) {
	cmd.result = make(chan commandResult, 1)
	select {
	case f.commands <- cmd:
	case <-f.done:
		return Status{}, ErrControllerStopped
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
	result := <-cmd.result
	return result.status, result.err
}

// RequestExit stops the control loop, which writes the fallback duty before returning.
func (f *fanController) RequestExit() {
	select {
	case f.commands <- command{kind: commandExit}:
	case <-f.done:
	}
}

// OverrideDuty writes the given duty and disables automatic control until ResumeAuto is called.
func (f *fanController) OverrideDuty(ctx context.Context, percent int) error {
	if err := ec.ValidateDuty(percent); err != nil {
		return err
	}
	_, err := f.send(ctx, command{kind: commandOverride, duty: percent})
	return err
}

func (f *fanController) ResumeAuto(ctx context.Context) error {
	_, err := f.send(ctx, command{kind: commandResumeAuto})
	return err
}

// RequestStatus returns the status as seen by the control loop after all pending commands.
func (f *fanController) RequestStatus(ctx context.Context) (Status, error) {
	return f.send(ctx, command{kind: commandStatus})
}
