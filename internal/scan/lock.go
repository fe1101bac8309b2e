package scan

import (
	"fmt"
	"io"
	"log/slog"
)

const (
	// DefaultMaxLock is the number of strong samples needed to verify a signal.
	DefaultMaxLock = 10

	// DefaultSampleRate is the expected number of samples per second.
	DefaultSampleRate = 10

	// DefaultDebounce is the number of consecutive samples needed to flip the
	// audio while the user has paused.
	DefaultDebounce = 3
)

// Control is the part of the worker the automaton drives.
type Control interface {
	LockLevel() int
	SetLockLevel(level int)
	Scanning() bool
	SetScanning(on bool)
	Direction() Direction
	StepOnce(step int)
}

// Audio switches the receiver audio output.
type Audio interface {
	StartAudio() error
	StopAudio() error
}

// LockConfig tunes the automaton. BrowseWait and LockWait are in seconds and
// are converted to sample counts with SampleRate.
type LockConfig struct {
	MaxLock    int
	SampleRate int
	BrowseWait int     // 0 disables the browse limit
	LockWait   int     // seconds of silence tolerated on a locked signal
	Squelch    float64 // dB
	Debounce   int
}

// DefaultLockConfig returns the default automaton configuration.
func DefaultLockConfig() LockConfig {
	return LockConfig{
		MaxLock:    DefaultMaxLock,
		SampleRate: DefaultSampleRate,
		BrowseWait: 5,
		LockWait:   2,
		Squelch:    -30,
		Debounce:   DefaultDebounce,
	}
}

// Validate checks the configuration
func (c LockConfig) Validate() error {
	if c.MaxLock <= 0 {
		return fmt.Errorf("max lock must be positive, got %d", c.MaxLock)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.BrowseWait < 0 || c.LockWait < 0 {
		return fmt.Errorf("browse wait and lock wait must not be negative")
	}
	if c.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive, got %d", c.Debounce)
	}
	return nil
}

// State is the automaton state derived from its counters.
type State uint8

const (
	StateScanning State = iota
	StateVerifying
	StateLocked
	StatePaused // paused by the user
)

func (s State) String() string {
	switch s {
	case StateVerifying:
		return "verifying"
	case StateLocked:
		return "locked"
	case StatePaused:
		return "paused"
	default:
		return "scanning"
	}
}

// Event is returned by OnSample when the scan was paused or resumed.
type Event uint8

const (
	EventNone Event = iota
	EventLocked
	EventResumed
)

// WithLockLogger sets the logger for the automaton
func WithLockLogger(logger *slog.Logger) func(a *Automaton) {
	return func(a *Automaton) {
		a.logger = logger
	}
}

// Automaton pauses the scan on a verified signal and resumes it when the
// signal is gone or the browse time ran out. Timers count samples, not
// wall-clock time. It is not safe for concurrent use; the controller feeds
// it from a single goroutine.
type Automaton struct {
	ctrl  Control
	audio Audio
	cfg   LockConfig

	browseTimer int
	lockTimer   int

	userPaused bool
	audioOn    bool
	debounce   int

	logger *slog.Logger
}

// NewAutomaton creates an automaton driving ctrl. Zero MaxLock, SampleRate
// and Debounce take their defaults.
func NewAutomaton(ctrl Control, audio Audio, cfg LockConfig, options ...func(a *Automaton)) *Automaton {
	if cfg.MaxLock <= 0 {
		cfg.MaxLock = DefaultMaxLock
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	a := Automaton{
		ctrl:   ctrl,
		audio:  audio,
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}

	for _, option := range options {
		option(&a)
	}

	return &a
}

// Config returns the active configuration.
func (a *Automaton) Config() LockConfig {
	return a.cfg
}

// SetSquelch changes the threshold used by following samples.
func (a *Automaton) SetSquelch(db float64) {
	a.cfg.Squelch = db
}

// SetWaits changes the browse and lock wait, in seconds.
func (a *Automaton) SetWaits(browseWait, lockWait int) {
	a.cfg.BrowseWait = max(browseWait, 0)
	a.cfg.LockWait = max(lockWait, 0)
}

// OnSample folds one signal strength sample, in dB, into the automaton.
func (a *Automaton) OnSample(power float64) Event {
	if a.userPaused {
		a.gateAudio(power)
		return EventNone
	}

	if a.cfg.BrowseWait > 0 && a.browseTimer >= a.cfg.BrowseWait*a.cfg.SampleRate {
		a.browseTimer = 0
		a.logger.Debug("browse time elapsed")
		a.resume()
		return EventResumed
	}

	if power > a.cfg.Squelch {
		a.lockTimer = 0

		level := a.ctrl.LockLevel()
		if level < a.cfg.MaxLock {
			level++
			a.ctrl.SetLockLevel(level)

			if level < a.cfg.MaxLock {
				if a.browseTimer > 0 {
					a.browseTimer++
				}
				return EventNone
			}
		}

		// verified on this sample, or still locked
		ev := a.pause()
		a.browseTimer++
		return ev
	}

	if a.browseTimer == 0 {
		if a.ctrl.LockLevel() > 0 {
			a.ctrl.SetLockLevel(0) // lost before verification
		}
		return EventNone
	}

	a.lockTimer++
	if a.lockTimer >= a.cfg.LockWait*a.cfg.SampleRate {
		a.browseTimer = 0
		a.logger.Debug("signal gone")
		a.resume()
		return EventResumed
	}
	a.browseTimer++
	return EventNone
}

// pause stops stepping and opens the audio. It returns EventLocked only on the
// sample that paused the scan.
func (a *Automaton) pause() Event {
	if !a.ctrl.Scanning() {
		return EventNone
	}

	a.ctrl.SetScanning(false)
	a.setAudio(true)
	a.logger.Debug("signal locked")
	return EventLocked
}

// Resume clears the counters, steps once off the current frequency and turns
// scanning back on.
func (a *Automaton) Resume() {
	a.userPaused = false
	a.resume()
}

func (a *Automaton) resume() {
	a.ctrl.SetLockLevel(0)
	a.browseTimer = 0
	a.lockTimer = 0
	a.debounce = 0

	a.ctrl.StepOnce(int(a.ctrl.Direction()))
	a.ctrl.SetScanning(true)
	a.setAudio(false)
}

// Step clears the counters and moves once by step. Unless the user has
// paused, scanning continues from the new position.
func (a *Automaton) Step(step int) {
	a.Reset()
	a.ctrl.StepOnce(step)
	if !a.userPaused {
		a.ctrl.SetScanning(true)
		a.setAudio(false)
	}
}

// Turn clears the counters after a direction change. Unless the user has
// paused, scanning continues with one step in the current direction, also
// when a signal had stopped it.
func (a *Automaton) Turn() {
	if a.userPaused {
		a.Reset()
		return
	}
	a.resume()
}

// UserPause stops the scan on the current frequency. Until Resume, samples
// only open and close the audio.
func (a *Automaton) UserPause() {
	a.Reset()
	a.userPaused = true
	a.ctrl.SetScanning(false)
	a.setAudio(true)
}

// UserPaused reports whether the user has paused the scan.
func (a *Automaton) UserPaused() bool {
	return a.userPaused
}

// Reset clears the counters and the lock level.
func (a *Automaton) Reset() {
	a.browseTimer = 0
	a.lockTimer = 0
	a.debounce = 0
	a.ctrl.SetLockLevel(0)
}

// State derives the scan state from the counters.
func (a *Automaton) State() State {
	level := a.ctrl.LockLevel()
	switch {
	case a.userPaused:
		return StatePaused
	case level >= a.cfg.MaxLock:
		return StateLocked
	case level > 0:
		return StateVerifying
	default:
		return StateScanning
	}
}

// Timers returns the browse and lock timers, in samples.
func (a *Automaton) Timers() (browse, lock int) {
	return a.browseTimer, a.lockTimer
}

func (a *Automaton) gateAudio(power float64) {
	open := power > a.cfg.Squelch
	if open == a.audioOn {
		a.debounce = 0
		return
	}

	a.debounce++
	if a.debounce >= a.cfg.Debounce {
		a.debounce = 0
		a.setAudio(open)
	}
}

func (a *Automaton) setAudio(on bool) {
	if a.audio == nil || a.audioOn == on {
		a.audioOn = on
		return
	}

	var err error
	if on {
		err = a.audio.StartAudio()
	} else {
		err = a.audio.StopAudio()
	}
	if err != nil {
		a.logger.Error(fmt.Sprintf("error switching audio: %s", err.Error()), slog.Bool("on", on))
		return
	}
	a.audioOn = on
}
