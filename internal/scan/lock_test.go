package scan

import "testing"

type fakeControl struct {
	level     int
	scanning  bool
	direction Direction
	oneShots  []int
}

func newFakeControl() *fakeControl {
	return &fakeControl{scanning: true, direction: Forward}
}

func (c *fakeControl) LockLevel() int         { return c.level }
func (c *fakeControl) SetLockLevel(level int) { c.level = level }
func (c *fakeControl) Scanning() bool         { return c.scanning }
func (c *fakeControl) SetScanning(on bool)    { c.scanning = on }
func (c *fakeControl) Direction() Direction   { return c.direction }
func (c *fakeControl) StepOnce(step int)      { c.oneShots = append(c.oneShots, step) }

type fakeAudio struct {
	on      bool
	changes int
}

func (a *fakeAudio) StartAudio() error { a.on = true; a.changes++; return nil }
func (a *fakeAudio) StopAudio() error  { a.on = false; a.changes++; return nil }

func testLockConfig() LockConfig {
	return LockConfig{
		MaxLock:    10,
		SampleRate: 10,
		BrowseWait: 0,
		LockWait:   2,
		Squelch:    -30,
		Debounce:   3,
	}
}

func TestAutomaton_LocksAfterMaxLock(t *testing.T) {
	ctrl, audio := newFakeControl(), &fakeAudio{}
	a := NewAutomaton(ctrl, audio, testLockConfig())

	for i := 1; i < 10; i++ {
		if ev := a.OnSample(-10); ev != EventNone {
			t.Fatalf("Sample %d: unexpected event %d", i, ev)
		}
		if ctrl.level != i {
			t.Fatalf("Sample %d: expected lock level %d, got %d", i, i, ctrl.level)
		}
		if !ctrl.scanning {
			t.Fatalf("Sample %d: paused before verification", i)
		}
		if a.State() != StateVerifying {
			t.Fatalf("Sample %d: expected verifying, got %s", i, a.State())
		}
	}

	if ev := a.OnSample(-10); ev != EventLocked {
		t.Fatalf("Expected EventLocked on sample 10, got %d", ev)
	}
	if ctrl.level != 10 || ctrl.scanning {
		t.Errorf("Expected paused at level 10, got level %d scanning %v", ctrl.level, ctrl.scanning)
	}
	if !audio.on {
		t.Error("Expected audio to start on lock")
	}
	if a.State() != StateLocked {
		t.Errorf("Expected locked, got %s", a.State())
	}

	// staying on the signal neither re-locks nor resumes
	for i := 0; i < 50; i++ {
		if ev := a.OnSample(-10); ev != EventNone {
			t.Fatalf("Unexpected event %d while locked", ev)
		}
	}
	if ctrl.scanning {
		t.Error("Expected scan to stay paused")
	}
}

func TestAutomaton_SignalLostBeforeVerification(t *testing.T) {
	ctrl := newFakeControl()
	a := NewAutomaton(ctrl, nil, testLockConfig())

	for i := 0; i < 5; i++ {
		a.OnSample(-10)
	}
	a.OnSample(-30) // at squelch is below

	if ctrl.level != 0 {
		t.Errorf("Expected lock level reset, got %d", ctrl.level)
	}
	if !ctrl.scanning || len(ctrl.oneShots) != 0 {
		t.Errorf("Expected scanning without a one-shot step, got scanning %v steps %v", ctrl.scanning, ctrl.oneShots)
	}
}

func TestAutomaton_ResumesAfterLockWait(t *testing.T) {
	ctrl, audio := newFakeControl(), &fakeAudio{}
	ctrl.direction = Reverse
	a := NewAutomaton(ctrl, audio, testLockConfig())

	for i := 0; i < 10; i++ {
		a.OnSample(-10)
	}
	if ctrl.scanning {
		t.Fatal("Expected lock")
	}

	lockWait := 2 * 10
	for i := 1; i < lockWait; i++ {
		if ev := a.OnSample(-80); ev != EventNone {
			t.Fatalf("Weak sample %d: unexpected event %d", i, ev)
		}
	}

	if ev := a.OnSample(-80); ev != EventResumed {
		t.Fatalf("Expected EventResumed after %d weak samples, got %d", lockWait, ev)
	}
	if ctrl.level != 0 {
		t.Errorf("Expected lock level 0, got %d", ctrl.level)
	}
	if browse, lock := a.Timers(); browse != 0 || lock != 0 {
		t.Errorf("Expected timers reset, got browse %d lock %d", browse, lock)
	}
	if !ctrl.scanning {
		t.Error("Expected scanning to resume")
	}
	if len(ctrl.oneShots) != 1 || ctrl.oneShots[0] != -1 {
		t.Errorf("Expected one step in reverse, got %v", ctrl.oneShots)
	}
	if audio.on {
		t.Error("Expected audio to stop on resume")
	}
}

func TestAutomaton_WeakSampleResetsLockTimerOnSignal(t *testing.T) {
	ctrl := newFakeControl()
	a := NewAutomaton(ctrl, nil, testLockConfig())

	for i := 0; i < 10; i++ {
		a.OnSample(-10)
	}

	// an intermittent carrier keeps the lock
	for i := 0; i < 100; i++ {
		power := -80.0
		if i%10 == 0 {
			power = -10
		}
		if ev := a.OnSample(power); ev != EventNone {
			t.Fatalf("Sample %d: unexpected event %d", i, ev)
		}
	}
}

func TestAutomaton_BrowseWait(t *testing.T) {
	cfg := testLockConfig()
	cfg.BrowseWait = 1
	ctrl := newFakeControl()
	a := NewAutomaton(ctrl, nil, cfg)

	for i := 0; i < 10; i++ {
		a.OnSample(-10)
	}

	// the lock sample started the browse timer at 1
	for i := 1; i < 10; i++ {
		if ev := a.OnSample(-10); ev != EventNone {
			t.Fatalf("Sample %d: unexpected event %d", i, ev)
		}
	}

	if ev := a.OnSample(-10); ev != EventResumed {
		t.Fatalf("Expected browse timeout, got %d", ev)
	}
	if !ctrl.scanning || ctrl.level != 0 || len(ctrl.oneShots) != 1 {
		t.Errorf("Expected resume with one step, got scanning %v level %d steps %v", ctrl.scanning, ctrl.level, ctrl.oneShots)
	}
}

func TestAutomaton_UserPauseGatesAudio(t *testing.T) {
	ctrl, audio := newFakeControl(), &fakeAudio{}
	a := NewAutomaton(ctrl, audio, testLockConfig())

	a.OnSample(-10)
	a.UserPause()

	if ctrl.scanning || ctrl.level != 0 {
		t.Fatalf("Expected paused with level 0, got scanning %v level %d", ctrl.scanning, ctrl.level)
	}
	if a.State() != StatePaused || !audio.on {
		t.Fatalf("Expected paused state with audio, got %s audio %v", a.State(), audio.on)
	}

	// flicker shorter than the debounce is ignored
	a.OnSample(-80)
	a.OnSample(-80)
	a.OnSample(-10)
	if !audio.on {
		t.Error("Expected audio to stay on")
	}

	for i := 0; i < 3; i++ {
		a.OnSample(-80)
	}
	if audio.on {
		t.Error("Expected audio to mute after three weak samples")
	}

	for i := 0; i < 3; i++ {
		a.OnSample(-10)
	}
	if !audio.on {
		t.Error("Expected audio to unmute after three strong samples")
	}

	if ctrl.level != 0 || ctrl.scanning {
		t.Errorf("User pause must not touch the lock, got level %d scanning %v", ctrl.level, ctrl.scanning)
	}

	a.Resume()
	if a.UserPaused() || !ctrl.scanning || len(ctrl.oneShots) != 1 {
		t.Errorf("Expected resume, got paused %v scanning %v steps %v", a.UserPaused(), ctrl.scanning, ctrl.oneShots)
	}
}

func TestLockConfig_Validate(t *testing.T) {
	if err := DefaultLockConfig().Validate(); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}

	bad := DefaultLockConfig()
	bad.LockWait = -1
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for negative lock wait")
	}
}

func TestAutomaton_Step(t *testing.T) {
	tests := []struct {
		name         string
		userPause    bool
		wantScanning bool
	}{
		{name: "locked", userPause: false, wantScanning: true},
		{name: "user paused", userPause: true, wantScanning: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, audio := newFakeControl(), &fakeAudio{}
			a := NewAutomaton(ctrl, audio, testLockConfig())

			if tt.userPause {
				a.UserPause()
			} else {
				for i := 0; i < 10; i++ {
					a.OnSample(-10)
				}
			}
			if ctrl.scanning {
				t.Fatal("Expected the scan to be paused")
			}

			a.Step(-1)

			if len(ctrl.oneShots) != 1 || ctrl.oneShots[0] != -1 {
				t.Errorf("Expected one step of -1, got %v", ctrl.oneShots)
			}
			if ctrl.level != 0 {
				t.Errorf("Expected lock level reset, got %d", ctrl.level)
			}
			if ctrl.scanning != tt.wantScanning {
				t.Errorf("Expected scanning %v, got %v", tt.wantScanning, ctrl.scanning)
			}
			if audio.on == tt.wantScanning {
				t.Errorf("Expected audio on %v, got %v", !tt.wantScanning, audio.on)
			}
			if a.UserPaused() != tt.userPause {
				t.Errorf("Expected user pause %v, got %v", tt.userPause, a.UserPaused())
			}
		})
	}
}

func TestAutomaton_Turn(t *testing.T) {
	tests := []struct {
		name         string
		lock         bool
		userPause    bool
		wantScanning bool
		wantOneShots []int
	}{
		{name: "locked", lock: true, wantScanning: true, wantOneShots: []int{-1}},
		{name: "scanning", wantScanning: true, wantOneShots: []int{-1}},
		{name: "user paused", userPause: true, wantScanning: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, audio := newFakeControl(), &fakeAudio{}
			a := NewAutomaton(ctrl, audio, testLockConfig())

			if tt.lock {
				for i := 0; i < 10; i++ {
					a.OnSample(-10)
				}
				if a.State() != StateLocked {
					t.Fatalf("Expected locked, got %s", a.State())
				}
			}
			if tt.userPause {
				a.UserPause()
			}

			ctrl.direction = Reverse
			a.Turn()

			if ctrl.level != 0 {
				t.Errorf("Expected lock level reset, got %d", ctrl.level)
			}
			if ctrl.scanning != tt.wantScanning {
				t.Errorf("Expected scanning %v, got %v", tt.wantScanning, ctrl.scanning)
			}
			if len(ctrl.oneShots) != len(tt.wantOneShots) || (len(tt.wantOneShots) == 1 && ctrl.oneShots[0] != tt.wantOneShots[0]) {
				t.Errorf("Expected one-shot steps %v, got %v", tt.wantOneShots, ctrl.oneShots)
			}
			if tt.wantScanning && audio.on {
				t.Error("Expected audio off after turning")
			}

			// weak samples afterwards neither step again nor stop the scan
			for i := 0; i < 50; i++ {
				if ev := a.OnSample(-80); ev != EventNone {
					t.Fatalf("Unexpected event %d on a weak sample", ev)
				}
			}
			if ctrl.scanning != tt.wantScanning {
				t.Errorf("Expected scanning %v after weak samples, got %v", tt.wantScanning, ctrl.scanning)
			}
			if len(ctrl.oneShots) != len(tt.wantOneShots) {
				t.Errorf("Expected no further steps, got %v", ctrl.oneShots)
			}
		})
	}
}
