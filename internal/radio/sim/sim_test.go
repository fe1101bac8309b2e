package sim

import (
	"errors"
	"testing"
	"time"
)

func TestReceiver_Samples(t *testing.T) {
	r := New(WithRate(100), WithCarrier(146_520_000, -20), WithBandwidth(5_000))
	defer r.Close()

	if err := r.SetTargetFrequency(146_522_000); err != nil {
		t.Fatalf("SetTargetFrequency failed: %v", err)
	}
	if err := r.Enable(); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}

	select {
	case s := <-r.Samples():
		if s.Power != -20 {
			t.Errorf("Expected carrier power -20, got %f", s.Power)
		}
		if s.Frequency != 146_522_000 {
			t.Errorf("Expected tuned frequency in sample, got %d", s.Frequency)
		}
	case <-time.After(time.Second):
		t.Fatal("No sample received")
	}

	r.RemoveCarrier(146_520_000)
	deadline := time.After(time.Second)
	for {
		select {
		case s := <-r.Samples():
			if s.Power == DefaultNoiseFloor {
				return
			}
		case <-deadline:
			t.Fatal("Expected noise floor after the carrier was removed")
		}
	}
}

func TestReceiver_DisabledIsSilent(t *testing.T) {
	r := New(WithRate(100))
	defer r.Close()

	select {
	case s := <-r.Samples():
		t.Fatalf("Unexpected sample while disabled: %+v", s)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReceiver_Close(t *testing.T) {
	r := New(WithRate(100))
	_ = r.Enable()
	_ = r.StartAudio()

	if !r.AudioOn() {
		t.Error("Expected audio on")
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	for range r.Samples() {
		// drain until closed
	}

	if err := r.SetTargetFrequency(1); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
}
