package viewport

import (
	"testing"
	"time"
)

func TestEaseOut(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1, 0}, {0, 0}, {0.5, 0.75}, {1, 1}, {2, 1},
	}
	for _, tt := range tests {
		if got := EaseOut(tt.in); got != tt.want {
			t.Errorf("EaseOut(%v): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCounterValue_Target42(t *testing.T) {
	if got := CounterValue(42, 0, CounterDuration); got != 0 {
		t.Fatalf("t=0: got %d, want 0", got)
	}
	if got := CounterValue(42, CounterDuration, CounterDuration); got != 42 {
		t.Fatalf("t=duration: got %d, want 42", got)
	}
	if got := CounterValue(42, 2*CounterDuration, CounterDuration); got != 42 {
		t.Fatalf("t>duration: got %d, want 42", got)
	}

	prev := 0
	for ms := 0; ms <= 800; ms++ {
		v := CounterValue(42, time.Duration(ms)*time.Millisecond, CounterDuration)
		if v < prev {
			t.Fatalf("not monotonic at %dms: %d after %d", ms, v, prev)
		}
		if v > 42 {
			t.Fatalf("overshoot at %dms: %d", ms, v)
		}
		prev = v
	}
}

func TestCounter_AnimatesAndSnaps(t *testing.T) {
	frames := NewFrames(0)
	var shown []int
	done := 0
	c := &Counter{
		Target: 42,
		Frames: frames,
		Set:    func(v int) { shown = append(shown, v) },
		Done:   func() { done++ },
	}

	c.Enter()
	if len(shown) != 1 || shown[0] != 0 {
		t.Fatalf("initial: got %v, want [0]", shown)
	}

	origin := time.Unix(1700000000, 0)
	for ms := 0; ms <= 1000 && frames.Pending() > 0; ms += 16 {
		frames.Tick(origin.Add(time.Duration(ms) * time.Millisecond))
	}

	if frames.Pending() != 0 {
		t.Fatal("animation still requesting frames after its duration")
	}
	if last := shown[len(shown)-1]; last != 42 {
		t.Fatalf("final value: got %d, want 42", last)
	}
	if done != 1 {
		t.Errorf("Done calls: got %d, want 1", done)
	}
	for i := 1; i < len(shown); i++ {
		if shown[i] < shown[i-1] {
			t.Fatalf("displayed values decreased: %v", shown)
		}
	}
	if len(shown) < 10 {
		t.Errorf("expected intermediate frames, got %v", shown)
	}
}

func TestCounter_SettleHasNoFrames(t *testing.T) {
	frames := NewFrames(0)
	var shown []int
	c := &Counter{Target: 7, Frames: frames, Set: func(v int) { shown = append(shown, v) }}

	c.Settle()

	if len(shown) != 1 || shown[0] != 7 {
		t.Fatalf("shown: got %v, want [7]", shown)
	}
	if frames.Pending() != 0 {
		t.Errorf("frame requests: got %d, want 0", frames.Pending())
	}
}

func TestFrames_DefersRequestsMadeDuringTick(t *testing.T) {
	f := NewFrames(0)
	var order []string
	f.RequestFrame(func(time.Time) {
		order = append(order, "first")
		f.RequestFrame(func(time.Time) { order = append(order, "second") })
	})

	f.Tick(time.Now())
	if len(order) != 1 {
		t.Fatalf("after first tick: got %v, want [first]", order)
	}
	f.Tick(time.Now())
	if len(order) != 2 || order[1] != "second" {
		t.Fatalf("after second tick: got %v", order)
	}
}
