package fence

import (
	"errors"
	"testing"
	"time"
)

func TestNoFenceInvalid(t *testing.T) {
	if NoFence.IsValid() {
		t.Error("NoFence.IsValid() = true, want false")
	}
	if err := NoFence.Wait(time.Millisecond); err != nil {
		t.Errorf("NoFence.Wait() = %v, want nil", err)
	}
	if err := NoFence.WaitForever(); err != nil {
		t.Errorf("NoFence.WaitForever() = %v, want nil", err)
	}
	if NoFence.Signaled() {
		t.Error("NoFence.Signaled() = true, want false")
	}
	if _, ok := NoFence.SignalTime(); ok {
		t.Error("NoFence.SignalTime() ok = true, want false")
	}
}

func TestNilFence(t *testing.T) {
	var f *Fence
	if f.IsValid() {
		t.Error("nil fence IsValid() = true, want false")
	}
	if err := f.Wait(time.Millisecond); err != nil {
		t.Errorf("nil fence Wait() = %v, want nil", err)
	}
	if got := f.Dup(); got.IsValid() {
		t.Error("nil fence Dup() is valid, want invalid")
	}
}

func TestSignalAndWait(t *testing.T) {
	f, signal := New()
	if !f.IsValid() {
		t.Fatal("new fence is invalid")
	}
	if f.Signaled() {
		t.Fatal("new fence already signaled")
	}

	before := time.Now()
	signal()
	if !f.Signaled() {
		t.Fatal("Signaled() = false after signal")
	}
	if err := f.Wait(0); err != nil {
		t.Errorf("Wait(0) after signal = %v, want nil", err)
	}
	at, ok := f.SignalTime()
	if !ok {
		t.Fatal("SignalTime() ok = false after signal")
	}
	if at.Before(before) || at.After(time.Now()) {
		t.Errorf("SignalTime() = %v, outside signal window", at)
	}
}

func TestSignalIdempotent(t *testing.T) {
	f, signal := New()
	signal()
	at1, _ := f.SignalTime()
	signal()
	at2, _ := f.SignalTime()
	if !at1.Equal(at2) {
		t.Errorf("second signal changed the time: %v != %v", at1, at2)
	}
}

func TestWaitTimeout(t *testing.T) {
	f, _ := New()
	err := f.Wait(5 * time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Wait on pending fence = %v, want ErrTimeout", err)
	}
}

func TestWaitBlocksUntilSignal(t *testing.T) {
	f, signal := New()
	go func() {
		time.Sleep(10 * time.Millisecond)
		signal()
	}()
	if err := f.Wait(time.Second); err != nil {
		t.Errorf("Wait() = %v, want nil", err)
	}
}

func TestDupSharesEvent(t *testing.T) {
	f, signal := New()
	d := f.Dup()
	if !d.IsValid() {
		t.Fatal("dup is invalid")
	}
	signal()
	if !d.Signaled() {
		t.Error("dup not signaled after original signal")
	}
	at1, _ := f.SignalTime()
	at2, _ := d.SignalTime()
	if !at1.Equal(at2) {
		t.Errorf("dup signal time %v != original %v", at2, at1)
	}
}

func TestMerge(t *testing.T) {
	a, signalA := New()
	b, signalB := New()
	m := Merge(a, b, NoFence, nil)
	if !m.IsValid() {
		t.Fatal("merged fence invalid")
	}

	signalA()
	if m.Signaled() {
		t.Error("merged fence signaled with one input pending")
	}
	signalB()
	if !m.Signaled() {
		t.Error("merged fence not signaled with all inputs signaled")
	}

	if got := Merge(NoFence, nil); got.IsValid() {
		t.Error("merge of invalid fences is valid, want invalid")
	}
}

func TestTimeSnapshot(t *testing.T) {
	f, signal := New()
	ft := NewTime(f)

	if _, ok := ft.Time(); ok {
		t.Fatal("Time() known before signal")
	}
	signal()
	at, ok := ft.Time()
	if !ok {
		t.Fatal("Time() unknown after signal")
	}
	// Cached: the same value comes back without consulting the fence.
	at2, ok := ft.Time()
	if !ok || !at2.Equal(at) {
		t.Errorf("cached Time() = (%v, %v), want (%v, true)", at2, ok, at)
	}
}

func TestTimeOfInvalidFence(t *testing.T) {
	ft := NewTime(NoFence)
	if _, ok := ft.Time(); ok {
		t.Error("Time() of NoFence known, want unknown")
	}
}
