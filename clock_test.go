package pc

import "testing"

type fakeSubsystem struct {
	horizon    int64
	iterCalled []int64
}

func (f *fakeSubsystem) TightenHorizon() int64 { return f.horizon }
func (f *fakeSubsystem) EndIter(cycles int64)  { f.iterCalled = append(f.iterCalled, cycles) }

func TestClockBusRespectsNarrowestHorizon(t *testing.T) {
	bus := NewClockBus()
	a := &fakeSubsystem{horizon: 100}
	b := &fakeSubsystem{horizon: 7}
	bus.Register(a)
	bus.Register(b)

	var stepped []int64
	bus.Iter(50, func(n int64) int64 {
		stepped = append(stepped, n)
		return n
	})

	if stepped[0] != 7 {
		t.Fatalf("expected first slice to be clamped to 7, got %d", stepped[0])
	}
	if bus.ClocksThisIter() != 50 {
		t.Fatalf("expected full budget consumed, got %d", bus.ClocksThisIter())
	}
}

func TestClockBusStopsOnZeroConsumption(t *testing.T) {
	bus := NewClockBus()
	calls := 0
	bus.Iter(1000, func(n int64) int64 {
		calls++
		return 0
	})
	if calls != 1 {
		t.Fatalf("expected exactly one step call before giving up, got %d", calls)
	}
}
