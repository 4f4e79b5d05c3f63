package core

import "testing"

func TestEventBusFireStopsAtHandled(t *testing.T) {
	bus := NewEventBus()

	var calls []string
	first, second := "first", "second"
	bus.Register(EVENT_CODE_FILL_MODE_TOGGLED, first, func(EventContext) bool {
		calls = append(calls, first)
		return true
	})
	bus.Register(EVENT_CODE_FILL_MODE_TOGGLED, second, func(EventContext) bool {
		calls = append(calls, second)
		return false
	})

	if !bus.Fire(EventContext{Type: EVENT_CODE_FILL_MODE_TOGGLED}) {
		t.Fatalf("Fire = false, want true")
	}
	if len(calls) != 1 || calls[0] != first {
		t.Errorf("calls = %v, want [first]", calls)
	}
}

func TestEventBusRegisterRejectsDuplicateListener(t *testing.T) {
	bus := NewEventBus()
	listener := &struct{}{}
	noop := func(EventContext) bool { return false }

	if !bus.Register(EVENT_CODE_RESIZED, listener, noop) {
		t.Fatalf("first Register = false, want true")
	}
	if bus.Register(EVENT_CODE_RESIZED, listener, noop) {
		t.Errorf("duplicate Register = true, want false")
	}
}

func TestEventBusUnregister(t *testing.T) {
	bus := NewEventBus()
	a, b := &struct{ n int }{1}, &struct{ n int }{2}

	var got []int
	bus.Register(EVENT_CODE_CAPTURE_REQUESTED, a, func(EventContext) bool { got = append(got, 1); return false })
	bus.Register(EVENT_CODE_CAPTURE_REQUESTED, b, func(EventContext) bool { got = append(got, 2); return false })

	if !bus.Unregister(EVENT_CODE_CAPTURE_REQUESTED, a) {
		t.Fatalf("Unregister = false, want true")
	}
	if bus.Unregister(EVENT_CODE_CAPTURE_REQUESTED, a) {
		t.Errorf("second Unregister = true, want false")
	}

	bus.Fire(EventContext{Type: EVENT_CODE_CAPTURE_REQUESTED})
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("got = %v, want [2]", got)
	}
}

func TestInputProcessKeyFiresOnTransition(t *testing.T) {
	bus := NewEventBus()
	in := NewInput(bus)

	var pressed, released int
	bus.Register(EVENT_CODE_KEY_PRESSED, "p", func(ctx EventContext) bool {
		if ke, ok := ctx.Data.(*KeyEvent); ok && ke.KeyCode == KEY_SPACE {
			pressed++
		}
		return false
	})
	bus.Register(EVENT_CODE_KEY_RELEASED, "r", func(EventContext) bool {
		released++
		return false
	})

	in.ProcessKey(KEY_SPACE, true)
	in.ProcessKey(KEY_SPACE, true)
	if pressed != 1 {
		t.Errorf("pressed = %d, want 1", pressed)
	}
	if !in.IsKeyDown(KEY_SPACE) || in.WasKeyDown(KEY_SPACE) {
		t.Errorf("key state before Update is wrong")
	}

	in.Update(0)
	if !in.WasKeyDown(KEY_SPACE) {
		t.Errorf("WasKeyDown after Update = false, want true")
	}

	in.ProcessKey(KEY_SPACE, false)
	if released != 1 {
		t.Errorf("released = %d, want 1", released)
	}
}
