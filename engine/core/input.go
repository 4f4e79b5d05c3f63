package core

// Key code definitions
type KeyCode uint16

const (
	KEY_UNKNOWN KeyCode = 0x00
	KEY_ENTER   KeyCode = 0x0D
	KEY_ESCAPE  KeyCode = 0x1B
	KEY_SPACE   KeyCode = 0x20
	KEY_LEFT    KeyCode = 0x25
	KEY_UP      KeyCode = 0x26
	KEY_RIGHT   KeyCode = 0x27
	KEY_DOWN    KeyCode = 0x28
	KEY_F       KeyCode = 0x46
	KEY_P       KeyCode = 0x50
	KEY_R       KeyCode = 0x52
	KEY_W       KeyCode = 0x57
)

// Keyboard state structure
type KeyboardState struct {
	Keys [256]bool
}

// Input holds the current and previous keyboard states.
type Input struct {
	bus              *EventBus
	keyboardCurrent  KeyboardState
	keyboardPrevious KeyboardState
}

func NewInput(bus *EventBus) *Input {
	return &Input{bus: bus}
}

// Update copies current states to previous states. Call once at the end of a frame.
func (in *Input) Update(deltaTime float64) {
	in.keyboardPrevious = in.keyboardCurrent
}

func (in *Input) IsKeyDown(key KeyCode) bool {
	return in.keyboardCurrent.Keys[key]
}

func (in *Input) IsKeyUp(key KeyCode) bool {
	return !in.keyboardCurrent.Keys[key]
}

func (in *Input) WasKeyDown(key KeyCode) bool {
	return in.keyboardPrevious.Keys[key]
}

func (in *Input) WasKeyUp(key KeyCode) bool {
	return !in.keyboardPrevious.Keys[key]
}

// ProcessKey records a key transition and fires a key event when the state changed.
func (in *Input) ProcessKey(key KeyCode, pressed bool) {
	// Only handle this if the state actually changed.
	if in.keyboardCurrent.Keys[key] == pressed {
		return
	}
	in.keyboardCurrent.Keys[key] = pressed

	code := EVENT_CODE_KEY_RELEASED
	if pressed {
		code = EVENT_CODE_KEY_PRESSED
	}

	// Fire off an event for immediate processing.
	if in.bus != nil {
		in.bus.Fire(EventContext{
			Type: code,
			Data: &KeyEvent{KeyCode: key},
		})
	}
}
