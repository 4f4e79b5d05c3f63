package platform

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/anima-tessellation/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

type Platform struct {
	Window *glfw.Window

	bus       *core.EventBus
	input     *core.Input
	startTime float64
}

func New(bus *core.EventBus, input *core.Input) *Platform {
	return &Platform{
		bus:   bus,
		input: input,
	}
}

func (p *Platform) Startup(applicationName string, x, y int32, width, height uint32) error {
	if err := glfw.Init(); err != nil {
		return err
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return core.ErrNoSuitableDevice
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		glfw.Terminate()
		return err
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetCloseCallback(p.closeCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	p.startTime = glfw.GetTime()

	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// PumpMessages runs the pending window callbacks.
func (p *Platform) PumpMessages() {
	glfw.PollEvents()
}

// WaitEvents blocks until an event arrives or timeout seconds pass. It keeps
// a minimised window responsive without spinning.
func (p *Platform) WaitEvents(timeout float64) {
	glfw.WaitEventsTimeout(timeout)
}

func (p *Platform) SetTitle(title string) {
	if p.Window != nil {
		p.Window.SetTitle(title)
	}
}

// FramebufferSize is the drawable size in pixels, which differs from the
// window size on high density displays.
func (p *Platform) FramebufferSize() (uint32, uint32) {
	w, h := p.Window.GetFramebufferSize()
	return uint32(w), uint32(h)
}

// Uptime is the number of seconds since Startup.
func (p *Platform) Uptime() float64 {
	return glfw.GetTime() - p.startTime
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action == glfw.Repeat {
		return
	}
	code := TranslateKey(key)
	if code == core.KEY_UNKNOWN {
		return
	}
	p.input.ProcessKey(code, action == glfw.Press)
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	p.bus.Fire(core.EventContext{
		Type: core.EVENT_CODE_RESIZED,
		Data: &core.SystemEvent{
			WindowWidth:  uint32(width),
			WindowHeight: uint32(height),
		},
	})
}

func (p *Platform) closeCallback(w *glfw.Window) {
	p.bus.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
}

// TranslateKey maps the glfw keys the demo listens to.
func TranslateKey(key glfw.Key) core.KeyCode {
	switch key {
	case glfw.KeyEnter:
		return core.KEY_ENTER
	case glfw.KeyEscape:
		return core.KEY_ESCAPE
	case glfw.KeySpace:
		return core.KEY_SPACE
	case glfw.KeyLeft:
		return core.KEY_LEFT
	case glfw.KeyUp:
		return core.KEY_UP
	case glfw.KeyRight:
		return core.KEY_RIGHT
	case glfw.KeyDown:
		return core.KEY_DOWN
	case glfw.KeyF:
		return core.KEY_F
	case glfw.KeyP:
		return core.KEY_P
	case glfw.KeyR:
		return core.KEY_R
	case glfw.KeyW:
		return core.KEY_W
	}
	return core.KEY_UNKNOWN
}
