package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/spaghettifunk/anima-tessellation/engine/config"
	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

func (s Stage) String() string {
	switch s {
	case EngineStageBooting:
		return "booting"
	case EngineStageBootComplete:
		return "boot complete"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting down"
	}
	return "uninitialized"
}

// how long a minimised window waits for events before checking the context
const suspendedWaitSeconds = 0.1

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	config        *config.Config
	isRunning     bool
	isSuspended   bool
	systemManager *systems.SystemManager
	width         uint32
	height        uint32
	clock         *core.Clock
	metrics       *core.Metrics
	lastTime      float64
	frameCount    uint64
}

func New(g *Game, cfg *config.Config) (*Engine, error) {
	if g == nil || cfg == nil {
		return nil, fmt.Errorf("engine needs a game and a config: %w", core.ErrInvalidParameter)
	}
	if g.FnInitialize == nil || g.FnUpdate == nil || g.FnRender == nil {
		return nil, fmt.Errorf("game is missing initialize, update or render: %w", core.ErrInvalidParameter)
	}
	e := &Engine{
		currentStage: EngineStageBooting,
		gameInstance: g,
		config:       cfg,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		width:        cfg.Application.Width,
		height:       cfg.Application.Height,
	}

	sm, err := systems.NewSystemManager(cfg, g.ConfigPath)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	e.systemManager = sm
	e.currentStage = EngineStageBootComplete
	return e, nil
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Initialize(ctx context.Context) error {
	if e.currentStage != EngineStageBootComplete {
		return fmt.Errorf("initialize in stage %s: %w", e.currentStage, core.ErrInvalidParameter)
	}
	e.currentStage = EngineStageInitializing

	bus := e.systemManager.Bus
	bus.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	bus.Register(core.EVENT_CODE_RESIZED, e, e.onResized)

	if err := e.systemManager.Initialize(); err != nil {
		return err
	}
	e.gameInstance.SystemManager = e.systemManager

	if err := e.gameInstance.FnInitialize(ctx); err != nil {
		return err
	}

	e.width, e.height = e.systemManager.FramebufferSize()
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}
	e.currentStage = EngineStageInitialized
	return nil
}

// Run drives the frame loop until the application quits, ctx is cancelled or,
// when headless, the configured number of frames has been rendered.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("run in stage %s: %w", e.currentStage, core.ErrInvalidParameter)
	}
	e.currentStage = EngineStageRunning
	e.isRunning = true

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	headless := e.config.Renderer.Headless
	var targetFrameSeconds float64
	if fps := e.config.Application.TargetFPS; fps > 0 && !headless {
		targetFrameSeconds = 1.0 / float64(fps)
	}
	platform := e.systemManager.Platform

	for e.isRunning {
		if err := ctx.Err(); err != nil {
			core.LogInfo("run cancelled: %s", err)
			break
		}
		if platform != nil {
			platform.PumpMessages()
		}
		if e.isSuspended {
			if platform != nil {
				platform.WaitEvents(suspendedWaitSeconds)
			}
			continue
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStartTime := time.Now()

		e.systemManager.Update()

		if err := e.gameInstance.FnUpdate(delta); err != nil {
			return fmt.Errorf("game update: %w", err)
		}
		// Call the game's render routine.
		if err := e.gameInstance.FnRender(delta); err != nil {
			return fmt.Errorf("game render: %w", err)
		}

		// Figure out how long the frame took and, if below the target, give
		// the rest back to the OS.
		frameElapsedTime := time.Since(frameStartTime).Seconds()
		e.metrics.Update(frameElapsedTime)
		if remaining := targetFrameSeconds - frameElapsedTime; remaining > 0 {
			time.Sleep(time.Duration(remaining * float64(time.Second)))
		}

		// NOTE: Input update/state copying should always be handled
		// after any input should be recorded; I.E. before this line.
		e.systemManager.Input.Update(delta)

		e.lastTime = currentTime
		e.frameCount++
		if e.frameCount%300 == 0 {
			fps, ms := e.metrics.Frame()
			core.LogDebug("frame %d: %.0f fps, %.2f ms", e.frameCount, fps, ms)
		}
		if headless && e.frameCount >= uint64(e.config.Renderer.Frames) {
			e.isRunning = false
		}
	}
	e.isRunning = false
	return nil
}

// FrameCount is the number of frames run so far.
func (e *Engine) FrameCount() uint64 {
	return e.frameCount
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown || e.currentStage == EngineStageUninitialized {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning = false

	var firstErr error
	if e.gameInstance.FnShutdown != nil && e.gameInstance.SystemManager != nil {
		firstErr = e.gameInstance.FnShutdown()
	}
	if err := e.systemManager.Shutdown(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// GetFramebufferSize returns the width and height (in this order)
// of the application framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onEvent(context core.EventContext) bool {
	if context.Type == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
	}
	// other listeners may want to know too
	return false
}

func (e *Engine) onResized(context core.EventContext) bool {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	width, height := se.WindowWidth, se.WindowHeight

	// Check if different. If so, trigger a resize event.
	if width == e.width && height == e.height {
		return false
	}
	e.width, e.height = width, height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError("resize to %dx%d failed: %s", width, height, err)
		}
	}
	return true
}
