package systems

import (
	"fmt"
	"os"

	"github.com/spaghettifunk/anima-tessellation/engine/assets"
	"github.com/spaghettifunk/anima-tessellation/engine/config"
	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/platform"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/null"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/vulkan"
)

const (
	jobWorkers  = 2
	jobCapacity = 16
)

// SystemManager owns the engine services the game is handed. Nothing in it is
// global: two managers can coexist.
type SystemManager struct {
	Bus          *core.EventBus
	Input        *core.Input
	Platform     *platform.Platform
	AssetManager *assets.AssetManager
	JobSystem    *JobSystem
	Backend      renderer.RendererBackend

	config     *config.Config
	configPath string
}

// NewSystemManager builds the services for cfg. configPath, when set, is
// watched for changes alongside the asset directory.
func NewSystemManager(cfg *config.Config, configPath string) (*SystemManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("system manager without a config: %w", core.ErrInvalidParameter)
	}
	bus := core.NewEventBus()
	input := core.NewInput(bus)

	am, err := assets.NewAssetManager(bus)
	if err != nil {
		return nil, err
	}
	js, err := NewJobSystem(jobWorkers, jobCapacity)
	if err != nil {
		_ = am.Shutdown()
		return nil, err
	}

	sm := &SystemManager{
		Bus:          bus,
		Input:        input,
		AssetManager: am,
		JobSystem:    js,
		config:       cfg,
		configPath:   configPath,
	}
	if !cfg.Renderer.Headless {
		sm.Platform = platform.New(bus, input)
	}
	return sm, nil
}

// Initialize opens the window, starts the asset watcher and selects the
// renderer backend. The backend itself is initialised by the renderer.
func (sm *SystemManager) Initialize() error {
	app := sm.config.Application
	if sm.Platform != nil {
		if err := sm.Platform.Startup(app.Name, app.X, app.Y, app.Width, app.Height); err != nil {
			return err
		}
	}

	var extra []string
	if sm.configPath != "" {
		if _, err := os.Stat(sm.configPath); err == nil {
			extra = append(extra, sm.configPath)
		}
	}
	if err := sm.AssetManager.Initialize(sm.config.Renderer.AssetDir, extra...); err != nil {
		return err
	}

	backend, err := sm.newBackend()
	if err != nil {
		return err
	}
	sm.Backend = backend
	return nil
}

func (sm *SystemManager) newBackend() (renderer.RendererBackend, error) {
	switch sm.config.Renderer.Backend {
	case "vulkan":
		// a nil *glfw.Window must not reach the backend as a non-nil interface
		var window vulkan.WindowSurface
		if sm.Platform != nil {
			window = sm.Platform.Window
		}
		return vulkan.New(window), nil
	case "null":
		return null.New(), nil
	}
	return nil, fmt.Errorf("backend %q: %w", sm.config.Renderer.Backend, core.ErrUnknownBackend)
}

// Update reports asset changes and finished jobs. It runs once a frame on the
// main goroutine so listeners never race the frame loop.
func (sm *SystemManager) Update() {
	sm.AssetManager.Update()
	sm.JobSystem.Update()
}

// FramebufferSize is the drawable size, or the configured size when headless.
func (sm *SystemManager) FramebufferSize() (uint32, uint32) {
	if sm.Platform == nil || sm.Platform.Window == nil {
		return sm.config.Application.Width, sm.config.Application.Height
	}
	return sm.Platform.FramebufferSize()
}

func (sm *SystemManager) Shutdown() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	keep(sm.JobSystem.Shutdown())
	keep(sm.AssetManager.Shutdown())
	if sm.Platform != nil {
		keep(sm.Platform.Shutdown())
	}
	sm.Bus.Shutdown()
	return firstErr
}
