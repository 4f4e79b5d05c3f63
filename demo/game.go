// Package demo is the tessellation demo game: one patch set drawn through the
// GPU tessellator, with keyboard control over the factor and fill mode.
package demo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spaghettifunk/anima-tessellation/engine"
	"github.com/spaghettifunk/anima-tessellation/engine/config"
	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/capture"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-tessellation/engine/resources"
	"github.com/spaghettifunk/anima-tessellation/engine/scene"
	"github.com/spaghettifunk/anima-tessellation/engine/systems"
	"github.com/spaghettifunk/anima-tessellation/engine/tessellation"
)

// largest texture edge uploaded, bigger images are resampled down
const maxTextureExtent = 4096

type TessellationGame struct {
	*engine.Game
}

type gameState struct {
	config *config.Config

	renderer *renderer.Renderer
	scene    *scene.Scene
	font     *resources.BitmapFontResourceData

	captureRequested bool
	reloadRequested  bool
}

// NewTessellationGame builds the demo for cfg. configPath is reloaded when
// it changes on disk or R is pressed; it may be empty.
func NewTessellationGame(cfg *config.Config, configPath string) (*TessellationGame, error) {
	if cfg == nil {
		return nil, fmt.Errorf("demo without a config: %w", core.ErrInvalidParameter)
	}
	g := &TessellationGame{
		Game: &engine.Game{
			ConfigPath: configPath,
			State:      &gameState{config: cfg},
		},
	}
	g.FnInitialize = g.Initialize
	g.FnUpdate = g.Update
	g.FnRender = g.Render
	g.FnOnResize = g.OnResize
	g.FnShutdown = g.Shutdown
	return g, nil
}

func (g *TessellationGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TessellationGame) Initialize(ctx context.Context) error {
	core.LogDebug("TessellationGame Initialize fn....")

	sm := g.SystemManager
	if sm == nil {
		return fmt.Errorf("the engine is not yet initialized with all the system managers")
	}
	state := g.state()
	cfg := state.config

	texture, err := g.loadTexture(cfg)
	if err != nil {
		return err
	}
	if cfg.Renderer.CaptureFont != "" {
		res, err := sm.AssetManager.LoadAsset(cfg.Renderer.CaptureFont, nil)
		if err != nil {
			core.LogWarn("capture font %s: %s, using the built-in face", cfg.Renderer.CaptureFont, err)
		} else {
			state.font, _ = res.Data.(*resources.BitmapFontResourceData)
		}
	}

	cullMode, err := metadata.ParseFaceCullMode(cfg.Renderer.CullMode)
	if err != nil {
		return err
	}
	width, height := sm.FramebufferSize()
	state.renderer = renderer.New(sm.Backend)
	if cfg.Renderer.Wireframe {
		state.renderer.SetFillMode(metadata.FillModeWireframe)
	} else {
		state.renderer.SetFillMode(metadata.FillModeSolid)
	}
	if err := state.renderer.Initialize(ctx, &metadata.RendererBackendConfig{
		ApplicationName:       cfg.Application.Name,
		Width:                 width,
		Height:                height,
		Headless:              cfg.Renderer.Headless,
		Validation:            cfg.Renderer.Validation,
		CullMode:              cullMode,
		ClearColor:            cfg.Renderer.ClearColor,
		MaxTessellationFactor: cfg.Renderer.MaxTessellationFactor,
		ShaderDir:             cfg.Renderer.ShaderDir,
		Texture:               texture,
		Assets:                sm.AssetManager,
	}); err != nil {
		return err
	}

	state.scene, err = scene.New(state.renderer, sm.Bus, cfg.Scene, cfg.Renderer.MaxTessellationFactor)
	if err != nil {
		return err
	}
	if err := state.scene.Generate(); err != nil {
		return err
	}

	sm.Bus.Register(core.EVENT_CODE_KEY_PRESSED, g, g.onKey)
	sm.Bus.Register(core.EVENT_CODE_SCENE_CONFIG_CHANGED, g, g.onConfigChanged)
	sm.Bus.Register(core.EVENT_CODE_CAPTURE_REQUESTED, g, g.onCaptureRequested)
	sm.Bus.Register(core.EVENT_CODE_TESSELLATION_FACTOR_CHANGED, g, g.onSceneChanged)
	sm.Bus.Register(core.EVENT_CODE_FILL_MODE_TOGGLED, g, g.onSceneChanged)
	g.updateTitle()
	return nil
}

// loadTexture returns the grass texture. Only the quad scene samples it, so
// for triangles a missing file falls back to the backend's white texture.
func (g *TessellationGame) loadTexture(cfg *config.Config) (*resources.ImageResourceData, error) {
	if cfg.Renderer.Texture == "" {
		return nil, nil
	}
	res, err := g.SystemManager.AssetManager.LoadAsset(cfg.Renderer.Texture, &resources.ImageResourceParams{MaxExtent: maxTextureExtent})
	if err != nil {
		if cfg.PatchType() == tessellation.PatchTypeQuad {
			return nil, err
		}
		core.LogWarn("texture %s: %s, the triangle scene is untextured", cfg.Renderer.Texture, err)
		return nil, nil
	}
	data, ok := res.Data.(*resources.ImageResourceData)
	if !ok {
		return nil, fmt.Errorf("texture %s: %w", cfg.Renderer.Texture, core.ErrTextureNotFound)
	}
	return data, nil
}

func (g *TessellationGame) Update(deltaTime float64) error {
	state := g.state()
	if state.reloadRequested {
		state.reloadRequested = false
		g.reload()
	}
	return nil
}

func (g *TessellationGame) Render(deltaTime float64) error {
	state := g.state()
	if err := state.scene.Draw(deltaTime); err != nil {
		return err
	}

	cfg := state.config.Renderer
	lastHeadlessFrame := cfg.Headless && state.renderer.FrameNumber() == uint64(cfg.Frames)
	if state.captureRequested || lastHeadlessFrame {
		state.captureRequested = false
		if err := g.capture(cfg.CapturePath); err != nil {
			// a failed capture does not stop the demo
			core.LogError("capture: %s", err)
		}
	}
	return nil
}

func (g *TessellationGame) OnResize(width uint32, height uint32) error {
	state := g.state()
	if state.renderer == nil {
		return nil
	}
	return state.renderer.OnResize(width, height)
}

func (g *TessellationGame) Shutdown() error {
	core.LogDebug("TessellationGame Shutdown fn....")
	state := g.state()
	if sm := g.SystemManager; sm != nil {
		sm.Bus.Unregister(core.EVENT_CODE_KEY_PRESSED, g)
		sm.Bus.Unregister(core.EVENT_CODE_SCENE_CONFIG_CHANGED, g)
		sm.Bus.Unregister(core.EVENT_CODE_CAPTURE_REQUESTED, g)
		sm.Bus.Unregister(core.EVENT_CODE_TESSELLATION_FACTOR_CHANGED, g)
		sm.Bus.Unregister(core.EVENT_CODE_FILL_MODE_TOGGLED, g)
	}
	if state.renderer == nil {
		return nil
	}
	return state.renderer.Shutdown()
}

// capture reads back the last frame, captions it and hands the encoding to
// the job system so the frame loop is not held up by disk writes.
func (g *TessellationGame) capture(path string) error {
	state := g.state()
	if path == "" {
		return fmt.Errorf("no capture path configured: %w", core.ErrInvalidParameter)
	}
	img, err := state.renderer.Capture()
	if err != nil {
		return err
	}
	capture.Annotate(img, g.caption(), state.font)

	err = g.SystemManager.JobSystem.Submit(systems.JobTask{
		Name: "capture " + filepath.Base(path),
		Run:  func() error { return capture.Save(path, img) },
	})
	if errors.Is(err, systems.ErrJobQueueFull) || errors.Is(err, systems.ErrJobSystemClosed) {
		// write it here rather than drop the frame
		return capture.Save(path, img)
	}
	return err
}

func (g *TessellationGame) caption() string {
	s := g.state().scene
	return capture.Caption(s.PatchType(), s.Factor(), s.FillMode())
}

func (g *TessellationGame) updateTitle() {
	sm := g.SystemManager
	if sm == nil || sm.Platform == nil {
		return
	}
	sm.Platform.SetTitle(fmt.Sprintf("%s | %s", g.state().config.Application.Name, g.caption()))
}

// reload re-reads the config file when there is one, then regenerates. A
// broken file keeps the current patch set.
func (g *TessellationGame) reload() {
	state := g.state()
	sceneCfg := state.config.Scene
	if g.ConfigPath != "" {
		cfg, err := config.Load(g.ConfigPath)
		if err != nil {
			core.LogError("reload: %s", err)
			return
		}
		sceneCfg = cfg.Scene
		state.config.Scene = cfg.Scene
	}
	if err := state.scene.Reload(sceneCfg); err != nil {
		core.LogError("regenerate: %s", err)
		return
	}
	g.updateTitle()
}

func (g *TessellationGame) onKey(context core.EventContext) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	state := g.state()
	bus := g.SystemManager.Bus

	var err error
	switch ke.KeyCode {
	case core.KEY_ESCAPE:
		bus.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
	case core.KEY_UP:
		err = state.scene.StepFactor(1)
	case core.KEY_DOWN:
		err = state.scene.StepFactor(-1)
	case core.KEY_SPACE:
		state.scene.ToggleFillMode()
	case core.KEY_R:
		state.reloadRequested = true
	case core.KEY_P:
		bus.Fire(core.EventContext{Type: core.EVENT_CODE_CAPTURE_REQUESTED})
	default:
		return false
	}
	if err != nil {
		core.LogError("key %d: %s", ke.KeyCode, err)
	}
	return true
}

func (g *TessellationGame) onConfigChanged(context core.EventContext) bool {
	path, _ := context.Data.(string)
	if g.ConfigPath == "" || filepath.Clean(path) != filepath.Clean(g.ConfigPath) {
		return false
	}
	g.state().reloadRequested = true
	return true
}

func (g *TessellationGame) onCaptureRequested(core.EventContext) bool {
	g.state().captureRequested = true
	return true
}

func (g *TessellationGame) onSceneChanged(core.EventContext) bool {
	g.updateTitle()
	return false
}
