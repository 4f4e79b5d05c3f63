package demo

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/anima-tessellation/engine"
	"github.com/spaghettifunk/anima-tessellation/engine/config"
	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-tessellation/engine/tessellation"
)

func writeTexture(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func headlessConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Application.Width, cfg.Application.Height = 64, 48
	cfg.Renderer.Backend = "null"
	cfg.Renderer.Headless = true
	cfg.Renderer.Frames = 2
	cfg.Renderer.AssetDir = dir
	cfg.Renderer.Texture = filepath.Join(dir, "grass.png")
	cfg.Renderer.CapturePath = filepath.Join(t.TempDir(), "frame.png")
	writeTexture(t, cfg.Renderer.Texture)
	return cfg
}

func startDemo(t *testing.T, cfg *config.Config, configPath string) (*TessellationGame, *engine.Engine) {
	t.Helper()
	g, err := NewTessellationGame(cfg, configPath)
	if err != nil {
		t.Fatal(err)
	}
	e, err := engine.New(g.Game, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Initialize(context.Background()); err != nil {
		_ = e.Shutdown()
		t.Fatal(err)
	}
	return g, e
}

func press(g *TessellationGame, key core.KeyCode) {
	g.SystemManager.Input.ProcessKey(key, true)
	g.SystemManager.Input.ProcessKey(key, false)
}

func TestHeadlessRunCapturesLastFrame(t *testing.T) {
	cfg := headlessConfig(t)
	_, e := startDemo(t, cfg, "")

	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	// shutdown drains the capture job
	if err := e.Shutdown(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(cfg.Renderer.CapturePath)
	if err != nil {
		t.Fatalf("capture not written: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("capture is %v, want 64x48", b)
	}
	// away from the caption the null backend leaves the white clear colour
	if c := color.RGBAModel.Convert(img.At(63, 47)).(color.RGBA); c != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("corner pixel = %v, want white", c)
	}
}

func TestKeysDriveTheScene(t *testing.T) {
	cfg := headlessConfig(t)
	g, e := startDemo(t, cfg, "")
	defer e.Shutdown()
	s := g.state().scene

	press(g, core.KEY_UP)
	press(g, core.KEY_UP)
	press(g, core.KEY_DOWN)
	if want := tessellation.DefaultFactor + 1; s.Factor() != want {
		t.Errorf("factor = %v, want %v", s.Factor(), want)
	}

	press(g, core.KEY_SPACE)
	if s.FillMode() != metadata.FillModeSolid {
		t.Errorf("fill mode = %v after space, want fill", s.FillMode())
	}

	press(g, core.KEY_P)
	if !g.state().captureRequested {
		t.Error("P did not request a capture")
	}

	quit := false
	g.SystemManager.Bus.Register(core.EVENT_CODE_APPLICATION_QUIT, t, func(core.EventContext) bool {
		quit = true
		return false
	})
	press(g, core.KEY_ESCAPE)
	if !quit {
		t.Error("escape did not fire quit")
	}
}

func TestReloadFromConfigFile(t *testing.T) {
	cfg := headlessConfig(t)
	path := filepath.Join(t.TempDir(), "tessellation.toml")
	if err := os.WriteFile(path, []byte("[scene]\npatch_type = \"triangle\"\nfactor = 3.0\n\n[scene.triangle]\ndepth = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	g, e := startDemo(t, cfg, path)
	defer e.Shutdown()
	s := g.state().scene
	set := s.PatchSet()

	press(g, core.KEY_R)
	if err := g.Update(0); err != nil {
		t.Fatal(err)
	}
	if s.PatchType() != tessellation.PatchTypeTriangle || s.PatchCount() != 4 || s.Factor() != 3 {
		t.Fatalf("after reload: %s x%d factor %v", s.PatchType(), s.PatchCount(), s.Factor())
	}
	if s.PatchSet() == set {
		t.Error("reload kept the old patch set")
	}
	if err := g.Render(0); err != nil {
		t.Errorf("render after reload: %v", err)
	}

	// a change event for another file is ignored
	g.SystemManager.Bus.Fire(core.EventContext{Type: core.EVENT_CODE_SCENE_CONFIG_CHANGED, Data: "other.toml"})
	if g.state().reloadRequested {
		t.Error("unrelated config change queued a reload")
	}
	g.SystemManager.Bus.Fire(core.EventContext{Type: core.EVENT_CODE_SCENE_CONFIG_CHANGED, Data: path})
	if !g.state().reloadRequested {
		t.Error("config change did not queue a reload")
	}
}

func TestMissingTexture(t *testing.T) {
	cfg := headlessConfig(t)
	cfg.Renderer.Texture = filepath.Join(cfg.Renderer.AssetDir, "missing.png")

	g, err := NewTessellationGame(cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	e, err := engine.New(g.Game, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Shutdown()
	if err := e.Initialize(context.Background()); !errors.Is(err, core.ErrTextureNotFound) {
		t.Errorf("quad scene: err = %v, want ErrTextureNotFound", err)
	}

	cfg = headlessConfig(t)
	cfg.Renderer.Texture = filepath.Join(cfg.Renderer.AssetDir, "missing.png")
	cfg.Scene.PatchType = "triangle"
	g, e2 := startDemo(t, cfg, "")
	defer e2.Shutdown()
	if g.state().scene.Textured() {
		t.Error("triangle scene reports a texture")
	}
}
