package systems

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/anima-tessellation/engine/config"
	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/null"
)

func headlessConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Renderer.Backend = "null"
	cfg.Renderer.Headless = true
	cfg.Renderer.AssetDir = t.TempDir()
	return cfg
}

func TestHeadlessManagerSelectsNullBackend(t *testing.T) {
	cfg := headlessConfig(t)
	configPath := filepath.Join(t.TempDir(), "scene.toml")
	if err := os.WriteFile(configPath, []byte("[scene]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	sm, err := NewSystemManager(cfg, configPath)
	if err != nil {
		t.Fatal(err)
	}
	if sm.Platform != nil {
		t.Error("headless manager created a platform")
	}
	if err := sm.Initialize(); err != nil {
		t.Fatal(err)
	}
	if _, ok := sm.Backend.(*null.Backend); !ok {
		t.Errorf("backend = %T, want *null.Backend", sm.Backend)
	}
	if _, ok := sm.AssetManager.Asset(configPath); !ok {
		t.Error("config file is not watched")
	}
	if w, h := sm.FramebufferSize(); w != cfg.Application.Width || h != cfg.Application.Height {
		t.Errorf("framebuffer %dx%d, want configured size", w, h)
	}

	ran := false
	if err := sm.JobSystem.Submit(JobTask{Name: "noop", Run: func() error { return nil }, OnComplete: func() { ran = true }}); err != nil {
		t.Fatal(err)
	}
	if err := sm.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Error("shutdown dropped a queued job")
	}
}

func TestUnknownBackend(t *testing.T) {
	cfg := headlessConfig(t)
	cfg.Renderer.Backend = "metal"
	sm, err := NewSystemManager(cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	defer sm.Shutdown()
	if err := sm.Initialize(); !errors.Is(err, core.ErrUnknownBackend) {
		t.Errorf("err = %v, want ErrUnknownBackend", err)
	}
}

func TestNilConfig(t *testing.T) {
	if _, err := NewSystemManager(nil, ""); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("err = %v, want ErrInvalidParameter", err)
	}
}
