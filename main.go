/*
Tessellation demo: a patch grid or a subdivided triangle drawn through the
GPU tessellation stages, with the factor and fill mode under keyboard control.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima-tessellation/demo"
	"github.com/spaghettifunk/anima-tessellation/engine"
	"github.com/spaghettifunk/anima-tessellation/engine/config"
	"github.com/spaghettifunk/anima-tessellation/engine/core"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the TOML configuration")
	backend := flag.String("backend", "", "renderer backend override: vulkan or null")
	headless := flag.Bool("headless", false, "render offscreen without a window")
	frames := flag.Int("frames", 0, "frames to render when headless, 0 keeps the configured count")
	capturePath := flag.String("capture", "", "capture path override (.png, .bmp, .tif or .tiff)")
	flag.Parse()

	cfg, path, err := loadConfig(*configPath)
	if err != nil {
		core.LogError("%s", err)
		os.Exit(2)
	}
	if *backend != "" {
		cfg.Renderer.Backend = *backend
	}
	if *headless {
		cfg.Renderer.Headless = true
	}
	if *frames > 0 {
		cfg.Renderer.Frames = *frames
	}
	if *capturePath != "" {
		cfg.Renderer.CapturePath = *capturePath
	}
	if err := cfg.Validate(); err != nil {
		core.LogError("%s", err)
		os.Exit(2)
	}

	// signal context to capture system calls
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, cfg, path); err != nil {
		core.LogError("%s", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig reads path. A missing file at the default location falls back to
// the built-in defaults; the returned path is then empty so nothing is watched.
func loadConfig(path string) (*config.Config, string, error) {
	cfg, err := config.Load(path)
	if err == nil {
		level, _ := core.ParseLogLevel(cfg.Application.LogLevel)
		core.SetLogLevel(level)
		return cfg, path, nil
	}
	if path == config.DefaultPath && errors.Is(err, fs.ErrNotExist) {
		core.LogWarn("%s not found, using the built-in configuration", path)
		return config.Default(), "", nil
	}
	return nil, "", err
}

func run(ctx context.Context, cfg *config.Config, configPath string) error {
	game, err := demo.NewTessellationGame(cfg, configPath)
	if err != nil {
		return err
	}

	e, err := engine.New(game.Game, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := e.Shutdown(); err != nil {
			core.LogError("shutdown: %s", err)
		}
	}()

	if err := e.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	core.LogInfo("running %s on the %s backend", cfg.Application.Name, cfg.Renderer.Backend)

	// run engine
	return e.Run(ctx)
}
