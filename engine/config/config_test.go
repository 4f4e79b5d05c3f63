package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/tessellation"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if cfg.PatchType() != tessellation.PatchTypeQuad {
		t.Errorf("PatchType() = %v, want quad", cfg.PatchType())
	}
	if cfg.Scene.Factor != 8 || cfg.Renderer.MaxTessellationFactor != 64 {
		t.Errorf("factor %v max %v, want 8 and 64", cfg.Scene.Factor, cfg.Renderer.MaxTessellationFactor)
	}
	if !cfg.Renderer.Wireframe {
		t.Error("wireframe should be the default fill mode")
	}
}

func TestDecodeKeepsDefaultsForMissingKeys(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
[scene]
patch_type = "triangle"

[scene.triangle]
depth = 4
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PatchType() != tessellation.PatchTypeTriangle || cfg.Scene.Triangle.Depth != 4 {
		t.Errorf("scene = %+v", cfg.Scene)
	}
	if cfg.Scene.Quad.Width != 2 || cfg.Application.Width != 1280 || cfg.Scene.Factor != 8 {
		t.Errorf("defaults lost: quad %d, window %d, factor %v", cfg.Scene.Quad.Width, cfg.Application.Width, cfg.Scene.Factor)
	}
}

func TestDecodeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want error
	}{
		{"zero grid", "[scene.quad]\nwidth = 0", core.ErrInvalidParameter},
		{"negative depth", "[scene.triangle]\ndepth = -1", core.ErrInvalidParameter},
		{"factor below one", "[scene]\nfactor = 0.5", core.ErrInvalidParameter},
		{"factor nan", "[scene]\nfactor = nan", core.ErrInvalidParameter},
		{"factor -inf", "[scene]\nfactor = -inf", core.ErrInvalidParameter},
		{"max factor nan", "[renderer]\nmax_tessellation_factor = nan", core.ErrInvalidParameter},
		{"camera nan", "[scene.camera]\nleft = nan", core.ErrInvalidParameter},
		{"eye inf", "[scene.camera]\neye = [0.0, -inf, -1.8]", core.ErrInvalidParameter},
		{"patch type", "[scene]\npatch_type = \"hex\"", core.ErrInvalidParameter},
		{"window", "[application]\nheight = 0", core.ErrInvalidParameter},
		{"log level", "[application]\nlog_level = \"loud\"", core.ErrInvalidParameter},
		{"cull mode", "[renderer]\ncull_mode = \"sideways\"", core.ErrInvalidParameter},
		{"max factor", "[renderer]\nmax_tessellation_factor = 128.0", core.ErrInvalidParameter},
		{"headless frames", "[renderer]\nheadless = true\nframes = 0", core.ErrInvalidParameter},
		{"backend", "[renderer]\nbackend = \"metal\"", core.ErrUnknownBackend},
	}
	for _, tt := range tests {
		_, err := Decode(strings.NewReader(tt.toml))
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	if _, err := Decode(strings.NewReader("[scene]\nfactr = 3.0")); err == nil {
		t.Error("expected an error for a misspelt key")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Scene.Quad.Width = 5
	cfg.Renderer.Backend = "null"

	var buf bytes.Buffer
	if err := cfg.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	back, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if back.Scene.Quad != cfg.Scene.Quad || back.Renderer.Backend != "null" {
		t.Errorf("round trip = %+v", back.Scene.Quad)
	}
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", DefaultPath))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scene.Quad.Corners != Default().Scene.Quad.Corners {
		t.Errorf("corners = %v", cfg.Scene.Quad.Corners)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want not exist", err)
	}
}
