// Package config loads the TOML configuration of the tessellation demo.
package config

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/tessellation"
)

const DefaultPath = "assets/config/tessellation.toml"

type Config struct {
	Application ApplicationConfig `toml:"application"`
	Renderer    RendererConfig    `toml:"renderer"`
	Scene       SceneConfig       `toml:"scene"`
}

type ApplicationConfig struct {
	Name      string `toml:"name"`
	X         int32  `toml:"x"`
	Y         int32  `toml:"y"`
	Width     uint32 `toml:"width"`
	Height    uint32 `toml:"height"`
	LogLevel  string `toml:"log_level"`
	TargetFPS int    `toml:"target_fps"`
}

type RendererConfig struct {
	Backend    string `toml:"backend"`
	Headless   bool   `toml:"headless"`
	Frames     int    `toml:"frames"`
	Validation bool   `toml:"validation"`
	Wireframe  bool   `toml:"wireframe"`
	CullMode   string `toml:"cull_mode"`
	// ClearColor is RGBA in [0,1].
	ClearColor            [4]float32 `toml:"clear_color"`
	MaxTessellationFactor float32    `toml:"max_tessellation_factor"`
	AssetDir              string     `toml:"asset_dir"`
	ShaderDir             string     `toml:"shader_dir"`
	Texture               string     `toml:"texture"`
	CapturePath           string     `toml:"capture_path"`
	CaptureFont           string     `toml:"capture_font"`
}

type SceneConfig struct {
	PatchType string         `toml:"patch_type"`
	Factor    float32        `toml:"factor"`
	Quad      QuadConfig     `toml:"quad"`
	Triangle  TriangleConfig `toml:"triangle"`
	Camera    CameraConfig   `toml:"camera"`
}

type QuadConfig struct {
	Width   int           `toml:"width"`
	Height  int           `toml:"height"`
	Corners [4][3]float32 `toml:"corners"`
	UVs     [4][2]float32 `toml:"uvs"`
}

type TriangleConfig struct {
	Depth int           `toml:"depth"`
	Seed  [3][3]float32 `toml:"seed"`
}

type CameraConfig struct {
	Left                  float32    `toml:"left"`
	Right                 float32    `toml:"right"`
	Bottom                float32    `toml:"bottom"`
	Top                   float32    `toml:"top"`
	Near                  float32    `toml:"near"`
	Far                   float32    `toml:"far"`
	Eye                   [3]float32 `toml:"eye"`
	ModelRotationXDegrees float32    `toml:"model_rotation_x_degrees"`
}

// Default returns the configuration of the original grass-plane demo.
func Default() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:      "Tessellation",
			X:         100,
			Y:         100,
			Width:     1280,
			Height:    720,
			LogLevel:  "info",
			TargetFPS: 60,
		},
		Renderer: RendererConfig{
			Backend:               "vulkan",
			Frames:                3,
			Wireframe:             true,
			CullMode:              "back",
			ClearColor:            [4]float32{1, 1, 1, 1},
			MaxTessellationFactor: tessellation.MaxFactor,
			AssetDir:              "assets",
			ShaderDir:             "assets/shaders",
			Texture:               "assets/textures/grass-color.png",
			CapturePath:           "capture.png",
		},
		Scene: SceneConfig{
			PatchType: "quad",
			Factor:    tessellation.DefaultFactor,
			Quad: QuadConfig{
				Width:  2,
				Height: 2,
				Corners: [4][3]float32{
					{-1, 0, 1},
					{1, 0, 1},
					{1, 0, -1},
					{-1, 0, -1},
				},
				UVs: [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
			},
			Triangle: TriangleConfig{
				Depth: 2,
				Seed: [3][3]float32{
					{-1, 0, -1},
					{-1, 0, 1},
					{1, 0, 1},
				},
			},
			Camera: CameraConfig{
				Left:                  0,
				Right:                 1,
				Bottom:                1,
				Top:                   0,
				Near:                  -10,
				Far:                   10,
				Eye:                   [3]float32{0, 0, -1.8},
				ModelRotationXDegrees: -90,
			},
		},
	}
}

// Load reads and validates the file at path. Keys absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses TOML from r on top of Default and validates the result.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

func (c *Config) Validate() error {
	if c.Application.Width == 0 || c.Application.Height == 0 {
		return invalid("window size %dx%d", c.Application.Width, c.Application.Height)
	}
	if c.Application.TargetFPS < 0 {
		return invalid("target_fps %d", c.Application.TargetFPS)
	}
	if _, err := core.ParseLogLevel(c.Application.LogLevel); err != nil {
		return err
	}

	switch c.Renderer.Backend {
	case "vulkan", "null":
	default:
		return fmt.Errorf("backend %q: %w", c.Renderer.Backend, core.ErrUnknownBackend)
	}
	if c.Renderer.Headless && c.Renderer.Frames < 1 {
		return invalid("headless frame count %d", c.Renderer.Frames)
	}
	switch c.Renderer.CullMode {
	case "none", "front", "back":
	default:
		return invalid("cull_mode %q", c.Renderer.CullMode)
	}
	if !(c.Renderer.MaxTessellationFactor >= 1 && c.Renderer.MaxTessellationFactor <= tessellation.MaxFactor) {
		return invalid("max_tessellation_factor %v", c.Renderer.MaxTessellationFactor)
	}

	if _, err := tessellation.ParsePatchType(c.Scene.PatchType); err != nil {
		return err
	}
	if !finite(c.Scene.Factor) || c.Scene.Factor < 1 {
		return invalid("factor %v", c.Scene.Factor)
	}
	if c.Scene.Quad.Width < 1 || c.Scene.Quad.Height < 1 {
		return invalid("quad grid %dx%d", c.Scene.Quad.Width, c.Scene.Quad.Height)
	}
	if c.Scene.Triangle.Depth < 0 {
		return invalid("triangle depth %d", c.Scene.Triangle.Depth)
	}
	cam := c.Scene.Camera
	for _, v := range []float32{cam.Left, cam.Right, cam.Bottom, cam.Top, cam.Near, cam.Far, cam.Eye[0], cam.Eye[1], cam.Eye[2], cam.ModelRotationXDegrees} {
		if !finite(v) {
			return invalid("camera value %v", v)
		}
	}
	if c.Scene.Camera.Near == c.Scene.Camera.Far {
		return invalid("camera near and far both %v", c.Scene.Camera.Near)
	}
	return nil
}

// PatchType returns the parsed scene patch type. The config must be valid.
func (c *Config) PatchType() tessellation.PatchType {
	pt, _ := tessellation.ParsePatchType(c.Scene.PatchType)
	return pt
}

func finite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, core.ErrInvalidParameter)...)
}
