package engine

import (
	"context"

	"github.com/spaghettifunk/anima-tessellation/engine/systems"
)

// Game is the application side of the engine. The engine fills SystemManager
// before calling FnInitialize.
type Game struct {
	// ConfigPath is watched for changes when set.
	ConfigPath    string
	SystemManager *systems.SystemManager
	State         interface{}
	FnInitialize  Initialize
	FnUpdate      Update
	FnRender      Render
	FnOnResize    OnResize
	FnShutdown    Shutdown
}

type Initialize func(ctx context.Context) error
type Update func(deltaTime float64) error
type Render func(deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
