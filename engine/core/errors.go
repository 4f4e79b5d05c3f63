package core

import (
	"errors"
)

var (
	// ErrInvalidParameter is returned for out-of-range generation or
	// configuration parameters. Values are never clamped silently.
	ErrInvalidParameter      = errors.New("invalid parameter")
	ErrBackendNotInitialized = errors.New("renderer backend not initialized")
	ErrUnknownBackend        = errors.New("unknown renderer backend")
	ErrShaderNotFound        = errors.New("shader not found")
	ErrTextureNotFound       = errors.New("texture not found")
	ErrNoSuitableDevice      = errors.New("no suitable gpu device")
	ErrSwapchainBooting      = errors.New("swapchain resized or recreated, booting")
	ErrUnknown               = errors.New("unknown")
)
