//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Compiles the shaders and runs the demo in a window.
func (Run) Demo() error {
	if err := buildShaders(); err != nil {
		return err
	}
	fmt.Println("Run demo...")
	_, err := executeCmd("go", withArgs("run", ".", "-config", "assets/config/tessellation.toml"), withStream())
	return err
}

// Renders a few frames offscreen and writes capture.png.
func (Run) Headless() error {
	if err := buildShaders(); err != nil {
		return err
	}
	_, err := executeCmd("go", withArgs("run", ".", "-headless", "-frames", "3", "-capture", "capture.png"), withStream())
	return err
}

// Runs the test suite, uncached.
func Test() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withEnv("GOFLAGS=-count=1"), withStream())
	return err
}
