//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

const shaderDir = "assets/shaders"

// every stage of the tessellation pipeline plus the factor kernel
var shaderSources = []string{
	"tessellation.vert",
	"quad.tesc",
	"quad.tese",
	"triangle.tesc",
	"triangle.tese",
	"tessellation.frag",
	"factors.comp",
}

// Compiles the GLSL sources under assets/shaders to SPIR-V with glslc.
func (Build) Shaders() error {
	return buildShaders()
}

// Builds the demo binary.
func (Build) Demo() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("build", "-o", "bin/tessellation", "."), withStream())
	return err
}

func buildShaders() error {
	for _, src := range shaderSources {
		in := filepath.Join(shaderDir, src)
		out := in + ".spv"
		if _, err := executeCmd("glslc", withArgs("--target-env=vulkan1.1", in, "-o", out), withStream()); err != nil {
			return fmt.Errorf("compiling %s: %w", src, err)
		}
	}
	return nil
}
