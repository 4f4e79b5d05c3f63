package loaders

import (
	"fmt"

	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/resources"
)

// ShaderLoader reads a compiled SPIR-V module.
type ShaderLoader struct {
	BinaryLoader
}

func (sl *ShaderLoader) Load(path string, params interface{}) (*resources.Resource, error) {
	raw, err := sl.BinaryLoader.Load(path, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", err, core.ErrShaderNotFound)
	}
	code, err := bytesToBytecode(raw.Data.([]byte))
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", path, err)
	}
	raw.Type = resources.ResourceTypeShader
	raw.Data = &resources.ShaderResourceData{Code: code}
	return raw, nil
}
