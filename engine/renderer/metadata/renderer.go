package metadata

import "github.com/spaghettifunk/anima-tessellation/engine/resources"

// AssetLoader is the part of the asset manager a backend needs.
type AssetLoader interface {
	LoadAsset(path string, params interface{}) (*resources.Resource, error)
}

type RendererBackendConfig struct {
	/** @brief The name of the application */
	ApplicationName string
	Width           uint32
	Height          uint32
	/** @brief Render to an offscreen target only, no window or swapchain. */
	Headless bool
	/** @brief Enable the validation layers. */
	Validation bool
	CullMode   FaceCullMode
	/** @brief RGBA clear colour in [0,1]. */
	ClearColor [4]float32
	/** @brief Upper clamp applied by the factor compute stage. */
	MaxTessellationFactor float32
	/** @brief Directory holding the compiled .spv modules. */
	ShaderDir string
	/** @brief Texture sampled in fill mode. nil binds a 1x1 white texture. */
	Texture *resources.ImageResourceData
	Assets  AssetLoader
}
