package vulkan

/** @brief Frames recorded ahead of the GPU. One keeps readback trivially in sync. */
const VULKAN_MAX_FRAMES_IN_FLIGHT uint32 = 1

/** @brief Threads per workgroup of the factor unpack kernel. Must match factors.comp. */
const VULKAN_FACTOR_WORKGROUP_SIZE uint32 = 64

/** @brief Format of the offscreen colour target and of captures. */
const VULKAN_COLOR_FORMAT_BYTES uint32 = 4

/**
 * @brief Graphics push constants: mat4 mvp followed by a vec4 of flags
 * (x = textured, y = wireframe).
 */
const VULKAN_GRAPHICS_PUSH_CONSTANT_SIZE uint32 = 80

/** @brief Compute push constants: patch count, factors per patch, max factor, pad. */
const VULKAN_COMPUTE_PUSH_CONSTANT_SIZE uint32 = 16

/** @brief Descriptor bindings shared by the compute and graphics pipelines. */
const (
	VULKAN_BINDING_PACKED_FACTORS uint32 = 0
	VULKAN_BINDING_FACTORS        uint32 = 1
	VULKAN_BINDING_TEXTURE        uint32 = 2
)

/** @brief Vertex input bindings, one attribute each. */
const (
	VULKAN_VERTEX_BINDING_POSITION uint32 = 0
	VULKAN_VERTEX_BINDING_TEXCOORD uint32 = 1
)

/** @brief Timeout for fence waits, in nanoseconds. */
const VULKAN_FENCE_TIMEOUT uint64 = 5_000_000_000
