package vulkan

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	stdmath "math"
	"runtime"
	"sync"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/math"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-tessellation/engine/tessellation"
)

// WindowSurface is the window side of a presenting renderer. *glfw.Window
// satisfies it.
type WindowSurface interface {
	GetRequiredInstanceExtensions() []string
	CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (uintptr, error)
}

type pipelineKey struct {
	patchType tessellation.PatchType
	fillMode  metadata.FillMode
}

// computePushConstants mirrors the push block of factors.comp.
type computePushConstants struct {
	PatchCount      uint32
	FactorsPerPatch uint32
	MaxFactor       float32
	_               uint32
}

const graphicsPushStages = vk.ShaderStageFlags(vk.ShaderStageTessellationEvaluationBit) | vk.ShaderStageFlags(vk.ShaderStageFragmentBit)

type VulkanRenderer struct {
	mu sync.Mutex

	window  WindowSurface
	context *VulkanContext
	config  metadata.RendererBackendConfig

	FrameNumber             uint64
	cachedFramebufferWidth  uint32
	cachedFramebufferHeight uint32

	descriptors    *VulkanDescriptorSet
	shaders        map[string]*VulkanShaderStage
	factorPipeline *VulkanPipeline
	pipelines      map[pipelineKey]*VulkanPipeline
	texture        *VulkanTexture
	patches        *VulkanPatchSet

	fillMode    metadata.FillMode
	maxFactor   float32
	initialized bool
	hasFrame    bool
}

// New returns a renderer presenting to window. A nil window renders headless.
func New(window WindowSurface) *VulkanRenderer {
	return &VulkanRenderer{
		window:    window,
		shaders:   make(map[string]*VulkanShaderStage),
		pipelines: make(map[pipelineKey]*VulkanPipeline),
	}
}

func (vr *VulkanRenderer) Initialize(ctx context.Context, config *metadata.RendererBackendConfig) error {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	if vr.initialized {
		return nil
	}
	if config == nil || config.Assets == nil {
		return fmt.Errorf("vulkan backend needs an asset loader: %w", core.ErrInvalidParameter)
	}
	if config.Width == 0 || config.Height == 0 {
		return fmt.Errorf("framebuffer %dx%d: %w", config.Width, config.Height, core.ErrInvalidParameter)
	}
	if !config.Headless && vr.window == nil {
		return fmt.Errorf("windowed rendering without a window: %w", core.ErrInvalidParameter)
	}
	vr.config = *config
	vr.context = NewVulkanContext(config.Headless)
	vr.context.FramebufferWidth = config.Width
	vr.context.FramebufferHeight = config.Height
	vr.maxFactor = config.MaxTessellationFactor
	if vr.maxFactor <= 0 {
		vr.maxFactor = tessellation.MaxFactor
	}

	if err := vr.initialize(ctx); err != nil {
		vr.destroy()
		return err
	}
	vr.initialized = true
	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vr *VulkanRenderer) initialize(ctx context.Context) error {
	if vr.config.Headless {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return fmt.Errorf("vulkan loader: %w", err)
		}
	} else {
		procAddr := glfw.GetVulkanGetInstanceProcAddress()
		if procAddr == nil {
			return fmt.Errorf("GetInstanceProcAddress is nil")
		}
		vk.SetGetInstanceProcAddr(procAddr)
	}
	if err := vk.Init(); err != nil {
		return fmt.Errorf("failed to initialize vk: %w", err)
	}

	if err := vr.createInstance(); err != nil {
		return err
	}

	// Surface
	if !vr.context.Headless {
		core.LogDebug("Creating Vulkan surface...")
		surface, err := vr.window.CreateWindowSurface(vr.context.Instance, nil)
		if err != nil {
			return fmt.Errorf("vulkan surface creation failed: %w", err)
		}
		vr.context.Surface = vk.SurfaceFromPointer(surface)
		core.LogDebug("Vulkan surface created.")
	}

	// Device creation
	if err := DeviceCreate(vr.context); err != nil {
		return err
	}
	if limit := float32(vr.context.Device.MaxTessellationLevel); limit > 0 && vr.maxFactor > limit {
		core.LogWarn("Device limits tessellation to %.0f, lowering the factor clamp from %.0f.", limit, vr.maxFactor)
		vr.maxFactor = limit
	}

	// Swapchain
	if !vr.context.Headless {
		swapchain, err := SwapchainCreate(vr.context, vr.context.FramebufferWidth, vr.context.FramebufferHeight)
		if err != nil {
			return err
		}
		vr.context.Swapchain = swapchain
		vr.context.FramebufferWidth = swapchain.Extent.Width
		vr.context.FramebufferHeight = swapchain.Extent.Height
	}

	renderpass, err := RenderpassCreate(vr.context, vr.context.FramebufferWidth, vr.context.FramebufferHeight, vr.config.ClearColor, 1.0, 0)
	if err != nil {
		return err
	}
	vr.context.MainRenderpass = renderpass

	if err := vr.createTarget(); err != nil {
		return err
	}

	if err := vr.createSyncObjects(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	descriptors, err := DescriptorSetCreate(vr.context)
	if err != nil {
		return err
	}
	vr.descriptors = descriptors

	texture, err := TextureCreate(vr.context, vr.config.Texture)
	if err != nil {
		return err
	}
	vr.texture = texture
	vr.descriptors.WriteTexture(vr.context, texture)

	if err := vr.createPipelines(); err != nil {
		return err
	}
	return nil
}

func (vr *VulkanRenderer) createInstance() error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(vr.config.ApplicationName),
		PEngineName:        VulkanSafeString("Anima Tessellation"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	// Obtain a list of required extensions
	requiredExtensions := []string{}
	if !vr.context.Headless {
		requiredExtensions = append(requiredExtensions, vr.window.GetRequiredInstanceExtensions()...)
	}
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	// Validation layers.
	requiredLayers := []string{}
	if vr.config.Validation {
		layer := "VK_LAYER_KHRONOS_validation"
		ok, err := instanceLayerAvailable(layer)
		if err != nil {
			return err
		}
		if ok {
			requiredLayers = append(requiredLayers, layer)
			requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
			core.LogInfo("Validation layers enabled.")
		} else {
			core.LogWarn("Validation requested but %s is missing, continuing without it.", layer)
			vr.config.Validation = false
		}
	}

	core.LogDebug("Required extensions: %v", requiredExtensions)
	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)
	createInfo.EnabledLayerCount = uint32(len(requiredLayers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(requiredLayers)

	var instance vk.Instance
	if err := vkCheck("vkCreateInstance", vk.CreateInstance(&createInfo, vr.context.Allocator, &instance)); err != nil {
		return err
	}
	vr.context.Instance = instance
	if err := vk.InitInstance(instance); err != nil {
		return err
	}
	core.LogInfo("Vulkan Instance created.")

	// Debugger
	if vr.config.Validation {
		core.LogDebug("Creating Vulkan debugger...")
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(instance, &debugCreateInfo, nil, &dbg)); err != nil {
			return fmt.Errorf("vk.CreateDebugReportCallback failed with %w", err)
		}
		vr.context.debugMessenger = dbg
		core.LogDebug("Vulkan debugger created.")
	}
	return nil
}

func instanceLayerAvailable(name string) (bool, error) {
	var count uint32
	if err := vkCheck("vkEnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return false, err
	}
	layers := make([]vk.LayerProperties, count)
	if err := vkCheck("vkEnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&count, layers)); err != nil {
		return false, err
	}
	for i := range layers {
		layers[i].Deref()
		if VulkanString(layers[i].LayerName[:]) == name {
			return true, nil
		}
	}
	return false, nil
}

// createTarget builds the offscreen target and the readback buffer at the
// current framebuffer size.
func (vr *VulkanRenderer) createTarget() error {
	width, height := vr.context.FramebufferWidth, vr.context.FramebufferHeight
	target, err := RenderTargetCreate(vr.context, vr.context.MainRenderpass, width, height)
	if err != nil {
		return err
	}
	vr.context.Target = target

	readback, err := BufferCreate(vr.context, uint64(width)*uint64(height)*uint64(VULKAN_COLOR_FORMAT_BYTES),
		vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return err
	}
	vr.context.Readback = readback
	vr.context.MainRenderpass.W = width
	vr.context.MainRenderpass.H = height
	vr.hasFrame = false
	return nil
}

func (vr *VulkanRenderer) destroyTarget() {
	if vr.context.Readback != nil {
		vr.context.Readback.Destroy(vr.context)
		vr.context.Readback = nil
	}
	if vr.context.Target != nil {
		vr.context.Target.Destroy(vr.context)
		vr.context.Target = nil
	}
}

func (vr *VulkanRenderer) createSyncObjects() error {
	c := vr.context
	for i := uint32(0); i < VULKAN_MAX_FRAMES_IN_FLIGHT; i++ {
		cb, err := NewVulkanCommandBuffer(c, c.Device.GraphicsCommandPool, true)
		if err != nil {
			return err
		}
		c.GraphicsCommandBuffers = append(c.GraphicsCommandBuffers, cb)

		// Signaled so the first frame does not wait forever.
		fence, err := NewFence(c, true)
		if err != nil {
			return err
		}
		c.InFlightFences = append(c.InFlightFences, fence)

		if c.Headless {
			continue
		}
		available, err := NewSemaphore(c)
		if err != nil {
			return err
		}
		c.ImageAvailableSemaphores = append(c.ImageAvailableSemaphores, available)
		complete, err := NewSemaphore(c)
		if err != nil {
			return err
		}
		c.QueueCompleteSemaphores = append(c.QueueCompleteSemaphores, complete)
	}
	return nil
}

func (vr *VulkanRenderer) createPipelines() error {
	stages := []struct {
		name  string
		stage vk.ShaderStageFlagBits
	}{
		{ShaderVertex, vk.ShaderStageVertexBit},
		{ShaderQuadControl, vk.ShaderStageTessellationControlBit},
		{ShaderQuadEvaluation, vk.ShaderStageTessellationEvaluationBit},
		{ShaderTriangleControl, vk.ShaderStageTessellationControlBit},
		{ShaderTriangleEvaluation, vk.ShaderStageTessellationEvaluationBit},
		{ShaderFragment, vk.ShaderStageFragmentBit},
		{ShaderFactors, vk.ShaderStageComputeBit},
	}
	for _, s := range stages {
		module, err := ShaderModuleCreate(vr.context, vr.config.Assets, vr.config.ShaderDir, s.name, s.stage)
		if err != nil {
			return err
		}
		vr.shaders[s.name] = module
	}

	setLayouts := []vk.DescriptorSetLayout{vr.descriptors.Layout}

	factorPipeline, err := NewComputePipeline(vr.context, vr.shaders[ShaderFactors].StageInfo(), setLayouts, uint64(unsafe.Sizeof(computePushConstants{})))
	if err != nil {
		return err
	}
	vr.factorPipeline = factorPipeline

	controls := map[tessellation.PatchType][2]string{
		tessellation.PatchTypeQuad:     {ShaderQuadControl, ShaderQuadEvaluation},
		tessellation.PatchTypeTriangle: {ShaderTriangleControl, ShaderTriangleEvaluation},
	}
	for patchType, names := range controls {
		for _, mode := range []metadata.FillMode{metadata.FillModeWireframe, metadata.FillModeSolid} {
			pipeline, err := NewGraphicsPipeline(vr.context, &VulkanPipelineConfig{
				Renderpass:           vr.context.MainRenderpass,
				DescriptorSetLayouts: setLayouts,
				Stages: []vk.PipelineShaderStageCreateInfo{
					vr.shaders[ShaderVertex].StageInfo(),
					vr.shaders[names[0]].StageInfo(),
					vr.shaders[names[1]].StageInfo(),
					vr.shaders[ShaderFragment].StageInfo(),
				},
				PatchControlPoints: uint32(patchType.ControlPoints()),
				CullMode:           vr.config.CullMode,
				IsWireframe:        mode == metadata.FillModeWireframe,
				PushConstantRanges: []*metadata.MemoryRange{metadata.GetAlignedRange(0, uint64(VULKAN_GRAPHICS_PUSH_CONSTANT_SIZE), 4)},
				PushConstantStages: graphicsPushStages,
			})
			if err != nil {
				return fmt.Errorf("%s %s pipeline: %w", patchType, mode, err)
			}
			vr.pipelines[pipelineKey{patchType, mode}] = pipeline
		}
	}
	return nil
}

// patchSet returns the buffers of set, dropping the ones of any older set.
func (vr *VulkanRenderer) patchSet(set metadata.PatchSetID) *VulkanPatchSet {
	if vr.patches != nil && vr.patches.ID == set {
		return vr.patches
	}
	if vr.patches != nil {
		vr.patches.Destroy(vr.context)
	}
	vr.patches = &VulkanPatchSet{ID: set}
	return vr.patches
}

// waitIdle keeps uploads from touching buffers the GPU still reads.
func (vr *VulkanRenderer) waitIdle() error {
	return vkCheck("vkDeviceWaitIdle", vk.DeviceWaitIdle(vr.context.Device.LogicalDevice))
}

func (vr *VulkanRenderer) UploadControlPoints(set metadata.PatchSetID, points []math.Vec3) error {
	vr.mu.Lock()
	defer vr.mu.Unlock()
	if !vr.initialized {
		return core.ErrBackendNotInitialized
	}
	if len(points) == 0 {
		return fmt.Errorf("no control points: %w", core.ErrInvalidParameter)
	}
	if err := vr.waitIdle(); err != nil {
		return err
	}
	return vr.patchSet(set).SetPositions(vr.context, math.Vec3sToBytes(points), uint32(len(points)))
}

func (vr *VulkanRenderer) UploadTexCoords(set metadata.PatchSetID, uvs []math.Vec2) error {
	vr.mu.Lock()
	defer vr.mu.Unlock()
	if !vr.initialized {
		return core.ErrBackendNotInitialized
	}
	if len(uvs) == 0 {
		return fmt.Errorf("no texture coordinates: %w", core.ErrInvalidParameter)
	}
	if err := vr.waitIdle(); err != nil {
		return err
	}
	return vr.patchSet(set).SetTexCoords(vr.context, math.Vec2sToBytes(uvs), uint32(len(uvs)))
}

func (vr *VulkanRenderer) SetTessellationFactors(set metadata.PatchSetID, factors *tessellation.Factors) error {
	vr.mu.Lock()
	defer vr.mu.Unlock()
	if !vr.initialized {
		return core.ErrBackendNotInitialized
	}
	if factors == nil {
		return fmt.Errorf("nil factors: %w", core.ErrInvalidParameter)
	}
	if vr.patches == nil || vr.patches.ID != set {
		return fmt.Errorf("factors for patch set %s which was not uploaded: %w", set, core.ErrInvalidParameter)
	}
	if err := vr.waitIdle(); err != nil {
		return err
	}
	rebuilt, err := vr.patches.SetFactors(vr.context, factors)
	if err != nil {
		return err
	}
	if rebuilt {
		vr.descriptors.WriteFactors(vr.context, vr.patches.Packed, vr.patches.Factors)
	}
	return nil
}

func (vr *VulkanRenderer) SetFillMode(mode metadata.FillMode) {
	vr.mu.Lock()
	defer vr.mu.Unlock()
	vr.fillMode = mode
}

func (vr *VulkanRenderer) Resized(width, height uint32) error {
	vr.mu.Lock()
	defer vr.mu.Unlock()
	if !vr.initialized {
		return core.ErrBackendNotInitialized
	}
	// Minimised windows report zero, keep the old target until they come back.
	if width == 0 || height == 0 {
		return nil
	}
	vr.cachedFramebufferWidth = width
	vr.cachedFramebufferHeight = height
	vr.context.FramebufferSizeGeneration++
	core.LogDebug("Vulkan renderer backend resized: w/h/gen: %d/%d/%d", width, height, vr.context.FramebufferSizeGeneration)
	return nil
}

// recreate rebuilds the size dependent objects after a resize.
func (vr *VulkanRenderer) recreate() error {
	c := vr.context
	if c.RecreatingSwapchain {
		return core.ErrSwapchainBooting
	}
	c.RecreatingSwapchain = true
	defer func() { c.RecreatingSwapchain = false }()

	if err := vr.waitIdle(); err != nil {
		return err
	}
	if vr.cachedFramebufferWidth != 0 && vr.cachedFramebufferHeight != 0 {
		c.FramebufferWidth = vr.cachedFramebufferWidth
		c.FramebufferHeight = vr.cachedFramebufferHeight
	}
	vr.cachedFramebufferWidth = 0
	vr.cachedFramebufferHeight = 0

	if c.Swapchain != nil {
		swapchain, err := c.Swapchain.SwapchainRecreate(c, c.FramebufferWidth, c.FramebufferHeight)
		if err != nil {
			return err
		}
		c.Swapchain = swapchain
		c.FramebufferWidth = swapchain.Extent.Width
		c.FramebufferHeight = swapchain.Extent.Height
	}

	vr.destroyTarget()
	if err := vr.createTarget(); err != nil {
		return err
	}
	c.FramebufferSizeLastGeneration = c.FramebufferSizeGeneration
	core.LogDebug("Render target recreated at %dx%d.", c.FramebufferWidth, c.FramebufferHeight)
	return nil
}

func (vr *VulkanRenderer) DrawFrame(packet *metadata.FramePacket) error {
	vr.mu.Lock()
	defer vr.mu.Unlock()
	if !vr.initialized {
		return core.ErrBackendNotInitialized
	}
	if packet == nil || vr.patches == nil {
		return fmt.Errorf("nothing to draw: %w", core.ErrInvalidParameter)
	}
	if err := vr.patches.Validate(packet); err != nil {
		return err
	}
	pipeline, ok := vr.pipelines[pipelineKey{packet.PatchType, packet.FillMode}]
	if !ok {
		return fmt.Errorf("no pipeline for %s %s: %w", packet.PatchType, packet.FillMode, core.ErrInvalidParameter)
	}

	c := vr.context
	if c.FramebufferSizeGeneration != c.FramebufferSizeLastGeneration {
		if err := vr.recreate(); err != nil {
			return err
		}
		return core.ErrSwapchainBooting
	}

	fence := c.InFlightFences[c.CurrentFrame]
	if err := fence.FenceWait(c, VULKAN_FENCE_TIMEOUT); err != nil {
		return err
	}

	if c.Swapchain != nil {
		index, err := c.Swapchain.SwapchainAcquireNextImageIndex(c, stdmath.MaxUint64, c.ImageAvailableSemaphores[c.CurrentFrame], vk.NullFence)
		if err != nil {
			if errors.Is(err, core.ErrSwapchainBooting) {
				c.FramebufferSizeGeneration++
			}
			return err
		}
		c.ImageIndex = index
	}

	if err := fence.FenceReset(c); err != nil {
		return err
	}
	cb := c.GraphicsCommandBuffers[c.CurrentFrame]
	if err := cb.Reset(); err != nil {
		return err
	}
	if err := cb.Begin(true, false, false); err != nil {
		return err
	}

	vr.recordFactorDispatch(cb, packet)
	vr.recordPatchDraw(cb, pipeline, packet)
	if err := vr.recordPresentBlit(cb); err != nil {
		return err
	}
	vr.recordReadback(cb)

	if err := cb.End(); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb.Handle},
	}
	if c.Swapchain != nil {
		submitInfo.WaitSemaphoreCount = 1
		submitInfo.PWaitSemaphores = []vk.Semaphore{c.ImageAvailableSemaphores[c.CurrentFrame]}
		submitInfo.PWaitDstStageMask = []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageTransferBit)}
		submitInfo.SignalSemaphoreCount = 1
		submitInfo.PSignalSemaphores = []vk.Semaphore{c.QueueCompleteSemaphores[c.CurrentFrame]}
	}
	if err := c.locks.SafeQueueCall(c.Device.GraphicsQueueIndex, func() error {
		return vkCheck("vkQueueSubmit", vk.QueueSubmit(c.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, fence.Handle))
	}); err != nil {
		return err
	}
	cb.UpdateSubmitted()

	if c.Swapchain != nil {
		if err := c.Swapchain.SwapchainPresent(c, c.Device.PresentQueue, c.QueueCompleteSemaphores[c.CurrentFrame], c.ImageIndex); err != nil {
			return err
		}
	}

	vr.FrameNumber++
	vr.hasFrame = true
	return nil
}

// recordFactorDispatch unpacks the half factors into the float buffer the
// control shaders read.
func (vr *VulkanRenderer) recordFactorDispatch(cb *VulkanCommandBuffer, packet *metadata.FramePacket) {
	perPatch := uint32(packet.PatchType.FactorsPerPatch())
	total := packet.PatchCount * perPatch

	vr.factorPipeline.Bind(cb)
	vk.CmdBindDescriptorSets(cb.Handle, vk.PipelineBindPointCompute, vr.factorPipeline.PipelineLayout, 0, 1, []vk.DescriptorSet{vr.descriptors.Set}, 0, nil)
	push := computePushConstants{
		PatchCount:      packet.PatchCount,
		FactorsPerPatch: perPatch,
		MaxFactor:       vr.maxFactor,
	}
	vk.CmdPushConstants(cb.Handle, vr.factorPipeline.PipelineLayout, vk.ShaderStageFlags(vk.ShaderStageComputeBit), 0, uint32(unsafe.Sizeof(push)), unsafe.Pointer(&push))
	vk.CmdDispatch(cb.Handle, (total+VULKAN_FACTOR_WORKGROUP_SIZE-1)/VULKAN_FACTOR_WORKGROUP_SIZE, 1, 1)

	barrier := vk.BufferMemoryBarrier{
		SType:               vk.StructureTypeBufferMemoryBarrier,
		SrcAccessMask:       vk.AccessFlags(vk.AccessShaderWriteBit),
		DstAccessMask:       vk.AccessFlags(vk.AccessShaderReadBit),
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Buffer:              vr.patches.Factors.Handle,
		Offset:              0,
		Size:                vk.DeviceSize(vr.patches.Factors.Size),
	}
	vk.CmdPipelineBarrier(cb.Handle,
		vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit),
		vk.PipelineStageFlags(vk.PipelineStageTessellationControlShaderBit),
		0, 0, nil, 1, []vk.BufferMemoryBarrier{barrier}, 0, nil)
}

func (vr *VulkanRenderer) recordPatchDraw(cb *VulkanCommandBuffer, pipeline *VulkanPipeline, packet *metadata.FramePacket) {
	c := vr.context
	c.MainRenderpass.RenderpassBegin(cb, c.Target.Framebuffer.Handle)

	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(c.FramebufferWidth),
		Height:   float32(c.FramebufferHeight),
		MinDepth: 0,
		MaxDepth: 1,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: c.Extent(),
	}
	vk.CmdSetViewport(cb.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(cb.Handle, 0, 1, []vk.Rect2D{scissor})

	pipeline.Bind(cb)
	vk.CmdBindDescriptorSets(cb.Handle, vk.PipelineBindPointGraphics, pipeline.PipelineLayout, 0, 1, []vk.DescriptorSet{vr.descriptors.Set}, 0, nil)
	vk.CmdBindVertexBuffers(cb.Handle, VULKAN_VERTEX_BINDING_POSITION, 2,
		[]vk.Buffer{vr.patches.Positions.Handle, vr.patches.TexCoords.Handle},
		[]vk.DeviceSize{0, 0})

	push := graphicsPushConstants(packet)
	vk.CmdPushConstants(cb.Handle, pipeline.PipelineLayout, graphicsPushStages, 0, uint32(len(push)), unsafe.Pointer(&push[0]))

	vk.CmdDraw(cb.Handle, vr.patches.PointCount, 1, 0, 0)
	c.MainRenderpass.RenderpassEnd(cb)
}

// graphicsPushConstants lays out the mvp followed by the flags vector.
func graphicsPushConstants(packet *metadata.FramePacket) []byte {
	out := make([]byte, 0, VULKAN_GRAPHICS_PUSH_CONSTANT_SIZE)
	out = append(out, packet.MVP.Bytes()...)
	flags := [4]float32{}
	if packet.Textured && packet.FillMode == metadata.FillModeSolid {
		flags[0] = 1
	}
	if packet.FillMode == metadata.FillModeWireframe {
		flags[1] = 1
	}
	for _, f := range flags {
		out = binary.LittleEndian.AppendUint32(out, stdmath.Float32bits(f))
	}
	return out
}

// recordPresentBlit copies the finished frame into the acquired swapchain image.
func (vr *VulkanRenderer) recordPresentBlit(cb *VulkanCommandBuffer) error {
	c := vr.context
	if c.Swapchain == nil {
		return nil
	}
	dst := c.Swapchain.Images[c.ImageIndex]
	color := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	if err := ImageTransitionLayout(cb.Handle, dst, color, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
		return err
	}

	subresource := vk.ImageSubresourceLayers{
		AspectMask:     color,
		MipLevel:       0,
		BaseArrayLayer: 0,
		LayerCount:     1,
	}
	blit := vk.ImageBlit{
		SrcSubresource: subresource,
		SrcOffsets: [2]vk.Offset3D{
			{X: 0, Y: 0, Z: 0},
			{X: int32(c.FramebufferWidth), Y: int32(c.FramebufferHeight), Z: 1},
		},
		DstSubresource: subresource,
		DstOffsets: [2]vk.Offset3D{
			{X: 0, Y: 0, Z: 0},
			{X: int32(c.Swapchain.Extent.Width), Y: int32(c.Swapchain.Extent.Height), Z: 1},
		},
	}
	vk.CmdBlitImage(cb.Handle,
		c.Target.Color.Handle, vk.ImageLayoutTransferSrcOptimal,
		dst, vk.ImageLayoutTransferDstOptimal,
		1, []vk.ImageBlit{blit}, vk.FilterNearest)

	return ImageTransitionLayout(cb.Handle, dst, color, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutPresentSrc)
}

// recordReadback copies the target into the host visible readback buffer.
func (vr *VulkanRenderer) recordReadback(cb *VulkanCommandBuffer) {
	c := vr.context
	region := vk.BufferImageCopy{
		BufferOffset: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageExtent: vk.Extent3D{Width: c.FramebufferWidth, Height: c.FramebufferHeight, Depth: 1},
	}
	vk.CmdCopyImageToBuffer(cb.Handle, c.Target.Color.Handle, vk.ImageLayoutTransferSrcOptimal, c.Readback.Handle, 1, []vk.BufferImageCopy{region})

	barrier := vk.BufferMemoryBarrier{
		SType:               vk.StructureTypeBufferMemoryBarrier,
		SrcAccessMask:       vk.AccessFlags(vk.AccessTransferWriteBit),
		DstAccessMask:       vk.AccessFlags(vk.AccessHostReadBit),
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Buffer:              c.Readback.Handle,
		Offset:              0,
		Size:                vk.DeviceSize(c.Readback.Size),
	}
	vk.CmdPipelineBarrier(cb.Handle,
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		vk.PipelineStageFlags(vk.PipelineStageHostBit),
		0, 0, nil, 1, []vk.BufferMemoryBarrier{barrier}, 0, nil)
}

func (vr *VulkanRenderer) Capture() (*image.RGBA, error) {
	vr.mu.Lock()
	defer vr.mu.Unlock()
	if !vr.initialized {
		return nil, core.ErrBackendNotInitialized
	}
	if !vr.hasFrame {
		return nil, fmt.Errorf("no frame rendered yet: %w", core.ErrInvalidParameter)
	}
	c := vr.context
	if err := c.InFlightFences[c.CurrentFrame].FenceWait(c, VULKAN_FENCE_TIMEOUT); err != nil {
		return nil, err
	}
	pixels, err := c.Readback.ReadData(c, 0, c.Readback.Size)
	if err != nil {
		return nil, err
	}
	width, height := int(c.FramebufferWidth), int(c.FramebufferHeight)
	return &image.RGBA{
		Pix:    pixels,
		Stride: width * int(VULKAN_COLOR_FORMAT_BYTES),
		Rect:   image.Rect(0, 0, width, height),
	}, nil
}

func (vr *VulkanRenderer) Shutdown() error {
	vr.mu.Lock()
	defer vr.mu.Unlock()
	if !vr.initialized {
		return nil
	}
	vr.destroy()
	vr.initialized = false
	core.LogInfo("Vulkan renderer shut down.")
	return nil
}

// destroy releases everything in reverse creation order. It tolerates a
// partially initialized context.
func (vr *VulkanRenderer) destroy() {
	c := vr.context
	if c == nil {
		return
	}
	device := c.Device.LogicalDevice
	if device != nil {
		vk.DeviceWaitIdle(device)

		if vr.patches != nil {
			vr.patches.Destroy(c)
			vr.patches = nil
		}
		for key, pipeline := range vr.pipelines {
			pipeline.Destroy(c)
			delete(vr.pipelines, key)
		}
		if vr.factorPipeline != nil {
			vr.factorPipeline.Destroy(c)
			vr.factorPipeline = nil
		}
		for name, shader := range vr.shaders {
			shader.Destroy(c)
			delete(vr.shaders, name)
		}
		if vr.texture != nil {
			vr.texture.Destroy(c)
			vr.texture = nil
		}
		if vr.descriptors != nil {
			vr.descriptors.Destroy(c)
			vr.descriptors = nil
		}

		for _, s := range c.ImageAvailableSemaphores {
			vk.DestroySemaphore(device, s, c.Allocator)
		}
		for _, s := range c.QueueCompleteSemaphores {
			vk.DestroySemaphore(device, s, c.Allocator)
		}
		c.ImageAvailableSemaphores = nil
		c.QueueCompleteSemaphores = nil
		for _, f := range c.InFlightFences {
			f.FenceDestroy(c)
		}
		c.InFlightFences = nil
		for _, cb := range c.GraphicsCommandBuffers {
			cb.Free(c, c.Device.GraphicsCommandPool)
		}
		c.GraphicsCommandBuffers = nil

		vr.destroyTarget()
		if c.MainRenderpass != nil {
			c.MainRenderpass.RenderpassDestroy(c)
			c.MainRenderpass = nil
		}
		if c.Swapchain != nil {
			c.Swapchain.SwapchainDestroy(c)
			c.Swapchain = nil
		}
		DeviceDestroy(c)
	}

	if c.Instance != nil {
		if c.Surface != vk.NullSurface {
			vk.DestroySurface(c.Instance, c.Surface, c.Allocator)
			c.Surface = vk.NullSurface
		}
		if c.debugMessenger != vk.NullDebugReportCallback {
			vk.DestroyDebugReportCallback(c.Instance, c.debugMessenger, c.Allocator)
			c.debugMessenger = vk.NullDebugReportCallback
		}
		vk.DestroyInstance(c.Instance, c.Allocator)
		c.Instance = nil
	}
	vr.hasFrame = false
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
