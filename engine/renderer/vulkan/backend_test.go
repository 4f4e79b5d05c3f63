package vulkan

import (
	"context"
	"encoding/binary"
	"errors"
	stdmath "math"
	"path/filepath"
	"testing"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/math"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-tessellation/engine/tessellation"
)

func TestComputePushConstantLayout(t *testing.T) {
	if got := uint32(unsafe.Sizeof(computePushConstants{})); got != VULKAN_COMPUTE_PUSH_CONSTANT_SIZE {
		t.Errorf("compute push constants are %d bytes, want %d", got, VULKAN_COMPUTE_PUSH_CONSTANT_SIZE)
	}
}

func TestGraphicsPushConstants(t *testing.T) {
	packet := &metadata.FramePacket{
		MVP:      math.NewMat4Translation(math.NewVec3(1, 2, 3)),
		Textured: true,
		FillMode: metadata.FillModeSolid,
	}
	push := graphicsPushConstants(packet)
	if len(push) != int(VULKAN_GRAPHICS_PUSH_CONSTANT_SIZE) {
		t.Fatalf("len = %d, want %d", len(push), VULKAN_GRAPHICS_PUSH_CONSTANT_SIZE)
	}
	flag := func(i int) float32 {
		return stdmath.Float32frombits(binary.LittleEndian.Uint32(push[64+4*i:]))
	}
	if flag(0) != 1 || flag(1) != 0 {
		t.Errorf("solid textured flags = %v %v", flag(0), flag(1))
	}
	if x := stdmath.Float32frombits(binary.LittleEndian.Uint32(push[48:])); x != 1 {
		t.Errorf("translation x = %v, want 1", x)
	}

	packet.FillMode = metadata.FillModeWireframe
	push = graphicsPushConstants(packet)
	if flag(0) != 0 || flag(1) != 1 {
		t.Errorf("wireframe flags = %v %v", flag(0), flag(1))
	}
}

func TestVkCheck(t *testing.T) {
	if err := vkCheck("op", vk.Success); err != nil {
		t.Errorf("success: %v", err)
	}
	if err := vkCheck("op", vk.Suboptimal); err != nil {
		t.Errorf("suboptimal counts as success: %v", err)
	}
	err := vkCheck("vkCreateBuffer", vk.ErrorOutOfDeviceMemory)
	if err == nil {
		t.Fatal("expected error")
	}
	want := "vkCreateBuffer failed with " + VulkanResultString(vk.ErrorOutOfDeviceMemory, true)
	if err.Error() != want {
		t.Errorf("err = %q, want %q", err, want)
	}
	if VulkanResultString(vk.ErrorOutOfDate, false) != "VK_ERROR_OUT_OF_DATE_KHR" {
		t.Errorf("short name = %q", VulkanResultString(vk.ErrorOutOfDate, false))
	}
}

func TestLayoutAccess(t *testing.T) {
	for _, layout := range []vk.ImageLayout{
		vk.ImageLayoutUndefined,
		vk.ImageLayoutTransferDstOptimal,
		vk.ImageLayoutTransferSrcOptimal,
		vk.ImageLayoutShaderReadOnlyOptimal,
		vk.ImageLayoutPresentSrc,
	} {
		if _, stage, err := layoutAccess(layout); err != nil || stage == 0 {
			t.Errorf("layout %d: stage %d err %v", layout, stage, err)
		}
	}
	if _, _, err := layoutAccess(vk.ImageLayoutGeneral); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("general layout err = %v", err)
	}
}

func TestShaderPath(t *testing.T) {
	got := ShaderPath("assets/shaders", ShaderQuadControl)
	if want := filepath.Join("assets", "shaders", "quad.tesc.spv"); got != want {
		t.Errorf("ShaderPath = %q, want %q", got, want)
	}
}

func TestPatchSetValidate(t *testing.T) {
	id := metadata.NewPatchSetID()
	ready := func() *VulkanPatchSet {
		return &VulkanPatchSet{
			ID:            id,
			Positions:     &VulkanBuffer{},
			TexCoords:     &VulkanBuffer{},
			PointCount:    8,
			UVCount:       8,
			Packed:        &VulkanBuffer{},
			Factors:       &VulkanBuffer{},
			FactorType:    tessellation.PatchTypeQuad,
			FactorPatches: 2,
		}
	}
	packet := &metadata.FramePacket{PatchSet: id, PatchType: tessellation.PatchTypeQuad, PatchCount: 2}

	if err := ready().Validate(packet); err != nil {
		t.Fatalf("complete set: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(ps *VulkanPatchSet)
	}{
		{"other set", func(ps *VulkanPatchSet) { ps.ID = metadata.NewPatchSetID() }},
		{"no uvs", func(ps *VulkanPatchSet) { ps.TexCoords = nil }},
		{"no factors", func(ps *VulkanPatchSet) { ps.Factors = nil }},
		{"point count", func(ps *VulkanPatchSet) { ps.PointCount = 9 }},
		{"factor type", func(ps *VulkanPatchSet) { ps.FactorType = tessellation.PatchTypeTriangle }},
		{"factor patches", func(ps *VulkanPatchSet) { ps.FactorPatches = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := ready()
			tt.mutate(ps)
			if err := ps.Validate(packet); !errors.Is(err, core.ErrInvalidParameter) {
				t.Errorf("err = %v, want ErrInvalidParameter", err)
			}
		})
	}
}

func TestRendererRequiresInitialize(t *testing.T) {
	vr := New(nil)
	if err := vr.UploadControlPoints(metadata.NewPatchSetID(), []math.Vec3{{}}); !errors.Is(err, core.ErrBackendNotInitialized) {
		t.Errorf("upload err = %v", err)
	}
	if _, err := vr.Capture(); !errors.Is(err, core.ErrBackendNotInitialized) {
		t.Errorf("capture err = %v", err)
	}
	if err := vr.Shutdown(); err != nil {
		t.Errorf("shutdown of an unused renderer: %v", err)
	}
}

func TestInitializeRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		config *metadata.RendererBackendConfig
	}{
		{"nil", nil},
		{"no assets", &metadata.RendererBackendConfig{Width: 10, Height: 10, Headless: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := New(nil).Initialize(context.Background(), tt.config); !errors.Is(err, core.ErrInvalidParameter) {
				t.Errorf("err = %v, want ErrInvalidParameter", err)
			}
		})
	}
}
