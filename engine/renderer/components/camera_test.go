package components

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/math"
)

func TestOrthographicMapsVolumeToClipSpace(t *testing.T) {
	c, err := NewOrthographicCamera(0, 1, 1, 0, -10, 10)
	if err != nil {
		t.Fatal(err)
	}
	mvp := c.MVP(math.NewMat4Identity())

	cases := []struct {
		in, want math.Vec3
	}{
		{math.NewVec3(0.5, 0.5, 0), math.NewVec3(0, 0, 0)},
		{math.NewVec3(0, 0, 0), math.NewVec3(-1, 1, 0)},
		{math.NewVec3(1, 1, 0), math.NewVec3(1, -1, 0)},
		{math.NewVec3(0, 0, 10), math.NewVec3(-1, 1, -1)},
	}
	for _, tc := range cases {
		if got := tc.in.Transform(mvp); !got.Compare(tc.want, 1e-6) {
			t.Errorf("%v -> %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPositionMarksViewDirty(t *testing.T) {
	c, err := NewOrthographicCamera(-1, 1, -1, 1, -1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if v := c.GetView(); v != math.NewMat4Identity() {
		t.Fatalf("view at origin = %v, want identity", v)
	}
	if c.IsDirty {
		t.Fatal("camera still dirty after GetView")
	}

	c.SetPosition(math.NewVec3(0, 0, -1.8))
	if !c.IsDirty {
		t.Fatal("SetPosition did not mark the camera dirty")
	}
	v := c.GetView()
	if v.Data[14] != -1.8 {
		t.Errorf("view z translation = %v, want -1.8", v.Data[14])
	}
}

func TestMVPAppliesModelFirst(t *testing.T) {
	c, err := NewOrthographicCamera(-1, 1, -1, 1, -1, 1)
	if err != nil {
		t.Fatal(err)
	}
	c.SetPosition(math.NewVec3(0.5, 0, 0))
	model := math.NewMat4Translation(math.NewVec3(0.25, 0, 0))

	got := math.NewVec3Zero().Transform(c.MVP(model))
	if want := math.NewVec3(0.75, 0, 0); !got.Compare(want, 1e-6) {
		t.Errorf("origin -> %v, want %v", got, want)
	}
}

func TestDegenerateVolume(t *testing.T) {
	if _, err := NewOrthographicCamera(0, 0, 1, 0, -10, 10); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("zero width: err = %v, want ErrInvalidParameter", err)
	}
	c, _ := NewOrthographicCamera(0, 1, 1, 0, -10, 10)
	if err := c.SetVolume(0, 1, 1, 0, 3, 3); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("near == far: err = %v, want ErrInvalidParameter", err)
	}
	if c.Near != -10 || c.Far != 10 {
		t.Errorf("rejected volume changed the camera: near %v far %v", c.Near, c.Far)
	}
}
