package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a perspective camera looking down its local -Z axis.
type Camera struct {
	Position   mgl64.Vec3
	Fov        float64 // vertical field of view in degrees
	Aspect     float64
	Quaternion mgl64.Quat
	Near       float64
	Far        float64
}

// NewPerspectiveCamera creates a camera at position with identity orientation.
func NewPerspectiveCamera(fov, aspect float64, position mgl64.Vec3) *Camera {
	return &Camera{
		Position:   position,
		Fov:        fov,
		Aspect:     aspect,
		Quaternion: mgl64.QuatIdent(),
		Near:       0.1,
		Far:        1000,
	}
}

func (c *Camera) aspectOrOne() float64 {
	if c.Aspect == 0 {
		return 1
	}
	return c.Aspect
}

// ViewMatrix returns the world-to-camera transform.
func (c *Camera) ViewMatrix() mgl64.Mat4 {
	rot := c.Quaternion.Inverse().Mat4()
	p := c.Position
	return rot.Mul4(mgl64.Translate3D(-p.X(), -p.Y(), -p.Z()))
}

// ProjectionMatrix returns the perspective projection for the camera.
func (c *Camera) ProjectionMatrix() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.Fov), c.aspectOrOne(), c.Near, c.Far)
}

// Project converts a world-space point to screen coordinates (origin top-left).
// visible is false when the point lies behind the camera.
func (c *Camera) Project(p mgl64.Vec3, width, height int) (x, y float64, visible bool) {
	view := c.ViewMatrix()
	viewPos := view.Mul4x1(p.Vec4(1))
	if viewPos.Z() >= -c.Near {
		return 0, 0, false
	}

	win := mgl64.Project(p, view, c.ProjectionMatrix(), 0, 0, width, height)
	// mgl64.Project 使用 OpenGL 窗口坐标（原点在左下角）
	return win.X(), float64(height) - win.Y(), true
}

// PixelsPerUnit returns how many screen pixels one world unit spans at depth.
func (c *Camera) PixelsPerUnit(depth float64, screenHeight int) float64 {
	visible := VisibleHeightAtZDepth(c, depth)
	if visible == 0 {
		return 0
	}
	return float64(screenHeight) / visible
}

// Box3 is an axis-aligned bounding box.
type Box3 struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// EmptyBox3 returns a box that contains nothing; expanding it by any point yields that point.
func EmptyBox3() Box3 {
	inf := math.Inf(1)
	return Box3{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box has no extent on some axis.
func (b Box3) IsEmpty() bool {
	return b.Max.X() < b.Min.X() || b.Max.Y() < b.Min.Y() || b.Max.Z() < b.Min.Z()
}

// ExpandByPoint grows the box to include p.
func (b Box3) ExpandByPoint(p mgl64.Vec3) Box3 {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
	return b
}

// Union returns the smallest box containing both b and o.
func (b Box3) Union(o Box3) Box3 {
	if o.IsEmpty() {
		return b
	}
	return b.ExpandByPoint(o.Min).ExpandByPoint(o.Max)
}

// Size returns the extent of the box on each axis (zero for an empty box).
func (b Box3) Size() mgl64.Vec3 {
	if b.IsEmpty() {
		return mgl64.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b Box3) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}
