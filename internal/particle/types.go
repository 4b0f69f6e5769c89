// Package particle is a small 3D particle engine for the portfolio scene.
//
// A System is created from a Config by New and simulated with Update. Systems
// carry their own transform (Position, Rotation, Scale, Visible) so they can be
// attached to the scene graph, pooled, and re-used without reallocation.
package particle

import "github.com/hajimehoshi/ebiten/v2"

// Range is a closed [Min, Max] interval sampled uniformly at spawn time.
type Range struct {
	Min float64
	Max float64
}

// Color is an RGB colour with channels in [0, 1].
type Color struct {
	R, G, B float64
}

// ColorRange is sampled per channel between Min and Max.
type ColorRange struct {
	Min Color
	Max Color
}

// ShapeKind selects the emitter volume.
type ShapeKind int

const (
	// ShapeSphere spawns particles inside a sphere and launches them radially.
	ShapeSphere ShapeKind = iota
	// ShapePoint spawns every particle at the emitter origin.
	ShapePoint
)

// Shape describes the emitter volume.
type Shape struct {
	Kind   ShapeKind
	Radius float64
}

// Renderer holds render-state hints for the draw pass.
type Renderer struct {
	Additive    bool // 叠加混合（火焰效果）
	Transparent bool
	DepthTest   bool
	DepthWrite  bool
}

// Config fully describes a particle effect.
type Config struct {
	Duration      float64 // emission cycle length in seconds
	Looping       bool
	StartLifetime Range // seconds
	StartSpeed    Range // world units per second
	StartSize     Range // world units
	StartRotation Range // degrees
	StartColor    ColorRange
	Gravity       float64 // world units per second², pulls towards -Y
	MaxParticles  int
	RateOverTime  float64 // particles per second
	Shape         Shape
	Renderer      Renderer

	// Texture is the sprite drawn for every particle. Nil draws nothing.
	Texture *ebiten.Image
}
