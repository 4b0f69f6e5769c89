package particle

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidConfig is returned by New when a configuration cannot be simulated.
var ErrInvalidConfig = errors.New("invalid particle config")

// Particle is a single simulated particle in the system's local space.
type Particle struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Age      float64
	Lifetime float64
	Size     float64
	Rotation float64 // 度
	Color    Color
}

// Alpha fades linearly from 1 at spawn to 0 at end of life.
func (p *Particle) Alpha() float64 {
	if p.Lifetime <= 0 {
		return 0
	}
	return 1 - math.Min(p.Age/p.Lifetime, 1)
}

// System is one running particle effect.
//
// Position, Rotation (Euler radians) and Scale form the system's world
// transform. A system whose Scale is zero is inert: it stays attached and keeps
// ageing existing particles but emits nothing new.
type System struct {
	Position mgl64.Vec3
	Rotation mgl64.Vec3
	Scale    mgl64.Vec3
	Visible  bool

	cfg       Config
	rng       *rand.Rand
	particles []Particle
	elapsed   float64
	emitAccum float64
	emitting  bool
}

// New creates a particle system from cfg. The seed drives every random sample,
// so two systems with the same config and seed evolve identically.
func New(cfg Config, seed int64) (*System, error) {
	if cfg.MaxParticles <= 0 {
		return nil, fmt.Errorf("%w: max particles must be positive, got %d", ErrInvalidConfig, cfg.MaxParticles)
	}
	if math.IsNaN(cfg.RateOverTime) || math.IsInf(cfg.RateOverTime, 0) || cfg.RateOverTime < 0 {
		return nil, fmt.Errorf("%w: rate over time %v", ErrInvalidConfig, cfg.RateOverTime)
	}
	if !cfg.Looping && cfg.Duration <= 0 {
		return nil, fmt.Errorf("%w: non-looping system needs a positive duration", ErrInvalidConfig)
	}

	return &System{
		Scale:     mgl64.Vec3{1, 1, 1},
		Visible:   true,
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(seed)),
		particles: make([]Particle, 0, cfg.MaxParticles),
		emitting:  true,
	}, nil
}

// Config returns the configuration the system was created with.
func (s *System) Config() Config {
	return s.cfg
}

// Particles returns the live particles. The slice is owned by the system and is
// only valid until the next Update.
func (s *System) Particles() []Particle {
	return s.particles
}

// ActiveCount returns the number of live particles.
func (s *System) ActiveCount() int {
	return len(s.particles)
}

// IsInert reports whether the system has zero scale.
func (s *System) IsInert() bool {
	return s.Scale == (mgl64.Vec3{})
}

// IsEmitting reports whether the system will spawn particles on the next Update.
func (s *System) IsEmitting() bool {
	return s.emitting && !s.IsInert()
}

// Restart clears all particles and starts a fresh emission cycle.
func (s *System) Restart() {
	s.particles = s.particles[:0]
	s.elapsed = 0
	s.emitAccum = 0
	s.emitting = true
}

// Update advances the simulation by dt seconds.
func (s *System) Update(dt float64) {
	if dt <= 0 {
		return
	}

	// 更新存活粒子，原地压缩已死亡的粒子
	alive := s.particles[:0]
	for i := range s.particles {
		p := s.particles[i]
		p.Age += dt
		if p.Age >= p.Lifetime {
			continue
		}
		p.Velocity[1] -= s.cfg.Gravity * dt
		p.Position = p.Position.Add(p.Velocity.Mul(dt))
		alive = append(alive, p)
	}
	s.particles = alive

	if !s.IsEmitting() {
		return
	}

	s.emitAccum += s.cfg.RateOverTime * dt
	count := int(s.emitAccum)
	s.emitAccum -= float64(count)
	for i := 0; i < count && len(s.particles) < s.cfg.MaxParticles; i++ {
		s.particles = append(s.particles, s.spawn())
	}

	s.elapsed += dt
	if s.cfg.Duration > 0 && s.elapsed >= s.cfg.Duration {
		if s.cfg.Looping {
			s.elapsed = math.Mod(s.elapsed, s.cfg.Duration)
		} else {
			s.emitting = false
		}
	}
}

func (s *System) spawn() Particle {
	dir := s.randomDirection()

	var pos mgl64.Vec3
	if s.cfg.Shape.Kind == ShapeSphere && s.cfg.Shape.Radius > 0 {
		// 立方根保证球体内均匀分布
		r := s.cfg.Shape.Radius * math.Cbrt(s.rng.Float64())
		pos = dir.Mul(r)
	}

	speed := RandomInRange(s.rng, s.cfg.StartSpeed.Min, s.cfg.StartSpeed.Max)
	c := s.cfg.StartColor
	return Particle{
		Position: pos,
		Velocity: dir.Mul(speed),
		Lifetime: RandomInRange(s.rng, s.cfg.StartLifetime.Min, s.cfg.StartLifetime.Max),
		Size:     RandomInRange(s.rng, s.cfg.StartSize.Min, s.cfg.StartSize.Max),
		Rotation: RandomInRange(s.rng, s.cfg.StartRotation.Min, s.cfg.StartRotation.Max),
		Color: Color{
			R: RandomInRange(s.rng, c.Min.R, c.Max.R),
			G: RandomInRange(s.rng, c.Min.G, c.Max.G),
			B: RandomInRange(s.rng, c.Min.B, c.Max.B),
		},
	}
}

func (s *System) randomDirection() mgl64.Vec3 {
	z := 2*s.rng.Float64() - 1
	theta := 2 * math.Pi * s.rng.Float64()
	r := math.Sqrt(1 - z*z)
	return mgl64.Vec3{r * math.Cos(theta), r * math.Sin(theta), z}
}

// WorldPosition maps a particle's local position into world space using the
// system's Scale, Rotation and Position.
func (s *System) WorldPosition(p *Particle) mgl64.Vec3 {
	local := mgl64.Vec3{
		p.Position[0] * s.Scale[0],
		p.Position[1] * s.Scale[1],
		p.Position[2] * s.Scale[2],
	}
	if s.Rotation != (mgl64.Vec3{}) {
		q := mgl64.AnglesToQuat(s.Rotation[0], s.Rotation[1], s.Rotation[2], mgl64.XYZ)
		local = q.Rotate(local)
	}
	return local.Add(s.Position)
}
