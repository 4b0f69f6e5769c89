package game

import (
	"log"
	"math"

	"github.com/decker502/dragonfolio/internal/particle"
	"github.com/decker502/dragonfolio/pkg/config"
	"github.com/hajimehoshi/ebiten/v2"
)

// bound 数值的安全区间
type bound struct{ min, max float64 }

// particleBounds 每个字段允许的取值范围，超出则钳制
type particleBounds struct {
	duration     bound
	lifetime     bound
	speed        bound
	size         bound
	rotation     bound
	gravity      bound
	maxParticles bound
	rate         bound
	radius       bound
}

var fireballBounds = particleBounds{
	duration:     bound{0.1, 10},
	lifetime:     bound{0.1, 5},
	speed:        bound{0, 10},
	size:         bound{0.1, 5},
	rotation:     bound{-360, 360},
	gravity:      bound{-10, 10},
	maxParticles: bound{50, 2000},
	rate:         bound{100, 5000},
	radius:       bound{0.1, 2},
}

var explosionBounds = particleBounds{
	duration:     bound{0.1, 10},
	lifetime:     bound{0.1, 5},
	speed:        bound{0, 20},
	size:         bound{0.1, 10},
	rotation:     bound{-360, 360},
	gravity:      bound{-10, 10},
	maxParticles: bound{50, 2000},
	rate:         bound{100, 5000},
	radius:       bound{0.1, 5},
}

// buildParticleConfig 以内置配置为回退值，应用预设覆盖后钳制所有数值
func buildParticleConfig(base particle.Config, preset config.ParticlePreset, b particleBounds, texture *ebiten.Image) particle.Config {
	cfg := base

	override := func(field, value string, dst *particle.Range) {
		r, ok, err := particle.ParseRange(value)
		if err != nil {
			log.Printf("[AssetManager] Warning: ignoring particle field %s: %v", field, err)
			return
		}
		if ok {
			*dst = r
		}
	}
	scalar := func(field, value string, dst *float64) {
		var r particle.Range
		r.Min = *dst
		override(field, value, &r)
		*dst = r.Min
	}

	override("lifetime", preset.Lifetime, &cfg.StartLifetime)
	override("speed", preset.Speed, &cfg.StartSpeed)
	override("size", preset.Size, &cfg.StartSize)
	override("rotation", preset.Rotation, &cfg.StartRotation)
	scalar("duration", preset.Duration, &cfg.Duration)
	scalar("gravity", preset.Gravity, &cfg.Gravity)
	scalar("rate", preset.Rate, &cfg.RateOverTime)
	scalar("radius", preset.Radius, &cfg.Shape.Radius)
	maxParticles := float64(cfg.MaxParticles)
	scalar("maxParticles", preset.MaxParticles, &maxParticles)

	if len(preset.ColorMin) == 3 {
		cfg.StartColor.Min = particle.Color{R: preset.ColorMin[0], G: preset.ColorMin[1], B: preset.ColorMin[2]}
	}
	if len(preset.ColorMax) == 3 {
		cfg.StartColor.Max = particle.Color{R: preset.ColorMax[0], G: preset.ColorMax[1], B: preset.ColorMax[2]}
	}

	// 所有数值经过安全钳制，NaN/Inf 回退到内置值
	cfg.Duration = particle.SafeValue(cfg.Duration, base.Duration, b.duration.min, b.duration.max)
	cfg.StartLifetime = particle.SafeRange(cfg.StartLifetime, base.StartLifetime, b.lifetime.min, b.lifetime.max)
	cfg.StartSpeed = particle.SafeRange(cfg.StartSpeed, base.StartSpeed, b.speed.min, b.speed.max)
	cfg.StartSize = particle.SafeRange(cfg.StartSize, base.StartSize, b.size.min, b.size.max)
	cfg.StartRotation = particle.SafeRange(cfg.StartRotation, base.StartRotation, b.rotation.min, b.rotation.max)
	cfg.Gravity = particle.SafeValue(cfg.Gravity, base.Gravity, b.gravity.min, b.gravity.max)
	cfg.RateOverTime = particle.SafeValue(cfg.RateOverTime, base.RateOverTime, b.rate.min, b.rate.max)
	cfg.Shape.Radius = particle.SafeValue(cfg.Shape.Radius, base.Shape.Radius, b.radius.min, b.radius.max)
	cfg.MaxParticles = int(math.Floor(particle.SafeValue(maxParticles, float64(base.MaxParticles), b.maxParticles.min, b.maxParticles.max)))

	c := cfg.StartColor
	cfg.StartColor.Min = particle.SafeColor(c.Min.R, c.Min.G, c.Min.B)
	cfg.StartColor.Max = particle.SafeColor(c.Max.R, c.Max.G, c.Max.B)

	cfg.Texture = texture
	return cfg
}
