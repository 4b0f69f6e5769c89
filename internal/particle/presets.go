package particle

// 内置火焰预设，数值与资源加载器中的安全边界一致

// FireballConfig returns the flame trail attached to a flying fireball.
func FireballConfig() Config {
	return Config{
		Duration:      0.5,
		Looping:       true,
		StartLifetime: Range{Min: 0.6, Max: 0.7},
		StartSpeed:    Range{Min: 0.9, Max: 1.1},
		StartSize:     Range{Min: 0.8, Max: 1.2},
		StartRotation: Range{Min: -180, Max: 180},
		StartColor: ColorRange{
			Min: Color{R: 0.8, G: 0.3, B: 0.05},
			Max: Color{R: 1.0, G: 0.6, B: 0.1},
		},
		Gravity:      0,
		MaxParticles: 150,
		RateOverTime: 800,
		Shape:        Shape{Kind: ShapeSphere, Radius: 0.2},
		Renderer:     Renderer{Additive: true, Transparent: true, DepthTest: true},
	}
}

// ExplosionConfig returns the burst played when a crate is hit.
func ExplosionConfig() Config {
	return Config{
		Duration:      0.5,
		Looping:       true,
		StartLifetime: Range{Min: 0.2, Max: 0.5},
		StartSpeed:    Range{Min: 5, Max: 10},
		StartSize:     Range{Min: 1, Max: 2.5},
		StartRotation: Range{Min: -180, Max: 180},
		StartColor: ColorRange{
			Min: Color{R: 0.9, G: 0.2, B: 0.02},
			Max: Color{R: 1.0, G: 0.7, B: 0.1},
		},
		Gravity:      0.1,
		MaxParticles: 120,
		RateOverTime: 600,
		Shape:        Shape{Kind: ShapeSphere, Radius: 1.0},
		Renderer:     Renderer{Additive: true, Transparent: true, DepthTest: true},
	}
}
