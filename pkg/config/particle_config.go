package config

import (
	"fmt"
	"os"

	"github.com/decker502/dragonfolio/internal/particle"
	"gopkg.in/yaml.v3"
)

// ParticlePreset 粒子效果覆盖参数（data/particles.yaml）
//
// 数值字段使用字符串，支持固定值 "0.5" 和范围 "[0.6 0.7]"。
// 空字段保留内置默认值。所有数值在应用时仍会经过安全边界钳制。
type ParticlePreset struct {
	Duration     string    `yaml:"duration"`
	Lifetime     string    `yaml:"lifetime"`
	Speed        string    `yaml:"speed"`
	Size         string    `yaml:"size"`
	Rotation     string    `yaml:"rotation"`
	Gravity      string    `yaml:"gravity"`
	MaxParticles string    `yaml:"maxParticles"`
	Rate         string    `yaml:"rate"`
	Radius       string    `yaml:"radius"`
	ColorMin     []float64 `yaml:"colorMin"`
	ColorMax     []float64 `yaml:"colorMax"`
}

// ParticlePresets 火球与爆炸两种效果的覆盖配置
type ParticlePresets struct {
	Fireball  ParticlePreset `yaml:"fireball"`
	Explosion ParticlePreset `yaml:"explosion"`
}

// LoadParticlePresets 从YAML文件加载粒子预设
func LoadParticlePresets(path string) (*ParticlePresets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read particle presets file %s: %w", path, err)
	}
	presets, err := ParseParticlePresets(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return presets, nil
}

// ParseParticlePresets 解析粒子预设（用于嵌入资源）
func ParseParticlePresets(data []byte) (*ParticlePresets, error) {
	var presets ParticlePresets
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("failed to parse particle presets YAML: %w", err)
	}
	if err := presets.Validate(); err != nil {
		return nil, fmt.Errorf("invalid particle presets: %w", err)
	}
	return &presets, nil
}

// Validate 检查所有字段的语法
func (p *ParticlePresets) Validate() error {
	if err := p.Fireball.Validate(); err != nil {
		return fmt.Errorf("fireball: %w", err)
	}
	if err := p.Explosion.Validate(); err != nil {
		return fmt.Errorf("explosion: %w", err)
	}
	return nil
}

// Validate 检查预设中每个数值字段都能解析
func (p *ParticlePreset) Validate() error {
	fields := map[string]string{
		"duration":     p.Duration,
		"lifetime":     p.Lifetime,
		"speed":        p.Speed,
		"size":         p.Size,
		"rotation":     p.Rotation,
		"gravity":      p.Gravity,
		"maxParticles": p.MaxParticles,
		"rate":         p.Rate,
		"radius":       p.Radius,
	}
	for name, value := range fields {
		if _, _, err := particle.ParseRange(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if len(p.ColorMin) != 0 && len(p.ColorMin) != 3 {
		return fmt.Errorf("colorMin must have 3 channels, got %d", len(p.ColorMin))
	}
	if len(p.ColorMax) != 0 && len(p.ColorMax) != 3 {
		return fmt.Errorf("colorMax must have 3 channels, got %d", len(p.ColorMax))
	}
	return nil
}
