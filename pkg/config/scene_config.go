package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// 场景默认参数
const (
	DefaultWindowTitle        = "Dragonfolio"
	DefaultWindowWidth        = 1280
	DefaultWindowHeight       = 720
	DefaultCameraFov          = 75.0
	DefaultDragonWidth        = 6.0
	DefaultMaxFireballs       = 5
	DefaultRotationDurationMs = 800
	DefaultFireballSpeed      = 18.0 // 世界单位/秒
	DefaultEnvironmentScale   = 1.0
)

// 默认资源路径（相对于资源根目录）
const (
	DefaultFireModelPath     = "assets/models/fire_animation.glb"
	DefaultFireTexturePath   = "assets/textures/flame.webp"
	DefaultFireballSoundPath = "assets/sounds/Fireball.wav"
	DefaultCrateModelPath    = "assets/models/CrateExplode.glb"
	DefaultDragonModelPath   = "assets/models/Dragon.glb"
)

// SceneConfig 场景配置（data/scene.yaml）
type SceneConfig struct {
	Window WindowConfig `yaml:"window"`
	Camera CameraConfig `yaml:"camera"`
	Scene  SceneOptions `yaml:"scene"`
	Assets AssetPaths   `yaml:"assets"`
}

// WindowConfig 窗口配置
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// CameraConfig 透视相机配置
type CameraConfig struct {
	Fov      float64    `yaml:"fov"`      // 垂直视角（度）
	Position [3]float64 `yaml:"position"` // 相机世界坐标
}

// SceneOptions 场景布局与火球参数
type SceneOptions struct {
	EnvironmentScale   float64    `yaml:"environmentScale"`
	ZDepth             float64    `yaml:"zDepth"`      // 箱子所在的 Z 平面
	DragonWidth        float64    `yaml:"dragonWidth"` // 中央龙模型的宽度（世界单位）
	MaxFireballs       int        `yaml:"maxFireballs"`
	MouthOffset        [3]float64 `yaml:"mouthOffset"` // 龙嘴相对龙模型的局部偏移
	RotationDurationMs int        `yaml:"rotationDurationMs"`
	FireballSpeed      float64    `yaml:"fireballSpeed"`
}

// AssetPaths 资源文件路径
type AssetPaths struct {
	FireModel     string `yaml:"fireModel"`
	FireTexture   string `yaml:"fireTexture"`
	FireballSound string `yaml:"fireballSound"`
	CrateModel    string `yaml:"crateModel"`
	DragonModel   string `yaml:"dragonModel"`
}

// DefaultSceneConfig 返回内置默认场景配置
func DefaultSceneConfig() *SceneConfig {
	cfg := &SceneConfig{
		Camera: CameraConfig{Position: [3]float64{0, 2, 20}},
		Scene:  SceneOptions{MouthOffset: [3]float64{0, 3, 0.5}},
	}
	applySceneDefaults(cfg)
	return cfg
}

// LoadSceneConfig 从YAML文件加载场景配置
func LoadSceneConfig(path string) (*SceneConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene config file %s: %w", path, err)
	}
	cfg, err := ParseSceneConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseSceneConfig 解析场景配置（用于嵌入资源）
func ParseSceneConfig(data []byte) (*SceneConfig, error) {
	var cfg SceneConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse scene config YAML: %w", err)
	}

	applySceneDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scene config: %w", err)
	}
	return &cfg, nil
}

// applySceneDefaults 为缺失的可选字段设置默认值
func applySceneDefaults(cfg *SceneConfig) {
	if cfg.Window.Title == "" {
		cfg.Window.Title = DefaultWindowTitle
	}
	if cfg.Window.Width == 0 {
		cfg.Window.Width = DefaultWindowWidth
	}
	if cfg.Window.Height == 0 {
		cfg.Window.Height = DefaultWindowHeight
	}
	if cfg.Camera.Fov == 0 {
		cfg.Camera.Fov = DefaultCameraFov
	}
	if cfg.Scene.EnvironmentScale == 0 {
		cfg.Scene.EnvironmentScale = DefaultEnvironmentScale
	}
	if cfg.Scene.DragonWidth == 0 {
		cfg.Scene.DragonWidth = DefaultDragonWidth
	}
	if cfg.Scene.MaxFireballs == 0 {
		cfg.Scene.MaxFireballs = DefaultMaxFireballs
	}
	if cfg.Scene.RotationDurationMs == 0 {
		cfg.Scene.RotationDurationMs = DefaultRotationDurationMs
	}
	if cfg.Scene.FireballSpeed == 0 {
		cfg.Scene.FireballSpeed = DefaultFireballSpeed
	}

	a := &cfg.Assets
	if a.FireModel == "" {
		a.FireModel = DefaultFireModelPath
	}
	if a.FireTexture == "" {
		a.FireTexture = DefaultFireTexturePath
	}
	if a.FireballSound == "" {
		a.FireballSound = DefaultFireballSoundPath
	}
	if a.CrateModel == "" {
		a.CrateModel = DefaultCrateModelPath
	}
	if a.DragonModel == "" {
		a.DragonModel = DefaultDragonModelPath
	}
}

// Validate 验证场景配置的合法性
func (c *SceneConfig) Validate() error {
	if c.Window.Width < 0 || c.Window.Height < 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Camera.Fov <= 0 || c.Camera.Fov >= 180 {
		return fmt.Errorf("camera fov must be in (0, 180), got %v", c.Camera.Fov)
	}
	if c.Scene.MaxFireballs < 0 {
		return fmt.Errorf("maxFireballs must be positive, got %d", c.Scene.MaxFireballs)
	}
	if c.Scene.DragonWidth < 0 {
		return fmt.Errorf("dragonWidth must not be negative, got %v", c.Scene.DragonWidth)
	}
	if c.Scene.RotationDurationMs < 0 {
		return fmt.Errorf("rotationDurationMs must not be negative, got %d", c.Scene.RotationDurationMs)
	}
	if c.Scene.FireballSpeed < 0 {
		return fmt.Errorf("fireballSpeed must not be negative, got %v", c.Scene.FireballSpeed)
	}
	return nil
}
