package game

import (
	"fmt"
	"log"
	"sync"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// Settings 用户设置
type Settings struct {
	SoundEnabled bool    `yaml:"soundEnabled"` // 音效开关
	SoundVolume  float64 `yaml:"soundVolume"`  // 音效音量 0.0 ~ 1.0
	ShowDebug    bool    `yaml:"showDebug"`    // 显示调试信息（粒子池、火球统计）
}

// DefaultSettings 返回默认设置
func DefaultSettings() *Settings {
	return &Settings{
		SoundEnabled: true,
		SoundVolume:  0.8,
		ShowDebug:    false,
	}
}

// 存储路径常量
const (
	settingsObject   = "settings"
	settingsProperty = "global"
)

// SettingsManager 设置管理器
// 负责设置的加载、保存和内存管理
type SettingsManager struct {
	mu           sync.RWMutex
	gdataManager *gdata.Manager // 可为 nil（降级模式，仅内存设置）
	settings     Settings
}

// NewSettingsManager 创建新的设置管理器实例
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存设置）
func NewSettingsManager(gdataManager *gdata.Manager) *SettingsManager {
	sm := &SettingsManager{
		gdataManager: gdataManager,
		settings:     *DefaultSettings(),
	}

	// 加载失败不是致命错误，使用默认设置
	if err := sm.Load(); err != nil {
		log.Printf("[SettingsManager] Warning: Failed to load settings: %v (using defaults)", err)
	}
	return sm
}

// Load 从 gdata 加载设置
// 如果 gdataManager 为 nil 或数据不存在，使用默认设置
func (sm *SettingsManager) Load() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.gdataManager == nil || !sm.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		sm.settings = *DefaultSettings()
		return nil
	}

	data, err := sm.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		sm.settings = *DefaultSettings()
		return fmt.Errorf("failed to load settings: %w", err)
	}

	loaded := *DefaultSettings()
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		sm.settings = *DefaultSettings()
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	loaded.SoundVolume = clampVolume(loaded.SoundVolume)

	sm.settings = loaded
	log.Printf("[SettingsManager] Settings loaded successfully")
	return nil
}

// Save 保存设置到 gdata
// 降级模式下直接返回 nil
func (sm *SettingsManager) Save() error {
	sm.mu.RLock()
	settings := sm.settings
	sm.mu.RUnlock()

	if sm.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(&settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := sm.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	log.Printf("[SettingsManager] Settings saved successfully")
	return nil
}

// GetSettings 获取当前设置的副本
func (sm *SettingsManager) GetSettings() Settings {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.settings
}

// SetSoundVolume 设置音效音量，限制在 0.0 ~ 1.0
// 仅修改内存中的设置，需调用 Save() 持久化
func (sm *SettingsManager) SetSoundVolume(volume float64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.settings.SoundVolume = clampVolume(volume)
}

// SetSoundEnabled 设置音效开关
func (sm *SettingsManager) SetSoundEnabled(enabled bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.settings.SoundEnabled = enabled
}

// ToggleSound 切换音效开关并返回新状态
func (sm *SettingsManager) ToggleSound() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.settings.SoundEnabled = !sm.settings.SoundEnabled
	return sm.settings.SoundEnabled
}

// SetShowDebug 设置调试信息开关
func (sm *SettingsManager) SetShowDebug(show bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.settings.ShowDebug = show
}

// clampVolume 将音量值限制在 0.0 ~ 1.0 范围内
func clampVolume(volume float64) float64 {
	if volume < 0.0 {
		return 0.0
	}
	if volume > 1.0 {
		return 1.0
	}
	return volume
}
