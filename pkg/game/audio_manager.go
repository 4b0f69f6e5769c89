package game

import (
	"log"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// SoundFireball 火球发射音效ID
const SoundFireball = "fireball"

// defaultSoundVolume 无设置管理器时的音效音量
const defaultSoundVolume = 0.8

// AudioManager 音频管理器
// 职责：
//   - 保存解码后的音效 PCM 数据
//   - 每次播放创建独立播放器，允许多个火球音效重叠
//   - 与 SettingsManager 联动（音效开关、音量）
type AudioManager struct {
	context         *audio.Context   // 可为 nil（无音频设备时静音）
	settingsManager *SettingsManager // 可为 nil

	mu      sync.Mutex
	sounds  map[string][]byte // 音效ID -> PCM
	playing []*audio.Player
}

// NewAudioManager 创建新的音频管理器
func NewAudioManager(ctx *audio.Context, sm *SettingsManager) *AudioManager {
	return &AudioManager{
		context:         ctx,
		settingsManager: sm,
		sounds:          make(map[string][]byte),
	}
}

// RegisterSound 注册已解码的音效（16 位立体声 PCM）
func (am *AudioManager) RegisterSound(soundID string, pcm []byte) {
	am.mu.Lock()
	defer am.mu.Unlock()
	if len(pcm) == 0 {
		delete(am.sounds, soundID)
		return
	}
	am.sounds[soundID] = pcm
}

// HasSound 检查音效是否已注册
func (am *AudioManager) HasSound(soundID string) bool {
	am.mu.Lock()
	defer am.mu.Unlock()
	_, ok := am.sounds[soundID]
	return ok
}

// PlaySound 播放音效
//
// 返回：
//   - bool: 是否成功播放
func (am *AudioManager) PlaySound(soundID string) bool {
	if am.settingsManager != nil && !am.settingsManager.GetSettings().SoundEnabled {
		return false // 音效已禁用
	}
	if am.context == nil {
		return false
	}

	am.mu.Lock()
	defer am.mu.Unlock()

	pcm, ok := am.sounds[soundID]
	if !ok {
		log.Printf("[AudioManager] Warning: Sound not found: %s", soundID)
		return false
	}

	am.pruneLocked()

	player := am.context.NewPlayerFromBytes(pcm)
	player.SetVolume(am.getSoundVolume())
	player.Play()
	am.playing = append(am.playing, player)
	return true
}

// pruneLocked 关闭已播放完毕的播放器
func (am *AudioManager) pruneLocked() {
	alive := am.playing[:0]
	for _, p := range am.playing {
		if p.IsPlaying() {
			alive = append(alive, p)
			continue
		}
		if err := p.Close(); err != nil {
			log.Printf("[AudioManager] Warning: Failed to close player: %v", err)
		}
	}
	for i := len(alive); i < len(am.playing); i++ {
		am.playing[i] = nil
	}
	am.playing = alive
}

// GetSoundVolume 获取当前音效音量
func (am *AudioManager) GetSoundVolume() float64 {
	return am.getSoundVolume()
}

// getSoundVolume 获取音效音量设置
func (am *AudioManager) getSoundVolume() float64 {
	if am.settingsManager != nil {
		return am.settingsManager.GetSettings().SoundVolume
	}
	return defaultSoundVolume
}

// StopAll 停止并关闭所有正在播放的音效
func (am *AudioManager) StopAll() {
	am.mu.Lock()
	defer am.mu.Unlock()
	for _, p := range am.playing {
		p.Pause()
		_ = p.Close()
	}
	am.playing = nil
}
