package game

import (
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

// SceneManager controls which scene is active.
// It ensures only one scene's Update and Draw methods are called at any given time.
type SceneManager struct {
	currentScene Scene
}

// NewSceneManager creates and returns a new SceneManager instance.
// The manager starts with no active scene; use SwitchTo to set the initial scene.
func NewSceneManager() *SceneManager {
	return &SceneManager{}
}

// SwitchTo changes the active scene to the provided scene.
// The previous scene is disposed if it implements Disposable.
func (sm *SceneManager) SwitchTo(scene Scene) {
	if sm.currentScene == scene {
		return
	}
	sm.disposeCurrent()
	sm.currentScene = scene
}

// GetCurrentScene 返回当前活动的场景，没有时返回 nil
func (sm *SceneManager) GetCurrentScene() Scene {
	return sm.currentScene
}

// Shutdown 释放当前场景，程序退出时调用
func (sm *SceneManager) Shutdown() {
	sm.disposeCurrent()
	sm.currentScene = nil
}

func (sm *SceneManager) disposeCurrent() {
	if d, ok := sm.currentScene.(Disposable); ok {
		log.Printf("[SceneManager] Disposing scene %T", sm.currentScene)
		d.Dispose()
	}
}

// Update updates the currently active scene.
// If no scene is active, this method does nothing.
func (sm *SceneManager) Update(deltaTime float64) {
	if sm.currentScene != nil {
		sm.currentScene.Update(deltaTime)
	}
}

// Draw renders the currently active scene to the provided screen.
// If no scene is active, this method does nothing.
func (sm *SceneManager) Draw(screen *ebiten.Image) {
	if sm.currentScene != nil {
		sm.currentScene.Draw(screen)
	}
}

// Layout 把新的屏幕尺寸转发给实现了 Resizable 的场景
func (sm *SceneManager) Layout(width, height int) {
	if r, ok := sm.currentScene.(Resizable); ok {
		r.Resize(width, height)
	}
}
