package game

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Scene represents a screen of the application (the portfolio scene).
// Each scene has its own update and rendering logic.
type Scene interface {
	// Update updates the scene logic based on the elapsed time.
	// deltaTime is the time elapsed since the last update in seconds.
	Update(deltaTime float64)

	// Draw renders the scene to the provided screen.
	Draw(screen *ebiten.Image)
}

// Disposable 是一个可选接口，场景被替换或程序退出时释放资源
//
// 实现此接口的场景会在以下时机被调用 Dispose()：
//   - SwitchTo 切换到其他场景
//   - 程序关闭（SceneManager.Shutdown）
type Disposable interface {
	Dispose()
}

// Resizable 是一个可选接口，窗口尺寸变化时由 SceneManager.Layout 通知场景
type Resizable interface {
	Resize(width, height int)
}
