// Package app 提供作品集应用的核心包装器
//
// 该包将初始化逻辑从 main 包提取出来，使其可以被桌面端和移动端共用。
// 桌面端通过 main.go 调用 NewApp()，移动端通过 mobile/mobile.go 调用。
package app

import (
	"fmt"
	"image/color"
	"io"
	"log"

	"github.com/decker502/dragonfolio/pkg/config"
	"github.com/decker502/dragonfolio/pkg/embedded"
	"github.com/decker502/dragonfolio/pkg/favicon"
	"github.com/decker502/dragonfolio/pkg/game"
	"github.com/decker502/dragonfolio/pkg/scenes"
	"github.com/decker502/dragonfolio/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/quasilyte/gdata/v2"
)

// 配置文件路径（嵌入的 data 文件系统）
const (
	SceneConfigPath     = "data/scene.yaml"
	LinksConfigPath     = "data/links.yaml"
	ParticlePresetsPath = "data/particles.yaml"
)

// AppName gdata 存储使用的应用名
const AppName = "dragonfolio"

// sampleRate 音频采样率
const sampleRate = 48000

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// DownloadDir download/contact 链接的保存目录，为空时使用平台默认下载目录
	DownloadDir string
	// OfflineIcons 不获取站点图标
	OfflineIcons bool
}

// Configs 从 data 文件系统加载的全部配置
type Configs struct {
	Scene   *config.SceneConfig
	Links   *config.LinksConfig
	Presets *config.ParticlePresets // 文件不存在时为 nil
}

// LoadConfigs 读取并校验嵌入的配置文件
// 粒子预设是可选的，其余文件缺失或非法都会返回错误
func LoadConfigs() (*Configs, error) {
	data, err := embedded.ReadFile(SceneConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", SceneConfigPath, err)
	}
	sceneCfg, err := config.ParseSceneConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", SceneConfigPath, err)
	}

	data, err = embedded.ReadFile(LinksConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", LinksConfigPath, err)
	}
	linksCfg, err := config.ParseLinksConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", LinksConfigPath, err)
	}

	cfgs := &Configs{Scene: sceneCfg, Links: linksCfg}
	if embedded.Exists(ParticlePresetsPath) {
		data, err = embedded.ReadFile(ParticlePresetsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", ParticlePresetsPath, err)
		}
		if cfgs.Presets, err = config.ParseParticlePresets(data); err != nil {
			return nil, fmt.Errorf("%s: %w", ParticlePresetsPath, err)
		}
	}
	return cfgs, nil
}

// App 是应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	sceneManager             *game.SceneManager
	configs                  *Configs
	verbose                  bool
	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// NewApp 创建并初始化应用
//
// 调用此函数前，必须先调用 embedded.Init() 初始化资源文件系统。
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	configs, err := LoadConfigs()
	if err != nil {
		return nil, fmt.Errorf("配置加载失败: %w", err)
	}
	log.Printf("[Config] Loaded %d categories and %d links", len(configs.Links.AllCategories()), len(configs.Links.Links))

	// 初始化音频上下文
	audioContext := audio.NewContext(sampleRate)

	// 创建资源管理器
	resourceManager := game.NewResourceManager(sampleRate)

	// 设置存储不可用时退回到内存设置
	if err := utils.EnsureStorageDir(); err != nil {
		log.Printf("[App] Warning: failed to prepare storage dir: %v", err)
	} else if path := utils.StoragePath(); path != "" {
		log.Printf("[App] Storage path: %s", path)
	}
	gdataManager, err := gdata.Open(gdata.Config{AppName: AppName})
	if err != nil {
		log.Printf("[App] Warning: gdata unavailable, settings will not persist: %v", err)
		gdataManager = nil
	}
	settingsManager := game.NewSettingsManager(gdataManager)
	audioManager := game.NewAudioManager(audioContext, settingsManager)
	log.Printf("[App] AudioManager initialized")

	var fetcher *favicon.Fetcher
	if !cfg.OfflineIcons {
		fetcher = favicon.NewFetcher(favicon.Options{})
	}

	downloadDir := cfg.DownloadDir
	if downloadDir == "" {
		downloadDir = utils.DefaultDownloadDir()
	}
	log.Printf("[App] Download dir: %s", downloadDir)

	sceneManager := game.NewSceneManager()
	sceneManager.SwitchTo(scenes.NewPortfolioScene(scenes.PortfolioSceneOptions{
		Scene:     configs.Scene,
		Links:     configs.Links,
		Presets:   configs.Presets,
		Loader:    resourceManager,
		Settings:  settingsManager,
		Audio:     audioManager,
		Navigator: game.NewNavigator(downloadDir),
		Favicons:  fetcher,
	}))

	return &App{
		sceneManager: sceneManager,
		configs:      configs,
		verbose:      cfg.Verbose,
	}, nil
}

// Update 更新逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			w := a.configs.Scene.Window
			ebiten.SetWindowSize(w.Width, w.Height)
			log.Printf("[App] Delayed SetWindowSize(%d, %d)", w.Width, w.Height)
			a.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		if ebiten.IsFullscreen() {
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			a.pendingWindowSizeReset = true
			a.windowSizeResetCountdown = 3
			log.Printf("[App] Exit fullscreen, will reset window size in 3 frames")
		} else {
			ebiten.SetFullscreen(true)
		}
	}

	deltaTime := 1.0 / float64(ebiten.TPS())
	a.sceneManager.Update(deltaTime)
	return nil
}

// Draw 绘制画面
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 用于控制全屏时的缩放和 letterbox 颜色
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 使用窗口的实际尺寸作为逻辑尺寸，场景按新尺寸重新布局
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth <= 0 || outsideHeight <= 0 {
		w := a.configs.Scene.Window
		return w.Width, w.Height
	}
	a.sceneManager.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

// Shutdown 释放当前场景
func (a *App) Shutdown() {
	a.sceneManager.Shutdown()
}

// WindowConfig 窗口配置
func (a *App) WindowConfig() config.WindowConfig {
	return a.configs.Scene.Window
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}
