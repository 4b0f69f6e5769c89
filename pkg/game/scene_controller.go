package game

import (
	"log"
	"sync"
	"time"

	"github.com/decker502/dragonfolio/pkg/config"
	"github.com/decker502/dragonfolio/pkg/utils"
	"github.com/go-gl/mathgl/mgl64"
)

// 场景初始化各步骤的提示文本
const (
	MessageSettingUpScene = "Setting up the scene..."
	MessageAwakening      = "Awakening the dragon..."
	MessageFinalizing     = "Finalizing portfolio..."
)

// mobileAspectThreshold 宽度小于高度的 1.2 倍时视为移动端布局
// 移动端构建或设置了 DRAGONFOLIO_MOBILE_EMULATE=1 时始终使用移动端布局
const mobileAspectThreshold = 1.2

// SceneControllerOptions 场景控制器参数
type SceneControllerOptions struct {
	Scene   config.SceneOptions
	Paths   config.AssetPaths
	Presets *config.ParticlePresets

	Loader  AssetLoader
	Factory ParticleFactory
	Audio   *AudioManager // 可为 nil
	Sleep   Sleeper       // 为 nil 时使用 time.Sleep
	Now     func() time.Time

	// Navigate 打开 url/download/contact 链接，为 nil 时使用 NewNavigator(".")
	Navigate func(url string, linkType config.LinkType)

	OnLoadingStateChange  func(loading bool, progress float64, message string)
	OnCategoryInteraction func(category string)
}

// SystemStats 调试用的系统统计
type SystemStats struct {
	Fireballs FireballStats
	Assets    LoadingStats
	Pool      PoolStats
	Loading   LoadingState
	Crates    int
}

// SceneController 组合资源管理、箱子控制和火球系统
//
// 场景层只和它交互：点击链接、火球命中、相机变化都经由这里转发。
type SceneController struct {
	opts      SceneControllerOptions
	assets    *AssetManager
	crates    *CrateController
	fireballs *FireballSystem

	mu          sync.Mutex
	camera      *utils.Camera
	dragon      Emitter
	isMobile    bool
	subscribers map[int]func()
	nextSubID   int
}

// NewSceneController 创建场景控制器
func NewSceneController(opts SceneControllerOptions) *SceneController {
	defaults := config.DefaultSceneConfig().Scene
	if opts.Scene.MaxFireballs <= 0 {
		opts.Scene.MaxFireballs = defaults.MaxFireballs
	}
	if opts.Scene.RotationDurationMs <= 0 {
		opts.Scene.RotationDurationMs = defaults.RotationDurationMs
	}
	if opts.Scene.MouthOffset == ([3]float64{}) {
		opts.Scene.MouthOffset = defaults.MouthOffset
	}
	if opts.Scene.DragonWidth <= 0 {
		opts.Scene.DragonWidth = defaults.DragonWidth
	}
	if opts.Scene.EnvironmentScale <= 0 {
		opts.Scene.EnvironmentScale = defaults.EnvironmentScale
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	if opts.Navigate == nil {
		opts.Navigate = NewNavigator(".").Navigate
	}

	sc := &SceneController{
		opts:        opts,
		subscribers: make(map[int]func()),
	}

	sc.assets = NewAssetManager(AssetManagerOptions{
		Loader:  opts.Loader,
		Factory: opts.Factory,
		Paths:   opts.Paths,
		Presets: opts.Presets,
		Now:     opts.Now,
		OnChange: func(s LoadingState) {
			if opts.OnLoadingStateChange != nil {
				opts.OnLoadingStateChange(s.Loading, s.Progress, s.Message)
			}
			sc.notify()
		},
	})

	sc.crates = NewCrateController(CrateControllerOptions{
		ZDepth:           opts.Scene.ZDepth,
		EnvironmentScale: opts.Scene.EnvironmentScale,
		DragonWidth:      opts.Scene.DragonWidth,
		Sleep:            opts.Sleep,
	})

	m := opts.Scene.MouthOffset
	sc.fireballs = NewFireballSystem(FireballSystemOptions{
		MaxFireballs:     opts.Scene.MaxFireballs,
		MouthOffset:      mgl64.Vec3{m[0], m[1], m[2]},
		RotationDuration: time.Duration(opts.Scene.RotationDurationMs) * time.Millisecond,
		Sleep:            opts.Sleep,
		OnUpdate:         sc.notify,
	})

	return sc
}

// Initialize 按固定顺序执行加载步骤
// 火焰资源加载失败不会中断初始化，场景步骤总会完成
func (sc *SceneController) Initialize() {
	sc.assets.StartLoading()
	sc.assets.CompleteStep(StepGround, MessageSettingUpScene)
	sc.assets.CompleteStep(StepDragon, MessageAwakening)
	sc.assets.PreloadFireAssets()
	if pcm := sc.assets.GetAssets().FireballSound; sc.opts.Audio != nil && pcm != nil {
		sc.opts.Audio.RegisterSound(SoundFireball, pcm)
	}
	sc.assets.CompleteStep(StepScene, MessageFinalizing)
	log.Printf("[SceneController] Initialization finished")
}

// UpdateCamera 更新相机和屏幕尺寸，重新计算移动端标志
func (sc *SceneController) UpdateCamera(cam *utils.Camera, width, height int) {
	mobile := utils.IsMobile() || float64(width) < float64(height)*mobileAspectThreshold

	sc.mu.Lock()
	sc.camera = cam
	sc.isMobile = mobile
	sc.mu.Unlock()

	sc.crates.UpdateCamera(cam)
	sc.crates.SetMobile(mobile)
}

// SetDragonRef 设置发射火球的龙
func (sc *SceneController) SetDragonRef(dragon Emitter) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.dragon = dragon
}

// HandleLinkClick 龙转向目标并发射火球，会阻塞到旋转结束
// 未设置龙或没有空闲槽位时返回 false
func (sc *SceneController) HandleLinkClick(req FireballRequest) (int, bool) {
	sc.mu.Lock()
	dragon := sc.dragon
	sc.mu.Unlock()

	if dragon == nil {
		log.Printf("[SceneController] Warning: Dragon reference not set")
		return 0, false
	}
	req.Emitter = dragon

	id, ok := sc.fireballs.CreateFireball(req)
	if !ok {
		log.Printf("[SceneController] Warning: Failed to create fireball")
		return 0, false
	}
	if sc.opts.Audio != nil {
		sc.opts.Audio.PlaySound(SoundFireball)
	}
	return id, true
}

// HandleFireballComplete 火球到达目标后调用
func (sc *SceneController) HandleFireballComplete(id int) {
	sc.fireballs.CompleteFireball(id, CompletionHandlers{
		ExplodeCrate: func(crateID string) {
			log.Printf("[SceneController] Exploding crate: %s", crateID)
			go sc.crates.TriggerExplosion(crateID)
		},
	})
}

// OpenLink 通过导航器打开链接，供链接动作调用
func (sc *SceneController) OpenLink(url string, linkType config.LinkType) {
	sc.opts.Navigate(url, linkType)
}

// InteractCategory 通知分类交互回调，供分类动作调用
func (sc *SceneController) InteractCategory(category string) {
	if sc.opts.OnCategoryInteraction == nil {
		log.Printf("[SceneController] Warning: No category handler for %s", category)
		return
	}
	sc.opts.OnCategoryInteraction(category)
}

// TriggerCrateExplosion 直接触发箱子爆炸
func (sc *SceneController) TriggerCrateExplosion(crateID string) {
	sc.crates.TriggerExplosion(crateID)
}

// RegisterCrate 注册箱子
func (sc *SceneController) RegisterCrate(id string, handle CrateHandle, position mgl64.Vec3) {
	sc.crates.RegisterCrate(id, handle, position)
}

// UnregisterCrate 注销箱子
func (sc *SceneController) UnregisterCrate(id string) {
	sc.crates.UnregisterCrate(id)
}

// Subscribe 注册状态变化回调（火球激活、释放、加载进度），返回取消函数
func (sc *SceneController) Subscribe(fn func()) func() {
	sc.mu.Lock()
	id := sc.nextSubID
	sc.nextSubID++
	sc.subscribers[id] = fn
	sc.mu.Unlock()

	return func() {
		sc.mu.Lock()
		delete(sc.subscribers, id)
		sc.mu.Unlock()
	}
}

func (sc *SceneController) notify() {
	sc.mu.Lock()
	fns := make([]func(), 0, len(sc.subscribers))
	for _, fn := range sc.subscribers {
		fns = append(fns, fn)
	}
	sc.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// GetSystemStats 返回调试统计
func (sc *SceneController) GetSystemStats() SystemStats {
	return SystemStats{
		Fireballs: sc.fireballs.GetStats(),
		Assets:    sc.assets.GetStats(),
		Pool:      sc.assets.GetPoolStats(),
		Loading:   sc.assets.GetLoadingState(),
		Crates:    len(sc.crates.RegisteredCrateIDs()),
	}
}

// Dispose 清空火球并释放资源
func (sc *SceneController) Dispose() {
	sc.fireballs.ClearAll()
	sc.assets.Dispose()
	if sc.opts.Audio != nil {
		sc.opts.Audio.StopAll()
	}
}

// IsMobile 当前是否为移动端布局
func (sc *SceneController) IsMobile() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.isMobile
}

// CurrentCamera 返回最近一次设置的相机
func (sc *SceneController) CurrentCamera() *utils.Camera {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.camera
}

// CurrentDragon 返回当前的龙
func (sc *SceneController) CurrentDragon() Emitter {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.dragon
}

// GetActiveFireballs 返回飞行中的火球
func (sc *SceneController) GetActiveFireballs() []FireballData {
	return sc.fireballs.GetActiveFireballs()
}

// Assets 资源管理器
func (sc *SceneController) Assets() *AssetManager { return sc.assets }

// Crates 箱子控制器
func (sc *SceneController) Crates() *CrateController { return sc.crates }

// Fireballs 火球系统
func (sc *SceneController) Fireballs() *FireballSystem { return sc.fireballs }
