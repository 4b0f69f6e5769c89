package game

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/decker502/dragonfolio/internal/particle"
	"github.com/decker502/dragonfolio/pkg/config"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/sync/errgroup"
)

// 加载步骤标识
const (
	StepFireAssets = "fireAssets"
	StepDragon     = "dragon"
	StepGround     = "ground"
	StepScene      = "scene"
)

// stepOrder 固定的加载步骤及其显示名称
var stepOrder = []struct {
	key  string
	name string
}{
	{StepFireAssets, "Interactive Elements"},
	{StepDragon, "Dragon Model"},
	{StepGround, "Scene Environment"},
	{StepScene, "Final Setup"},
}

// 加载提示文本
const (
	MessageReady        = "Ready"
	MessageInitializing = "Initializing portfolio..."
	MessageLoadingFire  = "Loading interactive elements..."
	MessageFireLoaded   = "Interactive elements loaded"
	MessageComplete     = "Welcome to my portfolio!"
)

// DefaultPoolSize 预热时每种粒子效果创建的实例数
const DefaultPoolSize = 5

// ParticleKind 粒子池类型
type ParticleKind string

const (
	ParticleFireball  ParticleKind = "fireball"
	ParticleExplosion ParticleKind = "explosion"
)

// LoadingState 加载状态快照
type LoadingState struct {
	Loading  bool
	Progress float64 // 0..100
	Message  string
	Errors   []string
}

// AssetLoadingStep 单个加载步骤
type AssetLoadingStep struct {
	Name   string
	Loaded bool
	Error  string
}

// LoadingStats 加载统计
type LoadingStats struct {
	Total   int
	Loaded  int
	Failed  int
	Pending int
}

// PoolStats 粒子池统计
type PoolStats struct {
	FireballAvailable  int
	FireballActive     int
	ExplosionAvailable int
	ExplosionActive    int
}

// PreloadedAssets 已加载的资源，未加载的字段为零值
type PreloadedAssets struct {
	FireModel               *Model
	FireTexture             *ebiten.Image
	FireballSound           []byte // 解码后的 PCM
	CrateModel              *Model
	DragonModel             *Model
	FireballParticleSystem  *particle.System
	ExplosionParticleSystem *particle.System
}

// AssetLoader 资源加载器，ResourceManager 实现了此接口
type AssetLoader interface {
	LoadModel(path string) (*Model, error)
	LoadTexture(path string) (*ebiten.Image, error)
	LoadSound(path string) ([]byte, error)
}

// ParticleFactory 根据配置和随机种子创建粒子系统
type ParticleFactory func(cfg particle.Config, seed int64) (*particle.System, error)

// AssetManagerOptions AssetManager 构造参数
type AssetManagerOptions struct {
	Loader   AssetLoader
	Factory  ParticleFactory         // 为 nil 时使用 particle.New
	Paths    config.AssetPaths       // 为空的路径使用默认值
	Presets  *config.ParticlePresets // 可选：覆盖内置粒子参数
	OnChange func(LoadingState)      // 每次状态变化时同步调用，收到的是副本
	Now      func() time.Time        // 为 nil 时使用 time.Now
}

type particlePool struct {
	available []*particle.System
	active    map[*particle.System]struct{}
}

// AssetManager 负责资源预加载、加载进度汇报和粒子系统对象池
//
// 所有状态由一把互斥锁保护；监听器调用在锁外进行。
type AssetManager struct {
	loader   AssetLoader
	factory  ParticleFactory
	paths    config.AssetPaths
	presets  *config.ParticlePresets
	onChange func(LoadingState)
	now      func() time.Time

	mu        sync.Mutex
	state     LoadingState
	steps     map[string]*AssetLoadingStep
	assets    PreloadedAssets
	fireCfg   *particle.Config
	explCfg   *particle.Config
	fireball  particlePool
	explosion particlePool
}

// NewAssetManager 创建资源管理器
func NewAssetManager(opts AssetManagerOptions) *AssetManager {
	am := &AssetManager{
		loader:   opts.Loader,
		factory:  opts.Factory,
		paths:    opts.Paths,
		presets:  opts.Presets,
		onChange: opts.OnChange,
		now:      opts.Now,
		state:    LoadingState{Message: MessageReady},
		steps:    make(map[string]*AssetLoadingStep),
		fireball: particlePool{active: make(map[*particle.System]struct{})},
		explosion: particlePool{
			active: make(map[*particle.System]struct{}),
		},
	}
	if am.factory == nil {
		am.factory = particle.New
	}
	if am.now == nil {
		am.now = time.Now
	}
	if am.paths.FireModel == "" {
		am.paths = config.DefaultSceneConfig().Assets
	}
	return am
}

// snapshot 复制当前状态（调用方需持有锁）
func (am *AssetManager) snapshot() LoadingState {
	s := am.state
	s.Errors = append([]string(nil), am.state.Errors...)
	return s
}

func (am *AssetManager) notify(s LoadingState) {
	if am.onChange != nil {
		am.onChange(s)
	}
}

// StartLoading 重置所有步骤并进入加载状态
func (am *AssetManager) StartLoading() {
	am.mu.Lock()
	am.steps = make(map[string]*AssetLoadingStep, len(stepOrder))
	for _, st := range stepOrder {
		am.steps[st.key] = &AssetLoadingStep{Name: st.name}
	}
	am.state = LoadingState{
		Loading:  true,
		Progress: 0,
		Message:  MessageInitializing,
		Errors:   []string{},
	}
	s := am.snapshot()
	am.mu.Unlock()

	log.Printf("[AssetManager] Loading started (%d steps)", len(stepOrder))
	am.notify(s)
}

// CompleteStep 标记步骤完成，message 非空时更新提示文本
// 未知步骤名会被忽略
func (am *AssetManager) CompleteStep(name, message string) {
	am.mu.Lock()
	step, ok := am.steps[name]
	if !ok {
		am.mu.Unlock()
		return
	}
	step.Loaded = true
	if message != "" {
		am.state.Message = message
	}
	am.updateProgressLocked()
	s := am.snapshot()
	am.mu.Unlock()

	am.notify(s)
}

// FailStep 标记步骤失败
// 失败的步骤同样计为已完成，避免整体进度卡住
func (am *AssetManager) FailStep(name, errMsg string) {
	am.mu.Lock()
	step, ok := am.steps[name]
	if !ok {
		am.mu.Unlock()
		return
	}
	step.Loaded = true
	step.Error = errMsg
	am.state.Errors = append(am.state.Errors, errMsg)
	am.updateProgressLocked()
	s := am.snapshot()
	am.mu.Unlock()

	log.Printf("[AssetManager] Step %s failed: %s", name, errMsg)
	am.notify(s)
}

func (am *AssetManager) updateProgressLocked() {
	if len(am.steps) == 0 {
		return
	}
	done := 0
	for _, step := range am.steps {
		if step.Loaded {
			done++
		}
	}
	am.state.Progress = float64(done) / float64(len(am.steps)) * 100
	if done == len(am.steps) {
		am.state.Progress = 100
		am.state.Message = MessageComplete
		am.state.Loading = false
	}
}

// PreloadFireAssets 并发加载火焰模型、贴图和音效
// 三者全部成功才会创建粒子系统；任一失败则整个步骤失败
func (am *AssetManager) PreloadFireAssets() {
	am.mu.Lock()
	am.state.Message = MessageLoadingFire
	am.mu.Unlock()

	var (
		g       errgroup.Group
		model   *Model
		texture *ebiten.Image
		sound   []byte
	)
	g.Go(func() error {
		m, err := am.loader.LoadModel(am.paths.FireModel)
		if err != nil {
			return err
		}
		model = m
		return nil
	})
	g.Go(func() error {
		tex, err := am.loader.LoadTexture(am.paths.FireTexture)
		if err != nil {
			return err
		}
		texture = tex
		return nil
	})
	g.Go(func() error {
		pcm, err := am.loader.LoadSound(am.paths.FireballSound)
		if err != nil {
			log.Printf("[AssetManager] Warning: Could not load fireball sound: %v", err)
			return err
		}
		sound = pcm
		return nil
	})

	if err := g.Wait(); err != nil {
		am.FailStep(StepFireAssets, fmt.Sprintf("Failed to load interactive elements: %v", err))
		return
	}

	am.mu.Lock()
	am.assets.FireModel = model
	am.assets.FireTexture = texture
	am.assets.FireballSound = sound
	am.mu.Unlock()

	am.PreloadParticleSystems()
	am.CompleteStep(StepFireAssets, MessageFireLoaded)
}

// PreloadCrateModel 加载箱子模型，失败只记录日志
func (am *AssetManager) PreloadCrateModel() {
	model, err := am.loader.LoadModel(am.paths.CrateModel)
	if err != nil {
		log.Printf("[AssetManager] Failed to preload crate model: %v", err)
		return
	}
	am.mu.Lock()
	am.assets.CrateModel = model
	am.mu.Unlock()
}

// PreloadDragonModel 加载龙模型并完成或失败 dragon 步骤
func (am *AssetManager) PreloadDragonModel() {
	model, err := am.loader.LoadModel(am.paths.DragonModel)
	if err != nil {
		am.FailStep(StepDragon, fmt.Sprintf("Failed to load dragon: %v", err))
		return
	}
	am.mu.Lock()
	am.assets.DragonModel = model
	am.mu.Unlock()
	am.CompleteStep(StepDragon, "Dragon awakened")
}

// PreloadParticleSystems 构建两种粒子配置，创建模板实例并预热对象池
func (am *AssetManager) PreloadParticleSystems() {
	am.mu.Lock()
	texture := am.assets.FireTexture
	am.mu.Unlock()

	if texture == nil {
		log.Printf("[AssetManager] Warning: Fire texture not loaded yet, skipping particle system creation")
		return
	}

	var firePreset, explPreset config.ParticlePreset
	if am.presets != nil {
		firePreset = am.presets.Fireball
		explPreset = am.presets.Explosion
	}
	fireCfg := buildParticleConfig(particle.FireballConfig(), firePreset, fireballBounds, texture)
	explCfg := buildParticleConfig(particle.ExplosionConfig(), explPreset, explosionBounds, texture)

	seed := am.now().UnixMilli()
	fireTemplate, err := am.factory(fireCfg, seed)
	if err != nil {
		log.Printf("[AssetManager] Failed to create fireball particle template: %v", err)
	}
	explTemplate, err := am.factory(explCfg, seed)
	if err != nil {
		log.Printf("[AssetManager] Failed to create explosion particle template: %v", err)
	}

	am.mu.Lock()
	am.fireCfg = &fireCfg
	am.explCfg = &explCfg
	am.assets.FireballParticleSystem = fireTemplate
	am.assets.ExplosionParticleSystem = explTemplate
	am.mu.Unlock()

	am.PreWarmParticlePool(DefaultPoolSize)
}

// CreateParticleSystemsOnDemand 仅在模板尚未创建时创建粒子系统
func (am *AssetManager) CreateParticleSystemsOnDemand() {
	am.mu.Lock()
	ready := am.assets.FireballParticleSystem != nil && am.assets.ExplosionParticleSystem != nil
	am.mu.Unlock()
	if ready {
		return
	}
	am.PreloadParticleSystems()
}

// PreWarmParticlePool 为每种效果创建 n 个缩放为 0 的实例并放入可用列表
func (am *AssetManager) PreWarmParticlePool(n int) {
	am.mu.Lock()
	fireCfg, explCfg := am.fireCfg, am.explCfg
	am.mu.Unlock()

	if fireCfg == nil || explCfg == nil {
		log.Printf("[AssetManager] Warning: Fire texture not loaded yet, skipping pool pre-warming")
		return
	}

	now := am.now().UnixMilli()
	fires := make([]*particle.System, 0, n)
	expls := make([]*particle.System, 0, n)
	for i := 0; i < n; i++ {
		if sys, err := am.factory(*fireCfg, now+int64(i)); err == nil {
			fires = append(fires, makeInert(sys))
		} else {
			log.Printf("[AssetManager] Failed to pre-warm fireball system: %v", err)
		}
	}
	for i := 0; i < n; i++ {
		if sys, err := am.factory(*explCfg, now+int64(n)+int64(i)); err == nil {
			expls = append(expls, makeInert(sys))
		} else {
			log.Printf("[AssetManager] Failed to pre-warm explosion system: %v", err)
		}
	}

	am.mu.Lock()
	am.fireball.available = append(am.fireball.available, fires...)
	am.explosion.available = append(am.explosion.available, expls...)
	fa, ea := len(am.fireball.available), len(am.explosion.available)
	am.mu.Unlock()

	log.Printf("[AssetManager] Pool pre-warmed: %d fireball, %d explosion systems", fa, ea)
}

// makeInert 缩放为 0：不可见但仍挂在场景上
func makeInert(sys *particle.System) *particle.System {
	sys.Rotation = mgl64.Vec3{}
	sys.Scale = mgl64.Vec3{}
	sys.Visible = true
	return sys
}

// GetAllPrewarmedSystems 返回所有可用的预热实例，用于挂载到场景
func (am *AssetManager) GetAllPrewarmedSystems() []*particle.System {
	am.mu.Lock()
	defer am.mu.Unlock()
	all := make([]*particle.System, 0, len(am.fireball.available)+len(am.explosion.available))
	all = append(all, am.fireball.available...)
	return append(all, am.explosion.available...)
}

func (am *AssetManager) pool(kind ParticleKind) *particlePool {
	if kind == ParticleExplosion {
		return &am.explosion
	}
	return &am.fireball
}

// GetAvailableParticleSystem 从池中取出一个实例，池为空时返回 nil
// 调用方应回退到 CreateParticleSystemAsync
func (am *AssetManager) GetAvailableParticleSystem(kind ParticleKind) *particle.System {
	am.mu.Lock()
	defer am.mu.Unlock()

	p := am.pool(kind)
	if len(p.available) == 0 {
		log.Printf("[AssetManager] Warning: No available %s systems in pool, will need async creation", kind)
		return nil
	}
	last := len(p.available) - 1
	sys := p.available[last]
	p.available[last] = nil
	p.available = p.available[:last]
	p.active[sys] = struct{}{}
	return sys
}

// ReturnParticleSystemToPool 归还实例；不在活动集合中的实例会被忽略
func (am *AssetManager) ReturnParticleSystemToPool(sys *particle.System, kind ParticleKind) {
	if sys == nil {
		return
	}
	am.mu.Lock()
	defer am.mu.Unlock()

	p := am.pool(kind)
	if _, ok := p.active[sys]; !ok {
		return
	}
	delete(p.active, sys)
	makeInert(sys)
	p.available = append(p.available, sys)
}

// CreateParticleSystemAsync 在独立 goroutine 中创建新实例
// 返回的通道恰好送达一次结果（失败时为 nil），随后关闭。新实例不属于对象池。
func (am *AssetManager) CreateParticleSystemAsync(kind ParticleKind) <-chan *particle.System {
	ch := make(chan *particle.System, 1)

	am.mu.Lock()
	cfg := am.fireCfg
	if kind == ParticleExplosion {
		cfg = am.explCfg
	}
	am.mu.Unlock()

	go func() {
		defer close(ch)
		if cfg == nil {
			log.Printf("[AssetManager] Warning: Fire texture not available for async particle creation")
			ch <- nil
			return
		}
		sys, err := am.factory(*cfg, am.now().UnixMilli())
		if err != nil {
			log.Printf("[AssetManager] Failed to create %s system async: %v", kind, err)
			ch <- nil
			return
		}
		ch <- sys
	}()
	return ch
}

// GetPoolStats 返回对象池统计
func (am *AssetManager) GetPoolStats() PoolStats {
	am.mu.Lock()
	defer am.mu.Unlock()
	return PoolStats{
		FireballAvailable:  len(am.fireball.available),
		FireballActive:     len(am.fireball.active),
		ExplosionAvailable: len(am.explosion.available),
		ExplosionActive:    len(am.explosion.active),
	}
}

// GetStats 返回加载步骤统计
func (am *AssetManager) GetStats() LoadingStats {
	am.mu.Lock()
	defer am.mu.Unlock()

	stats := LoadingStats{Total: len(am.steps)}
	for _, step := range am.steps {
		switch {
		case !step.Loaded:
			stats.Pending++
		case step.Error != "":
			stats.Failed++
		default:
			stats.Loaded++
		}
	}
	return stats
}

// GetSteps 按固定顺序返回步骤副本
func (am *AssetManager) GetSteps() []AssetLoadingStep {
	am.mu.Lock()
	defer am.mu.Unlock()

	steps := make([]AssetLoadingStep, 0, len(am.steps))
	for _, st := range stepOrder {
		if step, ok := am.steps[st.key]; ok {
			steps = append(steps, *step)
		}
	}
	return steps
}

// GetLoadingState 返回当前加载状态副本
func (am *AssetManager) GetLoadingState() LoadingState {
	am.mu.Lock()
	defer am.mu.Unlock()
	return am.snapshot()
}

// GetAssets 返回已加载资源的副本
func (am *AssetManager) GetAssets() PreloadedAssets {
	am.mu.Lock()
	defer am.mu.Unlock()
	return am.assets
}

// AreCriticalAssetsLoaded 火焰模型和贴图都已加载
func (am *AssetManager) AreCriticalAssetsLoaded() bool {
	am.mu.Lock()
	defer am.mu.Unlock()
	return am.assets.FireModel != nil && am.assets.FireTexture != nil
}

// Dispose 释放贴图并清空资源引用
// 池中的粒子实例不销毁，由场景持有
func (am *AssetManager) Dispose() {
	am.mu.Lock()
	defer am.mu.Unlock()

	if am.assets.FireTexture != nil {
		am.assets.FireTexture.Deallocate()
	}
	am.assets = PreloadedAssets{}
}
