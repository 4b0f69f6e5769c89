package scenes

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/decker502/dragonfolio/pkg/components"
	"github.com/decker502/dragonfolio/pkg/config"
	"github.com/decker502/dragonfolio/pkg/ecs"
	"github.com/decker502/dragonfolio/pkg/favicon"
	"github.com/decker502/dragonfolio/pkg/game"
	"github.com/decker502/dragonfolio/pkg/systems"
	"github.com/decker502/dragonfolio/pkg/utils"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// 箱子尺寸（世界单位）
const (
	categoryCrateSize       = 4.0
	categoryCrateSizeMobile = 3.0
	dragonBodyRatio         = 0.3 // 龙的绘制半径占龙宽度的比例
)

// BackLinkName 分类页中返回分类列表的箱子名称
const BackLinkName = "Back"

// PortfolioSceneOptions 作品集场景参数
type PortfolioSceneOptions struct {
	Scene     *config.SceneConfig
	Links     *config.LinksConfig
	Presets   *config.ParticlePresets // 可为 nil
	Loader    game.AssetLoader
	Settings  *game.SettingsManager // 可为 nil
	Audio     *game.AudioManager    // 可为 nil
	Navigator *game.Navigator       // 为 nil 时使用 NewNavigator(".")
	Favicons  *favicon.Fetcher      // 为 nil 时箱子不显示图标
	Sleep     game.Sleeper          // 为 nil 时使用 time.Sleep
}

// PortfolioScene 龙向链接箱子喷火的作品集场景
//
// 首页显示分类箱子，击中分类后切换到该分类的链接箱子，
// 击中链接箱子后打开链接、下载文件或执行内置动作。
type PortfolioScene struct {
	opts       PortfolioSceneOptions
	controller *game.SceneController
	navigator  *game.Navigator

	entityManager *ecs.EntityManager
	dragonSystem  *systems.DragonRotationSystem
	flightSystem  *systems.FireballFlightSystem
	crateSystem   *systems.CrateSystem
	effectSystem  *systems.ParticleEffectSystem
	inputSystem   *systems.InputSystem
	renderSystem  *systems.RenderSystem

	camera        *utils.Camera
	width, height int

	currentCategory string // 为空表示分类首页
	crates          map[string]ecs.EntityID
	actions         map[string]func() error

	ctx    context.Context
	cancel context.CancelFunc

	// 以下字段由后台 goroutine 写入，在 Update 中消费
	mu               sync.Mutex
	loading          game.LoadingState
	welcomeElapsed   float64
	showDebug        bool
	pendingViews     []string
	iconResults      map[string]iconResult
	iconsRequested   map[string]bool
	iconTextures     map[string]*ebiten.Image
}

// NewPortfolioScene 创建场景并在后台开始加载资源
func NewPortfolioScene(opts PortfolioSceneOptions) *PortfolioScene {
	if opts.Scene == nil {
		opts.Scene = config.DefaultSceneConfig()
	}
	if opts.Links == nil {
		opts.Links = &config.LinksConfig{}
	}
	if opts.Navigator == nil {
		opts.Navigator = game.NewNavigator(".")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &PortfolioScene{
		opts:           opts,
		navigator:      opts.Navigator,
		entityManager:  ecs.NewEntityManager(),
		width:          opts.Scene.Window.Width,
		height:         opts.Scene.Window.Height,
		crates:         make(map[string]ecs.EntityID),
		ctx:            ctx,
		cancel:         cancel,
		loading:        game.LoadingState{Loading: true, Message: game.MessageInitializing},
		iconResults:    make(map[string]iconResult),
		iconsRequested: make(map[string]bool),
		iconTextures:   make(map[string]*ebiten.Image),
	}
	if opts.Settings != nil {
		s.showDebug = opts.Settings.GetSettings().ShowDebug
	}
	if s.width <= 0 || s.height <= 0 {
		s.width, s.height = config.DefaultWindowWidth, config.DefaultWindowHeight
	}

	sceneOpts := opts.Scene.Scene
	s.controller = game.NewSceneController(game.SceneControllerOptions{
		Scene:                 sceneOpts,
		Paths:                 opts.Scene.Assets,
		Presets:               opts.Presets,
		Loader:                opts.Loader,
		Audio:                 opts.Audio,
		Sleep:                 opts.Sleep,
		Navigate:              s.navigator.Navigate,
		OnLoadingStateChange:  s.onLoadingStateChange,
		OnCategoryInteraction: s.queueView,
	})

	dragonWidth := sceneOpts.DragonWidth
	if dragonWidth <= 0 {
		dragonWidth = config.DefaultDragonWidth
	}
	rotation := sceneOpts.RotationDurationMs
	if rotation <= 0 {
		rotation = config.DefaultRotationDurationMs
	}

	em := s.entityManager
	assets := s.controller.Assets()
	s.dragonSystem = systems.NewDragonRotationSystem(em, mgl64.Vec3{0, 0, sceneOpts.ZDepth}, dragonWidth*dragonBodyRatio, time.Duration(rotation)*time.Millisecond)
	s.flightSystem = systems.NewFireballFlightSystem(em, s.controller, assets, sceneOpts.FireballSpeed)
	s.crateSystem = systems.NewCrateSystem(em, assets)
	s.effectSystem = systems.NewParticleEffectSystem(em, assets)
	s.inputSystem = systems.NewInputSystem(em)
	s.renderSystem = systems.NewRenderSystem(em, s.dragonSystem)
	s.controller.SetDragonRef(s.dragonSystem)

	s.registerActions()

	cam := opts.Scene.Camera
	s.camera = utils.NewPerspectiveCamera(cam.Fov, float64(s.width)/float64(s.height), mgl64.Vec3{cam.Position[0], cam.Position[1], cam.Position[2]})
	s.controller.UpdateCamera(s.camera, s.width, s.height)
	s.showCategories()

	go s.initialize()
	return s
}

// initialize 在后台加载资源
func (s *PortfolioScene) initialize() {
	s.controller.Initialize()
	s.controller.Assets().PreloadCrateModel()
	if m := s.controller.Assets().GetAssets().CrateModel; m != nil {
		log.Printf("[PortfolioScene] Crate model bounds: %v", m.Size())
	}
}

// onLoadingStateChange 资源加载进度回调，可能在任意 goroutine 中调用
func (s *PortfolioScene) onLoadingStateChange(loading bool, progress float64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading.Loading = loading
	s.loading.Progress = progress
	s.loading.Message = message
	if !loading {
		s.welcomeElapsed = 0
	}
}

// LoadingState 当前加载状态的副本
func (s *PortfolioScene) LoadingState() game.LoadingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// queueView 请求切换视图，category 为空时回到分类首页
func (s *PortfolioScene) queueView(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingViews = append(s.pendingViews, category)
}

// Controller 场景控制器
func (s *PortfolioScene) Controller() *game.SceneController {
	return s.controller
}

// CurrentCategory 当前显示的分类，分类首页返回空字符串
func (s *PortfolioScene) CurrentCategory() string {
	return s.currentCategory
}

// Resize 窗口尺寸变化时更新相机并重新布局
func (s *PortfolioScene) Resize(width, height int) {
	if width <= 0 || height <= 0 || (width == s.width && height == s.height) {
		return
	}
	s.width, s.height = width, height
	s.camera.Aspect = float64(width) / float64(height)
	s.controller.UpdateCamera(s.camera, width, height)
	s.rebuildView()
}

// Update 处理输入并更新所有系统
func (s *PortfolioScene) Update(deltaTime float64) {
	s.handleInput()
	s.updateWorld(deltaTime)
}

// updateWorld 消费后台结果并推进系统，不读取输入
func (s *PortfolioScene) updateWorld(deltaTime float64) {
	s.mu.Lock()
	views := s.pendingViews
	s.pendingViews = nil
	if !s.loading.Loading {
		s.welcomeElapsed += deltaTime
	}
	s.mu.Unlock()

	for _, category := range views {
		s.switchView(category)
	}
	s.applyIcons()

	s.dragonSystem.Update(deltaTime)
	s.flightSystem.Update(deltaTime)
	s.crateSystem.Update(deltaTime)
	s.effectSystem.Update(deltaTime)

	s.entityManager.RemoveMarkedEntities()
}

// handleInput 鼠标悬停、点击和快捷键
func (s *PortfolioScene) handleInput() {
	mx, my := ebiten.CursorPosition()
	hovered, ok := s.inputSystem.UpdateHover(s.camera, float64(mx), float64(my), s.width, s.height)

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && ok {
		s.ClickCrate(hovered)
	}
	for _, id := range inpututil.AppendJustPressedTouchIDs(nil) {
		tx, ty := ebiten.TouchPosition(id)
		if hit, ok := s.inputSystem.HitTest(s.camera, float64(tx), float64(ty), s.width, s.height); ok {
			s.ClickCrate(hit)
		}
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape), inpututil.IsKeyJustPressed(ebiten.KeyBackspace):
		if s.currentCategory != "" {
			s.switchView("")
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyM):
		s.runAction(ActionToggleSound)
	case inpututil.IsKeyJustPressed(ebiten.KeyF3):
		s.runAction(ActionToggleDebug)
	}
}

// ClickCrate 龙转向箱子并发射火球
// 加载中、箱子不可点击或已被瞄准时忽略
func (s *PortfolioScene) ClickCrate(entity ecs.EntityID) bool {
	if s.LoadingState().Loading {
		return false
	}
	crate, ok := ecs.GetComponent[*components.CrateComponent](s.entityManager, entity)
	if !ok || crate.State != components.CrateIdle {
		return false
	}
	tf, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, entity)
	if !ok {
		return false
	}

	link := crate.Link
	req := game.FireballRequest{
		Target:        tf.Position,
		URL:           link.URL,
		Type:          link.Type,
		Category:      link.Category,
		CrateID:       crate.ID,
		RotationTween: s.dragonSystem,
		RotationTask:  s.dragonSystem,
		Action:        s.actionFor(link),
	}

	if !s.crateSystem.Target(entity) {
		return false
	}

	log.Printf("[PortfolioScene] Clicked crate %s (%s)", crate.ID, link.Type)
	// 旋转等待会阻塞，不能在游戏循环中调用
	go func() {
		if _, ok := s.controller.HandleLinkClick(req); !ok {
			s.crateSystem.Release(entity)
		}
	}()
	return true
}

// switchView 切换到分类首页或某个分类
func (s *PortfolioScene) switchView(category string) {
	if category == "" {
		s.showCategories()
		return
	}
	if _, ok := s.opts.Links.FindCategory(category); !ok {
		log.Printf("[PortfolioScene] Warning: Unknown category %q", category)
		return
	}
	s.showLinks(category)
}

func (s *PortfolioScene) rebuildView() {
	if s.currentCategory == "" {
		s.showCategories()
	} else {
		s.showLinks(s.currentCategory)
	}
}

// showCategories 按左右两列放置分类箱子
func (s *PortfolioScene) showCategories() {
	s.clearCrates()
	s.currentCategory = ""

	size := categoryCrateSize
	if s.controller.IsMobile() {
		size = categoryCrateSizeMobile
	}
	positions := s.controller.Crates().CalculateCategoryLayout(s.opts.Links.Categories)
	for _, cat := range s.opts.Links.AllCategories() {
		p, ok := positions[cat.ID]
		if !ok {
			continue
		}
		link := config.Link{Name: cat.Name, Type: config.LinkTypeCategory, Category: cat.ID, Icon: cat.Icon}
		s.createCrate(categoryCrateID(cat.ID), link, mgl64.Vec3{p[0], p[1], p[2]}, size)
	}
	log.Printf("[PortfolioScene] Showing %d categories", len(s.crates))
}

// showLinks 显示分类下的链接和返回箱子，前 ceil(n/2) 个放在左列
func (s *PortfolioScene) showLinks(category string) {
	s.clearCrates()
	s.currentCategory = category

	links := append(s.opts.Links.LinksIn(category), config.Link{
		Name:     BackLinkName,
		Type:     config.LinkTypeAction,
		Action:   ActionBack,
		Category: category,
	})
	layout := s.controller.Crates().CalculateLinksLayout(links)
	positions := append(append([][3]float64{}, layout.LeftPositions...), layout.RightPositions...)

	var domains []string
	for i, link := range links {
		var p [3]float64
		switch {
		case link.Position != nil:
			p = *link.Position
		case i < len(positions):
			p = positions[i]
		default:
			continue
		}
		id := linkCrateID(category, i, link.Name)
		entity := s.createCrate(id, link, mgl64.Vec3{p[0], p[1], p[2]}, layout.LinkSize)
		if crate, ok := ecs.GetComponent[*components.CrateComponent](s.entityManager, entity); ok && crate.Domain != "" {
			domains = append(domains, crate.Domain)
		}
	}
	s.assignIcons()
	s.requestIcons(domains)
	log.Printf("[PortfolioScene] Showing %d crates in category %s", len(s.crates), category)
}

// createCrate 创建箱子实体并注册到控制器
func (s *PortfolioScene) createCrate(id string, link config.Link, pos mgl64.Vec3, size float64) ecs.EntityID {
	em := s.entityManager
	entity := em.CreateEntity()
	ecs.AddComponent(em, entity, &components.TransformComponent{Position: pos, Scale: mgl64.Vec3{1, 1, 1}})
	ecs.AddComponent(em, entity, &components.CrateComponent{
		ID:                id,
		Label:             link.Name,
		Domain:            linkDomain(link),
		Link:              link,
		ExplosionDuration: game.CrateExplosionDuration.Seconds(),
		RespawnDelay:      systems.DefaultRespawnDelay,
		Size:              size,
	})
	ecs.AddComponent(em, entity, &components.ClickableComponent{HalfSize: size / 2, IsEnabled: true})

	s.crates[id] = entity
	s.controller.RegisterCrate(id, s.crateSystem.Handle(entity), pos)
	return entity
}

// clearCrates 删除当前视图的所有箱子
func (s *PortfolioScene) clearCrates() {
	for id, entity := range s.crates {
		s.controller.UnregisterCrate(id)
		s.entityManager.DestroyEntity(entity)
	}
	s.crates = make(map[string]ecs.EntityID)
	s.entityManager.RemoveMarkedEntities()
}

// CrateEntity 按箱子ID查找实体
func (s *PortfolioScene) CrateEntity(id string) (ecs.EntityID, bool) {
	entity, ok := s.crates[id]
	return entity, ok
}

// CrateCount 当前视图的箱子数量
func (s *PortfolioScene) CrateCount() int {
	return len(s.crates)
}

// Dispose 停止后台任务并释放粒子和音效
func (s *PortfolioScene) Dispose() {
	s.cancel()
	s.controller.Dispose()
	s.effectSystem.ReleaseAll()
	s.entityManager.RemoveMarkedEntities()
	log.Printf("[PortfolioScene] Disposed")
}

func categoryCrateID(category string) string {
	return "category:" + category
}

func linkCrateID(category string, index int, name string) string {
	return fmt.Sprintf("link:%s:%d:%s", category, index, name)
}

// linkDomain 返回链接的主机（去掉 www.），非网页链接返回空
func linkDomain(link config.Link) string {
	if !link.Type.NeedsURL() || link.URL == "" {
		return ""
	}
	u, err := url.Parse(link.URL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}
