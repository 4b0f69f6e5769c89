package game

import (
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/decker502/dragonfolio/pkg/config"
	"github.com/decker502/dragonfolio/pkg/utils"
	"github.com/go-gl/mathgl/mgl64"
)

// CrateExplosionDuration 箱子爆炸动画时长
const CrateExplosionDuration = 1000 * time.Millisecond

// DefaultFindTolerance FindCrateAtPosition 的默认距离阈值
const DefaultFindTolerance = 2.0

// Sleeper 阻塞等待指定时长（测试中可替换为立即返回）
type Sleeper func(time.Duration)

// CrateHandle 可爆炸的箱子
type CrateHandle interface {
	Explode()
	Reset()
}

// RegisteredCrate 注册表中的箱子
type RegisteredCrate struct {
	Component CrateHandle
	Position  mgl64.Vec3
}

// CrateLayout 链接箱子的两列布局
type CrateLayout = utils.GridLayout

// ContentPositions 箱子上标题、图标和域名的相对位置
type ContentPositions struct {
	TitleY         float64
	IconY          float64
	DomainY        float64
	ContentZOffset float64
}

// CrateControllerOptions 箱子控制器参数
type CrateControllerOptions struct {
	ZDepth           float64
	EnvironmentScale float64
	DragonWidth      float64
	IsMobile         bool
	Sleep            Sleeper // 为 nil 时使用 time.Sleep
}

// CrateController 管理箱子注册、布局计算和爆炸触发
type CrateController struct {
	mu       sync.Mutex
	opts     CrateControllerOptions
	registry map[string]RegisteredCrate
	camera   *utils.Camera
	viewport *utils.ViewportDimensions
}

// NewCrateController 创建箱子控制器
func NewCrateController(opts CrateControllerOptions) *CrateController {
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	return &CrateController{
		opts:     opts,
		registry: make(map[string]RegisteredCrate),
	}
}

// UpdateCamera 更新相机并重新计算视口
func (cc *CrateController) UpdateCamera(cam *utils.Camera) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.camera = cam
	cc.recalculateLocked()
}

// UpdateOptions 更新布局参数并重新计算视口（Sleep 为 nil 时保留原值）
func (cc *CrateController) UpdateOptions(opts CrateControllerOptions) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if opts.Sleep == nil {
		opts.Sleep = cc.opts.Sleep
	}
	cc.opts = opts
	cc.recalculateLocked()
}

// SetMobile 只切换移动端标志
func (cc *CrateController) SetMobile(mobile bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.opts.IsMobile = mobile
}

func (cc *CrateController) recalculateLocked() {
	if cc.camera == nil {
		cc.viewport = nil
		return
	}
	vp := utils.CalculateViewportDimensions(cc.camera, cc.opts.ZDepth)
	cc.viewport = &vp
}

// RegisterCrate 注册箱子，位置按值复制
// 空 ID 会被拒绝，FindCrateAtPosition 用 "" 表示未命中
func (cc *CrateController) RegisterCrate(id string, handle CrateHandle, position mgl64.Vec3) {
	if id == "" {
		log.Printf("[CrateController] Warning: Ignoring crate with empty id")
		return
	}
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.registry[id] = RegisteredCrate{Component: handle, Position: position}
}

// UnregisterCrate 移除箱子
func (cc *CrateController) UnregisterCrate(id string) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	delete(cc.registry, id)
}

// TriggerExplosion 触发箱子爆炸并等待动画结束
// 未注册的 ID 只记录警告
func (cc *CrateController) TriggerExplosion(id string) {
	cc.mu.Lock()
	crate, ok := cc.registry[id]
	sleep := cc.opts.Sleep
	cc.mu.Unlock()

	if !ok {
		log.Printf("[CrateController] Warning: Crate %s not found in registry", id)
		return
	}

	crate.Component.Explode()
	sleep(CrateExplosionDuration)
}

// distanceFromCenter 保持箱子避开中央的龙
func (cc *CrateController) distanceFromCenterLocked(fraction float64) float64 {
	dragonEdgeX := cc.opts.DragonWidth / 2
	screenEdgeX := cc.viewport.Width / 2
	available := screenEdgeX - dragonEdgeX
	return dragonEdgeX + available*fraction
}

// CalculateCategoryLayout 计算分类箱子的位置（分类 ID -> 坐标）
// 未设置相机时返回空结果
func (cc *CrateController) CalculateCategoryLayout(categories config.CategoryColumns) map[string][3]float64 {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	positions := make(map[string][3]float64)
	if cc.camera == nil || cc.viewport == nil {
		log.Printf("[CrateController] Warning: Camera not set, using default positions")
		return positions
	}

	fraction := 0.5
	size := 4.0
	if cc.opts.IsMobile {
		fraction = 0.75
		size = 3.0
	}

	total := len(categories.Left) + len(categories.Right)
	layout := utils.CalculateGridPositions(total, *cc.viewport, size, 2, utils.GridConstraints{
		TopBoundary:    utils.Float(cc.viewport.Height * 0.45),
		BottomBoundary: utils.Float(-1),
		CenterOffset:   utils.Float(cc.distanceFromCenterLocked(fraction)),
	})

	for i, cat := range categories.Left {
		if i < len(layout.LeftPositions) {
			p := layout.LeftPositions[i]
			positions[cat.ID] = [3]float64{p[0], p[1], cc.opts.ZDepth}
		}
	}
	for i, cat := range categories.Right {
		if i < len(layout.RightPositions) {
			p := layout.RightPositions[i]
			positions[cat.ID] = [3]float64{p[0], p[1], cc.opts.ZDepth}
		}
	}
	return positions
}

// CalculateLinksLayout 计算分类内链接箱子的布局
func (cc *CrateController) CalculateLinksLayout(links []config.Link) CrateLayout {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.camera == nil || cc.viewport == nil {
		log.Printf("[CrateController] Warning: Camera not set, using default layout")
		return CrateLayout{LeftPositions: [][3]float64{}, RightPositions: [][3]float64{}, LinkSize: 4}
	}

	maxSize := 4.0
	if cc.opts.IsMobile {
		maxSize = 2.5
	}

	layout := utils.CalculateGridPositions(len(links), *cc.viewport, maxSize, 2, utils.GridConstraints{
		TopBoundary:    utils.Float(cc.viewport.Height * 0.45),
		BottomBoundary: utils.Float(-0.85),
		CenterOffset:   utils.Float(cc.distanceFromCenterLocked(0.5)),
	})

	for i := range layout.LeftPositions {
		layout.LeftPositions[i][2] = cc.opts.ZDepth
	}
	for i := range layout.RightPositions {
		layout.RightPositions[i][2] = cc.opts.ZDepth
	}
	return layout
}

// CalculateCrateScale 按轴独立缩放包围盒到目标尺寸（不保持比例）
func (cc *CrateController) CalculateCrateScale(box utils.Box3, width, height, depth float64) [3]float64 {
	return utils.ScaleBoxToSize(box, width, height, depth)
}

// CalculateContentPositions 计算箱子内容的 Y 坐标，yOffset 补偿容器偏移（默认 2.95）
func (cc *CrateController) CalculateContentPositions(crateHeight, yOffset float64) ContentPositions {
	return ContentPositions{
		TitleY:         crateHeight*0.9 + yOffset,
		IconY:          crateHeight*0.8 + yOffset,
		DomainY:        crateHeight*0.1 + yOffset,
		ContentZOffset: 0.3,
	}
}

// FindCrateAtPosition 返回距离 target 最近且严格小于 tolerance 的箱子 ID，否则返回 ""
func (cc *CrateController) FindCrateAtPosition(target mgl64.Vec3, tolerance float64) string {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	closest := ""
	minDist := math.Inf(1)
	for id, crate := range cc.registry {
		d := crate.Position.Sub(target).Len()
		// 距离相同时按 ID 排序，保证结果确定
		if d < minDist || (d == minDist && id < closest) {
			minDist = d
			closest = id
		}
	}
	if closest == "" || minDist >= tolerance {
		return ""
	}
	return closest
}

// RegisteredCrateIDs 返回已注册的箱子 ID（已排序）
func (cc *CrateController) RegisteredCrateIDs() []string {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	ids := make([]string, 0, len(cc.registry))
	for id := range cc.registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RegisteredCratePositions 返回注册表中所有箱子位置的副本
func (cc *CrateController) RegisteredCratePositions() map[string]mgl64.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	positions := make(map[string]mgl64.Vec3, len(cc.registry))
	for id, crate := range cc.registry {
		positions[id] = crate.Position
	}
	return positions
}

// CurrentViewport 返回最近一次计算的视口
func (cc *CrateController) CurrentViewport() (utils.ViewportDimensions, bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if cc.viewport == nil {
		return utils.ViewportDimensions{}, false
	}
	return *cc.viewport, true
}
