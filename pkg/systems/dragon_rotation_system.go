package systems

import (
	"math"
	"sync"
	"time"

	"github.com/decker502/dragonfolio/pkg/components"
	"github.com/decker502/dragonfolio/pkg/ecs"
	"github.com/decker502/dragonfolio/pkg/utils"
	"github.com/go-gl/mathgl/mgl64"
)

// DragonRotationSystem 驱动龙的朝向补间
//
// 同时实现 game.Emitter、game.RotationTween 和 game.RotationTask。
// 火球系统会在后台 goroutine 中调用 Set/Start/Stop 和 Quaternion，
// 所以 DragonComponent 的字段只在 s.mu 下读写，其他系统通过 Heading() 读取朝向。
type DragonRotationSystem struct {
	entityManager *ecs.EntityManager
	entity        ecs.EntityID

	mu       sync.Mutex
	dragon   *components.DragonComponent
	position mgl64.Vec3
}

// NewDragonRotationSystem 创建龙实体和对应的旋转系统
func NewDragonRotationSystem(em *ecs.EntityManager, position mgl64.Vec3, bodyRadius float64, duration time.Duration) *DragonRotationSystem {
	dragon := &components.DragonComponent{
		Duration:   duration.Seconds(),
		BodyRadius: bodyRadius,
	}

	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.TransformComponent{
		Position: position,
		Scale:    mgl64.Vec3{1, 1, 1},
	})
	ecs.AddComponent(em, id, dragon)

	return &DragonRotationSystem{
		entityManager: em,
		entity:        id,
		dragon:        dragon,
		position:      position,
	}
}

// Entity 返回龙实体ID
func (s *DragonRotationSystem) Entity() ecs.EntityID {
	return s.entity
}

// Set 设置目标朝向（弧度）
func (s *DragonRotationSystem) Set(yaw float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dragon.TargetYaw = yaw
}

// Start 从当前朝向开始插值到目标朝向
func (s *DragonRotationSystem) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dragon.StartYaw = s.dragon.Yaw
	s.dragon.Elapsed = 0
	s.dragon.Rotating = true
}

// Stop 结束补间并直接对准目标
func (s *DragonRotationSystem) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dragon.Rotating {
		s.dragon.Yaw = s.dragon.TargetYaw
		s.dragon.Rotating = false
	}
}

// Update 推进补间
func (s *DragonRotationSystem) Update(deltaTime float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.dragon
	if !d.Rotating {
		return
	}

	d.Elapsed += deltaTime
	t := 1.0
	if d.Duration > 0 {
		t = utils.Clamp01(d.Elapsed / d.Duration)
	}
	d.Yaw = utils.LerpAngle(d.StartYaw, d.TargetYaw, utils.EaseInOutCubic(t))
	if t >= 1 {
		d.Yaw = d.TargetYaw
		d.Rotating = false
	}

	if tf, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, s.entity); ok {
		tf.Yaw = d.Yaw
	}
}

// Heading 当前朝向（弧度）
func (s *DragonRotationSystem) Heading() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dragon.Yaw
}

// IsRotating 是否正在转向
func (s *DragonRotationSystem) IsRotating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dragon.Rotating
}

// BodyRadius 绘制半径（世界单位）
func (s *DragonRotationSystem) BodyRadius() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dragon.BodyRadius
}

// Position 实现 game.Emitter
func (s *DragonRotationSystem) Position() mgl64.Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Quaternion 实现 game.Emitter，朝向为绕 Y 轴的 yaw
func (s *DragonRotationSystem) Quaternion() mgl64.Quat {
	return mgl64.QuatRotate(s.Heading(), mgl64.Vec3{0, 1, 0})
}

// UpdateMatrixWorld 实现 game.Emitter，位置和朝向没有缓存，无需刷新
func (s *DragonRotationSystem) UpdateMatrixWorld() {}

// Forward 当前朝向的水平单位向量
func (s *DragonRotationSystem) Forward() mgl64.Vec3 {
	yaw := s.Heading()
	return mgl64.Vec3{math.Sin(yaw), 0, math.Cos(yaw)}
}
