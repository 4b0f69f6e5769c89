package systems

import (
	"log"
	"sync"

	"github.com/decker502/dragonfolio/pkg/components"
	"github.com/decker502/dragonfolio/pkg/ecs"
	"github.com/decker502/dragonfolio/pkg/game"
)

// 爆炸效果参数
const (
	DefaultRespawnDelay = 2.0 // 炸毁后自动重置的等待时间(秒)
	explosionEffectTTL  = 1.5 // 爆炸粒子存活时间(秒)，略长于箱子动画，让火花落下
)

type crateCommand int

const (
	crateExplode crateCommand = iota
	crateReset
	crateRelease
)

type pendingCrateCommand struct {
	entity ecs.EntityID
	cmd    crateCommand
}

// CrateSystem 播放箱子爆炸动画
//
// Explode/Reset 由 CrateController 在后台 goroutine 中调用，这里只把命令排队，
// 在游戏循环的 Update 中统一执行。
type CrateSystem struct {
	entityManager *ecs.EntityManager
	particles     ParticleSource

	mu      sync.Mutex
	pending []pendingCrateCommand
}

// NewCrateSystem 创建箱子系统
func NewCrateSystem(em *ecs.EntityManager, particles ParticleSource) *CrateSystem {
	return &CrateSystem{
		entityManager: em,
		particles:     particles,
	}
}

// crateHandle 把某个箱子实体适配为 game.CrateHandle
type crateHandle struct {
	system *CrateSystem
	entity ecs.EntityID
}

func (h crateHandle) Explode() { h.system.enqueue(h.entity, crateExplode) }
func (h crateHandle) Reset()   { h.system.enqueue(h.entity, crateReset) }

// Handle 返回可注册到 CrateController 的句柄
func (s *CrateSystem) Handle(entity ecs.EntityID) game.CrateHandle {
	return crateHandle{system: s, entity: entity}
}

func (s *CrateSystem) enqueue(entity ecs.EntityID, cmd crateCommand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, pendingCrateCommand{entity: entity, cmd: cmd})
}

// Update 执行排队的命令并推进爆炸动画
func (s *CrateSystem) Update(deltaTime float64) {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, p := range pending {
		switch p.cmd {
		case crateExplode:
			s.explode(p.entity)
		case crateReset:
			s.reset(p.entity)
		case crateRelease:
			s.release(p.entity)
		}
	}

	for _, id := range ecs.GetEntitiesWith1[*components.CrateComponent](s.entityManager) {
		crate, _ := ecs.GetComponent[*components.CrateComponent](s.entityManager, id)

		switch crate.State {
		case components.CrateExploding:
			crate.ExplosionTimer += deltaTime
			if crate.ExplosionTimer >= crate.ExplosionDuration {
				crate.State = components.CrateExploded
				crate.RespawnTimer = 0
			}
		case components.CrateExploded:
			if crate.RespawnDelay <= 0 {
				continue
			}
			crate.RespawnTimer += deltaTime
			if crate.RespawnTimer >= crate.RespawnDelay {
				s.reset(id)
			}
		}
	}
}

// Target 把静止的箱子标记为火球目标，命中或 Release 之前不能再次点击
// 只能在游戏循环中调用
func (s *CrateSystem) Target(id ecs.EntityID) bool {
	crate, ok := ecs.GetComponent[*components.CrateComponent](s.entityManager, id)
	if !ok || crate.State != components.CrateIdle {
		return false
	}
	crate.State = components.CrateTargeted
	s.setClickable(id, false)
	return true
}

// Release 火球没有发射成功时取消目标标记，可在任意 goroutine 中调用
func (s *CrateSystem) Release(id ecs.EntityID) {
	s.enqueue(id, crateRelease)
}

func (s *CrateSystem) release(id ecs.EntityID) {
	crate, ok := ecs.GetComponent[*components.CrateComponent](s.entityManager, id)
	if !ok || crate.State != components.CrateTargeted {
		return
	}
	crate.State = components.CrateIdle
	s.setClickable(id, true)
}

func (s *CrateSystem) setClickable(id ecs.EntityID, enabled bool) {
	if click, ok := ecs.GetComponent[*components.ClickableComponent](s.entityManager, id); ok {
		click.IsEnabled = enabled
		if !enabled {
			click.IsHovered = false
		}
	}
}

// explode 开始爆炸，只对静止或已被瞄准的箱子生效
func (s *CrateSystem) explode(id ecs.EntityID) {
	crate, ok := ecs.GetComponent[*components.CrateComponent](s.entityManager, id)
	if !ok {
		log.Printf("[CrateSystem] Warning: Crate entity %d no longer exists", id)
		return
	}
	if crate.State != components.CrateIdle && crate.State != components.CrateTargeted {
		return
	}

	crate.State = components.CrateExploding
	crate.ExplosionTimer = 0
	if crate.ExplosionDuration <= 0 {
		crate.ExplosionDuration = game.CrateExplosionDuration.Seconds()
	}
	s.setClickable(id, false)

	if tf, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id); ok {
		SpawnEffect(s.entityManager, s.particles, game.ParticleExplosion, tf.Position, explosionEffectTTL)
	}
	log.Printf("[CrateSystem] Crate %s exploding", crate.ID)
}

// reset 恢复箱子
func (s *CrateSystem) reset(id ecs.EntityID) {
	crate, ok := ecs.GetComponent[*components.CrateComponent](s.entityManager, id)
	if !ok {
		return
	}
	crate.State = components.CrateIdle
	crate.ExplosionTimer = 0
	crate.RespawnTimer = 0
	s.setClickable(id, true)
}

// ExplosionProgress 爆炸动画进度 0..1，未爆炸时为 0
func ExplosionProgress(crate *components.CrateComponent) float64 {
	switch crate.State {
	case components.CrateExploding:
		if crate.ExplosionDuration <= 0 {
			return 1
		}
		p := crate.ExplosionTimer / crate.ExplosionDuration
		if p > 1 {
			p = 1
		}
		return p
	case components.CrateExploded:
		return 1
	default:
		return 0
	}
}
