package systems

import (
	"log"

	"github.com/decker502/dragonfolio/internal/particle"
	"github.com/decker502/dragonfolio/pkg/components"
	"github.com/decker502/dragonfolio/pkg/ecs"
	"github.com/decker502/dragonfolio/pkg/game"
	"github.com/go-gl/mathgl/mgl64"
)

// ParticleSource 粒子实例的来源，由 *game.AssetManager 实现
type ParticleSource interface {
	GetAvailableParticleSystem(kind game.ParticleKind) *particle.System
	ReturnParticleSystemToPool(sys *particle.System, kind game.ParticleKind)
	CreateParticleSystemAsync(kind game.ParticleKind) <-chan *particle.System
}

// ParticleEffectSystem 更新粒子效果实体，效果结束后归还实例并删除实体
type ParticleEffectSystem struct {
	entityManager *ecs.EntityManager
	particles     ParticleSource
}

// NewParticleEffectSystem 创建粒子效果系统
func NewParticleEffectSystem(em *ecs.EntityManager, particles ParticleSource) *ParticleEffectSystem {
	return &ParticleEffectSystem{
		entityManager: em,
		particles:     particles,
	}
}

// SpawnEffect 创建一个粒子效果实体
// 优先从对象池借用实例，池为空时异步创建，实例到达前效果不可见
func SpawnEffect(em *ecs.EntityManager, particles ParticleSource, kind game.ParticleKind, position mgl64.Vec3, ttl float64) ecs.EntityID {
	effect := &components.ParticleEffectComponent{
		Kind: kind,
		TTL:  ttl,
	}
	if sys := particles.GetAvailableParticleSystem(kind); sys != nil {
		effect.System = sys
		effect.Pooled = true
		activate(sys, position)
	} else {
		effect.Pending = particles.CreateParticleSystemAsync(kind)
	}

	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.TransformComponent{
		Position: position,
		Scale:    mgl64.Vec3{1, 1, 1},
	})
	ecs.AddComponent(em, id, effect)
	return id
}

// activate 把惰性实例放到指定位置并重新开始发射
func activate(sys *particle.System, position mgl64.Vec3) {
	sys.Position = position
	sys.Scale = mgl64.Vec3{1, 1, 1}
	sys.Visible = true
	sys.Restart()
}

// Update 更新所有粒子效果
func (s *ParticleEffectSystem) Update(deltaTime float64) {
	entities := ecs.GetEntitiesWith1[*components.ParticleEffectComponent](s.entityManager)

	for _, id := range entities {
		effect, ok := ecs.GetComponent[*components.ParticleEffectComponent](s.entityManager, id)
		if !ok {
			continue
		}
		tf, hasTransform := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)

		// 异步实例是否已到达
		if effect.Pending != nil {
			select {
			case sys := <-effect.Pending:
				effect.Pending = nil
				if sys != nil {
					effect.System = sys
					effect.Pooled = false
					pos := mgl64.Vec3{}
					if hasTransform {
						pos = tf.Position
					}
					activate(sys, pos)
				} else {
					log.Printf("[ParticleEffectSystem] Warning: Async %s system unavailable", effect.Kind)
				}
			default:
			}
		}

		if effect.System != nil {
			if hasTransform {
				effect.System.Position = tf.Position
			}
			effect.System.Update(deltaTime)
		}

		effect.Age += deltaTime
		if effect.TTL > 0 && effect.Age >= effect.TTL {
			effect.Expired = true
		}
		if effect.Expired {
			s.release(effect)
			s.entityManager.DestroyEntity(id)
		}
	}
}

// release 归还或隐藏效果使用的实例
func (s *ParticleEffectSystem) release(effect *components.ParticleEffectComponent) {
	if effect.System == nil {
		return
	}
	if effect.Pooled {
		s.particles.ReturnParticleSystemToPool(effect.System, effect.Kind)
	} else {
		effect.System.Visible = false
	}
	effect.System = nil
}

// ReleaseAll 释放所有效果，场景销毁时调用
func (s *ParticleEffectSystem) ReleaseAll() {
	for _, id := range ecs.GetEntitiesWith1[*components.ParticleEffectComponent](s.entityManager) {
		if effect, ok := ecs.GetComponent[*components.ParticleEffectComponent](s.entityManager, id); ok {
			s.release(effect)
			s.entityManager.DestroyEntity(id)
		}
	}
}
