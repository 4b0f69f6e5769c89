package systems

import (
	"log"
	"math"

	"github.com/decker502/dragonfolio/pkg/components"
	"github.com/decker502/dragonfolio/pkg/config"
	"github.com/decker502/dragonfolio/pkg/ecs"
	"github.com/decker502/dragonfolio/pkg/game"
	"github.com/go-gl/mathgl/mgl64"
)

// minFlightDuration 起点和终点重合时的最短飞行时间(秒)
const minFlightDuration = 0.05

// FireballSource 火球数据来源，由 *game.SceneController 实现
type FireballSource interface {
	GetActiveFireballs() []game.FireballData
	HandleFireballComplete(id int)
}

// FireballFlightSystem 为新激活的火球创建飞行实体，到达终点后通知命中
//
// 命中处理会等待爆炸动画，所以 HandleFireballComplete 在独立 goroutine 中调用。
type FireballFlightSystem struct {
	entityManager *ecs.EntityManager
	fireballs     FireballSource
	particles     ParticleSource
	speed         float64 // 世界单位/秒

	launched map[int]ecs.EntityID // 火球ID -> 飞行实体，火球释放后移除
}

// NewFireballFlightSystem 创建火球飞行系统
func NewFireballFlightSystem(em *ecs.EntityManager, fireballs FireballSource, particles ParticleSource, speed float64) *FireballFlightSystem {
	if speed <= 0 {
		speed = config.DefaultFireballSpeed
	}
	return &FireballFlightSystem{
		entityManager: em,
		fireballs:     fireballs,
		particles:     particles,
		speed:         speed,
		launched:      make(map[int]ecs.EntityID),
	}
}

// Update 同步火球列表并推进飞行
func (s *FireballFlightSystem) Update(deltaTime float64) {
	active := s.fireballs.GetActiveFireballs()
	alive := make(map[int]struct{}, len(active))
	for _, fb := range active {
		alive[fb.ID] = struct{}{}
		if _, ok := s.launched[fb.ID]; !ok {
			s.launched[fb.ID] = s.launch(fb)
		}
	}

	// 被 ClearAll 清掉的火球
	for id, entity := range s.launched {
		if _, ok := alive[id]; ok {
			continue
		}
		s.land(entity)
		delete(s.launched, id)
	}

	for _, id := range ecs.GetEntitiesWith2[*components.FireballFlightComponent, *components.TransformComponent](s.entityManager) {
		flight, _ := ecs.GetComponent[*components.FireballFlightComponent](s.entityManager, id)
		tf, _ := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)

		flight.Progress += deltaTime / flight.Duration
		if flight.Progress < 1 {
			tf.Position = flight.Start.Add(flight.End.Sub(flight.Start).Mul(flight.Progress))
			continue
		}

		flight.Progress = 1
		tf.Position = flight.End
		fireballID := flight.FireballID
		s.land(id)
		log.Printf("[FireballFlightSystem] Fireball %d reached target", fireballID)
		go s.fireballs.HandleFireballComplete(fireballID)
	}
}

// launch 创建飞行实体并挂上火球粒子
func (s *FireballFlightSystem) launch(fb game.FireballData) ecs.EntityID {
	id := SpawnEffect(s.entityManager, s.particles, game.ParticleFireball, fb.StartPosition, 0)

	duration := fb.EndPosition.Sub(fb.StartPosition).Len() / s.speed
	if duration < minFlightDuration {
		duration = minFlightDuration
	}
	ecs.AddComponent(s.entityManager, id, &components.FireballFlightComponent{
		FireballID: fb.ID,
		Start:      fb.StartPosition,
		End:        fb.EndPosition,
		Duration:   duration,
	})
	if tf, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id); ok {
		tf.Yaw = yawOf(fb.Direction)
	}

	log.Printf("[FireballFlightSystem] Launched fireball %d (%.2fs)", fb.ID, duration)
	return id
}

// land 结束飞行，粒子效果在下一帧由 ParticleEffectSystem 回收
func (s *FireballFlightSystem) land(id ecs.EntityID) {
	if !s.entityManager.Exists(id) {
		return
	}
	ecs.RemoveComponent[*components.FireballFlightComponent](s.entityManager, id)
	if effect, ok := ecs.GetComponent[*components.ParticleEffectComponent](s.entityManager, id); ok {
		effect.Expired = true
	} else {
		s.entityManager.DestroyEntity(id)
	}
}

// InFlight 正在飞行的火球数量
func (s *FireballFlightSystem) InFlight() int {
	return len(ecs.GetEntitiesWith1[*components.FireballFlightComponent](s.entityManager))
}

func yawOf(dir mgl64.Vec3) float64 {
	if dir.X() == 0 && dir.Z() == 0 {
		return 0
	}
	return math.Atan2(dir.X(), dir.Z())
}
