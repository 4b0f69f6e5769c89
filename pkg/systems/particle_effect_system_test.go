package systems

import (
	"testing"

	"github.com/decker502/dragonfolio/pkg/components"
	"github.com/decker502/dragonfolio/pkg/ecs"
	"github.com/decker502/dragonfolio/pkg/game"
	"github.com/go-gl/mathgl/mgl64"
)

// TestSpawnEffectBorrowsFromPool 测试优先从池中借用
func TestSpawnEffectBorrowsFromPool(t *testing.T) {
	em := ecs.NewEntityManager()
	pool := newFakePool(t, 1)
	pos := mgl64.Vec3{1, 2, 3}

	id := SpawnEffect(em, pool, game.ParticleExplosion, pos, 1.5)

	effect, ok := ecs.GetComponent[*components.ParticleEffectComponent](em, id)
	if !ok {
		t.Fatal("effect component missing")
	}
	if !effect.Pooled || effect.System == nil {
		t.Fatalf("expected pooled system, got %+v", effect)
	}
	if effect.Pending != nil {
		t.Error("pooled effect should not wait for async creation")
	}
	if effect.System.Scale != (mgl64.Vec3{1, 1, 1}) {
		t.Errorf("scale: got %v, want (1,1,1)", effect.System.Scale)
	}
	if effect.System.Position != pos {
		t.Errorf("position: got %v, want %v", effect.System.Position, pos)
	}
	if pool.asyncCalls != 0 {
		t.Errorf("async calls: got %d, want 0", pool.asyncCalls)
	}
}

// TestParticleEffectExpiry 测试 TTL 到期后归还并删除实体
func TestParticleEffectExpiry(t *testing.T) {
	em := ecs.NewEntityManager()
	pool := newFakePool(t, 1)
	system := NewParticleEffectSystem(em, pool)

	id := SpawnEffect(em, pool, game.ParticleExplosion, mgl64.Vec3{}, 0.5)

	system.Update(0.3)
	if pool.Returned() != 0 {
		t.Fatal("effect returned before TTL")
	}
	effect, _ := ecs.GetComponent[*components.ParticleEffectComponent](em, id)
	if effect.System.ActiveCount() == 0 {
		t.Error("running effect should have live particles")
	}

	system.Update(0.3)
	if pool.Returned() != 1 {
		t.Errorf("returned: got %d, want 1", pool.Returned())
	}
	if !em.IsMarkedForDestroy(id) {
		t.Error("expired effect entity should be destroyed")
	}
	if effect.System != nil {
		t.Error("released effect should drop its system")
	}
}

// TestParticleEffectAsyncFallback 测试池为空时异步创建
func TestParticleEffectAsyncFallback(t *testing.T) {
	tests := []struct {
		name       string
		result     bool
		wantSystem bool
	}{
		{"delivered", true, true},
		{"creation failed", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			em := ecs.NewEntityManager()
			pool := newFakePool(t, 0)
			if tt.result {
				pool.asyncResult = newTestParticle(t, 42)
			}
			system := NewParticleEffectSystem(em, pool)

			id := SpawnEffect(em, pool, game.ParticleFireball, mgl64.Vec3{0, 1, 0}, 0)
			effect, _ := ecs.GetComponent[*components.ParticleEffectComponent](em, id)
			if effect.Pending == nil || effect.System != nil {
				t.Fatalf("expected pending effect, got %+v", effect)
			}

			system.Update(0.016)

			if effect.Pending != nil {
				t.Error("pending channel should be consumed")
			}
			if (effect.System != nil) != tt.wantSystem {
				t.Errorf("system present: got %v, want %v", effect.System != nil, tt.wantSystem)
			}
			if effect.Pooled {
				t.Error("async system is not a pool member")
			}
			if tt.wantSystem && effect.System.Position != (mgl64.Vec3{0, 1, 0}) {
				t.Errorf("async system position: got %v", effect.System.Position)
			}

			// 过期后异步实例只隐藏，不进池
			sys := effect.System
			effect.Expired = true
			system.Update(0.016)
			if pool.Returned() != 0 {
				t.Error("async system must not be returned to the pool")
			}
			if sys != nil && sys.Visible {
				t.Error("async system should be hidden after release")
			}
		})
	}
}

// TestParticleEffectFollowsTransform 测试粒子跟随实体位置
func TestParticleEffectFollowsTransform(t *testing.T) {
	em := ecs.NewEntityManager()
	pool := newFakePool(t, 1)
	system := NewParticleEffectSystem(em, pool)

	id := SpawnEffect(em, pool, game.ParticleFireball, mgl64.Vec3{}, 0)
	tf, _ := ecs.GetComponent[*components.TransformComponent](em, id)
	tf.Position = mgl64.Vec3{4, 5, 6}

	system.Update(0.016)

	effect, _ := ecs.GetComponent[*components.ParticleEffectComponent](em, id)
	if effect.System.Position != tf.Position {
		t.Errorf("position: got %v, want %v", effect.System.Position, tf.Position)
	}
	if em.IsMarkedForDestroy(id) {
		t.Error("effect without TTL should stay alive")
	}
}

// TestParticleEffectReleaseAll 测试场景销毁时全部归还
func TestParticleEffectReleaseAll(t *testing.T) {
	em := ecs.NewEntityManager()
	pool := newFakePool(t, 3)
	system := NewParticleEffectSystem(em, pool)

	for i := 0; i < 3; i++ {
		SpawnEffect(em, pool, game.ParticleFireball, mgl64.Vec3{}, 0)
	}
	system.ReleaseAll()

	if pool.Returned() != 3 {
		t.Errorf("returned: got %d, want 3", pool.Returned())
	}
	if removed := em.RemoveMarkedEntities(); removed != 3 {
		t.Errorf("removed entities: got %d, want 3", removed)
	}
}
