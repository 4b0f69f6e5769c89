package systems

import (
	"sync"
	"testing"
	"time"

	"github.com/decker502/dragonfolio/internal/particle"
	"github.com/decker502/dragonfolio/pkg/game"
	"github.com/go-gl/mathgl/mgl64"
)

func newTestParticle(t *testing.T, seed int64) *particle.System {
	t.Helper()
	sys, err := particle.New(particle.FireballConfig(), seed)
	if err != nil {
		t.Fatalf("particle.New: %v", err)
	}
	sys.Scale = mgl64.Vec3{}
	return sys
}

// fakePool 记录借出、归还和异步创建
type fakePool struct {
	mu          sync.Mutex
	available   []*particle.System
	borrowed    int
	returned    []*particle.System
	asyncCalls  int
	asyncResult *particle.System
}

func newFakePool(t *testing.T, n int) *fakePool {
	p := &fakePool{}
	for i := 0; i < n; i++ {
		p.available = append(p.available, newTestParticle(t, int64(i+1)))
	}
	return p
}

func (p *fakePool) GetAvailableParticleSystem(kind game.ParticleKind) *particle.System {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.available) == 0 {
		return nil
	}
	sys := p.available[len(p.available)-1]
	p.available = p.available[:len(p.available)-1]
	p.borrowed++
	return sys
}

func (p *fakePool) ReturnParticleSystemToPool(sys *particle.System, kind game.ParticleKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sys.Scale = mgl64.Vec3{}
	p.returned = append(p.returned, sys)
	p.available = append(p.available, sys)
}

func (p *fakePool) CreateParticleSystemAsync(kind game.ParticleKind) <-chan *particle.System {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asyncCalls++
	ch := make(chan *particle.System, 1)
	ch <- p.asyncResult
	close(ch)
	return ch
}

func (p *fakePool) Returned() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.returned)
}

// fakeFireballs 可控的火球列表，命中通知写入 completed
type fakeFireballs struct {
	mu        sync.Mutex
	active    []game.FireballData
	completed chan int
}

func newFakeFireballs(active ...game.FireballData) *fakeFireballs {
	return &fakeFireballs{active: active, completed: make(chan int, 16)}
}

func (f *fakeFireballs) GetActiveFireballs() []game.FireballData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]game.FireballData(nil), f.active...)
}

func (f *fakeFireballs) HandleFireballComplete(id int) {
	f.completed <- id
}

func (f *fakeFireballs) SetActive(active ...game.FireballData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = active
}

func waitCompleted(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case id := <-ch:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("fireball completion not reported")
		return -1
	}
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}
