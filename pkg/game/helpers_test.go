package game

import (
	"errors"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

var errFake = errors.New("fake load failure")

// fakeLoader 返回内存中的资源，可按类型注入错误
type fakeLoader struct {
	mu         sync.Mutex
	modelErr   error
	textureErr error
	soundErr   error
	loaded     []string
}

func (f *fakeLoader) record(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = append(f.loaded, path)
}

func (f *fakeLoader) LoadModel(path string) (*Model, error) {
	f.record(path)
	if f.modelErr != nil {
		return nil, f.modelErr
	}
	return &Model{Path: path}, nil
}

func (f *fakeLoader) LoadTexture(path string) (*ebiten.Image, error) {
	f.record(path)
	if f.textureErr != nil {
		return nil, f.textureErr
	}
	return ebiten.NewImage(4, 4), nil
}

func (f *fakeLoader) LoadSound(path string) ([]byte, error) {
	f.record(path)
	if f.soundErr != nil {
		return nil, f.soundErr
	}
	return []byte{0, 0, 0, 0}, nil
}

// sleepRecorder 立即返回并记录每次等待的时长
type sleepRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (s *sleepRecorder) Sleep(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, d)
}

func (s *sleepRecorder) Calls() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.calls...)
}

func noSleep(time.Duration) {}

// fakeEmitter 固定位置和朝向的发射器
type fakeEmitter struct {
	mu       sync.Mutex
	pos      mgl64.Vec3
	rot      mgl64.Quat
	refreshes int
}

func newFakeEmitter(pos mgl64.Vec3) *fakeEmitter {
	return &fakeEmitter{pos: pos, rot: mgl64.QuatIdent()}
}

func (e *fakeEmitter) Position() mgl64.Vec3 { return e.pos }

func (e *fakeEmitter) Quaternion() mgl64.Quat {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rot
}

func (e *fakeEmitter) UpdateMatrixWorld() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshes++
}

// fakeTween 记录设置的朝向；Start 时把朝向写回发射器
type fakeTween struct {
	emitter *fakeEmitter
	yaw     float64
	started int
	stopped int
}

func (t *fakeTween) Set(yaw float64) { t.yaw = yaw }

func (t *fakeTween) Start() {
	t.started++
	if t.emitter != nil {
		t.emitter.mu.Lock()
		t.emitter.rot = mgl64.QuatRotate(t.yaw, mgl64.Vec3{0, 1, 0})
		t.emitter.mu.Unlock()
	}
}

func (t *fakeTween) Stop() { t.stopped++ }

// fakeCrate 记录爆炸和重置次数
type fakeCrate struct {
	mu       sync.Mutex
	exploded int
	resets   int
}

func (c *fakeCrate) Explode() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exploded++
}

func (c *fakeCrate) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resets++
}

func (c *fakeCrate) Exploded() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exploded
}
