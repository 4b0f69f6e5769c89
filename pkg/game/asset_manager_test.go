package game

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/decker502/dragonfolio/internal/particle"
	"github.com/decker502/dragonfolio/pkg/config"
	"github.com/go-gl/mathgl/mgl64"
)

func fixedNow() time.Time { return time.UnixMilli(1_700_000_000_000) }

func newTestAssetManager(loader AssetLoader, onChange func(LoadingState)) *AssetManager {
	return NewAssetManager(AssetManagerOptions{
		Loader:   loader,
		OnChange: onChange,
		Now:      fixedNow,
	})
}

// TestAssetManagerProgressReachesHundredOnlyAfterAllSteps 测试任意完成顺序下进度的变化
func TestAssetManagerProgressReachesHundredOnlyAfterAllSteps(t *testing.T) {
	orders := [][]string{
		{StepFireAssets, StepDragon, StepGround, StepScene},
		{StepScene, StepGround, StepDragon, StepFireAssets},
		{StepDragon, StepScene, StepFireAssets, StepGround},
	}

	for _, order := range orders {
		t.Run(strings.Join(order, ","), func(t *testing.T) {
			var states []LoadingState
			am := newTestAssetManager(&fakeLoader{}, func(s LoadingState) {
				states = append(states, s)
			})

			am.StartLoading()
			for i, step := range order {
				am.CompleteStep(step, "step "+step)
				got := am.GetLoadingState()
				want := float64(i+1) / 4 * 100
				if got.Progress != want {
					t.Errorf("after %d steps: progress got %v, want %v", i+1, got.Progress, want)
				}
				if i < len(order)-1 && !got.Loading {
					t.Errorf("after %d steps: Loading became false early", i+1)
				}
			}

			final := am.GetLoadingState()
			if final.Loading {
				t.Error("Loading should be false after all steps")
			}
			if final.Message != MessageComplete {
				t.Errorf("Message: got %q, want %q", final.Message, MessageComplete)
			}

			// 每次变化恰好通知一次，且只有最后一次达到 100
			if len(states) != 5 {
				t.Fatalf("notifications: got %d, want 5", len(states))
			}
			for i, s := range states[:4] {
				if s.Progress >= 100 || !s.Loading {
					t.Errorf("notification %d: got progress %v loading %v before completion", i, s.Progress, s.Loading)
				}
			}
			if last := states[4]; last.Progress != 100 || last.Loading {
				t.Errorf("last notification: got %+v", last)
			}
		})
	}
}

// TestAssetManagerStartLoading 测试初始状态
func TestAssetManagerStartLoading(t *testing.T) {
	am := newTestAssetManager(&fakeLoader{}, nil)

	if got := am.GetLoadingState(); got.Loading || got.Message != MessageReady {
		t.Errorf("initial state: got %+v", got)
	}

	am.StartLoading()
	state := am.GetLoadingState()
	if !state.Loading || state.Progress != 0 || state.Message != MessageInitializing {
		t.Errorf("after StartLoading: got %+v", state)
	}

	steps := am.GetSteps()
	wantNames := []string{"Interactive Elements", "Dragon Model", "Scene Environment", "Final Setup"}
	if len(steps) != len(wantNames) {
		t.Fatalf("steps: got %d, want %d", len(steps), len(wantNames))
	}
	for i, name := range wantNames {
		if steps[i].Name != name || steps[i].Loaded {
			t.Errorf("step %d: got %+v, want pending %q", i, steps[i], name)
		}
	}

	stats := am.GetStats()
	if stats.Total != 4 || stats.Pending != 4 {
		t.Errorf("stats: got %+v", stats)
	}
}

// TestAssetManagerFailStepCountsTowardProgress 测试失败步骤也计入进度
func TestAssetManagerFailStepCountsTowardProgress(t *testing.T) {
	am := newTestAssetManager(&fakeLoader{}, nil)
	am.StartLoading()

	am.FailStep(StepDragon, "boom")

	state := am.GetLoadingState()
	if state.Progress != 25 {
		t.Errorf("Progress: got %v, want 25", state.Progress)
	}
	if len(state.Errors) != 1 || state.Errors[0] != "boom" {
		t.Errorf("Errors: got %v, want [boom]", state.Errors)
	}

	stats := am.GetStats()
	if stats.Failed != 1 || stats.Loaded != 0 || stats.Pending != 3 {
		t.Errorf("stats: got %+v", stats)
	}

	am.CompleteStep(StepFireAssets, "")
	am.CompleteStep(StepGround, "")
	am.CompleteStep(StepScene, "")
	if state := am.GetLoadingState(); state.Loading || state.Progress != 100 {
		t.Errorf("final state: got %+v", state)
	}
}

// TestAssetManagerUnknownStepIgnored 测试未知步骤名不影响状态
func TestAssetManagerUnknownStepIgnored(t *testing.T) {
	calls := 0
	am := newTestAssetManager(&fakeLoader{}, func(LoadingState) { calls++ })
	am.StartLoading()

	am.CompleteStep("nope", "ignored")
	am.FailStep("nope", "ignored")

	if calls != 1 {
		t.Errorf("notifications: got %d, want 1", calls)
	}
	if state := am.GetLoadingState(); state.Progress != 0 || state.Message != MessageInitializing {
		t.Errorf("state changed by unknown step: %+v", state)
	}
}

// TestAssetManagerListenerReceivesCopies 测试监听器拿到的是副本
func TestAssetManagerListenerReceivesCopies(t *testing.T) {
	var last LoadingState
	am := newTestAssetManager(&fakeLoader{}, func(s LoadingState) { last = s })
	am.StartLoading()
	am.FailStep(StepGround, "original")

	last.Errors[0] = "mutated"
	last.Progress = -1

	state := am.GetLoadingState()
	if state.Errors[0] != "original" {
		t.Errorf("Errors: got %v, want [original]", state.Errors)
	}
	if state.Progress != 25 {
		t.Errorf("Progress: got %v, want 25", state.Progress)
	}
}

// TestAssetManagerPreloadFireAssets 测试火焰资源加载成功时创建模板并预热对象池
func TestAssetManagerPreloadFireAssets(t *testing.T) {
	loader := &fakeLoader{}
	am := newTestAssetManager(loader, nil)
	am.StartLoading()
	am.PreloadFireAssets()

	if !am.AreCriticalAssetsLoaded() {
		t.Fatal("critical assets should be loaded")
	}
	assets := am.GetAssets()
	if assets.FireModel.Path != config.DefaultFireModelPath {
		t.Errorf("FireModel path: got %q", assets.FireModel.Path)
	}
	if len(assets.FireballSound) == 0 {
		t.Error("FireballSound should be set")
	}
	if assets.FireballParticleSystem == nil || assets.ExplosionParticleSystem == nil {
		t.Fatal("particle templates should be created")
	}

	pool := am.GetPoolStats()
	if pool.FireballAvailable != DefaultPoolSize || pool.ExplosionAvailable != DefaultPoolSize {
		t.Errorf("pool: got %+v, want %d of each", pool, DefaultPoolSize)
	}
	for _, sys := range am.GetAllPrewarmedSystems() {
		if !sys.IsInert() || !sys.Visible {
			t.Errorf("prewarmed system should be visible with zero scale, got scale %v visible %v", sys.Scale, sys.Visible)
		}
	}

	steps := am.GetSteps()
	if !steps[0].Loaded || steps[0].Error != "" {
		t.Errorf("fire assets step: got %+v", steps[0])
	}
	if state := am.GetLoadingState(); state.Message != MessageFireLoaded {
		t.Errorf("Message: got %q, want %q", state.Message, MessageFireLoaded)
	}
}

// TestAssetManagerPreloadFireAssetsFailure 测试任一资源失败时整个步骤失败
func TestAssetManagerPreloadFireAssetsFailure(t *testing.T) {
	tests := []struct {
		name   string
		loader *fakeLoader
	}{
		{"model", &fakeLoader{modelErr: errFake}},
		{"texture", &fakeLoader{textureErr: errFake}},
		{"sound", &fakeLoader{soundErr: errFake}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			am := newTestAssetManager(tt.loader, nil)
			am.StartLoading()
			am.PreloadFireAssets()

			state := am.GetLoadingState()
			if len(state.Errors) != 1 || !strings.Contains(state.Errors[0], "Failed to load interactive elements") {
				t.Errorf("Errors: got %v", state.Errors)
			}
			if state.Progress != 25 {
				t.Errorf("Progress: got %v, want 25", state.Progress)
			}
			if am.GetAssets().FireballParticleSystem != nil {
				t.Error("particle templates should not be created")
			}
			if sys := am.GetAvailableParticleSystem(ParticleFireball); sys != nil {
				t.Error("pool should be empty")
			}
		})
	}
}

// TestAssetManagerPreloadModels 测试箱子和龙模型的加载
func TestAssetManagerPreloadModels(t *testing.T) {
	am := newTestAssetManager(&fakeLoader{}, nil)
	am.StartLoading()
	am.PreloadCrateModel()
	am.PreloadDragonModel()

	assets := am.GetAssets()
	if assets.CrateModel == nil || assets.CrateModel.Path != config.DefaultCrateModelPath {
		t.Errorf("CrateModel: got %+v", assets.CrateModel)
	}
	if assets.DragonModel == nil || assets.DragonModel.Path != config.DefaultDragonModelPath {
		t.Errorf("DragonModel: got %+v", assets.DragonModel)
	}
	if stats := am.GetStats(); stats.Loaded != 1 {
		t.Errorf("Loaded: got %d, want 1", stats.Loaded)
	}

	failing := newTestAssetManager(&fakeLoader{modelErr: errFake}, nil)
	failing.StartLoading()
	failing.PreloadCrateModel()
	failing.PreloadDragonModel()
	if stats := failing.GetStats(); stats.Failed != 1 {
		t.Errorf("Failed: got %d, want 1", stats.Failed)
	}
}

// TestAssetManagerBorrowAndReturn 测试取出并归还后池大小恢复且缩放为 0
func TestAssetManagerBorrowAndReturn(t *testing.T) {
	am := newTestAssetManager(&fakeLoader{}, nil)
	am.StartLoading()
	am.PreloadFireAssets()

	for _, kind := range []ParticleKind{ParticleFireball, ParticleExplosion} {
		t.Run(string(kind), func(t *testing.T) {
			before := am.GetPoolStats()

			sys := am.GetAvailableParticleSystem(kind)
			if sys == nil {
				t.Fatal("expected a pooled system")
			}
			sys.Scale = mgl64.Vec3{1, 1, 1}
			sys.Position = mgl64.Vec3{3, 4, 5}

			during := am.GetPoolStats()
			if kind == ParticleFireball && (during.FireballAvailable != before.FireballAvailable-1 || during.FireballActive != 1) {
				t.Errorf("during borrow: got %+v", during)
			}
			if kind == ParticleExplosion && (during.ExplosionAvailable != before.ExplosionAvailable-1 || during.ExplosionActive != 1) {
				t.Errorf("during borrow: got %+v", during)
			}

			am.ReturnParticleSystemToPool(sys, kind)
			if after := am.GetPoolStats(); after != before {
				t.Errorf("after return: got %+v, want %+v", after, before)
			}
			if !sys.IsInert() {
				t.Errorf("returned system scale: got %v, want zero", sys.Scale)
			}

			// 重复归还被忽略
			am.ReturnParticleSystemToPool(sys, kind)
			if after := am.GetPoolStats(); after != before {
				t.Errorf("after double return: got %+v, want %+v", after, before)
			}
		})
	}
}

// TestAssetManagerReturnForeignSystemIgnored 测试非池实例的归还被忽略
func TestAssetManagerReturnForeignSystemIgnored(t *testing.T) {
	am := newTestAssetManager(&fakeLoader{}, nil)
	am.StartLoading()
	am.PreloadFireAssets()
	before := am.GetPoolStats()

	foreign, err := particle.New(particle.FireballConfig(), 1)
	if err != nil {
		t.Fatalf("particle.New: %v", err)
	}
	am.ReturnParticleSystemToPool(foreign, ParticleFireball)
	am.ReturnParticleSystemToPool(nil, ParticleFireball)

	if after := am.GetPoolStats(); after != before {
		t.Errorf("pool changed: got %+v, want %+v", after, before)
	}
	if foreign.IsInert() {
		t.Error("foreign system should not be modified")
	}
}

// TestAssetManagerEmptyPoolReturnsNil 测试池耗尽后返回 nil
func TestAssetManagerEmptyPoolReturnsNil(t *testing.T) {
	am := newTestAssetManager(&fakeLoader{}, nil)
	am.StartLoading()
	am.PreloadFireAssets()

	seen := make(map[*particle.System]bool)
	for i := 0; i < DefaultPoolSize; i++ {
		sys := am.GetAvailableParticleSystem(ParticleExplosion)
		if sys == nil {
			t.Fatalf("borrow %d: got nil", i)
		}
		if seen[sys] {
			t.Fatalf("borrow %d: same system returned twice", i)
		}
		seen[sys] = true
	}
	if sys := am.GetAvailableParticleSystem(ParticleExplosion); sys != nil {
		t.Error("expected nil from exhausted pool")
	}
	if pool := am.GetPoolStats(); pool.FireballAvailable != DefaultPoolSize {
		t.Errorf("fireball pool should be untouched, got %+v", pool)
	}
}

// TestAssetManagerCreateParticleSystemAsync 测试异步创建恰好送达一次
func TestAssetManagerCreateParticleSystemAsync(t *testing.T) {
	am := newTestAssetManager(&fakeLoader{}, nil)

	// 配置尚未构建：送达 nil
	sys, ok := <-am.CreateParticleSystemAsync(ParticleFireball)
	if !ok || sys != nil {
		t.Errorf("before preload: got (%v, %v), want (nil, true)", sys, ok)
	}

	am.StartLoading()
	am.PreloadFireAssets()
	before := am.GetPoolStats()

	ch := am.CreateParticleSystemAsync(ParticleExplosion)
	sys, ok = <-ch
	if !ok || sys == nil {
		t.Fatalf("first receive: got (%v, %v)", sys, ok)
	}
	if sys.Config().MaxParticles != particle.ExplosionConfig().MaxParticles {
		t.Errorf("MaxParticles: got %d", sys.Config().MaxParticles)
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after one value")
	}
	if after := am.GetPoolStats(); after != before {
		t.Errorf("async systems must not join the pool: got %+v, want %+v", after, before)
	}
}

// TestAssetManagerFactoryFailure 测试工厂失败时不会 panic，池保持为空
func TestAssetManagerFactoryFailure(t *testing.T) {
	am := NewAssetManager(AssetManagerOptions{
		Loader: &fakeLoader{},
		Factory: func(particle.Config, int64) (*particle.System, error) {
			return nil, errors.New("no gpu")
		},
		Now: fixedNow,
	})
	am.StartLoading()
	am.PreloadFireAssets()

	if pool := am.GetPoolStats(); pool != (PoolStats{}) {
		t.Errorf("pool: got %+v, want empty", pool)
	}
	if sys := <-am.CreateParticleSystemAsync(ParticleFireball); sys != nil {
		t.Error("async create should deliver nil on factory failure")
	}
	// 资源本身已加载，步骤仍然完成
	if stats := am.GetStats(); stats.Loaded != 1 {
		t.Errorf("Loaded: got %d, want 1", stats.Loaded)
	}
}

// TestAssetManagerPrewarmSeeds 测试预热使用不同的随机种子
func TestAssetManagerPrewarmSeeds(t *testing.T) {
	var mu sync.Mutex
	seeds := make(map[int64]int)
	am := NewAssetManager(AssetManagerOptions{
		Loader: &fakeLoader{},
		Factory: func(cfg particle.Config, seed int64) (*particle.System, error) {
			mu.Lock()
			seeds[seed]++
			mu.Unlock()
			return particle.New(cfg, seed)
		},
		Now: fixedNow,
	})
	am.StartLoading()
	am.PreloadFireAssets()

	base := fixedNow().UnixMilli()
	for i := int64(0); i < 2*DefaultPoolSize; i++ {
		if seeds[base+i] == 0 {
			t.Errorf("seed %d not used", base+i)
		}
	}
}

// TestAssetManagerPresetsOverride 测试预设覆盖并钳制到安全区间
func TestAssetManagerPresetsOverride(t *testing.T) {
	presets := &config.ParticlePresets{
		Fireball:  config.ParticlePreset{MaxParticles: "99999", Lifetime: "[1 2]"},
		Explosion: config.ParticlePreset{MaxParticles: "not a number"},
	}
	am := NewAssetManager(AssetManagerOptions{Loader: &fakeLoader{}, Presets: presets, Now: fixedNow})
	am.StartLoading()
	am.PreloadFireAssets()

	assets := am.GetAssets()
	fire := assets.FireballParticleSystem.Config()
	if fire.MaxParticles != 2000 {
		t.Errorf("fireball MaxParticles: got %d, want 2000", fire.MaxParticles)
	}
	if fire.StartLifetime != (particle.Range{Min: 1, Max: 2}) {
		t.Errorf("fireball lifetime: got %+v", fire.StartLifetime)
	}
	if fire.Texture == nil {
		t.Error("fireball texture should be set")
	}
	expl := assets.ExplosionParticleSystem.Config()
	if expl.MaxParticles != particle.ExplosionConfig().MaxParticles {
		t.Errorf("explosion MaxParticles: got %d, want built-in value", expl.MaxParticles)
	}
}

// TestAssetManagerCreateOnDemand 测试模板已存在时不会重复创建
func TestAssetManagerCreateOnDemand(t *testing.T) {
	am := newTestAssetManager(&fakeLoader{}, nil)
	am.CreateParticleSystemsOnDemand()
	if am.GetAssets().FireballParticleSystem != nil {
		t.Error("no texture yet: templates should not be created")
	}

	am.StartLoading()
	am.PreloadFireAssets()
	template := am.GetAssets().FireballParticleSystem
	am.CreateParticleSystemsOnDemand()
	if am.GetAssets().FireballParticleSystem != template {
		t.Error("existing template should be kept")
	}
	if pool := am.GetPoolStats(); pool.FireballAvailable != DefaultPoolSize {
		t.Errorf("pool should not grow: got %+v", pool)
	}
}

// TestAssetManagerDispose 测试释放后资源被清空
func TestAssetManagerDispose(t *testing.T) {
	am := newTestAssetManager(&fakeLoader{}, nil)
	am.StartLoading()
	am.PreloadFireAssets()
	am.Dispose()

	if am.AreCriticalAssetsLoaded() {
		t.Error("assets should be cleared after Dispose")
	}
}
