package scenes

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/decker502/dragonfolio/pkg/components"
	"github.com/decker502/dragonfolio/pkg/config"
	"github.com/decker502/dragonfolio/pkg/ecs"
	"github.com/decker502/dragonfolio/pkg/favicon"
	"github.com/decker502/dragonfolio/pkg/game"
	"github.com/hajimehoshi/ebiten/v2"
)

var errNoAsset = errors.New("asset not available in tests")

// fakeLoader 所有资源都加载失败；gate 不为 nil 时 LoadModel 会阻塞到 gate 关闭
type fakeLoader struct {
	gate chan struct{}
}

func (f *fakeLoader) LoadModel(path string) (*game.Model, error) {
	if f.gate != nil {
		<-f.gate
	}
	return nil, errNoAsset
}

func (f *fakeLoader) LoadTexture(path string) (*ebiten.Image, error) {
	return nil, errNoAsset
}

func (f *fakeLoader) LoadSound(path string) ([]byte, error) {
	return nil, errNoAsset
}

// urlRecorder 替代系统浏览器
type urlRecorder struct {
	mu     sync.Mutex
	opened []string
}

func (r *urlRecorder) open(url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened = append(r.opened, url)
	return nil
}

func (r *urlRecorder) Opened() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.opened...)
}

func noSleep(time.Duration) {}

func testLinks() *config.LinksConfig {
	return &config.LinksConfig{
		Categories: config.CategoryColumns{
			Left:  []config.Category{{ID: "projects", Name: "Projects"}, {ID: "writing", Name: "Writing"}},
			Right: []config.Category{{ID: "about", Name: "About"}},
		},
		Links: []config.Link{
			{Name: "GitHub", URL: "https://www.github.com/decker502", Type: config.LinkTypeURL, Category: "projects"},
			{Name: "Go Blog", URL: "https://go.dev/blog", Type: config.LinkTypeURL, Category: "writing"},
			{Name: "Toggle Sound", Action: ActionToggleSound, Type: config.LinkTypeAction, Category: "about"},
			{Name: "Pinned", URL: "https://example.com", Type: config.LinkTypeURL, Category: "about", Position: &[3]float64{1, 2, 3}},
		},
	}
}

type testScene struct {
	*PortfolioScene
	urls *urlRecorder
}

func newTestScene(t *testing.T, opts PortfolioSceneOptions) testScene {
	t.Helper()
	urls := &urlRecorder{}
	if opts.Loader == nil {
		opts.Loader = &fakeLoader{}
	}
	if opts.Links == nil {
		opts.Links = testLinks()
	}
	if opts.Sleep == nil {
		opts.Sleep = noSleep
	}
	nav := game.NewNavigator(t.TempDir())
	nav.OpenURL = urls.open
	opts.Navigator = nav

	s := NewPortfolioScene(opts)
	t.Cleanup(s.Dispose)
	return testScene{PortfolioScene: s, urls: urls}
}

// waitFor 推进游戏循环直到条件满足或超时
func waitFor(t *testing.T, s *PortfolioScene, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		s.updateWorld(0.1)
		time.Sleep(time.Millisecond)
	}
}

func waitLoaded(t *testing.T, s *PortfolioScene) {
	t.Helper()
	waitFor(t, s, "loading to finish", func() bool { return !s.LoadingState().Loading })
}

func crateOf(t *testing.T, s *PortfolioScene, id string) (ecs.EntityID, *components.CrateComponent) {
	t.Helper()
	entity, ok := s.CrateEntity(id)
	if !ok {
		t.Fatalf("crate %s not found", id)
	}
	crate, ok := ecs.GetComponent[*components.CrateComponent](s.entityManager, entity)
	if !ok {
		t.Fatalf("crate %s has no CrateComponent", id)
	}
	return entity, crate
}

// TestPortfolioSceneShowsCategories 测试首页的分类箱子
func TestPortfolioSceneShowsCategories(t *testing.T) {
	s := newTestScene(t, PortfolioSceneOptions{})

	if s.CurrentCategory() != "" {
		t.Errorf("current category: got %q, want home", s.CurrentCategory())
	}
	if got := s.CrateCount(); got != 3 {
		t.Fatalf("crates: got %d, want 3", got)
	}
	if got := len(s.Controller().Crates().RegisteredCrateIDs()); got != 3 {
		t.Errorf("registered crates: got %d, want 3", got)
	}

	entity, crate := crateOf(t, s.PortfolioScene, categoryCrateID("projects"))
	if crate.Label != "Projects" || crate.Link.Type != config.LinkTypeCategory || crate.Link.Category != "projects" {
		t.Errorf("projects crate: %+v", crate)
	}
	if crate.Size != categoryCrateSize {
		t.Errorf("crate size: got %v, want %v", crate.Size, categoryCrateSize)
	}
	click, ok := ecs.GetComponent[*components.ClickableComponent](s.entityManager, entity)
	if !ok || !click.IsEnabled || click.HalfSize != categoryCrateSize/2 {
		t.Errorf("clickable: %+v", click)
	}

	// 左列在左，右列在右
	right, _ := crateOf(t, s.PortfolioScene, categoryCrateID("about"))
	ltf, _ := ecs.GetComponent[*components.TransformComponent](s.entityManager, entity)
	rtf, _ := ecs.GetComponent[*components.TransformComponent](s.entityManager, right)
	if ltf.Position.X() >= 0 || rtf.Position.X() <= 0 {
		t.Errorf("columns: left x %v, right x %v", ltf.Position.X(), rtf.Position.X())
	}
}

// TestPortfolioSceneSwitchView 测试分类页和返回首页
func TestPortfolioSceneSwitchView(t *testing.T) {
	s := newTestScene(t, PortfolioSceneOptions{})

	s.queueView("about")
	s.updateWorld(0)
	if s.CurrentCategory() != "about" {
		t.Fatalf("current category: got %q, want about", s.CurrentCategory())
	}
	// Toggle Sound、Pinned 和返回箱子
	if got := s.CrateCount(); got != 3 {
		t.Fatalf("crates: got %d, want 3", got)
	}
	if got := len(s.Controller().Crates().RegisteredCrateIDs()); got != 3 {
		t.Errorf("registered crates: got %d, want 3", got)
	}

	pinned, crate := crateOf(t, s.PortfolioScene, linkCrateID("about", 1, "Pinned"))
	tf, _ := ecs.GetComponent[*components.TransformComponent](s.entityManager, pinned)
	if tf.Position.X() != 1 || tf.Position.Y() != 2 || tf.Position.Z() != 3 {
		t.Errorf("pinned position: got %v, want (1, 2, 3)", tf.Position)
	}
	if crate.Domain != "example.com" {
		t.Errorf("domain: got %q, want example.com", crate.Domain)
	}

	_, back := crateOf(t, s.PortfolioScene, linkCrateID("about", 2, BackLinkName))
	if back.Link.Type != config.LinkTypeAction || back.Link.Action != ActionBack {
		t.Errorf("back crate link: %+v", back.Link)
	}

	s.queueView("missing")
	s.updateWorld(0)
	if s.CurrentCategory() != "about" {
		t.Errorf("unknown category should be ignored, got %q", s.CurrentCategory())
	}

	s.queueView("")
	s.updateWorld(0)
	if s.CurrentCategory() != "" || s.CrateCount() != 3 {
		t.Errorf("home view: category %q, %d crates", s.CurrentCategory(), s.CrateCount())
	}
	if _, ok := s.CrateEntity(linkCrateID("about", 2, BackLinkName)); ok {
		t.Error("link crates should be removed when leaving the category")
	}
}

// TestPortfolioSceneClickBlockedWhileLoading 测试加载期间点击无效
func TestPortfolioSceneClickBlockedWhileLoading(t *testing.T) {
	loader := &fakeLoader{gate: make(chan struct{})}
	s := newTestScene(t, PortfolioSceneOptions{Loader: loader})
	entity, _ := crateOf(t, s.PortfolioScene, categoryCrateID("projects"))

	if !s.LoadingState().Loading {
		t.Fatal("scene should be loading")
	}
	if s.ClickCrate(entity) {
		t.Error("click should be ignored while loading")
	}

	close(loader.gate)
	waitLoaded(t, s.PortfolioScene)
	if !s.ClickCrate(entity) {
		t.Error("click should be accepted after loading")
	}
}

// TestPortfolioSceneClickOpensLink 测试点击链接箱子：火球飞行、命中后打开链接
func TestPortfolioSceneClickOpensLink(t *testing.T) {
	s := newTestScene(t, PortfolioSceneOptions{})
	waitLoaded(t, s.PortfolioScene)

	s.queueView("projects")
	s.updateWorld(0)
	entity, crate := crateOf(t, s.PortfolioScene, linkCrateID("projects", 0, "GitHub"))
	if crate.Domain != "github.com" {
		t.Errorf("domain: got %q, want github.com", crate.Domain)
	}

	if !s.ClickCrate(entity) {
		t.Fatal("click should be accepted")
	}
	waitFor(t, s.PortfolioScene, "link to open", func() bool { return len(s.urls.Opened()) > 0 })

	if got := s.urls.Opened(); len(got) != 1 || got[0] != "https://www.github.com/decker502" {
		t.Errorf("opened: got %v", got)
	}
	waitFor(t, s.PortfolioScene, "crate to explode", func() bool {
		return crate.State == components.CrateExploding || crate.State == components.CrateExploded
	})
}

// TestPortfolioSceneDoubleClick 测试火球命中前再次点击同一箱子被忽略
func TestPortfolioSceneDoubleClick(t *testing.T) {
	s := newTestScene(t, PortfolioSceneOptions{})
	waitLoaded(t, s.PortfolioScene)

	s.queueView("projects")
	s.updateWorld(0)
	entity, crate := crateOf(t, s.PortfolioScene, linkCrateID("projects", 0, "GitHub"))

	if !s.ClickCrate(entity) {
		t.Fatal("first click should be accepted")
	}
	if crate.State != components.CrateTargeted {
		t.Errorf("state after click: got %v, want targeted", crate.State)
	}
	if s.ClickCrate(entity) {
		t.Error("second click before impact should be ignored")
	}

	waitFor(t, s.PortfolioScene, "link to open", func() bool { return len(s.urls.Opened()) > 0 })
	if got := s.urls.Opened(); len(got) != 1 {
		t.Errorf("link should open once, got %v", got)
	}
}

// TestPortfolioSceneClickCategory 测试击中分类箱子后切换视图
func TestPortfolioSceneClickCategory(t *testing.T) {
	s := newTestScene(t, PortfolioSceneOptions{})
	waitLoaded(t, s.PortfolioScene)

	entity, _ := crateOf(t, s.PortfolioScene, categoryCrateID("writing"))
	if !s.ClickCrate(entity) {
		t.Fatal("click should be accepted")
	}
	waitFor(t, s.PortfolioScene, "category view", func() bool { return s.CurrentCategory() == "writing" })

	if _, ok := s.CrateEntity(linkCrateID("writing", 0, "Go Blog")); !ok {
		t.Error("writing links should be shown")
	}
	if len(s.urls.Opened()) != 0 {
		t.Errorf("category click should not open links, got %v", s.urls.Opened())
	}
}

// TestPortfolioSceneActionFor 测试链接类型到动作的映射
func TestPortfolioSceneActionFor(t *testing.T) {
	s := newTestScene(t, PortfolioSceneOptions{})

	tests := []struct {
		name    string
		link    config.Link
		wantNil bool
	}{
		{"category", config.Link{Type: config.LinkTypeCategory, Category: "projects"}, false},
		{"url", config.Link{Type: config.LinkTypeURL, URL: "https://go.dev"}, false},
		{"download", config.Link{Type: config.LinkTypeDownload, URL: "https://example.com/cv.pdf"}, false},
		{"registered action", config.Link{Type: config.LinkTypeAction, Action: ActionToggleDebug}, false},
		{"unknown action", config.Link{Name: "Nope", Type: config.LinkTypeAction, Action: "nope"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.actionFor(tt.link); (got == nil) != tt.wantNil {
				t.Errorf("nil action: got %v, want %v", got == nil, tt.wantNil)
			}
		})
	}

	called := false
	s.RegisterAction("custom", func() error {
		called = true
		return nil
	})
	if err := s.actionFor(config.Link{Type: config.LinkTypeAction, Action: "custom"})(); err != nil || !called {
		t.Errorf("custom action: err %v, called %v", err, called)
	}
}

// TestPortfolioSceneBuiltinActions 测试内置动作
func TestPortfolioSceneBuiltinActions(t *testing.T) {
	settings := game.NewSettingsManager(nil)
	s := newTestScene(t, PortfolioSceneOptions{Settings: settings})

	if !s.SoundEnabled() {
		t.Fatal("sound should start enabled")
	}
	s.runAction(ActionToggleSound)
	if s.SoundEnabled() || settings.GetSettings().SoundEnabled {
		t.Error("toggleSound should disable sound")
	}

	s.runAction(ActionToggleDebug)
	if !s.ShowDebug() || !settings.GetSettings().ShowDebug {
		t.Error("toggleDebug should enable debug info and store it")
	}

	s.queueView("about")
	s.updateWorld(0)
	s.runAction(ActionBack)
	s.updateWorld(0)
	if s.CurrentCategory() != "" {
		t.Errorf("back: got category %q, want home", s.CurrentCategory())
	}

	s.runAction("nope") // 未注册的动作被忽略
}

// TestPortfolioSceneToggleSoundWithoutSettings 测试没有设置管理器时的错误
func TestPortfolioSceneToggleSoundWithoutSettings(t *testing.T) {
	s := newTestScene(t, PortfolioSceneOptions{})
	if err := s.toggleSound(); err == nil {
		t.Error("toggleSound without settings should fail")
	}
	if !s.SoundEnabled() {
		t.Error("sound is reported enabled without settings")
	}
}

// TestPortfolioSceneResize 测试窗口变窄后切换到移动端布局
func TestPortfolioSceneResize(t *testing.T) {
	s := newTestScene(t, PortfolioSceneOptions{})

	s.Resize(600, 900)
	if !s.Controller().IsMobile() {
		t.Fatal("narrow window should use the mobile layout")
	}
	_, crate := crateOf(t, s.PortfolioScene, categoryCrateID("projects"))
	if crate.Size != categoryCrateSizeMobile {
		t.Errorf("crate size: got %v, want %v", crate.Size, categoryCrateSizeMobile)
	}
	if s.camera.Aspect != 600.0/900.0 {
		t.Errorf("camera aspect: got %v", s.camera.Aspect)
	}

	s.Resize(0, 0) // 忽略
	if s.width != 600 || s.height != 900 {
		t.Errorf("size: got %dx%d, want 600x900", s.width, s.height)
	}
}

// TestPortfolioSceneFetchesIcons 测试链接箱子的站点图标
func TestPortfolioSceneFetchesIcons(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, `<html><head><link rel="icon" href="/icon.png"></head></html>`)
		case "/icon.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(buf.Bytes())
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	links := &config.LinksConfig{
		Categories: config.CategoryColumns{Left: []config.Category{{ID: "projects", Name: "Projects"}}},
		Links:      []config.Link{{Name: "Local", URL: srv.URL + "/", Type: config.LinkTypeURL, Category: "projects"}},
	}
	fetcher := favicon.NewFetcher(favicon.Options{Client: srv.Client(), Scheme: "http", GoogleURL: "-"})
	s := newTestScene(t, PortfolioSceneOptions{Links: links, Favicons: fetcher})

	s.queueView("projects")
	s.updateWorld(0)
	_, crate := crateOf(t, s.PortfolioScene, linkCrateID("projects", 0, "Local"))
	if want := strings.TrimPrefix(srv.URL, "http://"); crate.Domain != want {
		t.Fatalf("domain: got %q, want %q", crate.Domain, want)
	}
	waitFor(t, s.PortfolioScene, "icon", func() bool { return crate.Icon != nil })

	// 切回首页再进入时直接使用已有纹理
	s.queueView("")
	s.queueView("projects")
	s.updateWorld(0)
	_, again := crateOf(t, s.PortfolioScene, linkCrateID("projects", 0, "Local"))
	if again.Icon == nil {
		t.Error("cached icon should be applied to the rebuilt crate")
	}
	if fetcher.Len() != 1 {
		t.Errorf("fetcher cache: got %d entries, want 1", fetcher.Len())
	}
}

// TestLinkDomain 测试链接域名
func TestLinkDomain(t *testing.T) {
	tests := []struct {
		link config.Link
		want string
	}{
		{config.Link{Type: config.LinkTypeURL, URL: "https://www.github.com/user"}, "github.com"},
		{config.Link{Type: config.LinkTypeURL, URL: "https://go.dev/blog"}, "go.dev"},
		{config.Link{Type: config.LinkTypeDownload, URL: "https://example.com/cv.pdf"}, "example.com"},
		{config.Link{Type: config.LinkTypeCategory, Category: "projects"}, ""},
		{config.Link{Type: config.LinkTypeAction, Action: ActionBack}, ""},
		{config.Link{Type: config.LinkTypeURL, URL: "://bad"}, ""},
	}
	for _, tt := range tests {
		if got := linkDomain(tt.link); got != tt.want {
			t.Errorf("linkDomain(%q): got %q, want %q", tt.link.URL, got, tt.want)
		}
	}
}

// TestWelcomeAlpha 测试欢迎语淡出
func TestWelcomeAlpha(t *testing.T) {
	tests := []struct {
		elapsed float64
		want    float64
	}{
		{-1, 0},
		{0, 1},
		{1.9, 1},
		{2.25, 0.5},
		{2.5, 0},
		{10, 0},
	}
	for _, tt := range tests {
		if got := welcomeAlpha(tt.elapsed); got != tt.want {
			t.Errorf("welcomeAlpha(%v): got %v, want %v", tt.elapsed, got, tt.want)
		}
	}
}
