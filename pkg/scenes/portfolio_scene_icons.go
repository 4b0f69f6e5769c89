package scenes

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"log"

	"github.com/decker502/dragonfolio/pkg/components"
	"github.com/decker502/dragonfolio/pkg/ecs"
	"github.com/hajimehoshi/ebiten/v2"
	_ "golang.org/x/image/bmp" // Register BMP decoder
	"golang.org/x/sync/errgroup"
)

// maxIconFetches 同时进行的图标请求数
const maxIconFetches = 4

// iconResult 后台解码好的图标，img 为 nil 表示获取失败
type iconResult struct {
	img image.Image
}

// requestIcons 在后台获取尚未请求过的域名图标
func (s *PortfolioScene) requestIcons(domains []string) {
	if s.opts.Favicons == nil {
		return
	}
	var todo []string
	for _, d := range domains {
		if d == "" || s.iconsRequested[d] {
			continue
		}
		s.iconsRequested[d] = true
		todo = append(todo, d)
	}
	if len(todo) == 0 {
		return
	}

	go func() {
		g, ctx := errgroup.WithContext(s.ctx)
		g.SetLimit(maxIconFetches)
		for _, domain := range todo {
			g.Go(func() error {
				img, err := s.fetchIcon(ctx, domain)
				if err != nil {
					log.Printf("[PortfolioScene] Icon for %s unavailable: %v", domain, err)
				}
				s.mu.Lock()
				s.iconResults[domain] = iconResult{img: img}
				s.mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}()
}

// fetchIcon 获取并解码图标
func (s *PortfolioScene) fetchIcon(ctx context.Context, domain string) (image.Image, error) {
	icon, hit, err := s.opts.Favicons.Fetch(ctx, domain)
	if err != nil {
		return nil, err
	}
	img, format, err := image.Decode(bytes.NewReader(icon.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s icon (%s): %w", icon.Source, icon.ContentType, err)
	}
	log.Printf("[PortfolioScene] Icon for %s: %s from %s (cache hit: %v)", domain, format, icon.Source, hit)
	return img, nil
}

// applyIcons 把后台结果转换为纹理并贴到箱子上，只在游戏循环中调用
func (s *PortfolioScene) applyIcons() {
	s.mu.Lock()
	if len(s.iconResults) == 0 {
		s.mu.Unlock()
		return
	}
	results := s.iconResults
	s.iconResults = make(map[string]iconResult)
	s.mu.Unlock()

	for domain, r := range results {
		if r.img == nil {
			continue
		}
		s.iconTextures[domain] = ebiten.NewImageFromImage(r.img)
	}
	s.assignIcons()
}

// assignIcons 给还没有图标的箱子贴上已有的纹理
func (s *PortfolioScene) assignIcons() {
	for _, entity := range s.crates {
		crate, ok := ecs.GetComponent[*components.CrateComponent](s.entityManager, entity)
		if !ok || crate.Icon != nil || crate.Domain == "" {
			continue
		}
		if tex, ok := s.iconTextures[crate.Domain]; ok {
			crate.Icon = tex
		}
	}
}
