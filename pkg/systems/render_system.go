package systems

import (
	"image/color"
	"math"

	"github.com/decker502/dragonfolio/pkg/components"
	"github.com/decker502/dragonfolio/pkg/config"
	"github.com/decker502/dragonfolio/pkg/ecs"
	"github.com/decker502/dragonfolio/pkg/utils"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

// 箱子和龙的配色
var (
	crateLinkColor     = color.RGBA{R: 139, G: 94, B: 52, A: 255}
	crateCategoryColor = color.RGBA{R: 196, G: 132, B: 48, A: 255}
	crateHoverColor    = color.RGBA{R: 232, G: 176, B: 86, A: 255}
	crateBorderColor   = color.RGBA{R: 70, G: 44, B: 20, A: 255}
	labelColor         = color.RGBA{R: 255, G: 248, B: 230, A: 255}
	domainColor        = color.RGBA{R: 255, G: 230, B: 190, A: 200}
	dragonBodyColor    = color.RGBA{R: 150, G: 28, B: 36, A: 255}
	dragonHeadColor    = color.RGBA{R: 255, G: 196, B: 64, A: 255}
)

// 箱子内容的相对布局（占箱子边长的比例）
const (
	iconSizeRatio = 0.35
	iconYRatio    = 0.12
	labelYRatio   = 0.58
	domainYRatio  = 0.78
)

// RenderSystem 把场景投影到屏幕
//
// 绘制顺序：箱子、龙、粒子。粒子按配置使用叠加混合。
type RenderSystem struct {
	entityManager *ecs.EntityManager
	dragon        *DragonRotationSystem

	labelFace     text.Face
	particleImage *ebiten.Image // 粒子没有贴图时使用
}

// NewRenderSystem 创建渲染系统，dragon 可为 nil
func NewRenderSystem(em *ecs.EntityManager, dragon *DragonRotationSystem) *RenderSystem {
	return &RenderSystem{
		entityManager: em,
		dragon:        dragon,
		labelFace:     text.NewGoXFace(basicfont.Face7x13),
	}
}

// LabelFace 标签字体，场景的加载界面也使用它
func (s *RenderSystem) LabelFace() text.Face {
	return s.labelFace
}

// CrateScreenRect 计算箱子在屏幕上的正方形区域（左上角和边长）
// 箱子在相机后方时 ok 为 false
func CrateScreenRect(cam *utils.Camera, position mgl64.Vec3, size float64, width, height int) (x, y, side float64, ok bool) {
	if cam == nil {
		return 0, 0, 0, false
	}
	cx, cy, visible := cam.Project(position, width, height)
	if !visible {
		return 0, 0, 0, false
	}
	side = size * cam.PixelsPerUnit(position.Z(), height)
	return cx - side/2, cy - side/2, side, true
}

// Draw 绘制整个场景
func (s *RenderSystem) Draw(screen *ebiten.Image, cam *utils.Camera) {
	if cam == nil {
		return
	}
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()

	s.drawCrates(screen, cam, w, h)
	s.drawDragon(screen, cam, w, h)
	s.drawParticles(screen, cam, w, h)
}

func (s *RenderSystem) drawCrates(screen *ebiten.Image, cam *utils.Camera, w, h int) {
	for _, id := range ecs.GetEntitiesWith2[*components.CrateComponent, *components.TransformComponent](s.entityManager) {
		crate, _ := ecs.GetComponent[*components.CrateComponent](s.entityManager, id)
		tf, _ := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)
		if crate.State == components.CrateExploded {
			continue
		}

		// 爆炸时箱子缩小并淡出
		progress := ExplosionProgress(crate)
		x, y, side, ok := CrateScreenRect(cam, tf.Position, crate.Size*(1-progress), w, h)
		if !ok || side < 1 {
			continue
		}

		fill := crateLinkColor
		if crate.Link.Type == config.LinkTypeCategory {
			fill = crateCategoryColor
		}
		if click, ok := ecs.GetComponent[*components.ClickableComponent](s.entityManager, id); ok && click.IsHovered {
			fill = crateHoverColor
		}
		alpha := float32(1 - progress)
		vector.DrawFilledRect(screen, float32(x), float32(y), float32(side), float32(side), scaleAlpha(fill, alpha), true)
		vector.StrokeRect(screen, float32(x), float32(y), float32(side), float32(side), 2, scaleAlpha(crateBorderColor, alpha), true)

		if crate.State != components.CrateIdle && crate.State != components.CrateTargeted {
			continue
		}
		s.drawCrateContent(screen, crate, x, y, side)
	}
}

// drawCrateContent 图标、名称和域名
func (s *RenderSystem) drawCrateContent(screen *ebiten.Image, crate *components.CrateComponent, x, y, side float64) {
	if crate.Icon != nil {
		b := crate.Icon.Bounds()
		if b.Dx() > 0 && b.Dy() > 0 {
			iconSide := side * iconSizeRatio
			op := &ebiten.DrawImageOptions{}
			op.GeoM.Scale(iconSide/float64(b.Dx()), iconSide/float64(b.Dy()))
			op.GeoM.Translate(x+(side-iconSide)/2, y+side*iconYRatio)
			op.Filter = ebiten.FilterLinear
			screen.DrawImage(crate.Icon, op)
		}
	}

	s.drawCenteredText(screen, utils.TruncateText(crate.Label, s.labelFace, side-4), x+side/2, y+side*labelYRatio, labelColor)
	if crate.Domain != "" {
		s.drawCenteredText(screen, utils.TruncateText(crate.Domain, s.labelFace, side-4), x+side/2, y+side*domainYRatio, domainColor)
	}
}

func (s *RenderSystem) drawCenteredText(screen *ebiten.Image, str string, centerX, y float64, clr color.Color) {
	if str == "" {
		return
	}
	width, _ := text.Measure(str, s.labelFace, 0)
	op := &text.DrawOptions{}
	op.GeoM.Translate(centerX-width/2, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, str, s.labelFace, op)
}

// drawDragon 用圆形身体和指向朝向的头部表示龙
func (s *RenderSystem) drawDragon(screen *ebiten.Image, cam *utils.Camera, w, h int) {
	if s.dragon == nil {
		return
	}
	pos := s.dragon.Position()
	cx, cy, ok := cam.Project(pos, w, h)
	if !ok {
		return
	}
	radius := s.dragon.BodyRadius()
	ppu := cam.PixelsPerUnit(pos.Z(), h)
	vector.DrawFilledCircle(screen, float32(cx), float32(cy), float32(radius*ppu), dragonBodyColor, true)

	head := pos.Add(s.dragon.Forward().Mul(radius * 1.4))
	hx, hy, ok := cam.Project(head, w, h)
	if !ok {
		return
	}
	vector.StrokeLine(screen, float32(cx), float32(cy), float32(hx), float32(hy), float32(math.Max(2, radius*ppu*0.25)), dragonHeadColor, true)
	vector.DrawFilledCircle(screen, float32(hx), float32(hy), float32(radius*ppu*0.35), dragonHeadColor, true)
}

// drawParticles 逐个粒子绘制贴图
func (s *RenderSystem) drawParticles(screen *ebiten.Image, cam *utils.Camera, w, h int) {
	for _, id := range ecs.GetEntitiesWith1[*components.ParticleEffectComponent](s.entityManager) {
		effect, _ := ecs.GetComponent[*components.ParticleEffectComponent](s.entityManager, id)
		sys := effect.System
		if sys == nil || !sys.Visible || sys.IsInert() {
			continue
		}

		cfg := sys.Config()
		img := cfg.Texture
		if img == nil {
			if s.particleImage == nil {
				s.particleImage = ebiten.NewImage(4, 4)
				s.particleImage.Fill(color.White)
			}
			img = s.particleImage
		}
		bw, bh := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())

		op := &ebiten.DrawImageOptions{}
		if cfg.Renderer.Additive {
			op.Blend = ebiten.BlendLighter
		}

		particles := sys.Particles()
		for i := range particles {
			p := &particles[i]
			world := sys.WorldPosition(p)
			sx, sy, ok := cam.Project(world, w, h)
			if !ok {
				continue
			}
			px := p.Size * sys.Scale.X() * cam.PixelsPerUnit(world.Z(), h)
			if px < 1 {
				px = 1
			}
			a := p.Alpha()

			op.GeoM.Reset()
			op.GeoM.Translate(-bw/2, -bh/2)
			op.GeoM.Rotate(p.Rotation * math.Pi / 180)
			op.GeoM.Scale(px/bw, px/bh)
			op.GeoM.Translate(sx, sy)
			op.ColorScale.Reset()
			op.ColorScale.Scale(float32(p.Color.R*a), float32(p.Color.G*a), float32(p.Color.B*a), float32(a))
			screen.DrawImage(img, op)
		}
	}
}

// scaleAlpha 按比例降低颜色的不透明度（预乘 alpha）
func scaleAlpha(c color.RGBA, alpha float32) color.RGBA {
	if alpha >= 1 {
		return c
	}
	if alpha <= 0 {
		return color.RGBA{}
	}
	return color.RGBA{
		R: uint8(float32(c.R) * alpha),
		G: uint8(float32(c.G) * alpha),
		B: uint8(float32(c.B) * alpha),
		A: uint8(float32(c.A) * alpha),
	}
}
