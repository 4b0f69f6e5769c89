package scenes

import (
	"fmt"
	"image/color"

	"github.com/decker502/dragonfolio/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// 界面配色
var (
	backgroundColor  = color.RGBA{R: 18, G: 16, B: 28, A: 255}
	overlayColor     = color.RGBA{R: 0, G: 0, B: 0, A: 180}
	barTrackColor    = color.RGBA{R: 60, G: 52, B: 72, A: 255}
	barFillColor     = color.RGBA{R: 255, G: 140, B: 40, A: 255}
	messageColor     = color.RGBA{R: 255, G: 244, B: 220, A: 255}
	errorTextColor   = color.RGBA{R: 255, G: 110, B: 90, A: 255}
	soundOnColor     = color.RGBA{R: 120, G: 220, B: 120, A: 255}
	soundOffColor    = color.RGBA{R: 160, G: 160, B: 160, A: 255}
)

const categoryHintText = "Esc: back"

// 加载界面参数
const (
	loadingBarWidthRatio = 0.4
	loadingBarHeight     = 10.0
	welcomeDuration      = 2.5 // 欢迎语显示秒数
	welcomeFade          = 0.5 // 最后 0.5 秒淡出
	errorLineHeight      = 16.0
	errorWidthRatio      = 0.6
)

// Draw 绘制背景、场景和界面
func (s *PortfolioScene) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	s.renderSystem.Draw(screen, s.camera)

	state := s.LoadingState()
	if state.Loading {
		s.drawLoadingOverlay(screen, state.Progress, state.Message)
	} else {
		s.drawWelcome(screen, state.Message)
	}
	if errs := s.controller.Assets().GetLoadingState().Errors; !state.Loading && len(errs) > 0 {
		s.drawErrors(screen, errs)
	}

	s.drawSoundIndicator(screen)
	if s.currentCategory != "" {
		s.drawText(screen, categoryHintText, 10, 10, messageColor)
	}
	if s.ShowDebug() {
		s.drawDebug(screen)
	}
}

// drawErrors 左下角显示失败数量和第一条错误
func (s *PortfolioScene) drawErrors(screen *ebiten.Image, errs []string) {
	maxWidth := float64(screen.Bounds().Dx()) * errorWidthRatio
	lines := append([]string{fmt.Sprintf("%d asset(s) failed to load", len(errs))},
		utils.WrapText(errs[0], s.renderSystem.LabelFace(), maxWidth)...)

	y := float64(screen.Bounds().Dy()) - 8 - errorLineHeight*float64(len(lines))
	for _, line := range lines {
		s.drawText(screen, line, 10, y, errorTextColor)
		y += errorLineHeight
	}
}

// drawLoadingOverlay 半透明遮罩、进度条和提示文本
func (s *PortfolioScene) drawLoadingOverlay(screen *ebiten.Image, progress float64, message string) {
	w, h := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())
	vector.DrawFilledRect(screen, 0, 0, float32(w), float32(h), overlayColor, false)

	barW := w * loadingBarWidthRatio
	barX := (w - barW) / 2
	barY := h/2 + 10
	vector.DrawFilledRect(screen, float32(barX), float32(barY), float32(barW), loadingBarHeight, barTrackColor, true)
	if progress > 0 {
		fill := barW * min(progress, 100) / 100
		vector.DrawFilledRect(screen, float32(barX), float32(barY), float32(fill), loadingBarHeight, barFillColor, true)
	}

	s.drawCenteredText(screen, message, w/2, barY-24, messageColor)
	s.drawCenteredText(screen, fmt.Sprintf("%.0f%%", progress), w/2, barY+loadingBarHeight+8, messageColor)
}

// drawWelcome 加载完成后短暂显示欢迎语
func (s *PortfolioScene) drawWelcome(screen *ebiten.Image, message string) {
	s.mu.Lock()
	elapsed := s.welcomeElapsed
	s.mu.Unlock()

	alpha := welcomeAlpha(elapsed)
	if alpha <= 0 || message == "" {
		return
	}
	w := float64(screen.Bounds().Dx())
	c := messageColor
	c.A = uint8(float64(c.A) * alpha)
	c.R = uint8(float64(c.R) * alpha)
	c.G = uint8(float64(c.G) * alpha)
	c.B = uint8(float64(c.B) * alpha)
	s.drawCenteredText(screen, message, w/2, 24, c)
}

// welcomeAlpha 欢迎语的不透明度
func welcomeAlpha(elapsed float64) float64 {
	switch {
	case elapsed < 0 || elapsed >= welcomeDuration:
		return 0
	case elapsed < welcomeDuration-welcomeFade:
		return 1
	default:
		return (welcomeDuration - elapsed) / welcomeFade
	}
}

// drawSoundIndicator 右上角的音效状态
func (s *PortfolioScene) drawSoundIndicator(screen *ebiten.Image) {
	label, clr := "Sound: on (M)", soundOnColor
	if !s.SoundEnabled() {
		label, clr = "Sound: off (M)", soundOffColor
	}
	width, _ := text.Measure(label, s.renderSystem.LabelFace(), 0)
	s.drawText(screen, label, float64(screen.Bounds().Dx())-width-10, 10, clr)
}

// drawDebug 火球池、粒子池和加载统计
func (s *PortfolioScene) drawDebug(screen *ebiten.Image) {
	stats := s.controller.GetSystemStats()
	lines := []string{
		fmt.Sprintf("FPS: %.1f  TPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()),
		fmt.Sprintf("Fireballs: %d active / %d aiming / %d available / %d total (in flight %d)",
			stats.Fireballs.Active, stats.Fireballs.Reserved, stats.Fireballs.Available, stats.Fireballs.Total, s.flightSystem.InFlight()),
		fmt.Sprintf("Particles: fireball %d/%d, explosion %d/%d (available/active)",
			stats.Pool.FireballAvailable, stats.Pool.FireballActive, stats.Pool.ExplosionAvailable, stats.Pool.ExplosionActive),
		fmt.Sprintf("Assets: %d/%d loaded, %d failed", stats.Assets.Loaded, stats.Assets.Total, stats.Assets.Failed),
		fmt.Sprintf("Crates: %d  Entities: %d  Heading: %.2f", stats.Crates, s.entityManager.EntityCount(), s.dragonSystem.Heading()),
	}
	for i, line := range lines {
		ebitenutil.DebugPrintAt(screen, line, 10, 30+i*15)
	}
}

func (s *PortfolioScene) drawText(screen *ebiten.Image, str string, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, str, s.renderSystem.LabelFace(), op)
}

func (s *PortfolioScene) drawCenteredText(screen *ebiten.Image, str string, centerX, y float64, clr color.Color) {
	width, _ := text.Measure(str, s.renderSystem.LabelFace(), 0)
	s.drawText(screen, str, centerX-width/2, y, clr)
}
