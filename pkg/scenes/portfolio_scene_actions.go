package scenes

import (
	"fmt"
	"log"

	"github.com/decker502/dragonfolio/pkg/config"
)

// 内置动作名，对应 links.yaml 中 type: action 的 action 字段
const (
	ActionToggleSound = "toggleSound"
	ActionToggleDebug = "toggleDebug"
	ActionBack        = "back"
)

// registerActions 注册内置动作
func (s *PortfolioScene) registerActions() {
	s.actions = map[string]func() error{
		ActionToggleSound: s.toggleSound,
		ActionToggleDebug: s.toggleDebug,
		ActionBack: func() error {
			s.queueView("")
			return nil
		},
	}
}

// RegisterAction 注册或覆盖一个动作
func (s *PortfolioScene) RegisterAction(name string, fn func() error) {
	s.actions[name] = fn
}

// actionFor 返回链接命中后要执行的动作
// 未注册的动作名返回 nil，火球命中时只有爆炸效果
func (s *PortfolioScene) actionFor(link config.Link) func() error {
	switch link.Type {
	case config.LinkTypeCategory:
		category := link.Category
		return func() error {
			s.controller.InteractCategory(category)
			return nil
		}
	case config.LinkTypeURL, config.LinkTypeDownload, config.LinkTypeContact:
		url, linkType := link.URL, link.Type
		return func() error {
			s.controller.OpenLink(url, linkType)
			return nil
		}
	}

	fn, ok := s.actions[link.Action]
	if !ok {
		log.Printf("[PortfolioScene] Warning: Unknown action %q for link %s", link.Action, link.Name)
		return nil
	}
	return fn
}

// runAction 直接执行动作（快捷键）
func (s *PortfolioScene) runAction(name string) {
	fn, ok := s.actions[name]
	if !ok {
		return
	}
	if err := fn(); err != nil {
		log.Printf("[PortfolioScene] Action %s failed: %v", name, err)
	}
}

// toggleSound 切换音效开关并保存设置
func (s *PortfolioScene) toggleSound() error {
	sm := s.opts.Settings
	if sm == nil {
		return fmt.Errorf("settings are not available")
	}
	enabled := sm.ToggleSound()
	if !enabled && s.opts.Audio != nil {
		s.opts.Audio.StopAll()
	}
	log.Printf("[PortfolioScene] Sound enabled: %v", enabled)
	if err := sm.Save(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// toggleDebug 切换调试信息显示
func (s *PortfolioScene) toggleDebug() error {
	s.mu.Lock()
	s.showDebug = !s.showDebug
	show := s.showDebug
	s.mu.Unlock()

	if sm := s.opts.Settings; sm != nil {
		sm.SetShowDebug(show)
		if err := sm.Save(); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
	}
	return nil
}

// ShowDebug 是否显示调试信息
func (s *PortfolioScene) ShowDebug() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showDebug
}

// SoundEnabled 音效是否开启，没有设置管理器时视为开启
func (s *PortfolioScene) SoundEnabled() bool {
	if s.opts.Settings == nil {
		return true
	}
	return s.opts.Settings.GetSettings().SoundEnabled
}
