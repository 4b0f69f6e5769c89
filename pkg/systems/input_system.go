package systems

import (
	"github.com/decker502/dragonfolio/pkg/components"
	"github.com/decker502/dragonfolio/pkg/ecs"
	"github.com/decker502/dragonfolio/pkg/utils"
)

// InputSystem 把鼠标位置映射到可点击的实体
type InputSystem struct {
	entityManager *ecs.EntityManager
}

// NewInputSystem 创建输入系统
func NewInputSystem(em *ecs.EntityManager) *InputSystem {
	return &InputSystem{entityManager: em}
}

// HitTest 返回鼠标位置下的可点击实体
// 多个实体重叠时取离相机最近的，距离相同时取ID最小的
func (s *InputSystem) HitTest(cam *utils.Camera, mouseX, mouseY float64, width, height int) (ecs.EntityID, bool) {
	var (
		hit      ecs.EntityID
		found    bool
		bestDist float64
	)

	for _, id := range ecs.GetEntitiesWith2[*components.ClickableComponent, *components.TransformComponent](s.entityManager) {
		click, _ := ecs.GetComponent[*components.ClickableComponent](s.entityManager, id)
		if !click.IsEnabled {
			continue
		}
		tf, _ := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)

		x, y, side, ok := CrateScreenRect(cam, tf.Position, click.HalfSize*2, width, height)
		if !ok {
			continue
		}
		if mouseX < x || mouseX > x+side || mouseY < y || mouseY > y+side {
			continue
		}

		dist := tf.Position.Sub(cam.Position).Len()
		if !found || dist < bestDist {
			hit, found, bestDist = id, true, dist
		}
	}
	return hit, found
}

// UpdateHover 更新悬停状态，返回悬停的实体
func (s *InputSystem) UpdateHover(cam *utils.Camera, mouseX, mouseY float64, width, height int) (ecs.EntityID, bool) {
	hovered, ok := s.HitTest(cam, mouseX, mouseY, width, height)
	for _, id := range ecs.GetEntitiesWith1[*components.ClickableComponent](s.entityManager) {
		click, _ := ecs.GetComponent[*components.ClickableComponent](s.entityManager, id)
		click.IsHovered = ok && id == hovered
	}
	return hovered, ok
}
