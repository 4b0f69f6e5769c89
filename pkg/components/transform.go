package components

import "github.com/go-gl/mathgl/mgl64"

// TransformComponent 实体在世界空间中的位置、朝向和缩放
type TransformComponent struct {
	Position mgl64.Vec3
	Yaw      float64    // 绕 Y 轴旋转(弧度)
	Scale    mgl64.Vec3 // 零值按 (1,1,1) 处理
}
