package components

import "github.com/go-gl/mathgl/mgl64"

// FireballFlightComponent 一个火球从龙嘴飞向目标的过程
type FireballFlightComponent struct {
	FireballID int
	Start      mgl64.Vec3
	End        mgl64.Vec3
	Progress   float64 // 0..1
	Duration   float64 // 飞行总时长(秒)
}
