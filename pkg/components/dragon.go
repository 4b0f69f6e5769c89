package components

// DragonComponent 场景中央的龙
//
// 朝向补间由 DragonRotationSystem 驱动：Set 记录目标角，Start 开始插值，
// Stop 直接跳到目标角。
type DragonComponent struct {
	Yaw        float64 // 当前朝向(弧度)
	StartYaw   float64 // 补间起点
	TargetYaw  float64 // 补间终点
	Elapsed    float64 // 已插值时间(秒)
	Duration   float64 // 补间时长(秒)
	Rotating   bool
	BodyRadius float64 // 绘制半径(世界单位)
}
