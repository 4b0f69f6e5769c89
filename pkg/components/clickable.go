package components

// ClickableComponent 标记实体可以被鼠标点击
// 点击区域是以实体位置为中心的正方形，大小随相机距离投影到屏幕
type ClickableComponent struct {
	HalfSize  float64 // 点击区域半边长(世界单位)
	IsEnabled bool    // 是否可以被点击(爆炸中的箱子不响应)
	IsHovered bool    // 鼠标是否悬停(用于高亮)
}
