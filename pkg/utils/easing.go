package utils

import "math"

// Easing Functions (缓动函数)
//
// 所有函数接受一个进度值 t ∈ [0, 1]，返回缓动后的值 ∈ [0, 1]。
// 龙的转身动画使用 EaseInOutCubic，火球飞行使用 EaseInQuad。
//
// 参考：https://easings.net/

// EaseLinear 线性缓动（无缓动）
func EaseLinear(t float64) float64 {
	return t
}

// EaseInQuad 二次方缓入
// 特点：开始慢，结束较快（火球加速飞向木箱）
func EaseInQuad(t float64) float64 {
	return t * t
}

// EaseOutCubic 三次方缓出
// 公式：f(t) = 1 - (1-t)³
func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// EaseInOutCubic 三次方缓入缓出
// 公式：
//
//	t < 0.5: f(t) = 4t³
//	t >= 0.5: f(t) = 1 - (-2t + 2)³ / 2
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// Clamp01 clamps t into [0, 1].
func Clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// Lerp 线性插值
// t=0 返回 a，t=1 返回 b
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// LerpAngle interpolates between two angles in radians along the shortest arc.
func LerpAngle(from, to, t float64) float64 {
	delta := math.Mod(to-from, 2*math.Pi)
	if delta > math.Pi {
		delta -= 2 * math.Pi
	} else if delta < -math.Pi {
		delta += 2 * math.Pi
	}
	return from + delta*t
}
