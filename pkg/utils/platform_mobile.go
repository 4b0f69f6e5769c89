//go:build mobile

package utils

// MobileEmulateEnv 移动端构建下不起作用，保留以便共用代码
const MobileEmulateEnv = "DRAGONFOLIO_MOBILE_EMULATE"

// IsMobile 检测当前是否在移动设备上运行
// 移动端编译时返回 true
func IsMobile() bool {
	return true
}
