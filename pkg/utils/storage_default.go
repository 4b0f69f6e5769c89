//go:build !android

package utils

import (
	"os"
	"path/filepath"
)

// EnsureStorageDir 确保存储目录存在（非 Android 平台的空实现）
// gdata 在非 Android 平台上会自动创建存储目录
func EnsureStorageDir() error {
	return nil
}

// StoragePath 获取存储路径（非 Android 平台返回空字符串）
func StoragePath() string {
	return ""
}

// DefaultDownloadDir 用户主目录下的 Downloads，取不到主目录时使用当前目录
func DefaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, "Downloads")
}
