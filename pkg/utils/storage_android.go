//go:build android

package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureStorageDir 确保 Android 存储目录存在并可写
// gdata 在 Android 上使用 /data/data/{package}/ 作为存储路径，但不会预先创建子目录，
// 需要在 gdata 初始化前调用。
func EnsureStorageDir() error {
	base := StoragePath()
	if base == "" {
		return fmt.Errorf("failed to detect Android package")
	}

	for _, dir := range []string{filepath.Join(base, "saves"), filepath.Join(base, "files", "downloads")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	savesDir := filepath.Join(base, "saves")
	testFile := filepath.Join(savesDir, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return fmt.Errorf("saves directory %s is not writable: %w", savesDir, err)
	}
	os.Remove(testFile)

	return nil
}

// detectAndroidApp 从 /proc/self/cmdline 读取应用包名
func detectAndroidApp() (string, error) {
	data, err := os.ReadFile("/proc/self/cmdline")
	if err != nil {
		return "", err
	}

	pkg := make([]byte, 0, len(data))
	for _, ch := range data {
		if ch == 0 || ch == '\n' {
			continue
		}
		pkg = append(pkg, ch)
	}
	if len(pkg) == 0 {
		return "", fmt.Errorf("got empty output from /proc/self/cmdline")
	}
	return string(pkg), nil
}

// StoragePath 获取 Android 应用数据目录
func StoragePath() string {
	app, err := detectAndroidApp()
	if err != nil {
		return ""
	}
	return filepath.Join("/data/data", app)
}

// DefaultDownloadDir 应用私有的下载目录
func DefaultDownloadDir() string {
	base := StoragePath()
	if base == "" {
		return "."
	}
	return filepath.Join(base, "files", "downloads")
}
