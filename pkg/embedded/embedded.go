// Package embedded 提供资源文件系统的统一访问接口
//
// data/ 下的配置通过 //go:embed 嵌入二进制（声明在项目根目录 embed.go），
// assets/ 下的模型、贴图、音效体积较大，由命令行 -assets 指定的目录提供。
// 两者在这里合并为按路径前缀分发的一个访问入口。
//
// 使用前必须调用 Init() 初始化。
package embedded

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotInitialized 在 Init 之前访问资源时返回
var ErrNotInitialized = errors.New("embedded package not initialized, call Init() first")

var (
	mu          sync.RWMutex
	assetsFS    fs.FS
	dataFS      fs.FS
	initialized bool
)

// Init 设置资源文件系统
// 必须在 main() 开始时、任何资源加载之前调用。assets 可以为 nil（无外部资源）。
func Init(assets, data fs.FS) {
	mu.Lock()
	defer mu.Unlock()
	assetsFS = assets
	dataFS = data
	initialized = true
}

// Reset 清除初始化状态（测试用）
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	assetsFS = nil
	dataFS = nil
	initialized = false
}

// IsInitialized 返回 embedded 包是否已初始化
func IsInitialized() bool {
	mu.RLock()
	defer mu.RUnlock()
	return initialized
}

// resolve 根据路径前缀选择文件系统，并返回标准化后的路径
// 路径必须以 "assets/" 或 "data/" 开头
func resolve(path string) (fs.FS, string, error) {
	mu.RLock()
	defer mu.RUnlock()

	if !initialized {
		return nil, "", ErrNotInitialized
	}

	// 标准化路径分隔符为正斜杠（fs.FS 使用正斜杠）
	path = strings.TrimPrefix(filepath.ToSlash(path), "./")

	var fsys fs.FS
	switch {
	case strings.HasPrefix(path, "assets/") || path == "assets":
		fsys = assetsFS
	case strings.HasPrefix(path, "data/") || path == "data":
		fsys = dataFS
	default:
		return nil, "", fmt.Errorf("unknown resource path prefix: %s (must start with 'assets/' or 'data/')", path)
	}

	if fsys == nil {
		return nil, "", fmt.Errorf("no file system mounted for %s: %w", path, fs.ErrNotExist)
	}
	return fsys, path, nil
}

// Open 打开资源文件
func Open(path string) (fs.File, error) {
	fsys, p, err := resolve(path)
	if err != nil {
		return nil, err
	}
	return fsys.Open(p)
}

// ReadFile 读取资源文件内容
func ReadFile(path string) ([]byte, error) {
	fsys, p, err := resolve(path)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(fsys, p)
}

// Exists 检查资源文件是否存在
func Exists(path string) bool {
	file, err := Open(path)
	if err != nil {
		return false
	}
	file.Close()
	return true
}

// Glob 匹配资源文件
func Glob(pattern string) ([]string, error) {
	fsys, p, err := resolve(pattern)
	if err != nil {
		return nil, err
	}
	return fs.Glob(fsys, p)
}

// ReadDir 读取目录内容
func ReadDir(path string) ([]fs.DirEntry, error) {
	fsys, p, err := resolve(path)
	if err != nil {
		return nil, err
	}
	return fs.ReadDir(fsys, p)
}

// Stat 获取文件信息
func Stat(path string) (fs.FileInfo, error) {
	fsys, p, err := resolve(path)
	if err != nil {
		return nil, err
	}
	return fs.Stat(fsys, p)
}
