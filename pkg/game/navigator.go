package game

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/decker502/dragonfolio/pkg/config"
	"github.com/pkg/browser"
)

// 下载相关常量
const (
	DefaultDownloadName = "download"
	ContactFileName     = "contact.vcf"
	downloadTimeout     = 30 * time.Second
)

// Navigator 打开外部链接
//
// download 和 contact 类型会把文件保存到下载目录，其他类型在系统浏览器中打开。
type Navigator struct {
	DownloadDir string
	Client      *http.Client
	OpenURL     func(url string) error // 为 nil 时使用系统浏览器
}

// NewNavigator 创建导航器，downloadDir 为空时使用当前目录
func NewNavigator(downloadDir string) *Navigator {
	if downloadDir == "" {
		downloadDir = "."
	}
	return &Navigator{
		DownloadDir: downloadDir,
		Client:      &http.Client{Timeout: downloadTimeout},
		OpenURL:     browser.OpenURL,
	}
}

// Navigate 打开链接，错误只记录日志
func (n *Navigator) Navigate(rawURL string, linkType config.LinkType) {
	if err := n.Open(rawURL, linkType); err != nil {
		log.Printf("[Navigator] Failed to open %s link %s: %v", linkType, rawURL, err)
	}
}

// Open 按链接类型打开或保存
func (n *Navigator) Open(rawURL string, linkType config.LinkType) error {
	switch linkType {
	case config.LinkTypeDownload:
		_, err := n.Download(rawURL, DownloadFileName(rawURL))
		return err
	case config.LinkTypeContact:
		_, err := n.Download(rawURL, ContactFileName)
		return err
	default:
		open := n.OpenURL
		if open == nil {
			open = browser.OpenURL
		}
		if err := open(rawURL); err != nil {
			return fmt.Errorf("failed to open browser: %w", err)
		}
		log.Printf("[Navigator] Opened %s", rawURL)
		return nil
	}
}

// Download 下载文件并保存到下载目录，返回保存路径
func (n *Navigator) Download(rawURL, fileName string) (string, error) {
	client := n.Client
	if client == nil {
		client = &http.Client{Timeout: downloadTimeout}
	}

	resp, err := client.Get(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download %s: status %s", rawURL, resp.Status)
	}

	if err := os.MkdirAll(n.DownloadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download dir %s: %w", n.DownloadDir, err)
	}

	dst := filepath.Join(n.DownloadDir, filepath.Base(fileName))
	file, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", dst, err)
	}

	log.Printf("[Navigator] Saved %s to %s", rawURL, dst)
	return dst, nil
}

// DownloadFileName 取 URL 路径的最后一段作为文件名，没有时返回 "download"
func DownloadFileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return DefaultDownloadName
	}
	name := path.Base(strings.TrimSuffix(u.Path, "/"))
	if name == "" || name == "." || name == "/" {
		return DefaultDownloadName
	}
	return name
}
