package favicon

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/net/html"
)

// 缓存与请求参数
const (
	DefaultCacheSize = 256
	DefaultTTL       = 7 * 24 * time.Hour
	DefaultTimeout   = 3 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; FaviconFetcher/1.0)"
	DefaultGoogleURL = "https://www.google.com/s2/favicons?domain=%s&sz=64"
	defaultIconType  = "image/x-icon"
	maxHTMLBytes     = 1 << 20
	maxIconBytes     = 1 << 20
)

// 图标来源
const (
	SourceDirect  = "direct"  // 页面 <link rel="icon"> 指向的地址
	SourceDefault = "default" // /favicon.ico
	SourceGoogle  = "google"  // Google favicon 服务
)

var (
	// ErrMissingDomain 域名为空
	ErrMissingDomain = errors.New("missing site domain")
	// ErrNotFound 所有来源都没有拿到图标
	ErrNotFound = errors.New("favicon not found")
)

// Icon 图标数据
type Icon struct {
	Data        []byte
	ContentType string
	Source      string
}

// Options Fetcher 参数，零值字段使用默认值
type Options struct {
	Client    *http.Client
	CacheSize int
	TTL       time.Duration
	Scheme    string // 访问站点使用的协议，默认 https
	GoogleURL string // 含一个 %s 占位符；设为 "-" 禁用 Google 回退
}

// Fetcher 获取并缓存站点图标
//
// 缓存键为域名的 MD5，条目在 TTL 后过期。
type Fetcher struct {
	client    *http.Client
	cache     *expirable.LRU[string, Icon]
	scheme    string
	googleURL string
}

// NewFetcher 创建图标获取器
func NewFetcher(opts Options) *Fetcher {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: DefaultTimeout}
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Scheme == "" {
		opts.Scheme = "https"
	}
	if opts.GoogleURL == "" {
		opts.GoogleURL = DefaultGoogleURL
	}
	return &Fetcher{
		client:    opts.Client,
		cache:     expirable.NewLRU[string, Icon](opts.CacheSize, nil, opts.TTL),
		scheme:    opts.Scheme,
		googleURL: opts.GoogleURL,
	}
}

// CacheKey 返回域名的缓存键
func CacheKey(domain string) string {
	sum := md5.Sum([]byte(domain))
	return hex.EncodeToString(sum[:])
}

// Fetch 返回域名的图标，hit 表示结果来自缓存
//
// 查找顺序：页面声明的图标、/favicon.ico、Google favicon 服务。
func (f *Fetcher) Fetch(ctx context.Context, domain string) (icon Icon, hit bool, err error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return Icon{}, false, ErrMissingDomain
	}

	key := CacheKey(domain)
	if cached, ok := f.cache.Get(key); ok {
		log.Printf("[Favicon] Serving cached favicon for %s", domain)
		return cached, true, nil
	}

	siteURL := f.scheme + "://" + domain
	if href, err := f.findIconLink(ctx, siteURL); err != nil {
		log.Printf("[Favicon] Could not read %s: %v", siteURL, err)
	} else {
		if href != "" {
			if iconURL, err := resolveHref(siteURL, href); err == nil {
				if icon, err := f.download(ctx, iconURL, SourceDirect); err == nil {
					f.cache.Add(key, icon)
					return icon, false, nil
				}
			}
		}

		if icon, err := f.download(ctx, siteURL+"/favicon.ico", SourceDefault); err == nil {
			f.cache.Add(key, icon)
			return icon, false, nil
		}
	}

	if f.googleURL != "-" {
		googleURL := fmt.Sprintf(f.googleURL, url.QueryEscape(domain))
		log.Printf("[Favicon] Falling back to Google favicon service for %s", domain)
		if icon, err := f.download(ctx, googleURL, SourceGoogle); err == nil {
			f.cache.Add(key, icon)
			return icon, false, nil
		}
	}

	return Icon{}, false, fmt.Errorf("%w: %s", ErrNotFound, domain)
}

// Len 返回缓存条目数
func (f *Fetcher) Len() int {
	return f.cache.Len()
}

// Purge 清空缓存
func (f *Fetcher) Purge() {
	f.cache.Purge()
}

// findIconLink 读取站点首页并返回图标链接（可能为空）
func (f *Fetcher) findIconLink(ctx context.Context, siteURL string) (string, error) {
	resp, err := f.get(ctx, siteURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return FindIconHref(io.LimitReader(resp.Body, maxHTMLBytes))
}

func (f *Fetcher) download(ctx context.Context, rawURL, source string) (Icon, error) {
	resp, err := f.get(ctx, rawURL)
	if err != nil {
		return Icon{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxIconBytes))
	if err != nil {
		return Icon{}, fmt.Errorf("failed to read favicon %s: %w", rawURL, err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultIconType
	}
	return Icon{Data: data, ContentType: contentType, Source: source}, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: status %s", rawURL, resp.Status)
	}
	return resp, nil
}

// FindIconHref 在 HTML 中查找第一个 icon、shortcut icon 或 apple-touch-icon 链接
// icon 与 shortcut icon 优先于 apple-touch-icon
func FindIconHref(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	var icon, touch string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if icon != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "link" {
			var rel, href string
			for _, a := range n.Attr {
				switch strings.ToLower(a.Key) {
				case "rel":
					rel = strings.ToLower(strings.TrimSpace(a.Val))
				case "href":
					href = strings.TrimSpace(a.Val)
				}
			}
			if href != "" {
				switch rel {
				case "icon", "shortcut icon":
					icon = href
				case "apple-touch-icon":
					if touch == "" {
						touch = href
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if icon != "" {
		return icon, nil
	}
	return touch, nil
}

// resolveHref 把相对链接解析为站点下的绝对地址
func resolveHref(siteURL, href string) (string, error) {
	base, err := url.Parse(siteURL + "/")
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
