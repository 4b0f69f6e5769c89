package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LinkType 链接类型，决定火球命中后的行为
type LinkType string

const (
	LinkTypeURL      LinkType = "url"
	LinkTypeDownload LinkType = "download"
	LinkTypeContact  LinkType = "contact"
	LinkTypeAction   LinkType = "action"
	LinkTypeCategory LinkType = "category"
)

// IsValid 检查链接类型是否合法
func (t LinkType) IsValid() bool {
	switch t {
	case LinkTypeURL, LinkTypeDownload, LinkTypeContact, LinkTypeAction, LinkTypeCategory:
		return true
	}
	return false
}

// NeedsURL 报告该类型是否依赖 URL 进行导航
func (t LinkType) NeedsURL() bool {
	return t == LinkTypeURL || t == LinkTypeDownload || t == LinkTypeContact
}

// Link 一个可点击的链接（场景中表现为一个箱子）
type Link struct {
	Name     string      `yaml:"name"`
	URL      string      `yaml:"url,omitempty"`
	Action   string      `yaml:"action,omitempty"` // 内置动作名，见 scenes 包
	Type     LinkType    `yaml:"type"`
	Icon     string      `yaml:"icon,omitempty"`
	Category string      `yaml:"category,omitempty"`
	Position *[3]float64 `yaml:"position,omitempty"` // 可选：固定位置，覆盖自动布局
}

// Category 分类箱子
type Category struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Icon string `yaml:"icon,omitempty"`
}

// CategoryColumns 左右两列的分类
type CategoryColumns struct {
	Left  []Category `yaml:"left"`
	Right []Category `yaml:"right"`
}

// LinksConfig 链接配置（data/links.yaml）
type LinksConfig struct {
	Categories CategoryColumns `yaml:"categories"`
	Links      []Link          `yaml:"links"`
}

// LoadLinksConfig 从YAML文件加载链接配置
func LoadLinksConfig(path string) (*LinksConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read links config file %s: %w", path, err)
	}
	cfg, err := ParseLinksConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseLinksConfig 解析链接配置（用于嵌入资源）
func ParseLinksConfig(data []byte) (*LinksConfig, error) {
	var cfg LinksConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse links config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid links config: %w", err)
	}
	return &cfg, nil
}

// Validate 验证链接配置
func (c *LinksConfig) Validate() error {
	ids := make(map[string]bool)
	for _, cat := range c.AllCategories() {
		if cat.ID == "" {
			return fmt.Errorf("category %q has no id", cat.Name)
		}
		if ids[cat.ID] {
			return fmt.Errorf("duplicate category id %q", cat.ID)
		}
		ids[cat.ID] = true
	}

	for i, link := range c.Links {
		if link.Name == "" {
			return fmt.Errorf("link %d: name is required", i)
		}
		if !link.Type.IsValid() {
			return fmt.Errorf("link %q: unknown type %q", link.Name, link.Type)
		}
		if link.Type.NeedsURL() && link.URL == "" {
			return fmt.Errorf("link %q: type %s requires a url", link.Name, link.Type)
		}
		if link.Type == LinkTypeAction && link.Action == "" {
			return fmt.Errorf("link %q: type action requires an action name", link.Name)
		}
		if link.Category != "" && !ids[link.Category] {
			return fmt.Errorf("link %q: unknown category %q", link.Name, link.Category)
		}
	}
	return nil
}

// AllCategories 返回左列在前、右列在后的全部分类
func (c *LinksConfig) AllCategories() []Category {
	all := make([]Category, 0, len(c.Categories.Left)+len(c.Categories.Right))
	all = append(all, c.Categories.Left...)
	return append(all, c.Categories.Right...)
}

// LinksIn 返回属于指定分类的链接（保持配置顺序）
func (c *LinksConfig) LinksIn(category string) []Link {
	var result []Link
	for _, link := range c.Links {
		if link.Category == category {
			result = append(result, link)
		}
	}
	return result
}

// FindCategory 按 ID 查找分类
func (c *LinksConfig) FindCategory(id string) (Category, bool) {
	for _, cat := range c.AllCategories() {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}
