package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadLinksConfig_ShippedFile(t *testing.T) {
	cfg, err := LoadLinksConfig(filepath.Join("..", "..", "data", "links.yaml"))
	if err != nil {
		t.Fatalf("LoadLinksConfig() error = %v", err)
	}

	if got := len(cfg.AllCategories()); got != 4 {
		t.Errorf("AllCategories() = %d, want 4", got)
	}
	if got := len(cfg.LinksIn("projects")); got != 2 {
		t.Errorf("LinksIn(projects) = %d, want 2", got)
	}
	if _, ok := cfg.FindCategory("about"); !ok {
		t.Error("FindCategory(about) not found")
	}
	if _, ok := cfg.FindCategory("missing"); ok {
		t.Error("FindCategory(missing) should fail")
	}
}

func TestAllCategories_LeftFirst(t *testing.T) {
	cfg := &LinksConfig{Categories: CategoryColumns{
		Left:  []Category{{ID: "a"}, {ID: "b"}},
		Right: []Category{{ID: "c"}},
	}}
	got := cfg.AllCategories()
	if len(got) != 3 || got[0].ID != "a" || got[2].ID != "c" {
		t.Errorf("AllCategories() = %+v", got)
	}
}

func TestLinksConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "未知类型",
			yaml:    "links:\n  - name: A\n    type: ftp\n    url: x\n",
			wantErr: "unknown type",
		},
		{
			name:    "url 类型缺少地址",
			yaml:    "links:\n  - name: A\n    type: download\n",
			wantErr: "requires a url",
		},
		{
			name:    "action 类型缺少动作",
			yaml:    "links:\n  - name: A\n    type: action\n",
			wantErr: "requires an action",
		},
		{
			name:    "缺少名称",
			yaml:    "links:\n  - type: url\n    url: https://a\n",
			wantErr: "name is required",
		},
		{
			name:    "未知分类",
			yaml:    "links:\n  - name: A\n    type: url\n    url: https://a\n    category: nope\n",
			wantErr: "unknown category",
		},
		{
			name:    "重复分类 ID",
			yaml:    "categories:\n  left:\n    - id: a\n  right:\n    - id: a\n",
			wantErr: "duplicate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLinksConfig([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLinkType(t *testing.T) {
	tests := []struct {
		typ      LinkType
		valid    bool
		needsURL bool
	}{
		{LinkTypeURL, true, true},
		{LinkTypeDownload, true, true},
		{LinkTypeContact, true, true},
		{LinkTypeAction, true, false},
		{LinkTypeCategory, true, false},
		{"mailto", false, false},
	}

	for _, tt := range tests {
		if got := tt.typ.IsValid(); got != tt.valid {
			t.Errorf("%q.IsValid() = %v, want %v", tt.typ, got, tt.valid)
		}
		if got := tt.typ.NeedsURL(); got != tt.needsURL {
			t.Errorf("%q.NeedsURL() = %v, want %v", tt.typ, got, tt.needsURL)
		}
	}
}

func TestParseLinksConfig_Position(t *testing.T) {
	cfg, err := ParseLinksConfig([]byte("links:\n  - name: Pinned\n    type: url\n    url: https://a\n    position: [1, 2, 3]\n"))
	if err != nil {
		t.Fatalf("ParseLinksConfig() error = %v", err)
	}
	pos := cfg.Links[0].Position
	if pos == nil || *pos != [3]float64{1, 2, 3} {
		t.Errorf("Position = %v, want [1 2 3]", pos)
	}
}
