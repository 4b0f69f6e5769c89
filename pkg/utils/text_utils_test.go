package utils

import (
	"reflect"
	"strings"
	"testing"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"
)

// basicfont 每个字符宽 7 像素
func testFace() text.Face {
	return text.NewGoXFace(basicfont.Face7x13)
}

// TestWrapText 测试文本换行
func TestWrapText(t *testing.T) {
	face := testFace()

	tests := []struct {
		name     string
		input    string
		maxWidth float64
		want     []string
	}{
		{"fits", "Ready", 100, []string{"Ready"}},
		{"empty", "", 100, []string{""}},
		{"words", "Failed to load fire model", 70, []string{"Failed to", "load fire", "model"}},
		{"collapses spaces", "a   b    c", 21, []string{"a b", "c"}},
		{"long word", "abcdefghijkl", 35, []string{"abcde", "fghij", "kl"}},
		{"long word after text", "go abcdefgh", 35, []string{"go", "abcde", "fgh"}},
		{"narrower than a glyph", "abc", 3, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapText(tt.input, face, tt.maxWidth)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if got := WrapText("no face", nil, 10); len(got) != 1 || got[0] != "no face" {
		t.Errorf("nil face: got %q", got)
	}
}

// TestTruncateText 测试标签截断
func TestTruncateText(t *testing.T) {
	face := testFace()

	tests := []struct {
		name     string
		input    string
		maxWidth float64
		want     string
	}{
		{"fits", "GitHub", 100, "GitHub"},
		{"exact", "abcd", 28, "abcd"},
		{"truncated", "Ebitengine", 49, "Ebite.."},
		{"too narrow", "Blog", 10, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateText(tt.input, face, tt.maxWidth)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if got != "" && got != tt.input && !strings.HasSuffix(got, TruncateSuffix) {
				t.Errorf("truncated text should end with %q, got %q", TruncateSuffix, got)
			}
		})
	}
}
