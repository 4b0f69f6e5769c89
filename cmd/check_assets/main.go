// check_assets 校验配置文件以及其引用的资源是否存在且能解码
//
// 用法: go run ./cmd/check_assets -dir .
package main

import (
	"bytes"
	"crypto/md5"
	"flag"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/decker502/dragonfolio/pkg/app"
	"github.com/decker502/dragonfolio/pkg/embedded"
	"github.com/decker502/dragonfolio/pkg/game"
	_ "golang.org/x/image/webp"
)

func main() {
	dir := flag.String("dir", ".", "Directory containing assets/ and data/")
	flag.Parse()

	root := os.DirFS(*dir)
	embedded.Init(root, root)

	cfgs, err := app.LoadConfigs()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Config OK: %d categories, %d links\n", len(cfgs.Links.AllCategories()), len(cfgs.Links.Links))

	a := cfgs.Scene.Assets
	paths := []string{a.DragonModel, a.CrateModel, a.FireModel, a.FireTexture, a.FireballSound}

	rm := game.NewResourceManager(48000)
	failed := 0
	for _, path := range paths {
		if err := checkAsset(rm, path); err != nil {
			fmt.Printf("FAIL %s: %v\n", path, err)
			failed++
		}
	}
	if failed > 0 {
		fmt.Printf("%d of %d assets failed\n", failed, len(paths))
		os.Exit(1)
	}
}

func checkAsset(rm *game.ResourceManager, path string) error {
	data, err := embedded.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb", ".gltf":
		if _, err := game.ParseModel(path, data); err != nil {
			return err
		}
	case ".wav", ".mp3", ".ogg":
		if _, err := rm.DecodeSound(path, data); err != nil {
			return err
		}
	case ".png", ".webp":
		if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
			return err
		}
	}

	fmt.Printf("OK   %s (%d bytes, md5 %x)\n", path, len(data), md5.Sum(data))
	return nil
}
