package main

import (
	"flag"
	"log"
	"os"

	"github.com/decker502/dragonfolio/pkg/app"
	"github.com/decker502/dragonfolio/pkg/embedded"
	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	assetsDir := flag.String("assets", ".", "Directory containing the assets/ folder")
	downloadDir := flag.String("downloads", "", "Directory for downloaded files (default: user download folder)")
	offline := flag.Bool("offline", false, "Do not fetch site icons")
	flag.Parse()

	// data/ 嵌入二进制，assets/ 来自外部目录
	embedded.Init(os.DirFS(*assetsDir), dataFS)

	gameApp, err := app.NewApp(app.Config{
		Verbose:      *verbose,
		DownloadDir:  *downloadDir,
		OfflineIcons: *offline,
	})
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}
	defer gameApp.Shutdown()

	w := gameApp.WindowConfig()
	ebiten.SetWindowSize(w.Width, w.Height)
	ebiten.SetWindowTitle(w.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(gameApp); err != nil {
		log.Fatal(err)
	}
}
