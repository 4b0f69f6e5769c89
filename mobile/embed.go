//go:build mobile

// embed.go - 移动端资源嵌入声明
//
// 此文件仅在使用 -tags mobile 构建时编译。
// 移动端没有外部资源目录，assets/ 和 data/ 都需要先复制到此目录：
//
//	cp -r ../assets ../data .
//	go build -tags mobile ./mobile
package mobile

import "embed"

//go:embed all:assets
var assetsFS embed.FS

//go:embed data/scene.yaml data/links.yaml data/particles.yaml
var dataFS embed.FS
