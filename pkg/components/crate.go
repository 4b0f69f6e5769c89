package components

import (
	"github.com/decker502/dragonfolio/pkg/config"
	"github.com/hajimehoshi/ebiten/v2"
)

// CrateState 箱子状态
type CrateState int

const (
	CrateIdle      CrateState = iota // 静止，可点击
	CrateExploding                   // 爆炸动画中
	CrateExploded                    // 已炸毁，等待重置
	CrateTargeted                    // 火球已发射，等待命中
)

// String 返回状态名（日志用）
func (s CrateState) String() string {
	switch s {
	case CrateIdle:
		return "idle"
	case CrateExploding:
		return "exploding"
	case CrateExploded:
		return "exploded"
	case CrateTargeted:
		return "targeted"
	default:
		return "unknown"
	}
}

// CrateComponent 代表一个链接或分类的箱子
type CrateComponent struct {
	ID     string      // 注册到 CrateController 的唯一ID
	Label  string      // 箱子上显示的名称
	Domain string      // 链接域名，分类箱子为空
	Link   config.Link // 分类箱子的 Type 为 category，Category 为分类ID

	State             CrateState
	ExplosionTimer    float64 // 爆炸已进行时间(秒)
	ExplosionDuration float64 // 爆炸动画时长(秒)
	RespawnTimer      float64 // 炸毁后已等待时间(秒)
	RespawnDelay      float64 // 炸毁后多久自动重置(秒)，0 表示不自动重置

	Size float64       // 边长(世界单位)
	Icon *ebiten.Image // 网站图标，可为 nil
}
