package components

import (
	"github.com/decker502/dragonfolio/internal/particle"
	"github.com/decker502/dragonfolio/pkg/game"
)

// ParticleEffectComponent 挂在实体上的粒子效果
//
// System 来自粒子池时 Pooled 为 true，效果结束后要归还；
// 池子为空时通过 Pending 异步等待新实例，收到前 System 为 nil。
type ParticleEffectComponent struct {
	System  *particle.System
	Pending <-chan *particle.System
	Kind    game.ParticleKind
	Pooled  bool
	TTL     float64 // 存活时长(秒)，0 表示由其他系统决定何时结束
	Age     float64
	Expired bool // 置为 true 后下一帧回收
}
