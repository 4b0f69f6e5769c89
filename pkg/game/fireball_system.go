package game

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/decker502/dragonfolio/pkg/config"
	"github.com/go-gl/mathgl/mgl64"
)

// 火球系统默认参数
const (
	DefaultRotationDuration   = 800 * time.Millisecond
	DefaultExplosionWait      = 1500 * time.Millisecond
	scratchVectorsPerFireball = 4
)

// DefaultMouthOffset 龙嘴相对龙模型的局部偏移
var DefaultMouthOffset = mgl64.Vec3{0, 3, 0.5}

// Emitter 发射火球的场景对象（龙）
type Emitter interface {
	Position() mgl64.Vec3
	Quaternion() mgl64.Quat
	UpdateMatrixWorld()
}

// RotationTween 设置发射器的目标朝向（绕 Y 轴，弧度）
type RotationTween interface {
	Set(yaw float64)
}

// RotationTask 驱动朝向补间的任务
type RotationTask interface {
	Start()
	Stop()
}

// FireballRequest CreateFireball 的参数
type FireballRequest struct {
	Emitter       Emitter
	Target        mgl64.Vec3
	URL           string
	Type          config.LinkType
	Category      string
	CrateID       string
	RotationTween RotationTween // 与 RotationTask 同时提供时才会旋转
	RotationTask  RotationTask
	Action        func() error // 命中后执行的动作
}

// CompletionHandlers CompleteFireball 的回调，可为 nil
// 导航和分类切换由请求里存储的 Action 完成
type CompletionHandlers struct {
	ExplodeCrate func(crateID string)
}

// FireballData 火球槽位的只读副本
type FireballData struct {
	ID            int
	Active        bool
	StartPosition mgl64.Vec3
	EndPosition   mgl64.Vec3
	Direction     mgl64.Vec3
	URL           string
	Type          config.LinkType
	Category      string
	CrateID       string
	Action        func() error
}

// FireballStats 火球池统计，Active+Reserved+Available == Total
type FireballStats struct {
	Active    int
	Reserved  int // 已认领，等待旋转完成
	Available int
	Total     int
}

// FireballSystemOptions 火球系统参数
type FireballSystemOptions struct {
	MaxFireballs     int
	MouthOffset      mgl64.Vec3
	RotationDuration time.Duration
	ExplosionWait    time.Duration // 为 0 时使用 DefaultExplosionWait
	Sleep            Sleeper       // 为 nil 时使用 time.Sleep
	OnUpdate         func()        // 槽位激活或释放时调用（锁外）
}

type slotState int

const (
	slotFree       slotState = iota
	slotReserved             // 已认领，正在等待旋转
	slotActive               // 飞行中
	slotCompleting           // 正在执行命中效果
)

type fireballSlot struct {
	data  FireballData
	state slotState
	gen   uint64 // ClearAll 时递增，使进行中的认领失效
}

// FireballSystem 固定大小的火球池
//
// 槽位在任何等待之前认领，因此并发调用 CreateFireball 不会拿到同一个槽位。
type FireballSystem struct {
	opts FireballSystemOptions

	mu      sync.Mutex
	slots   []fireballSlot
	scratch []mgl64.Vec3 // 每个槽位 4 个临时向量
	nextID  int
}

// NewFireballSystem 创建火球池
func NewFireballSystem(opts FireballSystemOptions) *FireballSystem {
	if opts.MaxFireballs <= 0 {
		opts.MaxFireballs = config.DefaultMaxFireballs
	}
	if opts.ExplosionWait == 0 {
		opts.ExplosionWait = DefaultExplosionWait
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}

	fs := &FireballSystem{
		opts:    opts,
		slots:   make([]fireballSlot, opts.MaxFireballs),
		scratch: make([]mgl64.Vec3, opts.MaxFireballs*scratchVectorsPerFireball),
		nextID:  opts.MaxFireballs,
	}
	for i := range fs.slots {
		fs.slots[i].data = FireballData{ID: i, Direction: mgl64.Vec3{0, 0, 1}, Type: config.LinkTypeURL}
	}
	return fs
}

func (fs *FireballSystem) notify() {
	if fs.opts.OnUpdate != nil {
		fs.opts.OnUpdate()
	}
}

// CreateFireball 认领空闲槽位，必要时先旋转发射器，然后计算弹道并激活
// 没有空闲槽位时返回 (0, false)
func (fs *FireballSystem) CreateFireball(req FireballRequest) (int, bool) {
	if req.Emitter == nil {
		log.Printf("[FireballSystem] Warning: No emitter provided")
		return 0, false
	}

	fs.mu.Lock()
	index := -1
	for i := range fs.slots {
		if fs.slots[i].state == slotFree {
			index = i
			break
		}
	}
	if index == -1 {
		fs.mu.Unlock()
		log.Printf("[FireballSystem] Warning: No available fireball slots")
		return 0, false
	}
	fs.slots[index].state = slotReserved
	gen := fs.slots[index].gen
	fs.mu.Unlock()

	if req.RotationTween != nil && req.RotationTask != nil {
		fs.rotateToTarget(req.Emitter, req.Target, req.RotationTween, req.RotationTask)
	}

	// 每个槽位独占自己的临时向量，旋转等待期间不会互相覆盖
	v := fs.scratch[index*scratchVectorsPerFireball : (index+1)*scratchVectorsPerFireball]
	v[0] = fs.mouthPosition(req.Emitter)
	v[1] = req.Target.Sub(v[0])
	if v[1].Len() > 0 {
		v[1] = v[1].Normalize()
	} else {
		v[1] = mgl64.Vec3{0, 0, 1}
	}

	fs.mu.Lock()
	slot := &fs.slots[index]
	if slot.gen != gen || slot.state != slotReserved {
		// 等待期间被 ClearAll 清空
		fs.mu.Unlock()
		log.Printf("[FireballSystem] Warning: Fireball slot %d was cleared during rotation", index)
		return 0, false
	}
	id := fs.nextID
	fs.nextID++
	slot.state = slotActive
	slot.data = FireballData{
		ID:            id,
		Active:        true,
		StartPosition: v[0],
		EndPosition:   req.Target,
		Direction:     v[1],
		URL:           req.URL,
		Type:          req.Type,
		Category:      req.Category,
		CrateID:       req.CrateID,
		Action:        req.Action,
	}
	fs.mu.Unlock()

	log.Printf("[FireballSystem] Fireball %d created (%s %s)", id, req.Type, req.URL)
	fs.notify()
	return id, true
}

// rotateToTarget 设置朝向补间，等待旋转完成后刷新发射器矩阵
func (fs *FireballSystem) rotateToTarget(e Emitter, target mgl64.Vec3, tween RotationTween, task RotationTask) {
	d := target.Sub(e.Position())
	yaw := math.Atan2(d.X(), d.Z())

	tween.Set(yaw)
	task.Start()
	fs.opts.Sleep(fs.opts.RotationDuration)
	task.Stop()
	e.UpdateMatrixWorld()
}

// mouthPosition 将局部嘴部偏移按发射器朝向分解到右、上、前三个轴
func (fs *FireballSystem) mouthPosition(e Emitter) mgl64.Vec3 {
	q := e.Quaternion()
	off := fs.opts.MouthOffset
	right := q.Rotate(mgl64.Vec3{1, 0, 0}).Mul(off.X())
	up := q.Rotate(mgl64.Vec3{0, 1, 0}).Mul(off.Y())
	forward := q.Rotate(mgl64.Vec3{0, 0, 1}).Mul(off.Z())
	return e.Position().Add(right).Add(up).Add(forward)
}

// CompleteFireball 执行命中效果：爆炸箱子、等待动画、执行存储的动作
// 对同一 ID 重复调用是无操作。无论动作成功、失败还是缺失，槽位最终都会释放。
func (fs *FireballSystem) CompleteFireball(id int, h CompletionHandlers) {
	fs.mu.Lock()
	index := -1
	for i := range fs.slots {
		if fs.slots[i].state == slotActive && fs.slots[i].data.ID == id {
			index = i
			break
		}
	}
	if index == -1 {
		fs.mu.Unlock()
		return
	}
	slot := &fs.slots[index]
	slot.state = slotCompleting
	gen := slot.gen
	data := slot.data
	fs.mu.Unlock()

	defer func() {
		fs.mu.Lock()
		s := &fs.slots[index]
		if s.gen == gen && s.state == slotCompleting {
			s.state = slotFree
			s.data.Active = false
			s.data.Action = nil
		}
		fs.mu.Unlock()
		fs.notify()
	}()

	if data.CrateID != "" && h.ExplodeCrate != nil {
		log.Printf("[FireballSystem] Exploding crate: %s", data.CrateID)
		h.ExplodeCrate(data.CrateID)
		fs.opts.Sleep(fs.opts.ExplosionWait)
	}

	if data.Action != nil {
		if err := runAction(data.Action); err != nil {
			log.Printf("[FireballSystem] Error executing stored action for %s: %v", data.Type, err)
		}
		return
	}

	// 没有动作时只有爆炸效果
	log.Printf("[FireballSystem] Warning: No stored action found for %s link: %s", data.Type, data.URL)
}

// runAction 执行动作，panic 转换为错误
func runAction(action func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()
	return action()
}

// GetActiveFireballs 返回所有飞行中（含正在结算）的火球副本
func (fs *FireballSystem) GetActiveFireballs() []FireballData {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var active []FireballData
	for i := range fs.slots {
		if fs.slots[i].data.Active {
			active = append(active, fs.slots[i].data)
		}
	}
	return active
}

// GetFireball 按 ID 查找火球
func (fs *FireballSystem) GetFireball(id int) (FireballData, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for i := range fs.slots {
		if fs.slots[i].data.ID == id {
			return fs.slots[i].data, true
		}
	}
	return FireballData{}, false
}

// ClearAll 释放所有槽位，进行中的创建和结算不再生效
func (fs *FireballSystem) ClearAll() {
	fs.mu.Lock()
	for i := range fs.slots {
		s := &fs.slots[i]
		s.gen++
		s.state = slotFree
		s.data.Active = false
		s.data.StartPosition = mgl64.Vec3{}
		s.data.EndPosition = mgl64.Vec3{}
		s.data.Direction = mgl64.Vec3{0, 0, 1}
		s.data.URL = ""
		s.data.Category = ""
		s.data.CrateID = ""
		s.data.Action = nil
	}
	fs.mu.Unlock()
	fs.notify()
}

// GetStats 返回槽位统计
func (fs *FireballSystem) GetStats() FireballStats {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	stats := FireballStats{Total: len(fs.slots)}
	for i := range fs.slots {
		switch fs.slots[i].state {
		case slotFree:
			stats.Available++
		case slotReserved:
			stats.Reserved++
		case slotActive, slotCompleting:
			stats.Active++
		}
	}
	return stats
}
