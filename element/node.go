package element

import (
	"math"
	"sync/atomic"

	"trafsim/utils"
)

// Node 表示路网中的一个道路节点
// blocked标志和通过计数器会被多辆车读写，使用原子操作
type Node struct {
	id       int64
	pos      utils.Vec2
	blocked  atomic.Bool
	passes   atomic.Int64
	lastPass atomic.Uint64 // math.Float64bits(模拟时间)
}

// NewNode 创建一个新的道路节点
func NewNode(id int64, pos utils.Vec2) *Node {
	return &Node{id: id, pos: pos}
}

// ID 返回节点ID
func (n *Node) ID() int64 {
	return n.id
}

// Pos 返回节点坐标
func (n *Node) Pos() utils.Vec2 {
	return n.pos
}

// Blocked 返回节点是否被封锁
func (n *Node) Blocked() bool {
	return n.blocked.Load()
}

// Block 封锁节点，只有真正完成false->true切换的调用者得到true
func (n *Node) Block() bool {
	return n.blocked.CompareAndSwap(false, true)
}

// Unblock 解除封锁，只有真正完成true->false切换的调用者得到true
func (n *Node) Unblock() bool {
	return n.blocked.CompareAndSwap(true, false)
}

// IncrementCounter 记录一次车辆通过
func (n *Node) IncrementCounter(t float64) {
	n.passes.Add(1)
	n.lastPass.Store(math.Float64bits(t))
}

// Passes 返回通过该节点的车辆数
func (n *Node) Passes() int64 {
	return n.passes.Load()
}

// LastPass 返回最近一次车辆通过的模拟时间
func (n *Node) LastPass() float64 {
	return math.Float64frombits(n.lastPass.Load())
}
