package element

import (
	"trafsim/utils"
)

// Link 表示连接两个路口节点的一段单向道路，由若干等长路段组成
type Link struct {
	id    int64
	nodes []*Node // 包括起点和终点
}

// NewLink 在from和to之间创建segments段道路，中间节点的ID由nextID生成
func NewLink(id int64, from, to *Node, segments int, nextID func() int64) *Link {
	if segments < 1 {
		panic("segments must be at least 1")
	}
	if from == nil || to == nil {
		panic("link endpoints must not be nil")
	}

	nodes := make([]*Node, 0, segments+1)
	nodes = append(nodes, from)
	delta := to.Pos().Sub(from.Pos())
	for i := 1; i < segments; i++ {
		nodes = append(nodes, NewNode(nextID(), from.Pos().Add(delta.Mul(float64(i)/float64(segments)))))
	}
	nodes = append(nodes, to)

	return &Link{id: id, nodes: nodes}
}

// ID 返回链路ID
func (l *Link) ID() int64 {
	return l.id
}

// Nodes 返回链路上的所有节点（包括两端）
func (l *Link) Nodes() []*Node {
	result := make([]*Node, len(l.nodes))
	copy(result, l.nodes)
	return result
}

// Segments 返回路段数
func (l *Link) Segments() int {
	return len(l.nodes) - 1
}

// Length 返回链路总长度
func (l *Link) Length() float64 {
	return utils.Distance(l.nodes[0].Pos(), l.nodes[len(l.nodes)-1].Pos())
}

// AddTo 将中间节点加入路网并依次连接各路段，两端节点必须已在路网中
func (l *Link) AddTo(rn *RoadNetwork) {
	for _, n := range l.nodes[1 : len(l.nodes)-1] {
		rn.AddNode(n)
	}
	for i := 0; i+1 < len(l.nodes); i++ {
		rn.Connect(l.nodes[i], l.nodes[i+1])
	}
}

// Report 报告链路的状态信息
// 返回：链路ID，路段数，长度，被封锁的节点数，累计通过车辆数
func (l *Link) Report() (int64, int, float64, int, int64) {
	blocked := 0
	var passes int64
	for _, n := range l.nodes {
		if n.Blocked() {
			blocked++
		}
		passes += n.Passes()
	}
	return l.id, l.Segments(), l.Length(), blocked, passes
}
