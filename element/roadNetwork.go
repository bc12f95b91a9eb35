package element

import (
	"fmt"
	"math"
	"sort"

	"trafsim/utils"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// Router 为车辆计算路线
// 返回的路线包含from和to，不存在路线时返回空
type Router interface {
	FindPath(from, to *Node) []*Node
}

// RoadNetwork 路网：道路节点组成的有向加权图以及路口的信号灯组
// 构建完成后图结构只读，节点的blocked标志可并发修改
type RoadNetwork struct {
	g        *simple.WeightedDirectedGraph
	nodes    map[int64]*Node
	networks []*LightNetwork
	links    []*Link
	finder   utils.PathFinder
}

// NewRoadNetwork 创建一个空路网，finder为nil时使用A*
func NewRoadNetwork(finder utils.PathFinder) *RoadNetwork {
	if finder == nil {
		finder = utils.AStarPath
	}
	return &RoadNetwork{
		g:      simple.NewWeightedDirectedGraph(0, math.Inf(1)),
		nodes:  make(map[int64]*Node),
		finder: finder,
	}
}

// Graph 返回底层图
func (r *RoadNetwork) Graph() *simple.WeightedDirectedGraph {
	return r.g
}

// AddNode 将节点加入路网
func (r *RoadNetwork) AddNode(n *Node) {
	if _, ok := r.nodes[n.ID()]; ok {
		panic(fmt.Sprintf("node %d already in network", n.ID()))
	}
	r.g.AddNode(n)
	r.nodes[n.ID()] = n
}

// Connect 添加一条从from到to的单向道路，权重为两点距离
func (r *RoadNetwork) Connect(from, to *Node) {
	r.g.SetWeightedEdge(r.g.NewWeightedEdge(from, to, utils.Distance(from.Pos(), to.Pos())))
}

// ConnectBoth 添加双向道路
func (r *RoadNetwork) ConnectBoth(a, b *Node) {
	r.Connect(a, b)
	r.Connect(b, a)
}

// Node 按ID返回节点
func (r *RoadNetwork) Node(id int64) (*Node, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

// Nodes 返回按ID排序的所有节点
func (r *RoadNetwork) Nodes() []*Node {
	nodes := make([]*Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	return nodes
}

// Len 返回节点数量
func (r *RoadNetwork) Len() int {
	return len(r.nodes)
}

// Successors 返回从n出发可直接到达的节点
func (r *RoadNetwork) Successors(n *Node) []*Node {
	var out []*Node
	for _, s := range graph.NodesOf(r.g.From(n.ID())) {
		out = append(out, s.(*Node))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// AddLink 将链路加入路网
func (r *RoadNetwork) AddLink(l *Link) {
	l.AddTo(r)
	r.links = append(r.links, l)
}

// Links 返回通过AddLink加入的所有链路
func (r *RoadNetwork) Links() []*Link {
	return r.links
}

// AddLightNetwork 登记一个路口信号灯组
func (r *RoadNetwork) AddLightNetwork(ln *LightNetwork) {
	r.networks = append(r.networks, ln)
}

// LightNetworks 返回所有信号灯组
func (r *RoadNetwork) LightNetworks() []*LightNetwork {
	return r.networks
}

// BlockedCount 返回当前被封锁的节点数
func (r *RoadNetwork) BlockedCount() int {
	count := 0
	for _, n := range r.nodes {
		if n.Blocked() {
			count++
		}
	}
	return count
}

// FindPath 计算from到to的路线，跳过被封锁的节点
// 起点本身总是可通行的，车辆才能驶离自己刚封锁的路段
func (r *RoadNetwork) FindPath(from, to *Node) []*Node {
	if from == nil || to == nil {
		return nil
	}

	view := utils.Passable(r.g, func(n graph.Node) bool {
		if n.ID() == from.ID() {
			return true
		}
		node, ok := n.(*Node)
		return ok && !node.Blocked()
	})

	path, _, err := r.finder(view, from, to)
	if err != nil {
		return nil
	}

	route := make([]*Node, 0, len(path))
	for _, n := range path {
		route = append(route, n.(*Node))
	}
	return route
}
