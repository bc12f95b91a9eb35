package utils

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/path"
)

// ErrNoPath 起点和终点之间不存在可通行路径
var ErrNoPath = errors.New("no path between origin and destination")

// PathFinder 定义了查找路径的函数类型
// 返回的路径包含起点和终点，以及路径的总权重
type PathFinder func(g graph.Weighted, origin, destination graph.Node) ([]graph.Node, float64, error)

// Positioned 带有平面坐标的节点，用于A*启发函数
type Positioned interface {
	Pos() Vec2
}

// GetPathFinder 根据路径选择方法返回相应的路径查找函数
func GetPathFinder(method string) PathFinder {
	switch method {
	case "astar":
		return AStarPath
	case "dijkstra":
		return DijkstraPath
	default:
		// 默认使用A*
		return AStarPath
	}
}

// AStarPath 使用A*搜索最短路径，启发函数为欧氏距离
func AStarPath(g graph.Weighted, origin, destination graph.Node) ([]graph.Node, float64, error) {
	if err := checkEndpoints(g, origin, destination); err != nil {
		return nil, -1, err
	}

	shortest, _ := path.AStar(origin, destination, g, EuclideanHeuristic)
	nodes, weight := shortest.To(destination.ID())
	if len(nodes) == 0 {
		return nil, -1, ErrNoPath
	}
	return nodes, weight, nil
}

// DijkstraPath 使用Dijkstra搜索最短路径
func DijkstraPath(g graph.Weighted, origin, destination graph.Node) ([]graph.Node, float64, error) {
	if err := checkEndpoints(g, origin, destination); err != nil {
		return nil, -1, err
	}

	shortest := path.DijkstraFrom(origin, g)
	nodes, weight := shortest.To(destination.ID())
	if len(nodes) == 0 {
		return nil, -1, ErrNoPath
	}
	return nodes, weight, nil
}

// EuclideanHeuristic 两个节点之间的直线距离，节点没有坐标时退化为0
func EuclideanHeuristic(x, y graph.Node) float64 {
	px, ok := x.(Positioned)
	if !ok {
		return 0
	}
	py, ok := y.(Positioned)
	if !ok {
		return 0
	}
	return Distance(px.Pos(), py.Pos())
}

func checkEndpoints(g graph.Weighted, origin, destination graph.Node) error {
	if origin == nil || destination == nil {
		return errors.New("origin and destination must not be nil")
	}
	if g.Node(origin.ID()) == nil {
		return errors.Errorf("origin %d not in graph", origin.ID())
	}
	if g.Node(destination.ID()) == nil {
		return errors.Errorf("destination %d not in graph", destination.ID())
	}
	return nil
}

// Passable 返回一个只暴露可通行节点之间边的图视图
// 邻接节点按ID排序，保证等价路径的选择是确定的
func Passable(g graph.Weighted, passable func(graph.Node) bool) graph.Weighted {
	return &passableGraph{Weighted: g, passable: passable}
}

type passableGraph struct {
	graph.Weighted
	passable func(graph.Node) bool
}

func (p *passableGraph) ok(id int64) bool {
	n := p.Weighted.Node(id)
	return n != nil && p.passable(n)
}

func (p *passableGraph) From(id int64) graph.Nodes {
	if !p.ok(id) {
		return iterator.NewOrderedNodes(nil)
	}

	nodes := graph.NodesOf(p.Weighted.From(id))
	kept := nodes[:0]
	for _, n := range nodes {
		if p.passable(n) {
			kept = append(kept, n)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].ID() < kept[j].ID() })
	return iterator.NewOrderedNodes(kept)
}

func (p *passableGraph) HasEdgeBetween(xid, yid int64) bool {
	return p.ok(xid) && p.ok(yid) && p.Weighted.HasEdgeBetween(xid, yid)
}

func (p *passableGraph) Edge(uid, vid int64) graph.Edge {
	if !p.ok(uid) || !p.ok(vid) {
		return nil
	}
	return p.Weighted.Edge(uid, vid)
}

func (p *passableGraph) WeightedEdge(uid, vid int64) graph.WeightedEdge {
	if !p.ok(uid) || !p.ok(vid) {
		return nil
	}
	return p.Weighted.WeightedEdge(uid, vid)
}

func (p *passableGraph) Weight(xid, yid int64) (float64, bool) {
	if !p.ok(xid) || !p.ok(yid) {
		return math.Inf(1), false
	}
	return p.Weighted.Weight(xid, yid)
}
