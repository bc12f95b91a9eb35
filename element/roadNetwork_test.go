package element

import (
	"testing"

	"trafsim/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(route []*Node) []int64 {
	out := make([]int64, len(route))
	for i, n := range route {
		out[i] = n.ID()
	}
	return out
}

func routeDistance(route []*Node) float64 {
	total := 0.0
	for i := 1; i < len(route); i++ {
		total += utils.Distance(route[i-1].Pos(), route[i].Pos())
	}
	return total
}

func TestFindPathShortest(t *testing.T) {
	rn, nodes := ladderNetwork()
	assert.Equal(t, []int64{1, 2, 3}, ids(rn.FindPath(nodes["a"], nodes["c"])))
	assert.Equal(t, []int64{1}, ids(rn.FindPath(nodes["a"], nodes["a"])))
}

func TestFindPathSkipsBlockedNodes(t *testing.T) {
	rn, nodes := ladderNetwork()
	nodes["b"].Block()
	assert.Equal(t, []int64{1, 4, 5, 6, 3}, ids(rn.FindPath(nodes["a"], nodes["c"])))

	nodes["e"].Block()
	assert.Nil(t, rn.FindPath(nodes["a"], nodes["c"]))
	assert.Equal(t, 2, rn.BlockedCount())
}

func TestFindPathAllowsBlockedOrigin(t *testing.T) {
	rn, nodes := ladderNetwork()
	nodes["a"].Block()
	assert.Equal(t, []int64{1, 2, 3}, ids(rn.FindPath(nodes["a"], nodes["c"])))
	assert.Nil(t, rn.FindPath(nodes["d"], nodes["a"]))
}

func TestFindPathDijkstraAgreesWithAStar(t *testing.T) {
	astar, nodes := ladderNetwork()
	dijkstra := NewRoadNetwork(utils.DijkstraPath)
	for _, n := range astar.Nodes() {
		dijkstra.AddNode(n)
	}
	for _, n := range astar.Nodes() {
		for _, s := range astar.Successors(n) {
			dijkstra.Connect(n, s)
		}
	}
	// 梯形路网中存在多条等长路线，只比较总长度
	assert.InDelta(t, routeDistance(astar.FindPath(nodes["d"], nodes["c"])), routeDistance(dijkstra.FindPath(nodes["d"], nodes["c"])), 1e-9)
	assert.InDelta(t, 300.0, routeDistance(dijkstra.FindPath(nodes["d"], nodes["c"])), 1e-9)
}

func TestRoadNetworkNodes(t *testing.T) {
	rn, nodes := ladderNetwork()
	require.Equal(t, 6, rn.Len())
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, ids(rn.Nodes()))
	assert.Equal(t, []int64{1, 3, 5}, ids(rn.Successors(nodes["b"])))

	n, ok := rn.Node(5)
	assert.True(t, ok)
	assert.Equal(t, nodes["e"], n)

	assert.Panics(t, func() { rn.AddNode(NewNode(1, utils.Vec2{})) })
}
