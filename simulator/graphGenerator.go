package simulator

import (
	"trafsim/element"
	"trafsim/utils"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/graph/topo"
)

// LightParams 路口信号灯参数
type LightParams struct {
	Interval   float64 // 信号周期（秒）
	GreenRatio float64 // 南北向绿灯占周期的比例，其余时间东西向绿灯
	Depth      float64 // 禁行区域沿车道方向的长度
}

// 路口内四个车道节点的编号
const (
	cornerNE = iota
	cornerNW
	cornerSW
	cornerSE
	cornersPerBlock
)

// CreateGridGraph 创建一个右侧通行的双向网格路网
//
// 参数:
//   - rows, cols: 路口行数和列数
//   - spacing: 相邻路口中心的距离
//   - laneOffset: 车道中心线到道路中心线的距离
//   - segments: 路口之间每条车道划分的路段数
//   - light: 路口信号灯参数，Interval为0时不设信号灯
//   - finder: 路径查找函数，nil时使用A*
//
// 每个路口由2x2个车道节点组成：北行车道位于x+o，南行x-o，东行y+o，西行y-o。
// 路口内部的四条边构成一个环，允许任意转向。所有边都与坐标轴对齐。
func CreateGridGraph(rows, cols int, spacing, laneOffset float64, segments int, light LightParams, finder utils.PathFinder) *element.RoadNetwork {
	// 参数验证
	if rows <= 0 || cols <= 0 {
		panic("rows and cols must be positive")
	}
	if spacing <= 0 || laneOffset <= 0 {
		panic("spacing and laneOffset must be positive")
	}
	if laneOffset*2 >= spacing {
		panic("laneOffset must be less than half of spacing")
	}
	if segments < 1 {
		panic("segments must be at least 1")
	}
	if light.Interval < 0 || (light.Interval > 0 && (light.GreenRatio <= 0 || light.GreenRatio >= 1)) {
		panic("invalid light params")
	}

	rn := element.NewRoadNetwork(finder)
	blocks := make([][cornersPerBlock]*element.Node, rows*cols)
	o := laneOffset

	// 创建所有车道节点，原点留出半个路口间距
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			center := blockCenter(r, c, spacing)
			b := r*cols + c
			offsets := [cornersPerBlock]utils.Vec2{
				cornerNE: {o, -o},
				cornerNW: {-o, -o},
				cornerSW: {-o, o},
				cornerSE: {o, o},
			}
			for k, off := range offsets {
				n := element.NewNode(int64(b*cornersPerBlock+k+1), center.Add(off))
				rn.AddNode(n)
				blocks[b][k] = n
			}
		}
	}

	block := func(r, c int) *[cornersPerBlock]*element.Node {
		return &blocks[r*cols+c]
	}

	// 路段中间节点的ID排在路口节点之后
	lastID := int64(rows * cols * cornersPerBlock)
	nextID := func() int64 {
		lastID++
		return lastID
	}
	var linkID int64
	connect := func(from, to *element.Node) {
		linkID++
		rn.AddLink(element.NewLink(linkID, from, to, segments, nextID))
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			b := block(r, c)
			// 路口内部：北行、西行、南行、东行各一段
			rn.Connect(b[cornerSE], b[cornerNE])
			rn.Connect(b[cornerNE], b[cornerNW])
			rn.Connect(b[cornerNW], b[cornerSW])
			rn.Connect(b[cornerSW], b[cornerSE])

			// 路口之间的道路
			if r > 0 {
				connect(b[cornerNE], block(r-1, c)[cornerSE])
			}
			if r < rows-1 {
				connect(b[cornerSW], block(r+1, c)[cornerNW])
			}
			if c < cols-1 {
				connect(b[cornerSE], block(r, c+1)[cornerSW])
			}
			if c > 0 {
				connect(b[cornerNW], block(r, c-1)[cornerNE])
			}

			if light.Interval > 0 {
				rn.AddLightNetwork(createIntersectionLights(r, c, r*cols+c, spacing, o, light))
			}
		}
	}

	return rn
}

func blockCenter(r, c int, spacing float64) utils.Vec2 {
	return utils.Vec2{(float64(c) + 0.5) * spacing, (float64(r) + 0.5) * spacing}
}

// createIntersectionLights 为一个路口创建四个进口道信号灯
// 禁行区域位于进口车道上，距路口车道节点gap处开始，宽度与车道一致
func createIntersectionLights(r, c, b int, spacing, o float64, params LightParams) *element.LightNetwork {
	center := blockCenter(r, c, spacing)
	depth := params.Depth
	if depth <= 0 {
		depth = o
	}
	gap := o / 2
	width := o
	split := params.Interval * params.GreenRatio
	ns := [2]float64{0, split}
	ew := [2]float64{split, params.Interval}

	id := int64(b + 1)
	ln := element.NewLightNetwork(id)

	// 北行车辆从南侧驶入，停在东南角节点下方
	ln.Add(element.NewTrafficLight(id*cornersPerBlock+0, params.Interval, ns,
		utils.RectAround(center.Add(utils.Vec2{o, o + gap + depth/2}), width, depth)))
	// 南行车辆从北侧驶入
	ln.Add(element.NewTrafficLight(id*cornersPerBlock+1, params.Interval, ns,
		utils.RectAround(center.Add(utils.Vec2{-o, -o - gap - depth/2}), width, depth)))
	// 东行车辆从西侧驶入
	ln.Add(element.NewTrafficLight(id*cornersPerBlock+2, params.Interval, ew,
		utils.RectAround(center.Add(utils.Vec2{-o - gap - depth/2, o}), depth, width)))
	// 西行车辆从东侧驶入
	ln.Add(element.NewTrafficLight(id*cornersPerBlock+3, params.Interval, ew,
		utils.RectAround(center.Add(utils.Vec2{o + gap + depth/2, -o}), depth, width)))

	// 相邻路口相位错开半个周期
	if (r+c)%2 == 1 {
		for _, light := range ln.Lights() {
			light.SetElapsed(params.Interval / 2)
		}
	}
	return ln
}

// CreateCorridorGraph 创建一条双车道直线走廊
// 东行车道位于y=+laneOffset，西行车道位于y=-laneOffset，每个站点处两条车道互相连通（掉头）
func CreateCorridorGraph(n int, spacing, laneOffset float64, finder utils.PathFinder) *element.RoadNetwork {
	if n < 2 {
		panic("corridor needs at least two stations")
	}
	if spacing <= 0 || laneOffset <= 0 {
		panic("spacing and laneOffset must be positive")
	}

	rn := element.NewRoadNetwork(finder)
	east := make([]*element.Node, n)
	west := make([]*element.Node, n)
	for i := 0; i < n; i++ {
		x := float64(i) * spacing
		east[i] = element.NewNode(int64(2*i+1), utils.Vec2{x, laneOffset})
		west[i] = element.NewNode(int64(2*i+2), utils.Vec2{x, -laneOffset})
		rn.AddNode(east[i])
		rn.AddNode(west[i])
	}
	for i := 0; i < n; i++ {
		rn.ConnectBoth(east[i], west[i])
		if i+1 < n {
			rn.Connect(east[i], east[i+1])
			rn.Connect(west[i+1], west[i])
		}
	}
	return rn
}

// SpawnPoints 返回可以作为起终点的节点：既能驶入也能驶出
func SpawnPoints(rn *element.RoadNetwork) []*element.Node {
	g := rn.Graph()
	return lo.Filter(rn.Nodes(), func(n *element.Node, _ int) bool {
		return g.From(n.ID()).Len() > 0 && g.To(n.ID()).Len() > 0
	})
}

// IsStronglyConnected 检查路网是否强连通，同时返回强连通分量的数量
func IsStronglyConnected(rn *element.RoadNetwork) (bool, int) {
	components := topo.TarjanSCC(rn.Graph())
	return len(components) == 1, len(components)
}
