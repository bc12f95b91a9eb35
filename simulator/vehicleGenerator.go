package simulator

import (
	"sync/atomic"

	"trafsim/element"

	"golang.org/x/exp/rand"
)

// Spawner 按固定间隔在随机起终点之间生成车辆
type Spawner struct {
	rng      *rand.Rand
	router   element.Router
	points   []*element.Node
	params   element.VehicleParams
	interval float64 // 生成间隔（秒）
	limit    int     // 同时在路上的最大车辆数
	next     float64 // 下一次生成的时间
	lastID   atomic.Int64
}

// NewSpawner 创建车辆生成器
func NewSpawner(seed uint64, router element.Router, points []*element.Node, params element.VehicleParams, interval float64, limit int) *Spawner {
	if len(points) < 2 {
		panic("spawner needs at least two spawn points")
	}
	if interval <= 0 {
		panic("spawn interval must be positive")
	}
	if limit <= 0 {
		panic("vehicle limit must be positive")
	}
	return &Spawner{
		rng:      rand.New(rand.NewSource(seed)),
		router:   router,
		points:   points,
		params:   params,
		interval: interval,
		limit:    limit,
	}
}

func (s *Spawner) nextVehicleID() int64 {
	return s.lastID.Add(1)
}

// Generated 返回已生成的车辆总数
func (s *Spawner) Generated() int64 {
	return s.lastID.Load()
}

// randomOD 随机选择不同的起点和终点
func (s *Spawner) randomOD() (*element.Node, *element.Node) {
	o := s.rng.Intn(len(s.points))
	d := s.rng.Intn(len(s.points) - 1)
	if d >= o {
		d++
	}
	return s.points[o], s.points[d]
}

// occupied 判断节点位置是否已被某辆车占据
func occupied(n *element.Node, vehicles []*element.Vehicle) bool {
	for _, v := range vehicles {
		if !v.IsFinished() && v.Footprint().Contains(n.Pos()) {
			return true
		}
	}
	return false
}

// Spawn 到达生成时间且车辆数未达上限时生成一辆车并加入pop
// 起点被占据时本次放弃，下一个间隔再试
func (s *Spawner) Spawn(now float64, pop *Population) *element.Vehicle {
	if now < s.next {
		return nil
	}
	s.next = now + s.interval

	if pop.Len() >= s.limit {
		return nil
	}

	origin, destination := s.randomOD()
	if occupied(origin, pop.Vehicles()) {
		return nil
	}

	v := element.NewVehicle(s.nextVehicleID(), origin, destination, s.router, s.params, now)
	pop.Add(v)
	return v
}
