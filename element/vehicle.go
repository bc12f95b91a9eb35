package element

import (
	"fmt"
	"math"

	"trafsim/utils"
)

// State 车辆状态
type State int

const (
	StateActive   State = iota + 1 // 行驶中
	StateAccident                  // 发生过事故，沿绕行路线继续行驶，不会再次触发事故
	StateFinished                  // 行程结束（终态）
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateAccident:
		return "accident"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Heading 车头朝向，顺时针排列，对应旋转角度0/90/180/270
// 屏幕坐标系y轴向下，North即y减小的方向
type Heading int

const (
	North Heading = iota
	East
	South
	West
)

// Rotation 返回朝向对应的旋转角度
func (h Heading) Rotation() float64 {
	return float64(h) * 90
}

func (h Heading) String() string {
	switch h {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	default:
		return fmt.Sprintf("Heading(%d)", int(h))
	}
}

// 路网与坐标轴对齐，方向取主轴
func headingOf(dir utils.Vec2, fallback Heading) Heading {
	switch {
	case dir[0] == 0 && dir[1] == 0:
		return fallback
	case math.Abs(dir[0]) >= math.Abs(dir[1]):
		if dir[0] > 0 {
			return East
		}
		return West
	default:
		if dir[1] < 0 {
			return North
		}
		return South
	}
}

const (
	probeFrontRatio       = 0.51 // 车头探测点，略超出半个车长
	accidentDistanceRatio = 0.1  // 车长的10%作为最小安全距离
	accidentMinDot        = 0.8  // 方向向量点积超过该值视为同向
)

// Size 车辆尺寸
type Size struct {
	Width  float64
	Length float64
}

// VehicleParams 车辆构造参数，行程中不变
type VehicleParams struct {
	Size              Size
	InitialSpeed      float64
	Acceleration      float64
	MaxSpeed          float64
	AccidentClearance float64 // 事故清除时间（秒），0表示事故永不清除
}

// DefaultVehicleParams 返回默认车辆参数
func DefaultVehicleParams() VehicleParams {
	return VehicleParams{
		Size:         Size{Width: 10, Length: 20},
		InitialSpeed: 200,
		Acceleration: 200,
		MaxSpeed:     200,
	}
}

// Accident 一次事故
type Accident struct {
	Time     float64
	Vehicles [2]int64
	Position utils.Vec2
	Blocked  []*Node // 本次事故新封锁的节点
}

// Vehicle 表示一辆自动驾驶车辆
type Vehicle struct {
	index       int64
	origin      *Node
	destination *Node
	prev        *Node   // 最近经过的节点
	route       []*Node // 剩余路线，首元素为下一个途经点
	router      Router

	position  utils.Vec2
	direction utils.Vec2
	heading   Heading

	speed        float64
	acceleration float64
	maxSpeed     float64
	size         Size
	clearance    float64

	state      State
	arrived    bool
	accidents  int
	accidentAt float64
	blocked    []*Node // 当前事故中由本车封锁的节点

	spawnTime  float64
	finishTime float64
	passed     int
}

// NewVehicle 创建一辆车并立即计算初始路线
func NewVehicle(index int64, origin, destination *Node, router Router, params VehicleParams, spawnTime float64) *Vehicle {
	if origin == nil || destination == nil {
		panic("origin and destination must not be nil")
	}
	if router == nil {
		panic("router must not be nil")
	}
	if params.Size.Width <= 0 || params.Size.Length <= 0 {
		panic("vehicle size must be positive")
	}
	if params.InitialSpeed < 0 || params.Acceleration < 0 || params.MaxSpeed < 0 {
		panic("speed and acceleration must be non-negative")
	}
	if params.AccidentClearance < 0 {
		panic("accident clearance must be non-negative")
	}

	v := &Vehicle{
		index:        index,
		origin:       origin,
		destination:  destination,
		prev:         origin,
		router:       router,
		position:     origin.Pos(),
		heading:      North,
		speed:        math.Min(params.InitialSpeed, params.MaxSpeed),
		acceleration: params.Acceleration,
		maxSpeed:     params.MaxSpeed,
		size:         params.Size,
		clearance:    params.AccidentClearance,
		state:        StateActive,
		spawnTime:    spawnTime,
	}
	v.findRoute()
	return v
}

// findRoute 从起点计算路线，路线不包含当前所在节点
func (v *Vehicle) findRoute() {
	path := v.router.FindPath(v.prev, v.destination)
	if len(path) == 0 {
		v.route = nil
		return
	}
	v.route = path[1:]
	v.aimAtFront()
}

// reroute 事故后重新规划路线
// 车辆停在prev上时从prev出发，否则先驶完当前路段，从前方节点出发
func (v *Vehicle) reroute() {
	onPrev := v.position == v.prev.Pos()
	start := v.prev
	if !onPrev {
		start = v.route[0]
	}

	path := v.router.FindPath(start, v.destination)
	if len(path) == 0 {
		v.route = nil
		return
	}
	if onPrev {
		v.route = path[1:]
	} else {
		v.route = path
	}
	v.aimAtFront()
}

func (v *Vehicle) aimAtFront() {
	if len(v.route) == 0 {
		return
	}
	v.setDirection(utils.Normalize(v.route[0].Pos().Sub(v.position)))
}

func (v *Vehicle) setDirection(dir utils.Vec2) {
	v.direction = dir
	v.heading = headingOf(dir, v.heading)
}

// Update 每帧调用一次，推进车辆状态
// now为模拟时间，dt为距上一帧的时间，vehicles为所有车辆（可以包含自身），networks为所有信号灯组
// 发生事故时返回事故事件，否则返回nil；事故车辆在同一帧内从零速开始沿新路线行驶
func (v *Vehicle) Update(now, dt float64, vehicles []*Vehicle, networks []*LightNetwork) *Accident {
	if v.state == StateFinished {
		return nil
	}
	if len(v.route) == 0 {
		v.finish(now, false)
		return nil
	}

	var accident *Accident
	if v.state == StateAccident {
		v.recover(now)
	} else if other := v.checkAccident(vehicles); other != nil {
		accident = v.handleAccident(now, other)
		// 无法绕行，下一帧结束行程
		if len(v.route) == 0 {
			return accident
		}
	}

	// 到达途经点：吸附到节点上，避免浮点误差累积
	step := dt * v.speed
	if utils.Distance(v.position, v.route[0].Pos()) < step {
		v.prev.IncrementCounter(now)
		v.position = v.route[0].Pos()
		v.prev = v.route[0]
		v.route = v.route[1:]
		v.passed++
		if len(v.route) == 0 || utils.Distance(v.destination.Pos(), v.route[0].Pos()) < step {
			v.finish(now, true)
			return accident
		}
		// 只有在转弯时才需要改变方向
		v.setDirection(utils.Normalize(v.route[0].Pos().Sub(v.prev.Pos())))
	}

	v.computeVelocity(dt, vehicles, networks)
	v.position = v.position.Add(v.direction.Mul(dt * v.speed))
	return accident
}

func (v *Vehicle) finish(now float64, arrived bool) {
	v.state = StateFinished
	v.arrived = arrived
	v.finishTime = now
	v.speed = 0
}

func (v *Vehicle) probes() (far, near utils.Vec2) {
	far = v.position.Add(v.direction.Mul(v.size.Length))
	near = v.position.Add(v.direction.Mul(v.size.Length * probeFrontRatio))
	return far, near
}

// computeVelocity 前方有车或红灯时停车，否则加速到最高速度
func (v *Vehicle) computeVelocity(dt float64, vehicles []*Vehicle, networks []*LightNetwork) {
	far, near := v.probes()

	for _, other := range vehicles {
		if other == v {
			continue
		}
		fp := other.Footprint()
		// 与前车的安全距离；车头
		if fp.Contains(far) || fp.Contains(near) {
			v.speed = 0
			return
		}
	}

	for _, ln := range networks {
		for _, light := range ln.Lights() {
			if light.CanPass() {
				continue
			}
			region := light.BlockingRegion()
			if region.Contains(far) || region.Contains(near) {
				v.speed = 0
				return
			}
		}
	}

	v.speed = math.Min(v.speed+v.acceleration*dt, v.maxSpeed)
}

// checkAccident 返回与本车距离过近且同向行驶的第一辆车
func (v *Vehicle) checkAccident(vehicles []*Vehicle) *Vehicle {
	minSafeDistance := v.size.Length * accidentDistanceRatio

	for _, other := range vehicles {
		if other == v {
			continue
		}
		if utils.Distance(v.position, other.position) >= minSafeDistance {
			continue
		}
		if utils.Dot(v.direction, other.direction) > accidentMinDot {
			return other
		}
	}
	return nil
}

// handleAccident 本车与other同时进入事故状态
// other在同一次调用中被标记，之后它自己的Update不会再对同一对车辆计数
func (v *Vehicle) handleAccident(now float64, other *Vehicle) *Accident {
	accident := &Accident{
		Time:     now,
		Vehicles: [2]int64{v.index, other.index},
		Position: v.position,
	}
	accident.Blocked = append(accident.Blocked, v.enterAccident(now)...)
	if other.state == StateActive {
		accident.Blocked = append(accident.Blocked, other.enterAccident(now)...)
	}
	return accident
}

// enterAccident 停车、封锁当前路段并规划绕行路线，返回本车新封锁的节点
func (v *Vehicle) enterAccident(now float64) []*Node {
	v.state = StateAccident
	v.speed = 0
	v.accidentAt = now
	v.accidents++

	if len(v.route) == 0 {
		return nil
	}

	var blocked []*Node
	for _, n := range []*Node{v.prev, v.route[0]} {
		if n.Block() {
			blocked = append(blocked, n)
		}
	}
	v.blocked = blocked
	v.reroute()
	return blocked
}

// recover 事故清除时间已过时解除封锁并清除事故标记
func (v *Vehicle) recover(now float64) {
	if v.ReleaseBlocked(now) {
		v.state = StateActive
	}
}

// ReleaseBlocked 事故清除时间已过时解除本车封锁的节点
// 返回true表示本车不再持有封锁；清除时间为0时封锁永久保留，总是返回false
func (v *Vehicle) ReleaseBlocked(now float64) bool {
	if v.clearance <= 0 || now-v.accidentAt < v.clearance {
		return false
	}
	for _, n := range v.blocked {
		n.Unblock()
	}
	v.blocked = nil
	return true
}

// PendingRelease 返回本车是否持有将在清除时间后解除的封锁
func (v *Vehicle) PendingRelease() bool {
	return v.clearance > 0 && len(v.blocked) > 0
}

// HasRightOfWay 判断在冲突点上本车是否优先于other
// 右侧来车优先：other从本车右侧驶入时本车让行
func (v *Vehicle) HasRightOfWay(other *Vehicle) bool {
	if other == nil || other == v || other.state != StateActive {
		return true
	}
	return other.heading != (v.heading+3)%4
}

// Footprint 返回车辆占据的轴对齐矩形，长边沿行驶方向
func (v *Vehicle) Footprint() utils.Rect {
	if v.heading == East || v.heading == West {
		return utils.RectAround(v.position, v.size.Length, v.size.Width)
	}
	return utils.RectAround(v.position, v.size.Width, v.size.Length)
}

// Index 返回车辆ID
func (v *Vehicle) Index() int64 {
	return v.index
}

// Position 返回车辆当前位置
func (v *Vehicle) Position() utils.Vec2 {
	return v.position
}

// Direction 返回当前路段的单位方向向量
func (v *Vehicle) Direction() utils.Vec2 {
	return v.direction
}

// Heading 返回车头朝向
func (v *Vehicle) Heading() Heading {
	return v.heading
}

func (v *Vehicle) Speed() float64 {
	return v.speed
}

func (v *Vehicle) MaxSpeed() float64 {
	return v.maxSpeed
}

func (v *Vehicle) Acceleration() float64 {
	return v.acceleration
}

func (v *Vehicle) Size() Size {
	return v.size
}

// Origin 返回车辆起点
func (v *Vehicle) Origin() *Node {
	return v.origin
}

// Destination 返回车辆终点
func (v *Vehicle) Destination() *Node {
	return v.destination
}

// Previous 返回最近经过的节点
func (v *Vehicle) Previous() *Node {
	return v.prev
}

// Route 返回剩余路线的副本
func (v *Vehicle) Route() []*Node {
	result := make([]*Node, len(v.route))
	copy(result, v.route)
	return result
}

// RouteLength 返回剩余途经点数量
func (v *Vehicle) RouteLength() int {
	return len(v.route)
}

func (v *Vehicle) State() State {
	return v.state
}

// InAccident 返回车辆是否处于事故状态
func (v *Vehicle) InAccident() bool {
	return v.state == StateAccident
}

// IsFinished 返回车辆是否已结束行程
func (v *Vehicle) IsFinished() bool {
	return v.state == StateFinished
}

// Reached 返回车辆是否是因到达终点而结束
func (v *Vehicle) Reached() bool {
	return v.arrived
}

// Accidents 返回车辆参与的事故次数
func (v *Vehicle) Accidents() int {
	return v.accidents
}

func (v *Vehicle) SpawnTime() float64 {
	return v.spawnTime
}

func (v *Vehicle) FinishTime() float64 {
	return v.finishTime
}

// Report 返回车辆行程信息
// 返回：ID，起点ID，终点ID，出发时间，结束时间，是否到达，事故次数，经过节点数
func (v *Vehicle) Report() (int64, int64, int64, float64, float64, bool, int, int) {
	return v.index, v.origin.ID(), v.destination.ID(), v.spawnTime, v.finishTime, v.arrived, v.accidents, v.passed
}
