package element

import (
	"math"

	"trafsim/utils"
)

// TrafficLight 表示一个交通信号灯
type TrafficLight struct {
	id int64

	// phase表示当前相位状态(true为绿灯，false为红灯)
	// truePhaseInterval规定周期内时间属于[from, to)时相位为true
	// interval表示一个完整周期的长度（秒）
	// elapsed是当前周期内已经过的时间
	phase             bool
	truePhaseInterval [2]float64
	interval          float64
	elapsed           float64

	// 红灯时车辆不能驶入的区域
	blocker utils.Rect
}

// NewTrafficLight 创建一个新的交通信号灯
func NewTrafficLight(id int64, interval float64, truePhaseInterval [2]float64, blocker utils.Rect) *TrafficLight {
	// 验证参数合法性
	if interval <= 0 {
		panic("interval must be positive")
	}
	if truePhaseInterval[0] < 0 || truePhaseInterval[1] <= truePhaseInterval[0] || truePhaseInterval[1] > interval {
		panic("invalid true phase interval")
	}

	light := &TrafficLight{
		id:                id,
		truePhaseInterval: truePhaseInterval,
		interval:          interval,
		blocker:           blocker,
	}
	light.updatePhase()
	return light
}

// ID 返回信号灯ID
func (light *TrafficLight) ID() int64 {
	return light.id
}

// Cycle 推进信号灯时钟dt秒
func (light *TrafficLight) Cycle(dt float64) {
	light.elapsed = math.Mod(light.elapsed+dt, light.interval)
	light.updatePhase()
}

func (light *TrafficLight) updatePhase() {
	light.phase = light.elapsed >= light.truePhaseInterval[0] && light.elapsed < light.truePhaseInterval[1]
}

// CanPass 返回车辆当前是否可以通过
func (light *TrafficLight) CanPass() bool {
	return light.phase
}

// BlockingRegion 返回红灯时的禁行区域
func (light *TrafficLight) BlockingRegion() utils.Rect {
	return light.blocker
}

// ChangeInterval 按指定倍数改变红绿灯周期
func (light *TrafficLight) ChangeInterval(mul float64) {
	if mul <= 0 {
		panic("multiplier must be positive")
	}

	// 按比例调整相关参数
	light.interval *= mul
	light.truePhaseInterval = [2]float64{
		light.truePhaseInterval[0] * mul,
		light.truePhaseInterval[1] * mul,
	}
	light.elapsed = math.Mod(light.elapsed*mul, light.interval)
	light.updatePhase()
}

// SetElapsed 设置当前周期内已经过的时间
func (light *TrafficLight) SetElapsed(t float64) {
	if t < 0 || t >= light.interval {
		panic("elapsed must be in [0, interval)")
	}
	light.elapsed = t
	light.updatePhase()
}

// GetInterval 返回当前周期长度
func (light *TrafficLight) GetInterval() float64 {
	return light.interval
}

// GetTruePhaseInterval 返回绿灯相位区间
func (light *TrafficLight) GetTruePhaseInterval() [2]float64 {
	return light.truePhaseInterval
}

// LightNetwork 一个路口的一组信号灯
type LightNetwork struct {
	id     int64
	lights []*TrafficLight
}

// NewLightNetwork 创建信号灯组
func NewLightNetwork(id int64, lights ...*TrafficLight) *LightNetwork {
	return &LightNetwork{id: id, lights: lights}
}

// ID 返回信号灯组ID
func (ln *LightNetwork) ID() int64 {
	return ln.id
}

// Add 向信号灯组加入一个信号灯
func (ln *LightNetwork) Add(light *TrafficLight) {
	ln.lights = append(ln.lights, light)
}

// Lights 返回组内所有信号灯
func (ln *LightNetwork) Lights() []*TrafficLight {
	return ln.lights
}

// Cycle 推进组内所有信号灯
func (ln *LightNetwork) Cycle(dt float64) {
	for _, light := range ln.lights {
		light.Cycle(dt)
	}
}

// ChangeInterval 按倍数调整组内所有信号灯的周期
func (ln *LightNetwork) ChangeInterval(mul float64) {
	for _, light := range ln.lights {
		light.ChangeInterval(mul)
	}
}
