package simulator

import (
	"trafsim/element"

	"github.com/samber/lo"
)

// StepReport 一次模拟步中发生的事件
type StepReport struct {
	Accidents []*element.Accident
	Finished  []*element.Vehicle
}

// Population 管理路网上的所有车辆
// 车辆按加入顺序逐一更新，每辆车看到的是其他车辆的实时位置：
// 排在前面的车辆在本帧已经移动过
type Population struct {
	vehicles []*element.Vehicle
	networks []*element.LightNetwork
	index    *proximityIndex // 为nil时逐一比较所有车辆
	nextSeq  int64

	// 已结束行程但事故封锁尚未到清除时间的车辆
	clearing []*element.Vehicle

	accidents int64
	completed int64
	failed    int64
}

// NewPopulation 创建车辆种群，spatialIndex为true时使用R树做邻近查询
func NewPopulation(networks []*element.LightNetwork, spatialIndex bool) *Population {
	p := &Population{networks: networks}
	if spatialIndex {
		p.index = newProximityIndex()
	}
	return p
}

// Add 将车辆加入种群末尾
func (p *Population) Add(v *element.Vehicle) {
	p.nextSeq++
	p.vehicles = append(p.vehicles, v)
	if p.index != nil {
		p.index.Insert(v, p.nextSeq)
	}
}

// Vehicles 返回当前车辆（按加入顺序）
func (p *Population) Vehicles() []*element.Vehicle {
	return p.vehicles
}

// Len 返回当前车辆数
func (p *Population) Len() int {
	return len(p.vehicles)
}

// Networks 返回信号灯组
func (p *Population) Networks() []*element.LightNetwork {
	return p.networks
}

// Accidents 返回累计事故数
func (p *Population) Accidents() int64 {
	return p.accidents
}

// Completed 返回到达终点的车辆数
func (p *Population) Completed() int64 {
	return p.completed
}

// Failed 返回未能到达终点就结束行程的车辆数
func (p *Population) Failed() int64 {
	return p.failed
}

// candidates 返回v需要考虑的其他车辆
func (p *Population) candidates(v *element.Vehicle) []*element.Vehicle {
	if p.index == nil {
		return p.vehicles
	}
	return p.index.Nearby(v)
}

// Pending 返回仍持有事故封锁的已结束车辆数
func (p *Population) Pending() int {
	return len(p.clearing)
}

// Step 推进一帧：先推进信号灯并解除到期的封锁，再按顺序更新每辆车，最后移除结束行程的车辆
func (p *Population) Step(now, dt float64) StepReport {
	var report StepReport

	for _, ln := range p.networks {
		ln.Cycle(dt)
	}
	p.clearing = lo.Reject(p.clearing, func(v *element.Vehicle, _ int) bool {
		return v.ReleaseBlocked(now)
	})

	for _, v := range p.vehicles {
		if acc := v.Update(now, dt, p.candidates(v), p.networks); acc != nil {
			report.Accidents = append(report.Accidents, acc)
		}
		if p.index != nil {
			p.index.Update(v)
		}
	}
	p.accidents += int64(len(report.Accidents))

	report.Finished = lo.Filter(p.vehicles, func(v *element.Vehicle, _ int) bool {
		return v.IsFinished()
	})
	if len(report.Finished) == 0 {
		return report
	}

	for _, v := range report.Finished {
		if v.Reached() {
			p.completed++
		} else {
			p.failed++
		}
		if p.index != nil {
			p.index.Remove(v)
		}
		if v.PendingRelease() {
			p.clearing = append(p.clearing, v)
		}
	}
	p.vehicles = lo.Reject(p.vehicles, func(v *element.Vehicle, _ int) bool {
		return v.IsFinished()
	})
	return report
}

// Speeds 返回所有车辆的当前速度
func (p *Population) Speeds() []float64 {
	return lo.Map(p.vehicles, func(v *element.Vehicle, _ int) float64 {
		return v.Speed()
	})
}

// CountInAccident 返回处于事故状态的车辆数
func (p *Population) CountInAccident() int {
	return lo.CountBy(p.vehicles, func(v *element.Vehicle) bool {
		return v.InAccident()
	})
}
