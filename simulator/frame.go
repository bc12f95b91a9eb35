package simulator

import (
	"trafsim/element"

	"github.com/samber/lo"
)

// VehicleView 一辆车的展示状态
type VehicleView struct {
	ID       int64   `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	Width    float64 `json:"width"`
	Length   float64 `json:"length"`
	Speed    float64 `json:"speed"`
	State    string  `json:"state"`
}

// LightView 一个信号灯的展示状态
type LightView struct {
	ID    int64      `json:"id"`
	Green bool       `json:"green"`
	Min   [2]float64 `json:"min"`
	Max   [2]float64 `json:"max"`
}

// Frame 某一时刻的完整模拟状态，只包含数据，供外部展示使用
type Frame struct {
	RunID    string         `json:"runId"`
	Step     int            `json:"step"`
	Time     float64        `json:"time"`
	Vehicles []VehicleView  `json:"vehicles"`
	Lights   []LightView    `json:"lights"`
	Blocked  []int64        `json:"blocked"`
	System   SystemSnapshot `json:"system"`
}

// Snapshot 返回当前模拟状态
func (s *Simulator) Snapshot() Frame {
	vehicles := lo.Map(s.population.Vehicles(), func(v *element.Vehicle, _ int) VehicleView {
		pos := v.Position()
		size := v.Size()
		return VehicleView{
			ID:       v.Index(),
			X:        pos[0],
			Y:        pos[1],
			Rotation: v.Heading().Rotation(),
			Width:    size.Width,
			Length:   size.Length,
			Speed:    v.Speed(),
			State:    v.State().String(),
		}
	})

	var lights []LightView
	for _, ln := range s.network.LightNetworks() {
		for _, light := range ln.Lights() {
			region := light.BlockingRegion()
			lower, upper := region.Min(), region.Max()
			lights = append(lights, LightView{
				ID:    light.ID(),
				Green: light.CanPass(),
				Min:   [2]float64{lower[0], lower[1]},
				Max:   [2]float64{upper[0], upper[1]},
			})
		}
	}

	blocked := lo.FilterMap(s.network.Nodes(), func(n *element.Node, _ int) (int64, bool) {
		return n.ID(), n.Blocked()
	})

	return Frame{
		RunID:    s.runID,
		Step:     s.step,
		Time:     s.now,
		Vehicles: vehicles,
		Lights:   lights,
		Blocked:  blocked,
		System:   s.state.Snapshot(),
	}
}
