package element

import (
	"testing"

	"trafsim/utils"

	"github.com/stretchr/testify/assert"
)

func newTestLight() *TrafficLight {
	return NewTrafficLight(1, 10, [2]float64{0, 6}, utils.RectAround(utils.Vec2{}, 4, 4))
}

func TestTrafficLightCycle(t *testing.T) {
	light := newTestLight()
	assert.True(t, light.CanPass())

	light.Cycle(5.5)
	assert.True(t, light.CanPass())

	light.Cycle(0.5)
	assert.False(t, light.CanPass())

	light.Cycle(4)
	assert.True(t, light.CanPass(), "周期结束后回到绿灯")
}

func TestTrafficLightChangeInterval(t *testing.T) {
	light := newTestLight()
	light.SetElapsed(5)
	light.ChangeInterval(2)

	assert.Equal(t, 20.0, light.GetInterval())
	assert.Equal(t, [2]float64{0, 12}, light.GetTruePhaseInterval())
	assert.True(t, light.CanPass())

	light.Cycle(3)
	assert.False(t, light.CanPass())

	assert.Panics(t, func() { light.ChangeInterval(0) })
}

func TestTrafficLightValidation(t *testing.T) {
	region := utils.RectAround(utils.Vec2{}, 1, 1)
	assert.Panics(t, func() { NewTrafficLight(1, 0, [2]float64{0, 1}, region) })
	assert.Panics(t, func() { NewTrafficLight(1, 10, [2]float64{5, 5}, region) })
	assert.Panics(t, func() { NewTrafficLight(1, 10, [2]float64{0, 11}, region) })
	assert.Panics(t, func() { newTestLight().SetElapsed(10) })
}

func TestLightNetworkCyclesAllLights(t *testing.T) {
	ns := NewTrafficLight(1, 10, [2]float64{0, 5}, utils.RectAround(utils.Vec2{}, 1, 1))
	ew := NewTrafficLight(2, 10, [2]float64{5, 10}, utils.RectAround(utils.Vec2{}, 1, 1))
	ln := NewLightNetwork(3, ns)
	ln.Add(ew)

	assert.Len(t, ln.Lights(), 2)
	assert.True(t, ns.CanPass())
	assert.False(t, ew.CanPass())

	ln.Cycle(5)
	assert.False(t, ns.CanPass())
	assert.True(t, ew.CanPass())

	ln.ChangeInterval(0.5)
	assert.Equal(t, 5.0, ns.GetInterval())
	assert.Equal(t, 5.0, ew.GetInterval())
}
