package simulator

import (
	"testing"

	"trafsim/element"
	"trafsim/utils"

	"github.com/stretchr/testify/assert"
)

func TestSystemStateUpdate(t *testing.T) {
	rn, nodes := lineNetwork(utils.Vec2{0, 0}, utils.Vec2{0, 100}, utils.Vec2{0, 200})
	slow := element.DefaultVehicleParams()
	slow.InitialSpeed = 100

	pop := NewPopulation(nil, false)
	pop.Add(element.NewVehicle(1, nodes[0], nodes[2], rn, element.DefaultVehicleParams(), 0))
	pop.Add(element.NewVehicle(2, nodes[1], nodes[2], rn, slow, 0))
	nodes[2].Block()

	state := NewSystemState()
	state.Update(1.5, 5, pop, rn)

	assert.Equal(t, SystemSnapshot{
		Time:         1.5,
		Generated:    5,
		Active:       2,
		BlockedNodes: 1,
		AverageSpeed: 150,
	}, state.Snapshot())
	assert.Equal(t, 150.0, state.GetAverageSpeed())

	generated, active, completed, failed := state.GetVehicleCounts()
	assert.Equal(t, int64(5), generated)
	assert.Equal(t, int64(2), active)
	assert.Zero(t, completed)
	assert.Zero(t, failed)

	state.LogStatus("run-state")
}

func TestSystemStateEmptyPopulation(t *testing.T) {
	rn, _ := lineNetwork(utils.Vec2{0, 0}, utils.Vec2{0, 100})
	state := NewSystemState()
	state.Update(2, 0, NewPopulation(nil, true), rn)
	assert.Zero(t, state.GetAverageSpeed())
	assert.Equal(t, 2.0, state.Snapshot().Time)
}
