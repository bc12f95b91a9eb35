package recorder

import (
	"encoding/csv"
	"os"
	"testing"

	"trafsim/element"
	"trafsim/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, filename string) [][]string {
	t.Helper()
	f, err := os.Open(filename)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRecorderWritesHeaders(t *testing.T) {
	r, err := New(t.TempDir(), "run-1")
	require.NoError(t, err)

	system, vehicle, accident := r.Files()
	assert.Equal(t, [][]string{systemHeader}, readAll(t, system))
	assert.Equal(t, [][]string{vehicleHeader}, readAll(t, vehicle))
	assert.Equal(t, [][]string{accidentHeader}, readAll(t, accident))
	assert.Equal(t, "run-1", r.RunID())
}

func TestRecorderFlush(t *testing.T) {
	r, err := New(t.TempDir(), "run-2")
	require.NoError(t, err)

	rn := element.NewRoadNetwork(nil)
	a := element.NewNode(1, utils.Vec2{0, 0})
	b := element.NewNode(2, utils.Vec2{100, 0})
	rn.AddNode(a)
	rn.AddNode(b)
	rn.Connect(a, b)
	v := element.NewVehicle(7, a, b, rn, element.DefaultVehicleParams(), 1.5)

	r.RecordSystemData(2.5, 3, 2, 0, 1, 0, 1, 2, 150)
	r.RecordVehicleData(v)
	r.RecordAccident(&element.Accident{Time: 2, Vehicles: [2]int64{7, 8}, Position: utils.Vec2{10, 20}, Blocked: []*element.Node{a, b}})
	assert.Equal(t, 3, r.Pending())

	require.NoError(t, r.Flush())
	assert.Zero(t, r.Pending())
	require.NoError(t, r.Flush(), "空缓存不写入")

	system, vehicle, accident := r.Files()

	rows := readAll(t, system)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2.500", "3", "2", "0", "1", "0", "1", "2", "150.0000"}, rows[1])

	rows = readAll(t, vehicle)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"run-2", "1", "7", "1", "2", "1.500", "0.000", "false", "0", "0"}, rows[1])

	rows = readAll(t, accident)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"run-2", "2.000", "7", "8", "10.00", "20.00", "[1,2]"}, rows[1])
}

func TestRecorderFailsOnMissingDir(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir, "run-3")
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	r.RecordSystemData(0, 0, 0, 0, 0, 0, 0, 0, 0)
	assert.Error(t, r.Flush())
}
