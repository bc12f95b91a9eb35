package recorder

import (
	"fmt"
	"strconv"

	"trafsim/element"
)

var vehicleHeader = []string{
	"Run ID", "Trip ID", "Vehicle ID", "Origin", "Destination", "Spawn Time", "Finish Time", "Reached", "Accidents", "Nodes Passed",
}

// RecordVehicleData 记录一辆结束行程的车辆
func (r *Recorder) RecordVehicleData(vehicle *element.Vehicle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tripIndex++
	r.vehicleCache = append(r.vehicleCache, r.getVehicleData(r.tripIndex, vehicle))
}

func (r *Recorder) getVehicleData(idx int64, vehicle *element.Vehicle) []string {
	index, originID, destinationID, spawnTime, finishTime, reached, accidents, passed := vehicle.Report()

	return []string{
		r.runID,
		strconv.FormatInt(idx, 10),           // 行程索引
		strconv.FormatInt(index, 10),         // 车辆 ID
		strconv.FormatInt(originID, 10),      // 起点 ID
		strconv.FormatInt(destinationID, 10), // 终点 ID
		fmt.Sprintf("%.3f", spawnTime),       // 出发时间
		fmt.Sprintf("%.3f", finishTime),      // 结束时间
		strconv.FormatBool(reached),          // 是否到达终点
		strconv.Itoa(accidents),              // 事故次数
		strconv.Itoa(passed),                 // 经过的节点数
	}
}
