package recorder

import (
	"fmt"
	"strconv"
)

var systemHeader = []string{
	"Time", "Generated", "Active", "In Accident", "Completed", "Failed", "Accidents", "Blocked Nodes", "Average Speed",
}

// RecordSystemData 记录一次系统状态
func (r *Recorder) RecordSystemData(time float64, generated, active, inAccident, completed, failed, accidents, blocked int64, averageSpeed float64) {
	row := []string{
		fmt.Sprintf("%.3f", time),
		strconv.FormatInt(generated, 10),
		strconv.FormatInt(active, 10),
		strconv.FormatInt(inAccident, 10),
		strconv.FormatInt(completed, 10),
		strconv.FormatInt(failed, 10),
		strconv.FormatInt(accidents, 10),
		strconv.FormatInt(blocked, 10),
		fmt.Sprintf("%.4f", averageSpeed),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.systemCache = append(r.systemCache, row)
}
