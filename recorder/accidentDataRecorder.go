package recorder

import (
	"fmt"
	"strconv"
	"strings"

	"trafsim/element"
)

var accidentHeader = []string{
	"Run ID", "Time", "Vehicle A", "Vehicle B", "X", "Y", "Blocked Nodes",
}

// RecordAccident 记录一次事故
func (r *Recorder) RecordAccident(acc *element.Accident) {
	row := []string{
		r.runID,
		fmt.Sprintf("%.3f", acc.Time),
		strconv.FormatInt(acc.Vehicles[0], 10),
		strconv.FormatInt(acc.Vehicles[1], 10),
		fmt.Sprintf("%.2f", acc.Position[0]),
		fmt.Sprintf("%.2f", acc.Position[1]),
		formatNodes(acc.Blocked),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.accidentCache = append(r.accidentCache, row)
}

// formatNodes 将节点列表格式化为字符串
func formatNodes(nodes []*element.Node) string {
	if len(nodes) == 0 {
		return "[]"
	}

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = strconv.FormatInt(n.ID(), 10)
	}
	return "[" + strings.Join(ids, ",") + "]"
}
