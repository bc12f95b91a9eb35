package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// Recorder 缓存模拟数据并按批写入CSV文件
// 每次模拟运行使用一个Recorder，文件名以运行ID为前缀
type Recorder struct {
	runID string

	systemFile   string
	vehicleFile  string
	accidentFile string

	mu            sync.Mutex
	systemCache   [][]string
	vehicleCache  [][]string
	accidentCache [][]string
	tripIndex     int64 // 递增的唯一行程索引
}

// New 在dir下创建三个CSV文件并写入表头
func New(dir, runID string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create data dir %s", dir)
	}

	r := &Recorder{
		runID:        runID,
		systemFile:   filepath.Join(dir, fmt.Sprintf("%s_SystemData.csv", runID)),
		vehicleFile:  filepath.Join(dir, fmt.Sprintf("%s_VehicleData.csv", runID)),
		accidentFile: filepath.Join(dir, fmt.Sprintf("%s_AccidentData.csv", runID)),
	}

	for file, header := range map[string][]string{
		r.systemFile:   systemHeader,
		r.vehicleFile:  vehicleHeader,
		r.accidentFile: accidentHeader,
	} {
		if err := initializeCSV(file, header); err != nil {
			return nil, errors.Wrapf(err, "init %s", file)
		}
	}
	return r, nil
}

// RunID 返回运行ID
func (r *Recorder) RunID() string {
	return r.runID
}

// Files 返回数据文件路径：系统数据、行程数据、事故数据
func (r *Recorder) Files() (string, string, string) {
	return r.systemFile, r.vehicleFile, r.accidentFile
}

// Flush 将所有缓存写入文件并清空缓存
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, batch := range []struct {
		file  string
		cache *[][]string
	}{
		{r.systemFile, &r.systemCache},
		{r.vehicleFile, &r.vehicleCache},
		{r.accidentFile, &r.accidentCache},
	} {
		if len(*batch.cache) == 0 {
			continue
		}
		if err := appendToCSV(batch.file, *batch.cache); err != nil {
			return errors.Wrapf(err, "flush %s", batch.file)
		}
		*batch.cache = (*batch.cache)[:0]
	}
	return nil
}

// Pending 返回尚未写入文件的行数
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.systemCache) + len(r.vehicleCache) + len(r.accidentCache)
}
