package simulator

import (
	"sync"

	"trafsim/element"
	"trafsim/log"

	"gonum.org/v1/gonum/stat"
)

// SystemState 缓存并管理系统状态信息
// 包括车辆数量、平均速度、事故数等关键指标
type SystemState struct {
	time            float64
	numGenerated    int64
	numActive       int64
	numInAccident   int64
	numCompleted    int64
	numFailed       int64
	numAccidents    int64
	numBlockedNodes int64
	averageSpeed    float64
	mu              sync.RWMutex // 保护并发访问
}

// SystemSnapshot 系统状态的一份拷贝
type SystemSnapshot struct {
	Time         float64 `json:"time"`
	Generated    int64   `json:"generated"`
	Active       int64   `json:"active"`
	InAccident   int64   `json:"inAccident"`
	Completed    int64   `json:"completed"`
	Failed       int64   `json:"failed"`
	Accidents    int64   `json:"accidents"`
	BlockedNodes int64   `json:"blockedNodes"`
	AverageSpeed float64 `json:"averageSpeed"`
}

// NewSystemState 创建一个新的系统状态对象
func NewSystemState() *SystemState {
	return &SystemState{}
}

// Update 从种群和路网中获取最新的车辆数量和速度信息
func (s *SystemState) Update(now float64, generated int64, pop *Population, rn *element.RoadNetwork) {
	speeds := pop.Speeds()
	avg := 0.0
	if len(speeds) > 0 {
		avg = stat.Mean(speeds, nil)
	}
	inAccident := pop.CountInAccident()
	blocked := rn.BlockedCount()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.time = now
	s.numGenerated = generated
	s.numActive = int64(pop.Len())
	s.numInAccident = int64(inAccident)
	s.numCompleted = pop.Completed()
	s.numFailed = pop.Failed()
	s.numAccidents = pop.Accidents()
	s.numBlockedNodes = int64(blocked)
	s.averageSpeed = avg
}

// Snapshot 返回当前系统状态的拷贝
func (s *SystemState) Snapshot() SystemSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SystemSnapshot{
		Time:         s.time,
		Generated:    s.numGenerated,
		Active:       s.numActive,
		InAccident:   s.numInAccident,
		Completed:    s.numCompleted,
		Failed:       s.numFailed,
		Accidents:    s.numAccidents,
		BlockedNodes: s.numBlockedNodes,
		AverageSpeed: s.averageSpeed,
	}
}

// LogStatus 输出系统状态日志
func (s *SystemState) LogStatus(runID string) {
	snap := s.Snapshot()
	log.WithFields(log.Fields{
		"run":        runID,
		"time":       log.ConvertTimeStepToTime(snap.Time),
		"avgSpeed":   snap.AverageSpeed,
		"generated":  snap.Generated,
		"active":     snap.Active,
		"inAccident": snap.InAccident,
		"completed":  snap.Completed,
		"failed":     snap.Failed,
		"accidents":  snap.Accidents,
		"blocked":    snap.BlockedNodes,
	}).Info("system status")
}

// GetAverageSpeed 返回当前系统的平均车速
func (s *SystemState) GetAverageSpeed() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.averageSpeed
}

// GetVehicleCounts 返回各类车辆计数
// 返回值依次为: 生成的车辆总数、路上车辆数、已到达车辆数、未到达即结束的车辆数
func (s *SystemState) GetVehicleCounts() (int64, int64, int64, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.numGenerated, s.numActive, s.numCompleted, s.numFailed
}
