package simulator

import (
	"time"

	"trafsim/log"

	"github.com/pkg/errors"
)

// recordSystemData 将当前系统状态放入记录缓存
func (s *Simulator) recordSystemData() {
	if s.recorder == nil {
		return
	}
	snap := s.state.Snapshot()
	s.recorder.RecordSystemData(snap.Time, snap.Generated, snap.Active, snap.InAccident,
		snap.Completed, snap.Failed, snap.Accidents, snap.BlockedNodes, snap.AverageSpeed)
}

// flush 同步写入缓存的系统、行程和事故数据
func (s *Simulator) flush() error {
	if s.recorder == nil {
		return nil
	}
	return errors.Wrapf(s.recorder.Flush(), "run %s", s.runID)
}

// finish 完成模拟，记录最后的系统状态并写入所有数据
func (s *Simulator) finish() error {
	if s.recorder == nil {
		return nil
	}

	startTime := time.Now()
	// 最后一步不在记录间隔上时补记一次
	if s.step%s.cfg.Logging.IntervalWriteOtherData != 0 {
		s.recordSystemData()
	}
	if err := s.flush(); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"run":     s.runID,
		"elapsed": time.Since(startTime).String(),
	}).Debug("final data write completed")
	return nil
}

// linkStats 统计被事故封锁的链路数以及通过车辆最多的链路
func (s *Simulator) linkStats() (blockedLinks int, busiest int64, busiestPasses int64) {
	for _, l := range s.network.Links() {
		id, _, _, blocked, passes := l.Report()
		if blocked > 0 {
			blockedLinks++
		}
		if passes > busiestPasses {
			busiest, busiestPasses = id, passes
		}
	}
	return blockedLinks, busiest, busiestPasses
}

func (s *Simulator) summary() Summary {
	return Summary{
		RunID:     s.runID,
		Seed:      s.seed,
		Steps:     s.step,
		SimTime:   s.now,
		Generated: s.spawner.Generated(),
		Completed: s.population.Completed(),
		Failed:    s.population.Failed(),
		Accidents: s.population.Accidents(),
		Active:    s.population.Len(),
	}
}
