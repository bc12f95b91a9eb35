package simulator

import (
	"context"
	"fmt"
	"sort"

	"trafsim/config"
	"trafsim/element"
	"trafsim/log"
	"trafsim/recorder"
	"trafsim/utils"

	"github.com/pkg/errors"
)

// Publisher 接收每一帧的模拟状态，用于外部展示
// Publish 不能阻塞模拟
type Publisher interface {
	Publish(frame Frame)
}

// Summary 一次模拟运行的结果
type Summary struct {
	RunID       string  `json:"runId"`
	Seed        uint64  `json:"seed"`
	Steps       int     `json:"steps"`
	SimTime     float64 `json:"simTime"`
	Generated   int64   `json:"generated"`
	Completed   int64   `json:"completed"`
	Failed      int64   `json:"failed"`
	Accidents   int64   `json:"accidents"`
	Active      int     `json:"active"`
	Interrupted bool    `json:"interrupted"`
}

// Simulator 组合路网、车辆种群、车辆生成器和数据记录
type Simulator struct {
	cfg   *config.Config
	runID string
	seed  uint64

	network    *element.RoadNetwork
	population *Population
	spawner    *Spawner
	state      *SystemState

	recorder  *recorder.Recorder
	publisher Publisher

	changes []config.TrafficLightChange // 按时间排序
	applied int                         // 已生效的周期变化数

	step int
	now  float64
}

// Option 配置Simulator的可选项
type Option func(*Simulator)

// WithRecorder 将模拟数据写入CSV
func WithRecorder(r *recorder.Recorder) Option {
	return func(s *Simulator) { s.recorder = r }
}

// WithPublisher 每一帧推送模拟状态
func WithPublisher(p Publisher) Option {
	return func(s *Simulator) { s.publisher = p }
}

// WithSeed 覆盖配置中的随机种子
func WithSeed(seed uint64) Option {
	return func(s *Simulator) { s.seed = seed }
}

// WithNetwork 使用给定的路网代替按配置生成的路网
func WithNetwork(rn *element.RoadNetwork) Option {
	return func(s *Simulator) { s.network = rn }
}

// BuildNetwork 根据配置创建路网
func BuildNetwork(cfg *config.Config) (*element.RoadNetwork, error) {
	finder := utils.GetPathFinder(cfg.Path.PathMethod)
	g := cfg.Graph

	switch g.GraphType {
	case "grid":
		light := LightParams{
			Interval:   cfg.TrafficLight.Interval,
			GreenRatio: cfg.TrafficLight.GreenRatio,
			Depth:      cfg.Vehicle.Width,
		}
		return CreateGridGraph(g.Rows, g.Cols, g.Spacing, g.LaneOffset, g.LinkSegments, light, finder), nil
	case "corridor":
		return CreateCorridorGraph(g.Cols, g.Spacing, g.LaneOffset, finder), nil
	default:
		return nil, errors.Errorf("unknown graph type %q", g.GraphType)
	}
}

// VehicleParams 从配置中读取车辆参数
func VehicleParams(cfg *config.Config) element.VehicleParams {
	return element.VehicleParams{
		Size:              element.Size{Width: cfg.Vehicle.Width, Length: cfg.Vehicle.Length},
		InitialSpeed:      cfg.Vehicle.InitialSpeed,
		Acceleration:      cfg.Vehicle.Acceleration,
		MaxSpeed:          cfg.Vehicle.MaxSpeed,
		AccidentClearance: cfg.Vehicle.AccidentClearance,
	}
}

// New 创建一次模拟运行
func New(cfg *config.Config, runID string, opts ...Option) (*Simulator, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	s := &Simulator{
		cfg:   cfg,
		runID: runID,
		seed:  cfg.Simulation.Seed,
		state: NewSystemState(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.network == nil {
		rn, err := BuildNetwork(cfg)
		if err != nil {
			return nil, err
		}
		s.network = rn
	}

	connected, components := IsStronglyConnected(s.network)
	log.WithFields(log.Fields{
		"run":        runID,
		"nodes":      s.network.Len(),
		"links":      len(s.network.Links()),
		"lights":     len(s.network.LightNetworks()),
		"connected":  connected,
		"components": components,
	}).Info("road network ready")

	points := SpawnPoints(s.network)
	if len(points) < 2 {
		return nil, errors.Errorf("road network has %d spawn points, need at least 2", len(points))
	}

	s.population = NewPopulation(s.network.LightNetworks(), cfg.Simulation.SpatialIndex)
	s.spawner = NewSpawner(s.seed, s.network, points, VehicleParams(cfg),
		cfg.Vehicle.SpawnInterval, cfg.Vehicle.MaxActive)

	s.changes = append([]config.TrafficLightChange(nil), cfg.TrafficLight.Changes...)
	sort.SliceStable(s.changes, func(i, j int) bool { return s.changes[i].Time < s.changes[j].Time })

	return s, nil
}

// RunID 返回运行ID
func (s *Simulator) RunID() string {
	return s.runID
}

// Network 返回路网
func (s *Simulator) Network() *element.RoadNetwork {
	return s.network
}

// Population 返回车辆种群
func (s *Simulator) Population() *Population {
	return s.population
}

// State 返回系统状态
func (s *Simulator) State() *SystemState {
	return s.state
}

// Run 运行模拟直到设定时长结束或ctx被取消
func (s *Simulator) Run(ctx context.Context) (Summary, error) {
	steps := s.cfg.Simulation.Steps()
	log.WithFields(log.Fields{"run": s.runID, "seed": s.seed, "steps": steps}).Info("simulation start")

	for s.step < steps {
		select {
		case <-ctx.Done():
			summary := s.summary()
			summary.Interrupted = true
			if err := s.finish(); err != nil {
				return summary, err
			}
			log.WithFields(log.Fields{"run": s.runID, "step": s.step}).Warn("simulation interrupted")
			return summary, ctx.Err()
		default:
		}

		if err := s.Step(); err != nil {
			return s.summary(), err
		}
	}

	if err := s.finish(); err != nil {
		return s.summary(), err
	}
	summary := s.summary()
	blockedLinks, busiest, busiestPasses := s.linkStats()
	log.WithFields(log.Fields{
		"run":           s.runID,
		"generated":     summary.Generated,
		"completed":     summary.Completed,
		"failed":        summary.Failed,
		"accidents":     summary.Accidents,
		"blockedLinks":  blockedLinks,
		"busiestLink":   busiest,
		"busiestPasses": busiestPasses,
	}).Info("simulation completed")
	return summary, nil
}

// Step 推进一个时间步
func (s *Simulator) Step() error {
	dt := s.cfg.Simulation.TimeStep
	s.step++
	// 用步数计算时间，避免累加误差
	s.now = float64(s.step) * dt

	s.applyLightChanges()
	s.spawner.Spawn(s.now, s.population)
	report := s.population.Step(s.now, dt)

	for _, acc := range report.Accidents {
		log.WithFields(log.Fields{
			"run":      s.runID,
			"time":     log.ConvertTimeStepToTime(acc.Time),
			"vehicles": fmt.Sprintf("%d,%d", acc.Vehicles[0], acc.Vehicles[1]),
			"blocked":  len(acc.Blocked),
		}).Warn("accident")
		if s.recorder != nil {
			s.recorder.RecordAccident(acc)
		}
	}
	if s.recorder != nil {
		for _, v := range report.Finished {
			s.recorder.RecordVehicleData(v)
		}
	}

	s.state.Update(s.now, s.spawner.Generated(), s.population, s.network)

	if s.step%s.cfg.Logging.IntervalWriteOtherData == 0 {
		s.recordSystemData()
		if err := s.flush(); err != nil {
			return err
		}
	}
	if s.step%s.cfg.Logging.IntervalWriteToLog == 0 {
		s.state.LogStatus(s.runID)
	}
	if s.publisher != nil {
		s.publisher.Publish(s.Snapshot())
	}
	return nil
}

// applyLightChanges 到达设定时间时按倍数调整所有信号灯周期
func (s *Simulator) applyLightChanges() {
	for s.applied < len(s.changes) && s.changes[s.applied].Time <= s.now {
		change := s.changes[s.applied]
		for _, ln := range s.network.LightNetworks() {
			ln.ChangeInterval(change.Multiplier)
		}
		log.WithFields(log.Fields{
			"run":        s.runID,
			"time":       log.ConvertTimeStepToTime(s.now),
			"multiplier": change.Multiplier,
		}).Info("traffic light interval changed")
		s.applied++
	}
}
