package config

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// Config 保存所有配置项的顶级结构
type Config struct {
	Simulation   SimulationConfig   `json:"simulation"`
	Logging      LoggingConfig      `json:"logging"`
	Output       OutputConfig       `json:"output"`
	Vehicle      VehicleConfig      `json:"vehicle"`
	TrafficLight TrafficLightConfig `json:"trafficLight"`
	Graph        GraphConfig        `json:"graph"`
	Path         PathConfig         `json:"path"`
	Viz          VizConfig          `json:"viz"`
}

// SimulationConfig 保存模拟相关的配置项
type SimulationConfig struct {
	TimeStep float64 `json:"timeStep"` // 每步模拟时间（秒）
	Duration float64 `json:"duration"` // 总模拟时长（秒）
	Seed     uint64  `json:"seed"`

	// 是否使用R树加速车辆邻近查询，结果与逐一比较相同
	SpatialIndex bool `json:"spatialIndex"`

	// 并行运行的独立模拟副本数，每个副本使用seed+i
	Replicas int `json:"replicas"`
}

// Steps 返回总模拟步数
func (s SimulationConfig) Steps() int {
	return int(s.Duration/s.TimeStep + 0.5)
}

// LoggingConfig 保存日志记录相关的配置项
type LoggingConfig struct {
	Dir                    string `json:"dir"`
	Level                  string `json:"level"`
	IntervalWriteToLog     int    `json:"intervalWriteToLog"`
	IntervalWriteOtherData int    `json:"intervalWriteOtherData"`
}

// OutputConfig 数据文件输出位置
type OutputConfig struct {
	DataDir string `json:"dataDir"`
}

// VehicleConfig 保存车辆相关的配置项
type VehicleConfig struct {
	Width        float64 `json:"width"`
	Length       float64 `json:"length"`
	InitialSpeed float64 `json:"initialSpeed"`
	Acceleration float64 `json:"acceleration"`
	MaxSpeed     float64 `json:"maxSpeed"`

	// 同时在路上的最大车辆数
	MaxActive int `json:"maxActive"`
	// 生成车辆的时间间隔（秒）
	SpawnInterval float64 `json:"spawnInterval"`
	// 事故清除时间（秒），0表示事故路段永久封锁
	AccidentClearance float64 `json:"accidentClearance"`
}

// TrafficLightChange 表示信号灯周期变化的配置
type TrafficLightChange struct {
	Time       float64 `json:"time"`
	Multiplier float64 `json:"multiplier"`
}

// TrafficLightConfig 保存交通信号灯相关的配置项
type TrafficLightConfig struct {
	Interval   float64              `json:"interval"`   // 信号周期（秒）
	GreenRatio float64              `json:"greenRatio"` // 南北向绿灯占周期的比例
	Changes    []TrafficLightChange `json:"changes"`
}

// GraphConfig 保存路网相关的配置项
type GraphConfig struct {
	// 路网类型: "grid" - 网格路网, "corridor" - 直线走廊
	GraphType  string  `json:"graphType"`
	Rows       int     `json:"rows"`
	Cols       int     `json:"cols"`
	Spacing    float64 `json:"spacing"`
	LaneOffset float64 `json:"laneOffset"`

	// 网格路网中相邻路口之间每条车道划分的路段数
	LinkSegments int `json:"linkSegments"`
}

// PathConfig 管理车辆路径选择相关的配置
type PathConfig struct {
	// 路径选择方法: "astar" - A*搜索, "dijkstra" - Dijkstra搜索
	PathMethod string `json:"pathMethod"`
}

// VizConfig 状态推送服务
type VizConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

var (
	globalConfig *Config
	mu           sync.RWMutex
)

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	// 模拟参数
	if cfg.Simulation.TimeStep <= 0 {
		cfg.Simulation.TimeStep = 1.0 / 60
	}
	if cfg.Simulation.Duration <= 0 {
		cfg.Simulation.Duration = 120
	}
	if cfg.Simulation.Replicas <= 0 {
		cfg.Simulation.Replicas = 1
	}

	// 日志参数
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "./log"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.IntervalWriteToLog <= 0 {
		cfg.Logging.IntervalWriteToLog = 600
	}
	if cfg.Logging.IntervalWriteOtherData <= 0 {
		cfg.Logging.IntervalWriteOtherData = 60
	}
	if cfg.Output.DataDir == "" {
		cfg.Output.DataDir = "./data"
	}

	// 车辆参数
	if cfg.Vehicle.Width <= 0 {
		cfg.Vehicle.Width = 10
	}
	if cfg.Vehicle.Length <= 0 {
		cfg.Vehicle.Length = 20
	}
	if cfg.Vehicle.InitialSpeed <= 0 {
		cfg.Vehicle.InitialSpeed = 200
	}
	if cfg.Vehicle.Acceleration <= 0 {
		cfg.Vehicle.Acceleration = 200
	}
	if cfg.Vehicle.MaxSpeed <= 0 {
		cfg.Vehicle.MaxSpeed = 200
	}
	if cfg.Vehicle.MaxActive <= 0 {
		cfg.Vehicle.MaxActive = 40
	}
	if cfg.Vehicle.SpawnInterval <= 0 {
		cfg.Vehicle.SpawnInterval = 0.5
	}

	// 信号灯参数
	if cfg.TrafficLight.Interval <= 0 {
		cfg.TrafficLight.Interval = 8
	}
	if cfg.TrafficLight.GreenRatio <= 0 || cfg.TrafficLight.GreenRatio >= 1 {
		cfg.TrafficLight.GreenRatio = 0.5
	}

	// 路网参数
	if cfg.Graph.GraphType == "" {
		cfg.Graph.GraphType = "grid"
	}
	if cfg.Graph.Rows <= 0 {
		cfg.Graph.Rows = 4
	}
	if cfg.Graph.Cols <= 0 {
		cfg.Graph.Cols = 4
	}
	if cfg.Graph.Spacing <= 0 {
		cfg.Graph.Spacing = 200
	}
	if cfg.Graph.LaneOffset <= 0 {
		cfg.Graph.LaneOffset = 10
	}
	if cfg.Graph.LinkSegments <= 0 {
		cfg.Graph.LinkSegments = 3
	}

	if cfg.Path.PathMethod == "" {
		cfg.Path.PathMethod = "astar"
	}
	if cfg.Viz.Addr == "" {
		cfg.Viz.Addr = ":8080"
	}
}

// Validate 检查配置项之间的约束
func (cfg *Config) Validate() error {
	switch cfg.Graph.GraphType {
	case "grid", "corridor":
	default:
		return errors.Errorf("unknown graph type %q", cfg.Graph.GraphType)
	}
	if cfg.Graph.GraphType == "corridor" && cfg.Graph.Cols < 2 {
		return errors.New("corridor needs at least two stations (graph.cols)")
	}
	switch cfg.Path.PathMethod {
	case "astar", "dijkstra":
	default:
		return errors.Errorf("unknown path method %q", cfg.Path.PathMethod)
	}
	if cfg.Simulation.TimeStep > cfg.Simulation.Duration {
		return errors.Errorf("time step %.3f exceeds duration %.3f", cfg.Simulation.TimeStep, cfg.Simulation.Duration)
	}
	if cfg.Vehicle.InitialSpeed > cfg.Vehicle.MaxSpeed {
		return errors.Errorf("initial speed %.1f exceeds max speed %.1f", cfg.Vehicle.InitialSpeed, cfg.Vehicle.MaxSpeed)
	}
	if cfg.Vehicle.AccidentClearance < 0 {
		return errors.New("accident clearance must be non-negative")
	}
	// 车道偏移必须小于路口间距的一半，否则相邻路口的车道节点会重叠
	if cfg.Graph.LaneOffset*2 >= cfg.Graph.Spacing {
		return errors.Errorf("lane offset %.1f too large for spacing %.1f", cfg.Graph.LaneOffset, cfg.Graph.Spacing)
	}
	for i, change := range cfg.TrafficLight.Changes {
		if change.Multiplier <= 0 {
			return errors.Errorf("traffic light change %d: multiplier must be positive", i)
		}
		if change.Time < 0 {
			return errors.Errorf("traffic light change %d: time must be non-negative", i)
		}
	}
	return nil
}

// Parse 解码JSON配置并填充默认值
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// LoadConfig 从JSON文件加载配置并设为全局配置
func LoadConfig(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrapf(err, "read config %s", filename)
	}

	cfg, err := Parse(data)
	if err != nil {
		return errors.Wrapf(err, "load config %s", filename)
	}

	SetConfig(cfg)
	return nil
}

// SetConfig 替换全局配置
func SetConfig(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = cfg
}

// GetConfig 返回全局配置，未加载时返回默认配置
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if globalConfig == nil {
		return Default()
	}
	return globalConfig
}
