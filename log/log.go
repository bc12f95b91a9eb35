package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"trafsim/config"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Fields 结构化日志字段
type Fields = logrus.Fields

var (
	logger  = newLogger(os.Stdout)
	logFile *os.File
	mu      sync.Mutex
)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return l
}

// InitLog 初始化日志，同时输出到标准输出和指定文件
func InitLog(filename string) error {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return errors.Wrapf(err, "create log dir for %s", filename)
	}
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open log file %s", filename)
	}

	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	logger.SetOutput(io.MultiWriter(os.Stdout, f))
	return nil
}

// SetOutput 替换日志输出，测试中使用
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// SetLevel 设置日志级别，如"debug"、"info"、"warn"
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "parse log level %q", level)
	}
	logger.SetLevel(lvl)
	return nil
}

// WriteLog 写入一条普通日志
func WriteLog(msg string) {
	logger.Info(msg)
}

// Debug 写入调试日志
func Debug(msg string) {
	logger.Debug(msg)
}

// Warn 写入警告日志
func Warn(msg string) {
	logger.Warn(msg)
}

// WithFields 返回带字段的日志条目
func WithFields(fields Fields) *logrus.Entry {
	return logger.WithFields(fields)
}

// WithError 返回带错误信息的日志条目
func WithError(err error) *logrus.Entry {
	return logger.WithError(err)
}

// Writer 返回一个以Debug级别逐行写入日志的Writer，用完后需要关闭
func Writer() *io.PipeWriter {
	return logger.WriterLevel(logrus.DebugLevel)
}

// CloseLog 关闭日志文件
func CloseLog() {
	mu.Lock()
	defer mu.Unlock()

	logger.SetOutput(os.Stdout)
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// LogEnvironment 记录运行环境
func LogEnvironment() {
	logger.WithFields(Fields{
		"go":     runtime.Version(),
		"os":     runtime.GOOS,
		"arch":   runtime.GOARCH,
		"cpus":   runtime.NumCPU(),
		"procs":  runtime.GOMAXPROCS(0),
		"pid":    os.Getpid(),
		"launch": time.Now().Format(time.RFC3339),
	}).Info("environment")
}

// LogSimParameters 记录模拟参数
func LogSimParameters(cfg *config.Config) {
	logger.WithFields(Fields{
		"timeStep":     cfg.Simulation.TimeStep,
		"duration":     cfg.Simulation.Duration,
		"steps":        cfg.Simulation.Steps(),
		"seed":         cfg.Simulation.Seed,
		"spatialIndex": cfg.Simulation.SpatialIndex,
		"replicas":     cfg.Simulation.Replicas,
	}).Info("simulation parameters")

	logger.WithFields(Fields{
		"size":         fmt.Sprintf("%.0fx%.0f", cfg.Vehicle.Width, cfg.Vehicle.Length),
		"initialSpeed": cfg.Vehicle.InitialSpeed,
		"acceleration": cfg.Vehicle.Acceleration,
		"maxSpeed":     cfg.Vehicle.MaxSpeed,
		"maxActive":    cfg.Vehicle.MaxActive,
		"spawn":        cfg.Vehicle.SpawnInterval,
		"clearance":    cfg.Vehicle.AccidentClearance,
	}).Info("vehicle parameters")

	logger.WithFields(Fields{
		"graphType":  cfg.Graph.GraphType,
		"rows":       cfg.Graph.Rows,
		"cols":       cfg.Graph.Cols,
		"spacing":    cfg.Graph.Spacing,
		"laneOffset": cfg.Graph.LaneOffset,
		"segments":   cfg.Graph.LinkSegments,
		"pathMethod": cfg.Path.PathMethod,
	}).Info("road network parameters")

	for _, change := range cfg.TrafficLight.Changes {
		logger.WithFields(Fields{
			"at":         ConvertTimeStepToTime(change.Time),
			"multiplier": change.Multiplier,
		}).Info("scheduled traffic light change")
	}
}

// ConvertTimeStepToTime 将模拟秒数转换为 mm:ss.mmm 格式
func ConvertTimeStepToTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(seconds*1000 + 0.5)
	return fmt.Sprintf("%02d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}
