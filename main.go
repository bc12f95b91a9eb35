package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"trafsim/config"
	"trafsim/element"
	"trafsim/log"
	"trafsim/recorder"
	"trafsim/simulator"
	"trafsim/vizserver"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli"
)

func main() {
	app := makeApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var configFlag = cli.StringFlag{Name: "config, c", Value: "config/config.json", Usage: "Path of the JSON config file"}

func makeApp() *cli.App {
	app := cli.NewApp()
	app.Name = "trafsim"
	app.Usage = "Autonomous vehicle traffic simulation on a road network"

	app.Commands = []cli.Command{
		{
			Name:    "run",
			Aliases: []string{"r"},
			Usage:   "Run the simulation",
			Flags: []cli.Flag{
				configFlag,
				cli.Uint64Flag{Name: "seed", Usage: "Override the random seed"},
				cli.IntFlag{Name: "replicas", Usage: "Override the number of independent replicas"},
				cli.Float64Flag{Name: "duration", Usage: "Override the simulated duration in seconds"},
				cli.BoolFlag{Name: "viz", Usage: "Serve the simulation state over HTTP and websocket"},
				cli.StringFlag{Name: "addr", Usage: "Listen address of the state server"},
				cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
			},
			Action: runAction,
		},
		{
			Name:   "graph",
			Usage:  "Build the configured road network and print its statistics",
			Flags:  []cli.Flag{configFlag},
			Action: graphAction,
		},
	}
	return app
}

// loadConfig 加载配置文件并应用命令行覆盖项
func loadConfig(c *cli.Context) (*config.Config, error) {
	if err := config.LoadConfig(c.String("config")); err != nil {
		return nil, err
	}
	cfg := config.GetConfig()

	if c.IsSet("seed") {
		cfg.Simulation.Seed = c.Uint64("seed")
	}
	if c.IsSet("replicas") {
		cfg.Simulation.Replicas = c.Int("replicas")
	}
	if c.IsSet("duration") {
		cfg.Simulation.Duration = c.Float64("duration")
	}
	if c.Bool("viz") {
		cfg.Viz.Enabled = true
	}
	if c.IsSet("addr") {
		cfg.Viz.Addr = c.String("addr")
	}
	if c.Bool("debug") {
		cfg.Logging.Level = "debug"
	}

	if cfg.Simulation.Replicas <= 0 {
		return nil, errors.Errorf("replicas must be positive, got %d", cfg.Simulation.Replicas)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid command line overrides")
	}
	return cfg, nil
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	// 生成唯一的初始化时间标识
	initTime := time.Now().Format("20060102150405")
	if err := log.InitLog(filepath.Join(cfg.Logging.Dir, initTime+".log")); err != nil {
		return err
	}
	defer log.CloseLog()
	if err := log.SetLevel(cfg.Logging.Level); err != nil {
		return err
	}
	log.LogEnvironment()
	log.LogSimParameters(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WriteLog("----------------------------------Simulation Start----------------------------------")
	if cfg.Simulation.Replicas == 1 {
		err = runSingle(ctx, cfg)
	} else {
		err = runReplicas(ctx, cfg)
	}
	if errors.Is(err, context.Canceled) {
		log.Warn("simulation stopped by signal")
		return nil
	}
	if err != nil {
		log.WithError(err).Error("simulation failed")
		return err
	}
	log.WriteLog("---------------------------------- Completed ----------------------------------")
	return nil
}

// runSingle 运行一次模拟，可选地提供状态推送服务
func runSingle(ctx context.Context, cfg *config.Config) error {
	runID := uuid.NewString()
	rec, err := recorder.New(cfg.Output.DataDir, runID)
	if err != nil {
		return err
	}
	opts := []simulator.Option{simulator.WithRecorder(rec)}

	if cfg.Viz.Enabled {
		hub := vizserver.NewHub()
		srv := vizserver.NewServer(cfg.Viz.Addr, hub)
		vizCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := srv.ListenAndServe(vizCtx); err != nil {
				log.WithError(err).Warn("viz server stopped")
			}
		}()
		defer func() {
			cancel()
			<-done
		}()
		opts = append(opts, simulator.WithPublisher(hub))
	}

	sim, err := simulator.New(cfg, runID, opts...)
	if err != nil {
		return err
	}
	summary, err := sim.Run(ctx)
	logSummary(summary)
	return err
}

// runReplicas 并行运行多个副本，每个副本写入各自的数据文件
func runReplicas(ctx context.Context, cfg *config.Config) error {
	if cfg.Viz.Enabled {
		log.Warn("state server is only available for a single run, ignoring viz")
	}

	summaries, err := simulator.RunReplicas(ctx, cfg, cfg.Simulation.Replicas,
		func(i int, runID string) ([]simulator.Option, error) {
			rec, err := recorder.New(cfg.Output.DataDir, runID)
			if err != nil {
				return nil, err
			}
			return []simulator.Option{simulator.WithRecorder(rec)}, nil
		})

	finished := lo.Filter(summaries, func(s simulator.Summary, _ int) bool { return s.RunID != "" })
	for _, s := range finished {
		logSummary(s)
	}
	log.WithFields(log.Fields{
		"replicas":  len(finished),
		"generated": lo.SumBy(finished, func(s simulator.Summary) int64 { return s.Generated }),
		"completed": lo.SumBy(finished, func(s simulator.Summary) int64 { return s.Completed }),
		"failed":    lo.SumBy(finished, func(s simulator.Summary) int64 { return s.Failed }),
		"accidents": lo.SumBy(finished, func(s simulator.Summary) int64 { return s.Accidents }),
	}).Info("replicas completed")
	return err
}

func logSummary(s simulator.Summary) {
	log.WithFields(log.Fields{
		"run":         s.RunID,
		"seed":        s.Seed,
		"steps":       s.Steps,
		"time":        log.ConvertTimeStepToTime(s.SimTime),
		"generated":   s.Generated,
		"completed":   s.Completed,
		"failed":      s.Failed,
		"accidents":   s.Accidents,
		"active":      s.Active,
		"interrupted": s.Interrupted,
	}).Info("run summary")
}

func graphAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	rn, err := simulator.BuildNetwork(cfg)
	if err != nil {
		return err
	}

	connected, components := simulator.IsStronglyConnected(rn)
	lights := lo.SumBy(rn.LightNetworks(), func(ln *element.LightNetwork) int { return len(ln.Lights()) })
	fmt.Printf("type:         %s\n", cfg.Graph.GraphType)
	fmt.Printf("nodes:        %d\n", rn.Len())
	fmt.Printf("links:        %d\n", len(rn.Links()))
	fmt.Printf("spawn points: %d\n", len(simulator.SpawnPoints(rn)))
	fmt.Printf("lights:       %d in %d intersections\n", lights, len(rn.LightNetworks()))
	fmt.Printf("connected:    %v (%d components)\n", connected, components)
	return nil
}
