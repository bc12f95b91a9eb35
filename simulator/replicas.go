package simulator

import (
	"context"
	"runtime"

	"trafsim/config"
	"trafsim/utils"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ReplicaOptions 为第i个副本提供附加选项，例如各自的记录器
type ReplicaOptions func(i int, runID string) ([]Option, error)

// RunReplicas 在工作池中并行运行n个互不共享状态的模拟副本
// 第i个副本使用种子seed+i和独立生成的路网
func RunReplicas(ctx context.Context, cfg *config.Config, n int, extra ReplicaOptions) ([]Summary, error) {
	if n <= 0 {
		return nil, errors.Errorf("replica count must be positive, got %d", n)
	}

	workers := min(n, runtime.GOMAXPROCS(0))
	pool := utils.NewWorkerPool(ctx, workers)

	summaries := make([]Summary, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		i := i // go 1.21: loop variable is shared across iterations
		runID := uuid.NewString()
		submitted := pool.Submit(func(ctx context.Context) {
			summaries[i], errs[i] = runReplica(ctx, cfg, i, runID, extra)
		})
		if !submitted {
			err := ctx.Err()
			if err == nil {
				err = errors.New("worker pool closed")
			}
			errs[i] = errors.Wrap(err, "not started")
		}
	}
	pool.Wait()

	for i, err := range errs {
		if err != nil {
			return summaries, errors.Wrapf(err, "replica %d", i)
		}
	}
	return summaries, nil
}

func runReplica(ctx context.Context, cfg *config.Config, i int, runID string, extra ReplicaOptions) (Summary, error) {
	opts := []Option{WithSeed(cfg.Simulation.Seed + uint64(i))}
	if extra != nil {
		more, err := extra(i, runID)
		if err != nil {
			return Summary{RunID: runID}, err
		}
		opts = append(opts, more...)
	}

	sim, err := New(cfg, runID, opts...)
	if err != nil {
		return Summary{RunID: runID}, err
	}
	return sim.Run(ctx)
}
