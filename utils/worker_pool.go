package utils

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// Job 工作池中执行的任务，ctx在工作池停止时被取消
type Job func(ctx context.Context)

// WorkerPool 表示一个工作池
type WorkerPool struct {
	jobs    chan Job
	wg      sync.WaitGroup
	workers int
	closed  atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewWorkerPool 创建一个新的工作池，parent取消时工作池随之停止
func NewWorkerPool(parent context.Context, workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	ctx, cancel := context.WithCancel(parent)
	pool := &WorkerPool{
		jobs:    make(chan Job, workers*2), // 缓冲区大小为工作者数量的2倍
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
	}
	pool.start()
	return pool
}

// Workers 返回工作协程数量
func (p *WorkerPool) Workers() int {
	return p.workers
}

func (p *WorkerPool) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-p.ctx.Done():
					return
				case job, ok := <-p.jobs:
					if !ok {
						return
					}
					job(p.ctx)
				}
			}
		}()
	}
}

// Submit 提交一个任务到工作池
// 如果工作池已关闭，返回false，否则返回true
// 不能与Wait/Stop并发调用
func (p *WorkerPool) Submit(job Job) bool {
	if p.closed.Load() {
		return false
	}

	select {
	case p.jobs <- job:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// Wait 停止接收新任务，并等待已提交的任务全部执行完毕
func (p *WorkerPool) Wait() {
	if p.closed.Swap(true) {
		p.wg.Wait()
		return
	}
	close(p.jobs)
	p.wg.Wait()
	p.cancel()
}

// Stop 停止工作池
// 取消上下文，未开始的任务被丢弃，等待正在执行的任务返回
func (p *WorkerPool) Stop() {
	// 如果已经关闭，直接返回
	if p.closed.Swap(true) {
		p.cancel()
		p.wg.Wait()
		return
	}

	p.cancel()
	close(p.jobs)
	p.wg.Wait()
}
