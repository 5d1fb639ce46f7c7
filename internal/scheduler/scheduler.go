// Package scheduler 提供定时任务调度
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// defaultTaskTimeout 单次任务执行超时
const defaultTaskTimeout = 5 * time.Minute

// Scheduler 定时任务调度器
type Scheduler struct {
	tasks   []*Task
	log     *zap.Logger
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Task 定时任务
type Task struct {
	Name     string
	Interval time.Duration
	Handler  func(ctx context.Context) error
}

// NewScheduler 创建调度器
func NewScheduler(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tasks:   make([]*Task, 0),
		log:     log,
		timeout: defaultTaskTimeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddTask 添加任务，间隔不大于0的任务不会被调度
func (s *Scheduler) AddTask(name string, interval time.Duration, handler func(ctx context.Context) error) {
	if interval <= 0 {
		s.log.Warn("task skipped, interval not set", zap.String("task", name))
		return
	}
	s.tasks = append(s.tasks, &Task{
		Name:     name,
		Interval: interval,
		Handler:  handler,
	})
}

// Tasks 已注册的任务
func (s *Scheduler) Tasks() []*Task {
	return s.tasks
}

// Start 启动调度器
func (s *Scheduler) Start() {
	s.log.Info("starting", zap.Int("tasks", len(s.tasks)))

	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runTask(task)
	}
}

// Stop 停止调度器并等待运行中的任务结束
func (s *Scheduler) Stop() {
	s.log.Info("stopping")
	s.cancel()
	s.wg.Wait()
	s.log.Info("stopped")
}

// runTask 运行单个任务
func (s *Scheduler) runTask(task *Task) {
	defer s.wg.Done()

	s.log.Info("task started", zap.String("task", task.Name), zap.Duration("interval", task.Interval))

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	// 立即执行一次
	s.executeTask(task)

	for {
		select {
		case <-s.ctx.Done():
			s.log.Info("task stopped", zap.String("task", task.Name))
			return
		case <-ticker.C:
			s.executeTask(task)
		}
	}
}

// executeTask 执行任务
func (s *Scheduler) executeTask(task *Task) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := task.Handler(ctx); err != nil {
		s.log.Error("task failed", zap.String("task", task.Name), zap.Error(err))
		return
	}
	s.log.Debug("task completed", zap.String("task", task.Name), zap.Duration("elapsed", time.Since(start)))
}
