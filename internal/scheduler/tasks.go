package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/repavi/lodges-backend/internal/common/config"
)

// ReservationJobs 预订相关的批处理
type ReservationJobs interface {
	SyncOccupancy(ctx context.Context) (int, error)
	CompleteFinishedStays(ctx context.Context) (int, error)
}

// TaskHandler 任务处理器
type TaskHandler struct {
	jobs ReservationJobs
	log  *zap.Logger
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(jobs ReservationJobs, log *zap.Logger) *TaskHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskHandler{jobs: jobs, log: log.Named("task")}
}

// SyncOccupancy 重算全部房源房态
func (h *TaskHandler) SyncOccupancy(ctx context.Context) error {
	changed, err := h.jobs.SyncOccupancy(ctx)
	if err != nil {
		return err
	}
	if changed > 0 {
		h.log.Info("occupancy drift repaired", zap.Int("properties", changed))
	}
	return nil
}

// CompleteFinishedStays 完成离店日期已过的预订
func (h *TaskHandler) CompleteFinishedStays(ctx context.Context) error {
	_, err := h.jobs.CompleteFinishedStays(ctx)
	return err
}

// SetupTasks 按配置注册所有任务（间隔单位：分钟）
func SetupTasks(scheduler *Scheduler, handler *TaskHandler, cfg config.SchedulerConfig) {
	scheduler.AddTask("SyncOccupancy", time.Duration(cfg.OccupancySyncInterval)*time.Minute, handler.SyncOccupancy)
	scheduler.AddTask("CompleteFinishedStays", time.Duration(cfg.AutoCompleteInterval)*time.Minute, handler.CompleteFinishedStays)
}
