package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/repavi/lodges-backend/internal/models"
)

// CleaningTaskRepository 清洁任务仓储
type CleaningTaskRepository struct {
	db *gorm.DB
}

// NewCleaningTaskRepository 创建清洁任务仓储
func NewCleaningTaskRepository(db *gorm.DB) *CleaningTaskRepository {
	return &CleaningTaskRepository{db: db}
}

// GetOrCreate 同一房源同一天只保留一个清洁任务
func (r *CleaningTaskRepository) GetOrCreate(ctx context.Context, task *models.CleaningTask) (bool, error) {
	result := r.db.WithContext(ctx).
		Where(models.CleaningTask{PropertyID: task.PropertyID, ScheduledDate: task.ScheduledDate}).
		Attrs(models.CleaningTask{ReservationID: task.ReservationID, Status: models.CleaningStatusTodo}).
		FirstOrCreate(task)
	return result.RowsAffected > 0, result.Error
}

// ListByDate 获取某天的清洁任务，propertyIDs 为 nil 时不限房源
func (r *CleaningTaskRepository) ListByDate(ctx context.Context, date time.Time, propertyIDs []int64) ([]*models.CleaningTask, error) {
	var tasks []*models.CleaningTask
	query := r.db.WithContext(ctx).Where("scheduled_date = ?", date)
	if propertyIDs != nil {
		query = query.Where("property_id IN ?", propertyIDs)
	}
	err := query.Order("property_id ASC").Find(&tasks).Error
	return tasks, err
}
