// Package audit 在业务事务内写入操作审计日志
package audit

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/repavi/lodges-backend/internal/common/authz"
	"github.com/repavi/lodges-backend/internal/models"
	"github.com/repavi/lodges-backend/internal/repository"
)

// Entry 审计条目
type Entry struct {
	Module     string
	Action     string
	TargetType string
	TargetID   int64
	Detail     map[string]interface{}
}

// Record 写入审计日志，tx 为当前业务事务，日志随事务一起提交或回滚
func Record(ctx context.Context, tx *gorm.DB, actor authz.Actor, entry Entry) error {
	log := &models.OperationLog{
		ActorID:    actor.UserID,
		ActorRole:  string(actor.Role),
		Module:     entry.Module,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
	}
	if len(entry.Detail) > 0 {
		data, err := json.Marshal(entry.Detail)
		if err != nil {
			return err
		}
		log.Detail = datatypes.JSON(data)
	}
	return repository.NewOperationLogRepository(tx).Create(ctx, log)
}
