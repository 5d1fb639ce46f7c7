// Package evaluation 提供入住评价、审核与管理员回复
package evaluation

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/repavi/lodges-backend/internal/common/authz"
	"github.com/repavi/lodges-backend/internal/common/cache"
	"github.com/repavi/lodges-backend/internal/common/errors"
	"github.com/repavi/lodges-backend/internal/common/logger"
	"github.com/repavi/lodges-backend/internal/common/utils"
	"github.com/repavi/lodges-backend/internal/models"
	"github.com/repavi/lodges-backend/internal/repository"
	"github.com/repavi/lodges-backend/internal/service/audit"
)

const ratingCacheTTL = 10 * time.Minute

// Service 评价服务
type Service struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

// NewService 创建评价服务
func NewService(db *gorm.DB, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, log: log.Named("evaluation"), now: time.Now}
}

// CreateRequest 提交评价请求
type CreateRequest struct {
	OverallRating     int     `json:"overall_rating" binding:"required"`
	CleanlinessRating int     `json:"cleanliness_rating" binding:"required"`
	EquipmentRating   int     `json:"equipment_rating" binding:"required"`
	LocationRating    int     `json:"location_rating" binding:"required"`
	ValueRating       int     `json:"value_rating" binding:"required"`
	Comment           string  `json:"comment" binding:"required"`
	Positives         *string `json:"positives"`
	Improvements      *string `json:"improvements"`
	Recommends        *bool   `json:"recommends"`
	WouldReturn       *bool   `json:"would_return"`
}

func (r *CreateRequest) validate() error {
	for _, rating := range []int{r.OverallRating, r.CleanlinessRating, r.EquipmentRating, r.LocationRating, r.ValueRating} {
		if rating < 1 || rating > 5 {
			return errors.ErrInvalidRating
		}
	}
	if r.Comment == "" {
		return errors.ErrInvalidParams.WithMessage("评价内容不能为空")
	}
	return nil
}

// Create 客户评价本人已完成的预订，每个预订仅可评价一次
func (s *Service) Create(ctx context.Context, actor authz.Actor, reservationID int64, req *CreateRequest) (*models.Evaluation, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var evaluation *models.Evaluation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reservation, err := repository.NewReservationRepository(tx).GetForUpdate(ctx, tx, reservationID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrReservationNotFound
			}
			return err
		}
		if err := authz.Authorize(actor, authz.CapEvaluationCreate, authz.Scope{ClientID: reservation.ClientID}); err != nil {
			return err
		}
		if reservation.Status != models.ReservationStatusCompleted {
			return errors.ErrEvaluationNotAllow
		}

		evaluationRepo := repository.NewEvaluationRepository(tx)
		exists, err := evaluationRepo.ExistsByReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if exists {
			return errors.ErrEvaluationExists
		}

		evaluation = &models.Evaluation{
			ReservationID:     reservation.ID,
			PropertyID:        reservation.PropertyID,
			ClientID:          reservation.ClientID,
			OverallRating:     req.OverallRating,
			CleanlinessRating: req.CleanlinessRating,
			EquipmentRating:   req.EquipmentRating,
			LocationRating:    req.LocationRating,
			ValueRating:       req.ValueRating,
			Comment:           req.Comment,
			Positives:         req.Positives,
			Improvements:      req.Improvements,
			Recommends:        true,
			WouldReturn:       true,
			Approved:          true,
		}
		if err := evaluationRepo.Create(ctx, evaluation); err != nil {
			return err
		}

		// 布尔字段带数据库默认值，false 需要单独写入
		negatives := map[string]interface{}{}
		if req.Recommends != nil && !*req.Recommends {
			negatives["recommends"] = false
			evaluation.Recommends = false
		}
		if req.WouldReturn != nil && !*req.WouldReturn {
			negatives["would_return"] = false
			evaluation.WouldReturn = false
		}
		if len(negatives) > 0 {
			if err := evaluationRepo.UpdateFields(ctx, evaluation.ID, negatives); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}

	s.invalidateRating(ctx, evaluation.PropertyID)
	s.log.Info("evaluation created",
		logger.ReservationID(evaluation.ReservationID),
		logger.PropertyID(evaluation.PropertyID),
		zap.Float64("average", evaluation.AverageRating()),
	)
	return evaluation, nil
}

// Moderate 审核评价，驳回时需填写原因
func (s *Service) Moderate(ctx context.Context, actor authz.Actor, id int64, approved bool, reason string) (*models.Evaluation, error) {
	if !approved && reason == "" {
		return nil, errors.ErrInvalidParams.WithMessage("请填写驳回原因")
	}

	var evaluation *models.Evaluation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := s.loadManaged(ctx, tx, actor, authz.CapEvaluationModerate, id)
		if err != nil {
			return err
		}
		fields := map[string]interface{}{"approved": approved, "reject_reason": nil}
		e.Approved = approved
		e.RejectReason = nil
		if !approved {
			fields["reject_reason"] = reason
			e.RejectReason = &reason
		}
		if err := repository.NewEvaluationRepository(tx).UpdateFields(ctx, e.ID, fields); err != nil {
			return err
		}
		evaluation = e
		return audit.Record(ctx, tx, actor, audit.Entry{
			Module:     "evaluation",
			Action:     "moderate",
			TargetType: "evaluation",
			TargetID:   e.ID,
			Detail:     map[string]interface{}{"approved": approved, "reason": reason},
		})
	})
	if err != nil {
		return nil, wrapError(err)
	}

	s.invalidateRating(ctx, evaluation.PropertyID)
	return evaluation, nil
}

// Respond 房源管理员回复评价
func (s *Service) Respond(ctx context.Context, actor authz.Actor, id int64, text string) (*models.Evaluation, error) {
	if text == "" {
		return nil, errors.ErrInvalidParams.WithMessage("回复内容不能为空")
	}

	var evaluation *models.Evaluation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := s.loadManaged(ctx, tx, actor, authz.CapEvaluationRespond, id)
		if err != nil {
			return err
		}
		now := s.now()
		if err := repository.NewEvaluationRepository(tx).UpdateFields(ctx, e.ID, map[string]interface{}{
			"manager_response": text,
			"responded_at":     now,
		}); err != nil {
			return err
		}
		e.ManagerResponse = &text
		e.RespondedAt = &now
		evaluation = e
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return evaluation, nil
}

// ListByProperty 房源评价列表，非管理人员仅见已审核通过的评价
func (s *Service) ListByProperty(ctx context.Context, actor authz.Actor, propertyID int64, page utils.Pagination) ([]*models.Evaluation, int64, error) {
	property, err := repository.NewPropertyRepository(s.db).GetByID(ctx, propertyID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, 0, errors.ErrPropertyNotFound
		}
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	approvedOnly := !authz.Allowed(actor, authz.CapEvaluationModerate, authz.Scope{ManagerID: property.ManagerID})

	page.Normalize()
	list, total, err := repository.NewEvaluationRepository(s.db).ListByProperty(ctx, propertyID, approvedOnly, page.GetOffset(), page.GetLimit())
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// PropertyRating 房源已审核评价的平均分，结果缓存
func (s *Service) PropertyRating(ctx context.Context, propertyID int64) (*repository.RatingStats, error) {
	key := ratingKey(propertyID)
	if cache.Enabled() {
		var stats repository.RatingStats
		if err := cache.Get(ctx, key, &stats); err == nil {
			return &stats, nil
		}
	}

	stats, err := repository.NewEvaluationRepository(s.db).RatingStatsByProperty(ctx, propertyID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	stats.Overall = roundRating(stats.Overall)
	stats.Cleanliness = roundRating(stats.Cleanliness)
	stats.Equipment = roundRating(stats.Equipment)
	stats.Location = roundRating(stats.Location)
	stats.Value = roundRating(stats.Value)

	if cache.Enabled() {
		if err := cache.Set(ctx, key, stats, ratingCacheTTL); err != nil {
			s.log.Warn("rating cache set failed", logger.PropertyID(propertyID), zap.Error(err))
		}
	}
	return stats, nil
}

func (s *Service) loadManaged(ctx context.Context, tx *gorm.DB, actor authz.Actor, capability authz.Capability, id int64) (*models.Evaluation, error) {
	e, err := repository.NewEvaluationRepository(tx).GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrEvaluationNotFound
		}
		return nil, err
	}
	property, err := repository.NewPropertyRepository(tx).GetByID(ctx, e.PropertyID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, capability, authz.Scope{ManagerID: property.ManagerID}); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) invalidateRating(ctx context.Context, propertyID int64) {
	if !cache.Enabled() {
		return
	}
	if err := cache.Delete(ctx, ratingKey(propertyID)); err != nil {
		s.log.Warn("rating cache invalidate failed", logger.PropertyID(propertyID), zap.Error(err))
	}
}

func ratingKey(propertyID int64) string {
	return cache.BuildKey(cache.KeyPrefixRating, strconv.FormatInt(propertyID, 10))
}

// roundRating 保留一位小数
func roundRating(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

func wrapError(err error) error {
	if errors.IsAppError(err) {
		return errors.GetAppError(err)
	}
	return errors.ErrDatabaseError.WithError(err)
}
