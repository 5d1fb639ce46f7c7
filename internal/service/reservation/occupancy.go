package reservation

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/repavi/lodges-backend/internal/common/authz"
	"github.com/repavi/lodges-backend/internal/common/errors"
	"github.com/repavi/lodges-backend/internal/common/logger"
	"github.com/repavi/lodges-backend/internal/common/tracing"
	"github.com/repavi/lodges-backend/internal/common/utils"
	"github.com/repavi/lodges-backend/internal/events"
	"github.com/repavi/lodges-backend/internal/models"
	"github.com/repavi/lodges-backend/internal/repository"
)

const finishedStaysBatch = 100

// refreshOccupancy 按已确认预订重算房态，调用方需持有房源行锁
//
// 维护中的房源保持不变；否则由离店日期不早于今天且入住最早的已确认预订占用，
// 没有这样的预订时房源空闲。房态发生变化时返回对应事件。
func (s *Service) refreshOccupancy(ctx context.Context, tx *gorm.DB, property *models.Property, today time.Time) (*events.OccupancyChanged, error) {
	if property.InMaintenance() {
		return nil, nil
	}

	propertyRepo := repository.NewPropertyRepository(tx)
	occupant, err := repository.NewReservationRepository(tx).FindOccupant(ctx, property.ID, today)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if occupant == nil {
		if property.OccupancyStatus == models.OccupancyFree && property.CurrentReservationID == nil {
			return nil, nil
		}
		if err := propertyRepo.ClearOccupant(ctx, property.ID, models.OccupancyFree); err != nil {
			return nil, err
		}
		property.OccupancyStatus = models.OccupancyFree
		property.CurrentTenantID = nil
		property.CurrentReservationID = nil
		property.OccupiedUntil = nil
		return &events.OccupancyChanged{
			PropertyID: property.ID,
			Status:     models.OccupancyFree,
			OccurredAt: s.now(),
		}, nil
	}

	until := utils.DateOf(occupant.EndDate)
	if property.OccupancyStatus == models.OccupancyOccupied &&
		property.CurrentReservationID != nil && *property.CurrentReservationID == occupant.ID &&
		property.OccupiedUntil != nil && utils.DateOf(*property.OccupiedUntil).Equal(until) {
		return nil, nil
	}

	if err := propertyRepo.SetOccupant(ctx, property.ID, occupant.ClientID, occupant.ID, until); err != nil {
		return nil, err
	}
	tenantID, reservationID := occupant.ClientID, occupant.ID
	property.OccupancyStatus = models.OccupancyOccupied
	property.CurrentTenantID = &tenantID
	property.CurrentReservationID = &reservationID
	property.OccupiedUntil = &until
	return &events.OccupancyChanged{
		PropertyID:    property.ID,
		Status:        models.OccupancyOccupied,
		TenantID:      &tenantID,
		ReservationID: &reservationID,
		OccupiedUntil: &until,
		OccurredAt:    s.now(),
	}, nil
}

// RefreshProperty 在房源行锁内重算单个房源的房态，返回是否发生变化
func (s *Service) RefreshProperty(ctx context.Context, propertyID int64) (bool, error) {
	var evt *events.OccupancyChanged
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		property, err := repository.NewPropertyRepository(tx).GetForUpdate(ctx, tx, propertyID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrPropertyNotFound
			}
			return err
		}
		evt, err = s.refreshOccupancy(ctx, tx, property, s.today())
		return err
	})
	if err != nil {
		return false, wrapError(err)
	}
	if evt == nil {
		return false, nil
	}
	s.invalidateCalendar(ctx, propertyID)
	s.publishOccupancy(ctx, evt)
	return true, nil
}

// SyncOccupancy 逐个房源重算房态，修复漂移，返回发生变化的房源数
func (s *Service) SyncOccupancy(ctx context.Context) (changed int, err error) {
	ctx, span := tracing.Start(ctx, "reservation.SyncOccupancy")
	defer func() { tracing.End(span, err) }()

	ids, err := repository.NewPropertyRepository(s.db).ListIDs(ctx)
	if err != nil {
		return 0, wrapError(err)
	}

	for _, id := range ids {
		ok, err := s.RefreshProperty(ctx, id)
		if err != nil {
			s.log.Error("sync occupancy failed", logger.PropertyID(id), zap.Error(err))
			continue
		}
		if ok {
			changed++
		}
	}

	occupied, err := repository.NewPropertyRepository(s.db).CountByOccupancy(ctx, models.OccupancyOccupied)
	if err != nil {
		return changed, wrapError(err)
	}
	s.metrics.SetOccupiedProperties(float64(occupied))

	s.log.Info("occupancy synced", zap.Int("properties", len(ids)), zap.Int("changed", changed))
	return changed, nil
}

// CompleteFinishedStays 将离店日期已过的已确认预订置为已完成，返回完成数量
func (s *Service) CompleteFinishedStays(ctx context.Context) (int, error) {
	stays, err := repository.NewReservationRepository(s.db).ListFinishedStays(ctx, s.today(), finishedStaysBatch)
	if err != nil {
		return 0, wrapError(err)
	}

	completed := 0
	for _, r := range stays {
		if _, err := s.Complete(ctx, authz.System, r.ID); err != nil {
			s.log.Warn("auto complete failed",
				logger.ReservationID(r.ID),
				logger.ReservationCode(r.Code),
				zap.Error(err),
			)
			continue
		}
		completed++
	}
	if completed > 0 {
		s.log.Info("finished stays completed", zap.Int("count", completed))
	}
	return completed, nil
}
