package reservation

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/repavi/lodges-backend/internal/common/errors"
	"github.com/repavi/lodges-backend/internal/common/utils"
	"github.com/repavi/lodges-backend/internal/models"
	"github.com/repavi/lodges-backend/internal/repository"
)

// Quote 报价
type Quote struct {
	Nights       int       `json:"nights"`
	NightlyPrice float64   `json:"nightly_price"`
	NightlyRates []float64 `json:"nightly_rates"`
	Subtotal     float64   `json:"subtotal"`
	Discount     float64   `json:"discount"`
	Fee          float64   `json:"fee"`
	Total        float64   `json:"total"`
	PaymentMode  string    `json:"payment_mode"`
	Deposit      float64   `json:"deposit"`
}

// Compute 根据每晚价格计算报价
//
//	subtotal = Σ 每晚价格
//	discount 截断到不超过 subtotal
//	fee      = subtotal × feeRate
//	total    = subtotal - discount + fee
//	deposit  = total × depositRate（仅定金模式）
func Compute(nightly []float64, discount, feeRate, depositRate float64, mode string) (*Quote, error) {
	if len(nightly) < 1 {
		return nil, errors.ErrInvalidDateRange.WithMessage("至少预订一晚")
	}
	if discount < 0 {
		return nil, errors.ErrInvalidDiscount
	}
	if mode == "" {
		mode = models.PaymentModeFull
	}
	if !models.ValidPaymentMode(mode) {
		return nil, errors.ErrInvalidParams.WithMessage("无效的付款方式")
	}

	var subtotal float64
	for _, price := range nightly {
		subtotal += price
	}
	subtotal = utils.RoundMoney(subtotal)

	discount = utils.RoundMoney(utils.Min(discount, subtotal))
	fee := utils.RoundMoney(subtotal * feeRate)
	total := utils.RoundMoney(subtotal - discount + fee)

	var deposit float64
	if mode == models.PaymentModeDeposit {
		deposit = utils.RoundMoney(total * depositRate)
	}

	return &Quote{
		Nights:       len(nightly),
		NightlyRates: nightly,
		Subtotal:     subtotal,
		Discount:     discount,
		Fee:          fee,
		Total:        total,
		PaymentMode:  mode,
		Deposit:      deposit,
	}, nil
}

// PricingConfig 计价参数
type PricingConfig struct {
	ServiceFeeRate float64
	DepositRate    float64
	MaxNights      int
}

// Pricer 计价器，按日期覆盖的特价逐晚计价
type Pricer struct {
	db  *gorm.DB
	cfg PricingConfig
}

// NewPricer 创建计价器
func NewPricer(db *gorm.DB, cfg PricingConfig) *Pricer {
	return &Pricer{db: db, cfg: cfg}
}

func (p *Pricer) withTx(tx *gorm.DB) *Pricer {
	return &Pricer{db: tx, cfg: p.cfg}
}

// Price 计算房源在 [start, end) 的报价
func (p *Pricer) Price(ctx context.Context, property *models.Property, start, end time.Time, discount float64, mode string) (*Quote, error) {
	start, end = utils.DateOf(start), utils.DateOf(end)

	nights := utils.Nights(start, end)
	if nights < 1 {
		return nil, errors.ErrInvalidDateRange.WithMessage("离店日期必须晚于入住日期")
	}
	if p.cfg.MaxNights > 0 && nights > p.cfg.MaxNights {
		return nil, errors.ErrInvalidDateRange.WithMessage("预订晚数超出上限")
	}

	overrides, err := repository.NewAvailabilityOverrideRepository(p.db).ListInRange(ctx, property.ID, start, end)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	special := make(map[string]float64, len(overrides))
	for _, o := range overrides {
		if o.SpecialPrice != nil {
			special[utils.FormatDate(o.Date)] = *o.SpecialPrice
		}
	}

	rates := make([]float64, 0, nights)
	for _, d := range utils.EachNight(start, end) {
		if price, ok := special[utils.FormatDate(d)]; ok {
			rates = append(rates, price)
			continue
		}
		rates = append(rates, property.NightlyPrice)
	}

	quote, err := Compute(rates, discount, p.cfg.ServiceFeeRate, p.cfg.DepositRate, mode)
	if err != nil {
		return nil, err
	}
	quote.NightlyPrice = property.NightlyPrice
	return quote, nil
}
