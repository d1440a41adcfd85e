package model

import (
	"database/sql"
	"github.com/shopspring/decimal"
	"time"
)

// RateScale is the number of decimals kept by the rate and fee columns
const RateScale = 2

var (
	// MaxRate is the largest value of a DECIMAL(6, 2) rate column
	MaxRate = decimal.New(999999, -RateScale)
	// MaxFee is the largest value of a DECIMAL(10, 2) fee column
	MaxFee = decimal.New(9999999999, -RateScale)
)

// RoundRate rounds d to the scale the database stores, a value that already fits is returned as is
func RoundRate(d decimal.Decimal) decimal.Decimal {
	r := d.Round(RateScale)
	if r.Equal(d) {
		return d
	}
	return r
}

// CardEcosystemBenefit is the standing reward rate of one card at one brand.
// At most one active benefit exists per (card_id, brand_id).
type CardEcosystemBenefit struct {
	ID      int64 `db:"id"`
	CardID  int64 `db:"card_id"`
	BrandID int64 `db:"brand_id"`

	BenefitRate decimal.Decimal `db:"benefit_rate"`
	BenefitType string          `db:"benefit_type"`
	Description sql.NullString  `db:"description"`
	IsActive    bool            `db:"is_active"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NullBenefit ...
type NullBenefit struct {
	Valid   bool
	Benefit CardEcosystemBenefit
}

// Snapshot returns the mutable fields compared when staging
func (b CardEcosystemBenefit) Snapshot() BenefitSnapshot {
	return BenefitSnapshot{
		BenefitRate: b.BenefitRate,
		BenefitType: b.BenefitType,
		Description: b.Description,
	}
}
