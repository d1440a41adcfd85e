package model

import (
	"database/sql"
	"github.com/shopspring/decimal"
	"time"
)

// Campaign is a time-bound reward rate of a card at a brand, valid in [StartDate, EndDate]
type Campaign struct {
	ID      int64 `db:"id"`
	CardID  int64 `db:"card_id"`
	BrandID int64 `db:"brand_id"`

	BenefitRate decimal.Decimal `db:"benefit_rate"`
	BenefitType string          `db:"benefit_type"`
	Description sql.NullString  `db:"description"`
	TermsURL    sql.NullString  `db:"terms_url"`

	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`

	IsActive bool `db:"is_active"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NullCampaign ...
type NullCampaign struct {
	Valid    bool
	Campaign Campaign
}

// Snapshot ...
func (c Campaign) Snapshot() CampaignSnapshot {
	return CampaignSnapshot{
		BenefitRate: c.BenefitRate,
		BenefitType: c.BenefitType,
		Description: c.Description,
		TermsURL:    c.TermsURL,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
	}
}

// IsActiveAt reports whether the campaign is enabled and day falls inside its date range
func (c Campaign) IsActiveAt(day time.Time) bool {
	d := DateOf(day)
	return c.IsActive && !d.Before(DateOf(c.StartDate)) && !d.After(DateOf(c.EndDate))
}

// DateOf truncates t to its calendar date in UTC
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
