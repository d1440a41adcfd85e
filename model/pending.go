package model

import (
	"database/sql"
	"github.com/shopspring/decimal"
	"time"
)

// ChangeType ...
type ChangeType string

const (
	// ChangeTypeNew ...
	ChangeTypeNew ChangeType = "new"
	// ChangeTypeUpdate ...
	ChangeTypeUpdate ChangeType = "update"
	// ChangeTypeDelete ...
	ChangeTypeDelete ChangeType = "delete"
)

// PendingStatus ...
type PendingStatus string

const (
	// PendingStatusPending ...
	PendingStatusPending PendingStatus = "pending"
	// PendingStatusApproved ...
	PendingStatusApproved PendingStatus = "approved"
	// PendingStatusRejected ...
	PendingStatusRejected PendingStatus = "rejected"
)

// PendingKind identifies one of the pending_* tables
type PendingKind string

const (
	// PendingKindBenefit ...
	PendingKindBenefit PendingKind = "benefit"
	// PendingKindBrand ...
	PendingKindBrand PendingKind = "brand"
	// PendingKindCard ...
	PendingKindCard PendingKind = "card"
	// PendingKindCampaign ...
	PendingKindCampaign PendingKind = "campaign"
)

// PendingKinds lists every kind
var PendingKinds = []PendingKind{
	PendingKindBenefit, PendingKindBrand, PendingKindCard, PendingKindCampaign,
}

// Review is the audit trail written by a terminal transition
type Review struct {
	Status     PendingStatus
	ReviewedAt time.Time
	ReviewedBy string
}

// PendingEcosystemChange is a staged create/update/delete of a CardEcosystemBenefit
type PendingEcosystemChange struct {
	ID      int64 `db:"id"`
	CardID  int64 `db:"card_id"`
	BrandID int64 `db:"brand_id"`

	BenefitRate decimal.Decimal `db:"benefit_rate"`
	BenefitType string          `db:"benefit_type"`
	Description sql.NullString  `db:"description"`
	SourceURL   sql.NullString  `db:"source_url"`

	ChangeType ChangeType          `db:"change_type"`
	OldValues  NullBenefitSnapshot `db:"old_values"`
	Status     PendingStatus       `db:"status"`

	ScrapedAt  time.Time      `db:"scraped_at"`
	ReviewedAt sql.NullTime   `db:"reviewed_at"`
	ReviewedBy sql.NullString `db:"reviewed_by"`
}

// NullPendingEcosystemChange ...
type NullPendingEcosystemChange struct {
	Valid  bool
	Change PendingEcosystemChange
}

// PendingBrandChange is a staged brand, keyed by Code while pending
type PendingBrandChange struct {
	ID              int64         `db:"id"`
	ExistingBrandID sql.NullInt64 `db:"existing_brand_id"`

	Name        string         `db:"name"`
	Code        string         `db:"code"`
	Description sql.NullString `db:"description"`
	Keywords    KeywordList    `db:"keywords"`
	SourceURL   sql.NullString `db:"source_url"`
	SourceBank  sql.NullString `db:"source_bank"`

	ChangeType ChangeType        `db:"change_type"`
	OldValues  NullBrandSnapshot `db:"old_values"`
	Status     PendingStatus     `db:"status"`

	ScrapedAt  time.Time      `db:"scraped_at"`
	ReviewedAt sql.NullTime   `db:"reviewed_at"`
	ReviewedBy sql.NullString `db:"reviewed_by"`
}

// NullPendingBrandChange ...
type NullPendingBrandChange struct {
	Valid  bool
	Change PendingBrandChange
}

// PendingCardChange is a staged card, keyed by (BankID, CanonicalName) while pending
type PendingCardChange struct {
	ID             int64         `db:"id"`
	BankID         int64         `db:"bank_id"`
	ExistingCardID sql.NullInt64 `db:"existing_card_id"`

	Name          string `db:"name"`
	CanonicalName string `db:"canonical_name"`

	CardType       CardType            `db:"card_type"`
	CardNetwork    sql.NullString      `db:"card_network"`
	AnnualFee      decimal.NullDecimal `db:"annual_fee"`
	RewardType     sql.NullString      `db:"reward_type"`
	BaseRewardRate decimal.NullDecimal `db:"base_reward_rate"`

	SourceURL  sql.NullString `db:"source_url"`
	SourceBank sql.NullString `db:"source_bank"`

	ChangeType ChangeType       `db:"change_type"`
	OldValues  NullCardSnapshot `db:"old_values"`
	Status     PendingStatus    `db:"status"`

	ScrapedAt  time.Time      `db:"scraped_at"`
	ReviewedAt sql.NullTime   `db:"reviewed_at"`
	ReviewedBy sql.NullString `db:"reviewed_by"`
}

// NullPendingCardChange ...
type NullPendingCardChange struct {
	Valid  bool
	Change PendingCardChange
}

// PendingCampaign is a staged campaign, keyed by (CardID, BrandID, StartDate, EndDate) while pending
type PendingCampaign struct {
	ID                 int64         `db:"id"`
	CardID             int64         `db:"card_id"`
	BrandID            int64         `db:"brand_id"`
	ExistingCampaignID sql.NullInt64 `db:"existing_campaign_id"`

	BenefitRate decimal.Decimal `db:"benefit_rate"`
	BenefitType string          `db:"benefit_type"`
	Description sql.NullString  `db:"description"`
	TermsURL    sql.NullString  `db:"terms_url"`
	StartDate   time.Time       `db:"start_date"`
	EndDate     time.Time       `db:"end_date"`
	SourceURL   sql.NullString  `db:"source_url"`

	ChangeType ChangeType           `db:"change_type"`
	OldValues  NullCampaignSnapshot `db:"old_values"`
	Status     PendingStatus        `db:"status"`

	ScrapedAt  time.Time      `db:"scraped_at"`
	ReviewedAt sql.NullTime   `db:"reviewed_at"`
	ReviewedBy sql.NullString `db:"reviewed_by"`
}

// NullPendingCampaign ...
type NullPendingCampaign struct {
	Valid    bool
	Campaign PendingCampaign
}
