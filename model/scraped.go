package model

import (
	"database/sql"
	"github.com/shopspring/decimal"
	"time"
)

// ScrapedBenefit is an unverified candidate produced by a source extractor
type ScrapedBenefit struct {
	CardName    string
	BrandName   string
	BenefitRate decimal.Decimal
	BenefitType string
	Description sql.NullString
	SourceURL   sql.NullString
}

// ScrapedCampaign ...
type ScrapedCampaign struct {
	CardName    string
	BrandName   string
	BenefitRate decimal.Decimal
	BenefitType string
	StartDate   time.Time
	EndDate     time.Time
	Description sql.NullString
	TermsURL    sql.NullString
	SourceURL   sql.NullString
}
