package model

import (
	"database/sql"
	"github.com/shopspring/decimal"
	"time"
)

// Card ...
type Card struct {
	ID     int64  `db:"id"`
	BankID int64  `db:"bank_id"`
	Name   string `db:"name"`

	CardType    CardType            `db:"card_type"`
	CardNetwork sql.NullString      `db:"card_network"`
	AnnualFee   decimal.NullDecimal `db:"annual_fee"`

	RewardType     sql.NullString      `db:"reward_type"`
	BaseRewardRate decimal.NullDecimal `db:"base_reward_rate"`

	IsActive bool `db:"is_active"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NullCard ...
type NullCard struct {
	Valid bool
	Card  Card
}

// CardType ...
type CardType string

const (
	// CardTypeCredit ...
	CardTypeCredit CardType = "credit"
	// CardTypeDebit ...
	CardTypeDebit CardType = "debit"
)

// Snapshot ...
func (c Card) Snapshot() CardSnapshot {
	return CardSnapshot{
		Name:           c.Name,
		CardType:       c.CardType,
		CardNetwork:    c.CardNetwork,
		AnnualFee:      c.AnnualFee,
		RewardType:     c.RewardType,
		BaseRewardRate: c.BaseRewardRate,
	}
}
