package repository

import (
	"context"
	"fmt"
	"github.com/coolviki/paywise/model"
	"time"
)

// Pending accesses the four pending_* staging tables.
// Find* only return rows with status = pending, Get* and Lock* return rows in any status.
type Pending interface {
	FindPendingBenefit(ctx context.Context, cardID int64, brandID int64) (model.NullPendingEcosystemChange, error)
	GetPendingBenefit(ctx context.Context, id int64) (model.NullPendingEcosystemChange, error)
	LockPendingBenefit(ctx context.Context, id int64) (model.NullPendingEcosystemChange, error)
	ListPendingBenefits(ctx context.Context, status model.PendingStatus) ([]model.PendingEcosystemChange, error)
	InsertPendingBenefit(ctx context.Context, change model.PendingEcosystemChange) (int64, error)
	UpdatePendingBenefit(ctx context.Context, change model.PendingEcosystemChange) error

	FindPendingCard(ctx context.Context, bankID int64, canonicalName string) (model.NullPendingCardChange, error)
	GetPendingCard(ctx context.Context, id int64) (model.NullPendingCardChange, error)
	LockPendingCard(ctx context.Context, id int64) (model.NullPendingCardChange, error)
	ListPendingCards(ctx context.Context, status model.PendingStatus) ([]model.PendingCardChange, error)
	InsertPendingCard(ctx context.Context, change model.PendingCardChange) (int64, error)
	UpdatePendingCard(ctx context.Context, change model.PendingCardChange) error

	FindPendingBrand(ctx context.Context, code string) (model.NullPendingBrandChange, error)
	GetPendingBrand(ctx context.Context, id int64) (model.NullPendingBrandChange, error)
	LockPendingBrand(ctx context.Context, id int64) (model.NullPendingBrandChange, error)
	ListPendingBrands(ctx context.Context, status model.PendingStatus) ([]model.PendingBrandChange, error)
	InsertPendingBrand(ctx context.Context, change model.PendingBrandChange) (int64, error)
	UpdatePendingBrand(ctx context.Context, change model.PendingBrandChange) error

	FindPendingCampaign(
		ctx context.Context, cardID int64, brandID int64, startDate time.Time, endDate time.Time,
	) (model.NullPendingCampaign, error)
	GetPendingCampaign(ctx context.Context, id int64) (model.NullPendingCampaign, error)
	LockPendingCampaign(ctx context.Context, id int64) (model.NullPendingCampaign, error)
	ListPendingCampaigns(ctx context.Context, status model.PendingStatus) ([]model.PendingCampaign, error)
	InsertPendingCampaign(ctx context.Context, campaign model.PendingCampaign) (int64, error)
	UpdatePendingCampaign(ctx context.Context, campaign model.PendingCampaign) error

	// MarkReviewed moves a pending row to a terminal status, affected = false when the row is not pending
	MarkReviewed(ctx context.Context, kind model.PendingKind, id int64, review model.Review) (affected bool, err error)
	// DeletePending removes a row that is still pending
	DeletePending(ctx context.Context, kind model.PendingKind, id int64) (affected bool, err error)
}

type pendingImpl struct {
}

// NewPending ...
func NewPending() Pending {
	return &pendingImpl{}
}

func pendingTable(kind model.PendingKind) string {
	switch kind {
	case model.PendingKindBenefit:
		return "pending_ecosystem_changes"
	case model.PendingKindBrand:
		return "pending_brand_changes"
	case model.PendingKindCard:
		return "pending_card_changes"
	case model.PendingKindCampaign:
		return "pending_campaigns"
	default:
		panic(fmt.Sprintf("unknown pending kind %q", kind))
	}
}

func listPendingQuery(columns string, table string, status model.PendingStatus) (string, []interface{}) {
	query := `SELECT ` + columns + ` FROM ` + table
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY id DESC`
	return query, args
}

// MarkReviewed ...
func (p *pendingImpl) MarkReviewed(
	ctx context.Context, kind model.PendingKind, id int64, review model.Review,
) (bool, error) {
	query := `UPDATE ` + pendingTable(kind) + `
SET status = ?, reviewed_at = ?, reviewed_by = ?
WHERE id = ? AND status = 'pending'`
	n, err := exec(ctx, "mark reviewed "+string(kind), query,
		review.Status, review.ReviewedAt, review.ReviewedBy, id)
	return n > 0, err
}

// DeletePending ...
func (p *pendingImpl) DeletePending(ctx context.Context, kind model.PendingKind, id int64) (bool, error) {
	query := `DELETE FROM ` + pendingTable(kind) + ` WHERE id = ? AND status = 'pending'`
	n, err := exec(ctx, "delete pending "+string(kind), query, id)
	return n > 0, err
}
