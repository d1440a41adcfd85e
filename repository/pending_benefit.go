package repository

import (
	"context"
	"github.com/coolviki/paywise/model"
)

const pendingBenefitColumns = `id, card_id, brand_id, benefit_rate, benefit_type, description, source_url,
	change_type, old_values, status, scraped_at, reviewed_at, reviewed_by`

// FindPendingBenefit ...
func (p *pendingImpl) FindPendingBenefit(
	ctx context.Context, cardID int64, brandID int64,
) (model.NullPendingEcosystemChange, error) {
	query := `SELECT ` + pendingBenefitColumns + ` FROM pending_ecosystem_changes
WHERE card_id = ? AND brand_id = ? AND status = 'pending'`
	var change model.PendingEcosystemChange
	found, err := getNullable(ctx, GetReadonly(ctx), &change, query, cardID, brandID)
	return model.NullPendingEcosystemChange{Valid: found, Change: change}, err
}

// GetPendingBenefit ...
func (p *pendingImpl) GetPendingBenefit(ctx context.Context, id int64) (model.NullPendingEcosystemChange, error) {
	query := `SELECT ` + pendingBenefitColumns + ` FROM pending_ecosystem_changes WHERE id = ?`
	var change model.PendingEcosystemChange
	found, err := getNullable(ctx, GetReadonly(ctx), &change, query, id)
	return model.NullPendingEcosystemChange{Valid: found, Change: change}, err
}

// LockPendingBenefit ...
func (p *pendingImpl) LockPendingBenefit(ctx context.Context, id int64) (model.NullPendingEcosystemChange, error) {
	query := `SELECT ` + pendingBenefitColumns + ` FROM pending_ecosystem_changes WHERE id = ? FOR UPDATE`
	var change model.PendingEcosystemChange
	found, err := getNullable(ctx, GetTx(ctx), &change, query, id)
	return model.NullPendingEcosystemChange{Valid: found, Change: change}, err
}

// ListPendingBenefits ...
func (p *pendingImpl) ListPendingBenefits(
	ctx context.Context, status model.PendingStatus,
) ([]model.PendingEcosystemChange, error) {
	query, args := listPendingQuery(pendingBenefitColumns, "pending_ecosystem_changes", status)
	var result []model.PendingEcosystemChange
	err := GetReadonly(ctx).SelectContext(ctx, &result, query, args...)
	return result, err
}

// InsertPendingBenefit ...
func (p *pendingImpl) InsertPendingBenefit(ctx context.Context, change model.PendingEcosystemChange) (int64, error) {
	query := `
INSERT INTO pending_ecosystem_changes (
	card_id, brand_id, benefit_rate, benefit_type, description, source_url,
	change_type, old_values, status, scraped_at
) VALUES (
	:card_id, :brand_id, :benefit_rate, :benefit_type, :description, :source_url,
	:change_type, :old_values, :status, :scraped_at
)
`
	return namedInsert(ctx, "insert pending ecosystem change", query, change)
}

// UpdatePendingBenefit overwrites the editable fields of a pending row
func (p *pendingImpl) UpdatePendingBenefit(ctx context.Context, change model.PendingEcosystemChange) error {
	query := `
UPDATE pending_ecosystem_changes SET
	benefit_rate = :benefit_rate,
	benefit_type = :benefit_type,
	description = :description
WHERE id = :id AND status = 'pending'
`
	return namedExec(ctx, "update pending ecosystem change", query, change)
}
