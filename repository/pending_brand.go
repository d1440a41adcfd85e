package repository

import (
	"context"
	"github.com/coolviki/paywise/model"
)

const pendingBrandColumns = `id, existing_brand_id, name, code, description, keywords, source_url, source_bank,
	change_type, old_values, status, scraped_at, reviewed_at, reviewed_by`

// FindPendingBrand ...
func (p *pendingImpl) FindPendingBrand(ctx context.Context, code string) (model.NullPendingBrandChange, error) {
	query := `SELECT ` + pendingBrandColumns + ` FROM pending_brand_changes
WHERE code = ? AND status = 'pending'`
	var change model.PendingBrandChange
	found, err := getNullable(ctx, GetReadonly(ctx), &change, query, code)
	return model.NullPendingBrandChange{Valid: found, Change: change}, err
}

// GetPendingBrand ...
func (p *pendingImpl) GetPendingBrand(ctx context.Context, id int64) (model.NullPendingBrandChange, error) {
	query := `SELECT ` + pendingBrandColumns + ` FROM pending_brand_changes WHERE id = ?`
	var change model.PendingBrandChange
	found, err := getNullable(ctx, GetReadonly(ctx), &change, query, id)
	return model.NullPendingBrandChange{Valid: found, Change: change}, err
}

// LockPendingBrand ...
func (p *pendingImpl) LockPendingBrand(ctx context.Context, id int64) (model.NullPendingBrandChange, error) {
	query := `SELECT ` + pendingBrandColumns + ` FROM pending_brand_changes WHERE id = ? FOR UPDATE`
	var change model.PendingBrandChange
	found, err := getNullable(ctx, GetTx(ctx), &change, query, id)
	return model.NullPendingBrandChange{Valid: found, Change: change}, err
}

// ListPendingBrands ...
func (p *pendingImpl) ListPendingBrands(
	ctx context.Context, status model.PendingStatus,
) ([]model.PendingBrandChange, error) {
	query, args := listPendingQuery(pendingBrandColumns, "pending_brand_changes", status)
	var result []model.PendingBrandChange
	err := GetReadonly(ctx).SelectContext(ctx, &result, query, args...)
	return result, err
}

// InsertPendingBrand ...
func (p *pendingImpl) InsertPendingBrand(ctx context.Context, change model.PendingBrandChange) (int64, error) {
	query := `
INSERT INTO pending_brand_changes (
	existing_brand_id, name, code, description, keywords, source_url, source_bank,
	change_type, old_values, status, scraped_at
) VALUES (
	:existing_brand_id, :name, :code, :description, :keywords, :source_url, :source_bank,
	:change_type, :old_values, :status, :scraped_at
)
`
	return namedInsert(ctx, "insert pending brand change", query, change)
}

// UpdatePendingBrand ...
func (p *pendingImpl) UpdatePendingBrand(ctx context.Context, change model.PendingBrandChange) error {
	query := `
UPDATE pending_brand_changes SET
	name = :name,
	code = :code,
	description = :description,
	keywords = :keywords
WHERE id = :id AND status = 'pending'
`
	return namedExec(ctx, "update pending brand change", query, change)
}
