package repository

import (
	"context"
	"github.com/coolviki/paywise/model"
)

const pendingCardColumns = `id, bank_id, existing_card_id, name, canonical_name, card_type, card_network,
	annual_fee, reward_type, base_reward_rate, source_url, source_bank,
	change_type, old_values, status, scraped_at, reviewed_at, reviewed_by`

// FindPendingCard ...
func (p *pendingImpl) FindPendingCard(
	ctx context.Context, bankID int64, canonicalName string,
) (model.NullPendingCardChange, error) {
	query := `SELECT ` + pendingCardColumns + ` FROM pending_card_changes
WHERE bank_id = ? AND canonical_name = ? AND status = 'pending'`
	var change model.PendingCardChange
	found, err := getNullable(ctx, GetReadonly(ctx), &change, query, bankID, canonicalName)
	return model.NullPendingCardChange{Valid: found, Change: change}, err
}

// GetPendingCard ...
func (p *pendingImpl) GetPendingCard(ctx context.Context, id int64) (model.NullPendingCardChange, error) {
	query := `SELECT ` + pendingCardColumns + ` FROM pending_card_changes WHERE id = ?`
	var change model.PendingCardChange
	found, err := getNullable(ctx, GetReadonly(ctx), &change, query, id)
	return model.NullPendingCardChange{Valid: found, Change: change}, err
}

// LockPendingCard ...
func (p *pendingImpl) LockPendingCard(ctx context.Context, id int64) (model.NullPendingCardChange, error) {
	query := `SELECT ` + pendingCardColumns + ` FROM pending_card_changes WHERE id = ? FOR UPDATE`
	var change model.PendingCardChange
	found, err := getNullable(ctx, GetTx(ctx), &change, query, id)
	return model.NullPendingCardChange{Valid: found, Change: change}, err
}

// ListPendingCards ...
func (p *pendingImpl) ListPendingCards(
	ctx context.Context, status model.PendingStatus,
) ([]model.PendingCardChange, error) {
	query, args := listPendingQuery(pendingCardColumns, "pending_card_changes", status)
	var result []model.PendingCardChange
	err := GetReadonly(ctx).SelectContext(ctx, &result, query, args...)
	return result, err
}

// InsertPendingCard ...
func (p *pendingImpl) InsertPendingCard(ctx context.Context, change model.PendingCardChange) (int64, error) {
	query := `
INSERT INTO pending_card_changes (
	bank_id, existing_card_id, name, canonical_name, card_type, card_network,
	annual_fee, reward_type, base_reward_rate, source_url, source_bank,
	change_type, old_values, status, scraped_at
) VALUES (
	:bank_id, :existing_card_id, :name, :canonical_name, :card_type, :card_network,
	:annual_fee, :reward_type, :base_reward_rate, :source_url, :source_bank,
	:change_type, :old_values, :status, :scraped_at
)
`
	return namedInsert(ctx, "insert pending card change", query, change)
}

// UpdatePendingCard ...
func (p *pendingImpl) UpdatePendingCard(ctx context.Context, change model.PendingCardChange) error {
	query := `
UPDATE pending_card_changes SET
	name = :name,
	canonical_name = :canonical_name,
	card_type = :card_type,
	card_network = :card_network,
	annual_fee = :annual_fee,
	reward_type = :reward_type,
	base_reward_rate = :base_reward_rate
WHERE id = :id AND status = 'pending'
`
	return namedExec(ctx, "update pending card change", query, change)
}
