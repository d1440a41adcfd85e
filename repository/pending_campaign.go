package repository

import (
	"context"
	"github.com/coolviki/paywise/model"
	"time"
)

const pendingCampaignColumns = `id, card_id, brand_id, existing_campaign_id, benefit_rate, benefit_type,
	description, terms_url, start_date, end_date, source_url,
	change_type, old_values, status, scraped_at, reviewed_at, reviewed_by`

// FindPendingCampaign ...
func (p *pendingImpl) FindPendingCampaign(
	ctx context.Context, cardID int64, brandID int64, startDate time.Time, endDate time.Time,
) (model.NullPendingCampaign, error) {
	query := `SELECT ` + pendingCampaignColumns + ` FROM pending_campaigns
WHERE card_id = ? AND brand_id = ? AND start_date = ? AND end_date = ? AND status = 'pending'`
	var campaign model.PendingCampaign
	found, err := getNullable(ctx, GetReadonly(ctx), &campaign, query,
		cardID, brandID, model.DateOf(startDate), model.DateOf(endDate))
	return model.NullPendingCampaign{Valid: found, Campaign: campaign}, err
}

// GetPendingCampaign ...
func (p *pendingImpl) GetPendingCampaign(ctx context.Context, id int64) (model.NullPendingCampaign, error) {
	query := `SELECT ` + pendingCampaignColumns + ` FROM pending_campaigns WHERE id = ?`
	var campaign model.PendingCampaign
	found, err := getNullable(ctx, GetReadonly(ctx), &campaign, query, id)
	return model.NullPendingCampaign{Valid: found, Campaign: campaign}, err
}

// LockPendingCampaign ...
func (p *pendingImpl) LockPendingCampaign(ctx context.Context, id int64) (model.NullPendingCampaign, error) {
	query := `SELECT ` + pendingCampaignColumns + ` FROM pending_campaigns WHERE id = ? FOR UPDATE`
	var campaign model.PendingCampaign
	found, err := getNullable(ctx, GetTx(ctx), &campaign, query, id)
	return model.NullPendingCampaign{Valid: found, Campaign: campaign}, err
}

// ListPendingCampaigns ...
func (p *pendingImpl) ListPendingCampaigns(
	ctx context.Context, status model.PendingStatus,
) ([]model.PendingCampaign, error) {
	query, args := listPendingQuery(pendingCampaignColumns, "pending_campaigns", status)
	var result []model.PendingCampaign
	err := GetReadonly(ctx).SelectContext(ctx, &result, query, args...)
	return result, err
}

// InsertPendingCampaign ...
func (p *pendingImpl) InsertPendingCampaign(ctx context.Context, campaign model.PendingCampaign) (int64, error) {
	query := `
INSERT INTO pending_campaigns (
	card_id, brand_id, existing_campaign_id, benefit_rate, benefit_type,
	description, terms_url, start_date, end_date, source_url,
	change_type, old_values, status, scraped_at
) VALUES (
	:card_id, :brand_id, :existing_campaign_id, :benefit_rate, :benefit_type,
	:description, :terms_url, :start_date, :end_date, :source_url,
	:change_type, :old_values, :status, :scraped_at
)
`
	return namedInsert(ctx, "insert pending campaign", query, campaign)
}

// UpdatePendingCampaign ...
func (p *pendingImpl) UpdatePendingCampaign(ctx context.Context, campaign model.PendingCampaign) error {
	query := `
UPDATE pending_campaigns SET
	benefit_rate = :benefit_rate,
	benefit_type = :benefit_type,
	description = :description,
	terms_url = :terms_url,
	start_date = :start_date,
	end_date = :end_date
WHERE id = :id AND status = 'pending'
`
	return namedExec(ctx, "update pending campaign", query, campaign)
}
