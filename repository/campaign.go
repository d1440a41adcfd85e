package repository

import (
	"context"
	"github.com/coolviki/paywise/model"
	"time"
)

// Campaign accesses the production campaigns table
type Campaign interface {
	FindCampaign(
		ctx context.Context, cardID int64, brandID int64, startDate time.Time, endDate time.Time,
	) (model.NullCampaign, error)
	GetCampaign(ctx context.Context, id int64) (model.NullCampaign, error)
	ListCampaignsByCard(ctx context.Context, cardID int64) ([]model.Campaign, error)
	InsertCampaign(ctx context.Context, campaign model.Campaign) (int64, error)
	UpdateCampaign(ctx context.Context, campaign model.Campaign) error
	DeleteCampaign(ctx context.Context, id int64) error
}

type campaignImpl struct {
}

// NewCampaign ...
func NewCampaign() Campaign {
	return &campaignImpl{}
}

const campaignColumns = `id, card_id, brand_id, benefit_rate, benefit_type, description, terms_url,
	start_date, end_date, is_active, created_at, updated_at`

// FindCampaign finds the campaign with exactly this card, brand and date range
func (c *campaignImpl) FindCampaign(
	ctx context.Context, cardID int64, brandID int64, startDate time.Time, endDate time.Time,
) (model.NullCampaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
WHERE card_id = ? AND brand_id = ? AND start_date = ? AND end_date = ?
ORDER BY id LIMIT 1`
	var campaign model.Campaign
	found, err := getNullable(ctx, GetReadonly(ctx), &campaign, query,
		cardID, brandID, model.DateOf(startDate), model.DateOf(endDate))
	return model.NullCampaign{Valid: found, Campaign: campaign}, err
}

// GetCampaign ...
func (c *campaignImpl) GetCampaign(ctx context.Context, id int64) (model.NullCampaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = ?`
	var campaign model.Campaign
	found, err := getNullable(ctx, GetReadonly(ctx), &campaign, query, id)
	return model.NullCampaign{Valid: found, Campaign: campaign}, err
}

// ListCampaignsByCard ...
func (c *campaignImpl) ListCampaignsByCard(ctx context.Context, cardID int64) ([]model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE card_id = ? ORDER BY id`
	var result []model.Campaign
	err := GetReadonly(ctx).SelectContext(ctx, &result, query, cardID)
	return result, err
}

// InsertCampaign ...
func (c *campaignImpl) InsertCampaign(ctx context.Context, campaign model.Campaign) (int64, error) {
	query := `
INSERT INTO campaigns (
	card_id, brand_id, benefit_rate, benefit_type, description, terms_url,
	start_date, end_date, is_active
) VALUES (
	:card_id, :brand_id, :benefit_rate, :benefit_type, :description, :terms_url,
	:start_date, :end_date, :is_active
)
`
	return namedInsert(ctx, "insert campaign", query, campaign)
}

// UpdateCampaign ...
func (c *campaignImpl) UpdateCampaign(ctx context.Context, campaign model.Campaign) error {
	query := `
UPDATE campaigns SET
	benefit_rate = :benefit_rate,
	benefit_type = :benefit_type,
	description = :description,
	terms_url = :terms_url,
	start_date = :start_date,
	end_date = :end_date,
	is_active = :is_active
WHERE id = :id
`
	return namedExec(ctx, "update campaign", query, campaign)
}

// DeleteCampaign ...
func (c *campaignImpl) DeleteCampaign(ctx context.Context, id int64) error {
	_, err := exec(ctx, "delete campaign", `DELETE FROM campaigns WHERE id = ?`, id)
	return err
}
