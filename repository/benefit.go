package repository

import (
	"context"
	"github.com/coolviki/paywise/model"
)

// Benefit accesses card_ecosystem_benefits
type Benefit interface {
	FindActiveBenefit(ctx context.Context, cardID int64, brandID int64) (model.NullBenefit, error)
	ListBenefitsByCard(ctx context.Context, cardID int64) ([]model.CardEcosystemBenefit, error)
	InsertBenefit(ctx context.Context, benefit model.CardEcosystemBenefit) (int64, error)
	UpdateBenefit(ctx context.Context, benefit model.CardEcosystemBenefit) error
	DeleteBenefit(ctx context.Context, id int64) error
}

type benefitImpl struct {
}

// NewBenefit ...
func NewBenefit() Benefit {
	return &benefitImpl{}
}

const benefitColumns = `id, card_id, brand_id, benefit_rate, benefit_type, description,
	is_active, created_at, updated_at`

// FindActiveBenefit ...
func (b *benefitImpl) FindActiveBenefit(
	ctx context.Context, cardID int64, brandID int64,
) (model.NullBenefit, error) {
	query := `SELECT ` + benefitColumns + ` FROM card_ecosystem_benefits
WHERE card_id = ? AND brand_id = ? AND is_active = TRUE`
	var benefit model.CardEcosystemBenefit
	found, err := getNullable(ctx, GetReadonly(ctx), &benefit, query, cardID, brandID)
	return model.NullBenefit{Valid: found, Benefit: benefit}, err
}

// ListBenefitsByCard ...
func (b *benefitImpl) ListBenefitsByCard(ctx context.Context, cardID int64) ([]model.CardEcosystemBenefit, error) {
	query := `SELECT ` + benefitColumns + ` FROM card_ecosystem_benefits WHERE card_id = ? ORDER BY id`
	var result []model.CardEcosystemBenefit
	err := GetReadonly(ctx).SelectContext(ctx, &result, query, cardID)
	return result, err
}

// InsertBenefit ...
func (b *benefitImpl) InsertBenefit(ctx context.Context, benefit model.CardEcosystemBenefit) (int64, error) {
	query := `
INSERT INTO card_ecosystem_benefits (
	card_id, brand_id, benefit_rate, benefit_type, description, is_active
) VALUES (
	:card_id, :brand_id, :benefit_rate, :benefit_type, :description, :is_active
)
`
	return namedInsert(ctx, "insert ecosystem benefit", query, benefit)
}

// UpdateBenefit ...
func (b *benefitImpl) UpdateBenefit(ctx context.Context, benefit model.CardEcosystemBenefit) error {
	query := `
UPDATE card_ecosystem_benefits SET
	benefit_rate = :benefit_rate,
	benefit_type = :benefit_type,
	description = :description,
	is_active = :is_active
WHERE id = :id
`
	return namedExec(ctx, "update ecosystem benefit", query, benefit)
}

// DeleteBenefit ...
func (b *benefitImpl) DeleteBenefit(ctx context.Context, id int64) error {
	_, err := exec(ctx, "delete ecosystem benefit", `DELETE FROM card_ecosystem_benefits WHERE id = ?`, id)
	return err
}
