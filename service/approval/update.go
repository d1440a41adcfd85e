package approval

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/coolviki/paywise/model"
	"github.com/coolviki/paywise/pkg/apperr"
	"github.com/coolviki/paywise/pkg/normalize"
	"github.com/shopspring/decimal"
)

// BenefitPatch holds the fields an admin may edit on a pending ecosystem change, nil means unchanged
type BenefitPatch struct {
	BenefitRate *decimal.Decimal
	BenefitType *string
	Description *string
}

// CardPatch ...
type CardPatch struct {
	Name           *string
	CardType       *model.CardType
	CardNetwork    *string
	AnnualFee      *decimal.Decimal
	RewardType     *string
	BaseRewardRate *decimal.Decimal
}

// BrandPatch ...
type BrandPatch struct {
	Name        *string
	Code        *string
	Description *string
	Keywords    []string
}

// CampaignPatch ...
type CampaignPatch struct {
	BenefitRate *decimal.Decimal
	BenefitType *string
	Description *string
	TermsURL    *string
	StartDate   *time.Time
	EndDate     *time.Time
}

func optionalString(s *string) sql.NullString {
	v := strings.TrimSpace(*s)
	return sql.NullString{Valid: v != "", String: v}
}

func requiredString(field string, s *string) (string, error) {
	v := strings.TrimSpace(*s)
	if v == "" {
		return "", apperr.NewValidationError(field, "must not be empty")
	}
	return v, nil
}

// checkAmount rounds d to the column scale, rejecting negatives and values above limit
func checkAmount(field string, d *decimal.Decimal, limit decimal.Decimal) (decimal.Decimal, error) {
	if d.IsNegative() {
		return decimal.Decimal{}, apperr.NewValidationError(field, "must not be negative")
	}
	v := model.RoundRate(*d)
	if v.GreaterThan(limit) {
		return decimal.Decimal{}, apperr.NewValidationError(field, "must not exceed "+limit.StringFixed(model.RateScale))
	}
	return v, nil
}

// cleanKeywords lowercases, trims and deduplicates keywords keeping their order
func cleanKeywords(keywords []string) []string {
	seen := map[string]struct{}{}
	var result []string
	for _, k := range keywords {
		k = normalize.CanonicalKey(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		result = append(result, k)
	}
	return result
}

//------------------------------------------------
// List and get
//------------------------------------------------

// ListBenefitChanges lists pending ecosystem changes newest first, an empty status lists every status
func (w *Workflow) ListBenefitChanges(ctx context.Context, status model.PendingStatus) ([]model.PendingEcosystemChange, error) {
	return w.pendingRepo.ListPendingBenefits(w.provider.Readonly(ctx), status)
}

// ListCardChanges ...
func (w *Workflow) ListCardChanges(ctx context.Context, status model.PendingStatus) ([]model.PendingCardChange, error) {
	return w.pendingRepo.ListPendingCards(w.provider.Readonly(ctx), status)
}

// ListBrandChanges ...
func (w *Workflow) ListBrandChanges(ctx context.Context, status model.PendingStatus) ([]model.PendingBrandChange, error) {
	return w.pendingRepo.ListPendingBrands(w.provider.Readonly(ctx), status)
}

// ListCampaigns ...
func (w *Workflow) ListCampaigns(ctx context.Context, status model.PendingStatus) ([]model.PendingCampaign, error) {
	return w.pendingRepo.ListPendingCampaigns(w.provider.Readonly(ctx), status)
}

// GetBenefitChange returns the row in any status
func (w *Workflow) GetBenefitChange(ctx context.Context, id int64) (model.PendingEcosystemChange, error) {
	p, err := w.pendingRepo.GetPendingBenefit(w.provider.Readonly(ctx), id)
	if err != nil {
		return model.PendingEcosystemChange{}, err
	}
	if !p.Valid {
		return model.PendingEcosystemChange{}, notFound(model.PendingKindBenefit, id)
	}
	return p.Change, nil
}

// GetCardChange ...
func (w *Workflow) GetCardChange(ctx context.Context, id int64) (model.PendingCardChange, error) {
	p, err := w.pendingRepo.GetPendingCard(w.provider.Readonly(ctx), id)
	if err != nil {
		return model.PendingCardChange{}, err
	}
	if !p.Valid {
		return model.PendingCardChange{}, notFound(model.PendingKindCard, id)
	}
	return p.Change, nil
}

// GetBrandChange ...
func (w *Workflow) GetBrandChange(ctx context.Context, id int64) (model.PendingBrandChange, error) {
	p, err := w.pendingRepo.GetPendingBrand(w.provider.Readonly(ctx), id)
	if err != nil {
		return model.PendingBrandChange{}, err
	}
	if !p.Valid {
		return model.PendingBrandChange{}, notFound(model.PendingKindBrand, id)
	}
	return p.Change, nil
}

// GetCampaign ...
func (w *Workflow) GetCampaign(ctx context.Context, id int64) (model.PendingCampaign, error) {
	p, err := w.pendingRepo.GetPendingCampaign(w.provider.Readonly(ctx), id)
	if err != nil {
		return model.PendingCampaign{}, err
	}
	if !p.Valid {
		return model.PendingCampaign{}, notFound(model.PendingKindCampaign, id)
	}
	return p.Campaign, nil
}

//------------------------------------------------
// Admin edits, only legal while pending
//------------------------------------------------

// UpdateBenefitChange ...
func (w *Workflow) UpdateBenefitChange(
	ctx context.Context, id int64, patch BenefitPatch,
) (model.PendingEcosystemChange, error) {
	const kind = model.PendingKindBenefit

	var result model.PendingEcosystemChange
	err := w.provider.Transact(ctx, func(ctx context.Context) error {
		p, err := w.pendingRepo.LockPendingBenefit(ctx, id)
		if err != nil {
			return err
		}
		if !p.Valid || p.Change.Status != model.PendingStatusPending {
			return notFound(kind, id)
		}

		change := p.Change
		if patch.BenefitRate != nil {
			rate, err := checkAmount("benefit_rate", patch.BenefitRate, model.MaxRate)
			if err != nil {
				return err
			}
			change.BenefitRate = rate
		}
		if patch.BenefitType != nil {
			if change.BenefitType, err = requiredString("benefit_type", patch.BenefitType); err != nil {
				return err
			}
		}
		if patch.Description != nil {
			change.Description = optionalString(patch.Description)
		}

		if err := w.pendingRepo.UpdatePendingBenefit(ctx, change); err != nil {
			return err
		}
		result = change
		return nil
	})
	return result, err
}

// UpdateCardChange recomputes the canonical name when the name changes
func (w *Workflow) UpdateCardChange(ctx context.Context, id int64, patch CardPatch) (model.PendingCardChange, error) {
	const kind = model.PendingKindCard

	var result model.PendingCardChange
	err := w.provider.Transact(ctx, func(ctx context.Context) error {
		p, err := w.pendingRepo.LockPendingCard(ctx, id)
		if err != nil {
			return err
		}
		if !p.Valid || p.Change.Status != model.PendingStatusPending {
			return notFound(kind, id)
		}

		change := p.Change
		if patch.Name != nil {
			if change.Name, err = requiredString("name", patch.Name); err != nil {
				return err
			}
			change.CanonicalName = normalize.CanonicalKey(normalize.NormalizeCardName(change.Name))
		}
		if patch.CardType != nil {
			switch *patch.CardType {
			case model.CardTypeCredit, model.CardTypeDebit:
				change.CardType = *patch.CardType
			default:
				return apperr.NewValidationError("card_type", "must be credit or debit")
			}
		}
		if patch.CardNetwork != nil {
			change.CardNetwork = optionalString(patch.CardNetwork)
		}
		if patch.AnnualFee != nil {
			fee, err := checkAmount("annual_fee", patch.AnnualFee, model.MaxFee)
			if err != nil {
				return err
			}
			change.AnnualFee = decimal.NewNullDecimal(fee)
		}
		if patch.RewardType != nil {
			change.RewardType = optionalString(patch.RewardType)
		}
		if patch.BaseRewardRate != nil {
			rate, err := checkAmount("base_reward_rate", patch.BaseRewardRate, model.MaxRate)
			if err != nil {
				return err
			}
			change.BaseRewardRate = decimal.NewNullDecimal(rate)
		}

		if err := w.pendingRepo.UpdatePendingCard(ctx, change); err != nil {
			return err
		}
		result = change
		return nil
	})
	return result, err
}

// UpdateBrandChange ...
func (w *Workflow) UpdateBrandChange(ctx context.Context, id int64, patch BrandPatch) (model.PendingBrandChange, error) {
	const kind = model.PendingKindBrand

	var result model.PendingBrandChange
	err := w.provider.Transact(ctx, func(ctx context.Context) error {
		p, err := w.pendingRepo.LockPendingBrand(ctx, id)
		if err != nil {
			return err
		}
		if !p.Valid || p.Change.Status != model.PendingStatusPending {
			return notFound(kind, id)
		}

		change := p.Change
		if patch.Name != nil {
			if change.Name, err = requiredString("name", patch.Name); err != nil {
				return err
			}
		}
		if patch.Code != nil {
			code := normalize.BrandCode(*patch.Code)
			if code == "" {
				return apperr.NewValidationError("code", "must not be empty")
			}
			change.Code = code
		}
		if patch.Description != nil {
			change.Description = optionalString(patch.Description)
		}
		if patch.Keywords != nil {
			change.Keywords = cleanKeywords(patch.Keywords)
		}

		if err := w.pendingRepo.UpdatePendingBrand(ctx, change); err != nil {
			return err
		}
		result = change
		return nil
	})
	return result, err
}

// UpdateCampaign rejects dates that would put start_date after end_date
func (w *Workflow) UpdateCampaign(ctx context.Context, id int64, patch CampaignPatch) (model.PendingCampaign, error) {
	const kind = model.PendingKindCampaign

	var result model.PendingCampaign
	err := w.provider.Transact(ctx, func(ctx context.Context) error {
		p, err := w.pendingRepo.LockPendingCampaign(ctx, id)
		if err != nil {
			return err
		}
		if !p.Valid || p.Campaign.Status != model.PendingStatusPending {
			return notFound(kind, id)
		}

		change := p.Campaign
		if patch.BenefitRate != nil {
			rate, err := checkAmount("benefit_rate", patch.BenefitRate, model.MaxRate)
			if err != nil {
				return err
			}
			change.BenefitRate = rate
		}
		if patch.BenefitType != nil {
			if change.BenefitType, err = requiredString("benefit_type", patch.BenefitType); err != nil {
				return err
			}
		}
		if patch.Description != nil {
			change.Description = optionalString(patch.Description)
		}
		if patch.TermsURL != nil {
			change.TermsURL = optionalString(patch.TermsURL)
		}
		if patch.StartDate != nil {
			change.StartDate = model.DateOf(*patch.StartDate)
		}
		if patch.EndDate != nil {
			change.EndDate = model.DateOf(*patch.EndDate)
		}
		if change.StartDate.After(change.EndDate) {
			return apperr.NewValidationError("start_date", "must not be after end_date")
		}

		if err := w.pendingRepo.UpdatePendingCampaign(ctx, change); err != nil {
			return err
		}
		result = change
		return nil
	})
	return result, err
}
