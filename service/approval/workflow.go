// Package approval promotes pending rows to production or discards them.
// A pending row moves to approved or rejected exactly once, a terminal row is
// reported as not found by every operation.
package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coolviki/paywise/model"
	"github.com/coolviki/paywise/pkg/apperr"
	"github.com/coolviki/paywise/pkg/metrics"
	"github.com/coolviki/paywise/pkg/otellib"
	"github.com/coolviki/paywise/repository"
	"go.uber.org/zap"
)

//go:generate otelwrap --out workflow_wrappers.go . IWorkflow

// IWorkflow ...
type IWorkflow interface {
	ListBenefitChanges(ctx context.Context, status model.PendingStatus) ([]model.PendingEcosystemChange, error)
	ListCardChanges(ctx context.Context, status model.PendingStatus) ([]model.PendingCardChange, error)
	ListBrandChanges(ctx context.Context, status model.PendingStatus) ([]model.PendingBrandChange, error)
	ListCampaigns(ctx context.Context, status model.PendingStatus) ([]model.PendingCampaign, error)

	GetBenefitChange(ctx context.Context, id int64) (model.PendingEcosystemChange, error)
	GetCardChange(ctx context.Context, id int64) (model.PendingCardChange, error)
	GetBrandChange(ctx context.Context, id int64) (model.PendingBrandChange, error)
	GetCampaign(ctx context.Context, id int64) (model.PendingCampaign, error)

	Approve(ctx context.Context, kind model.PendingKind, id int64, reviewer string) error
	Reject(ctx context.Context, kind model.PendingKind, id int64, reviewer string) error
	BulkApprove(ctx context.Context, kind model.PendingKind, ids []int64, reviewer string) BulkResult

	UpdateBenefitChange(ctx context.Context, id int64, patch BenefitPatch) (model.PendingEcosystemChange, error)
	UpdateCardChange(ctx context.Context, id int64, patch CardPatch) (model.PendingCardChange, error)
	UpdateBrandChange(ctx context.Context, id int64, patch BrandPatch) (model.PendingBrandChange, error)
	UpdateCampaign(ctx context.Context, id int64, patch CampaignPatch) (model.PendingCampaign, error)

	DeletePending(ctx context.Context, kind model.PendingKind, id int64) error
}

// BulkResult ...
type BulkResult struct {
	Approved int
	Failed   int
}

// Workflow ...
type Workflow struct {
	provider     repository.Provider
	catalogRepo  repository.Catalog
	benefitRepo  repository.Benefit
	campaignRepo repository.Campaign
	pendingRepo  repository.Pending

	now func() time.Time
}

var _ IWorkflow = &Workflow{}

// Option ...
type Option func(w *Workflow)

// WithNow overrides the clock used for reviewed_at
func WithNow(now func() time.Time) Option {
	return func(w *Workflow) {
		w.now = now
	}
}

// NewWorkflow ...
func NewWorkflow(
	provider repository.Provider,
	catalogRepo repository.Catalog,
	benefitRepo repository.Benefit,
	campaignRepo repository.Campaign,
	pendingRepo repository.Pending,
	options ...Option,
) *Workflow {
	w := &Workflow{
		provider:     provider,
		catalogRepo:  catalogRepo,
		benefitRepo:  benefitRepo,
		campaignRepo: campaignRepo,
		pendingRepo:  pendingRepo,

		now: time.Now,
	}
	for _, o := range options {
		o(w)
	}
	return w
}

func checkKind(kind model.PendingKind) error {
	for _, k := range model.PendingKinds {
		if k == kind {
			return nil
		}
	}
	return apperr.NewValidationError("kind", fmt.Sprintf("unknown pending kind %q", kind))
}

func notFound(kind model.PendingKind, id int64) error {
	return apperr.NewNotFoundError("pending "+string(kind), id)
}

func (w *Workflow) review(status model.PendingStatus, reviewer string) model.Review {
	return model.Review{
		Status:     status,
		ReviewedAt: w.now(),
		ReviewedBy: reviewer,
	}
}

// markReviewed finishes a transition, a row that is no longer pending is not found
func (w *Workflow) markReviewed(ctx context.Context, kind model.PendingKind, id int64, review model.Review) error {
	affected, err := w.pendingRepo.MarkReviewed(ctx, kind, id, review)
	if err != nil {
		return err
	}
	if !affected {
		return notFound(kind, id)
	}
	return nil
}

// missingTarget records an approval applied as a no-op because its production row is gone
func missingTarget(ctx context.Context, kind model.PendingKind, id int64, target string, targetID int64) {
	otellib.Extract(ctx).Warn("approval target is gone, applying as no-op",
		zap.String("kind", string(kind)),
		zap.Int64("id", id),
		zap.String("target", target),
		zap.Int64("target_id", targetID),
	)
	metrics.RecordMissingTarget(string(kind))
}

//------------------------------------------------
// Transitions
//------------------------------------------------

// Approve applies a pending row to production and marks it approved in one transaction
func (w *Workflow) Approve(ctx context.Context, kind model.PendingKind, id int64, reviewer string) error {
	if err := checkKind(kind); err != nil {
		return err
	}

	review := w.review(model.PendingStatusApproved, reviewer)
	err := w.provider.Transact(ctx, func(ctx context.Context) error {
		switch kind {
		case model.PendingKindBenefit:
			return w.approveBenefit(ctx, id, review)
		case model.PendingKindCard:
			return w.approveCard(ctx, id, review)
		case model.PendingKindBrand:
			return w.approveBrand(ctx, id, review)
		default:
			return w.approveCampaign(ctx, id, review)
		}
	})
	if err != nil {
		return err
	}

	otellib.Extract(ctx).Info("approved pending change",
		zap.String("kind", string(kind)), zap.Int64("id", id), zap.String("reviewer", reviewer))
	metrics.RecordReview(string(kind), string(model.PendingStatusApproved))
	return nil
}

// Reject marks a pending row rejected without touching production
func (w *Workflow) Reject(ctx context.Context, kind model.PendingKind, id int64, reviewer string) error {
	if err := checkKind(kind); err != nil {
		return err
	}

	review := w.review(model.PendingStatusRejected, reviewer)
	err := w.provider.Transact(ctx, func(ctx context.Context) error {
		return w.markReviewed(ctx, kind, id, review)
	})
	if err != nil {
		return err
	}

	otellib.Extract(ctx).Info("rejected pending change",
		zap.String("kind", string(kind)), zap.Int64("id", id), zap.String("reviewer", reviewer))
	metrics.RecordReview(string(kind), string(model.PendingStatusRejected))
	return nil
}

// BulkApprove approves every id independently, one failure never blocks the others
func (w *Workflow) BulkApprove(ctx context.Context, kind model.PendingKind, ids []int64, reviewer string) BulkResult {
	var result BulkResult
	for _, id := range ids {
		if err := w.Approve(ctx, kind, id, reviewer); err != nil {
			otellib.Extract(ctx).Warn("bulk approve failed",
				zap.String("kind", string(kind)), zap.Int64("id", id), zap.Error(err))
			result.Failed++
			continue
		}
		result.Approved++
	}
	return result
}

// DeletePending discards a row that is still pending, no audit trail is kept
func (w *Workflow) DeletePending(ctx context.Context, kind model.PendingKind, id int64) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	return w.provider.Transact(ctx, func(ctx context.Context) error {
		affected, err := w.pendingRepo.DeletePending(ctx, kind, id)
		if err != nil {
			return err
		}
		if !affected {
			return notFound(kind, id)
		}
		return nil
	})
}

//------------------------------------------------
// Locking
//------------------------------------------------

// lockCard takes the card row lock that orders approvals against merges
func (w *Workflow) lockCard(ctx context.Context, cardID int64) (bool, error) {
	nullCard, err := w.catalogRepo.LockCard(ctx, cardID)
	if err != nil {
		return false, err
	}
	return nullCard.Valid, nil
}

// maxLockAttempts bounds the retries when a merge re-points a row between reading and locking it
const maxLockAttempts = 3

var errRowMoved = errors.New("pending row moved to another card while locking")

// lockWithCard locks the card a pending row references and then the row itself.
// cardOf reads the referenced card id, lock locks the row and returns its card id.
func (w *Workflow) lockWithCard(
	ctx context.Context, kind model.PendingKind, id int64,
	cardOf func(ctx context.Context) (int64, bool, error),
	lock func(ctx context.Context) (int64, bool, error),
) error {
	for attempt := 0; attempt < maxLockAttempts; attempt++ {
		cardID, ok, err := cardOf(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(kind, id)
		}
		if cardID != 0 {
			if _, err := w.lockCard(ctx, cardID); err != nil {
				return err
			}
		}

		lockedCardID, ok, err := lock(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(kind, id)
		}
		if lockedCardID == cardID {
			return nil
		}
	}
	return fmt.Errorf("lock pending %s %d: %w", kind, id, errRowMoved)
}

//------------------------------------------------
// Benefits
//------------------------------------------------

func (w *Workflow) approveBenefit(ctx context.Context, id int64, review model.Review) error {
	const kind = model.PendingKindBenefit

	var change model.PendingEcosystemChange
	err := w.lockWithCard(ctx, kind, id,
		func(ctx context.Context) (int64, bool, error) {
			p, err := w.pendingRepo.GetPendingBenefit(ctx, id)
			ok := p.Valid && p.Change.Status == model.PendingStatusPending
			return p.Change.CardID, ok, err
		},
		func(ctx context.Context) (int64, bool, error) {
			p, err := w.pendingRepo.LockPendingBenefit(ctx, id)
			change = p.Change
			ok := p.Valid && p.Change.Status == model.PendingStatusPending
			return p.Change.CardID, ok, err
		},
	)
	if err != nil {
		return err
	}

	existing, err := w.benefitRepo.FindActiveBenefit(ctx, change.CardID, change.BrandID)
	if err != nil {
		return err
	}

	switch change.ChangeType {
	case model.ChangeTypeNew:
		if existing.Valid {
			return apperr.AlreadyExists(fmt.Sprintf("benefit of card %d at brand %d", change.CardID, change.BrandID), nil)
		}
		_, err := w.benefitRepo.InsertBenefit(ctx, model.CardEcosystemBenefit{
			CardID:      change.CardID,
			BrandID:     change.BrandID,
			BenefitRate: change.BenefitRate,
			BenefitType: change.BenefitType,
			Description: change.Description,
			IsActive:    true,
		})
		if err != nil {
			return err
		}

	case model.ChangeTypeUpdate:
		if !existing.Valid {
			missingTarget(ctx, kind, id, "benefit", change.CardID)
			break
		}
		benefit := existing.Benefit
		benefit.BenefitRate = change.BenefitRate
		benefit.BenefitType = change.BenefitType
		benefit.Description = change.Description
		if err := w.benefitRepo.UpdateBenefit(ctx, benefit); err != nil {
			return err
		}

	case model.ChangeTypeDelete:
		if !existing.Valid {
			missingTarget(ctx, kind, id, "benefit", change.CardID)
			break
		}
		if err := w.benefitRepo.DeleteBenefit(ctx, existing.Benefit.ID); err != nil {
			return err
		}
	}

	return w.markReviewed(ctx, kind, id, review)
}

//------------------------------------------------
// Cards
//------------------------------------------------

func (w *Workflow) approveCard(ctx context.Context, id int64, review model.Review) error {
	const kind = model.PendingKindCard

	var change model.PendingCardChange
	err := w.lockWithCard(ctx, kind, id,
		func(ctx context.Context) (int64, bool, error) {
			p, err := w.pendingRepo.GetPendingCard(ctx, id)
			ok := p.Valid && p.Change.Status == model.PendingStatusPending
			return p.Change.ExistingCardID.Int64, ok, err
		},
		func(ctx context.Context) (int64, bool, error) {
			p, err := w.pendingRepo.LockPendingCard(ctx, id)
			change = p.Change
			ok := p.Valid && p.Change.Status == model.PendingStatusPending
			return p.Change.ExistingCardID.Int64, ok, err
		},
	)
	if err != nil {
		return err
	}

	switch change.ChangeType {
	case model.ChangeTypeNew:
		_, err := w.catalogRepo.InsertCard(ctx, model.Card{
			BankID:         change.BankID,
			Name:           change.Name,
			CardType:       change.CardType,
			CardNetwork:    change.CardNetwork,
			AnnualFee:      change.AnnualFee,
			RewardType:     change.RewardType,
			BaseRewardRate: change.BaseRewardRate,
			IsActive:       true,
		})
		if err != nil {
			return err
		}

	case model.ChangeTypeUpdate, model.ChangeTypeDelete:
		var existing model.NullCard
		if change.ExistingCardID.Valid {
			existing, err = w.catalogRepo.GetCard(ctx, change.ExistingCardID.Int64)
			if err != nil {
				return err
			}
		}
		if !existing.Valid {
			missingTarget(ctx, kind, id, "card", change.ExistingCardID.Int64)
			break
		}

		if change.ChangeType == model.ChangeTypeDelete {
			if err := w.catalogRepo.DeleteCard(ctx, existing.Card.ID); err != nil {
				return err
			}
			break
		}

		card := existing.Card
		card.Name = change.Name
		card.CardType = change.CardType
		card.CardNetwork = change.CardNetwork
		card.AnnualFee = change.AnnualFee
		card.RewardType = change.RewardType
		card.BaseRewardRate = change.BaseRewardRate
		if err := w.catalogRepo.UpdateCard(ctx, card); err != nil {
			return err
		}
	}

	return w.markReviewed(ctx, kind, id, review)
}

//------------------------------------------------
// Brands
//------------------------------------------------

func (w *Workflow) approveBrand(ctx context.Context, id int64, review model.Review) error {
	const kind = model.PendingKindBrand

	nullChange, err := w.pendingRepo.LockPendingBrand(ctx, id)
	if err != nil {
		return err
	}
	if !nullChange.Valid || nullChange.Change.Status != model.PendingStatusPending {
		return notFound(kind, id)
	}
	change := nullChange.Change

	switch change.ChangeType {
	case model.ChangeTypeNew:
		byCode, err := w.catalogRepo.GetBrandByCode(ctx, change.Code)
		if err != nil {
			return err
		}
		if byCode.Valid {
			return apperr.AlreadyExists("brand "+change.Code, nil)
		}

		brandID, err := w.catalogRepo.InsertBrand(ctx, model.Brand{
			Name:        change.Name,
			Code:        change.Code,
			Description: change.Description,
			IsActive:    true,
		})
		if err != nil {
			return err
		}
		if err := w.catalogRepo.InsertBrandKeywords(ctx, brandID, cleanKeywords(change.Keywords)); err != nil {
			return err
		}

	case model.ChangeTypeUpdate, model.ChangeTypeDelete:
		var existing model.NullBrand
		if change.ExistingBrandID.Valid {
			existing, err = w.catalogRepo.GetBrand(ctx, change.ExistingBrandID.Int64)
			if err != nil {
				return err
			}
		}
		if !existing.Valid {
			missingTarget(ctx, kind, id, "brand", change.ExistingBrandID.Int64)
			break
		}

		brand := existing.Brand
		if change.ChangeType == model.ChangeTypeDelete {
			// benefits and campaigns keep referencing the brand
			brand.IsActive = false
			if err := w.catalogRepo.UpdateBrand(ctx, brand); err != nil {
				return err
			}
			break
		}

		brand.Name = change.Name
		brand.Code = change.Code
		brand.Description = change.Description
		if err := w.catalogRepo.UpdateBrand(ctx, brand); err != nil {
			return err
		}
		if err := w.addKeywords(ctx, brand.ID, change.Keywords); err != nil {
			return err
		}
	}

	return w.markReviewed(ctx, kind, id, review)
}

// addKeywords inserts the keywords the brand does not have yet
func (w *Workflow) addKeywords(ctx context.Context, brandID int64, keywords []string) error {
	all, err := w.catalogRepo.ListBrandKeywords(ctx)
	if err != nil {
		return err
	}
	existing := map[string]struct{}{}
	for _, k := range all {
		if k.BrandID == brandID {
			existing[k.Keyword] = struct{}{}
		}
	}

	var missing []string
	for _, k := range cleanKeywords(keywords) {
		if _, ok := existing[k]; !ok {
			missing = append(missing, k)
		}
	}
	return w.catalogRepo.InsertBrandKeywords(ctx, brandID, missing)
}

//------------------------------------------------
// Campaigns
//------------------------------------------------

func (w *Workflow) approveCampaign(ctx context.Context, id int64, review model.Review) error {
	const kind = model.PendingKindCampaign

	var change model.PendingCampaign
	err := w.lockWithCard(ctx, kind, id,
		func(ctx context.Context) (int64, bool, error) {
			p, err := w.pendingRepo.GetPendingCampaign(ctx, id)
			ok := p.Valid && p.Campaign.Status == model.PendingStatusPending
			return p.Campaign.CardID, ok, err
		},
		func(ctx context.Context) (int64, bool, error) {
			p, err := w.pendingRepo.LockPendingCampaign(ctx, id)
			change = p.Campaign
			ok := p.Valid && p.Campaign.Status == model.PendingStatusPending
			return p.Campaign.CardID, ok, err
		},
	)
	if err != nil {
		return err
	}

	switch change.ChangeType {
	case model.ChangeTypeNew:
		same, err := w.campaignRepo.FindCampaign(ctx, change.CardID, change.BrandID, change.StartDate, change.EndDate)
		if err != nil {
			return err
		}
		if same.Valid {
			return apperr.AlreadyExists(fmt.Sprintf("campaign %d", same.Campaign.ID), nil)
		}
		_, err = w.campaignRepo.InsertCampaign(ctx, model.Campaign{
			CardID:      change.CardID,
			BrandID:     change.BrandID,
			BenefitRate: change.BenefitRate,
			BenefitType: change.BenefitType,
			Description: change.Description,
			TermsURL:    change.TermsURL,
			StartDate:   change.StartDate,
			EndDate:     change.EndDate,
			IsActive:    true,
		})
		if err != nil {
			return err
		}

	case model.ChangeTypeUpdate, model.ChangeTypeDelete:
		var existing model.NullCampaign
		if change.ExistingCampaignID.Valid {
			existing, err = w.campaignRepo.GetCampaign(ctx, change.ExistingCampaignID.Int64)
			if err != nil {
				return err
			}
		}
		if !existing.Valid {
			missingTarget(ctx, kind, id, "campaign", change.ExistingCampaignID.Int64)
			break
		}

		if change.ChangeType == model.ChangeTypeDelete {
			if err := w.campaignRepo.DeleteCampaign(ctx, existing.Campaign.ID); err != nil {
				return err
			}
			break
		}

		campaign := existing.Campaign
		campaign.BenefitRate = change.BenefitRate
		campaign.BenefitType = change.BenefitType
		campaign.Description = change.Description
		campaign.TermsURL = change.TermsURL
		campaign.StartDate = change.StartDate
		campaign.EndDate = change.EndDate
		if err := w.campaignRepo.UpdateCampaign(ctx, campaign); err != nil {
			return err
		}
	}

	return w.markReviewed(ctx, kind, id, review)
}
