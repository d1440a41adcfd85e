package memrepo

import (
	"context"
	"github.com/coolviki/paywise/model"
	"github.com/coolviki/paywise/repository"
)

// RepointCard ...
func (s *Store) RepointCard(
	ctx context.Context, fromID int64, toID int64, review model.Review,
) (repository.RepointResult, error) {
	defer s.write(ctx)()

	var result repository.RepointResult
	d := s.data
	status, at, by := reviewed(review)

	for id, b := range d.benefits {
		if b.CardID != fromID || !b.IsActive {
			continue
		}
		for _, k := range d.benefits {
			if k.CardID == toID && k.BrandID == b.BrandID && k.IsActive {
				b.IsActive = false
				d.benefits[id] = b
				result.BenefitsDeactivated++
				break
			}
		}
	}

	for id, p := range d.pendingBenefits {
		if p.CardID != fromID || !isPending(p.Status) {
			continue
		}
		if _, ok := d.findPendingBenefit(toID, p.BrandID, 0); ok {
			p.Status, p.ReviewedAt, p.ReviewedBy = status, at, by
			d.pendingBenefits[id] = p
			result.PendingRejected++
		}
	}

	for id, p := range d.pendingCampaigns {
		if p.CardID != fromID || !isPending(p.Status) {
			continue
		}
		if _, ok := d.findPendingCampaign(toID, p.BrandID, p.StartDate, p.EndDate, 0); ok {
			p.Status, p.ReviewedAt, p.ReviewedBy = status, at, by
			d.pendingCampaigns[id] = p
			result.PendingRejected++
		}
	}

	for id, b := range d.benefits {
		if b.CardID == fromID {
			b.CardID = toID
			d.benefits[id] = b
			result.BenefitsMoved++
		}
	}
	for id, c := range d.campaigns {
		if c.CardID == fromID {
			c.CardID = toID
			d.campaigns[id] = c
			result.CampaignsMoved++
		}
	}
	for id, p := range d.pendingBenefits {
		if p.CardID == fromID {
			p.CardID = toID
			d.pendingBenefits[id] = p
			result.PendingBenefitsMoved++
		}
	}
	for id, p := range d.pendingCampaigns {
		if p.CardID == fromID {
			p.CardID = toID
			d.pendingCampaigns[id] = p
			result.PendingCampaignsMoved++
		}
	}
	for id, p := range d.pendingCards {
		if p.ExistingCardID.Valid && p.ExistingCardID.Int64 == fromID {
			p.ExistingCardID.Int64 = toID
			d.pendingCards[id] = p
			result.PendingCardsMoved++
		}
	}

	delete(d.cards, fromID)
	return result, nil
}
