package memrepo

import (
	"context"
	"fmt"
	"github.com/coolviki/paywise/model"
	"github.com/coolviki/paywise/pkg/apperr"
	"time"
)

func (d *data) activeBenefitTaken(b model.CardEcosystemBenefit) bool {
	if !b.IsActive {
		return false
	}
	for _, other := range d.benefits {
		if other.ID != b.ID && other.IsActive && other.CardID == b.CardID && other.BrandID == b.BrandID {
			return true
		}
	}
	return false
}

func (d *data) checkCardAndBrand(what string, cardID int64, brandID int64) error {
	if _, ok := d.cards[cardID]; !ok {
		return conflict(what, fmt.Sprintf("card %d does not exist", cardID))
	}
	if _, ok := d.brands[brandID]; !ok {
		return conflict(what, fmt.Sprintf("brand %d does not exist", brandID))
	}
	return nil
}

// FindActiveBenefit ...
func (s *Store) FindActiveBenefit(ctx context.Context, cardID int64, brandID int64) (model.NullBenefit, error) {
	defer s.read(ctx)()

	for _, b := range s.data.benefits {
		if b.CardID == cardID && b.BrandID == brandID && b.IsActive {
			return model.NullBenefit{Valid: true, Benefit: b}, nil
		}
	}
	return model.NullBenefit{}, nil
}

// ListBenefitsByCard ...
func (s *Store) ListBenefitsByCard(ctx context.Context, cardID int64) ([]model.CardEcosystemBenefit, error) {
	defer s.read(ctx)()

	var result []model.CardEcosystemBenefit
	for _, id := range sortedIDs(s.data.benefits, false) {
		if b := s.data.benefits[id]; b.CardID == cardID {
			result = append(result, b)
		}
	}
	return result, nil
}

// InsertBenefit ...
func (s *Store) InsertBenefit(ctx context.Context, benefit model.CardEcosystemBenefit) (int64, error) {
	defer s.write(ctx)()

	if err := s.data.checkCardAndBrand("insert ecosystem benefit", benefit.CardID, benefit.BrandID); err != nil {
		return 0, err
	}
	benefit.ID = 0
	if s.data.activeBenefitTaken(benefit) {
		return 0, apperr.AlreadyExists("insert ecosystem benefit", nil)
	}

	benefit.ID = s.data.nextID()
	benefit.CreatedAt = s.now()
	benefit.UpdatedAt = benefit.CreatedAt
	s.data.benefits[benefit.ID] = benefit
	return benefit.ID, nil
}

// UpdateBenefit ...
func (s *Store) UpdateBenefit(ctx context.Context, benefit model.CardEcosystemBenefit) error {
	defer s.write(ctx)()

	old, ok := s.data.benefits[benefit.ID]
	if !ok {
		return nil
	}
	benefit.CardID = old.CardID
	benefit.BrandID = old.BrandID
	if s.data.activeBenefitTaken(benefit) {
		return apperr.AlreadyExists("update ecosystem benefit", nil)
	}
	benefit.CreatedAt = old.CreatedAt
	benefit.UpdatedAt = s.now()
	s.data.benefits[benefit.ID] = benefit
	return nil
}

// DeleteBenefit ...
func (s *Store) DeleteBenefit(ctx context.Context, id int64) error {
	defer s.write(ctx)()

	delete(s.data.benefits, id)
	return nil
}

//------------------------------------------------
// Campaigns
//------------------------------------------------

func sameRange(aStart, aEnd, bStart, bEnd time.Time) bool {
	return model.DateOf(aStart).Equal(model.DateOf(bStart)) && model.DateOf(aEnd).Equal(model.DateOf(bEnd))
}

// FindCampaign ...
func (s *Store) FindCampaign(
	ctx context.Context, cardID int64, brandID int64, startDate time.Time, endDate time.Time,
) (model.NullCampaign, error) {
	defer s.read(ctx)()

	for _, id := range sortedIDs(s.data.campaigns, false) {
		c := s.data.campaigns[id]
		if c.CardID == cardID && c.BrandID == brandID && sameRange(c.StartDate, c.EndDate, startDate, endDate) {
			return model.NullCampaign{Valid: true, Campaign: c}, nil
		}
	}
	return model.NullCampaign{}, nil
}

// GetCampaign ...
func (s *Store) GetCampaign(ctx context.Context, id int64) (model.NullCampaign, error) {
	defer s.read(ctx)()

	c, ok := s.data.campaigns[id]
	return model.NullCampaign{Valid: ok, Campaign: c}, nil
}

// ListCampaignsByCard ...
func (s *Store) ListCampaignsByCard(ctx context.Context, cardID int64) ([]model.Campaign, error) {
	defer s.read(ctx)()

	var result []model.Campaign
	for _, id := range sortedIDs(s.data.campaigns, false) {
		if c := s.data.campaigns[id]; c.CardID == cardID {
			result = append(result, c)
		}
	}
	return result, nil
}

// InsertCampaign ...
func (s *Store) InsertCampaign(ctx context.Context, campaign model.Campaign) (int64, error) {
	defer s.write(ctx)()

	if err := s.data.checkCardAndBrand("insert campaign", campaign.CardID, campaign.BrandID); err != nil {
		return 0, err
	}

	campaign.ID = s.data.nextID()
	campaign.StartDate = model.DateOf(campaign.StartDate)
	campaign.EndDate = model.DateOf(campaign.EndDate)
	campaign.CreatedAt = s.now()
	campaign.UpdatedAt = campaign.CreatedAt
	s.data.campaigns[campaign.ID] = campaign
	return campaign.ID, nil
}

// UpdateCampaign ...
func (s *Store) UpdateCampaign(ctx context.Context, campaign model.Campaign) error {
	defer s.write(ctx)()

	old, ok := s.data.campaigns[campaign.ID]
	if !ok {
		return nil
	}
	campaign.CardID = old.CardID
	campaign.BrandID = old.BrandID
	campaign.StartDate = model.DateOf(campaign.StartDate)
	campaign.EndDate = model.DateOf(campaign.EndDate)
	campaign.CreatedAt = old.CreatedAt
	campaign.UpdatedAt = s.now()
	s.data.campaigns[campaign.ID] = campaign
	return nil
}

// DeleteCampaign ...
func (s *Store) DeleteCampaign(ctx context.Context, id int64) error {
	defer s.write(ctx)()

	delete(s.data.campaigns, id)
	for k, p := range s.data.pendingCampaigns {
		if p.ExistingCampaignID.Valid && p.ExistingCampaignID.Int64 == id {
			p.ExistingCampaignID.Valid = false
			p.ExistingCampaignID.Int64 = 0
			s.data.pendingCampaigns[k] = p
		}
	}
	return nil
}
