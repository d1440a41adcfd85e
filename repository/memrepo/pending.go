package memrepo

import (
	"context"
	"database/sql"
	"fmt"
	"github.com/coolviki/paywise/model"
	"github.com/coolviki/paywise/pkg/apperr"
	"time"
)

func statusMatches(filter model.PendingStatus, status model.PendingStatus) bool {
	return filter == "" || filter == status
}

func isPending(status model.PendingStatus) bool {
	return status == model.PendingStatusPending
}

//------------------------------------------------
// Ecosystem changes
//------------------------------------------------

func (d *data) findPendingBenefit(cardID int64, brandID int64, exceptID int64) (model.PendingEcosystemChange, bool) {
	for _, p := range d.pendingBenefits {
		if p.ID != exceptID && isPending(p.Status) && p.CardID == cardID && p.BrandID == brandID {
			return p, true
		}
	}
	return model.PendingEcosystemChange{}, false
}

// FindPendingBenefit ...
func (s *Store) FindPendingBenefit(
	ctx context.Context, cardID int64, brandID int64,
) (model.NullPendingEcosystemChange, error) {
	defer s.read(ctx)()

	p, ok := s.data.findPendingBenefit(cardID, brandID, 0)
	return model.NullPendingEcosystemChange{Valid: ok, Change: p}, nil
}

// GetPendingBenefit ...
func (s *Store) GetPendingBenefit(ctx context.Context, id int64) (model.NullPendingEcosystemChange, error) {
	defer s.read(ctx)()

	p, ok := s.data.pendingBenefits[id]
	return model.NullPendingEcosystemChange{Valid: ok, Change: p}, nil
}

// LockPendingBenefit ...
func (s *Store) LockPendingBenefit(ctx context.Context, id int64) (model.NullPendingEcosystemChange, error) {
	defer s.write(ctx)()

	p, ok := s.data.pendingBenefits[id]
	return model.NullPendingEcosystemChange{Valid: ok, Change: p}, nil
}

// ListPendingBenefits ...
func (s *Store) ListPendingBenefits(
	ctx context.Context, status model.PendingStatus,
) ([]model.PendingEcosystemChange, error) {
	defer s.read(ctx)()

	var result []model.PendingEcosystemChange
	for _, id := range sortedIDs(s.data.pendingBenefits, true) {
		if p := s.data.pendingBenefits[id]; statusMatches(status, p.Status) {
			result = append(result, p)
		}
	}
	return result, nil
}

// InsertPendingBenefit ...
func (s *Store) InsertPendingBenefit(ctx context.Context, change model.PendingEcosystemChange) (int64, error) {
	defer s.write(ctx)()

	const what = "insert pending ecosystem change"
	if err := s.data.checkCardAndBrand(what, change.CardID, change.BrandID); err != nil {
		return 0, err
	}
	if isPending(change.Status) {
		if _, ok := s.data.findPendingBenefit(change.CardID, change.BrandID, 0); ok {
			return 0, apperr.AlreadyExists(what, nil)
		}
	}

	change.ID = s.data.nextID()
	s.data.pendingBenefits[change.ID] = change
	return change.ID, nil
}

// UpdatePendingBenefit ...
func (s *Store) UpdatePendingBenefit(ctx context.Context, change model.PendingEcosystemChange) error {
	defer s.write(ctx)()

	old, ok := s.data.pendingBenefits[change.ID]
	if !ok || !isPending(old.Status) {
		return nil
	}
	old.BenefitRate = change.BenefitRate
	old.BenefitType = change.BenefitType
	old.Description = change.Description
	s.data.pendingBenefits[change.ID] = old
	return nil
}

//------------------------------------------------
// Card changes
//------------------------------------------------

func (d *data) findPendingCard(bankID int64, canonicalName string, exceptID int64) (model.PendingCardChange, bool) {
	for _, p := range d.pendingCards {
		if p.ID != exceptID && isPending(p.Status) && p.BankID == bankID && p.CanonicalName == canonicalName {
			return p, true
		}
	}
	return model.PendingCardChange{}, false
}

// FindPendingCard ...
func (s *Store) FindPendingCard(
	ctx context.Context, bankID int64, canonicalName string,
) (model.NullPendingCardChange, error) {
	defer s.read(ctx)()

	p, ok := s.data.findPendingCard(bankID, canonicalName, 0)
	return model.NullPendingCardChange{Valid: ok, Change: p}, nil
}

// GetPendingCard ...
func (s *Store) GetPendingCard(ctx context.Context, id int64) (model.NullPendingCardChange, error) {
	defer s.read(ctx)()

	p, ok := s.data.pendingCards[id]
	return model.NullPendingCardChange{Valid: ok, Change: p}, nil
}

// LockPendingCard ...
func (s *Store) LockPendingCard(ctx context.Context, id int64) (model.NullPendingCardChange, error) {
	defer s.write(ctx)()

	p, ok := s.data.pendingCards[id]
	return model.NullPendingCardChange{Valid: ok, Change: p}, nil
}

// ListPendingCards ...
func (s *Store) ListPendingCards(ctx context.Context, status model.PendingStatus) ([]model.PendingCardChange, error) {
	defer s.read(ctx)()

	var result []model.PendingCardChange
	for _, id := range sortedIDs(s.data.pendingCards, true) {
		if p := s.data.pendingCards[id]; statusMatches(status, p.Status) {
			result = append(result, p)
		}
	}
	return result, nil
}

// InsertPendingCard ...
func (s *Store) InsertPendingCard(ctx context.Context, change model.PendingCardChange) (int64, error) {
	defer s.write(ctx)()

	const what = "insert pending card change"
	if _, ok := s.data.banks[change.BankID]; !ok {
		return 0, conflict(what, fmt.Sprintf("bank %d does not exist", change.BankID))
	}
	if change.ExistingCardID.Valid {
		if _, ok := s.data.cards[change.ExistingCardID.Int64]; !ok {
			return 0, conflict(what, fmt.Sprintf("card %d does not exist", change.ExistingCardID.Int64))
		}
	}
	if isPending(change.Status) {
		if _, ok := s.data.findPendingCard(change.BankID, change.CanonicalName, 0); ok {
			return 0, apperr.AlreadyExists(what, nil)
		}
	}

	change.ID = s.data.nextID()
	s.data.pendingCards[change.ID] = change
	return change.ID, nil
}

// UpdatePendingCard ...
func (s *Store) UpdatePendingCard(ctx context.Context, change model.PendingCardChange) error {
	defer s.write(ctx)()

	old, ok := s.data.pendingCards[change.ID]
	if !ok || !isPending(old.Status) {
		return nil
	}
	if _, taken := s.data.findPendingCard(old.BankID, change.CanonicalName, old.ID); taken {
		return apperr.AlreadyExists("update pending card change", nil)
	}
	old.Name = change.Name
	old.CanonicalName = change.CanonicalName
	old.CardType = change.CardType
	old.CardNetwork = change.CardNetwork
	old.AnnualFee = change.AnnualFee
	old.RewardType = change.RewardType
	old.BaseRewardRate = change.BaseRewardRate
	s.data.pendingCards[change.ID] = old
	return nil
}

//------------------------------------------------
// Brand changes
//------------------------------------------------

func (d *data) findPendingBrand(code string, exceptID int64) (model.PendingBrandChange, bool) {
	for _, p := range d.pendingBrands {
		if p.ID != exceptID && isPending(p.Status) && p.Code == code {
			return p, true
		}
	}
	return model.PendingBrandChange{}, false
}

// FindPendingBrand ...
func (s *Store) FindPendingBrand(ctx context.Context, code string) (model.NullPendingBrandChange, error) {
	defer s.read(ctx)()

	p, ok := s.data.findPendingBrand(code, 0)
	return model.NullPendingBrandChange{Valid: ok, Change: p}, nil
}

// GetPendingBrand ...
func (s *Store) GetPendingBrand(ctx context.Context, id int64) (model.NullPendingBrandChange, error) {
	defer s.read(ctx)()

	p, ok := s.data.pendingBrands[id]
	return model.NullPendingBrandChange{Valid: ok, Change: p}, nil
}

// LockPendingBrand ...
func (s *Store) LockPendingBrand(ctx context.Context, id int64) (model.NullPendingBrandChange, error) {
	defer s.write(ctx)()

	p, ok := s.data.pendingBrands[id]
	return model.NullPendingBrandChange{Valid: ok, Change: p}, nil
}

// ListPendingBrands ...
func (s *Store) ListPendingBrands(
	ctx context.Context, status model.PendingStatus,
) ([]model.PendingBrandChange, error) {
	defer s.read(ctx)()

	var result []model.PendingBrandChange
	for _, id := range sortedIDs(s.data.pendingBrands, true) {
		if p := s.data.pendingBrands[id]; statusMatches(status, p.Status) {
			result = append(result, p)
		}
	}
	return result, nil
}

// InsertPendingBrand ...
func (s *Store) InsertPendingBrand(ctx context.Context, change model.PendingBrandChange) (int64, error) {
	defer s.write(ctx)()

	const what = "insert pending brand change"
	if change.ExistingBrandID.Valid {
		if _, ok := s.data.brands[change.ExistingBrandID.Int64]; !ok {
			return 0, conflict(what, fmt.Sprintf("brand %d does not exist", change.ExistingBrandID.Int64))
		}
	}
	if isPending(change.Status) {
		if _, ok := s.data.findPendingBrand(change.Code, 0); ok {
			return 0, apperr.AlreadyExists(what, nil)
		}
	}

	change.ID = s.data.nextID()
	change.Keywords = append(model.KeywordList(nil), change.Keywords...)
	s.data.pendingBrands[change.ID] = change
	return change.ID, nil
}

// UpdatePendingBrand ...
func (s *Store) UpdatePendingBrand(ctx context.Context, change model.PendingBrandChange) error {
	defer s.write(ctx)()

	old, ok := s.data.pendingBrands[change.ID]
	if !ok || !isPending(old.Status) {
		return nil
	}
	if _, taken := s.data.findPendingBrand(change.Code, old.ID); taken {
		return apperr.AlreadyExists("update pending brand change", nil)
	}
	old.Name = change.Name
	old.Code = change.Code
	old.Description = change.Description
	old.Keywords = append(model.KeywordList(nil), change.Keywords...)
	s.data.pendingBrands[change.ID] = old
	return nil
}

//------------------------------------------------
// Campaigns
//------------------------------------------------

func (d *data) findPendingCampaign(
	cardID int64, brandID int64, start time.Time, end time.Time, exceptID int64,
) (model.PendingCampaign, bool) {
	for _, p := range d.pendingCampaigns {
		if p.ID != exceptID && isPending(p.Status) && p.CardID == cardID && p.BrandID == brandID &&
			sameRange(p.StartDate, p.EndDate, start, end) {
			return p, true
		}
	}
	return model.PendingCampaign{}, false
}

// FindPendingCampaign ...
func (s *Store) FindPendingCampaign(
	ctx context.Context, cardID int64, brandID int64, startDate time.Time, endDate time.Time,
) (model.NullPendingCampaign, error) {
	defer s.read(ctx)()

	p, ok := s.data.findPendingCampaign(cardID, brandID, startDate, endDate, 0)
	return model.NullPendingCampaign{Valid: ok, Campaign: p}, nil
}

// GetPendingCampaign ...
func (s *Store) GetPendingCampaign(ctx context.Context, id int64) (model.NullPendingCampaign, error) {
	defer s.read(ctx)()

	p, ok := s.data.pendingCampaigns[id]
	return model.NullPendingCampaign{Valid: ok, Campaign: p}, nil
}

// LockPendingCampaign ...
func (s *Store) LockPendingCampaign(ctx context.Context, id int64) (model.NullPendingCampaign, error) {
	defer s.write(ctx)()

	p, ok := s.data.pendingCampaigns[id]
	return model.NullPendingCampaign{Valid: ok, Campaign: p}, nil
}

// ListPendingCampaigns ...
func (s *Store) ListPendingCampaigns(
	ctx context.Context, status model.PendingStatus,
) ([]model.PendingCampaign, error) {
	defer s.read(ctx)()

	var result []model.PendingCampaign
	for _, id := range sortedIDs(s.data.pendingCampaigns, true) {
		if p := s.data.pendingCampaigns[id]; statusMatches(status, p.Status) {
			result = append(result, p)
		}
	}
	return result, nil
}

// InsertPendingCampaign ...
func (s *Store) InsertPendingCampaign(ctx context.Context, campaign model.PendingCampaign) (int64, error) {
	defer s.write(ctx)()

	const what = "insert pending campaign"
	if err := s.data.checkCardAndBrand(what, campaign.CardID, campaign.BrandID); err != nil {
		return 0, err
	}
	if isPending(campaign.Status) {
		_, ok := s.data.findPendingCampaign(campaign.CardID, campaign.BrandID, campaign.StartDate, campaign.EndDate, 0)
		if ok {
			return 0, apperr.AlreadyExists(what, nil)
		}
	}

	campaign.ID = s.data.nextID()
	campaign.StartDate = model.DateOf(campaign.StartDate)
	campaign.EndDate = model.DateOf(campaign.EndDate)
	s.data.pendingCampaigns[campaign.ID] = campaign
	return campaign.ID, nil
}

// UpdatePendingCampaign ...
func (s *Store) UpdatePendingCampaign(ctx context.Context, campaign model.PendingCampaign) error {
	defer s.write(ctx)()

	old, ok := s.data.pendingCampaigns[campaign.ID]
	if !ok || !isPending(old.Status) {
		return nil
	}
	_, taken := s.data.findPendingCampaign(old.CardID, old.BrandID, campaign.StartDate, campaign.EndDate, old.ID)
	if taken {
		return apperr.AlreadyExists("update pending campaign", nil)
	}
	old.BenefitRate = campaign.BenefitRate
	old.BenefitType = campaign.BenefitType
	old.Description = campaign.Description
	old.TermsURL = campaign.TermsURL
	old.StartDate = model.DateOf(campaign.StartDate)
	old.EndDate = model.DateOf(campaign.EndDate)
	s.data.pendingCampaigns[campaign.ID] = old
	return nil
}

//------------------------------------------------
// Status transitions
//------------------------------------------------

func reviewed(review model.Review) (model.PendingStatus, sql.NullTime, sql.NullString) {
	return review.Status,
		sql.NullTime{Valid: true, Time: review.ReviewedAt},
		sql.NullString{Valid: true, String: review.ReviewedBy}
}

// MarkReviewed ...
func (s *Store) MarkReviewed(ctx context.Context, kind model.PendingKind, id int64, review model.Review) (bool, error) {
	defer s.write(ctx)()

	status, at, by := reviewed(review)
	switch kind {
	case model.PendingKindBenefit:
		p, ok := s.data.pendingBenefits[id]
		if !ok || !isPending(p.Status) {
			return false, nil
		}
		p.Status, p.ReviewedAt, p.ReviewedBy = status, at, by
		s.data.pendingBenefits[id] = p

	case model.PendingKindBrand:
		p, ok := s.data.pendingBrands[id]
		if !ok || !isPending(p.Status) {
			return false, nil
		}
		p.Status, p.ReviewedAt, p.ReviewedBy = status, at, by
		s.data.pendingBrands[id] = p

	case model.PendingKindCard:
		p, ok := s.data.pendingCards[id]
		if !ok || !isPending(p.Status) {
			return false, nil
		}
		p.Status, p.ReviewedAt, p.ReviewedBy = status, at, by
		s.data.pendingCards[id] = p

	case model.PendingKindCampaign:
		p, ok := s.data.pendingCampaigns[id]
		if !ok || !isPending(p.Status) {
			return false, nil
		}
		p.Status, p.ReviewedAt, p.ReviewedBy = status, at, by
		s.data.pendingCampaigns[id] = p

	default:
		panic(fmt.Sprintf("unknown pending kind %q", kind))
	}
	return true, nil
}

func deleteIfPending[T any](m map[int64]T, id int64, status func(T) model.PendingStatus) bool {
	p, ok := m[id]
	if !ok || !isPending(status(p)) {
		return false
	}
	delete(m, id)
	return true
}

// DeletePending ...
func (s *Store) DeletePending(ctx context.Context, kind model.PendingKind, id int64) (bool, error) {
	defer s.write(ctx)()

	switch kind {
	case model.PendingKindBenefit:
		return deleteIfPending(s.data.pendingBenefits, id,
			func(p model.PendingEcosystemChange) model.PendingStatus { return p.Status }), nil
	case model.PendingKindBrand:
		return deleteIfPending(s.data.pendingBrands, id,
			func(p model.PendingBrandChange) model.PendingStatus { return p.Status }), nil
	case model.PendingKindCard:
		return deleteIfPending(s.data.pendingCards, id,
			func(p model.PendingCardChange) model.PendingStatus { return p.Status }), nil
	case model.PendingKindCampaign:
		return deleteIfPending(s.data.pendingCampaigns, id,
			func(p model.PendingCampaign) model.PendingStatus { return p.Status }), nil
	default:
		panic(fmt.Sprintf("unknown pending kind %q", kind))
	}
}
