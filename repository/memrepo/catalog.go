package memrepo

import (
	"context"
	"fmt"
	"github.com/coolviki/paywise/model"
	"github.com/coolviki/paywise/pkg/apperr"
)

func conflict(what string, detail string) error {
	return fmt.Errorf("%s: %w: %s", what, apperr.ErrConflict, detail)
}

// ListBanks ...
func (s *Store) ListBanks(ctx context.Context) ([]model.Bank, error) {
	defer s.read(ctx)()

	var result []model.Bank
	for _, id := range sortedIDs(s.data.banks, false) {
		result = append(result, s.data.banks[id])
	}
	return result, nil
}

// GetBankByCode ...
func (s *Store) GetBankByCode(ctx context.Context, code string) (model.NullBank, error) {
	defer s.read(ctx)()

	for _, b := range s.data.banks {
		if b.Code == code {
			return model.NullBank{Valid: true, Bank: b}, nil
		}
	}
	return model.NullBank{}, nil
}

// ListCards ...
func (s *Store) ListCards(ctx context.Context) ([]model.Card, error) {
	defer s.read(ctx)()

	var result []model.Card
	for _, id := range sortedIDs(s.data.cards, false) {
		result = append(result, s.data.cards[id])
	}
	return result, nil
}

// GetCard ...
func (s *Store) GetCard(ctx context.Context, id int64) (model.NullCard, error) {
	defer s.read(ctx)()

	card, ok := s.data.cards[id]
	return model.NullCard{Valid: ok, Card: card}, nil
}

// LockCard ...
func (s *Store) LockCard(ctx context.Context, id int64) (model.NullCard, error) {
	defer s.write(ctx)()

	card, ok := s.data.cards[id]
	return model.NullCard{Valid: ok, Card: card}, nil
}

// InsertCard ...
func (s *Store) InsertCard(ctx context.Context, card model.Card) (int64, error) {
	defer s.write(ctx)()

	if _, ok := s.data.banks[card.BankID]; !ok {
		return 0, conflict("insert card", fmt.Sprintf("bank %d does not exist", card.BankID))
	}

	card.ID = s.data.nextID()
	card.CreatedAt = s.now()
	card.UpdatedAt = card.CreatedAt
	s.data.cards[card.ID] = card
	return card.ID, nil
}

// UpdateCard ...
func (s *Store) UpdateCard(ctx context.Context, card model.Card) error {
	defer s.write(ctx)()

	old, ok := s.data.cards[card.ID]
	if !ok {
		return nil
	}
	card.BankID = old.BankID
	card.CreatedAt = old.CreatedAt
	card.UpdatedAt = s.now()
	s.data.cards[card.ID] = card
	return nil
}

// DeleteCard ...
func (s *Store) DeleteCard(ctx context.Context, id int64) error {
	defer s.write(ctx)()

	if _, ok := s.data.cards[id]; !ok {
		return nil
	}
	if s.data.cardReferenced(id) {
		return conflict("delete card", fmt.Sprintf("card %d is still referenced", id))
	}

	delete(s.data.cards, id)
	for k, p := range s.data.pendingCards {
		if p.ExistingCardID.Valid && p.ExistingCardID.Int64 == id {
			p.ExistingCardID.Valid = false
			p.ExistingCardID.Int64 = 0
			s.data.pendingCards[k] = p
		}
	}
	return nil
}

func (d *data) cardReferenced(id int64) bool {
	for _, b := range d.benefits {
		if b.CardID == id {
			return true
		}
	}
	for _, c := range d.campaigns {
		if c.CardID == id {
			return true
		}
	}
	for _, p := range d.pendingBenefits {
		if p.CardID == id {
			return true
		}
	}
	for _, p := range d.pendingCampaigns {
		if p.CardID == id {
			return true
		}
	}
	return false
}

// ListBrands ...
func (s *Store) ListBrands(ctx context.Context) ([]model.Brand, error) {
	defer s.read(ctx)()

	var result []model.Brand
	for _, id := range sortedIDs(s.data.brands, false) {
		result = append(result, s.data.brands[id])
	}
	return result, nil
}

// ListBrandKeywords ...
func (s *Store) ListBrandKeywords(ctx context.Context) ([]model.BrandKeyword, error) {
	defer s.read(ctx)()

	var result []model.BrandKeyword
	for _, id := range sortedIDs(s.data.keywords, false) {
		result = append(result, s.data.keywords[id])
	}
	return result, nil
}

// GetBrand ...
func (s *Store) GetBrand(ctx context.Context, id int64) (model.NullBrand, error) {
	defer s.read(ctx)()

	brand, ok := s.data.brands[id]
	return model.NullBrand{Valid: ok, Brand: brand}, nil
}

// GetBrandByCode ...
func (s *Store) GetBrandByCode(ctx context.Context, code string) (model.NullBrand, error) {
	defer s.read(ctx)()

	for _, b := range s.data.brands {
		if b.Code == code {
			return model.NullBrand{Valid: true, Brand: b}, nil
		}
	}
	return model.NullBrand{}, nil
}

func (d *data) brandCodeTaken(code string, exceptID int64) bool {
	for _, b := range d.brands {
		if b.Code == code && b.ID != exceptID {
			return true
		}
	}
	return false
}

// InsertBrand ...
func (s *Store) InsertBrand(ctx context.Context, brand model.Brand) (int64, error) {
	defer s.write(ctx)()

	if s.data.brandCodeTaken(brand.Code, 0) {
		return 0, apperr.AlreadyExists("insert brand "+brand.Code, nil)
	}

	brand.ID = s.data.nextID()
	brand.CreatedAt = s.now()
	brand.UpdatedAt = brand.CreatedAt
	s.data.brands[brand.ID] = brand
	return brand.ID, nil
}

// UpdateBrand ...
func (s *Store) UpdateBrand(ctx context.Context, brand model.Brand) error {
	defer s.write(ctx)()

	old, ok := s.data.brands[brand.ID]
	if !ok {
		return nil
	}
	if s.data.brandCodeTaken(brand.Code, brand.ID) {
		return apperr.AlreadyExists("update brand "+brand.Code, nil)
	}
	brand.CreatedAt = old.CreatedAt
	brand.UpdatedAt = s.now()
	s.data.brands[brand.ID] = brand
	return nil
}

// InsertBrandKeywords ...
func (s *Store) InsertBrandKeywords(ctx context.Context, brandID int64, keywords []string) error {
	defer s.write(ctx)()

	if len(keywords) == 0 {
		return nil
	}
	if _, ok := s.data.brands[brandID]; !ok {
		return conflict("insert brand keywords", fmt.Sprintf("brand %d does not exist", brandID))
	}

	seen := map[string]struct{}{}
	for _, k := range s.data.keywords {
		if k.BrandID == brandID {
			seen[k.Keyword] = struct{}{}
		}
	}
	for _, k := range keywords {
		if _, ok := seen[k]; ok {
			return apperr.AlreadyExists("insert brand keywords", nil)
		}
		seen[k] = struct{}{}
	}

	for _, k := range keywords {
		id := s.data.nextID()
		s.data.keywords[id] = model.BrandKeyword{
			ID: id, BrandID: brandID, Keyword: k, CreatedAt: s.now(),
		}
	}
	return nil
}
