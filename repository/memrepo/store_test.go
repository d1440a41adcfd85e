package memrepo

import (
	"context"
	"database/sql"
	"errors"
	"github.com/coolviki/paywise/model"
	"github.com/coolviki/paywise/pkg/apperr"
	"github.com/coolviki/paywise/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func newContext() context.Context {
	return context.Background()
}

func newDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestStore_Transact_Rollback(t *testing.T) {
	s := NewStore()
	bankID := s.AddBank("hdfc", "HDFC Bank")

	errInner := errors.New("inner error")
	err := s.Transact(newContext(), func(ctx context.Context) error {
		_, err := s.InsertCard(ctx, model.Card{BankID: bankID, Name: "HDFC Swiggy"})
		assert.Equal(t, nil, err)
		return errInner
	})
	assert.Equal(t, errInner, err)

	cards, err := s.ListCards(s.Readonly(newContext()))
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(cards))
}

func TestStore_Transact_Rollback_On_Panic(t *testing.T) {
	s := NewStore()
	bankID := s.AddBank("hdfc", "HDFC Bank")

	assert.PanicsWithValue(t, "some panic", func() {
		_ = s.Transact(newContext(), func(ctx context.Context) error {
			_, err := s.InsertCard(ctx, model.Card{BankID: bankID, Name: "HDFC Swiggy"})
			assert.Equal(t, nil, err)
			panic("some panic")
		})
	})

	cards, err := s.ListCards(s.Readonly(newContext()))
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(cards))
}

func TestStore_Transact_Nested_Joins_Outer(t *testing.T) {
	s := NewStore()
	bankID := s.AddBank("hdfc", "HDFC Bank")

	errOuter := errors.New("outer error")
	err := s.Transact(newContext(), func(ctx context.Context) error {
		err := s.Transact(ctx, func(ctx context.Context) error {
			_, err := s.InsertCard(ctx, model.Card{BankID: bankID, Name: "HDFC Swiggy"})
			return err
		})
		assert.Equal(t, nil, err)
		return errOuter
	})
	assert.Equal(t, errOuter, err)

	cards, err := s.ListCards(s.Readonly(newContext()))
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(cards))
}

func TestStore_Write_Outside_Transaction_Panics(t *testing.T) {
	s := NewStore()
	assert.PanicsWithValue(t, "Not found transaction", func() {
		_, _ = s.InsertCard(s.Readonly(newContext()), model.Card{})
	})
	assert.PanicsWithValue(t, "Not found readonly repository", func() {
		_, _ = s.ListCards(newContext())
	})
}

func TestStore_Unique_Keys(t *testing.T) {
	s := NewStore()
	bankID := s.AddBank("hdfc", "HDFC Bank")
	cardID := s.AddCard(bankID, "HDFC Swiggy")
	brandID := s.AddBrand("Swiggy", "swiggy", "swiggy")

	err := s.Transact(newContext(), func(ctx context.Context) error {
		_, err := s.InsertBrand(ctx, model.Brand{Name: "Swiggy 2", Code: "swiggy"})
		return err
	})
	assert.True(t, errors.Is(err, apperr.ErrAlreadyExists))

	err = s.Transact(newContext(), func(ctx context.Context) error {
		return s.InsertBrandKeywords(ctx, brandID, []string{"swiggy"})
	})
	assert.True(t, errors.Is(err, apperr.ErrAlreadyExists))

	s.AddBenefit(model.CardEcosystemBenefit{CardID: cardID, BrandID: brandID, BenefitRate: decimal.NewFromInt(8)})
	err = s.Transact(newContext(), func(ctx context.Context) error {
		_, err := s.InsertBenefit(ctx, model.CardEcosystemBenefit{
			CardID: cardID, BrandID: brandID, BenefitRate: decimal.NewFromInt(10), IsActive: true,
		})
		return err
	})
	assert.True(t, errors.Is(err, apperr.ErrAlreadyExists))

	pending := model.PendingEcosystemChange{
		CardID: cardID, BrandID: brandID, ChangeType: model.ChangeTypeNew, Status: model.PendingStatusPending,
	}
	var pendingID int64
	err = s.Transact(newContext(), func(ctx context.Context) error {
		pendingID, err = s.InsertPendingBenefit(ctx, pending)
		return err
	})
	assert.Equal(t, nil, err)

	err = s.Transact(newContext(), func(ctx context.Context) error {
		_, err := s.InsertPendingBenefit(ctx, pending)
		return err
	})
	assert.True(t, errors.Is(err, apperr.ErrAlreadyExists))

	// terminal rows release the key
	err = s.Transact(newContext(), func(ctx context.Context) error {
		affected, err := s.MarkReviewed(ctx, model.PendingKindBenefit, pendingID, model.Review{
			Status: model.PendingStatusRejected, ReviewedBy: "admin",
		})
		assert.Equal(t, true, affected)
		if err != nil {
			return err
		}
		_, err = s.InsertPendingBenefit(ctx, pending)
		return err
	})
	assert.Equal(t, nil, err)
}

func TestStore_Delete_Referenced_Card(t *testing.T) {
	s := NewStore()
	bankID := s.AddBank("hdfc", "HDFC Bank")
	cardID := s.AddCard(bankID, "HDFC Swiggy")
	brandID := s.AddBrand("Swiggy", "swiggy")
	s.AddBenefit(model.CardEcosystemBenefit{CardID: cardID, BrandID: brandID})

	err := s.Transact(newContext(), func(ctx context.Context) error {
		return s.DeleteCard(ctx, cardID)
	})
	assert.True(t, errors.Is(err, apperr.ErrConflict))
}

func TestStore_Pending_Update_Only_While_Pending(t *testing.T) {
	s := NewStore()
	bankID := s.AddBank("hdfc", "HDFC Bank")
	cardID := s.AddCard(bankID, "HDFC Swiggy")
	brandID := s.AddBrand("Swiggy", "swiggy")

	var id int64
	_ = s.Transact(newContext(), func(ctx context.Context) error {
		id, _ = s.InsertPendingBenefit(ctx, model.PendingEcosystemChange{
			CardID: cardID, BrandID: brandID, BenefitRate: decimal.NewFromInt(5),
			ChangeType: model.ChangeTypeNew, Status: model.PendingStatusPending,
		})
		_, _ = s.MarkReviewed(ctx, model.PendingKindBenefit, id, model.Review{Status: model.PendingStatusApproved})
		return s.UpdatePendingBenefit(ctx, model.PendingEcosystemChange{ID: id, BenefitRate: decimal.NewFromInt(9)})
	})

	got, err := s.GetPendingBenefit(s.Readonly(newContext()), id)
	assert.Equal(t, nil, err)
	assert.Equal(t, "5", got.Change.BenefitRate.String())
	assert.Equal(t, model.PendingStatusApproved, got.Change.Status)
}

func TestStore_RepointCard(t *testing.T) {
	s := NewStore()
	bankID := s.AddBank("icici", "ICICI Bank")
	keepID := s.AddCard(bankID, "ICICI Coral")
	dupID := s.AddCard(bankID, "ICICI Coral Credit Card")
	swiggyID := s.AddBrand("Swiggy", "swiggy")
	zomatoID := s.AddBrand("Zomato", "zomato")

	s.AddBenefit(model.CardEcosystemBenefit{CardID: keepID, BrandID: swiggyID, BenefitRate: decimal.NewFromInt(5)})
	s.AddBenefit(model.CardEcosystemBenefit{CardID: dupID, BrandID: swiggyID, BenefitRate: decimal.NewFromInt(6)})
	s.AddCampaign(model.Campaign{
		CardID: dupID, BrandID: zomatoID, StartDate: newDate("2024-10-01"), EndDate: newDate("2024-10-31"),
	})

	var keepPending, dupPending int64
	_ = s.Transact(newContext(), func(ctx context.Context) error {
		keepPending, _ = s.InsertPendingBenefit(ctx, model.PendingEcosystemChange{
			CardID: keepID, BrandID: zomatoID, ChangeType: model.ChangeTypeNew, Status: model.PendingStatusPending,
		})
		dupPending, _ = s.InsertPendingBenefit(ctx, model.PendingEcosystemChange{
			CardID: dupID, BrandID: zomatoID, ChangeType: model.ChangeTypeNew, Status: model.PendingStatusPending,
		})
		_, err := s.InsertPendingCard(ctx, model.PendingCardChange{
			BankID: bankID, ExistingCardID: sql.NullInt64{Valid: true, Int64: dupID},
			CanonicalName: "coral credit", ChangeType: model.ChangeTypeUpdate, Status: model.PendingStatusPending,
		})
		return err
	})

	var result repository.RepointResult
	err := s.Transact(newContext(), func(ctx context.Context) error {
		var err error
		result, err = s.RepointCard(ctx, dupID, keepID, model.Review{
			Status: model.PendingStatusRejected, ReviewedBy: "system:merge",
		})
		return err
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, repository.RepointResult{
		BenefitsMoved:        1,
		BenefitsDeactivated:  1,
		CampaignsMoved:       1,
		PendingBenefitsMoved: 1,
		PendingCardsMoved:    1,
		PendingRejected:      1,
	}, result)

	ctx := s.Readonly(newContext())

	card, _ := s.GetCard(ctx, dupID)
	assert.Equal(t, false, card.Valid)

	benefits, _ := s.ListBenefitsByCard(ctx, keepID)
	assert.Equal(t, 2, len(benefits))
	active, _ := s.FindActiveBenefit(ctx, keepID, swiggyID)
	assert.Equal(t, "5", active.Benefit.BenefitRate.String())

	campaigns, _ := s.ListCampaignsByCard(ctx, keepID)
	assert.Equal(t, 1, len(campaigns))

	p, _ := s.GetPendingBenefit(ctx, dupPending)
	assert.Equal(t, keepID, p.Change.CardID)
	assert.Equal(t, model.PendingStatusRejected, p.Change.Status)
	assert.Equal(t, "system:merge", p.Change.ReviewedBy.String)

	p, _ = s.GetPendingBenefit(ctx, keepPending)
	assert.Equal(t, model.PendingStatusPending, p.Change.Status)

	cards, _ := s.ListPendingCards(ctx, model.PendingStatusPending)
	assert.Equal(t, keepID, cards[0].ExistingCardID.Int64)
}
