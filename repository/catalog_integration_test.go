//go:build integration
// +build integration

package repository

import (
	"context"
	"database/sql"
	"errors"
	"github.com/coolviki/paywise/model"
	"github.com/coolviki/paywise/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestCatalog_Cards(t *testing.T) {
	r := newRepoTest()
	bankID := r.insertBank(t, "icici", "ICICI Bank")

	//---------------------------------------
	// Get Not Found
	//---------------------------------------
	nullCard, err := r.catalog.GetCard(r.readCtx(), 100)
	assert.Equal(t, nil, err)
	assert.Equal(t, false, nullCard.Valid)

	//---------------------------------------
	// Insert
	//---------------------------------------
	var cardID int64
	r.transact(t, func(ctx context.Context) error {
		cardID, err = r.catalog.InsertCard(ctx, model.Card{
			BankID:      bankID,
			Name:        "ICICI Coral",
			CardType:    model.CardTypeCredit,
			CardNetwork: sql.NullString{Valid: true, String: "visa"},
			AnnualFee:   decimal.NewNullDecimal(decimal.NewFromInt(500)),
			IsActive:    true,
		})
		return err
	})
	assert.NotEqual(t, int64(0), cardID)

	nullCard, err = r.catalog.GetCard(r.readCtx(), cardID)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, nullCard.Valid)
	assert.Equal(t, "ICICI Coral", nullCard.Card.Name)
	assert.Equal(t, bankID, nullCard.Card.BankID)
	assert.Equal(t, "visa", nullCard.Card.CardNetwork.String)
	assert.Equal(t, "500", nullCard.Card.AnnualFee.Decimal.String())
	assert.Equal(t, false, nullCard.Card.BaseRewardRate.Valid)

	//---------------------------------------
	// Update
	//---------------------------------------
	card := nullCard.Card
	card.Name = "ICICI Coral Card"
	r.transact(t, func(ctx context.Context) error {
		return r.catalog.UpdateCard(ctx, card)
	})

	cards, err := r.catalog.ListCards(r.readCtx())
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(cards))
	assert.Equal(t, "ICICI Coral Card", cards[0].Name)

	//---------------------------------------
	// Lock And Delete
	//---------------------------------------
	r.transact(t, func(ctx context.Context) error {
		locked, err := r.catalog.LockCard(ctx, cardID)
		assert.Equal(t, nil, err)
		assert.Equal(t, true, locked.Valid)
		return r.catalog.DeleteCard(ctx, cardID)
	})

	nullCard, err = r.catalog.GetCard(r.readCtx(), cardID)
	assert.Equal(t, nil, err)
	assert.Equal(t, false, nullCard.Valid)
}

func TestCatalog_Delete_Referenced_Card(t *testing.T) {
	r := newRepoTest()
	bankID := r.insertBank(t, "hdfc", "HDFC Bank")
	cardID := r.insertCard(t, bankID, "HDFC Swiggy")
	brandID := r.insertBrand(t, "Swiggy", "swiggy")
	r.insertBenefit(t, cardID, brandID, "10")

	err := r.provider.Transact(newContext(), func(ctx context.Context) error {
		return r.catalog.DeleteCard(ctx, cardID)
	})
	assert.True(t, errors.Is(err, apperr.ErrConflict))
}

func TestCatalog_Banks(t *testing.T) {
	r := newRepoTest()
	r.insertBank(t, "hdfc", "HDFC Bank")
	r.insertBank(t, "sbi", "State Bank of India")

	banks, err := r.catalog.ListBanks(r.readCtx())
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(banks))
	assert.Equal(t, "hdfc", banks[0].Code)

	nullBank, err := r.catalog.GetBankByCode(r.readCtx(), "sbi")
	assert.Equal(t, nil, err)
	assert.Equal(t, true, nullBank.Valid)
	assert.Equal(t, "State Bank of India", nullBank.Bank.Name)

	nullBank, err = r.catalog.GetBankByCode(r.readCtx(), "axis")
	assert.Equal(t, nil, err)
	assert.Equal(t, false, nullBank.Valid)
}

func TestCatalog_Brands(t *testing.T) {
	r := newRepoTest()

	brandID := r.insertBrand(t, "Swiggy", "swiggy")
	r.transact(t, func(ctx context.Context) error {
		return r.catalog.InsertBrandKeywords(ctx, brandID, []string{"swiggy", "instamart"})
	})

	//---------------------------------------
	// Duplicated Code
	//---------------------------------------
	err := r.provider.Transact(newContext(), func(ctx context.Context) error {
		_, err := r.catalog.InsertBrand(ctx, model.Brand{Name: "Swiggy Food", Code: "swiggy", IsActive: true})
		return err
	})
	assert.True(t, errors.Is(err, apperr.ErrAlreadyExists))

	//---------------------------------------
	// Get
	//---------------------------------------
	nullBrand, err := r.catalog.GetBrandByCode(r.readCtx(), "swiggy")
	assert.Equal(t, nil, err)
	assert.Equal(t, true, nullBrand.Valid)
	assert.Equal(t, brandID, nullBrand.Brand.ID)

	keywords, err := r.catalog.ListBrandKeywords(r.readCtx())
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(keywords))
	assert.Equal(t, "swiggy", keywords[0].Keyword)
	assert.Equal(t, "instamart", keywords[1].Keyword)

	//---------------------------------------
	// Duplicated Keyword
	//---------------------------------------
	err = r.provider.Transact(newContext(), func(ctx context.Context) error {
		return r.catalog.InsertBrandKeywords(ctx, brandID, []string{"swiggy"})
	})
	assert.True(t, errors.Is(err, apperr.ErrAlreadyExists))
}

func TestBenefit_At_Most_One_Active(t *testing.T) {
	r := newRepoTest()
	bankID := r.insertBank(t, "hdfc", "HDFC Bank")
	cardID := r.insertCard(t, bankID, "HDFC Swiggy")
	brandID := r.insertBrand(t, "Swiggy", "swiggy")
	benefitID := r.insertBenefit(t, cardID, brandID, "8")

	err := r.provider.Transact(newContext(), func(ctx context.Context) error {
		_, err := r.benefit.InsertBenefit(ctx, model.CardEcosystemBenefit{
			CardID: cardID, BrandID: brandID, BenefitRate: decimal.NewFromInt(10),
			BenefitType: "cashback", IsActive: true,
		})
		return err
	})
	assert.True(t, errors.Is(err, apperr.ErrAlreadyExists))

	nullBenefit, err := r.benefit.FindActiveBenefit(r.readCtx(), cardID, brandID)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, nullBenefit.Valid)
	assert.Equal(t, benefitID, nullBenefit.Benefit.ID)
	assert.Equal(t, "8", nullBenefit.Benefit.BenefitRate.String())

	// inactive rows do not count
	benefit := nullBenefit.Benefit
	benefit.IsActive = false
	r.transact(t, func(ctx context.Context) error {
		return r.benefit.UpdateBenefit(ctx, benefit)
	})
	r.insertBenefit(t, cardID, brandID, "10")

	benefits, err := r.benefit.ListBenefitsByCard(r.readCtx(), cardID)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(benefits))
}

func TestCampaign_Find(t *testing.T) {
	r := newRepoTest()
	bankID := r.insertBank(t, "hdfc", "HDFC Bank")
	cardID := r.insertCard(t, bankID, "HDFC Swiggy")
	brandID := r.insertBrand(t, "Swiggy", "swiggy")

	var campaignID int64
	r.transact(t, func(ctx context.Context) error {
		var err error
		campaignID, err = r.campaign.InsertCampaign(ctx, model.Campaign{
			CardID:      cardID,
			BrandID:     brandID,
			BenefitRate: decimal.NewFromInt(15),
			BenefitType: "cashback",
			StartDate:   newDate("2024-10-01"),
			EndDate:     newDate("2024-10-31"),
			IsActive:    true,
		})
		return err
	})

	nullCampaign, err := r.campaign.FindCampaign(r.readCtx(), cardID, brandID,
		newDate("2024-10-01"), newDate("2024-10-31"))
	assert.Equal(t, nil, err)
	assert.Equal(t, true, nullCampaign.Valid)
	assert.Equal(t, campaignID, nullCampaign.Campaign.ID)
	assert.Equal(t, newDate("2024-10-01"), nullCampaign.Campaign.StartDate)

	nullCampaign, err = r.campaign.FindCampaign(r.readCtx(), cardID, brandID,
		newDate("2024-11-01"), newDate("2024-11-30"))
	assert.Equal(t, nil, err)
	assert.Equal(t, false, nullCampaign.Valid)
}
