package staging

import (
	"context"
	"database/sql"
	"errors"
	"github.com/coolviki/paywise/model"
	"github.com/coolviki/paywise/pkg/apperr"
	"github.com/coolviki/paywise/pkg/memtable"
	"github.com/coolviki/paywise/repository/memrepo"
	"github.com/coolviki/paywise/service/resolver"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

type stagingTest struct {
	store   *memrepo.Store
	manager *Manager
	now     time.Time
	bank    model.Bank
}

func newStagingTest() *stagingTest {
	store := memrepo.NewStore()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	m := NewManager(store, store, store, store, store,
		resolver.New(store, memtable.New(resolver.MemoSize)),
		WithNow(func() time.Time { return now }),
		WithBrandKeywords(map[string][]string{
			"tata group": {"tata", "croma", "bigbasket"},
		}),
	)

	bankID := store.AddBank("hdfc", "HDFC Bank")
	return &stagingTest{
		store:   store,
		manager: m,
		now:     now,
		bank:    model.Bank{ID: bankID, Code: "hdfc", Name: "HDFC Bank", IsActive: true},
	}
}

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

func (tc *stagingTest) readCtx() context.Context {
	return tc.store.Readonly(newContext())
}

func (tc *stagingTest) pendingBenefits(t *testing.T) []model.PendingEcosystemChange {
	result, err := tc.store.ListPendingBenefits(tc.readCtx(), model.PendingStatusPending)
	require.Equal(t, nil, err)
	return result
}

func (tc *stagingTest) pendingCards(t *testing.T) []model.PendingCardChange {
	result, err := tc.store.ListPendingCards(tc.readCtx(), model.PendingStatusPending)
	require.Equal(t, nil, err)
	return result
}

func (tc *stagingTest) pendingBrands(t *testing.T) []model.PendingBrandChange {
	result, err := tc.store.ListPendingBrands(tc.readCtx(), model.PendingStatusPending)
	require.Equal(t, nil, err)
	return result
}

func (tc *stagingTest) pendingCampaigns(t *testing.T) []model.PendingCampaign {
	result, err := tc.store.ListPendingCampaigns(tc.readCtx(), model.PendingStatusPending)
	require.Equal(t, nil, err)
	return result
}

//------------------------------------------------
// Benefits
//------------------------------------------------

func TestIngestBenefit_New_Is_Idempotent(t *testing.T) {
	tc := newStagingTest()
	cardID := tc.store.AddCard(tc.bank.ID, "HDFC Millennia Credit Card")
	brandID := tc.store.AddBrand("Amazon", "amazon", "amazon")

	candidate := model.ScrapedBenefit{
		CardName:    "Millennia",
		BrandName:   "Amazon",
		BenefitRate: decimal.NewFromInt(5),
		BenefitType: "cashback",
		SourceURL:   sql.NullString{Valid: true, String: "https://example.com/millennia"},
	}

	outcome, err := tc.manager.IngestBenefit(newContext(), tc.bank, candidate)
	assert.Equal(t, nil, err)
	assert.Equal(t, OutcomeStaged, outcome)

	outcome, err = tc.manager.IngestBenefit(newContext(), tc.bank, candidate)
	assert.Equal(t, nil, err)
	assert.Equal(t, OutcomeAlreadyPending, outcome)

	pending := tc.pendingBenefits(t)
	require.Equal(t, 1, len(pending))
	pending[0].ID = 0

	assert.Equal(t, []model.PendingEcosystemChange{
		{
			CardID:      cardID,
			BrandID:     brandID,
			BenefitRate: decimal.NewFromInt(5),
			BenefitType: "cashback",
			SourceURL:   sql.NullString{Valid: true, String: "https://example.com/millennia"},
			ChangeType:  model.ChangeTypeNew,
			Status:      model.PendingStatusPending,
			ScrapedAt:   tc.now,
		},
	}, pending)
}

func TestIngestBenefit_Update_Embeds_Old_Values(t *testing.T) {
	tc := newStagingTest()
	cardID := tc.store.AddCard(tc.bank.ID, "Swiggy HDFC Bank Credit Card")
	brandID := tc.store.AddBrand("Swiggy", "swiggy", "swiggy")
	tc.store.AddBenefit(model.CardEcosystemBenefit{
		CardID:      cardID,
		BrandID:     brandID,
		BenefitRate: decimal.NewFromInt(8),
		BenefitType: "cashback",
		Description: sql.NullString{Valid: true, String: "8% on Swiggy"},
	})

	outcome, err := tc.manager.IngestBenefit(newContext(), tc.bank, model.ScrapedBenefit{
		CardName:    "HDFC Swiggy",
		BrandName:   "Swiggy",
		BenefitRate: decimal.NewFromInt(10),
		BenefitType: "cashback",
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, OutcomeStaged, outcome)

	pending := tc.pendingBenefits(t)
	require.Equal(t, 1, len(pending))
	assert.Equal(t, model.ChangeTypeUpdate, pending[0].ChangeType)
	assert.Equal(t, cardID, pending[0].CardID)
	assert.Equal(t, "10", pending[0].BenefitRate.String())
	assert.Equal(t, sql.NullString{Valid: true, String: "8% on Swiggy"}, pending[0].Description)
	assert.Equal(t, model.NewBenefitSnapshot(model.BenefitSnapshot{
		BenefitRate: decimal.NewFromInt(8),
		BenefitType: "cashback",
		Description: sql.NullString{Valid: true, String: "8% on Swiggy"},
	}), pending[0].OldValues)
	assert.Equal(t, 8.0, pending[0].OldValues.Snapshot.ToMap()["benefit_rate"])
}

func TestIngestBenefit_Unchanged(t *testing.T) {
	tc := newStagingTest()
	cardID := tc.store.AddCard(tc.bank.ID, "HDFC Millennia Credit Card")
	brandID := tc.store.AddBrand("Amazon", "amazon", "amazon")
	tc.store.AddBenefit(model.CardEcosystemBenefit{
		CardID:      cardID,
		BrandID:     brandID,
		BenefitRate: decimal.RequireFromString("5.00"),
		BenefitType: "cashback",
	})

	outcome, err := tc.manager.IngestBenefit(newContext(), tc.bank, model.ScrapedBenefit{
		CardName:    "HDFC Millennia",
		BrandName:   "amazon",
		BenefitRate: decimal.NewFromInt(5),
		BenefitType: "cashback",
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, OutcomeUnchanged, outcome)
	assert.Equal(t, 0, len(tc.pendingBenefits(t)))
}

func TestIngestBenefit_Rate_Rounded_To_Stored_Scale(t *testing.T) {
	tc := newStagingTest()
	cardID := tc.store.AddCard(tc.bank.ID, "HDFC Millennia Credit Card")
	brandID := tc.store.AddBrand("Amazon", "amazon", "amazon")
	tc.store.AddBenefit(model.CardEcosystemBenefit{
		CardID:      cardID,
		BrandID:     brandID,
		BenefitRate: decimal.RequireFromString("1.33"),
		BenefitType: "cashback",
	})

	candidate := model.ScrapedBenefit{
		CardName:    "Millennia",
		BrandName:   "Amazon",
		BenefitRate: decimal.RequireFromString("1.333"),
		BenefitType: "cashback",
	}

	outcome, err := tc.manager.IngestBenefit(newContext(), tc.bank, candidate)
	assert.Equal(t, nil, err)
	assert.Equal(t, OutcomeUnchanged, outcome)
	assert.Equal(t, 0, len(tc.pendingBenefits(t)))

	candidate.BenefitRate = decimal.RequireFromString("1.336")
	outcome, err = tc.manager.IngestBenefit(newContext(), tc.bank, candidate)
	assert.Equal(t, nil, err)
	assert.Equal(t, OutcomeStaged, outcome)

	pending := tc.pendingBenefits(t)
	require.Equal(t, 1, len(pending))
	assert.Equal(t, "1.34", pending[0].BenefitRate.String())
	assert.Equal(t, model.ChangeTypeUpdate, pending[0].ChangeType)
}

func TestIngestBenefit_Rate_Too_Large(t *testing.T) {
	tc := newStagingTest()
	tc.store.AddCard(tc.bank.ID, "HDFC Millennia Credit Card")
	tc.store.AddBrand("Amazon", "amazon", "amazon")

	_, err := tc.manager.IngestBenefit(newContext(), tc.bank, model.ScrapedBenefit{
		CardName:    "Millennia",
		BrandName:   "Amazon",
		BenefitRate: decimal.RequireFromString("9999.995"),
		BenefitType: "cashback",
	})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t, 0, len(tc.pendingBenefits(t)))
}

func TestIngestBenefit_Unresolved_Card(t *testing.T) {
	tc := newStagingTest()
	tc.store.AddCard(tc.bank.ID, "Swiggy HDFC Bank Credit Card")
	tc.store.AddBrand("Swiggy", "swiggy", "swiggy")

	candidate := model.ScrapedBenefit{
		CardName:    "HDFC Regalia Gold Visa Credit Card",
		BrandName:   "Swiggy",
		BenefitRate: decimal.NewFromInt(5),
		BenefitType: "points",
	}

	outcome, err := tc.manager.IngestBenefit(newContext(), tc.bank, candidate)
	assert.Equal(t, nil, err)
	assert.Equal(t, OutcomeCardStaged, outcome)

	outcome, err = tc.manager.IngestBenefit(newContext(), tc.bank, candidate)
	assert.Equal(t, nil, err)
	assert.Equal(t, OutcomeAlreadyPending, outcome)

	cards := tc.pendingCards(t)
	require.Equal(t, 1, len(cards))
	assert.Equal(t, "HDFC Regalia Gold Visa Credit Card", cards[0].Name)
	assert.Equal(t, "regalia gold", cards[0].CanonicalName)
	assert.Equal(t, model.CardTypeCredit, cards[0].CardType)
	assert.Equal(t, sql.NullString{Valid: true, String: "visa"}, cards[0].CardNetwork)
	assert.Equal(t, sql.NullString{Valid: true, String: "hdfc"}, cards[0].SourceBank)
	assert.Equal(t, model.ChangeTypeNew, cards[0].ChangeType)

	assert.Equal(t, 0, len(tc.pendingBenefits(t)))
	assert.Equal(t, 0, len(tc.pendingBrands(t)))
}

func TestIngestBenefit_Unresolved_Brand(t *testing.T) {
	tc := newStagingTest()
	tc.store.AddCard(tc.bank.ID, "HDFC Millennia Credit Card")

	outcome, err := tc.manager.IngestBenefit(newContext(), tc.bank, model.ScrapedBenefit{
		CardName:    "Millennia",
		BrandName:   "Tata Group",
		BenefitRate: decimal.NewFromInt(5),
		BenefitType: "cashback",
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, OutcomeBrandStaged, outcome)

	outcome, err = tc.manager.IngestBenefit(newContext(), tc.bank, model.ScrapedBenefit{
		CardName:    "Millennia",
		BrandName:   "Nykaa",
		BenefitRate: decimal.NewFromInt(2),
		BenefitType: "cashback",
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, OutcomeBrandStaged, outcome)

	brands := tc.pendingBrands(t)
	require.Equal(t, 2, len(brands))

	// newest first
	assert.Equal(t, "nykaa", brands[0].Code)
	assert.Equal(t, model.KeywordList{"nykaa"}, brands[0].Keywords)

	assert.Equal(t, "Tata Group", brands[1].Name)
	assert.Equal(t, "tata_group", brands[1].Code)
	assert.Equal(t, model.KeywordList{"tata", "croma", "bigbasket"}, brands[1].Keywords)
	assert.Equal(t, sql.NullString{Valid: true, String: "Auto-discovered from Millennia scraping"}, brands[1].Description)

	assert.Equal(t, 0, len(tc.pendingBenefits(t)))
}

func TestIngestBenefit_Brand_Code_Taken(t *testing.T) {
	tc := newStagingTest()
	tc.store.AddCard(tc.bank.ID, "HDFC Millennia Credit Card")
	tc.store.AddBrand("IndianOil", "indian_oil")

	outcome, err := tc.manager.IngestBenefit(newContext(), tc.bank, model.ScrapedBenefit{
		CardName:    "Millennia",
		BrandName:   "Indian Oil",
		BenefitRate: decimal.NewFromInt(1),
		BenefitType: "cashback",
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, OutcomeUnresolved, outcome)
	assert.Equal(t, 0, len(tc.pendingBrands(t)))
}

func TestIngestBenefit_Validation(t *testing.T) {
	tc := newStagingTest()

	_, err := tc.manager.IngestBenefit(newContext(), tc.bank, model.ScrapedBenefit{
		CardName:    "Millennia",
		BrandName:   " ",
		BenefitRate: decimal.NewFromInt(1),
		BenefitType: "cashback",
	})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = tc.manager.IngestBenefit(newContext(), tc.bank, model.ScrapedBenefit{
		CardName:    "Millennia",
		BrandName:   "Amazon",
		BenefitRate: decimal.NewFromInt(-1),
		BenefitType: "cashback",
	})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestIngestBenefits_Batch(t *testing.T) {
	tc := newStagingTest()
	tc.store.AddCard(tc.bank.ID, "HDFC Millennia Credit Card")
	tc.store.AddBrand("Amazon", "amazon", "amazon")

	result := tc.manager.IngestBenefits(newContext(), tc.bank, []model.ScrapedBenefit{
		{CardName: "Millennia", BrandName: "Amazon", BenefitRate: decimal.NewFromInt(5), BenefitType: "cashback"},
		{CardName: "Millennia", BrandName: "Amazon", BenefitRate: decimal.NewFromInt(5), BenefitType: "cashback"},
		{CardName: "Diners Black", BrandName: "Amazon", BenefitRate: decimal.NewFromInt(3), BenefitType: "points"},
		{CardName: "Millennia", BrandName: "Myntra", BenefitRate: decimal.NewFromInt(3), BenefitType: "points"},
		{CardName: "Millennia", BrandName: "Amazon", BenefitRate: decimal.NewFromInt(5), BenefitType: ""},
	})
	assert.Equal(t, Result{
		PendingCreated: 1,
		CardsCreated:   1,
		BrandsCreated:  1,
		Skipped:        1,
		Failed:         1,
	}, result)
}

//------------------------------------------------
// Campaigns
//------------------------------------------------

func TestIngestCampaign_New_And_Update(t *testing.T) {
	tc := newStagingTest()
	cardID := tc.store.AddCard(tc.bank.ID, "HDFC Millennia Credit Card")
	brandID := tc.store.AddBrand("Amazon", "amazon", "amazon")
	campaignID := tc.store.AddCampaign(model.Campaign{
		CardID:      cardID,
		BrandID:     brandID,
		BenefitRate: decimal.NewFromInt(5),
		BenefitType: "cashback",
		StartDate:   newDate("2026-03-01"),
		EndDate:     newDate("2026-03-31"),
	})

	// same range, different rate
	outcome, err := tc.manager.IngestCampaign(newContext(), tc.bank, model.ScrapedCampaign{
		CardName:    "Millennia",
		BrandName:   "Amazon",
		BenefitRate: decimal.NewFromInt(7),
		BenefitType: "cashback",
		StartDate:   newDate("2026-03-01"),
		EndDate:     newDate("2026-03-31"),
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, OutcomeStaged, outcome)

	// a different range coexists
	outcome, err = tc.manager.IngestCampaign(newContext(), tc.bank, model.ScrapedCampaign{
		CardName:    "Millennia",
		BrandName:   "Amazon",
		BenefitRate: decimal.NewFromInt(7),
		BenefitType: "cashback",
		StartDate:   newDate("2026-04-01"),
		EndDate:     newDate("2026-04-30"),
		TermsURL:    sql.NullString{Valid: true, String: "https://example.com/tnc"},
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, OutcomeStaged, outcome)

	campaigns := tc.pendingCampaigns(t)
	require.Equal(t, 2, len(campaigns))

	assert.Equal(t, model.ChangeTypeNew, campaigns[0].ChangeType)
	assert.Equal(t, newDate("2026-04-01"), campaigns[0].StartDate)
	assert.Equal(t, sql.NullString{Valid: true, String: "https://example.com/tnc"}, campaigns[0].TermsURL)

	assert.Equal(t, model.ChangeTypeUpdate, campaigns[1].ChangeType)
	assert.Equal(t, sql.NullInt64{Valid: true, Int64: campaignID}, campaigns[1].ExistingCampaignID)
	assert.Equal(t, "5", campaigns[1].OldValues.Snapshot.BenefitRate.String())
	assert.Equal(t, newDate("2026-03-31"), campaigns[1].OldValues.Snapshot.EndDate)

	// re-ingestion
	outcome, err = tc.manager.IngestCampaign(newContext(), tc.bank, model.ScrapedCampaign{
		CardName:    "Millennia",
		BrandName:   "Amazon",
		BenefitRate: decimal.NewFromInt(9),
		BenefitType: "cashback",
		StartDate:   newDate("2026-04-01"),
		EndDate:     newDate("2026-04-30"),
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, OutcomeAlreadyPending, outcome)
	assert.Equal(t, 2, len(tc.pendingCampaigns(t)))
}

func TestIngestCampaign_Rate_Rounded_To_Stored_Scale(t *testing.T) {
	tc := newStagingTest()
	cardID := tc.store.AddCard(tc.bank.ID, "HDFC Millennia Credit Card")
	brandID := tc.store.AddBrand("Amazon", "amazon", "amazon")
	tc.store.AddCampaign(model.Campaign{
		CardID:      cardID,
		BrandID:     brandID,
		BenefitRate: decimal.RequireFromString("7.5"),
		BenefitType: "cashback",
		StartDate:   newDate("2026-03-01"),
		EndDate:     newDate("2026-03-31"),
	})

	outcome, err := tc.manager.IngestCampaign(newContext(), tc.bank, model.ScrapedCampaign{
		CardName:    "Millennia",
		BrandName:   "Amazon",
		BenefitRate: decimal.RequireFromString("7.499"),
		BenefitType: "cashback",
		StartDate:   newDate("2026-03-01"),
		EndDate:     newDate("2026-03-31"),
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, OutcomeUnchanged, outcome)
	assert.Equal(t, 0, len(tc.pendingCampaigns(t)))
}

func TestIngestCampaign_Start_After_End(t *testing.T) {
	tc := newStagingTest()
	tc.store.AddCard(tc.bank.ID, "HDFC Millennia Credit Card")
	tc.store.AddBrand("Amazon", "amazon", "amazon")

	candidate := model.ScrapedCampaign{
		CardName:    "Millennia",
		BrandName:   "Amazon",
		BenefitRate: decimal.NewFromInt(7),
		BenefitType: "cashback",
		StartDate:   newDate("2026-05-01"),
		EndDate:     newDate("2026-04-01"),
	}

	_, err := tc.manager.IngestCampaign(newContext(), tc.bank, candidate)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	result := tc.manager.IngestCampaigns(newContext(), tc.bank, []model.ScrapedCampaign{candidate})
	assert.Equal(t, Result{Failed: 1}, result)
	assert.Equal(t, 0, len(tc.pendingCampaigns(t)))
}

func TestIngestCampaign_Unresolved_Card(t *testing.T) {
	tc := newStagingTest()
	tc.store.AddBrand("Amazon", "amazon", "amazon")

	result := tc.manager.IngestCampaigns(newContext(), tc.bank, []model.ScrapedCampaign{
		{
			CardName:    "HDFC Tata Neu Infinity",
			BrandName:   "Amazon",
			BenefitRate: decimal.NewFromInt(7),
			BenefitType: "cashback",
			StartDate:   newDate("2026-05-01"),
			EndDate:     newDate("2026-05-31"),
		},
	})
	assert.Equal(t, Result{CardsCreated: 1}, result)

	cards := tc.pendingCards(t)
	require.Equal(t, 1, len(cards))
	assert.Equal(t, "tata neu infinity", cards[0].CanonicalName)
}

//------------------------------------------------
// Inference
//------------------------------------------------

func TestInferCard(t *testing.T) {
	table := []struct {
		name     string
		cardType model.CardType
		network  sql.NullString
	}{
		{name: "HDFC Millennia Debit Card", cardType: model.CardTypeDebit},
		{name: "ICICI Coral Visa", cardType: model.CardTypeCredit, network: sql.NullString{Valid: true, String: "visa"}},
		{name: "SBI Master Card", cardType: model.CardTypeCredit, network: sql.NullString{Valid: true, String: "mastercard"}},
		{name: "Axis RuPay Debit", cardType: model.CardTypeDebit, network: sql.NullString{Valid: true, String: "rupay"}},
		{name: "American Express Gold", cardType: model.CardTypeCredit, network: sql.NullString{Valid: true, String: "amex"}},
	}

	for _, e := range table {
		t.Run(e.name, func(t *testing.T) {
			assert.Equal(t, e.cardType, inferCardType(e.name))
			assert.Equal(t, e.network, inferNetwork(e.name))
		})
	}
}
