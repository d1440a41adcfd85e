//go:build integration
// +build integration

package repository

import (
	"context"
	"github.com/coolviki/paywise/model"
	"github.com/coolviki/paywise/pkg/integration"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

type repoTest struct {
	tc       *integration.TestCase
	provider Provider

	catalog  Catalog
	benefit  Benefit
	campaign Campaign
	pending  Pending
	merge    Merge
}

func newRepoTest() *repoTest {
	tc := integration.NewTestCase()
	tc.TruncateAll()
	return &repoTest{
		tc:       tc,
		provider: NewProvider(tc.DB),

		catalog:  NewCatalog(),
		benefit:  NewBenefit(),
		campaign: NewCampaign(),
		pending:  NewPending(),
		merge:    NewMerge(),
	}
}

func (r *repoTest) readCtx() context.Context {
	return r.provider.Readonly(newContext())
}

func (r *repoTest) insertBank(t *testing.T, code string, name string) int64 {
	result, err := r.tc.DB.Exec(`INSERT INTO banks (name, code) VALUES (?, ?)`, name, code)
	require.Equal(t, nil, err)
	id, err := result.LastInsertId()
	require.Equal(t, nil, err)
	return id
}

func (r *repoTest) transact(t *testing.T, fn func(ctx context.Context) error) {
	err := r.provider.Transact(newContext(), fn)
	require.Equal(t, nil, err)
}

func (r *repoTest) insertCard(t *testing.T, bankID int64, name string) int64 {
	var id int64
	r.transact(t, func(ctx context.Context) error {
		var err error
		id, err = r.catalog.InsertCard(ctx, model.Card{
			BankID:   bankID,
			Name:     name,
			CardType: model.CardTypeCredit,
			IsActive: true,
		})
		return err
	})
	return id
}

func (r *repoTest) insertBrand(t *testing.T, name string, code string) int64 {
	var id int64
	r.transact(t, func(ctx context.Context) error {
		var err error
		id, err = r.catalog.InsertBrand(ctx, model.Brand{Name: name, Code: code, IsActive: true})
		return err
	})
	return id
}

func (r *repoTest) insertBenefit(t *testing.T, cardID, brandID int64, rate string) int64 {
	var id int64
	r.transact(t, func(ctx context.Context) error {
		var err error
		id, err = r.benefit.InsertBenefit(ctx, model.CardEcosystemBenefit{
			CardID:      cardID,
			BrandID:     brandID,
			BenefitRate: decimal.RequireFromString(rate),
			BenefitType: "cashback",
			IsActive:    true,
		})
		return err
	})
	return id
}

func newDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}
