package resolver

import (
	"context"

	"github.com/coolviki/paywise/model"
	"github.com/coolviki/paywise/pkg/memtable"
	"github.com/coolviki/paywise/pkg/otellib"
	"github.com/coolviki/paywise/repository"
	"go.uber.org/zap"
)

// MemoSize is the freecache size used for card resolutions
const MemoSize = 1 << 20

// Resolver maps candidate names onto production cards and brands.
// Positive card resolutions are memoized until Reset, a memoized card is
// looked up again before use so a merged card is never returned.
type Resolver struct {
	catalog repository.Catalog
	memo    *memtable.MemTable
}

// New ...
func New(catalog repository.Catalog, memo *memtable.MemTable) *Resolver {
	return &Resolver{
		catalog: catalog,
		memo:    memo,
	}
}

// Reset clears memoized resolutions, called at the start of every run
func (r *Resolver) Reset() {
	r.memo.Clear()
}

func memoKey(name string, bankHint string) string {
	return bankHint + "\x00" + name
}

// FindCard ...
func (r *Resolver) FindCard(ctx context.Context, name string, bankHint string) (model.NullCard, error) {
	key := memoKey(name, bankHint)
	if id, ok := r.memo.GetNum(key); ok {
		nullCard, err := r.catalog.GetCard(ctx, int64(id))
		if err != nil {
			return model.NullCard{}, err
		}
		if nullCard.Valid {
			return nullCard, nil
		}
		otellib.Extract(ctx).Debug("memoized card is gone", zap.String("card_name", name), zap.Uint64("id", id))
		r.memo.Delete(key)
	}

	cards, err := r.catalog.ListCards(ctx)
	if err != nil {
		return model.NullCard{}, err
	}
	banks, err := r.catalog.ListBanks(ctx)
	if err != nil {
		return model.NullCard{}, err
	}

	bankCodes := make(map[int64]string, len(banks))
	for _, b := range banks {
		bankCodes[b.ID] = b.Code
	}

	card, ok := MatchCard(cards, bankCodes, name, bankHint)
	if !ok {
		return model.NullCard{}, nil
	}
	r.memo.SetNum(key, uint64(card.ID))
	return model.NullCard{Valid: true, Card: card}, nil
}

// FindBrand ...
func (r *Resolver) FindBrand(ctx context.Context, name string) (model.NullBrand, error) {
	brands, err := r.catalog.ListBrands(ctx)
	if err != nil {
		return model.NullBrand{}, err
	}
	keywords, err := r.catalog.ListBrandKeywords(ctx)
	if err != nil {
		return model.NullBrand{}, err
	}

	brand, ok := MatchBrand(brands, keywords, name)
	return model.NullBrand{Valid: ok, Brand: brand}, nil
}
