// Package memrepo is an in-memory implementation of the repository interfaces.
// It enforces the same unique keys and foreign keys as the MySQL schema so services
// can be tested without a database.
package memrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/coolviki/paywise/model"
	"github.com/coolviki/paywise/repository"
)

// Store implements every repository interface and repository.Provider
type Store struct {
	txMu sync.Mutex // one transaction at a time

	mu   sync.Mutex
	data *data

	now func() time.Time
}

var _ repository.Provider = &Store{}
var _ repository.Catalog = &Store{}
var _ repository.Benefit = &Store{}
var _ repository.Campaign = &Store{}
var _ repository.Pending = &Store{}
var _ repository.Merge = &Store{}

type data struct {
	lastID int64

	banks    map[int64]model.Bank
	cards    map[int64]model.Card
	brands   map[int64]model.Brand
	keywords map[int64]model.BrandKeyword

	benefits  map[int64]model.CardEcosystemBenefit
	campaigns map[int64]model.Campaign

	pendingBenefits  map[int64]model.PendingEcosystemChange
	pendingBrands    map[int64]model.PendingBrandChange
	pendingCards     map[int64]model.PendingCardChange
	pendingCampaigns map[int64]model.PendingCampaign
}

func newData() *data {
	return &data{
		banks:    map[int64]model.Bank{},
		cards:    map[int64]model.Card{},
		brands:   map[int64]model.Brand{},
		keywords: map[int64]model.BrandKeyword{},

		benefits:  map[int64]model.CardEcosystemBenefit{},
		campaigns: map[int64]model.Campaign{},

		pendingBenefits:  map[int64]model.PendingEcosystemChange{},
		pendingBrands:    map[int64]model.PendingBrandChange{},
		pendingCards:     map[int64]model.PendingCardChange{},
		pendingCampaigns: map[int64]model.PendingCampaign{},
	}
}

func cloneMap[T any](m map[int64]T) map[int64]T {
	result := make(map[int64]T, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}

func (d *data) clone() *data {
	pendingBrands := make(map[int64]model.PendingBrandChange, len(d.pendingBrands))
	for k, v := range d.pendingBrands {
		v.Keywords = append(model.KeywordList(nil), v.Keywords...)
		pendingBrands[k] = v
	}

	return &data{
		lastID: d.lastID,

		banks:    cloneMap(d.banks),
		cards:    cloneMap(d.cards),
		brands:   cloneMap(d.brands),
		keywords: cloneMap(d.keywords),

		benefits:  cloneMap(d.benefits),
		campaigns: cloneMap(d.campaigns),

		pendingBenefits:  cloneMap(d.pendingBenefits),
		pendingBrands:    pendingBrands,
		pendingCards:     cloneMap(d.pendingCards),
		pendingCampaigns: cloneMap(d.pendingCampaigns),
	}
}

func (d *data) nextID() int64 {
	d.lastID++
	return d.lastID
}

func sortedIDs[T any](m map[int64]T, desc bool) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if desc {
			return ids[i] > ids[j]
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Option ...
type Option func(s *Store)

// WithNow overrides the clock used for created_at and updated_at
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty store
func NewStore(options ...Option) *Store {
	s := &Store{
		data: newData(),
		now:  time.Now,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

type ctxTxKeyType struct{}
type ctxReadonlyKeyType struct{}

var ctxTxKey = ctxTxKeyType{}
var ctxReadonlyKey = ctxReadonlyKeyType{}

// Transact runs fn with every write of fn undone when it returns an error or panics.
// A nested call joins the outer transaction.
func (s *Store) Transact(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(ctxTxKey) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	committed := false
	defer func() {
		if committed {
			return
		}
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
	}()

	err = fn(context.WithValue(ctx, ctxTxKey, true))
	if err != nil {
		return err
	}
	committed = true
	return nil
}

// Readonly ...
func (s *Store) Readonly(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxReadonlyKey, true)
}

// read locks the store for a read, panicking like repository.GetReadonly outside Readonly or Transact
func (s *Store) read(ctx context.Context) func() {
	if ctx.Value(ctxTxKey) == nil && ctx.Value(ctxReadonlyKey) == nil {
		panic("Not found readonly repository")
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// write locks the store for a write, panicking like repository.GetTx outside Transact
func (s *Store) write(ctx context.Context) func() {
	if ctx.Value(ctxTxKey) == nil {
		panic("Not found transaction")
	}
	s.mu.Lock()
	return s.mu.Unlock
}

//------------------------------------------------
// Fixtures
//------------------------------------------------

// AddBank inserts a bank and returns its id
func (s *Store) AddBank(code string, name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.data.nextID()
	now := s.now()
	s.data.banks[id] = model.Bank{
		ID: id, Name: name, Code: code, IsActive: true,
		CreatedAt: now, UpdatedAt: now,
	}
	return id
}

func (s *Store) mustTransact(fn func(ctx context.Context) error) {
	if err := s.Transact(context.Background(), fn); err != nil {
		panic(err)
	}
}

// AddCard inserts an active credit card and returns its id
func (s *Store) AddCard(bankID int64, name string) int64 {
	var id int64
	s.mustTransact(func(ctx context.Context) error {
		var err error
		id, err = s.InsertCard(ctx, model.Card{
			BankID: bankID, Name: name, CardType: model.CardTypeCredit, IsActive: true,
		})
		return err
	})
	return id
}

// AddBrand inserts an active brand with its keywords and returns its id
func (s *Store) AddBrand(name string, code string, keywords ...string) int64 {
	var id int64
	s.mustTransact(func(ctx context.Context) error {
		var err error
		id, err = s.InsertBrand(ctx, model.Brand{Name: name, Code: code, IsActive: true})
		if err != nil {
			return err
		}
		return s.InsertBrandKeywords(ctx, id, keywords)
	})
	return id
}

// AddBenefit inserts an active benefit and returns its id
func (s *Store) AddBenefit(benefit model.CardEcosystemBenefit) int64 {
	var id int64
	benefit.IsActive = true
	s.mustTransact(func(ctx context.Context) error {
		var err error
		id, err = s.InsertBenefit(ctx, benefit)
		return err
	})
	return id
}

// AddCampaign inserts an active campaign and returns its id
func (s *Store) AddCampaign(campaign model.Campaign) int64 {
	var id int64
	campaign.IsActive = true
	s.mustTransact(func(ctx context.Context) error {
		var err error
		id, err = s.InsertCampaign(ctx, campaign)
		return err
	})
	return id
}
