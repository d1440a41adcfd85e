package resolver

import (
	"context"
	"github.com/coolviki/paywise/model"
	"github.com/coolviki/paywise/pkg/memtable"
	"github.com/coolviki/paywise/repository/memrepo"
	"github.com/stretchr/testify/assert"
	"testing"
)

type resolverTest struct {
	store *memrepo.Store
	r     *Resolver
	ctx   context.Context
}

func newResolverTest() *resolverTest {
	store := memrepo.NewStore()
	return &resolverTest{
		store: store,
		r:     New(store, memtable.New(MemoSize)),
		ctx:   store.Readonly(context.Background()),
	}
}

func TestResolver_FindCard(t *testing.T) {
	tc := newResolverTest()
	hdfc := tc.store.AddBank("hdfc", "HDFC Bank")
	cardID := tc.store.AddCard(hdfc, "Swiggy HDFC Bank Credit Card")

	nullCard, err := tc.r.FindCard(tc.ctx, "HDFC Swiggy", "hdfc")
	assert.Equal(t, nil, err)
	assert.Equal(t, true, nullCard.Valid)
	assert.Equal(t, cardID, nullCard.Card.ID)

	nullCard, err = tc.r.FindCard(tc.ctx, "HDFC Regalia", "hdfc")
	assert.Equal(t, nil, err)
	assert.Equal(t, false, nullCard.Valid)
}

func TestResolver_FindCard_Memo_Is_Verified(t *testing.T) {
	tc := newResolverTest()
	icici := tc.store.AddBank("icici", "ICICI Bank")
	keepID := tc.store.AddCard(icici, "ICICI Coral")
	dupID := tc.store.AddCard(icici, "ICICI Coral Credit Card")

	nullCard, err := tc.r.FindCard(tc.ctx, "Coral Credit Card", "icici")
	assert.Equal(t, nil, err)
	assert.Equal(t, dupID, nullCard.Card.ID)

	id, ok := tc.r.memo.GetNum(memoKey("Coral Credit Card", "icici"))
	assert.Equal(t, true, ok)
	assert.Equal(t, uint64(dupID), id)

	// merged away while the run is going on
	err = tc.store.Transact(context.Background(), func(ctx context.Context) error {
		_, err := tc.store.RepointCard(ctx, dupID, keepID, model.Review{Status: model.PendingStatusRejected})
		return err
	})
	assert.Equal(t, nil, err)

	nullCard, err = tc.r.FindCard(tc.ctx, "Coral Credit Card", "icici")
	assert.Equal(t, nil, err)
	assert.Equal(t, true, nullCard.Valid)
	assert.Equal(t, keepID, nullCard.Card.ID)
}

func TestResolver_Reset(t *testing.T) {
	tc := newResolverTest()
	hdfc := tc.store.AddBank("hdfc", "HDFC Bank")
	tc.store.AddCard(hdfc, "HDFC Millennia")

	_, err := tc.r.FindCard(tc.ctx, "Millennia", "hdfc")
	assert.Equal(t, nil, err)
	_, ok := tc.r.memo.GetNum(memoKey("Millennia", "hdfc"))
	assert.Equal(t, true, ok)

	tc.r.Reset()
	_, ok = tc.r.memo.GetNum(memoKey("Millennia", "hdfc"))
	assert.Equal(t, false, ok)
}

func TestResolver_FindBrand(t *testing.T) {
	tc := newResolverTest()
	swiggyID := tc.store.AddBrand("Swiggy", "swiggy", "swiggy", "instamart")

	nullBrand, err := tc.r.FindBrand(tc.ctx, "Instamart")
	assert.Equal(t, nil, err)
	assert.Equal(t, true, nullBrand.Valid)
	assert.Equal(t, swiggyID, nullBrand.Brand.ID)

	nullBrand, err = tc.r.FindBrand(tc.ctx, "Zomato")
	assert.Equal(t, nil, err)
	assert.Equal(t, false, nullBrand.Valid)
}
