package repository

import (
	"context"
	"github.com/coolviki/paywise/model"
)

// Catalog accesses the production banks, cards, brands and brand keywords
type Catalog interface {
	ListBanks(ctx context.Context) ([]model.Bank, error)
	GetBankByCode(ctx context.Context, code string) (model.NullBank, error)

	ListCards(ctx context.Context) ([]model.Card, error)
	GetCard(ctx context.Context, id int64) (model.NullCard, error)
	LockCard(ctx context.Context, id int64) (model.NullCard, error)
	InsertCard(ctx context.Context, card model.Card) (int64, error)
	UpdateCard(ctx context.Context, card model.Card) error
	DeleteCard(ctx context.Context, id int64) error

	ListBrands(ctx context.Context) ([]model.Brand, error)
	ListBrandKeywords(ctx context.Context) ([]model.BrandKeyword, error)
	GetBrand(ctx context.Context, id int64) (model.NullBrand, error)
	GetBrandByCode(ctx context.Context, code string) (model.NullBrand, error)
	InsertBrand(ctx context.Context, brand model.Brand) (int64, error)
	UpdateBrand(ctx context.Context, brand model.Brand) error
	InsertBrandKeywords(ctx context.Context, brandID int64, keywords []string) error
}

type catalogImpl struct {
}

// NewCatalog ...
func NewCatalog() Catalog {
	return &catalogImpl{}
}

const bankColumns = `id, name, code, is_active, created_at, updated_at`

const cardColumns = `id, bank_id, name, card_type, card_network, annual_fee,
	reward_type, base_reward_rate, is_active, created_at, updated_at`

const brandColumns = `id, name, code, description, is_active, created_at, updated_at`

// ListBanks ...
func (c *catalogImpl) ListBanks(ctx context.Context) ([]model.Bank, error) {
	query := `SELECT ` + bankColumns + ` FROM banks ORDER BY id`
	var result []model.Bank
	err := GetReadonly(ctx).SelectContext(ctx, &result, query)
	return result, err
}

// GetBankByCode ...
func (c *catalogImpl) GetBankByCode(ctx context.Context, code string) (model.NullBank, error) {
	query := `SELECT ` + bankColumns + ` FROM banks WHERE code = ?`
	var bank model.Bank
	found, err := getNullable(ctx, GetReadonly(ctx), &bank, query, code)
	return model.NullBank{Valid: found, Bank: bank}, err
}

// ListCards returns every card ordered by id
func (c *catalogImpl) ListCards(ctx context.Context) ([]model.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards ORDER BY id`
	var result []model.Card
	err := GetReadonly(ctx).SelectContext(ctx, &result, query)
	return result, err
}

// GetCard ...
func (c *catalogImpl) GetCard(ctx context.Context, id int64) (model.NullCard, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = ?`
	var card model.Card
	found, err := getNullable(ctx, GetReadonly(ctx), &card, query, id)
	return model.NullCard{Valid: found, Card: card}, err
}

// LockCard ...
func (c *catalogImpl) LockCard(ctx context.Context, id int64) (model.NullCard, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = ? FOR UPDATE`
	var card model.Card
	found, err := getNullable(ctx, GetTx(ctx), &card, query, id)
	return model.NullCard{Valid: found, Card: card}, err
}

// InsertCard ...
func (c *catalogImpl) InsertCard(ctx context.Context, card model.Card) (int64, error) {
	query := `
INSERT INTO cards (
	bank_id, name, card_type, card_network, annual_fee,
	reward_type, base_reward_rate, is_active
) VALUES (
	:bank_id, :name, :card_type, :card_network, :annual_fee,
	:reward_type, :base_reward_rate, :is_active
)
`
	return namedInsert(ctx, "insert card", query, card)
}

// UpdateCard ...
func (c *catalogImpl) UpdateCard(ctx context.Context, card model.Card) error {
	query := `
UPDATE cards SET
	name = :name,
	card_type = :card_type,
	card_network = :card_network,
	annual_fee = :annual_fee,
	reward_type = :reward_type,
	base_reward_rate = :base_reward_rate,
	is_active = :is_active
WHERE id = :id
`
	return namedExec(ctx, "update card", query, card)
}

// DeleteCard ...
func (c *catalogImpl) DeleteCard(ctx context.Context, id int64) error {
	_, err := exec(ctx, "delete card", `DELETE FROM cards WHERE id = ?`, id)
	return err
}

// ListBrands ...
func (c *catalogImpl) ListBrands(ctx context.Context) ([]model.Brand, error) {
	query := `SELECT ` + brandColumns + ` FROM brands ORDER BY id`
	var result []model.Brand
	err := GetReadonly(ctx).SelectContext(ctx, &result, query)
	return result, err
}

// ListBrandKeywords ...
func (c *catalogImpl) ListBrandKeywords(ctx context.Context) ([]model.BrandKeyword, error) {
	query := `SELECT id, brand_id, keyword, created_at FROM brand_keywords ORDER BY brand_id, id`
	var result []model.BrandKeyword
	err := GetReadonly(ctx).SelectContext(ctx, &result, query)
	return result, err
}

// GetBrand ...
func (c *catalogImpl) GetBrand(ctx context.Context, id int64) (model.NullBrand, error) {
	query := `SELECT ` + brandColumns + ` FROM brands WHERE id = ?`
	var brand model.Brand
	found, err := getNullable(ctx, GetReadonly(ctx), &brand, query, id)
	return model.NullBrand{Valid: found, Brand: brand}, err
}

// GetBrandByCode ...
func (c *catalogImpl) GetBrandByCode(ctx context.Context, code string) (model.NullBrand, error) {
	query := `SELECT ` + brandColumns + ` FROM brands WHERE code = ?`
	var brand model.Brand
	found, err := getNullable(ctx, GetReadonly(ctx), &brand, query, code)
	return model.NullBrand{Valid: found, Brand: brand}, err
}

// InsertBrand ...
func (c *catalogImpl) InsertBrand(ctx context.Context, brand model.Brand) (int64, error) {
	query := `
INSERT INTO brands (name, code, description, is_active)
VALUES (:name, :code, :description, :is_active)
`
	return namedInsert(ctx, "insert brand "+brand.Code, query, brand)
}

// UpdateBrand ...
func (c *catalogImpl) UpdateBrand(ctx context.Context, brand model.Brand) error {
	query := `
UPDATE brands SET
	name = :name,
	code = :code,
	description = :description,
	is_active = :is_active
WHERE id = :id
`
	return namedExec(ctx, "update brand "+brand.Code, query, brand)
}

// InsertBrandKeywords ...
func (c *catalogImpl) InsertBrandKeywords(ctx context.Context, brandID int64, keywords []string) error {
	if len(keywords) == 0 {
		return nil
	}

	rows := make([]model.BrandKeyword, 0, len(keywords))
	for _, k := range keywords {
		rows = append(rows, model.BrandKeyword{BrandID: brandID, Keyword: k})
	}

	query := `INSERT INTO brand_keywords (brand_id, keyword) VALUES (:brand_id, :keyword)`
	return namedExec(ctx, "insert brand keywords", query, rows)
}
