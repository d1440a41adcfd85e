package model

import (
	"database/sql"
	"time"
)

// Brand ...
type Brand struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	Code        string         `db:"code"`
	Description sql.NullString `db:"description"`
	IsActive    bool           `db:"is_active"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NullBrand ...
type NullBrand struct {
	Valid bool
	Brand Brand
}

// BrandKeyword is a free-text substring used to recognise a brand, e.g. "swiggy"
type BrandKeyword struct {
	ID      int64  `db:"id"`
	BrandID int64  `db:"brand_id"`
	Keyword string `db:"keyword"`

	CreatedAt time.Time `db:"created_at"`
}

// Snapshot ...
func (b Brand) Snapshot() BrandSnapshot {
	return BrandSnapshot{
		Name:        b.Name,
		Code:        b.Code,
		Description: b.Description,
	}
}
