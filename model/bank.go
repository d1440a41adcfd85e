package model

import "time"

// Bank ...
type Bank struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	Code     string `db:"code"`
	IsActive bool   `db:"is_active"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NullBank ...
type NullBank struct {
	Valid bool
	Bank  Bank
}
