package model

import (
	"time"

	"orderdesk/internal/money"
)

// Product represents an item in the merchant catalogue.
type Product struct {
	ID        string            `json:"id" db:"id"`
	Name      string            `json:"name" db:"name"`
	Price     money.MajorAmount `json:"price" db:"price"`
	Category  string            `json:"category" db:"category"`
	Stock     int               `json:"stock" db:"stock"`
	CreatedAt time.Time         `json:"createdAt" db:"created_at"`
}
