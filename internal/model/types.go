// Package model defines domain types used by the storefront.
package model

import "github.com/shopspring/decimal"

// ProductRecord is a normalized catalog item. ID is the backend's
// immutable item identifier and is stable across refreshes.
type ProductRecord struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	UnitOfMeasure string          `json:"uom"`
	ImageRef      string          `json:"image"`
}

// CartLine pairs a product with its selected quantity. Quantity is
// always >= 1; removal is a separate operation, never a zero quantity.
type CartLine struct {
	Product  ProductRecord `json:"product"`
	Quantity int           `json:"quantity"`
}
