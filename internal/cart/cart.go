// Package cart holds session-scoped cart state. Carts live in memory only
// and die with the session; they are never persisted.
package cart

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erpgo/pos-storefront/internal/model"
)

// Cart aggregates selected products for one session. Lines keep insertion
// order, matching how the UI lists them.
type Cart struct {
	mu    sync.Mutex
	lines []model.CartLine
}

// Add inserts a line with quantity 1, or increments the existing line.
func (c *Cart) Add(p model.ProductRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].Product.ID == p.ID {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, model.CartLine{Product: p, Quantity: 1})
}

// Remove deletes the line for productID. It reports whether a line was
// removed; removal is the only way a line disappears.
func (c *Cart) Remove(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return true
		}
	}
	return false
}

// SetQuantity updates the quantity for productID. Quantities below 1 are a
// no-op; the line keeps its previous quantity. It reports whether the
// update was applied.
func (c *Cart) SetQuantity(productID string, n int) bool {
	if n < 1 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			c.lines[i].Quantity = n
			return true
		}
	}
	return false
}

// Lines returns a copy of the cart contents.
func (c *Cart) Lines() []model.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Has reports whether productID is in the cart.
func (c *Cart) Has(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			return true
		}
	}
	return false
}

// Size returns the number of lines.
func (c *Cart) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Total folds price times quantity over all lines. It is recomputed on
// every call; nothing to invalidate.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for i := range c.lines {
		qty := decimal.NewFromInt(int64(c.lines[i].Quantity))
		total = total.Add(c.lines[i].Product.Price.Mul(qty))
	}
	return total
}

// Sessions maps session ids to carts.
type Sessions struct {
	mu sync.Mutex
	m  map[string]*Cart
}

// NewSessions creates an empty session registry.
func NewSessions() *Sessions {
	return &Sessions{m: make(map[string]*Cart)}
}

// Create registers a new empty cart and returns its session id.
func (s *Sessions) Create() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.m[id] = &Cart{}
	s.mu.Unlock()
	return id
}

// Get looks a session's cart up.
func (s *Sessions) Get(id string) (*Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.m[id]
	return c, ok
}

// Drop removes a session and its cart.
func (s *Sessions) Drop(id string) {
	s.mu.Lock()
	delete(s.m, id)
	s.mu.Unlock()
}
