package cart

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erpgo/pos-storefront/internal/model"
)

func product(id, price string) model.ProductRecord {
	d, err := decimal.NewFromString(price)
	if err != nil {
		panic(err)
	}
	return model.ProductRecord{ID: id, Name: "P-" + id, Price: d}
}

func TestAddNewProductGetsQuantityOne(t *testing.T) {
	c := &Cart{}
	c.Add(product("I1", "10"))
	lines := c.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", lines[0].Quantity)
	}
}

func TestAddExistingProductIncrements(t *testing.T) {
	c := &Cart{}
	p := product("I1", "10")
	c.Add(p)
	c.Add(p)
	lines := c.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected a single line, got %d", len(lines))
	}
	if lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", lines[0].Quantity)
	}
}

func TestSetQuantityBelowOneIsNoOp(t *testing.T) {
	c := &Cart{}
	c.Add(product("I1", "10"))
	for _, n := range []int{0, -1, -100} {
		if applied := c.SetQuantity("I1", n); applied {
			t.Fatalf("SetQuantity(%d) must not apply", n)
		}
	}
	lines := c.Lines()
	if len(lines) != 1 || lines[0].Quantity != 1 {
		t.Fatalf("line must survive unchanged, got %+v", lines)
	}
}

func TestSetQuantityUpdates(t *testing.T) {
	c := &Cart{}
	c.Add(product("I1", "10"))
	if !c.SetQuantity("I1", 5) {
		t.Fatalf("expected update to apply")
	}
	if got := c.Lines()[0].Quantity; got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	if c.SetQuantity("missing", 2) {
		t.Fatalf("unknown product must not apply")
	}
}

func TestRemoveIsTheOnlyWayOut(t *testing.T) {
	c := &Cart{}
	c.Add(product("I1", "10"))
	c.SetQuantity("I1", 0)
	if c.Size() != 1 {
		t.Fatalf("zero quantity must not remove the line")
	}
	if !c.Remove("I1") {
		t.Fatalf("expected removal")
	}
	if c.Size() != 0 {
		t.Fatalf("expected empty cart")
	}
	if c.Remove("I1") {
		t.Fatalf("second removal must report false")
	}
}

func TestTotalFold(t *testing.T) {
	c := &Cart{}
	c.Add(product("I1", "10"))
	c.SetQuantity("I1", 2)
	c.Add(product("I2", "5.5"))
	want := decimal.RequireFromString("25.5")
	if got := c.Total(); !got.Equal(want) {
		t.Fatalf("expected total 25.5, got %s", got)
	}
}

func TestTotalEmptyCartIsZero(t *testing.T) {
	c := &Cart{}
	if !c.Total().IsZero() {
		t.Fatalf("expected zero total")
	}
}

func TestSessionsLifecycle(t *testing.T) {
	s := NewSessions()
	id := s.Create()
	if id == "" {
		t.Fatalf("expected session id")
	}
	c, ok := s.Get(id)
	if !ok || c == nil {
		t.Fatalf("expected cart for session")
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatalf("unexpected cart")
	}
	s.Drop(id)
	if _, ok := s.Get(id); ok {
		t.Fatalf("expected dropped session")
	}
}

func TestCartConcurrentAdds(t *testing.T) {
	c := &Cart{}
	p := product("I1", "1")
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add(p)
		}()
	}
	wg.Wait()
	lines := c.Lines()
	if len(lines) != 1 || lines[0].Quantity != 100 {
		t.Fatalf("expected one line with quantity 100, got %+v", lines)
	}
}
