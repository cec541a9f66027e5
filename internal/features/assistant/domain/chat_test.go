package domain

import "testing"

func TestTempCartAddMergesByProduct(t *testing.T) {
	cart := NewTempCart()
	if cart.ID == "" {
		t.Fatal("expected generated cart id")
	}

	cart.Add(TempCartItem{ProductID: "p1", Name: "Roses", Price: 1500}, 1)
	cart.Add(TempCartItem{ProductID: "p2", Name: "Card", Price: 150.5}, 2)
	cart.Add(TempCartItem{ProductID: "p1", Name: "Roses", Price: 1500}, 2)

	if len(cart.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 3 {
		t.Errorf("expected merged quantity 3, got %d", cart.Items[0].Quantity)
	}
	if cart.Total != 4801 {
		t.Errorf("expected total 4801, got %v", cart.Total)
	}
	if cart.Count() != 5 {
		t.Errorf("expected 5 units, got %d", cart.Count())
	}
}

func TestTempCartAddIgnoresNonPositive(t *testing.T) {
	cart := NewTempCart()
	cart.Add(TempCartItem{ProductID: "p1", Price: 10}, 0)
	cart.Add(TempCartItem{ProductID: "p1", Price: 10}, -1)
	if len(cart.Items) != 0 {
		t.Errorf("expected empty cart, got %+v", cart.Items)
	}
}

func TestTempCartRemove(t *testing.T) {
	cart := NewTempCart()
	cart.Add(TempCartItem{ProductID: "p1", Price: 100}, 3)
	cart.Add(TempCartItem{ProductID: "p2", Price: 50}, 1)

	if !cart.Remove("p1", 1) || cart.Items[0].Quantity != 2 {
		t.Errorf("partial removal failed: %+v", cart.Items)
	}
	if !cart.Remove("p1", 0) {
		t.Error("expected full removal to report true")
	}
	if len(cart.Items) != 1 || cart.Items[0].ProductID != "p2" {
		t.Errorf("unexpected items %+v", cart.Items)
	}
	if cart.Total != 50 {
		t.Errorf("expected total 50, got %v", cart.Total)
	}
	if cart.Remove("nope", 1) {
		t.Error("removing an absent product should report false")
	}
}

func TestTempCartOrderItems(t *testing.T) {
	cart := NewTempCart()
	cart.Add(TempCartItem{ProductID: "p1", Name: "Roses", Price: 100}, 2)
	items := cart.OrderItems()
	if len(items) != 1 || items[0].ProductID != "p1" || items[0].Quantity != 2 || items[0].Price != 100 {
		t.Errorf("unexpected order items %+v", items)
	}
}
