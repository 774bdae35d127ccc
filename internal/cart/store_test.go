package cart

import (
	"errors"
	"testing"
	"time"

	"github.com/mintcart/internal/models"
)

type recordingSaver struct {
	saves  int
	wipes  int
	latest []models.LineItem
}

func (s *recordingSaver) Save(items []models.LineItem) {
	s.saves++
	s.latest = items
}

func (s *recordingSaver) Wipe() {
	s.wipes++
}

func nmFoil(stock int) models.LineItem {
	return models.LineItem{
		CardID:       42,
		VariationKey: models.BuildVariationKey("NM", "foil", "EN"),
		Name:         "Charizard",
		Price:        models.NewMoneyFromFloat(120.50),
		Stock:        stock,
	}
}

func TestAddItemMergesSameVariation(t *testing.T) {
	store := NewStore(nil)
	outcome, err := store.AddItem(nmFoil(3), 2)
	if err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	if outcome != AddOutcomeAdded {
		t.Fatalf("expected added, got %d", outcome)
	}

	outcome, err = store.AddItem(nmFoil(3), 1)
	if err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	if outcome != AddOutcomeMerged {
		t.Fatalf("expected merged, got %d", outcome)
	}
	if len(store.Items()) != 1 {
		t.Fatalf("expected single line item, got %d", len(store.Items()))
	}
	item, ok := store.GetItem(42, "NM-foil-EN")
	if !ok || item.Quantity != 3 {
		t.Fatalf("unexpected item: %+v ok=%v", item, ok)
	}
}

func TestAddItemClampsMergeToStock(t *testing.T) {
	store := NewStore(nil)
	if _, err := store.AddItem(nmFoil(3), 2); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	outcome, err := store.AddItem(nmFoil(3), 5)
	if err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	if outcome != AddOutcomePartial {
		t.Fatalf("expected partial, got %d", outcome)
	}
	item, _ := store.GetItem(42, "NM-foil-EN")
	if item.Quantity != 3 {
		t.Fatalf("expected quantity clamped to 3, got %d", item.Quantity)
	}

	outcome, err = store.AddItem(nmFoil(3), 1)
	if err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	if outcome != AddOutcomeAtLimit {
		t.Fatalf("expected at limit, got %d", outcome)
	}
	item, _ = store.GetItem(42, "NM-foil-EN")
	if item.Quantity != 3 {
		t.Fatalf("quantity moved past stock: %d", item.Quantity)
	}
}

func TestAddItemNewLineClampedToStock(t *testing.T) {
	store := NewStore(nil)
	outcome, err := store.AddItem(nmFoil(2), 10)
	if err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	if outcome != AddOutcomePartial {
		t.Fatalf("expected partial, got %d", outcome)
	}
	item, _ := store.GetItem(42, "NM-foil-EN")
	if item.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", item.Quantity)
	}
}

func TestAddItemRejectsInvalidCandidate(t *testing.T) {
	store := NewStore(nil)
	bad := nmFoil(3)
	bad.Name = "  "
	if _, err := store.AddItem(bad, 1); !errors.Is(err, ErrInvalidItem) {
		t.Fatalf("expected ErrInvalidItem for blank name, got %v", err)
	}
	bad = nmFoil(3)
	bad.Price = models.NewMoneyFromFloat(0)
	if _, err := store.AddItem(bad, 1); !errors.Is(err, ErrInvalidItem) {
		t.Fatalf("expected ErrInvalidItem for zero price, got %v", err)
	}
	bad = nmFoil(0)
	if _, err := store.AddItem(bad, 1); !errors.Is(err, ErrInvalidItem) {
		t.Fatalf("expected ErrInvalidItem for zero stock, got %v", err)
	}
	if len(store.Items()) != 0 {
		t.Fatalf("rejected candidates must not enter the cart")
	}
}

func TestVariationsAreDistinctLines(t *testing.T) {
	store := NewStore(nil)
	if _, err := store.AddItem(nmFoil(3), 1); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	played := nmFoil(5)
	played.VariationKey = models.BuildVariationKey("LP", "nonfoil", "EN")
	if _, err := store.AddItem(played, 1); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	if len(store.Items()) != 2 {
		t.Fatalf("expected 2 distinct lines, got %d", len(store.Items()))
	}
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	store := NewStore(nil)
	if _, err := store.AddItem(nmFoil(3), 2); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	store.UpdateQuantity(42, "NM-foil-EN", 0)
	if store.HasItem(42, "NM-foil-EN") {
		t.Fatalf("expected item removed on zero quantity")
	}
}

func TestUpdateQuantityDoesNotClampToStock(t *testing.T) {
	store := NewStore(nil)
	if _, err := store.AddItem(nmFoil(3), 1); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	store.UpdateQuantity(42, "NM-foil-EN", 99)
	item, _ := store.GetItem(42, "NM-foil-EN")
	if item.Quantity != 99 {
		t.Fatalf("expected direct quantity set of 99, got %d", item.Quantity)
	}
}

func TestUpdateQuantityAbsentIsNoop(t *testing.T) {
	saver := &recordingSaver{}
	store := NewStore(saver)
	store.UpdateQuantity(7, "NM", 3)
	if saver.saves != 0 {
		t.Fatalf("update of absent item must not persist, saves=%d", saver.saves)
	}
}

func TestRemoveItemIdempotent(t *testing.T) {
	saver := &recordingSaver{}
	store := NewStore(saver)
	if _, err := store.AddItem(nmFoil(3), 1); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	store.RemoveItem(42, "NM-foil-EN")
	savesAfterRemove := saver.saves
	store.RemoveItem(42, "NM-foil-EN")
	if saver.saves != savesAfterRemove {
		t.Fatalf("second remove must be a no-op, saves=%d", saver.saves)
	}
}

func TestClearWipesSlot(t *testing.T) {
	saver := &recordingSaver{}
	store := NewStore(saver)
	if _, err := store.AddItem(nmFoil(3), 2); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	store.Clear()
	if len(store.Items()) != 0 {
		t.Fatalf("expected empty cart after clear")
	}
	if saver.wipes != 1 {
		t.Fatalf("expected one wipe, got %d", saver.wipes)
	}
}

func TestWriteThroughOnMutations(t *testing.T) {
	saver := &recordingSaver{}
	store := NewStore(saver)
	if _, err := store.AddItem(nmFoil(3), 1); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	store.UpdateQuantity(42, "NM-foil-EN", 2)
	store.RemoveItem(42, "NM-foil-EN")
	if saver.saves != 3 {
		t.Fatalf("expected 3 write-throughs, got %d", saver.saves)
	}
}

func TestTotalUsesCurrentPriceWhenAnnotated(t *testing.T) {
	store := NewStore(nil)
	if _, err := store.AddItem(nmFoil(3), 2); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	current := models.NewMoneyFromFloat(100)
	if !store.ApplyPriceDrift(42, "NM-foil-EN", current) {
		t.Fatalf("expected drift applied")
	}
	total := store.Total()
	if total.String() != "200.00" {
		t.Fatalf("expected total 200.00, got %s", total.String())
	}
	item, _ := store.GetItem(42, "NM-foil-EN")
	if !item.PriceChanged || item.OriginalPrice == nil || item.CurrentPrice == nil {
		t.Fatalf("missing drift annotations: %+v", item)
	}
}

func TestApplyDriftOnRemovedItem(t *testing.T) {
	store := NewStore(nil)
	if store.ApplyPriceDrift(9, "NM", models.NewMoneyFromFloat(5)) {
		t.Fatalf("drift on absent item must report false")
	}
	if store.ApplyStockShortfall(9, "NM", 0) {
		t.Fatalf("shortfall on absent item must report false")
	}
}

func TestPruneExpired(t *testing.T) {
	saver := &recordingSaver{}
	store := NewStore(saver)
	old := nmFoil(3)
	fresh := nmFoil(3)
	fresh.VariationKey = "LP-nonfoil-EN"
	if _, err := store.AddItem(old, 1); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	if _, err := store.AddItem(fresh, 1); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}

	// 把第一条行项的加入时间拨回 8 天前
	items := store.Items()
	items[0].AddedAt = time.Now().Add(-8 * 24 * time.Hour).UnixMilli()
	store.ReplaceAll(items)

	cutoff := time.Now().Add(-7 * 24 * time.Hour).UnixMilli()
	if removed := store.PruneExpired(cutoff); removed != 1 {
		t.Fatalf("expected 1 pruned item, got %d", removed)
	}
	if store.HasItem(42, "NM-foil-EN") {
		t.Fatalf("expired line should be gone")
	}
	if !store.HasItem(42, "LP-nonfoil-EN") {
		t.Fatalf("fresh line should survive")
	}
	if removed := store.PruneExpired(cutoff); removed != 0 {
		t.Fatalf("second prune should remove nothing, got %d", removed)
	}
}
